package glaze

import (
	"context"
	"reflect"
	"sort"
	"strings"
)

// Kind is the capability flag separating static engines from compiling engines.
type Kind int

const (
	// KindStatic engines render once during Prepare and memoize the result.
	KindStatic Kind = iota
	// KindCompiling engines build a Renderer per binding shape.
	KindCompiling
)

// String returns the kind name
func (k Kind) String() string {
	switch k {
	case KindStatic:
		return KindNameStatic
	case KindCompiling:
		return KindNameCompiling
	default:
		return KindNameUnknown
	}
}

// Kind names
const (
	KindNameStatic    = "static"
	KindNameCompiling = "compiling"
	KindNameUnknown   = "unknown"
)

// Metadata holds the per-engine static attributes. It is copied into the
// EngineType at construction and never mutated afterwards.
type Metadata struct {
	// MimeType is the default output MIME type.
	MimeType string
	// AllowsScript reports whether templates may embed arbitrary executable code.
	// Advisory only, for sandboxing decisions made by callers.
	AllowsScript bool
	// Literate reports whether the engine parses literate-mode sources.
	Literate bool
	// DefaultEncoding overrides the process default encoding for sources of this engine.
	DefaultEncoding string
}

// YieldFunc produces the deferred content a template may include, typically a layout body.
type YieldFunc func() string

// Processor is the per-instance engine state. A new Processor is created for
// every Template; Prepare is called exactly once before the first render.
type Processor interface {
	Prepare(t *Template) error
}

// StaticProcessor is implemented by KindStatic engines.
type StaticProcessor interface {
	Processor
	// Output returns the memoized result computed during Prepare.
	Output() string
}

// CompilingProcessor is implemented by KindCompiling engines.
type CompilingProcessor interface {
	Processor
	// Compile builds a Renderer specialized for the given shape. It is called at
	// most once per distinct shape per Template (modulo benign races).
	Compile(shape Shape) (Renderer, error)
}

// Renderer is a compiled artifact. Implementations must be safe for concurrent use.
type Renderer interface {
	Render(ctx context.Context, scope any, locals map[string]any, yield YieldFunc) (string, error)
}

// RenderFunc adapts a function to the Renderer interface.
type RenderFunc func(ctx context.Context, scope any, locals map[string]any, yield YieldFunc) (string, error)

// Render calls f.
func (f RenderFunc) Render(ctx context.Context, scope any, locals map[string]any, yield YieldFunc) (string, error) {
	return f(ctx, scope, locals, yield)
}

// Lister is optionally implemented by a Renderer to describe its compiled form.
type Lister interface {
	Listing() string
}

// Shape is the compiled-artifact cache key: the sorted set of local names and
// the dynamic type of the scope value.
type Shape struct {
	Locals []string
	Scope  reflect.Type
}

// ShapeOf computes the shape of a render call.
func ShapeOf(scope any, locals map[string]any) Shape {
	names := make([]string, 0, len(locals))
	for name := range locals {
		names = append(names, name)
	}
	sort.Strings(names)
	return Shape{Locals: names, Scope: reflect.TypeOf(scope)}
}

// Has reports whether name is one of the shape's locals.
func (s Shape) Has(name string) bool {
	i := sort.SearchStrings(s.Locals, name)
	return i < len(s.Locals) && s.Locals[i] == name
}

// ScopeName returns a printable name for the scope type.
func (s Shape) ScopeName() string {
	if s.Scope == nil {
		return NilScopeName
	}
	return s.Scope.String()
}

func (s Shape) key() shapeKey {
	return shapeKey{scope: s.Scope, locals: strings.Join(s.Locals, LocalsKeySeparator)}
}

type shapeKey struct {
	scope  reflect.Type
	locals string
}

// EngineType describes one template engine. Two registrations refer to the same
// engine only if they hold the same *EngineType.
type EngineType struct {
	name     string
	kind     Kind
	metadata Metadata
	factory  func() Processor
}

// NewEngineType defines an engine. The factory is called once per Template and
// must return a Processor matching kind.
func NewEngineType(name string, kind Kind, metadata Metadata, factory func() Processor) *EngineType {
	return &EngineType{
		name:     name,
		kind:     kind,
		metadata: metadata,
		factory:  factory,
	}
}

// Name returns the engine identifier.
func (e *EngineType) Name() string { return e.name }

// Kind returns the engine's capability flag.
func (e *EngineType) Kind() Kind { return e.kind }

// Metadata returns a copy of the engine's metadata.
func (e *EngineType) Metadata() Metadata { return e.metadata }

// AllowsScript reports whether the engine permits embedded executable code.
func (e *EngineType) AllowsScript() bool { return e.metadata.AllowsScript }

// String returns the engine name
func (e *EngineType) String() string { return e.name }

// newProcessor creates a processor and checks it implements the declared kind.
func (e *EngineType) newProcessor() (Processor, error) {
	if e.factory == nil {
		return nil, NewConfigError(ErrMsgNilProcessor).WithMetadata(MetaKeyEngine, e.name)
	}
	p := e.factory()
	if p == nil {
		return nil, NewConfigError(ErrMsgNilProcessor).WithMetadata(MetaKeyEngine, e.name)
	}
	switch e.kind {
	case KindStatic:
		if _, ok := p.(StaticProcessor); !ok {
			return nil, NewConfigError(ErrMsgKindMismatch).WithMetadata(MetaKeyEngine, e.name)
		}
	case KindCompiling:
		if _, ok := p.(CompilingProcessor); !ok {
			return nil, NewConfigError(ErrMsgKindMismatch).WithMetadata(MetaKeyEngine, e.name)
		}
	}
	return p, nil
}
