package glaze

import (
	"sort"
	"sync"

	"github.com/itsatony/go-glaze/internal"
)

// Namespace maps engine identifiers to defined engine types. Lazy registrations
// name an identifier that becomes resolvable once its load target defines it here.
type Namespace struct {
	mu      sync.RWMutex
	engines map[string]*EngineType
}

// NewNamespace creates an empty namespace.
func NewNamespace() *Namespace {
	return &Namespace{engines: make(map[string]*EngineType)}
}

// Define binds identifier to engine. Defining the same pair again is a no-op;
// binding an identifier to a different engine is an error.
func (n *Namespace) Define(identifier string, engine *EngineType) error {
	if engine == nil {
		return NewConfigError(ErrMsgNilEngine)
	}
	if !internal.IsIdentifier(identifier) {
		return NewNameError(ErrMsgInvalidIdentifier, identifier, "")
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if existing, ok := n.engines[identifier]; ok && existing != engine {
		return NewConfigError(ErrMsgDuplicateDefine).WithMetadata(MetaKeyIdentifier, identifier)
	}
	n.engines[identifier] = engine
	return nil
}

// Lookup returns the engine defined under identifier.
func (n *Namespace) Lookup(identifier string) (*EngineType, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	engine, ok := n.engines[identifier]
	return engine, ok
}

// Names returns all defined identifiers, sorted.
func (n *Namespace) Names() []string {
	n.mu.RLock()
	defer n.mu.RUnlock()

	names := make([]string, 0, len(n.engines))
	for name := range n.engines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
