package glaze

import (
	"github.com/itsatony/go-glaze/internal"
	"go.uber.org/zap"
)

// FinalizedRegistry is an immutable extension-to-engine snapshot produced by
// Registry.Finalize. Every lazy entry was resolved at snapshot time, so reads
// never load and never lock. All mutators fail with a configuration error.
type FinalizedRegistry struct {
	engines    map[string]*EngineType
	extensions []string
	loader     Loader
	namespace  *Namespace
	logger     *zap.Logger
}

func newFinalizedRegistry(engines map[string]*EngineType, loader Loader, ns *Namespace, logger *zap.Logger) *FinalizedRegistry {
	set := make(map[string]struct{}, len(engines))
	for ext := range engines {
		set[ext] = struct{}{}
	}
	return &FinalizedRegistry{
		engines:    engines,
		extensions: sortedKeys(set),
		loader:     loader,
		namespace:  ns,
		logger:     logger,
	}
}

// Register always fails on a finalized registry.
func (f *FinalizedRegistry) Register(engine *EngineType, exts ...string) error {
	return NewFinalizedError(OpRegister)
}

// RegisterLazy always fails on a finalized registry.
func (f *FinalizedRegistry) RegisterLazy(identifier, target string, exts ...string) error {
	return NewFinalizedError(OpRegisterLazy)
}

// RegisterPipeline always fails on a finalized registry.
func (f *FinalizedRegistry) RegisterPipeline(ext string, stageOptions map[string]Options) (*EngineType, error) {
	return nil, NewFinalizedError(OpRegisterPipeline)
}

// Unregister always fails on a finalized registry.
func (f *FinalizedRegistry) Unregister(exts ...string) error {
	return NewFinalizedError(OpUnregister)
}

// Registered reports whether ext resolved to an engine at snapshot time.
func (f *FinalizedRegistry) Registered(ext string) bool {
	_, ok := f.engines[internal.NormalizeExtension(ext)]
	return ok
}

func (f *FinalizedRegistry) registered(ext string) bool {
	_, ok := f.engines[ext]
	return ok
}

// Resolve returns the engine for file, or (nil, nil) when none is mapped.
func (f *FinalizedRegistry) Resolve(file string) (*EngineType, error) {
	_, ext, ok := internal.Split(file, f.registered)
	if !ok {
		return nil, nil
	}
	return f.engines[ext], nil
}

// TemplatesFor returns the engines for every mapped extension suffix of file, outermost first.
func (f *FinalizedRegistry) TemplatesFor(file string) ([]*EngineType, error) {
	var engines []*EngineType
	path := file
	for {
		prefix, ext, ok := internal.Split(path, f.registered)
		if !ok {
			return engines, nil
		}
		engines = append(engines, f.engines[ext])
		path = prefix
	}
}

// ExtensionsFor returns the sorted extensions mapped to engine.
func (f *FinalizedRegistry) ExtensionsFor(engine *EngineType) []string {
	var exts []string
	for _, ext := range f.extensions {
		if f.engines[ext] == engine {
			exts = append(exts, ext)
		}
	}
	return exts
}

// Extensions returns every mapped extension, sorted.
func (f *FinalizedRegistry) Extensions() []string {
	return append([]string(nil), f.extensions...)
}

// Duplicate returns a new mutable registry with the same mappings as eager entries.
func (f *FinalizedRegistry) Duplicate() *Registry {
	dup := &Registry{
		eager:     make(map[string][]*EngineType, len(f.engines)),
		lazy:      make(map[string][]lazyEntry),
		loader:    f.loader,
		namespace: f.namespace,
		logger:    f.logger,
	}
	for ext, engine := range f.engines {
		dup.eager[ext] = []*EngineType{engine}
	}
	f.logger.Debug(LogMsgDuplicated, zap.Int(LogFieldEntries, len(dup.eager)))
	return dup
}

// Finalize returns f itself.
func (f *FinalizedRegistry) Finalize() (*FinalizedRegistry, error) {
	return f, nil
}

// New resolves file and builds a template for it.
func (f *FinalizedRegistry) New(file string, opts ...TemplateOption) (*Template, error) {
	return newFromMapping(f, f.logger, file, opts)
}
