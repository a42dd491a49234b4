package glaze

import (
	"sort"
	"sync"

	"github.com/itsatony/go-cuserr"
)

// Loader makes the engines behind a load target available in a namespace.
// A lazy registration names a target; the registry calls Load on first
// resolution and then looks the identifier up in the namespace.
//
// Any error returned is treated as a recoverable load failure unless it is
// already a name error.
type Loader interface {
	Load(ns *Namespace, target string) error
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(ns *Namespace, target string) error

// Load calls f.
func (f LoaderFunc) Load(ns *Namespace, target string) error {
	return f(ns, target)
}

// LoadFunc populates a namespace for one load target.
type LoadFunc func(ns *Namespace) error

// Defining returns a LoadFunc that defines each engine under its own name.
func Defining(engines ...*EngineType) LoadFunc {
	return func(ns *Namespace) error {
		for _, engine := range engines {
			if err := ns.Define(engine.Name(), engine); err != nil {
				return err
			}
		}
		return nil
	}
}

// ProviderLoader is a factory table from load targets to LoadFuncs. Engine
// packages add themselves from init(), so a target is loadable exactly when
// its package is linked into the binary.
type ProviderLoader struct {
	mu        sync.RWMutex
	providers map[string]LoadFunc
}

// NewProviderLoader creates an empty provider table.
func NewProviderLoader() *ProviderLoader {
	return &ProviderLoader{providers: make(map[string]LoadFunc)}
}

// Provide registers fn as the loader for target, replacing any earlier provider.
func (l *ProviderLoader) Provide(target string, fn LoadFunc) {
	if target == "" {
		panic(ErrMsgEmptyLoadTarget)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.providers[target] = fn
}

// Load runs the provider registered for target.
func (l *ProviderLoader) Load(ns *Namespace, target string) error {
	l.mu.RLock()
	fn, ok := l.providers[target]
	l.mu.RUnlock()

	if !ok || fn == nil {
		return cuserr.NewNotFoundError(MetaKeyTarget, ErrMsgTargetNotLinked).
			WithMetadata(MetaKeyTarget, target)
	}
	return fn(ns)
}

// Targets returns the provided load targets, sorted.
func (l *ProviderLoader) Targets() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	targets := make([]string, 0, len(l.providers))
	for target := range l.providers {
		targets = append(targets, target)
	}
	sort.Strings(targets)
	return targets
}

var (
	defaultLoader    = NewProviderLoader()
	defaultNamespace = NewNamespace()
)

// Provide registers a load target with the process-wide loader. Engine packages
// call it from init().
func Provide(target string, fn LoadFunc) {
	defaultLoader.Provide(target, fn)
}

// DefaultLoader returns the process-wide provider table.
func DefaultLoader() *ProviderLoader {
	return defaultLoader
}

// DefaultNamespace returns the process-wide namespace used by the default registry.
func DefaultNamespace() *Namespace {
	return defaultNamespace
}
