package glaze

import (
	"sort"
	"sync"

	"github.com/itsatony/go-glaze/internal"
	"go.uber.org/zap"
)

// Mapping is the shared surface of mutable and finalized registries.
type Mapping interface {
	Register(engine *EngineType, exts ...string) error
	RegisterLazy(identifier, target string, exts ...string) error
	RegisterPipeline(ext string, stageOptions map[string]Options) (*EngineType, error)
	Unregister(exts ...string) error
	Registered(ext string) bool
	Resolve(file string) (*EngineType, error)
	TemplatesFor(file string) ([]*EngineType, error)
	ExtensionsFor(engine *EngineType) []string
	Extensions() []string
	Duplicate() *Registry
	Finalize() (*FinalizedRegistry, error)
	New(file string, opts ...TemplateOption) (*Template, error)
}

// lazyEntry is a deferred registration awaiting its first resolution.
type lazyEntry struct {
	identifier string
	target     string
}

// Registry maps extensions to engines. Eager candidates are kept in
// registration order with the last one preferred; lazy candidates are kept
// most recent first. Safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	eager     map[string][]*EngineType
	lazy      map[string][]lazyEntry
	loader    Loader
	namespace *Namespace
	logger    *zap.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	config := defaultRegistryConfig()
	for _, opt := range opts {
		opt(config)
	}

	logger := config.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	loader := config.loader
	if loader == nil {
		loader = defaultLoader
	}
	namespace := config.namespace
	if namespace == nil {
		namespace = NewNamespace()
	}

	logger.Debug(LogMsgRegistryCreated)
	return &Registry{
		eager:     make(map[string][]*EngineType),
		lazy:      make(map[string][]lazyEntry),
		loader:    loader,
		namespace: namespace,
		logger:    logger,
	}
}

// Namespace returns the namespace lazy identifiers resolve in.
func (r *Registry) Namespace() *Namespace {
	return r.namespace
}

// normalizeExtensions validates and normalizes all extensions before any mutation.
func normalizeExtensions(exts []string) ([]string, error) {
	if len(exts) == 0 {
		return nil, NewConfigError(ErrMsgNoExtensions)
	}
	normalized := make([]string, 0, len(exts))
	for _, ext := range exts {
		n := internal.NormalizeExtension(ext)
		if n == "" {
			return nil, NewConfigError(ErrMsgEmptyExtension).WithMetadata(MetaKeyExtension, ext)
		}
		normalized = append(normalized, n)
	}
	return normalized, nil
}

// Register makes engine the preferred eager candidate for each extension.
func (r *Registry) Register(engine *EngineType, exts ...string) error {
	if engine == nil {
		return NewConfigError(ErrMsgNilEngine)
	}
	normalized, err := normalizeExtensions(exts)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, ext := range normalized {
		r.eager[ext] = append(r.eager[ext], engine)
		r.logger.Debug(LogMsgEngineRegistered,
			zap.String(LogFieldExtension, ext),
			zap.String(LogFieldEngine, engine.Name()))
	}
	return nil
}

// RegisterLazy registers identifier, loaded from target on first resolution,
// as the most recent lazy candidate for each extension. The identifier is
// not validated until resolution.
func (r *Registry) RegisterLazy(identifier, target string, exts ...string) error {
	if identifier == "" {
		return NewConfigError(ErrMsgEmptyIdentifier)
	}
	if target == "" {
		return NewConfigError(ErrMsgEmptyLoadTarget).WithMetadata(MetaKeyIdentifier, identifier)
	}
	normalized, err := normalizeExtensions(exts)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	entry := lazyEntry{identifier: identifier, target: target}
	for _, ext := range normalized {
		r.lazy[ext] = append([]lazyEntry{entry}, r.lazy[ext]...)
		r.logger.Debug(LogMsgLazyRegistered,
			zap.String(LogFieldExtension, ext),
			zap.String(LogFieldIdentifier, identifier),
			zap.String(LogFieldTarget, target))
	}
	return nil
}

// Unregister removes every eager and lazy candidate for each extension.
func (r *Registry) Unregister(exts ...string) error {
	normalized, err := normalizeExtensions(exts)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, ext := range normalized {
		delete(r.eager, ext)
		delete(r.lazy, ext)
		r.logger.Debug(LogMsgUnregistered, zap.String(LogFieldExtension, ext))
	}
	return nil
}

// Registered reports whether any eager or lazy candidate exists for ext.
// A lazy candidate counts even if it would fail to load.
func (r *Registry) Registered(ext string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.registeredLocked(internal.NormalizeExtension(ext))
}

func (r *Registry) registeredLocked(ext string) bool {
	return len(r.eager[ext]) > 0 || len(r.lazy[ext]) > 0
}

// split finds the longest registered extension suffix of file.
func (r *Registry) split(file string) (prefix, ext string, ok bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return internal.Split(file, r.registeredLocked)
}

// Resolve returns the preferred engine for file, which may be a bare extension
// or a path. It returns (nil, nil) when nothing is registered for it.
func (r *Registry) Resolve(file string) (*EngineType, error) {
	_, ext, ok := r.split(file)
	if !ok {
		return nil, nil
	}
	return r.lookup(ext)
}

// lookup resolves a normalized, registered extension.
func (r *Registry) lookup(ext string) (*EngineType, error) {
	r.mu.RLock()
	if engine := r.preferredLocked(ext); engine != nil {
		r.mu.RUnlock()
		return engine, nil
	}
	r.mu.RUnlock()

	// Lazy resolution mutates the eager map, so it runs under the write lock.
	r.mu.Lock()
	defer r.mu.Unlock()
	if engine := r.preferredLocked(ext); engine != nil {
		return engine, nil
	}
	return r.lazyLoadLocked(ext)
}

func (r *Registry) preferredLocked(ext string) *EngineType {
	list := r.eager[ext]
	if len(list) == 0 {
		return nil
	}
	return list[len(list)-1]
}

// lazyLoadLocked resolves the lazy candidates of ext. Candidates already
// defined in the namespace win without loading anything. Otherwise targets are
// loaded most recent first: a load failure falls through to the next
// candidate, while a target that loads without defining its identifier is a
// name error. If every load fails, the first failure is returned.
func (r *Registry) lazyLoadLocked(ext string) (*EngineType, error) {
	candidates := r.lazy[ext]
	if len(candidates) == 0 {
		return nil, nil
	}

	for _, c := range candidates {
		if !internal.IsIdentifier(c.identifier) {
			return nil, NewNameError(ErrMsgInvalidIdentifier, c.identifier, c.target)
		}
		if engine, ok := r.namespace.Lookup(c.identifier); ok {
			r.logger.Debug(LogMsgLazyAlreadyLoaded,
				zap.String(LogFieldExtension, ext),
				zap.String(LogFieldIdentifier, c.identifier))
			r.eager[ext] = append(r.eager[ext], engine)
			return engine, nil
		}
	}

	var firstFailure error
	for _, c := range candidates {
		r.logger.Debug(LogMsgLazyLoading,
			zap.String(LogFieldIdentifier, c.identifier),
			zap.String(LogFieldTarget, c.target))

		if err := r.loader.Load(r.namespace, c.target); err != nil {
			if IsNameError(err) {
				return nil, err
			}
			r.logger.Debug(LogMsgLazyLoadFailed,
				zap.String(LogFieldIdentifier, c.identifier),
				zap.String(LogFieldTarget, c.target),
				zap.Error(err))
			if firstFailure == nil {
				firstFailure = NewLoadError(c.identifier, c.target, err)
			}
			continue
		}

		engine, ok := r.namespace.Lookup(c.identifier)
		if !ok {
			return nil, NewNameError(ErrMsgEngineUndefined, c.identifier, c.target)
		}
		r.logger.Debug(LogMsgLazyResolved,
			zap.String(LogFieldExtension, ext),
			zap.String(LogFieldIdentifier, c.identifier))
		r.eager[ext] = append(r.eager[ext], engine)
		return engine, nil
	}
	return nil, firstFailure
}

// TemplatesFor returns the engines for every registered extension suffix of
// file, outermost first: "x.md.str" yields the str engine, then the md engine.
func (r *Registry) TemplatesFor(file string) ([]*EngineType, error) {
	var engines []*EngineType
	path := file
	for {
		prefix, ext, ok := r.split(path)
		if !ok {
			return engines, nil
		}
		engine, err := r.lookup(ext)
		if err != nil {
			return nil, err
		}
		if engine != nil {
			engines = append(engines, engine)
		}
		path = prefix
	}
}

// ExtensionsFor returns the sorted extensions whose preferred eager engine is
// engine, plus lazy extensions with a candidate naming it.
func (r *Registry) ExtensionsFor(engine *EngineType) []string {
	if engine == nil {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	for ext := range r.eager {
		if r.preferredLocked(ext) == engine {
			seen[ext] = struct{}{}
		}
	}
	for ext, candidates := range r.lazy {
		for _, c := range candidates {
			if c.identifier == engine.Name() {
				seen[ext] = struct{}{}
				break
			}
			if defined, ok := r.namespace.Lookup(c.identifier); ok && defined == engine {
				seen[ext] = struct{}{}
				break
			}
		}
	}
	return sortedKeys(seen)
}

// ExtensionsForName returns the sorted extensions mapped to an engine name,
// either through a lazy identifier or a registered engine's Name.
func (r *Registry) ExtensionsForName(name string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	for ext := range r.eager {
		if engine := r.preferredLocked(ext); engine != nil && engine.Name() == name {
			seen[ext] = struct{}{}
		}
	}
	for ext, candidates := range r.lazy {
		for _, c := range candidates {
			if c.identifier == name {
				seen[ext] = struct{}{}
				break
			}
		}
	}
	return sortedKeys(seen)
}

// Extensions returns every registered extension, sorted.
func (r *Registry) Extensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{}, len(r.eager)+len(r.lazy))
	for ext := range r.eager {
		seen[ext] = struct{}{}
	}
	for ext := range r.lazy {
		seen[ext] = struct{}{}
	}
	return sortedKeys(seen)
}

// Identifiers returns every lazily registered identifier, sorted.
func (r *Registry) Identifiers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, candidates := range r.lazy {
		for _, c := range candidates {
			seen[c.identifier] = struct{}{}
		}
	}
	return sortedKeys(seen)
}

// Duplicate returns an independent mutable copy sharing the loader, namespace and logger.
func (r *Registry) Duplicate() *Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	dup := &Registry{
		eager:     make(map[string][]*EngineType, len(r.eager)),
		lazy:      make(map[string][]lazyEntry, len(r.lazy)),
		loader:    r.loader,
		namespace: r.namespace,
		logger:    r.logger,
	}
	for ext, list := range r.eager {
		dup.eager[ext] = append([]*EngineType(nil), list...)
	}
	for ext, list := range r.lazy {
		dup.lazy[ext] = append([]lazyEntry(nil), list...)
	}
	r.logger.Debug(LogMsgDuplicated, zap.Int(LogFieldEntries, len(dup.eager)+len(dup.lazy)))
	return dup
}

// Finalize resolves every lazy extension and returns an immutable snapshot.
// Extensions whose candidates all fail to load are dropped; name errors abort.
func (r *Registry) Finalize() (*FinalizedRegistry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	resolved := make(map[string]*EngineType, len(r.eager)+len(r.lazy))
	for ext := range r.eager {
		if engine := r.preferredLocked(ext); engine != nil {
			resolved[ext] = engine
		}
	}

	lazyExts := make([]string, 0, len(r.lazy))
	for ext := range r.lazy {
		lazyExts = append(lazyExts, ext)
	}
	sort.Strings(lazyExts)

	for _, ext := range lazyExts {
		if _, ok := resolved[ext]; ok {
			continue
		}
		engine, err := r.lazyLoadLocked(ext)
		if err != nil {
			if IsLoadError(err) {
				r.logger.Debug(LogMsgFinalizeSkipped,
					zap.String(LogFieldExtension, ext),
					zap.Error(err))
				continue
			}
			return nil, err
		}
		if engine != nil {
			resolved[ext] = engine
		}
	}

	r.logger.Debug(LogMsgFinalized, zap.Int(LogFieldEntries, len(resolved)))
	return newFinalizedRegistry(resolved, r.loader, r.namespace, r.logger), nil
}

// New resolves file and builds a template for it. The file is recorded on the
// template; pass WithSource or WithSourceFunc to supply content without reading it.
func (r *Registry) New(file string, opts ...TemplateOption) (*Template, error) {
	return newFromMapping(r, r.logger, file, opts)
}

// newFromMapping is shared by mutable and finalized registries.
func newFromMapping(m Mapping, logger *zap.Logger, file string, opts []TemplateOption) (*Template, error) {
	engine, err := m.Resolve(file)
	if err != nil {
		return nil, err
	}
	if engine == nil {
		return nil, NewEngineNotFoundError(file)
	}
	all := make([]TemplateOption, 0, len(opts)+2)
	all = append(all, WithFile(file), WithTemplateLogger(logger))
	all = append(all, opts...)
	return NewTemplate(engine, all...)
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
