package glaze

import (
	"sync"
)

// Load targets provided by the bundled engine packages
const (
	TargetBlackfriday = "glaze/markdown/blackfriday"
	TargetGoldmark    = "glaze/markdown/goldmark"
	TargetString      = "glaze/str"
	TargetDjango      = "glaze/django"
	TargetGoTemplate  = "glaze/gotemplate"
	TargetTerminal    = "glaze/terminal"
	TargetXML         = "glaze/xml"
	TargetGraphQL     = "glaze/graphql"
)

// Engine identifiers defined by the bundled engine packages
const (
	IdentBlackfriday = "BlackfridayTemplate"
	IdentGoldmark    = "GoldmarkTemplate"
	IdentString      = "StringTemplate"
	IdentDjango      = "DjangoTemplate"
	IdentGoText      = "GoTextTemplate"
	IdentGoHTML      = "GoHTMLTemplate"
	IdentTerminal    = "TerminalMarkdownTemplate"
	IdentXML         = "XMLTemplate"
	IdentGraphQL     = "GraphQLTemplate"
)

// builtinEngine is one row of the default lazy registration table
type builtinEngine struct {
	identifier string
	target     string
	extensions []string
}

// builtinEngines are registered in order, so later rows take precedence for
// shared extensions.
var builtinEngines = []builtinEngine{
	{IdentBlackfriday, TargetBlackfriday, []string{"markdown", "md", "mkd"}},
	{IdentGoldmark, TargetGoldmark, []string{"markdown", "md", "mkd"}},
	{IdentString, TargetString, []string{"str"}},
	{IdentDjango, TargetDjango, []string{"django", "jinja", "j2", "pongo2"}},
	{IdentGoText, TargetGoTemplate, []string{"tmpl", "gotmpl"}},
	{IdentGoHTML, TargetGoTemplate, []string{"gohtml"}},
	{IdentTerminal, TargetTerminal, []string{"termmd"}},
	{IdentXML, TargetXML, []string{"xml"}},
	{IdentGraphQL, TargetGraphQL, []string{"graphql", "gql"}},
}

// RegisterBuiltins adds the bundled lazy associations to r.
func RegisterBuiltins(r *Registry) error {
	for _, b := range builtinEngines {
		if err := r.RegisterLazy(b.identifier, b.target, b.extensions...); err != nil {
			return err
		}
	}
	return nil
}

var (
	defaultOnce    sync.Once
	defaultMu      sync.RWMutex
	defaultMapping Mapping
)

// Default returns the process-wide mapping, creating it with the built-in
// associations on first use.
func Default() Mapping {
	defaultOnce.Do(func() {
		r := NewRegistry(
			WithLoader(defaultLoader),
			WithNamespace(defaultNamespace),
		)
		// The built-in table is static and always valid.
		_ = RegisterBuiltins(r)

		defaultMu.Lock()
		if defaultMapping == nil {
			defaultMapping = r
		}
		defaultMu.Unlock()
	})

	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultMapping
}

// SetDefault replaces the process-wide mapping.
func SetDefault(m Mapping) {
	defaultOnce.Do(func() {})
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultMapping = m
}

// Finalize switches the process-wide mapping to its immutable snapshot.
// After this call package-level mutators fail.
func Finalize() error {
	finalized, err := Default().Finalize()
	if err != nil {
		return err
	}
	SetDefault(finalized)
	return nil
}

// Register adds engine to the default mapping.
func Register(engine *EngineType, exts ...string) error {
	return Default().Register(engine, exts...)
}

// RegisterLazy adds a lazy association to the default mapping.
func RegisterLazy(identifier, target string, exts ...string) error {
	return Default().RegisterLazy(identifier, target, exts...)
}

// Unregister removes extensions from the default mapping.
func Unregister(exts ...string) error {
	return Default().Unregister(exts...)
}

// Registered reports whether ext is mapped in the default mapping.
func Registered(ext string) bool {
	return Default().Registered(ext)
}

// Resolve looks up file in the default mapping.
func Resolve(file string) (*EngineType, error) {
	return Default().Resolve(file)
}

// TemplatesFor returns the engine chain for file from the default mapping.
func TemplatesFor(file string) ([]*EngineType, error) {
	return Default().TemplatesFor(file)
}

// ExtensionsFor returns the extensions the default mapping assigns to engine.
func ExtensionsFor(engine *EngineType) []string {
	return Default().ExtensionsFor(engine)
}

// New builds a template for file using the default mapping.
func New(file string, opts ...TemplateOption) (*Template, error) {
	return Default().New(file, opts...)
}

// MustNew builds a template and panics if there's an error.
func MustNew(file string, opts ...TemplateOption) *Template {
	tmpl, err := New(file, opts...)
	if err != nil {
		panic(err)
	}
	return tmpl
}
