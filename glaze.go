// Package glaze provides a uniform abstraction layer over many template and markup engines.
//
// Engines are registered against file extensions in a Registry. Callers resolve a file
// name or extension chain to an engine, build a Template from a source string, a deferred
// source function, a file, or a SourceStore, and render it against a scope value, a set of
// local bindings, and an optional yield continuation.
//
// # Basic Usage
//
// Link the engines you need and ask the default registry for a template:
//
//	import (
//	    "github.com/itsatony/go-glaze"
//	    _ "github.com/itsatony/go-glaze/engines/all"
//	)
//
//	tmpl, err := glaze.New("greeting.str", glaze.WithSource("Hey #{name}!"))
//	out, err := tmpl.Render(ctx, nil, map[string]any{"name": "Joe"}, nil)
//	// out: "Hey Joe!"
//
// # Registration
//
// Eager registrations bind an already defined EngineType to extensions. Lazy registrations
// bind an identifier and a load target; the target is loaded through the registry's Loader
// on first resolution and the identifier is then looked up in its Namespace:
//
//	reg := glaze.NewRegistry()
//	reg.Register(myEngine, "my")
//	reg.RegisterLazy("GoldmarkTemplate", "glaze/markdown/goldmark", "md")
//
// When several engines claim an extension the most recent registration wins. Lazy
// candidates that fail to load fall back to older candidates; a candidate that loads but
// does not define its identifier is a name error and stops resolution.
//
// # Finalization
//
// Registry.Finalize resolves every lazy entry and returns an immutable FinalizedRegistry
// that is safe for unrestricted concurrent reads. glaze.Finalize switches the process
// default registry to its snapshot.
//
// # Compiled Artifacts
//
// Compiling engines produce one Renderer per (scope type, local names) shape. A Template
// caches those renderers, so repeated renders with the same shape reuse the same artifact:
//
//	tmpl.Render(ctx, nil, map[string]any{"name": "Joe"}, nil) // compiles
//	tmpl.Render(ctx, nil, map[string]any{"name": "Moe"}, nil) // reuses
//
// # Thread Safety
//
// Templates are safe for concurrent Render calls; preparation runs exactly once and
// acts as a barrier before any render proceeds. Mutable registries guard their state
// with a read-write mutex; finalized registries never change.
package glaze
