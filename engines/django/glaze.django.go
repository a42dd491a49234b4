// Package django provides DjangoTemplate, backed by flosch/pongo2. Each
// template gets its own template set, so {% include %} and {% extends %} resolve
// relative to the template's file when it has one.
//
// The render context holds "self" (the scope), "yield" (the continuation, as
// {{ yield() }}), the entries of a string-keyed map scope, and the locals.
package django

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/flosch/pongo2/v6"
	"github.com/itsatony/go-glaze"
)

// Template options understood by the engine
const (
	OptionTrimBlocks   = "trim_blocks"
	OptionLStripBlocks = "lstrip_blocks"
)

// Context names reserved by the engine
const (
	ContextSelf  = "self"
	ContextYield = "yield"
	SetName      = "glaze"
)

// Engine is the DjangoTemplate engine type.
var Engine = glaze.NewEngineType(glaze.IdentDjango, glaze.KindCompiling, glaze.Metadata{
	MimeType: "text/html",
}, func() glaze.Processor { return &processor{} })

func init() {
	glaze.Provide(glaze.TargetDjango, glaze.Defining(Engine))
}

type processor struct {
	tmpl *pongo2.Template
}

func (p *processor) Prepare(t *glaze.Template) error {
	set := pongo2.NewSet(SetName, loaderFor(t.File()))
	set.Options.TrimBlocks = t.Options().Bool(OptionTrimBlocks, false)
	set.Options.LStripBlocks = t.Options().Bool(OptionLStripBlocks, false)

	tmpl, err := set.FromString(t.Data())
	if err != nil {
		return positioned(err)
	}
	p.tmpl = tmpl
	return nil
}

// loaderFor resolves includes next to file. Templates without a usable file
// resolve them against the working directory.
func loaderFor(file string) pongo2.TemplateLoader {
	if file != "" {
		if loader, err := pongo2.NewLocalFileSystemLoader(filepath.Dir(file)); err == nil {
			return loader
		}
	}
	loader, _ := pongo2.NewLocalFileSystemLoader("")
	return loader
}

// Compile returns the parsed template; pongo2 resolves names at execution,
// so every shape shares it.
func (p *processor) Compile(shape glaze.Shape) (glaze.Renderer, error) {
	return glaze.RenderFunc(func(ctx context.Context, scope any, locals map[string]any, yield glaze.YieldFunc) (string, error) {
		data := pongo2.Context{}
		if entries, ok := scope.(map[string]any); ok {
			data.Update(entries)
		}
		data[ContextSelf] = scope
		data[ContextYield] = func() *pongo2.Value { return pongo2.AsSafeValue(yield()) }
		data.Update(locals)

		out, err := p.tmpl.Execute(data)
		if err != nil {
			return "", positioned(err)
		}
		return out, nil
	}), nil
}

// positioned maps a pongo2 error onto its template line.
func positioned(err error) error {
	var perr *pongo2.Error
	if errors.As(err, &perr) && perr.Line > 0 {
		return glaze.AtLine(perr.Line, perr.Column, err)
	}
	return err
}
