// Package goldmark provides GoldmarkTemplate, the default markdown engine.
// GitHub flavoured extensions are always on.
package goldmark

import (
	"bytes"

	"github.com/itsatony/go-glaze"
	"github.com/itsatony/go-glaze/engines/markdown"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Engine is the GoldmarkTemplate engine type.
var Engine = glaze.NewEngineType(glaze.IdentGoldmark, glaze.KindStatic, glaze.Metadata{
	MimeType: markdown.MimeType,
}, func() glaze.Processor { return &processor{} })

func init() {
	glaze.Provide(glaze.TargetGoldmark, glaze.Defining(Engine))
}

type processor struct {
	output string
}

func (p *processor) Prepare(t *glaze.Template) error {
	opts := t.Options()

	exts := []goldmark.Extender{extension.GFM}
	if opts.Bool(markdown.OptionSmartypants, false) {
		exts = append(exts, extension.Typographer)
	}
	var rendererOpts []goldmark.Option
	if !opts.Bool(markdown.OptionEscapeHTML, true) {
		rendererOpts = append(rendererOpts, goldmark.WithRendererOptions(html.WithUnsafe()))
	}

	md := goldmark.New(append(rendererOpts, goldmark.WithExtensions(exts...))...)
	var buf bytes.Buffer
	if err := md.Convert([]byte(t.Data()), &buf); err != nil {
		return err
	}

	p.output = buf.String()
	if opts.Bool(markdown.OptionSanitize, false) {
		p.output = markdown.Sanitize(p.output)
	}
	return nil
}

func (p *processor) Output() string { return p.output }
