// Package blackfriday provides BlackfridayTemplate. It is registered before
// goldmark for the markdown extensions, so it is only picked when goldmark
// is unavailable or unregistered.
package blackfriday

import (
	"github.com/itsatony/go-glaze"
	"github.com/itsatony/go-glaze/engines/markdown"
	"github.com/russross/blackfriday/v2"
)

// Engine is the BlackfridayTemplate engine type.
var Engine = glaze.NewEngineType(glaze.IdentBlackfriday, glaze.KindStatic, glaze.Metadata{
	MimeType: markdown.MimeType,
}, func() glaze.Processor { return &processor{} })

func init() {
	glaze.Provide(glaze.TargetBlackfriday, glaze.Defining(Engine))
}

const smartypantsFlags = blackfriday.Smartypants |
	blackfriday.SmartypantsFractions |
	blackfriday.SmartypantsDashes |
	blackfriday.SmartypantsLatexDashes

type processor struct {
	output string
}

func (p *processor) Prepare(t *glaze.Template) error {
	opts := t.Options()

	flags := blackfriday.CommonHTMLFlags &^ smartypantsFlags
	if opts.Bool(markdown.OptionSmartypants, false) {
		flags |= smartypantsFlags
	}
	if opts.Bool(markdown.OptionEscapeHTML, true) {
		flags |= blackfriday.SkipHTML
	}

	renderer := blackfriday.NewHTMLRenderer(blackfriday.HTMLRendererParameters{Flags: flags})
	out := blackfriday.Run([]byte(t.Data()),
		blackfriday.WithExtensions(blackfriday.CommonExtensions),
		blackfriday.WithRenderer(renderer))

	p.output = string(out)
	if opts.Bool(markdown.OptionSanitize, false) {
		p.output = markdown.Sanitize(p.output)
	}
	return nil
}

func (p *processor) Output() string { return p.output }
