// Package terminal provides TerminalMarkdownTemplate, which renders markdown
// for display in a terminal with charmbracelet/glamour.
package terminal

import (
	"github.com/charmbracelet/glamour"
	"github.com/itsatony/go-glaze"
)

// Template options understood by the engine
const (
	// OptionStyle is a glamour style name ("notty", "dark", "light", "auto") or a style file path.
	OptionStyle = "style"
	// OptionWidth is the word wrap column. Zero disables wrapping.
	OptionWidth = "width"
)

// Defaults keep output stable when no terminal is attached. The notty style
// writes plain ASCII, so emphasis keeps its markdown markers; the color
// styles render it with escape sequences instead.
const (
	DefaultStyle = "notty"
	DefaultWidth = 80
	StyleAuto    = "auto"
)

// Engine is the TerminalMarkdownTemplate engine type.
var Engine = glaze.NewEngineType(glaze.IdentTerminal, glaze.KindStatic, glaze.Metadata{
	MimeType: "text/plain",
}, func() glaze.Processor { return &processor{} })

func init() {
	glaze.Provide(glaze.TargetTerminal, glaze.Defining(Engine))
}

type processor struct {
	output string
}

func (p *processor) Prepare(t *glaze.Template) error {
	opts := t.Options()

	var options []glamour.TermRendererOption
	if style := opts.String(OptionStyle, DefaultStyle); style == StyleAuto {
		options = append(options, glamour.WithAutoStyle())
	} else {
		options = append(options, glamour.WithStylePath(style))
	}
	if width := opts.Int(OptionWidth, DefaultWidth); width > 0 {
		options = append(options, glamour.WithWordWrap(width))
	}

	renderer, err := glamour.NewTermRenderer(options...)
	if err != nil {
		return err
	}
	out, err := renderer.Render(t.Data())
	if err != nil {
		return err
	}
	p.output = out
	return nil
}

func (p *processor) Output() string { return p.output }
