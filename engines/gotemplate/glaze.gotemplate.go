// Package gotemplate provides GoTextTemplate (text/template) and
// GoHTMLTemplate (html/template).
//
// The dot is a map of the locals plus "self" for the scope. The continuation
// is the "yield" function: {{ yield }}. Options "left_delim" and "right_delim"
// change the action delimiters and "missingkey" is passed to Option.
package gotemplate

import (
	"bytes"
	"context"
	htmltemplate "html/template"
	"regexp"
	"strconv"
	texttemplate "text/template"

	"github.com/itsatony/go-glaze"
)

// Template options understood by the engines
const (
	OptionLeftDelim  = "left_delim"
	OptionRightDelim = "right_delim"
	OptionMissingKey = "missingkey"
)

// Names bound by the engines
const (
	DotSelf      = "self"
	FuncYield    = "yield"
	DefaultName  = "glaze"
	missingKeyEq = "missingkey="
)

// ErrMsgInvalidMissingKey is reported for an unknown "missingkey" value.
const ErrMsgInvalidMissingKey = "invalid missingkey option"

var missingKeyValues = map[string]bool{"default": true, "invalid": true, "zero": true, "error": true}

// errorLine extracts "name:LINE:" from text/template and html/template errors.
var errorLine = regexp.MustCompile(`^(?:html/)?template: ?[^:]*:(\d+):(?:(\d+):)?`)

// TextEngine is the GoTextTemplate engine type.
var TextEngine = glaze.NewEngineType(glaze.IdentGoText, glaze.KindCompiling, glaze.Metadata{
	MimeType: "text/plain",
}, func() glaze.Processor { return &processor{html: false} })

// HTMLEngine is the GoHTMLTemplate engine type. Output is contextually escaped.
var HTMLEngine = glaze.NewEngineType(glaze.IdentGoHTML, glaze.KindCompiling, glaze.Metadata{
	MimeType: "text/html",
}, func() glaze.Processor { return &processor{html: true} })

func init() {
	glaze.Provide(glaze.TargetGoTemplate, glaze.Defining(TextEngine, HTMLEngine))
}

type processor struct {
	html bool
	text *texttemplate.Template
	htm  *htmltemplate.Template

	// options are reapplied to every clone, which starts without them.
	options []string
}

// yieldFuncs binds the continuation. html/template receives it as trusted
// markup so nested templates are not escaped twice.
func yieldFuncs(html bool, yield glaze.YieldFunc) map[string]any {
	if html {
		return map[string]any{FuncYield: func() htmltemplate.HTML { return htmltemplate.HTML(yield()) }}
	}
	return map[string]any{FuncYield: func() string { return yield() }}
}

func emptyYield() string { return "" }

func (p *processor) Prepare(t *glaze.Template) error {
	opts := t.Options()
	name := t.Name()
	if name == "" {
		name = DefaultName
	}
	left, right := opts.String(OptionLeftDelim, ""), opts.String(OptionRightDelim, "")

	var options []string
	if mk := opts.String(OptionMissingKey, ""); mk != "" {
		if !missingKeyValues[mk] {
			return glaze.NewConfigError(ErrMsgInvalidMissingKey).WithMetadata(OptionMissingKey, mk)
		}
		options = append(options, missingKeyEq+mk)
	}
	p.options = options

	var err error
	if p.html {
		p.htm, err = htmltemplate.New(name).
			Delims(left, right).
			Option(options...).
			Funcs(yieldFuncs(p.html, emptyYield)).
			Parse(t.Data())
	} else {
		p.text, err = texttemplate.New(name).
			Delims(left, right).
			Option(options...).
			Funcs(yieldFuncs(p.html, emptyYield)).
			Parse(t.Data())
	}
	if err != nil {
		return positioned(err)
	}
	return nil
}

// Compile returns a renderer shared by every shape. The parsed template is
// never executed directly: each render clones it and binds yield, which keeps
// concurrent renders independent and html/template cloneable.
func (p *processor) Compile(shape glaze.Shape) (glaze.Renderer, error) {
	return glaze.RenderFunc(func(ctx context.Context, scope any, locals map[string]any, yield glaze.YieldFunc) (string, error) {
		dot := make(map[string]any, len(locals)+1)
		dot[DotSelf] = scope
		for k, v := range locals {
			dot[k] = v
		}
		funcs := yieldFuncs(p.html, yield)

		var buf bytes.Buffer
		if p.html {
			clone, err := p.htm.Clone()
			if err != nil {
				return "", err
			}
			if err := clone.Option(p.options...).Funcs(funcs).Execute(&buf, dot); err != nil {
				return "", positioned(err)
			}
			return buf.String(), nil
		}

		clone, err := p.text.Clone()
		if err != nil {
			return "", err
		}
		if err := clone.Option(p.options...).Funcs(funcs).Execute(&buf, dot); err != nil {
			return "", positioned(err)
		}
		return buf.String(), nil
	}), nil
}

// positioned maps a template error onto its line and column.
func positioned(err error) error {
	m := errorLine.FindStringSubmatch(err.Error())
	if m == nil {
		return err
	}
	line, _ := strconv.Atoi(m[1])
	column := 0
	if m[2] != "" {
		column, _ = strconv.Atoi(m[2])
	}
	return glaze.AtLine(line, column, err)
}
