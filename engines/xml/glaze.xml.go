// Package xml provides XMLTemplate, a static engine that validates and
// re-indents an XML document with beevik/etree.
package xml

import (
	stdxml "encoding/xml"
	"errors"
	"io"

	"github.com/beevik/etree"
	"github.com/itsatony/go-glaze"
)

// Template options understood by the engine
const (
	// OptionIndent is the number of spaces per level. Negative keeps the source layout.
	OptionIndent = "indent"
	// OptionDeclaration prepends an XML declaration when the document has none.
	OptionDeclaration = "declaration"
)

const (
	DefaultIndent      = 2
	declarationTarget  = "xml"
	declarationContent = `version="1.0" encoding="UTF-8"`
)

// ErrMsgNoRoot is reported for documents without a root element.
const ErrMsgNoRoot = "xml document has no root element"

// Engine is the XMLTemplate engine type.
var Engine = glaze.NewEngineType(glaze.IdentXML, glaze.KindStatic, glaze.Metadata{
	MimeType: "application/xml",
}, func() glaze.Processor { return &processor{} })

func init() {
	glaze.Provide(glaze.TargetXML, glaze.Defining(Engine))
}

type processor struct {
	output string
}

func (p *processor) Prepare(t *glaze.Template) error {
	opts := t.Options()

	doc := etree.NewDocument()
	// Validation runs the standard decoder first, which reports the line.
	doc.ReadSettings.ValidateInput = true
	if err := doc.ReadFromString(t.Data()); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New(ErrMsgNoRoot)
		}
		return positioned(err)
	}
	if doc.Root() == nil {
		return errors.New(ErrMsgNoRoot)
	}

	if opts.Bool(OptionDeclaration, false) && !hasDeclaration(doc) {
		doc.InsertChildAt(0, etree.NewProcInst(declarationTarget, declarationContent))
	}
	if indent := opts.Int(OptionIndent, DefaultIndent); indent >= 0 {
		doc.Indent(indent)
	}

	out, err := doc.WriteToString()
	if err != nil {
		return err
	}
	p.output = out
	return nil
}

func (p *processor) Output() string { return p.output }

func hasDeclaration(doc *etree.Document) bool {
	for _, tok := range doc.Child {
		if pi, ok := tok.(*etree.ProcInst); ok && pi.Target == declarationTarget {
			return true
		}
	}
	return false
}

// positioned maps a decoder syntax error onto its line.
func positioned(err error) error {
	var syntax *stdxml.SyntaxError
	if errors.As(err, &syntax) {
		return glaze.AtLine(syntax.Line, 0, err)
	}
	return err
}
