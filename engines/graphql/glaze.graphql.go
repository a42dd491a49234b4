// Package graphql provides GraphQLTemplate, a static engine that parses a
// GraphQL query or schema document with vektah/gqlparser and prints it in
// canonical form.
package graphql

import (
	"bytes"
	"errors"

	"github.com/itsatony/go-glaze"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/formatter"
	"github.com/vektah/gqlparser/v2/gqlerror"
	"github.com/vektah/gqlparser/v2/parser"
)

// OptionDocument selects the document kind. Without it a query is tried
// first, then a schema.
const OptionDocument = "document"

// Document kinds
const (
	DocumentQuery  = "query"
	DocumentSchema = "schema"
)

// ErrMsgUnknownDocument is reported for an unknown "document" value.
const ErrMsgUnknownDocument = "unknown graphql document kind"

// Engine is the GraphQLTemplate engine type.
var Engine = glaze.NewEngineType(glaze.IdentGraphQL, glaze.KindStatic, glaze.Metadata{
	MimeType: "application/graphql",
}, func() glaze.Processor { return &processor{} })

func init() {
	glaze.Provide(glaze.TargetGraphQL, glaze.Defining(Engine))
}

type processor struct {
	output string
}

func (p *processor) Prepare(t *glaze.Template) error {
	source := &ast.Source{Name: t.EvalFile(), Input: t.Data()}
	var buf bytes.Buffer
	f := formatter.NewFormatter(&buf)

	switch kind := t.Options().String(OptionDocument, ""); kind {
	case DocumentQuery:
		doc, err := parser.ParseQuery(source)
		if err != nil {
			return positioned(err)
		}
		f.FormatQueryDocument(doc)
	case DocumentSchema:
		doc, err := parser.ParseSchema(source)
		if err != nil {
			return positioned(err)
		}
		f.FormatSchemaDocument(doc)
	case "":
		query, qerr := parser.ParseQuery(source)
		if qerr == nil {
			f.FormatQueryDocument(query)
			break
		}
		schema, serr := parser.ParseSchema(source)
		if serr != nil {
			return positioned(qerr)
		}
		f.FormatSchemaDocument(schema)
	default:
		return glaze.NewConfigError(ErrMsgUnknownDocument).WithMetadata(OptionDocument, kind)
	}

	p.output = buf.String()
	return nil
}

func (p *processor) Output() string { return p.output }

// positioned maps a parser error onto its first reported location.
func positioned(err error) error {
	var gqlErr *gqlerror.Error
	if errors.As(err, &gqlErr) && len(gqlErr.Locations) > 0 {
		loc := gqlErr.Locations[0]
		return glaze.AtLine(loc.Line, loc.Column, err)
	}
	return err
}
