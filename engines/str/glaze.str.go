// Package str provides StringTemplate: plain text with #{expression}
// interpolation. Expressions are compiled with expr-lang/expr against an
// environment made of the scope's exported fields, "self", "yield" and the
// locals, in increasing order of precedence.
//
// Importing the package links the engine into the default loader:
//
//	import _ "github.com/itsatony/go-glaze/engines/str"
package str

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/vm"
	"github.com/itsatony/go-glaze"
	"github.com/itsatony/go-glaze/internal"
	"go.uber.org/zap"
)

// Environment names reserved by the engine
const (
	EnvSelf  = "self"
	EnvYield = "yield"

	envBuiltin = "$env"
)

// Error messages
const (
	ErrMsgUnknownName = "unknown name"
)

// Log messages
const (
	LogMsgCompiled = "string template compiled"
)

// Engine is the StringTemplate engine type.
var Engine = glaze.NewEngineType(glaze.IdentString, glaze.KindCompiling, glaze.Metadata{
	MimeType:     "text/plain",
	AllowsScript: true,
}, func() glaze.Processor { return &processor{} })

func init() {
	glaze.Provide(glaze.TargetString, glaze.Defining(Engine))
}

// processor holds the tokenized source of one template.
type processor struct {
	tokens []internal.Token
	logger *zap.Logger
}

// Prepare tokenizes the source and syntax-checks every expression.
func (p *processor) Prepare(t *glaze.Template) error {
	tokens, err := internal.NewLexer(t.Data(), t.Logger()).Tokenize()
	if err != nil {
		if lexErr, ok := err.(*internal.LexError); ok {
			return glaze.AtLine(lexErr.Position.Line, lexErr.Position.Column, lexErr)
		}
		return err
	}
	for _, tok := range tokens {
		if tok.Type != internal.TokenTypeExpr {
			continue
		}
		if _, err := expr.Compile(tok.Value, expr.AllowUndefinedVariables()); err != nil {
			return glaze.AtLine(tok.Position.Line, tok.Position.Column, err)
		}
	}
	p.tokens = tokens
	p.logger = t.Logger()
	return nil
}

// segment is a literal run or a compiled expression.
type segment struct {
	text    string
	source  string
	program *vm.Program
	names   []string
	line    int
	column  int
}

// Compile builds the programs for shape. Scope fields and self are typed by
// the scope type; locals are only named by a shape, so they stay untyped and
// are checked when the expression runs. A name that is neither bound nor
// declared in the expression is reported before anything renders.
func (p *processor) Compile(shape glaze.Shape) (glaze.Renderer, error) {
	env, known := sampleEnv(shape)
	opts := []expr.Option{expr.Env(env), expr.AllowUndefinedVariables()}
	mapScope := scopeIsMap(shape.Scope)

	segments := make([]segment, 0, len(p.tokens))
	for _, tok := range p.tokens {
		switch tok.Type {
		case internal.TokenTypeText:
			segments = append(segments, segment{text: tok.Value})
		case internal.TokenTypeExpr:
			program, err := expr.Compile(tok.Value, opts...)
			if err != nil {
				return nil, glaze.AtLine(tok.Position.Line, tok.Position.Column, err)
			}
			names := freeNames(program.Node())
			if !mapScope {
				// Map scopes are keyed at render time only.
				if missing := firstMissing(names, known); missing != "" {
					return nil, glaze.AtLine(tok.Position.Line, tok.Position.Column,
						fmt.Errorf("%s %s", ErrMsgUnknownName, missing))
				}
			}
			segments = append(segments, segment{
				source:  tok.Value,
				program: program,
				names:   names,
				line:    tok.Position.Line,
				column:  tok.Position.Column,
			})
		}
	}
	p.logger.Debug(LogMsgCompiled,
		zap.String(glaze.LogFieldScope, shape.ScopeName()),
		zap.Int(glaze.LogFieldCount, len(segments)))
	return &renderer{segments: segments}, nil
}

type renderer struct {
	segments []segment
}

func (r *renderer) Render(ctx context.Context, scope any, locals map[string]any, yield glaze.YieldFunc) (string, error) {
	env := scopeEnv(scope)
	env[EnvSelf] = scope
	env[EnvYield] = func() string { return yield() }
	for k, v := range locals {
		env[k] = v
	}

	var sb strings.Builder
	for _, seg := range r.segments {
		if seg.program == nil {
			sb.WriteString(seg.text)
			continue
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if missing := firstMissing(seg.names, env); missing != "" {
			return "", glaze.AtLine(seg.line, seg.column, fmt.Errorf("%s %s", ErrMsgUnknownName, missing))
		}
		out, err := expr.Run(seg.program, env)
		if err != nil {
			return "", glaze.AtLine(seg.line, seg.column, err)
		}
		if out != nil {
			sb.WriteString(fmt.Sprint(out))
		}
	}
	return sb.String(), nil
}

// Listing describes the compiled segments, one per line.
func (r *renderer) Listing() string {
	var sb strings.Builder
	for _, seg := range r.segments {
		if seg.program == nil {
			fmt.Fprintf(&sb, "text %q\n", seg.text)
			continue
		}
		fmt.Fprintf(&sb, "expr %s\n", seg.source)
	}
	return sb.String()
}

// sampleEnv is the compile-time environment for shape, plus every name the
// shape binds. Locals shadow scope entries and self, so their names are left
// out of the typed environment.
func sampleEnv(shape glaze.Shape) (map[string]any, map[string]any) {
	env := make(map[string]any)
	known := map[string]any{EnvSelf: nil, EnvYield: nil}
	if shape.Scope != nil {
		zero := reflect.Zero(shape.Scope).Interface()
		for name, value := range scopeEnv(zero) {
			known[name] = nil
			// Interface fields have no static type to offer.
			if value != nil {
				env[name] = value
			}
		}
		env[EnvSelf] = zero
	}
	env[EnvYield] = func() string { return "" }
	for _, name := range shape.Locals {
		known[name] = nil
		delete(env, name)
	}
	return env, known
}

// freeNames lists the environment names an expression reads, skipping names
// it declares itself with let.
func freeNames(node ast.Node) []string {
	c := &nameCollector{declared: make(map[string]bool)}
	ast.Walk(&node, c)

	seen := make(map[string]bool)
	var names []string
	for _, name := range c.used {
		if c.declared[name] || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}

type nameCollector struct {
	used     []string
	declared map[string]bool
}

func (c *nameCollector) Visit(node *ast.Node) {
	switch n := (*node).(type) {
	case *ast.IdentifierNode:
		if n.Value != envBuiltin {
			c.used = append(c.used, n.Value)
		}
	case *ast.VariableDeclaratorNode:
		c.declared[n.Name] = true
	}
}

func firstMissing(names []string, env map[string]any) string {
	for _, name := range names {
		if _, ok := env[name]; !ok {
			return name
		}
	}
	return ""
}

func scopeIsMap(scope reflect.Type) bool {
	for scope != nil && scope.Kind() == reflect.Pointer {
		scope = scope.Elem()
	}
	return scope != nil && scope.Kind() == reflect.Map
}

// scopeEnv exposes the exported fields of a struct scope, or the entries of a
// string-keyed map scope.
func scopeEnv(scope any) map[string]any {
	env := make(map[string]any)
	v := reflect.ValueOf(scope)
	for v.IsValid() && v.Kind() == reflect.Pointer {
		if v.IsNil() {
			if v.Type().Elem().Kind() == reflect.Struct {
				v = reflect.Zero(v.Type().Elem())
				break
			}
			return env
		}
		v = v.Elem()
	}
	if !v.IsValid() {
		return env
	}

	switch v.Kind() {
	case reflect.Struct:
		typ := v.Type()
		for i := 0; i < typ.NumField(); i++ {
			field := typ.Field(i)
			if field.IsExported() && !field.Anonymous {
				env[field.Name] = v.Field(i).Interface()
			}
		}
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return env
		}
		iter := v.MapRange()
		for iter.Next() {
			env[iter.Key().String()] = iter.Value().Interface()
		}
	}
	return env
}
