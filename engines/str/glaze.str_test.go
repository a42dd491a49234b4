package str_test

import (
	"context"
	"strings"
	"testing"

	"github.com/itsatony/go-glaze"
	"github.com/itsatony/go-glaze/engines/str"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type page struct {
	Title string
	Count int
}

func (p page) Shout() string { return strings.ToUpper(p.Title) }

type user struct {
	Name string
}

func render(t *testing.T, source string, scope any, locals map[string]any) (string, error) {
	t.Helper()
	tmpl, err := glaze.NewTemplate(str.Engine, glaze.WithSource(source))
	require.NoError(t, err)
	return tmpl.Render(context.Background(), scope, locals, nil)
}

func TestStringTemplate_Render(t *testing.T) {
	tests := []struct {
		name   string
		source string
		scope  any
		locals map[string]any
		want   string
	}{
		{name: "plain text", source: "Hello World!", want: "Hello World!"},
		{name: "local", source: "Hello #{name}!", locals: map[string]any{"name": "Joe"}, want: "Hello Joe!"},
		{name: "arithmetic", source: "#{1 + 2}", want: "3"},
		{name: "string functions", source: `#{upper(name)}`, locals: map[string]any{"name": "joe"}, want: "JOE"},
		{name: "scope field", source: "#{Title} (#{Count})", scope: page{Title: "Home", Count: 2}, want: "Home (2)"},
		{name: "pointer scope", source: "#{Title}", scope: &page{Title: "Ptr"}, want: "Ptr"},
		{name: "local shadows scope entry", source: "#{greeting}", scope: map[string]any{"greeting": "hi"}, locals: map[string]any{"greeting": "yo"}, want: "yo"},
		{name: "self", source: "#{self.Title}", scope: page{Title: "Self"}, want: "Self"},
		{name: "self method", source: "#{self.Shout()}", scope: page{Title: "loud"}, want: "LOUD"},
		{name: "pointer self", source: "#{self.Title}", scope: &page{Title: "Ptr"}, want: "Ptr"},
		{name: "local arithmetic", source: "#{count + 1}", locals: map[string]any{"count": 41}, want: "42"},
		{name: "local member", source: "#{u.Name}", locals: map[string]any{"u": user{Name: "Ann"}}, want: "Ann"},
		{name: "local shadows scope field", source: "#{Title + 1}", scope: page{Title: "x"}, locals: map[string]any{"Title": 1}, want: "2"},
		{name: "let binding", source: "#{let x = n * 2; x + 1}", locals: map[string]any{"n": 3}, want: "7"},
		{name: "predicate", source: "#{len(filter(items, # > 1))}", locals: map[string]any{"items": []int{1, 2, 3}}, want: "2"},
		{name: "map scope", source: "#{greeting}", scope: map[string]any{"greeting": "hi"}, want: "hi"},
		{name: "nil prints nothing", source: "[#{nil}]", want: "[]"},
		{name: "escaped delimiter", source: `\#{name}`, want: "#{name}"},
		{name: "nested braces", source: `#{ {"a": 1}["a"] }`, want: "1"},
		{name: "multiline", source: "line one\n#{name}\nline three", locals: map[string]any{"name": "two"}, want: "line one\ntwo\nline three"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := render(t, tt.source, tt.scope, tt.locals)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStringTemplate_Yield(t *testing.T) {
	tmpl, err := glaze.NewTemplate(str.Engine, glaze.WithSource("<body>#{yield()}</body>"))
	require.NoError(t, err)

	out, err := tmpl.Render(context.Background(), nil, nil, func() string { return "content" })
	require.NoError(t, err)
	assert.Equal(t, "<body>content</body>", out)

	out, err = tmpl.Render(context.Background(), nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "<body></body>", out)
}

func TestStringTemplate_ReusesArtifact(t *testing.T) {
	tmpl, err := glaze.NewTemplate(str.Engine, glaze.WithSource("Hey #{name}!"))
	require.NoError(t, err)

	for _, name := range []string{"Joe", "Moe"} {
		out, err := tmpl.Render(context.Background(), nil, map[string]any{"name": name}, nil)
		require.NoError(t, err)
		assert.Equal(t, "Hey "+name+"!", out)
	}
	assert.Equal(t, 1, tmpl.CompiledCount())
}

func TestStringTemplate_LocalTypesMayChange(t *testing.T) {
	tmpl, err := glaze.NewTemplate(str.Engine, glaze.WithSource("#{v + v}"))
	require.NoError(t, err)

	out, err := tmpl.Render(context.Background(), nil, map[string]any{"v": 2}, nil)
	require.NoError(t, err)
	assert.Equal(t, "4", out)

	out, err = tmpl.Render(context.Background(), nil, map[string]any{"v": "ab"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "abab", out)
	assert.Equal(t, 1, tmpl.CompiledCount())
}

func TestStringTemplate_Errors(t *testing.T) {
	t.Run("syntax error is a parse error at its line", func(t *testing.T) {
		_, err := render(t, "ok\n#{1 +}", nil, nil)
		require.Error(t, err)
		assert.True(t, glaze.IsParseError(err))
		line, ok := glaze.ErrorLine(err)
		assert.True(t, ok)
		assert.Equal(t, 2, line)
	})

	t.Run("unterminated interpolation", func(t *testing.T) {
		_, err := render(t, "a\nb\n#{oops", nil, nil)
		require.Error(t, err)
		assert.True(t, glaze.IsParseError(err))
		line, _ := glaze.ErrorLine(err)
		assert.Equal(t, 3, line)
	})

	t.Run("unknown name is an evaluation error", func(t *testing.T) {
		_, err := render(t, "x\n#{missing}", nil, nil)
		require.Error(t, err)
		assert.True(t, glaze.IsEvaluationError(err))
		line, _ := glaze.ErrorLine(err)
		assert.Equal(t, 2, line)
	})

	t.Run("unknown name in a call argument", func(t *testing.T) {
		_, err := render(t, "#{upper(missing)}", nil, map[string]any{"name": "joe"})
		require.Error(t, err)
		assert.True(t, glaze.IsEvaluationError(err))
		assert.Contains(t, err.Error(), str.ErrMsgUnknownName+" missing")
	})

	t.Run("key missing from a map scope", func(t *testing.T) {
		_, err := render(t, "x\n#{absent}", map[string]any{"present": 1}, nil)
		require.Error(t, err)
		assert.True(t, glaze.IsEvaluationError(err))
		line, _ := glaze.ErrorLine(err)
		assert.Equal(t, 2, line)
	})

	t.Run("runtime failure is an evaluation error", func(t *testing.T) {
		_, err := render(t, "#{items[5]}", nil, map[string]any{"items": []int{1}})
		require.Error(t, err)
		assert.True(t, glaze.IsEvaluationError(err))
	})

	t.Run("template line offset applies", func(t *testing.T) {
		tmpl, err := glaze.NewTemplate(str.Engine, glaze.WithLine(10), glaze.WithSource("a\n#{1 +}"))
		require.NoError(t, err)
		_, err = tmpl.Render(context.Background(), nil, nil, nil)
		line, _ := glaze.ErrorLine(err)
		assert.Equal(t, 11, line)
	})
}

func TestStringTemplate_Listing(t *testing.T) {
	tmpl, err := glaze.NewTemplate(str.Engine, glaze.WithSource("Hi #{name}"))
	require.NoError(t, err)

	renderer, err := tmpl.Compiled(nil, map[string]any{"name": "x"})
	require.NoError(t, err)
	lister, ok := renderer.(glaze.Lister)
	require.True(t, ok)
	assert.Equal(t, "text \"Hi \"\nexpr name\n", lister.Listing())
}

func TestStringTemplate_LazyLoad(t *testing.T) {
	assert.Contains(t, glaze.DefaultLoader().Targets(), glaze.TargetString)

	reg := glaze.NewRegistry(glaze.WithLoader(glaze.DefaultLoader()))
	require.NoError(t, glaze.RegisterBuiltins(reg))

	engine, err := reg.Resolve("greeting.str")
	require.NoError(t, err)
	assert.Same(t, str.Engine, engine)
	assert.True(t, engine.AllowsScript())

	tmpl, err := reg.New("greeting.str", glaze.WithSource("#{a}-#{b}"))
	require.NoError(t, err)
	out, err := tmpl.Render(context.Background(), nil, map[string]any{"a": 1, "b": 2}, nil)
	require.NoError(t, err)
	assert.Equal(t, "1-2", out)
}
