package all_test

import (
	"context"
	"testing"

	"github.com/itsatony/go-glaze"
	_ "github.com/itsatony/go-glaze/engines/all"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllEnginesLinked(t *testing.T) {
	reg := glaze.NewRegistry(glaze.WithLoader(glaze.DefaultLoader()))
	require.NoError(t, glaze.RegisterBuiltins(reg))

	want := map[string]string{
		"page.md":     glaze.IdentGoldmark,
		"page.str":    glaze.IdentString,
		"page.j2":     glaze.IdentDjango,
		"page.tmpl":   glaze.IdentGoText,
		"page.gohtml": glaze.IdentGoHTML,
		"help.termmd": glaze.IdentTerminal,
		"feed.xml":    glaze.IdentXML,
		"q.gql":       glaze.IdentGraphQL,
	}
	for file, ident := range want {
		engine, err := reg.Resolve(file)
		require.NoError(t, err, file)
		require.NotNil(t, engine, file)
		assert.Equal(t, ident, engine.Name(), file)
	}

	finalized, err := reg.Finalize()
	require.NoError(t, err)
	assert.True(t, finalized.Registered("md"))
}

func TestAllEngines_Pipeline(t *testing.T) {
	reg := glaze.NewRegistry(glaze.WithLoader(glaze.DefaultLoader()))
	require.NoError(t, glaze.RegisterBuiltins(reg))
	_, err := reg.RegisterPipeline("md.str", nil)
	require.NoError(t, err)

	tmpl, err := reg.New("post.md.str", glaze.WithSource("# #{title}"))
	require.NoError(t, err)
	out, err := tmpl.Render(context.Background(), nil, map[string]any{"title": "Hello"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "<h1>Hello</h1>\n", out)
}
