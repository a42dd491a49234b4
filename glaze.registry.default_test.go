package glaze

import (
	"errors"
	"testing"

	"github.com/itsatony/go-cuserr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// swapDefault installs m as the process-wide mapping for the duration of the test.
func swapDefault(t *testing.T, m Mapping) {
	t.Helper()
	previous := Default()
	SetDefault(m)
	t.Cleanup(func() { SetDefault(previous) })
}

func TestRegisterBuiltins(t *testing.T) {
	reg := NewRegistry(WithLoader(NewProviderLoader()))
	require.NoError(t, RegisterBuiltins(reg))

	for _, ext := range []string{"md", "markdown", "mkd", "str", "django", "tmpl", "gohtml", "termmd", "xml", "graphql", "gql"} {
		assert.True(t, reg.Registered(ext), ext)
	}
	assert.Contains(t, reg.Identifiers(), IdentGoldmark)
	assert.Equal(t, []string{"markdown", "md", "mkd"}, reg.ExtensionsForName(IdentBlackfriday))
}

func TestBuiltins_UnlinkedEnginesFailToLoad(t *testing.T) {
	reg := NewRegistry(WithLoader(NewProviderLoader()))
	require.NoError(t, RegisterBuiltins(reg))

	engine, err := reg.Resolve("README.md")
	require.Error(t, err)
	assert.Nil(t, engine)
	assert.True(t, IsLoadError(err))

	var customErr *cuserr.CustomError
	require.True(t, errors.As(err, &customErr))
	identifier, _ := customErr.GetMetadata(MetaKeyIdentifier)
	assert.Equal(t, IdentGoldmark, identifier)

	finalized, err := reg.Finalize()
	require.NoError(t, err)
	assert.Empty(t, finalized.Extensions())
}

func TestBuiltins_LaterRowWins(t *testing.T) {
	c := &counters{}
	goldmark := newCountingEngine(IdentGoldmark, c)
	blackfriday := newCountingEngine(IdentBlackfriday, c)

	loader := NewProviderLoader()
	loader.Provide(TargetGoldmark, Defining(goldmark))
	loader.Provide(TargetBlackfriday, Defining(blackfriday))

	reg := NewRegistry(WithLoader(loader))
	require.NoError(t, RegisterBuiltins(reg))

	engine, err := reg.Resolve("README.md")
	require.NoError(t, err)
	assert.Same(t, goldmark, engine)
}

func TestDefaultMapping(t *testing.T) {
	c := &counters{}
	alpha := newCountingEngine("Alpha", c)

	reg := NewRegistry(WithLoader(NewProviderLoader()))
	swapDefault(t, reg)

	require.NoError(t, Register(alpha, "alpha"))
	assert.True(t, Registered("alpha"))

	engine, err := Resolve("page.alpha")
	require.NoError(t, err)
	assert.Same(t, alpha, engine)

	engines, err := TemplatesFor("page.alpha.alpha")
	require.NoError(t, err)
	assert.Equal(t, []*EngineType{alpha, alpha}, engines)
	assert.Equal(t, []string{"alpha"}, ExtensionsFor(alpha))

	tmpl, err := New("page.alpha", WithSource("x"))
	require.NoError(t, err)
	assert.Same(t, alpha, tmpl.Engine())
	assert.NotPanics(t, func() { MustNew("page.alpha", WithSource("x")) })
	assert.Panics(t, func() { MustNew("page.bogus", WithSource("x")) })

	require.NoError(t, RegisterLazy("Beta", "pkg/beta", "beta"))
	assert.True(t, Registered("beta"))
	require.NoError(t, Unregister("beta"))
	assert.False(t, Registered("beta"))
}

func TestFinalizeDefault(t *testing.T) {
	c := &counters{}
	alpha := newCountingEngine("Alpha", c)

	reg := NewRegistry(WithLoader(NewProviderLoader()))
	require.NoError(t, reg.Register(alpha, "alpha"))
	swapDefault(t, reg)

	require.NoError(t, Finalize())
	_, ok := Default().(*FinalizedRegistry)
	assert.True(t, ok)

	err := Register(alpha, "other")
	assert.True(t, IsConfigError(err))

	engine, err := Resolve("x.alpha")
	require.NoError(t, err)
	assert.Same(t, alpha, engine)
}

func TestDefault_HasBuiltins(t *testing.T) {
	m := Default()
	if _, finalized := m.(*FinalizedRegistry); finalized {
		t.Skip("default mapping replaced by another test")
	}
	assert.True(t, m.Registered("md"))
	assert.True(t, m.Registered("str"))
}
