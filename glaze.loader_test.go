package glaze

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNamespace_Define(t *testing.T) {
	c := &counters{}
	alpha := newCountingEngine("Alpha", c)
	other := newCountingEngine("Alpha", c)

	ns := NewNamespace()
	require.NoError(t, ns.Define("Alpha", alpha))
	require.NoError(t, ns.Define("Alpha", alpha), "redefining the same engine is a no-op")
	require.NoError(t, ns.Define("Markdown.Goldmark", alpha))

	err := ns.Define("Alpha", other)
	require.Error(t, err)
	assert.True(t, IsConfigError(err))
	assert.Contains(t, err.Error(), ErrMsgDuplicateDefine)

	assert.True(t, IsConfigError(ns.Define("Beta", nil)))
	assert.True(t, IsNameError(ns.Define("#beta", alpha)))
	assert.True(t, IsNameError(ns.Define("", alpha)))

	engine, ok := ns.Lookup("Alpha")
	assert.True(t, ok)
	assert.Same(t, alpha, engine)
	_, ok = ns.Lookup("Beta")
	assert.False(t, ok)

	assert.Equal(t, []string{"Alpha", "Markdown.Goldmark"}, ns.Names())
}

func TestProviderLoader(t *testing.T) {
	c := &counters{}
	alpha := newCountingEngine("Alpha", c)
	beta := newCountingEngine("Beta", c)

	loader := NewProviderLoader()
	loader.Provide("pkg/both", Defining(alpha, beta))
	loader.Provide("pkg/alpha", Defining(alpha))

	assert.Equal(t, []string{"pkg/alpha", "pkg/both"}, loader.Targets())

	ns := NewNamespace()
	require.NoError(t, loader.Load(ns, "pkg/both"))
	assert.Equal(t, []string{"Alpha", "Beta"}, ns.Names())

	err := loader.Load(ns, "pkg/unknown")
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrMsgTargetNotLinked)
	assert.False(t, IsNameError(err))

	assert.Panics(t, func() { loader.Provide("", Defining(alpha)) })
}

func TestDefining_PropagatesConflicts(t *testing.T) {
	c := &counters{}
	first := newCountingEngine("Alpha", c)
	second := newCountingEngine("Alpha", c)

	ns := NewNamespace()
	require.NoError(t, Defining(first)(ns))
	err := Defining(second)(ns)
	assert.True(t, IsConfigError(err))
}
