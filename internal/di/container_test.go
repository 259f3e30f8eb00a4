package di

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type greeter struct{ name string }

func TestContainer_RegisterGetRemove(t *testing.T) {
	c := NewContainer()

	c.Register("b", 2)
	c.Register("a", &greeter{name: "x"})
	assert.True(t, c.Has("a"))
	assert.Equal(t, []string{"a", "b"}, c.GetNames())
	assert.Equal(t, 2, c.Get("b"))
	assert.Nil(t, c.Get("missing"))
	assert.Equal(t, "fallback", c.GetTyped("missing", "fallback"))

	c.Remove("b")
	assert.False(t, c.Has("b"))

	c.Clear()
	assert.Empty(t, c.GetNames())
}

func TestResolve(t *testing.T) {
	c := NewContainer()
	c.Register("greeter", &greeter{name: "anna"})

	g, err := Resolve[*greeter](c, "greeter")
	require.NoError(t, err)
	assert.Equal(t, "anna", g.name)

	_, err = Resolve[string](c, "greeter")
	assert.ErrorContains(t, err, "has type")

	_, err = Resolve[*greeter](c, "nobody")
	assert.ErrorContains(t, err, "not registered")
}

func TestGetContainer_Singleton(t *testing.T) {
	assert.Same(t, GetContainer(), GetContainer())
}
