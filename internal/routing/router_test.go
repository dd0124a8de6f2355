package routing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouteKnownEngine(t *testing.T) {
	r := New(map[string]int{"a": 1, "b": 2}, "a")

	got, err := r.Route("b")
	require.NoError(t, err)
	assert.Equal(t, 2, got)
}

func TestRouteFallsBackToDefault(t *testing.T) {
	r := New(map[string]int{"a": 1}, "a")

	got, err := r.Route("missing")
	require.NoError(t, err)
	assert.Equal(t, 1, got)
}

func TestRouteNoBackends(t *testing.T) {
	r := New(map[string]int{}, "a")
	_, err := r.Route("a")
	assert.Error(t, err)
}

func TestHasAndEngines(t *testing.T) {
	r := New(map[string]string{"x": "X", "y": "Y"}, "x")
	assert.True(t, r.Has("x"))
	assert.False(t, r.Has("z"))
	assert.ElementsMatch(t, []string{"x", "y"}, r.Engines())
}
