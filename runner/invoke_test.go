package runner

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type counter struct {
	Count int
}

func (c *counter) Increment() int {
	c.Count++
	return c.Count
}

func (c *counter) Add(n int) int {
	c.Count += n
	return c.Count
}

func (c *counter) GetCount() int {
	return c.Count
}

func TestResolveTargetAndCallMethod(t *testing.T) {
	c := &counter{}

	target, ferr := resolveTarget(c, "Increment")
	require.Nil(t, ferr)
	result, err := callMethod(target, nil)
	require.NoError(t, err)
	require.Equal(t, 1, result)

	target, ferr = resolveTarget(c, "Add")
	require.Nil(t, ferr)
	result, err = callMethod(target, []any{5})
	require.NoError(t, err)
	require.Equal(t, 6, result)
}

func TestResolveTargetMissingMethod(t *testing.T) {
	c := &counter{}
	_, ferr := resolveTarget(c, "DoesNotExist")
	require.NotNil(t, ferr)
	require.Equal(t, "invalid_argument", string(ferr.Code))
}

func TestAsObjectRef(t *testing.T) {
	ref, ok := asObjectRef(map[string]any{"url": "http://cache/objects/x", "version": float64(3)})
	require.True(t, ok)
	require.Equal(t, "http://cache/objects/x", ref.URL)
	require.Equal(t, int64(3), ref.Version)

	_, ok = asObjectRef(42)
	require.False(t, ok)

	_, ok = asObjectRef(map[string]any{"foo": "bar"})
	require.False(t, ok)
}
