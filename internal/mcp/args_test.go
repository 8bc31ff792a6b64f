package mcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStringArg(t *testing.T) {
	t.Parallel()

	t.Run("present", func(t *testing.T) {
		s, ok := stringArg(map[string]interface{}{"query": "sql injection"}, "query")
		assert.True(t, ok)
		assert.Equal(t, "sql injection", s)
	})

	t.Run("missing", func(t *testing.T) {
		_, ok := stringArg(map[string]interface{}{}, "query")
		assert.False(t, ok)
	})

	t.Run("empty counts as missing", func(t *testing.T) {
		_, ok := stringArg(map[string]interface{}{"query": ""}, "query")
		assert.False(t, ok)
	})

	t.Run("wrong type", func(t *testing.T) {
		_, ok := stringArg(map[string]interface{}{"query": 42}, "query")
		assert.False(t, ok)
	})
}

func TestIntArg(t *testing.T) {
	t.Parallel()

	t.Run("numbers arrive as float64", func(t *testing.T) {
		v, ok := intArg(map[string]interface{}{"line": float64(42)}, "line")
		assert.True(t, ok)
		assert.Equal(t, 42, v)
	})

	t.Run("missing", func(t *testing.T) {
		_, ok := intArg(map[string]interface{}{}, "line")
		assert.False(t, ok)
	})

	t.Run("zero is a value", func(t *testing.T) {
		v, ok := intArg(map[string]interface{}{"line": float64(0)}, "line")
		assert.True(t, ok)
		assert.Equal(t, 0, v)
	})

	t.Run("wrong type", func(t *testing.T) {
		_, ok := intArg(map[string]interface{}{"line": "ten"}, "line")
		assert.False(t, ok)
	})
}

func TestClampedIntArg(t *testing.T) {
	t.Parallel()

	t.Run("within bounds", func(t *testing.T) {
		assert.Equal(t, 5, clampedIntArg(map[string]interface{}{"limit": float64(5)}, "limit", 20, 1, 100))
	})

	t.Run("missing uses default", func(t *testing.T) {
		assert.Equal(t, 20, clampedIntArg(map[string]interface{}{}, "limit", 20, 1, 100))
	})

	t.Run("wrong type uses default", func(t *testing.T) {
		assert.Equal(t, 20, clampedIntArg(map[string]interface{}{"limit": "lots"}, "limit", 20, 1, 100))
	})

	t.Run("clamps low", func(t *testing.T) {
		assert.Equal(t, 1, clampedIntArg(map[string]interface{}{"limit": float64(-3)}, "limit", 20, 1, 100))
	})

	t.Run("clamps high", func(t *testing.T) {
		assert.Equal(t, 100, clampedIntArg(map[string]interface{}{"limit": float64(500)}, "limit", 20, 1, 100))
	})
}
