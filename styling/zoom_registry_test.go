package styling

import (
	"math"
	"testing"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestZoomRegistry(t *testing.T) *ZoomRegistry {
	registry, err := NewZoomRegistry([]*ZoomLevel{
		{Name: "0", MinScale: 0, MaxScale: 5},
		{Name: "1", MinScale: 5, MaxScale: 10},
		{Name: "2", MinScale: 10, MaxScale: 20},
	})
	require.NoError(t, err)
	return registry
}

func TestNewZoomRegistry_errors(t *testing.T) {
	tests := []struct {
		name   string
		levels []*ZoomLevel
	}{
		{"empty", nil},
		{"no name", []*ZoomLevel{{MinScale: 0, MaxScale: 1}}},
		{"duplicate name", []*ZoomLevel{{Name: "a", MinScale: 0, MaxScale: 1}, {Name: "a", MinScale: 1, MaxScale: 2}}},
		{"min equals max", []*ZoomLevel{{Name: "a", MinScale: 1, MaxScale: 1}}},
		{"min above max", []*ZoomLevel{{Name: "a", MinScale: 2, MaxScale: 1}}},
		{"NaN", []*ZoomLevel{{Name: "a", MinScale: math.NaN(), MaxScale: 1}}},
		{"overlap", []*ZoomLevel{{Name: "a", MinScale: 0, MaxScale: 10}, {Name: "b", MinScale: 5, MaxScale: 20}}},
		{"overlap out of declaration order", []*ZoomLevel{{Name: "b", MinScale: 5, MaxScale: 20}, {Name: "a", MinScale: 0, MaxScale: 6}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewZoomRegistry(tt.levels)
			require.Error(t, err)
			assert.Equal(t, ErrInvalidZoomRegistry, errorsx.Cause(err))
		})
	}
}

func TestNewZoomRegistry_infiniteMax(t *testing.T) {
	registry, err := NewZoomRegistry([]*ZoomLevel{
		{Name: "near", MinScale: 0, MaxScale: 100},
		{Name: "far", MinScale: 100, MaxScale: math.Inf(1)},
	})
	require.NoError(t, err)

	level, err := registry.ResolveZoomLevel(1e12)
	require.NoError(t, err)
	assert.Equal(t, "far", level.Name)
}

func TestZoomRegistry_ResolveZoomLevel(t *testing.T) {
	registry := newTestZoomRegistry(t)

	tests := []struct {
		scale float64
		want  string
	}{
		{0, "0"},
		{4.99, "0"},
		{5, "1"},
		{9.5, "1"},
		{10, "2"},
		{19.999, "2"},
	}
	for _, tt := range tests {
		level, err := registry.ResolveZoomLevel(tt.scale)
		require.NoError(t, err)
		assert.Equal(t, tt.want, level.Name, "scale %v", tt.scale)
	}

	for _, scale := range []float64{-1, 20, 1000, math.NaN()} {
		_, err := registry.ResolveZoomLevel(scale)
		require.Error(t, err)
		assert.Equal(t, ErrScaleOutOfRange, errorsx.Cause(err))
	}
}

func TestZoomRegistry_ResolveZoomLevelWithPolicy(t *testing.T) {
	registry, err := NewZoomRegistry([]*ZoomLevel{
		{Name: "a", MinScale: 10, MaxScale: 20},
		{Name: "b", MinScale: 30, MaxScale: 40},
	})
	require.NoError(t, err)

	tests := []struct {
		scale float64
		want  string
	}{
		{1, "a"},
		{15, "a"},
		{22, "a"},
		// equally distant from both levels: first declared wins
		{25, "a"},
		{28, "b"},
		{500, "b"},
	}
	for _, tt := range tests {
		level, err := registry.ResolveZoomLevelWithPolicy(tt.scale, ScalePolicyClamp)
		require.NoError(t, err)
		assert.Equal(t, tt.want, level.Name, "scale %v", tt.scale)
	}

	_, err = registry.ResolveZoomLevelWithPolicy(25, ScalePolicyFail)
	assert.Equal(t, ErrScaleOutOfRange, errorsx.Cause(err))
}

func TestZoomRegistry_accessors(t *testing.T) {
	levels := []*ZoomLevel{
		{Name: "z", MinScale: 0, MaxScale: 5},
		{Name: "a", MinScale: 5, MaxScale: 10},
	}
	registry, err := NewZoomRegistry(levels)
	require.NoError(t, err)

	assert.Equal(t, []string{"z", "a"}, registry.ZoomLevelNames())

	// mutating the input must not change the registry
	levels[0].MaxScale = 100
	level, ok := registry.Get("z")
	require.True(t, ok)
	assert.Equal(t, 5.0, level.MaxScale)

	_, ok = registry.Get("missing")
	assert.False(t, ok)

	assert.Len(t, registry.Levels(), 2)

	names, err := registry.ExpandRange("z", "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"z", "a"}, names)

	_, err = registry.ExpandRange("a", "z")
	assert.Equal(t, ErrInvalidRange, errorsx.Cause(err))
}

func TestParseScalePolicy(t *testing.T) {
	policy, err := ParseScalePolicy("clamp")
	require.NoError(t, err)
	assert.Equal(t, ScalePolicyClamp, policy)

	policy, err = ParseScalePolicy("fail")
	require.NoError(t, err)
	assert.Equal(t, ScalePolicyFail, policy)

	_, err = ParseScalePolicy("nearest")
	assert.Error(t, err)
}
