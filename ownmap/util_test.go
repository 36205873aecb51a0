package ownmap

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
	"github.com/stretchr/testify/assert"
)

func TestOverlaps(t *testing.T) {
	containerBounds := osm.Bounds{
		MaxLat: 1,
		MinLat: -1,
		MaxLon: 1,
		MinLon: -1,
	}

	tests := []struct {
		name string
		item osm.Bounds
		want bool
	}{
		{"item above container", osm.Bounds{MaxLat: 90, MinLat: 89, MaxLon: 1, MinLon: -1}, false},
		{"item below container", osm.Bounds{MaxLat: -50, MinLat: -51, MaxLon: 1, MinLon: -1}, false},
		{"item to the left of container", osm.Bounds{MaxLat: 1, MinLat: -1, MaxLon: -2, MinLon: -3}, false},
		{"item to the right of container", osm.Bounds{MaxLat: 1, MinLat: -1, MaxLon: 3, MinLon: 2}, false},
		{"item fully inside container", osm.Bounds{MaxLat: 0.5, MinLat: -0.5, MaxLon: 0.5, MinLon: -0.5}, true},
		{"item partially inside container (top side)", osm.Bounds{MaxLat: 2, MinLat: 1, MaxLon: 0.8, MinLon: 0.2}, true},
		{"item partially inside container (bottom-left side)", osm.Bounds{MaxLat: -0.5, MinLat: -1.5, MaxLon: -0.5, MinLon: -1.5}, true},
		{"item == container", containerBounds, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Overlaps(containerBounds, tt.item))
		})
	}
}

func TestIsTotallyInside(t *testing.T) {
	container := osm.Bounds{
		MaxLat: 1,
		MinLat: -1,
		MaxLon: 1,
		MinLon: -1,
	}

	tests := []struct {
		name string
		item osm.Bounds
		want bool
	}{
		{"is totally inside", osm.Bounds{MaxLat: 0.5, MinLat: -0.5, MaxLon: 0.5, MinLon: -0.5}, true},
		{"is the same as the container", container, true},
		{"is out to the west", osm.Bounds{MaxLat: 1, MinLat: -1, MaxLon: 1, MinLon: -1.1}, false},
		{"is out to the north", osm.Bounds{MaxLat: 1.1, MinLat: -1, MaxLon: 1, MinLon: -1}, false},
		{"is totally outside", osm.Bounds{MaxLat: 3, MinLat: 2, MaxLon: 3, MinLon: 2}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTotallyInside(container, tt.item))
		})
	}
}

func TestDilateBounds(t *testing.T) {
	bounds := osm.Bounds{MinLat: 0, MaxLat: 3, MinLon: 0, MaxLon: 4}

	// diagonal is 5
	dilated := DilateBounds(bounds, 0.1)

	assert.InDelta(t, -0.5, dilated.MinLat, 0.000001)
	assert.InDelta(t, 3.5, dilated.MaxLat, 0.000001)
	assert.InDelta(t, -0.5, dilated.MinLon, 0.000001)
	assert.InDelta(t, 4.5, dilated.MaxLon, 0.000001)
}

func TestBoundsToOrbBound(t *testing.T) {
	bounds := osm.Bounds{MinLat: 50, MaxLat: 51, MinLon: 10, MaxLon: 11}

	bound := BoundsToOrbBound(bounds)
	assert.Equal(t, orb.Point{10, 50}, bound.Min)
	assert.Equal(t, orb.Point{11, 51}, bound.Max)

	assert.Equal(t, bounds, OrbBoundToBounds(bound))
}
