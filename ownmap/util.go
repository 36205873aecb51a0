package ownmap

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
)

// Overlaps checks whether an item is at least partially inside a container
func Overlaps(container osm.Bounds, item osm.Bounds) bool {
	if container.MinLat > item.MaxLat {
		// container is wholly above item
		return false
	}

	if container.MaxLat < item.MinLat {
		// container is wholly below item
		return false
	}

	if container.MinLon > item.MaxLon {
		// container is wholly to the right of item
		return false
	}

	if container.MaxLon < item.MinLon {
		// container is wholly to the left of item
		return false
	}

	return true
}

func IsTotallyInside(container osm.Bounds, item osm.Bounds) bool {
	return item.MaxLat <= container.MaxLat && item.MaxLon <= container.MaxLon && item.MinLat >= container.MinLat && item.MinLon >= container.MinLon
}

func GetWholeWorldBounds() osm.Bounds {
	return osm.Bounds{
		MaxLat: 90,
		MinLat: -90,
		MaxLon: 180,
		MinLon: -180,
	}
}

func BoundsToOrbBound(bounds osm.Bounds) orb.Bound {
	return orb.Bound{
		Min: orb.Point{bounds.MinLon, bounds.MinLat},
		Max: orb.Point{bounds.MaxLon, bounds.MaxLat},
	}
}

func OrbBoundToBounds(bound orb.Bound) osm.Bounds {
	return osm.Bounds{
		MinLat: bound.Min.Lat(),
		MaxLat: bound.Max.Lat(),
		MinLon: bound.Min.Lon(),
		MaxLon: bound.Max.Lon(),
	}
}

// DilateBounds grows the bounds on every side by fraction of its diagonal
func DilateBounds(bounds osm.Bounds, fraction float64) osm.Bounds {
	diagonal := math.Hypot(bounds.MaxLon-bounds.MinLon, bounds.MaxLat-bounds.MinLat)
	buffer := diagonal * fraction

	return osm.Bounds{
		MinLat: bounds.MinLat - buffer,
		MaxLat: bounds.MaxLat + buffer,
		MinLon: bounds.MinLon - buffer,
		MaxLon: bounds.MaxLon + buffer,
	}
}
