package projection

import (
	"math"

	"github.com/paulmach/osm"
)

// TileSize is the width and height of an XYZ tile, in pixels
const TileSize = 256

// XYZToBounds gives the lon/lat bounds of a slippy map tile
func XYZToBounds(x, y, zoomLevel int) osm.Bounds {
	n := math.Exp2(float64(zoomLevel))

	return osm.Bounds{
		MinLat: tileLat(y+1, n),
		MaxLat: tileLat(y, n),
		MinLon: float64(x)/n*360 - 180,
		MaxLon: float64(x+1)/n*360 - 180,
	}
}

func tileLat(y int, n float64) float64 {
	latRad := math.Atan(math.Sinh(math.Pi * (1 - 2*float64(y)/n)))
	return latRad * 180 / math.Pi
}

// IsValidTile checks the tile coordinates exist at the zoom level
func IsValidTile(x, y, zoomLevel int) bool {
	if zoomLevel < 0 || zoomLevel > 30 {
		return false
	}

	n := 1 << uint(zoomLevel)
	return x >= 0 && y >= 0 && x < n && y < n
}
