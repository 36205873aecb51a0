package projection

import (
	"errors"
	"image"
	"math"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/ownmap-styler/ownmap"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
	"github.com/paulmach/osm"
)

// fetchBufferFraction of the bounds diagonal is added around the bounds when fetching,
// so features just outside the map that reach into it are drawn too
const fetchBufferFraction = 0.0005

var ErrInvalidViewport = errors.New("invalid viewport")

// Viewport maps a lon/lat bounding box onto an image of Width x Height pixels.
// Pixel (0, 0) is the top left (north west) corner.
type Viewport struct {
	Bounds     osm.Bounds
	Projection Projection
	Width      int
	Height     int

	origin orb.Point
	// pixels per metre
	xScale, yScale float64
}

// NewViewport fits the bounds into an image whose longest side is maxSize pixels, keeping the aspect ratio of the projected bounds
func NewViewport(bounds osm.Bounds, proj Projection, maxSize int) (*Viewport, errorsx.Error) {
	if maxSize <= 0 {
		return nil, errorsx.Wrap(ErrInvalidViewport, "maxSize", maxSize)
	}

	xDiff, yDiff := projectedSize(bounds, proj)
	if xDiff == 0 || yDiff == 0 {
		return nil, errorsx.Wrap(ErrInvalidViewport, "bounds", bounds)
	}

	var width, height int
	if xDiff > yDiff {
		width = maxSize
		height = int(math.Ceil(float64(maxSize) / xDiff * yDiff))
	} else {
		width = int(math.Ceil(float64(maxSize) / yDiff * xDiff))
		height = maxSize
	}

	return NewViewportWithSize(bounds, proj, width, height)
}

// NewViewportWithSize stretches the bounds over an image of exactly width x height pixels, e.g. a map tile
func NewViewportWithSize(bounds osm.Bounds, proj Projection, width, height int) (*Viewport, errorsx.Error) {
	if width <= 0 || height <= 0 {
		return nil, errorsx.Wrap(ErrInvalidViewport, "width", width, "height", height)
	}

	xDiff, yDiff := projectedSize(bounds, proj)
	if xDiff == 0 || yDiff == 0 {
		return nil, errorsx.Wrap(ErrInvalidViewport, "bounds", bounds)
	}

	min := proj.Project(orb.Point{bounds.MinLon, bounds.MinLat})
	max := proj.Project(orb.Point{bounds.MaxLon, bounds.MaxLat})

	return &Viewport{
		Bounds:     bounds,
		Projection: proj,
		Width:      width,
		Height:     height,
		origin:     orb.Point{math.Min(min.X(), max.X()), math.Max(min.Y(), max.Y())},
		xScale:     float64(width) / xDiff,
		yScale:     float64(height) / yDiff,
	}, nil
}

func projectedSize(bounds osm.Bounds, proj Projection) (float64, float64) {
	min := proj.Project(orb.Point{bounds.MinLon, bounds.MinLat})
	max := proj.Project(orb.Point{bounds.MaxLon, bounds.MaxLat})

	return math.Abs(max.X() - min.X()), math.Abs(max.Y() - min.Y())
}

func (v *Viewport) Rect() image.Rectangle {
	return image.Rect(0, 0, v.Width, v.Height)
}

// ToPixel converts a lon/lat point into image coordinates
func (v *Viewport) ToPixel(point orb.Point) orb.Point {
	projected := v.Projection.Project(point)

	return orb.Point{
		(projected.X() - v.origin.X()) * v.xScale,
		(v.origin.Y() - projected.Y()) * v.yScale,
	}
}

// ProjectGeometry returns a copy of the lon/lat geometry in image coordinates. The input is not modified.
func (v *Viewport) ProjectGeometry(geometry orb.Geometry) orb.Geometry {
	if geometry == nil {
		return nil
	}

	return project.Geometry(orb.Clone(geometry), v.ToPixel)
}

// Scale is the mean number of metres per pixel, the figure zoom levels are chosen by
func (v *Viewport) Scale() float64 {
	unit := math.Sqrt(0.5)
	return (unit/v.xScale + unit/v.yScale) / 2
}

// FetchBounds is the area data is fetched for: the viewport bounds plus a small buffer
func (v *Viewport) FetchBounds() osm.Bounds {
	return ownmap.DilateBounds(v.Bounds, fetchBufferFraction)
}
