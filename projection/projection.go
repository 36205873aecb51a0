package projection

import (
	"errors"
	"math"
	"sort"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
)

// EarthRadius is the radius of the sphere all the projections are computed on, in metres
const EarthRadius = 6378137.0

var ErrUnknownProjection = errors.New("unknown projection")

// Projection maps lon/lat degrees onto a plane measured in metres
type Projection interface {
	Name() string
	Project(point orb.Point) orb.Point
}

type funcProjection struct {
	name string
	fn   orb.Projection
}

func (p *funcProjection) Name() string {
	return p.name
}

func (p *funcProjection) Project(point orb.Point) orb.Point {
	return p.fn(point)
}

var (
	// Mercator is the spherical (web) mercator, EPSG:3857
	Mercator Projection = &funcProjection{"mercator", project.WGS84.ToMercator}
	// PlateCarree is the equirectangular projection with the standard parallel on the equator
	PlateCarree Projection = &funcProjection{"plate-carree", plateCarree}
	// Cassini is the transverse equirectangular projection centred on lon 0, lat 0
	Cassini Projection = &funcProjection{"cassini", cassini}
)

var projectionsByName = map[string]Projection{
	Mercator.Name():    Mercator,
	PlateCarree.Name(): PlateCarree,
	Cassini.Name():     Cassini,
}

func Get(name string) (Projection, errorsx.Error) {
	proj, ok := projectionsByName[name]
	if !ok {
		return nil, errorsx.Wrap(ErrUnknownProjection, "name", name)
	}
	return proj, nil
}

func Names() []string {
	var names []string
	for name := range projectionsByName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func plateCarree(point orb.Point) orb.Point {
	return orb.Point{
		EarthRadius * toRadians(point.Lon()),
		EarthRadius * toRadians(point.Lat()),
	}
}

func cassini(point orb.Point) orb.Point {
	lambda := toRadians(point.Lon())
	phi := toRadians(point.Lat())

	return orb.Point{
		EarthRadius * math.Asin(math.Cos(phi)*math.Sin(lambda)),
		EarthRadius * math.Atan2(math.Tan(phi), math.Cos(lambda)),
	}
}

func toRadians(degrees float64) float64 {
	return degrees * math.Pi / 180
}
