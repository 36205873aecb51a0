package ownmaprenderer

import (
	"github.com/llgcode/draw2d"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

func lineStringsOf(geometry orb.Geometry) []orb.LineString {
	switch g := geometry.(type) {
	case orb.LineString:
		return []orb.LineString{g}
	case orb.MultiLineString:
		return g
	case orb.Ring:
		return []orb.LineString{orb.LineString(g)}
	case orb.Polygon:
		var lineStrings []orb.LineString
		for _, ring := range g {
			lineStrings = append(lineStrings, orb.LineString(ring))
		}
		return lineStrings
	case orb.MultiPolygon:
		var lineStrings []orb.LineString
		for _, polygon := range g {
			lineStrings = append(lineStrings, lineStringsOf(polygon)...)
		}
		return lineStrings
	default:
		return nil
	}
}

func polygonsOf(geometry orb.Geometry) []orb.Polygon {
	switch g := geometry.(type) {
	case orb.Polygon:
		return []orb.Polygon{g}
	case orb.MultiPolygon:
		return g
	case orb.Ring:
		return []orb.Polygon{{g}}
	default:
		return nil
	}
}

func pointsOf(geometry orb.Geometry) []orb.Point {
	switch g := geometry.(type) {
	case orb.Point:
		return []orb.Point{g}
	case orb.MultiPoint:
		return g
	default:
		return nil
	}
}

func addLineStringPath(path draw2d.PathBuilder, lineString orb.LineString) {
	for i, point := range lineString {
		if i == 0 {
			path.MoveTo(point.X(), point.Y())
			continue
		}
		path.LineTo(point.X(), point.Y())
	}
}

func addPolygonPath(path draw2d.PathBuilder, polygons []orb.Polygon) {
	for _, polygon := range polygons {
		for _, ring := range polygon {
			if len(ring) == 0 {
				continue
			}
			addLineStringPath(path, orb.LineString(ring))
			path.Close()
		}
	}
}

// lineMidpoint is the point halfway along the line
func lineMidpoint(lineString orb.LineString) orb.Point {
	if len(lineString) == 0 {
		return orb.Point{}
	}

	remaining := planar.Length(lineString) / 2
	for i := 1; i < len(lineString); i++ {
		from, to := lineString[i-1], lineString[i]
		segmentLength := planar.Distance(from, to)
		if segmentLength >= remaining && segmentLength > 0 {
			ratio := remaining / segmentLength
			return orb.Point{
				from.X() + (to.X()-from.X())*ratio,
				from.Y() + (to.Y()-from.Y())*ratio,
			}
		}
		remaining -= segmentLength
	}

	return lineString[len(lineString)-1]
}

// labelAnchor is where the label of a geometry goes: the point itself, halfway along the longest line, or the centroid of the area
func labelAnchor(geometry orb.Geometry) (orb.Point, bool) {
	switch geometry.(type) {
	case orb.Point, orb.MultiPoint:
		points := pointsOf(geometry)
		if len(points) == 0 {
			return orb.Point{}, false
		}
		return points[0], true
	case orb.LineString, orb.MultiLineString:
		var longest orb.LineString
		longestLength := -1.0
		for _, lineString := range lineStringsOf(geometry) {
			length := planar.Length(lineString)
			if length > longestLength {
				longest, longestLength = lineString, length
			}
		}
		if len(longest) == 0 {
			return orb.Point{}, false
		}
		return lineMidpoint(longest), true
	case orb.Polygon, orb.MultiPolygon, orb.Ring:
		centroid, area := planar.CentroidArea(geometry)
		if area == 0 {
			return orb.Point{}, false
		}
		return centroid, true
	default:
		return orb.Point{}, false
	}
}
