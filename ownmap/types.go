package ownmap

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
)

type GeometryType int

const (
	GeometryTypeUnknown GeometryType = iota
	GeometryTypePoint
	GeometryTypeLine
	GeometryTypePolygon
)

// GeometryTypes lists the drawable geometry types in stylesheet order
var GeometryTypes = []GeometryType{
	GeometryTypePoint,
	GeometryTypeLine,
	GeometryTypePolygon,
}

func (gt GeometryType) String() string {
	switch gt {
	case GeometryTypePoint:
		return "POINT"
	case GeometryTypeLine:
		return "LINE"
	case GeometryTypePolygon:
		return "POLYGON"
	default:
		return "UNKNOWN"
	}
}

func (gt GeometryType) MarshalText() ([]byte, error) {
	return []byte(gt.String()), nil
}

// GeometryTypeFromOrb maps an orb geometry onto the stylesheet geometry buckets
func GeometryTypeFromOrb(geom orb.Geometry) GeometryType {
	switch geom.(type) {
	case orb.Point, orb.MultiPoint:
		return GeometryTypePoint
	case orb.LineString, orb.MultiLineString:
		return GeometryTypeLine
	case orb.Polygon, orb.MultiPolygon, orb.Ring:
		return GeometryTypePolygon
	default:
		return GeometryTypeUnknown
	}
}

type TagPair struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type TagMap map[string]string

// FeatureFilter is one fetch criterion sent to a data store.
// A row matches when its TagName value is one of AllowedValues and every extra condition holds.
type FeatureFilter struct {
	GeometryType    GeometryType `json:"geometryType"`
	TagName         string       `json:"tagName"`
	AllowedValues   []string     `json:"allowedValues"`
	ExtraConditions []TagPair    `json:"extraConditions"`
	// Columns are the extra tags the styles need to draw the row, e.g. the label text
	Columns []string `json:"columns,omitempty"`
}

func (f *FeatureFilter) Matches(tags TagMap) bool {
	value, ok := tags[f.TagName]
	if !ok {
		return false
	}

	allowed := false
	for _, allowedValue := range f.AllowedValues {
		if allowedValue == value {
			allowed = true
			break
		}
	}

	if !allowed {
		return false
	}

	for _, extra := range f.ExtraConditions {
		if tags[extra.Key] != extra.Value {
			return false
		}
	}

	return true
}

// FetchedFeature is a row returned from a data store.
// ID identifies the feature inside its data store, and may be empty.
// TagKey is the tag name of the filter that fetched it, FetchSequence the order it arrived in.
type FetchedFeature struct {
	ID            string
	GeometryType  GeometryType
	Geometry      orb.Geometry
	Tags          TagMap
	TagKey        string
	FetchSequence int64
}

type DatasetInfo struct {
	Name   string     `json:"name"`
	Bounds osm.Bounds `json:"bounds"`
}
