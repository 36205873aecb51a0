package memorydb

import (
	"context"
	"os"
	"testing"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/gofs/mockfs"
	"github.com/jamesrr39/ownmap-styler/ownmap"
	"github.com/jamesrr39/ownmap-styler/ownmapdal"
	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testGeoJSON = `{
	"type": "FeatureCollection",
	"features": [
		{
			"type": "Feature",
			"id": 1,
			"geometry": {"type": "LineString", "coordinates": [[10.70, 59.90], [10.80, 59.92]]},
			"properties": {"highway": "primary", "name": "Ring 1", "bridge": "yes"}
		},
		{
			"type": "Feature",
			"id": "way/2",
			"geometry": {"type": "LineString", "coordinates": [[10.71, 59.91], [10.72, 59.93]]},
			"properties": {"highway": "motorway", "lanes": 3, "oneway": true}
		},
		{
			"type": "Feature",
			"geometry": {"type": "Point", "coordinates": [10.75, 59.91]},
			"properties": {"place": "city", "name": "Oslo"}
		},
		{
			"type": "Feature",
			"geometry": {"type": "Polygon", "coordinates": [[[10.6, 59.8], [10.6, 59.85], [10.65, 59.85], [10.6, 59.8]]]},
			"properties": {"landuse": "forest"}
		},
		{
			"type": "Feature",
			"geometry": {"type": "LineString", "coordinates": [[5.30, 60.39], [5.33, 60.40]]},
			"properties": {"highway": "primary", "name": "Bergen road"}
		}
	]
}`

func loadTestDB(t *testing.T) *MemoryDB {
	fs := mockfs.NewMockFs()
	err := fs.WriteFile("/data/norway.geojson", []byte(testGeoJSON), 0644)
	require.NoError(t, err)

	db, errx := LoadGeoJSONFile(fs, "/data/norway.geojson")
	require.NoError(t, errx)
	return db
}

func TestLoadGeoJSONFile(t *testing.T) {
	db := loadTestDB(t)

	assert.Equal(t, "norway.geojson", db.Name())

	datasetInfo, err := db.DatasetInfo()
	require.NoError(t, err)
	assert.Equal(t, osm.Bounds{MinLat: 59.8, MaxLat: 60.4, MinLon: 5.3, MaxLon: 10.8}, datasetInfo.Bounds)

	_, err = LoadGeoJSONFile(mockfs.NewMockFs(), "/data/missing.geojson")
	require.Error(t, err)
	assert.True(t, os.IsNotExist(errorsx.Cause(err)))
}

func TestGeoJSONDB_GetInBounds(t *testing.T) {
	db := loadTestDB(t)
	osloBounds := osm.Bounds{MinLat: 59.85, MaxLat: 60, MinLon: 10.65, MaxLon: 10.9}

	filters := []*ownmap.FeatureFilter{
		{GeometryType: ownmap.GeometryTypeLine, TagName: "highway", AllowedValues: []string{"primary", "motorway"}},
		{GeometryType: ownmap.GeometryTypeLine, TagName: "highway", AllowedValues: []string{"primary"}, ExtraConditions: []ownmap.TagPair{{Key: "bridge", Value: "yes"}}},
	}

	features, err := db.GetInBounds(context.Background(), osloBounds, ownmap.GeometryTypeLine, filters)
	require.NoError(t, err)

	var got []string
	for _, feature := range features {
		assert.Equal(t, "highway", feature.TagKey)
		assert.Equal(t, ownmap.GeometryTypeLine, feature.GeometryType)
		got = append(got, feature.ID+" "+feature.Tags["highway"])
	}
	// grouped by filter, document order inside each filter. Bergen is out of bounds.
	assert.Equal(t, []string{"1 primary", "way/2 motorway", "1 primary"}, got)

	assert.Equal(t, ownmap.TagMap{"highway": "motorway", "lanes": "3", "oneway": "yes"}, features[1].Tags)

	points, err := db.GetInBounds(context.Background(), osloBounds, ownmap.GeometryTypePoint, []*ownmap.FeatureFilter{
		{GeometryType: ownmap.GeometryTypePoint, TagName: "place", AllowedValues: []string{"city"}},
	})
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, "#2", points[0].ID)
	assert.Equal(t, orb.Point{10.75, 59.91}, points[0].Geometry)

	// the forest is west of the bounds
	polygons, err := db.GetInBounds(context.Background(), osm.Bounds{MinLat: 59.9, MaxLat: 60, MinLon: 10.7, MaxLon: 10.9}, ownmap.GeometryTypePolygon, []*ownmap.FeatureFilter{
		{GeometryType: ownmap.GeometryTypePolygon, TagName: "landuse", AllowedValues: []string{"forest"}},
	})
	require.NoError(t, err)
	assert.Empty(t, polygons)
}

func TestGeoJSONDB_GetInBounds_copies(t *testing.T) {
	db := loadTestDB(t)
	filters := []*ownmap.FeatureFilter{
		{GeometryType: ownmap.GeometryTypePoint, TagName: "place", AllowedValues: []string{"city"}},
	}

	first, err := db.GetInBounds(context.Background(), ownmap.GetWholeWorldBounds(), ownmap.GeometryTypePoint, filters)
	require.NoError(t, err)
	require.Len(t, first, 1)
	first[0].Tags["name"] = "Christiania"
	first[0].Geometry = orb.Point{0, 0}

	second, err := db.GetInBounds(context.Background(), ownmap.GetWholeWorldBounds(), ownmap.GeometryTypePoint, filters)
	require.NoError(t, err)
	assert.Equal(t, "Oslo", second[0].Tags["name"])
	assert.Equal(t, orb.Point{10.75, 59.91}, second[0].Geometry)
}

func TestGeoJSONDB_empty(t *testing.T) {
	fs := mockfs.NewMockFs()
	err := fs.WriteFile("/empty.geojson", []byte(`{"type": "FeatureCollection", "features": []}`), 0644)
	require.NoError(t, err)

	db, errx := LoadGeoJSONFile(fs, "/empty.geojson")
	require.NoError(t, errx)

	_, errx = db.DatasetInfo()
	assert.Equal(t, ownmapdal.ErrNoDataAvailable, errorsx.Cause(errx))

	features, errx := db.GetInBounds(context.Background(), ownmap.GetWholeWorldBounds(), ownmap.GeometryTypeLine, nil)
	require.NoError(t, errx)
	assert.Empty(t, features)
}
