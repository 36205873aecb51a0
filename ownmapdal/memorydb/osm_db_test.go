package memorydb

import (
	"context"
	"errors"
	"testing"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/ownmap-styler/ownmap"
	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockOSMScanner struct {
	objects []osm.Object
	index   int
	err     error
}

func (s *mockOSMScanner) Scan() bool {
	if s.index >= len(s.objects) {
		return false
	}
	s.index++
	return true
}

func (s *mockOSMScanner) Object() osm.Object {
	return s.objects[s.index-1]
}

func (s *mockOSMScanner) Err() error {
	return s.err
}

func node(id osm.NodeID, lon, lat float64, tags ...osm.Tag) *osm.Node {
	return &osm.Node{ID: id, Lon: lon, Lat: lat, Tags: tags}
}

func way(id osm.WayID, nodeIDs []osm.NodeID, tags ...osm.Tag) *osm.Way {
	wayNodes := make(osm.WayNodes, len(nodeIDs))
	for i, nodeID := range nodeIDs {
		wayNodes[i] = osm.WayNode{ID: nodeID}
	}
	return &osm.Way{ID: id, Nodes: wayNodes, Tags: tags}
}

func testOSMObjects() []osm.Object {
	return []osm.Object{
		node(1, 10.0, 59.0),
		node(2, 10.1, 59.0),
		node(3, 10.1, 59.1),
		node(4, 10.0, 59.1),
		node(5, 10.05, 59.05, osm.Tag{Key: "place", Value: "village"}, osm.Tag{Key: "name", Value: "Midt"}),
		way(10, []osm.NodeID{1, 2, 3, 4, 1}, osm.Tag{Key: "landuse", Value: "forest"}),
		way(11, []osm.NodeID{1, 2, 3, 4, 1}, osm.Tag{Key: "highway", Value: "residential"}),
		way(12, []osm.NodeID{1, 3}, osm.Tag{Key: "highway", Value: "primary"}),
		way(13, []osm.NodeID{1, 99}, osm.Tag{Key: "highway", Value: "path"}),
		way(14, []osm.NodeID{2, 4}),
	}
}

func Test_isArea(t *testing.T) {
	tests := []struct {
		name string
		tags ownmap.TagMap
		want bool
	}{
		{"building", ownmap.TagMap{"building": "yes"}, true},
		{"road loop", ownmap.TagMap{"highway": "residential"}, false},
		{"pedestrian area", ownmap.TagMap{"highway": "pedestrian", "area": "yes"}, true},
		{"wood", ownmap.TagMap{"natural": "wood"}, true},
		{"coastline", ownmap.TagMap{"natural": "coastline"}, false},
		{"riverbank", ownmap.TagMap{"waterway": "riverbank"}, true},
		{"area=no wins", ownmap.TagMap{"landuse": "grass", "area": "no"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isArea(tt.tags))
		})
	}
}

func TestNewOSMDB(t *testing.T) {
	db, err := NewOSMDB("test.osm.pbf", &mockOSMScanner{objects: testOSMObjects()})
	require.NoError(t, err)

	info, err := db.DatasetInfo()
	require.NoError(t, err)
	assert.Equal(t, osm.Bounds{MinLat: 59.0, MaxLat: 59.1, MinLon: 10.0, MaxLon: 10.1}, info.Bounds)

	bounds := osm.Bounds{MinLat: 58, MaxLat: 60, MinLon: 9, MaxLon: 11}

	points, err := db.GetInBounds(context.Background(), bounds, ownmap.GeometryTypePoint, []*ownmap.FeatureFilter{
		{GeometryType: ownmap.GeometryTypePoint, TagName: "place", AllowedValues: []string{"village"}},
	})
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, "node/5", points[0].ID)
	assert.Equal(t, orb.Point{10.05, 59.05}, points[0].Geometry)
	assert.Equal(t, "Midt", points[0].Tags["name"])

	polygons, err := db.GetInBounds(context.Background(), bounds, ownmap.GeometryTypePolygon, []*ownmap.FeatureFilter{
		{GeometryType: ownmap.GeometryTypePolygon, TagName: "landuse", AllowedValues: []string{"forest"}},
		{GeometryType: ownmap.GeometryTypePolygon, TagName: "highway", AllowedValues: []string{"residential"}},
	})
	require.NoError(t, err)
	require.Len(t, polygons, 1)
	assert.Equal(t, "way/10", polygons[0].ID)
	assert.Len(t, polygons[0].Geometry.(orb.Polygon)[0], 5)

	lines, err := db.GetInBounds(context.Background(), bounds, ownmap.GeometryTypeLine, []*ownmap.FeatureFilter{
		{GeometryType: ownmap.GeometryTypeLine, TagName: "highway", AllowedValues: []string{"residential", "primary", "path"}},
	})
	require.NoError(t, err)

	var ids []string
	for _, line := range lines {
		ids = append(ids, line.ID)
	}
	// way 13 has one node left in the file, too few for a line
	assert.Equal(t, []string{"way/11", "way/12"}, ids)
}

func TestNewOSMDB_scanError(t *testing.T) {
	scanErr := errors.New("truncated file")

	_, err := NewOSMDB("test.osm.pbf", &mockOSMScanner{objects: testOSMObjects(), err: scanErr})
	require.Error(t, err)
	assert.Equal(t, scanErr, errorsx.Cause(err))
}
