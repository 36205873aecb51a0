package ownmapdal

import (
	"bytes"
	"context"
	"io/ioutil"
	"testing"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/jamesrr39/ownmap-styler/ownmap"
	"github.com/jamesrr39/ownmap-styler/ownmap/testmocks"
	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var osloBounds = osm.Bounds{MinLat: 59.8, MaxLat: 60.1, MinLon: 10.5, MaxLon: 11}

func TestDBConnSet_GetConnsForBounds(t *testing.T) {
	oslo := testmocks.NewMockDataSourceConnFromFeatures("oslo", osloBounds)
	world := testmocks.NewMockDataSourceConnFromFeatures("world", ownmap.GetWholeWorldBounds())
	bergen := testmocks.NewMockDataSourceConnFromFeatures("bergen", osm.Bounds{MinLat: 60.3, MaxLat: 60.5, MinLon: 5.2, MaxLon: 5.5})

	dbConnSet := NewDBConnSet(logpkg.NewLogger(ioutil.Discard, logpkg.LogLevelDebug), []DataSourceConn{oslo, world})
	dbConnSet.AddDBConn(bergen)

	tests := []struct {
		name     string
		bounds   osm.Bounds
		expected map[string]MatchLevel
	}{
		{
			name:     "inside oslo",
			bounds:   osm.Bounds{MinLat: 59.9, MaxLat: 59.95, MinLon: 10.7, MaxLon: 10.8},
			expected: map[string]MatchLevel{"oslo": MatchLevelFull, "world": MatchLevelFull},
		}, {
			name:     "across oslo and bergen",
			bounds:   osm.Bounds{MinLat: 59.9, MaxLat: 60.4, MinLon: 5.3, MaxLon: 10.8},
			expected: map[string]MatchLevel{"oslo": MatchLevelPartial, "world": MatchLevelFull, "bergen": MatchLevelPartial},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chosen, err := dbConnSet.GetConnsForBounds(tt.bounds)
			require.NoError(t, err)

			got := make(map[string]MatchLevel)
			for _, conn := range chosen {
				got[conn.Name()] = conn.MatchLevel
			}
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestDBConnSet_GetConnsForBounds_datasetInfoError(t *testing.T) {
	broken := &testmocks.MockDataSourceConn{
		NameFunc: func() string { return "broken" },
		DatasetInfoFunc: func() (*ownmap.DatasetInfo, errorsx.Error) {
			return nil, errorsx.Errorf("connection refused")
		},
	}

	dbConnSet := NewDBConnSet(logpkg.NewLogger(ioutil.Discard, logpkg.LogLevelInfo), []DataSourceConn{broken})
	_, err := dbConnSet.GetConnsForBounds(osloBounds)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
}

func TestFetchFeatures(t *testing.T) {
	features := []*ownmap.FetchedFeature{
		{GeometryType: ownmap.GeometryTypeLine, Geometry: orb.LineString{{10.7, 59.9}, {10.8, 59.9}}, Tags: ownmap.TagMap{"highway": "primary"}},
		{GeometryType: ownmap.GeometryTypePoint, Geometry: orb.Point{10.75, 59.91}, Tags: ownmap.TagMap{"place": "city", "name": "Oslo"}},
		{GeometryType: ownmap.GeometryTypeLine, Geometry: orb.LineString{{10.7, 59.95}, {10.8, 59.95}}, Tags: ownmap.TagMap{"railway": "rail"}},
		{GeometryType: ownmap.GeometryTypeLine, Geometry: orb.LineString{{10.7, 59.92}, {10.8, 59.92}}, Tags: ownmap.TagMap{"highway": "motorway"}},
	}

	first := testmocks.NewMockDataSourceConnFromFeatures("first", osloBounds, features...)
	second := testmocks.NewMockDataSourceConnFromFeatures("second", osloBounds, features[0])

	filtersByType := map[ownmap.GeometryType][]*ownmap.FeatureFilter{
		ownmap.GeometryTypeLine: {
			{GeometryType: ownmap.GeometryTypeLine, TagName: "highway", AllowedValues: []string{"motorway", "primary"}},
			{GeometryType: ownmap.GeometryTypeLine, TagName: "railway", AllowedValues: []string{"rail"}},
		},
		ownmap.GeometryTypePoint: {
			{GeometryType: ownmap.GeometryTypePoint, TagName: "place", AllowedValues: []string{"city"}},
		},
	}

	logger := logpkg.NewLogger(ioutil.Discard, logpkg.LogLevelInfo)

	for run := 0; run < 10; run++ {
		fetched, err := FetchFeatures(context.Background(), logger, []DataSourceConn{first, second}, osloBounds, filtersByType)
		require.NoError(t, err)

		var got []string
		for i, feature := range fetched {
			assert.Equal(t, int64(i), feature.FetchSequence)
			got = append(got, feature.GeometryType.String()+" "+feature.TagKey+"="+feature.Tags[feature.TagKey])
		}

		assert.Equal(t, []string{
			"POINT place=city",
			"LINE highway=primary",
			"LINE highway=motorway",
			"LINE railway=rail",
			"LINE highway=primary",
		}, got)
	}

	// the source features are not modified
	for _, feature := range features {
		assert.Equal(t, int64(0), feature.FetchSequence)
	}
}

func TestFetchFeatures_errors(t *testing.T) {
	filtersByType := map[ownmap.GeometryType][]*ownmap.FeatureFilter{
		ownmap.GeometryTypeLine: {{GeometryType: ownmap.GeometryTypeLine, TagName: "highway", AllowedValues: []string{"primary"}}},
	}

	newConn := func(name string, err errorsx.Error) DataSourceConn {
		return &testmocks.MockDataSourceConn{
			NameFunc: func() string { return name },
			GetInBoundsFunc: func(ctx context.Context, bounds osm.Bounds, geometryType ownmap.GeometryType, filters []*ownmap.FeatureFilter) ([]*ownmap.FetchedFeature, errorsx.Error) {
				return nil, err
			},
		}
	}

	logBuf := bytes.NewBuffer(nil)
	logger := logpkg.NewLogger(logBuf, logpkg.LogLevelDebug)

	fetched, err := FetchFeatures(context.Background(), logger, []DataSourceConn{newConn("empty", errorsx.Wrap(ErrNoDataAvailable))}, osloBounds, filtersByType)
	require.NoError(t, err)
	assert.Empty(t, fetched)
	assert.Contains(t, logBuf.String(), `datasource: "empty". no LINE data found`)

	_, err = FetchFeatures(context.Background(), logger, []DataSourceConn{newConn("down", errorsx.Errorf("connection refused"))}, osloBounds, filtersByType)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = FetchFeatures(ctx, logger, []DataSourceConn{newConn("unused", nil)}, osloBounds, filtersByType)
	require.Error(t, err)
	assert.Equal(t, context.Canceled, errorsx.Cause(err))
}
