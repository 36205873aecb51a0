package testmocks

import (
	"context"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/ownmap-styler/ownmap"
	"github.com/paulmach/osm"
)

type MockDataSourceConn struct {
	NameFunc        func() string
	DatasetInfoFunc func() (*ownmap.DatasetInfo, errorsx.Error)
	GetInBoundsFunc func(ctx context.Context, bounds osm.Bounds, geometryType ownmap.GeometryType, filters []*ownmap.FeatureFilter) ([]*ownmap.FetchedFeature, errorsx.Error)
}

func (c *MockDataSourceConn) Name() string {
	return c.NameFunc()
}

func (c *MockDataSourceConn) DatasetInfo() (*ownmap.DatasetInfo, errorsx.Error) {
	return c.DatasetInfoFunc()
}

func (c *MockDataSourceConn) GetInBounds(ctx context.Context, bounds osm.Bounds, geometryType ownmap.GeometryType, filters []*ownmap.FeatureFilter) ([]*ownmap.FetchedFeature, errorsx.Error) {
	return c.GetInBoundsFunc(ctx, bounds, geometryType, filters)
}

// NewMockDataSourceConnFromFeatures serves the features matching the requested filters, ignoring the bounds.
// Every call gets fresh copies, so callers can set FetchSequence without affecting each other.
func NewMockDataSourceConnFromFeatures(name string, datasetBounds osm.Bounds, features ...*ownmap.FetchedFeature) *MockDataSourceConn {
	return &MockDataSourceConn{
		NameFunc: func() string {
			return name
		},
		DatasetInfoFunc: func() (*ownmap.DatasetInfo, errorsx.Error) {
			return &ownmap.DatasetInfo{Name: name, Bounds: datasetBounds}, nil
		},
		GetInBoundsFunc: func(ctx context.Context, bounds osm.Bounds, geometryType ownmap.GeometryType, filters []*ownmap.FeatureFilter) ([]*ownmap.FetchedFeature, errorsx.Error) {
			var found []*ownmap.FetchedFeature
			for _, filter := range filters {
				for _, feature := range features {
					if feature.GeometryType != geometryType || !filter.Matches(feature.Tags) {
						continue
					}

					copied := *feature
					copied.TagKey = filter.TagName
					found = append(found, &copied)
				}
			}
			return found, nil
		},
	}
}
