package memorydb

import (
	"context"
	"sort"

	"github.com/dhconnelly/rtreego"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/ownmap-styler/ownmap"
	"github.com/jamesrr39/ownmap-styler/ownmapdal"
	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
)

var _ ownmapdal.DataSourceConn = &MemoryDB{}

const (
	rtreeMinChildren = 25
	rtreeMaxChildren = 50
	// R-tree rectangles need a non-zero size. Roughly 1cm at the equator.
	minRectLength = 1e-7
)

// sourceFeature is a feature as read from a source file, in lon/lat
type sourceFeature struct {
	id       string
	geometry orb.Geometry
	tags     ownmap.TagMap
}

type indexedFeature struct {
	index        int
	id           string
	geometryType ownmap.GeometryType
	geometry     orb.Geometry
	tags         ownmap.TagMap
	bound        orb.Bound
}

func (f *indexedFeature) Bounds() rtreego.Rect {
	return boundToRect(f.bound)
}

func boundToRect(bound orb.Bound) rtreego.Rect {
	lonLength := bound.Max.Lon() - bound.Min.Lon()
	latLength := bound.Max.Lat() - bound.Min.Lat()
	if lonLength < minRectLength {
		lonLength = minRectLength
	}
	if latLength < minRectLength {
		latLength = minRectLength
	}

	rect, _ := rtreego.NewRect(rtreego.Point{bound.Min.Lon(), bound.Min.Lat()}, []float64{lonLength, latLength})
	return rect
}

// MemoryDB holds features in memory, with an R-tree per geometry type
type MemoryDB struct {
	name        string
	datasetInfo *ownmap.DatasetInfo
	trees       map[ownmap.GeometryType]*rtreego.Rtree
}

// newMemoryDB indexes the features. Features without a drawable geometry are left out.
func newMemoryDB(name string, features []*sourceFeature) *MemoryDB {
	db := &MemoryDB{
		name:  name,
		trees: make(map[ownmap.GeometryType]*rtreego.Rtree),
	}

	var datasetBound orb.Bound
	count := 0
	for i, feature := range features {
		if feature.geometry == nil {
			continue
		}

		geometryType := ownmap.GeometryTypeFromOrb(feature.geometry)
		if geometryType == ownmap.GeometryTypeUnknown {
			continue
		}

		bound := feature.geometry.Bound()
		if count == 0 {
			datasetBound = bound
		} else {
			datasetBound = datasetBound.Union(bound)
		}
		count++

		tree, ok := db.trees[geometryType]
		if !ok {
			tree = rtreego.NewTree(2, rtreeMinChildren, rtreeMaxChildren)
			db.trees[geometryType] = tree
		}

		tree.Insert(&indexedFeature{
			index:        i,
			id:           feature.id,
			geometryType: geometryType,
			geometry:     feature.geometry,
			tags:         feature.tags,
			bound:        bound,
		})
	}

	if count != 0 {
		db.datasetInfo = &ownmap.DatasetInfo{
			Name:   name,
			Bounds: ownmap.OrbBoundToBounds(datasetBound),
		}
	}

	return db
}

func (db *MemoryDB) Name() string {
	return db.name
}

func (db *MemoryDB) DatasetInfo() (*ownmap.DatasetInfo, errorsx.Error) {
	if db.datasetInfo == nil {
		return nil, errorsx.Wrap(ownmapdal.ErrNoDataAvailable, "dataSource", db.name)
	}

	return db.datasetInfo, nil
}

// GetInBounds returns the features whose bounding box intersects the bounds.
// Within each filter, features are returned in the order of the source file.
func (db *MemoryDB) GetInBounds(ctx context.Context, bounds osm.Bounds, geometryType ownmap.GeometryType, filters []*ownmap.FeatureFilter) ([]*ownmap.FetchedFeature, errorsx.Error) {
	tree, ok := db.trees[geometryType]
	if !ok {
		return nil, nil
	}

	spatials := tree.SearchIntersect(boundToRect(ownmap.BoundsToOrbBound(bounds)))

	candidates := make([]*indexedFeature, 0, len(spatials))
	for _, spatial := range spatials {
		candidates = append(candidates, spatial.(*indexedFeature))
	}
	sort.Slice(candidates, func(a, b int) bool {
		return candidates[a].index < candidates[b].index
	})

	var features []*ownmap.FetchedFeature
	for _, filter := range filters {
		if ctx.Err() != nil {
			return nil, errorsx.Wrap(ctx.Err())
		}

		for _, candidate := range candidates {
			if !filter.Matches(candidate.tags) {
				continue
			}

			tags := make(ownmap.TagMap, len(candidate.tags))
			for k, v := range candidate.tags {
				tags[k] = v
			}

			features = append(features, &ownmap.FetchedFeature{
				ID:           candidate.id,
				GeometryType: geometryType,
				Geometry:     orb.Clone(candidate.geometry),
				Tags:         tags,
				TagKey:       filter.TagName,
			})
		}
	}

	return features, nil
}
