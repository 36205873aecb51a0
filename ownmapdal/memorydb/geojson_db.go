package memorydb

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/gofs"
	"github.com/jamesrr39/ownmap-styler/ownmap"
	"github.com/paulmach/orb/geojson"
)

// LoadGeoJSONFile reads a GeoJSON FeatureCollection from the filesystem
func LoadGeoJSONFile(fs gofs.Fs, path string) (*MemoryDB, errorsx.Error) {
	data, err := fs.ReadFile(path)
	if err != nil {
		return nil, errorsx.Wrap(err, "path", path)
	}

	featureCollection, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, errorsx.Wrap(err, "path", path)
	}

	return NewGeoJSONDB(filepath.Base(path), featureCollection), nil
}

// NewGeoJSONDB indexes the features of the collection. Feature properties become tags.
func NewGeoJSONDB(name string, featureCollection *geojson.FeatureCollection) *MemoryDB {
	features := make([]*sourceFeature, len(featureCollection.Features))
	for i, feature := range featureCollection.Features {
		features[i] = &sourceFeature{
			id:       featureID(feature, i),
			geometry: feature.Geometry,
			tags:     propertiesToTags(feature.Properties),
		}
	}

	return newMemoryDB(name, features)
}

func featureID(feature *geojson.Feature, index int) string {
	if feature.ID != nil {
		return fmt.Sprint(feature.ID)
	}
	return "#" + strconv.Itoa(index)
}

func propertiesToTags(properties geojson.Properties) ownmap.TagMap {
	tags := make(ownmap.TagMap)
	for key, value := range properties {
		switch v := value.(type) {
		case nil:
			continue
		case string:
			tags[key] = v
		case float64:
			tags[key] = strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			if v {
				tags[key] = "yes"
			} else {
				tags[key] = "no"
			}
		default:
			tags[key] = fmt.Sprint(v)
		}
	}
	return tags
}
