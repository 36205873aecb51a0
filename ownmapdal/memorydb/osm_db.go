package memorydb

import (
	"fmt"
	"path/filepath"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/gofs"
	"github.com/jamesrr39/goutil/humanise"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/jamesrr39/ownmap-styler/ownmap"
	"github.com/jamesrr39/ownmap-styler/ownmapdal"
	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
)

// tag keys that make a closed way an area rather than a loop of line
var areaTagKeys = map[string]bool{
	"building": true,
	"landuse":  true,
	"leisure":  true,
	"amenity":  true,
	"water":    true,
	"place":    true,
	"aeroway":  true,
}

// natural=* values that are lines even when closed
var linearNaturalValues = map[string]bool{
	"coastline": true,
	"cliff":     true,
	"ridge":     true,
	"tree_row":  true,
}

func isArea(tags ownmap.TagMap) bool {
	switch tags["area"] {
	case "yes":
		return true
	case "no":
		return false
	}

	for key := range tags {
		if areaTagKeys[key] {
			return true
		}
	}

	natural, ok := tags["natural"]
	if ok && !linearNaturalValues[natural] {
		return true
	}

	return tags["waterway"] == "riverbank"
}

// LoadPBFFile reads an OSM PBF extract into memory. It keeps every node location while reading,
// so it is meant for city or region sized extracts.
func LoadPBFFile(logger *logpkg.Logger, fs gofs.Fs, path string) (*MemoryDB, errorsx.Error) {
	file, err := fs.Open(path)
	if err != nil {
		return nil, errorsx.Wrap(err, "path", path)
	}

	pbfReader, err := ownmapdal.NewDefaultPBFReader(file)
	if err != nil {
		file.Close()
		return nil, errorsx.Wrap(err, "path", path)
	}
	defer pbfReader.Close()

	db, err := NewOSMDB(filepath.Base(path), pbfReader)
	if err != nil {
		return nil, errorsx.Wrap(err, "path", path)
	}

	logger.Info("loaded %q (%s)", path, humanise.HumaniseBytes(pbfReader.TotalSize()))

	return db, nil
}

// NewOSMDB builds features from OSM objects: tagged nodes become points, ways become lines,
// or polygons when closed and tagged as an area. Relations are skipped.
// Ways must come after the nodes they use, as they do in PBF files.
func NewOSMDB(name string, scanner ownmapdal.OSMObjectScanner) (*MemoryDB, errorsx.Error) {
	nodeLocations := make(map[osm.NodeID]orb.Point)
	var features []*sourceFeature

	for scanner.Scan() {
		switch object := scanner.Object().(type) {
		case *osm.Node:
			point := orb.Point{object.Lon, object.Lat}
			nodeLocations[object.ID] = point

			if len(object.Tags) == 0 {
				continue
			}

			features = append(features, &sourceFeature{
				id:       fmt.Sprintf("node/%d", object.ID),
				geometry: point,
				tags:     ownmap.TagMap(object.Tags.Map()),
			})
		case *osm.Way:
			if len(object.Tags) == 0 {
				continue
			}

			geometry := wayGeometry(object, nodeLocations)
			if geometry == nil {
				continue
			}

			features = append(features, &sourceFeature{
				id:       fmt.Sprintf("way/%d", object.ID),
				geometry: geometry,
				tags:     ownmap.TagMap(object.Tags.Map()),
			})
		}
	}

	err := scanner.Err()
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	return newMemoryDB(name, features), nil
}

// wayGeometry gives the line or area of a way, leaving out nodes that were not in the file
func wayGeometry(way *osm.Way, nodeLocations map[osm.NodeID]orb.Point) orb.Geometry {
	lineString := make(orb.LineString, 0, len(way.Nodes))
	for _, wayNode := range way.Nodes {
		point, ok := nodeLocations[wayNode.ID]
		if !ok {
			continue
		}
		lineString = append(lineString, point)
	}

	if len(lineString) < 2 {
		return nil
	}

	isClosed := len(way.Nodes) >= 4 && way.Nodes[0].ID == way.Nodes[len(way.Nodes)-1].ID
	if isClosed && len(lineString) == len(way.Nodes) && isArea(ownmap.TagMap(way.Tags.Map())) {
		return orb.Polygon{orb.Ring(lineString)}
	}

	return lineString
}
