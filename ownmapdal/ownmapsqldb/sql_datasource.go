package ownmapsqldb

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/ownmap-styler/ownmap"
	"github.com/jamesrr39/ownmap-styler/ownmapdal"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/paulmach/orb/encoding/wkb"
	"github.com/paulmach/osm"
)

var _ ownmapdal.DataSourceConn = &OSM2PGSQLDB{}

const (
	DefaultTablePrefix = "planet_osm"
	// DefaultSRID is the SRID osm2pgsql imports into unless told otherwise (web mercator)
	DefaultSRID = 3857

	geometryColumn = "way"
	osmIDColumn    = "osm_id"
)

var tableSuffixes = map[ownmap.GeometryType]string{
	ownmap.GeometryTypePoint:   "_point",
	ownmap.GeometryTypeLine:    "_line",
	ownmap.GeometryTypePolygon: "_polygon",
}

// OSM2PGSQLDB reads features from a PostGIS database in the layout osm2pgsql imports into:
// one table per geometry type, one column per tag and the geometry in the "way" column
type OSM2PGSQLDB struct {
	name        string
	db          *sqlx.DB
	tablePrefix string
	srid        int

	datasetInfoMu sync.Mutex
	datasetInfo   *ownmap.DatasetInfo
}

func NewOSM2PGSQLDB(db *sqlx.DB, name, tablePrefix string, srid int) *OSM2PGSQLDB {
	return &OSM2PGSQLDB{
		name:        name,
		db:          db,
		tablePrefix: tablePrefix,
		srid:        srid,
	}
}

func (db *OSM2PGSQLDB) Name() string {
	return db.name
}

func (db *OSM2PGSQLDB) tableName(geometryType ownmap.GeometryType) (string, errorsx.Error) {
	suffix, ok := tableSuffixes[geometryType]
	if !ok {
		return "", errorsx.Errorf("no table for geometry type %s", geometryType)
	}
	return db.tablePrefix + suffix, nil
}

type extentRow struct {
	MinLon sql.NullFloat64 `db:"min_lon"`
	MinLat sql.NullFloat64 `db:"min_lat"`
	MaxLon sql.NullFloat64 `db:"max_lon"`
	MaxLat sql.NullFloat64 `db:"max_lat"`
}

// DatasetInfo is computed from the extent of all the tables the first time it is asked for
func (db *OSM2PGSQLDB) DatasetInfo() (*ownmap.DatasetInfo, errorsx.Error) {
	db.datasetInfoMu.Lock()
	defer db.datasetInfoMu.Unlock()

	if db.datasetInfo != nil {
		return db.datasetInfo, nil
	}

	var unionParts []string
	for _, geometryType := range ownmap.GeometryTypes {
		tableName, err := db.tableName(geometryType)
		if err != nil {
			return nil, err
		}
		unionParts = append(unionParts, fmt.Sprintf("SELECT %s FROM %s", geometryColumn, pq.QuoteIdentifier(tableName)))
	}

	query := fmt.Sprintf(`
		SELECT
			ST_XMin(extent) AS min_lon,
			ST_YMin(extent) AS min_lat,
			ST_XMax(extent) AS max_lon,
			ST_YMax(extent) AS max_lat
		FROM (
			SELECT ST_Transform(ST_SetSRID(ST_Extent(%s)::geometry, $1::integer), 4326) AS extent
			FROM (%s) ways
		) e`, geometryColumn, strings.Join(unionParts, " UNION ALL "))

	var row extentRow
	err := db.db.Get(&row, query, db.srid)
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	if !row.MinLon.Valid || !row.MinLat.Valid || !row.MaxLon.Valid || !row.MaxLat.Valid {
		return nil, errorsx.Wrap(ownmapdal.ErrNoDataAvailable, "dataSource", db.name)
	}

	db.datasetInfo = &ownmap.DatasetInfo{
		Name: db.name,
		Bounds: osm.Bounds{
			MinLat: row.MinLat.Float64,
			MaxLat: row.MaxLat.Float64,
			MinLon: row.MinLon.Float64,
			MaxLon: row.MaxLon.Float64,
		},
	}

	return db.datasetInfo, nil
}

func (db *OSM2PGSQLDB) GetInBounds(ctx context.Context, bounds osm.Bounds, geometryType ownmap.GeometryType, filters []*ownmap.FeatureFilter) ([]*ownmap.FetchedFeature, errorsx.Error) {
	tableName, err := db.tableName(geometryType)
	if err != nil {
		return nil, err
	}

	tx, txErr := db.db.BeginTxx(ctx, &sql.TxOptions{ReadOnly: true})
	if txErr != nil {
		return nil, errorsx.Wrap(txErr)
	}
	defer tx.Rollback()

	var features []*ownmap.FetchedFeature
	for _, filter := range filters {
		query := buildGetInBoundsQuery(tableName, db.srid, bounds, filter)

		filterFeatures, err := queryFeatures(ctx, tx, query, geometryType, filter.TagName)
		if err != nil {
			return nil, errorsx.Wrap(err, "table", tableName, "tagName", filter.TagName)
		}

		features = append(features, filterFeatures...)
	}

	return features, nil
}

type getInBoundsQuery struct {
	SQL        string
	Args       []interface{}
	TagColumns []string
}

// buildGetInBoundsQuery gives the query for the rows of one filter inside the bounds.
// The rows carry the osm id, the geometry as WKB in lon/lat and then one column per entry of TagColumns.
func buildGetInBoundsQuery(tableName string, srid int, bounds osm.Bounds, filter *ownmap.FeatureFilter) getInBoundsQuery {
	tagColumns := []string{filter.TagName}
	for _, extra := range filter.ExtraConditions {
		tagColumns = appendIfMissing(tagColumns, extra.Key)
	}
	for _, column := range filter.Columns {
		tagColumns = appendIfMissing(tagColumns, column)
	}

	selectColumns := []string{
		pq.QuoteIdentifier(osmIDColumn),
		fmt.Sprintf("ST_AsBinary(ST_Transform(%s, 4326))", pq.QuoteIdentifier(geometryColumn)),
	}
	for _, column := range tagColumns {
		selectColumns = append(selectColumns, pq.QuoteIdentifier(column))
	}

	args := []interface{}{bounds.MinLon, bounds.MinLat, bounds.MaxLon, bounds.MaxLat, srid, pq.Array(filter.AllowedValues)}

	whereClauseLines := []string{
		fmt.Sprintf("%s && ST_Transform(ST_MakeEnvelope($1, $2, $3, $4, 4326), $5::integer)", pq.QuoteIdentifier(geometryColumn)),
		fmt.Sprintf("%s = ANY($6)", pq.QuoteIdentifier(filter.TagName)),
	}
	for _, extra := range filter.ExtraConditions {
		args = append(args, extra.Value)
		whereClauseLines = append(whereClauseLines, fmt.Sprintf("%s = $%d", pq.QuoteIdentifier(extra.Key), len(args)))
	}

	query := fmt.Sprintf(
		"SELECT %s\nFROM %s\nWHERE %s\nORDER BY %s",
		strings.Join(selectColumns, ", "),
		pq.QuoteIdentifier(tableName),
		strings.Join(whereClauseLines, "\nAND "),
		pq.QuoteIdentifier(osmIDColumn),
	)

	return getInBoundsQuery{
		SQL:        query,
		Args:       args,
		TagColumns: tagColumns,
	}
}

func appendIfMissing(list []string, s string) []string {
	for _, item := range list {
		if item == s {
			return list
		}
	}
	return append(list, s)
}

func queryFeatures(ctx context.Context, tx *sqlx.Tx, query getInBoundsQuery, geometryType ownmap.GeometryType, tagKey string) ([]*ownmap.FetchedFeature, errorsx.Error) {
	rows, err := tx.QueryxContext(ctx, query.SQL, query.Args...)
	if err != nil {
		return nil, errorsx.Wrap(err)
	}
	defer rows.Close()

	var features []*ownmap.FetchedFeature
	for rows.Next() {
		var osmID int64
		var wkbBytes []byte
		tagValues := make([]sql.NullString, len(query.TagColumns))

		dest := []interface{}{&osmID, &wkbBytes}
		for i := range tagValues {
			dest = append(dest, &tagValues[i])
		}

		err = rows.Scan(dest...)
		if err != nil {
			return nil, errorsx.Wrap(err)
		}

		feature, err := rowToFeature(osmID, geometryType, tagKey, wkbBytes, query.TagColumns, tagValues)
		if err != nil {
			return nil, errorsx.Wrap(err, "osmId", osmID)
		}

		features = append(features, feature)
	}

	err = rows.Err()
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	return features, nil
}

func rowToFeature(osmID int64, geometryType ownmap.GeometryType, tagKey string, wkbBytes []byte, tagColumns []string, tagValues []sql.NullString) (*ownmap.FetchedFeature, errorsx.Error) {
	geometry, err := wkb.Unmarshal(wkbBytes)
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	tags := make(ownmap.TagMap)
	for i, column := range tagColumns {
		if tagValues[i].Valid {
			tags[column] = tagValues[i].String
		}
	}

	return &ownmap.FetchedFeature{
		ID:           strconv.FormatInt(osmID, 10),
		GeometryType: geometryType,
		Geometry:     geometry,
		Tags:         tags,
		TagKey:       tagKey,
	}, nil
}
