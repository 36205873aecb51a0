package ownmappostgresql

import (
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/ownmap-styler/ownmapdal"
	"github.com/jamesrr39/ownmap-styler/ownmapdal/ownmapsqldb"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// NewDBConn connects to an osm2pgsql import. connStr is everything after "postgresql://", e.g. "user:pass@localhost/gis?sslmode=disable"
func NewDBConn(connStr string) (ownmapdal.DataSourceConn, errorsx.Error) {
	db, err := sqlx.Open("postgres", "postgresql://"+connStr)
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	return ownmapsqldb.NewOSM2PGSQLDB(db, "postgresql database", ownmapsqldb.DefaultTablePrefix, ownmapsqldb.DefaultSRID), nil
}
