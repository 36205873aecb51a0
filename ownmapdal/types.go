package ownmapdal

import (
	"errors"
	"strings"

	"github.com/jamesrr39/goutil/errorsx"
)

var (
	ErrNoDataAvailable = errors.New("no data available")
)

type DBFileType string

const (
	DBFileTypePostgresql DBFileType = "postgresql"
	DBFileTypeGeoJSON    DBFileType = "geojson"
	DBFileTypePBF        DBFileType = "pbf"
)

type DBFileConnectionURL struct {
	Type           DBFileType
	ConnectionPath string
}

const ConnectionPathSeparator = "://"

func ParseDBConnFilePath(str string) (DBFileConnectionURL, errorsx.Error) {
	idx := strings.Index(str, ConnectionPathSeparator)
	if idx < 0 {
		return DBFileConnectionURL{}, errorsx.Errorf("couldn't find connection path separator %q in DB file path", ConnectionPathSeparator)
	}

	connURL := DBFileConnectionURL{
		Type:           DBFileType(str[:idx]),
		ConnectionPath: str[idx+len(ConnectionPathSeparator):],
	}

	if connURL.ConnectionPath == "" {
		return DBFileConnectionURL{}, errorsx.Errorf("empty connection path in DB file path %q", str)
	}

	return connURL, nil
}
