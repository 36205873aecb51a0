package ownmapdal

import (
	"context"
	"sync"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/jamesrr39/ownmap-styler/ownmap"
	"github.com/paulmach/osm"
)

type DataSourceConn interface {
	// Info methods
	Name() string
	DatasetInfo() (*ownmap.DatasetInfo, errorsx.Error)

	// Data fetch methods

	// GetInBounds returns the features of one geometry type in the bounds that match any of the filters.
	// Features come back grouped by filter, in filter order, and every feature has TagKey set to the TagName of the filter that matched it.
	GetInBounds(ctx context.Context, bounds osm.Bounds, geometryType ownmap.GeometryType, filters []*ownmap.FeatureFilter) ([]*ownmap.FetchedFeature, errorsx.Error)
}

type DBConnSet struct {
	logger *logpkg.Logger
	conns  []DataSourceConn
	mu     *sync.RWMutex
}

func NewDBConnSet(logger *logpkg.Logger, conns []DataSourceConn) *DBConnSet {
	return &DBConnSet{logger, conns, new(sync.RWMutex)}
}

func (dbcs *DBConnSet) GetConns() []DataSourceConn {
	dbcs.mu.RLock()
	defer dbcs.mu.RUnlock()

	conns := make([]DataSourceConn, len(dbcs.conns))
	copy(conns, dbcs.conns)
	return conns
}

func (dbcs *DBConnSet) AddDBConn(conn DataSourceConn) {
	dbcs.mu.Lock()
	defer dbcs.mu.Unlock()
	dbcs.conns = append(dbcs.conns, conn)
}

type MatchLevel int

const (
	MatchLevelNone MatchLevel = iota
	MatchLevelPartial
	MatchLevelFull
)

func (ml MatchLevel) String() string {
	switch ml {
	case MatchLevelNone:
		return "none"
	case MatchLevelPartial:
		return "partial"
	case MatchLevelFull:
		return "full"
	default:
		return "unknown"
	}
}

type ChosenConnForBounds struct {
	MatchLevel MatchLevel
	DataSourceConn
}

func getMatchLevel(conn DataSourceConn, bounds osm.Bounds) (MatchLevel, errorsx.Error) {
	datasetInfo, err := conn.DatasetInfo()
	if err != nil {
		if errorsx.Cause(err) == ErrNoDataAvailable {
			return MatchLevelNone, nil
		}
		return 0, errorsx.Wrap(err)
	}

	dataSourceBounds := datasetInfo.Bounds

	atLeastPartialMatch := ownmap.Overlaps(dataSourceBounds, bounds)
	if !atLeastPartialMatch {
		return MatchLevelNone, nil
	}

	isFullMatch := ownmap.IsTotallyInside(dataSourceBounds, bounds)
	if isFullMatch {
		return MatchLevelFull, nil
	}

	return MatchLevelPartial, nil
}

// GetConnsForBounds selects the connections that have data for at least part of the bounds, in the order they were added
func (dbcs *DBConnSet) GetConnsForBounds(bounds osm.Bounds) ([]*ChosenConnForBounds, errorsx.Error) {
	var chosen []*ChosenConnForBounds

	for _, conn := range dbcs.GetConns() {
		matchLevel, err := getMatchLevel(conn, bounds)
		if err != nil {
			return nil, errorsx.Wrap(err, "dataSource", conn.Name())
		}

		dbcs.logger.Debug("matchlevel: %s, data source: %q", matchLevel, conn.Name())

		if matchLevel == MatchLevelNone {
			continue
		}

		chosen = append(chosen, &ChosenConnForBounds{
			DataSourceConn: conn,
			MatchLevel:     matchLevel,
		})
	}

	return chosen, nil
}
