package ownmapdal

import (
	"context"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/jamesrr39/ownmap-styler/ownmap"
	"github.com/jamesrr39/semaphore"
	"github.com/paulmach/osm"
)

const maxConcurrentFetches = 4

type fetchJob struct {
	conn         DataSourceConn
	geometryType ownmap.GeometryType
	filters      []*ownmap.FeatureFilter
}

type fetchResult struct {
	features []*ownmap.FetchedFeature
	err      errorsx.Error
}

// FetchFeatures queries every connection for every geometry type that has filters, concurrently.
// The features are returned ordered by connection, then geometry type, then the order the connection returned them in,
// and are given ascending fetch sequence numbers in that order, however the queries interleave.
func FetchFeatures(
	ctx context.Context,
	logger *logpkg.Logger,
	conns []DataSourceConn,
	bounds osm.Bounds,
	filtersByType map[ownmap.GeometryType][]*ownmap.FeatureFilter,
) ([]*ownmap.FetchedFeature, errorsx.Error) {
	var jobs []fetchJob
	for _, conn := range conns {
		for _, geometryType := range ownmap.GeometryTypes {
			filters := filtersByType[geometryType]
			if len(filters) == 0 {
				continue
			}

			jobs = append(jobs, fetchJob{conn, geometryType, filters})
		}
	}

	results := make([]fetchResult, len(jobs))

	sema := semaphore.NewSemaphore(maxConcurrentFetches)
	for i, job := range jobs {
		sema.Add()
		go func(i int, job fetchJob) {
			defer sema.Done()

			if ctx.Err() != nil {
				results[i] = fetchResult{err: errorsx.Wrap(ctx.Err())}
				return
			}

			features, err := job.conn.GetInBounds(ctx, bounds, job.geometryType, job.filters)
			results[i] = fetchResult{features, err}
		}(i, job)
	}
	sema.Wait()

	var features []*ownmap.FetchedFeature
	for i, result := range results {
		job := jobs[i]
		if result.err != nil {
			if errorsx.Cause(result.err) == ErrNoDataAvailable {
				logger.Debug("datasource: %q. no %s data found", job.conn.Name(), job.geometryType)
				continue
			}

			return nil, errorsx.Wrap(result.err, "dataSource", job.conn.Name(), "geometryType", job.geometryType.String())
		}

		logger.Debug("datasource: %q. fetched %d %s features", job.conn.Name(), len(result.features), job.geometryType)

		seen := make(map[string]bool)
		for _, feature := range result.features {
			if feature.ID != "" {
				// one row can match more than one filter with the same tag name
				key := feature.ID + "\x00" + feature.TagKey
				if seen[key] {
					continue
				}
				seen[key] = true
			}

			feature.FetchSequence = int64(len(features))
			features = append(features, feature)
		}
	}

	return features, nil
}
