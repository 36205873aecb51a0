package renderplan

import (
	"runtime"
	"sort"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/jamesrr39/ownmap-styler/ownmap"
	"github.com/jamesrr39/ownmap-styler/styling"
	"github.com/jamesrr39/semaphore"
	"github.com/paulmach/orb"
)

// z-index of a feature whose style does not set one. Fills go under lines, lines under points.
var defaultZIndexes = map[ownmap.GeometryType]int{
	ownmap.GeometryTypePolygon: 0,
	ownmap.GeometryTypeLine:    1,
	ownmap.GeometryTypePoint:   2,
}

func DefaultZIndex(geometryType ownmap.GeometryType) int {
	return defaultZIndexes[geometryType]
}

// DrawItem is one feature ready to be drawn. Geometry is in drawing-plane (pixel) coordinates.
type DrawItem struct {
	GeometryType  ownmap.GeometryType    `json:"geometryType"`
	Geometry      orb.Geometry           `json:"-"`
	Tags          ownmap.TagMap          `json:"tags"`
	Rule          *styling.Rule          `json:"-"`
	Style         *styling.ResolvedStyle `json:"style"`
	ZIndex        int                    `json:"zIndex"`
	FetchSequence int64                  `json:"fetchSequence"`
}

const scheduleChunkSize = 256

type scheduleResult struct {
	item       *DrawItem
	unresolved bool
}

// Schedule resolves the style of every feature and orders the drawable ones by (z-index, fetch sequence).
// Features with no rule are dropped and logged; features whose style is empty at the zoom level are dropped silently.
// Styles are resolved concurrently; the result does not depend on the order the workers finish in.
func Schedule(logger *logpkg.Logger, features []*ownmap.FetchedFeature, stylesheet *styling.Stylesheet, zoomLevelName string) ([]*DrawItem, errorsx.Error) {
	if !stylesheet.HasZoomLevel(zoomLevelName) {
		return nil, errorsx.Wrap(styling.ErrUnknownZoomLevel, "zoomLevel", zoomLevelName, "styleId", stylesheet.GetStyleID())
	}

	results := make([]scheduleResult, len(features))

	sema := semaphore.NewSemaphore(uint(runtime.NumCPU()))
	for start := 0; start < len(features); start += scheduleChunkSize {
		end := start + scheduleChunkSize
		if end > len(features) {
			end = len(features)
		}

		sema.Add()
		go func(start, end int) {
			defer sema.Done()
			for i := start; i < end; i++ {
				results[i] = scheduleFeature(features[i], stylesheet, zoomLevelName)
			}
		}(start, end)
	}
	sema.Wait()

	var items []*DrawItem
	for i, result := range results {
		if result.unresolved {
			feature := features[i]
			err := errorsx.Wrap(
				styling.ErrUnresolvedFeatureRule,
				"geometryType", feature.GeometryType.String(),
				"tagKey", feature.TagKey,
				"fetchSequence", feature.FetchSequence,
			)
			logger.Warn("dropping feature: %s", err.Error())
			continue
		}

		if result.item != nil {
			items = append(items, result.item)
		}
	}

	SortDrawItems(items)

	return items, nil
}

func scheduleFeature(feature *ownmap.FetchedFeature, stylesheet *styling.Stylesheet, zoomLevelName string) scheduleResult {
	rule, ok := stylesheet.FindRule(feature.GeometryType, feature.TagKey, feature.Tags, zoomLevelName)
	if !ok {
		return scheduleResult{unresolved: true}
	}

	style, err := stylesheet.ResolvedStyle(rule, zoomLevelName)
	if err != nil || style.IsEmpty() {
		// the stylesheet can have changed since the fetch was planned
		return scheduleResult{}
	}

	zIndex, ok := style.ZIndex()
	if !ok {
		zIndex = DefaultZIndex(feature.GeometryType)
	}

	return scheduleResult{
		item: &DrawItem{
			GeometryType:  feature.GeometryType,
			Geometry:      feature.Geometry,
			Tags:          feature.Tags,
			Rule:          rule,
			Style:         style,
			ZIndex:        zIndex,
			FetchSequence: feature.FetchSequence,
		},
	}
}

// SortDrawItems orders items by ascending z-index, ties broken by ascending fetch sequence
func SortDrawItems(items []*DrawItem) {
	sort.SliceStable(items, func(a, b int) bool {
		if items[a].ZIndex != items[b].ZIndex {
			return items[a].ZIndex < items[b].ZIndex
		}
		return items[a].FetchSequence < items[b].FetchSequence
	})
}
