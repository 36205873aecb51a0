package renderplan

import (
	"sort"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/ownmap-styler/ownmap"
	"github.com/jamesrr39/ownmap-styler/styling"
)

// PlanFilters gives, per geometry type, the filters a data store must be queried with to fetch
// every row that is styled at the zoom level, and nothing else.
//
// The values of one OR group with no extra conditions share one filter, placed where the first of them is declared.
// A rule with extra conditions gets a filter of its own. Filters are in declaration order.
// Rules that resolve to an empty style at the zoom level are left out.
func PlanFilters(stylesheet *styling.Stylesheet, zoomLevelName string) (map[ownmap.GeometryType][]*ownmap.FeatureFilter, errorsx.Error) {
	if !stylesheet.HasZoomLevel(zoomLevelName) {
		return nil, errorsx.Wrap(styling.ErrUnknownZoomLevel, "zoomLevel", zoomLevelName, "styleId", stylesheet.GetStyleID())
	}

	filtersByType := make(map[ownmap.GeometryType][]*ownmap.FeatureFilter)

	for _, geometryType := range ownmap.GeometryTypes {
		var filters []*ownmap.FeatureFilter

		// the plain filter of the OR group being read. Rules of one group are consecutive.
		var groupFilter *ownmap.FeatureFilter
		groupIndex := -1

		for _, rule := range stylesheet.RulesForGeometryType(geometryType) {
			if rule.GroupIndex != groupIndex {
				groupIndex = rule.GroupIndex
				groupFilter = nil
			}

			style, err := stylesheet.ResolvedStyle(rule, zoomLevelName)
			if err != nil {
				return nil, err
			}

			if style.IsEmpty() {
				continue
			}

			condition := rule.Condition

			if len(condition.Extra) == 0 {
				if groupFilter == nil {
					groupFilter = &ownmap.FeatureFilter{
						GeometryType: geometryType,
						TagName:      condition.TagName,
					}
					filters = append(filters, groupFilter)
				}

				if !containsString(groupFilter.AllowedValues, condition.TagValue) {
					groupFilter.AllowedValues = append(groupFilter.AllowedValues, condition.TagValue)
				}
				groupFilter.Columns = addColumns(groupFilter.Columns, style)
				continue
			}

			extra := make([]ownmap.TagPair, len(condition.Extra))
			copy(extra, condition.Extra)

			filters = append(filters, &ownmap.FeatureFilter{
				GeometryType:    geometryType,
				TagName:         condition.TagName,
				AllowedValues:   []string{condition.TagValue},
				ExtraConditions: extra,
				Columns:         addColumns(nil, style),
			})
		}

		if len(filters) != 0 {
			filtersByType[geometryType] = filters
		}
	}

	return filtersByType, nil
}

// addColumns adds the tag the style labels the feature with
func addColumns(columns []string, style *styling.ResolvedStyle) []string {
	column, ok := style.Text(styling.AttrText)
	if !ok || containsString(columns, column) {
		return columns
	}

	columns = append(columns, column)
	sort.Strings(columns)
	return columns
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
