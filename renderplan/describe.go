package renderplan

import (
	"fmt"
	"strings"

	"github.com/jamesrr39/ownmap-styler/ownmap"
)

// DescribeDrawPlan gives one line per item, in draw order
func DescribeDrawPlan(items []*DrawItem) string {
	lines := make([]string, len(items))
	for i, item := range items {
		ruleDescription := item.GeometryType.String()
		if item.Rule != nil {
			ruleDescription = item.Rule.String()
		}

		lines[i] = fmt.Sprintf("z=%d seq=%d %s {%s}", item.ZIndex, item.FetchSequence, ruleDescription, item.Style.String())
	}
	return strings.Join(lines, "\n")
}

// DescribeFilters gives one line per filter, geometry types in stylesheet order
func DescribeFilters(filtersByType map[ownmap.GeometryType][]*ownmap.FeatureFilter) string {
	var lines []string
	for _, geometryType := range ownmap.GeometryTypes {
		for _, filter := range filtersByType[geometryType] {
			line := fmt.Sprintf("%s %s IN (%s)", geometryType, filter.TagName, strings.Join(filter.AllowedValues, ", "))
			for _, extra := range filter.ExtraConditions {
				line += fmt.Sprintf(" AND %s=%s", extra.Key, extra.Value)
			}
			if len(filter.Columns) != 0 {
				line += fmt.Sprintf(" +columns(%s)", strings.Join(filter.Columns, ", "))
			}
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
