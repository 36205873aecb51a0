package styling

import (
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/ownmap-styler/ownmap"
)

const (
	zindexForest      = 1
	zindexResidential = 2
	zindexRailway     = 3
	zindexHighway     = 4
	zindexPlace       = 5
)

func rgb(r, g, b uint8) ColorValue {
	return ColorValue{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255, A: 1}
}

var (
	forestColor      = rgb(172, 200, 160)
	residentialColor = rgb(223, 223, 223)
	railwayColor     = rgb(190, 190, 190)
	pathColor        = rgb(0, 0xff, 0)
	minorRoadColor   = rgb(0xbc, 0xac, 0xa5)
)

type builtinRule struct {
	geometryType ownmap.GeometryType
	tagName      string
	selector     string
	overlays     []builtinOverlay
}

type builtinOverlay struct {
	zoom       string
	attributes AttributeMap
}

func highwayRule(selector string, c ColorValue, nearWidth float64, extra AttributeMap) builtinRule {
	all := AttributeMap{
		AttrColor:  c,
		AttrZIndex: IntegerValue(zindexHighway),
	}
	for key, value := range extra {
		all[key] = value
	}

	return builtinRule{ownmap.GeometryTypeLine, "highway", selector, []builtinOverlay{
		{"all", all},
		{"near", AttributeMap{AttrWidth: ScalarValue(nearWidth)}},
		{"mid", AttributeMap{AttrWidth: ScalarValue(nearWidth / 2)}},
	}}
}

var builtinRules = []builtinRule{
	{ownmap.GeometryTypePolygon, "natural", "wood", []builtinOverlay{
		{"all", AttributeMap{AttrBackgroundColor: forestColor, AttrZIndex: IntegerValue(zindexForest)}},
	}},
	{ownmap.GeometryTypePolygon, "landuse", "forest", []builtinOverlay{
		{"all", AttributeMap{AttrBackgroundColor: forestColor, AttrZIndex: IntegerValue(zindexForest)}},
	}},
	{ownmap.GeometryTypePolygon, "landuse", "residential", []builtinOverlay{
		{"near-mid", AttributeMap{AttrBackgroundColor: residentialColor, AttrZIndex: IntegerValue(zindexResidential)}},
	}},
	{ownmap.GeometryTypeLine, "railway", "rail", []builtinOverlay{
		{"all", AttributeMap{AttrColor: railwayColor, AttrWidth: ScalarValue(3), AttrZIndex: IntegerValue(zindexRailway)}},
	}},
	highwayRule("motorway", rgb(0xf3, 0x8d, 0x9e), 8, nil),
	highwayRule("trunk", rgb(0xff, 0xae, 0x9b), 7, nil),
	highwayRule("primary, primary_link", rgb(0xff, 0xd4, 0xa5), 6, nil),
	highwayRule("secondary", rgb(0xf6, 0xf9, 0xbf), 5, nil),
	highwayRule("tertiary", rgb(0xf3, 0x8d, 0x9e), 4, nil),
	highwayRule("unclassified, residential, service, track", minorRoadColor, 3, nil),
	highwayRule("footway, path, steps", pathColor, 1, AttributeMap{AttrLineDash: NewDashValue(1, 2, 3)}),
	highwayRule("bridleway, cycleway", pathColor, 1, AttributeMap{AttrLineDash: NewDashValue(20, 5)}),
	{ownmap.GeometryTypePoint, "place", "city, town, village", []builtinOverlay{
		{"all", AttributeMap{
			AttrText:      TextValue("name"),
			AttrFontSize:  ScalarValue(16),
			AttrTextColor: ColorValue{A: 1},
			AttrZIndex:    IntegerValue(zindexPlace),
		}},
		{"far", AttributeMap{AttrFontSize: ScalarValue(12)}},
	}},
}

// NewBuiltinStylesheet returns the stylesheet used when no stylesheet file is configured
func NewBuiltinStylesheet() (*Stylesheet, errorsx.Error) {
	zoomRegistry, err := NewZoomRegistry([]*ZoomLevel{
		{Name: "near", MinScale: 0, MaxScale: 5},
		{Name: "mid", MinScale: 5, MaxScale: 50},
		{Name: "far", MinScale: 50, MaxScale: 100000},
	})
	if err != nil {
		return nil, err
	}

	builder := NewStylesheetBuilder(BuiltinStyleID, zoomRegistry)

	for _, r := range builtinRules {
		var overlays []*ZoomOverlay
		for _, o := range r.overlays {
			overlay, err := builder.NewOverlay(o.zoom, o.attributes)
			if err != nil {
				return nil, err
			}
			overlays = append(overlays, overlay)
		}

		err = builder.AddRules(r.geometryType, r.tagName, r.selector, overlays)
		if err != nil {
			return nil, errorsx.Wrap(err, "tagName", r.tagName, "selector", r.selector)
		}
	}

	return builder.Build()
}
