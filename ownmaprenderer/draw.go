package ownmaprenderer

import (
	"context"
	"image"
	"image/color"
	"image/draw"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/jamesrr39/ownmap-styler/ownmap"
	"github.com/jamesrr39/ownmap-styler/renderplan"
	"github.com/jamesrr39/ownmap-styler/styling"
	"github.com/llgcode/draw2d"
	"github.com/llgcode/draw2d/draw2dimg"
	"github.com/llgcode/draw2d/draw2dkit"
)

const (
	defaultLineWidth   = 1.0
	defaultImageMargin = 4.0
)

var (
	transparent = styling.ColorValue{}
	opaqueBlack = styling.ColorValue{A: 1}
)

type stroke struct {
	width    float64
	color    styling.ColorValue
	lineCap  draw2d.LineCap
	lineJoin draw2d.LineJoin
	dash     []float64
}

func (s stroke) isVisible() bool {
	return s.width > 0 && !s.color.IsTransparent()
}

func (s stroke) apply(gc draw2d.GraphicContext) {
	gc.SetStrokeColor(s.color.ToColor())
	gc.SetLineWidth(s.width)
	gc.SetLineCap(s.lineCap)
	gc.SetLineJoin(s.lineJoin)
	gc.SetLineDash(s.dash, 0)
}

// attributeKey gives the key of one stroke attribute, e.g. ("border", "-color") => "border-color", ("", "-color") => "color"
func attributeKey(prefix, suffix string) string {
	if prefix == "" {
		return suffix[1:]
	}
	return prefix + suffix
}

func strokeFromStyle(style *styling.ResolvedStyle, prefix string, width float64, defaultColor styling.ColorValue) stroke {
	return stroke{
		width:    width,
		color:    style.Color(attributeKey(prefix, styling.AttrSuffixColor), defaultColor),
		lineCap:  lineCap(style.Enum(attributeKey(prefix, styling.AttrSuffixLineCap), "round")),
		lineJoin: lineJoin(style.Enum(attributeKey(prefix, styling.AttrSuffixLineJoin), "round")),
		dash:     style.Dash(attributeKey(prefix, styling.AttrSuffixLineDash)),
	}
}

func lineCap(name string) draw2d.LineCap {
	switch name {
	case "butt":
		return draw2d.ButtCap
	case "square":
		return draw2d.SquareCap
	default:
		return draw2d.RoundCap
	}
}

func lineJoin(name string) draw2d.LineJoin {
	switch name {
	case "miter":
		return draw2d.MiterJoin
	case "bevel":
		return draw2d.BevelJoin
	default:
		return draw2d.RoundJoin
	}
}

type mapDrawer struct {
	logger     *logpkg.Logger
	img        *image.RGBA
	gc         *draw2dimg.GraphicContext
	stylesheet *styling.Stylesheet
	images     *imageCache
	labels     []*label
}

// Draw draws the items, already in pixel coordinates and in draw order, over the map background.
// Labels and icons are drawn last, highest z-index first, and are left out where they would overlap one already drawn.
func (rr *RasterRenderer) Draw(ctx context.Context, size image.Rectangle, stylesheet *styling.Stylesheet, items []*renderplan.DrawItem) (*image.RGBA, errorsx.Error) {
	span := startSpan(ctx, "draw")
	defer endSpan(ctx, span)

	useEmbeddedFonts()

	img := NewImageWithBackground(size, stylesheet.MapBackground().ToColor())

	gc := draw2dimg.NewGraphicContext(img)
	gc.SetDPI(72)

	drawer := &mapDrawer{
		logger:     rr.logger,
		img:        img,
		gc:         gc,
		stylesheet: stylesheet,
		images:     rr.images,
	}

	for i := 0; i < len(items); {
		item := items[i]

		switch item.GeometryType {
		case ownmap.GeometryTypeLine:
			// lines sharing a z-index are drawn outlines first, then borders, then the lines themselves, so crossing roads join up
			end := i + 1
			for end < len(items) && items[end].GeometryType == ownmap.GeometryTypeLine && items[end].ZIndex == item.ZIndex {
				end++
			}
			drawer.drawLines(items[i:end])
			for _, lineItem := range items[i:end] {
				drawer.addLabel(lineItem)
			}
			i = end
			continue
		case ownmap.GeometryTypePolygon:
			drawer.drawPolygon(item)
		case ownmap.GeometryTypePoint:
			drawer.drawPoint(item)
		}

		drawer.addLabel(item)
		i++
	}

	placed := drawer.drawLabels()

	rr.logger.Debug("drew %d items and %d of %d labels", len(items), placed, len(drawer.labels))

	return img, nil
}

func (d *mapDrawer) strokeLineStrings(item *renderplan.DrawItem, s stroke) {
	if !s.isVisible() {
		return
	}

	d.gc.Save()
	defer d.gc.Restore()

	s.apply(d.gc)
	d.gc.BeginPath()
	for _, lineString := range lineStringsOf(item.Geometry) {
		addLineStringPath(d.gc, lineString)
	}
	d.gc.Stroke()
}

func (d *mapDrawer) drawLines(items []*renderplan.DrawItem) {
	type lineWidths struct {
		core, border, outline float64
	}

	widths := make([]lineWidths, len(items))
	for i, item := range items {
		widths[i] = lineWidths{
			core:    item.Style.Scalar(styling.AttrWidth, defaultLineWidth),
			border:  item.Style.Scalar(styling.AttrBorderPrefix+styling.AttrSuffixWidth, 0),
			outline: item.Style.Scalar(styling.AttrOutlinePrefix+styling.AttrSuffixWidth, 0),
		}
	}

	for i, item := range items {
		if !item.Style.Has(styling.AttrOutlinePrefix + styling.AttrSuffixWidth) {
			continue
		}
		w := widths[i]
		d.strokeLineStrings(item, strokeFromStyle(item.Style, styling.AttrOutlinePrefix, w.core+2*w.border+2*w.outline, transparent))
	}

	for i, item := range items {
		if !item.Style.Has(styling.AttrBorderPrefix + styling.AttrSuffixWidth) {
			continue
		}
		w := widths[i]
		d.strokeLineStrings(item, strokeFromStyle(item.Style, styling.AttrBorderPrefix, w.core+2*w.border, transparent))
	}

	for i, item := range items {
		d.strokeLineStrings(item, strokeFromStyle(item.Style, "", widths[i].core, opaqueBlack))
	}
}

func (d *mapDrawer) drawPolygon(item *renderplan.DrawItem) {
	polygons := polygonsOf(item.Geometry)
	if len(polygons) == 0 {
		return
	}

	fillColor := item.Style.Color(styling.AttrBackgroundColor, transparent)
	if !fillColor.IsTransparent() {
		d.gc.Save()
		d.gc.SetFillRule(draw2d.FillRuleEvenOdd)
		d.gc.SetFillColor(fillColor.ToColor())
		d.gc.BeginPath()
		addPolygonPath(d.gc, polygons)
		d.gc.Fill()
		d.gc.Restore()
	}

	backgroundImagePath, ok := item.Style.Text(styling.AttrBackgroundImage)
	if ok {
		err := d.fillWithImage(backgroundImagePath, func(path draw2d.PathBuilder) {
			addPolygonPath(path, polygons)
		})
		if err != nil {
			d.logger.Warn("not filling polygon with image: %s", err.Error())
		}
	}

	border := strokeFromStyle(item.Style, styling.AttrBorderPrefix, item.Style.Scalar(styling.AttrBorderPrefix+styling.AttrSuffixWidth, 0), transparent)
	if border.isVisible() {
		d.gc.Save()
		border.apply(d.gc)
		d.gc.BeginPath()
		addPolygonPath(d.gc, polygons)
		d.gc.Stroke()
		d.gc.Restore()
	}
}

func (d *mapDrawer) drawPoint(item *renderplan.DrawItem) {
	radius := item.Style.Scalar(styling.AttrCircleRadius, 0)
	if radius <= 0 {
		return
	}

	points := pointsOf(item.Geometry)

	circlePath := func(path draw2d.PathBuilder) {
		for _, point := range points {
			draw2dkit.Circle(path, point.X(), point.Y(), radius)
		}
	}

	fillColor := item.Style.Color(styling.AttrCircleBgColor, transparent)
	if !fillColor.IsTransparent() {
		d.gc.Save()
		d.gc.SetFillColor(fillColor.ToColor())
		d.gc.BeginPath()
		circlePath(d.gc)
		d.gc.Fill()
		d.gc.Restore()
	}

	backgroundImagePath, ok := item.Style.Text(styling.AttrCircleBgImage)
	if ok {
		err := d.fillWithImage(backgroundImagePath, circlePath)
		if err != nil {
			d.logger.Warn("not filling circle with image: %s", err.Error())
		}
	}

	border := strokeFromStyle(item.Style, styling.AttrBorderPrefix, item.Style.Scalar(styling.AttrBorderPrefix+styling.AttrSuffixWidth, 0), transparent)
	if border.isVisible() {
		d.gc.Save()
		border.apply(d.gc)
		d.gc.BeginPath()
		circlePath(d.gc)
		d.gc.Stroke()
		d.gc.Restore()
	}
}

// fillWithImage tiles the image over the area the path encloses
func (d *mapDrawer) fillWithImage(imagePath string, buildPath func(path draw2d.PathBuilder)) errorsx.Error {
	pattern, err := d.images.Get(d.stylesheet.BaseDir(), imagePath)
	if err != nil {
		return err
	}

	bounds := d.img.Bounds()

	mask := image.NewRGBA(bounds)
	maskGC := draw2dimg.NewGraphicContext(mask)
	maskGC.SetFillRule(draw2d.FillRuleEvenOdd)
	maskGC.SetFillColor(color.Opaque)
	maskGC.BeginPath()
	buildPath(maskGC)
	maskGC.Fill()

	draw.DrawMask(d.img, bounds, tileImage(bounds, pattern), bounds.Min, mask, bounds.Min, draw.Over)

	return nil
}
