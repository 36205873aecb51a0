package ownmaprenderer

import (
	"context"
	"fmt"
	"image"
	"image/color"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"github.com/jamesrr39/go-tracing"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/gofs"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/jamesrr39/ownmap-styler/fonts"
	"github.com/jamesrr39/ownmap-styler/ownmap"
	"github.com/jamesrr39/ownmap-styler/ownmapdal"
	"github.com/jamesrr39/ownmap-styler/projection"
	"github.com/jamesrr39/ownmap-styler/renderplan"
	"github.com/jamesrr39/ownmap-styler/styling"
)

const noDataText = "(no data found)"

type RasterRenderer struct {
	logger *logpkg.Logger
	font   *truetype.Font
	images *imageCache
}

// NewRasterRenderer creates a renderer. Images named by stylesheets are read from fs.
func NewRasterRenderer(logger *logpkg.Logger, fs gofs.Fs) *RasterRenderer {
	return &RasterRenderer{
		logger: logger,
		font:   fonts.DefaultFont(),
		images: newImageCache(fs),
	}
}

func (rr *RasterRenderer) RenderTextTile(size image.Rectangle, text string) (image.Image, errorsx.Error) {
	img := image.NewRGBA(size)
	x := size.Max.X / 2
	y := size.Max.Y / 2

	ctx := freetype.NewContext()
	ctx.SetDPI(72)
	ctx.SetFont(rr.font)
	ctx.SetFontSize(16.0)
	ctx.SetClip(img.Bounds())
	ctx.SetDst(img)
	ctx.SetSrc(image.NewUniform(color.Black))

	_, err := ctx.DrawString(text, freetype.Pt(x, y))
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	return img, nil
}

// RenderPlan is everything decided about a map before it is drawn
type RenderPlan struct {
	ZoomLevel   styling.ZoomLevel                               `json:"zoomLevel"`
	Filters     map[ownmap.GeometryType][]*ownmap.FeatureFilter `json:"filters"`
	DataSources []string                                        `json:"dataSources"`
	DrawItems   []*renderplan.DrawItem                          `json:"drawItems"`
}

// PlanRender picks the zoom level for the viewport, fetches what the stylesheet styles at that level
// from the data sources covering the viewport and orders it for drawing.
// With no data source covering the viewport, the plan has no data sources and no items.
func PlanRender(
	ctx context.Context,
	logger *logpkg.Logger,
	dbConnSet *ownmapdal.DBConnSet,
	viewport *projection.Viewport,
	stylesheet *styling.Stylesheet,
	scalePolicy styling.ScalePolicy,
) (*RenderPlan, errorsx.Error) {
	zoomLevel, err := stylesheet.ZoomRegistry().ResolveZoomLevelWithPolicy(viewport.Scale(), scalePolicy)
	if err != nil {
		return nil, errorsx.Wrap(err, "styleId", stylesheet.GetStyleID())
	}

	filters, err := renderplan.PlanFilters(stylesheet, zoomLevel.Name)
	if err != nil {
		return nil, err
	}

	plan := &RenderPlan{
		ZoomLevel: zoomLevel,
		Filters:   filters,
	}

	fetchBounds := viewport.FetchBounds()

	dbConnsSpan := startSpan(ctx, "get dbConns")
	chosenConns, err := dbConnSet.GetConnsForBounds(fetchBounds)
	endSpan(ctx, dbConnsSpan)
	if err != nil {
		return nil, err
	}

	if len(chosenConns) == 0 {
		return plan, nil
	}

	var conns []ownmapdal.DataSourceConn
	for _, chosenConn := range chosenConns {
		conns = append(conns, chosenConn.DataSourceConn)
		plan.DataSources = append(plan.DataSources, chosenConn.Name())
	}

	getDataSpan := startSpan(ctx, "get data")
	features, err := ownmapdal.FetchFeatures(ctx, logger, conns, fetchBounds, filters)
	endSpan(ctx, getDataSpan)
	if err != nil {
		return nil, err
	}

	logger.Info("fetched %d features from %d data sources at zoom level %q", len(features), len(conns), zoomLevel.Name)

	for _, feature := range features {
		feature.Geometry = viewport.ProjectGeometry(feature.Geometry)
	}

	scheduleSpan := startSpan(ctx, "schedule")
	plan.DrawItems, err = renderplan.Schedule(logger, features, stylesheet, zoomLevel.Name)
	endSpan(ctx, scheduleSpan)
	if err != nil {
		return nil, err
	}

	return plan, nil
}

func (rr *RasterRenderer) RenderRaster(
	ctx context.Context,
	dbConnSet *ownmapdal.DBConnSet,
	viewport *projection.Viewport,
	stylesheet *styling.Stylesheet,
	scalePolicy styling.ScalePolicy,
) (image.Image, errorsx.Error) {
	plan, err := PlanRender(ctx, rr.logger, dbConnSet, viewport, stylesheet, scalePolicy)
	if err != nil {
		return nil, err
	}

	if len(plan.DataSources) == 0 {
		return rr.RenderTextTile(viewport.Rect(), noDataText)
	}

	img, err := rr.Draw(ctx, viewport.Rect(), stylesheet, plan.DrawItems)
	if err != nil {
		return nil, err
	}

	return img, nil
}

// startSpan starts a tracing span if the context carries a trace, and returns nil otherwise
func startSpan(ctx context.Context, name string) *tracing.Span {
	if ctx.Value(tracing.TraceCtxKey) == nil || ctx.Value(tracing.TracerCtxKey) == nil {
		return nil
	}

	return tracing.StartSpan(ctx, name)
}

func endSpan(ctx context.Context, span *tracing.Span) {
	if span == nil {
		return
	}

	span.End(ctx)
}

func (rp *RenderPlan) String() string {
	return fmt.Sprintf(
		"zoom level: %s\ndata sources: %v\n\nfilters:\n%s\n\ndraw plan:\n%s",
		rp.ZoomLevel.Name,
		rp.DataSources,
		renderplan.DescribeFilters(rp.Filters),
		renderplan.DescribeDrawPlan(rp.DrawItems),
	)
}
