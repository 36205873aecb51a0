package maprenderer

import (
	"context"
	"image"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/ownmap-styler/ownmapdal"
	"github.com/jamesrr39/ownmap-styler/projection"
	"github.com/jamesrr39/ownmap-styler/styling"
)

type MapRenderer interface {
	RenderRaster(ctx context.Context, dbConnSet *ownmapdal.DBConnSet, viewport *projection.Viewport, stylesheet *styling.Stylesheet, scalePolicy styling.ScalePolicy) (image.Image, errorsx.Error)
	RenderTextTile(size image.Rectangle, text string) (image.Image, errorsx.Error)
}
