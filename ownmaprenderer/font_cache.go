package ownmaprenderer

import (
	"sync"

	"github.com/golang/freetype/truetype"
	"github.com/jamesrr39/ownmap-styler/fonts"
	"github.com/llgcode/draw2d"
)

// fontCache serves the embedded fonts to draw2d, whatever font files are on the system
type fontCache struct{}

func (fontCache) Load(fontData draw2d.FontData) (*truetype.Font, error) {
	weight := "normal"
	if fontData.Style&draw2d.FontStyleBold != 0 {
		weight = "bold"
	}

	style := "normal"
	if fontData.Style&draw2d.FontStyleItalic != 0 {
		style = "italic"
	}

	family := fontData.Name
	if fontData.Family == draw2d.FontFamilyMono {
		family = "monospace"
	}

	return fonts.Select(family, weight, style), nil
}

func (fontCache) Store(fontData draw2d.FontData, font *truetype.Font) {}

var setFontCacheOnce sync.Once

func useEmbeddedFonts() {
	setFontCacheOnce.Do(func() {
		draw2d.SetFontCache(fontCache{})
	})
}

func fontDataForStyle(family, weight, style string) draw2d.FontData {
	fontData := draw2d.FontData{
		Name:   family,
		Family: draw2d.FontFamilySans,
		Style:  draw2d.FontStyleNormal,
	}

	if family == "monospace" {
		fontData.Family = draw2d.FontFamilyMono
	}

	switch weight {
	case "bold", "ultra-bold", "heavy":
		fontData.Style |= draw2d.FontStyleBold
	}

	switch style {
	case "italic", "oblique":
		fontData.Style |= draw2d.FontStyleItalic
	}

	return fontData
}
