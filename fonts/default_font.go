package fonts

import (
	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"github.com/jamesrr39/goutil/errorsx"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
)

type fontKey struct {
	bold, italic bool
}

var (
	fontsByKey    map[fontKey]*truetype.Font
	monospaceFont *truetype.Font
)

func init() {
	fontsByKey = make(map[fontKey]*truetype.Font)
	for key, ttf := range map[fontKey][]byte{
		{}:                         goregular.TTF,
		{bold: true}:               gobold.TTF,
		{italic: true}:             goitalic.TTF,
		{bold: true, italic: true}: gobolditalic.TTF,
	} {
		font, err := parseFont(ttf)
		if err != nil {
			panic(err)
		}
		fontsByKey[key] = font
	}

	font, err := parseFont(gomono.TTF)
	if err != nil {
		panic(err)
	}
	monospaceFont = font
}

func parseFont(fontBytes []byte) (*truetype.Font, errorsx.Error) {
	font, err := freetype.ParseFont(fontBytes)
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	return font, nil
}

func DefaultFont() *truetype.Font {
	return fontsByKey[fontKey{}]
}

// Select picks the embedded font closest to a font-family, font-weight and font-style.
// Weights from bold upwards are drawn bold, italic and oblique styles are drawn italic.
func Select(family, weight, style string) *truetype.Font {
	if family == "monospace" {
		return monospaceFont
	}

	key := fontKey{}
	switch weight {
	case "bold", "ultra-bold", "heavy":
		key.bold = true
	}
	switch style {
	case "italic", "oblique":
		key.italic = true
	}

	return fontsByKey[key]
}
