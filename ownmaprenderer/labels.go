package ownmaprenderer

import (
	"image"
	"image/draw"
	"math"

	"github.com/jamesrr39/ownmap-styler/ownmap"
	"github.com/jamesrr39/ownmap-styler/renderplan"
	"github.com/jamesrr39/ownmap-styler/styling"
	"github.com/paulmach/orb"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	defaultFontSize      = 10.0
	defaultTextHaloWidth = 1.5

	// minimum space kept between two labels, in pixels
	labelConflictMargin = 3.0
)

type box struct {
	minX, minY, maxX, maxY float64
}

func (b box) expand(by float64) box {
	return box{b.minX - by, b.minY - by, b.maxX + by, b.maxY + by}
}

func (b box) intersects(other box) bool {
	return b.minX < other.maxX && other.minX < b.maxX && b.minY < other.maxY && other.minY < b.maxY
}

func (b box) within(bounds image.Rectangle) bool {
	return b.minX >= float64(bounds.Min.X) && b.minY >= float64(bounds.Min.Y) &&
		b.maxX <= float64(bounds.Max.X) && b.maxY <= float64(bounds.Max.Y)
}

// label is text and/or an icon anchored to a feature
type label struct {
	anchor orb.Point
	text   string
	icon   image.Image
	style  *styling.ResolvedStyle
}

func (d *mapDrawer) addLabel(item *renderplan.DrawItem) {
	l := &label{style: item.Style}

	textTag, ok := item.Style.Text(styling.AttrText)
	if ok {
		l.text = transformText(item.Tags[textTag], item.Style.Enum(styling.AttrTextTransform, ""))
	}

	if item.GeometryType == ownmap.GeometryTypePoint {
		iconPath, ok := item.Style.Text(styling.AttrImage)
		if ok {
			icon, err := d.images.Get(d.stylesheet.BaseDir(), iconPath)
			if err != nil {
				d.logger.Warn("not drawing icon: %s", err.Error())
			} else {
				l.icon = icon
			}
		}
	}

	if l.text == "" && l.icon == nil {
		return
	}

	anchor, ok := labelAnchor(item.Geometry)
	if !ok {
		return
	}
	l.anchor = anchor

	d.labels = append(d.labels, l)
}

func transformText(text, transform string) string {
	switch transform {
	case "uppercase":
		return cases.Upper(language.Und).String(text)
	case "lowercase":
		return cases.Lower(language.Und).String(text)
	case "capitalize":
		return cases.Title(language.Und).String(text)
	default:
		return text
	}
}

// drawLabels draws the collected labels, the last drawn feature's first. A label that would leave the image or
// come too close to one already placed is skipped. Returns how many were placed.
func (d *mapDrawer) drawLabels() int {
	var placed []box
	placedCount := 0
	imageBounds := d.img.Bounds()

	for i := len(d.labels) - 1; i >= 0; i-- {
		l := d.labels[i]

		boxes := d.layoutLabel(l)

		fits := true
		for _, b := range boxes {
			if !b.within(imageBounds) {
				fits = false
				break
			}
			for _, other := range placed {
				if b.intersects(other) {
					fits = false
					break
				}
			}
		}
		if !fits {
			continue
		}

		d.drawLabel(l)
		placed = append(placed, boxes...)
		placedCount++
	}

	return placedCount
}

func (d *mapDrawer) setFont(style *styling.ResolvedStyle) {
	family, _ := style.Text(styling.AttrFontFamily)
	d.gc.SetFontData(fontDataForStyle(
		family,
		style.Enum(styling.AttrFontWeight, "normal"),
		style.Enum(styling.AttrFontStyle, "normal"),
	))
	d.gc.SetFontSize(style.Scalar(styling.AttrFontSize, defaultFontSize))
}

func (d *mapDrawer) iconBox(l *label) box {
	bounds := l.icon.Bounds()
	halfWidth, halfHeight := float64(bounds.Dx())/2, float64(bounds.Dy())/2
	return box{
		minX: l.anchor.X() - halfWidth,
		minY: l.anchor.Y() - halfHeight,
		maxX: l.anchor.X() + halfWidth,
		maxY: l.anchor.Y() + halfHeight,
	}
}

// textOrigin gives the baseline start of the text. Text sits to the right of an icon, or is centred on the anchor.
func (d *mapDrawer) textOrigin(l *label) (float64, float64) {
	left, top, right, bottom := d.gc.GetStringBounds(l.text)
	width, height := right-left, bottom-top

	if l.icon != nil {
		iconBox := d.iconBox(l)
		margin := l.style.Scalar(styling.AttrImageMargin, defaultImageMargin)
		return iconBox.maxX + margin - left, l.anchor.Y() - height/2 - top
	}

	return l.anchor.X() - width/2 - left, l.anchor.Y() - height/2 - top
}

// layoutLabel gives the boxes the label would cover, with room for the halo and the conflict margin
func (d *mapDrawer) layoutLabel(l *label) []box {
	var boxes []box

	if l.icon != nil {
		boxes = append(boxes, d.iconBox(l).expand(labelConflictMargin))
	}

	if l.text != "" {
		d.setFont(l.style)
		left, top, right, bottom := d.gc.GetStringBounds(l.text)
		x, y := d.textOrigin(l)
		haloWidth := l.style.Scalar(styling.AttrTextHaloWidth, defaultTextHaloWidth)

		textBox := box{x + left, y + top, x + right, y + bottom}
		boxes = append(boxes, textBox.expand(haloWidth+labelConflictMargin))
	}

	return boxes
}

func (d *mapDrawer) drawLabel(l *label) {
	if l.icon != nil {
		iconBox := d.iconBox(l)
		target := image.Rect(
			int(math.Round(iconBox.minX)),
			int(math.Round(iconBox.minY)),
			int(math.Round(iconBox.maxX)),
			int(math.Round(iconBox.maxY)),
		)
		draw.Draw(d.img, target, l.icon, l.icon.Bounds().Min, draw.Over)
	}

	if l.text == "" {
		return
	}

	d.gc.Save()
	defer d.gc.Restore()

	d.setFont(l.style)
	x, y := d.textOrigin(l)

	halo := stroke{
		width:    2 * l.style.Scalar(styling.AttrTextHaloWidth, defaultTextHaloWidth),
		color:    l.style.Color(styling.AttrTextHaloColor, transparent),
		lineCap:  lineCap(l.style.Enum(styling.AttrTextHaloLineCap, "round")),
		lineJoin: lineJoin(l.style.Enum(styling.AttrTextHaloLineJoin, "round")),
		dash:     l.style.Dash(styling.AttrTextHaloLineDash),
	}
	if halo.isVisible() {
		halo.apply(d.gc)
		d.gc.StrokeStringAt(l.text, x, y)
	}

	d.gc.SetFillColor(l.style.Color(styling.AttrTextColor, opaqueBlack).ToColor())
	d.gc.FillStringAt(l.text, x, y)
}
