package styling

import (
	"fmt"
	"image/color"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/ownmap-styler/ownmap"
)

type ValueKind int

const (
	ValueKindColor ValueKind = iota + 1
	ValueKindScalar
	ValueKindInteger
	ValueKindEnum
	ValueKindDash
	ValueKindText
)

func (vk ValueKind) String() string {
	switch vk {
	case ValueKindColor:
		return "color"
	case ValueKindScalar:
		return "scalar"
	case ValueKindInteger:
		return "integer"
	case ValueKindEnum:
		return "enum"
	case ValueKindDash:
		return "dash"
	case ValueKindText:
		return "text"
	default:
		return "unknown"
	}
}

// Value is a typed attribute value. Implementations are immutable.
type Value interface {
	Kind() ValueKind
	String() string
}

// ColorValue has its channels in [0,1]
type ColorValue struct {
	R, G, B, A float64
}

func (c ColorValue) Kind() ValueKind { return ValueKindColor }

func (c ColorValue) String() string {
	return fmt.Sprintf("%s %s %s %s", formatFloat(c.R), formatFloat(c.G), formatFloat(c.B), formatFloat(c.A))
}

func (c ColorValue) ToColor() color.Color {
	return color.NRGBA{
		R: channelToUint8(c.R),
		G: channelToUint8(c.G),
		B: channelToUint8(c.B),
		A: channelToUint8(c.A),
	}
}

func (c ColorValue) IsTransparent() bool {
	return c.A == 0
}

func channelToUint8(channel float64) uint8 {
	return uint8(math.Round(channel * 255))
}

type ScalarValue float64

func (s ScalarValue) Kind() ValueKind { return ValueKindScalar }
func (s ScalarValue) String() string  { return formatFloat(float64(s)) }

type IntegerValue int

func (i IntegerValue) Kind() ValueKind { return ValueKindInteger }
func (i IntegerValue) String() string  { return strconv.Itoa(int(i)) }

type EnumValue string

func (e EnumValue) Kind() ValueKind { return ValueKindEnum }
func (e EnumValue) String() string  { return string(e) }

type DashValue struct {
	pattern []float64
}

func NewDashValue(pattern ...float64) DashValue {
	copied := make([]float64, len(pattern))
	copy(copied, pattern)
	return DashValue{copied}
}

func (d DashValue) Kind() ValueKind { return ValueKindDash }

func (d DashValue) Pattern() []float64 {
	copied := make([]float64, len(d.pattern))
	copy(copied, d.pattern)
	return copied
}

func (d DashValue) String() string {
	var parts []string
	for _, f := range d.pattern {
		parts = append(parts, formatFloat(f))
	}
	return strings.Join(parts, " ")
}

// TextValue is a plain string: a column reference for "text", a path for images, or a font family
type TextValue string

func (t TextValue) Kind() ValueKind { return ValueKindText }
func (t TextValue) String() string  { return string(t) }

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// AttributeMap is one overlay: attribute key to typed value
type AttributeMap map[string]Value

func (am AttributeMap) Keys() []string {
	keys := make([]string, 0, len(am))
	for key := range am {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func (am AttributeMap) copy() AttributeMap {
	copied := make(AttributeMap, len(am))
	for key, value := range am {
		copied[key] = value
	}
	return copied
}

type attributeSpec struct {
	kind       ValueKind
	enumValues []string
}

var (
	lineCapValues       = []string{"butt", "square", "round"}
	lineJoinValues      = []string{"miter", "round", "bevel"}
	fontWeightValues    = []string{"ultra-light", "light", "normal", "bold", "ultra-bold", "heavy"}
	fontStyleValues     = []string{"normal", "italic", "oblique"}
	textTransformValues = []string{"uppercase", "lowercase", "capitalize"}
)

const (
	AttrZIndex           = "z-index"
	AttrText             = "text"
	AttrTextColor        = "text-color"
	AttrFontSize         = "font-size"
	AttrFontFamily       = "font-family"
	AttrFontStyle        = "font-style"
	AttrFontWeight       = "font-weight"
	AttrTextHaloWidth    = "text-halo-width"
	AttrTextHaloColor    = "text-halo-color"
	AttrTextHaloLineCap  = "text-halo-line-cap"
	AttrTextHaloLineJoin = "text-halo-line-join"
	AttrTextHaloLineDash = "text-halo-line-dash"
	AttrTextTransform    = "text-transform"
	AttrImage            = "image"
	AttrImageMargin      = "image-margin"
	AttrCircleRadius     = "circle-radius"
	AttrCircleBgColor    = "circle-background-color"
	AttrCircleBgImage    = "circle-background-image"
	AttrColor            = "color"
	AttrWidth            = "width"
	AttrLineCap          = "line-cap"
	AttrLineJoin         = "line-join"
	AttrLineDash         = "line-dash"
	AttrBackgroundColor  = "background-color"
	AttrBackgroundImage  = "background-image"
	AttrBorderPrefix     = "border"
	AttrOutlinePrefix    = "outline"
	AttrSuffixWidth      = "-width"
	AttrSuffixColor      = "-color"
	AttrSuffixLineCap    = "-line-cap"
	AttrSuffixLineJoin   = "-line-join"
	AttrSuffixLineDash   = "-line-dash"
)

func strokeGroup(prefix string) map[string]attributeSpec {
	return map[string]attributeSpec{
		prefix + AttrSuffixWidth:    {kind: ValueKindScalar},
		prefix + AttrSuffixColor:    {kind: ValueKindColor},
		prefix + AttrSuffixLineCap:  {kind: ValueKindEnum, enumValues: lineCapValues},
		prefix + AttrSuffixLineJoin: {kind: ValueKindEnum, enumValues: lineJoinValues},
		prefix + AttrSuffixLineDash: {kind: ValueKindDash},
	}
}

var commonVocabulary = map[string]attributeSpec{
	AttrZIndex:           {kind: ValueKindInteger},
	AttrText:             {kind: ValueKindText},
	AttrTextColor:        {kind: ValueKindColor},
	AttrFontSize:         {kind: ValueKindScalar},
	AttrFontFamily:       {kind: ValueKindText},
	AttrFontStyle:        {kind: ValueKindEnum, enumValues: fontStyleValues},
	AttrFontWeight:       {kind: ValueKindEnum, enumValues: fontWeightValues},
	AttrTextHaloWidth:    {kind: ValueKindScalar},
	AttrTextHaloColor:    {kind: ValueKindColor},
	AttrTextHaloLineCap:  {kind: ValueKindEnum, enumValues: lineCapValues},
	AttrTextHaloLineJoin: {kind: ValueKindEnum, enumValues: lineJoinValues},
	AttrTextHaloLineDash: {kind: ValueKindDash},
	AttrTextTransform:    {kind: ValueKindEnum, enumValues: textTransformValues},
}

var vocabularies = map[ownmap.GeometryType]map[string]attributeSpec{
	ownmap.GeometryTypePoint: buildVocabulary(
		map[string]attributeSpec{
			AttrImage:         {kind: ValueKindText},
			AttrImageMargin:   {kind: ValueKindScalar},
			AttrCircleRadius:  {kind: ValueKindScalar},
			AttrCircleBgColor: {kind: ValueKindColor},
			AttrCircleBgImage: {kind: ValueKindText},
		},
		strokeGroup(AttrBorderPrefix),
	),
	ownmap.GeometryTypeLine: buildVocabulary(
		map[string]attributeSpec{
			AttrColor:    {kind: ValueKindColor},
			AttrWidth:    {kind: ValueKindScalar},
			AttrLineCap:  {kind: ValueKindEnum, enumValues: lineCapValues},
			AttrLineJoin: {kind: ValueKindEnum, enumValues: lineJoinValues},
			AttrLineDash: {kind: ValueKindDash},
		},
		strokeGroup(AttrBorderPrefix),
		strokeGroup(AttrOutlinePrefix),
	),
	ownmap.GeometryTypePolygon: buildVocabulary(
		map[string]attributeSpec{
			AttrBackgroundColor: {kind: ValueKindColor},
			AttrBackgroundImage: {kind: ValueKindText},
		},
		strokeGroup(AttrBorderPrefix),
	),
}

func buildVocabulary(groups ...map[string]attributeSpec) map[string]attributeSpec {
	vocabulary := make(map[string]attributeSpec)
	for key, spec := range commonVocabulary {
		vocabulary[key] = spec
	}
	for _, group := range groups {
		for key, spec := range group {
			vocabulary[key] = spec
		}
	}
	return vocabulary
}

// AttributeKind returns the declared shape of an attribute key for a geometry type
func AttributeKind(geometryType ownmap.GeometryType, key string) (ValueKind, bool) {
	spec, ok := vocabularies[geometryType][key]
	if !ok {
		return 0, false
	}
	return spec.kind, true
}

func invalidAttribute(geometryType ownmap.GeometryType, key string, raw interface{}, reason string) errorsx.Error {
	return errorsx.Wrap(ErrInvalidAttribute, "geometryType", geometryType.String(), "attribute", key, "value", raw, "reason", reason)
}

// ParseAttribute converts the raw fields of one attribute into its declared shape.
// Fields are either a single scalar ("1 1 1 0.88") or the items of a sequence; numeric shapes split them on whitespace.
func ParseAttribute(geometryType ownmap.GeometryType, key string, fields []string) (Value, errorsx.Error) {
	spec, ok := vocabularies[geometryType][key]
	if !ok {
		return nil, invalidAttribute(geometryType, key, fields, "attribute is not known for this geometry type")
	}

	joined := strings.TrimSpace(strings.Join(fields, " "))
	if joined == "" {
		return nil, invalidAttribute(geometryType, key, fields, "empty value")
	}

	switch spec.kind {
	case ValueKindColor:
		floats, err := parseFloats(strings.Fields(joined))
		if err != nil {
			return nil, invalidAttribute(geometryType, key, joined, err.Error())
		}
		return newColorValue(geometryType, key, floats)
	case ValueKindDash:
		floats, err := parseFloats(strings.Fields(joined))
		if err != nil {
			return nil, invalidAttribute(geometryType, key, joined, err.Error())
		}
		for _, f := range floats {
			if f < 0 {
				return nil, invalidAttribute(geometryType, key, joined, "dash lengths must not be negative")
			}
		}
		return NewDashValue(floats...), nil
	case ValueKindScalar:
		f, err := strconv.ParseFloat(joined, 64)
		if err != nil {
			return nil, invalidAttribute(geometryType, key, joined, "expected a number")
		}
		if f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, invalidAttribute(geometryType, key, joined, "expected a finite, non-negative number")
		}
		return ScalarValue(f), nil
	case ValueKindInteger:
		i, err := strconv.Atoi(joined)
		if err != nil {
			return nil, invalidAttribute(geometryType, key, joined, "expected an integer")
		}
		return IntegerValue(i), nil
	case ValueKindEnum:
		for _, allowed := range spec.enumValues {
			if allowed == joined {
				return EnumValue(joined), nil
			}
		}
		return nil, invalidAttribute(geometryType, key, joined, fmt.Sprintf("expected one of %s", strings.Join(spec.enumValues, ", ")))
	case ValueKindText:
		return TextValue(joined), nil
	default:
		return nil, invalidAttribute(geometryType, key, joined, "unhandled value kind")
	}
}

// ValidateAttribute checks an already typed value against the vocabulary
func ValidateAttribute(geometryType ownmap.GeometryType, key string, value Value) errorsx.Error {
	spec, ok := vocabularies[geometryType][key]
	if !ok {
		return invalidAttribute(geometryType, key, value, "attribute is not known for this geometry type")
	}

	if value == nil {
		return invalidAttribute(geometryType, key, value, "missing value")
	}

	if value.Kind() != spec.kind {
		return invalidAttribute(geometryType, key, value.String(), fmt.Sprintf("expected a %s value, got %s", spec.kind, value.Kind()))
	}

	// round trip through the parser so hand-built values get the same range checks as parsed ones
	_, err := ParseAttribute(geometryType, key, []string{value.String()})
	return err
}

func newColorValue(geometryType ownmap.GeometryType, key string, channels []float64) (ColorValue, errorsx.Error) {
	if len(channels) != 3 && len(channels) != 4 {
		return ColorValue{}, invalidAttribute(geometryType, key, channels, "a color needs 3 or 4 channels")
	}

	for _, channel := range channels {
		if channel < 0 || channel > 1 {
			return ColorValue{}, invalidAttribute(geometryType, key, channels, "color channels must be in [0,1]")
		}
	}

	c := ColorValue{R: channels[0], G: channels[1], B: channels[2], A: 1}
	if len(channels) == 4 {
		c.A = channels[3]
	}
	return c, nil
}

// ParseColor parses a color outside of any rule, e.g. the map background
func ParseColor(fields []string) (ColorValue, errorsx.Error) {
	floats, err := parseFloats(strings.Fields(strings.Join(fields, " ")))
	if err != nil {
		return ColorValue{}, errorsx.Wrap(ErrInvalidAttribute, "value", fields, "reason", err.Error())
	}

	return newColorValue(ownmap.GeometryTypeUnknown, "color", floats)
}

func parseFloats(fields []string) ([]float64, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("expected at least one number")
	}

	floats := make([]float64, len(fields))
	for i, field := range fields {
		f, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", field)
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("%q is not a finite number", field)
		}
		floats[i] = f
	}
	return floats, nil
}
