package styling

import (
	"encoding/json"
	"strings"
)

// ResolvedStyle is the flattened attribute map of one rule at one zoom level. It is read-only.
type ResolvedStyle struct {
	attributes AttributeMap
	keys       []string
}

func newResolvedStyle(attributes AttributeMap) *ResolvedStyle {
	return &ResolvedStyle{
		attributes: attributes,
		keys:       attributes.Keys(),
	}
}

func (rs *ResolvedStyle) IsEmpty() bool {
	return rs == nil || len(rs.attributes) == 0
}

func (rs *ResolvedStyle) Has(key string) bool {
	if rs == nil {
		return false
	}
	_, ok := rs.attributes[key]
	return ok
}

func (rs *ResolvedStyle) Get(key string) (Value, bool) {
	if rs == nil {
		return nil, false
	}
	value, ok := rs.attributes[key]
	return value, ok
}

// Keys returns the attribute keys, sorted
func (rs *ResolvedStyle) Keys() []string {
	if rs == nil {
		return nil
	}
	keys := make([]string, len(rs.keys))
	copy(keys, rs.keys)
	return keys
}

func (rs *ResolvedStyle) Color(key string, defaultValue ColorValue) ColorValue {
	value, ok := rs.Get(key)
	if !ok {
		return defaultValue
	}
	c, ok := value.(ColorValue)
	if !ok {
		return defaultValue
	}
	return c
}

func (rs *ResolvedStyle) Scalar(key string, defaultValue float64) float64 {
	value, ok := rs.Get(key)
	if !ok {
		return defaultValue
	}
	s, ok := value.(ScalarValue)
	if !ok {
		return defaultValue
	}
	return float64(s)
}

func (rs *ResolvedStyle) Integer(key string) (int, bool) {
	value, ok := rs.Get(key)
	if !ok {
		return 0, false
	}
	i, ok := value.(IntegerValue)
	if !ok {
		return 0, false
	}
	return int(i), true
}

func (rs *ResolvedStyle) Enum(key string, defaultValue string) string {
	value, ok := rs.Get(key)
	if !ok {
		return defaultValue
	}
	e, ok := value.(EnumValue)
	if !ok {
		return defaultValue
	}
	return string(e)
}

// Dash returns nil when no dash pattern is set
func (rs *ResolvedStyle) Dash(key string) []float64 {
	value, ok := rs.Get(key)
	if !ok {
		return nil
	}
	d, ok := value.(DashValue)
	if !ok {
		return nil
	}
	return d.Pattern()
}

func (rs *ResolvedStyle) Text(key string) (string, bool) {
	value, ok := rs.Get(key)
	if !ok {
		return "", false
	}
	t, ok := value.(TextValue)
	if !ok {
		return "", false
	}
	return string(t), true
}

func (rs *ResolvedStyle) ZIndex() (int, bool) {
	return rs.Integer(AttrZIndex)
}

// String gives a deterministic "key=value" listing
func (rs *ResolvedStyle) String() string {
	if rs == nil {
		return ""
	}

	parts := make([]string, len(rs.keys))
	for i, key := range rs.keys {
		parts[i] = key + "=" + rs.attributes[key].String()
	}
	return strings.Join(parts, "; ")
}

func (rs *ResolvedStyle) MarshalJSON() ([]byte, error) {
	m := make(map[string]string)
	if rs != nil {
		for key, value := range rs.attributes {
			m[key] = value.String()
		}
	}
	return json.Marshal(m)
}
