package selector

const (
	TokenValueSeparator    = ','
	TokenConditionAnd      = '&'
	TokenOpenConditions    = '['
	TokenCloseConditions   = ']'
	TokenConditionEquals   = '='
	TokenZoomRangeOperator = '-'
)

const (
	ZoomSelectorAll = "all"
)

type tokenType int

const (
	tokenTypeEOF tokenType = iota
	tokenTypeText
	tokenTypeSymbol
)

type token struct {
	Type     tokenType
	Text     string
	Symbol   rune
	Position int
}

func (t token) describe() string {
	switch t.Type {
	case tokenTypeEOF:
		return "end of selector"
	case tokenTypeSymbol:
		return "'" + string(t.Symbol) + "'"
	default:
		return "'" + t.Text + "'"
	}
}
