package selector

import (
	"sort"
	"strings"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/ownmap-styler/ownmap"
)

const tagConditionSymbols = string(TokenValueSeparator) +
	string(TokenConditionAnd) +
	string(TokenOpenConditions) +
	string(TokenCloseConditions) +
	string(TokenConditionEquals)

// TagCondition matches rows whose TagName is TagValue and which satisfy every Extra condition
type TagCondition struct {
	TagName  string           `json:"tagName"`
	TagValue string           `json:"tagValue"`
	Extra    []ownmap.TagPair `json:"extra,omitempty"`
}

func (tc *TagCondition) Matches(tags ownmap.TagMap) bool {
	value, ok := tags[tc.TagName]
	if !ok || value != tc.TagValue {
		return false
	}

	for _, extra := range tc.Extra {
		if tags[extra.Key] != extra.Value {
			return false
		}
	}

	return true
}

// Identity is the canonical form of the condition: extras are sorted so declaration order does not matter
func (tc *TagCondition) Identity() string {
	extras := make([]string, len(tc.Extra))
	for i, extra := range tc.Extra {
		extras[i] = extra.Key + "=" + extra.Value
	}
	sort.Strings(extras)

	s := tc.TagName + "=" + tc.TagValue
	if len(extras) > 0 {
		s += "[" + strings.Join(extras, "&") + "]"
	}
	return s
}

func (tc *TagCondition) String() string {
	s := tc.TagName + "=" + tc.TagValue
	if len(tc.Extra) == 0 {
		return s
	}

	var extras []string
	for _, extra := range tc.Extra {
		extras = append(extras, extra.Key+"="+extra.Value)
	}
	return s + "[" + strings.Join(extras, "&") + "]"
}

// ConvertBool maps the boolean spellings a stylesheet author may use onto the OSM "yes"/"no" values
func ConvertBool(value string) string {
	switch value {
	case "True", "true":
		return "yes"
	case "False", "false":
		return "no"
	}
	return value
}

// ParseTagCondition parses a tag value selector declared under tagName.
//
//	value_list := value (',' value)*
//	value      := text ['[' cond (sep cond)* ']']
//	sep        := ',' | '&'
//	cond       := text '=' text
//
// Every value in the list is an independent alternative, so one TagCondition is returned per value.
func ParseTagCondition(tagName, raw string) ([]*TagCondition, errorsx.Error) {
	tagName = strings.TrimSpace(tagName)
	if tagName == "" {
		return nil, errorsx.Wrap(ErrMalformedSelector, "selector", raw, "reason", "empty tag name")
	}

	p := &tagConditionParser{
		raw:     raw,
		tagName: tagName,
		lexer:   newLexer(raw, tagConditionSymbols),
	}

	return p.parseValueList()
}

type tagConditionParser struct {
	raw     string
	tagName string
	lexer   *lexer
}

func (p *tagConditionParser) parseValueList() ([]*TagCondition, errorsx.Error) {
	var conditions []*TagCondition
	for {
		condition, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		conditions = append(conditions, condition)

		t := p.lexer.next()
		switch {
		case t.Type == tokenTypeEOF:
			return conditions, nil
		case t.Type == tokenTypeSymbol && t.Symbol == TokenValueSeparator:
			continue
		default:
			return nil, malformed(p.raw, t, "expected ',' or end of selector")
		}
	}
}

func (p *tagConditionParser) parseValue() (*TagCondition, errorsx.Error) {
	t := p.lexer.next()
	if t.Type != tokenTypeText {
		return nil, malformed(p.raw, t, "expected a tag value")
	}

	condition := &TagCondition{
		TagName:  p.tagName,
		TagValue: ConvertBool(t.Text),
	}

	next := p.lexer.peek()
	if next.Type != tokenTypeSymbol || next.Symbol != TokenOpenConditions {
		return condition, nil
	}
	p.lexer.next()

	extra, err := p.parseConditions()
	if err != nil {
		return nil, err
	}
	condition.Extra = extra

	return condition, nil
}

func (p *tagConditionParser) parseConditions() ([]ownmap.TagPair, errorsx.Error) {
	var pairs []ownmap.TagPair
	for {
		pair, err := p.parseCondition()
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, pair)

		t := p.lexer.next()
		if t.Type != tokenTypeSymbol {
			return nil, malformed(p.raw, t, "expected ',', '&' or ']'")
		}

		switch t.Symbol {
		case TokenValueSeparator, TokenConditionAnd:
			continue
		case TokenCloseConditions:
			return pairs, nil
		default:
			return nil, malformed(p.raw, t, "expected ',', '&' or ']'")
		}
	}
}

func (p *tagConditionParser) parseCondition() (ownmap.TagPair, errorsx.Error) {
	key := p.lexer.next()
	if key.Type != tokenTypeText {
		return ownmap.TagPair{}, malformed(p.raw, key, "expected a condition tag name")
	}

	equals := p.lexer.next()
	if equals.Type != tokenTypeSymbol || equals.Symbol != TokenConditionEquals {
		return ownmap.TagPair{}, malformed(p.raw, equals, "expected '='")
	}

	value := p.lexer.next()
	if value.Type != tokenTypeText {
		return ownmap.TagPair{}, malformed(p.raw, value, "expected a condition tag value")
	}

	return ownmap.TagPair{Key: key.Text, Value: ConvertBool(value.Text)}, nil
}
