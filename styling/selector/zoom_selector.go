package selector

import (
	"strings"

	"github.com/jamesrr39/goutil/errorsx"
)

const zoomSelectorSymbols = string(TokenValueSeparator) + string(TokenZoomRangeOperator)

// ZoomLevelLister gives the registered zoom level names in declaration order
type ZoomLevelLister interface {
	ZoomLevelNames() []string
}

// ZoomRangeSelector is the non-empty set of zoom levels an overlay applies to
type ZoomRangeSelector struct {
	Raw   string
	All   bool
	Names []string // in registry declaration order
	names map[string]struct{}
}

func (s *ZoomRangeSelector) Contains(zoomLevelName string) bool {
	_, ok := s.names[zoomLevelName]
	return ok
}

func (s *ZoomRangeSelector) String() string {
	if s.All {
		return ZoomSelectorAll
	}
	return strings.Join(s.Names, ",")
}

// ExpandRange gives the names from a to b inclusive, in declaration order
func ExpandRange(names []string, a, b string) ([]string, errorsx.Error) {
	idxA, idxB := -1, -1
	for i, name := range names {
		if name == a {
			idxA = i
		}
		if name == b {
			idxB = i
		}
	}

	if idxA == -1 {
		return nil, errorsx.Wrap(ErrUnknownZoomLevel, "zoomLevel", a)
	}
	if idxB == -1 {
		return nil, errorsx.Wrap(ErrUnknownZoomLevel, "zoomLevel", b)
	}
	if idxA > idxB {
		return nil, errorsx.Wrap(ErrInvalidRange, "from", a, "to", b)
	}

	expanded := make([]string, idxB-idxA+1)
	copy(expanded, names[idxA:idxB+1])
	return expanded, nil
}

// ParseZoomSelector parses a zoom selector against the registered levels.
//
//	selector := item (',' item)*
//	item     := 'all' | name | name '-' name
func ParseZoomSelector(raw string, registry ZoomLevelLister) (*ZoomRangeSelector, errorsx.Error) {
	registeredNames := registry.ZoomLevelNames()
	lexer := newLexer(raw, zoomSelectorSymbols)

	wanted := make(map[string]struct{})
	all := false

	for {
		t := lexer.next()
		if t.Type != tokenTypeText {
			return nil, malformed(raw, t, "expected a zoom level name or 'all'")
		}

		next := lexer.peek()
		isRange := next.Type == tokenTypeSymbol && next.Symbol == TokenZoomRangeOperator

		switch {
		case isRange:
			lexer.next()
			end := lexer.next()
			if end.Type != tokenTypeText {
				return nil, malformed(raw, end, "expected a zoom level name after '-'")
			}

			names, err := ExpandRange(registeredNames, t.Text, end.Text)
			if err != nil {
				return nil, errorsx.Wrap(err, "selector", raw)
			}
			for _, name := range names {
				wanted[name] = struct{}{}
			}
		case t.Text == ZoomSelectorAll:
			all = true
		default:
			if !containsString(registeredNames, t.Text) {
				return nil, errorsx.Wrap(ErrUnknownZoomLevel, "zoomLevel", t.Text, "selector", raw)
			}
			wanted[t.Text] = struct{}{}
		}

		sep := lexer.next()
		if sep.Type == tokenTypeEOF {
			break
		}
		if sep.Type != tokenTypeSymbol || sep.Symbol != TokenValueSeparator {
			return nil, malformed(raw, sep, "expected ',' or end of selector")
		}
	}

	selector := &ZoomRangeSelector{
		Raw:   raw,
		All:   all,
		names: make(map[string]struct{}),
	}

	for _, name := range registeredNames {
		_, ok := wanted[name]
		if all || ok {
			selector.Names = append(selector.Names, name)
			selector.names[name] = struct{}{}
		}
	}

	if len(selector.Names) == 0 {
		return nil, errorsx.Wrap(ErrMalformedSelector, "selector", raw, "reason", "selector does not match any zoom level")
	}

	return selector, nil
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
