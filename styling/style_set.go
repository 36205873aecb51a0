package styling

import (
	"sort"

	"github.com/jamesrr39/goutil/errorsx"
)

const BuiltinStyleID = "__ownmap_builtin"

// StyleSet is the stylesheets a server can render with, by ID
type StyleSet struct {
	stylesMap      map[string]*Stylesheet // map[Style ID]Stylesheet
	defaultStyleID string
}

func NewStyleSet(styles []*Stylesheet, defaultStyleID string) (*StyleSet, errorsx.Error) {
	styleSet := &StyleSet{
		stylesMap:      make(map[string]*Stylesheet),
		defaultStyleID: defaultStyleID,
	}

	defaultIDFound := false

	for _, style := range styles {
		styleID := style.GetStyleID()
		existing, ok := styleSet.stylesMap[styleID]
		if ok {
			return nil, errorsx.Errorf("duplicate style ID found: %q (base directories %q and %q)", styleID, existing.BaseDir(), style.BaseDir())
		}

		styleSet.stylesMap[styleID] = style

		if defaultStyleID == styleID {
			defaultIDFound = true
		}
	}

	if !defaultIDFound {
		return nil, errorsx.Errorf("default ID %q not found in any supplied styles", defaultStyleID)
	}

	return styleSet, nil
}

// GetStyleByID returns nil if there is no style with that ID
func (s *StyleSet) GetStyleByID(id string) *Stylesheet {
	return s.stylesMap[id]
}

func (s *StyleSet) GetDefaultStyle() *Stylesheet {
	return s.stylesMap[s.defaultStyleID]
}

func (s *StyleSet) GetAllStyleIDs() []string {
	var styleIDs []string

	for id := range s.stylesMap {
		styleIDs = append(styleIDs, id)
	}

	sort.Strings(styleIDs)

	return styleIDs
}
