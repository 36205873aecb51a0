package styling

import (
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/ownmap-styler/ownmap"
	"github.com/jamesrr39/ownmap-styler/styling/selector"
)

type ZoomOverlay struct {
	Selector   *selector.ZoomRangeSelector
	Attributes AttributeMap
}

// Rule styles one (geometry type, tag condition) identity.
// Index is the declaration position in the stylesheet, GroupIndex is shared by the values declared together in one OR group.
type Rule struct {
	Index        int
	GroupIndex   int
	GeometryType ownmap.GeometryType
	Condition    *selector.TagCondition
	Overlays     []*ZoomOverlay
}

func (r *Rule) Identity() string {
	return r.GeometryType.String() + ":" + r.Condition.Identity()
}

func (r *Rule) String() string {
	return r.GeometryType.String() + " " + r.Condition.String()
}

// Resolve overlays, in declaration order, every overlay whose selector covers the zoom level.
// Later overlays win per key. No overlay covering the zoom level gives an empty map.
func Resolve(rule *Rule, zoomLevelName string) AttributeMap {
	resolved := make(AttributeMap)
	for _, overlay := range rule.Overlays {
		if !overlay.Selector.Contains(zoomLevelName) {
			continue
		}
		for key, value := range overlay.Attributes {
			resolved[key] = value
		}
	}
	return resolved
}

// Stylesheet is immutable once built, and safe to share between concurrent render passes
type Stylesheet struct {
	id            string
	baseDir       string
	zoomRegistry  *ZoomRegistry
	mapBackground ColorValue
	seaBackground ColorValue
	rules         []*Rule
	rulesByType   map[ownmap.GeometryType][]*Rule
	rulesByTag    map[ownmap.GeometryType]map[string][]*Rule
	// resolved[rule.Index][zoomLevelName]
	resolved []map[string]*ResolvedStyle
}

func (s *Stylesheet) GetStyleID() string {
	return s.id
}

// BaseDir is the directory image attributes are relative to
func (s *Stylesheet) BaseDir() string {
	return s.baseDir
}

func (s *Stylesheet) ZoomRegistry() *ZoomRegistry {
	return s.zoomRegistry
}

func (s *Stylesheet) MapBackground() ColorValue {
	return s.mapBackground
}

func (s *Stylesheet) SeaBackground() ColorValue {
	return s.seaBackground
}

// Rules returns every rule in declaration order
func (s *Stylesheet) Rules() []*Rule {
	rules := make([]*Rule, len(s.rules))
	copy(rules, s.rules)
	return rules
}

func (s *Stylesheet) RulesForGeometryType(geometryType ownmap.GeometryType) []*Rule {
	rules := make([]*Rule, len(s.rulesByType[geometryType]))
	copy(rules, s.rulesByType[geometryType])
	return rules
}

func (s *Stylesheet) HasZoomLevel(zoomLevelName string) bool {
	_, ok := s.zoomRegistry.Get(zoomLevelName)
	return ok
}

// ResolvedStyle returns the style of a rule at a zoom level, computed once when the stylesheet was built
func (s *Stylesheet) ResolvedStyle(rule *Rule, zoomLevelName string) (*ResolvedStyle, errorsx.Error) {
	if !s.HasZoomLevel(zoomLevelName) {
		return nil, errorsx.Wrap(ErrUnknownZoomLevel, "zoomLevel", zoomLevelName, "styleId", s.id)
	}

	if rule.Index < len(s.rules) && s.rules[rule.Index] == rule {
		return s.resolved[rule.Index][zoomLevelName], nil
	}

	// not one of this stylesheet's rules
	return newResolvedStyle(Resolve(rule, zoomLevelName)), nil
}

// FindRule finds the rule owning a feature fetched with the filter on tagKey (empty when unknown).
// Rules styled at the zoom level are preferred, then the rule with the most extra conditions, then the first declared.
func (s *Stylesheet) FindRule(geometryType ownmap.GeometryType, tagKey string, tags ownmap.TagMap, zoomLevelName string) (*Rule, bool) {
	var candidates []*Rule
	if tagKey == "" {
		candidates = s.rulesByType[geometryType]
	} else {
		candidates = s.rulesByTag[geometryType][tagKey]
	}

	var best *Rule
	bestStyled := false
	for _, rule := range candidates {
		if !rule.Condition.Matches(tags) {
			continue
		}

		styled := !s.resolved[rule.Index][zoomLevelName].IsEmpty()
		if best == nil || isBetterRule(rule, styled, best, bestStyled) {
			best = rule
			bestStyled = styled
		}
	}

	return best, best != nil
}

func isBetterRule(rule *Rule, styled bool, current *Rule, currentStyled bool) bool {
	if styled != currentStyled {
		return styled
	}

	if len(rule.Condition.Extra) != len(current.Condition.Extra) {
		return len(rule.Condition.Extra) > len(current.Condition.Extra)
	}

	return rule.Index < current.Index
}

// StylesheetBuilder collects rules, then freezes them into a Stylesheet. It is not safe for concurrent use.
type StylesheetBuilder struct {
	id            string
	baseDir       string
	zoomRegistry  *ZoomRegistry
	mapBackground ColorValue
	seaBackground ColorValue
	rules         []*Rule
	identities    map[string]*Rule
	groupCount    int
}

var (
	defaultMapBackground = ColorValue{R: 1, G: 1, B: 1, A: 1}
	defaultSeaBackground = ColorValue{R: 0.71, G: 0.82, B: 0.87, A: 1}
)

func NewStylesheetBuilder(id string, zoomRegistry *ZoomRegistry) *StylesheetBuilder {
	return &StylesheetBuilder{
		id:            id,
		zoomRegistry:  zoomRegistry,
		mapBackground: defaultMapBackground,
		seaBackground: defaultSeaBackground,
		identities:    make(map[string]*Rule),
	}
}

func (b *StylesheetBuilder) SetBaseDir(baseDir string) *StylesheetBuilder {
	b.baseDir = baseDir
	return b
}

func (b *StylesheetBuilder) SetMapBackground(c ColorValue) *StylesheetBuilder {
	b.mapBackground = c
	return b
}

func (b *StylesheetBuilder) SetSeaBackground(c ColorValue) *StylesheetBuilder {
	b.seaBackground = c
	return b
}

func (b *StylesheetBuilder) ZoomRegistry() *ZoomRegistry {
	return b.zoomRegistry
}

// NewOverlay parses a zoom selector against the builder's zoom registry
func (b *StylesheetBuilder) NewOverlay(rawZoomSelector string, attributes AttributeMap) (*ZoomOverlay, errorsx.Error) {
	zoomSelector, err := selector.ParseZoomSelector(rawZoomSelector, b.zoomRegistry)
	if err != nil {
		return nil, err
	}

	return &ZoomOverlay{
		Selector:   zoomSelector,
		Attributes: attributes,
	}, nil
}

// AddRules parses a tag value selector and adds its values as one OR group
func (b *StylesheetBuilder) AddRules(geometryType ownmap.GeometryType, tagName, rawTagSelector string, overlays []*ZoomOverlay) errorsx.Error {
	conditions, err := selector.ParseTagCondition(tagName, rawTagSelector)
	if err != nil {
		return err
	}

	return b.AddRuleGroup(geometryType, conditions, overlays)
}

// AddRuleGroup adds one rule per condition. Every rule gets its own copy of the overlays.
func (b *StylesheetBuilder) AddRuleGroup(geometryType ownmap.GeometryType, conditions []*selector.TagCondition, overlays []*ZoomOverlay) errorsx.Error {
	if _, ok := vocabularies[geometryType]; !ok {
		return errorsx.Errorf("unknown geometry type: %q", geometryType)
	}

	for _, overlay := range overlays {
		if overlay.Selector == nil {
			return errorsx.Errorf("overlay without a zoom selector")
		}
		for key, value := range overlay.Attributes {
			err := ValidateAttribute(geometryType, key, value)
			if err != nil {
				return err
			}
		}
	}

	groupIndex := b.groupCount

	var newRules []*Rule
	for _, condition := range conditions {
		rule := &Rule{
			Index:        len(b.rules) + len(newRules),
			GroupIndex:   groupIndex,
			GeometryType: geometryType,
			Condition:    condition,
			Overlays:     copyOverlays(overlays),
		}

		identity := rule.Identity()
		_, existsInStylesheet := b.identities[identity]
		if existsInStylesheet || containsIdentity(newRules, identity) {
			return errorsx.Wrap(ErrDuplicateRuleIdentity, "rule", identity)
		}

		newRules = append(newRules, rule)
	}

	for _, rule := range newRules {
		b.rules = append(b.rules, rule)
		b.identities[rule.Identity()] = rule
	}

	b.groupCount++

	return nil
}

func containsIdentity(rules []*Rule, identity string) bool {
	for _, rule := range rules {
		if rule.Identity() == identity {
			return true
		}
	}
	return false
}

func copyOverlays(overlays []*ZoomOverlay) []*ZoomOverlay {
	copied := make([]*ZoomOverlay, len(overlays))
	for i, overlay := range overlays {
		copied[i] = &ZoomOverlay{
			Selector:   overlay.Selector,
			Attributes: overlay.Attributes.copy(),
		}
	}
	return copied
}

// Build freezes the rules and resolves every rule at every zoom level
func (b *StylesheetBuilder) Build() (*Stylesheet, errorsx.Error) {
	if b.zoomRegistry == nil {
		return nil, errorsx.Wrap(ErrInvalidZoomRegistry, "reason", "no zoom registry", "styleId", b.id)
	}

	stylesheet := &Stylesheet{
		id:            b.id,
		baseDir:       b.baseDir,
		zoomRegistry:  b.zoomRegistry,
		mapBackground: b.mapBackground,
		seaBackground: b.seaBackground,
		rules:         b.rules,
		rulesByType:   make(map[ownmap.GeometryType][]*Rule),
		rulesByTag:    make(map[ownmap.GeometryType]map[string][]*Rule),
		resolved:      make([]map[string]*ResolvedStyle, len(b.rules)),
	}

	zoomLevelNames := b.zoomRegistry.ZoomLevelNames()

	for _, rule := range b.rules {
		stylesheet.rulesByType[rule.GeometryType] = append(stylesheet.rulesByType[rule.GeometryType], rule)

		byTag, ok := stylesheet.rulesByTag[rule.GeometryType]
		if !ok {
			byTag = make(map[string][]*Rule)
			stylesheet.rulesByTag[rule.GeometryType] = byTag
		}
		byTag[rule.Condition.TagName] = append(byTag[rule.Condition.TagName], rule)

		resolvedByZoom := make(map[string]*ResolvedStyle, len(zoomLevelNames))
		for _, zoomLevelName := range zoomLevelNames {
			resolvedByZoom[zoomLevelName] = newResolvedStyle(Resolve(rule, zoomLevelName))
		}
		stylesheet.resolved[rule.Index] = resolvedByZoom
	}

	// the builder must not be able to mutate the built stylesheet
	b.rules = nil
	b.identities = make(map[string]*Rule)

	return stylesheet, nil
}
