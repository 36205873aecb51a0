package styling

import (
	"math"
	"sort"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/ownmap-styler/styling/selector"
)

// ZoomLevel is a named bucket of render scales (metres per pixel), covering [MinScale, MaxScale)
type ZoomLevel struct {
	Name     string  `json:"name"`
	MinScale float64 `json:"minScale"`
	MaxScale float64 `json:"maxScale"`
}

func (zl *ZoomLevel) Contains(scale float64) bool {
	return zl.MinScale <= scale && scale < zl.MaxScale
}

func (zl *ZoomLevel) distanceTo(scale float64) float64 {
	if scale < zl.MinScale {
		return zl.MinScale - scale
	}
	if scale >= zl.MaxScale {
		return scale - zl.MaxScale
	}
	return 0
}

type ScalePolicy int

const (
	// ScalePolicyFail returns ErrScaleOutOfRange when no zoom level covers the scale
	ScalePolicyFail ScalePolicy = iota
	// ScalePolicyClamp picks the zoom level nearest to the scale
	ScalePolicyClamp
)

func ParseScalePolicy(s string) (ScalePolicy, errorsx.Error) {
	switch s {
	case "fail":
		return ScalePolicyFail, nil
	case "clamp":
		return ScalePolicyClamp, nil
	default:
		return ScalePolicyFail, errorsx.Errorf("unknown scale policy: %q (expected 'fail' or 'clamp')", s)
	}
}

type ZoomRegistry struct {
	levels []*ZoomLevel
	byName map[string]*ZoomLevel
}

func NewZoomRegistry(levels []*ZoomLevel) (*ZoomRegistry, errorsx.Error) {
	if len(levels) == 0 {
		return nil, errorsx.Wrap(ErrInvalidZoomRegistry, "reason", "at least one zoom level must be declared")
	}

	registry := &ZoomRegistry{
		byName: make(map[string]*ZoomLevel),
	}

	for _, level := range levels {
		if level.Name == "" {
			return nil, errorsx.Wrap(ErrInvalidZoomRegistry, "reason", "zoom level without a name")
		}

		_, ok := registry.byName[level.Name]
		if ok {
			return nil, errorsx.Wrap(ErrInvalidZoomRegistry, "reason", "duplicate zoom level name", "zoomLevel", level.Name)
		}

		if math.IsNaN(level.MinScale) || math.IsNaN(level.MaxScale) || level.MinScale >= level.MaxScale {
			return nil, errorsx.Wrap(ErrInvalidZoomRegistry, "reason", "min scale must be lower than max scale", "zoomLevel", level.Name)
		}

		levelCopy := *level
		registry.levels = append(registry.levels, &levelCopy)
		registry.byName[level.Name] = &levelCopy
	}

	sortedByScale := make([]*ZoomLevel, len(registry.levels))
	copy(sortedByScale, registry.levels)
	sort.Slice(sortedByScale, func(a, b int) bool {
		return sortedByScale[a].MinScale < sortedByScale[b].MinScale
	})

	for i := 1; i < len(sortedByScale); i++ {
		previous, current := sortedByScale[i-1], sortedByScale[i]
		if previous.MaxScale > current.MinScale {
			return nil, errorsx.Wrap(ErrInvalidZoomRegistry, "reason", "overlapping scale ranges", "zoomLevel", current.Name, "overlaps", previous.Name)
		}
	}

	return registry, nil
}

func (zr *ZoomRegistry) ZoomLevelNames() []string {
	names := make([]string, len(zr.levels))
	for i, level := range zr.levels {
		names[i] = level.Name
	}
	return names
}

func (zr *ZoomRegistry) Levels() []ZoomLevel {
	levels := make([]ZoomLevel, len(zr.levels))
	for i, level := range zr.levels {
		levels[i] = *level
	}
	return levels
}

func (zr *ZoomRegistry) Get(name string) (ZoomLevel, bool) {
	level, ok := zr.byName[name]
	if !ok {
		return ZoomLevel{}, false
	}
	return *level, true
}

func (zr *ZoomRegistry) ResolveZoomLevel(scale float64) (ZoomLevel, errorsx.Error) {
	return zr.ResolveZoomLevelWithPolicy(scale, ScalePolicyFail)
}

func (zr *ZoomRegistry) ResolveZoomLevelWithPolicy(scale float64, policy ScalePolicy) (ZoomLevel, errorsx.Error) {
	if math.IsNaN(scale) {
		return ZoomLevel{}, errorsx.Wrap(ErrScaleOutOfRange, "scale", scale)
	}

	for _, level := range zr.levels {
		if level.Contains(scale) {
			return *level, nil
		}
	}

	if policy != ScalePolicyClamp {
		return ZoomLevel{}, errorsx.Wrap(ErrScaleOutOfRange, "scale", scale)
	}

	nearest := zr.levels[0]
	for _, level := range zr.levels[1:] {
		if level.distanceTo(scale) < nearest.distanceTo(scale) {
			nearest = level
		}
	}

	return *nearest, nil
}

func (zr *ZoomRegistry) ExpandRange(a, b string) ([]string, errorsx.Error) {
	return selector.ExpandRange(zr.ZoomLevelNames(), a, b)
}
