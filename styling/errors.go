package styling

import (
	"errors"

	"github.com/jamesrr39/ownmap-styler/styling/selector"
)

// load-time errors. A stylesheet returning any of these is rejected as a whole.
var (
	ErrMalformedSelector     = selector.ErrMalformedSelector
	ErrUnknownZoomLevel      = selector.ErrUnknownZoomLevel
	ErrInvalidRange          = selector.ErrInvalidRange
	ErrDuplicateRuleIdentity = errors.New("duplicate rule identity")
	ErrInvalidZoomRegistry   = errors.New("invalid zoom registry")
	ErrInvalidAttribute      = errors.New("invalid attribute")
)

// render-time errors
var (
	ErrScaleOutOfRange       = errors.New("scale out of range")
	ErrUnresolvedFeatureRule = errors.New("no rule found for feature")
)
