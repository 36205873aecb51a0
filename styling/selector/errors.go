package selector

import (
	"errors"

	"github.com/jamesrr39/goutil/errorsx"
)

var (
	ErrMalformedSelector = errors.New("malformed selector")
	ErrUnknownZoomLevel  = errors.New("unknown zoom level")
	ErrInvalidRange      = errors.New("invalid zoom level range")
)

func malformed(raw string, t token, reason string) errorsx.Error {
	return errorsx.Wrap(ErrMalformedSelector, "selector", raw, "position", t.Position, "found", t.describe(), "reason", reason)
}
