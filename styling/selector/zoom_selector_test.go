package selector

import (
	"strconv"
	"testing"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockZoomLevelLister []string

func (l mockZoomLevelLister) ZoomLevelNames() []string {
	return l
}

func numberedZoomLevels(count int) mockZoomLevelLister {
	var names mockZoomLevelLister
	for i := 0; i < count; i++ {
		names = append(names, strconv.Itoa(i))
	}
	return names
}

func TestParseZoomSelector(t *testing.T) {
	registry := numberedZoomLevels(18)

	tests := []struct {
		name    string
		raw     string
		want    []string
		wantAll bool
	}{
		{"all", "all", []string(registry), true},
		{"single level", "3", []string{"3"}, false},
		{"list in declaration order", "5, 3", []string{"3", "5"}, false},
		{"range", "0-4", []string{"0", "1", "2", "3", "4"}, false},
		{"range with whitespace", " 2 - 3 ", []string{"2", "3"}, false},
		{"range and list", "0-1, 16,17", []string{"0", "1", "16", "17"}, false},
		{"overlapping items", "1-3, 2", []string{"1", "2", "3"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseZoomSelector(tt.raw, registry)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Names)
			assert.Equal(t, tt.wantAll, got.All)
			for _, name := range tt.want {
				assert.True(t, got.Contains(name))
			}
		})
	}
}

func TestParseZoomSelector_errors(t *testing.T) {
	registry := numberedZoomLevels(18)

	tests := []struct {
		name      string
		raw       string
		wantCause error
	}{
		{"unknown level", "18", ErrUnknownZoomLevel},
		{"unknown range start", "x-3", ErrUnknownZoomLevel},
		{"reversed range", "4-0", ErrInvalidRange},
		{"all is case-sensitive", "ALL", ErrUnknownZoomLevel},
		{"empty", "", ErrMalformedSelector},
		{"dangling range", "3-", ErrMalformedSelector},
		{"dangling comma", "3,", ErrMalformedSelector},
		{"double range", "1-2-3", ErrMalformedSelector},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseZoomSelector(tt.raw, registry)
			require.Error(t, err)
			assert.Equal(t, tt.wantCause, errorsx.Cause(err))
		})
	}
}

func TestExpandRange(t *testing.T) {
	registry := numberedZoomLevels(18)

	names, err := ExpandRange(registry, "0", "4")
	require.NoError(t, err)
	assert.Equal(t, []string{"0", "1", "2", "3", "4"}, names)

	names, err = ExpandRange(registry, "7", "7")
	require.NoError(t, err)
	assert.Equal(t, []string{"7"}, names)

	_, err = ExpandRange(registry, "4", "0")
	require.Error(t, err)
	assert.Equal(t, ErrInvalidRange, errorsx.Cause(err))
}

func TestZoomRangeSelector_Contains(t *testing.T) {
	selector, err := ParseZoomSelector("2-3", mockZoomLevelLister{"near", "2", "3", "far"})
	require.NoError(t, err)

	assert.False(t, selector.Contains("near"))
	assert.True(t, selector.Contains("2"))
	assert.True(t, selector.Contains("3"))
	assert.False(t, selector.Contains("far"))
	assert.Equal(t, "2,3", selector.String())
}
