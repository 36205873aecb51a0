package selector

import (
	"testing"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/ownmap-styler/ownmap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTagCondition(t *testing.T) {
	type args struct {
		tagName string
		raw     string
	}
	tests := []struct {
		name string
		args args
		want []*TagCondition
	}{
		{
			name: "single value",
			args: args{"highway", "motorway"},
			want: []*TagCondition{
				{TagName: "highway", TagValue: "motorway"},
			},
		}, {
			name: "or group with whitespace",
			args: args{"highway", " motorway ,trunk,  primary_link "},
			want: []*TagCondition{
				{TagName: "highway", TagValue: "motorway"},
				{TagName: "highway", TagValue: "trunk"},
				{TagName: "highway", TagValue: "primary_link"},
			},
		}, {
			name: "bracket conditions separated by comma are a conjunction",
			args: args{"boundary", "administrative[admin_level=1, admin_level=2]"},
			want: []*TagCondition{
				{
					TagName:  "boundary",
					TagValue: "administrative",
					Extra: []ownmap.TagPair{
						{Key: "admin_level", Value: "1"},
						{Key: "admin_level", Value: "2"},
					},
				},
			},
		}, {
			name: "bracket conditions separated by ampersand",
			args: args{"highway", "primary[bridge=yes&layer=1], secondary"},
			want: []*TagCondition{
				{
					TagName:  "highway",
					TagValue: "primary",
					Extra: []ownmap.TagPair{
						{Key: "bridge", Value: "yes"},
						{Key: "layer", Value: "1"},
					},
				},
				{TagName: "highway", TagValue: "secondary"},
			},
		}, {
			name: "boolean spellings",
			args: args{"building", "True[disused=False]"},
			want: []*TagCondition{
				{
					TagName:  "building",
					TagValue: "yes",
					Extra:    []ownmap.TagPair{{Key: "disused", Value: "no"}},
				},
			},
		}, {
			name: "value with inner space",
			args: args{"name", "Bus Stop"},
			want: []*TagCondition{
				{TagName: "name", TagValue: "Bus Stop"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTagCondition(tt.args.tagName, tt.args.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseTagCondition_malformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"dangling comma", "motorway,"},
		{"leading comma", ",motorway"},
		{"unclosed bracket", "administrative[admin_level=2"},
		{"empty brackets", "administrative[]"},
		{"condition without value", "administrative[admin_level=]"},
		{"condition without equals", "administrative[admin_level]"},
		{"text after brackets", "administrative[admin_level=2]x"},
		{"stray close bracket", "motorway]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTagCondition("highway", tt.raw)
			require.Error(t, err)
			assert.Equal(t, ErrMalformedSelector, errorsx.Cause(err))
		})
	}
}

func TestTagCondition_Matches(t *testing.T) {
	conditions, err := ParseTagCondition("boundary", "administrative[admin_level=1, admin_level=2]")
	require.NoError(t, err)
	require.Len(t, conditions, 1)

	condition := conditions[0]

	assert.False(t, condition.Matches(ownmap.TagMap{"boundary": "administrative", "admin_level": "1"}))
	assert.False(t, condition.Matches(ownmap.TagMap{"boundary": "administrative", "admin_level": "2"}))
	assert.False(t, condition.Matches(ownmap.TagMap{"boundary": "administrative"}))

	conditions, err = ParseTagCondition("boundary", "administrative[admin_level=2]")
	require.NoError(t, err)

	assert.True(t, conditions[0].Matches(ownmap.TagMap{"boundary": "administrative", "admin_level": "2", "name": "x"}))
	assert.False(t, conditions[0].Matches(ownmap.TagMap{"boundary": "maritime", "admin_level": "2"}))
}

func TestTagCondition_Identity(t *testing.T) {
	a, err := ParseTagCondition("highway", "primary[layer=1&bridge=yes]")
	require.NoError(t, err)

	b, err := ParseTagCondition("highway", "primary[bridge=yes, layer=1]")
	require.NoError(t, err)

	assert.Equal(t, "highway=primary[bridge=yes&layer=1]", a[0].Identity())
	assert.Equal(t, a[0].Identity(), b[0].Identity())
	assert.Equal(t, "highway=primary[layer=1&bridge=yes]", a[0].String())
}
