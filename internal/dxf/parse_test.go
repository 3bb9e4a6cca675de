package dxf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_WrappedInProse(t *testing.T) {
	raw := "Sure! Here's your drawing: ```json {\"title\": \"x\", \"lines\": [{\"startX\":0}]}``` Hope that helps!"

	d := Parse(raw)

	assert.Equal(t, "x", d.Title)
	require.Len(t, d.Lines, 1)
	require.NotNil(t, d.Lines[0].StartX)
	assert.Equal(t, 0.0, *d.Lines[0].StartX)
	assert.Nil(t, d.Lines[0].StartY)
	assert.Nil(t, d.Lines[0].EndX)
	assert.Nil(t, d.Lines[0].EndY)
	assert.Nil(t, d.Lines[0].Layer)
}

func TestParse_AllCollectionsPresent(t *testing.T) {
	d := Parse(`{"title": "minimal", "lines": []}`)

	assert.Equal(t, "minimal", d.Title)
	assert.NotNil(t, d.Lines)
	assert.NotNil(t, d.Circles)
	assert.NotNil(t, d.Arcs)
	assert.NotNil(t, d.Points)
	assert.NotNil(t, d.Dimensions)
	assert.NotNil(t, d.Splines)
	assert.NotNil(t, d.Hatches)
	assert.NotNil(t, d.Meshes)
}

func TestParse_Fallback(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty_input", ""},
		{"no_object", "I could not generate a drawing, sorry."},
		{"unbalanced_braces", `{"title": "x", "lines": [`},
		{"not_an_object_shape", `{"foo": 1}`},
		{"array_payload", `please see [1, 2, 3]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Parse(tt.raw)

			// Degraded but valid: one placeholder line, everything else empty.
			require.Len(t, d.Lines, 1)
			assert.Equal(t, 1, d.EntityCount())
			assert.NotEmpty(t, d.Title)
			assert.NotNil(t, d.Dimensions)
		})
	}
}

func TestParse_ExplicitNullsPreserved(t *testing.T) {
	d := Parse(`{"title": "t", "lines": [{"startX": null, "endX": 5}]}`)

	require.Len(t, d.Lines, 1)
	assert.Nil(t, d.Lines[0].StartX)
	require.NotNil(t, d.Lines[0].EndX)
	assert.Equal(t, 5.0, *d.Lines[0].EndX)
}

func TestParse_BraceInsideString(t *testing.T) {
	d := Parse(`{"title": "curly } brace", "lines": []}`)

	assert.Equal(t, "curly } brace", d.Title)
	assert.Empty(t, d.Lines)
}

func TestParse_FullEntitySet(t *testing.T) {
	raw := `{
		"title": "kitchen sink",
		"lines": [{"startX": 0, "startY": 0, "endX": 100, "endY": 0, "layer": "WALLS"}],
		"circles": [{"centerX": 50, "centerY": 50, "radius": 10}],
		"arcs": [{"centerX": 0, "centerY": 0, "radius": 5, "startAngle": 0, "endAngle": 90}],
		"points": [{"x": 1, "y": 2}],
		"dimensions": [{"type": "linear", "p1": {"x": 0, "y": 0}, "p2": {"x": 100, "y": 0}, "base": {"x": 50, "y": -10}}],
		"splines": [{"fitPoints": [{"x": 0, "y": 0}, {"x": 5, "y": 5}, {"x": 10, "y": 0}]}],
		"hatches": [{"boundaries": [{"vertices": [{"x": 0, "y": 0}, {"x": 10, "y": 0}, {"x": 10, "y": 10}]}], "pattern": "ANSI31"}],
		"meshes": [{"vertices": [{"x": 0, "y": 0, "z": 0}, {"x": 1, "y": 0, "z": 0}, {"x": 0, "y": 1, "z": 1}], "faces": [[0, 1, 2]]}]
	}`

	d := Parse(raw)

	assert.Equal(t, "kitchen sink", d.Title)
	assert.Equal(t, 8, d.EntityCount())
	assert.Equal(t, DimLinear, d.Dimensions[0].Type)
	require.NotNil(t, d.Lines[0].Layer)
	assert.Equal(t, "WALLS", *d.Lines[0].Layer)
}

func TestParsePatch(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		expectError bool
	}{
		{
			name: "valid_patch",
			raw:  `Here is the change: {"delete": {"lines": [0]}, "add": {"title": "", "circles": [{"radius": 4}]}}`,
		},
		{
			name: "empty_sections",
			raw:  `{"delete": {}, "add": {}}`,
		},
		{
			name:        "missing_delete",
			raw:         `{"add": {"title": "x"}}`,
			expectError: true,
		},
		{
			name:        "missing_add",
			raw:         `{"delete": {"lines": [1]}}`,
			expectError: true,
		},
		{
			name:        "no_object",
			raw:         "cannot help with that",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ParsePatch(tt.raw)

			if tt.expectError {
				assert.ErrorIs(t, err, ErrInvalidPatch)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, p.Delete)
			require.NotNil(t, p.Add)
			assert.NotNil(t, p.Add.Lines)
		})
	}
}
