package dxf

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Deterministic(t *testing.T) {
	d := Parse(`{
		"title": "Bracket Plate",
		"lines": [{"startX": 0, "startY": 0, "endX": 200, "endY": 0, "layer": "OUTLINE"}],
		"circles": [{"centerX": 100, "centerY": 50, "radius": 12, "layer": "HOLES"}],
		"dimensions": [{"type": "linear", "p1": {"x": 0, "y": 0}, "p2": {"x": 200, "y": 0}, "base": {"x": 100, "y": -20}, "layer": "DIMS"}]
	}`)

	first := Generate(d, DefaultOptions())
	second := Generate(d, DefaultOptions())

	assert.Equal(t, first, second)
}

func TestGenerate_DocumentSetup(t *testing.T) {
	code := Generate(Drawing{Title: "t"}, DefaultOptions())

	assert.Contains(t, code, `doc = ezdxf.new("R2010", setup=True)`)
	assert.Contains(t, code, "doc.units = units.MM")
	assert.Contains(t, code, "msp = doc.modelspace()")
}

func TestGenerate_DimstyleUsesInferredTier(t *testing.T) {
	// 5000 units wide selects the 25mm text tier.
	big := Drawing{Lines: []Line{{StartX: fp(0), StartY: fp(0), EndX: fp(5000), EndY: fp(0)}}}

	code := Generate(big, DefaultOptions())

	assert.Contains(t, code, "dimstyle.dxf.dimtxt = 25")
	assert.Contains(t, code, "dimstyle.dxf.dimasz = 12.5")
	assert.Contains(t, code, "dimstyle.dxf.dimgap = 10")
	assert.Contains(t, code, "dimstyle.dxf.dimexo = 6.25")
	assert.Contains(t, code, "dimstyle.dxf.dimexe = 12.5")
	// The render-critical settings are always present.
	assert.Contains(t, code, "dimstyle.dxf.dimtad = 1")
	assert.Contains(t, code, "dimstyle.dxf.dimse1 = 0")
}

func TestGenerate_LayersBeforeEntities(t *testing.T) {
	d := Drawing{
		Lines:   []Line{{Layer: sp("WALLS")}, {Layer: sp("WALLS")}},
		Circles: []Circle{{Layer: sp("AXES")}},
	}

	code := Generate(d, DefaultOptions())

	// One idempotent declaration per distinct layer.
	assert.Equal(t, 1, strings.Count(code, `if "WALLS" not in doc.layers:`))
	assert.Equal(t, 1, strings.Count(code, `if "AXES" not in doc.layers:`))
	assert.Less(t, strings.Index(code, `doc.layers.add("WALLS")`), strings.Index(code, "msp.add_line"))
}

func TestGenerate_KindOrder(t *testing.T) {
	d := Parse(`{
		"title": "order",
		"lines": [{"startX": 0}],
		"circles": [{"radius": 1}],
		"arcs": [{"radius": 1}],
		"points": [{"x": 0, "y": 0}],
		"dimensions": [{"type": "linear"}],
		"splines": [{"fitPoints": [{"x": 0, "y": 0}, {"x": 1, "y": 1}]}],
		"hatches": [{"boundaries": [{"vertices": [{"x": 0, "y": 0}, {"x": 1, "y": 0}, {"x": 1, "y": 1}]}]}],
		"meshes": [{"vertices": [{"x": 0, "y": 0, "z": 0}], "faces": [[0]]}]
	}`)

	code := Generate(d, DefaultOptions())

	markers := []string{
		"msp.add_line(",
		"msp.add_circle(",
		"msp.add_arc(",
		"msp.add_point(",
		"msp.add_linear_dim(",
		"msp.add_spline(",
		"msp.add_hatch(",
		"msp.add_mesh(",
	}
	last := -1
	for _, m := range markers {
		idx := strings.Index(code, m)
		require.GreaterOrEqual(t, idx, 0, "missing statement %s", m)
		assert.Greater(t, idx, last, "%s out of order", m)
		last = idx
	}
}

func TestGenerate_DimensionsAlwaysRendered(t *testing.T) {
	d := Parse(`{
		"title": "dims",
		"lines": [],
		"dimensions": [
			{"type": "linear", "p1": {"x": 0, "y": 0}, "p2": {"x": 50, "y": 0}},
			{"type": "aligned", "p1": {"x": 0, "y": 0}, "p2": {"x": 30, "y": 40}},
			{"type": "radius", "center": {"x": 10, "y": 10}, "radius": 5},
			{"type": "diameter", "center": {"x": 10, "y": 10}, "radius": 5},
			{"type": "angular", "center": {"x": 0, "y": 0}, "radius": 8, "startAngle": 0, "endAngle": 45},
			{"type": "arc", "center": {"x": 0, "y": 0}, "radius": 8, "startAngle": 10, "endAngle": 80}
		]
	}`)

	code := Generate(d, DefaultOptions())

	// Every creation statement is followed by its render call.
	assert.Equal(t, 6, strings.Count(code, "dim.render()"))
	creations := strings.Count(code, "dim = msp.add_")
	assert.Equal(t, 6, creations)

	// No render precedes its own creation statement.
	rest := code
	for i := 0; i < 6; i++ {
		create := strings.Index(rest, "dim = msp.add_")
		render := strings.Index(rest, "dim.render()")
		require.GreaterOrEqual(t, create, 0)
		require.Greater(t, render, create)
		rest = rest[render+len("dim.render()"):]
	}
}

func TestGenerate_DimensionTextOverride(t *testing.T) {
	d := Drawing{Dimensions: []Dimension{{
		Type: DimLinear,
		P1:   &Vec2{X: fp(0), Y: fp(0)},
		P2:   &Vec2{X: fp(100), Y: fp(0)},
		Text: sp("100 TYP"),
	}}}

	code := Generate(d, DefaultOptions())

	assert.Contains(t, code, `text="100 TYP"`)
}

func TestGenerate_EmptyDrawingPlaceholder(t *testing.T) {
	code := Generate(Drawing{Title: "t"}, DefaultOptions())

	assert.Equal(t, 1, strings.Count(code, "msp.add_line("))
	assert.Contains(t, code, "msp.add_line((0, 0), (10, 0))")
	assert.Contains(t, code, `doc.saveas("t.dxf")`)
}

func TestGenerate_MissingFieldsResolveToDefaults(t *testing.T) {
	d := Drawing{
		Circles: []Circle{{}}, // no center, no radius
		Lines:   []Line{{}},   // nothing at all
	}

	code := Generate(d, DefaultOptions())

	assert.Contains(t, code, "msp.add_circle((0, 0), radius=10)")
	assert.Contains(t, code, "msp.add_line((0, 0), (10, 0))")
	// Missing layer: no dxfattribs at all rather than an invalid reference.
	assert.NotContains(t, code, "dxfattribs={}")
	assert.NotContains(t, code, `"layer": ""`)
}

func TestGenerate_HatchBoundaries(t *testing.T) {
	d := Drawing{Hatches: []Hatch{{
		Pattern:      sp("STEEL"),
		PatternScale: fp(2),
		PatternAngle: fp(45),
		Layer:        sp("HATCH"),
		Boundaries: []HatchBoundary{
			{Vertices: []HatchVertex{{X: fp(0), Y: fp(0)}, {X: fp(10), Y: fp(0), Bulge: fp(0.5)}, {X: fp(10), Y: fp(10)}}},
			{External: bp(false), Edges: []HatchEdge{
				{Kind: "line", StartX: fp(2), StartY: fp(2), EndX: fp(4), EndY: fp(2)},
				{Kind: "arc", CenterX: fp(3), CenterY: fp(2), Radius: fp(1), StartAngle: fp(0), EndAngle: fp(180)},
			}},
		},
	}}}

	code := Generate(d, DefaultOptions())

	assert.Contains(t, code, `hatch.set_pattern_fill("STEEL", scale=2, angle=45)`)
	assert.Contains(t, code, "hatch.paths.add_polyline_path([(0, 0, 0), (10, 0, 0.5), (10, 10, 0)], is_closed=True, flags=1)")
	assert.Contains(t, code, "path = hatch.paths.add_edge_path(flags=0)")
	assert.Contains(t, code, "path.add_line((2, 2), (4, 2))")
	assert.Contains(t, code, "path.add_arc((3, 2), radius=1, start_angle=0, end_angle=180)")
}

func TestGenerate_Mesh(t *testing.T) {
	d := Drawing{Meshes: []Mesh{{
		Vertices:         []MeshVertex{{X: fp(0), Y: fp(0), Z: fp(0)}, {X: fp(1), Y: fp(0), Z: fp(0)}, {X: fp(0), Y: fp(1), Z: fp(2)}},
		Faces:            [][]int{{0, 1, 2}},
		SubdivisionLevel: ip(2),
	}}}

	code := Generate(d, DefaultOptions())

	assert.Contains(t, code, "mesh.dxf.subdivision_levels = 2")
	assert.Contains(t, code, "mesh_data.vertices = [(0, 0, 0), (1, 0, 0), (0, 1, 2)]")
	assert.Contains(t, code, "mesh_data.faces = [[0, 1, 2]]")
}

func TestGenerate_SplineVariants(t *testing.T) {
	d := Drawing{Splines: []Spline{
		{FitPoints: []SplinePoint{{X: fp(0), Y: fp(0)}, {X: fp(5), Y: fp(5)}}},
		{ControlPoints: []SplinePoint{{X: fp(0), Y: fp(0)}, {X: fp(1), Y: fp(1)}}, Degree: ip(2)},
		{ControlPoints: []SplinePoint{{X: fp(0), Y: fp(0)}, {X: fp(1), Y: fp(1)}}, Closed: bp(true)},
	}}

	code := Generate(d, DefaultOptions())

	assert.Contains(t, code, "msp.add_spline(fit_points=[(0, 0, 0), (5, 5, 0)], degree=3)")
	assert.Contains(t, code, "msp.add_open_spline(control_points=[(0, 0, 0), (1, 1, 0)], degree=2)")
	assert.Contains(t, code, "msp.add_closed_spline(control_points=[(0, 0, 0), (1, 1, 0)], degree=3)")
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{"simple", "Bracket", "bracket"},
		{"spaces_to_underscores", "Steel Beam Detail", "steel_beam_detail"},
		{"specials_stripped", "Plan #3 (rev. B)!", "plan_3_rev_b"},
		{"collapse_runs", "a   -  b", "a_b"},
		{"all_specials", "@#$%^", ""},
		{"empty", "", ""},
		{"unicode_dropped", "Grundriß 1", "grundri_1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeFilename(tt.title))
		})
	}
}

func TestGenerate_FallbackFilename(t *testing.T) {
	code := Generate(Drawing{Title: "!!!"}, DefaultOptions())

	assert.Contains(t, code, `doc.saveas("drawing.dxf")`)
}

func TestGenerate_SaveIsLastStatement(t *testing.T) {
	d := Parse(`{"title": "Last", "lines": [{"startX": 0}]}`)

	code := Generate(d, DefaultOptions())

	lines := strings.Split(strings.TrimSpace(code), "\n")
	assert.Equal(t, `doc.saveas("last.dxf")`, lines[len(lines)-1])
}
