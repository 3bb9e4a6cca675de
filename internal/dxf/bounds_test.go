package dxf

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func fp(v float64) *float64 { return &v }
func sp(s string) *string   { return &s }
func ip(v int) *int         { return &v }
func bp(v bool) *bool       { return &v }

func TestBoundsOf_EmptyDrawing(t *testing.T) {
	b := BoundsOf(Drawing{Title: "empty"})

	assert.Equal(t, Bounds{MinX: 0, MinY: 0, MaxX: 100, MaxY: 100, Width: 100, Height: 100}, b)
}

func TestBoundsOf_Line(t *testing.T) {
	d := Drawing{Lines: []Line{{StartX: fp(-5), StartY: fp(2), EndX: fp(30), EndY: fp(12)}}}

	b := BoundsOf(d)

	assert.Equal(t, -5.0, b.MinX)
	assert.Equal(t, 2.0, b.MinY)
	assert.Equal(t, 30.0, b.MaxX)
	assert.Equal(t, 12.0, b.MaxY)
	assert.Equal(t, 35.0, b.Width)
	assert.Equal(t, 10.0, b.Height)
}

func TestBoundsOf_IncompleteLineUsesDefaults(t *testing.T) {
	// A line with everything missing still spans (0,0)-(10,0): the default
	// end X avoids a degenerate zero-area box.
	b := BoundsOf(Drawing{Lines: []Line{{}}})

	assert.Equal(t, 0.0, b.MinX)
	assert.Equal(t, 10.0, b.MaxX)
	assert.Equal(t, 10.0, b.Width)
}

func TestBoundsOf_ArcTreatedAsFullCircle(t *testing.T) {
	// A 0-90 degree arc still contributes center +/- radius on both axes.
	d := Drawing{Arcs: []Arc{{CenterX: fp(0), CenterY: fp(0), Radius: fp(20), StartAngle: fp(0), EndAngle: fp(90)}}}

	b := BoundsOf(d)

	assert.Equal(t, -20.0, b.MinX)
	assert.Equal(t, -20.0, b.MinY)
	assert.Equal(t, 20.0, b.MaxX)
	assert.Equal(t, 20.0, b.MaxY)
}

func TestBoundsOf_DimensionKinds(t *testing.T) {
	tests := []struct {
		name     string
		dim      Dimension
		wantMinX float64
		wantMaxX float64
	}{
		{
			name:     "linear_uses_measurement_points",
			dim:      Dimension{Type: DimLinear, P1: &Vec2{X: fp(5), Y: fp(0)}, P2: &Vec2{X: fp(55), Y: fp(0)}},
			wantMinX: 5,
			wantMaxX: 55,
		},
		{
			name:     "radius_uses_center_plus_radius",
			dim:      Dimension{Type: DimRadius, Center: &Vec2{X: fp(10), Y: fp(10)}, Radius: fp(8)},
			wantMinX: 2,
			wantMaxX: 18,
		},
		{
			name:     "angular_uses_center_plus_radius",
			dim:      Dimension{Type: DimAngular, Center: &Vec2{X: fp(0), Y: fp(0)}, Radius: fp(15)},
			wantMinX: -15,
			wantMaxX: 15,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := BoundsOf(Drawing{Dimensions: []Dimension{tt.dim}})
			assert.Equal(t, tt.wantMinX, b.MinX)
			assert.Equal(t, tt.wantMaxX, b.MaxX)
		})
	}
}

func TestBoundsOf_SplinePreferFitPoints(t *testing.T) {
	d := Drawing{Splines: []Spline{{
		ControlPoints: []SplinePoint{{X: fp(1000), Y: fp(1000)}},
		FitPoints:     []SplinePoint{{X: fp(1), Y: fp(2)}, {X: fp(3), Y: fp(4)}},
	}}}

	b := BoundsOf(d)

	// Fit points win when both lists are populated.
	assert.Equal(t, 3.0, b.MaxX)
	assert.Equal(t, 4.0, b.MaxY)
}

func TestBoundsOf_HatchAndMesh(t *testing.T) {
	d := Drawing{
		Hatches: []Hatch{{Boundaries: []HatchBoundary{{Vertices: []HatchVertex{
			{X: fp(-1), Y: fp(-2)}, {X: fp(7), Y: fp(3)},
		}}}}},
		Meshes: []Mesh{{Vertices: []MeshVertex{{X: fp(50), Y: fp(60), Z: fp(5)}}}},
	}

	b := BoundsOf(d)

	assert.Equal(t, -1.0, b.MinX)
	assert.Equal(t, -2.0, b.MinY)
	assert.Equal(t, 50.0, b.MaxX)
	assert.Equal(t, 60.0, b.MaxY)
}

func TestBoundsOf_Monotonic(t *testing.T) {
	base := Drawing{Lines: []Line{{StartX: fp(0), StartY: fp(0), EndX: fp(40), EndY: fp(40)}}}
	before := BoundsOf(base)

	grown := base
	grown.Circles = []Circle{{CenterX: fp(20), CenterY: fp(20), Radius: fp(5)}}
	after := BoundsOf(grown)

	// Adding an entity can only grow the box.
	assert.LessOrEqual(t, after.MinX, before.MinX)
	assert.LessOrEqual(t, after.MinY, before.MinY)
	assert.GreaterOrEqual(t, after.MaxX, before.MaxX)
	assert.GreaterOrEqual(t, after.MaxY, before.MaxY)
}
