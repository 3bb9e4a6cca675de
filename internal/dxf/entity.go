// Package dxf is the drawing core: a structured intermediate representation
// for 2.5D CAD drawings, tolerant parsing of model-produced payloads, bounds
// and annotation-style inference, diff-based modification, and compilation of
// the IR into ezdxf Python source for the external render runtime.
//
// Everything in this package is pure: no I/O, no shared state, safe for
// concurrent use from multiple generation rounds.
package dxf

// Drawing is the root intermediate representation exchanged between the
// validator, modification engine, bounds/style inference and code generator.
// All eight collections are always non-nil after Parse or Apply; order within
// a collection only matters for index-based deletion.
type Drawing struct {
	Title      string      `json:"title"`
	Lines      []Line      `json:"lines"`
	Circles    []Circle    `json:"circles"`
	Arcs       []Arc       `json:"arcs"`
	Points     []Point     `json:"points"`
	Dimensions []Dimension `json:"dimensions"`
	Splines    []Spline    `json:"splines"`
	Hatches    []Hatch     `json:"hatches"`
	Meshes     []Mesh      `json:"meshes"`
}

// Entity fields are optional scalars: nil means "not specified". The IR
// stores exactly what the producer supplied; defaults are resolved at render
// time by the code generator, never at storage time.

// Line is a straight segment between two points.
type Line struct {
	StartX   *float64 `json:"startX"`
	StartY   *float64 `json:"startY"`
	EndX     *float64 `json:"endX"`
	EndY     *float64 `json:"endY"`
	Layer    *string  `json:"layer"`
	Color    *int     `json:"color"`
	Linetype *string  `json:"linetype"`
}

// Circle is a full circle around a center point.
type Circle struct {
	CenterX  *float64 `json:"centerX"`
	CenterY  *float64 `json:"centerY"`
	Radius   *float64 `json:"radius"`
	Layer    *string  `json:"layer"`
	Color    *int     `json:"color"`
	Linetype *string  `json:"linetype"`
}

// Arc is a circular arc; angles are in degrees, counter-clockwise.
type Arc struct {
	CenterX    *float64 `json:"centerX"`
	CenterY    *float64 `json:"centerY"`
	Radius     *float64 `json:"radius"`
	StartAngle *float64 `json:"startAngle"`
	EndAngle   *float64 `json:"endAngle"`
	Layer      *string  `json:"layer"`
	Color      *int     `json:"color"`
	Linetype   *string  `json:"linetype"`
}

// Point is a single point entity.
type Point struct {
	X     *float64 `json:"x"`
	Y     *float64 `json:"y"`
	Layer *string  `json:"layer"`
	Color *int     `json:"color"`
}

// Dimension measurement kinds.
const (
	DimLinear   = "linear"
	DimAligned  = "aligned"
	DimRadius   = "radius"
	DimDiameter = "diameter"
	DimAngular  = "angular"
	DimArc      = "arc"
)

// Vec2 is a 2D coordinate used by dimension geometry.
type Vec2 struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
}

// Dimension is an annotation measuring geometry. Which geometry fields are
// meaningful depends on Type: linear/aligned use P1/P2/Base/Distance,
// radius/diameter use Center/Radius/Angle, angular/arc use Center/Radius plus
// StartAngle/EndAngle.
type Dimension struct {
	Type       string   `json:"type"`
	P1         *Vec2    `json:"p1"`
	P2         *Vec2    `json:"p2"`
	Base       *Vec2    `json:"base"`
	Center     *Vec2    `json:"center"`
	Radius     *float64 `json:"radius"`
	Distance   *float64 `json:"distance"`
	Angle      *float64 `json:"angle"`
	StartAngle *float64 `json:"startAngle"`
	EndAngle   *float64 `json:"endAngle"`
	Text       *string  `json:"text"`
	Layer      *string  `json:"layer"`
	Color      *int     `json:"color"`
	Dimstyle   *string  `json:"dimstyle"`
}

// SplinePoint is a control or fit point; Z is optional for 2.5D input.
type SplinePoint struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
	Z *float64 `json:"z"`
}

// Spline is a freeform curve defined by either control points or fit points.
type Spline struct {
	ControlPoints []SplinePoint `json:"controlPoints"`
	FitPoints     []SplinePoint `json:"fitPoints"`
	Degree        *int          `json:"degree"`
	Closed        *bool         `json:"closed"`
	Layer         *string       `json:"layer"`
	Color         *int          `json:"color"`
	Linetype      *string       `json:"linetype"`
}

// HatchVertex is one vertex of a polyline boundary loop; Bulge encodes an
// optional arc segment to the next vertex.
type HatchVertex struct {
	X     *float64 `json:"x"`
	Y     *float64 `json:"y"`
	Bulge *float64 `json:"bulge"`
}

// HatchEdge is one segment of an edge-path boundary. Kind is "line", "arc" or
// "ellipse"; unused fields stay nil.
type HatchEdge struct {
	Kind       string   `json:"kind"`
	StartX     *float64 `json:"startX"`
	StartY     *float64 `json:"startY"`
	EndX       *float64 `json:"endX"`
	EndY       *float64 `json:"endY"`
	CenterX    *float64 `json:"centerX"`
	CenterY    *float64 `json:"centerY"`
	Radius     *float64 `json:"radius"`
	MajorX     *float64 `json:"majorX"`
	MajorY     *float64 `json:"majorY"`
	Ratio      *float64 `json:"ratio"`
	StartAngle *float64 `json:"startAngle"`
	EndAngle   *float64 `json:"endAngle"`
}

// HatchBoundary is one boundary path of a hatch: either a vertex loop or an
// edge list, never both.
type HatchBoundary struct {
	Vertices []HatchVertex `json:"vertices"`
	Edges    []HatchEdge   `json:"edges"`
	External *bool         `json:"external"`
}

// Hatch is a pattern-filled region bounded by one or more paths.
type Hatch struct {
	Boundaries   []HatchBoundary `json:"boundaries"`
	Pattern      *string         `json:"pattern"`
	PatternScale *float64        `json:"patternScale"`
	PatternAngle *float64        `json:"patternAngle"`
	Layer        *string         `json:"layer"`
}

// MeshVertex is a 3D mesh vertex.
type MeshVertex struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
	Z *float64 `json:"z"`
}

// Mesh is a polygon mesh given as vertices plus faces of vertex indices.
type Mesh struct {
	Vertices         []MeshVertex `json:"vertices"`
	Faces            [][]int      `json:"faces"`
	SubdivisionLevel *int         `json:"subdivisionLevel"`
	Layer            *string      `json:"layer"`
	Color            *int         `json:"color"`
}

// EntityCount returns the total number of entities across all eight
// collections.
func (d *Drawing) EntityCount() int {
	return len(d.Lines) + len(d.Circles) + len(d.Arcs) + len(d.Points) +
		len(d.Dimensions) + len(d.Splines) + len(d.Hatches) + len(d.Meshes)
}

// normalizeCollections replaces nil collections with empty slices so a
// Drawing coming out of the core always satisfies the presence invariant.
func (d *Drawing) normalizeCollections() {
	if d.Lines == nil {
		d.Lines = []Line{}
	}
	if d.Circles == nil {
		d.Circles = []Circle{}
	}
	if d.Arcs == nil {
		d.Arcs = []Arc{}
	}
	if d.Points == nil {
		d.Points = []Point{}
	}
	if d.Dimensions == nil {
		d.Dimensions = []Dimension{}
	}
	if d.Splines == nil {
		d.Splines = []Spline{}
	}
	if d.Hatches == nil {
		d.Hatches = []Hatch{}
	}
	if d.Meshes == nil {
		d.Meshes = []Mesh{}
	}
}
