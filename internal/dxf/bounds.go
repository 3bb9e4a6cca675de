package dxf

import "math"

// Bounds is the axis-aligned bounding box of a drawing.
type Bounds struct {
	MinX   float64 `json:"min_x"`
	MinY   float64 `json:"min_y"`
	MaxX   float64 `json:"max_x"`
	MaxY   float64 `json:"max_y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Defaults used only while computing bounds for incomplete geometry. A line
// with no end point still contributes a 10-unit extent so a half-specified
// drawing never collapses to a zero-area box.
const (
	boundsDefaultCoord  = 0.0
	boundsDefaultEndX   = 10.0
	boundsDefaultRadius = 10.0
)

// BoundsOf computes the bounding box of every entity in the drawing. Arcs are
// treated as full circles: the style inference downstream wants a generous
// estimate, not a tight arc-sweep bound. A drawing with no contributing
// entities yields the fixed (0,0)-(100,100) box so the result is always
// finite and positive.
func BoundsOf(d Drawing) Bounds {
	acc := newExtent()

	for _, l := range d.Lines {
		acc.add(coord(l.StartX, boundsDefaultCoord), coord(l.StartY, boundsDefaultCoord))
		acc.add(coord(l.EndX, boundsDefaultEndX), coord(l.EndY, boundsDefaultCoord))
	}
	for _, c := range d.Circles {
		acc.addCircle(coord(c.CenterX, boundsDefaultCoord), coord(c.CenterY, boundsDefaultCoord), coord(c.Radius, boundsDefaultRadius))
	}
	for _, a := range d.Arcs {
		acc.addCircle(coord(a.CenterX, boundsDefaultCoord), coord(a.CenterY, boundsDefaultCoord), coord(a.Radius, boundsDefaultRadius))
	}
	for _, p := range d.Points {
		acc.add(coord(p.X, boundsDefaultCoord), coord(p.Y, boundsDefaultCoord))
	}
	for _, dim := range d.Dimensions {
		switch dim.Type {
		case DimLinear, DimAligned:
			if dim.P1 != nil {
				acc.add(coord(dim.P1.X, boundsDefaultCoord), coord(dim.P1.Y, boundsDefaultCoord))
			}
			if dim.P2 != nil {
				acc.add(coord(dim.P2.X, boundsDefaultCoord), coord(dim.P2.Y, boundsDefaultCoord))
			}
		default:
			if dim.Center != nil {
				acc.addCircle(coord(dim.Center.X, boundsDefaultCoord), coord(dim.Center.Y, boundsDefaultCoord), coord(dim.Radius, boundsDefaultRadius))
			}
		}
	}
	for _, s := range d.Splines {
		pts := s.ControlPoints
		if len(s.FitPoints) > 0 {
			pts = s.FitPoints
		}
		for _, p := range pts {
			acc.add(coord(p.X, boundsDefaultCoord), coord(p.Y, boundsDefaultCoord))
		}
	}
	for _, h := range d.Hatches {
		for _, b := range h.Boundaries {
			for _, v := range b.Vertices {
				acc.add(coord(v.X, boundsDefaultCoord), coord(v.Y, boundsDefaultCoord))
			}
			for _, e := range b.Edges {
				if e.StartX != nil || e.StartY != nil {
					acc.add(coord(e.StartX, boundsDefaultCoord), coord(e.StartY, boundsDefaultCoord))
				}
				if e.EndX != nil || e.EndY != nil {
					acc.add(coord(e.EndX, boundsDefaultCoord), coord(e.EndY, boundsDefaultCoord))
				}
				if e.CenterX != nil || e.CenterY != nil {
					acc.addCircle(coord(e.CenterX, boundsDefaultCoord), coord(e.CenterY, boundsDefaultCoord), coord(e.Radius, boundsDefaultRadius))
				}
			}
		}
	}
	for _, m := range d.Meshes {
		for _, v := range m.Vertices {
			acc.add(coord(v.X, boundsDefaultCoord), coord(v.Y, boundsDefaultCoord))
		}
	}

	if !acc.touched {
		return Bounds{MinX: 0, MinY: 0, MaxX: 100, MaxY: 100, Width: 100, Height: 100}
	}
	return Bounds{
		MinX:   acc.minX,
		MinY:   acc.minY,
		MaxX:   acc.maxX,
		MaxY:   acc.maxY,
		Width:  acc.maxX - acc.minX,
		Height: acc.maxY - acc.minY,
	}
}

func coord(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

type extent struct {
	minX, minY, maxX, maxY float64
	touched                bool
}

func newExtent() *extent {
	return &extent{
		minX: math.Inf(1), minY: math.Inf(1),
		maxX: math.Inf(-1), maxY: math.Inf(-1),
	}
}

func (e *extent) add(x, y float64) {
	e.touched = true
	e.minX = math.Min(e.minX, x)
	e.minY = math.Min(e.minY, y)
	e.maxX = math.Max(e.maxX, x)
	e.maxY = math.Max(e.maxY, y)
}

func (e *extent) addCircle(cx, cy, r float64) {
	e.add(cx-r, cy-r)
	e.add(cx+r, cy+r)
}
