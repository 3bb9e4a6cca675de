package dxf

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Options carries the document-level settings the code generator needs. The
// original system read these from a page-level settings store; here they are
// an explicit argument so the generator stays pure and testable.
type Options struct {
	// DXF document version, e.g. "R2010".
	Version string
	// Drawing units constant from ezdxf.units, e.g. "MM".
	Units string
	// Name of the dimension style configured from the inferred Style.
	DimstyleName string
	// Filename stem used when the drawing title sanitizes to empty.
	FallbackName string
}

// DefaultOptions are the settings used by the service for every render round.
func DefaultOptions() Options {
	return Options{
		Version:      "R2010",
		Units:        "MM",
		DimstyleName: "STRUCTURAL",
		FallbackName: "drawing",
	}
}

// Render-time defaults for optional geometry the producer left unspecified.
// These only affect the emitted program; the IR itself is never rewritten.
const (
	genDefaultEndX     = 10.0
	genDefaultRadius   = 10.0
	genDefaultDistance = 5.0
	genDefaultAngle    = 45.0
	genDefaultEndAngle = 90.0
	genDefaultBaseY    = 10.0
)

// Generate compiles a drawing into ezdxf Python source for the render
// runtime. The output is deterministic: the same drawing always yields
// byte-identical text. Statement order is a contract with the runtime:
// document setup, dimension style, layers, then entities grouped by kind
// (lines, circles, arcs, points, dimensions, splines, hatches, meshes), and a
// final save. Every dimension gets a render() call right after creation;
// without it the dimension exists in the file but is invisible.
func Generate(d Drawing, opts Options) string {
	bounds := BoundsOf(d)
	style := StyleFor(bounds)

	var b strings.Builder
	b.WriteString("import ezdxf\n")
	b.WriteString("from ezdxf import units\n\n")
	fmt.Fprintf(&b, "doc = ezdxf.new(%s, setup=True)\n", pyStr(opts.Version))
	fmt.Fprintf(&b, "doc.units = units.%s\n", opts.Units)
	b.WriteString("msp = doc.modelspace()\n\n")

	writeDimstyle(&b, opts.DimstyleName, style)
	writeLayers(&b, d)

	writeLines(&b, d.Lines)
	writeCircles(&b, d.Circles)
	writeArcs(&b, d.Arcs)
	writePoints(&b, d.Points)
	writeDimensions(&b, d.Dimensions, opts.DimstyleName)
	writeSplines(&b, d.Splines)
	writeHatches(&b, d.Hatches)
	writeMeshes(&b, d.Meshes)

	// A program that creates nothing would save an empty, useless file.
	if d.EntityCount() == 0 {
		b.WriteString("msp.add_line((0, 0), (10, 0))\n")
	}

	b.WriteString("\n")
	fmt.Fprintf(&b, "doc.saveas(%s)\n", pyStr(artifactName(d.Title, opts.FallbackName)))
	return b.String()
}

// SanitizeFilename normalizes a drawing title into a safe filename stem:
// lower-cased, whitespace collapsed to underscores, everything else
// non-alphanumeric stripped. Returns "" when nothing survives.
func SanitizeFilename(title string) string {
	var out strings.Builder
	lastUnderscore := false
	for _, r := range strings.ToLower(strings.TrimSpace(title)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			out.WriteRune(r)
			lastUnderscore = false
		case r == ' ' || r == '\t' || r == '-' || r == '_':
			if !lastUnderscore && out.Len() > 0 {
				out.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	return strings.TrimSuffix(out.String(), "_")
}

func artifactName(title, fallback string) string {
	stem := SanitizeFilename(title)
	if stem == "" {
		stem = fallback
	}
	return stem + ".dxf"
}

func writeDimstyle(b *strings.Builder, name string, s Style) {
	// Recreate the style from scratch so reruns against a warm document
	// cannot inherit stale constants.
	fmt.Fprintf(b, "if %s in doc.dimstyles:\n", pyStr(name))
	fmt.Fprintf(b, "    del doc.dimstyles[%s]\n", pyStr(name))
	fmt.Fprintf(b, "dimstyle = doc.dimstyles.add(%s)\n", pyStr(name))
	fmt.Fprintf(b, "dimstyle.dxf.dimtxt = %s\n", pyNum(s.TextHeight))
	fmt.Fprintf(b, "dimstyle.dxf.dimasz = %s\n", pyNum(s.ArrowSize))
	fmt.Fprintf(b, "dimstyle.dxf.dimgap = %s\n", pyNum(s.DimGap))
	fmt.Fprintf(b, "dimstyle.dxf.dimexo = %s\n", pyNum(s.ExtLineOffset))
	fmt.Fprintf(b, "dimstyle.dxf.dimexe = %s\n", pyNum(s.ExtLineExtension))
	b.WriteString("dimstyle.dxf.dimse1 = 0\n")
	b.WriteString("dimstyle.dxf.dimse2 = 0\n")
	b.WriteString("dimstyle.dxf.dimtad = 1\n")
	b.WriteString("dimstyle.dxf.dimscale = 1.0\n")
	b.WriteString("dimstyle.dxf.dimlfac = 1.0\n")
	b.WriteString("dimstyle.dxf.dimdec = 0\n")
	b.WriteString("dimstyle.dxf.dimlunit = 2\n\n")
}

// writeLayers emits one check-then-create statement per distinct layer name
// referenced anywhere in the drawing. The runtime may execute against a
// document that already defines some of them, so creation must be idempotent.
func writeLayers(b *strings.Builder, d Drawing) {
	seen := map[string]bool{}
	collect := func(layer *string) {
		if layer != nil && *layer != "" {
			seen[*layer] = true
		}
	}
	for _, e := range d.Lines {
		collect(e.Layer)
	}
	for _, e := range d.Circles {
		collect(e.Layer)
	}
	for _, e := range d.Arcs {
		collect(e.Layer)
	}
	for _, e := range d.Points {
		collect(e.Layer)
	}
	for _, e := range d.Dimensions {
		collect(e.Layer)
	}
	for _, e := range d.Splines {
		collect(e.Layer)
	}
	for _, e := range d.Hatches {
		collect(e.Layer)
	}
	for _, e := range d.Meshes {
		collect(e.Layer)
	}
	if len(seen) == 0 {
		return
	}

	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		fmt.Fprintf(b, "if %s not in doc.layers:\n", pyStr(n))
		fmt.Fprintf(b, "    doc.layers.add(%s)\n", pyStr(n))
	}
	b.WriteString("\n")
}

func writeLines(b *strings.Builder, lines []Line) {
	for _, l := range lines {
		fmt.Fprintf(b, "msp.add_line(%s, %s%s)\n",
			pyPoint(coord(l.StartX, 0), coord(l.StartY, 0)),
			pyPoint(coord(l.EndX, genDefaultEndX), coord(l.EndY, 0)),
			pyAttribs(l.Layer, l.Color, l.Linetype))
	}
}

func writeCircles(b *strings.Builder, circles []Circle) {
	for _, c := range circles {
		fmt.Fprintf(b, "msp.add_circle(%s, radius=%s%s)\n",
			pyPoint(coord(c.CenterX, 0), coord(c.CenterY, 0)),
			pyNum(coord(c.Radius, genDefaultRadius)),
			pyAttribs(c.Layer, c.Color, c.Linetype))
	}
}

func writeArcs(b *strings.Builder, arcs []Arc) {
	for _, a := range arcs {
		fmt.Fprintf(b, "msp.add_arc(center=%s, radius=%s, start_angle=%s, end_angle=%s%s)\n",
			pyPoint(coord(a.CenterX, 0), coord(a.CenterY, 0)),
			pyNum(coord(a.Radius, genDefaultRadius)),
			pyNum(coord(a.StartAngle, 0)),
			pyNum(coord(a.EndAngle, genDefaultEndAngle)),
			pyAttribs(a.Layer, a.Color, a.Linetype))
	}
}

func writePoints(b *strings.Builder, points []Point) {
	for _, p := range points {
		fmt.Fprintf(b, "msp.add_point(%s%s)\n",
			pyPoint(coord(p.X, 0), coord(p.Y, 0)),
			pyAttribs(p.Layer, p.Color, nil))
	}
}

func writeDimensions(b *strings.Builder, dims []Dimension, dimstyle string) {
	for _, d := range dims {
		name := dimstyle
		if d.Dimstyle != nil && *d.Dimstyle != "" {
			name = *d.Dimstyle
		}
		var text string
		if d.Text != nil && *d.Text != "" {
			text = fmt.Sprintf(", text=%s", pyStr(*d.Text))
		}
		attribs := pyAttribs(d.Layer, d.Color, nil)

		p1 := pyVec(d.P1, 0, 0)
		p2 := pyVec(d.P2, genDefaultEndX, 0)
		center := pyVec(d.Center, 0, 0)
		radius := pyNum(coord(d.Radius, genDefaultRadius))

		switch d.Type {
		case DimAligned:
			fmt.Fprintf(b, "dim = msp.add_aligned_dim(p1=%s, p2=%s, distance=%s, dimstyle=%s%s%s)\n",
				p1, p2, pyNum(coord(d.Distance, genDefaultDistance)), pyStr(name), text, attribs)
		case DimRadius:
			fmt.Fprintf(b, "dim = msp.add_radius_dim(center=%s, radius=%s, angle=%s, dimstyle=%s%s%s)\n",
				center, radius, pyNum(coord(d.Angle, genDefaultAngle)), pyStr(name), text, attribs)
		case DimDiameter:
			fmt.Fprintf(b, "dim = msp.add_diameter_dim(center=%s, radius=%s, angle=%s, dimstyle=%s%s%s)\n",
				center, radius, pyNum(coord(d.Angle, genDefaultAngle)), pyStr(name), text, attribs)
		case DimAngular:
			fmt.Fprintf(b, "dim = msp.add_angular_dim_cra(center=%s, radius=%s, start_angle=%s, end_angle=%s, distance=%s, dimstyle=%s%s%s)\n",
				center, radius, pyNum(coord(d.StartAngle, 0)), pyNum(coord(d.EndAngle, genDefaultEndAngle)),
				pyNum(coord(d.Distance, genDefaultDistance)), pyStr(name), text, attribs)
		case DimArc:
			fmt.Fprintf(b, "dim = msp.add_arc_dim_cra(center=%s, radius=%s, start_angle=%s, end_angle=%s, distance=%s, dimstyle=%s%s%s)\n",
				center, radius, pyNum(coord(d.StartAngle, 0)), pyNum(coord(d.EndAngle, genDefaultEndAngle)),
				pyNum(coord(d.Distance, genDefaultDistance)), pyStr(name), text, attribs)
		default: // linear, also the fallback for unknown types
			base := pyVec(d.Base, 0, genDefaultBaseY)
			fmt.Fprintf(b, "dim = msp.add_linear_dim(base=%s, p1=%s, p2=%s, dimstyle=%s%s%s)\n",
				base, p1, p2, pyStr(name), text, attribs)
		}
		b.WriteString("dim.render()\n")
	}
}

func writeSplines(b *strings.Builder, splines []Spline) {
	for _, s := range splines {
		attribs := pyAttribs(s.Layer, s.Color, s.Linetype)
		degree := 3
		if s.Degree != nil && *s.Degree > 0 {
			degree = *s.Degree
		}
		switch {
		case len(s.FitPoints) > 0:
			fmt.Fprintf(b, "msp.add_spline(fit_points=%s, degree=%d%s)\n",
				pySplinePoints(s.FitPoints), degree, attribs)
		case len(s.ControlPoints) > 0:
			if s.Closed != nil && *s.Closed {
				fmt.Fprintf(b, "msp.add_closed_spline(control_points=%s, degree=%d%s)\n",
					pySplinePoints(s.ControlPoints), degree, attribs)
			} else {
				fmt.Fprintf(b, "msp.add_open_spline(control_points=%s, degree=%d%s)\n",
					pySplinePoints(s.ControlPoints), degree, attribs)
			}
		default:
			// A spline without any points renders as a short default curve
			// rather than an invalid entity.
			fmt.Fprintf(b, "msp.add_spline(fit_points=[(0, 0, 0), (5, 5, 0), (10, 0, 0)], degree=%d%s)\n",
				degree, attribs)
		}
	}
}

func writeHatches(b *strings.Builder, hatches []Hatch) {
	for _, h := range hatches {
		pattern := "ANSI31"
		if h.Pattern != nil && *h.Pattern != "" {
			pattern = *h.Pattern
		}
		fmt.Fprintf(b, "hatch = msp.add_hatch(%s)\n", strings.TrimPrefix(pyAttribs(h.Layer, nil, nil), ", "))
		fmt.Fprintf(b, "hatch.set_pattern_fill(%s, scale=%s, angle=%s)\n",
			pyStr(pattern), pyNum(coord(h.PatternScale, 1)), pyNum(coord(h.PatternAngle, 0)))

		for _, path := range h.Boundaries {
			flags := 0
			if path.External == nil || *path.External {
				flags = 1 // ezdxf const.BOUNDARY_PATH_EXTERNAL
			}
			switch {
			case len(path.Vertices) > 0:
				verts := make([]string, len(path.Vertices))
				for i, v := range path.Vertices {
					verts[i] = fmt.Sprintf("(%s, %s, %s)",
						pyNum(coord(v.X, 0)), pyNum(coord(v.Y, 0)), pyNum(coord(v.Bulge, 0)))
				}
				fmt.Fprintf(b, "hatch.paths.add_polyline_path([%s], is_closed=True, flags=%d)\n",
					strings.Join(verts, ", "), flags)
			case len(path.Edges) > 0:
				fmt.Fprintf(b, "path = hatch.paths.add_edge_path(flags=%d)\n", flags)
				for _, e := range path.Edges {
					writeHatchEdge(b, e)
				}
			}
		}
	}
}

func writeHatchEdge(b *strings.Builder, e HatchEdge) {
	switch e.Kind {
	case "arc":
		fmt.Fprintf(b, "path.add_arc(%s, radius=%s, start_angle=%s, end_angle=%s)\n",
			pyPoint(coord(e.CenterX, 0), coord(e.CenterY, 0)),
			pyNum(coord(e.Radius, genDefaultRadius)),
			pyNum(coord(e.StartAngle, 0)),
			pyNum(coord(e.EndAngle, genDefaultEndAngle)))
	case "ellipse":
		fmt.Fprintf(b, "path.add_ellipse(%s, major_axis=%s, ratio=%s, start_angle=%s, end_angle=%s)\n",
			pyPoint(coord(e.CenterX, 0), coord(e.CenterY, 0)),
			pyPoint(coord(e.MajorX, genDefaultRadius), coord(e.MajorY, 0)),
			pyNum(coord(e.Ratio, 0.5)),
			pyNum(coord(e.StartAngle, 0)),
			pyNum(coord(e.EndAngle, 360)))
	default: // line
		fmt.Fprintf(b, "path.add_line(%s, %s)\n",
			pyPoint(coord(e.StartX, 0), coord(e.StartY, 0)),
			pyPoint(coord(e.EndX, genDefaultEndX), coord(e.EndY, 0)))
	}
}

func writeMeshes(b *strings.Builder, meshes []Mesh) {
	for _, m := range meshes {
		fmt.Fprintf(b, "mesh = msp.add_mesh(%s)\n", strings.TrimPrefix(pyAttribs(m.Layer, m.Color, nil), ", "))
		if m.SubdivisionLevel != nil && *m.SubdivisionLevel > 0 {
			fmt.Fprintf(b, "mesh.dxf.subdivision_levels = %d\n", *m.SubdivisionLevel)
		}
		b.WriteString("with mesh.edit_data() as mesh_data:\n")

		verts := make([]string, len(m.Vertices))
		for i, v := range m.Vertices {
			verts[i] = fmt.Sprintf("(%s, %s, %s)",
				pyNum(coord(v.X, 0)), pyNum(coord(v.Y, 0)), pyNum(coord(v.Z, 0)))
		}
		fmt.Fprintf(b, "    mesh_data.vertices = [%s]\n", strings.Join(verts, ", "))

		faces := make([]string, len(m.Faces))
		for i, f := range m.Faces {
			idx := make([]string, len(f))
			for j, n := range f {
				idx[j] = strconv.Itoa(n)
			}
			faces[i] = "[" + strings.Join(idx, ", ") + "]"
		}
		fmt.Fprintf(b, "    mesh_data.faces = [%s]\n", strings.Join(faces, ", "))
	}
}

// --- Python literal helpers ---

func pyStr(s string) string {
	var out strings.Builder
	out.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			out.WriteString(`\"`)
		case '\\':
			out.WriteString(`\\`)
		case '\n':
			out.WriteString(`\n`)
		default:
			out.WriteRune(r)
		}
	}
	out.WriteByte('"')
	return out.String()
}

func pyNum(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func pyPoint(x, y float64) string {
	return fmt.Sprintf("(%s, %s)", pyNum(x), pyNum(y))
}

func pyVec(v *Vec2, defX, defY float64) string {
	if v == nil {
		return pyPoint(defX, defY)
	}
	return pyPoint(coord(v.X, defX), coord(v.Y, defY))
}

// pyAttribs renders the optional dxfattribs argument. A missing layer is
// omitted entirely instead of emitting a reference to a layer that was never
// declared.
func pyAttribs(layer *string, color *int, linetype *string) string {
	parts := []string{}
	if layer != nil && *layer != "" {
		parts = append(parts, fmt.Sprintf(`"layer": %s`, pyStr(*layer)))
	}
	if color != nil {
		parts = append(parts, fmt.Sprintf(`"color": %d`, *color))
	}
	if linetype != nil && *linetype != "" {
		parts = append(parts, fmt.Sprintf(`"linetype": %s`, pyStr(*linetype)))
	}
	if len(parts) == 0 {
		return ""
	}
	return fmt.Sprintf(", dxfattribs={%s}", strings.Join(parts, ", "))
}

func pySplinePoints(pts []SplinePoint) string {
	out := make([]string, len(pts))
	for i, p := range pts {
		out[i] = fmt.Sprintf("(%s, %s, %s)",
			pyNum(coord(p.X, 0)), pyNum(coord(p.Y, 0)), pyNum(coord(p.Z, 0)))
	}
	return "[" + strings.Join(out, ", ") + "]"
}
