package dxf

// Style is one tier of annotation sizing constants, in document units (mm).
// The code generator feeds these into the dimension style block so dimension
// text stays legible regardless of absolute drawing scale.
type Style struct {
	TextHeight       float64 `json:"text_height"`
	ArrowSize        float64 `json:"arrow_size"`
	DimGap           float64 `json:"dim_gap"`
	ExtLineOffset    float64 `json:"ext_line_offset"`
	ExtLineExtension float64 `json:"ext_line_extension"`
}

// styleTier pairs a size breakpoint with its constant bundle. Breakpoints are
// inclusive at the upper edge: a 100-unit drawing is still the smallest tier.
type styleTier struct {
	maxSize float64
	style   Style
}

var styleTiers = []styleTier{
	{100, Style{TextHeight: 2.5, ArrowSize: 1.25, DimGap: 1.0, ExtLineOffset: 0.625, ExtLineExtension: 1.25}},
	{500, Style{TextHeight: 5, ArrowSize: 2.5, DimGap: 2.0, ExtLineOffset: 1.25, ExtLineExtension: 2.5}},
	{2000, Style{TextHeight: 12.5, ArrowSize: 6.25, DimGap: 5.0, ExtLineOffset: 3.125, ExtLineExtension: 6.25}},
	{10000, Style{TextHeight: 25, ArrowSize: 12.5, DimGap: 10.0, ExtLineOffset: 6.25, ExtLineExtension: 12.5}},
}

// largest tier, used for anything above the last breakpoint.
var styleHuge = Style{TextHeight: 50, ArrowSize: 25, DimGap: 20.0, ExtLineOffset: 12.5, ExtLineExtension: 25}

// StyleFor selects the annotation style tier for a bounding box. The decision
// uses the larger of width and height; deterministic and pure.
func StyleFor(b Bounds) Style {
	size := b.Width
	if b.Height > size {
		size = b.Height
	}
	for _, t := range styleTiers {
		if size <= t.maxSize {
			return t.style
		}
	}
	return styleHuge
}
