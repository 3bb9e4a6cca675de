package dxf

import (
	"encoding/json"
	"errors"
	"log"
	"strings"
)

// ErrInvalidPatch is returned by ParsePatch when the payload does not contain
// both a delete and an add section. A producer that cannot supply them (even
// empty) has violated the patch contract.
var ErrInvalidPatch = errors.New("dxf: patch payload missing delete or add section")

// Parse turns the raw text returned by the language model into a well-formed
// Drawing. The input is untrusted: it may be wrapped in prose or fenced code
// blocks, and any field may be missing or malformed. Parse never fails; when
// no usable object can be recovered it returns a minimal placeholder drawing
// so downstream code generation always has something renderable.
func Parse(raw string) Drawing {
	obj, ok := extractObject(raw)
	if !ok {
		log.Printf(`{"level":"warn","message":"No JSON object found in model response, using fallback drawing"}`)
		return fallbackDrawing()
	}

	var d Drawing
	if err := json.Unmarshal([]byte(obj), &d); err != nil {
		log.Printf(`{"level":"warn","message":"Model response is not a valid drawing","error":"%v"}`, err)
		return fallbackDrawing()
	}

	// Minimal shape check: a drawing payload carries a title and a lines
	// collection. Anything else is treated as noise around the real object.
	if !hasRequiredShape(obj) {
		log.Printf(`{"level":"warn","message":"Model response lacks title/lines shape, using fallback drawing"}`)
		return fallbackDrawing()
	}

	d.normalizeCollections()
	return d
}

// ParsePatch extracts a Patch from raw model text using the same two-stage
// pipeline as Parse. Unlike Parse this is allowed to fail hard: a patch
// without both sections cannot be merged safely.
func ParsePatch(raw string) (Patch, error) {
	obj, ok := extractObject(raw)
	if !ok {
		return Patch{}, ErrInvalidPatch
	}

	var p Patch
	if err := json.Unmarshal([]byte(obj), &p); err != nil {
		return Patch{}, ErrInvalidPatch
	}
	if p.Delete == nil || p.Add == nil {
		return Patch{}, ErrInvalidPatch
	}
	p.Add.normalizeCollections()
	return p, nil
}

// extractObject locates the first top-level balanced object literal in text.
// Fenced-code markers are stripped first so a fence inside a string can't
// truncate the scan. Returns false when no balanced object exists.
func extractObject(text string) (string, bool) {
	text = stripFences(text)

	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}

// stripFences removes ```json / ``` markers while keeping their contents.
func stripFences(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	return text
}

// hasRequiredShape reports whether the object literal carries the two keys a
// drawing payload must have. Checked on the raw object rather than the
// decoded struct so an explicit "lines": [] still passes.
func hasRequiredShape(obj string) bool {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal([]byte(obj), &probe); err != nil {
		return false
	}
	_, hasTitle := probe["title"]
	_, hasLines := probe["lines"]
	return hasTitle && hasLines
}

// fallbackDrawing is the degraded-but-valid result for unparseable payloads:
// one placeholder line so the generated program still produces an artifact.
func fallbackDrawing() Drawing {
	zero, ten := 0.0, 10.0
	d := Drawing{
		Title: "Untitled Drawing",
		Lines: []Line{{StartX: &zero, StartY: &zero, EndX: &ten, EndY: &zero}},
	}
	d.normalizeCollections()
	return d
}
