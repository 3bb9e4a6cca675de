package orchestration

import (
	"encoding/json"
	"fmt"

	"github.com/draftworks/cad-studio/drawing-orchestrator/internal/dxf"
)

// schemaReference is the entity/dimension schema document sent with every
// prompt so the model produces objects the validator recognizes. Kept in one
// place: the prompt and the IR must not drift apart.
const schemaReference = `You produce CAD drawings as a single JSON object with this exact shape:
{
  "title": "drawing title",
  "lines": [{"startX": 0, "startY": 0, "endX": 100, "endY": 0, "layer": "OUTLINE", "color": 1, "linetype": "CONTINUOUS"}],
  "circles": [{"centerX": 0, "centerY": 0, "radius": 10, "layer": "...", "color": 1, "linetype": "..."}],
  "arcs": [{"centerX": 0, "centerY": 0, "radius": 10, "startAngle": 0, "endAngle": 90, "layer": "...", "color": 1, "linetype": "..."}],
  "points": [{"x": 0, "y": 0, "layer": "...", "color": 1}],
  "dimensions": [{"type": "linear|aligned|radius|diameter|angular|arc",
                  "p1": {"x": 0, "y": 0}, "p2": {"x": 100, "y": 0}, "base": {"x": 50, "y": -15},
                  "center": {"x": 0, "y": 0}, "radius": 10, "distance": 5, "angle": 45,
                  "startAngle": 0, "endAngle": 90, "text": "optional override",
                  "layer": "DIMENSIONS", "dimstyle": "STRUCTURAL"}],
  "splines": [{"controlPoints": [{"x": 0, "y": 0, "z": 0}], "fitPoints": [], "degree": 3, "closed": false, "layer": "..."}],
  "hatches": [{"boundaries": [{"vertices": [{"x": 0, "y": 0, "bulge": 0}], "external": true}],
               "pattern": "ANSI31", "patternScale": 1.0, "patternAngle": 0, "layer": "..."}],
  "meshes": [{"vertices": [{"x": 0, "y": 0, "z": 0}], "faces": [[0, 1, 2]], "subdivisionLevel": 0, "layer": "..."}]
}
Rules:
- All coordinates are in millimeters.
- Omit fields you have no value for; do not invent placeholder numbers.
- Linear and aligned dimensions measure between p1 and p2; radius, diameter,
  angular and arc dimensions measure around center.
- Every visible measurement in the request should become a dimension entity.
- Respond with the JSON object only.`

// patchReference describes the modification payload shape.
const patchReference = `You modify an existing CAD drawing by producing a single JSON patch object:
{
  "delete": {"lines": [0, 2], "circles": [], "arcs": [], "points": [],
             "dimensions": [], "splines": [], "hatches": [], "meshes": []},
  "add": { ...same shape as a full drawing, containing only new entities... }
}
Rules:
- Indices in "delete" refer to positions in the current drawing's collections,
  counted from 0, before any deletion is applied.
- Both "delete" and "add" must always be present, even when empty.
- Entities that stay unchanged are neither deleted nor re-added.
- Respond with the JSON object only.`

// BuildGenerationPrompt assembles the prompt for a fresh drawing round.
func BuildGenerationPrompt(description string) string {
	return fmt.Sprintf("%s\n\nCreate a complete technical drawing for the following request. Include dimensions for all stated measurements.\n\nRequest: %s",
		schemaReference, description)
}

// BuildModificationPrompt assembles the prompt for an edit round: the current
// IR plus the user's instruction, asking for a patch rather than a full
// drawing.
func BuildModificationPrompt(previous dxf.Drawing, instruction string) string {
	current, err := json.Marshal(previous)
	if err != nil {
		// A Drawing always marshals; guard anyway so a prompt is never silently empty.
		current = []byte("{}")
	}
	return fmt.Sprintf("%s\n\nCurrent drawing:\n%s\n\nApply the following change and respond with a patch object.\n\nChange: %s",
		patchReference, current, instruction)
}
