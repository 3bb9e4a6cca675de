package dxf

import "sort"

// DeleteSet lists, per entity kind, the indices to remove from the pre-patch
// collections. Indices always refer to positions before any deletion in that
// kind has been applied.
type DeleteSet struct {
	Lines      []int `json:"lines"`
	Circles    []int `json:"circles"`
	Arcs       []int `json:"arcs"`
	Points     []int `json:"points"`
	Dimensions []int `json:"dimensions"`
	Splines    []int `json:"splines"`
	Hatches    []int `json:"hatches"`
	Meshes     []int `json:"meshes"`
}

// Patch describes an edit to a Drawing: deletions by pre-patch index plus a
// drawing-shaped fragment of entities to append. Both sections must be
// present, possibly empty.
type Patch struct {
	Delete *DeleteSet `json:"delete"`
	Add    *Drawing   `json:"add"`
}

// Apply merges a patch into a previous drawing and returns the result. The
// previous drawing is never mutated, so callers keep a cheap undo path by
// holding on to the old value.
//
// Deletions within one kind are applied in strictly descending index order;
// out-of-range and duplicate indices are silently ignored. The only error is
// a structurally invalid patch (missing delete or add section).
func Apply(prev Drawing, p Patch) (Drawing, error) {
	if p.Delete == nil || p.Add == nil {
		return Drawing{}, ErrInvalidPatch
	}

	next := Drawing{Title: prev.Title}
	if p.Add.Title != "" {
		next.Title = p.Add.Title
	}

	next.Lines = append(deleteAt(cloneSlice(prev.Lines), p.Delete.Lines), p.Add.Lines...)
	next.Circles = append(deleteAt(cloneSlice(prev.Circles), p.Delete.Circles), p.Add.Circles...)
	next.Arcs = append(deleteAt(cloneSlice(prev.Arcs), p.Delete.Arcs), p.Add.Arcs...)
	next.Points = append(deleteAt(cloneSlice(prev.Points), p.Delete.Points), p.Add.Points...)
	next.Dimensions = append(deleteAt(cloneSlice(prev.Dimensions), p.Delete.Dimensions), p.Add.Dimensions...)
	next.Splines = append(deleteAt(cloneSlice(prev.Splines), p.Delete.Splines), p.Add.Splines...)
	next.Hatches = append(deleteAt(cloneSlice(prev.Hatches), p.Delete.Hatches), p.Add.Hatches...)
	next.Meshes = append(deleteAt(cloneSlice(prev.Meshes), p.Delete.Meshes), p.Add.Meshes...)

	next.normalizeCollections()
	return next, nil
}

// EmptyPatch returns a structurally valid patch that changes nothing.
func EmptyPatch() Patch {
	add := Drawing{}
	add.normalizeCollections()
	return Patch{Delete: &DeleteSet{}, Add: &add}
}

func cloneSlice[T any](in []T) []T {
	out := make([]T, len(in))
	copy(out, in)
	return out
}

// deleteAt removes the listed positions from s. The index set is snapshotted,
// deduplicated and sorted descending before any removal, so earlier removals
// can't shift the meaning of later indices.
func deleteAt[T any](s []T, indices []int) []T {
	if len(indices) == 0 {
		return s
	}

	sorted := make([]int, len(indices))
	copy(sorted, indices)
	sort.Sort(sort.Reverse(sort.IntSlice(sorted)))

	prev := -1
	for _, idx := range sorted {
		if idx == prev {
			continue // duplicate index, already removed
		}
		prev = idx
		if idx < 0 || idx >= len(s) {
			continue // out of range, no-op
		}
		s = append(s[:idx], s[idx+1:]...)
	}
	return s
}
