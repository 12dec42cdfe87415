package domain

import "path/filepath"

// DefaultStack is the number of snapshots kept resident when a run does not say otherwise.
const DefaultStack = 3

// DefaultField is the field sampled when a run does not name any.
const DefaultField = "vectors"

// Run is a parsed run description: one geometry, the snapshots laid out along a
// time axis, and the sampler settings.
type Run struct {
	// Geometry is nil when the geometry is taken from the first snapshot.
	Geometry Geometry
	Axis     *TimeAxis
	Stack    int
	Fields   []string
	Strict   bool
	// Root is the directory relative snapshot sources resolve against.
	Root string
}

// ResolveSource returns source joined onto the run root when it is relative.
func (r *Run) ResolveSource(source string) string {
	if filepath.IsAbs(source) || r.Root == "" {
		return source
	}
	return filepath.Join(r.Root, source)
}
