package config

// Runfile represents the structure of a pathline.yaml run description.
type Runfile struct {
	Version   string        `yaml:"version"`
	Stack     int           `yaml:"stack"`
	Strict    bool          `yaml:"strict"`
	Fields    []string      `yaml:"fields"`
	Geometry  *GeometryDTO  `yaml:"geometry"`
	Snapshots []SnapshotDTO `yaml:"snapshots"`
	Series    *SeriesDTO    `yaml:"series"`
}

// GeometryDTO describes the run geometry. Which keys apply depends on Kind.
type GeometryDTO struct {
	Kind string `yaml:"kind"`

	// image
	Origin     []float64 `yaml:"origin,omitempty"`
	Spacing    []float64 `yaml:"spacing,omitempty"`
	Dimensions []int     `yaml:"dimensions,omitempty"`

	// rectilinear
	X []float64 `yaml:"x,omitempty"`
	Y []float64 `yaml:"y,omitempty"`
	Z []float64 `yaml:"z,omitempty"`

	// pointset
	Points [][]float64 `yaml:"points,omitempty"`
	Cells  []CellDTO   `yaml:"cells,omitempty"`
}

// CellDTO is one mesh cell.
type CellDTO struct {
	Kind   string `yaml:"kind"`
	Points []int  `yaml:"points,omitempty"`
}

// SnapshotDTO places one snapshot source on the time axis.
type SnapshotDTO struct {
	Time   *float64 `yaml:"time"`
	Source string   `yaml:"source"`
}

// SeriesDTO places every file matching Pattern on the time axis in lexical
// order, starting at Start and Step apart.
type SeriesDTO struct {
	Pattern string  `yaml:"pattern"`
	Start   float64 `yaml:"start"`
	Step    float64 `yaml:"step"`
}
