package domain

import (
	"math"
	"strings"

	"go.trai.ch/zerr"
)

// Attribute is the role a field plays in a snapshot, mirroring the reserved field names.
type Attribute uint8

const (
	// AttributeNone marks a field only reachable by its own name.
	AttributeNone Attribute = iota
	// AttributeScalars marks the active scalar field.
	AttributeScalars
	// AttributeVectors marks the active vector field.
	AttributeVectors
	// AttributeTensors marks the active tensor field.
	AttributeTensors
)

func (a Attribute) String() string {
	switch a {
	case AttributeScalars:
		return "scalars"
	case AttributeVectors:
		return "vectors"
	case AttributeTensors:
		return "tensors"
	default:
		return ""
	}
}

// ReservedAttribute maps the reserved names scalar(s), vector(s) and tensor(s),
// case-insensitively, to their Attribute.
func ReservedAttribute(name string) (Attribute, bool) {
	switch strings.ToLower(name) {
	case "scalar", "scalars":
		return AttributeScalars, true
	case "vector", "vectors":
		return AttributeVectors, true
	case "tensor", "tensors":
		return AttributeTensors, true
	default:
		return AttributeNone, false
	}
}

// Field is a named array of k-component tuples indexed by point id.
// Values are point-major: tuple i occupies Values[i*Components : (i+1)*Components].
type Field struct {
	Name       string
	Attribute  Attribute
	Components int
	Values     []float64
}

// NewField returns a field holding values split into tuples of k components.
func NewField(name string, k int, values []float64) (*Field, error) {
	if k < 1 || len(values)%k != 0 {
		return nil, zerr.With(
			zerr.With(zerr.Wrap(ErrFieldSizeMismatch, "values are not a whole number of tuples"), "field", name),
			"components", k,
		)
	}
	return &Field{Name: name, Components: k, Values: values}, nil
}

// Len returns the number of tuples.
func (f *Field) Len() int {
	if f.Components == 0 {
		return 0
	}
	return len(f.Values) / f.Components
}

// Tuple returns the components stored for point id.
func (f *Field) Tuple(id int) []float64 {
	return f.Values[id*f.Components : (id+1)*f.Components]
}

// Bytes returns the memory held by the field values.
func (f *Field) Bytes() int64 {
	return int64(len(f.Values)) * 8
}

// Value is one interpolated field tuple.
type Value []float64

// NoValue returns a k-component value filled with NaN, the lenient out-of-domain sentinel.
func NoValue(k int) Value {
	v := make(Value, k)
	for i := range v {
		v[i] = math.NaN()
	}
	return v
}

// Valid reports whether the value holds data, i.e. no component is NaN.
func (v Value) Valid() bool {
	for _, c := range v {
		if math.IsNaN(c) {
			return false
		}
	}
	return len(v) > 0
}

// Location is the result of locating a point: the enclosing cell, its point ids,
// and one interpolation weight per point. Weights sum to 1.
type Location struct {
	Cell    int
	Points  []int
	Weights []float64
}
