package domain

import "go.trai.ch/zerr"

// Snapshot is one timestep's field data over the run geometry.
type Snapshot struct {
	Geometry Geometry
	Fields   []*Field
}

// NewSnapshot validates that every field carries one tuple per geometry point.
func NewSnapshot(geom Geometry, fields ...*Field) (*Snapshot, error) {
	if geom == nil {
		return nil, zerr.Wrap(ErrInvalidGeometry, "snapshot has no geometry")
	}
	n := geom.NumPoints()
	for _, f := range fields {
		if f.Len() != n || len(f.Values) != n*f.Components {
			return nil, zerr.With(
				zerr.With(zerr.Wrap(ErrFieldSizeMismatch, "field tuple count differs from geometry"), "field", f.Name),
				"points", n,
			)
		}
	}
	return &Snapshot{Geometry: geom, Fields: fields}, nil
}

// Field resolves name to a field. Exact names win; otherwise the reserved names
// scalar(s), vector(s) and tensor(s) select the field with the matching attribute.
func (s *Snapshot) Field(name string) (*Field, error) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, nil
		}
	}
	if attr, ok := ReservedAttribute(name); ok {
		for _, f := range s.Fields {
			if f.Attribute == attr {
				return f, nil
			}
		}
	}
	return nil, zerr.With(zerr.Wrap(ErrFieldNotFound, "snapshot has no such field"), "field", name)
}

// Resolve resolves every name in order.
func (s *Snapshot) Resolve(names []string) ([]*Field, error) {
	fields := make([]*Field, len(names))
	for i, name := range names {
		f, err := s.Field(name)
		if err != nil {
			return nil, err
		}
		fields[i] = f
	}
	return fields, nil
}

// Bytes returns the memory held by the snapshot's field values.
func (s *Snapshot) Bytes() int64 {
	var n int64
	for _, f := range s.Fields {
		n += f.Bytes()
	}
	return n
}
