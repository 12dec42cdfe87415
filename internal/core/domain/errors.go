package domain

import "go.trai.ch/zerr"

var (
	// ErrOutOfDomain is returned when a query point lies outside the spatial extent of a dataset.
	ErrOutOfDomain = zerr.New("point is outside the dataset domain")

	// ErrTimeOutOfRange is returned when a query time lies outside the time axis.
	ErrTimeOutOfRange = zerr.New("time is outside the temporal range")

	// ErrUnsupportedGeometry is returned when no location strategy exists for a geometry.
	ErrUnsupportedGeometry = zerr.New("unsupported geometry")

	// ErrInvalidGeometry is returned when a geometry description is inconsistent.
	ErrInvalidGeometry = zerr.New("invalid geometry")

	// ErrGeometryMismatch is returned when a loaded snapshot does not share the sampler's geometry.
	ErrGeometryMismatch = zerr.New("snapshot geometry does not match the sampler geometry")

	// ErrSnapshotLoadFailed is returned when the external loader fails for a needed snapshot.
	ErrSnapshotLoadFailed = zerr.New("failed to load snapshot")

	// ErrFieldNotFound is returned when a requested field name is absent from a snapshot.
	ErrFieldNotFound = zerr.New("field not found")

	// ErrInvalidSnapshot is returned when a snapshot source cannot be decoded into fields.
	ErrInvalidSnapshot = zerr.New("invalid snapshot")

	// ErrFieldSizeMismatch is returned when a field does not hold one tuple per geometry point.
	ErrFieldSizeMismatch = zerr.New("field size does not match the number of points")

	// ErrInvalidStackSize is returned when the cache capacity is too small.
	ErrInvalidStackSize = zerr.New("invalid stack size")

	// ErrEmptyTimeAxis is returned when a time axis has no entries.
	ErrEmptyTimeAxis = zerr.New("time axis is empty")

	// ErrTimeAxisTooShort is returned when a time axis cannot form a single bracket.
	ErrTimeAxisTooShort = zerr.New("time axis needs at least two snapshots")

	// ErrDuplicateTime is returned when two snapshots share a timestamp.
	ErrDuplicateTime = zerr.New("duplicate timestamp in time axis")

	// ErrInvalidTime is returned when a timestamp is not a finite number.
	ErrInvalidTime = zerr.New("invalid timestamp")

	// ErrIndexOutOfRange is returned when a time axis index does not exist.
	ErrIndexOutOfRange = zerr.New("time axis index out of range")

	// ErrInvalidPoint is returned when a point cannot be parsed or contains non-finite coordinates.
	ErrInvalidPoint = zerr.New("invalid point")

	// ErrConfigReadFailed is returned when the run file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read run file")

	// ErrConfigParseFailed is returned when the run file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse run file")

	// ErrConfigWriteFailed is returned when a run file cannot be written.
	ErrConfigWriteFailed = zerr.New("failed to write run file")

	// ErrSnapshotWriteFailed is returned when a snapshot file cannot be written.
	ErrSnapshotWriteFailed = zerr.New("failed to write snapshot")

	// ErrUnknownFlow is returned when a synthetic flow name is not recognised.
	ErrUnknownFlow = zerr.New("unknown flow")

	// ErrTraceFailed is returned when a pathline could not be traced.
	ErrTraceFailed = zerr.New("pathline tracing failed")
)
