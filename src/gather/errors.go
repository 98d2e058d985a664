package gather

import "errors"

var (
	// ErrInvariant indicates the engine was handed sketches that normalisation should have made compatible
	ErrInvariant = errors.New("gather invariant violated")

	// ErrNoUsableQuery indicates none of the query signatures could be brought to the template resolution
	ErrNoUsableQuery = errors.New("no query sketch is compatible with the template")

	// ErrInvalidTemplate indicates a template that can't be used for comparison
	ErrInvalidTemplate = errors.New("invalid template")
)
