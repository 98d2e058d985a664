package minhash

import (
	"errors"
	"fmt"
)

// Mismatch identifies which sketch parameter made two sketches incomparable
type Mismatch int

const (
	MismatchKSizes Mismatch = iota + 1
	MismatchMoleculeType
	MismatchScaled
	MismatchSeed
)

func (m Mismatch) String() string {
	switch m {
	case MismatchKSizes:
		return "different k-mer sizes"
	case MismatchMoleculeType:
		return "different molecule types"
	case MismatchScaled:
		return "different scaled values"
	case MismatchSeed:
		return "different seeds"
	}
	return "unknown mismatch"
}

// CompatibilityError is returned when two sketches were built with incompatible parameters
type CompatibilityError struct {
	Kind   Mismatch
	Detail string
}

func (e *CompatibilityError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("incompatible sketches: %v", e.Kind)
	}
	return fmt.Sprintf("incompatible sketches: %v (%v)", e.Kind, e.Detail)
}

// Is matches any CompatibilityError of the same kind, so the sentinels below work with errors.Is
func (e *CompatibilityError) Is(target error) bool {
	t, ok := target.(*CompatibilityError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrMismatchKSizes       = &CompatibilityError{Kind: MismatchKSizes}
	ErrMismatchMoleculeType = &CompatibilityError{Kind: MismatchMoleculeType}
	ErrMismatchScaled       = &CompatibilityError{Kind: MismatchScaled}
	ErrMismatchSeed         = &CompatibilityError{Kind: MismatchSeed}

	// ErrHashAboveMax is returned when a hash is offered to a scaled sketch that cannot hold it
	ErrHashAboveMax = errors.New("hash value exceeds the max_hash of the sketch")
)

func mismatch(kind Mismatch, format string, a ...interface{}) error {
	return &CompatibilityError{Kind: kind, Detail: fmt.Sprintf(format, a...)}
}
