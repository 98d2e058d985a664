package signature

import "errors"

var (
	// ErrEmptyFile indicates a signature file with no content
	ErrEmptyFile = errors.New("signature file is empty")

	// ErrNoSignatures indicates a file that decoded but held no signatures
	ErrNoSignatures = errors.New("no signatures found")

	// ErrUnknownSketch indicates a sketch record that is neither scaled nor bottom-k
	ErrUnknownSketch = errors.New("sketch has neither num nor max_hash set")
)
