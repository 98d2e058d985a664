// Package signature holds named collections of sketches and reads/writes them to disk.
//
// A signature file holds one or more signatures, and each signature can carry sketches at several
// resolutions (k-mer size, molecule, scaled). Files are JSON in the sourmash layout (optionally gzipped),
// msgpack, or an archive (zip/tar) of either.
package signature

import (
	"github.com/will-rowe/countergather/src/minhash"
)

// Signature is a named, ordered collection of sketches
type Signature struct {
	name     string
	filename string
	sketches []minhash.Sketch
}

// New is the Signature constructor
func New(name, filename string, sketches ...minhash.Sketch) *Signature {
	return &Signature{
		name:     name,
		filename: filename,
		sketches: sketches,
	}
}

// Name returns the signature name, falling back to the filename and then the checksum of the first sketch
func (sig *Signature) Name() string {
	if sig.name != "" {
		return sig.name
	}
	if sig.filename != "" {
		return sig.filename
	}
	if len(sig.sketches) != 0 {
		return sig.sketches[0].MD5Sum()
	}
	return ""
}

// Filename returns the file the signature was built from
func (sig *Signature) Filename() string {
	return sig.filename
}

// Sketches returns the sketches in the order they were added
func (sig *Signature) Sketches() []minhash.Sketch {
	return sig.sketches
}

// AddSketch appends a sketch to the signature
func (sig *Signature) AddSketch(sketch minhash.Sketch) {
	sig.sketches = append(sig.sketches, sketch)
}
