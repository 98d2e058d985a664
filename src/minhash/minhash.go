// Package minhash contains the sketch types used by countergather: a scaled MinHash (KmerMinHash) and a bottom-k MinHash (BottomK). These implementations use the ntHash rolling hash function for DNA and a seeded xxhash for amino acid k-mers.
package minhash

import (
	"fmt"
	"math"
	"strings"
)

// CANONICAL tell nthash to return the canonical k-mer
const CANONICAL bool = true

// DefaultSeed is the hash seed used when none is specified
const DefaultSeed uint64 = 42

// Sketch is the closed family of sketch flavours that a signature can hold
// only the types in this package satisfy it
type Sketch interface {
	KSize() uint32
	MolType() MolType
	Seed() uint64
	Size() int
	Hashes() []uint64
	MD5Sum() string
	sketch()
}

// MolType is the molecule type (and encoding) a sketch was built from
type MolType int

const (
	DNA MolType = iota
	Protein
	Dayhoff
	HP
)

// String returns the name used for the molecule in signature files
func (m MolType) String() string {
	switch m {
	case DNA:
		return "dna"
	case Protein:
		return "protein"
	case Dayhoff:
		return "dayhoff"
	case HP:
		return "hp"
	}
	return fmt.Sprintf("moltype(%d)", int(m))
}

// ParseMolType converts a molecule name into a MolType
func ParseMolType(name string) (MolType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "dna":
		return DNA, nil
	case "protein":
		return Protein, nil
	case "dayhoff":
		return Dayhoff, nil
	case "hp":
		return HP, nil
	}
	return 0, fmt.Errorf("unrecognised molecule type: %q", name)
}

// MaxHashForScaled returns the largest hash value retained at the given scaled factor
func MaxHashForScaled(scaled uint64) uint64 {
	if scaled == 0 {
		return 0
	}
	return math.MaxUint64 / scaled
}

// ScaledForMaxHash is the inverse of MaxHashForScaled
func ScaledForMaxHash(maxHash uint64) uint64 {
	if maxHash == 0 {
		return 0
	}
	return math.MaxUint64 / maxHash
}
