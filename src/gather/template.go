// Package gather implements the greedy containment decomposition of a query sketch against a set of reference sketches.
//
// Every run compares sketches at a single resolution, given by a Template. Reference and query sketches are
// normalised to that resolution, the references that overlap the query become candidates, and the Engine
// repeatedly selects the candidate with the largest overlap, removes its hashes from the query and rescores
// what is left.
package gather

import (
	"fmt"

	"github.com/will-rowe/countergather/src/minhash"
)

// Default template settings
const (
	DefaultKSize  uint32 = 31
	DefaultScaled uint64 = 1000
)

// Template is the resolution that every sketch in a run is compared at
type Template struct {
	KSize   uint32
	MolType minhash.MolType
	Scaled  uint64
	Seed    uint64
}

// NewTemplate checks the settings and returns a Template
func NewTemplate(ksize uint32, molType minhash.MolType, scaled, seed uint64) (Template, error) {
	if ksize == 0 {
		return Template{}, fmt.Errorf("%w: k-mer size must be greater than 0", ErrInvalidTemplate)
	}
	if scaled == 0 {
		return Template{}, fmt.Errorf("%w: scaled must be greater than 0", ErrInvalidTemplate)
	}
	if _, err := minhash.ParseMolType(molType.String()); err != nil {
		return Template{}, fmt.Errorf("%w: %v", ErrInvalidTemplate, err)
	}
	return Template{KSize: ksize, MolType: molType, Scaled: scaled, Seed: seed}, nil
}

// DefaultTemplate returns the template used when no settings are given
func DefaultTemplate() Template {
	return Template{KSize: DefaultKSize, MolType: minhash.DNA, Scaled: DefaultScaled, Seed: minhash.DefaultSeed}
}

// MaxHash returns the hash cutoff of the template
func (t Template) MaxHash() uint64 {
	return minhash.MaxHashForScaled(t.Scaled)
}

// NewSketch returns an empty sketch at the template resolution
func (t Template) NewSketch() *minhash.KmerMinHash {
	return minhash.NewKmerMinHash(t.KSize, t.MolType, t.Seed, t.MaxHash())
}

func (t Template) String() string {
	return fmt.Sprintf("k=%d molecule=%v scaled=%d seed=%d", t.KSize, t.MolType, t.Scaled, t.Seed)
}
