package gather

import (
	"fmt"

	"github.com/will-rowe/countergather/src/minhash"
	"github.com/will-rowe/countergather/src/signature"
)

// Compatible checks that a sketch can be brought to the template resolution.
// The k-mer size, molecule and seed must match (checked in that order) and the sketch must be at the same or a finer resolution than the template, as sketches can be coarsened but never refined.
func Compatible(sketch *minhash.KmerMinHash, template Template) error {
	if sketch.KSize() != template.KSize {
		return &minhash.CompatibilityError{Kind: minhash.MismatchKSizes, Detail: fmt.Sprintf("%d != %d", sketch.KSize(), template.KSize)}
	}
	if sketch.MolType() != template.MolType {
		return &minhash.CompatibilityError{Kind: minhash.MismatchMoleculeType, Detail: fmt.Sprintf("%v != %v", sketch.MolType(), template.MolType)}
	}
	if sketch.Seed() != template.Seed {
		return &minhash.CompatibilityError{Kind: minhash.MismatchSeed, Detail: fmt.Sprintf("%d != %d", sketch.Seed(), template.Seed)}
	}
	if sketch.MaxHash() < template.MaxHash() {
		return &minhash.CompatibilityError{Kind: minhash.MismatchScaled, Detail: fmt.Sprintf("sketch scaled %d is coarser than %d", sketch.Scaled(), template.Scaled)}
	}
	return nil
}

// Normalize returns a copy of the first sketch in the signature that can be brought to the template resolution.
// A sketch already at the exact resolution is preferred over one that needs downsampling. Bottom-k sketches are never used.
func Normalize(sig *signature.Signature, template Template) (*minhash.KmerMinHash, bool) {
	scaled := []*minhash.KmerMinHash{}
	for _, sketch := range sig.Sketches() {
		switch s := sketch.(type) {
		case *minhash.KmerMinHash:
			scaled = append(scaled, s)
		case *minhash.BottomK:
			continue
		}
	}
	for _, s := range scaled {
		if s.MaxHash() == template.MaxHash() && Compatible(s, template) == nil {
			return s.Clone(), true
		}
	}
	for _, s := range scaled {
		if Compatible(s, template) != nil {
			continue
		}
		ds, err := s.Downsample(template.MaxHash())
		if err != nil {
			continue
		}
		return ds, true
	}
	return nil, false
}

// PrepareQuery returns the sketch and name of the first query signature that normalises
func PrepareQuery(sigs []*signature.Signature, template Template) (*minhash.KmerMinHash, string, error) {
	for _, sig := range sigs {
		if sketch, ok := Normalize(sig, template); ok {
			return sketch, sig.Name(), nil
		}
	}
	return nil, "", fmt.Errorf("%w (%v)", ErrNoUsableQuery, template)
}
