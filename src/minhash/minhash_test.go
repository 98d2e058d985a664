package minhash

import (
	"errors"
	"math"
	"testing"
)

var (
	kmerSize        = uint32(7)
	sketchSize      = uint32(10)
	seqA            = []byte("ACTGCGTGCGTGAAACGTGCACGTGACGTG")
	seqArcomplement = []byte("CACGTCACGTGCACGTTTCACGCACGCAGT")
	peptide         = []byte("MKVLAAGIVGLLLAWSTQAHA")
)

// newTestSketch is a helper to make a sketch that keeps every hash below 10
func newTestSketch(hashes ...uint64) *KmerMinHash {
	mh := NewKmerMinHash(31, DNA, DefaultSeed, 10)
	mh.Add(hashes...)
	return mh
}

func TestMaxHashForScaled(t *testing.T) {
	if MaxHashForScaled(1) != math.MaxUint64 {
		t.Fatal("scaled 1 should keep every hash")
	}
	if MaxHashForScaled(1000) != math.MaxUint64/1000 {
		t.Fatal("wrong max hash for scaled 1000")
	}
	if ScaledForMaxHash(MaxHashForScaled(1000)) != 1000 {
		t.Fatal("scaled did not survive the round trip through max hash")
	}
	if MaxHashForScaled(0) != 0 || ScaledForMaxHash(0) != 0 {
		t.Fatal("zero should map to zero")
	}
}

func TestParseMolType(t *testing.T) {
	for _, mt := range []MolType{DNA, Protein, Dayhoff, HP} {
		parsed, err := ParseMolType(mt.String())
		if err != nil {
			t.Fatal(err)
		}
		if parsed != mt {
			t.Fatalf("parsed %v, expected %v", parsed, mt)
		}
	}
	if _, err := ParseMolType("rna"); err == nil {
		t.Fatal("should not parse an unknown molecule")
	}
}

func TestAdd(t *testing.T) {
	mh := newTestSketch(5, 3, 3, 11, 1, 10)
	if !Uint64SliceEqual(mh.Hashes(), []uint64{1, 3, 5, 10}) {
		t.Fatalf("unexpected hashes after add: %v", mh.Hashes())
	}
	mh.Add(2, 5)
	if !Uint64SliceEqual(mh.Hashes(), []uint64{1, 2, 3, 5, 10}) {
		t.Fatalf("unexpected hashes after second add: %v", mh.Hashes())
	}
	if mh.Size() != 5 || !mh.Contains(10) || mh.Contains(11) {
		t.Fatal("sketch membership is wrong")
	}
	if err := mh.AddHashes([]uint64{4, 12}); !errors.Is(err, ErrHashAboveMax) {
		t.Fatalf("expected ErrHashAboveMax, got %v", err)
	}
	if mh.Contains(4) {
		t.Fatal("a rejected batch should not be partially added")
	}
}

func TestCountCommon(t *testing.T) {
	a := newTestSketch(1, 2, 3)
	b := newTestSketch(3, 4, 5, 6)
	common, err := a.CountCommon(b)
	if err != nil {
		t.Fatal(err)
	}
	if common != 1 {
		t.Fatalf("expected 1 shared hash, got %d", common)
	}
	c := NewKmerMinHash(21, DNA, DefaultSeed, 10)
	if _, err := a.CountCommon(c); !errors.Is(err, ErrMismatchKSizes) {
		t.Fatalf("expected k-mer size mismatch, got %v", err)
	}
	d := NewKmerMinHash(31, Protein, DefaultSeed, 10)
	if _, err := a.CountCommon(d); !errors.Is(err, ErrMismatchMoleculeType) {
		t.Fatalf("expected molecule mismatch, got %v", err)
	}
	e := NewKmerMinHash(31, DNA, DefaultSeed, 20)
	if _, err := a.CountCommon(e); !errors.Is(err, ErrMismatchScaled) {
		t.Fatalf("expected scaled mismatch, got %v", err)
	}
	f := NewKmerMinHash(31, DNA, 1, 10)
	if _, err := a.CountCommon(f); !errors.Is(err, ErrMismatchSeed) {
		t.Fatalf("expected seed mismatch, got %v", err)
	}
	g := NewKmerMinHash(31, DNA, 1, 20)
	if _, err := a.CountCommon(g); !errors.Is(err, ErrMismatchSeed) {
		t.Fatalf("seed should be checked before scaled, got %v", err)
	}
}

func TestSubtract(t *testing.T) {
	query := newTestSketch(1, 2, 3, 4, 5, 9)
	before := query.Hashes()
	other := newTestSketch(0, 2, 5, 6, 9)
	if err := query.Subtract(other); err != nil {
		t.Fatal(err)
	}
	for _, hv := range other.Hashes() {
		if query.Contains(hv) {
			t.Fatalf("%d should have been removed", hv)
		}
	}
	for _, hv := range before {
		if !other.Contains(hv) && !query.Contains(hv) {
			t.Fatalf("%d should have been kept", hv)
		}
	}
	if !Uint64SliceEqual(query.Hashes(), []uint64{1, 3, 4}) {
		t.Fatalf("unexpected hashes after subtraction: %v", query.Hashes())
	}
	if other.Size() != 5 {
		t.Fatal("subtraction should not touch the other sketch")
	}
	if err := query.Subtract(NewKmerMinHash(21, DNA, DefaultSeed, 10)); err == nil {
		t.Fatal("should not subtract an incompatible sketch")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	a := newTestSketch(1, 2, 3)
	b := a.Clone()
	if err := b.Subtract(newTestSketch(2)); err != nil {
		t.Fatal(err)
	}
	if a.Size() != 3 || b.Size() != 2 {
		t.Fatal("clone shares state with the original")
	}
}

func TestDownsample(t *testing.T) {
	fine := NewKmerMinHash(31, DNA, DefaultSeed, 100)
	fine.Add(3, 4, 5, 6, 50, 99)
	coarse, err := fine.Downsample(10)
	if err != nil {
		t.Fatal(err)
	}
	if coarse.MaxHash() != 10 {
		t.Fatal("downsampled sketch has the wrong max hash")
	}
	if !Uint64SliceEqual(coarse.Hashes(), []uint64{3, 4, 5, 6}) {
		t.Fatalf("unexpected hashes after downsampling: %v", coarse.Hashes())
	}
	if fine.Size() != 6 {
		t.Fatal("downsampling should not modify the original")
	}
	if _, err := coarse.Downsample(100); !errors.Is(err, ErrMismatchScaled) {
		t.Fatalf("should not be able to refine a sketch, got %v", err)
	}
}

func TestAddSequence(t *testing.T) {
	mh := NewScaledMinHash(kmerSize, DNA, DefaultSeed, 1)

	// try adding a sequence that is too short for the given k
	if err := mh.AddSequence(seqA[0:1]); err == nil {
		t.Fatal("should fault as sequences must be >= kmerSize")
	}

	// try adding a sequence that passes the length check
	if err := mh.AddSequence(seqA); err != nil {
		t.Fatal(err)
	}
	if mh.Size() == 0 || mh.Size() > len(seqA)-int(kmerSize)+1 {
		t.Fatalf("unexpected number of hashes: %d", mh.Size())
	}

	// canonical k-mers mean a sequence and its reverse complement give the same sketch
	rc := NewScaledMinHash(kmerSize, DNA, DefaultSeed, 1)
	if err := rc.AddSequence(seqArcomplement); err != nil {
		t.Fatal(err)
	}
	if !Uint64SliceEqual(mh.Hashes(), rc.Hashes()) {
		t.Fatal("sequence and reverse complement produced different sketches")
	}

	// lower case bases are treated the same as upper case
	lower := NewScaledMinHash(kmerSize, DNA, DefaultSeed, 1)
	if err := lower.AddSequence([]byte("actgcgtgcgtgaaacgtgcacgtgacgtg")); err != nil {
		t.Fatal(err)
	}
	if !Uint64SliceEqual(mh.Hashes(), lower.Hashes()) {
		t.Fatal("case changed the sketch")
	}

	// a different seed should give a different set of hashes
	reseeded := NewScaledMinHash(kmerSize, DNA, 7, 1)
	if err := reseeded.AddSequence(seqA); err != nil {
		t.Fatal(err)
	}
	if Uint64SliceEqual(mh.Hashes(), reseeded.Hashes()) {
		t.Fatal("seed had no effect on the hashes")
	}
}

func TestAddSequenceAmbiguousBases(t *testing.T) {
	mh := NewScaledMinHash(kmerSize, DNA, DefaultSeed, 1)
	if err := mh.AddSequence([]byte("ACTGCGNNNNNNNGACGTG")); err != nil {
		t.Fatal(err)
	}
	if mh.Size() != 0 {
		t.Fatal("k-mers spanning Ns should not be hashed")
	}
}

func TestAddPeptide(t *testing.T) {
	for _, mt := range []MolType{Protein, Dayhoff, HP} {
		a := NewScaledMinHash(5, mt, DefaultSeed, 1)
		if err := a.AddSequence(peptide); err != nil {
			t.Fatal(err)
		}
		b := NewScaledMinHash(5, mt, DefaultSeed, 1)
		if err := b.AddSequence(peptide); err != nil {
			t.Fatal(err)
		}
		if a.Size() == 0 || !Uint64SliceEqual(a.Hashes(), b.Hashes()) {
			t.Fatalf("%v hashing is not deterministic", mt)
		}
	}
}

func TestBottomK(t *testing.T) {
	bk := NewBottomK(kmerSize, DNA, DefaultSeed, sketchSize)
	if err := bk.AddSequence(seqA[0:1]); err == nil {
		t.Fatal("should fault as sequences must be >= kmerSize")
	}
	if err := bk.AddSequence(seqA); err != nil {
		t.Fatal(err)
	}
	if bk.Size() != int(sketchSize) {
		t.Fatalf("bottom-k sketch should be full, has %d hashes", bk.Size())
	}

	// the bottom-k sketch is the smallest num hashes of the full set
	full := NewScaledMinHash(kmerSize, DNA, DefaultSeed, 1)
	if err := full.AddSequence(seqA); err != nil {
		t.Fatal(err)
	}
	if !Uint64SliceEqual(bk.Hashes(), full.Hashes()[:sketchSize]) {
		t.Fatal("bottom-k sketch does not hold the smallest hashes")
	}

	bk2 := NewBottomK(kmerSize, DNA, DefaultSeed, sketchSize)
	if err := bk2.AddSequence(seqArcomplement); err != nil {
		t.Fatal(err)
	}
	js, err := bk.Similarity(bk2)
	if err != nil {
		t.Fatal(err)
	}
	if js != 1.0 {
		t.Fatalf("similarity estimate should be 1.0, not: %.2f", js)
	}
	if _, err := bk.Similarity(NewBottomK(kmerSize, DNA, DefaultSeed, 5)); err == nil {
		t.Fatal("should not compare sketches of different sizes")
	}
}

// benchmark sketching
func BenchmarkAddSequence(b *testing.B) {
	mh := NewScaledMinHash(kmerSize, DNA, DefaultSeed, 1)
	for n := 0; n < b.N; n++ {
		if err := mh.AddSequence(seqA); err != nil {
			b.Fatal(err)
		}
	}
}

// benchmark the containment count used every gather round
func BenchmarkCountCommon(b *testing.B) {
	a := NewKmerMinHash(31, DNA, DefaultSeed, math.MaxUint64)
	c := NewKmerMinHash(31, DNA, DefaultSeed, math.MaxUint64)
	for i := uint64(0); i < 10000; i++ {
		a.Add(i * 3)
		c.Add(i * 5)
	}
	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		if _, err := a.CountCommon(c); err != nil {
			b.Fatal(err)
		}
	}
}

// Uint64SliceEqual returns true if two uint64[] are identical
func Uint64SliceEqual(a []uint64, b []uint64) bool {
	if len(a) != len(b) {
		return false
	}
	for i, v := range a {
		if v != b[i] {
			return false
		}
	}
	return true
}
