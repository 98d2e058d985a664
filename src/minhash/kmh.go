package minhash

import (
	"crypto/md5"
	"encoding/hex"
	"sort"
	"strconv"
)

// KmerMinHash is the structure for a scaled MinHash sketch of a set of k-mers
// it keeps every hash at or below maxHash, held as a sorted set
type KmerMinHash struct {
	kmerSize uint32
	molType  MolType
	seed     uint64
	maxHash  uint64
	mins     []uint64
}

// NewKmerMinHash is the constructor for a KmerMinHash data structure
func NewKmerMinHash(k uint32, molType MolType, seed, maxHash uint64) *KmerMinHash {
	return &KmerMinHash{
		kmerSize: k,
		molType:  molType,
		seed:     seed,
		maxHash:  maxHash,
	}
}

// NewScaledMinHash returns an empty KmerMinHash at the resolution given by scaled
func NewScaledMinHash(k uint32, molType MolType, seed, scaled uint64) *KmerMinHash {
	return NewKmerMinHash(k, molType, seed, MaxHashForScaled(scaled))
}

func (mh *KmerMinHash) sketch() {}

// KSize returns the k-mer size
func (mh *KmerMinHash) KSize() uint32 { return mh.kmerSize }

// MolType returns the molecule type
func (mh *KmerMinHash) MolType() MolType { return mh.molType }

// Seed returns the hash seed
func (mh *KmerMinHash) Seed() uint64 { return mh.seed }

// MaxHash returns the hash cutoff
func (mh *KmerMinHash) MaxHash() uint64 { return mh.maxHash }

// Scaled returns the scaled factor derived from the cutoff
func (mh *KmerMinHash) Scaled() uint64 { return ScaledForMaxHash(mh.maxHash) }

// Size returns the number of hashes currently held
func (mh *KmerMinHash) Size() int { return len(mh.mins) }

// Hashes returns a copy of the sorted hash set
func (mh *KmerMinHash) Hashes() []uint64 {
	hashes := make([]uint64, len(mh.mins))
	copy(hashes, mh.mins)
	return hashes
}

// Contains reports if a hash is in the set
func (mh *KmerMinHash) Contains(hv uint64) bool {
	i := sort.Search(len(mh.mins), func(i int) bool { return mh.mins[i] >= hv })
	return i < len(mh.mins) && mh.mins[i] == hv
}

// Clone returns a deep copy of the sketch
func (mh *KmerMinHash) Clone() *KmerMinHash {
	clone := *mh
	clone.mins = mh.Hashes()
	return &clone
}

// Add is a method to add hash values to the sketch, anything above maxHash is ignored
func (mh *KmerMinHash) Add(hashes ...uint64) {
	keep := make([]uint64, 0, len(hashes))
	for _, hv := range hashes {
		if hv <= mh.maxHash {
			keep = append(keep, hv)
		}
	}
	if len(keep) == 0 {
		return
	}
	sort.Slice(keep, func(i, j int) bool { return keep[i] < keep[j] })
	mh.mins = union(mh.mins, dedupe(keep))
}

// AddHashes is the strict version of Add used when reading sketches back in, it refuses hashes above maxHash
func (mh *KmerMinHash) AddHashes(hashes []uint64) error {
	for _, hv := range hashes {
		if hv > mh.maxHash {
			return ErrHashAboveMax
		}
	}
	mh.Add(hashes...)
	return nil
}

// CheckCompatible returns an error if the two sketches can't be compared hash for hash
func (mh *KmerMinHash) CheckCompatible(other *KmerMinHash) error {
	if mh.kmerSize != other.kmerSize {
		return mismatch(MismatchKSizes, "%d vs. %d", mh.kmerSize, other.kmerSize)
	}
	if mh.molType != other.molType {
		return mismatch(MismatchMoleculeType, "%v vs. %v", mh.molType, other.molType)
	}
	if mh.seed != other.seed {
		return mismatch(MismatchSeed, "%d vs. %d", mh.seed, other.seed)
	}
	if mh.maxHash != other.maxHash {
		return mismatch(MismatchScaled, "%d vs. %d", mh.Scaled(), other.Scaled())
	}
	return nil
}

// CountCommon returns the number of hashes shared by the two sketches
func (mh *KmerMinHash) CountCommon(other *KmerMinHash) (uint64, error) {
	if err := mh.CheckCompatible(other); err != nil {
		return 0, err
	}
	var common uint64
	i, j := 0, 0
	for i < len(mh.mins) && j < len(other.mins) {
		switch {
		case mh.mins[i] < other.mins[j]:
			i++
		case mh.mins[i] > other.mins[j]:
			j++
		default:
			common++
			i++
			j++
		}
	}
	return common, nil
}

// Subtract removes every hash held by other from this sketch
func (mh *KmerMinHash) Subtract(other *KmerMinHash) error {
	if err := mh.CheckCompatible(other); err != nil {
		return err
	}

	// the write index never passes the read index, so the filter can reuse the backing array
	kept := mh.mins[:0]
	j := 0
	for _, hv := range mh.mins {
		for j < len(other.mins) && other.mins[j] < hv {
			j++
		}
		if j < len(other.mins) && other.mins[j] == hv {
			continue
		}
		kept = append(kept, hv)
	}
	mh.mins = kept
	return nil
}

// Downsample returns a copy of the sketch holding only the hashes at or below maxHash
func (mh *KmerMinHash) Downsample(maxHash uint64) (*KmerMinHash, error) {
	if maxHash > mh.maxHash {
		return nil, mismatch(MismatchScaled, "can't downsample from scaled %d to the finer scaled %d", mh.Scaled(), ScaledForMaxHash(maxHash))
	}
	ds := NewKmerMinHash(mh.kmerSize, mh.molType, mh.seed, maxHash)
	n := sort.Search(len(mh.mins), func(i int) bool { return mh.mins[i] > maxHash })
	ds.mins = make([]uint64, n)
	copy(ds.mins, mh.mins[:n])
	return ds, nil
}

// MD5Sum returns the checksum used to identify a sketch when a signature has no name
func (mh *KmerMinHash) MD5Sum() string {
	return md5sum(mh.kmerSize, mh.mins)
}

func md5sum(k uint32, hashes []uint64) string {
	h := md5.New()
	h.Write([]byte(strconv.FormatUint(uint64(k), 10)))
	for _, hv := range hashes {
		h.Write([]byte(strconv.FormatUint(hv, 10)))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// dedupe collapses runs of identical values in a sorted slice
func dedupe(sorted []uint64) []uint64 {
	if len(sorted) < 2 {
		return sorted
	}
	out := sorted[:1]
	for _, hv := range sorted[1:] {
		if hv != out[len(out)-1] {
			out = append(out, hv)
		}
	}
	return out
}

// union merges two sorted sets
func union(a, b []uint64) []uint64 {
	out := make([]uint64, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			out = append(out, a[i])
			i++
		case a[i] > b[j]:
			out = append(out, b[j])
			j++
		default:
			out = append(out, a[i])
			i++
			j++
		}
	}
	out = append(out, a[i:]...)
	return append(out, b[j:]...)
}
