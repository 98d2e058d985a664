package minhash

import (
	"container/heap"
	"fmt"
	"sort"
)

// BottomK is the structure for the K-Minimum Values MinHash sketch of a set of k-mers
// it holds a fixed number of hashes, so unlike KmerMinHash it can't be downsampled to a scaled resolution
type BottomK struct {
	kmerSize uint32
	molType  MolType
	seed     uint64
	num      uint32
	heap     *hashHeap
	members  map[uint64]struct{}
}

// NewBottomK is the constructor for a BottomK data structure
func NewBottomK(k uint32, molType MolType, seed uint64, num uint32) *BottomK {
	newSketch := &BottomK{
		kmerSize: k,
		molType:  molType,
		seed:     seed,
		num:      num,
		heap:     &hashHeap{},
		members:  make(map[uint64]struct{}, num),
	}
	heap.Init(newSketch.heap)
	return newSketch
}

func (bk *BottomK) sketch() {}

// KSize returns the k-mer size
func (bk *BottomK) KSize() uint32 { return bk.kmerSize }

// MolType returns the molecule type
func (bk *BottomK) MolType() MolType { return bk.molType }

// Seed returns the hash seed
func (bk *BottomK) Seed() uint64 { return bk.seed }

// Num returns the maximum number of hashes the sketch keeps
func (bk *BottomK) Num() uint32 { return bk.num }

// Size returns the number of hashes currently held
func (bk *BottomK) Size() int { return len(*bk.heap) }

// AddSequence is a method to decompose a sequence to k-mers, hash them and add any minimums to the sketch
func (bk *BottomK) AddSequence(sequence []byte) error {
	hashes, err := hashKmers(sequence, bk.kmerSize, bk.molType, bk.seed)
	if err != nil {
		return err
	}
	for _, hv := range hashes {
		bk.AddHash(hv)
	}
	return nil
}

// AddHash offers a single hash value to the sketch
func (bk *BottomK) AddHash(hv uint64) {
	if bk.num == 0 {
		return
	}
	if _, ok := bk.members[hv]; ok {
		return
	}

	// if the heap isn't full yet, go ahead and add the hash
	if len(*bk.heap) < int(bk.num) {
		heap.Push(bk.heap, hv)
		bk.members[hv] = struct{}{}
		return
	}

	// or if the incoming hash is smaller than the hash at the top of the heap, replace the larger one
	if hv < (*bk.heap)[0] {
		delete(bk.members, (*bk.heap)[0])
		(*bk.heap)[0] = hv
		bk.members[hv] = struct{}{}
		heap.Fix(bk.heap, 0)
	}
}

// Hashes returns the sketch as a sorted (min > max) slice
func (bk *BottomK) Hashes() []uint64 {
	hashes := make([]uint64, len(*bk.heap))
	copy(hashes, *bk.heap)
	sort.Slice(hashes, func(i, j int) bool { return hashes[i] < hashes[j] })
	return hashes
}

// MD5Sum returns the checksum used to identify a sketch when a signature has no name
func (bk *BottomK) MD5Sum() string {
	return md5sum(bk.kmerSize, bk.Hashes())
}

// Similarity estimates the Jaccard similarity between two k-mer sets based on their bottom-k sketches
func (bk *BottomK) Similarity(other *BottomK) (float64, error) {
	if bk.kmerSize != other.kmerSize {
		return 0.0, mismatch(MismatchKSizes, "%d vs. %d", bk.kmerSize, other.kmerSize)
	}
	if bk.molType != other.molType {
		return 0.0, mismatch(MismatchMoleculeType, "%v vs. %v", bk.molType, other.molType)
	}
	if bk.seed != other.seed {
		return 0.0, mismatch(MismatchSeed, "%d vs. %d", bk.seed, other.seed)
	}
	if bk.num != other.num {
		return 0.0, fmt.Errorf("sketches do not have the same number of minimums: %d vs %d", bk.num, other.num)
	}

	// merge the two sorted sketches, only looking at the smallest num hashes of the union
	a, b := bk.Hashes(), other.Hashes()
	intersect, seen := 0, 0
	i, j := 0, 0
	for seen < int(bk.num) && i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			i++
		case a[i] > b[j]:
			j++
		default:
			intersect++
			i++
			j++
		}
		seen++
	}
	if seen == 0 {
		return 0.0, nil
	}
	return float64(intersect) / float64(seen), nil
}
