package minhash

import (
	"encoding/binary"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/will-rowe/ntHash"
)

// dayhoffTable collapses amino acids into the six Dayhoff classes
var dayhoffTable = buildTable(map[byte]string{
	'a': "C",
	'b': "AGPST",
	'c': "DENQ",
	'd': "HKR",
	'e': "ILMV",
	'f': "FWY",
})

// hpTable collapses amino acids into hydrophobic/polar
var hpTable = buildTable(map[byte]string{
	'h': "AFGILMPVWY",
	'p': "CDEHKNQRST",
})

func buildTable(classes map[byte]string) [256]byte {
	var table [256]byte
	for i := range table {
		table[i] = 'X'
	}
	for class, residues := range classes {
		for i := 0; i < len(residues); i++ {
			table[residues[i]] = class
			table[residues[i]+('a'-'A')] = class
		}
	}
	return table
}

// AddSequence is a method to decompose a sequence into k-mers, hash them and add any below the cutoff to the sketch
func (mh *KmerMinHash) AddSequence(sequence []byte) error {
	hashes, err := hashKmers(sequence, mh.kmerSize, mh.molType, mh.seed)
	if err != nil {
		return err
	}
	mh.Add(hashes...)
	return nil
}

// hashKmers returns the hash of every k-mer in the sequence
func hashKmers(sequence []byte, k uint32, molType MolType, seed uint64) ([]uint64, error) {
	if k == 0 {
		return nil, fmt.Errorf("k-mer size must be greater than 0")
	}
	if len(sequence) < int(k) {
		return nil, fmt.Errorf("sequence length (%d) is short than k-mer length (%d)", len(sequence), k)
	}
	if molType == DNA {
		return hashDNA(sequence, k, seed)
	}
	return hashResidues(encodeResidues(sequence, molType), k, seed), nil
}

// hashDNA uses canonical ntHash values, splitting the sequence at anything that isn't ACGT
func hashDNA(sequence []byte, k uint32, seed uint64) ([]uint64, error) {
	hashes := make([]uint64, 0, len(sequence)-int(k)+1)
	mixer := newSeedMixer(seed)
	for _, run := range acgtRuns(sequence) {
		if len(run) < int(k) {
			continue
		}
		hasher, err := ntHash.New(&run, uint(k))
		if err != nil {
			return nil, err
		}
		for hv := range hasher.Hash(CANONICAL) {
			hashes = append(hashes, mixer.mix(hv))
		}
	}
	return hashes, nil
}

// acgtRuns returns upper case copies of the stretches of unambiguous bases
func acgtRuns(sequence []byte) [][]byte {
	runs := [][]byte{}
	var current []byte
	for _, base := range sequence {
		switch base {
		case 'A', 'C', 'G', 'T':
		case 'a', 'c', 'g', 't':
			base -= 'a' - 'A'
		default:
			if len(current) != 0 {
				runs = append(runs, current)
				current = nil
			}
			continue
		}
		current = append(current, base)
	}
	if len(current) != 0 {
		runs = append(runs, current)
	}
	return runs
}

func encodeResidues(sequence []byte, molType MolType) []byte {
	encoded := make([]byte, len(sequence))
	for i, residue := range sequence {
		switch molType {
		case Dayhoff:
			encoded[i] = dayhoffTable[residue]
		case HP:
			encoded[i] = hpTable[residue]
		default:
			if residue >= 'a' && residue <= 'z' {
				residue -= 'a' - 'A'
			}
			encoded[i] = residue
		}
	}
	return encoded
}

func hashResidues(encoded []byte, k uint32, seed uint64) []uint64 {
	numKmers := len(encoded) - int(k) + 1
	hashes := make([]uint64, 0, numKmers)
	digest := xxhash.NewWithSeed(seed)
	for i := 0; i < numKmers; i++ {
		digest.ResetWithSeed(seed)
		digest.Write(encoded[i : i+int(k)])
		hashes = append(hashes, digest.Sum64())
	}
	return hashes
}

// seedMixer folds the sketch seed into the ntHash values so sketches built with different seeds don't share hashes
type seedMixer struct {
	seed   uint64
	digest *xxhash.Digest
	buf    [8]byte
}

func newSeedMixer(seed uint64) *seedMixer {
	return &seedMixer{seed: seed, digest: xxhash.NewWithSeed(seed)}
}

func (sm *seedMixer) mix(hv uint64) uint64 {
	binary.LittleEndian.PutUint64(sm.buf[:], hv)
	sm.digest.ResetWithSeed(sm.seed)
	sm.digest.Write(sm.buf[:])
	return sm.digest.Sum64()
}
