/*
	the seqio package contains custom types and methods for reading and processing sequence data
*/
package seqio

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/biogo/biogo/alphabet"
	biogoseqio "github.com/biogo/biogo/io/seqio"
	"github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/io/seqio/fastq"
	"github.com/biogo/biogo/seq/linear"
	"github.com/will-rowe/countergather/src/minhash"
)

// FastaExts and FastqExts are the recognised sequence file extensions (a trailing .gz is allowed)
var (
	FastaExts = []string{"fasta", "fa", "fna", "faa", "ffn"}
	FastqExts = []string{"fastq", "fq"}
)

// Sequence is the base type for a sequence record
type Sequence struct {
	ID   string
	Seq  []byte
	Qual []byte // phred scores, only set for FASTQ records
}

// BaseCheck is a method to convert bases to upper case and replace anything that isn't ACTG with N
func (Sequence *Sequence) BaseCheck() {
	for i, base := range Sequence.Seq {
		switch base {
		case 'A', 'C', 'T', 'G':
		case 'a', 'c', 't', 'g':
			Sequence.Seq[i] = base - ('a' - 'A')
		default:
			Sequence.Seq[i] = 'N'
		}
	}
}

// QualTrim is a method to quality trim the sequence, records without quality scores are left alone
/* the algorithm is based on bwa/cutadapt read quality trim functions:
-1. for each index position, subtract qual cutoff from the quality score
-2. sum these values across the read and trim at the index where the sum in minimal
-3. return the high-quality region
*/
func (Sequence *Sequence) QualTrim(minQual int) {
	if len(Sequence.Qual) == 0 || len(Sequence.Qual) != len(Sequence.Seq) {
		return
	}
	start, qualSum, qualMax := 0, 0, 0
	end := len(Sequence.Qual)
	for i, qual := range Sequence.Qual {
		qualSum += minQual - int(qual)
		if qualSum < 0 {
			break
		}
		if qualSum > qualMax {
			qualMax = qualSum
			start = i + 1
		}
	}
	qualSum, qualMax = 0, 0
	for j := len(Sequence.Qual) - 1; j >= 0; j-- {
		qualSum += minQual - int(Sequence.Qual[j])
		if qualSum < 0 {
			break
		}
		if qualSum > qualMax {
			qualMax = qualSum
			end = j
		}
	}
	if start >= end {
		start, end = 0, 0
	}
	Sequence.Seq = Sequence.Seq[start:end]
	Sequence.Qual = Sequence.Qual[start:end]
}

// Reader streams the records of a FASTA or FASTQ file, which may be gzipped
type Reader struct {
	fh      *os.File
	gz      *gzip.Reader
	scanner *biogoseqio.Scanner
	fastq   bool
}

// NewReader opens a sequence file, the format is taken from the file extension
func NewReader(path string, molType minhash.MolType) (*Reader, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	reader := &Reader{fh: fh, fastq: IsFASTQ(path)}

	// gzip is spotted from the content
	br := bufio.NewReader(fh)
	var r io.Reader = br
	magic, err := br.Peek(2)
	if err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		if reader.gz, err = gzip.NewReader(r); err != nil {
			fh.Close()
			return nil, fmt.Errorf("could not decompress %v: %w", path, err)
		}
		r = reader.gz
	}

	alpha := alphabet.Alphabet(alphabet.DNA)
	if molType != minhash.DNA {
		alpha = alphabet.Protein
	}
	if reader.fastq {
		reader.scanner = biogoseqio.NewScanner(fastq.NewReader(r, linear.NewQSeq("", nil, alpha, alphabet.Sanger)))
	} else {
		reader.scanner = biogoseqio.NewScanner(fasta.NewReader(r, linear.NewSeq("", nil, alpha)))
	}
	return reader, nil
}

// Next returns the next record, or io.EOF once the file is exhausted
func (reader *Reader) Next() (*Sequence, error) {
	if !reader.scanner.Next() {
		if err := reader.scanner.Error(); err != nil {
			return nil, err
		}
		return nil, io.EOF
	}
	switch s := reader.scanner.Seq().(type) {
	case *linear.Seq:
		seq := make([]byte, len(s.Seq))
		for i, l := range s.Seq {
			seq[i] = byte(l)
		}
		return &Sequence{ID: s.Name(), Seq: seq}, nil
	case *linear.QSeq:
		seq := make([]byte, len(s.Seq))
		qual := make([]byte, len(s.Seq))
		for i, ql := range s.Seq {
			seq[i] = byte(ql.L)
			qual[i] = byte(ql.Q)
		}
		return &Sequence{ID: s.Name(), Seq: seq, Qual: qual}, nil
	default:
		return nil, fmt.Errorf("unexpected sequence type: %T", s)
	}
}

// Close closes the underlying file
func (reader *Reader) Close() error {
	if reader.gz != nil {
		reader.gz.Close()
	}
	return reader.fh.Close()
}

// IsFASTQ reports if a file has a FASTQ extension
func IsFASTQ(path string) bool {
	name := strings.TrimSuffix(strings.ToLower(path), ".gz")
	for _, ext := range FastqExts {
		if strings.HasSuffix(name, "."+ext) {
			return true
		}
	}
	return false
}
