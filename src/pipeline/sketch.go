package pipeline

/*
 this part of the pipeline reads sequence files, sketches them and writes the signatures
*/

import (
	"fmt"
	"io"
	"log"
	"sort"
	"sync"

	"github.com/will-rowe/countergather/src/minhash"
	"github.com/will-rowe/countergather/src/misc"
	"github.com/will-rowe/countergather/src/seqio"
	"github.com/will-rowe/countergather/src/signature"
)

// sequenceSketch is a sketch that can be built from sequence
type sequenceSketch interface {
	minhash.Sketch
	AddSequence([]byte) error
}

// sketchedFile is a signature along with the position of its file in the input
type sketchedFile struct {
	idx     int
	sig     *signature.Signature
	records int
	skipped int
}

// SequenceSketcher is a pipeline process that sketches each input sequence file
type SequenceSketcher struct {
	info   *Info
	input  []string
	output chan *sketchedFile
}

// NewSequenceSketcher is the constructor
func NewSequenceSketcher(info *Info) *SequenceSketcher {
	return &SequenceSketcher{info: info, output: make(chan *sketchedFile, BUFFERSIZE)}
}

// Connect is the method to connect the SequenceSketcher to some sequence files
func (proc *SequenceSketcher) Connect(input []string) {
	proc.input = input
}

// Run is the method to run this process, which satisfies the pipeline interface
func (proc *SequenceSketcher) Run() {
	defer close(proc.output)
	numProc := proc.info.NumProc
	if numProc < 1 {
		numProc = 1
	}
	tokens := make(chan struct{}, numProc)
	var wg sync.WaitGroup
	for i, file := range proc.input {
		wg.Add(1)
		tokens <- struct{}{}
		go func(idx int, file string) {
			defer func() {
				<-tokens
				wg.Done()
			}()
			sf, err := proc.sketchFile(file)
			misc.ErrorCheck(err)
			sf.idx = idx
			proc.output <- sf
		}(i, file)
	}
	wg.Wait()
}

// newSketch returns an empty sketch using the template, or a bottom-k sketch if a num has been set
func (proc *SequenceSketcher) newSketch() sequenceSketch {
	t := proc.info.Template
	if proc.info.Sketch.Num > 0 {
		return minhash.NewBottomK(t.KSize, t.MolType, t.Seed, proc.info.Sketch.Num)
	}
	return t.NewSketch()
}

// sketchFile adds every record in a sequence file to a single sketch
func (proc *SequenceSketcher) sketchFile(file string) (*sketchedFile, error) {
	reader, err := seqio.NewReader(file, proc.info.Template.MolType)
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	sketch := proc.newSketch()
	sf := &sketchedFile{}
	name := ""
	for {
		seq, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("could not read %v: %w", file, err)
		}
		sf.records++
		if name == "" {
			name = seq.ID
		}
		if proc.info.Sketch.MinQual > 0 {
			seq.QualTrim(proc.info.Sketch.MinQual)
		}
		if proc.info.Template.MolType == minhash.DNA {
			seq.BaseCheck()
		}
		if err := sketch.AddSequence(seq.Seq); err != nil {
			sf.skipped++
		}
	}
	if sf.records == 0 {
		return nil, fmt.Errorf("no sequences found in %v", file)
	}
	sf.sig = signature.New(name, file, sketch)
	return sf, nil
}

// SignatureWriter is a pipeline process that collects the sketched files and saves them as signatures
type SignatureWriter struct {
	info  *Info
	input chan *sketchedFile
	sigs  []*signature.Signature
}

// NewSignatureWriter is the constructor
func NewSignatureWriter(info *Info) *SignatureWriter {
	return &SignatureWriter{info: info}
}

// Connect is the method to join the input of this process with the output of SequenceSketcher
func (proc *SignatureWriter) Connect(previous *SequenceSketcher) {
	proc.input = previous.output
}

// CollectOutput is a method to return the signatures that were written
func (proc *SignatureWriter) CollectOutput() []*signature.Signature {
	return proc.sigs
}

// Run is the method to run this process, which satisfies the pipeline interface
func (proc *SignatureWriter) Run() {
	files := []*sketchedFile{}
	records, skipped := 0, 0
	for sf := range proc.input {
		files = append(files, sf)
		records += sf.records
		skipped += sf.skipped
	}
	sort.Slice(files, func(i, j int) bool { return files[i].idx < files[j].idx })
	log.Printf("\tsequence files sketched: %d", len(files))
	log.Printf("\tsequences sketched: %d", records-skipped)
	if skipped != 0 {
		log.Printf("\tsequences shorter than k: %d", skipped)
	}

	// a name merges every file into a single signature
	if proc.info.Sketch.Name != "" && len(files) != 0 {
		merged, err := mergeSketches(files)
		misc.ErrorCheck(err)
		proc.sigs = []*signature.Signature{signature.New(proc.info.Sketch.Name, files[0].sig.Filename(), merged)}
	} else {
		for _, sf := range files {
			proc.sigs = append(proc.sigs, sf.sig)
		}
	}
	misc.ErrorCheck(signature.Save(proc.info.Sketch.OutFile, proc.sigs))
	log.Printf("\tsignatures written to: %v", proc.info.Sketch.OutFile)
}

// mergeSketches combines the first sketch of each file
func mergeSketches(files []*sketchedFile) (minhash.Sketch, error) {
	switch first := files[0].sig.Sketches()[0].(type) {
	case *minhash.KmerMinHash:
		merged := first.Clone()
		for _, sf := range files[1:] {
			merged.Add(sf.sig.Sketches()[0].Hashes()...)
		}
		return merged, nil
	case *minhash.BottomK:
		merged := minhash.NewBottomK(first.KSize(), first.MolType(), first.Seed(), first.Num())
		for _, sf := range files {
			for _, hv := range sf.sig.Sketches()[0].Hashes() {
				merged.AddHash(hv)
			}
		}
		return merged, nil
	}
	return nil, fmt.Errorf("can't merge sketch of type %T", files[0].sig.Sketches()[0])
}
