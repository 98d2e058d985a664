package pipeline

import (
	"bytes"
	"io/ioutil"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/will-rowe/countergather/src/gather"
	"github.com/will-rowe/countergather/src/minhash"
	"github.com/will-rowe/countergather/src/signature"
	"github.com/will-rowe/countergather/src/version"
)

///////////////////////////////////////////////////////////////////////////////////////////////

/*
TEST DATA
*/
// two references that share a stretch of sequence, the query is made from both
var (
	refA  = "ACTGCGTGCGTGAAACGTGCACGTGACGTGGATCCGATTACAGGCTTACCGGATAGCTAGCTAGGATCC"
	refB  = "TTGACCAGTAGGCATCGATCGGATATCGCGCTAGAGCTATCGGCGATTACGACGGCATTACGAGCAT"
	query = refA + "NNNN" + refB
)

///////////////////////////////////////////////////////////////////////////////////////////////

/*
TEST PARAMETERS
*/
func testParameters(t *testing.T) *Info {
	template, err := gather.NewTemplate(11, minhash.DNA, 1, minhash.DefaultSeed)
	if err != nil {
		t.Fatal(err)
	}
	return &Info{
		NumProc:  2,
		Version:  version.GetVersion(),
		Template: template,
	}
}

func writeFasta(t *testing.T, dir, name, id, seq string) string {
	path := filepath.Join(dir, name)
	if err := ioutil.WriteFile(path, []byte(">"+id+"\n"+seq+"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

// sketchFiles runs the sketch pipeline
func sketchFiles(t *testing.T, info *Info, outFile string, files ...string) []*signature.Signature {
	info.Sketch.OutFile = outFile
	sketcher := NewSequenceSketcher(info)
	sketcher.Connect(files)
	writer := NewSignatureWriter(info)
	writer.Connect(sketcher)
	newPipeline := NewPipeline()
	newPipeline.AddProcesses(sketcher, writer)
	newPipeline.Run()
	return writer.CollectOutput()
}

///////////////////////////////////////////////////////////////////////////////////////////////

/*
DUMMY PIPELINE
*/

type ComponentA struct {
	input  []int
	output chan int
}

func NewComponentA(i []int) *ComponentA {
	return &ComponentA{input: i, output: make(chan int)}
}

func (ComponentA *ComponentA) Run() {
	defer close(ComponentA.output)
	for _, input := range ComponentA.input {
		ComponentA.output <- input
	}
}

type ComponentB struct {
	input    chan int
	addition int
	results  []int
}

func NewComponentB(i int) *ComponentB {
	return &ComponentB{addition: i}
}

func (ComponentB *ComponentB) Connect(previous *ComponentA) {
	ComponentB.input = previous.output
}

func (ComponentB *ComponentB) Run() {
	results := []int{}
	for input := range ComponentB.input {
		results = append(results, (input + ComponentB.addition))
	}
	ComponentB.results = results
}

///////////////////////////////////////////////////////////////////////////////////////////////

/*
PIPELINE TESTS
*/

func TestPipeline(t *testing.T) {
	inputValues := []int{1, 2, 3, 4}
	expectedOutput := []int{11, 12, 13, 14}

	a := NewComponentA(inputValues)
	b := NewComponentB(10)
	newPipeline := NewPipeline()
	newPipeline.AddProcesses(a, b)
	b.Connect(a)
	if newPipeline.GetNumProcesses() != 2 {
		t.Fatal("did not add correct number of processes to pipeline")
	}
	newPipeline.Run()
	if len(expectedOutput) != len(b.results) {
		t.Fatal("pipeline did not produce expected output")
	}
	for i, val := range b.results {
		if val != expectedOutput[i] {
			t.Fatal("pipeline did not produce expected output")
		}
	}
}

func TestSketchPipeline(t *testing.T) {
	dir := t.TempDir()
	info := testParameters(t)
	files := []string{writeFasta(t, dir, "a.fa", "refA", refA), writeFasta(t, dir, "b.fa", "refB", refB)}
	outFile := filepath.Join(dir, "refs.sig")
	sigs := sketchFiles(t, info, outFile, files...)
	if len(sigs) != 2 {
		t.Fatalf("expected 2 signatures, got %d", len(sigs))
	}
	loaded, err := signature.Load(outFile)
	if err != nil {
		t.Fatal(err)
	}
	if loaded[0].Name() != "refA" || loaded[1].Name() != "refB" {
		t.Fatalf("signatures not written in input order: %v %v", loaded[0].Name(), loaded[1].Name())
	}
	expected := len(refA) - int(info.Template.KSize) + 1
	if got := loaded[0].Sketches()[0].Size(); got > expected || got < expected-5 {
		t.Fatalf("unexpected number of hashes for refA: %d", got)
	}

	// a name merges the files into one signature
	info.Sketch.Name = "both"
	merged := sketchFiles(t, info, filepath.Join(dir, "both.sig"), files...)
	if len(merged) != 1 || merged[0].Name() != "both" {
		t.Fatal("files were not merged into a single signature")
	}
	if merged[0].Sketches()[0].Size() <= loaded[0].Sketches()[0].Size() {
		t.Fatal("merged signature should hold the hashes of both files")
	}

	// a num gives a bottom-k sketch
	info.Sketch.Name = ""
	info.Sketch.Num = 10
	bk := sketchFiles(t, info, filepath.Join(dir, "bk.sig"), files[0])
	if _, ok := bk[0].Sketches()[0].(*minhash.BottomK); !ok {
		t.Fatal("expected a bottom-k sketch")
	}
}

func TestGatherPipeline(t *testing.T) {
	dir := t.TempDir()
	info := testParameters(t)
	querySig := filepath.Join(dir, "query.sig")
	sketchFiles(t, info, querySig, writeFasta(t, dir, "query.fa", "query", query))
	refSigs := []string{filepath.Join(dir, "b.sig"), filepath.Join(dir, "a.sig"), filepath.Join(dir, "other.sig")}
	sketchFiles(t, info, refSigs[0], writeFasta(t, dir, "b.fa", "refB", refB))
	sketchFiles(t, info, refSigs[1], writeFasta(t, dir, "a.fa", "refA", refA+"GATTACA"))
	sketchFiles(t, info, refSigs[2], writeFasta(t, dir, "other.fa", "other", strings.Repeat("AC", 40)))

	matchlist := filepath.Join(dir, "matchlist.txt")
	list := strings.Join(append(refSigs, filepath.Join(dir, "missing.sig")), "\n")
	if err := ioutil.WriteFile(matchlist, []byte(list+"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	info.Gather = GatherCmd{Query: querySig, Matchlist: matchlist, PlotFile: filepath.Join(dir, "gather.svg")}
	pool, err := gather.NewPool(info.NumProc)
	if err != nil {
		t.Fatal(err)
	}
	defer pool.Release()
	info.AttachPool(pool)

	var out bytes.Buffer
	queryLoader := NewQueryLoader(info)
	candidateLoader := NewCandidateLoader(info)
	candidateLoader.Connect(queryLoader)
	gatherer := NewGatherer(info)
	gatherer.Connect(candidateLoader)
	reporter := NewResultReporter(info, gather.NewTextReporter(&out))
	reporter.Connect(gatherer)
	newPipeline := NewPipeline()
	newPipeline.AddProcesses(queryLoader, candidateLoader, gatherer, reporter)
	newPipeline.Run()

	results := reporter.CollectOutput()
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d:\n%v", len(results), out.String())
	}
	if results[0].Name != "refA" || results[1].Name != "refB" {
		t.Fatalf("unexpected selection order: %v then %v", results[0].Name, results[1].Name)
	}
	if results[0].Remaining != 2 || results[0].Containment <= results[1].Containment {
		t.Fatalf("unexpected first round: %+v", results[0])
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 4 || !strings.HasPrefix(lines[0], "remaining: ") || !strings.HasPrefix(lines[1], "refA - ") {
		t.Fatalf("unexpected report:\n%v", out.String())
	}
	if _, err := os.Stat(info.Gather.PlotFile); err != nil {
		t.Fatal(err)
	}
}

func TestGatherPipelineEmptyMatchlist(t *testing.T) {
	dir := t.TempDir()
	info := testParameters(t)
	querySig := filepath.Join(dir, "query.sig")
	mh := info.Template.NewSketch()
	mh.Add(1, 2, 3, math.MaxUint64)
	if err := signature.Save(querySig, []*signature.Signature{signature.New("query", "", mh)}); err != nil {
		t.Fatal(err)
	}
	matchlist := filepath.Join(dir, "matchlist.txt")
	if err := ioutil.WriteFile(matchlist, nil, 0644); err != nil {
		t.Fatal(err)
	}
	info.Gather = GatherCmd{Query: querySig, Matchlist: matchlist}

	var out bytes.Buffer
	queryLoader := NewQueryLoader(info)
	candidateLoader := NewCandidateLoader(info)
	candidateLoader.Connect(queryLoader)
	gatherer := NewGatherer(info)
	gatherer.Connect(candidateLoader)
	reporter := NewResultReporter(info, gather.NewTextReporter(&out))
	reporter.Connect(gatherer)
	newPipeline := NewPipeline()
	newPipeline.AddProcesses(queryLoader, candidateLoader, gatherer, reporter)
	newPipeline.Run()

	if out.String() != "No matchlist signatures loaded, exiting.\n" {
		t.Fatalf("unexpected output: %q", out.String())
	}
}

func TestGetPoolConcurrent(t *testing.T) {
	info := testParameters(t)
	pools := make([]*gather.Pool, 8)
	var wg sync.WaitGroup
	for i := range pools {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			pool, err := info.getPool()
			if err != nil {
				t.Error(err)
			}
			pools[i] = pool
		}(i)
	}
	wg.Wait()
	for _, pool := range pools {
		if pool == nil || pool != pools[0] {
			t.Fatal("concurrent callers did not share a single pool")
		}
	}
	if !info.ownsPool {
		t.Fatal("pool created on demand should be owned by the runtime info")
	}
	info.releaseOwnedPool()
	if !pools[0].Closed() {
		t.Fatal("owned pool was not released")
	}
}

func TestGatherPipelinePoolRelease(t *testing.T) {
	dir := t.TempDir()
	info := testParameters(t)
	querySig := filepath.Join(dir, "query.sig")
	sketchFiles(t, info, querySig, writeFasta(t, dir, "query.fa", "query", query))
	refSig := filepath.Join(dir, "a.sig")
	sketchFiles(t, info, refSig, writeFasta(t, dir, "a.fa", "refA", refA))
	matchlist := filepath.Join(dir, "matchlist.txt")
	if err := ioutil.WriteFile(matchlist, []byte(refSig+"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	runGather := func(info *Info) []gather.Result {
		info.Gather = GatherCmd{Query: querySig, Matchlist: matchlist}
		var out bytes.Buffer
		queryLoader := NewQueryLoader(info)
		candidateLoader := NewCandidateLoader(info)
		candidateLoader.Connect(queryLoader)
		gatherer := NewGatherer(info)
		gatherer.Connect(candidateLoader)
		reporter := NewResultReporter(info, gather.NewTextReporter(&out))
		reporter.Connect(gatherer)
		newPipeline := NewPipeline()
		newPipeline.AddProcesses(queryLoader, candidateLoader, gatherer, reporter)
		newPipeline.Run()
		return reporter.CollectOutput()
	}

	// no pool attached: one is created for the run and released once the gather is done
	if results := runGather(info); len(results) != 1 || results[0].Name != "refA" {
		t.Fatalf("unexpected results: %+v", results)
	}
	if info.pool == nil || !info.pool.Closed() {
		t.Fatal("pool created by the pipeline was not released")
	}

	// an attached pool belongs to the caller and is left running
	attached := testParameters(t)
	pool, err := gather.NewPool(attached.NumProc)
	if err != nil {
		t.Fatal(err)
	}
	defer pool.Release()
	attached.AttachPool(pool)
	if results := runGather(attached); len(results) != 1 {
		t.Fatalf("unexpected results: %+v", results)
	}
	if pool.Closed() {
		t.Fatal("attached pool should not be released by the pipeline")
	}
}
