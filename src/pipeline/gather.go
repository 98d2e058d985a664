package pipeline

/*
 this part of the pipeline loads the query and the matchlist, runs the greedy gather and reports each selection
*/

import (
	"log"

	"github.com/will-rowe/countergather/src/gather"
	"github.com/will-rowe/countergather/src/minhash"
	"github.com/will-rowe/countergather/src/misc"
	"github.com/will-rowe/countergather/src/reporting"
	"github.com/will-rowe/countergather/src/signature"
)

// Query is the normalised query sketch
type Query struct {
	Name   string
	Sketch *minhash.KmerMinHash
}

// CandidateSet is a query and the candidates that overlap it
type CandidateSet struct {
	Query      *Query
	Candidates []*gather.Candidate
	Stats      gather.LoadStats
}

// QueryLoader is a pipeline process that loads the query signature and brings it to the template resolution
type QueryLoader struct {
	info   *Info
	output chan *Query
}

// NewQueryLoader is the constructor
func NewQueryLoader(info *Info) *QueryLoader {
	return &QueryLoader{info: info, output: make(chan *Query)}
}

// Run is the method to run this process, which satisfies the pipeline interface
func (proc *QueryLoader) Run() {
	defer close(proc.output)
	log.Printf("loading query...")
	sigs, err := signature.Load(proc.info.Gather.Query)
	misc.ErrorCheck(err)
	sketch, name, err := gather.PrepareQuery(sigs, proc.info.Template)
	misc.ErrorCheck(err)
	log.Printf("\tquery: %v", name)
	log.Printf("\thashes at template resolution: %d", sketch.Size())
	proc.output <- &Query{Name: name, Sketch: sketch}
}

// CandidateLoader is a pipeline process that loads every matchlist signature and keeps those that overlap the query
type CandidateLoader struct {
	info   *Info
	input  chan *Query
	output chan *CandidateSet
}

// NewCandidateLoader is the constructor
func NewCandidateLoader(info *Info) *CandidateLoader {
	return &CandidateLoader{info: info, output: make(chan *CandidateSet)}
}

// Connect is the method to join the input of this process with the output of QueryLoader
func (proc *CandidateLoader) Connect(previous *QueryLoader) {
	proc.input = previous.output
}

// Run is the method to run this process, which satisfies the pipeline interface
func (proc *CandidateLoader) Run() {
	defer close(proc.output)
	paths, err := gather.ReadMatchlist(proc.info.Gather.Matchlist)
	misc.ErrorCheck(err)
	pool, err := proc.info.getPool()
	misc.ErrorCheck(err)
	for query := range proc.input {
		log.Printf("loading matchlist signatures...")
		candidates, stats, err := gather.LoadCandidates(paths, query.Sketch, proc.info.Template, pool, signature.Load)
		misc.ErrorCheck(err)
		log.Printf("\t%v", stats)
		proc.output <- &CandidateSet{Query: query, Candidates: candidates, Stats: stats}
	}
}

// Gatherer is a pipeline process that runs the greedy gather and sends on each selection
type Gatherer struct {
	info   *Info
	input  chan *CandidateSet
	output chan gather.Result
}

// NewGatherer is the constructor
func NewGatherer(info *Info) *Gatherer {
	return &Gatherer{info: info, output: make(chan gather.Result, BUFFERSIZE)}
}

// Connect is the method to join the input of this process with the output of CandidateLoader
func (proc *Gatherer) Connect(previous *CandidateLoader) {
	proc.input = previous.output
}

// Run is the method to run this process, which satisfies the pipeline interface
func (proc *Gatherer) Run() {
	defer close(proc.output)

	// the candidate loader is finished with the pool once its output is closed, so the gatherer is the last user
	defer proc.info.releaseOwnedPool()
	pool, err := proc.info.getPool()
	misc.ErrorCheck(err)
	for set := range proc.input {
		log.Printf("gathering...")
		engine := gather.NewEngine(set.Query.Sketch, set.Candidates, pool)
		rounds, err := engine.Run(func(res gather.Result) error {
			proc.output <- res
			return nil
		})
		misc.ErrorCheck(err)
		log.Printf("\trounds: %d", rounds)
		log.Printf("\tquery hashes left unexplained: %d", engine.QuerySize())
	}
}

// ResultReporter is a pipeline process that writes the gather results
type ResultReporter struct {
	info     *Info
	input    chan gather.Result
	reporter gather.Reporter
	results  []gather.Result
}

// NewResultReporter is the constructor
func NewResultReporter(info *Info, reporter gather.Reporter) *ResultReporter {
	return &ResultReporter{info: info, reporter: reporter}
}

// Connect is the method to join the input of this process with the output of Gatherer
func (proc *ResultReporter) Connect(previous *Gatherer) {
	proc.input = previous.output
}

// CollectOutput is a method to return the results in selection order
func (proc *ResultReporter) CollectOutput() []gather.Result {
	return proc.results
}

// Run is the method to run this process, which satisfies the pipeline interface
func (proc *ResultReporter) Run() {
	for res := range proc.input {
		misc.ErrorCheck(gather.Report(proc.reporter, res))
		proc.results = append(proc.results, res)
	}
	misc.ErrorCheck(proc.reporter.Done(len(proc.results)))
	if proc.info.Gather.PlotFile != "" && len(proc.results) != 0 {
		misc.ErrorCheck(reporting.PlotResults(proc.results, proc.info.Gather.PlotFile))
		log.Printf("\tplot written to: %v", proc.info.Gather.PlotFile)
	}
}
