// Copyright © 2017 Will Rowe <will.rowe@stfc.ac.uk>
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package cmd

import (
	"fmt"
	"log"
	"os"
	"runtime"

	"github.com/pkg/profile"
	"github.com/spf13/cobra"
	"github.com/will-rowe/countergather/src/gather"
	"github.com/will-rowe/countergather/src/minhash"
	"github.com/will-rowe/countergather/src/misc"
	"github.com/will-rowe/countergather/src/pipeline"
	"github.com/will-rowe/countergather/src/version"
)

// the command line arguments
var (
	proc      *int    // number of processors to use
	profiling *bool   // create profile for go pprof
	logFile   *string // filename for log file
	kmerSize  *uint   // k-mer size of the template
	scaled    *uint64 // scaled factor of the template
	molType   *string // molecule type of the template
	seed      *uint64 // hash seed of the template
	plotFile  *string // file to plot the results to
)

// RootCmd represents the base command, which runs the gather
var RootCmd = &cobra.Command{
	Use:   "countergather <query signature> <matchlist>",
	Short: "greedy decomposition of a query sketch into the references that best explain it",
	Long: `
#####################################################################################
		countergather: greedy containment gather over scaled MinHash sketches
#####################################################################################

 countergather takes a query signature and a matchlist (a file listing one reference
 signature per line). Every sketch is brought to a single comparison resolution, the
 references that share hashes with the query are kept, and then the reference with
 the largest overlap is repeatedly selected and its hashes removed from the query
 until nothing is left to explain.

 Reference signatures can be built from FASTA/FASTQ with the sketch subcommand.`,
	Version: version.GetVersion(),
	Args:    cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		runGather(args[0], args[1])
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

/*
  A function to initalise the command line arguments
*/
func init() {
	proc = RootCmd.PersistentFlags().IntP("processors", "p", 1, "number of processors to use")
	profiling = RootCmd.PersistentFlags().Bool("profiling", false, "create the files needed to profile countergather using the go tool pprof")
	logFile = RootCmd.PersistentFlags().String("log", "", "filename for log file (default: log to STDERR)")
	kmerSize = RootCmd.PersistentFlags().UintP("ksize", "k", uint(gather.DefaultKSize), "k-mer size")
	scaled = RootCmd.PersistentFlags().Uint64P("scaled", "s", gather.DefaultScaled, "scaled factor (keep hashes below 2^64 / scaled)")
	molType = RootCmd.PersistentFlags().StringP("moltype", "m", "dna", "molecule type (dna|protein|dayhoff|hp)")
	seed = RootCmd.PersistentFlags().Uint64("seed", minhash.DefaultSeed, "hash seed")
	plotFile = RootCmd.Flags().String("plot", "", "write a bar chart of the gather results to this file (.png, .svg, .pdf)")
}

/*
  A function to set up logging, shared by all commands
*/
func startLogging() *os.File {
	if *logFile == "" {
		return nil
	}
	logFH, err := misc.StartLogging(*logFile)
	misc.ErrorCheck(err)
	log.SetOutput(logFH)
	return logFH
}

/*
  A function to check the template and processor parameters, shared by all commands
*/
func templateParamCheck() (gather.Template, error) {
	mt, err := minhash.ParseMolType(*molType)
	if err != nil {
		return gather.Template{}, err
	}
	if *kmerSize > 255 {
		return gather.Template{}, fmt.Errorf("k-mer size must be less than 256: %d", *kmerSize)
	}
	template, err := gather.NewTemplate(uint32(*kmerSize), mt, *scaled, *seed)
	if err != nil {
		return gather.Template{}, err
	}

	// set number of processors to use
	if *proc <= 0 || *proc > runtime.NumCPU() {
		*proc = runtime.NumCPU()
	}
	runtime.GOMAXPROCS(*proc)
	return template, nil
}

/*
  A function to check user supplied parameters
*/
func gatherParamCheck(query, matchlist string) error {
	if err := misc.CheckFile(query); err != nil {
		return fmt.Errorf("query signature: %w", err)
	}
	if err := misc.CheckFile(matchlist); err != nil {
		return fmt.Errorf("matchlist: %w", err)
	}
	return nil
}

/*
  The main function for the gather command
*/
func runGather(query, matchlist string) {
	if logFH := startLogging(); logFH != nil {
		defer logFH.Close()
	}
	if *profiling {
		defer profile.Start(profile.ProfilePath("./")).Stop()
	}
	log.Printf("this is countergather (version %s)", version.GetVersion())
	log.Printf("starting the gather command")
	log.Printf("checking parameters...")
	template, err := templateParamCheck()
	misc.ErrorCheck(err)
	misc.ErrorCheck(gatherParamCheck(query, matchlist))
	log.Printf("\tprocessors: %d", *proc)
	log.Printf("\tk-mer size: %d", template.KSize)
	log.Printf("\tscaled: %d", template.Scaled)
	log.Printf("\tmolecule: %v", template.MolType)
	log.Printf("\tseed: %d", template.Seed)
	log.Printf("\tquery: %v", query)
	log.Printf("\tmatchlist: %v", matchlist)
	if *plotFile != "" {
		log.Printf("\tplot: %v", *plotFile)
	}

	info := &pipeline.Info{
		Version:   version.GetVersion(),
		NumProc:   *proc,
		Profiling: *profiling,
		Template:  template,
		Gather: pipeline.GatherCmd{
			Query:     query,
			Matchlist: matchlist,
			PlotFile:  *plotFile,
		},
	}
	pool, err := gather.NewPool(*proc)
	misc.ErrorCheck(err)
	defer pool.Release()
	info.AttachPool(pool)

	// create the pipeline
	log.Printf("initialising gather pipeline...")
	gatherPipeline := pipeline.NewPipeline()
	queryLoader := pipeline.NewQueryLoader(info)
	candidateLoader := pipeline.NewCandidateLoader(info)
	gatherer := pipeline.NewGatherer(info)
	resultReporter := pipeline.NewResultReporter(info, gather.NewTextReporter(os.Stdout))
	candidateLoader.Connect(queryLoader)
	gatherer.Connect(candidateLoader)
	resultReporter.Connect(gatherer)
	gatherPipeline.AddProcesses(queryLoader, candidateLoader, gatherer, resultReporter)
	log.Printf("\tnumber of processes added to the gather pipeline: %d\n", gatherPipeline.GetNumProcesses())
	gatherPipeline.Run()
	log.Printf("\tmemory: %v", misc.PrintMemUsage())
	log.Println("finished")
}
