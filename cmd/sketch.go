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

	"github.com/pkg/profile"
	"github.com/spf13/cobra"
	"github.com/will-rowe/countergather/src/misc"
	"github.com/will-rowe/countergather/src/pipeline"
	"github.com/will-rowe/countergather/src/seqio"
	"github.com/will-rowe/countergather/src/version"
)

// the command line arguments
var (
	outFile *string // signature file to write
	num     *uint   // size of a bottom-k sketch
	sigName *string // name for a merged signature
	minQual *int    // minimum base quality (used in quality based trimming of FASTQ)
)

// the sketch command (used by cobra)
var sketchCmd = &cobra.Command{
	Use:   "sketch <sequence file>...",
	Short: "Sketch FASTA/FASTQ files into a signature file",
	Long: `Sketch FASTA/FASTQ files into a signature file.

 Each file becomes a signature holding a single sketch at the resolution given by
 the --ksize, --scaled, --moltype and --seed flags. Use --num for a bottom-k sketch
 instead, and --name to merge every file into one signature.`,
	Args: cobra.MinimumNArgs(1),
}

/*
  A function to initialise the command line arguments
*/
func init() {
	sketchCmd.Run = func(cmd *cobra.Command, args []string) {
		runSketch(args)
	}
	RootCmd.AddCommand(sketchCmd)
	outFile = sketchCmd.Flags().StringP("output", "o", "", "signature file to write (.sig, .sig.gz or .mp)")
	num = sketchCmd.Flags().UintP("num", "n", 0, "build bottom-k sketches of this size instead of scaled sketches")
	sigName = sketchCmd.Flags().String("name", "", "merge all files into a single signature with this name")
	minQual = sketchCmd.Flags().IntP("minQual", "q", 0, "minimum base quality used to trim FASTQ reads (0 disables trimming)")
	sketchCmd.MarkFlagRequired("output")
}

/*
  A function to check user supplied parameters
*/
func sketchParamCheck(files []string) error {
	if err := misc.CheckRequiredFlags(sketchCmd.Flags()); err != nil {
		return err
	}
	exts := append(append([]string{}, seqio.FastaExts...), seqio.FastqExts...)
	for _, file := range files {
		if err := misc.CheckFile(file); err != nil {
			return err
		}
		if err := misc.CheckExt(file, exts); err != nil {
			return err
		}
	}
	if *minQual < 0 {
		return fmt.Errorf("minimum base quality can't be negative: %d", *minQual)
	}
	return nil
}

/*
  The main function for the sketch sub-command
*/
func runSketch(files []string) {
	if logFH := startLogging(); logFH != nil {
		defer logFH.Close()
	}
	if *profiling {
		defer profile.Start(profile.ProfilePath("./")).Stop()
	}
	log.Printf("this is countergather (version %s)", version.GetVersion())
	log.Printf("starting the sketch command")
	log.Printf("checking parameters...")
	template, err := templateParamCheck()
	misc.ErrorCheck(err)
	misc.ErrorCheck(sketchParamCheck(files))
	log.Printf("\tprocessors: %d", *proc)
	log.Printf("\tk-mer size: %d", template.KSize)
	if *num > 0 {
		log.Printf("\tbottom-k size: %d", *num)
	} else {
		log.Printf("\tscaled: %d", template.Scaled)
	}
	log.Printf("\tmolecule: %v", template.MolType)
	log.Printf("\tseed: %d", template.Seed)
	for _, file := range files {
		log.Printf("\tinput file: %v", file)
	}

	info := &pipeline.Info{
		Version:   version.GetVersion(),
		NumProc:   *proc,
		Profiling: *profiling,
		Template:  template,
		Sketch: pipeline.SketchCmd{
			Num:     uint32(*num),
			Name:    *sigName,
			OutFile: *outFile,
			MinQual: *minQual,
		},
	}

	// create the pipeline
	log.Printf("sketching...")
	sketchPipeline := pipeline.NewPipeline()
	sketcher := pipeline.NewSequenceSketcher(info)
	sketcher.Connect(files)
	writer := pipeline.NewSignatureWriter(info)
	writer.Connect(sketcher)
	sketchPipeline.AddProcesses(sketcher, writer)
	sketchPipeline.Run()
	fmt.Fprintf(os.Stderr, "wrote %d signature(s) to %v\n", len(writer.CollectOutput()), *outFile)
	log.Println("finished")
}
