package gather

import (
	"fmt"
	"io"
)

// Result is a single selection made by the engine
type Result struct {
	Round       int
	Name        string
	Filename    string
	Containment uint64
	QuerySize   int
	Remaining   int
}

// Reporter receives the engine output
type Reporter interface {
	Progress(querySize, remaining int) error
	Result(Result) error
	Done(numResults int) error
}

// TextReporter writes the engine output as plain text
type TextReporter struct {
	w io.Writer
}

// NewTextReporter is the TextReporter constructor
func NewTextReporter(w io.Writer) *TextReporter {
	return &TextReporter{w: w}
}

// Progress writes the state at the start of a round
func (tr *TextReporter) Progress(querySize, remaining int) error {
	_, err := fmt.Fprintf(tr.w, "remaining: %d %d\n", querySize, remaining)
	return err
}

// Result writes a selection
func (tr *TextReporter) Result(res Result) error {
	_, err := fmt.Fprintf(tr.w, "%v - %d\n", res.Name, res.Containment)
	return err
}

// Done writes the terminal message if nothing was selected
func (tr *TextReporter) Done(numResults int) error {
	if numResults != 0 {
		return nil
	}
	_, err := fmt.Fprintln(tr.w, "No matchlist signatures loaded, exiting.")
	return err
}

// Report sends a result to a reporter, preceded by its progress line
func Report(r Reporter, res Result) error {
	if err := r.Progress(res.QuerySize, res.Remaining); err != nil {
		return err
	}
	return r.Result(res)
}
