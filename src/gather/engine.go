package gather

import (
	"fmt"

	"github.com/will-rowe/countergather/src/minhash"
)

// Engine runs the greedy gather over a query and its candidates.
// The engine owns its copy of the query and is the only thing that modifies it.
type Engine struct {
	query      *minhash.KmerMinHash
	candidates []*Candidate
	pool       *Pool
	round      int
}

// NewEngine is the Engine constructor, candidates should be in load order
func NewEngine(query *minhash.KmerMinHash, candidates []*Candidate, pool *Pool) *Engine {
	owned := make([]*Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Containment > 0 {
			owned = append(owned, c)
		}
	}
	return &Engine{
		query:      query.Clone(),
		candidates: owned,
		pool:       pool,
	}
}

// Done reports if there are no candidates left
func (e *Engine) Done() bool {
	return len(e.candidates) == 0
}

// QuerySize returns the number of hashes left in the query
func (e *Engine) QuerySize() int {
	return e.query.Size()
}

// Remaining returns the number of candidates left
func (e *Engine) Remaining() int {
	return len(e.candidates)
}

// Candidates returns a snapshot of the remaining candidates, in load order
func (e *Engine) Candidates() []Candidate {
	snapshot := make([]Candidate, len(e.candidates))
	for i, c := range e.candidates {
		snapshot[i] = *c
	}
	return snapshot
}

// Next runs a single round: the best candidate is selected, its hashes are removed from the query and the rest are rescored.
// It returns false once there is nothing left to select.
func (e *Engine) Next() (Result, bool, error) {
	if e.Done() {
		return Result{}, false, nil
	}
	e.round++

	// strict > keeps the earliest loaded candidate on a tie
	best := 0
	for i, c := range e.candidates {
		if c.Containment > e.candidates[best].Containment {
			best = i
		}
	}
	winner := e.candidates[best]
	result := Result{
		Round:       e.round,
		Name:        winner.Name,
		Filename:    winner.Filename,
		Containment: winner.Containment,
		QuerySize:   e.query.Size(),
		Remaining:   len(e.candidates),
	}

	if err := e.query.Subtract(winner.Sketch); err != nil {
		return result, false, fmt.Errorf("%w: could not remove %v from the query: %v", ErrInvariant, winner.Name, err)
	}
	e.candidates = append(e.candidates[:best], e.candidates[best+1:]...)
	if err := e.rescore(); err != nil {
		return result, false, err
	}
	return result, true, nil
}

// Run calls Next until the candidates are exhausted, passing each result to emit
func (e *Engine) Run(emit func(Result) error) (int, error) {
	n := 0
	for {
		result, ok, err := e.Next()
		if err != nil {
			return n, err
		}
		if !ok {
			return n, nil
		}
		n++
		if err := emit(result); err != nil {
			return n, err
		}
	}
}

// rescore recomputes every candidate containment against the current query and drops those that reach zero
func (e *Engine) rescore() error {
	containments := make([]uint64, len(e.candidates))
	errs := make([]error, len(e.candidates))
	query := e.query
	if err := e.pool.Map(len(e.candidates), func(i int) {
		containments[i], errs[i] = e.candidates[i].Sketch.CountCommon(query)
	}); err != nil {
		return err
	}
	kept := e.candidates[:0]
	for i, c := range e.candidates {
		if errs[i] != nil {
			return fmt.Errorf("%w: could not rescore %v: %v", ErrInvariant, c.Name, errs[i])
		}
		if containments[i] == 0 {
			continue
		}
		c.Containment = containments[i]
		kept = append(kept, c)
	}
	for i := len(kept); i < len(e.candidates); i++ {
		e.candidates[i] = nil
	}
	e.candidates = kept
	return nil
}
