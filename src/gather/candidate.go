package gather

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/will-rowe/countergather/src/minhash"
	"github.com/will-rowe/countergather/src/signature"
)

// Candidate is a reference sketch that shares at least one hash with the query
type Candidate struct {
	Name        string
	Filename    string
	Sketch      *minhash.KmerMinHash
	Containment uint64
	Order       int
}

// Loader reads the signatures held in a file
type Loader func(path string) ([]*signature.Signature, error)

// LoadStats records what happened to each matchlist entry
type LoadStats struct {
	Paths        int
	Loaded       int
	Unreadable   int
	Incompatible int
	NoOverlap    int
}

func (ls LoadStats) String() string {
	return fmt.Sprintf("%d matchlist entries: %d candidates, %d unreadable, %d incompatible, %d with no overlap", ls.Paths, ls.Loaded, ls.Unreadable, ls.Incompatible, ls.NoOverlap)
}

type loadOutcome int

// a task that never finished (e.g. the loader panicked) is left as pending
const (
	pending loadOutcome = iota
	loaded
	unreadable
	incompatible
	noOverlap
)

// ReadMatchlist returns the paths listed in a matchlist file, one per line
func ReadMatchlist(path string) ([]string, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open matchlist: %w", err)
	}
	defer fh.Close()
	paths := []string{}
	scanner := bufio.NewScanner(fh)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		paths = append(paths, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("could not read matchlist: %w", err)
	}
	return paths, nil
}

// LoadCandidates loads and normalises every matchlist entry on the pool and keeps those that overlap the query.
// Candidates are returned in matchlist order. Entries that can't be read are logged and skipped.
func LoadCandidates(paths []string, query *minhash.KmerMinHash, template Template, pool *Pool, load Loader) ([]*Candidate, LoadStats, error) {
	stats := LoadStats{Paths: len(paths)}
	slots := make([]*Candidate, len(paths))
	outcomes := make([]loadOutcome, len(paths))
	err := pool.Map(len(paths), func(i int) {
		slots[i], outcomes[i] = loadCandidate(paths[i], i, query, template, load)
	})
	if err != nil {
		return nil, stats, err
	}
	candidates := make([]*Candidate, 0, len(paths))
	for i, outcome := range outcomes {
		if outcome == loaded && slots[i] == nil {
			outcome = pending
		}
		switch outcome {
		case loaded:
			stats.Loaded++
			candidates = append(candidates, slots[i])
		case pending:
			log.Printf("\tskipping %v: loading did not complete", paths[i])
			stats.Unreadable++
		case unreadable:
			stats.Unreadable++
		case incompatible:
			stats.Incompatible++
		case noOverlap:
			stats.NoOverlap++
		}
	}
	return candidates, stats, nil
}

// loadCandidate returns the first signature in a file that normalises and overlaps the query
func loadCandidate(path string, order int, query *minhash.KmerMinHash, template Template, load Loader) (*Candidate, loadOutcome) {
	sigs, err := load(path)
	if err != nil {
		log.Printf("\tskipping %v: %v", path, err)
		return nil, unreadable
	}
	usable := false
	for _, sig := range sigs {
		sketch, ok := Normalize(sig, template)
		if !ok {
			continue
		}
		usable = true
		containment, err := sketch.CountCommon(query)
		if err != nil || containment == 0 {
			continue
		}
		return &Candidate{
			Name:        sig.Name(),
			Filename:    path,
			Sketch:      sketch,
			Containment: containment,
			Order:       order,
		}, loaded
	}
	if !usable {
		log.Printf("\tskipping %v: no sketch compatible with %v", path, template)
		return nil, incompatible
	}
	return nil, noOverlap
}
