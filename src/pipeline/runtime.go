package pipeline

import (
	"fmt"
	"sync"

	"github.com/will-rowe/countergather/src/gather"
)

// Info stores the runtime information
type Info struct {
	Version   string
	NumProc   int
	Profiling bool
	Template  gather.Template
	Gather    GatherCmd
	Sketch    SketchCmd

	pool     *gather.Pool
	poolOnce sync.Once
	poolErr  error
	ownsPool bool
}

// GatherCmd stores the runtime info for the gather command
type GatherCmd struct {
	Query     string
	Matchlist string
	PlotFile  string
}

// SketchCmd stores the runtime info for the sketch command
type SketchCmd struct {
	Num     uint32
	Name    string
	OutFile string
	MinQual int
}

// AttachPool is a method to attach the worker pool used by the gather processes, it must be called before the pipeline is run
// the caller keeps ownership of an attached pool and is responsible for releasing it
func (Info *Info) AttachPool(pool *gather.Pool) {
	Info.pool = pool
}

// getPool returns the attached worker pool, creating one the first time it is needed if none was attached
// it is safe to call from concurrently running processes
func (Info *Info) getPool() (*gather.Pool, error) {
	Info.poolOnce.Do(func() {
		if Info.pool != nil {
			return
		}
		pool, err := gather.NewPool(Info.NumProc)
		if err != nil {
			Info.poolErr = fmt.Errorf("could not start worker pool: %w", err)
			return
		}
		Info.pool = pool
		Info.ownsPool = true
	})
	return Info.pool, Info.poolErr
}

// releaseOwnedPool stops a pool that getPool created, an attached pool is left alone
func (Info *Info) releaseOwnedPool() {
	if Info.ownsPool && Info.pool != nil {
		Info.pool.Release()
	}
}
