// contains some misc helper functions etc. for countergather
package misc

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// ErrorCheck is a function to throw error to the log and exit the program
func ErrorCheck(msg error) {
	if msg != nil {
		log.Fatalf("terminated\n\nERROR --> %v\n\n", msg)
	}
}

// CheckRequiredFlags returns an error naming the first flag marked as required that has not been set
func CheckRequiredFlags(flags *pflag.FlagSet) error {
	missing := ""
	flags.VisitAll(func(flag *pflag.Flag) {
		required := flag.Annotations[cobra.BashCompOneRequiredFlag]
		if missing != "" || len(required) == 0 {
			return
		}
		if required[0] == "true" && !flag.Changed {
			missing = flag.Name
		}
	})
	if missing != "" {
		return errors.New("required flag `" + missing + "` has not been set")
	}
	return nil
}

// StartLogging opens a log file for appending, creating its directory if needed
func StartLogging(logFile string) (*os.File, error) {
	if dir := filepath.Dir(logFile); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("can't create specified directory for log: %w", err)
		}
	}
	return os.OpenFile(logFile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
}

// CheckFile is a function to check that a file can be read
func CheckFile(file string) error {
	info, err := os.Stat(file)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("file does not exist: %v", file)
		}
		return fmt.Errorf("can't access file (check permissions): %v", file)
	}
	if info.IsDir() {
		return fmt.Errorf("expected a file but got a directory: %v", file)
	}
	return nil
}

// CheckExt is a function to check the extensions of a file, a trailing .gz is ignored
func CheckExt(file string, exts []string) error {
	name := strings.TrimSuffix(filepath.Base(file), ".gz")
	for _, ext := range exts {
		if strings.HasSuffix(name, "."+ext) {
			return nil
		}
	}
	return fmt.Errorf("file does not have recognised extension: %v", file)
}

// PrintMemUsage outputs the current, total and OS memory being used. As well as the number
// of garage collection cycles completed.
// lifted from: https://golangcode.com/print-the-current-memory-usage/
func PrintMemUsage() string {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return fmt.Sprintf("[ Heap Allocations: %vMb, OS Memory: %vMb, Num. GC cycles: %v ]", bToMb(m.HeapAlloc), bToMb(m.Sys), m.NumGC)
}

// bToMb converts bytes to megabytes
func bToMb(b uint64) uint64 {
	return b / 1024 / 1024
}
