package output

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/maxvaer/pathfuzz/internal/scanner"
)

// URLColumn is the width the matched URL is padded to in result files.
const URLColumn = 100

// FormatLine renders one result file line: the URL left-justified to
// URLColumn characters, then the body length.
func FormatLine(url string, size int64) string {
	return fmt.Sprintf("%-*sContent-Length: %d\n", URLColumn, url, size)
}

type sinkFile struct {
	mu   sync.Mutex
	path string
	f    *os.File
}

// Sink appends Found and Forbidden results to <prefix>_200_fuzz.txt and
// <prefix>_403_fuzz.txt inside dir. Files are opened on first write, so no
// file exists for a classification that never matched. Each file has its
// own lock, so concurrent appends never interleave.
type Sink struct {
	files map[scanner.Classification]*sinkFile
}

// NewSink creates a sink writing into dir, which must already exist.
func NewSink(dir, prefix string) *Sink {
	return &Sink{
		files: map[scanner.Classification]*sinkFile{
			scanner.Found:     {path: filepath.Join(dir, prefix+"_200_fuzz.txt")},
			scanner.Forbidden: {path: filepath.Join(dir, prefix+"_403_fuzz.txt")},
		},
	}
}

// Path returns the file that receives results of class c, or "" if none does.
func (s *Sink) Path(c scanner.Classification) string {
	if sf, ok := s.files[c]; ok {
		return sf.path
	}
	return ""
}

// Record appends res to its classification's file. Other classes are ignored.
func (s *Sink) Record(res *scanner.Result) error {
	sf, ok := s.files[res.Class]
	if !ok {
		return nil
	}

	sf.mu.Lock()
	defer sf.mu.Unlock()
	if sf.f == nil {
		f, err := os.OpenFile(sf.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("opening %s: %w", sf.path, err)
		}
		sf.f = f
	}
	if _, err := sf.f.WriteString(FormatLine(res.URL, res.ContentLength)); err != nil {
		return fmt.Errorf("appending to %s: %w", sf.path, err)
	}
	return nil
}

// Close closes every file opened so far.
func (s *Sink) Close() error {
	var errs []error
	for _, sf := range s.files {
		sf.mu.Lock()
		if sf.f != nil {
			errs = append(errs, sf.f.Close())
			sf.f = nil
		}
		sf.mu.Unlock()
	}
	return errors.Join(errs...)
}
