package wordlist

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrEmpty is returned for a word list without any line.
var ErrEmpty = errors.New("word list is empty")

// maxLine bounds a single word list line.
const maxLine = 1 << 20

// Load reads the word list at path. Every line is one entry, kept verbatim
// and in order: no trimming, de-duplication or comment handling. Line
// endings (\n or \r\n) are stripped.
func Load(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading wordlist %s: %w", path, err)
	}
	defer f.Close()

	words, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading wordlist %s: %w", path, err)
	}
	return words, nil
}

// Read parses a word list from r.
func Read(r io.Reader) ([]string, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)

	var words []string
	for sc.Scan() {
		words = append(words, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(words) == 0 {
		return nil, ErrEmpty
	}
	return words, nil
}
