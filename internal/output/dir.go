package output

import (
	"fmt"
	"os"
	"sort"
)

// PrepareDir makes sure dir exists. It reports whether the directory had
// to be created and lists the regular files already inside it.
func PrepareDir(dir string) (created bool, files []string, err error) {
	info, err := os.Stat(dir)
	switch {
	case os.IsNotExist(err):
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return false, nil, fmt.Errorf("creating output directory: %w", err)
		}
		return true, nil, nil
	case err != nil:
		return false, nil, fmt.Errorf("checking output directory: %w", err)
	case !info.IsDir():
		return false, nil, fmt.Errorf("output path %s is not a directory", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return false, nil, fmt.Errorf("listing output directory: %w", err)
	}
	for _, e := range entries {
		if e.Type().IsRegular() {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	return false, files, nil
}
