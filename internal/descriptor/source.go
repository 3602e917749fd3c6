package descriptor

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// Source yields one batch of descriptor parse results per reconciliation
// run. The reconciler does not care whether descriptors come from a
// directory scan or anywhere else.
type Source interface {
	Load() ([]Result, error)
}

// DirSource loads descriptors from *.json files in a directory
type DirSource struct {
	dir    string
	logger *logrus.Entry
}

// NewDirSource creates a DirSource for the given directory
func NewDirSource(dir string, logger *logrus.Entry) *DirSource {
	return &DirSource{
		dir:    dir,
		logger: logger.WithField("component", "descriptor-loader"),
	}
}

// Load scans the directory and parses every descriptor file. A bad file
// becomes an invalid Result; only a missing or unreadable directory is
// an error.
func (s *DirSource) Load() ([]Result, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read descriptor directory %s: %w", s.dir, err)
	}

	var results []Result
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			results = append(results, Result{
				File:    entry.Name(),
				Invalid: &ValidationError{File: entry.Name(), Err: err},
			})
			continue
		}

		results = append(results, Parse(entry.Name(), data))
	}

	s.logger.Infof("Loaded %d descriptor files from %s", len(results), s.dir)
	return results, nil
}
