// Package artifacts persists raw uploaded files for audit. Artifact writes
// are a side effect invoked after the triage decision is made; they are not
// read back by any component and their failure must never alter the outcome
// of a request.
package artifacts

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/khacks/phototriage-go/internal/errors"
)

// Saved names the artifact files written for one upload. Metadata is empty
// when the upload carried no metadata part.
type Saved struct {
	Image    string
	Metadata string
}

// Sink writes raw upload artifacts into a single directory using a
// timestamp-derived naming scheme.
type Sink struct {
	dir string
}

// New returns a Sink rooted at dir, creating the directory if needed.
func New(dir string) (*Sink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.New(fmt.Errorf("failed to create upload directory: %w", err)).
			Component("artifacts").
			Category(errors.CategoryFileIO).
			FileContext(dir, -1).
			Build()
	}
	return &Sink{dir: dir}, nil
}

// Dir returns the directory the sink writes into.
func (s *Sink) Dir() string {
	return s.dir
}

// Save writes the image bytes and, when present, the metadata bytes. File
// names share a timestamp suffix so the artifacts of one upload sort
// together. Returns the names actually written; on error the partial result
// is still returned.
func (s *Sink) Save(ts time.Time, image, metadata []byte) (Saved, error) {
	suffix := ts.Format("20060102_150405")
	saved := Saved{}

	imageName := fmt.Sprintf("photo_%s.jpg", suffix)
	if err := s.write(imageName, image); err != nil {
		return saved, err
	}
	saved.Image = imageName

	if len(metadata) > 0 {
		metadataName := fmt.Sprintf("metadata_%s.json", suffix)
		if err := s.write(metadataName, metadata); err != nil {
			return saved, err
		}
		saved.Metadata = metadataName
	}

	return saved, nil
}

func (s *Sink) write(name string, data []byte) error {
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.New(fmt.Errorf("failed to write artifact: %w", err)).
			Component("artifacts").
			Category(errors.CategoryFileIO).
			FileContext(path, int64(len(data))).
			Build()
	}
	return nil
}
