package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/linkedin-cli/internal/model"
)

// SnapshotSink writes the entire result collection to one run-scoped JSON
// file on every persist. The file is always a complete, self-consistent
// snapshot, so it is safe to read mid-run.
type SnapshotSink struct {
	path string
}

// NewSnapshotSink fixes the output path for the run: a timestamp-named file
// under dir, created lazily on the first persist. The directory is created
// up front so path problems surface before the batch starts.
func NewSnapshotSink(dir string, now time.Time) (*SnapshotSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "sink: create output dir %s", dir)
	}
	name := fmt.Sprintf("companies_data_%s.json", now.Format("20060102_150405"))
	return &SnapshotSink{path: filepath.Join(dir, name)}, nil
}

// Path returns the run-scoped output location.
func (s *SnapshotSink) Path() string { return s.path }

// Persist overwrites the snapshot with the full result set. The write goes
// through a temp file and rename so readers never observe a torn snapshot.
func (s *SnapshotSink) Persist(_ context.Context, results []model.ScrapeResult) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return eris.Wrap(err, "sink: marshal results")
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return eris.Wrapf(err, "sink: write %s", tmp)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return eris.Wrapf(err, "sink: rename %s", s.path)
	}
	return nil
}
