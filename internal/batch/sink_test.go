package batch

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/linkedin-cli/internal/model"
)

func TestSnapshotSink_PathNaming(t *testing.T) {
	dir := t.TempDir()
	ts := time.Date(2026, 8, 25, 14, 30, 5, 0, time.UTC)

	sink, err := NewSnapshotSink(dir, ts)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "companies_data_20260825_143005.json"), sink.Path())
}

func TestSnapshotSink_FullOverwrite(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewSnapshotSink(dir, time.Now())
	require.NoError(t, err)

	first := []model.ScrapeResult{
		{Target: model.Target{Name: "Meta"}, Outcome: model.OutcomeSuccess},
	}
	require.NoError(t, sink.Persist(context.Background(), first))

	both := append(first, model.ScrapeResult{
		Target: model.Target{Name: "Stripe"}, Outcome: model.OutcomeSuccess,
	})
	require.NoError(t, sink.Persist(context.Background(), both))

	// The file is always the complete current collection, not an append log.
	data, err := os.ReadFile(sink.Path())
	require.NoError(t, err)

	var decoded []model.ScrapeResult
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "Meta", decoded[0].Target.Name)
	assert.Equal(t, "Stripe", decoded[1].Target.Name)

	// No leftover temp file.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSnapshotSink_CreatesNestedDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data", "companies")
	sink, err := NewSnapshotSink(dir, time.Now())
	require.NoError(t, err)
	require.NoError(t, sink.Persist(context.Background(), nil))

	_, err = os.Stat(sink.Path())
	assert.NoError(t, err)
}

func TestSnapshotSink_BadDir(t *testing.T) {
	file := filepath.Join(t.TempDir(), "occupied")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	_, err := NewSnapshotSink(filepath.Join(file, "sub"), time.Now())
	assert.Error(t, err)
}
