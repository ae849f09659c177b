package store

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/prism/internal/activity"
	"github.com/roach88/prism/internal/testutil"
)

// testConfig returns a SQLite config rooted in a per-test temporary directory.
func testConfig(t *testing.T) Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Path = filepath.Join(t.TempDir(), "test.db")
	return cfg
}

// createTestStore opens a migrated store with a discarded log and a
// deterministic clock starting at 1000.
func createTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	return openTestStore(t, testConfig(t), opts...)
}

func openTestStore(t *testing.T, cfg Config, opts ...Option) *Store {
	t.Helper()
	base := []Option{
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithClock(testutil.NewDeterministicClock(1000).Now),
	}
	s, err := Open(context.Background(), cfg, append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// captureLogger returns a logger writing text records into the buffer.
func captureLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), &buf
}

// writeActivities commits acts in a single batch.
func writeActivities(t *testing.T, s *Store, acts ...*activity.Activity) {
	t.Helper()
	ctx := context.Background()
	batch, err := s.CreateActivityBatch()
	require.NoError(t, err)
	for _, a := range acts {
		require.NoError(t, batch.Add(ctx, a))
	}
	n, err := batch.CommitBatch(ctx)
	require.NoError(t, err)
	require.Equal(t, len(acts), n)
}

// activities asserts every record is a plain activity and returns them.
func activities(t *testing.T, records []activity.Record) []*activity.Activity {
	t.Helper()
	out := make([]*activity.Activity, 0, len(records))
	for _, r := range records {
		a, ok := r.(*activity.Activity)
		require.True(t, ok, "record %T is not an activity", r)
		out = append(out, a)
	}
	return out
}

func ids(acts []*activity.Activity) []int64 {
	out := make([]int64, len(acts))
	for i, a := range acts {
		out[i] = a.ID
	}
	return out
}

func countActivities(t *testing.T, s *Store) int {
	t.Helper()
	var n int
	require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM "+s.registry.Activities()).Scan(&n))
	return n
}
