package manifest

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/waymo-kitti/internal/convert"
	"github.com/banshee-data/waymo-kitti/internal/monitoring"
	"github.com/banshee-data/waymo-kitti/internal/timeutil"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	original := monitoring.Logf
	monitoring.SetLogger(nil)
	t.Cleanup(func() { monitoring.Logf = original })

	s, err := Open(filepath.Join(t.TempDir(), "manifest.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	s.SetClock(timeutil.NewMockClock(time.Unix(1_700_000_000, 0)))
	return s
}

func TestOpen_MigratesToLatest(t *testing.T) {
	s := openTestStore(t)
	v, err := s.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(2), v)
}

func TestOpen_Reopen(t *testing.T) {
	original := monitoring.Logf
	monitoring.SetLogger(nil)
	defer func() { monitoring.Logf = original }()

	path := filepath.Join(t.TempDir(), "manifest.db")
	s, err := Open(path)
	require.NoError(t, err)
	runID, err := s.StartRun(context.Background(), "/src", "/out", "")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	run, err := s.GetRun(context.Background(), runID)
	require.NoError(t, err)
	assert.Equal(t, RunRunning, run.Status)
	assert.Equal(t, "{}", run.OptionsJSON)
}

func TestStore_RunLifecycle(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	runID, err := s.StartRun(ctx, "/src", "/out", `{"workers":2}`)
	require.NoError(t, err)
	assert.Len(t, runID, 36)
	assert.Equal(t, runID, s.CurrentRunID())

	_, err = s.StartRun(ctx, "/src", "/out", "")
	assert.Error(t, err, "only one active run")

	results := []convert.FrameResult{
		{FileIndex: 0, FrameIndex: 0, Key: "000000", Source: "/src/a.tfrecord", Location: "location_sf", Status: convert.StatusOK, Objects: 3, Points: 1000},
		{FileIndex: 0, FrameIndex: 1, Key: "000001", Source: "/src/a.tfrecord", Location: "location_phx", Status: convert.StatusSkipped},
		{FileIndex: 1, FrameIndex: 0, Key: "001000", Source: "/src/b.tfrecord", Status: convert.StatusFailed, Err: errors.New("calibration: missing front camera")},
	}
	for _, res := range results {
		require.NoError(t, s.RecordFrame(ctx, res))
	}
	// Re-recording a frame replaces it.
	require.NoError(t, s.RecordFrame(ctx, results[0]))

	frames, err := s.ListFrames(ctx, runID, "")
	require.NoError(t, err)
	require.Len(t, frames, 3)
	assert.Equal(t, "000000", frames[0].Key)
	assert.Equal(t, 1000, frames[0].Points)
	assert.Equal(t, "location_phx", frames[1].Location)
	assert.Equal(t, "001000", frames[2].Key)
	assert.Equal(t, "calibration: missing front camera", frames[2].ErrorMessage)

	failed, err := s.ListFrames(ctx, runID, convert.StatusFailed)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, 1, failed[0].FileIndex)

	counts, err := s.StatusCounts(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, map[convert.FrameStatus]int{convert.StatusOK: 1, convert.StatusSkipped: 1, convert.StatusFailed: 1}, counts)

	stats := &convert.Stats{
		Files: 2, FramesConverted: 1, FramesSkipped: 1, FramesFailed: 1, Points: 1000,
		ObjectsByClass: map[string]int{"Car": 2, "Pedestrian": 1},
	}
	require.NoError(t, s.CompleteRun(ctx, stats))
	assert.Equal(t, "", s.CurrentRunID())

	run, err := s.GetRun(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, RunCompleted, run.Status)
	assert.Equal(t, "/src", run.SourceDir)
	assert.Equal(t, `{"workers":2}`, run.OptionsJSON)
	assert.Equal(t, 2, run.Files)
	assert.Equal(t, 3, run.Objects)
	assert.EqualValues(t, 1000, run.Points)
	assert.Equal(t, map[string]int{"Car": 2, "Pedestrian": 1}, run.ObjectsByClass)
	assert.False(t, run.CompletedAt.IsZero())

	assert.True(t, errors.Is(s.RecordFrame(ctx, results[0]), ErrNoActiveRun))
}

func TestStore_FailRun(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.FailRun(ctx, "nothing active"), "no-op without a run")

	runID, err := s.StartRun(ctx, "/src", "/out", "")
	require.NoError(t, err)
	require.NoError(t, s.FailRun(ctx, "interrupted"))

	run, err := s.GetRun(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, RunFailed, run.Status)
	assert.Equal(t, "interrupted", run.ErrorMessage)
	assert.Empty(t, run.ObjectsByClass)

	_, err = s.GetRun(ctx, "missing")
	assert.Error(t, err)
}

func TestStore_LatestRunID(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	id, err := s.LatestRunID(ctx)
	require.NoError(t, err)
	assert.Empty(t, id)

	first, err := s.StartRun(ctx, "/src", "/out", "")
	require.NoError(t, err)
	require.NoError(t, s.FailRun(ctx, "stop"))
	second, err := s.StartRun(ctx, "/src", "/out", "")
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	id, err = s.LatestRunID(ctx)
	require.NoError(t, err)
	assert.Equal(t, second, id, "same start time falls back to insertion order")
}

func TestStore_ImplementsRecorder(t *testing.T) {
	var _ convert.Recorder = (*Store)(nil)
}
