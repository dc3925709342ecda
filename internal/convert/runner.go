package convert

import (
	"context"
	"errors"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/waymo-kitti/internal/fsutil"
	"github.com/banshee-data/waymo-kitti/internal/kitti"
	"github.com/banshee-data/waymo-kitti/internal/monitoring"
	"github.com/banshee-data/waymo-kitti/internal/timeutil"
	"github.com/banshee-data/waymo-kitti/internal/waymo"
)

// Recorder receives the outcome of every source frame, for example to
// persist a run manifest. It may be called from several goroutines.
type Recorder interface {
	RecordFrame(ctx context.Context, res FrameResult) error
}

// Runner converts a set of source files into one output dataset.
type Runner struct {
	fs       fsutil.FileSystem
	decoder  waymo.Decoder
	conv     *FrameConverter
	writer   *DatasetWriter
	opts     Options
	recorder Recorder
	clock    timeutil.Clock
}

// NewRunner returns a Runner writing under dest.
func NewRunner(fsys fsutil.FileSystem, dest string, opts Options, decoder waymo.Decoder) *Runner {
	return &Runner{
		fs:      fsys,
		decoder: decoder,
		conv:    NewFrameConverter(opts),
		writer:  NewDatasetWriter(fsys, dest, opts),
		opts:    opts,
		clock:   timeutil.RealClock{},
	}
}

// SetRecorder installs a frame Recorder. Call before Run.
func (r *Runner) SetRecorder(rec Recorder) { r.recorder = rec }

// SetClock replaces the clock used for run timing.
func (r *Runner) SetClock(c timeutil.Clock) { r.clock = c }

// Layout returns the output layout.
func (r *Runner) Layout() kitti.Layout { return r.writer.Layout() }

// Run converts sources; the position of a path is its file index. Frame and
// file failures are counted in Stats and do not stop the run. Run returns
// an error only when the output tree cannot be prepared or ctx is done.
func (r *Runner) Run(ctx context.Context, sources []string) (*Stats, error) {
	start := r.clock.Now()
	if err := r.writer.Prepare(); err != nil {
		return nil, fmt.Errorf("prepare output: %w", err)
	}

	collector := newStatsCollector()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.workers())

	for fileIndex, path := range sources {
		if gctx.Err() != nil {
			break
		}
		fileIndex, path := fileIndex, path
		g.Go(func() error {
			err := r.convertFile(gctx, fileIndex, path, collector)
			if err != nil && isCanceled(err) {
				return err
			}
			if err != nil {
				monitoring.Logf("[Runner] file %d (%s) failed: %v", fileIndex, path, err)
			}
			collector.file(err != nil)
			return nil
		})
	}

	waitErr := g.Wait()
	stats := collector.snapshot()
	stats.Duration = r.clock.Since(start)

	if waitErr == nil {
		waitErr = ctx.Err()
	}
	if waitErr != nil {
		return stats, waitErr
	}
	monitoring.Logf("[Runner] converted %d frames from %d files in %v (%d skipped, %d failed, %d files failed)",
		stats.FramesConverted, stats.Files, stats.Duration, stats.FramesSkipped, stats.FramesFailed, stats.FilesFailed)
	return stats, nil
}

func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// convertFile converts every record of one source file. It returns an error
// when the file cannot be read to the end.
func (r *Runner) convertFile(ctx context.Context, fileIndex int, path string, stats *statsCollector) error {
	f, err := r.fs.Open(path)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	rr := waymo.NewRecordReader(f)
	for frameIndex := 0; ; frameIndex++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		payload, err := rr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("record %d: %w", frameIndex, err)
		}
		r.convertRecord(ctx, fileIndex, frameIndex, path, payload, stats)
	}
}

func (r *Runner) convertRecord(ctx context.Context, fileIndex, frameIndex int, path string, payload []byte, stats *statsCollector) {
	res := FrameResult{
		FileIndex:  fileIndex,
		FrameIndex: frameIndex,
		Source:     path,
		Key:        kitti.Key(fileIndex, frameIndex),
	}

	var artifacts *Artifacts
	frame, err := r.decoder.Decode(payload)
	if err == nil {
		res.Location = frame.Context.Location
		if !r.opts.locationAllowed(frame.Context.Location) {
			res.Status = StatusSkipped
			r.finish(ctx, res, nil, stats)
			return
		}
		artifacts, err = r.conv.Convert(fileIndex, frameIndex, frame)
	} else {
		err = &FrameError{FileIndex: fileIndex, FrameIndex: frameIndex, Err: fmt.Errorf("decode: %w", err)}
	}
	if err == nil {
		if werr := r.writer.Write(artifacts); werr != nil {
			err = &FrameError{FileIndex: fileIndex, FrameIndex: frameIndex, Err: werr}
		}
	}

	if err != nil {
		monitoring.Logf("[Runner] %v", err)
		res.Status = StatusFailed
		res.Err = err
		r.finish(ctx, res, nil, stats)
		return
	}

	res.Status = StatusOK
	res.Objects = len(artifacts.Objects)
	res.Points = artifacts.Points
	r.finish(ctx, res, artifacts, stats)
}

func (r *Runner) finish(ctx context.Context, res FrameResult, a *Artifacts, stats *statsCollector) {
	stats.frame(res, a)
	if r.recorder == nil {
		return
	}
	if err := r.recorder.RecordFrame(ctx, res); err != nil {
		monitoring.Logf("[Runner] record frame %s: %v", res.Key, err)
	}
}
