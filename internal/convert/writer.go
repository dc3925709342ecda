package convert

import (
	"fmt"

	"github.com/banshee-data/waymo-kitti/internal/fsutil"
	"github.com/banshee-data/waymo-kitti/internal/kitti"
)

const (
	dirPerm  = 0755
	filePerm = 0644
)

// DatasetWriter writes Artifacts into the output layout.
type DatasetWriter struct {
	fs     fsutil.FileSystem
	layout kitti.Layout
	dirs   kitti.DirOptions
}

// NewDatasetWriter returns a writer rooted at root.
func NewDatasetWriter(fsys fsutil.FileSystem, root string, opts Options) *DatasetWriter {
	return &DatasetWriter{fs: fsys, layout: kitti.Layout{Root: root}, dirs: opts.dirOptions()}
}

// Layout returns the output layout.
func (w *DatasetWriter) Layout() kitti.Layout { return w.layout }

// Prepare creates every output directory. It runs once before any frame is
// written.
func (w *DatasetWriter) Prepare() error {
	for _, dir := range w.layout.Dirs(w.dirs) {
		if err := w.fs.MkdirAll(dir, dirPerm); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}

func (w *DatasetWriter) put(path string, data []byte) error {
	if err := fsutil.WriteFileAtomic(w.fs, path, data, filePerm); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Write writes every artifact as a whole file. Label files are replaced,
// never appended to, so rewriting a frame is idempotent.
func (w *DatasetWriter) Write(a *Artifacts) error {
	key := a.Key
	if err := w.put(w.layout.CalibPath(key), a.Calib); err != nil {
		return err
	}
	if err := w.put(w.layout.VelodynePath(key), a.Velodyne); err != nil {
		return err
	}
	if err := w.put(w.layout.PosePath(key), a.Pose); err != nil {
		return err
	}
	if a.PCD != nil && w.dirs.PCD {
		if err := w.put(w.layout.PCDPath(key), a.PCD); err != nil {
			return err
		}
	}
	for cam := 0; cam < kitti.NumCameraDirs; cam++ {
		img, ok := a.Images[cam]
		if !ok {
			continue
		}
		if err := w.put(w.layout.ImagePath(cam, key), img); err != nil {
			return err
		}
	}
	if a.Labels != nil && w.dirs.Labels {
		if err := w.put(w.layout.LabelAllPath(key), a.Labels.All); err != nil {
			return err
		}
		for cam := 0; cam < kitti.NumCameraDirs; cam++ {
			data, ok := a.Labels.PerCamera[cam]
			if !ok {
				continue
			}
			if err := w.put(w.layout.LabelPath(cam, key), data); err != nil {
				return err
			}
		}
	}
	if a.Preview != nil && w.dirs.Preview {
		if err := w.put(w.layout.PreviewPath(key), a.Preview); err != nil {
			return err
		}
	}
	return nil
}
