package kitti

import (
	"fmt"
	"path/filepath"
	"strconv"
)

// Output directory names, relative to the dataset root.
const (
	DirLabelPrefix = "label_"
	DirLabelAll    = "label_all"
	DirImagePrefix = "image_"
	DirCalib       = "calib"
	DirVelodyne    = "velodyne"
	DirPose        = "pose"
	DirPCD         = "pcd"
	DirPreview     = "preview"
)

// NumCameraDirs is the number of per-camera image and label directories.
const NumCameraDirs = 5

// Key is the six-digit filename stem for (fileIndex, frameIndex).
func Key(fileIndex, frameIndex int) string {
	return fmt.Sprintf("%03d%03d", fileIndex, frameIndex)
}

// Layout resolves artifact paths under a dataset root.
type Layout struct {
	Root string
}

// ImagePath is image_<camera>/<key>.png.
func (l Layout) ImagePath(camera int, key string) string {
	return filepath.Join(l.Root, DirImagePrefix+strconv.Itoa(camera), key+ImageExtension)
}

// LabelPath is label_<camera>/<key>.txt.
func (l Layout) LabelPath(camera int, key string) string {
	return filepath.Join(l.Root, DirLabelPrefix+strconv.Itoa(camera), key+".txt")
}

// LabelAllPath is label_all/<key>.txt.
func (l Layout) LabelAllPath(key string) string {
	return filepath.Join(l.Root, DirLabelAll, key+".txt")
}

// CalibPath is calib/<key>.txt.
func (l Layout) CalibPath(key string) string {
	return filepath.Join(l.Root, DirCalib, key+".txt")
}

// VelodynePath is velodyne/<key>.bin.
func (l Layout) VelodynePath(key string) string {
	return filepath.Join(l.Root, DirVelodyne, key+".bin")
}

// PosePath is pose/<key>.txt.
func (l Layout) PosePath(key string) string {
	return filepath.Join(l.Root, DirPose, key+".txt")
}

// PCDPath is pcd/<key>.pcd.
func (l Layout) PCDPath(key string) string {
	return filepath.Join(l.Root, DirPCD, key+".pcd")
}

// PreviewPath is preview/<key>.png.
func (l Layout) PreviewPath(key string) string {
	return filepath.Join(l.Root, DirPreview, key+".png")
}

// DirOptions selects which optional directories exist.
type DirOptions struct {
	Labels  bool // false in test mode
	PCD     bool
	Preview bool
}

// Dirs lists every directory to pre-create, in a stable order.
func (l Layout) Dirs(opts DirOptions) []string {
	dirs := []string{
		filepath.Join(l.Root, DirCalib),
		filepath.Join(l.Root, DirVelodyne),
		filepath.Join(l.Root, DirPose),
	}
	if opts.Labels {
		dirs = append(dirs, filepath.Join(l.Root, DirLabelAll))
	}
	if opts.PCD {
		dirs = append(dirs, filepath.Join(l.Root, DirPCD))
	}
	if opts.Preview {
		dirs = append(dirs, filepath.Join(l.Root, DirPreview))
	}
	for i := 0; i < NumCameraDirs; i++ {
		dirs = append(dirs, filepath.Join(l.Root, DirImagePrefix+strconv.Itoa(i)))
		if opts.Labels {
			dirs = append(dirs, filepath.Join(l.Root, DirLabelPrefix+strconv.Itoa(i)))
		}
	}
	return dirs
}
