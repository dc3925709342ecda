package convert

import (
	"errors"
	"fmt"

	"github.com/banshee-data/waymo-kitti/internal/geom"
	"github.com/banshee-data/waymo-kitti/internal/kitti"
	"github.com/banshee-data/waymo-kitti/internal/preview"
	"github.com/banshee-data/waymo-kitti/internal/waymo"
)

// ErrPoseShape is returned when a frame pose is not a 4x4 matrix.
var ErrPoseShape = errors.New("convert: malformed frame pose")

// FrameError is a failure converting one frame.
type FrameError struct {
	FileIndex  int
	FrameIndex int
	Err        error
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("file %d frame %d: %v", e.FileIndex, e.FrameIndex, e.Err)
}

func (e *FrameError) Unwrap() error { return e.Err }

// Artifacts are the rendered output files of one frame.
type Artifacts struct {
	Key      string
	Calib    []byte
	Velodyne []byte
	PCD      []byte         // nil unless PCD output is enabled
	Pose     []byte
	Images   map[int][]byte // camera index -> PNG
	Labels   *kitti.LabelFiles
	Preview  []byte // nil unless this frame is previewed

	Objects []kitti.Object
	Points  int
}

// FrameConverter renders frames into Artifacts. It holds no per-frame state
// and is safe for concurrent use.
type FrameConverter struct {
	opts    Options
	preview preview.Options
}

// NewFrameConverter returns a converter bound to opts.
func NewFrameConverter(opts Options) *FrameConverter {
	return &FrameConverter{opts: opts, preview: preview.DefaultOptions()}
}

// Convert renders every artifact of frame f. Nothing is returned on error,
// so a failed frame never produces partial output.
func (c *FrameConverter) Convert(fileIndex, frameIndex int, f *waymo.Frame) (*Artifacts, error) {
	a, err := c.convert(kitti.Key(fileIndex, frameIndex), frameIndex, f)
	if err != nil {
		return nil, &FrameError{FileIndex: fileIndex, FrameIndex: frameIndex, Err: err}
	}
	return a, nil
}

func (c *FrameConverter) convert(key string, frameIndex int, f *waymo.Frame) (*Artifacts, error) {
	a := &Artifacts{Key: key}

	calib, err := kitti.BuildCalibration(f.Context.CameraCalibrations)
	if err != nil {
		return nil, fmt.Errorf("calibration: %w", err)
	}
	if a.Calib, err = calib.MarshalText(); err != nil {
		return nil, fmt.Errorf("calibration: %w", err)
	}

	pc, err := kitti.ProjectPoints(f.Lasers)
	if err != nil {
		return nil, fmt.Errorf("lidar: %w", err)
	}
	if a.Velodyne, err = pc.MarshalBinary(); err != nil {
		return nil, fmt.Errorf("lidar: %w", err)
	}
	a.Points = pc.Len()
	if c.opts.WritePCD {
		if a.PCD, err = pc.PCD(); err != nil {
			return nil, fmt.Errorf("pcd: %w", err)
		}
	}

	pose, err := geom.FromSlice(f.Pose)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPoseShape, err)
	}
	a.Pose = kitti.FormatPose(pose)

	if c.opts.WriteImages {
		a.Images = make(map[int][]byte, len(f.Images))
		for _, img := range f.Images {
			if !img.Name.Valid() {
				return nil, fmt.Errorf("image: invalid camera %d", int(img.Name))
			}
			png, err := kitti.EncodeImage(img.Image)
			if err != nil {
				return nil, fmt.Errorf("image %s: %w", img.Name, err)
			}
			a.Images[img.Name.Index()] = png
		}
	}

	if !c.opts.TestMode {
		table := kitti.BuildAssociationTable(f.CameraLabels)
		a.Objects = kitti.Reproject(f.LaserLabels, table, calib.Reference(), c.opts.Labels)
		files := kitti.RenderLabels(a.Objects, c.opts.Labels.SaveTrackID)
		a.Labels = &files
	}

	if c.opts.wantPreview(frameIndex) {
		var retained []waymo.Label
		for _, l := range f.LaserLabels {
			if c.opts.Labels.Retain(l) {
				retained = append(retained, l)
			}
		}
		opts := c.preview
		opts.Title = key
		if a.Preview, err = preview.Render(pc, retained, opts); err != nil {
			return nil, err
		}
	}

	return a, nil
}
