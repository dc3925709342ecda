package convert

import (
	"github.com/banshee-data/waymo-kitti/internal/kitti"
)

// Options is the immutable conversion configuration a Runner and its
// FrameConverter are constructed with.
type Options struct {
	Labels kitti.LabelOptions

	// Locations restricts conversion to frames captured at these locations.
	// Nil disables the filter.
	Locations []string

	// TestMode skips label output entirely.
	TestMode bool

	// Workers is the number of source files converted concurrently.
	Workers int

	WriteImages  bool
	WritePCD     bool
	PreviewEvery int // 0 disables previews
}

// DefaultOptions mirrors the defaults of an empty configuration file.
func DefaultOptions() Options {
	return Options{
		Labels: kitti.LabelOptions{
			Classes:          kitti.DefaultClasses,
			FilterEmptyBoxes: true,
		},
		Workers:     1,
		WriteImages: true,
	}
}

func (o Options) dirOptions() kitti.DirOptions {
	return kitti.DirOptions{
		Labels:  !o.TestMode,
		PCD:     o.WritePCD,
		Preview: o.PreviewEvery > 0,
	}
}

func (o Options) locationAllowed(location string) bool {
	if o.Locations == nil {
		return true
	}
	for _, l := range o.Locations {
		if l == location {
			return true
		}
	}
	return false
}

func (o Options) wantPreview(frameIndex int) bool {
	return o.PreviewEvery > 0 && frameIndex%o.PreviewEvery == 0
}

func (o Options) workers() int {
	if o.Workers < 1 {
		return 1
	}
	return o.Workers
}
