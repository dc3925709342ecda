package kitti

import (
	"math"

	"github.com/golang/geo/r3"

	"github.com/banshee-data/waymo-kitti/internal/geom"
	"github.com/banshee-data/waymo-kitti/internal/waymo"
)

// mountedCamera is a camera -> vehicle extrinsic for a camera yawed by theta
// and mounted at t.
func mountedCamera(theta float64, t r3.Vector) geom.Transform {
	c, s := math.Cos(theta), math.Sin(theta)
	return geom.FromRotationTranslation(geom.Rotation{
		c, -s, 0,
		s, c, 0,
		0, 0, 1,
	}, t)
}

// testCalibrations returns one calibration per camera. The front camera has
// an identity extrinsic so the reference transform is the bare axis remap.
func testCalibrations() []waymo.CameraCalibration {
	yaws := map[waymo.CameraName]float64{
		waymo.CameraFront:      0,
		waymo.CameraFrontLeft:  math.Pi / 4,
		waymo.CameraFrontRight: -math.Pi / 4,
		waymo.CameraSideLeft:   math.Pi / 2,
		waymo.CameraSideRight:  -math.Pi / 2,
	}
	out := make([]waymo.CameraCalibration, 0, len(yaws))
	for name := waymo.CameraFront; name <= waymo.CameraSideRight; name++ {
		ext := geom.Identity
		if name != waymo.CameraFront {
			ext = mountedCamera(yaws[name], r3.Vector{X: 1.5, Y: 0.1 * float64(name), Z: 2})
		}
		out = append(out, waymo.CameraCalibration{
			Name:      name,
			Intrinsic: []float64{2000 + float64(name), 2001, 960, 640, 0.01, -0.02},
			Extrinsic: ext[:],
			Width:     1920,
			Height:    1280,
		})
	}
	return out
}
