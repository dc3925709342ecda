// Package testutil provides shared test fixtures: synthetic frames and
// container files built from them.
package testutil

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"path/filepath"
	"testing"

	"github.com/banshee-data/waymo-kitti/internal/fsutil"
	"github.com/banshee-data/waymo-kitti/internal/geom"
	"github.com/banshee-data/waymo-kitti/internal/waymo"
)

// AssertNoError fails the test immediately if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// JPEG returns a small solid-colour JPEG.
func JPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 40, G: 90, B: 160, A: 255})
		}
	}
	var buf bytes.Buffer
	AssertNoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

// Calibrations returns an identity-mounted calibration for all five
// cameras, so the reference transform is the bare axis remap.
func Calibrations() []waymo.CameraCalibration {
	out := make([]waymo.CameraCalibration, 0, waymo.NumCameras)
	for name := waymo.CameraFront; name <= waymo.CameraSideRight; name++ {
		ext := geom.Identity
		out = append(out, waymo.CameraCalibration{
			Name:      name,
			Intrinsic: []float64{2000, 2000, 960, 640},
			Extrinsic: ext[:],
			Width:     1920,
			Height:    1280,
		})
	}
	return out
}

// Frame returns a well-formed frame at location with one vehicle at
// (10, 0, 1), two lidar points and no camera association.
func Frame(location string) *waymo.Frame {
	pose := geom.Identity
	return &waymo.Frame{
		Context: waymo.Context{
			Name:               "segment-0001",
			Location:           location,
			CameraCalibrations: Calibrations(),
		},
		TimestampMicros: 1_550_000_000_000_000,
		Pose:            pose[:],
		Lasers: []waymo.LaserReturns{
			{Tag: waymo.TagFrontLeft, Points: [][]float64{{5, 0.5, 0, 2, 3, 0.1}}},
			{Tag: waymo.TagFront, Points: [][]float64{{10, 0.25, 0, 10, 0, 1}}},
		},
		LaserLabels: []waymo.Label{{
			ID:                  "veh-1",
			Type:                waymo.TypeVehicle,
			Box:                 waymo.Box{CenterX: 10, CenterY: 0, CenterZ: 1, Length: 4, Width: 2, Height: 1.5},
			NumLidarPointsInBox: 40,
		}},
	}
}

// WriteSource encodes frames as JSON records into a container file at path,
// creating its directory.
func WriteSource(t *testing.T, fsys fsutil.FileSystem, path string, frames ...*waymo.Frame) {
	t.Helper()
	var buf bytes.Buffer
	for _, f := range frames {
		payload, err := waymo.EncodeJSON(f)
		AssertNoError(t, err)
		AssertNoError(t, waymo.WriteRecord(&buf, payload))
	}
	AssertNoError(t, fsys.MkdirAll(filepath.Dir(path), 0755))
	AssertNoError(t, fsys.WriteFile(path, buf.Bytes(), 0644))
}

// WriteRaw writes payloads as records without encoding them as frames.
func WriteRaw(t *testing.T, fsys fsutil.FileSystem, path string, payloads ...[]byte) {
	t.Helper()
	var buf bytes.Buffer
	for _, p := range payloads {
		AssertNoError(t, waymo.WriteRecord(&buf, p))
	}
	AssertNoError(t, fsys.MkdirAll(filepath.Dir(path), 0755))
	AssertNoError(t, fsys.WriteFile(path, buf.Bytes(), 0644))
}
