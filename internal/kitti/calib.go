package kitti

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"

	"github.com/banshee-data/waymo-kitti/internal/geom"
	"github.com/banshee-data/waymo-kitti/internal/waymo"
)

var (
	// ErrMissingFrontCamera means the frame has no calibration for the
	// camera that anchors the reference frame.
	ErrMissingFrontCamera = errors.New("kitti: missing front camera calibration")
	// ErrCalibrationShape means a calibration is malformed or a camera is absent.
	ErrCalibrationShape = errors.New("kitti: malformed camera calibration")
	// ErrDuplicateCamera means a camera is calibrated more than once.
	ErrDuplicateCamera = errors.New("kitti: duplicate camera calibration")
)

// FrontCameraToReference remaps the vendor camera axes (forward, left, up)
// onto the reference camera axes (right, down, forward).
var FrontCameraToReference = geom.Rotation{
	0, -1, 0,
	0, 0, -1,
	1, 0, 0,
}

// ReferenceCamera is the camera whose vehicle -> camera transform anchors
// every label.
const ReferenceCamera = waymo.CameraFront

// Calibration is the per-frame camera calibration in the output convention.
// Index i holds camera name i+1.
type Calibration struct {
	// P holds the 3x4 intrinsic projection matrices, row-major.
	P [NumCameraDirs][12]float64
	// VeloToCam holds the vehicle -> camera transforms in the reference
	// camera axis convention.
	VeloToCam [NumCameraDirs]geom.Transform
	// R0Rect is the rectifying rotation; always identity here.
	R0Rect geom.Rotation
}

// Reference returns the vehicle -> reference camera transform used to map
// label centers.
func (c *Calibration) Reference() geom.Transform {
	return c.VeloToCam[ReferenceCamera.Index()]
}

// IntrinsicMatrix lays out (fx, fy, cx, cy) as a 3x4 projection matrix.
func IntrinsicMatrix(fx, fy, cx, cy float64) [12]float64 {
	return [12]float64{
		fx, 0, cx, 0,
		0, fy, cy, 0,
		0, 0, 1, 0,
	}
}

// VehicleToCamera inverts a camera -> vehicle extrinsic and remaps its axes
// into the reference camera convention.
func VehicleToCamera(extrinsic geom.Transform) (geom.Transform, error) {
	vehicleToSensor, err := extrinsic.Inverse()
	if err != nil {
		return geom.Transform{}, err
	}
	return geom.FromRotation(FrontCameraToReference).Mul(vehicleToSensor), nil
}

// BuildCalibration converts the frame's camera calibrations. Every camera
// must appear exactly once.
func BuildCalibration(calibs []waymo.CameraCalibration) (*Calibration, error) {
	c := &Calibration{R0Rect: geom.IdentityRotation}
	var seen [NumCameraDirs]bool

	for _, cam := range calibs {
		if !cam.Name.Valid() {
			return nil, fmt.Errorf("%w: camera name %d", ErrCalibrationShape, int(cam.Name))
		}
		idx := cam.Name.Index()
		if seen[idx] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateCamera, cam.Name)
		}
		seen[idx] = true

		extrinsic, err := geom.FromSlice(cam.Extrinsic)
		if err != nil {
			return nil, fmt.Errorf("%w: %s extrinsic: %v", ErrCalibrationShape, cam.Name, err)
		}
		veloToCam, err := VehicleToCamera(extrinsic)
		if err != nil {
			return nil, fmt.Errorf("%w: %s extrinsic: %v", ErrCalibrationShape, cam.Name, err)
		}
		c.VeloToCam[idx] = veloToCam

		if len(cam.Intrinsic) < 4 {
			return nil, fmt.Errorf("%w: %s intrinsic has %d values, want at least 4",
				ErrCalibrationShape, cam.Name, len(cam.Intrinsic))
		}
		in := cam.Intrinsic
		c.P[idx] = IntrinsicMatrix(in[0], in[1], in[2], in[3])
	}

	if !seen[ReferenceCamera.Index()] {
		return nil, ErrMissingFrontCamera
	}
	for i, ok := range seen {
		if !ok {
			return nil, fmt.Errorf("%w: no calibration for %s", ErrCalibrationShape, waymo.CameraName(i+1))
		}
	}
	return c, nil
}

// MarshalText renders the calib/<key>.txt block:
//
//	P0..P4            12 values each
//	R0_rect           9 values
//	Tr_velo_to_cam_0..4  12 values each
//
// Values use %e, matching the reference tooling.
func (c *Calibration) MarshalText() ([]byte, error) {
	var buf bytes.Buffer
	for i := range c.P {
		writeSciLine(&buf, "P"+strconv.Itoa(i), c.P[i][:])
	}
	writeSciLine(&buf, "R0_rect", c.R0Rect[:])
	for i := range c.VeloToCam {
		rows := c.VeloToCam[i].TopRows()
		writeSciLine(&buf, "Tr_velo_to_cam_"+strconv.Itoa(i), rows[:])
	}
	return buf.Bytes(), nil
}

func writeSciLine(buf *bytes.Buffer, name string, values []float64) {
	buf.WriteString(name)
	buf.WriteString(":")
	for _, v := range values {
		buf.WriteByte(' ')
		buf.WriteString(strconv.FormatFloat(v, 'e', 6, 64))
	}
	buf.WriteByte('\n')
}
