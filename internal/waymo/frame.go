package waymo

import "github.com/golang/geo/r3"

// Frame is one logged record: all sensor data captured at a single timestamp.
// A Frame is only live while its record is being converted.
type Frame struct {
	Context         Context        `json:"context"`
	TimestampMicros int64          `json:"timestamp_micros"`
	Pose            []float64      `json:"pose"` // 4x4 row-major, vehicle -> world
	Images          []CameraImage  `json:"images"`
	Lasers          []LaserReturns `json:"lasers"`
	LaserLabels     []Label        `json:"laser_labels"`
	CameraLabels    []CameraLabels `json:"camera_labels"`
}

// Context carries the per-segment metadata attached to every frame.
type Context struct {
	Name               string              `json:"name"`
	Location           string              `json:"location"`
	CameraCalibrations []CameraCalibration `json:"camera_calibrations"`
}

// CameraCalibration is the calibration of one camera.
// Intrinsic holds at least f_u, f_v, c_u, c_v; distortion terms may follow.
// Extrinsic is the 4x4 row-major camera -> vehicle transform.
type CameraCalibration struct {
	Name      CameraName `json:"name"`
	Intrinsic []float64  `json:"intrinsic"`
	Extrinsic []float64  `json:"extrinsic"`
	Width     int        `json:"width"`
	Height    int        `json:"height"`
}

// CameraImage is an encoded (JPEG) image from one camera.
type CameraImage struct {
	Name  CameraName `json:"name"`
	Image []byte     `json:"image"`
}

// Native point row layout produced by the range-image utility.
const (
	ColRange = iota
	ColIntensity
	ColElongation
	ColX
	ColY
	ColZ

	// MinPointColumns is the narrowest valid native row.
	MinPointColumns
)

// LaserReturns is the point set of one lidar, already projected to Cartesian
// vehicle-frame coordinates. Each row is (range, intensity, elongation, x, y,
// z, ...).
type LaserReturns struct {
	Tag    SensorTag   `json:"tag"`
	Points [][]float64 `json:"points"`
}

// Box is a 3D box in the vehicle frame. The center is the volumetric
// centroid; heading is counter-clockwise about +Z from +X, in radians.
type Box struct {
	CenterX float64 `json:"center_x"`
	CenterY float64 `json:"center_y"`
	CenterZ float64 `json:"center_z"`
	Length  float64 `json:"length"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	Heading float64 `json:"heading"`
}

// Center returns the box centroid.
func (b Box) Center() r3.Vector {
	return r3.Vector{X: b.CenterX, Y: b.CenterY, Z: b.CenterZ}
}

// Label is a 3D laser annotation.
type Label struct {
	ID                  string    `json:"id"`
	Type                LabelType `json:"type"`
	Box                 Box       `json:"box"`
	NumLidarPointsInBox int       `json:"num_lidar_points_in_box"`
}

// Box2D is an axis-aligned pixel-space box given by center and size.
// Length runs along image x, width along image y.
type Box2D struct {
	CenterX float64 `json:"center_x"`
	CenterY float64 `json:"center_y"`
	Length  float64 `json:"length"`
	Width   float64 `json:"width"`
}

// Bounds returns (xmin, ymin, xmax, ymax).
func (b Box2D) Bounds() [4]float64 {
	return [4]float64{
		b.CenterX - b.Length/2,
		b.CenterY - b.Width/2,
		b.CenterX + b.Length/2,
		b.CenterY + b.Width/2,
	}
}

// CameraLabel is a 2D annotation whose id is a laser label id followed by a
// SensorTag suffix.
type CameraLabel struct {
	ID  string `json:"id"`
	Box Box2D  `json:"box"`
}

// CameraLabels groups the 2D labels observed by one camera.
type CameraLabels struct {
	Name   CameraName    `json:"name"`
	Labels []CameraLabel `json:"labels"`
}
