package waymo

import (
	"fmt"
	"strings"
)

// CameraName identifies one of the five cameras. Zero is reserved.
type CameraName int

const (
	CameraUnknown CameraName = iota
	CameraFront
	CameraFrontLeft
	CameraFrontRight
	CameraSideLeft
	CameraSideRight
)

// NumCameras is the number of physical cameras on the platform.
const NumCameras = 5

var cameraNames = [...]string{"UNKNOWN", "FRONT", "FRONT_LEFT", "FRONT_RIGHT", "SIDE_LEFT", "SIDE_RIGHT"}

func (c CameraName) String() string {
	if c < 0 || int(c) >= len(cameraNames) {
		return fmt.Sprintf("CameraName(%d)", int(c))
	}
	return cameraNames[c]
}

// Valid reports whether c names a physical camera.
func (c CameraName) Valid() bool {
	return c >= CameraFront && c <= CameraSideRight
}

// Index is the zero-based output index of the camera (name - 1).
func (c CameraName) Index() int {
	return int(c) - 1
}

// LabelType is the vendor object class.
type LabelType int

const (
	TypeUnknown LabelType = iota
	TypeVehicle
	TypePedestrian
	TypeSign
	TypeCyclist
)

var labelTypeNames = [...]string{"UNKNOWN", "VEHICLE", "PEDESTRIAN", "SIGN", "CYCLIST"}

func (t LabelType) String() string {
	if t < 0 || int(t) >= len(labelTypeNames) {
		return fmt.Sprintf("LabelType(%d)", int(t))
	}
	return labelTypeNames[t]
}

// ParseLabelType maps a vendor class name such as "VEHICLE" to its LabelType.
func ParseLabelType(s string) (LabelType, error) {
	for i, name := range labelTypeNames {
		if strings.EqualFold(name, s) {
			return LabelType(i), nil
		}
	}
	return TypeUnknown, fmt.Errorf("unknown label type %q", s)
}

// SensorTag is one of the five lidar/camera orientations. The declaration
// order is the association priority and the lidar concatenation order.
type SensorTag int

const (
	TagFront SensorTag = iota
	TagFrontRight
	TagFrontLeft
	TagSideRight
	TagSideLeft
)

// SensorTags lists every tag in priority order.
var SensorTags = [...]SensorTag{TagFront, TagFrontRight, TagFrontLeft, TagSideRight, TagSideLeft}

var sensorTagNames = [...]string{"FRONT", "FRONT_RIGHT", "FRONT_LEFT", "SIDE_RIGHT", "SIDE_LEFT"}

func (s SensorTag) String() string {
	if s < 0 || int(s) >= len(sensorTagNames) {
		return fmt.Sprintf("SensorTag(%d)", int(s))
	}
	return sensorTagNames[s]
}

// Valid reports whether s is one of the five known orientations.
func (s SensorTag) Valid() bool {
	return s >= TagFront && s <= TagSideLeft
}

// Suffix is the string appended to a laser label id to form the id of its
// camera-projected counterpart, e.g. "_FRONT_LEFT".
func (s SensorTag) Suffix() string {
	return "_" + s.String()
}

// ParseSensorTag maps "FRONT_LEFT" (or "_FRONT_LEFT") to TagFrontLeft.
func ParseSensorTag(s string) (SensorTag, error) {
	s = strings.TrimPrefix(strings.ToUpper(s), "_")
	for i, name := range sensorTagNames {
		if name == s {
			return SensorTag(i), nil
		}
	}
	return -1, fmt.Errorf("unknown sensor tag %q", s)
}

// MarshalText encodes the tag by name.
func (s SensorTag) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid sensor tag %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText decodes a tag name.
func (s *SensorTag) UnmarshalText(b []byte) error {
	tag, err := ParseSensorTag(string(b))
	if err != nil {
		return err
	}
	*s = tag
	return nil
}

// SplitTaggedID splits a camera-projected label id into the laser label id
// and its orientation tag. ok is false when id carries no known suffix.
func SplitTaggedID(id string) (objectID string, tag SensorTag, ok bool) {
	for _, t := range SensorTags {
		if base, found := strings.CutSuffix(id, t.Suffix()); found && base != "" {
			return base, t, true
		}
	}
	return "", -1, false
}
