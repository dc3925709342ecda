package kitti

import (
	"bytes"
	"math"
	"strconv"

	"github.com/golang/geo/r3"

	"github.com/banshee-data/waymo-kitti/internal/geom"
	"github.com/banshee-data/waymo-kitti/internal/waymo"
)

// Fixed fields the source data cannot supply.
const (
	Truncated = 0.0
	Occluded  = 0
	Alpha     = -10.0
)

// DefaultCamera is the camera index written for objects without a 2D match.
const DefaultCamera = 0

// DefaultClasses is the class allow-list used when none is configured.
var DefaultClasses = []waymo.LabelType{waymo.TypeVehicle, waymo.TypePedestrian, waymo.TypeCyclist}

var classNames = map[waymo.LabelType]string{
	waymo.TypeVehicle:    "Car",
	waymo.TypePedestrian: "Pedestrian",
	waymo.TypeCyclist:    "Cyclist",
	waymo.TypeUnknown:    "DontCare",
	waymo.TypeSign:       "Sign",
}

// ClassName maps a source label type to its output class name.
func ClassName(t waymo.LabelType) string {
	if name, ok := classNames[t]; ok {
		return name
	}
	return classNames[waymo.TypeUnknown]
}

// Association links a 3D object to a camera-projected 2D box.
type Association struct {
	Box    [4]float64 // xmin, ymin, xmax, ymax in pixels
	Camera int        // camera name - 1
}

type associationKey struct {
	id  string
	tag waymo.SensorTag
}

// AssociationTable maps (object id, orientation tag) to the 2D box seen by
// a camera. Association is purely by id; no projection check is made.
type AssociationTable map[associationKey]Association

// BuildAssociationTable indexes every camera-projected label by its tagged
// id. Ids without a known tag suffix and cameras without a valid name are
// ignored. A later duplicate replaces an earlier one.
func BuildAssociationTable(cameras []waymo.CameraLabels) AssociationTable {
	table := make(AssociationTable)
	for _, cam := range cameras {
		if !cam.Name.Valid() {
			continue
		}
		for _, l := range cam.Labels {
			id, tag, ok := waymo.SplitTaggedID(l.ID)
			if !ok {
				continue
			}
			table[associationKey{id: id, tag: tag}] = Association{
				Box:    l.Box.Bounds(),
				Camera: cam.Name.Index(),
			}
		}
	}
	return table
}

// Lookup probes the tags in priority order and returns the first match.
// Without a match it returns a zero box on DefaultCamera and false.
func (t AssociationTable) Lookup(objectID string) (Association, bool) {
	for _, tag := range waymo.SensorTags {
		if a, ok := t[associationKey{id: objectID, tag: tag}]; ok {
			return a, true
		}
	}
	return Association{Camera: DefaultCamera}, false
}

// LabelOptions controls which objects are emitted.
type LabelOptions struct {
	Classes          []waymo.LabelType
	FilterEmptyBoxes bool
	SaveTrackID      bool
}

func (o LabelOptions) allows(t waymo.LabelType) bool {
	for _, c := range o.Classes {
		if c == t {
			return true
		}
	}
	return false
}

// Object is one reprojected label in the output convention.
type Object struct {
	Class     string
	Type      waymo.LabelType
	TrackID   string
	Camera    int
	Box2D     [4]float64
	Height    float64
	Width     float64
	Length    float64
	Location  r3.Vector // bottom center in the reference camera frame
	RotationY float64
}

// BottomCenter moves a box centroid down to the center of its lowest face.
func BottomCenter(b waymo.Box) r3.Vector {
	c := b.Center()
	c.Z -= b.Height / 2
	return c
}

// RotationY converts a counter-clockwise heading about +Z into the yaw about
// the camera's vertical axis. The result is not wrapped into [-π, π].
func RotationY(heading float64) float64 {
	return -heading - math.Pi/2
}

// HeadingFromRotationY inverts RotationY.
func HeadingFromRotationY(rotationY float64) float64 {
	return -rotationY - math.Pi/2
}

// Retain reports whether a laser label survives the class and empty-box
// filters.
func (o LabelOptions) Retain(l waymo.Label) bool {
	if !o.allows(l.Type) {
		return false
	}
	return !o.FilterEmptyBoxes || l.NumLidarPointsInBox >= 1
}

// Reproject converts the frame's laser labels into output objects. Objects
// outside the class allow-list, and empty boxes when filtering is enabled,
// are dropped silently.
func Reproject(labels []waymo.Label, table AssociationTable, reference geom.Transform, opts LabelOptions) []Object {
	objects := make([]Object, 0, len(labels))
	for _, l := range labels {
		if !opts.Retain(l) {
			continue
		}
		assoc, _ := table.Lookup(l.ID)
		objects = append(objects, Object{
			Class:     ClassName(l.Type),
			Type:      l.Type,
			TrackID:   l.ID,
			Camera:    assoc.Camera,
			Box2D:     assoc.Box,
			Height:    l.Box.Height,
			Width:     l.Box.Width,
			Length:    l.Box.Length,
			Location:  reference.Apply(BottomCenter(l.Box)),
			RotationY: RotationY(l.Box.Heading),
		})
	}
	return objects
}

func appendFixed(b []byte, v float64) []byte {
	b = append(b, ' ')
	return strconv.AppendFloat(b, v, 'f', 2, 64)
}

func (o Object) appendLine(b []byte) []byte {
	b = append(b, o.Class...)
	b = appendFixed(b, Truncated)
	b = append(b, ' ')
	b = strconv.AppendInt(b, Occluded, 10)
	b = appendFixed(b, Alpha)
	for _, v := range o.Box2D {
		b = appendFixed(b, v)
	}
	b = appendFixed(b, o.Height)
	b = appendFixed(b, o.Width)
	b = appendFixed(b, o.Length)
	b = appendFixed(b, o.Location.X)
	b = appendFixed(b, o.Location.Y)
	b = appendFixed(b, o.Location.Z)
	b = appendFixed(b, o.RotationY)
	return b
}

// Line renders the 15-field record without a trailing newline.
func (o Object) Line() string {
	return string(o.appendLine(nil))
}

// LineWithCamera renders the label_all record: the 15 fields, the camera
// index and, when withTrack is set, the track id.
func (o Object) LineWithCamera(withTrack bool) string {
	b := o.appendLine(nil)
	b = append(b, ' ')
	b = strconv.AppendInt(b, int64(o.Camera), 10)
	if withTrack {
		b = append(b, ' ')
		b = append(b, o.TrackID...)
	}
	return string(b)
}

// LabelFiles holds the rendered label files of one frame.
type LabelFiles struct {
	// All is label_all/<key>.txt; present even when empty.
	All []byte
	// PerCamera holds label_<i>/<key>.txt for cameras with at least one object.
	PerCamera map[int][]byte
}

// RenderLabels renders objects into the aggregate and per-camera files.
func RenderLabels(objects []Object, withTrack bool) LabelFiles {
	files := LabelFiles{All: []byte{}, PerCamera: make(map[int][]byte)}
	var all bytes.Buffer
	for _, o := range objects {
		all.WriteString(o.LineWithCamera(withTrack))
		all.WriteByte('\n')

		b := o.appendLine(files.PerCamera[o.Camera])
		files.PerCamera[o.Camera] = append(b, '\n')
	}
	if all.Len() > 0 {
		files.All = all.Bytes()
	}
	return files
}
