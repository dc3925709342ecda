package kitti

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/banshee-data/waymo-kitti/internal/waymo"
)

// PointStride is the number of float32 values per output point.
const PointStride = 4

// ErrPointRow is returned when a native lidar row is too narrow to hold the
// Cartesian columns.
var ErrPointRow = errors.New("kitti: lidar row too short")

// PointCloud is a flat row-major (x, y, z, intensity) float32 array.
type PointCloud struct {
	Data []float32
}

// Len returns the number of points.
func (pc *PointCloud) Len() int {
	return len(pc.Data) / PointStride
}

// At returns point i.
func (pc *PointCloud) At(i int) (x, y, z, intensity float32) {
	row := pc.Data[i*PointStride : (i+1)*PointStride]
	return row[0], row[1], row[2], row[3]
}

func tagOrder(t waymo.SensorTag) int {
	if t.Valid() {
		return int(t)
	}
	return len(waymo.SensorTags)
}

// ProjectPoints concatenates every laser's points in orientation priority
// order and reorders the native (range, intensity, elongation, x, y, z, ...)
// columns to (x, y, z, intensity). Lasers with an unrecognised tag follow the
// known ones in frame order. An empty laser set yields an empty cloud.
func ProjectPoints(lasers []waymo.LaserReturns) (*PointCloud, error) {
	ordered := make([]waymo.LaserReturns, len(lasers))
	copy(ordered, lasers)
	sort.SliceStable(ordered, func(i, j int) bool {
		return tagOrder(ordered[i].Tag) < tagOrder(ordered[j].Tag)
	})

	total := 0
	for _, l := range ordered {
		total += len(l.Points)
	}
	pc := &PointCloud{Data: make([]float32, 0, total*PointStride)}
	for _, l := range ordered {
		for i, row := range l.Points {
			if len(row) < waymo.MinPointColumns {
				return nil, fmt.Errorf("%w: %s row %d has %d columns", ErrPointRow, l.Tag, i, len(row))
			}
			pc.Data = append(pc.Data,
				float32(row[waymo.ColX]),
				float32(row[waymo.ColY]),
				float32(row[waymo.ColZ]),
				float32(row[waymo.ColIntensity]),
			)
		}
	}
	return pc, nil
}

// MarshalBinary encodes the cloud as little-endian float32 values, the
// velodyne/<key>.bin format.
func (pc *PointCloud) MarshalBinary() ([]byte, error) {
	out := make([]byte, 4*len(pc.Data))
	for i, v := range pc.Data {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(v))
	}
	return out, nil
}

// ParseBin decodes a velodyne .bin file.
func ParseBin(b []byte) (*PointCloud, error) {
	if len(b)%(4*PointStride) != 0 {
		return nil, fmt.Errorf("kitti: bin size %d is not a multiple of %d", len(b), 4*PointStride)
	}
	pc := &PointCloud{Data: make([]float32, len(b)/4)}
	for i := range pc.Data {
		pc.Data[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return pc, nil
}

// WritePCD writes the cloud as a binary PCD v0.7 file with fields
// x y z intensity. Coordinates stay in metres.
func (pc *PointCloud) WritePCD(out io.Writer) error {
	n := pc.Len()
	_, err := fmt.Fprintf(out, "VERSION .7\n"+
		"FIELDS x y z intensity\n"+
		"SIZE 4 4 4 4\n"+
		"TYPE F F F F\n"+
		"COUNT 1 1 1 1\n"+
		"WIDTH %d\n"+
		"HEIGHT 1\n"+
		"VIEWPOINT 0 0 0 1 0 0 0\n"+
		"POINTS %d\n"+
		"DATA binary\n", n, n)
	if err != nil {
		return err
	}
	data, err := pc.MarshalBinary()
	if err != nil {
		return err
	}
	_, err = out.Write(data)
	return err
}

// PCD returns the WritePCD encoding.
func (pc *PointCloud) PCD() ([]byte, error) {
	var buf bytes.Buffer
	if err := pc.WritePCD(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
