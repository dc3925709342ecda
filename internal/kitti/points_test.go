package kitti

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/waymo-kitti/internal/waymo"
)

func row(rng, intensity, x, y, z float64) []float64 {
	return []float64{rng, intensity, 0.5, x, y, z}
}

func TestProjectPoints_ColumnOrder(t *testing.T) {
	pc, err := ProjectPoints([]waymo.LaserReturns{
		{Tag: waymo.TagFront, Points: [][]float64{row(10, 0.25, 1, 2, 3)}},
	})
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3, 0.25}, pc.Data)
	assert.Equal(t, 1, pc.Len())

	x, y, z, i := pc.At(0)
	assert.Equal(t, [4]float32{1, 2, 3, 0.25}, [4]float32{x, y, z, i})
}

func TestProjectPoints_SensorOrder(t *testing.T) {
	lasers := []waymo.LaserReturns{
		{Tag: waymo.TagSideLeft, Points: [][]float64{row(0, 5, 5, 0, 0)}},
		{Tag: waymo.SensorTag(9), Points: [][]float64{row(0, 9, 9, 0, 0)}},
		{Tag: waymo.TagFrontLeft, Points: [][]float64{row(0, 3, 3, 0, 0)}},
		{Tag: waymo.TagFront, Points: [][]float64{row(0, 1, 1, 0, 0), row(0, 1, 1.5, 0, 0)}},
		{Tag: waymo.TagSideRight, Points: [][]float64{row(0, 4, 4, 0, 0)}},
		{Tag: waymo.TagFrontRight, Points: [][]float64{row(0, 2, 2, 0, 0)}},
	}
	pc, err := ProjectPoints(lasers)
	require.NoError(t, err)

	var xs []float32
	for i := 0; i < pc.Len(); i++ {
		x, _, _, _ := pc.At(i)
		xs = append(xs, x)
	}
	assert.Equal(t, []float32{1, 1.5, 2, 3, 4, 5, 9}, xs)
}

func TestProjectPoints_Empty(t *testing.T) {
	pc, err := ProjectPoints(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, pc.Len())

	data, err := pc.MarshalBinary()
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestProjectPoints_ShortRow(t *testing.T) {
	_, err := ProjectPoints([]waymo.LaserReturns{
		{Tag: waymo.TagFront, Points: [][]float64{{1, 2, 3, 4, 5}}},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPointRow))
}

func TestPointCloud_BinRoundTrip(t *testing.T) {
	pc := &PointCloud{Data: []float32{1, -2, 3.5, 0.1, 4, 5, 6, 0.9}}
	data, err := pc.MarshalBinary()
	require.NoError(t, err)
	require.Len(t, data, 32)
	// Little-endian float32 1.0.
	assert.Equal(t, []byte{0x00, 0x00, 0x80, 0x3f}, data[:4])

	back, err := ParseBin(data)
	require.NoError(t, err)
	assert.Equal(t, pc.Data, back.Data)

	_, err = ParseBin(data[:30])
	assert.Error(t, err)
}

func TestPointCloud_PCD(t *testing.T) {
	pc := &PointCloud{Data: []float32{1, 2, 3, 0.5, 4, 5, 6, 0.25}}
	out, err := pc.PCD()
	require.NoError(t, err)

	header, body, ok := bytes.Cut(out, []byte("DATA binary\n"))
	require.True(t, ok)
	assert.Contains(t, string(header), "FIELDS x y z intensity\n")
	assert.Contains(t, string(header), "WIDTH 2\n")
	assert.Contains(t, string(header), "POINTS 2\n")

	back, err := ParseBin(body)
	require.NoError(t, err)
	assert.Equal(t, pc.Data, back.Data)
}
