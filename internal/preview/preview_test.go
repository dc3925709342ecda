package preview

import (
	"bytes"
	"image/png"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/waymo-kitti/internal/kitti"
	"github.com/banshee-data/waymo-kitti/internal/waymo"
)

func TestFootprint(t *testing.T) {
	b := waymo.Box{CenterX: 10, CenterY: 0, CenterZ: 1, Length: 4, Width: 2, Height: 2, Heading: math.Pi / 2}
	corners := Footprint(b)

	// Rotated 90°: length runs along +Y.
	assert.InDelta(t, 9, corners[0].X, 1e-9)
	assert.InDelta(t, 2, corners[0].Y, 1e-9)
	assert.InDelta(t, 11, corners[2].X, 1e-9)
	assert.InDelta(t, -2, corners[2].Y, 1e-9)
	for _, c := range corners {
		assert.Equal(t, 0.0, c.Z)
	}
}

func TestRender(t *testing.T) {
	pc := &kitti.PointCloud{Data: []float32{
		5, 1, 0, 0.2,
		-3, 2, 0, 0.5,
		20, -4, 1, 0.9,
	}}
	labels := []waymo.Label{
		{ID: "a", Type: waymo.TypeVehicle, Box: waymo.Box{CenterX: 10, Length: 4, Width: 2, Height: 1.5}},
		{ID: "b", Type: waymo.TypeUnknown, Box: waymo.Box{CenterX: -5, CenterY: 3, Length: 1, Width: 1, Height: 1}},
	}
	opts := DefaultOptions()
	opts.Size = 2 * vg.Inch
	opts.Title = "000001"

	out, err := Render(pc, labels, opts)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Greater(t, img.Bounds().Dx(), 0)
	assert.Equal(t, img.Bounds().Dx(), img.Bounds().Dy())
}

func TestRender_Empty(t *testing.T) {
	opts := DefaultOptions()
	opts.Size = vg.Inch
	out, err := Render(&kitti.PointCloud{}, nil, opts)
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestRender_InvalidOptions(t *testing.T) {
	_, err := Render(nil, nil, Options{})
	assert.Error(t, err)
}

func TestDecimate(t *testing.T) {
	pc := &kitti.PointCloud{Data: make([]float32, 4*10)}
	assert.Len(t, decimate(pc, 0), 10)
	assert.Len(t, decimate(pc, 3), 3)
	assert.Len(t, decimate(pc, 20), 10)
}
