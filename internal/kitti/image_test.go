package kitti

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeImage(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 8, 6))
	for x := 0; x < 8; x++ {
		src.Set(x, 3, color.RGBA{R: 255, A: 255})
	}
	var jpg bytes.Buffer
	require.NoError(t, jpeg.Encode(&jpg, src, nil))

	out, err := EncodeImage(jpg.Bytes())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("\x89PNG\r\n\x1a\n")))

	img, err := imaging.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 8, 6), img.Bounds())
}

func TestEncodeImage_Invalid(t *testing.T) {
	_, err := EncodeImage([]byte("not an image"))
	assert.Error(t, err)
}
