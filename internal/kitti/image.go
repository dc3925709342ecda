package kitti

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"
)

// ImageExtension is the file extension of converted camera images.
const ImageExtension = ".png"

// EncodeImage decodes a camera image (JPEG in practice) and re-encodes it
// as PNG.
func EncodeImage(src []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("decode camera image: %w", err)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
