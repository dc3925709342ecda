package kitti

import (
	"bytes"
	"strconv"

	"github.com/banshee-data/waymo-kitti/internal/geom"
)

// FormatPose renders the vehicle -> world pose as four lines of four
// space-separated values. Pose values use plain decimal notation, unlike
// the calibration file.
func FormatPose(pose geom.Transform) []byte {
	var buf bytes.Buffer
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			if c > 0 {
				buf.WriteByte(' ')
			}
			buf.WriteString(strconv.FormatFloat(pose.At(r, c), 'f', -1, 64))
		}
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}
