package testutil

import (
	"bytes"
	"testing"

	"github.com/banshee-data/waymo-kitti/internal/fsutil"
	"github.com/banshee-data/waymo-kitti/internal/waymo"
)

func TestWriteSource_RoundTrip(t *testing.T) {
	fsys := fsutil.NewMemoryFileSystem()
	WriteSource(t, fsys, "/src/a.tfrecord", Frame("location_sf"), Frame("location_phx"))

	data, err := fsys.ReadFile("/src/a.tfrecord")
	AssertNoError(t, err)

	rr := waymo.NewRecordReader(bytes.NewReader(data))
	var locations []string
	for {
		payload, err := rr.Next()
		if err != nil {
			break
		}
		f, err := waymo.JSONDecoder{}.Decode(payload)
		AssertNoError(t, err)
		locations = append(locations, f.Context.Location)
	}
	if len(locations) != 2 || locations[0] != "location_sf" || locations[1] != "location_phx" {
		t.Errorf("unexpected locations %v", locations)
	}
}

func TestJPEG(t *testing.T) {
	data := JPEG(t, 4, 4)
	if !bytes.HasPrefix(data, []byte{0xff, 0xd8}) {
		t.Errorf("not a JPEG: % x", data[:4])
	}
}
