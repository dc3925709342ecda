package convert

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/waymo-kitti/internal/fsutil"
	"github.com/banshee-data/waymo-kitti/internal/kitti"
)

func TestDatasetWriter_Prepare(t *testing.T) {
	tests := []struct {
		name     string
		opts     func(o *Options)
		present  []string
		excluded []string
	}{
		{
			name:     "defaults",
			opts:     func(o *Options) {},
			present:  []string{"/out/calib", "/out/velodyne", "/out/pose", "/out/label_all", "/out/label_0", "/out/label_4", "/out/image_0", "/out/image_4"},
			excluded: []string{"/out/pcd", "/out/preview", "/out/label_5"},
		},
		{
			name:     "test mode",
			opts:     func(o *Options) { o.TestMode = true },
			present:  []string{"/out/calib", "/out/image_2"},
			excluded: []string{"/out/label_all", "/out/label_0"},
		},
		{
			name:    "extras",
			opts:    func(o *Options) { o.WritePCD = true; o.PreviewEvery = 3 },
			present: []string{"/out/pcd", "/out/preview"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.opts(&opts)
			fsys := fsutil.NewMemoryFileSystem()
			require.NoError(t, NewDatasetWriter(fsys, "/out", opts).Prepare())

			for _, dir := range tt.present {
				assert.True(t, fsys.Exists(dir), "missing %s", dir)
			}
			for _, dir := range tt.excluded {
				assert.False(t, fsys.Exists(dir), "unexpected %s", dir)
			}
		})
	}
}

func TestDatasetWriter_Write(t *testing.T) {
	fsys := fsutil.NewMemoryFileSystem()
	opts := DefaultOptions()
	w := NewDatasetWriter(fsys, "/out", opts)
	require.NoError(t, w.Prepare())

	a := &Artifacts{
		Key:      "000001",
		Calib:    []byte("calib"),
		Velodyne: []byte{1, 2, 3, 4},
		Pose:     []byte("pose"),
		PCD:      []byte("ignored: pcd disabled"),
		Images:   map[int][]byte{3: []byte("png")},
		Labels: &kitti.LabelFiles{
			All:       []byte{},
			PerCamera: map[int][]byte{0: []byte("Car ...\n")},
		},
	}
	require.NoError(t, w.Write(a))
	// Rewriting is idempotent.
	require.NoError(t, w.Write(a))

	want := []string{
		"/out/calib/000001.txt",
		"/out/image_3/000001.png",
		"/out/label_0/000001.txt",
		"/out/label_all/000001.txt",
		"/out/pose/000001.txt",
		"/out/velodyne/000001.bin",
	}
	if diff := cmp.Diff(want, fsys.Files()); diff != "" {
		t.Errorf("files mismatch (-want +got):\n%s", diff)
	}

	data, err := fsys.ReadFile("/out/label_0/000001.txt")
	require.NoError(t, err)
	assert.Equal(t, "Car ...\n", string(data))
	data, err = fsys.ReadFile("/out/label_all/000001.txt")
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestDatasetWriter_WriteWithoutPrepare(t *testing.T) {
	fsys := fsutil.NewMemoryFileSystem()
	w := NewDatasetWriter(fsys, "/out", DefaultOptions())
	err := w.Write(&Artifacts{Key: "000000"})
	assert.Error(t, err)
}
