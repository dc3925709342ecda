package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/waymo-kitti/internal/fsutil"
	"github.com/banshee-data/waymo-kitti/internal/kitti"
	"github.com/banshee-data/waymo-kitti/internal/monitoring"
)

func writeBin(t *testing.T, fsys fsutil.FileSystem, path string, pc *kitti.PointCloud) {
	t.Helper()
	data, err := pc.MarshalBinary()
	require.NoError(t, err)
	require.NoError(t, fsys.WriteFile(path, data, 0644))
}

func TestOutputDir(t *testing.T) {
	tests := []struct {
		input, output string
		isDir         bool
		want          string
	}{
		{"/data/velodyne", "", true, "/data/pcd"},
		{"/data/velodyne/", "", true, "/data/pcd"},
		{"/data/velodyne/000001.bin", "", false, "/data/pcd"},
		{"/data/velodyne", "/elsewhere", true, "/elsewhere"},
	}
	for _, tt := range tests {
		if got := outputDir(tt.input, tt.output, tt.isDir); got != tt.want {
			t.Errorf("outputDir(%q, %q, %v) = %q, want %q", tt.input, tt.output, tt.isDir, got, tt.want)
		}
	}
}

func TestRun_Directory(t *testing.T) {
	monitoring.SetLogger(nil)
	fsys := fsutil.NewMemoryFileSystem()
	require.NoError(t, fsys.MkdirAll("/data/velodyne", 0755))
	writeBin(t, fsys, "/data/velodyne/000000.bin", &kitti.PointCloud{Data: []float32{1, 2, 3, 0.5}})
	writeBin(t, fsys, "/data/velodyne/000001.bin", &kitti.PointCloud{Data: []float32{1, 2, 3, 0.5, 4, 5, 6, 1}})
	require.NoError(t, fsys.WriteFile("/data/velodyne/000002.bin", []byte{1, 2, 3}, 0644))

	failed, err := run(fsys, cliArgs{input: "/data/velodyne"})
	require.NoError(t, err)
	assert.Equal(t, 1, failed, "truncated file is reported")

	data, err := fsys.ReadFile("/data/pcd/000001.pcd")
	require.NoError(t, err)
	assert.Contains(t, string(data), "POINTS 2\n")
	assert.True(t, bytes.HasSuffix(data, mustBinary(t, &kitti.PointCloud{Data: []float32{1, 2, 3, 0.5, 4, 5, 6, 1}})))
	assert.False(t, fsys.Exists("/data/pcd/000002.pcd"))
}

func TestRun_SingleFile(t *testing.T) {
	monitoring.SetLogger(nil)
	fsys := fsutil.NewMemoryFileSystem()
	require.NoError(t, fsys.MkdirAll("/data/velodyne", 0755))
	writeBin(t, fsys, "/data/velodyne/000007.bin", &kitti.PointCloud{Data: []float32{0, 0, 0, 0}})

	failed, err := run(fsys, cliArgs{input: "/data/velodyne/000007.bin", output: "/out"})
	require.NoError(t, err)
	assert.Zero(t, failed)
	assert.True(t, fsys.Exists("/out/000007.pcd"))
}

func TestRun_MissingInput(t *testing.T) {
	_, err := run(fsutil.NewMemoryFileSystem(), cliArgs{input: "/absent"})
	assert.Error(t, err)
}

func TestParseArgs_RequiresInput(t *testing.T) {
	var out bytes.Buffer
	_, err := parseArgs([]string{programName}, &out)
	assert.ErrorIs(t, err, errUsage)
}

func mustBinary(t *testing.T, pc *kitti.PointCloud) []byte {
	t.Helper()
	b, err := pc.MarshalBinary()
	require.NoError(t, err)
	return b
}
