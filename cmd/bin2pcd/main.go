package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/akamensky/argparse"

	"github.com/banshee-data/waymo-kitti/internal/fsutil"
	"github.com/banshee-data/waymo-kitti/internal/kitti"
	"github.com/banshee-data/waymo-kitti/internal/monitoring"
	"github.com/banshee-data/waymo-kitti/internal/version"
)

const programName = "bin2pcd"

var errUsage = errors.New("usage")

type cliArgs struct {
	input       string
	output      string
	logLevel    string
	showVersion bool
}

func parseArgs(args []string, stdout io.Writer) (cliArgs, error) {
	parser := argparse.NewParser(programName, "Convert KITTI velodyne .bin point clouds to binary PCD")
	input := parser.String("i", "input", &argparse.Options{Help: "velodyne directory or a single .bin file"})
	output := parser.String("o", "output", &argparse.Options{Help: "Output directory (default: sibling pcd/ directory)"})
	logLevel := parser.String("", "log-level", &argparse.Options{Help: "trace, debug, info, warn or error", Default: "info"})
	showVersion := parser.Flag("v", "version", &argparse.Options{Help: "Print version and exit"})
	if err := parser.Parse(args); err != nil {
		fmt.Fprint(stdout, parser.Usage(err))
		return cliArgs{}, errUsage
	}
	a := cliArgs{input: *input, output: *output, logLevel: *logLevel, showVersion: *showVersion}
	if !a.showVersion && a.input == "" {
		fmt.Fprint(stdout, parser.Usage("--input is required"))
		return cliArgs{}, errUsage
	}
	return a, nil
}

// inputs expands input into the .bin files to convert, sorted.
func inputs(fsys fsutil.FileSystem, input string) ([]string, error) {
	info, err := fsys.Stat(input)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{input}, nil
	}
	return fsys.Glob(filepath.Join(input, "*.bin"))
}

// outputDir defaults to <root>/pcd next to a velodyne directory.
func outputDir(input, output string, inputIsDir bool) string {
	if output != "" {
		return output
	}
	dir := input
	if !inputIsDir {
		dir = filepath.Dir(input)
	}
	return filepath.Join(filepath.Dir(filepath.Clean(dir)), kitti.DirPCD)
}

func convertFile(fsys fsutil.FileSystem, src, outDir string) (string, int, error) {
	data, err := fsys.ReadFile(src)
	if err != nil {
		return "", 0, err
	}
	pc, err := kitti.ParseBin(data)
	if err != nil {
		return "", 0, fmt.Errorf("%s: %w", src, err)
	}
	pcd, err := pc.PCD()
	if err != nil {
		return "", 0, err
	}
	dst := filepath.Join(outDir, strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))+".pcd")
	if err := fsutil.WriteFileAtomic(fsys, dst, pcd, 0644); err != nil {
		return "", 0, err
	}
	return dst, pc.Len(), nil
}

// run converts every input and returns how many files failed.
func run(fsys fsutil.FileSystem, a cliArgs) (int, error) {
	info, err := fsys.Stat(a.input)
	if err != nil {
		return 0, err
	}
	files, err := inputs(fsys, a.input)
	if err != nil {
		return 0, err
	}
	outDir := outputDir(a.input, a.output, info.IsDir())
	if err := fsys.MkdirAll(outDir, 0755); err != nil {
		return 0, err
	}

	failed := 0
	for _, src := range files {
		dst, n, err := convertFile(fsys, src, outDir)
		if err != nil {
			monitoring.Logf("[bin2pcd] %v", err)
			failed++
			continue
		}
		monitoring.Logf("[bin2pcd] %s -> %s (%d points)", src, dst, n)
	}
	monitoring.Logf("[bin2pcd] converted %d of %d files into %s", len(files)-failed, len(files), outDir)
	return failed, nil
}

func main() {
	a, err := parseArgs(os.Args, os.Stdout)
	if err != nil {
		os.Exit(2)
	}
	if a.showVersion {
		fmt.Println(version.String(programName))
		return
	}

	logger, err := monitoring.NewLogger(monitoring.Options{Level: a.logLevel})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	monitoring.UseLogrus(logger)

	failed, err := run(fsutil.OSFileSystem{}, a)
	if err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}
	if failed > 0 {
		os.Exit(1)
	}
}
