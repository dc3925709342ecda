package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/akamensky/argparse"
	jsoniter "github.com/json-iterator/go"

	"github.com/banshee-data/waymo-kitti/internal/config"
	"github.com/banshee-data/waymo-kitti/internal/convert"
	"github.com/banshee-data/waymo-kitti/internal/fsutil"
	"github.com/banshee-data/waymo-kitti/internal/manifest"
	"github.com/banshee-data/waymo-kitti/internal/monitoring"
	"github.com/banshee-data/waymo-kitti/internal/report"
	"github.com/banshee-data/waymo-kitti/internal/version"
	"github.com/banshee-data/waymo-kitti/internal/waymo"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const programName = "waymo2kitti"

type cliArgs struct {
	source      string
	dest        string
	workers     int
	configPath  string
	envFile     string
	logLevel    string
	logFile     string
	manifest    string
	noReport    bool
	testMode    bool
	showVersion bool
}

var errUsage = errors.New("usage")

func parseArgs(args []string, stdout io.Writer) (cliArgs, error) {
	parser := argparse.NewParser(programName, "Convert Waymo Open Dataset records into a KITTI-layout dataset")
	source := parser.String("s", "source", &argparse.Options{Help: "Directory of *.tfrecord files"})
	dest := parser.String("d", "dest", &argparse.Options{Help: "Output dataset root"})
	workers := parser.Int("w", "workers", &argparse.Options{Help: "Files converted in parallel (0 = from config)", Default: 0})
	configPath := parser.String("c", "config", &argparse.Options{Help: "JSON conversion config"})
	envFile := parser.String("", "env", &argparse.Options{Help: "Optional .env file with WAYMO2KITTI_* overrides", Default: ".env"})
	logLevel := parser.String("", "log-level", &argparse.Options{Help: "trace, debug, info, warn or error"})
	logFile := parser.String("", "log-file", &argparse.Options{Help: "Also write logs to this rotating file"})
	manifestPath := parser.String("m", "manifest", &argparse.Options{Help: "SQLite run manifest path"})
	noReport := parser.Flag("", "no-report", &argparse.Options{Help: "Do not write report.html"})
	testMode := parser.Flag("t", "test-mode", &argparse.Options{Help: "Skip label output"})
	showVersion := parser.Flag("v", "version", &argparse.Options{Help: "Print version and exit"})

	if err := parser.Parse(args); err != nil {
		fmt.Fprint(stdout, parser.Usage(err))
		return cliArgs{}, errUsage
	}

	a := cliArgs{
		source:      *source,
		dest:        *dest,
		workers:     *workers,
		configPath:  *configPath,
		envFile:     *envFile,
		logLevel:    *logLevel,
		logFile:     *logFile,
		manifest:    *manifestPath,
		noReport:    *noReport,
		testMode:    *testMode,
		showVersion: *showVersion,
	}
	if a.showVersion {
		return a, nil
	}
	if a.source == "" || a.dest == "" {
		fmt.Fprint(stdout, parser.Usage("--source and --dest are required"))
		return cliArgs{}, errUsage
	}
	if a.workers < 0 {
		return cliArgs{}, fmt.Errorf("--workers must be >= 0, got %d", a.workers)
	}
	return a, nil
}

// resolveConfig layers config file, environment and flags, in that order.
func resolveConfig(a cliArgs) (*config.ConvertConfig, error) {
	cfg := config.EmptyConvertConfig()
	if a.configPath != "" {
		loaded, err := config.LoadConvertConfig(a.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if err := cfg.ApplyEnv(a.envFile); err != nil {
		return nil, err
	}

	if a.workers > 0 {
		w := a.workers
		cfg.Workers = &w
	}
	if a.logLevel != "" {
		l := a.logLevel
		cfg.LogLevel = &l
	}
	if a.logFile != "" {
		f := a.logFile
		cfg.LogFile = &f
	}
	if a.manifest != "" {
		m := a.manifest
		cfg.ManifestPath = &m
	}
	if a.noReport {
		r := false
		cfg.Report = &r
	}
	if a.testMode {
		tm := true
		cfg.TestMode = &tm
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func run(ctx context.Context, a cliArgs, cfg *config.ConvertConfig, stderr io.Writer) error {
	logger, err := monitoring.NewLogger(monitoring.Options{
		Level:  cfg.GetLogLevel(),
		File:   cfg.GetLogFile(),
		Stderr: stderr,
	})
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	monitoring.UseLogrus(logger)
	logger.Infof("%s", version.String(programName))

	fsys := fsutil.OSFileSystem{}
	sources, err := waymo.ListSources(fsys, a.source)
	if err != nil {
		return err
	}
	if len(sources) == 0 {
		logger.Warnf("no *.tfrecord files in %s", a.source)
	}

	runner := convert.NewRunner(fsys, a.dest, cfg.Options(), waymo.JSONDecoder{})

	var store *manifest.Store
	var runID string
	if path := cfg.GetManifestPath(); path != "" {
		store, err = manifest.Open(path)
		if err != nil {
			return err
		}
		defer store.Close()

		optionsJSON, err := json.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("encode options: %w", err)
		}
		runID, err = store.StartRun(ctx, a.source, a.dest, string(optionsJSON))
		if err != nil {
			return err
		}
		logger.Infof("manifest run %s at %s", runID, path)
		runner.SetRecorder(store)
	}

	stats, runErr := runner.Run(ctx, sources)
	if store != nil {
		// ctx may already be canceled; the final status still has to land.
		finishCtx := context.WithoutCancel(ctx)
		if runErr != nil {
			if ferr := store.FailRun(finishCtx, runErr.Error()); ferr != nil {
				logger.Errorf("manifest: %v", ferr)
			}
		} else if cerr := store.CompleteRun(finishCtx, stats); cerr != nil {
			return cerr
		}
	}
	if runErr != nil {
		return runErr
	}

	if cfg.GetReport() {
		summary := report.Summary{RunID: runID, Source: a.source, Destination: a.dest, Stats: stats}
		path, err := report.Write(fsys, a.dest, summary)
		if err != nil {
			return err
		}
		logger.Infof("report written to %s", path)
	}
	for _, class := range stats.Classes() {
		logger.Infof("  %-10s %d", class, stats.ObjectsByClass[class])
	}
	return nil
}

func main() {
	a, err := parseArgs(os.Args, os.Stdout)
	if err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(2)
	}
	if a.showVersion {
		fmt.Println(version.String(programName))
		return
	}

	cfg, err := resolveConfig(a)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, a, cfg, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", programName, err)
		os.Exit(1)
	}
}
