package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	jsoniter "github.com/json-iterator/go"

	"github.com/banshee-data/waymo-kitti/internal/convert"
	"github.com/banshee-data/waymo-kitti/internal/kitti"
	"github.com/banshee-data/waymo-kitti/internal/waymo"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Environment variables that override the config file.
const (
	EnvWorkers  = "WAYMO2KITTI_WORKERS"
	EnvManifest = "WAYMO2KITTI_MANIFEST"
	EnvLogFile  = "WAYMO2KITTI_LOG_FILE"
)

// MaxWorkers bounds the worker pool.
const MaxWorkers = 256

const maxFileSize = 1 * 1024 * 1024 // 1MB

// ConvertConfig is the on-disk conversion configuration. Every field is
// optional; the Get* methods supply the defaults for unset fields.
type ConvertConfig struct {
	SelectedClasses   []string `json:"selected_classes,omitempty" validate:"omitempty,dive,oneof=UNKNOWN VEHICLE PEDESTRIAN SIGN CYCLIST"`
	SelectedLocations []string `json:"selected_locations,omitempty" validate:"omitempty,dive,required"`
	FilterEmptyBoxes  *bool    `json:"filter_empty_boxes,omitempty"`
	SaveTrackID       *bool    `json:"save_track_id,omitempty"`
	TestMode          *bool    `json:"test_mode,omitempty"`

	Workers      *int  `json:"workers,omitempty" validate:"omitempty,min=1,max=256"`
	WriteImages  *bool `json:"write_images,omitempty"`
	WritePCD     *bool `json:"write_pcd,omitempty"`
	PreviewEvery *int  `json:"preview_every,omitempty" validate:"omitempty,min=0"`

	ManifestPath *string `json:"manifest_path,omitempty"`
	Report       *bool   `json:"report,omitempty"`
	LogFile      *string `json:"log_file,omitempty"`
	LogLevel     *string `json:"log_level,omitempty" validate:"omitempty,oneof=trace debug info warn warning error"`
}

func ptrBool(v bool) *bool       { return &v }
func ptrInt(v int) *int          { return &v }
func ptrString(v string) *string { return &v }

// EmptyConvertConfig returns a config with every field unset.
func EmptyConvertConfig() *ConvertConfig {
	return &ConvertConfig{}
}

// LoadConvertConfig loads a ConvertConfig from a JSON file.
// The file must have a .json extension and be at most 1MB. Omitted fields
// keep their defaults.
func LoadConvertConfig(path string) (*ConvertConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyConvertConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// ApplyEnv loads envFile (when it exists) into the process environment and
// applies the WAYMO2KITTI_* overrides. Variables already set in the
// environment win over the file.
func (c *ConvertConfig) ApplyEnv(envFile string) error {
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return fmt.Errorf("failed to load %s: %w", envFile, err)
			}
		}
	}

	if v, ok := os.LookupEnv(EnvWorkers); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvWorkers, err)
		}
		c.Workers = ptrInt(n)
	}
	if v, ok := os.LookupEnv(EnvManifest); ok {
		c.ManifestPath = ptrString(v)
	}
	if v, ok := os.LookupEnv(EnvLogFile); ok {
		c.LogFile = ptrString(v)
	}
	return c.Validate()
}

var validate = validator.New()

// Validate checks field ranges and class names.
func (c *ConvertConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	return nil
}

// GetSelectedClasses returns the class allow-list or the default
// VEHICLE, PEDESTRIAN, CYCLIST. Names were checked by Validate.
func (c *ConvertConfig) GetSelectedClasses() []waymo.LabelType {
	if len(c.SelectedClasses) == 0 {
		out := make([]waymo.LabelType, len(kitti.DefaultClasses))
		copy(out, kitti.DefaultClasses)
		return out
	}
	out := make([]waymo.LabelType, 0, len(c.SelectedClasses))
	for _, name := range c.SelectedClasses {
		if t, err := waymo.ParseLabelType(name); err == nil {
			out = append(out, t)
		}
	}
	return out
}

// GetSelectedLocations returns the location allow-list; nil disables
// location filtering.
func (c *ConvertConfig) GetSelectedLocations() []string {
	if len(c.SelectedLocations) == 0 {
		return nil
	}
	out := make([]string, len(c.SelectedLocations))
	copy(out, c.SelectedLocations)
	return out
}

// GetFilterEmptyBoxes returns the filter_empty_boxes value or the default.
func (c *ConvertConfig) GetFilterEmptyBoxes() bool {
	if c.FilterEmptyBoxes == nil {
		return true // default
	}
	return *c.FilterEmptyBoxes
}

// GetSaveTrackID returns the save_track_id value or the default.
func (c *ConvertConfig) GetSaveTrackID() bool {
	if c.SaveTrackID == nil {
		return false
	}
	return *c.SaveTrackID
}

// GetTestMode returns the test_mode value or the default.
func (c *ConvertConfig) GetTestMode() bool {
	if c.TestMode == nil {
		return false
	}
	return *c.TestMode
}

// GetWorkers returns the workers value or the default.
func (c *ConvertConfig) GetWorkers() int {
	if c.Workers == nil {
		return 1 // default
	}
	return *c.Workers
}

// GetWriteImages returns the write_images value or the default.
func (c *ConvertConfig) GetWriteImages() bool {
	if c.WriteImages == nil {
		return true // default
	}
	return *c.WriteImages
}

// GetWritePCD returns the write_pcd value or the default.
func (c *ConvertConfig) GetWritePCD() bool {
	if c.WritePCD == nil {
		return false
	}
	return *c.WritePCD
}

// GetPreviewEvery returns the preview interval; 0 disables previews.
func (c *ConvertConfig) GetPreviewEvery() int {
	if c.PreviewEvery == nil {
		return 0
	}
	return *c.PreviewEvery
}

// GetManifestPath returns the manifest database path; empty disables it.
func (c *ConvertConfig) GetManifestPath() string {
	if c.ManifestPath == nil {
		return ""
	}
	return *c.ManifestPath
}

// GetReport returns the report value or the default.
func (c *ConvertConfig) GetReport() bool {
	if c.Report == nil {
		return true // default
	}
	return *c.Report
}

// GetLogFile returns the rotating log file path; empty disables it.
func (c *ConvertConfig) GetLogFile() string {
	if c.LogFile == nil {
		return ""
	}
	return *c.LogFile
}

// GetLogLevel returns the log level or "info".
func (c *ConvertConfig) GetLogLevel() string {
	if c.LogLevel == nil || *c.LogLevel == "" {
		return "info"
	}
	return *c.LogLevel
}

// Options freezes the config into the converter's construction options.
func (c *ConvertConfig) Options() convert.Options {
	return convert.Options{
		Labels: kitti.LabelOptions{
			Classes:          c.GetSelectedClasses(),
			FilterEmptyBoxes: c.GetFilterEmptyBoxes(),
			SaveTrackID:      c.GetSaveTrackID(),
		},
		Locations:    c.GetSelectedLocations(),
		TestMode:     c.GetTestMode(),
		Workers:      c.GetWorkers(),
		WriteImages:  c.GetWriteImages(),
		WritePCD:     c.GetWritePCD(),
		PreviewEvery: c.GetPreviewEvery(),
	}
}
