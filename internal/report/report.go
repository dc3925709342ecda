// Package report renders the end-of-run HTML summary.
package report

import (
	"bytes"
	"fmt"
	"path/filepath"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/waymo-kitti/internal/convert"
	"github.com/banshee-data/waymo-kitti/internal/fsutil"
)

// FileName is the report file name under the dataset root.
const FileName = "report.html"

// Summary is what the report shows.
type Summary struct {
	RunID       string
	Source      string
	Destination string
	Stats       *convert.Stats
}

func classChart(s Summary) *charts.Bar {
	classes := s.Stats.Classes()
	y := make([]opts.BarData, 0, len(classes))
	for _, c := range classes {
		y = append(y, opts.BarData{Value: s.Stats.ObjectsByClass[c]})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "900px", Height: "480px"}),
		charts.WithTitleOpts(opts.Title{Title: "Objects written", Subtitle: fmt.Sprintf("total=%d", s.Stats.Objects())}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(classes).
		AddSeries("objects", y,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)
	return bar
}

func statusChart(s Summary) *charts.Bar {
	x := []string{string(convert.StatusOK), string(convert.StatusSkipped), string(convert.StatusFailed), "files failed"}
	y := []opts.BarData{
		{Value: s.Stats.FramesConverted},
		{Value: s.Stats.FramesSkipped},
		{Value: s.Stats.FramesFailed},
		{Value: s.Stats.FilesFailed},
	}

	subtitle := fmt.Sprintf("files=%d points=%d duration=%s", s.Stats.Files, s.Stats.Points, s.Stats.Duration.Round(time.Millisecond))
	if s.RunID != "" {
		subtitle = "run " + s.RunID + " " + subtitle
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "900px", Height: "480px"}),
		charts.WithTitleOpts(opts.Title{Title: "Frames", Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(x).
		AddSeries("frames", y,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)
	return bar
}

// Render returns the report page.
func Render(s Summary) ([]byte, error) {
	if s.Stats == nil {
		return nil, fmt.Errorf("report: no statistics")
	}

	page := components.NewPage()
	page.PageTitle = fmt.Sprintf("Conversion %s -> %s", s.Source, s.Destination)
	page.AddCharts(statusChart(s), classChart(s))

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}
	return buf.Bytes(), nil
}

// Write renders the report into dir/report.html and returns its path.
func Write(fsys fsutil.FileSystem, dir string, s Summary) (string, error) {
	html, err := Render(s)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, FileName)
	if err := fsutil.WriteFileAtomic(fsys, path, html, 0644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}
