// Package preview renders bird's-eye-view PNG snapshots of converted frames
// for spot-checking label placement against the point cloud.
package preview

import (
	"bytes"
	"fmt"
	"image/color"
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/waymo-kitti/internal/kitti"
	"github.com/banshee-data/waymo-kitti/internal/waymo"
)

// Options controls the rendered view.
type Options struct {
	Title   string
	Range   float64 // half-width of the square view in metres
	Size    vg.Length
	MaxDots int // point cloud is decimated to at most this many points
}

// DefaultOptions is an 8 inch, ±50 m view.
func DefaultOptions() Options {
	return Options{Range: 50, Size: 8 * vg.Inch, MaxDots: 20000}
}

var (
	pointColor = color.RGBA{R: 90, G: 90, B: 90, A: 255}
	classColor = map[waymo.LabelType]color.Color{
		waymo.TypeVehicle:    color.RGBA{R: 220, G: 40, B: 40, A: 255},
		waymo.TypePedestrian: color.RGBA{R: 30, G: 120, B: 220, A: 255},
		waymo.TypeCyclist:    color.RGBA{R: 30, G: 170, B: 60, A: 255},
		waymo.TypeSign:       color.RGBA{R: 230, G: 160, B: 0, A: 255},
	}
	unknownColor = color.RGBA{R: 150, G: 0, B: 150, A: 255}
)

// Footprint returns the four ground-plane corners of a box in the vehicle
// frame, counter-clockwise starting at front-left.
func Footprint(b waymo.Box) [4]r3.Vector {
	c, s := math.Cos(b.Heading), math.Sin(b.Heading)
	hl, hw := b.Length/2, b.Width/2
	local := [4][2]float64{{hl, hw}, {-hl, hw}, {-hl, -hw}, {hl, -hw}}

	var out [4]r3.Vector
	for i, p := range local {
		out[i] = r3.Vector{
			X: b.CenterX + c*p[0] - s*p[1],
			Y: b.CenterY + s*p[0] + c*p[1],
			Z: b.CenterZ - b.Height/2,
		}
	}
	return out
}

func decimate(pc *kitti.PointCloud, maxDots int) plotter.XYs {
	n := pc.Len()
	step := 1
	if maxDots > 0 && n > maxDots {
		step = (n + maxDots - 1) / maxDots
	}
	xys := make(plotter.XYs, 0, n/step+1)
	for i := 0; i < n; i += step {
		x, y, _, _ := pc.At(i)
		xys = append(xys, plotter.XY{X: float64(x), Y: float64(y)})
	}
	return xys
}

// Render draws the points and label footprints, vehicle frame, x up the
// page, and returns PNG bytes.
func Render(pc *kitti.PointCloud, labels []waymo.Label, opts Options) ([]byte, error) {
	if opts.Range <= 0 || opts.Size <= 0 {
		return nil, fmt.Errorf("preview: invalid view range %v or size %v", opts.Range, opts.Size)
	}

	p := plot.New()
	p.Title.Text = opts.Title
	p.X.Label.Text = "Left (m)"
	p.Y.Label.Text = "Forward (m)"
	p.X.Min, p.X.Max = -opts.Range, opts.Range
	p.Y.Min, p.Y.Max = -opts.Range, opts.Range

	// Plot x is -y (left is negative on screen right) so forward is up.
	if pc != nil && pc.Len() > 0 {
		pts := decimate(pc, opts.MaxDots)
		for i := range pts {
			pts[i].X, pts[i].Y = -pts[i].Y, pts[i].X
		}
		scatter, err := plotter.NewScatter(pts)
		if err != nil {
			return nil, fmt.Errorf("preview points: %w", err)
		}
		scatter.GlyphStyle.Color = pointColor
		scatter.GlyphStyle.Radius = vg.Points(0.4)
		p.Add(scatter)
	}

	for _, l := range labels {
		corners := Footprint(l.Box)
		xys := make(plotter.XYs, len(corners))
		for i, c := range corners {
			xys[i] = plotter.XY{X: -c.Y, Y: c.X}
		}
		poly, err := plotter.NewPolygon(xys)
		if err != nil {
			return nil, fmt.Errorf("preview label %s: %w", l.ID, err)
		}
		col, ok := classColor[l.Type]
		if !ok {
			col = unknownColor
		}
		poly.Color = nil
		poly.LineStyle.Color = col
		poly.LineStyle.Width = vg.Points(1)
		p.Add(poly)
	}

	wt, err := p.WriterTo(opts.Size, opts.Size, "png")
	if err != nil {
		return nil, fmt.Errorf("preview canvas: %w", err)
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("preview encode: %w", err)
	}
	return buf.Bytes(), nil
}
