// Package quicklook renders data variables as heat map images.
package quicklook

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"
	"slices"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/rtm0/gribberish/internal/dataset"
)

// ErrNoData is returned when every cell of the requested slice is missing.
var ErrNoData = errors.New("quicklook: no valid values")

// Options control the rendered image.
type Options struct {
	// TimeIndex selects the time step to draw.
	TimeIndex int
	Width     vg.Length
	Height    vg.Length
	// Format is any format accepted by plot.WriterTo. Defaults to "png".
	Format string
}

func (o Options) withDefaults() Options {
	if o.Width == 0 {
		o.Width = 8 * vg.Inch
	}
	if o.Height == 0 {
		o.Height = 5 * vg.Inch
	}
	if o.Format == "" {
		o.Format = "png"
	}
	return o
}

// grid exposes one time step of a [time lat lon] variable as plotter.GridXYZ.
type grid struct {
	lats, lons []float64
	values     []float64
}

func (g grid) Dims() (c, r int)   { return len(g.lons), len(g.lats) }
func (g grid) Z(c, r int) float64 { return g.values[r*len(g.lons)+c] }
func (g grid) X(c int) float64    { return g.lons[c] }
func (g grid) Y(r int) float64    { return g.lats[r] }

func newGrid(ds *dataset.Dataset, name string, t int) (grid, error) {
	v, ok := ds.Var(name)
	if !ok {
		return grid{}, fmt.Errorf("quicklook: unknown variable %q", name)
	}
	if !slices.Equal(v.Dims, []string{"time", "lat", "lon"}) {
		return grid{}, fmt.Errorf("quicklook: variable %q has dims %v", name, v.Dims)
	}
	lat, _ := ds.Coord("lat")
	lon, _ := ds.Coord("lon")
	if len(lat.Data) < 2 || len(lon.Data) < 2 {
		return grid{}, fmt.Errorf("quicklook: grid of %q is %dx%d, need at least 2x2", name, len(lat.Data), len(lon.Data))
	}
	if t < 0 || t >= ds.Size("time") {
		return grid{}, fmt.Errorf("quicklook: time index %d out of range", t)
	}
	n := len(lat.Data) * len(lon.Data)
	return grid{lats: lat.Data, lons: lon.Data, values: v.Data[t*n : (t+1)*n]}, nil
}

func valueRange(values []float64) (lo, hi float64, ok bool) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		lo, hi = min(lo, v), max(hi, v)
	}
	if math.IsInf(lo, 1) {
		return 0, 0, false
	}
	if lo == hi {
		hi = lo + 1
	}
	return lo, hi, true
}

// Plot builds a heat map of variable name over latitude and longitude.
func Plot(ds *dataset.Dataset, name string, t int) (*plot.Plot, error) {
	g, err := newGrid(ds, name, t)
	if err != nil {
		return nil, err
	}
	lo, hi, ok := valueRange(g.values)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoData, name)
	}

	v, _ := ds.Var(name)
	p := plot.New()
	p.Title.Text = name
	if ln := v.Attrs["long_name"]; ln != "" {
		p.Title.Text = fmt.Sprintf("%s (%s)", ln, name)
	}
	if units := v.Attrs["units"]; units != "" {
		p.Title.Text += " [" + units + "]"
	}
	if times := ds.Times(); t < len(times) {
		p.Title.Text += "\n" + times[t].Format("2006-01-02 15:04 MST")
	}
	p.X.Label.Text = "Longitude"
	p.Y.Label.Text = "Latitude"

	hm := plotter.NewHeatMap(g, palette.Heat(12, 1))
	hm.Min, hm.Max = lo, hi
	hm.NaN = color.Gray{Y: 200}
	p.Add(hm)
	return p, nil
}

// Write renders variable name of ds to w.
func Write(w io.Writer, ds *dataset.Dataset, name string, opts Options) error {
	opts = opts.withDefaults()
	p, err := Plot(ds, name, opts.TimeIndex)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(opts.Width, opts.Height, opts.Format)
	if err != nil {
		return fmt.Errorf("quicklook: create %s writer: %w", opts.Format, err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("quicklook: write %s: %w", opts.Format, err)
	}
	return nil
}
