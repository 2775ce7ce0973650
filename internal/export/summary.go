package export

import (
	"io"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/rtm0/gribberish/internal/dataset"
)

// Summary describes a dataset without its values.
type Summary struct {
	Dims   map[string]int             `json:"dims"`
	Times  []time.Time                `json:"times,omitempty"`
	Coords map[string]CoordSummary    `json:"coords"`
	Vars   map[string]VariableSummary `json:"data_vars"`
	Attrs  map[string]string          `json:"attrs"`
}

// CoordSummary describes one coordinate.
type CoordSummary struct {
	Len   int      `json:"len"`
	Min   *float64 `json:"min,omitempty"`
	Max   *float64 `json:"max,omitempty"`
	Units string   `json:"units,omitempty"`
}

// VariableSummary describes one data variable. Statistics skip missing
// values, NaN or infinite, and are absent when every value is missing.
type VariableSummary struct {
	Dims     []string `json:"dims"`
	LongName string   `json:"long_name,omitempty"`
	Units    string   `json:"units,omitempty"`
	Min      *float64 `json:"min,omitempty"`
	Max      *float64 `json:"max,omitempty"`
	Mean     *float64 `json:"mean,omitempty"`
	Missing  int      `json:"missing"`
}

// Describe summarizes ds.
func Describe(ds *dataset.Dataset) Summary {
	s := Summary{
		Dims:   make(map[string]int),
		Times:  ds.Times(),
		Coords: make(map[string]CoordSummary),
		Vars:   make(map[string]VariableSummary),
		Attrs:  ds.Attrs(),
	}
	for _, dim := range ds.Dims() {
		s.Dims[dim] = ds.Size(dim)
	}
	for _, name := range ds.CoordNames() {
		c, _ := ds.Coord(name)
		cs := CoordSummary{Len: len(c.Data), Units: c.Attrs["units"]}
		if len(c.Data) > 0 {
			cs.Min, cs.Max = ptr(floats.Min(c.Data)), ptr(floats.Max(c.Data))
		}
		s.Coords[name] = cs
	}
	for _, name := range ds.DataVars() {
		v, _ := ds.Var(name)
		vs := VariableSummary{Dims: v.Dims, LongName: v.Attrs["long_name"], Units: v.Attrs["units"]}
		valid := make([]float64, 0, len(v.Data))
		for _, x := range v.Data {
			if math.IsNaN(x) || math.IsInf(x, 0) {
				vs.Missing++
				continue
			}
			valid = append(valid, x)
		}
		if len(valid) > 0 {
			vs.Min, vs.Max = ptr(floats.Min(valid)), ptr(floats.Max(valid))
			vs.Mean = ptr(stat.Mean(valid, nil))
		}
		s.Vars[name] = vs
	}
	return s
}

func ptr(v float64) *float64 {
	return &v
}

// WriteSummary writes the indented JSON summary of ds.
func WriteSummary(w io.Writer, ds *dataset.Dataset) error {
	b, err := jsonCodec.MarshalIndent(Describe(ds), "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	_, err = w.Write(b)
	return err
}
