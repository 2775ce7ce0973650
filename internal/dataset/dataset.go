// Package dataset implements a small labeled-array container: named
// coordinate axes plus data variables defined over those axes.
package dataset

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"
)

// TimeUnits is the CF-style units attribute of time coordinates built by
// this module. Time values are stored as seconds since the Unix epoch.
const TimeUnits = "seconds since 1970-01-01 00:00:00"

var (
	// ErrShape reports data whose length does not match its dimensions.
	ErrShape = errors.New("dataset: shape mismatch")
	// ErrUnknownDim reports a data variable over a dimension that has no
	// coordinate.
	ErrUnknownDim = errors.New("dataset: unknown dimension")
)

// Variable is an n-dimensional array labeled by dimension names. Data is
// stored flat in row-major order.
type Variable struct {
	Dims  []string
	Data  []float64
	Attrs map[string]string
}

// Dataset pairs coordinate axes with the data variables defined over them.
// A Dataset is immutable once built; slices returned by its accessors must
// not be modified.
type Dataset struct {
	dims   []string
	sizes  map[string]int
	coords map[string]Variable
	vars   map[string]Variable
	attrs  map[string]string
}

// New builds a dataset from data variables, coordinates and global
// attributes. Coordinates must be one-dimensional; every dimension used by a
// data variable must be covered by a coordinate and agree in length.
func New(dataVars, coords map[string]Variable, attrs map[string]string) (*Dataset, error) {
	d := &Dataset{
		sizes:  make(map[string]int),
		coords: make(map[string]Variable, len(coords)),
		vars:   make(map[string]Variable, len(dataVars)),
		attrs:  maps.Clone(attrs),
	}
	if d.attrs == nil {
		d.attrs = map[string]string{}
	}

	for _, name := range slices.Sorted(maps.Keys(coords)) {
		c := coords[name]
		if len(c.Dims) != 1 {
			return nil, fmt.Errorf("%w: coordinate %q has %d dimensions, want 1", ErrShape, name, len(c.Dims))
		}
		dim := c.Dims[0]
		if n, ok := d.sizes[dim]; ok && n != len(c.Data) {
			return nil, fmt.Errorf("%w: coordinate %q has length %d, dimension %q has %d", ErrShape, name, len(c.Data), dim, n)
		}
		d.sizes[dim] = len(c.Data)
		d.coords[name] = own(c)
	}

	for _, name := range slices.Sorted(maps.Keys(dataVars)) {
		if _, ok := d.coords[name]; ok {
			return nil, fmt.Errorf("dataset: %q is both a coordinate and a data variable", name)
		}
		v := dataVars[name]
		want := 1
		for _, dim := range v.Dims {
			n, ok := d.sizes[dim]
			if !ok {
				return nil, fmt.Errorf("%w: variable %q uses dimension %q", ErrUnknownDim, name, dim)
			}
			want *= n
			if !slices.Contains(d.dims, dim) {
				d.dims = append(d.dims, dim)
			}
		}
		if len(v.Data) != want {
			return nil, fmt.Errorf("%w: variable %q has %d values, dimensions %v need %d", ErrShape, name, len(v.Data), v.Dims, want)
		}
		d.vars[name] = own(v)
	}

	// Dimensions only carried by coordinates go after the ones in use.
	for _, dim := range slices.Sorted(maps.Keys(d.sizes)) {
		if !slices.Contains(d.dims, dim) {
			d.dims = append(d.dims, dim)
		}
	}
	return d, nil
}

// own copies v including its data, so the caller keeps no reference into the
// dataset.
func own(v Variable) Variable {
	c := clone(v)
	c.Data = slices.Clone(v.Data)
	return c
}

// clone copies v but shares its data.
func clone(v Variable) Variable {
	return Variable{
		Dims:  slices.Clone(v.Dims),
		Data:  v.Data,
		Attrs: maps.Clone(v.Attrs),
	}
}

// Dims returns the dimension names, data variable dimensions first.
func (d *Dataset) Dims() []string {
	return slices.Clone(d.dims)
}

// Size returns the length of a dimension, or 0 if it is unknown.
func (d *Dataset) Size(dim string) int {
	return d.sizes[dim]
}

// CoordNames returns the coordinate names in lexical order.
func (d *Dataset) CoordNames() []string {
	return slices.Sorted(maps.Keys(d.coords))
}

// Coord returns a coordinate variable.
func (d *Dataset) Coord(name string) (Variable, bool) {
	c, ok := d.coords[name]
	if !ok {
		return Variable{}, false
	}
	return clone(c), true
}

// DataVars returns the data variable names in lexical order.
func (d *Dataset) DataVars() []string {
	return slices.Sorted(maps.Keys(d.vars))
}

// Var returns a data variable.
func (d *Dataset) Var(name string) (Variable, bool) {
	v, ok := d.vars[name]
	if !ok {
		return Variable{}, false
	}
	return clone(v), true
}

// Shape returns the dimension lengths of a data variable or coordinate.
func (d *Dataset) Shape(name string) []int {
	v, ok := d.vars[name]
	if !ok {
		v, ok = d.coords[name]
	}
	if !ok {
		return nil
	}
	shape := make([]int, len(v.Dims))
	for i, dim := range v.Dims {
		shape[i] = d.sizes[dim]
	}
	return shape
}

// At returns one element of a data variable. It panics when the variable is
// unknown or an index is out of range.
func (d *Dataset) At(name string, idx ...int) float64 {
	v, ok := d.vars[name]
	if !ok {
		panic(fmt.Sprintf("dataset: no variable %q", name))
	}
	if len(idx) != len(v.Dims) {
		panic(fmt.Sprintf("dataset: variable %q has %d dimensions, got %d indices", name, len(v.Dims), len(idx)))
	}
	off := 0
	for i, dim := range v.Dims {
		n := d.sizes[dim]
		if idx[i] < 0 || idx[i] >= n {
			panic(fmt.Sprintf("dataset: index %d out of range for dimension %q of length %d", idx[i], dim, n))
		}
		off = off*n + idx[i]
	}
	return v.Data[off]
}

// Attrs returns a copy of the global attributes.
func (d *Dataset) Attrs() map[string]string {
	return maps.Clone(d.attrs)
}

// Attr returns one global attribute.
func (d *Dataset) Attr(key string) string {
	return d.attrs[key]
}

// Times decodes the "time" coordinate. It returns nil when the dataset has no
// time coordinate in TimeUnits.
func (d *Dataset) Times() []time.Time {
	c, ok := d.coords["time"]
	if !ok || c.Attrs["units"] != TimeUnits {
		return nil
	}
	ts := make([]time.Time, len(c.Data))
	for i, s := range c.Data {
		ts[i] = time.Unix(int64(s), 0).UTC()
	}
	return ts
}
