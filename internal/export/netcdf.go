// Package export writes assembled datasets to files and streams.
package export

import (
	"fmt"
	"maps"
	"slices"

	"github.com/batchatco/go-native-netcdf/netcdf/api"
	"github.com/batchatco/go-native-netcdf/netcdf/cdf"
	"github.com/batchatco/go-native-netcdf/netcdf/util"

	"github.com/rtm0/gribberish/internal/dataset"
)

// WriteNetCDF writes ds to a NetCDF classic file at path. Coordinates
// become coordinate variables named after their dimension.
func WriteNetCDF(path string, ds *dataset.Dataset) error {
	cw, err := cdf.OpenWriter(path)
	if err != nil {
		return err
	}
	if err := addNetCDF(cw, ds); err != nil {
		_ = cw.Close()
		return err
	}
	return cw.Close()
}

func addNetCDF(cw *cdf.CDFWriter, ds *dataset.Dataset) error {
	for _, name := range ds.CoordNames() {
		c, _ := ds.Coord(name)
		if err := addVar(cw, ds, name, c); err != nil {
			return err
		}
	}
	for _, name := range ds.DataVars() {
		v, _ := ds.Var(name)
		if err := addVar(cw, ds, name, v); err != nil {
			return err
		}
	}
	attrs, err := attributeMap(ds.Attrs())
	if err != nil {
		return err
	}
	return cw.AddGlobalAttrs(attrs)
}

func addVar(cw *cdf.CDFWriter, ds *dataset.Dataset, name string, v dataset.Variable) error {
	values, err := nest(v.Data, ds.Shape(name))
	if err != nil {
		return fmt.Errorf("export: netcdf variable %q: %w", name, err)
	}
	attrs, err := attributeMap(v.Attrs)
	if err != nil {
		return err
	}
	if err := cw.AddVar(name, api.Variable{
		Values:     values,
		Dimensions: v.Dims,
		Attributes: attrs,
	}); err != nil {
		return fmt.Errorf("export: netcdf variable %q: %w", name, err)
	}
	return nil
}

// attributeMap converts string attributes to an ordered NetCDF attribute
// map. Empty values are left out.
func attributeMap(attrs map[string]string) (api.AttributeMap, error) {
	var keys []string
	vals := make(map[string]interface{}, len(attrs))
	for _, k := range slices.Sorted(maps.Keys(attrs)) {
		if attrs[k] == "" {
			continue
		}
		keys = append(keys, k)
		vals[k] = attrs[k]
	}
	return util.NewOrderedMap(keys, vals)
}

// nest reshapes flat row-major data into the nested slices the NetCDF
// writer expects.
func nest(data []float64, shape []int) (interface{}, error) {
	switch len(shape) {
	case 1:
		return data, nil
	case 2:
		return rows(data, shape[1]), nil
	case 3:
		planes := make([][][]float64, shape[0])
		n := shape[1] * shape[2]
		for i := range planes {
			planes[i] = rows(data[i*n:(i+1)*n], shape[2])
		}
		return planes, nil
	default:
		return nil, fmt.Errorf("%d dimensions are not supported", len(shape))
	}
}

func rows(data []float64, width int) [][]float64 {
	if width == 0 {
		return [][]float64{}
	}
	out := make([][]float64, len(data)/width)
	for i := range out {
		out[i] = data[i*width : (i+1)*width]
	}
	return out
}
