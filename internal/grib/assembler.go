package grib

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rtm0/gribberish/internal/dataset"
)

// Provenance attribute attached to every assembled dataset.
const (
	MetaAttr  = "meta"
	MetaValue = "created with gribberish"
)

// Dimension names of assembled variables, in order.
var Dims = []string{"time", "lat", "lon"}

// Assembler builds datasets out of the records an Engine decodes.
type Assembler struct {
	logger *slog.Logger
	engine Engine
}

// NewAssembler creates a new assembler on top of engine. A nil logger
// means slog.Default().
func NewAssembler(logger *slog.Logger, engine Engine) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{logger: logger, engine: engine}
}

// Open resolves the variable index of buf and assembles it, skipping the
// variables named in drop.
func (a *Assembler) Open(ctx context.Context, buf []byte, drop []string) (*dataset.Dataset, error) {
	idx, err := ResolveIndex(ctx, a.engine, buf)
	if err != nil {
		return nil, err
	}
	return a.Assemble(ctx, buf, idx, drop)
}

// Assemble decodes every variable of idx not named in drop and aligns them on
// the (time, lat, lon) axes of the representative record (see
// Index.Representative). Dropped variables are removed from idx before any
// record is decoded. Engine errors are returned unchanged and no partial
// dataset is ever produced.
func (a *Assembler) Assemble(ctx context.Context, buf []byte, idx *Index, drop []string) (*dataset.Dataset, error) {
	idx.Drop(drop...)
	coordName, _, ok := idx.Representative()
	if !ok {
		return nil, ErrEmptyIndex
	}

	dataVars := make(map[string]dataset.Variable, idx.Len())
	var coordRec *Record
	for _, name := range idx.Keys() {
		loc, _ := idx.Get(name)
		rec, err := a.engine.DecodeRecord(ctx, buf, loc)
		if err != nil {
			return nil, err
		}
		v, err := variable(rec)
		if err != nil {
			return nil, fmt.Errorf("grib: variable %q: %w", name, err)
		}
		dataVars[name] = v
		// Decoding is idempotent, so the representative is not decoded twice.
		if name == coordName {
			coordRec = rec
		}
	}

	ds, err := dataset.New(dataVars, coordinates(coordRec), map[string]string{MetaAttr: MetaValue})
	if err != nil {
		return nil, err
	}
	nlat, nlon := coordRec.GridShape()
	a.logger.Debug("assembled dataset", "vars", ds.DataVars(), "coordsFrom", coordName,
		"time", coordRec.ForecastDate, "laCnt", nlat, "loCnt", nlon)
	return ds, nil
}

// variable projects a record onto (time, lat, lon) using the record's own
// metadata.
func variable(rec *Record) (dataset.Variable, error) {
	var data []float64
	for i, row := range rec.Values {
		if len(row) != len(rec.Values[0]) {
			return dataset.Variable{}, fmt.Errorf("%w: row %d has %d values, row 0 has %d", ErrRecord, i, len(row), len(rec.Values[0]))
		}
		data = append(data, row...)
	}
	return dataset.Variable{
		Dims: Dims,
		Data: data,
		Attrs: map[string]string{
			"standard_name": rec.Abbrev,
			"long_name":     rec.Name,
			"units":         rec.Units,
		},
	}, nil
}

func coordinates(rec *Record) map[string]dataset.Variable {
	return map[string]dataset.Variable{
		"time": {
			Dims:  []string{"time"},
			Data:  []float64{float64(rec.ForecastDate.Unix())},
			Attrs: map[string]string{"standard_name": "time", "units": dataset.TimeUnits},
		},
		"lat": {
			Dims:  []string{"lat"},
			Data:  rec.Latitudes,
			Attrs: map[string]string{"standard_name": "latitude", "units": "degrees_north"},
		},
		"lon": {
			Dims:  []string{"lon"},
			Data:  rec.Longitudes,
			Attrs: map[string]string{"standard_name": "longitude", "units": "degrees_east"},
		},
	}
}
