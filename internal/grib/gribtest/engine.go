// Package gribtest provides an in-memory grib.Engine for tests.
package gribtest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rtm0/gribberish/internal/grib"
)

// Engine is a grib.Engine serving canned records. Records are keyed by
// locator record id.
type Engine struct {
	// Vars lists the (name, record id) pairs ResolveIndex returns, in order.
	Vars [][2]string
	// Records holds the record returned for each record id.
	Records map[string]*grib.Record
	// IndexErr, when set, is returned by ResolveIndex.
	IndexErr error
	// DecodeErr, when set for a record id, is returned by DecodeRecord.
	DecodeErr map[string]error

	mu      sync.Mutex
	decoded []string
}

// ResolveIndex implements grib.Engine.
func (e *Engine) ResolveIndex(_ context.Context, _ []byte) (*grib.Index, error) {
	if e.IndexErr != nil {
		return nil, e.IndexErr
	}
	idx := grib.NewIndex()
	for i, v := range e.Vars {
		idx.Add(v[0], grib.Locator{Record: v[1], Offset: int64(i) * 1000})
	}
	return idx, nil
}

// DecodeRecord implements grib.Engine.
func (e *Engine) DecodeRecord(_ context.Context, _ []byte, loc grib.Locator) (*grib.Record, error) {
	e.mu.Lock()
	e.decoded = append(e.decoded, loc.Record)
	e.mu.Unlock()

	if err := e.DecodeErr[loc.Record]; err != nil {
		return nil, err
	}
	rec, ok := e.Records[loc.Record]
	if !ok {
		return nil, fmt.Errorf("%w: no record %q", grib.ErrRecord, loc.Record)
	}
	return rec, nil
}

// Decoded returns the record ids decoded so far, in call order.
func (e *Engine) Decoded() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.decoded...)
}

// ValidTime is the forecast date of records built by NewRecord.
var ValidTime = time.Date(2020, 9, 9, 5, 0, 0, 0, time.UTC)

// NewRecord builds a record over a regular lat/lon grid whose values are
// base + row*len(lons) + col.
func NewRecord(abbrev, name, units string, lats, lons []float64, base float64) *grib.Record {
	values := make([][]float64, len(lats))
	for i := range lats {
		values[i] = make([]float64, len(lons))
		for j := range lons {
			values[i][j] = base + float64(i*len(lons)+j)
		}
	}
	return &grib.Record{
		Abbrev:        abbrev,
		Name:          name,
		Units:         units,
		ReferenceDate: ValidTime.Add(-5 * time.Hour),
		ForecastDate:  ValidTime,
		Values:        values,
		Latitudes:     lats,
		Longitudes:    lons,
	}
}

// TwoVars returns an engine serving TMP (record "1") and PRES (record "2")
// over a 2x3 grid.
func TwoVars() *Engine {
	lats := []float64{41, 42}
	lons := []float64{-72, -71.5, -71}
	return &Engine{
		Vars: [][2]string{{"TMP", "1"}, {"PRES", "2"}},
		Records: map[string]*grib.Record{
			"1": NewRecord("TMP", "Temperature", "K", lats, lons, 280),
			"2": NewRecord("PRES", "Pressure", "Pa", lats, lons, 101000),
		},
	}
}
