package grib

import (
	"context"
	"time"
)

// Record is one decoded GRIB2 message.
type Record struct {
	Abbrev string
	Name   string
	Units  string

	ReferenceDate time.Time
	ForecastDate  time.Time

	// Values is indexed [lat][lon].
	Values     [][]float64
	Latitudes  []float64
	Longitudes []float64
}

// GridShape returns the (lat, lon) dimensions of the record's grid.
func (r *Record) GridShape() (int, int) {
	return len(r.Latitudes), len(r.Longitudes)
}

// Engine locates and decodes records inside a raw GRIB2 buffer. Both calls
// must treat buf as read-only; DecodeRecord must be idempotent.
type Engine interface {
	// ResolveIndex lists every variable found in buf. It fails with an error
	// matching ErrFormat when buf is not GRIB2.
	ResolveIndex(ctx context.Context, buf []byte) (*Index, error)
	// DecodeRecord decodes the record at loc.
	DecodeRecord(ctx context.Context, buf []byte, loc Locator) (*Record, error)
}

// ResolveIndex runs the engine's index resolution over buf. Errors are
// returned as the engine reported them.
func ResolveIndex(ctx context.Context, eng Engine, buf []byte) (*Index, error) {
	return eng.ResolveIndex(ctx, buf)
}
