// Package wgrib2 implements grib.Engine on top of the wgrib2 command line
// tool. The raw buffer is fed to wgrib2 on stdin; nothing is written to disk.
package wgrib2

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/rtm0/gribberish/internal/grib"
)

// DefaultBinary is the wgrib2 executable looked up in PATH.
const DefaultBinary = "wgrib2"

// Runner runs wgrib2 reading its input file from stdin and returns what it
// wrote to stdout.
type Runner func(ctx context.Context, stdin []byte, args ...string) ([]byte, error)

// Engine is a grib.Engine backed by wgrib2.
type Engine struct {
	logger *slog.Logger
	run    Runner
}

// New creates an engine running the given wgrib2 binary.
func New(logger *slog.Logger, binary string) *Engine {
	if binary == "" {
		binary = DefaultBinary
	}
	return NewWithRunner(logger, execRunner(binary))
}

// NewWithRunner creates an engine using run to invoke wgrib2.
func NewWithRunner(logger *slog.Logger, run Runner) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{logger: logger, run: run}
}

func execRunner(binary string) Runner {
	return func(ctx context.Context, stdin []byte, args ...string) ([]byte, error) {
		cmd := exec.CommandContext(ctx, binary, append([]string{"-"}, args...)...)
		cmd.Stdin = bytes.NewReader(stdin)
		var stderr bytes.Buffer
		cmd.Stderr = &stderr
		out, err := cmd.Output()
		if err != nil {
			if msg := strings.TrimSpace(stderr.String()); msg != "" {
				return nil, fmt.Errorf("wgrib2: %w: %s", err, msg)
			}
			return nil, fmt.Errorf("wgrib2: %w", err)
		}
		return out, nil
	}
}

// ResolveIndex implements grib.Engine. When several records share an
// abbreviation only the first one in file order is indexed.
func (e *Engine) ResolveIndex(ctx context.Context, buf []byte) (*grib.Index, error) {
	msgs, err := grib.Messages(buf)
	if err != nil {
		return nil, err
	}
	out, err := e.run(ctx, buf, "-v", "-s")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", grib.ErrFormat, err)
	}
	items, err := parseInventory(out)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", grib.ErrFormat, err)
	}

	idx := grib.NewIndex()
	for _, it := range items {
		if !idx.Add(it.Abbrev, grib.Locator{Record: it.Record, Offset: it.Offset}) {
			e.logger.Debug("Skipping duplicate variable", "var", it.Abbrev, "record", it.Record, "level", it.Level)
		}
	}
	e.logger.Debug("Resolved GRIB index", "messages", len(msgs), "records", len(items), "vars", idx.Len())
	return idx, nil
}

// DecodeRecord implements grib.Engine. Only regular lat/lon grids can be
// decoded.
func (e *Engine) DecodeRecord(ctx context.Context, buf []byte, loc grib.Locator) (*grib.Record, error) {
	out, err := e.run(ctx, buf, "-d", loc.Record, "-v", "-s")
	if err != nil {
		return nil, fmt.Errorf("%w: record %s: %w", grib.ErrRecord, loc.Record, err)
	}
	items, err := parseInventory(out)
	if err != nil {
		return nil, fmt.Errorf("%w: record %s: %w", grib.ErrRecord, loc.Record, err)
	}
	if len(items) != 1 {
		return nil, fmt.Errorf("%w: record %s: got %d inventory lines", grib.ErrRecord, loc.Record, len(items))
	}
	it := items[0]

	out, err = e.run(ctx, buf, "-d", loc.Record, "-inv", os.DevNull, "-csv", "-")
	if err != nil {
		return nil, fmt.Errorf("%w: record %s: %w", grib.ErrRecord, loc.Record, err)
	}
	g, err := parseGrid(out)
	if err != nil {
		return nil, fmt.Errorf("%w: record %s: %w", grib.ErrRecord, loc.Record, err)
	}
	if g.abbrev != it.Abbrev {
		return nil, fmt.Errorf("%w: record %s: inventory says %s, grid dump says %s", grib.ErrRecord, loc.Record, it.Abbrev, g.abbrev)
	}

	return &grib.Record{
		Abbrev:        it.Abbrev,
		Name:          it.Name,
		Units:         it.Units,
		ReferenceDate: g.reference,
		ForecastDate:  g.valid,
		Values:        g.values,
		Latitudes:     g.lats,
		Longitudes:    g.lons,
	}, nil
}

var _ grib.Engine = (*Engine)(nil)
