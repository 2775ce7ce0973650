// Package backend exposes dataset readers behind a common interface so that
// hosts can discover which one opens a given file.
package backend

import (
	"context"
	"log/slog"

	"github.com/rtm0/gribberish/internal/dataset"
	"github.com/rtm0/gribberish/internal/grib"
	"github.com/rtm0/gribberish/internal/source"
)

// Options are passed to Backend.Open.
type Options struct {
	// DropVariables are left out of the dataset. Unknown names are ignored.
	DropVariables []string
}

// Backend opens files as labeled datasets.
type Backend interface {
	// Open reads path and returns the dataset it holds.
	Open(ctx context.Context, path string, opts Options) (*dataset.Dataset, error)
	// CanOpen reports whether target looks like a file the backend reads.
	// It never fails; unusable targets yield false.
	CanOpen(target any) bool
}

// GRIB opens GRIB2 files.
type GRIB struct {
	logger    *slog.Logger
	loader    *source.Loader
	assembler *grib.Assembler
}

// NewGRIB creates a GRIB2 backend reading files through loader and decoding
// records with engine.
func NewGRIB(logger *slog.Logger, loader *source.Loader, engine grib.Engine) *GRIB {
	if logger == nil {
		logger = slog.Default()
	}
	if loader == nil {
		loader = &source.Loader{}
	}
	return &GRIB{
		logger:    logger,
		loader:    loader,
		assembler: grib.NewAssembler(logger, engine),
	}
}

// Open implements Backend.
func (g *GRIB) Open(ctx context.Context, path string, opts Options) (*dataset.Dataset, error) {
	buf, err := g.loader.Load(ctx, path)
	if err != nil {
		return nil, err
	}
	g.logger.Debug("loaded file", "path", path, "bytes", len(buf))

	return g.assembler.Open(ctx, buf, opts.DropVariables)
}

// CanOpen implements Backend.
func (g *GRIB) CanOpen(target any) bool {
	return grib.CanOpen(target)
}

var _ Backend = (*GRIB)(nil)
