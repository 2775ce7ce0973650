package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/rtm0/gribberish/backend"
	"github.com/rtm0/gribberish/internal/config"
	"github.com/rtm0/gribberish/internal/dataset"
	"github.com/rtm0/gribberish/internal/export"
	"github.com/rtm0/gribberish/internal/grib"
	"github.com/rtm0/gribberish/internal/quicklook"
	"github.com/rtm0/gribberish/internal/source"
	"github.com/rtm0/gribberish/internal/vm"
	"github.com/rtm0/gribberish/internal/wgrib2"
)

var defaults = config.Default()

var (
	file       = flag.String("file", "", "path or s3://bucket/key URL of a GRIB2 file")
	configPath = flag.String("config", "", "optional YAML configuration file")
	drop       = flag.StringSlice("drop", nil, "variables to leave out of the dataset")
	wgrib2Bin  = flag.String("wgrib2", defaults.Engine.Binary, "wgrib2 executable")
	logLevel   = flag.String("logLevel", defaults.Log.Level, "log level: debug, info, warn or error")

	netcdfOut       = flag.String("netcdf", "", "write the dataset to this NetCDF file")
	parquetOut      = flag.String("parquet", "", "write the dataset points to this Parquet file")
	parquetCompress = flag.String("parquetCompress", defaults.Export.ParquetCompression, "Parquet compression: none, snappy, gzip or zstd")
	jsonlOut        = flag.String("jsonl", "", "write the dataset points to this JSON Lines file")
	compress        = flag.String("compress", defaults.Export.Compression, "JSON Lines compression: none, gzip or zstd")
	pngOut          = flag.String("png", "", "write a heat map of --pngVar to this PNG file")
	pngVar          = flag.String("pngVar", "", "variable drawn by --png. Default: the first variable")
	describe        = flag.Bool("describe", false, "print a JSON summary of the dataset to stdout")

	vmInsertURL   = flag.String("vmInsertUrl", "", "Victoria Metrics insert API URL, e.g. http://localhost:8428/write for InfluxDB line protocol")
	concurrency   = flag.Int("concurrency", defaults.VM.Concurrency, "number of concurrent requests to Victoria Metrics")
	recsPerInsert = flag.Int("recsPerInsert", defaults.VM.RecsPerInsert, "number of records sent to VM in one batch")
	metricPrefix  = flag.String("metricPrefix", defaults.VM.MetricPrefix, "prefix of the metric names inserted into Victoria Metrics")
)

func main() {
	flag.Parse()

	cfg, err := loadConfig()
	if err != nil {
		slog.Error("Invalid configuration", "err", err)
		os.Exit(1)
	}
	level, _ := cfg.LogLevel()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if *file == "" {
		logger.Error("--file is required")
		os.Exit(1)
	}
	if !*describe && *netcdfOut == "" && *parquetOut == "" && *jsonlOut == "" && *pngOut == "" && cfg.VM.InsertURL == "" {
		logger.Error("Nothing to do: set at least one of --describe, --netcdf, --parquet, --jsonl, --png or --vmInsertUrl")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	loader := &source.Loader{}
	if source.IsS3(*file) {
		s3Cli, err := source.NewS3Client(ctx, cfg.S3)
		if err != nil {
			logger.Error("Could not create S3 client", "err", err)
			os.Exit(1)
		}
		loader.S3 = s3Cli
	}
	gribBackend := backend.NewGRIB(logger, loader, wgrib2.New(logger, cfg.Engine.Binary))
	if err := backend.Register("grib", gribBackend); err != nil {
		logger.Error("Could not register backend", "err", err)
		os.Exit(1)
	}
	if !gribBackend.CanOpen(*file) {
		logger.Warn("File does not have a GRIB extension, opening anyway", "file", *file, "extensions", grib.Extensions)
	}

	start := time.Now()
	ds, err := gribBackend.Open(ctx, *file, backend.Options{DropVariables: cfg.Export.DropVariables})
	if err != nil {
		logger.Error("Could not open GRIB file", "file", *file, "err", err)
		os.Exit(1)
	}
	logger.Info("Opened dataset", "file", *file, "vars", ds.DataVars(), "in", time.Since(start).Round(time.Millisecond))

	if err := writeOutputs(ds, cfg); err != nil {
		logger.Error("Could not export dataset", "err", err)
		os.Exit(1)
	}
	if cfg.VM.InsertURL != "" {
		if err := insert(ctx, logger, ds, cfg.VM); err != nil {
			logger.Error("Could not insert dataset into Victoria Metrics", "err", err)
			os.Exit(1)
		}
	}
}

// loadConfig reads the configuration file and applies the flags set on the
// command line on top of it.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return nil, err
	}
	set := func(name string, apply func()) {
		if flag.CommandLine.Changed(name) {
			apply()
		}
	}
	set("drop", func() { cfg.Export.DropVariables = *drop })
	set("wgrib2", func() { cfg.Engine.Binary = *wgrib2Bin })
	set("logLevel", func() { cfg.Log.Level = *logLevel })
	set("parquetCompress", func() { cfg.Export.ParquetCompression = *parquetCompress })
	set("compress", func() { cfg.Export.Compression = *compress })
	set("vmInsertUrl", func() { cfg.VM.InsertURL = *vmInsertURL })
	set("concurrency", func() { cfg.VM.Concurrency = *concurrency })
	set("recsPerInsert", func() { cfg.VM.RecsPerInsert = *recsPerInsert })
	set("metricPrefix", func() { cfg.VM.MetricPrefix = *metricPrefix })
	return cfg, cfg.Validate()
}

func writeOutputs(ds *dataset.Dataset, cfg *config.Config) error {
	if *describe {
		if err := export.WriteSummary(os.Stdout, ds); err != nil {
			return err
		}
	}
	if *netcdfOut != "" {
		if err := export.WriteNetCDF(*netcdfOut, ds); err != nil {
			return err
		}
	}
	if *parquetOut != "" {
		compression, err := export.ParseParquetCompression(cfg.Export.ParquetCompression)
		if err != nil {
			return err
		}
		if err := writeFile(*parquetOut, func(w io.Writer) error {
			return export.WriteParquet(w, ds, compression)
		}); err != nil {
			return err
		}
	}
	if *jsonlOut != "" {
		c, err := export.NewCompressor(cfg.Export.Compression)
		if err != nil {
			return err
		}
		if err := writeFile(*jsonlOut, func(w io.Writer) error {
			return export.WriteJSONL(w, ds, c)
		}); err != nil {
			return err
		}
	}
	if *pngOut != "" {
		name := *pngVar
		if name == "" {
			name = ds.DataVars()[0]
		}
		if err := writeFile(*pngOut, func(w io.Writer) error {
			return quicklook.Write(w, ds, name, quicklook.Options{})
		}); err != nil {
			return err
		}
	}
	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	return f.Close()
}

// insert streams the dataset points into Victoria Metrics.
func insert(ctx context.Context, logger *slog.Logger, ds *dataset.Dataset, cfg config.VMConfig) error {
	s, err := dataset.NewScanner(ds)
	if err != nil {
		return err
	}
	logger.Info("Dataset summary", s.Summary()...)

	vmCli, err := vm.NewClient(logger, cfg.InsertURL, cfg.Concurrency, cfg.MetricPrefix, s.Names())
	if err != nil {
		return fmt.Errorf("could not create new VM client: %w", err)
	}

	// The first failed insert cancels the scan and is returned.
	insertCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	var (
		errMu    sync.Mutex
		firstErr error
	)
	fail := func(err error) {
		errMu.Lock()
		defer errMu.Unlock()
		if firstErr == nil {
			firstErr = err
			cancel()
		}
	}

	recsCh := make(chan []dataset.Record)
	progressCh := make(chan int)
	var wg sync.WaitGroup
	for range cfg.Concurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for recs := range recsCh {
				n := len(recs)
				for begin := 0; begin < n && insertCtx.Err() == nil; begin += cfg.RecsPerInsert {
					limit := min(begin+cfg.RecsPerInsert, n)
					if err := vmCli.Insert(insertCtx, recs[begin:limit]); err != nil {
						logger.Error("Could not insert records", "err", err)
						fail(err)
					}
				}
				progressCh <- n * len(s.Names())
			}
		}()
	}
	progressDone := make(chan struct{})
	go func() {
		defer close(progressDone)
		var inserted, total float64
		total = float64(s.TotalRecCount())
		start := time.Now()
		for n := range progressCh {
			inserted += float64(n)
			percent := fmt.Sprintf("%.2f%%", 100*inserted/total)
			duration := time.Since(start).Round(1 * time.Second)
			logger.Info("progress", "inserted", percent, "in", duration)
		}
	}()
	for s.Scan() {
		select {
		case recsCh <- s.Records():
		case <-insertCtx.Done():
		}
		if insertCtx.Err() != nil {
			break
		}
	}
	close(recsCh)
	wg.Wait()
	close(progressCh)
	<-progressDone
	if firstErr != nil {
		return firstErr
	}
	return ctx.Err()
}
