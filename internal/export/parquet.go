package export

import (
	"fmt"
	"io"
	"slices"

	"github.com/parquet-go/parquet-go"

	"github.com/rtm0/gribberish/internal/dataset"
)

// ParquetCompression specifies internal Parquet compression.
type ParquetCompression int

// Parquet compression options for internal file compression.
const (
	ParquetCompressionNone ParquetCompression = iota
	ParquetCompressionSnappy
	ParquetCompressionGzip
	ParquetCompressionZstd
)

// ParseParquetCompression maps a configuration name to a compression.
func ParseParquetCompression(name string) (ParquetCompression, error) {
	switch name {
	case "", "none":
		return ParquetCompressionNone, nil
	case "snappy":
		return ParquetCompressionSnappy, nil
	case "gzip":
		return ParquetCompressionGzip, nil
	case "zstd":
		return ParquetCompressionZstd, nil
	default:
		return 0, fmt.Errorf("export: unknown parquet compression %q", name)
	}
}

func (c ParquetCompression) option() parquet.WriterOption {
	switch c {
	case ParquetCompressionSnappy:
		return parquet.Compression(&parquet.Snappy)
	case ParquetCompressionGzip:
		return parquet.Compression(&parquet.Gzip)
	case ParquetCompressionZstd:
		return parquet.Compression(&parquet.Zstd)
	default:
		return parquet.Compression(&parquet.Uncompressed)
	}
}

// ParquetSchema returns the schema of WriteParquet output: a "time"
// timestamp, "lat" and "lon" doubles and one double column per data
// variable.
func ParquetSchema(ds *dataset.Dataset) *parquet.Schema {
	group := parquet.Group{
		"time": parquet.Timestamp(parquet.Nanosecond),
		"lat":  parquet.Leaf(parquet.DoubleType),
		"lon":  parquet.Leaf(parquet.DoubleType),
	}
	for _, name := range ds.DataVars() {
		group[name] = parquet.Leaf(parquet.DoubleType)
	}
	return parquet.NewSchema("point", group)
}

const (
	srcTime = -1 - iota
	srcLat
	srcLon
)

// WriteParquet writes one row per (time, lat, lon) point of ds.
func WriteParquet(w io.Writer, ds *dataset.Dataset, compression ParquetCompression) error {
	s, err := dataset.NewScanner(ds)
	if err != nil {
		return err
	}
	schema := ParquetSchema(ds)

	// Parquet orders columns by name; sources maps each column to its value.
	names := s.Names()
	sources := make([]int, len(schema.Fields()))
	for i, f := range schema.Fields() {
		switch f.Name() {
		case "time":
			sources[i] = srcTime
		case "lat":
			sources[i] = srcLat
		case "lon":
			sources[i] = srcLon
		default:
			sources[i] = slices.Index(names, f.Name())
		}
	}

	pw := parquet.NewWriter(w, schema, compression.option())
	for s.Scan() {
		recs := s.Records()
		rows := make([]parquet.Row, len(recs))
		for j, r := range recs {
			row := make(parquet.Row, len(sources))
			for i, src := range sources {
				var v parquet.Value
				switch src {
				case srcTime:
					v = parquet.Int64Value(r.Timestamp * 1e6)
				case srcLat:
					v = parquet.DoubleValue(r.Latitude)
				case srcLon:
					v = parquet.DoubleValue(r.Longitude)
				default:
					v = parquet.DoubleValue(r.Values[src])
				}
				row[i] = v.Level(0, 0, i)
			}
			rows[j] = row
		}
		if _, err := pw.WriteRows(rows); err != nil {
			_ = pw.Close()
			return fmt.Errorf("parquet: write rows: %w", err)
		}
	}
	if err := pw.Close(); err != nil {
		return fmt.Errorf("parquet: close writer: %w", err)
	}
	return nil
}
