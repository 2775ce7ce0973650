package export

import (
	"io"
	"math"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/rtm0/gribberish/internal/dataset"
)

var jsonCodec = jsoniter.ConfigCompatibleWithStandardLibrary

// WriteJSONL writes one JSON object per (time, lat, lon) point of ds:
//
//	{"time":"2020-09-09T05:00:00Z","lat":41,"lon":-72,"TMP":280.5}
//
// Missing values are written as null. The stream is compressed with c.
func WriteJSONL(w io.Writer, ds *dataset.Dataset, c Compressor) error {
	s, err := dataset.NewScanner(ds)
	if err != nil {
		return err
	}
	cw, err := c.Compress(w)
	if err != nil {
		return err
	}

	names := s.Names()
	enc := jsonCodec.NewEncoder(cw)
	for s.Scan() {
		for _, r := range s.Records() {
			record := make(map[string]any, len(names)+3)
			record["time"] = time.UnixMilli(r.Timestamp).UTC().Format(time.RFC3339)
			record["lat"] = r.Latitude
			record["lon"] = r.Longitude
			for i, name := range names {
				record[name] = finite(r.Values[i])
			}
			if err := enc.Encode(record); err != nil {
				_ = cw.Close()
				return err
			}
		}
	}
	return cw.Close()
}

// finite maps NaN and infinities to nil for formats without them.
func finite(v float64) any {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}
