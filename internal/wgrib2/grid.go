package wgrib2

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"
)

// undefined is the value wgrib2 writes for grid points masked by a bitmap.
const undefined = 9.999e20

const csvTime = "2006-01-02 15:04:05"

// grid is a record dumped with -csv, one line per point:
//
//	"2020-09-09 00:00:00","2020-09-09 05:00:00","TMP","2 m above ground",-72,41,280.5
type grid struct {
	reference time.Time
	valid     time.Time
	abbrev    string
	lats      []float64
	lons      []float64
	values    [][]float64
}

func parseGrid(out []byte) (*grid, error) {
	r := csv.NewReader(bytes.NewReader(out))
	r.FieldsPerRecord = 7
	r.ReuseRecord = true

	type point struct {
		row, col int
		v        float64
	}
	var (
		g      grid
		points []point
		rows   = map[float64]int{}
		cols   = map[float64]int{}
	)
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(points) == 0 {
			if g.reference, err = time.ParseInLocation(csvTime, rec[0], time.UTC); err != nil {
				return nil, err
			}
			if g.valid, err = time.ParseInLocation(csvTime, rec[1], time.UTC); err != nil {
				return nil, err
			}
			g.abbrev = rec[2]
		}
		lon, err := strconv.ParseFloat(rec[4], 64)
		if err != nil {
			return nil, err
		}
		lat, err := strconv.ParseFloat(rec[5], 64)
		if err != nil {
			return nil, err
		}
		v, err := strconv.ParseFloat(rec[6], 64)
		if err != nil {
			return nil, err
		}
		if v >= undefined {
			v = math.NaN()
		}
		row, ok := rows[lat]
		if !ok {
			row = len(g.lats)
			rows[lat] = row
			g.lats = append(g.lats, lat)
		}
		col, ok := cols[lon]
		if !ok {
			col = len(g.lons)
			cols[lon] = col
			g.lons = append(g.lons, lon)
		}
		points = append(points, point{row, col, v})
	}
	if len(points) == 0 {
		return nil, errors.New("no grid points")
	}
	if len(points) != len(g.lats)*len(g.lons) {
		return nil, fmt.Errorf("%d points do not form a regular %dx%d lat/lon grid", len(points), len(g.lats), len(g.lons))
	}

	g.values = make([][]float64, len(g.lats))
	seen := make([][]bool, len(g.lats))
	for i := range g.values {
		g.values[i] = make([]float64, len(g.lons))
		seen[i] = make([]bool, len(g.lons))
	}
	for _, p := range points {
		if seen[p.row][p.col] {
			return nil, fmt.Errorf("duplicate point at lat %v lon %v", g.lats[p.row], g.lons[p.col])
		}
		seen[p.row][p.col] = true
		g.values[p.row][p.col] = p.v
	}
	return &g, nil
}
