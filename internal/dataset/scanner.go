package dataset

import (
	"fmt"
	"slices"
)

// Scanner retrieves point records from a dataset one latitude row at a time.
// Every data variable must be defined over (time, lat, lon).
type Scanner struct {
	names []string
	ts    []int64
	la    []float64
	lo    []float64
	vars  [][]float64
	tPos  int
	laPos int
	recs  []Record
}

var pointDims = []string{"time", "lat", "lon"}

// NewScanner creates a new dataset point scanner.
func NewScanner(ds *Dataset) (*Scanner, error) {
	s := &Scanner{names: ds.DataVars()}
	var err error
	s.la, err = dimValues(ds, "lat")
	if err != nil {
		return nil, err
	}
	s.lo, err = dimValues(ds, "lon")
	if err != nil {
		return nil, err
	}
	secs, err := dimValues(ds, "time")
	if err != nil {
		return nil, err
	}
	s.ts = make([]int64, len(secs))
	for i, sec := range secs {
		s.ts[i] = int64(sec) * 1000
	}
	for _, name := range s.names {
		v, _ := ds.Var(name)
		if !slices.Equal(v.Dims, pointDims) {
			return nil, fmt.Errorf("dataset: variable %q has dimensions %v, want %v", name, v.Dims, pointDims)
		}
		s.vars = append(s.vars, v.Data)
	}
	return s, nil
}

func dimValues(ds *Dataset, dimName string) ([]float64, error) {
	c, ok := ds.Coord(dimName)
	if !ok {
		return nil, fmt.Errorf("%w: no %q coordinate", ErrUnknownDim, dimName)
	}
	return c.Data, nil
}

// Names returns the variable names in the order of Record.Values.
func (s *Scanner) Names() []string {
	return slices.Clone(s.names)
}

// Summary returns the summary information about the dataset suitable for
// logging.
func (s *Scanner) Summary() []any {
	return []any{
		"dims", pointDims,
		"metrics", s.names,
		"tsCnt", len(s.ts),
		"laCnt", len(s.la),
		"loCnt", len(s.lo),
		"totalRecCnt", s.TotalRecCount(),
	}
}

// TotalRecCount returns the total number of point values within the dataset.
func (s *Scanner) TotalRecCount() int {
	return len(s.ts) * len(s.la) * len(s.lo) * len(s.names)
}

// Scan reads all records for the next latitude row.
func (s *Scanner) Scan() bool {
	if s.tPos >= len(s.ts) || len(s.la) == 0 {
		return false
	}

	s.recs = make([]Record, len(s.lo))
	row := (s.tPos*len(s.la) + s.laPos) * len(s.lo)
	for j, lo := range s.lo {
		r := &s.recs[j]
		r.Timestamp = s.ts[s.tPos]
		r.Latitude = s.la[s.laPos]
		r.Longitude = lo
		r.Values = make([]float64, len(s.vars))
		for k, data := range s.vars {
			r.Values[k] = data[row+j]
		}
	}

	s.laPos++
	if s.laPos == len(s.la) {
		s.laPos = 0
		s.tPos++
	}
	return true
}

// Records returns the records that have been read by the last Scan() operation.
// The function transfers ownership of records to the caller and the subsequent
// calls to this function without prior invocation of Scan() will return nil.
func (s *Scanner) Records() []Record {
	recs := s.recs
	s.recs = nil
	return recs
}
