package dataset

import (
	"slices"
	"testing"
)

func TestScanner_Rows(t *testing.T) {
	ds := testDataset(t)
	s, err := NewScanner(ds)
	if err != nil {
		t.Fatalf("NewScanner failed: %v", err)
	}
	if got := s.Names(); !slices.Equal(got, []string{"HTSGW", "TMP"}) {
		t.Errorf("Names = %v", got)
	}
	if got := s.TotalRecCount(); got != 12 {
		t.Errorf("TotalRecCount = %d, want 12", got)
	}

	var rows [][]Record
	for s.Scan() {
		rows = append(rows, s.Records())
	}
	if len(rows) != 2 {
		t.Fatalf("scanned %d rows, want 2", len(rows))
	}

	last := rows[1][2]
	if last.Latitude != 42 || last.Longitude != -71 {
		t.Errorf("last record at (%v, %v)", last.Latitude, last.Longitude)
	}
	if last.Timestamp != 1599609600*1000 {
		t.Errorf("Timestamp = %d", last.Timestamp)
	}
	if !slices.Equal(last.Values, []float64{60, 6}) {
		t.Errorf("Values = %v, want [60 6]", last.Values)
	}
	if s.Records() != nil {
		t.Error("Records should transfer ownership")
	}
}

func TestScanner_RequiresPointDims(t *testing.T) {
	ds, err := New(map[string]Variable{
		"Z": {Dims: []string{"lat", "lon"}, Data: make([]float64, 6)},
	}, testCoords(), nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, err := NewScanner(ds); err == nil {
		t.Error("expected error for variable without time dimension")
	}
}

func TestScanner_MissingCoord(t *testing.T) {
	ds, err := New(nil, map[string]Variable{"lat": {Dims: []string{"lat"}, Data: []float64{1}}}, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, err := NewScanner(ds); err == nil {
		t.Error("expected error for missing lon coordinate")
	}
}
