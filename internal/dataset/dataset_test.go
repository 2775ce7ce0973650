package dataset

import (
	"errors"
	"slices"
	"testing"
	"time"
)

func testCoords() map[string]Variable {
	return map[string]Variable{
		"time": {Dims: []string{"time"}, Data: []float64{1599609600}, Attrs: map[string]string{"units": TimeUnits}},
		"lat":  {Dims: []string{"lat"}, Data: []float64{41, 42}},
		"lon":  {Dims: []string{"lon"}, Data: []float64{-72, -71.5, -71}},
	}
}

func testDataset(t *testing.T) *Dataset {
	t.Helper()
	ds, err := New(map[string]Variable{
		"TMP": {
			Dims:  []string{"time", "lat", "lon"},
			Data:  []float64{1, 2, 3, 4, 5, 6},
			Attrs: map[string]string{"units": "K"},
		},
		"HTSGW": {
			Dims: []string{"time", "lat", "lon"},
			Data: []float64{10, 20, 30, 40, 50, 60},
		},
	}, testCoords(), map[string]string{"meta": "test"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return ds
}

func TestNew_Accessors(t *testing.T) {
	ds := testDataset(t)

	if got := ds.Dims(); !slices.Equal(got, []string{"time", "lat", "lon"}) {
		t.Errorf("Dims = %v", got)
	}
	if got := ds.DataVars(); !slices.Equal(got, []string{"HTSGW", "TMP"}) {
		t.Errorf("DataVars = %v", got)
	}
	if got := ds.CoordNames(); !slices.Equal(got, []string{"lat", "lon", "time"}) {
		t.Errorf("CoordNames = %v", got)
	}
	if got := ds.Shape("TMP"); !slices.Equal(got, []int{1, 2, 3}) {
		t.Errorf("Shape(TMP) = %v", got)
	}
	if got := ds.Size("lon"); got != 3 {
		t.Errorf("Size(lon) = %d", got)
	}
	if got := ds.At("TMP", 0, 1, 2); got != 6 {
		t.Errorf("At(TMP, 0, 1, 2) = %v, want 6", got)
	}
	if got := ds.At("HTSGW", 0, 0, 1); got != 20 {
		t.Errorf("At(HTSGW, 0, 0, 1) = %v, want 20", got)
	}
	if got := ds.Attr("meta"); got != "test" {
		t.Errorf("Attr(meta) = %q", got)
	}
	v, ok := ds.Var("TMP")
	if !ok || v.Attrs["units"] != "K" {
		t.Errorf("Var(TMP) = %+v, %v", v, ok)
	}
	if _, ok := ds.Var("PRES"); ok {
		t.Error("Var(PRES) should not exist")
	}
}

func TestNew_Times(t *testing.T) {
	ds := testDataset(t)
	ts := ds.Times()
	if len(ts) != 1 {
		t.Fatalf("Times length = %d", len(ts))
	}
	want := time.Date(2020, 9, 9, 0, 0, 0, 0, time.UTC)
	if !ts[0].Equal(want) {
		t.Errorf("Times[0] = %v, want %v", ts[0], want)
	}
}

func TestNew_Immutable(t *testing.T) {
	attrs := map[string]string{"meta": "a"}
	ds, err := New(nil, testCoords(), attrs)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	attrs["meta"] = "b"
	ds.Attrs()["meta"] = "c"
	if got := ds.Attr("meta"); got != "a" {
		t.Errorf("Attr(meta) = %q, want a", got)
	}
}

func TestNew_CopiesData(t *testing.T) {
	lat := []float64{41, 42}
	tmp := []float64{1, 2, 3, 4, 5, 6}
	coords := testCoords()
	coords["lat"] = Variable{Dims: []string{"lat"}, Data: lat}
	ds, err := New(map[string]Variable{
		"TMP": {Dims: []string{"time", "lat", "lon"}, Data: tmp},
	}, coords, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	lat[0], tmp[0] = -999, -999

	c, _ := ds.Coord("lat")
	if !slices.Equal(c.Data, []float64{41, 42}) {
		t.Errorf("lat = %v, want [41 42]", c.Data)
	}
	v, _ := ds.Var("TMP")
	if !slices.Equal(v.Data, []float64{1, 2, 3, 4, 5, 6}) {
		t.Errorf("TMP = %v, want [1 2 3 4 5 6]", v.Data)
	}
}

func TestNew_Errors(t *testing.T) {
	tests := []struct {
		name     string
		dataVars map[string]Variable
		coords   map[string]Variable
		want     error
	}{
		{
			name:     "wrong length",
			dataVars: map[string]Variable{"TMP": {Dims: []string{"time", "lat", "lon"}, Data: []float64{1, 2}}},
			coords:   testCoords(),
			want:     ErrShape,
		},
		{
			name:     "unknown dim",
			dataVars: map[string]Variable{"TMP": {Dims: []string{"level"}, Data: []float64{1}}},
			coords:   testCoords(),
			want:     ErrUnknownDim,
		},
		{
			name:   "2d coordinate",
			coords: map[string]Variable{"lat": {Dims: []string{"y", "x"}, Data: []float64{1}}},
			want:   ErrShape,
		},
		{
			name: "conflicting coordinate lengths",
			coords: map[string]Variable{
				"lat":   {Dims: []string{"lat"}, Data: []float64{1, 2}},
				"lat_b": {Dims: []string{"lat"}, Data: []float64{1, 2, 3}},
			},
			want: ErrShape,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.dataVars, tt.coords, nil)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestNew_NameClash(t *testing.T) {
	_, err := New(map[string]Variable{"lat": {Dims: []string{"lat"}, Data: []float64{0, 0}}}, testCoords(), nil)
	if err == nil {
		t.Error("expected error for data variable named like a coordinate")
	}
}

func TestAt_PanicsOutOfRange(t *testing.T) {
	ds := testDataset(t)
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	ds.At("TMP", 0, 2, 0)
}
