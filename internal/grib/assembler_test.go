package grib_test

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"testing"

	"github.com/rtm0/gribberish/internal/dataset"
	"github.com/rtm0/gribberish/internal/grib"
	"github.com/rtm0/gribberish/internal/grib/gribtest"
)

var buf = []byte("GRIB raw buffer")

func open(t *testing.T, eng grib.Engine, drop []string) (*dataset.Dataset, error) {
	t.Helper()
	return grib.NewAssembler(slog.Default(), eng).Open(context.Background(), buf, drop)
}

func TestAssemble_DropsBeforeDecoding(t *testing.T) {
	eng := gribtest.TwoVars()
	ds, err := open(t, eng, []string{"PRES"})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	if got := ds.DataVars(); !slices.Equal(got, []string{"TMP"}) {
		t.Errorf("DataVars = %v, want [TMP]", got)
	}
	if got := eng.Decoded(); !slices.Equal(got, []string{"1"}) {
		t.Errorf("decoded records %v, want only TMP's record 1", got)
	}
	lat, _ := ds.Coord("lat")
	if !slices.Equal(lat.Data, []float64{41, 42}) {
		t.Errorf("lat = %v", lat.Data)
	}
}

func TestAssemble_Axes(t *testing.T) {
	ds, err := open(t, gribtest.TwoVars(), nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	if got := ds.Dims(); !slices.Equal(got, []string{"time", "lat", "lon"}) {
		t.Errorf("Dims = %v", got)
	}
	if ds.Size("time") != 1 || ds.Size("lat") != 2 || ds.Size("lon") != 3 {
		t.Errorf("sizes time=%d lat=%d lon=%d", ds.Size("time"), ds.Size("lat"), ds.Size("lon"))
	}
	if ts := ds.Times(); len(ts) != 1 || !ts[0].Equal(gribtest.ValidTime) {
		t.Errorf("Times = %v, want [%v]", ts, gribtest.ValidTime)
	}
	for _, name := range ds.DataVars() {
		v, _ := ds.Var(name)
		if !slices.Equal(v.Dims, grib.Dims) {
			t.Errorf("%s dims = %v", name, v.Dims)
		}
	}
	if got := ds.At("PRES", 0, 1, 2); got != 101005 {
		t.Errorf("At(PRES, 0, 1, 2) = %v, want 101005", got)
	}
	if got := ds.Attr(grib.MetaAttr); got != grib.MetaValue {
		t.Errorf("meta = %q", got)
	}
}

func TestAssemble_MetadataPerVariable(t *testing.T) {
	ds, err := open(t, gribtest.TwoVars(), nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	want := map[string]map[string]string{
		"TMP":  {"standard_name": "TMP", "long_name": "Temperature", "units": "K"},
		"PRES": {"standard_name": "PRES", "long_name": "Pressure", "units": "Pa"},
	}
	for name, attrs := range want {
		v, ok := ds.Var(name)
		if !ok {
			t.Fatalf("missing variable %s", name)
		}
		if len(v.Attrs) != len(attrs) {
			t.Errorf("%s attrs = %v", name, v.Attrs)
		}
		for k, val := range attrs {
			if v.Attrs[k] != val {
				t.Errorf("%s %s = %q, want %q", name, k, v.Attrs[k], val)
			}
		}
	}
}

func TestAssemble_UnknownDropIsNoop(t *testing.T) {
	plain, err := open(t, gribtest.TwoVars(), nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	dropped, err := open(t, gribtest.TwoVars(), []string{"HGT"})
	if err != nil {
		t.Fatalf("Open with unknown drop failed: %v", err)
	}

	if !slices.Equal(plain.DataVars(), dropped.DataVars()) {
		t.Errorf("DataVars differ: %v vs %v", plain.DataVars(), dropped.DataVars())
	}
	for _, name := range plain.DataVars() {
		a, _ := plain.Var(name)
		b, _ := dropped.Var(name)
		if !slices.Equal(a.Data, b.Data) {
			t.Errorf("%s data differs", name)
		}
	}
}

func TestAssemble_EmptyIndex(t *testing.T) {
	tests := []struct {
		name string
		eng  *gribtest.Engine
		drop []string
	}{
		{"empty index", &gribtest.Engine{}, nil},
		{"all dropped", gribtest.TwoVars(), []string{"TMP", "PRES"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds, err := open(t, tt.eng, tt.drop)
			if !errors.Is(err, grib.ErrEmptyIndex) {
				t.Fatalf("expected ErrEmptyIndex, got %v", err)
			}
			if ds != nil {
				t.Error("no dataset should be returned")
			}
			if got := tt.eng.Decoded(); len(got) != 0 {
				t.Errorf("decoded %v on empty index", got)
			}
		})
	}
}

func TestAssemble_RepresentativeIsSmallestName(t *testing.T) {
	eng := gribtest.TwoVars()
	// PRES is on a different grid; it wins the tie-break over TMP.
	eng.Records["2"] = gribtest.NewRecord("PRES", "Pressure", "Pa", []float64{10, 20}, []float64{1, 2, 3}, 0)

	ds, err := open(t, eng, nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	lat, _ := ds.Coord("lat")
	if !slices.Equal(lat.Data, []float64{10, 20}) {
		t.Errorf("lat = %v, want PRES latitudes", lat.Data)
	}
}

func TestAssemble_ErrorsPropagateUnchanged(t *testing.T) {
	formatErr := errors.New("not a grib file")
	recordErr := errors.New("bad packing")

	t.Run("index", func(t *testing.T) {
		eng := &gribtest.Engine{IndexErr: formatErr}
		if _, err := open(t, eng, nil); err != formatErr {
			t.Errorf("expected %v, got %v", formatErr, err)
		}
	})

	t.Run("record", func(t *testing.T) {
		eng := gribtest.TwoVars()
		eng.DecodeErr = map[string]error{"2": recordErr}
		ds, err := open(t, eng, nil)
		if err != recordErr {
			t.Errorf("expected %v, got %v", recordErr, err)
		}
		if ds != nil {
			t.Error("no partial dataset should be returned")
		}
	})

	t.Run("dropped bad record", func(t *testing.T) {
		eng := gribtest.TwoVars()
		eng.DecodeErr = map[string]error{"2": recordErr}
		if _, err := open(t, eng, []string{"PRES"}); err != nil {
			t.Errorf("dropped record should not be decoded: %v", err)
		}
	})
}

func TestAssemble_GridMismatch(t *testing.T) {
	eng := gribtest.TwoVars()
	eng.Records["1"] = gribtest.NewRecord("TMP", "Temperature", "K", []float64{41}, []float64{-72, -71.5, -71}, 0)

	if _, err := open(t, eng, nil); !errors.Is(err, dataset.ErrShape) {
		t.Errorf("expected ErrShape, got %v", err)
	}
}

func TestAssemble_RaggedGrid(t *testing.T) {
	eng := gribtest.TwoVars()
	eng.Records["1"].Values[1] = []float64{1}

	if _, err := open(t, eng, nil); !errors.Is(err, grib.ErrRecord) {
		t.Errorf("expected ErrRecord, got %v", err)
	}
}
