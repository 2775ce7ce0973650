package backend

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/rtm0/gribberish/internal/dataset"
	"github.com/rtm0/gribberish/internal/grib/gribtest"
)

type txtBackend struct{}

func (txtBackend) Open(context.Context, string, Options) (*dataset.Dataset, error) {
	return nil, errors.New("not implemented")
}

func (txtBackend) CanOpen(target any) bool {
	s, ok := target.(string)
	return ok && len(s) > 4 && s[len(s)-4:] == ".txt"
}

func TestRegistry(t *testing.T) {
	g := NewGRIB(nil, nil, gribtest.TwoVars())
	if err := Register("test-txt", txtBackend{}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := Register("test-grib", g); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := Register("test-grib", g); err == nil {
		t.Error("expected error registering a name twice")
	}
	if err := Register("", g); err == nil {
		t.Error("expected error for empty name")
	}

	b, err := Lookup("test-grib")
	if err != nil || b != Backend(g) {
		t.Errorf("Lookup = %v, %v", b, err)
	}
	if _, err := Lookup("netcdf"); !errors.Is(err, ErrNoBackend) {
		t.Errorf("Lookup(netcdf) err = %v", err)
	}

	name, _, err := Guess("hrrr.t00z.wrfsfcf00.grib2")
	if err != nil || name != "test-grib" {
		t.Errorf("Guess(grib2) = %q, %v", name, err)
	}
	name, _, err = Guess("notes.txt")
	if err != nil || name != "test-txt" {
		t.Errorf("Guess(txt) = %q, %v", name, err)
	}
	if _, _, err := Guess(123); !errors.Is(err, ErrNoBackend) {
		t.Errorf("Guess(123) err = %v", err)
	}

	names := Names()
	if i, j := slices.Index(names, "test-txt"), slices.Index(names, "test-grib"); i < 0 || j < i {
		t.Errorf("Names = %v", names)
	}
}
