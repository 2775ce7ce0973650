// Package grib turns the records of a GRIB2 file into a labeled dataset.
//
// Decoding individual records is delegated to an Engine. This package only
// discovers the variables present in a file, filters them, decodes the
// retained ones and aligns them onto shared (time, lat, lon) axes.
package grib

import (
	"errors"
	"slices"
)

var (
	// ErrFormat reports a buffer that is not a GRIB2 file.
	ErrFormat = errors.New("grib: unrecognized format")
	// ErrRecord reports a located record that failed to decode.
	ErrRecord = errors.New("grib: record decode failed")
	// ErrEmptyIndex reports that no variable is left to build a dataset from.
	ErrEmptyIndex = errors.New("grib: no variables to assemble")
)

// Locator tells an Engine where a variable's record lives in a buffer.
type Locator struct {
	// Record is the engine's record id, e.g. "3" or "3.2" for a submessage.
	Record string
	// Offset is the byte offset of the enclosing message.
	Offset int64
}

// Index is an ordered mapping from variable identifier to Locator.
// Identifiers are unique; the zero value is an empty index.
type Index struct {
	keys []string
	locs map[string]Locator
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{locs: make(map[string]Locator)}
}

// Add appends a variable. It reports false and keeps the existing entry when
// the identifier is already present.
func (x *Index) Add(name string, loc Locator) bool {
	if x.locs == nil {
		x.locs = make(map[string]Locator)
	}
	if _, ok := x.locs[name]; ok {
		return false
	}
	x.keys = append(x.keys, name)
	x.locs[name] = loc
	return true
}

// Get returns the locator of a variable.
func (x *Index) Get(name string) (Locator, bool) {
	loc, ok := x.locs[name]
	return loc, ok
}

// Len returns the number of variables.
func (x *Index) Len() int {
	return len(x.keys)
}

// Keys returns the identifiers in index order.
func (x *Index) Keys() []string {
	return slices.Clone(x.keys)
}

// Drop removes the named variables. Names that are not present are ignored.
func (x *Index) Drop(names ...string) {
	for _, name := range names {
		if _, ok := x.locs[name]; !ok {
			continue
		}
		delete(x.locs, name)
		x.keys = slices.DeleteFunc(x.keys, func(k string) bool { return k == name })
	}
}

// Representative returns the variable coordinates are derived from: the
// lexicographically smallest identifier.
func (x *Index) Representative() (string, Locator, bool) {
	if len(x.keys) == 0 {
		return "", Locator{}, false
	}
	name := slices.Min(x.keys)
	return name, x.locs[name], true
}
