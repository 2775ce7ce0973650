package wgrib2

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// item is one line of a verbose wgrib2 inventory:
//
//	1:0:D=2020090900:TMP Temperature [K]:2 m above ground:5 hour fcst:
type item struct {
	Record    string
	Offset    int64
	Reference time.Time
	Abbrev    string
	Name      string
	Units     string
	Level     string
	Forecast  string
}

var dateLayouts = map[int]string{
	10: "2006010215",
	12: "200601021504",
	14: "20060102150405",
}

func parseInventory(out []byte) ([]item, error) {
	var items []item
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		it, err := parseItem(line)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func parseItem(line string) (item, error) {
	f := strings.Split(line, ":")
	if len(f) < 6 {
		return item{}, fmt.Errorf("inventory line %q has %d fields", line, len(f))
	}
	offset, err := strconv.ParseInt(f[1], 10, 64)
	if err != nil {
		return item{}, fmt.Errorf("inventory line %q: offset: %w", line, err)
	}
	ref, err := parseDate(f[2])
	if err != nil {
		return item{}, fmt.Errorf("inventory line %q: %w", line, err)
	}
	abbrev, name, units := parseVar(f[3])
	if abbrev == "" {
		return item{}, fmt.Errorf("inventory line %q has no variable", line)
	}
	return item{
		Record:    f[0],
		Offset:    offset,
		Reference: ref,
		Abbrev:    abbrev,
		Name:      name,
		Units:     units,
		Level:     f[4],
		Forecast:  f[5],
	}, nil
}

// parseDate reads "d=2020090900" or the verbose "D=20200909000000".
func parseDate(s string) (time.Time, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "d="), "D=")
	layout, ok := dateLayouts[len(s)]
	if !ok {
		return time.Time{}, fmt.Errorf("unexpected date %q", s)
	}
	return time.ParseInLocation(layout, s, time.UTC)
}

// parseVar splits "TMP Temperature [K]" into abbreviation, name and units.
func parseVar(s string) (abbrev, name, units string) {
	s = strings.TrimSpace(s)
	abbrev, rest, _ := strings.Cut(s, " ")
	rest = strings.TrimSpace(rest)
	if i := strings.LastIndexByte(rest, '['); i >= 0 && strings.HasSuffix(rest, "]") {
		units = rest[i+1 : len(rest)-1]
		rest = strings.TrimSpace(rest[:i])
	}
	return abbrev, rest, units
}
