package wgrib2

import (
	"testing"
	"time"
)

func TestParseItem(t *testing.T) {
	tests := []struct {
		line string
		want item
	}{
		{
			line: "1:0:d=2020090900:HTSGW:surface:5 hour fcst:",
			want: item{Record: "1", Abbrev: "HTSGW", Level: "surface", Forecast: "5 hour fcst",
				Reference: time.Date(2020, 9, 9, 0, 0, 0, 0, time.UTC)},
		},
		{
			line: "3.2:5120:D=20200909061500:UGRD U-Component of Wind [m/s]:10 m above ground:anl:",
			want: item{Record: "3.2", Offset: 5120, Abbrev: "UGRD", Name: "U-Component of Wind", Units: "m/s",
				Level: "10 m above ground", Forecast: "anl", Reference: time.Date(2020, 9, 9, 6, 15, 0, 0, time.UTC)},
		},
		{
			line: "7:900:D=202009091200:var discipline=10 center=7 Unknown [-]:surface:anl:",
			want: item{Record: "7", Offset: 900, Abbrev: "var", Name: "discipline=10 center=7 Unknown", Units: "-",
				Level: "surface", Forecast: "anl", Reference: time.Date(2020, 9, 9, 12, 0, 0, 0, time.UTC)},
		},
	}

	for _, tt := range tests {
		got, err := parseItem(tt.line)
		if err != nil {
			t.Errorf("parseItem(%q) failed: %v", tt.line, err)
			continue
		}
		if !got.Reference.Equal(tt.want.Reference) {
			t.Errorf("parseItem(%q) reference = %v, want %v", tt.line, got.Reference, tt.want.Reference)
		}
		got.Reference, tt.want.Reference = time.Time{}, time.Time{}
		if got != tt.want {
			t.Errorf("parseItem(%q) = %+v, want %+v", tt.line, got, tt.want)
		}
	}
}

func TestParseItem_Errors(t *testing.T) {
	lines := []string{
		"1:0:d=2020090900",
		"1:x:d=2020090900:TMP:surface:anl:",
		"1:0:d=20200909:TMP:surface:anl:",
		"1:0:d=2020090900::surface:anl:",
	}
	for _, line := range lines {
		if _, err := parseItem(line); err == nil {
			t.Errorf("parseItem(%q) should fail", line)
		}
	}
}

func TestParseInventory_SkipsBlankLines(t *testing.T) {
	items, err := parseInventory([]byte("\n" + inventory + "\n\n"))
	if err != nil {
		t.Fatalf("parseInventory failed: %v", err)
	}
	if len(items) != 3 {
		t.Errorf("got %d items, want 3", len(items))
	}
}
