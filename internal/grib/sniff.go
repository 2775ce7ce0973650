package grib

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
)

// Extensions are the file extensions CanOpen accepts.
var Extensions = []string{".grib", ".grib2"}

// CanOpen reports whether target names a GRIB file by its extension. It
// accepts strings, byte slices and values with a Name method such as
// *os.File; anything else cannot be opened. CanOpen never touches the file.
func CanOpen(target any) bool {
	var p string
	switch v := target.(type) {
	case string:
		p = v
	case []byte:
		p = string(v)
	case interface{ Name() string }:
		p = v.Name()
	default:
		return false
	}
	return slices.Contains(Extensions, ext(p))
}

// ext returns the extension of the last path element. Leading dots belong to
// the name, so ".grib2" has no extension.
func ext(p string) string {
	base := p[strings.LastIndexAny(p, "/"+string(filepath.Separator))+1:]
	name := strings.TrimLeft(base, ".")
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return ""
	}
	return name[i:]
}

// Discipline is the GRIB2 discipline code of a message.
type Discipline uint8

// Disciplines of GRIB2 code table 0.0.
const (
	Meteorological Discipline = 0
	Hydrological   Discipline = 1
	LandSurface    Discipline = 2
	Space          Discipline = 3
	Oceanographic  Discipline = 10
	Missing        Discipline = 255
)

func (d Discipline) String() string {
	switch d {
	case Meteorological:
		return "meteorological"
	case Hydrological:
		return "hydrological"
	case LandSurface:
		return "land surface"
	case Space:
		return "space"
	case Oceanographic:
		return "oceanographic"
	case Missing:
		return "missing"
	default:
		return fmt.Sprintf("discipline(%d)", uint8(d))
	}
}

const (
	indicatorLen = 16
	edition2     = 2
)

var (
	magic     = []byte("GRIB")
	endMarker = []byte("7777")
)

// Indicator is the fixed 16 byte section opening every GRIB2 message.
type Indicator struct {
	Discipline Discipline
	Edition    uint8
	Length     uint64
}

// ReadIndicator parses the indicator section at the start of buf.
func ReadIndicator(buf []byte) (Indicator, error) {
	if len(buf) < indicatorLen || !bytes.Equal(buf[:4], magic) {
		return Indicator{}, fmt.Errorf("%w: missing GRIB indicator", ErrFormat)
	}
	ind := Indicator{
		Discipline: Discipline(buf[6]),
		Edition:    buf[7],
		Length:     binary.BigEndian.Uint64(buf[8:16]),
	}
	if ind.Edition != edition2 {
		return Indicator{}, fmt.Errorf("%w: GRIB edition %d", ErrFormat, ind.Edition)
	}
	return ind, nil
}

// Message is the position of one GRIB2 message inside a buffer.
type Message struct {
	Offset int64
	Indicator
}

// Messages walks the indicator sections of buf. Bytes between messages are
// skipped. It fails with ErrFormat when buf holds no message or a message is
// truncated.
func Messages(buf []byte) ([]Message, error) {
	var msgs []Message
	pos := 0
	for {
		i := bytes.Index(buf[pos:], magic)
		if i < 0 {
			break
		}
		pos += i
		ind, err := ReadIndicator(buf[pos:])
		if err != nil {
			return nil, fmt.Errorf("message at offset %d: %w", pos, err)
		}
		if ind.Length < indicatorLen+uint64(len(endMarker)) || ind.Length > uint64(len(buf)-pos) {
			return nil, fmt.Errorf("%w: message at offset %d has length %d, buffer has %d bytes", ErrFormat, pos, ind.Length, len(buf))
		}
		// end > pos always holds here, so the walk only moves forward.
		end := uint64(pos) + ind.Length
		if !bytes.Equal(buf[end-4:end], endMarker) {
			return nil, fmt.Errorf("%w: message at offset %d is not terminated", ErrFormat, pos)
		}
		msgs = append(msgs, Message{Offset: int64(pos), Indicator: ind})
		pos = int(end)
	}
	if len(msgs) == 0 {
		return nil, fmt.Errorf("%w: no GRIB message found", ErrFormat)
	}
	return msgs, nil
}
