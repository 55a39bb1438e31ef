// Package antex reads the satellite antenna blocks of ANTEX 1.4 files to look up satellite
// block types and SVN codes by PRN and date.
package antex

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/roman-kulish/gnss-reporting/internal/grc"
)

const (
	labelColumn = 60

	labelEndOfHeader    = "END OF HEADER"
	labelStartOfAntenna = "START OF ANTENNA"
	labelEndOfAntenna   = "END OF ANTENNA"
	labelTypeSerial     = "TYPE / SERIAL NO"
	labelValidFrom      = "VALID FROM"
	labelValidUntil     = "VALID UNTIL"
)

// ErrSatelliteNotFound is returned when no antenna block covers the satellite at the date.
var ErrSatelliteNotFound = errors.New("satellite not found")

// Satellite is one satellite antenna block.
type Satellite struct {
	Type       string    // block type, e.g. "BLOCK IIF"
	PRN        string    // e.g. "G01"
	SVN        string    // e.g. "G063"
	COSPAR     string    // e.g. "2011-036A"
	ValidFrom  time.Time
	ValidUntil time.Time // zero when still valid
}

// validAt reports whether the block is valid at t.
func (s Satellite) validAt(t time.Time) bool {
	if t.Before(s.ValidFrom) {
		return false
	}
	return s.ValidUntil.IsZero() || t.Before(s.ValidUntil)
}

// File holds the satellite antenna blocks of an ANTEX file, keyed by PRN.
type File struct {
	satellites map[string][]Satellite
}

// Open reads an ANTEX file.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	atx, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return atx, nil
}

// Parse reads ANTEX content. Receiver antenna blocks are ignored.
func Parse(r io.Reader) (*File, error) {
	atx := &File{satellites: make(map[string][]Satellite)}

	var (
		sat      *Satellite
		inHeader = true
		lineNo   int
	)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if len(line) < labelColumn {
			continue
		}
		label := strings.TrimSpace(line[labelColumn:])

		if inHeader {
			inHeader = label != labelEndOfHeader
			continue
		}

		switch label {
		case labelStartOfAntenna:
			sat = &Satellite{}

		case labelTypeSerial:
			if sat == nil {
				return nil, fmt.Errorf("line %d: %s outside antenna block", lineNo, label)
			}
			sat.Type = field(line, 0, 20)
			sat.PRN = field(line, 20, 40)
			sat.SVN = field(line, 40, 50)
			sat.COSPAR = field(line, 50, 60)

		case labelValidFrom, labelValidUntil:
			if sat == nil {
				return nil, fmt.Errorf("line %d: %s outside antenna block", lineNo, label)
			}
			t, err := parseEpoch(line[:labelColumn])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			if label == labelValidFrom {
				sat.ValidFrom = t
			} else {
				sat.ValidUntil = t
			}

		case labelEndOfAntenna:
			// satellite antennas have an SVN code, receiver antennas do not
			if sat != nil && sat.SVN != "" {
				atx.satellites[sat.PRN] = append(atx.satellites[sat.PRN], *sat)
			}
			sat = nil
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if inHeader {
		return nil, fmt.Errorf("missing %s", labelEndOfHeader)
	}
	return atx, nil
}

// Satellites returns the number of distinct PRNs read.
func (f *File) Satellites() int {
	return len(f.satellites)
}

// Lookup returns the antenna block of the satellite valid at date.
func (f *File) Lookup(prn string, date time.Time) (Satellite, error) {
	for _, sat := range f.satellites[prn] {
		if sat.validAt(date) {
			return sat, nil
		}
	}
	return Satellite{}, fmt.Errorf("%w: %s at %s", ErrSatelliteNotFound, prn, date.Format(time.DateOnly))
}

// SatelliteInfo implements grc.SatelliteInfoProvider.
func (f *File) SatelliteInfo(prn string, date time.Time) (grc.SatelliteInfo, error) {
	sat, err := f.Lookup(prn, date)
	if err != nil {
		return grc.SatelliteInfo{}, err
	}
	return grc.SatelliteInfo{Type: sat.Type, Code: sat.SVN}, nil
}

func field(line string, from, to int) string {
	if from >= len(line) {
		return ""
	}
	return strings.TrimSpace(line[from:min(to, len(line))])
}

// parseEpoch parses "year month day hour minute second" as written in VALID FROM/UNTIL records.
func parseEpoch(s string) (time.Time, error) {
	parts := strings.Fields(s)
	if len(parts) != 6 {
		return time.Time{}, fmt.Errorf("invalid epoch %q", strings.TrimSpace(s))
	}

	var ymdhm [5]int
	for i := range ymdhm {
		v, err := strconv.Atoi(parts[i])
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid epoch %q: %w", strings.TrimSpace(s), err)
		}
		ymdhm[i] = v
	}
	sec, err := strconv.ParseFloat(parts[5], 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid epoch %q: %w", strings.TrimSpace(s), err)
	}

	return time.Date(ymdhm[0], time.Month(ymdhm[1]), ymdhm[2], ymdhm[3], ymdhm[4], 0, 0, time.UTC).
		Add(time.Duration(sec * float64(time.Second))), nil
}
