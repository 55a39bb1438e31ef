package grc

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrUnknownConstellation = errors.New("unknown constellation")
	ErrUnknownKPI           = errors.New("unknown KPI")
)

// SatelliteInfo is the satellite metadata valid at a given date.
type SatelliteInfo struct {
	// Type is the satellite block type, e.g. "BLOCK IIF" or "GALILEO-2".
	Type string

	// Code is the short SVN code, e.g. "G063" or "E203".
	Code string
}

// SatelliteInfoProvider looks up satellite metadata by PRN (e.g. "G01", "E11") and date.
type SatelliteInfoProvider interface {
	SatelliteInfo(satellite string, date time.Time) (SatelliteInfo, error)
}

// SatelliteInfoFunc adapts a function to SatelliteInfoProvider.
type SatelliteInfoFunc func(satellite string, date time.Time) (SatelliteInfo, error)

func (f SatelliteInfoFunc) SatelliteInfo(satellite string, date time.Time) (SatelliteInfo, error) {
	return f(satellite, date)
}

// RowOption configures optional row fields.
type RowOption func(*rowConfig)

type rowConfig struct {
	station   string
	satellite string
	provider  SatelliteInfoProvider
}

// WithStation sets the station code, e.g. "nabd".
func WithStation(station string) RowOption {
	return func(c *rowConfig) {
		c.station = station
	}
}

// WithSatellite sets the satellite PRN; batch, SVN and slot are resolved through the provider.
func WithSatellite(satellite string, provider SatelliteInfoProvider) RowOption {
	return func(c *rowConfig) {
		c.satellite = satellite
		c.provider = provider
	}
}

// FormatRow builds one GRC report row aligned with Header().
//
// Parameters:
//   - constellation: constellation name, "Galileo" or "GPS"
//   - kpi: KPI name, e.g. "hpe", "sisre_sat"
//   - mode: signal mode, e.g. "e1" or "e1e5b"; unknown modes are written as given
//   - date: month and year, e.g. "July-2021"
//   - result: KPI value, written with 5 decimals
//
// Returns:
//   - ErrUnknownConstellation or ErrUnknownKPI when there is no business service for the pair
//   - an error if the date cannot be parsed or the satellite lookup fails
func FormatRow(constellation, kpi, mode, date string, result float64, opts ...RowOption) ([]string, error) {
	cfg := rowConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	services, ok := businessServices[constellation]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownConstellation, constellation)
	}
	business, ok := services[kpi]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKPI, kpi)
	}

	var batch, svn, slot string
	if cfg.satellite != "" {
		if cfg.provider == nil {
			return nil, fmt.Errorf("satellite %s: no satellite info provider", cfg.satellite)
		}

		usedDate, err := ParseMonthYear(date)
		if err != nil {
			return nil, err
		}
		info, err := cfg.provider.SatelliteInfo(cfg.satellite, usedDate)
		if err != nil {
			return nil, fmt.Errorf("satellite %s: %w", cfg.satellite, err)
		}

		batch = Batch(info.Type)
		svn = SVNFromSatCode(info.Code)
		slot = Slot(svn)
	}

	return []string{
		constellation,
		serviceLine,
		categories[kpi],
		business,
		batch,
		svn,
		cfg.satellite,
		slot,
		StationName(cfg.station),
		strings.ToUpper(cfg.station),
		service,
		signalType(mode),
		Mode(mode),
		targets[kpi],
		units[kpi],
		date,
		strconv.FormatFloat(result, 'f', 5, 64),
	}, nil
}

// MustFormatRow is like FormatRow but panics on error.
func MustFormatRow(constellation, kpi, mode, date string, result float64, opts ...RowOption) []string {
	row, err := FormatRow(constellation, kpi, mode, date, result, opts...)
	if err != nil {
		panic(err)
	}
	return row
}

// signalType is "Single" for two character mode codes (e1, l1) and "Dual" otherwise.
func signalType(mode string) string {
	if len(mode) == 2 {
		return "Single"
	}
	return "Dual"
}

// SVNFromSatCode converts a short satellite code to the identifier used in the slot table:
// Galileo "E203" becomes "GSAT0203", GPS "G063" becomes "SVN63". Other codes are returned unchanged.
func SVNFromSatCode(code string) string {
	switch {
	case strings.HasPrefix(code, "E"):
		return strings.Replace(code, "E", "GSAT0", 1)
	case strings.HasPrefix(code, "G"):
		return strings.Replace(code, "G0", "SVN", 1)
	default:
		return code
	}
}

var monthYearLayouts = []string{"January-2006", "Jan-2006"}

// ParseMonthYear parses a "Month-Year" date such as "July-2021" or "Jul-2021" into the first
// day of the month, UTC.
func ParseMonthYear(s string) (time.Time, error) {
	for _, layout := range monthYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid month-year date %q", s)
}
