package grc

import (
	"maps"
	"slices"
)

const (
	serviceLine = "Open Service"
	service     = "OS"
)

var header = []string{
	"Constellation",
	"Service Line",
	"Service Category",
	"Business Service",
	"Batch",
	"Satellite",
	"PRN",
	"Slot",
	"GSS Site",
	"Station",
	"Service",
	"Type",
	"Mode",
	"Target",
	"Unit",
	"Date",
	"Result",
}

// Header returns the fixed column sequence of a GRC report row.
func Header() []string {
	return slices.Clone(header)
}

// batches maps satellite block types to production batches.
var batches = map[string]string{
	"GALILEO-1":   "IOV",
	"GALILEO-2":   "FOC",
	"BLOCK IIIA":  "III",
	"BLOCK IIF":   "IIF",
	"BLOCK IIR-A": "IIR",
	"BLOCK IIR-B": "IIR",
	"BLOCK IIR-M": "IIR-M",
}

var businessServices = map[string]map[string]string{
	"Galileo": {
		"hpe":         "FOM-OS-08 Horizontal Positioning Service Accuracy per Station over Month",
		"site_vel_3d": "FOM-OS-14 3D Velocity Service Accuracy per Station over Month",
		"sisre":       "SDD-OS-08 SIS Ranging Accuracy over All Satellites over Month",
		"sisre_sat":   "SDD-OS-09 SIS Ranging Accuracy per Satellite over Month",
		"vpe":         "FOM-OS-09 Vertical Positioning Service Accuracy per Station over Month",
	},
	"GPS": {
		"hpe":         "FOM-OS-08 Horizontal Positioning Service Accuracy per Station over Month",
		"site_vel_3d": "FOM-OS-14 3D Velocity Service Accuracy per Station over Month",
		"sisre":       "SPS-OS-02 SIS Ranging Accuracy over All Satellites over Month",
		"sisre_sat":   "SPS-OS-04 SIS Ranging Accuracy per Satellite over Month",
		"vpe":         "FOM-OS-09 Vertical Positioning Service Accuracy per Station over Month",
	},
}

var categories = map[string]string{
	"hpe":         "Position Domain",
	"site_vel_3d": "Position Domain",
	"sisre":       "Ranging Domain",
	"sisre_sat":   "Ranging Domain",
	"vpe":         "Position Domain",
}

var modes = map[string]string{
	"e1":    "E1",
	"e1e5a": "E1/E5a",
	"e1e5b": "E1/E5b",
	"l1":    "L1",
	"l1l2":  "L1/L2",
}

// slots maps SVN (GPS) and GSAT (Galileo) identifiers to orbital slots.
var slots = map[string]string{
	"SVN43":    "F6",
	"SVN45":    "D3",
	"SVN48":    "A4",
	"SVN50":    "E3",
	"SVN51":    "E4",
	"SVN52":    "A2",
	"SVN53":    "C4",
	"SVN55":    "F2",
	"SVN56":    "B1",
	"SVN57":    "C1",
	"SVN58":    "B4",
	"SVN59":    "C5",
	"SVN61":    "D1",
	"SVN62":    "B2",
	"SVN63":    "D2",
	"SVN64":    "A3",
	"SVN65":    "A1",
	"SVN66":    "C2",
	"SVN67":    "D4",
	"SVN68":    "F3",
	"SVN69":    "E1",
	"SVN70":    "F1",
	"SVN71":    "B5",
	"SVN72":    "C3",
	"SVN73":    "E2",
	"SVN74":    "F4",
	"SVN75":    "D6",
	"SVN76":    "E5",
	"SVN77":    "B6",
	"SVN78":    "D5",
	"SVN79":    "A6",
	"GSAT0101": "B05",
	"GSAT0102": "B06",
	"GSAT0103": "C04",
	"GSAT0104": "C14",
	"GSAT0201": "EXT01",
	"GSAT0202": "EXT02",
	"GSAT0203": "B08",
	"GSAT0204": "B14",
	"GSAT0205": "A08",
	"GSAT0206": "A05",
	"GSAT0207": "C06",
	"GSAT0208": "C07",
	"GSAT0209": "C02",
	"GSAT0210": "A02",
	"GSAT0211": "A06",
	"GSAT0212": "C08",
	"GSAT0213": "C03",
	"GSAT0214": "C01",
	"GSAT0215": "A03",
	"GSAT0216": "A07",
	"GSAT0217": "A04",
	"GSAT0218": "A01",
	"GSAT0219": "B04",
	"GSAT0220": "B01",
	"GSAT0221": "B02",
	"GSAT0222": "B07",
	"GSAT0223": "B03",
	"GSAT0224": "B15",
}

var stations = map[string]string{
	"altc": "Alta (Norway)",
	"brux": "Brussels (Belgium)",
	"cpvg": "Cap-Vert (Cabo Verde)",
	"koug": "Kourou (French Guiana)",
	"hofs": "Hoefn (Iceland)",
	"hons": "Honningsvag (Norway)",
	"janm": "Jan Mayen (Norway)",
	"krss": "Kristiansand (Norway)",
	"mas1": "Maspalomas (Spain)",
	"nabd": "Ny Alesund (Norway)",
	"nklg": "N' Koltang (Gabon)",
	"vegs": "Vega (Norway)",
}

var targets = map[string]string{
	"hpe":         "",
	"site_vel_3d": "",
	"sisre":       "≤ 2",
	"sisre_sat":   "≤ 7",
	"vpe":         "",
}

var units = map[string]string{
	"hpe":         "m",
	"site_vel_3d": "m/s",
	"sisre":       "m",
	"sisre_sat":   "m",
	"vpe":         "m",
}

// Batch returns the production batch of a satellite block type, or "" when unknown.
func Batch(satType string) string {
	return batches[satType]
}

// Slot returns the orbital slot of an SVN or GSAT identifier, or "" when unknown.
func Slot(svn string) string {
	return slots[svn]
}

// StationName returns the display name of a station code, or "" when unknown.
func StationName(station string) string {
	return stations[station]
}

// Mode returns the display text of a signal mode code, or the code itself when unknown.
func Mode(mode string) string {
	if display, ok := modes[mode]; ok {
		return display
	}
	return mode
}

// KPIs returns the KPI names known for a constellation, sorted.
func KPIs(constellation string) []string {
	return slices.Sorted(maps.Keys(businessServices[constellation]))
}

// Constellations returns the known constellation names, sorted.
func Constellations() []string {
	return slices.Sorted(maps.Keys(businessServices))
}
