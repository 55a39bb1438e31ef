package dataset

import (
	"time"
)

var systemNames = map[string]string{
	"C": "BeiDou",
	"E": "Galileo",
	"G": "GPS",
	"I": "IRNSS",
	"J": "QZSS",
	"R": "GLONASS",
	"S": "SBAS",
}

// SystemName returns the display name of a GNSS identifier, or the identifier itself when it
// is not known.
func SystemName(id string) string {
	if name, ok := systemNames[id]; ok {
		return name
	}
	return id
}

// leapSeconds lists the GPS-UTC offset in effect from the given UTC instant on.
var leapSeconds = []struct {
	from   time.Time
	offset time.Duration
}{
	{time.Date(2006, 1, 1, 0, 0, 0, 0, time.UTC), 14 * time.Second},
	{time.Date(2009, 1, 1, 0, 0, 0, 0, time.UTC), 15 * time.Second},
	{time.Date(2012, 7, 1, 0, 0, 0, 0, time.UTC), 16 * time.Second},
	{time.Date(2015, 7, 1, 0, 0, 0, 0, time.UTC), 17 * time.Second},
	{time.Date(2017, 1, 1, 0, 0, 0, 0, time.UTC), 18 * time.Second},
}

// GPSToUTC converts a GPS time to UTC. Epochs before 2006 use the 2006 offset.
func GPSToUTC(t time.Time) time.Time {
	offset := leapSeconds[0].offset
	for _, ls := range leapSeconds {
		if !t.Add(-ls.offset).Before(ls.from) {
			offset = ls.offset
		}
	}
	return t.Add(-offset).UTC()
}

// NumberOfSatellites returns, for every observation, the number of distinct satellites
// observed at the same epoch. Satellites are identified by system and satellite name.
func NumberOfSatellites(systems, satellites []string, epochs []time.Time) []float64 {
	perEpoch := make(map[int64]map[string]struct{})
	for i, t := range epochs {
		key := t.UnixNano()
		if perEpoch[key] == nil {
			perEpoch[key] = make(map[string]struct{})
		}
		perEpoch[key][systems[i]+"/"+satellites[i]] = struct{}{}
	}

	counts := make([]float64, len(epochs))
	for i, t := range epochs {
		counts[i] = float64(len(perEpoch[t.UnixNano()]))
	}
	return counts
}
