package app

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Input is the KPI results file.
//
//	date: July-2021
//	results:
//	  - constellation: Galileo
//	    kpi: hpe
//	    mode: e1e5b
//	    station: nabd
//	    result: 1.234
type Input struct {
	Date    string   `yaml:"date"`
	Results []Result `yaml:"results"`
}

// Result is one KPI value.
type Result struct {
	Constellation string  `yaml:"constellation"`
	KPI           string  `yaml:"kpi"`
	Mode          string  `yaml:"mode"`
	Date          string  `yaml:"date"` // overrides Input.Date
	Station       string  `yaml:"station"`
	Satellite     string  `yaml:"satellite"`
	Value         float64 `yaml:"result"`
}

// LoadInput reads the KPI results file and fills missing result dates.
func LoadInput(path string) (*Input, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var input Input
	if err = yaml.Unmarshal(data, &input); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	for i := range input.Results {
		r := &input.Results[i]
		if r.Date == "" {
			r.Date = input.Date
		}
		if r.Date == "" {
			return nil, fmt.Errorf("result %d (%s/%s): no date", i, r.Constellation, r.KPI)
		}
	}
	return &input, nil
}

// needsSatelliteInfo reports whether any result is per satellite.
func (in *Input) needsSatelliteInfo() bool {
	for _, r := range in.Results {
		if r.Satellite != "" {
			return true
		}
	}
	return false
}
