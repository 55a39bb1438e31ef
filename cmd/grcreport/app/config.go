package app

import (
	"errors"
	"flag"
	"fmt"
	"strings"
)

type OutputFormat string

const (
	FormatCSV  OutputFormat = "csv"
	FormatXLSX OutputFormat = "xlsx"
)

type Config struct {
	InputFile   string
	OutputFile  string
	Format      OutputFormat
	AntexFile   string
	MetricsFile string
	Verbose     bool
}

var validOutputFormats = map[OutputFormat]struct{}{
	FormatCSV:  {},
	FormatXLSX: {},
}

func NewConfig() *Config {
	return &Config{
		Format: FormatCSV,
	}
}

func NewConfigFromCLI() (*Config, error) {
	c := NewConfig()

	var outputFormat string
	flag.StringVar(&c.InputFile, "i", "", "Path to the KPI results file (YAML)")
	flag.StringVar(&c.OutputFile, "o", "", "Path to the output file, without extension")
	flag.StringVar(&outputFormat, "f", string(FormatCSV), "Output format. [csv, xlsx]")
	flag.StringVar(&c.AntexFile, "atx", "", "Path to the ANTEX file, required for per satellite results")
	flag.StringVar(&c.MetricsFile, "metrics", "", "Path to write a Prometheus textfile with row counts")
	flag.BoolVar(&c.Verbose, "verbose", false, "Enable more verbose output")
	flag.Parse()

	outputFormat = strings.ToLower(outputFormat)

	var err error
	if c.InputFile == "" {
		err = errors.New("input file is required")
	} else if c.OutputFile == "" {
		err = errors.New("output file is required")
	} else if _, ok := validOutputFormats[OutputFormat(outputFormat)]; !ok {
		err = fmt.Errorf("invalid output format: %s", outputFormat)
	}

	if err != nil {
		flag.Usage()
		return nil, err
	}

	c.Format = OutputFormat(outputFormat)
	c.OutputFile = fmt.Sprintf("%s.%s", c.OutputFile, c.Format)
	return c, nil
}
