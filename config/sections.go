package config

import (
	"errors"
	"fmt"
)

// DataConfig locates the reference data.
type DataConfig struct {
	// Path is a YAML/JSON bundle or a directory holding the CSV dataset.
	Path string `json:"path"`
}

func (c *DataConfig) SetDefaults() {
	if c.Path == "" {
		c.Path = "dataset"
	}
}

func (c DataConfig) Validate() error {
	if c.Path == "" {
		return errors.New("path is required")
	}
	return nil
}

// Export formats.
const (
	FormatCSV   = "csv"
	FormatJSON  = "json"
	FormatXLSX  = "xlsx"
	FormatChart = "chart"
)

// ExportConfig selects where and how the best plan is written.
type ExportConfig struct {
	Dir     string   `json:"dir"`
	Formats []string `json:"formats"`
}

func (c *ExportConfig) SetDefaults() {
	if c.Dir == "" {
		c.Dir = "out"
	}
	if len(c.Formats) == 0 {
		c.Formats = []string{FormatCSV, FormatJSON}
	}
}

func (c ExportConfig) Validate() error {
	for _, f := range c.Formats {
		switch f {
		case FormatCSV, FormatJSON, FormatXLSX, FormatChart:
		default:
			return fmt.Errorf("unknown export format %q", f)
		}
	}
	return nil
}

// Has reports whether format f is enabled.
func (c ExportConfig) Has(f string) bool {
	for _, x := range c.Formats {
		if x == f {
			return true
		}
	}
	return false
}
