package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"autodash/internal/errors"
)

// ReportDefinition describes a multi-dashboard report in TOML:
//
//	title = "Premium review"
//	author = "Analytics"
//
//	[[dashboards]]
//	title = "Premium by year"
//	data = "data/premium.xlsx"
//	dimensions = ["year", "product"]
//	measure = "premium"
//	chart = "bar"
//	narrative = "## Background\nQuarterly premium review."
type ReportDefinition struct {
	Title      string                `toml:"title"`
	Author     string                `toml:"author"`
	Format     string                `toml:"format"`
	Output     string                `toml:"output"`
	Strategy   string                `toml:"strategy"`
	Dashboards []DashboardDefinition `toml:"dashboards"`
}

// DashboardDefinition is one dashboard inside a report definition
type DashboardDefinition struct {
	Title       string              `toml:"title"`
	Data        string              `toml:"data"`
	Table       string              `toml:"table,omitempty"`
	Driver      string              `toml:"driver,omitempty"`
	Dimensions  []string            `toml:"dimensions"`
	Measure     string              `toml:"measure"`
	Aggregation string              `toml:"aggregation,omitempty"`
	Chart       string              `toml:"chart,omitempty"`
	TotalLabel  string              `toml:"total_label,omitempty"`
	Share       bool                `toml:"share,omitempty"`
	Narrative   string              `toml:"narrative,omitempty"`
	Selections  map[string][]string `toml:"selections,omitempty"`
	Axis        string              `toml:"axis,omitempty"`
}

// LoadReportDefinition reads and validates a TOML report definition
func LoadReportDefinition(path string) (*ReportDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read report definition %s", path)
	}
	return ParseReportDefinition(data)
}

// ParseReportDefinition decodes and validates definition bytes
func ParseReportDefinition(data []byte) (*ReportDefinition, error) {
	var def ReportDefinition
	if err := toml.Unmarshal(data, &def); err != nil {
		return nil, &errors.AppError{Code: errors.CodeConfigInvalid, Message: "invalid report definition", Cause: err}
	}
	if err := ValidateReportDefinition(&def); err != nil {
		return nil, err
	}
	return &def, nil
}

// ValidateReportDefinition checks that every dashboard names a data
// source, at least one dimension and a measure
func ValidateReportDefinition(def *ReportDefinition) error {
	if len(def.Dashboards) == 0 {
		return errors.ConfigInvalid("report definition has no dashboards")
	}
	for i, d := range def.Dashboards {
		if strings.TrimSpace(d.Data) == "" {
			return errors.ConfigInvalid(fmt.Sprintf("dashboard %d has no data source", i+1))
		}
		if len(d.Dimensions) == 0 {
			return errors.ConfigInvalid(fmt.Sprintf("dashboard %d has no dimensions", i+1))
		}
		if strings.TrimSpace(d.Measure) == "" {
			return errors.ConfigInvalid(fmt.Sprintf("dashboard %d has no measure", i+1))
		}
	}
	return nil
}

// EncodeDefinition renders a definition back to TOML
func EncodeDefinition(v interface{}) (string, error) {
	data, err := toml.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
