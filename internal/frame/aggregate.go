package frame

import (
	"fmt"
	"strings"

	"github.com/montanaflynn/stats"
)

// Aggregation names a reducer over a numeric column
type Aggregation string

const (
	AggSum    Aggregation = "sum"
	AggMean   Aggregation = "mean"
	AggMedian Aggregation = "median"
	AggMin    Aggregation = "min"
	AggMax    Aggregation = "max"
	AggCount  Aggregation = "count"
)

// ParseAggregation maps a config string onto an Aggregation, defaulting to sum
func ParseAggregation(s string) (Aggregation, error) {
	switch Aggregation(strings.ToLower(strings.TrimSpace(s))) {
	case "", AggSum:
		return AggSum, nil
	case AggMean, "avg", "average":
		return AggMean, nil
	case AggMedian:
		return AggMedian, nil
	case AggMin:
		return AggMin, nil
	case AggMax:
		return AggMax, nil
	case AggCount:
		return AggCount, nil
	}
	return "", fmt.Errorf("unsupported aggregation %q", s)
}

// Label is a human-readable name for the aggregation
func (a Aggregation) Label() string {
	switch a {
	case AggMean:
		return "Average"
	case AggMedian:
		return "Median"
	case AggMin:
		return "Min"
	case AggMax:
		return "Max"
	case AggCount:
		return "Count"
	default:
		return "Total"
	}
}

// Aggregate reduces the numeric values of column with agg.
// An empty input yields 0 for sum and count and an error otherwise.
func (f *Frame) Aggregate(column string, agg Aggregation) (float64, error) {
	if agg == AggCount {
		return float64(f.Len()), nil
	}
	if !f.HasColumn(column) {
		return 0, fmt.Errorf("column %q not found", column)
	}
	data := stats.Float64Data(f.Numbers(column))
	if len(data) == 0 {
		if agg == AggSum {
			return 0, nil
		}
		return 0, stats.ErrEmptyInput
	}
	switch agg {
	case AggSum:
		return data.Sum()
	case AggMean:
		return data.Mean()
	case AggMedian:
		return data.Median()
	case AggMin:
		return data.Min()
	case AggMax:
		return data.Max()
	}
	return 0, fmt.Errorf("unsupported aggregation %q", agg)
}
