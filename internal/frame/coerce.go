package frame

import (
	"math"
	"strconv"
	"strings"
	"time"

	"autodash/domain/dataset"
)

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006-01-02 15:04:05",
	"2006/01/02 15:04:05",
	time.RFC3339,
	"01/02/2006",
}

// nullTokens are raw cells treated as missing
var nullTokens = map[string]bool{
	"":     true,
	"null": true,
	"NULL": true,
	"NaN":  true,
	"nan":  true,
	"N/A":  true,
	"NA":   true,
}

// FromStrings infers a semantic type per column and coerces raw string rows.
// A column is numeric when every non-null cell parses as a number, a date
// when every non-null cell parses with one of the known layouts, and a
// string otherwise. Integer-only numeric columns keep integer cells.
func FromStrings(headers []string, rows [][]string) (*Frame, error) {
	columns := make([]dataset.Column, len(headers))
	coercers := make([]func(string) dataset.Value, len(headers))

	for j, h := range headers {
		colType, coerce := inferColumn(j, rows)
		columns[j] = dataset.Column{Name: strings.TrimSpace(h), Type: colType}
		coercers[j] = coerce
	}

	values := make([][]dataset.Value, len(rows))
	for i, raw := range rows {
		row := make([]dataset.Value, len(headers))
		for j := range headers {
			if j >= len(raw) {
				continue
			}
			cell := strings.TrimSpace(raw[j])
			if nullTokens[cell] {
				continue
			}
			row[j] = coercers[j](cell)
		}
		values[i] = row
	}
	return New(columns, values)
}

func inferColumn(j int, rows [][]string) (dataset.ColumnType, func(string) dataset.Value) {
	allInt, allFloat, allDate := true, true, true
	seen := 0
	for _, raw := range rows {
		if j >= len(raw) {
			continue
		}
		cell := strings.TrimSpace(raw[j])
		if nullTokens[cell] {
			continue
		}
		seen++
		if allInt {
			if _, err := strconv.ParseInt(cell, 10, 64); err != nil {
				allInt = false
			}
		}
		if allFloat {
			if _, ok := parseNumber(cell); !ok {
				allFloat = false
			}
		}
		if allDate {
			if _, ok := parseDate(cell); !ok {
				allDate = false
			}
		}
		if !allInt && !allFloat && !allDate {
			break
		}
	}

	switch {
	case seen == 0:
		return dataset.ColumnOther, func(s string) dataset.Value { return dataset.String(s) }
	case allInt:
		return dataset.ColumnNumeric, func(s string) dataset.Value {
			i, _ := strconv.ParseInt(s, 10, 64)
			return dataset.Int(i)
		}
	case allFloat:
		return dataset.ColumnNumeric, func(s string) dataset.Value {
			f, _ := parseNumber(s)
			return dataset.Float(f)
		}
	case allDate:
		return dataset.ColumnDate, func(s string) dataset.Value {
			t, _ := parseDate(s)
			return dataset.Time(t)
		}
	default:
		return dataset.ColumnString, func(s string) dataset.Value { return dataset.String(s) }
	}
}

// parseNumber accepts plain decimal floats and thousands-separated numbers
// like 1,234.5. Hex floats, Inf and NaN are text.
func parseNumber(s string) (float64, bool) {
	clean := strings.ReplaceAll(s, ",", "")
	if strings.ContainsAny(clean, "xX") {
		return 0, false
	}
	f, err := strconv.ParseFloat(clean, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
