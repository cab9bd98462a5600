package excel

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"autodash/domain/dataset"
	"autodash/domain/report"
	"autodash/internal"
	"autodash/internal/errors"
	"autodash/ports"
)

const (
	maxSheetName = 31
	summarySheet = "Summary"
)

// Writer exports captured tables to a workbook: a summary sheet with the
// control snapshot of every dashboard, then one sheet per table
type Writer struct {
	logger *internal.Logger
}

// NewWriter creates an xlsx document writer
func NewWriter(logger *internal.Logger) *Writer {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Writer{logger: logger.With("xlsx")}
}

// Extension implements ports.DocumentWriter
func (w *Writer) Extension() string { return "xlsx" }

// Write implements ports.DocumentWriter
func (w *Writer) Write(ctx context.Context, req ports.ExportRequest) ([]string, error) {
	f := excelize.NewFile()
	defer f.Close()

	var warnings []string
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, errors.ExportError("failed to prepare workbook", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, errors.ExportError("failed to create style", err)
	}
	totalStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"E8EEF7"}},
	})
	if err != nil {
		return nil, errors.ExportError("failed to create style", err)
	}

	title := "Report"
	if req.Document != nil && req.Document.Title != "" {
		title = req.Document.Title
	}
	b := &book{f: f}
	row := 1
	b.setRow(summarySheet, row, []interface{}{title})
	b.style(summarySheet, 1, row, 1, bold)
	row += 2

	used := map[string]bool{summarySheet: true}
	for i, c := range req.Captures {
		if err := ctx.Err(); err != nil {
			return append(warnings, b.warnings...), err
		}
		b.setRow(summarySheet, row, []interface{}{c.Title})
		b.style(summarySheet, 1, row, 1, bold)
		row++
		for _, ctrl := range c.Controls {
			b.setRow(summarySheet, row, []interface{}{ctrl.Label, strings.Join(dataset.Labels(ctrl.Value), ", ")})
			row++
		}
		for _, warn := range c.Warnings {
			b.setRow(summarySheet, row, []interface{}{"warning", warn})
			row++
		}
		row++

		for j, t := range c.Tables {
			name := sheetName(fmt.Sprintf("%d-%d %s", i+1, j+1, t.Title), used)
			if _, err := f.NewSheet(name); err != nil {
				warnings = append(warnings, fmt.Sprintf("table %q skipped: %v", t.Title, err))
				continue
			}
			b.writeTable(name, t, bold, totalStyle)
		}
	}
	warnings = append(warnings, b.warnings...)

	if err := f.SaveAs(req.Path); err != nil {
		return warnings, errors.ExportError("failed to save workbook", err)
	}
	w.logger.Info("workbook written to %s (%d sheets)", req.Path, len(f.GetSheetList()))
	return warnings, nil
}

// book writes cells and keeps going past cell-level failures, recording
// each one as a warning
type book struct {
	f        *excelize.File
	warnings []string
}

func (b *book) warn(sheet string, row int, err error) {
	b.warnings = append(b.warnings, fmt.Sprintf("sheet %q row %d: %v", sheet, row, err))
}

func (b *book) setRow(sheet string, row int, vals []interface{}) {
	start, err := excelize.CoordinatesToCellName(1, row)
	if err == nil {
		err = b.f.SetSheetRow(sheet, start, &vals)
	}
	if err != nil {
		b.warn(sheet, row, err)
	}
}

func (b *book) style(sheet string, fromCol, row, toCol, style int) {
	from, err := excelize.CoordinatesToCellName(fromCol, row)
	if err != nil {
		b.warn(sheet, row, err)
		return
	}
	to, err := excelize.CoordinatesToCellName(toCol, row)
	if err != nil {
		b.warn(sheet, row, err)
		return
	}
	if err := b.f.SetCellStyle(sheet, from, to, style); err != nil {
		b.warn(sheet, row, err)
	}
}

func (b *book) writeTable(sheet string, t report.Table, header, total int) {
	cols := make([]interface{}, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = c
	}
	b.setRow(sheet, 1, cols)
	if len(cols) > 0 {
		b.style(sheet, 1, 1, len(cols), header)
	}
	for i, r := range t.Rows {
		vals := make([]interface{}, len(r))
		for j, v := range r {
			vals[j] = cellValue(v)
		}
		b.setRow(sheet, i+2, vals)
		if report.IsTotalRow(r) {
			b.style(sheet, 1, i+2, len(r), total)
		}
	}
}

func cellValue(v dataset.Value) interface{} {
	switch v.Kind {
	case dataset.KindNull:
		return nil
	case dataset.KindInt:
		return v.Int
	case dataset.KindFloat:
		return v.Float
	case dataset.KindTime:
		return v.Time
	case dataset.KindBool:
		return v.Bool
	default:
		return v.Label()
	}
}

// sheetName makes a unique, legal worksheet name
func sheetName(raw string, used map[string]bool) string {
	clean := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`:\/?*[]`, r) {
			return '_'
		}
		return r
	}, raw)
	clean = truncateRunes(strings.TrimSpace(clean), maxSheetName)
	name := clean
	for n := 2; used[name]; n++ {
		suffix := fmt.Sprintf(" (%d)", n)
		name = truncateRunes(clean, maxSheetName-utf8.RuneCountInString(suffix)) + suffix
	}
	used[name] = true
	return name
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
