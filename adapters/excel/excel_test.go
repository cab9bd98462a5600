package excel

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"autodash/domain/dashboard"
	"autodash/domain/dataset"
	"autodash/domain/report"
	"autodash/internal"
	"autodash/internal/errors"
	"autodash/ports"
)

var quiet = internal.NewDiscardLogger()

func TestReadFrame_CSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sales.csv")
	require.NoError(t, os.WriteFile(path, []byte("region,year,amount\nNorth,2023,10\nSouth,2024,\"1,250.5\"\n"), 0o644))

	f, err := NewDataReader(path, quiet).ReadFrame()
	require.NoError(t, err)
	assert.Equal(t, 2, f.Len())
	assert.Equal(t, dataset.ColumnNumeric, f.ColumnType("year"))
	assert.Equal(t, dataset.Float(1250.5), f.Value(1, "amount"))
}

func TestReadFrame_XLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sales.xlsx")
	wb := excelize.NewFile()
	require.NoError(t, wb.SetSheetName("Sheet1", "Data"))
	require.NoError(t, wb.SetSheetRow("Data", "A1", &[]interface{}{"region", "amount"}))
	require.NoError(t, wb.SetSheetRow("Data", "A2", &[]interface{}{"North", 10}))
	require.NoError(t, wb.SetSheetRow("Data", "A3", &[]interface{}{"West", 7}))
	require.NoError(t, wb.SaveAs(path))
	require.NoError(t, wb.Close())

	f, err := NewDataReader(path, quiet).ReadFrame()
	require.NoError(t, err)
	assert.Equal(t, 2, f.Len())
	assert.Equal(t, dataset.String("West"), f.Value(1, "region"))
	assert.Equal(t, dataset.Int(7), f.Value(1, "amount"))
}

func TestReadFrame_Errors(t *testing.T) {
	_, err := NewDataReader(filepath.Join(t.TempDir(), "missing.csv"), quiet).ReadFrame()
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))

	path := filepath.Join(t.TempDir(), "header.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b\n"), 0o644))
	_, err = NewDataReader(path, quiet).ReadFrame()
	assert.Equal(t, errors.CodeDatasetError, errors.GetCode(err))
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported("a.CSV"))
	assert.True(t, Supported("b.xlsx"))
	assert.False(t, Supported("postgres://host/db"))
}

func TestWriter_WritesSheets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	table := report.Table{
		Title:   "Total of amount by region",
		Columns: []string{"region", "amount"},
		Rows: [][]dataset.Value{
			{dataset.String("North"), dataset.Float(10)},
			{dataset.String("Total"), dataset.Float(10)},
		},
	}
	req := ports.ExportRequest{
		Path:     path,
		Document: &report.Document{Title: "Q1"},
		Captures: []*report.CaptureResult{
			{
				Title:    "sales",
				Controls: []dashboard.ControlSnapshot{{Name: "region", Label: "region", Value: []dataset.Value{dataset.All}}},
				Tables:   []report.Table{table, table},
			},
			{Title: "broken", Warnings: []string{"boom"}},
		},
	}

	warnings, err := NewWriter(quiet).Write(context.Background(), req)
	require.NoError(t, err)
	assert.Empty(t, warnings)

	wb, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer wb.Close()

	sheets := wb.GetSheetList()
	require.Len(t, sheets, 3)
	assert.Equal(t, "Summary", sheets[0])
	assert.LessOrEqual(t, len([]rune(sheets[1])), maxSheetName)
	assert.NotEqual(t, sheets[1], sheets[2])

	v, err := wb.GetCellValue("Summary", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Q1", v)

	v, err = wb.GetCellValue(sheets[1], "A3")
	require.NoError(t, err)
	assert.Equal(t, "Total", v)
}

func TestWriter_ReportsCellFailures(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wide.xlsx")
	columns := make([]string, excelize.MaxColumns+1)
	for i := range columns {
		columns[i] = "c"
	}
	req := ports.ExportRequest{
		Path: path,
		Captures: []*report.CaptureResult{{
			Title: "wide",
			Tables: []report.Table{{
				Title:   "too wide",
				Columns: columns,
				Rows:    [][]dataset.Value{{dataset.String("North"), dataset.Int(1)}},
			}},
		}},
	}

	warnings, err := NewWriter(quiet).Write(context.Background(), req)
	require.NoError(t, err, "cell failures do not abort the workbook")
	require.NotEmpty(t, warnings)
	assert.Contains(t, warnings[0], "row 1")
	assert.FileExists(t, path)
}

func TestSheetName(t *testing.T) {
	used := map[string]bool{}
	a := sheetName("1-1 a/b:c", used)
	assert.Equal(t, "1-1 a_b_c", a)
	b := sheetName("1-1 a/b:c", used)
	assert.Equal(t, "1-1 a_b_c (2)", b)

	long := sheetName("1-2 a very long table title that exceeds the limit", used)
	assert.Len(t, []rune(long), maxSheetName)
}
