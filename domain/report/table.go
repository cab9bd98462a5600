package report

import (
	"strings"

	"autodash/domain/dataset"
)

// Table is a tabular side-output emitted by a view
type Table struct {
	Title   string            `json:"title"`
	Columns []string          `json:"columns"`
	Rows    [][]dataset.Value `json:"rows"`
}

// Height returns the number of rows
func (t Table) Height() int { return len(t.Rows) }

// Width returns the number of columns
func (t Table) Width() int { return len(t.Columns) }

// Clone deep-copies the table so recorded captures can't be mutated by the view
func (t Table) Clone() Table {
	out := Table{Title: t.Title, Columns: append([]string(nil), t.Columns...)}
	out.Rows = make([][]dataset.Value, len(t.Rows))
	for i, r := range t.Rows {
		out.Rows[i] = append([]dataset.Value(nil), r...)
	}
	return out
}

// TotalMarkers identify a summary row by its first cell
var TotalMarkers = []string{"合计", "总计", "小计", "Grand Total", "Total"}

// IsTotalLabel reports whether s contains a total marker
func IsTotalLabel(s string) bool {
	for _, m := range TotalMarkers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

// IsTotalRow reports whether the row's first cell is a total marker
func IsTotalRow(r []dataset.Value) bool {
	if len(r) == 0 || r[0].Kind != dataset.KindString {
		return false
	}
	return IsTotalLabel(r[0].Str)
}
