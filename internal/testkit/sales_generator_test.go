package testkit

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autodash/domain/dataset"
)

func TestSalesDataGenerator_Deterministic(t *testing.T) {
	g := NewSalesDataGenerator(DefaultSalesConfig())
	h1, r1 := g.Records()
	h2, r2 := g.Records()

	assert.Equal(t, SalesColumns, h1)
	assert.Equal(t, h1, h2)
	assert.Equal(t, r1, r2)
	assert.Len(t, r1, 600)
}

func TestSalesDataGenerator_Frame(t *testing.T) {
	f, err := NewSalesDataGenerator(DefaultSalesConfig()).Frame()
	require.NoError(t, err)

	assert.Equal(t, 600, f.Len())
	assert.Equal(t, dataset.ColumnNumeric, f.ColumnType("amount"))
	assert.Equal(t, dataset.ColumnNumeric, f.ColumnType("year"))

	years, err := f.Distinct(context.Background(), "year")
	require.NoError(t, err)
	assert.LessOrEqual(t, len(years), 4)

	regions, err := f.Distinct(context.Background(), "region")
	require.NoError(t, err)
	assert.Len(t, regions, 4)

	var blanks int
	for i := 0; i < f.Len(); i++ {
		if f.Value(i, "channel").IsNull() {
			blanks++
		}
	}
	assert.Equal(t, 24, blanks)
}

func TestSalesDataGenerator_WriteCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sales.csv")
	cfg := DefaultSalesConfig()
	cfg.Rows = 10
	require.NoError(t, NewSalesDataGenerator(cfg).WriteCSV(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 11)
	assert.Equal(t, strings.Join(SalesColumns, ","), lines[0])
}
