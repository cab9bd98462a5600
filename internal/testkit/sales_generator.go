// Package testkit generates deterministic sample datasets for tests and demos.
package testkit

import (
	"encoding/csv"
	"fmt"
	"math/rand"
	"os"
	"strconv"

	"autodash/internal/frame"
)

// SalesColumns is the header of every generated sales dataset
var SalesColumns = []string{"region", "product", "year", "channel", "quantity", "amount"}

// SalesGeneratorConfig configures the sales data generator
type SalesGeneratorConfig struct {
	Rows      int      `json:"rows"`
	Products  int      `json:"products"`
	Regions   []string `json:"regions"`
	Channels  []string `json:"channels"`
	StartYear int      `json:"start_year"`
	Years     int      `json:"years"`
	// MissingEvery blanks the channel of every n-th row; 0 disables it
	MissingEvery int   `json:"missing_every"`
	Seed         int64 `json:"seed"`
}

// DefaultSalesConfig returns a small dataset with one low, one medium and
// one high cardinality dimension
func DefaultSalesConfig() SalesGeneratorConfig {
	return SalesGeneratorConfig{
		Rows:         600,
		Products:     60,
		Regions:      []string{"华东", "华南", "North", "South"},
		Channels:     []string{"online", "retail", "partner"},
		StartYear:    2021,
		Years:        4,
		MissingEvery: 25,
		Seed:         42,
	}
}

// SalesDataGenerator produces sales rows from a seeded source
type SalesDataGenerator struct {
	config SalesGeneratorConfig
	rng    *rand.Rand
}

// NewSalesDataGenerator creates a new sales data generator
func NewSalesDataGenerator(config SalesGeneratorConfig) *SalesDataGenerator {
	return &SalesDataGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// Records returns the header and rows as strings, the way a CSV reader
// would hand them over. The same seed always yields the same rows.
func (g *SalesDataGenerator) Records() ([]string, [][]string) {
	g.rng.Seed(g.config.Seed)
	c := g.config
	rows := make([][]string, 0, c.Rows)
	for i := 0; i < c.Rows; i++ {
		qty := 1 + g.rng.Intn(20)
		price := 5 + g.rng.Float64()*95
		channel := c.Channels[g.rng.Intn(len(c.Channels))]
		if c.MissingEvery > 0 && i%c.MissingEvery == c.MissingEvery-1 {
			channel = ""
		}
		rows = append(rows, []string{
			c.Regions[i%len(c.Regions)],
			fmt.Sprintf("SKU-%03d", g.rng.Intn(c.Products)),
			strconv.Itoa(c.StartYear + g.rng.Intn(c.Years)),
			channel,
			strconv.Itoa(qty),
			strconv.FormatFloat(float64(qty)*price, 'f', 2, 64),
		})
	}
	return append([]string(nil), SalesColumns...), rows
}

// Frame builds an in-memory frame from the generated rows
func (g *SalesDataGenerator) Frame() (*frame.Frame, error) {
	headers, rows := g.Records()
	return frame.FromStrings(headers, rows)
}

// WriteCSV writes the generated rows to path
func (g *SalesDataGenerator) WriteCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	headers, rows := g.Records()
	w := csv.NewWriter(f)
	if err := w.Write(headers); err != nil {
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	return f.Close()
}
