package reporting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"polymarket-hypergraph-lab/internal/domain"
	"polymarket-hypergraph-lab/internal/hypergraph"
)

// Generator produces reports from published dataset directories.
type Generator struct {
	outputDir string
	now       func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a report generator over an output directory laid
// out as by-market/<slug>/ plus an optional unified/ directory.
func NewGenerator(outputDir string) *Generator {
	return &Generator{
		outputDir: outputDir,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate reads every published dataset and summarizes it.
func (g *Generator) Generate() (*Report, error) {
	report := &Report{GeneratedAt: g.now()}

	byMarket := filepath.Join(g.outputDir, "by-market")
	entries, err := os.ReadDir(byMarket)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read by-market dir: %w", err)
	}

	var slugs []string
	for _, entry := range entries {
		if entry.IsDir() {
			slugs = append(slugs, entry.Name())
		}
	}
	sort.Strings(slugs)

	for _, slug := range slugs {
		row, err := datasetRow(filepath.Join(byMarket, slug), slug)
		if err != nil {
			return nil, fmt.Errorf("dataset %s: %w", slug, err)
		}
		report.Rows = append(report.Rows, *row)
		report.TotalNodes += row.Nodes
		report.TotalEdges += row.Hyperedges
	}
	report.MarketCount = len(report.Rows)

	unifiedDir := filepath.Join(g.outputDir, "unified")
	if _, err := os.Stat(unifiedDir); err == nil {
		row, err := datasetRow(unifiedDir, "polymarket-unified")
		if err != nil {
			return nil, fmt.Errorf("unified dataset: %w", err)
		}
		report.Unified = row
	}

	return report, nil
}

func datasetRow(dir, prefix string) (*DatasetRow, error) {
	d, err := hypergraph.ReadDataset(dir, prefix)
	if err != nil {
		return nil, err
	}
	return summarize(prefix, d), nil
}

func summarize(prefix string, d *domain.Dataset) *DatasetRow {
	row := &DatasetRow{
		Prefix:            prefix,
		Nodes:             d.NodeCount(),
		Hyperedges:        d.HyperedgeCount(),
		VertexOccurrences: d.VertexOccurrences(),
	}
	if len(d.Times) > 0 {
		row.FirstTime = d.Times[0]
		row.LastTime = d.Times[len(d.Times)-1]
		for _, ts := range d.Times {
			if ts < row.FirstTime {
				row.FirstTime = ts
			}
			if ts > row.LastTime {
				row.LastTime = ts
			}
		}
	}
	return row
}
