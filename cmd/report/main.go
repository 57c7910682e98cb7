// Package main summarizes the datasets on disk into a markdown
// report and a CSV table.
package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"

	"polymarket-hypergraph-lab/internal/config"
	"polymarket-hypergraph-lab/internal/reporting"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Load config: %v", err)
	}

	outputDir := flag.String("output-dir", cfg.OutputDir, "Directory containing built datasets")
	reportDir := flag.String("report-dir", "data/reports", "Directory to write REPORT.md and report.csv into")
	flag.Parse()

	logger := log.New(os.Stdout, "[report] ", log.LstdFlags)

	report, err := reporting.NewGenerator(*outputDir).Generate()
	if err != nil {
		logger.Fatalf("Generate report: %v", err)
	}

	if err := os.MkdirAll(*reportDir, 0o755); err != nil {
		logger.Fatalf("Create report dir: %v", err)
	}

	mdPath := filepath.Join(*reportDir, "REPORT.md")
	if err := os.WriteFile(mdPath, []byte(reporting.RenderMarkdown(report)), 0o644); err != nil {
		logger.Fatalf("Write %s: %v", mdPath, err)
	}

	csvPath := filepath.Join(*reportDir, "report.csv")
	if err := os.WriteFile(csvPath, []byte(reporting.RenderCSV(report)), 0o644); err != nil {
		logger.Fatalf("Write %s: %v", csvPath, err)
	}

	logger.Printf("Report covers %d markets (%d nodes, %d hyperedges)", report.MarketCount, report.TotalNodes, report.TotalEdges)
	logger.Printf("Wrote %s and %s", mdPath, csvPath)
}
