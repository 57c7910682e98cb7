// Package main converts a raw fills JSON file into a temporal hypergraph
// dataset on disk.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"polymarket-hypergraph-lab/internal/domain"
	"polymarket-hypergraph-lab/internal/hypergraph"
	"polymarket-hypergraph-lab/internal/polymarket"
)

func main() {
	input := flag.String("input", "", "Path to raw fills JSON file (required)")
	output := flag.String("output", "", "Output directory for dataset files (required)")
	slug := flag.String("slug", "", "Market slug the fills belong to (default: derived from input filename)")
	prefix := flag.String("prefix", "", "Dataset filename prefix (default: slug)")
	mode := flag.String("mode", "daily", "Bucketing mode: daily, timewindow or transaction")
	window := flag.Int64("window", 0, "Window size in seconds (timewindow mode only)")
	directed := flag.Bool("directed", false, "Emit the directed seller-to-buyer two-list format instead")
	flag.Parse()

	logger := log.New(os.Stdout, "[convert] ", log.LstdFlags)

	if *input == "" || *output == "" {
		flag.Usage()
		os.Exit(2)
	}

	marketSlug := *slug
	if marketSlug == "" {
		marketSlug = slugFromFilename(*input)
	}
	filePrefix := *prefix
	if filePrefix == "" {
		filePrefix = marketSlug
	}

	fills, err := loadFills(*input, marketSlug)
	if err != nil {
		logger.Fatalf("Load fills: %v", err)
	}
	logger.Printf("Loaded %d fills from %s", len(fills), *input)

	opts := hypergraph.Options{
		Mode:       domain.BucketMode(*mode),
		WindowSize: *window,
	}

	if *directed {
		dataset, err := hypergraph.BuildDirected(fills, opts)
		if err != nil {
			logger.Fatalf("Build directed dataset: %v", err)
		}
		if violations := hypergraph.VerifyDirected(dataset); len(violations) > 0 {
			logger.Fatalf("Dataset verification failed: %v", violations)
		}
		if err := hypergraph.WriteDirectedDataset(*output, dataset); err != nil {
			logger.Fatalf("Write directed dataset: %v", err)
		}
		logger.Printf("Wrote directed dataset to %s: %d nodes, %d hyperedges",
			*output, dataset.NodeCount(), dataset.HyperedgeCount())
		return
	}

	dataset, err := hypergraph.Build(fills, opts)
	if err != nil {
		logger.Fatalf("Build dataset: %v", err)
	}
	if violations := hypergraph.Verify(dataset); len(violations) > 0 {
		logger.Fatalf("Dataset verification failed: %v", violations)
	}
	if err := hypergraph.WriteDataset(*output, filePrefix, dataset); err != nil {
		logger.Fatalf("Write dataset: %v", err)
	}
	logger.Printf("Wrote dataset to %s (prefix %s): %d nodes, %d hyperedges, %d vertex occurrences",
		*output, filePrefix, dataset.NodeCount(), dataset.HyperedgeCount(), dataset.VertexOccurrences())
}

// loadFills reads a fills_<slug>.json file.
func loadFills(path, slug string) ([]*domain.Fill, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var rawFills []polymarket.RawFill
	if err := json.Unmarshal(data, &rawFills); err != nil {
		return nil, fmt.Errorf("unmarshal fills: %w", err)
	}

	fills := make([]*domain.Fill, 0, len(rawFills))
	for i := range rawFills {
		f, err := rawFills[i].ToFill(slug)
		if err != nil {
			return nil, fmt.Errorf("fill %s: %w", rawFills[i].ID, err)
		}
		fills = append(fills, f)
	}
	return fills, nil
}

// slugFromFilename derives the market slug from a fills_<slug>.json path.
func slugFromFilename(path string) string {
	base := path
	if idx := strings.LastIndexByte(base, '/'); idx >= 0 {
		base = base[idx+1:]
	}
	base = strings.TrimSuffix(base, ".json")
	base = strings.TrimPrefix(base, "fills_")
	return base
}
