package ingestion

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"polymarket-hypergraph-lab/internal/polymarket"
)

// rawFillsFile is the filename pattern for raw fills, fills_<slug>.json.
const (
	rawFillsPrefix = "fills_"
	rawFillsSuffix = ".json"
)

// RawDir manages the directory of raw fills JSON files, one per market.
type RawDir struct {
	dir string
}

// NewRawDir creates a RawDir rooted at dir. The directory is created on
// first save, not here.
func NewRawDir(dir string) *RawDir {
	return &RawDir{dir: dir}
}

// Path returns the fills file path for a market slug.
func (r *RawDir) Path(slug string) string {
	return filepath.Join(r.dir, rawFillsPrefix+slug+rawFillsSuffix)
}

// Save writes the raw fills for a market, replacing any previous file.
// The write goes through a temp file and rename so readers never see a
// partially written file.
func (r *RawDir) Save(slug string, fills []polymarket.RawFill) error {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return fmt.Errorf("create raw dir: %w", err)
	}

	data, err := json.MarshalIndent(fills, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal fills: %w", err)
	}

	tmp, err := os.CreateTemp(r.dir, rawFillsPrefix+slug+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write fills: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpName, r.Path(slug)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename fills file: %w", err)
	}
	return nil
}

// Load reads the raw fills for a market slug.
func (r *RawDir) Load(slug string) ([]polymarket.RawFill, error) {
	data, err := os.ReadFile(r.Path(slug))
	if err != nil {
		return nil, fmt.Errorf("read fills file: %w", err)
	}

	var fills []polymarket.RawFill
	if err := json.Unmarshal(data, &fills); err != nil {
		return nil, fmt.Errorf("unmarshal fills for %s: %w", slug, err)
	}
	return fills, nil
}

// ListMarkets returns the slugs of every market with a fills file,
// alphabetically.
func (r *RawDir) ListMarkets() ([]string, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read raw dir: %w", err)
	}

	var slugs []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, rawFillsPrefix) || !strings.HasSuffix(name, rawFillsSuffix) {
			continue
		}
		slug := strings.TrimSuffix(strings.TrimPrefix(name, rawFillsPrefix), rawFillsSuffix)
		if slug != "" {
			slugs = append(slugs, slug)
		}
	}
	sort.Strings(slugs)
	return slugs, nil
}
