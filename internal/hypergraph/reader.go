package hypergraph

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"polymarket-hypergraph-lab/internal/domain"
)

// ReadDataset loads a previously written four-file set back into
// memory. Only the parallel slices are recovered; the keyed hyperedges
// are not part of the file format.
func ReadDataset(dir, prefix string) (*domain.Dataset, error) {
	labels, err := readLines(filepath.Join(dir, prefix+SuffixNodeLabels))
	if err != nil {
		return nil, err
	}

	nverts, err := readIntLines(filepath.Join(dir, prefix+SuffixNverts))
	if err != nil {
		return nil, err
	}

	simplices, err := readIntLines(filepath.Join(dir, prefix+SuffixSimplices))
	if err != nil {
		return nil, err
	}

	times, err := readInt64Lines(filepath.Join(dir, prefix+SuffixTimes))
	if err != nil {
		return nil, err
	}

	return &domain.Dataset{
		NodeLabels: labels,
		Nverts:     nverts,
		Simplices:  simplices,
		Times:      times,
	}, nil
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		out = append(out, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	return out, nil
}

func readIntLines(path string) ([]int, error) {
	lines, err := readLines(path)
	if err != nil {
		return nil, err
	}
	out := make([]int, len(lines))
	for i, line := range lines {
		v, err := strconv.Atoi(line)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", filepath.Base(path), i+1, err)
		}
		out[i] = v
	}
	return out, nil
}

func readInt64Lines(path string) ([]int64, error) {
	lines, err := readLines(path)
	if err != nil {
		return nil, err
	}
	out := make([]int64, len(lines))
	for i, line := range lines {
		v, err := strconv.ParseInt(line, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", filepath.Base(path), i+1, err)
		}
		out[i] = v
	}
	return out, nil
}
