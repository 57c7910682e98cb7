package hypergraph

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"polymarket-hypergraph-lab/internal/domain"
)

// Output file name suffixes for the undirected four-file set.
const (
	SuffixNodeLabels = "-node-labels.txt"
	SuffixNverts     = "-nverts.txt"
	SuffixSimplices  = "-simplices.txt"
	SuffixTimes      = "-times.txt"
)

// Directed two-list file names, fixed by the downstream consumer.
const (
	FileSources    = "p_k_list_train.txt"
	FileDests      = "p_a_list_train.txt"
	FileTimes      = "times.txt"
	FileNodeLabels = "node-labels.txt"
)

// WriteDataset emits the four-file set <prefix>-{node-labels,nverts,
// simplices,times}.txt into dir. The dataset owns the directory: files
// are staged in a temporary sibling directory and published with a
// rename, so a reader never observes a partial file set. Any previous
// contents of dir are replaced wholesale.
func WriteDataset(dir, prefix string, d *domain.Dataset) error {
	files := map[string]string{
		prefix + SuffixNodeLabels: renderLines(d.NodeLabels),
		prefix + SuffixNverts:     renderInts(d.Nverts),
		prefix + SuffixSimplices:  renderInts(d.Simplices),
		prefix + SuffixTimes:      renderInt64s(d.Times),
	}
	return publish(dir, files)
}

// WriteDirectedDataset emits the directed two-list representation into
// dir: p_k_list_train.txt (sources), p_a_list_train.txt (destinations),
// times.txt, plus node-labels.txt so the integer IDs stay resolvable.
func WriteDirectedDataset(dir string, d *domain.DirectedDataset) error {
	var sources, dests, times strings.Builder
	for i, e := range d.Edges {
		fmt.Fprintf(&sources, "%d:%s\n", i, joinIDs(e.Sources))
		fmt.Fprintf(&dests, "%d:%s\n", i, joinIDs(e.Destinations))
		fmt.Fprintf(&times, "%d\t%.1f\n", i, float64(e.WindowStart))
	}

	files := map[string]string{
		FileSources:    sources.String(),
		FileDests:      dests.String(),
		FileTimes:      times.String(),
		FileNodeLabels: renderLines(d.NodeLabels),
	}
	return publish(dir, files)
}

// publish stages the files in a temporary directory next to dir and
// swaps it into place.
func publish(dir string, files map[string]string) error {
	parent := filepath.Dir(dir)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return fmt.Errorf("create output parent: %w", err)
	}

	stage, err := os.MkdirTemp(parent, "."+filepath.Base(dir)+".stage-")
	if err != nil {
		return fmt.Errorf("create staging dir: %w", err)
	}
	defer os.RemoveAll(stage)

	for name, content := range files {
		if err := writeFileSync(filepath.Join(stage, name), content); err != nil {
			return err
		}
	}

	// Swap the staged directory into place. The old directory is moved
	// aside first so the rename never races a reader holding the path.
	old := stage + ".old"
	if _, err := os.Stat(dir); err == nil {
		if err := os.Rename(dir, old); err != nil {
			return fmt.Errorf("retire previous dataset: %w", err)
		}
	}
	if err := os.Rename(stage, dir); err != nil {
		return fmt.Errorf("publish dataset: %w", err)
	}
	os.RemoveAll(old)
	return nil
}

func writeFileSync(path, content string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}
	w := bufio.NewWriter(f)
	if _, err := w.WriteString(content); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("flush %s: %w", filepath.Base(path), err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("sync %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}

func renderLines(values []string) string {
	var sb strings.Builder
	for _, v := range values {
		sb.WriteString(v)
		sb.WriteByte('\n')
	}
	return sb.String()
}

func renderInts(values []int) string {
	var sb strings.Builder
	for _, v := range values {
		sb.WriteString(strconv.Itoa(v))
		sb.WriteByte('\n')
	}
	return sb.String()
}

func renderInt64s(values []int64) string {
	var sb strings.Builder
	for _, v := range values {
		sb.WriteString(strconv.FormatInt(v, 10))
		sb.WriteByte('\n')
	}
	return sb.String()
}

func joinIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ",")
}
