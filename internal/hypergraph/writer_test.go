package hypergraph

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"polymarket-hypergraph-lab/internal/domain"
)

func buildTestDataset(t *testing.T) *domain.Dataset {
	t.Helper()
	fills := []*domain.Fill{
		buyFill("m", "0xa1", "0xa2", yesToken, day1+100),
		buyFill("m", "0xa3", "0xa2", yesToken, day1+200),
		buyFill("m", "0xa4", "0xa1", yesToken, day2+300),
	}
	ds, err := Build(fills, Options{Mode: domain.ModeDaily})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return ds
}

func TestWriteDataset_RoundTrip(t *testing.T) {
	ds := buildTestDataset(t)
	dir := filepath.Join(t.TempDir(), "m")

	if err := WriteDataset(dir, "m", ds); err != nil {
		t.Fatalf("WriteDataset: %v", err)
	}

	got, err := ReadDataset(dir, "m")
	if err != nil {
		t.Fatalf("ReadDataset: %v", err)
	}

	if !reflect.DeepEqual(got.NodeLabels, ds.NodeLabels) {
		t.Errorf("NodeLabels = %v, want %v", got.NodeLabels, ds.NodeLabels)
	}
	if !reflect.DeepEqual(got.Nverts, ds.Nverts) {
		t.Errorf("Nverts = %v, want %v", got.Nverts, ds.Nverts)
	}
	if !reflect.DeepEqual(got.Simplices, ds.Simplices) {
		t.Errorf("Simplices = %v, want %v", got.Simplices, ds.Simplices)
	}
	if !reflect.DeepEqual(got.Times, ds.Times) {
		t.Errorf("Times = %v, want %v", got.Times, ds.Times)
	}

	if v := Verify(got); len(v) != 0 {
		t.Errorf("Verify after round trip: %v", v)
	}
}

func TestWriteDataset_ByteIdentical(t *testing.T) {
	ds := buildTestDataset(t)
	dirA := filepath.Join(t.TempDir(), "a")
	dirB := filepath.Join(t.TempDir(), "b")

	if err := WriteDataset(dirA, "m", ds); err != nil {
		t.Fatalf("WriteDataset a: %v", err)
	}
	if err := WriteDataset(dirB, "m", ds); err != nil {
		t.Fatalf("WriteDataset b: %v", err)
	}

	for _, suffix := range []string{SuffixNodeLabels, SuffixNverts, SuffixSimplices, SuffixTimes} {
		a, err := os.ReadFile(filepath.Join(dirA, "m"+suffix))
		if err != nil {
			t.Fatalf("read a: %v", err)
		}
		b, err := os.ReadFile(filepath.Join(dirB, "m"+suffix))
		if err != nil {
			t.Fatalf("read b: %v", err)
		}
		if string(a) != string(b) {
			t.Errorf("file m%s differs between identical builds", suffix)
		}
	}
}

func TestWriteDataset_ReplacesPrevious(t *testing.T) {
	ds := buildTestDataset(t)
	dir := filepath.Join(t.TempDir(), "m")

	if err := WriteDataset(dir, "old-prefix", ds); err != nil {
		t.Fatalf("first WriteDataset: %v", err)
	}
	if err := WriteDataset(dir, "m", ds); err != nil {
		t.Fatalf("second WriteDataset: %v", err)
	}

	// The stale prefix must be gone: a dataset directory is replaced
	// wholesale, never merged.
	if _, err := os.Stat(filepath.Join(dir, "old-prefix"+SuffixNverts)); !os.IsNotExist(err) {
		t.Errorf("stale file survived republish: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "m"+SuffixNverts)); err != nil {
		t.Errorf("expected file missing: %v", err)
	}
}

func TestWriteDirectedDataset_Format(t *testing.T) {
	fills := []*domain.Fill{
		buyFill("m", "0xa1", "0xa2", yesToken, 100),
		buyFill("m", "0xa3", "0xa4", yesToken, 200),
	}
	ds, err := BuildDirected(fills, Options{Mode: domain.ModeTimeWindow, WindowSize: 3600})
	if err != nil {
		t.Fatalf("BuildDirected: %v", err)
	}

	dir := filepath.Join(t.TempDir(), "directed")
	if err := WriteDirectedDataset(dir, ds); err != nil {
		t.Fatalf("WriteDirectedDataset: %v", err)
	}

	sources, err := os.ReadFile(filepath.Join(dir, FileSources))
	if err != nil {
		t.Fatalf("read sources: %v", err)
	}
	if got, want := string(sources), "0:1,2\n"; got != want {
		t.Errorf("sources = %q, want %q", got, want)
	}

	dests, err := os.ReadFile(filepath.Join(dir, FileDests))
	if err != nil {
		t.Fatalf("read destinations: %v", err)
	}
	if got, want := string(dests), "0:3,4\n"; got != want {
		t.Errorf("destinations = %q, want %q", got, want)
	}

	times, err := os.ReadFile(filepath.Join(dir, FileTimes))
	if err != nil {
		t.Fatalf("read times: %v", err)
	}
	if got, want := string(times), "0\t0.0\n"; got != want {
		t.Errorf("times = %q, want %q", got, want)
	}
}
