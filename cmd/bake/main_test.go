package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/duskforge/animgraph/graph"
)

const sampleYAML = `
clips: [idle, walk]
defaultState: idle
parameters:
  - name: go
    type: bool
states:
  - name: idle
    kind: single
    clip: idle
    loop: true
    transitions:
      - to: walk
        durationS: 0.25
        conditions:
          - parameter: go
            comparator: boolTrue
  - name: walk
    kind: single
    clip: walk
    loop: true
`

func TestRunBakesAndWritesBlob(t *testing.T) {
	dir := t.TempDir()
	inPath := filepath.Join(dir, "graph.yaml")
	outPath := filepath.Join(dir, "graph.blob")

	if err := os.WriteFile(inPath, []byte(sampleYAML), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	if err := run(inPath, outPath, true); err != nil {
		t.Fatalf("run: %v", err)
	}

	blob, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read blob: %v", err)
	}

	decoded, err := graph.Decode(bytes.NewReader(blob))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(decoded.States) != 2 {
		t.Fatalf("expected 2 states, got %d", len(decoded.States))
	}
}

func TestRunRejectsMissingFile(t *testing.T) {
	dir := t.TempDir()
	if err := run(filepath.Join(dir, "missing.yaml"), filepath.Join(dir, "out.blob"), false); err == nil {
		t.Fatal("expected an error for a missing input file")
	}
}
