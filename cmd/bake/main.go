// Command bake reads an authored YAML state-machine graph
// (graph.AuthoredGraph) and bakes it to the immutable binary blob the
// runtime loads.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/duskforge/animgraph/graph"
)

func main() {
	var (
		in      = flag.String("in", "", "path to the authored YAML graph (required)")
		out     = flag.String("out", "", "path to write the baked blob (required)")
		preview = flag.Bool("preview", false, "print a summary of the baked graph instead of (in addition to) writing it")
	)
	flag.Parse()

	if *in == "" || *out == "" {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(*in, *out, *preview); err != nil {
		log.Fatalf("bake: %v", err)
	}
}

func run(inPath, outPath string, preview bool) error {
	f, err := os.Open(inPath)
	if err != nil {
		return fmt.Errorf("open authored graph: %w", err)
	}
	defer f.Close()

	authored, err := graph.LoadAuthored(f)
	if err != nil {
		return err
	}

	baked, err := graph.Bake(authored)
	if err != nil {
		return fmt.Errorf("bake: %w", err)
	}

	blob, err := graph.EncodeBytes(baked)
	if err != nil {
		return fmt.Errorf("encode blob: %w", err)
	}

	if err := os.WriteFile(outPath, blob, 0o644); err != nil {
		return fmt.Errorf("write blob: %w", err)
	}

	log.Printf("bake: wrote %d bytes (%d states, %d any-state, %d exit groups) to %s",
		len(blob), len(baked.States), len(baked.AnyStateTransitions), len(baked.ExitGroups), outPath)

	if preview {
		printPreview(authored, baked)
	}

	return nil
}

// printPreview renders a dry-run summary of the baked graph. It only needs
// clip names (clip indices resolve positionally from AuthoredGraph.Clips),
// so it never touches a real clip.Library.
func printPreview(authored *graph.AuthoredGraph, g *graph.Graph) {
	fmt.Printf("default state: %q (index %d)\n", authored.DefaultState, g.DefaultStateIndex)
	for i, s := range g.States {
		name := "?"
		if i < len(authored.States) {
			name = authored.States[i].Name
		}
		fmt.Printf("  state %d %q kind=%v loop=%v transitions=%d exitGroup=%d\n",
			i, name, s.Kind, s.Loop, len(s.Transitions), s.ExitGroupIndex)
	}
	fmt.Printf("any-state transitions: %d\n", len(g.AnyStateTransitions))
	fmt.Printf("exit groups: %d\n", len(g.ExitGroups))
	fmt.Printf("clips referenced: %d\n", len(authored.Clips))
}
