// axtool is a CLI utility for working with ActorX mesh (PSK) and
// animation (PSA) files.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/skelmesh/actorx/internal/config"
	"github.com/skelmesh/actorx/internal/converter"
	"github.com/skelmesh/actorx/internal/logger"
	"github.com/skelmesh/actorx/pkg/chunk"
	"github.com/skelmesh/actorx/pkg/mesh"
	"github.com/skelmesh/actorx/pkg/psa"
	"github.com/skelmesh/actorx/pkg/psk"
	"github.com/skelmesh/actorx/pkg/skeleton"
)

func main() {
	config.ParseFlags()
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if flag.NArg() < 1 {
		printUsage()
		os.Exit(1)
	}

	command := flag.Arg(0)
	args := flag.Args()[1:]

	switch command {
	case "info":
		cmdInfo(args)
	case "bones":
		cmdBones(args)
	case "anims", "sequences":
		cmdAnims(args)
	case "extract", "x":
		cmdExtract(args)
	case "strip":
		cmdStrip(args)
	case "convert":
		cmdConvert(cfg, args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`axtool - ActorX mesh and animation file utility

Usage:
  axtool [global options] <command> [options]

Commands:
  info <file.psk|file.psa>                   Show the file's section table
  bones <file.psk|file.psa>                  Show the decoded bone tree
  anims <file.psa>                           List animation sequences
  extract -seq NAME [-o out.psa] <file.psa>  Extract one sequence
  strip [-o out.psk] <file.psk>              Drop degenerate faces
  convert -mesh rig.psk [options] <file.psa> Retarget sequences onto a rig

Global options:
  -config PATH    Use this config file
  -debug          Enable debug logging
  -log-file PATH  Write logs to this file

Convert options:
  -seq A,B        Convert only these sequences (default: all)
  -epsilon F      Key thinning threshold (default from config)
  -raw            Keep every key, no thinning
  -o DIR          Output directory (default .)

Examples:
  axtool info model.psk
  axtool anims moves.psa
  axtool extract -seq Walk -o walk.psa moves.psa
  axtool convert -mesh model.psk -o curves moves.psa`)
}

// loadMesh reads and parses a PSK file.
func loadMesh(path string) (*psk.File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return psk.Parse(data)
}

// loadAnims reads and parses a PSA file.
func loadAnims(path string) (*psa.File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return psa.Parse(data)
}

// loadSkeleton builds the skeleton out of either file kind, picked by
// extension.
func loadSkeleton(path string) (*skeleton.Skeleton, error) {
	if strings.EqualFold(filepath.Ext(path), ".psa") {
		f, err := loadAnims(path)
		if err != nil {
			return nil, err
		}
		return skeleton.FromPSA(f)
	}
	f, err := loadMesh(path)
	if err != nil {
		return nil, err
	}
	return skeleton.FromPSK(f)
}

func cmdInfo(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: axtool info <file.psk|file.psa>")
		os.Exit(1)
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	sections, err := chunk.ReadAll(bytes.NewReader(data))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("File:     %s\n", args[0])
	fmt.Printf("Sections: %d\n", len(sections))
	fmt.Println()
	fmt.Printf("%-20s %10s %10s %12s\n", "id", "size", "count", "bytes")
	for _, sec := range sections {
		fmt.Printf("%-20s %10d %10d %12d\n", sec.Name(), sec.DataSize, sec.DataCount, len(sec.Data))
	}
}

func cmdBones(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: axtool bones <file.psk|file.psa>")
		os.Exit(1)
	}

	s, err := loadSkeleton(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Bones: %d\n\n", len(s.Bones))
	printBoneTree(s, 0, 0)
}

// printBoneTree prints bone i and its subtree, indented by depth.
func printBoneTree(s *skeleton.Skeleton, i, depth int) {
	b := &s.Bones[i]
	indent := strings.Repeat("  ", depth)
	if s.IsRoot(i) {
		fmt.Printf("%3d %s%s\n", i, indent, b.Name)
	} else {
		fmt.Printf("%3d %s%s (parent %d)\n", i, indent, b.Name, b.Parent)
	}
	for _, c := range s.Children(i) {
		printBoneTree(s, c, depth+1)
	}
}

func cmdAnims(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: axtool anims <file.psa>")
		os.Exit(1)
	}

	f, err := loadAnims(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Sequences: %d  Bones: %d  Keys: %d\n", len(f.Sequences), len(f.Bones), len(f.Keys))
	fmt.Println()
	fmt.Printf("%-32s %8s %8s %10s\n", "name", "frames", "fps", "key off")
	for i := range f.Sequences {
		seq := &f.Sequences[i]
		offset := int(seq.FirstRawFrame) * len(f.Bones)
		fmt.Printf("%-32s %8d %8.1f %10d\n", f.SequenceName(i), seq.NumRawFrames, seq.FramesPerSecond, offset)
	}
}

func cmdExtract(args []string) {
	fs := flag.NewFlagSet("extract", flag.ExitOnError)
	seq := fs.String("seq", "", "Sequence name to extract")
	out := fs.String("o", "", "Output file (default <name>.psa)")
	fs.Parse(args)

	if fs.NArg() < 1 || *seq == "" {
		fmt.Fprintln(os.Stderr, "Usage: axtool extract -seq NAME [-o out.psa] <file.psa>")
		os.Exit(1)
	}

	f, err := loadAnims(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	single, err := f.ExtractSequence(*seq)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	outPath := *out
	if outPath == "" {
		outPath = *seq + ".psa"
	}

	var buf bytes.Buffer
	if err := single.Write(&buf); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(outPath, buf.Bytes(), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Extracted: %s (%d frames, %d keys)\n", outPath, single.Sequences[0].NumRawFrames, len(single.Keys))
}

func cmdStrip(args []string) {
	fs := flag.NewFlagSet("strip", flag.ExitOnError)
	out := fs.String("o", "", "Output file (default <name>.stripped.psk)")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: axtool strip [-o out.psk] <file.psk>")
		os.Exit(1)
	}

	path := fs.Arg(0)
	f, err := loadMesh(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Stream options do not matter here; degeneracy is pure topology.
	_, warns, err := mesh.Assemble(f, mesh.Options{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	degenerate := make(map[int]bool, len(warns.DegenerateFaces))
	for _, fi := range warns.DegenerateFaces {
		degenerate[fi] = true
	}
	total := len(f.Faces)
	kept := make([]psk.Face, 0, total-len(degenerate))
	for fi := range f.Faces {
		if !degenerate[fi] {
			kept = append(kept, f.Faces[fi])
		}
	}
	f.Faces = kept

	outPath := *out
	if outPath == "" {
		outPath = strings.TrimSuffix(path, filepath.Ext(path)) + ".stripped.psk"
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(outPath, buf.Bytes(), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Stripped: %s (%d of %d faces dropped)\n", outPath, len(warns.DegenerateFaces), total)
}

func cmdConvert(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("convert", flag.ExitOnError)
	meshPath := fs.String("mesh", "", "Target rig PSK file")
	seqList := fs.String("seq", "", "Comma-separated sequence names (default: all)")
	epsilon := fs.Float64("epsilon", cfg.Anim.KeyEpsilon, "Key thinning threshold")
	raw := fs.Bool("raw", false, "Keep every key, no thinning")
	outDir := fs.String("o", ".", "Output directory")
	fs.Parse(args)

	if fs.NArg() < 1 || *meshPath == "" {
		fmt.Fprintln(os.Stderr, "Usage: axtool convert -mesh rig.psk [-seq A,B] [-epsilon F] [-raw] [-o DIR] <file.psa>")
		os.Exit(1)
	}

	rig, err := loadMesh(*meshPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	anims, err := loadAnims(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Surface rig topology problems before converting onto it.
	if _, warns, err := mesh.Assemble(rig, cfg.MeshOptions()); err == nil {
		if n := len(warns.DegenerateFaces); n > 0 {
			logger.Warn("target mesh has degenerate faces", zap.Int("faces", n))
		}
		if n := len(warns.AmbiguousColors); n > 0 {
			logger.Warn("target mesh has ambiguous vertex colors", zap.Int("vertices", n))
		}
	}

	opts := converter.DefaultOptions()
	opts.Retarget = cfg.AnimOptions()
	opts.Retarget.Epsilon = *epsilon
	if *raw {
		opts.Retarget.CleanKeys = false
	}
	opts.OutputDir = *outDir
	for _, name := range strings.Split(*seqList, ",") {
		if name = strings.TrimSpace(name); name != "" {
			opts.Sequences = append(opts.Sequences, name)
		}
	}

	results, err := converter.Run(rig, anims, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	failed := 0
	for _, res := range results {
		if res.Err != nil {
			fmt.Fprintf(os.Stderr, "Failed: %s: %v\n", res.Name, res.Err)
			failed++
			continue
		}
		fmt.Printf("Converted: %s (%d frames, %d of %d keys kept)\n", res.Name, res.Frames, res.Kept, res.Total)
	}
	if failed > 0 {
		fmt.Fprintf(os.Stderr, "\n%d of %d sequences failed\n", failed, len(results))
		os.Exit(1)
	}
}
