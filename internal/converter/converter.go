// Package converter runs whole-file conversion jobs: build the target
// skeleton from a mesh file, retarget every selected animation
// sequence onto it, thin the keys and write one curve file per
// sequence.
//
// Sequences are independent, so the run fans out across a worker
// pool. Results come back in selection order regardless of worker
// count.
package converter

import (
	"fmt"
	"os"
	"runtime"
	"sync"

	"go.uber.org/zap"

	"github.com/skelmesh/actorx/internal/logger"
	"github.com/skelmesh/actorx/pkg/psa"
	"github.com/skelmesh/actorx/pkg/psk"
	"github.com/skelmesh/actorx/pkg/retarget"
	"github.com/skelmesh/actorx/pkg/skeleton"
)

// Options configure a conversion run.
type Options struct {
	// Sequences selects sequences by name. Empty converts them all.
	Sequences []string
	// Retarget controls sample conversion and key thinning.
	Retarget retarget.Options
	// Strategy picks how the target's bind-pose reference frames are
	// produced.
	Strategy skeleton.Strategy
	// Workers is the number of sequences converted concurrently. Zero
	// means one per CPU.
	Workers int
	// OutputDir receives one curve file per sequence.
	OutputDir string
}

// DefaultOptions returns the conversion defaults: every sequence,
// thinning on, cached bind-pose overrides, current directory output.
func DefaultOptions() Options {
	return Options{
		Retarget:  retarget.DefaultOptions(),
		Strategy:  skeleton.CachedOverride,
		OutputDir: ".",
	}
}

// SequenceResult is the outcome of converting one sequence.
type SequenceResult struct {
	Name     string
	Frames   int
	Kept     int
	Total    int
	Unmapped []string
	Path     string
	Err      error
}

// Run converts the selected sequences of anims onto the skeleton in
// mesh. It returns one result per selected sequence, in selection
// order; one sequence failing does not stop the others.
func Run(mesh *psk.File, anims *psa.File, opts Options) ([]SequenceResult, error) {
	target, err := skeleton.FromPSK(mesh)
	if err != nil {
		return nil, fmt.Errorf("building target skeleton: %w", err)
	}
	frames := skeleton.ReferenceFrames(target, opts.Strategy)

	selected, err := selectSequences(anims, opts.Sequences)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("creating output dir: %w", err)
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	logger.Info("converting sequences",
		zap.Int("sequences", len(selected)),
		zap.Int("bones", len(target.Bones)),
		zap.Int("workers", workers),
		zap.String("strategy", opts.Strategy.String()),
		zap.String("output", opts.OutputDir))

	results := make([]SequenceResult, len(selected))
	seqChan := make(chan int, workers*2)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range seqChan {
				results[idx] = convertOne(anims, selected[idx], target, frames, opts)
			}
		}()
	}
	for i := range selected {
		seqChan <- i
	}
	close(seqChan)
	wg.Wait()

	converted, failed := 0, 0
	for i := range results {
		if results[i].Err != nil {
			failed++
		} else {
			converted++
		}
	}
	logger.Info("conversion finished",
		zap.Int("converted", converted),
		zap.Int("failed", failed))
	return results, nil
}

// selectSequences resolves the requested names to sequence indices,
// or every sequence in file order when no names are given. Duplicate
// sequence names resolve to the first occurrence.
func selectSequences(f *psa.File, names []string) ([]int, error) {
	if len(names) == 0 {
		all := make([]int, len(f.Sequences))
		for i := range all {
			all[i] = i
		}
		return all, nil
	}

	index := make(map[string]int, len(f.Sequences))
	for i := range f.Sequences {
		name := f.SequenceName(i)
		if _, ok := index[name]; !ok {
			index[name] = i
		}
	}

	selected := make([]int, 0, len(names))
	for _, name := range names {
		i, ok := index[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", psa.ErrUnknownSequence, name)
		}
		selected = append(selected, i)
	}
	return selected, nil
}

func convertOne(anims *psa.File, seq int, target *skeleton.Skeleton, frames []skeleton.RefFrame, opts Options) SequenceResult {
	raw, err := retarget.RawSequence(anims, seq)
	if err != nil {
		logger.Error("decoding sequence failed",
			zap.String("sequence", anims.SequenceName(seq)),
			zap.Error(err))
		return SequenceResult{Name: anims.SequenceName(seq), Err: err}
	}
	out := SequenceResult{Name: raw.Name, Frames: raw.Samples.Frames()}

	res, err := retarget.Convert(raw, target, frames, opts.Retarget)
	if err != nil {
		logger.Error("converting sequence failed",
			zap.String("sequence", out.Name),
			zap.Error(err))
		out.Err = err
		return out
	}
	for _, name := range res.Unmapped {
		logger.Warn("bone not on target skeleton",
			zap.String("sequence", res.Name),
			zap.String("bone", name))
	}

	path, err := writeCurves(opts.OutputDir, res)
	if err != nil {
		logger.Error("writing curves failed",
			zap.String("sequence", out.Name),
			zap.Error(err))
		out.Err = err
		return out
	}

	out.Kept = res.Keep.KeptCount()
	out.Total = res.Keep.Total()
	out.Unmapped = res.Unmapped
	out.Path = path
	logger.Info("sequence converted",
		zap.String("sequence", out.Name),
		zap.Int("frames", out.Frames),
		zap.Int("kept", out.Kept),
		zap.Int("total", out.Total),
		zap.String("path", path))
	return out
}
