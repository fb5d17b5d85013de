// Package retarget rewrites the world-space animation samples of a
// sequence into bone-local space on a target skeleton, then thins
// redundant keyframes per channel.
//
// Bones are matched by exact name. Source tracks without a target
// bone are reported, never converted; target bones without a source
// track are left untouched. Conversion is atomic per sequence, and
// independent sequences can convert concurrently as long as nothing
// mutates the target skeleton underneath them.
package retarget

import (
	"errors"
	"fmt"

	"github.com/skelmesh/actorx/pkg/math"
	"github.com/skelmesh/actorx/pkg/psa"
	"github.com/skelmesh/actorx/pkg/skeleton"
)

var (
	ErrFrameCount = errors.New("retarget: reference frames do not match target skeleton")
	ErrTrackCount = errors.New("retarget: track names do not match sample matrix")
)

// DefaultEpsilon is the per-channel thinning threshold used when the
// caller does not supply one.
const DefaultEpsilon = 0.001

// Sequence is one animation's raw world-space sample block, with one
// track per source bone in bone-table order.
type Sequence struct {
	Name            string
	FramesPerSecond float64
	BoneNames       []string
	Samples         *Matrix
}

// RawSequence decodes sequence i of an animation file into a dense
// sample matrix.
func RawSequence(f *psa.File, i int) (*Sequence, error) {
	if i < 0 || i >= len(f.Sequences) {
		return nil, fmt.Errorf("retarget: sequence index %d of %d", i, len(f.Sequences))
	}
	info := &f.Sequences[i]
	keys := f.SequenceKeys(i)
	bones := len(f.Bones)
	frames := int(info.NumRawFrames)

	seq := &Sequence{
		Name:            f.SequenceName(i),
		FramesPerSecond: float64(info.FramesPerSecond),
		BoneNames:       make([]string, bones),
		Samples:         NewMatrix(frames, bones),
	}
	for b := 0; b < bones; b++ {
		seq.BoneNames[b] = f.BoneName(b)
	}
	for frame := 0; frame < frames; frame++ {
		for b := 0; b < bones; b++ {
			key := &keys[frame*bones+b]
			seq.Samples.Set(frame, b, ChanRotW, float64(key.Rotation[3]))
			seq.Samples.Set(frame, b, ChanRotX, float64(key.Rotation[0]))
			seq.Samples.Set(frame, b, ChanRotY, float64(key.Rotation[1]))
			seq.Samples.Set(frame, b, ChanRotZ, float64(key.Rotation[2]))
			seq.Samples.Set(frame, b, ChanLocX, float64(key.Position[0]))
			seq.Samples.Set(frame, b, ChanLocY, float64(key.Position[1]))
			seq.Samples.Set(frame, b, ChanLocZ, float64(key.Position[2]))
		}
	}
	return seq, nil
}

// Mapping relates source animation tracks to target skeleton bones.
type Mapping struct {
	// TargetIndex holds, per source track, the index of the target
	// bone with the same name, or -1 when the target has none.
	TargetIndex []int
	// Unmapped lists the source bone names without a target match, in
	// track order.
	Unmapped []string
}

// Mapped reports whether source track i found a target bone.
func (m *Mapping) Mapped(i int) bool {
	return m.TargetIndex[i] >= 0
}

// MapBones matches source bone names against a target skeleton by
// exact name.
func MapBones(source []string, target *skeleton.Skeleton) Mapping {
	m := Mapping{TargetIndex: make([]int, len(source))}
	for i, name := range source {
		if ti, ok := target.BoneIndex(name); ok {
			m.TargetIndex[i] = ti
		} else {
			m.TargetIndex[i] = -1
			m.Unmapped = append(m.Unmapped, name)
		}
	}
	return m
}

// Options control a conversion run.
type Options struct {
	// CleanKeys enables keyframe thinning of the converted samples.
	CleanKeys bool
	// Epsilon is the minimum change against the last kept frame for a
	// sample to survive thinning.
	Epsilon float64
}

// DefaultOptions returns the conversion defaults: thinning on, at
// DefaultEpsilon.
func DefaultOptions() Options {
	return Options{CleanKeys: true, Epsilon: DefaultEpsilon}
}

// Result is one converted sequence: local-space samples, the keep
// matrix of identical shape, and the tracks that failed to map.
type Result struct {
	Name            string
	FramesPerSecond float64
	BoneNames       []string
	Local           *Matrix
	Keep            *KeepMatrix
	Unmapped        []string
	Mapping         Mapping
}

// Convert rewrites a sequence's world-space samples into local space
// on the target skeleton and thins the result.
//
// frames must be the target skeleton's bind-pose reference frames,
// one per target bone. Unmapped tracks keep their raw samples in the
// output matrix with every frame dropped in the keep matrix, so
// downstream writers emit nothing for them.
func Convert(seq *Sequence, target *skeleton.Skeleton, frames []skeleton.RefFrame, opts Options) (*Result, error) {
	if len(frames) != len(target.Bones) {
		return nil, fmt.Errorf("%w: %d frames for %d bones", ErrFrameCount, len(frames), len(target.Bones))
	}
	if seq.Samples.Bones() != len(seq.BoneNames) {
		return nil, fmt.Errorf("%w: %d names for %d tracks", ErrTrackCount, len(seq.BoneNames), seq.Samples.Bones())
	}

	mapping := MapBones(seq.BoneNames, target)
	local := NewMatrix(seq.Samples.Frames(), seq.Samples.Bones())

	for track := range seq.BoneNames {
		ti := mapping.TargetIndex[track]
		if ti < 0 {
			copyTrack(local, seq.Samples, track)
			continue
		}
		convertTrack(local, seq.Samples, track, &frames[ti], target.IsRoot(ti))
	}

	keep := KeepAll(local.Frames(), local.Bones())
	if opts.CleanKeys {
		keep = Thin(local, opts.Epsilon)
	}
	for track := range seq.BoneNames {
		if !mapping.Mapped(track) {
			keep.ClearBone(track)
		}
	}

	return &Result{
		Name:            seq.Name,
		FramesPerSecond: seq.FramesPerSecond,
		BoneNames:       append([]string(nil), seq.BoneNames...),
		Local:           local,
		Keep:            keep,
		Unmapped:        mapping.Unmapped,
		Mapping:         mapping,
	}, nil
}

// convertTrack applies the frame correction to every sample of one
// track. The root's key rotation is conjugated first because it has
// no parent frame carrying the file's axis convention; any sign or
// order slip here flips or drifts the whole animation.
func convertTrack(dst, src *Matrix, track int, ref *skeleton.RefFrame, root bool) {
	post := ref.PostQuat
	postInv := post.Conjugate()
	for frame := 0; frame < src.Frames(); frame++ {
		keyRot := math.Quat{
			X: src.At(frame, track, ChanRotX),
			Y: src.At(frame, track, ChanRotY),
			Z: src.At(frame, track, ChanRotZ),
			W: src.At(frame, track, ChanRotW),
		}
		keyLoc := math.Vec3{
			X: src.At(frame, track, ChanLocX),
			Y: src.At(frame, track, ChanLocY),
			Z: src.At(frame, track, ChanLocZ),
		}

		if root {
			keyRot = keyRot.Conjugate()
		}
		rot := postInv.Mul(keyRot.Conjugate()).Mul(ref.OrigQuat).Mul(post)
		loc := postInv.Rotate(keyLoc.Sub(ref.OrigLoc))

		dst.Set(frame, track, ChanRotW, rot.W)
		dst.Set(frame, track, ChanRotX, rot.X)
		dst.Set(frame, track, ChanRotY, rot.Y)
		dst.Set(frame, track, ChanRotZ, rot.Z)
		dst.Set(frame, track, ChanLocX, loc.X)
		dst.Set(frame, track, ChanLocY, loc.Y)
		dst.Set(frame, track, ChanLocZ, loc.Z)
	}
}

func copyTrack(dst, src *Matrix, track int) {
	for frame := 0; frame < src.Frames(); frame++ {
		for c := 0; c < ChannelCount; c++ {
			dst.Set(frame, track, c, src.At(frame, track, c))
		}
	}
}
