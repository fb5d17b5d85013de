package skeleton

import (
	"fmt"

	"github.com/skelmesh/actorx/pkg/math"
)

// Strategy selects how bind-pose reference frames are obtained.
type Strategy int

const (
	// CachedOverride reads the file-native local transforms retained
	// on the skeleton. Exact by construction; preferred whenever the
	// skeleton came from a mesh file.
	CachedOverride Strategy = iota

	// DeriveFromHierarchy recomputes local transforms by inverting the
	// composed world transforms. Agrees with CachedOverride to float
	// precision when both originate from the same file; exists for
	// rigs supplied with world-space data only.
	DeriveFromHierarchy
)

// String implements fmt.Stringer for log output.
func (s Strategy) String() string {
	switch s {
	case CachedOverride:
		return "cached-override"
	case DeriveFromHierarchy:
		return "derive-from-hierarchy"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// RefFrame holds one bone's reference quaternions for moving animation
// samples between the file's world-aligned convention and the bone's
// local space. PostQuat is always the conjugate of OrigQuat.
type RefFrame struct {
	OrigLoc  math.Vec3
	OrigQuat math.Quat
	PostQuat math.Quat
}

// ReferenceFrames computes the per-bone reference frames of a skeleton.
//
// In the stored convention the root's orig_quat is the conjugate of
// its bind rotation while every other bone's orig_quat is the bind
// rotation as stored; the asymmetry mirrors the root's forward-facing
// storage (see package doc).
func ReferenceFrames(s *Skeleton, strategy Strategy) []RefFrame {
	frames := make([]RefFrame, len(s.Bones))
	for i := range s.Bones {
		var orig math.Quat
		var loc math.Vec3

		switch strategy {
		case DeriveFromHierarchy:
			orig, loc = deriveLocal(s, i)
		default:
			orig = s.Bones[i].LocalRotation
			loc = s.Bones[i].LocalTranslation
		}

		if s.IsRoot(i) {
			orig = orig.Conjugate()
		}
		frames[i] = RefFrame{
			OrigLoc:  loc,
			OrigQuat: orig,
			PostQuat: orig.Conjugate(),
		}
	}
	return frames
}

// deriveLocal inverts the world composition of Build to recover a
// bone's file-convention local transform.
func deriveLocal(s *Skeleton, i int) (math.Quat, math.Vec3) {
	bone := &s.Bones[i]
	if bone.Parent == RootIndex {
		return bone.WorldRotation, bone.WorldTranslation
	}
	parent := &s.Bones[bone.Parent]

	// world = parentWorld * conj(local)  =>  local = conj(world) * parentWorld
	rotation := bone.WorldRotation.Conjugate().Mul(parent.WorldRotation)
	translation := parent.WorldRotation.Conjugate().Rotate(
		bone.WorldTranslation.Sub(parent.WorldTranslation))
	return rotation, translation
}
