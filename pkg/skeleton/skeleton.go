// Package skeleton builds bone hierarchies from the flat bone tables
// of mesh and animation files, and derives the bind-pose reference
// frames animation retargeting needs.
//
// Bone records store rotations in the file's convention: the root
// faces forward, every other bone is stored inverse-facing relative to
// its parent. World transforms composed here fold that flip back in.
package skeleton

import (
	"errors"
	"fmt"

	"github.com/skelmesh/actorx/pkg/math"
	"github.com/skelmesh/actorx/pkg/psa"
	"github.com/skelmesh/actorx/pkg/psk"
)

var (
	ErrNoBones   = errors.New("skeleton: empty bone table")
	ErrBadParent = errors.New("skeleton: parent index out of range")
	ErrCycle     = errors.New("skeleton: parent reference is not an earlier bone")
)

// RootIndex is the Parent sentinel for root bones.
const RootIndex = -1

// BoneDef is the neutral decoded form of one bone-table record.
type BoneDef struct {
	Name        string
	ParentIndex int
	Rotation    math.Quat
	Translation math.Vec3
}

// Bone is one bone of a built skeleton. Local transforms keep the
// file-native convention exactly as stored; world transforms are the
// composed bind pose.
type Bone struct {
	Name             string
	Parent           int // index into the same skeleton, RootIndex for roots
	LocalRotation    math.Quat
	LocalTranslation math.Vec3
	WorldRotation    math.Quat
	WorldTranslation math.Vec3
}

// Skeleton is an immutable bone tree in table order.
type Skeleton struct {
	Bones  []Bone
	byName map[string]int
}

// Build composes a skeleton from decoded bone records.
//
// The bone at index 0 must be the root (its stored parent index is
// conventionally its own 0). Negative parent indices are clamped to 0
// first, matching how exporters encode "no parent". Every other bone
// must reference an earlier bone; forward or self references cannot
// form a valid tree.
func Build(defs []BoneDef) (*Skeleton, error) {
	if len(defs) == 0 {
		return nil, ErrNoBones
	}

	s := &Skeleton{
		Bones:  make([]Bone, len(defs)),
		byName: make(map[string]int, len(defs)),
	}

	for i, def := range defs {
		parent := def.ParentIndex
		if parent < 0 {
			parent = 0
		}
		if parent >= len(defs) {
			return nil, fmt.Errorf("%w: bone %d (%q) references parent %d of %d",
				ErrBadParent, i, def.Name, parent, len(defs))
		}

		bone := Bone{
			Name:             def.Name,
			LocalRotation:    def.Rotation,
			LocalTranslation: def.Translation,
		}

		if i == 0 {
			if parent != 0 {
				return nil, fmt.Errorf("%w: bone 0 (%q) must be the root, references parent %d",
					ErrBadParent, def.Name, parent)
			}
			// The root's stored rotation is already world-facing.
			bone.Parent = RootIndex
			bone.WorldRotation = def.Rotation
			bone.WorldTranslation = def.Translation
		} else {
			if parent >= i {
				return nil, fmt.Errorf("%w: bone %d (%q) references parent %d",
					ErrCycle, i, def.Name, parent)
			}
			p := &s.Bones[parent]
			bone.Parent = parent
			bone.WorldRotation = p.WorldRotation.Mul(def.Rotation.Conjugate())
			bone.WorldTranslation = p.WorldTranslation.Add(p.WorldRotation.Rotate(def.Translation))
		}

		s.Bones[i] = bone
		if _, exists := s.byName[def.Name]; !exists {
			s.byName[def.Name] = i
		}
	}
	return s, nil
}

// FromPSK builds the skeleton of a mesh file.
func FromPSK(f *psk.File) (*Skeleton, error) {
	defs := make([]BoneDef, len(f.Bones))
	for i, b := range f.Bones {
		defs[i] = boneDef(f.BoneName(i), b.ParentIndex, b.Rotation, b.Position)
	}
	return Build(defs)
}

// FromPSA builds the skeleton an animation file was authored against.
// Its transforms are the placeholder bind pose from the bone table;
// name and parent structure are what retargeting consumes.
func FromPSA(f *psa.File) (*Skeleton, error) {
	defs := make([]BoneDef, len(f.Bones))
	for i, b := range f.Bones {
		defs[i] = boneDef(f.BoneName(i), b.ParentIndex, b.Rotation, b.Position)
	}
	return Build(defs)
}

func boneDef(name string, parent int32, rotation [4]float32, position [3]float32) BoneDef {
	return BoneDef{
		Name:        name,
		ParentIndex: int(parent),
		Rotation: math.Quat{
			X: float64(rotation[0]),
			Y: float64(rotation[1]),
			Z: float64(rotation[2]),
			W: float64(rotation[3]),
		},
		Translation: math.Vec3{
			X: float64(position[0]),
			Y: float64(position[1]),
			Z: float64(position[2]),
		},
	}
}

// BoneIndex returns the index of the first bone with the given name.
func (s *Skeleton) BoneIndex(name string) (int, bool) {
	i, ok := s.byName[name]
	return i, ok
}

// BoneNames returns all bone names in table order.
func (s *Skeleton) BoneNames() []string {
	names := make([]string, len(s.Bones))
	for i := range s.Bones {
		names[i] = s.Bones[i].Name
	}
	return names
}

// Children returns the indices of bone i's direct children.
func (s *Skeleton) Children(i int) []int {
	var children []int
	for j := range s.Bones {
		if s.Bones[j].Parent == i {
			children = append(children, j)
		}
	}
	return children
}

// IsRoot reports whether bone i has no parent.
func (s *Skeleton) IsRoot(i int) bool {
	return s.Bones[i].Parent == RootIndex
}
