// Package psa reads and writes ActorX skeletal animation (PSA) files.
//
// A PSA file carries a bone table defining the skeleton the samples
// were authored against, a sequence header table, and one flat key
// table holding every sequence's per-frame-per-bone samples
// back to back, ordered by sequence, then frame, then bone.
package psa

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/skelmesh/actorx/pkg/chunk"
	"github.com/skelmesh/actorx/pkg/encoding"
)

var (
	ErrInvalidHeader   = errors.New("psa: missing ANIMHEAD header section")
	ErrMissingSection  = errors.New("psa: missing required section")
	ErrBadRecordSize   = errors.New("psa: unexpected record size")
	ErrTruncatedKeys   = errors.New("psa: key table too short for sequence")
	ErrUnknownSequence = errors.New("psa: no sequence with that name")
)

const (
	sectionHeader    = "ANIMHEAD"
	sectionBones     = "BONENAMES"
	sectionSequences = "ANIMINFO"
	sectionKeys      = "ANIMKEYS"
)

// nameFieldSize is the fixed width of bone, sequence and group names.
const nameFieldSize = 64

// Bone is one bone-table record, the same 120-byte layout the mesh
// format uses. Only the name and parent index matter for retargeting;
// the transform fields are a placeholder bind pose.
type Bone struct {
	Name        [nameFieldSize]byte
	Flags       uint32
	NumChildren int32
	ParentIndex int32
	Rotation    [4]float32
	Position    [3]float32
	Length      float32
	Size        [3]float32
}

// SequenceInfo is one sequence-header record.
type SequenceInfo struct {
	Name                [nameFieldSize]byte
	Group               [nameFieldSize]byte
	TotalBones          int32
	RootInclude         int32
	KeyCompressionStyle int32
	KeyQuotum           int32
	KeyReduction        float32
	TrackTime           float32
	FramesPerSecond     float32
	StartBone           int32
	FirstRawFrame       int32
	NumRawFrames        int32
}

// Key is one raw sample: world-space position and rotation for one
// bone at one frame. Rotation is stored x, y, z, w.
type Key struct {
	Position [3]float32
	Rotation [4]float32
	Time     float32
}

const (
	boneSize     = 120
	sequenceSize = 168
	keySize      = 32
)

// File is a parsed PSA file.
type File struct {
	Bones     []Bone
	Sequences []SequenceInfo
	Keys      []Key
}

// Parse reads a PSA file from data.
func Parse(data []byte) (*File, error) {
	sections, err := chunk.ReadAll(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if len(sections) == 0 || sections[0].Name() != sectionHeader {
		return nil, ErrInvalidHeader
	}

	f := &File{}
	var haveBones, haveSequences, haveKeys bool

	for _, sec := range sections[1:] {
		switch sec.Name() {
		case sectionBones:
			f.Bones = make([]Bone, sec.DataCount)
			if err := decodeSection(sec, boneSize, &f.Bones); err != nil {
				return nil, err
			}
			haveBones = true

		case sectionSequences:
			f.Sequences = make([]SequenceInfo, sec.DataCount)
			if err := decodeSection(sec, sequenceSize, &f.Sequences); err != nil {
				return nil, err
			}
			haveSequences = true

		case sectionKeys:
			f.Keys = make([]Key, sec.DataCount)
			if err := decodeSection(sec, keySize, &f.Keys); err != nil {
				return nil, err
			}
			haveKeys = true

		default:
			// SCALEKEYS and other extensions are skipped.
		}
	}

	required := []struct {
		name string
		ok   bool
	}{
		{sectionBones, haveBones},
		{sectionSequences, haveSequences},
		{sectionKeys, haveKeys},
	}
	for _, r := range required {
		if !r.ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingSection, r.name)
		}
	}

	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// Validate checks that every sequence's block fits inside the key
// table. The block spans frames*bones keys starting at
// first_raw_frame*bones, with the bone table's count authoritative.
// Parse and Write run it; callers building a File by hand can too.
func (f *File) Validate() error {
	boneCount := len(f.Bones)
	for i := range f.Sequences {
		seq := &f.Sequences[i]
		if seq.FirstRawFrame < 0 || seq.NumRawFrames < 0 {
			return fmt.Errorf("%w: sequence %q has first frame %d, frame count %d",
				ErrTruncatedKeys, f.SequenceName(i), seq.FirstRawFrame, seq.NumRawFrames)
		}
		end := (int(seq.FirstRawFrame) + int(seq.NumRawFrames)) * boneCount
		if end > len(f.Keys) {
			return fmt.Errorf("%w: sequence %q wants keys [%d, %d) of %d",
				ErrTruncatedKeys, f.SequenceName(i), int(seq.FirstRawFrame)*boneCount, end, len(f.Keys))
		}
	}
	return nil
}

func decodeSection(sec *chunk.Section, recordSize int, out any) error {
	if int(sec.DataSize) != recordSize {
		return fmt.Errorf("%w: %q has %d-byte records, want %d", ErrBadRecordSize, sec.Name(), sec.DataSize, recordSize)
	}
	if err := binary.Read(bytes.NewReader(sec.Data), binary.LittleEndian, out); err != nil {
		return fmt.Errorf("decoding %q records: %w", sec.Name(), err)
	}
	return nil
}

// BoneName returns the decoded name of bone i.
func (f *File) BoneName(i int) string {
	return encoding.DecodeName(f.Bones[i].Name[:])
}

// SequenceName returns the decoded name of sequence i.
func (f *File) SequenceName(i int) string {
	return encoding.DecodeName(f.Sequences[i].Name[:])
}

// SequenceNames returns every sequence name in table order.
func (f *File) SequenceNames() []string {
	names := make([]string, len(f.Sequences))
	for i := range f.Sequences {
		names[i] = f.SequenceName(i)
	}
	return names
}

// SequenceByName finds a sequence header by decoded name.
func (f *File) SequenceByName(name string) (*SequenceInfo, bool) {
	for i := range f.Sequences {
		if f.SequenceName(i) == name {
			return &f.Sequences[i], true
		}
	}
	return nil, false
}

// SequenceKeys returns sequence i's contiguous sample block, frame
// major: keys[frame*bones+bone] is the sample for one bone at one
// frame.
func (f *File) SequenceKeys(i int) []Key {
	seq := &f.Sequences[i]
	boneCount := len(f.Bones)
	start := int(seq.FirstRawFrame) * boneCount
	return f.Keys[start : start+int(seq.NumRawFrames)*boneCount]
}

// ExtractSequence builds a standalone single-sequence file: same bone
// table, the one header rebased to key offset zero, and just that
// sequence's slice of the key table.
func (f *File) ExtractSequence(name string) (*File, error) {
	for i := range f.Sequences {
		if f.SequenceName(i) != name {
			continue
		}
		seq := f.Sequences[i]
		seq.FirstRawFrame = 0

		keys := f.SequenceKeys(i)
		out := &File{
			Bones:     append([]Bone(nil), f.Bones...),
			Sequences: []SequenceInfo{seq},
			Keys:      append([]Key(nil), keys...),
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownSequence, name)
}
