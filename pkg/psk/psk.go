// Package psk reads and writes ActorX skeletal mesh (PSK) files.
//
// A PSK file is a chunk stream (see package chunk) carrying flat record
// tables: points, wedges, triangle faces, materials, bones and bone
// weights, plus optional sections appended by later exporters (extra UV
// channels, vertex colors, vertex normals, 32-bit faces).
package psk

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/skelmesh/actorx/pkg/chunk"
	"github.com/skelmesh/actorx/pkg/encoding"
)

var (
	ErrInvalidHeader   = errors.New("psk: missing ACTRHEAD header section")
	ErrMissingSection  = errors.New("psk: missing required section")
	ErrBadRecordSize   = errors.New("psk: unexpected record size")
	ErrIndexOutOfRange = errors.New("psk: record index out of range")
)

// Section IDs. Wedge and face sections exist in a 16-bit and a 32-bit
// variant; extra UV sections are numbered per channel.
const (
	sectionHeader    = "ACTRHEAD"
	sectionPoints    = "PNTS0000"
	sectionWedges    = "VTXW0000"
	sectionFaces     = "FACE0000"
	sectionFaces32   = "FACE3200"
	sectionMaterials = "MATT0000"
	sectionBones     = "REFSKELT"
	sectionWeights   = "RAWWEIGHTS"
	sectionExtraUVs  = "EXTRAUVS"
	sectionColors    = "VERTEXCOLOR"
	sectionNormals   = "VTXNORMS"
)

// nameFieldSize is the fixed width of bone and material name fields.
const nameFieldSize = 64

// Point is one position record.
type Point struct {
	X, Y, Z float32
}

// Wedge attaches a point to a UV coordinate and a material slot.
// The on-disk record uses a 16-bit point index when the wedge count
// fits, a 32-bit index otherwise; both normalize to this form.
type Wedge struct {
	PointIndex    uint32
	U, V          float32
	MaterialIndex uint8
}

// Face is one triangle: three wedge indices plus material attachment.
// Wedge indices are stored in the file's winding, which is reversed
// relative to the output topology (see pkg/mesh).
type Face struct {
	WedgeIndex       [3]uint32
	MaterialIndex    uint8
	AuxMaterialIndex uint8
	SmoothingGroups  uint32
}

// Material is one material slot.
type Material struct {
	Name         [nameFieldSize]byte
	TextureIndex int32
	PolyFlags    uint32
	AuxMaterial  int32
	AuxFlags     uint32
	LodBias      int32
	LodStyle     int32
}

// Bone is one bind-pose bone record. Rotation is stored x, y, z, w.
// The root bone stores ParentIndex 0, the same as its own index.
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

// Weight binds one point to one bone with an influence in [0, 1].
type Weight struct {
	Weight     float32
	PointIndex int32
	BoneIndex  int32
}

// ExtraUV is one entry of an additional UV channel, stored per wedge in
// channel-sized blocks.
type ExtraUV struct {
	U, V float32
}

// Color is one per-wedge RGBA vertex color.
type Color struct {
	R, G, B, A uint8
}

// Normal is one per-point vertex normal.
type Normal struct {
	X, Y, Z float32
}

// File is a parsed PSK file.
type File struct {
	Points    []Point
	Wedges    []Wedge
	Faces     []Face
	Materials []Material
	Bones     []Bone
	Weights   []Weight

	// ExtraUVs holds all extra channels concatenated: channel c covers
	// ExtraUVs[c*len(Wedges) : (c+1)*len(Wedges)].
	ExtraUVs []ExtraUV
	// Colors is per wedge, same length as Wedges, or empty.
	Colors []Color
	// Normals is per point, same length as Points, or empty.
	Normals []Normal
}

// wire layouts for the two wedge record variants; both are 16 bytes.
type wedge16 struct {
	PointIndex uint16
	Padding    uint16
	U, V       float32
	MatIndex   uint8
	Reserved   uint8
	Padding2   uint16
}

type wedge32 struct {
	PointIndex uint32
	U, V       float32
	MatIndex   uint8
	Reserved   uint8
	Padding    uint16
}

// face16 is the 12-byte FACE0000 record.
type face16 struct {
	WedgeIndex      [3]uint16
	MatIndex        uint8
	AuxMatIndex     uint8
	SmoothingGroups uint32
}

// face32 is the 18-byte FACE3200 record for meshes past 64k wedges.
type face32 struct {
	WedgeIndex      [3]uint32
	MatIndex        uint8
	AuxMatIndex     uint8
	SmoothingGroups uint32
}

const (
	pointSize    = 12
	wedgeSize    = 16
	faceSize     = 12
	face32Size   = 18
	materialSize = 88
	boneSize     = 120
	weightSize   = 12
	extraUVSize  = 8
	colorSize    = 4
	normalSize   = 12
)

// wedge16Threshold is the highest wedge count readable through the
// 16-bit record variant.
const wedge16Threshold = 65536

// Parse reads a PSK file from data.
func Parse(data []byte) (*File, error) {
	sections, err := chunk.ReadAll(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if len(sections) == 0 || sections[0].Name() != sectionHeader {
		return nil, ErrInvalidHeader
	}

	f := &File{}
	var havePoints, haveWedges, haveFaces, haveMaterials, haveBones bool

	for _, sec := range sections[1:] {
		name := sec.Name()
		switch {
		case name == sectionPoints:
			f.Points = make([]Point, sec.DataCount)
			if err := decodeSection(sec, pointSize, &f.Points); err != nil {
				return nil, err
			}
			havePoints = true

		case name == sectionWedges:
			if err := f.decodeWedges(sec); err != nil {
				return nil, err
			}
			haveWedges = true

		case name == sectionFaces:
			raw := make([]face16, sec.DataCount)
			if err := decodeSection(sec, faceSize, &raw); err != nil {
				return nil, err
			}
			f.Faces = make([]Face, len(raw))
			for i, r := range raw {
				f.Faces[i] = Face{
					WedgeIndex:       [3]uint32{uint32(r.WedgeIndex[0]), uint32(r.WedgeIndex[1]), uint32(r.WedgeIndex[2])},
					MaterialIndex:    r.MatIndex,
					AuxMaterialIndex: r.AuxMatIndex,
					SmoothingGroups:  r.SmoothingGroups,
				}
			}
			haveFaces = true

		case name == sectionFaces32:
			raw := make([]face32, sec.DataCount)
			if err := decodeSection(sec, face32Size, &raw); err != nil {
				return nil, err
			}
			f.Faces = make([]Face, len(raw))
			for i, r := range raw {
				f.Faces[i] = Face{
					WedgeIndex:       r.WedgeIndex,
					MaterialIndex:    r.MatIndex,
					AuxMaterialIndex: r.AuxMatIndex,
					SmoothingGroups:  r.SmoothingGroups,
				}
			}
			haveFaces = true

		case name == sectionMaterials:
			f.Materials = make([]Material, sec.DataCount)
			if err := decodeSection(sec, materialSize, &f.Materials); err != nil {
				return nil, err
			}
			haveMaterials = true

		case name == sectionBones:
			f.Bones = make([]Bone, sec.DataCount)
			if err := decodeSection(sec, boneSize, &f.Bones); err != nil {
				return nil, err
			}
			haveBones = true

		case name == sectionWeights:
			f.Weights = make([]Weight, sec.DataCount)
			if err := decodeSection(sec, weightSize, &f.Weights); err != nil {
				return nil, err
			}

		case strings.HasPrefix(name, sectionExtraUVs):
			uvs := make([]ExtraUV, sec.DataCount)
			if err := decodeSection(sec, extraUVSize, &uvs); err != nil {
				return nil, err
			}
			f.ExtraUVs = append(f.ExtraUVs, uvs...)

		case name == sectionColors:
			f.Colors = make([]Color, sec.DataCount)
			if err := decodeSection(sec, colorSize, &f.Colors); err != nil {
				return nil, err
			}

		case name == sectionNormals:
			f.Normals = make([]Normal, sec.DataCount)
			if err := decodeSection(sec, normalSize, &f.Normals); err != nil {
				return nil, err
			}

		default:
			// Unknown sections are skipped for forward compatibility.
		}
	}

	required := []struct {
		name string
		ok   bool
	}{
		{sectionPoints, havePoints},
		{sectionWedges, haveWedges},
		{sectionFaces, haveFaces},
		{sectionMaterials, haveMaterials},
		{sectionBones, haveBones},
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

func (f *File) decodeWedges(sec *chunk.Section) error {
	// The two variants share a record size; the count decides which one
	// was written, since 16-bit point indices top out at 64k wedges.
	if sec.DataCount <= wedge16Threshold {
		raw := make([]wedge16, sec.DataCount)
		if err := decodeSection(sec, wedgeSize, &raw); err != nil {
			return err
		}
		f.Wedges = make([]Wedge, len(raw))
		for i, r := range raw {
			f.Wedges[i] = Wedge{
				PointIndex:    uint32(r.PointIndex),
				U:             r.U,
				V:             r.V,
				MaterialIndex: r.MatIndex,
			}
		}
		return nil
	}
	raw := make([]wedge32, sec.DataCount)
	if err := decodeSection(sec, wedgeSize, &raw); err != nil {
		return err
	}
	f.Wedges = make([]Wedge, len(raw))
	for i, r := range raw {
		f.Wedges[i] = Wedge{
			PointIndex:    r.PointIndex,
			U:             r.U,
			V:             r.V,
			MaterialIndex: r.MatIndex,
		}
	}
	return nil
}

// Validate checks cross-record index references and attribute stream
// lengths. Failures here are structural: the file cannot be assembled.
// Parse and Write run it; callers building a File by hand can too.
func (f *File) Validate() error {
	for i, w := range f.Wedges {
		if int(w.PointIndex) >= len(f.Points) {
			return fmt.Errorf("%w: wedge %d references point %d of %d", ErrIndexOutOfRange, i, w.PointIndex, len(f.Points))
		}
	}
	for i, face := range f.Faces {
		for _, wi := range face.WedgeIndex {
			if int(wi) >= len(f.Wedges) {
				return fmt.Errorf("%w: face %d references wedge %d of %d", ErrIndexOutOfRange, i, wi, len(f.Wedges))
			}
		}
	}
	for i, wt := range f.Weights {
		if wt.PointIndex < 0 || int(wt.PointIndex) >= len(f.Points) {
			return fmt.Errorf("%w: weight %d references point %d of %d", ErrIndexOutOfRange, i, wt.PointIndex, len(f.Points))
		}
		if wt.BoneIndex < 0 || int(wt.BoneIndex) >= len(f.Bones) {
			return fmt.Errorf("%w: weight %d references bone %d of %d", ErrIndexOutOfRange, i, wt.BoneIndex, len(f.Bones))
		}
	}
	if len(f.Wedges) > 0 && len(f.ExtraUVs)%len(f.Wedges) != 0 {
		return fmt.Errorf("%w: %d extra UVs is not a whole number of %d-wedge channels", ErrBadRecordSize, len(f.ExtraUVs), len(f.Wedges))
	}
	if len(f.Colors) > 0 && len(f.Colors) != len(f.Wedges) {
		return fmt.Errorf("%w: %d vertex colors for %d wedges", ErrBadRecordSize, len(f.Colors), len(f.Wedges))
	}
	if len(f.Normals) > 0 && len(f.Normals) != len(f.Points) {
		return fmt.Errorf("%w: %d vertex normals for %d points", ErrBadRecordSize, len(f.Normals), len(f.Points))
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

// MaterialName returns the decoded name of material i.
func (f *File) MaterialName(i int) string {
	return encoding.DecodeName(f.Materials[i].Name[:])
}

// ExtraUVChannelCount returns the number of extra UV channels.
func (f *File) ExtraUVChannelCount() int {
	if len(f.Wedges) == 0 {
		return 0
	}
	return len(f.ExtraUVs) / len(f.Wedges)
}

// ExtraUVChannel returns channel c as a per-wedge slice.
func (f *File) ExtraUVChannel(c int) []ExtraUV {
	n := len(f.Wedges)
	return f.ExtraUVs[c*n : (c+1)*n]
}

// HasExtraUVs reports whether any extra UV channel is present.
func (f *File) HasExtraUVs() bool {
	return len(f.ExtraUVs) > 0
}

// HasVertexColors reports whether per-wedge colors are present.
func (f *File) HasVertexColors() bool {
	return len(f.Colors) > 0
}

// HasVertexNormals reports whether per-point normals are present.
func (f *File) HasVertexNormals() bool {
	return len(f.Normals) > 0
}
