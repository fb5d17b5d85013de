package psk

import (
	"fmt"
	"io"

	"github.com/skelmesh/actorx/pkg/chunk"
)

// Write serializes the file as a chunk stream in canonical section
// order. The record set is validated first, so a written file always
// parses back. Optional sections are emitted only when present.
func (f *File) Write(w io.Writer) error {
	if err := f.Validate(); err != nil {
		return err
	}

	if err := chunk.Write(w, sectionHeader, 0, 0, nil); err != nil {
		return err
	}
	if err := chunk.WriteRecords(w, sectionPoints, pointSize, f.Points); err != nil {
		return err
	}
	if err := f.writeWedges(w); err != nil {
		return err
	}
	if err := f.writeFaces(w); err != nil {
		return err
	}
	if err := chunk.WriteRecords(w, sectionMaterials, materialSize, f.Materials); err != nil {
		return err
	}
	if err := chunk.WriteRecords(w, sectionBones, boneSize, f.Bones); err != nil {
		return err
	}
	if err := chunk.WriteRecords(w, sectionWeights, weightSize, f.Weights); err != nil {
		return err
	}

	for c := 0; c < f.ExtraUVChannelCount(); c++ {
		name := fmt.Sprintf("%s%d", sectionExtraUVs, c)
		if err := chunk.WriteRecords(w, name, extraUVSize, f.ExtraUVChannel(c)); err != nil {
			return err
		}
	}
	if f.HasVertexColors() {
		if err := chunk.WriteRecords(w, sectionColors, colorSize, f.Colors); err != nil {
			return err
		}
	}
	if f.HasVertexNormals() {
		if err := chunk.WriteRecords(w, sectionNormals, normalSize, f.Normals); err != nil {
			return err
		}
	}
	return nil
}

// writeWedges picks the record variant by wedge count, mirroring the
// reader's detection rule.
func (f *File) writeWedges(w io.Writer) error {
	if len(f.Wedges) <= wedge16Threshold {
		raw := make([]wedge16, len(f.Wedges))
		for i, wd := range f.Wedges {
			if wd.PointIndex > 0xFFFF {
				return fmt.Errorf("%w: wedge %d point index %d does not fit 16-bit records", ErrIndexOutOfRange, i, wd.PointIndex)
			}
			raw[i] = wedge16{
				PointIndex: uint16(wd.PointIndex),
				U:          wd.U,
				V:          wd.V,
				MatIndex:   wd.MaterialIndex,
			}
		}
		return chunk.WriteRecords(w, sectionWedges, wedgeSize, raw)
	}

	raw := make([]wedge32, len(f.Wedges))
	for i, wd := range f.Wedges {
		raw[i] = wedge32{
			PointIndex: wd.PointIndex,
			U:          wd.U,
			V:          wd.V,
			MatIndex:   wd.MaterialIndex,
		}
	}
	return chunk.WriteRecords(w, sectionWedges, wedgeSize, raw)
}

// writeFaces uses 32-bit faces exactly when the wedge table outgrew
// 16-bit indices.
func (f *File) writeFaces(w io.Writer) error {
	if len(f.Wedges) <= wedge16Threshold {
		raw := make([]face16, len(f.Faces))
		for i, fc := range f.Faces {
			raw[i] = face16{
				WedgeIndex:      [3]uint16{uint16(fc.WedgeIndex[0]), uint16(fc.WedgeIndex[1]), uint16(fc.WedgeIndex[2])},
				MatIndex:        fc.MaterialIndex,
				AuxMatIndex:     fc.AuxMaterialIndex,
				SmoothingGroups: fc.SmoothingGroups,
			}
		}
		return chunk.WriteRecords(w, sectionFaces, faceSize, raw)
	}

	raw := make([]face32, len(f.Faces))
	for i, fc := range f.Faces {
		raw[i] = face32{
			WedgeIndex:      fc.WedgeIndex,
			MatIndex:        fc.MaterialIndex,
			AuxMatIndex:     fc.AuxMaterialIndex,
			SmoothingGroups: fc.SmoothingGroups,
		}
	}
	return chunk.WriteRecords(w, sectionFaces32, face32Size, raw)
}
