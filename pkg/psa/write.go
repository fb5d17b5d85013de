package psa

import (
	"io"

	"github.com/skelmesh/actorx/pkg/chunk"
)

// Write serializes the file as a chunk stream in canonical section
// order. The record set is validated first, so a written file always
// parses back.
func (f *File) Write(w io.Writer) error {
	if err := f.Validate(); err != nil {
		return err
	}

	if err := chunk.Write(w, sectionHeader, 0, 0, nil); err != nil {
		return err
	}
	if err := chunk.WriteRecords(w, sectionBones, boneSize, f.Bones); err != nil {
		return err
	}
	if err := chunk.WriteRecords(w, sectionSequences, sequenceSize, f.Sequences); err != nil {
		return err
	}
	return chunk.WriteRecords(w, sectionKeys, keySize, f.Keys)
}
