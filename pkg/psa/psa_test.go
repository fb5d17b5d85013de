package psa

import (
	"bytes"
	"encoding/binary"
	"errors"
	"reflect"
	"testing"

	"github.com/skelmesh/actorx/pkg/chunk"
)

func writeSection(t *testing.T, buf *bytes.Buffer, name string, recordSize int, records any) {
	t.Helper()
	if err := chunk.WriteRecords(buf, name, recordSize, records); err != nil {
		t.Fatalf("building %q section: %v", name, err)
	}
}

func makeBone(name string, parent int32) Bone {
	b := Bone{
		ParentIndex: parent,
		Rotation:    [4]float32{0, 0, 0, 1},
	}
	copy(b.Name[:], name)
	return b
}

func makeSequence(name string, firstFrame, frames int32) SequenceInfo {
	s := SequenceInfo{
		TotalBones:      2,
		FramesPerSecond: 30,
		FirstRawFrame:   firstFrame,
		NumRawFrames:    frames,
	}
	copy(s.Name[:], name)
	return s
}

// makeMinimalPSA builds two bones and two sequences: "Walk" with two
// frames, then "Run" with one. The key table holds (2+1)*2 samples
// whose Time fields encode their table position for easy checking.
func makeMinimalPSA(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := chunk.Write(&buf, "ANIMHEAD", 0, 0, nil); err != nil {
		t.Fatal(err)
	}
	writeSection(t, &buf, "BONENAMES", boneSize, []Bone{
		makeBone("root", 0),
		makeBone("child", 0),
	})
	writeSection(t, &buf, "ANIMINFO", sequenceSize, []SequenceInfo{
		makeSequence("Walk", 0, 2),
		makeSequence("Run", 2, 1),
	})
	keys := make([]Key, 6)
	for i := range keys {
		keys[i] = Key{Rotation: [4]float32{0, 0, 0, 1}, Time: float32(i)}
	}
	writeSection(t, &buf, "ANIMKEYS", keySize, keys)
	return buf.Bytes()
}

func TestWireRecordSizes(t *testing.T) {
	tests := []struct {
		name string
		v    any
		want int
	}{
		{"Bone", Bone{}, boneSize},
		{"SequenceInfo", SequenceInfo{}, sequenceSize},
		{"Key", Key{}, keySize},
	}
	for _, tt := range tests {
		if got := binary.Size(tt.v); got != tt.want {
			t.Errorf("binary.Size(%s) = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestParseHeaderValidation(t *testing.T) {
	var noHeader bytes.Buffer
	writeSection(t, &noHeader, "BONENAMES", boneSize, []Bone{makeBone("root", 0)})

	tests := []struct {
		name string
		data []byte
	}{
		{"empty input", nil},
		{"first section not ANIMHEAD", noHeader.Bytes()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.data)
			if !errors.Is(err, ErrInvalidHeader) {
				t.Errorf("Parse() error = %v, want %v", err, ErrInvalidHeader)
			}
		})
	}
}

func TestParseMinimal(t *testing.T) {
	f, err := Parse(makeMinimalPSA(t))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if len(f.Bones) != 2 || len(f.Sequences) != 2 || len(f.Keys) != 6 {
		t.Fatalf("got %d bones, %d sequences, %d keys; want 2, 2, 6",
			len(f.Bones), len(f.Sequences), len(f.Keys))
	}
	if got := f.BoneName(1); got != "child" {
		t.Errorf("BoneName(1) = %q, want %q", got, "child")
	}
	if got := f.SequenceNames(); !reflect.DeepEqual(got, []string{"Walk", "Run"}) {
		t.Errorf("SequenceNames() = %v, want [Walk Run]", got)
	}
}

func TestParseMissingSection(t *testing.T) {
	tests := []struct {
		name string
		skip string
	}{
		{"no bone table", "BONENAMES"},
		{"no sequence table", "ANIMINFO"},
		{"no key table", "ANIMKEYS"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := chunk.Write(&buf, "ANIMHEAD", 0, 0, nil); err != nil {
				t.Fatal(err)
			}
			if tt.skip != "BONENAMES" {
				writeSection(t, &buf, "BONENAMES", boneSize, []Bone{makeBone("root", 0)})
			}
			if tt.skip != "ANIMINFO" {
				writeSection(t, &buf, "ANIMINFO", sequenceSize, []SequenceInfo{})
			}
			if tt.skip != "ANIMKEYS" {
				writeSection(t, &buf, "ANIMKEYS", keySize, []Key{})
			}

			_, err := Parse(buf.Bytes())
			if !errors.Is(err, ErrMissingSection) {
				t.Errorf("Parse() error = %v, want %v", err, ErrMissingSection)
			}
		})
	}
}

func TestParseTruncatedKeyTable(t *testing.T) {
	var buf bytes.Buffer
	if err := chunk.Write(&buf, "ANIMHEAD", 0, 0, nil); err != nil {
		t.Fatal(err)
	}
	writeSection(t, &buf, "BONENAMES", boneSize, []Bone{
		makeBone("root", 0),
		makeBone("child", 0),
	})
	// Walk wants keys [0, 4) but only 3 exist
	writeSection(t, &buf, "ANIMINFO", sequenceSize, []SequenceInfo{
		makeSequence("Walk", 0, 2),
	})
	writeSection(t, &buf, "ANIMKEYS", keySize, make([]Key, 3))

	_, err := Parse(buf.Bytes())
	if !errors.Is(err, ErrTruncatedKeys) {
		t.Errorf("Parse() error = %v, want %v", err, ErrTruncatedKeys)
	}
}

func TestSequenceKeys(t *testing.T) {
	f, err := Parse(makeMinimalPSA(t))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	walk := f.SequenceKeys(0)
	if len(walk) != 4 {
		t.Fatalf("len(SequenceKeys(0)) = %d, want 4", len(walk))
	}
	if walk[0].Time != 0 || walk[3].Time != 3 {
		t.Errorf("Walk block spans times %v..%v, want 0..3", walk[0].Time, walk[3].Time)
	}

	run := f.SequenceKeys(1)
	if len(run) != 2 {
		t.Fatalf("len(SequenceKeys(1)) = %d, want 2", len(run))
	}
	if run[0].Time != 4 || run[1].Time != 5 {
		t.Errorf("Run block spans times %v..%v, want 4..5", run[0].Time, run[1].Time)
	}
}

func TestSequenceByName(t *testing.T) {
	f, err := Parse(makeMinimalPSA(t))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	seq, ok := f.SequenceByName("Run")
	if !ok {
		t.Fatal("SequenceByName(Run) not found")
	}
	if seq.NumRawFrames != 1 {
		t.Errorf("Run.NumRawFrames = %d, want 1", seq.NumRawFrames)
	}
	if _, ok := f.SequenceByName("Idle"); ok {
		t.Error("SequenceByName(Idle) = found, want not found")
	}
}

func TestExtractSequence(t *testing.T) {
	f, err := Parse(makeMinimalPSA(t))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	run, err := f.ExtractSequence("Run")
	if err != nil {
		t.Fatalf("ExtractSequence() error = %v", err)
	}
	if len(run.Sequences) != 1 || run.Sequences[0].FirstRawFrame != 0 {
		t.Errorf("extracted header = %+v, want single sequence at frame 0", run.Sequences)
	}
	if len(run.Keys) != 2 || run.Keys[0].Time != 4 {
		t.Errorf("extracted keys = %v, want the Run block", run.Keys)
	}

	// The extracted file must round-trip standalone.
	var buf bytes.Buffer
	if err := run.Write(&buf); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	got, err := Parse(buf.Bytes())
	if err != nil {
		t.Fatalf("Parse() of extracted file error = %v", err)
	}
	if !reflect.DeepEqual(run, got) {
		t.Errorf("extracted round trip mismatch:\n got %+v\nwant %+v", got, run)
	}
}

func TestExtractSequenceUnknown(t *testing.T) {
	f, err := Parse(makeMinimalPSA(t))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if _, err := f.ExtractSequence("Idle"); !errors.Is(err, ErrUnknownSequence) {
		t.Errorf("ExtractSequence(Idle) error = %v, want %v", err, ErrUnknownSequence)
	}
}

func TestWriteRoundTrip(t *testing.T) {
	orig, err := Parse(makeMinimalPSA(t))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	var buf bytes.Buffer
	if err := orig.Write(&buf); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	got, err := Parse(buf.Bytes())
	if err != nil {
		t.Fatalf("Parse() of written file error = %v", err)
	}
	if !reflect.DeepEqual(orig, got) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, orig)
	}
}

func TestParseSkipsScaleKeys(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(makeMinimalPSA(t))
	if err := chunk.Write(&buf, "SCALEKEYS", 16, 2, make([]byte, 32)); err != nil {
		t.Fatal(err)
	}

	if _, err := Parse(buf.Bytes()); err != nil {
		t.Errorf("Parse() with SCALEKEYS section error = %v", err)
	}
}
