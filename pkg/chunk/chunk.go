// Package chunk implements the section framing shared by ActorX mesh
// and animation files: a stream of 32-byte headers, each followed by
// count fixed-size records, little-endian throughout.
package chunk

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/skelmesh/actorx/pkg/encoding"
)

var (
	ErrTruncatedHeader = errors.New("chunk: truncated section header")
	ErrTruncatedBody   = errors.New("chunk: truncated section body")
	ErrBadSection      = errors.New("chunk: malformed section header")
)

const (
	// IDSize is the width of the null-padded section ID field.
	IDSize = 20

	// HeaderSize is the on-disk size of a section header.
	HeaderSize = 32

	// TypeFlag is the header flag value historically written by the
	// ActorX exporter. Readers ignore it.
	TypeFlag = 1999801

	// maxBodySize bounds a single section body. Real files are tens of
	// megabytes at most; anything past this is a corrupt header.
	maxBodySize = 1 << 30
)

// Header is the fixed 32-byte section header.
type Header struct {
	ID        [IDSize]byte // section name, null padded
	TypeFlag  int32        // ignored on read
	DataSize  int32        // size of one record in bytes
	DataCount int32        // number of records
}

// Name returns the section ID with null padding removed.
func (h Header) Name() string {
	return encoding.TrimNullString(h.ID[:])
}

// Section is a decoded header plus the raw record bytes that followed it.
type Section struct {
	Header
	Data []byte
}

// Read reads the next section from r. It returns io.EOF when the stream
// ends cleanly on a section boundary.
func Read(r io.Reader) (*Section, error) {
	var hdr Header
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("%w: %v", ErrTruncatedHeader, err)
	}

	if hdr.DataSize < 0 || hdr.DataCount < 0 {
		return nil, fmt.Errorf("%w: %q has size %d count %d", ErrBadSection, hdr.Name(), hdr.DataSize, hdr.DataCount)
	}
	bodyLen := int64(hdr.DataSize) * int64(hdr.DataCount)
	if bodyLen > maxBodySize {
		return nil, fmt.Errorf("%w: %q body is %d bytes", ErrBadSection, hdr.Name(), bodyLen)
	}

	sec := &Section{Header: hdr}
	if bodyLen > 0 {
		sec.Data = make([]byte, bodyLen)
		if _, err := io.ReadFull(r, sec.Data); err != nil {
			return nil, fmt.Errorf("%w: %q wants %d bytes: %v", ErrTruncatedBody, hdr.Name(), bodyLen, err)
		}
	}
	return sec, nil
}

// ReadAll reads sections until the stream ends. A stream ending in the
// middle of a section is an error; an empty stream yields no sections.
func ReadAll(r io.Reader) ([]*Section, error) {
	var sections []*Section
	for {
		sec, err := Read(r)
		if err == io.EOF {
			return sections, nil
		}
		if err != nil {
			return nil, err
		}
		sections = append(sections, sec)
	}
}

// Write writes one section header followed by body. body must be
// dataSize*dataCount bytes; pass nil for header-only sections.
func Write(w io.Writer, name string, dataSize, dataCount int, body []byte) error {
	if len(body) != dataSize*dataCount {
		return fmt.Errorf("%w: %q body is %d bytes, header says %d", ErrBadSection, name, len(body), dataSize*dataCount)
	}
	hdr := Header{
		TypeFlag:  TypeFlag,
		DataSize:  int32(dataSize),
		DataCount: int32(dataCount),
	}
	copy(hdr.ID[:], name)
	if err := binary.Write(w, binary.LittleEndian, hdr); err != nil {
		return fmt.Errorf("writing %q header: %w", name, err)
	}
	if len(body) > 0 {
		if _, err := w.Write(body); err != nil {
			return fmt.Errorf("writing %q body: %w", name, err)
		}
	}
	return nil
}

// WriteRecords marshals records (a slice of fixed-size structs) with
// binary.Write and emits them as one section.
func WriteRecords(w io.Writer, name string, recordSize int, records any) error {
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, records); err != nil {
		return fmt.Errorf("marshaling %q records: %w", name, err)
	}
	if recordSize == 0 {
		return Write(w, name, 0, 0, nil)
	}
	if buf.Len()%recordSize != 0 {
		return fmt.Errorf("%w: %q records marshal to %d bytes, not a multiple of %d", ErrBadSection, name, buf.Len(), recordSize)
	}
	return Write(w, name, recordSize, buf.Len()/recordSize, buf.Bytes())
}
