// Package encoding provides text helpers for the fixed-width name fields
// used by ActorX mesh and animation files.
//
// Names on disk are C-style byte buffers: windows-1252 encoded, null
// padded, truncated at the field width. Decoding is best effort and never
// fails; authoring tools in this ecosystem are known to emit bytes outside
// the standard mapping.
package encoding

import (
	"bytes"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// Windows1252ToUTF8 converts windows-1252 encoded bytes to a UTF-8 string.
// Returns the original bytes as a string if conversion fails.
func Windows1252ToUTF8(data []byte) string {
	decoder := charmap.Windows1252.NewDecoder()
	result, _, err := transform.Bytes(decoder, data)
	if err != nil {
		return string(data)
	}
	return string(result)
}

// UTF8ToWindows1252 converts a UTF-8 string to windows-1252 encoded bytes.
// Returns the original bytes if conversion fails.
func UTF8ToWindows1252(s string) []byte {
	encoder := charmap.Windows1252.NewEncoder()
	result, _, err := transform.Bytes(encoder, []byte(s))
	if err != nil {
		return []byte(s)
	}
	return result
}

// TrimNullBytes removes trailing null bytes from a byte slice.
func TrimNullBytes(data []byte) []byte {
	return bytes.TrimRight(data, "\x00")
}

// TrimNullString removes trailing null bytes and converts to string.
func TrimNullString(data []byte) string {
	return string(TrimNullBytes(data))
}

// DecodeName converts a fixed-width name field to a UTF-8 string.
// The field is cut at the first null byte (or used in full if none),
// then decoded as windows-1252.
func DecodeName(data []byte) string {
	nullIdx := bytes.IndexByte(data, 0)
	if nullIdx >= 0 {
		data = data[:nullIdx]
	}
	return Windows1252ToUTF8(data)
}

// EncodeName converts a UTF-8 string to a fixed-width name field,
// truncating to size and padding with null bytes.
func EncodeName(s string, size int) []byte {
	result := make([]byte, size)
	copy(result, UTF8ToWindows1252(s))
	return result
}
