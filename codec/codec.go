// Package codec serializes clusterings and coresets.
//
// Two encodings are provided:
//
//   - a compact binary frame (EncodeCoreset, EncodeClustering) with optional
//     LZ4 or Zstandard compression and a CRC32-C checksum of the payload
//   - JSON through the Codec interface, backed by goccy/go-json, plus a
//     JSON Lines form of coresets (WriteCoresetJSONL, ReadCoresetJSONL)
//
// Frame layout (little endian):
//
//	magic[4] | version u8 | compression u8 | reserved u16 |
//	raw size u32 | stored size u32 | crc32c(raw) u32 | payload
//
// Changing the payload layout requires bumping Version.
package codec

import "fmt"

// Codec encodes/decodes values.
// Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// Default is the codec used when none is given.
var Default Codec = GoJSON{}

// ByName returns a built-in codec by its stable name.
func ByName(name string) (Codec, bool) {
	switch name {
	case "go-json", "json":
		return GoJSON{}, true
	default:
		return nil, false
	}
}

// MustMarshal is a helper for tests and examples.
func MustMarshal(c Codec, v any) []byte {
	if c == nil {
		c = Default
	}
	b, err := c.Marshal(v)
	if err != nil {
		panic(fmt.Errorf("codec %s marshal failed: %w", c.Name(), err))
	}
	return b
}
