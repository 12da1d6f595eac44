package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"math"
)

// Version is the current frame version.
const Version = 1

// MaxPayloadSize bounds the raw payload accepted by the decoders.
const MaxPayloadSize = 1 << 30

const headerSize = 20

var (
	// ErrCorrupt is returned when a frame fails validation.
	ErrCorrupt = errors.New("codec: corrupt frame")
	// ErrUnsupportedVersion is returned for frames written by a newer version.
	ErrUnsupportedVersion = errors.New("codec: unsupported version")
	// ErrWrongKind is returned when a frame holds a different record type.
	ErrWrongKind = errors.New("codec: unexpected frame kind")
)

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

type magic [4]byte

var (
	magicCoreset    = magic{'P', 'R', 'C', 'S'}
	magicClustering = magic{'P', 'R', 'C', 'L'}
)

func writeFrame(w io.Writer, m magic, raw []byte, c Compression) error {
	if len(raw) > MaxPayloadSize {
		return fmt.Errorf("codec: payload of %d bytes exceeds limit", len(raw))
	}

	stored, applied, err := compress(raw, c)
	if err != nil {
		return err
	}

	var hdr [headerSize]byte
	copy(hdr[0:4], m[:])
	hdr[4] = Version
	hdr[5] = byte(applied)
	binary.LittleEndian.PutUint32(hdr[8:], uint32(len(raw)))
	binary.LittleEndian.PutUint32(hdr[12:], uint32(len(stored)))
	binary.LittleEndian.PutUint32(hdr[16:], crc32.Checksum(raw, castagnoli))

	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	_, err = w.Write(stored)
	return err
}

func readFrame(r io.Reader, want magic) ([]byte, error) {
	var hdr [headerSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: short header", ErrCorrupt)
		}
		return nil, err
	}

	if magic(hdr[0:4]) != want {
		return nil, fmt.Errorf("%w: magic %q, expected %q", ErrWrongKind, hdr[0:4], want[:])
	}
	if hdr[4] != Version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, hdr[4])
	}

	rawSize := binary.LittleEndian.Uint32(hdr[8:])
	storedSize := binary.LittleEndian.Uint32(hdr[12:])
	sum := binary.LittleEndian.Uint32(hdr[16:])
	if rawSize > MaxPayloadSize || storedSize > MaxPayloadSize {
		return nil, fmt.Errorf("%w: payload size %d/%d exceeds limit", ErrCorrupt, rawSize, storedSize)
	}

	stored := make([]byte, storedSize)
	if _, err := io.ReadFull(r, stored); err != nil {
		return nil, fmt.Errorf("%w: short payload: %w", ErrCorrupt, err)
	}

	raw, err := decompress(stored, Compression(hdr[5]), int(rawSize))
	if err != nil {
		return nil, err
	}
	if crc32.Checksum(raw, castagnoli) != sum {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrCorrupt)
	}
	return raw, nil
}

// payloadReader decodes little-endian values and remembers the first error.
type payloadReader struct {
	buf []byte
	err error
}

func (p *payloadReader) take(n int) []byte {
	if p.err != nil {
		return nil
	}
	if n < 0 || n > len(p.buf) {
		p.err = fmt.Errorf("%w: truncated payload", ErrCorrupt)
		return nil
	}
	b := p.buf[:n]
	p.buf = p.buf[n:]
	return b
}

func (p *payloadReader) u8() uint8 {
	if b := p.take(1); b != nil {
		return b[0]
	}
	return 0
}

func (p *payloadReader) u32() uint32 {
	if b := p.take(4); b != nil {
		return binary.LittleEndian.Uint32(b)
	}
	return 0
}

func (p *payloadReader) f64() float64 {
	if b := p.take(8); b != nil {
		return math.Float64frombits(binary.LittleEndian.Uint64(b))
	}
	return 0
}

// count reads a length prefix and checks that size bytes per element remain.
func (p *payloadReader) count(size int) int {
	n := int(p.u32())
	if p.err == nil && size > 0 && n > len(p.buf)/size {
		p.err = fmt.Errorf("%w: length %d exceeds payload", ErrCorrupt, n)
	}
	if p.err != nil {
		return 0
	}
	return n
}

func (p *payloadReader) finish() error {
	if p.err == nil && len(p.buf) != 0 {
		p.err = fmt.Errorf("%w: %d trailing bytes", ErrCorrupt, len(p.buf))
	}
	return p.err
}
