package codec

import (
	"errors"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects the payload compression of a frame.
type Compression uint8

const (
	// CompressionNone stores the payload as is.
	CompressionNone Compression = 0
	// CompressionLZ4 uses LZ4 block compression (fast).
	CompressionLZ4 Compression = 1
	// CompressionZstd uses Zstandard (better ratio).
	CompressionZstd Compression = 2
)

// String returns the name of the compression.
func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("compression(%d)", uint8(c))
	}
}

// ErrUnknownCompression is returned for an unsupported compression id.
var ErrUnknownCompression = errors.New("codec: unknown compression")

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil, zstd.WithDecoderMaxMemory(MaxPayloadSize))
	return dec
}

// compress returns the stored bytes and the compression actually applied.
// Payloads that do not shrink are stored uncompressed.
func compress(raw []byte, c Compression) ([]byte, Compression, error) {
	if len(raw) == 0 {
		return raw, CompressionNone, nil
	}

	var out []byte
	switch c {
	case CompressionNone:
		return raw, CompressionNone, nil
	case CompressionLZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(raw)))
		n, err := lz4.CompressBlock(raw, buf, nil)
		if err != nil {
			return nil, 0, fmt.Errorf("codec: lz4: %w", err)
		}
		out = buf[:n]
	case CompressionZstd:
		enc := getZstdEncoder()
		out = enc.EncodeAll(raw, nil)
		zstdEncoderPool.Put(enc)
	default:
		return nil, 0, fmt.Errorf("%w: %d", ErrUnknownCompression, uint8(c))
	}

	if len(out) == 0 || len(out) >= len(raw) {
		return raw, CompressionNone, nil
	}
	return out, c, nil
}

func decompress(stored []byte, c Compression, rawSize int) ([]byte, error) {
	switch c {
	case CompressionNone:
		if len(stored) != rawSize {
			return nil, fmt.Errorf("%w: stored %d bytes, expected %d", ErrCorrupt, len(stored), rawSize)
		}
		return stored, nil
	case CompressionLZ4:
		raw := make([]byte, rawSize)
		n, err := lz4.UncompressBlock(stored, raw)
		if err != nil {
			return nil, fmt.Errorf("%w: lz4: %w", ErrCorrupt, err)
		}
		if n != rawSize {
			return nil, fmt.Errorf("%w: lz4 produced %d bytes, expected %d", ErrCorrupt, n, rawSize)
		}
		return raw, nil
	case CompressionZstd:
		var h zstd.Header
		if err := h.Decode(stored); err != nil {
			return nil, fmt.Errorf("%w: zstd header: %w", ErrCorrupt, err)
		}
		if h.HasFCS && h.FrameContentSize != uint64(rawSize) {
			return nil, fmt.Errorf("%w: zstd content size %d, expected %d", ErrCorrupt, h.FrameContentSize, rawSize)
		}
		dec := getZstdDecoder()
		raw, err := dec.DecodeAll(stored, make([]byte, 0, rawSize))
		zstdDecoderPool.Put(dec)
		if err != nil {
			return nil, fmt.Errorf("%w: zstd: %w", ErrCorrupt, err)
		}
		if len(raw) != rawSize {
			return nil, fmt.Errorf("%w: zstd produced %d bytes, expected %d", ErrCorrupt, len(raw), rawSize)
		}
		return raw, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownCompression, uint8(c))
	}
}
