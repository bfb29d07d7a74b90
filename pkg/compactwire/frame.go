// Package compactwire frames a payload with a type byte, a length, optional
// offsets into the payload, optional compression and a CRC32 trailer.
//
// Data frame layout (little endian):
//
//	magic    2B  0xFA 0xC7
//	type     1B
//	length   4B  whole frame including the CRC
//	flags    1B
//	[count   2B, offsets 4B each]  when FlagHasOffsetTable is set
//	payload  ... zstd or lz4 compressed when FlagZstd / FlagLZ4 is set
//	crc32    4B  IEEE, over everything after the magic
//
// Offsets always refer to the uncompressed payload.
package compactwire

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

const (
	Magic0 byte = 0xFA
	Magic1 byte = 0xC7
)

type FrameType byte

const (
	TypeData FrameType = 0x01
)

const (
	FlagHasOffsetTable byte = 1 << 0
	FlagZstd           byte = 1 << 1
	FlagLZ4            byte = 1 << 2
)

// headerSize covers magic, type, length and flags; trailerSize is the CRC.
const (
	headerSize  = 8
	trailerSize = 4
)

var (
	ErrShortFrame     = errors.New("compactwire: frame too short")
	ErrBadMagic       = errors.New("compactwire: bad magic")
	ErrFrameType      = errors.New("compactwire: unexpected frame type")
	ErrLengthMismatch = errors.New("compactwire: length mismatch")
	ErrChecksum       = errors.New("compactwire: crc mismatch")
	ErrBadOffsets     = errors.New("compactwire: offset outside payload")
	ErrTooManyOffsets = errors.New("compactwire: offset table exceeds 65535 entries")
	ErrCompression    = errors.New("compactwire: conflicting compression flags")
)

// Compression selects how a data frame payload is stored.
type Compression uint8

const (
	CompressionNone Compression = iota
	CompressionZstd
	CompressionLZ4
)

// String returns the name used in configuration files.
func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionZstd:
		return "zstd"
	case CompressionLZ4:
		return "lz4"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(c))
	}
}

// ParseCompression maps a configuration name to a Compression.
func ParseCompression(name string) (Compression, error) {
	switch name {
	case "", "none":
		return CompressionNone, nil
	case "zstd":
		return CompressionZstd, nil
	case "lz4":
		return CompressionLZ4, nil
	}
	return CompressionNone, fmt.Errorf("compactwire: unknown compression %q", name)
}

func (c Compression) flag() byte {
	switch c {
	case CompressionZstd:
		return FlagZstd
	case CompressionLZ4:
		return FlagLZ4
	}
	return 0
}

// DataFrame carries an opaque payload.
type DataFrame struct {
	buf *bytes.Buffer
	rdr *bytes.Reader
}

// zstd.Encoder and zstd.Decoder are safe for concurrent use.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("compactwire: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("compactwire: zstd decoder initialization failed: " + err.Error())
	}
}

func compress(c Compression, payload []byte) ([]byte, error) {
	switch c {
	case CompressionZstd:
		return zstdEncoder.EncodeAll(payload, nil), nil
	case CompressionLZ4:
		var out bytes.Buffer
		w := lz4.NewWriter(&out)
		if _, err := w.Write(payload); err != nil {
			return nil, fmt.Errorf("lz4 compress: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("lz4 compress: %w", err)
		}
		return out.Bytes(), nil
	}
	return payload, nil
}

func decompress(flags byte, payload []byte) ([]byte, error) {
	switch {
	case flags&FlagZstd != 0 && flags&FlagLZ4 != 0:
		return nil, ErrCompression
	case flags&FlagZstd != 0:
		out, err := zstdDecoder.DecodeAll(payload, nil)
		if err != nil {
			return nil, fmt.Errorf("zstd decompress: %w", err)
		}
		return out, nil
	case flags&FlagLZ4 != 0:
		var out bytes.Buffer
		if _, err := out.ReadFrom(lz4.NewReader(bytes.NewReader(payload))); err != nil {
			return nil, fmt.Errorf("lz4 decompress: %w", err)
		}
		return out.Bytes(), nil
	}
	return payload, nil
}
