package compactwire

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"math"
)

func writePreamble(buf *bytes.Buffer, t FrameType) {
	buf.WriteByte(Magic0)
	buf.WriteByte(Magic1)
	buf.WriteByte(byte(t))
}

// EncodeDataFrame serializes a payload with an optional offset table. The
// payload is compressed according to c; offsets stay relative to the
// uncompressed payload.
func (d *DataFrame) EncodeDataFrame(payload []byte, c Compression, offsets []uint32) ([]byte, error) {
	if len(offsets) > math.MaxUint16 {
		return nil, ErrTooManyOffsets
	}
	body, err := compress(c, payload)
	if err != nil {
		return nil, err
	}
	flags := c.flag()
	if offsets != nil {
		flags |= FlagHasOffsetTable
	}

	d.buf = &bytes.Buffer{}
	writePreamble(d.buf, TypeData)

	// reserve length
	binary.Write(d.buf, binary.LittleEndian, uint32(0))
	d.buf.WriteByte(flags)

	if flags&FlagHasOffsetTable != 0 {
		binary.Write(d.buf, binary.LittleEndian, uint16(len(offsets)))
		for _, off := range offsets {
			binary.Write(d.buf, binary.LittleEndian, off)
		}
	}
	d.buf.Write(body)

	// fill in length (includes everything up to and including the CRC)
	out := d.buf.Bytes()
	binary.LittleEndian.PutUint32(out[3:], uint32(len(out)+trailerSize))

	crc := crc32.ChecksumIEEE(out[2:])
	out = binary.LittleEndian.AppendUint32(out, crc)
	return out, nil
}
