package compactwire

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"io"
)

func readPreamble(r *bytes.Reader) (FrameType, error) {
	var magic [2]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return 0, ErrShortFrame
	}
	if magic[0] != Magic0 || magic[1] != Magic1 {
		return 0, ErrBadMagic
	}
	t, err := r.ReadByte()
	if err != nil {
		return 0, ErrShortFrame
	}
	return FrameType(t), nil
}

// DecodeDataFrame parses a data frame and returns the uncompressed payload,
// its offset table (nil when absent) and the raw flags.
func (d *DataFrame) DecodeDataFrame(data []byte) ([]byte, []uint32, byte, error) {
	if len(data) < headerSize+trailerSize {
		return nil, nil, 0, ErrShortFrame
	}
	d.rdr = bytes.NewReader(data)
	t, err := readPreamble(d.rdr)
	if err != nil {
		return nil, nil, 0, err
	}
	if t != TypeData {
		return nil, nil, 0, ErrFrameType
	}

	var length uint32
	binary.Read(d.rdr, binary.LittleEndian, &length)
	if int(length) != len(data) {
		return nil, nil, 0, ErrLengthMismatch
	}
	payloadEnd := len(data) - trailerSize
	want := binary.LittleEndian.Uint32(data[payloadEnd:])
	if crc32.ChecksumIEEE(data[2:payloadEnd]) != want {
		return nil, nil, 0, ErrChecksum
	}
	flags, _ := d.rdr.ReadByte()

	var offsets []uint32
	if flags&FlagHasOffsetTable != 0 {
		var cnt uint16
		if err := binary.Read(d.rdr, binary.LittleEndian, &cnt); err != nil {
			return nil, nil, 0, ErrShortFrame
		}
		if d.rdr.Len()-trailerSize < int(cnt)*4 {
			return nil, nil, 0, ErrShortFrame
		}
		offsets = make([]uint32, cnt)
		for i := range offsets {
			binary.Read(d.rdr, binary.LittleEndian, &offsets[i])
		}
	}

	payloadStart := len(data) - d.rdr.Len()
	payload, err := decompress(flags, data[payloadStart:payloadEnd])
	if err != nil {
		return nil, nil, 0, err
	}
	for _, off := range offsets {
		if int(off) > len(payload) {
			return nil, nil, 0, ErrBadOffsets
		}
	}
	return payload, offsets, flags, nil
}

// Split cuts payload at the given offsets. Each offset starts a segment that
// runs to the next offset or the end of the payload.
func Split(payload []byte, offsets []uint32) ([][]byte, error) {
	out := make([][]byte, len(offsets))
	for i, off := range offsets {
		end := uint32(len(payload))
		if i+1 < len(offsets) {
			end = offsets[i+1]
		}
		if off > end || int(end) > len(payload) {
			return nil, ErrBadOffsets
		}
		out[i] = payload[off:end]
	}
	return out, nil
}
