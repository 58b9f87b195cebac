package framing

import (
	"encoding/binary"

	"github.com/ique-tools/aulon-go/wire"
)

// EncodePiecemeal tags data into groups of at most 3 bytes, each prefixed
// with 0x40+n where n is the number of payload bytes in that group. A
// length-0 input encodes to zero bytes.
func EncodePiecemeal(data []byte) []byte {
	out := make([]byte, 0, len(data)+len(data)/3+1)
	for off := 0; off < len(data); {
		n := len(data) - off
		if n > 3 {
			n = 3
		}
		out = append(out, byte(wire.SendPiecemealTag+n))
		out = append(out, data[off:off+n]...)
		off += n
	}
	return out
}

// EncodeChunks splits data into frames of [0x63][len][len bytes], where
// len never exceeds wire.MaxChunkPayload (0xFE). Each returned slice is one
// frame, meant to be sent as a single bulk write.
func EncodeChunks(data []byte) [][]byte {
	var frames [][]byte
	for off := 0; off < len(data); {
		n := len(data) - off
		if n > wire.MaxChunkPayload {
			n = wire.MaxChunkPayload
		}
		frame := make([]byte, 0, n+2)
		frame = append(frame, wire.SendChunkTag, byte(n))
		frame = append(frame, data[off:off+n]...)
		frames = append(frames, frame)
		off += n
	}
	return frames
}

// EncodeCommand builds the 8-byte (command, argument) request body, ready
// to be piecemeal-encoded by SendCommand.
func EncodeCommand(command, argument uint32) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint32(b[0:4], command)
	binary.BigEndian.PutUint32(b[4:8], argument)
	return b
}

// ParseReplyBody walks staging in 4-byte groups of [tag][b0][b1][b2], each
// tag in {0x1D, 0x1E, 0x1F} encoding tag-0x1C payload bytes, copying them
// into out until out is full. It returns the number of bytes copied into
// out, or an error if an unrecognized tag is seen or staging runs out
// before out is filled.
func ParseReplyBody(staging []byte, out []byte) (int, error) {
	copied := 0
	off := 0
	for copied < len(out) {
		if off+4 > len(staging) {
			return copied, ErrFraming
		}
		tag := staging[off]
		if tag < wire.RecvPiecemealTag+1 || tag > wire.RecvPiecemealTag+3 {
			return copied, ErrFraming
		}
		n := int(tag) - wire.RecvPiecemealTag
		copy(out[copied:copied+n], staging[off+1:off+1+n])
		copied += n
		off += 4
	}
	return copied, nil
}
