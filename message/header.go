package message

import (
	"encoding/binary"
	"io"
)

// HeaderLen is the fixed size of a message header: a 4-byte little-endian
// total length (covering the header itself) followed by a 1-byte kind.
const HeaderLen = 5

// MinFrameLen is the smallest legal frame: the header with an empty body.
const MinFrameLen = HeaderLen

// Header is the fixed prefix of every frame on the wire.
type Header struct {
	Length uint32
	Kind   Kind
}

// ParseHeader reads HeaderLen bytes from r and parses them.
func ParseHeader(r io.Reader) (Header, error) {
	var buf [HeaderLen]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return Header{}, ErrFrameTooShort
		}
		return Header{}, err
	}
	return parseHeaderBytes(buf[:])
}

// ParseHeaderFromBytes parses a header from the first HeaderLen bytes of
// data.
func ParseHeaderFromBytes(data []byte) (Header, error) {
	if len(data) < HeaderLen {
		return Header{}, ErrFrameTooShort
	}
	return parseHeaderBytes(data[:HeaderLen])
}

func parseHeaderBytes(buf []byte) (Header, error) {
	length := binary.LittleEndian.Uint32(buf[0:4])
	if length < MinFrameLen {
		return Header{}, ErrFrameTooSmallForLength
	}
	return Header{Length: length, Kind: Kind(buf[4])}, nil
}

// put writes the header to the front of buf, which must be at least
// HeaderLen bytes long.
func (h Header) put(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], h.Length)
	buf[4] = byte(h.Kind)
}
