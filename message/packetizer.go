package message

import (
	"bufio"
	"encoding/binary"
	"io"
)

// DefaultMaxFrameLength bounds the declared length of any single frame a
// Packetizer will accept, guarding against a peer announcing an
// unbounded allocation before any body bytes have even arrived.
const DefaultMaxFrameLength = 16 << 20

// Packetizer reassembles a byte stream produced by Encode back into
// discrete frames. It owns no socket; callers feed it bytes read from a
// transport and drain decoded messages from it.
type Packetizer struct {
	r           *bufio.Reader
	maxFrameLen uint32
}

// NewPacketizer wraps r with the default maximum frame length.
func NewPacketizer(r io.Reader) *Packetizer {
	return NewPacketizerSize(r, DefaultMaxFrameLength)
}

// NewPacketizerSize wraps r, rejecting any frame whose declared length
// exceeds maxFrameLen.
func NewPacketizerSize(r io.Reader, maxFrameLen uint32) *Packetizer {
	return &Packetizer{r: bufio.NewReader(r), maxFrameLen: maxFrameLen}
}

// Next blocks until one full frame has arrived, then decodes it. It
// returns io.EOF once the underlying reader is exhausted at a frame
// boundary.
func (p *Packetizer) Next() (Message, error) {
	var hdr [HeaderLen]byte
	if _, err := io.ReadFull(p.r, hdr[:]); err != nil {
		if err == io.ErrUnexpectedEOF {
			return nil, ErrFrameTooShort
		}
		return nil, err
	}

	length := binary.LittleEndian.Uint32(hdr[0:4])
	if length < MinFrameLen {
		return nil, ErrFrameTooSmallForLength
	}
	if length > p.maxFrameLen {
		return nil, ErrFrameTooLarge
	}

	frame := make([]byte, length)
	copy(frame, hdr[:])
	if _, err := io.ReadFull(p.r, frame[HeaderLen:]); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}

	return Decode(frame)
}

// WriteMessage encodes m and writes the complete frame to w.
func WriteMessage(w io.Writer, m Message) error {
	_, err := w.Write(Encode(m))
	return err
}
