package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// MaxFrameSize caps the payload length accepted from the wire
const MaxFrameSize = 64 * 1024

var (
	ErrZeroLengthFrame = errors.New("zero length frame")
	ErrFrameTooLarge   = errors.New("frame too large")
)

// length-prefixed frames: [u32 len][payload]

// WriteFrame writes p as a single frame
func WriteFrame(w io.Writer, p Packet) error {
	if len(p) == 0 {
		return ErrZeroLengthFrame
	}
	if len(p) > MaxFrameSize {
		return fmt.Errorf("%w: %d", ErrFrameTooLarge, len(p))
	}
	buf := make([]byte, 0, 4+len(p))
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(p)))
	buf = append(buf, p...)
	_, err := w.Write(buf)
	return err
}

// ReadFrame reads one frame. A zero or oversized length is an error and the
// payload is not consumed.
func ReadFrame(r io.Reader) (Packet, error) {
	var n uint32
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrZeroLengthFrame
	}
	if n > MaxFrameSize {
		return nil, fmt.Errorf("%w: %d", ErrFrameTooLarge, n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("reading frame body: %w", err)
	}
	return Packet(buf), nil
}
