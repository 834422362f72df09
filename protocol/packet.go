package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"unicode/utf8"
)

// ErrMalformedPacket is returned when a packet's fields do not match its code's grammar
var ErrMalformedPacket = errors.New("malformed packet")

// Packet is one framed payload: a code byte followed by its fields
type Packet []byte

// NewPacket starts a packet with the given code. Fields are added with the Append methods.
func NewPacket(code PacketCode) Packet {
	return Packet{byte(code)}
}

// Code returns the packet code, CodeNone for an empty packet or an unknown code
func (p Packet) Code() PacketCode {
	if len(p) == 0 {
		return CodeNone
	}
	return ParsePacketCode(p[0])
}

// AppendInt adds a 4 byte big-endian int. Values are expected to be non-negative.
func (p Packet) AppendInt(v int) Packet {
	return binary.BigEndian.AppendUint32(p, uint32(int32(v)))
}

// AppendString adds an int length followed by the ASCII bytes of s.
// Bytes outside US-ASCII are written as '?'.
func (p Packet) AppendString(s string) Packet {
	p = p.AppendInt(len(s))
	for i := 0; i < len(s); i++ {
		b := s[i]
		if b >= utf8.RuneSelf {
			b = '?'
		}
		p = append(p, b)
	}
	return p
}

// AppendByte adds a single byte
func (p Packet) AppendByte(b byte) Packet {
	return append(p, b)
}

// AppendBool adds a byte, 1 for true and 0 for false
func (p Packet) AppendBool(v bool) Packet {
	if v {
		return append(p, 1)
	}
	return append(p, 0)
}

// Int reads the int at off. It returns -1 when out of range or when the
// leading byte has its top bit set.
func (p Packet) Int(off int) int {
	if off < 0 || off+4 > len(p) || p[off] >= 128 {
		return -1
	}
	return int(binary.BigEndian.Uint32(p[off:]))
}

// Byte reads the byte at off
func (p Packet) Byte(off int) (byte, bool) {
	if off < 0 || off >= len(p) {
		return 0, false
	}
	return p[off], true
}

// Bool reads the bool at off, any non-zero byte being true
func (p Packet) Bool(off int) (bool, bool) {
	b, ok := p.Byte(off)
	return b != 0, ok
}

// Text reads the length-prefixed string at off. It returns "" when the
// length or the bytes are out of range.
func (p Packet) Text(off int) string {
	n := p.Int(off)
	if n < 0 || off+4+n > len(p) {
		return ""
	}
	return string(p[off+4 : off+4+n])
}

// Fields returns a cursor over the fields after the code byte
func (p Packet) Fields() *FieldReader {
	return &FieldReader{p: p, off: 1}
}

// FieldReader reads consecutive fields and remembers the first failure
type FieldReader struct {
	p   Packet
	off int
	err error
}

func (r *FieldReader) fail(what string) {
	if r.err == nil {
		r.err = fmt.Errorf("%w: %s %s at offset %d", ErrMalformedPacket, r.p.Code(), what, r.off)
	}
}

// Int reads the next int, -1 on failure
func (r *FieldReader) Int() int {
	v := r.p.Int(r.off)
	if v < 0 {
		r.fail("int")
		return -1
	}
	r.off += 4
	return v
}

// Byte reads the next byte
func (r *FieldReader) Byte() byte {
	b, ok := r.p.Byte(r.off)
	if !ok {
		r.fail("byte")
		return 0
	}
	r.off++
	return b
}

// Bool reads the next bool
func (r *FieldReader) Bool() bool {
	return r.Byte() != 0
}

// Text reads the next string, "" on failure
func (r *FieldReader) Text() string {
	n := r.p.Int(r.off)
	if n < 0 || r.off+4+n > len(r.p) {
		r.fail("string")
		return ""
	}
	s := string(r.p[r.off+4 : r.off+4+n])
	r.off += 4 + n
	return s
}

// More reports whether unread bytes remain
func (r *FieldReader) More() bool {
	return r.off < len(r.p)
}

// Err returns the first read failure
func (r *FieldReader) Err() error {
	return r.err
}

// TableID returns the table id carried by table scoped packets, or -1
func (p Packet) TableID() int {
	switch p.Code() {
	case CodeTableConnect, CodeTableConnectFail, CodeTableConnectSuccess,
		CodeTableData, CodeTableClose, CodeTableCloseFail, CodeTableCloseSuccess:
		return p.Int(1)
	}
	return -1
}
