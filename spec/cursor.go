package spec

import (
	"encoding/binary"
	"fmt"
	"math"
)

// TwipsPerUnit is the number of twips in one logical unit.
const TwipsPerUnit = 20

// Cursor is a sequential reader over a fixed byte buffer.
// The buffer is borrowed, not copied.
type Cursor struct {
	data []byte
	pos  int
}

func NewCursor(data []byte) *Cursor {
	return &Cursor{data: data}
}

func (c *Cursor) Pos() int       { return c.pos }
func (c *Cursor) Len() int       { return len(c.data) }
func (c *Cursor) Remaining() int { return len(c.data) - c.pos }

// Done reports whether the whole buffer has been consumed.
func (c *Cursor) Done() bool { return c.pos >= len(c.data) }

// take returns the next n bytes and advances the position.
// The position is left untouched on failure.
func (c *Cursor) take(n int) ([]byte, error) {
	if n > len(c.data)-c.pos {
		return nil, fmt.Errorf("%w: need %d byte(s) at offset %d, length %d",
			ErrOutOfBounds, n, c.pos, len(c.data))
	}
	b := c.data[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

func (c *Cursor) ReadU8() (uint8, error) {
	b, err := c.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (c *Cursor) ReadI8() (int8, error) {
	v, err := c.ReadU8()
	return int8(v), err
}

func (c *Cursor) ReadU16() (uint16, error) {
	b, err := c.take(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

func (c *Cursor) ReadI16() (int16, error) {
	v, err := c.ReadU16()
	return int16(v), err
}

func (c *Cursor) ReadU32() (uint32, error) {
	b, err := c.take(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (c *Cursor) ReadF32() (float32, error) {
	v, err := c.ReadU32()
	return math.Float32frombits(v), err
}

// ReadUvarint reads an unsigned varint of 1 to 4 bytes. The first three bytes
// carry 7 payload bits each with the high bit as continuation flag; the fourth
// byte, when present, carries a full 8 bits.
func (c *Cursor) ReadUvarint() (uint32, error) {
	b, err := c.ReadU8()
	if err != nil {
		return 0, err
	}
	if b < 0x80 {
		return uint32(b), nil
	}

	value := uint32(b&0x7F) << 7
	if b, err = c.ReadU8(); err != nil {
		return 0, err
	}
	if b < 0x80 {
		return value | uint32(b), nil
	}

	value = (value | uint32(b&0x7F)) << 7
	if b, err = c.ReadU8(); err != nil {
		return 0, err
	}
	if b < 0x80 {
		return value | uint32(b), nil
	}

	value = (value | uint32(b&0x7F)) << 8
	if b, err = c.ReadU8(); err != nil {
		return 0, err
	}
	return value | uint32(b), nil
}

// ReadSvarint reads a zigzag encoded signed varint.
func (c *Cursor) ReadSvarint() (int32, error) {
	v, err := c.ReadUvarint()
	if err != nil {
		return 0, err
	}
	return ZigzagDecode(v), nil
}

// ReadTwips reads a signed varint distance in twips and converts it to units.
func (c *Cursor) ReadTwips() (float64, error) {
	v, err := c.ReadSvarint()
	if err != nil {
		return 0, err
	}
	return float64(v) / TwipsPerUnit, nil
}

// ReadRGB reads a 24-bit color, most significant byte first.
func (c *Cursor) ReadRGB() (uint32, error) {
	b, err := c.take(3)
	if err != nil {
		return 0, err
	}
	return uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2]), nil
}

// ReadAlpha reads an alpha byte and scales it to [0, 1].
func (c *Cursor) ReadAlpha() (float64, error) {
	b, err := c.ReadU8()
	if err != nil {
		return 0, err
	}
	return float64(b) / 255, nil
}
