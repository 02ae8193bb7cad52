package spec

import "fmt"

// MaxUvarint is the largest value representable by the 7/7/7/8 varint layout.
const MaxUvarint = 1<<29 - 1

func ZigzagEncode(v int32) uint32 {
	return uint32(v<<1) ^ uint32(v>>31)
}

func ZigzagDecode(v uint32) int32 {
	return int32(v>>1) ^ -int32(v&1)
}

// AppendUvarint appends v using the minimum number of groups.
// It panics if v exceeds MaxUvarint.
func AppendUvarint(buf []byte, v uint32) []byte {
	switch {
	case v < 1<<7:
		return append(buf, byte(v))
	case v < 1<<14:
		return append(buf, 0x80|byte(v>>7), byte(v&0x7F))
	case v < 1<<21:
		return append(buf, 0x80|byte(v>>14), 0x80|byte(v>>7&0x7F), byte(v&0x7F))
	case v <= MaxUvarint:
		return append(buf, 0x80|byte(v>>22), 0x80|byte(v>>15&0x7F), 0x80|byte(v>>8&0x7F), byte(v))
	}
	panic(fmt.Sprintf("vectiles: varint value %d out of range", v))
}

func AppendSvarint(buf []byte, v int32) []byte {
	return AppendUvarint(buf, ZigzagEncode(v))
}

// AppendTwips appends a distance in units, rounded to the nearest twip.
func AppendTwips(buf []byte, v float64) []byte {
	t := v * TwipsPerUnit
	if t < 0 {
		t -= 0.5
	} else {
		t += 0.5
	}
	return AppendSvarint(buf, int32(t))
}

func AppendRGB(buf []byte, rgb uint32) []byte {
	return append(buf, byte(rgb>>16), byte(rgb>>8), byte(rgb))
}
