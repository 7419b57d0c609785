package dng

import "encoding/binary"

// Unpack12To16 expands big-endian packed 12-bit samples (two per three
// bytes) into little-endian 16-bit samples. Trailing bytes that do not
// form a whole group are ignored. It returns the number of bytes written.
func Unpack12To16(dst, src []byte) int {
	n := 0
	for i := 0; i+3 <= len(src) && n+4 <= len(dst); i += 3 {
		b2, b1, b0 := uint16(src[i]), uint16(src[i+1]), uint16(src[i+2])
		binary.LittleEndian.PutUint16(dst[n:], b2<<4|b1>>4)
		binary.LittleEndian.PutUint16(dst[n+2:], (b1<<8)&0x0fff|b0)
		n += 4
	}
	return n
}

// Unpack14To16 expands big-endian packed 14-bit samples (four per seven
// bytes) into little-endian 16-bit samples. It returns the number of
// bytes written.
func Unpack14To16(dst, src []byte) int {
	n := 0
	for i := 0; i+7 <= len(src) && n+8 <= len(dst); i += 7 {
		b6, b5, b4, b3 := uint32(src[i]), uint32(src[i+1]), uint32(src[i+2]), uint32(src[i+3])
		b2, b1, b0 := uint32(src[i+4]), uint32(src[i+5]), uint32(src[i+6])

		binary.LittleEndian.PutUint16(dst[n:], uint16(b5>>2|b6<<6))
		binary.LittleEndian.PutUint16(dst[n+2:], uint16(b3>>4|b4<<4|(0x3fff&(b5<<12))))
		binary.LittleEndian.PutUint16(dst[n+4:], uint16(b1>>6|b2<<2|(0x3fff&(b3<<10))))
		binary.LittleEndian.PutUint16(dst[n+6:], uint16((0x3fff&(b1<<8))|b0))
		n += 8
	}
	return n
}
