package timecode

import "fmt"

// DecodeSMPTE decodes the packed BCD timecode stored in the CinemaDNG
// TimeCodes tag (8 bytes; only the first four carry the address).
//
// Byte layout:
//
//	0: frame units (bits 0-3), frame tens (4-5), drop flag (6)
//	1: second units (0-3), second tens (4-6)
//	2: minute units (0-3), minute tens (4-6)
//	3: hour units (0-3), hour tens (4-5)
func DecodeSMPTE(b []byte) (TimeCode, error) {
	if len(b) < 4 {
		return TimeCode{}, fmt.Errorf("timecode: SMPTE block too short (%d bytes)", len(b))
	}

	tc := TimeCode{
		Frames:    int(b[0]>>4&0x3)*10 + int(b[0]&0xf),
		DropFrame: b[0]&0x40 != 0,
		Seconds:   int(b[1]>>4&0x7)*10 + int(b[1]&0xf),
		Minutes:   int(b[2]>>4&0x7)*10 + int(b[2]&0xf),
		Hours:     int(b[3]>>4&0x3)*10 + int(b[3]&0xf),
	}
	if tc.Seconds > 59 || tc.Minutes > 59 || tc.Hours > 23 {
		return TimeCode{}, fmt.Errorf("timecode: invalid SMPTE address %s", tc)
	}
	return tc, nil
}

// EncodeSMPTE packs tc into the 8-byte CinemaDNG layout (binary groups zeroed).
func EncodeSMPTE(tc TimeCode) []byte {
	b := make([]byte, 8)
	b[0] = byte(tc.Frames/10)<<4 | byte(tc.Frames%10)
	if tc.DropFrame {
		b[0] |= 0x40
	}
	b[1] = byte(tc.Seconds/10)<<4 | byte(tc.Seconds%10)
	b[2] = byte(tc.Minutes/10)<<4 | byte(tc.Minutes%10)
	b[3] = byte(tc.Hours/10)<<4 | byte(tc.Hours%10)
	return b
}
