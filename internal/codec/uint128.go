package codec

import "encoding/binary"

// Uint128 represents a 128-bit unsigned integer as two 64-bit halves, used
// for on-chain amounts that exceed 64 bits (native-token precision). No
// floating-point ever represents a monetary quantity; Uint128 is the
// full-width integer escape hatch for amounts a Go uint64 cannot hold.
type Uint128 struct {
	Hi uint64
	Lo uint64
}

// IsZero reports whether the value is exactly zero.
func (u Uint128) IsZero() bool {
	return u.Hi == 0 && u.Lo == 0
}

// Encode writes u as 16 little-endian bytes: Lo's 8 bytes first, then Hi's,
// each word itself little-endian, matching every other multi-byte field on
// the wire.
func (u Uint128) Encode() [16]byte {
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[0:8], u.Lo)
	binary.LittleEndian.PutUint64(buf[8:16], u.Hi)
	return buf
}

// DecodeUint128 parses a 16-byte little-endian buffer into a Uint128.
func DecodeUint128(buf []byte) Uint128 {
	_ = buf[15]
	return Uint128{Lo: binary.LittleEndian.Uint64(buf[0:8]), Hi: binary.LittleEndian.Uint64(buf[8:16])}
}
