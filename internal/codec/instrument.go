package codec

import "encoding/binary"

// InstrumentIdSize is the fixed wire size of an InstrumentId.
const InstrumentIdSize = 20

// AssetType is the 1-byte asset-class discriminant embedded in an
// InstrumentId.
type AssetType uint8

const (
	AssetSpotToken AssetType = 1
	AssetPool      AssetType = 2
	AssetCEXPair   AssetType = 3
	AssetFuture    AssetType = 4
)

// InstrumentId is a 20-byte bijective identifier for a tradeable instrument:
// 2-byte venue tag, 1-byte asset type, 1-byte reserved, 8-byte asset id. The
// remaining 8 bytes are reserved padding so the struct stays 20 bytes on the
// wire without implicit alignment padding.
type InstrumentId struct {
	Venue   uint16
	Asset   AssetType
	AssetID uint64 // derived from an address prefix or symbol hash
}

// Encode writes the InstrumentId's 20-byte wire form.
func (id InstrumentId) Encode() [InstrumentIdSize]byte {
	var buf [InstrumentIdSize]byte
	binary.LittleEndian.PutUint16(buf[0:2], id.Venue)
	buf[2] = byte(id.Asset)
	buf[3] = 0 // reserved
	binary.LittleEndian.PutUint64(buf[4:12], id.AssetID)
	// buf[12:20] stays zero: reserved for future extension of AssetID width.
	return buf
}

// DecodeInstrumentId parses a 20-byte buffer into an InstrumentId.
func DecodeInstrumentId(buf []byte) InstrumentId {
	_ = buf[InstrumentIdSize-1]
	return InstrumentId{
		Venue:   binary.LittleEndian.Uint16(buf[0:2]),
		Asset:   AssetType(buf[2]),
		AssetID: binary.LittleEndian.Uint64(buf[4:12]),
	}
}

// ToU64 packs venue and asset type into the high bits of a uint64 alongside
// the low 40 bits of AssetID, giving a constant-time total order usable as a
// map key without the full 20-byte comparison. It is not itself part of the
// wire format.
func (id InstrumentId) ToU64() uint64 {
	return uint64(id.Venue)<<48 | uint64(id.Asset)<<40 | (id.AssetID & 0xFF_FFFF_FFFF)
}

// FromU64 reverses ToU64. The mapping is total and deterministic but lossy
// for AssetID values above 40 bits; callers needing the full AssetID should
// retain the original InstrumentId instead of round-tripping through ToU64.
func FromU64(v uint64) InstrumentId {
	return InstrumentId{
		Venue:   uint16(v >> 48),
		Asset:   AssetType((v >> 40) & 0xFF),
		AssetID: v & 0xFF_FFFF_FFFF,
	}
}
