package codec

import (
	"encoding/binary"
	"hash/crc32"
)

// HeaderSize is the fixed, wire-exact size of every framed message's header.
const HeaderSize = 32

// Magic is the constant that opens every framed message.
const Magic uint32 = 0xDEADBEEF

// ExtendedTLVSentinel is the reserved TLV type value that introduces an
// Extended TLV (2-byte length) instead of a Standard TLV (1-byte length).
// Locked per SPEC_FULL.md's Open Question resolution.
const ExtendedTLVSentinel uint8 = 255

// RelayDomain is the 8-bit enum partitioning both relays and TLV type
// numbers.
type RelayDomain uint8

const (
	DomainMarketData RelayDomain = 1
	DomainSignal      RelayDomain = 2
	DomainExecution   RelayDomain = 3
	DomainSystem      RelayDomain = 4
)

// Valid reports whether d is a known relay domain.
func (d RelayDomain) Valid() bool {
	switch d {
	case DomainMarketData, DomainSignal, DomainExecution, DomainSystem:
		return true
	default:
		return false
	}
}

func (d RelayDomain) String() string {
	switch d {
	case DomainMarketData:
		return "market_data"
	case DomainSignal:
		return "signal"
	case DomainExecution:
		return "execution"
	case DomainSystem:
		return "system"
	default:
		return "unknown"
	}
}

// ProtocolVersion is the version this implementation writes and the only
// version it is guaranteed to parse. Messages with a different version are
// not auto-rejected (parse_header does not check it against a single
// constant, only that it round-trips), but producers should always use this
// value.
const ProtocolVersion uint8 = 1

// Header is the decoded, in-memory form of a framed message's fixed 32-byte
// preamble. Field order mirrors the wire layout documented in
// SPEC_FULL.md §6, not Go struct-packing rules -- Encode/Decode always walk
// fields by explicit offset via encoding/binary, never via unsafe casts.
type Header struct {
	Magic       uint32
	RelayDomain RelayDomain
	Version     uint8
	Source      uint8
	Flags       uint8
	Sequence    uint64
	TimestampNs uint64
	PayloadSize uint16
	Checksum    uint32
}

// Encode writes h into a freshly allocated 32-byte buffer. The checksum field
// is written as-is (callers building a message patch it in afterward once the
// full buffer, payload included, is known).
func (h *Header) Encode() []byte {
	buf := make([]byte, HeaderSize)
	h.EncodeInto(buf)
	return buf
}

// EncodeInto writes h's wire form into buf, which must be at least
// HeaderSize bytes.
func (h *Header) EncodeInto(buf []byte) {
	_ = buf[HeaderSize-1]
	binary.LittleEndian.PutUint32(buf[0:4], h.Magic)
	buf[4] = byte(h.RelayDomain)
	buf[5] = h.Version
	buf[6] = h.Source
	buf[7] = h.Flags
	binary.LittleEndian.PutUint64(buf[8:16], h.Sequence)
	binary.LittleEndian.PutUint64(buf[16:24], h.TimestampNs)
	binary.LittleEndian.PutUint16(buf[24:26], h.PayloadSize)
	binary.LittleEndian.PutUint32(buf[26:30], h.Checksum)
	buf[30] = 0
	buf[31] = 0
}

// ParseHeader validates magic, domain, and that the declared payload_size
// fits the remaining bytes. It does not validate the checksum; hot readers
// that want integrity should call VerifyChecksum separately.
func ParseHeader(buf []byte) (Header, error) {
	var h Header
	if len(buf) < HeaderSize {
		return h, ErrShortHeader
	}
	h.Magic = binary.LittleEndian.Uint32(buf[0:4])
	if h.Magic != Magic {
		return h, &OffsetError{Offset: 0, Err: ErrBadMagic}
	}
	h.RelayDomain = RelayDomain(buf[4])
	if !h.RelayDomain.Valid() {
		return h, &OffsetError{Offset: 4, Err: ErrUnknownDomain}
	}
	h.Version = buf[5]
	h.Source = buf[6]
	h.Flags = buf[7]
	h.Sequence = binary.LittleEndian.Uint64(buf[8:16])
	h.TimestampNs = binary.LittleEndian.Uint64(buf[16:24])
	h.PayloadSize = binary.LittleEndian.Uint16(buf[24:26])
	h.Checksum = binary.LittleEndian.Uint32(buf[26:30])

	if len(buf)-HeaderSize < int(h.PayloadSize) {
		return h, &OffsetError{Offset: HeaderSize, Err: ErrPayloadOverrun}
	}
	return h, nil
}

// checksum computes the CRC-32 IEEE checksum of a framed message with the
// checksum field zeroed, as required for both building and verifying.
func checksum(full []byte) uint32 {
	var scratch [HeaderSize]byte
	copy(scratch[:], full[:HeaderSize])
	scratch[26], scratch[27], scratch[28], scratch[29] = 0, 0, 0, 0

	c := crc32.NewIEEE()
	c.Write(scratch[:])
	c.Write(full[HeaderSize:])
	return c.Sum32()
}

// VerifyChecksum reports whether full's checksum field matches the CRC-32
// IEEE checksum of the rest of the message. full must be at least HeaderSize
// bytes and payload_size-consistent; callers should ParseHeader first.
func VerifyChecksum(full []byte) bool {
	if len(full) < HeaderSize {
		return false
	}
	want := binary.LittleEndian.Uint32(full[26:30])
	return checksum(full) == want
}
