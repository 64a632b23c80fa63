package codec

import (
	"errors"
	"testing"
)

func samplePoolSwap() PoolSwapTLV {
	p := PoolSwapTLV{
		Venue:             7,
		TickAfter:         1000,
		AmountInDecimals:  18,
		AmountOutDecimals: 6,
		TimestampNs:       1_700_000_000_000_000_000,
		BlockNumber:       19_000_000,
		AmountIn:          Uint128{Hi: 0, Lo: 1_000_000_000_000_000_000},
		AmountOut:         Uint128{Hi: 0, Lo: 2_500_000_000},
		LiquidityAfter:    Uint128{Hi: 1, Lo: 2},
		SqrtPriceX96After: Uint128{Hi: 1 << 32, Lo: 0}, // 2^96
	}
	p.Pool[19] = 0xAA
	p.TokenIn[19] = 0xBB
	p.TokenOut[19] = 0xCC
	return p
}

// TestBuildParsePoolSwapRoundTrip exercises the end-to-end build-then-parse
// path for a PoolSwap message: header round-trips, checksum verifies, and
// the decoded payload equals the original.
func TestBuildParsePoolSwapRoundTrip(t *testing.T) {
	swap := samplePoolSwap()
	if err := swap.Validate(); err != nil {
		t.Fatalf("sample payload should validate: %v", err)
	}

	msg, err := BuildMessage(DomainMarketData, 1, TLVPoolSwap, 42, swap.TimestampNs, &swap)
	if err != nil {
		t.Fatalf("BuildMessage: %v", err)
	}

	hdr, err := ParseHeader(msg)
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	if hdr.RelayDomain != DomainMarketData {
		t.Fatalf("domain = %v, want market_data", hdr.RelayDomain)
	}
	if hdr.Sequence != 42 {
		t.Fatalf("sequence = %d, want 42", hdr.Sequence)
	}
	if !VerifyChecksum(msg) {
		t.Fatal("checksum failed to verify")
	}

	views, err := ParseTLVExtensions(msg[HeaderSize : HeaderSize+int(hdr.PayloadSize)])
	if err != nil {
		t.Fatalf("ParseTLVExtensions: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("got %d TLV views, want 1", len(views))
	}
	if views[0].Type != TLVPoolSwap {
		t.Fatalf("TLV type = %v, want TLVPoolSwap", views[0].Type)
	}

	decoded, err := DecodePoolSwap(views[0].Payload)
	if err != nil {
		t.Fatalf("DecodePoolSwap: %v", err)
	}
	if decoded != swap {
		t.Fatalf("decoded payload does not match original:\n got  %+v\n want %+v", decoded, swap)
	}
}

// TestChecksumDetectsCorruption ensures a single flipped payload byte is
// caught by VerifyChecksum without needing to touch TLV parsing at all.
func TestChecksumDetectsCorruption(t *testing.T) {
	swap := samplePoolSwap()
	msg, err := BuildMessage(DomainMarketData, 1, TLVPoolSwap, 1, swap.TimestampNs, &swap)
	if err != nil {
		t.Fatalf("BuildMessage: %v", err)
	}
	msg[len(msg)-1] ^= 0xFF
	if VerifyChecksum(msg) {
		t.Fatal("checksum verified despite corrupted payload byte")
	}
}

// TestBuildMessageRejectsDomainMismatch confirms a TLV type is refused when
// it does not belong to the caller's declared domain, before any bytes are
// written.
func TestBuildMessageRejectsDomainMismatch(t *testing.T) {
	swap := samplePoolSwap()
	_, err := BuildMessage(DomainExecution, 1, TLVPoolSwap, 1, swap.TimestampNs, &swap)
	if !errors.Is(err, ErrDomainMismatch) {
		t.Fatalf("err = %v, want ErrDomainMismatch", err)
	}
}

// TestParseHeaderRejectsBadMagicWithoutFurtherReads exercises the "reject
// cheaply, don't keep parsing" path: a buffer with a corrupted magic is
// rejected at offset 0, before the domain byte or anything past it is ever
// interpreted.
func TestParseHeaderRejectsBadMagicWithoutFurtherReads(t *testing.T) {
	buf := make([]byte, HeaderSize)
	buf[0], buf[1], buf[2], buf[3] = 0, 0, 0, 0 // definitely not 0xDEADBEEF
	buf[4] = 0xFF                               // would also fail domain validation, but magic must fail first

	_, err := ParseHeader(buf)
	var off *OffsetError
	if !errors.As(err, &off) {
		t.Fatalf("err = %v, want *OffsetError", err)
	}
	if off.Offset != 0 {
		t.Fatalf("offset = %d, want 0", off.Offset)
	}
	if !errors.Is(err, ErrBadMagic) {
		t.Fatalf("err = %v, want ErrBadMagic", err)
	}
}

// TestParseHeaderRejectsPayloadOverrun confirms a declared payload_size that
// exceeds the remaining buffer is rejected rather than read out of bounds.
func TestParseHeaderRejectsPayloadOverrun(t *testing.T) {
	h := Header{Magic: Magic, RelayDomain: DomainSystem, Version: ProtocolVersion, PayloadSize: 100}
	buf := h.Encode()
	_, err := ParseHeader(buf) // no payload bytes appended at all
	if !errors.Is(err, ErrPayloadOverrun) {
		t.Fatalf("err = %v, want ErrPayloadOverrun", err)
	}
}

// TestParseTLVExtensionsRejectsTruncatedTLV confirms a TLV whose declared
// length runs past the end of the buffer is rejected with the offset of the
// TLV header that lied about its length.
func TestParseTLVExtensionsRejectsTruncatedTLV(t *testing.T) {
	payload := []byte{byte(TLVTrade), 48} // claims 48 bytes of body, has none
	_, err := ParseTLVExtensions(payload)
	var off *OffsetError
	if !errors.As(err, &off) {
		t.Fatalf("err = %v, want *OffsetError", err)
	}
	if off.Offset != 0 {
		t.Fatalf("offset = %d, want 0", off.Offset)
	}
	if !errors.Is(err, ErrTruncatedTLV) {
		t.Fatalf("err = %v, want ErrTruncatedTLV", err)
	}
}

// TestExtendedTLVRoundTrip confirms a payload larger than 255 bytes is
// framed with the Extended TLV sentinel and parses back correctly.
func TestExtendedTLVRoundTrip(t *testing.T) {
	book := OrderBookUpdateTLV{
		Venue:       3,
		Side:        TradeSideBuy,
		TimestampNs: 123,
	}
	for i := 0; i < 30; i++ {
		book.Levels = append(book.Levels, PriceLevel{Price: int64(1000 + i), Size: int64(10 * i)})
	}
	// 30 levels * 16 bytes + fixed prefix comfortably exceeds 255 bytes.
	msg, err := BuildMessage(DomainMarketData, 2, TLVOrderBook, 7, book.TimestampNs, &book)
	if err != nil {
		t.Fatalf("BuildMessage: %v", err)
	}
	hdr, err := ParseHeader(msg)
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	if msg[HeaderSize] != ExtendedTLVSentinel {
		t.Fatalf("expected extended TLV sentinel at offset %d, got %d", HeaderSize, msg[HeaderSize])
	}
	views, err := ParseTLVExtensions(msg[HeaderSize : HeaderSize+int(hdr.PayloadSize)])
	if err != nil {
		t.Fatalf("ParseTLVExtensions: %v", err)
	}
	if len(views) != 1 || views[0].Type != TLVOrderBook {
		t.Fatalf("unexpected views: %+v", views)
	}
	decoded, err := DecodeOrderBookUpdate(views[0].Payload)
	if err != nil {
		t.Fatalf("DecodeOrderBookUpdate: %v", err)
	}
	if len(decoded.Levels) != len(book.Levels) {
		t.Fatalf("got %d levels, want %d", len(decoded.Levels), len(book.Levels))
	}
	for i := range book.Levels {
		if decoded.Levels[i] != book.Levels[i] {
			t.Fatalf("level %d mismatch: got %+v want %+v", i, decoded.Levels[i], book.Levels[i])
		}
	}
}

// TestPoolSwapRejectsOutOfRangeTick confirms a tick outside the protocol's
// documented range is rejected at construction time rather than silently
// accepted onto the wire.
func TestPoolSwapRejectsOutOfRangeTick(t *testing.T) {
	swap := samplePoolSwap()
	swap.TickAfter = MaxTick + 1
	if err := swap.Validate(); !errors.Is(err, ErrTickOutOfRange) {
		t.Fatalf("err = %v, want ErrTickOutOfRange", err)
	}

	swap.TickAfter = MaxTick
	if err := swap.Validate(); err != nil {
		t.Fatalf("boundary tick %d should validate: %v", MaxTick, err)
	}

	swap.TickAfter = MinTick
	if err := swap.Validate(); err != nil {
		t.Fatalf("boundary tick %d should validate: %v", MinTick, err)
	}
}

// TestConsumerRegistrationRoundTrip exercises the variable-length, string-
// bearing system payload used during relay subscription handshakes.
func TestConsumerRegistrationRoundTrip(t *testing.T) {
	reg := ConsumerRegistrationTLV{Topics: []string{"arbitrage.*", "momentum.btc-usd", "*"}}
	reg.ConsumerID[0] = 1
	reg.ConsumerID[15] = 9

	encoded := reg.Encode()
	decoded, err := DecodeConsumerRegistration(encoded)
	if err != nil {
		t.Fatalf("DecodeConsumerRegistration: %v", err)
	}
	if decoded.ConsumerID != reg.ConsumerID {
		t.Fatalf("consumer id mismatch: got %v want %v", decoded.ConsumerID, reg.ConsumerID)
	}
	if len(decoded.Topics) != len(reg.Topics) {
		t.Fatalf("got %d topics, want %d", len(decoded.Topics), len(reg.Topics))
	}
	for i := range reg.Topics {
		if decoded.Topics[i] != reg.Topics[i] {
			t.Fatalf("topic %d = %q, want %q", i, decoded.Topics[i], reg.Topics[i])
		}
	}
}

// TestInstrumentIdRoundTrip confirms the 20-byte bijective identifier
// survives an encode/decode cycle, including the U64 packing used for
// cheap map keys.
func TestInstrumentIdRoundTrip(t *testing.T) {
	id := InstrumentId{Venue: 99, Asset: AssetPool, AssetID: 0x0102030405}
	buf := id.Encode()
	decoded := DecodeInstrumentId(buf[:])
	if decoded != id {
		t.Fatalf("decoded = %+v, want %+v", decoded, id)
	}
	packed := id.ToU64()
	if FromU64(packed) != id {
		t.Fatalf("FromU64(ToU64(id)) = %+v, want %+v", FromU64(packed), id)
	}
}

// TestHeaderEncodeGoldenBytes pins the header's wire layout to literal bytes
// rather than a Go-encode/Go-decode round trip, so a byte-order regression in
// EncodeInto (or a future refactor) can't hide behind a decoder that happens
// to make the same mistake in reverse.
func TestHeaderEncodeGoldenBytes(t *testing.T) {
	h := Header{
		Magic:       Magic,
		RelayDomain: DomainMarketData,
		Version:     ProtocolVersion,
		Source:      7,
		Flags:       0,
		Sequence:    42,
		TimestampNs: 1_700_000_000_000_000_000,
		PayloadSize: 208,
		Checksum:    0x01020304,
	}
	got := h.Encode()
	want := []byte{
		0xEF, 0xBE, 0xAD, 0xDE, // magic, little-endian
		0x01,                   // relay_domain = market_data
		0x01,                   // version
		0x07,                   // source
		0x00,                   // flags
		42, 0, 0, 0, 0, 0, 0, 0, // sequence, little-endian
		0x00, 0x00, 0x2A, 0x36, 0xFE, 0x9C, 0x97, 0x17, // timestamp_ns, little-endian
		0xD0, 0x00, // payload_size = 208, little-endian
		0x04, 0x03, 0x02, 0x01, // checksum, little-endian
		0x00, 0x00, // reserved
	}
	if len(got) != len(want) {
		t.Fatalf("encoded length = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("byte %d = 0x%02X, want 0x%02X (full: got=% X want=% X)", i, got[i], want[i], got, want)
		}
	}
}

// TestUint128EncodeGoldenBytes pins Uint128's wire layout: Lo's 8 bytes
// first, then Hi's, each little-endian -- matching every other multi-byte
// field on the wire rather than the big-endian layout an earlier revision
// mistakenly used.
func TestUint128EncodeGoldenBytes(t *testing.T) {
	u := Uint128{Hi: 0x0102030405060708, Lo: 0x1112131415161718}
	got := u.Encode()
	want := [16]byte{
		0x18, 0x17, 0x16, 0x15, 0x14, 0x13, 0x12, 0x11, // Lo, little-endian
		0x08, 0x07, 0x06, 0x05, 0x04, 0x03, 0x02, 0x01, // Hi, little-endian
	}
	if got != want {
		t.Fatalf("Encode() = % X, want % X", got, want)
	}
	if decoded := DecodeUint128(got[:]); decoded != u {
		t.Fatalf("DecodeUint128(golden bytes) = %+v, want %+v", decoded, u)
	}
}

// TestInstrumentIdEncodeGoldenBytes pins InstrumentId's wire layout,
// including AssetID, which an earlier revision wrote big-endian.
func TestInstrumentIdEncodeGoldenBytes(t *testing.T) {
	id := InstrumentId{Venue: 0x0201, Asset: AssetCEXPair, AssetID: 0x0102030405060708}
	got := id.Encode()
	want := [InstrumentIdSize]byte{
		0x01, 0x02, // venue, little-endian
		0x03,       // asset type
		0x00,       // reserved
		0x08, 0x07, 0x06, 0x05, 0x04, 0x03, 0x02, 0x01, // asset id, little-endian
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, // reserved
	}
	if got != want {
		t.Fatalf("Encode() = % X, want % X", got, want)
	}
}

// TestPoolSwapEncodeUsesLittleEndianAmounts confirms a sample PoolSwap with
// a 1e18 amount_in survives encode/decode and that its Uint128-valued
// fields are written little-endian, consistent with every other field in
// the same 208-byte payload.
func TestPoolSwapEncodeUsesLittleEndianAmounts(t *testing.T) {
	swap := samplePoolSwap()
	swap.AmountIn = Uint128{Hi: 0, Lo: 1_000_000_000_000_000_000}

	encoded := swap.Encode()
	amountInOffset := 32 + 32 + 32 + 2 // pool, token_in, token_out, venue
	gotLo := uint64(0)
	for i := 0; i < 8; i++ {
		gotLo |= uint64(encoded[amountInOffset+i]) << (8 * i)
	}
	if gotLo != swap.AmountIn.Lo {
		t.Fatalf("amount_in low word at offset %d = %d, want %d (not little-endian)", amountInOffset, gotLo, swap.AmountIn.Lo)
	}

	decoded, err := DecodePoolSwap(encoded)
	if err != nil {
		t.Fatalf("DecodePoolSwap: %v", err)
	}
	if decoded.AmountIn != swap.AmountIn {
		t.Fatalf("decoded.AmountIn = %+v, want %+v", decoded.AmountIn, swap.AmountIn)
	}
}
