package codec

import (
	"encoding/binary"
	"errors"
)

// Tick range invariant shared by every payload that carries a Uniswap-v3-
// style tick value.
const (
	MinTick int32 = -887272
	MaxTick int32 = 887272
)

var (
	ErrTickOutOfRange   = errors.New("codec: tick out of range")
	ErrZeroAddress      = errors.New("codec: address must not be all-zero")
	ErrZeroAmount       = errors.New("codec: amount must not be zero")
	ErrTickRangeInverted = errors.New("codec: tick_lower must be < tick_upper")
)

func validateTick(t int32) error {
	if t < MinTick || t > MaxTick {
		return ErrTickOutOfRange
	}
	return nil
}

func isZeroAddress(addr [32]byte) bool {
	for _, b := range addr {
		if b != 0 {
			return false
		}
	}
	return true
}

// --- PoolSwap -----------------------------------------------------------

// PoolSwapSize is PoolSwapTLV's fixed wire size in bytes.
const PoolSwapSize = 208

// PoolSwapTLV is the canonical DEX swap event payload. Addresses are20-byte
// Ethereum-style addresses left-padded into a 32-byte field (bytes 12..32
// hold the address; bytes 0..12 are zero).
type PoolSwapTLV struct {
	Pool               [32]byte
	TokenIn            [32]byte
	TokenOut           [32]byte
	Venue              uint16
	AmountIn           Uint128
	AmountOut          Uint128
	LiquidityAfter     Uint128
	SqrtPriceX96After  Uint128
	TickAfter          int32
	AmountInDecimals   uint8
	AmountOutDecimals  uint8
	TimestampNs        uint64
	BlockNumber        uint64
}

// Validate enforces PoolSwapTLV's construction invariants (SPEC_FULL.md §3):
// non-zero addresses, non-zero amounts, tick within range.
func (p *PoolSwapTLV) Validate() error {
	if isZeroAddress(p.Pool) || isZeroAddress(p.TokenIn) || isZeroAddress(p.TokenOut) {
		return ErrZeroAddress
	}
	if p.AmountIn.IsZero() || p.AmountOut.IsZero() {
		return ErrZeroAmount
	}
	return validateTick(p.TickAfter)
}

func (p *PoolSwapTLV) Encode() []byte {
	buf := make([]byte, PoolSwapSize)
	off := 0
	off += copy(buf[off:], p.Pool[:])
	off += copy(buf[off:], p.TokenIn[:])
	off += copy(buf[off:], p.TokenOut[:])
	binary.LittleEndian.PutUint16(buf[off:off+2], p.Venue)
	off += 2
	ai := p.AmountIn.Encode()
	off += copy(buf[off:], ai[:])
	ao := p.AmountOut.Encode()
	off += copy(buf[off:], ao[:])
	la := p.LiquidityAfter.Encode()
	off += copy(buf[off:], la[:])
	sp := p.SqrtPriceX96After.Encode()
	off += copy(buf[off:], sp[:])
	binary.LittleEndian.PutUint32(buf[off:off+4], uint32(p.TickAfter))
	off += 4
	buf[off] = p.AmountInDecimals
	off++
	buf[off] = p.AmountOutDecimals
	off++
	binary.LittleEndian.PutUint64(buf[off:off+8], p.TimestampNs)
	off += 8
	binary.LittleEndian.PutUint64(buf[off:off+8], p.BlockNumber)
	// remaining bytes are reserved padding, left zero.
	return buf
}

// DecodePoolSwap parses and re-validates a PoolSwapTLV from its wire form.
func DecodePoolSwap(buf []byte) (PoolSwapTLV, error) {
	var p PoolSwapTLV
	if len(buf) != PoolSwapSize {
		return p, ErrInvalidLength
	}
	off := 0
	copy(p.Pool[:], buf[off:off+32])
	off += 32
	copy(p.TokenIn[:], buf[off:off+32])
	off += 32
	copy(p.TokenOut[:], buf[off:off+32])
	off += 32
	p.Venue = binary.LittleEndian.Uint16(buf[off : off+2])
	off += 2
	p.AmountIn = DecodeUint128(buf[off : off+16])
	off += 16
	p.AmountOut = DecodeUint128(buf[off : off+16])
	off += 16
	p.LiquidityAfter = DecodeUint128(buf[off : off+16])
	off += 16
	p.SqrtPriceX96After = DecodeUint128(buf[off : off+16])
	off += 16
	p.TickAfter = int32(binary.LittleEndian.Uint32(buf[off : off+4]))
	off += 4
	p.AmountInDecimals = buf[off]
	off++
	p.AmountOutDecimals = buf[off]
	off++
	p.TimestampNs = binary.LittleEndian.Uint64(buf[off : off+8])
	off += 8
	p.BlockNumber = binary.LittleEndian.Uint64(buf[off : off+8])

	if err := p.Validate(); err != nil {
		return p, err
	}
	return p, nil
}

// --- PoolMint / PoolBurn --------------------------------------------------

// PoolMintBurnSize is the shared fixed wire size of PoolMintTLV and
// PoolBurnTLV.
const PoolMintBurnSize = 160

// PoolLiquidityChangeTLV is the shared shape of PoolMint and PoolBurn: a
// liquidity position opened or closed over a tick range.
type PoolLiquidityChangeTLV struct {
	Pool            [32]byte
	TickLower       int32
	TickUpper       int32
	LiquidityDelta  Uint128
	Amount0         Uint128
	Amount1         Uint128
	TimestampNs     uint64
	BlockNumber     uint64
}

func (p *PoolLiquidityChangeTLV) Validate() error {
	if isZeroAddress(p.Pool) {
		return ErrZeroAddress
	}
	if p.TickLower >= p.TickUpper {
		return ErrTickRangeInverted
	}
	if err := validateTick(p.TickLower); err != nil {
		return err
	}
	return validateTick(p.TickUpper)
}

func (p *PoolLiquidityChangeTLV) Encode() []byte {
	buf := make([]byte, PoolMintBurnSize)
	off := 0
	off += copy(buf[off:], p.Pool[:])
	binary.LittleEndian.PutUint32(buf[off:off+4], uint32(p.TickLower))
	off += 4
	binary.LittleEndian.PutUint32(buf[off:off+4], uint32(p.TickUpper))
	off += 4
	ld := p.LiquidityDelta.Encode()
	off += copy(buf[off:], ld[:])
	a0 := p.Amount0.Encode()
	off += copy(buf[off:], a0[:])
	a1 := p.Amount1.Encode()
	off += copy(buf[off:], a1[:])
	binary.LittleEndian.PutUint64(buf[off:off+8], p.TimestampNs)
	off += 8
	binary.LittleEndian.PutUint64(buf[off:off+8], p.BlockNumber)
	return buf
}

// DecodePoolLiquidityChange parses and re-validates a PoolMint/PoolBurn
// payload (the two share a wire shape, distinguished by TLV type).
func DecodePoolLiquidityChange(buf []byte) (PoolLiquidityChangeTLV, error) {
	var p PoolLiquidityChangeTLV
	if len(buf) != PoolMintBurnSize {
		return p, ErrInvalidLength
	}
	off := 0
	copy(p.Pool[:], buf[off:off+32])
	off += 32
	p.TickLower = int32(binary.LittleEndian.Uint32(buf[off : off+4]))
	off += 4
	p.TickUpper = int32(binary.LittleEndian.Uint32(buf[off : off+4]))
	off += 4
	p.LiquidityDelta = DecodeUint128(buf[off : off+16])
	off += 16
	p.Amount0 = DecodeUint128(buf[off : off+16])
	off += 16
	p.Amount1 = DecodeUint128(buf[off : off+16])
	off += 16
	p.TimestampNs = binary.LittleEndian.Uint64(buf[off : off+8])
	off += 8
	p.BlockNumber = binary.LittleEndian.Uint64(buf[off : off+8])

	if err := p.Validate(); err != nil {
		return p, err
	}
	return p, nil
}

// --- PoolTick --------------------------------------------------------------

// PoolTickSize is PoolTickTLV's fixed wire size.
const PoolTickSize = 96

// PoolTickTLV reports a tick crossing event.
type PoolTickTLV struct {
	Pool         [32]byte
	Tick         int32
	LiquidityNet Uint128
	TimestampNs  uint64
	BlockNumber  uint64
}

func (p *PoolTickTLV) Validate() error {
	if isZeroAddress(p.Pool) {
		return ErrZeroAddress
	}
	return validateTick(p.Tick)
}

func (p *PoolTickTLV) Encode() []byte {
	buf := make([]byte, PoolTickSize)
	off := 0
	off += copy(buf[off:], p.Pool[:])
	binary.LittleEndian.PutUint32(buf[off:off+4], uint32(p.Tick))
	off += 4
	ln := p.LiquidityNet.Encode()
	off += copy(buf[off:], ln[:])
	binary.LittleEndian.PutUint64(buf[off:off+8], p.TimestampNs)
	off += 8
	binary.LittleEndian.PutUint64(buf[off:off+8], p.BlockNumber)
	return buf
}

// DecodePoolTick parses and re-validates a PoolTickTLV.
func DecodePoolTick(buf []byte) (PoolTickTLV, error) {
	var p PoolTickTLV
	if len(buf) != PoolTickSize {
		return p, ErrInvalidLength
	}
	off := 0
	copy(p.Pool[:], buf[off:off+32])
	off += 32
	p.Tick = int32(binary.LittleEndian.Uint32(buf[off : off+4]))
	off += 4
	p.LiquidityNet = DecodeUint128(buf[off : off+16])
	off += 16
	p.TimestampNs = binary.LittleEndian.Uint64(buf[off : off+8])
	off += 8
	p.BlockNumber = binary.LittleEndian.Uint64(buf[off : off+8])

	if err := p.Validate(); err != nil {
		return p, err
	}
	return p, nil
}

// --- PoolSync --------------------------------------------------------------

// PoolSyncSize is PoolSyncTLV's fixed wire size.
const PoolSyncSize = 96

// PoolSyncTLV reports a pool's reserves after a settling event (AMM "sync").
type PoolSyncTLV struct {
	Pool        [32]byte
	Reserve0    Uint128
	Reserve1    Uint128
	TimestampNs uint64
	BlockNumber uint64
}

func (p *PoolSyncTLV) Validate() error {
	if isZeroAddress(p.Pool) {
		return ErrZeroAddress
	}
	return nil
}

func (p *PoolSyncTLV) Encode() []byte {
	buf := make([]byte, PoolSyncSize)
	off := 0
	off += copy(buf[off:], p.Pool[:])
	r0 := p.Reserve0.Encode()
	off += copy(buf[off:], r0[:])
	r1 := p.Reserve1.Encode()
	off += copy(buf[off:], r1[:])
	binary.LittleEndian.PutUint64(buf[off:off+8], p.TimestampNs)
	off += 8
	binary.LittleEndian.PutUint64(buf[off:off+8], p.BlockNumber)
	return buf
}

// DecodePoolSync parses and re-validates a PoolSyncTLV.
func DecodePoolSync(buf []byte) (PoolSyncTLV, error) {
	var p PoolSyncTLV
	if len(buf) != PoolSyncSize {
		return p, ErrInvalidLength
	}
	off := 0
	copy(p.Pool[:], buf[off:off+32])
	off += 32
	p.Reserve0 = DecodeUint128(buf[off : off+16])
	off += 16
	p.Reserve1 = DecodeUint128(buf[off : off+16])
	off += 16
	p.TimestampNs = binary.LittleEndian.Uint64(buf[off : off+8])
	off += 8
	p.BlockNumber = binary.LittleEndian.Uint64(buf[off : off+8])

	if err := p.Validate(); err != nil {
		return p, err
	}
	return p, nil
}

// --- Trade / Quote / Volume (CEX) ------------------------------------------

// TradeSide discriminates buy/sell for a CEX trade tick.
type TradeSide uint8

const (
	TradeSideBuy  TradeSide = 0
	TradeSideSell TradeSide = 1
)

// TradeTLV is the canonical CEX trade tick. Price and Volume are 8-decimal
// fixed-point integers (an integer scaled by 1e8); no floating point is ever
// carried on the wire.
type TradeTLV struct {
	Venue       uint16
	Instrument  InstrumentId
	Price       int64
	Volume      int64
	Side        TradeSide
	TimestampNs uint64
}

func (t *TradeTLV) Encode() []byte {
	buf := make([]byte, 48)
	off := 0
	binary.LittleEndian.PutUint16(buf[off:off+2], t.Venue)
	off += 2
	inst := t.Instrument.Encode()
	off += copy(buf[off:], inst[:])
	binary.LittleEndian.PutUint64(buf[off:off+8], uint64(t.Price))
	off += 8
	binary.LittleEndian.PutUint64(buf[off:off+8], uint64(t.Volume))
	off += 8
	buf[off] = byte(t.Side)
	off++
	binary.LittleEndian.PutUint64(buf[off:off+8], t.TimestampNs)
	return buf
}

// DecodeTrade parses a TradeTLV.
func DecodeTrade(buf []byte) (TradeTLV, error) {
	var t TradeTLV
	if len(buf) != 48 {
		return t, ErrInvalidLength
	}
	off := 0
	t.Venue = binary.LittleEndian.Uint16(buf[off : off+2])
	off += 2
	t.Instrument = DecodeInstrumentId(buf[off : off+InstrumentIdSize])
	off += InstrumentIdSize
	t.Price = int64(binary.LittleEndian.Uint64(buf[off : off+8]))
	off += 8
	t.Volume = int64(binary.LittleEndian.Uint64(buf[off : off+8]))
	off += 8
	t.Side = TradeSide(buf[off])
	off++
	t.TimestampNs = binary.LittleEndian.Uint64(buf[off : off+8])
	return t, nil
}

// QuoteTLV is the canonical CEX top-of-book quote.
type QuoteTLV struct {
	Venue       uint16
	Instrument  InstrumentId
	BidPrice    int64
	AskPrice    int64
	BidSize     int64
	AskSize     int64
	TimestampNs uint64
}

func (q *QuoteTLV) Encode() []byte {
	buf := make([]byte, 64)
	off := 0
	binary.LittleEndian.PutUint16(buf[off:off+2], q.Venue)
	off += 2
	inst := q.Instrument.Encode()
	off += copy(buf[off:], inst[:])
	for _, v := range []int64{q.BidPrice, q.AskPrice, q.BidSize, q.AskSize} {
		binary.LittleEndian.PutUint64(buf[off:off+8], uint64(v))
		off += 8
	}
	binary.LittleEndian.PutUint64(buf[off:off+8], q.TimestampNs)
	return buf
}

// DecodeQuote parses a QuoteTLV.
func DecodeQuote(buf []byte) (QuoteTLV, error) {
	var q QuoteTLV
	if len(buf) != 64 {
		return q, ErrInvalidLength
	}
	off := 0
	q.Venue = binary.LittleEndian.Uint16(buf[off : off+2])
	off += 2
	q.Instrument = DecodeInstrumentId(buf[off : off+InstrumentIdSize])
	off += InstrumentIdSize
	q.BidPrice = int64(binary.LittleEndian.Uint64(buf[off : off+8]))
	off += 8
	q.AskPrice = int64(binary.LittleEndian.Uint64(buf[off : off+8]))
	off += 8
	q.BidSize = int64(binary.LittleEndian.Uint64(buf[off : off+8]))
	off += 8
	q.AskSize = int64(binary.LittleEndian.Uint64(buf[off : off+8]))
	off += 8
	q.TimestampNs = binary.LittleEndian.Uint64(buf[off : off+8])
	return q, nil
}

// VolumeTLV is a rolling volume/turnover snapshot for an instrument.
type VolumeTLV struct {
	Venue       uint16
	Instrument  InstrumentId
	TotalVolume uint64
	Turnover    int64 // 8-decimal fixed-point USD
	TimestampNs uint64
}

func (v *VolumeTLV) Encode() []byte {
	buf := make([]byte, 48)
	off := 0
	binary.LittleEndian.PutUint16(buf[off:off+2], v.Venue)
	off += 2
	inst := v.Instrument.Encode()
	off += copy(buf[off:], inst[:])
	binary.LittleEndian.PutUint64(buf[off:off+8], v.TotalVolume)
	off += 8
	binary.LittleEndian.PutUint64(buf[off:off+8], uint64(v.Turnover))
	off += 8
	binary.LittleEndian.PutUint64(buf[off:off+8], v.TimestampNs)
	return buf
}

// DecodeVolume parses a VolumeTLV.
func DecodeVolume(buf []byte) (VolumeTLV, error) {
	var v VolumeTLV
	if len(buf) != 48 {
		return v, ErrInvalidLength
	}
	off := 0
	v.Venue = binary.LittleEndian.Uint16(buf[off : off+2])
	off += 2
	v.Instrument = DecodeInstrumentId(buf[off : off+InstrumentIdSize])
	off += InstrumentIdSize
	v.TotalVolume = binary.LittleEndian.Uint64(buf[off : off+8])
	off += 8
	v.Turnover = int64(binary.LittleEndian.Uint64(buf[off : off+8]))
	off += 8
	v.TimestampNs = binary.LittleEndian.Uint64(buf[off : off+8])
	return v, nil
}

// --- OrderBook (variable, DynamicPayload) -----------------------------------

// PriceLevel is one repeated element of an OrderBookUpdate.
type PriceLevel struct {
	Price int64
	Size  int64
}

const priceLevelSize = 16

func encodePriceLevel(l PriceLevel) []byte {
	buf := make([]byte, priceLevelSize)
	binary.LittleEndian.PutUint64(buf[0:8], uint64(l.Price))
	binary.LittleEndian.PutUint64(buf[8:16], uint64(l.Size))
	return buf
}

func decodePriceLevel(buf []byte) PriceLevel {
	return PriceLevel{
		Price: int64(binary.LittleEndian.Uint64(buf[0:8])),
		Size:  int64(binary.LittleEndian.Uint64(buf[8:16])),
	}
}

// orderBookFixedSize is the size of OrderBookUpdateTLV's fixed prefix,
// before the repeated PriceLevel records.
const orderBookFixedSize = 2 + InstrumentIdSize + 1 + 2 + 8 // venue, instrument, side, level count, timestamp

// OrderBookUpdateTLV is the canonical order-book snapshot/delta: a fixed
// prefix (venue, instrument, side, level count, timestamp) followed by
// LevelCount PriceLevel records.
type OrderBookUpdateTLV struct {
	Venue       uint16
	Instrument  InstrumentId
	Side        TradeSide
	TimestampNs uint64
	Levels      []PriceLevel
}

func (o *OrderBookUpdateTLV) Encode() []byte {
	buf := make([]byte, orderBookFixedSize+len(o.Levels)*priceLevelSize)
	off := 0
	binary.LittleEndian.PutUint16(buf[off:off+2], o.Venue)
	off += 2
	inst := o.Instrument.Encode()
	off += copy(buf[off:], inst[:])
	buf[off] = byte(o.Side)
	off++
	binary.LittleEndian.PutUint16(buf[off:off+2], uint16(len(o.Levels)))
	off += 2
	binary.LittleEndian.PutUint64(buf[off:off+8], o.TimestampNs)
	off += 8
	for _, l := range o.Levels {
		lv := encodePriceLevel(l)
		off += copy(buf[off:], lv)
	}
	return buf
}

// orderBookCountOffset is where the level count sits within the fixed prefix.
const orderBookCountOffset = 2 + InstrumentIdSize + 1

// DecodeOrderBookUpdate parses an OrderBookUpdateTLV.
func DecodeOrderBookUpdate(buf []byte) (OrderBookUpdateTLV, error) {
	var o OrderBookUpdateTLV
	dyn, err := ParseDynamicPayload(buf, orderBookFixedSize, orderBookCountOffset, priceLevelSize, decodePriceLevel)
	if err != nil {
		return o, err
	}
	fixed := dyn.Fixed
	off := 0
	o.Venue = binary.LittleEndian.Uint16(fixed[off : off+2])
	off += 2
	o.Instrument = DecodeInstrumentId(fixed[off : off+InstrumentIdSize])
	off += InstrumentIdSize
	o.Side = TradeSide(fixed[off])
	off++
	off += 2 // level count, already consumed by ParseDynamicPayload
	o.TimestampNs = binary.LittleEndian.Uint64(fixed[off : off+8])
	o.Levels = dyn.Elements
	return o, nil
}

// --- Signal payloads ---------------------------------------------------

// ArbitrageSignalTLV reports a cross-venue arbitrage opportunity.
type ArbitrageSignalTLV struct {
	StrategyType     uint8
	SourceInstrument InstrumentId
	TargetInstrument InstrumentId
	ProfitUsd        int64 // 8-decimal fixed-point
	TimestampNs      uint64
}

func (a *ArbitrageSignalTLV) Encode() []byte {
	buf := make([]byte, 64)
	off := 0
	buf[off] = a.StrategyType
	off++
	si := a.SourceInstrument.Encode()
	off += copy(buf[off:], si[:])
	ti := a.TargetInstrument.Encode()
	off += copy(buf[off:], ti[:])
	binary.LittleEndian.PutUint64(buf[off:off+8], uint64(a.ProfitUsd))
	off += 8
	binary.LittleEndian.PutUint64(buf[off:off+8], a.TimestampNs)
	return buf
}

// DecodeArbitrageSignal parses an ArbitrageSignalTLV.
func DecodeArbitrageSignal(buf []byte) (ArbitrageSignalTLV, error) {
	var a ArbitrageSignalTLV
	if len(buf) != 64 {
		return a, ErrInvalidLength
	}
	off := 0
	a.StrategyType = buf[off]
	off++
	a.SourceInstrument = DecodeInstrumentId(buf[off : off+InstrumentIdSize])
	off += InstrumentIdSize
	a.TargetInstrument = DecodeInstrumentId(buf[off : off+InstrumentIdSize])
	off += InstrumentIdSize
	a.ProfitUsd = int64(binary.LittleEndian.Uint64(buf[off : off+8]))
	off += 8
	a.TimestampNs = binary.LittleEndian.Uint64(buf[off : off+8])
	return a, nil
}

// MomentumSignalTLV reports a momentum-strategy signal.
type MomentumSignalTLV struct {
	StrategyType uint8
	Instrument   InstrumentId
	Direction    int8
	StrengthBp   int32 // signal strength in basis points
	TimestampNs  uint64
}

func (m *MomentumSignalTLV) Encode() []byte {
	buf := make([]byte, 48)
	off := 0
	buf[off] = m.StrategyType
	off++
	inst := m.Instrument.Encode()
	off += copy(buf[off:], inst[:])
	buf[off] = byte(m.Direction)
	off++
	binary.LittleEndian.PutUint32(buf[off:off+4], uint32(m.StrengthBp))
	off += 4
	binary.LittleEndian.PutUint64(buf[off:off+8], m.TimestampNs)
	return buf
}

// DecodeMomentumSignal parses a MomentumSignalTLV.
func DecodeMomentumSignal(buf []byte) (MomentumSignalTLV, error) {
	var m MomentumSignalTLV
	if len(buf) != 48 {
		return m, ErrInvalidLength
	}
	off := 0
	m.StrategyType = buf[off]
	off++
	m.Instrument = DecodeInstrumentId(buf[off : off+InstrumentIdSize])
	off += InstrumentIdSize
	m.Direction = int8(buf[off])
	off++
	m.StrengthBp = int32(binary.LittleEndian.Uint32(buf[off : off+4]))
	off += 4
	m.TimestampNs = binary.LittleEndian.Uint64(buf[off : off+8])
	return m, nil
}

// LiquidationSignalTLV reports an observed or predicted liquidation.
type LiquidationSignalTLV struct {
	StrategyType uint8
	Instrument   InstrumentId
	Side         TradeSide
	SizeUsd      int64 // 8-decimal fixed-point
	TimestampNs  uint64
}

func (l *LiquidationSignalTLV) Encode() []byte {
	buf := make([]byte, 48)
	off := 0
	buf[off] = l.StrategyType
	off++
	inst := l.Instrument.Encode()
	off += copy(buf[off:], inst[:])
	buf[off] = byte(l.Side)
	off++
	binary.LittleEndian.PutUint64(buf[off:off+8], uint64(l.SizeUsd))
	off += 8
	binary.LittleEndian.PutUint64(buf[off:off+8], l.TimestampNs)
	return buf
}

// DecodeLiquidationSignal parses a LiquidationSignalTLV.
func DecodeLiquidationSignal(buf []byte) (LiquidationSignalTLV, error) {
	var l LiquidationSignalTLV
	if len(buf) != 48 {
		return l, ErrInvalidLength
	}
	off := 0
	l.StrategyType = buf[off]
	off++
	l.Instrument = DecodeInstrumentId(buf[off : off+InstrumentIdSize])
	off += InstrumentIdSize
	l.Side = TradeSide(buf[off])
	off++
	l.SizeUsd = int64(binary.LittleEndian.Uint64(buf[off : off+8]))
	off += 8
	l.TimestampNs = binary.LittleEndian.Uint64(buf[off : off+8])
	return l, nil
}

// AlertSeverity discriminates RiskAlertTLV severity levels.
type AlertSeverity uint8

const (
	SeverityInfo     AlertSeverity = 0
	SeverityWarning  AlertSeverity = 1
	SeverityCritical AlertSeverity = 2
)

// RiskAlertTLV carries a human-readable risk alert, truncated to fit a fixed
// 32-byte message field (not a general-purpose string TLV -- operational
// alerting only).
type RiskAlertTLV struct {
	AlertType   uint8
	Severity    AlertSeverity
	Instrument  InstrumentId
	Message     [32]byte
	TimestampNs uint64
}

func (r *RiskAlertTLV) Encode() []byte {
	buf := make([]byte, 72)
	off := 0
	buf[off] = r.AlertType
	off++
	buf[off] = byte(r.Severity)
	off++
	inst := r.Instrument.Encode()
	off += copy(buf[off:], inst[:])
	off += copy(buf[off:], r.Message[:])
	binary.LittleEndian.PutUint64(buf[off:off+8], r.TimestampNs)
	return buf
}

// DecodeRiskAlert parses a RiskAlertTLV.
func DecodeRiskAlert(buf []byte) (RiskAlertTLV, error) {
	var r RiskAlertTLV
	if len(buf) != 72 {
		return r, ErrInvalidLength
	}
	off := 0
	r.AlertType = buf[off]
	off++
	r.Severity = AlertSeverity(buf[off])
	off++
	r.Instrument = DecodeInstrumentId(buf[off : off+InstrumentIdSize])
	off += InstrumentIdSize
	copy(r.Message[:], buf[off:off+32])
	off += 32
	r.TimestampNs = binary.LittleEndian.Uint64(buf[off : off+8])
	return r, nil
}

// --- Execution payloads ------------------------------------------------

// OrderSide mirrors TradeSide for execution payloads.
type OrderSide = TradeSide

// OrderType discriminates OrderRequestTLV's order type.
type OrderType uint8

const (
	OrderTypeLimit  OrderType = 0
	OrderTypeMarket OrderType = 1
)

// OrderRequestTLV requests a new order.
type OrderRequestTLV struct {
	StrategyID  int32
	Instrument  InstrumentId
	Side        OrderSide
	OrderType   OrderType
	Price       int64
	Quantity    int64
	TimestampNs uint64
}

func (o *OrderRequestTLV) Encode() []byte {
	buf := make([]byte, 56)
	off := 0
	binary.LittleEndian.PutUint32(buf[off:off+4], uint32(o.StrategyID))
	off += 4
	inst := o.Instrument.Encode()
	off += copy(buf[off:], inst[:])
	buf[off] = byte(o.Side)
	off++
	buf[off] = byte(o.OrderType)
	off++
	binary.LittleEndian.PutUint64(buf[off:off+8], uint64(o.Price))
	off += 8
	binary.LittleEndian.PutUint64(buf[off:off+8], uint64(o.Quantity))
	off += 8
	binary.LittleEndian.PutUint64(buf[off:off+8], o.TimestampNs)
	return buf
}

// DecodeOrderRequest parses an OrderRequestTLV.
func DecodeOrderRequest(buf []byte) (OrderRequestTLV, error) {
	var o OrderRequestTLV
	if len(buf) != 56 {
		return o, ErrInvalidLength
	}
	off := 0
	o.StrategyID = int32(binary.LittleEndian.Uint32(buf[off : off+4]))
	off += 4
	o.Instrument = DecodeInstrumentId(buf[off : off+InstrumentIdSize])
	off += InstrumentIdSize
	o.Side = OrderSide(buf[off])
	off++
	o.OrderType = OrderType(buf[off])
	off++
	o.Price = int64(binary.LittleEndian.Uint64(buf[off : off+8]))
	off += 8
	o.Quantity = int64(binary.LittleEndian.Uint64(buf[off : off+8]))
	off += 8
	o.TimestampNs = binary.LittleEndian.Uint64(buf[off : off+8])
	return o, nil
}

// OrderCancelTLV requests cancellation of an outstanding order.
type OrderCancelTLV struct {
	OrderID     uint64
	StrategyID  int32
	TimestampNs uint64
}

func (o *OrderCancelTLV) Encode() []byte {
	buf := make([]byte, 32)
	binary.LittleEndian.PutUint64(buf[0:8], o.OrderID)
	binary.LittleEndian.PutUint32(buf[8:12], uint32(o.StrategyID))
	binary.LittleEndian.PutUint64(buf[12:20], o.TimestampNs)
	return buf
}

// DecodeOrderCancel parses an OrderCancelTLV.
func DecodeOrderCancel(buf []byte) (OrderCancelTLV, error) {
	var o OrderCancelTLV
	if len(buf) != 32 {
		return o, ErrInvalidLength
	}
	o.OrderID = binary.LittleEndian.Uint64(buf[0:8])
	o.StrategyID = int32(binary.LittleEndian.Uint32(buf[8:12]))
	o.TimestampNs = binary.LittleEndian.Uint64(buf[12:20])
	return o, nil
}

// ExecutionStatus discriminates FillTLV's outcome.
type ExecutionStatus uint8

const (
	ExecutionFilled        ExecutionStatus = 0
	ExecutionPartialFilled ExecutionStatus = 1
	ExecutionRejected      ExecutionStatus = 2
)

// FillTLV reports an execution result for a previously submitted order.
type FillTLV struct {
	OrderID     uint64
	StrategyID  int32
	Instrument  InstrumentId
	Price       int64
	Quantity    int64
	Status      ExecutionStatus
	TimestampNs uint64
}

func (f *FillTLV) Encode() []byte {
	buf := make([]byte, 64)
	off := 0
	binary.LittleEndian.PutUint64(buf[off:off+8], f.OrderID)
	off += 8
	binary.LittleEndian.PutUint32(buf[off:off+4], uint32(f.StrategyID))
	off += 4
	inst := f.Instrument.Encode()
	off += copy(buf[off:], inst[:])
	binary.LittleEndian.PutUint64(buf[off:off+8], uint64(f.Price))
	off += 8
	binary.LittleEndian.PutUint64(buf[off:off+8], uint64(f.Quantity))
	off += 8
	buf[off] = byte(f.Status)
	off++
	binary.LittleEndian.PutUint64(buf[off:off+8], f.TimestampNs)
	return buf
}

// DecodeFill parses a FillTLV.
func DecodeFill(buf []byte) (FillTLV, error) {
	var f FillTLV
	if len(buf) != 64 {
		return f, ErrInvalidLength
	}
	off := 0
	f.OrderID = binary.LittleEndian.Uint64(buf[off : off+8])
	off += 8
	f.StrategyID = int32(binary.LittleEndian.Uint32(buf[off : off+4]))
	off += 4
	f.Instrument = DecodeInstrumentId(buf[off : off+InstrumentIdSize])
	off += InstrumentIdSize
	f.Price = int64(binary.LittleEndian.Uint64(buf[off : off+8]))
	off += 8
	f.Quantity = int64(binary.LittleEndian.Uint64(buf[off : off+8]))
	off += 8
	f.Status = ExecutionStatus(buf[off])
	off++
	f.TimestampNs = binary.LittleEndian.Uint64(buf[off : off+8])
	return f, nil
}

// PositionUpdateTLV reports a strategy's current net position.
type PositionUpdateTLV struct {
	StrategyID  int32
	Instrument  InstrumentId
	NetQuantity int64
	AvgPrice    int64
	TimestampNs uint64
}

func (p *PositionUpdateTLV) Encode() []byte {
	buf := make([]byte, 64)
	off := 0
	binary.LittleEndian.PutUint32(buf[off:off+4], uint32(p.StrategyID))
	off += 4
	inst := p.Instrument.Encode()
	off += copy(buf[off:], inst[:])
	binary.LittleEndian.PutUint64(buf[off:off+8], uint64(p.NetQuantity))
	off += 8
	binary.LittleEndian.PutUint64(buf[off:off+8], uint64(p.AvgPrice))
	off += 8
	binary.LittleEndian.PutUint64(buf[off:off+8], p.TimestampNs)
	return buf
}

// DecodePositionUpdate parses a PositionUpdateTLV.
func DecodePositionUpdate(buf []byte) (PositionUpdateTLV, error) {
	var p PositionUpdateTLV
	if len(buf) != 64 {
		return p, ErrInvalidLength
	}
	off := 0
	p.StrategyID = int32(binary.LittleEndian.Uint32(buf[off : off+4]))
	off += 4
	p.Instrument = DecodeInstrumentId(buf[off : off+InstrumentIdSize])
	off += InstrumentIdSize
	p.NetQuantity = int64(binary.LittleEndian.Uint64(buf[off : off+8]))
	off += 8
	p.AvgPrice = int64(binary.LittleEndian.Uint64(buf[off : off+8]))
	off += 8
	p.TimestampNs = binary.LittleEndian.Uint64(buf[off : off+8])
	return p, nil
}

// --- System domain: consumer registration/ack -------------------------

// ConsumerRegistrationTLV is the framed record a consumer sends as its first
// message on the signal relay (SPEC_FULL.md §6): an identifier plus a list
// of topic patterns it wishes to subscribe to.
type ConsumerRegistrationTLV struct {
	ConsumerID [16]byte
	Topics     []string
}

func (c *ConsumerRegistrationTLV) Encode() []byte {
	size := 16 + 2
	for _, t := range c.Topics {
		size += 1 + len(t)
	}
	buf := make([]byte, size)
	off := copy(buf, c.ConsumerID[:])
	binary.LittleEndian.PutUint16(buf[off:off+2], uint16(len(c.Topics)))
	off += 2
	for _, t := range c.Topics {
		buf[off] = byte(len(t))
		off++
		off += copy(buf[off:], t)
	}
	return buf
}

// DecodeConsumerRegistration parses a ConsumerRegistrationTLV.
func DecodeConsumerRegistration(buf []byte) (ConsumerRegistrationTLV, error) {
	var c ConsumerRegistrationTLV
	if len(buf) < 18 {
		return c, ErrTruncatedTLV
	}
	off := copy(c.ConsumerID[:], buf[0:16])
	count := int(binary.LittleEndian.Uint16(buf[off : off+2]))
	off += 2
	c.Topics = make([]string, 0, count)
	for i := 0; i < count; i++ {
		if off >= len(buf) {
			return c, ErrTruncatedTLV
		}
		n := int(buf[off])
		off++
		if off+n > len(buf) {
			return c, ErrTruncatedTLV
		}
		c.Topics = append(c.Topics, string(buf[off:off+n]))
		off += n
	}
	return c, nil
}

// ConsumerAckTLV is the relay's reply to a ConsumerRegistrationTLV.
type ConsumerAckTLV struct {
	Accepted bool
	Reason   [32]byte // truncated UTF-8, only meaningful when !Accepted
}

func (a *ConsumerAckTLV) Encode() []byte {
	buf := make([]byte, 40)
	if a.Accepted {
		buf[0] = 1
	}
	copy(buf[8:40], a.Reason[:])
	return buf
}

// DecodeConsumerAck parses a ConsumerAckTLV.
func DecodeConsumerAck(buf []byte) (ConsumerAckTLV, error) {
	var a ConsumerAckTLV
	if len(buf) != 40 {
		return a, ErrInvalidLength
	}
	a.Accepted = buf[0] != 0
	copy(a.Reason[:], buf[8:40])
	return a, nil
}
