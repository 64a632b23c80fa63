package codec

// TLVType is the 1-byte type discriminant of a TLV record. Type numbers are
// partitioned by relay domain; see DomainRange and the typeRegistry table.
type TLVType uint8

// Canonical TLV type numbers. Where the original Rust source
// (libs/types/src/messages.rs, impl_message_tlv!) assigned a concrete
// number, it is reused verbatim so that anyone cross-referencing the
// original keeps the same mental map; the remaining numbers in each domain's
// range are this implementation's own assignment, documented inline.
const (
	// MarketData domain: 1..=19
	TLVTrade         TLVType = 1  // CEX trade tick
	TLVOrderBook     TLVType = 3  // grounded: messages.rs OrderBookUpdate=3
	TLVVolume        TLVType = 9  // grounded: messages.rs VolumeData=9
	TLVPoolSwap      TLVType = 11 // grounded: messages.rs PoolSwapEvent=11
	TLVPoolMint      TLVType = 12
	TLVPoolBurn      TLVType = 13
	TLVPoolTick      TLVType = 14
	TLVPoolSync      TLVType = 15
	TLVQuote         TLVType = 17 // grounded: messages.rs QuoteUpdate=17

	// Signal domain: 20..=39
	TLVMomentumSignal   TLVType = 21 // grounded: messages.rs MomentumSignal=21
	TLVArbitrageSignal  TLVType = 32 // grounded: messages.rs ArbitrageSignal=32
	TLVLiquidationSignal TLVType = 33 // grounded: messages.rs LiquidationSignal=33
	TLVRiskAlert        TLVType = 34 // grounded: messages.rs RiskAlert=34

	// Execution domain: 40..=79 (dense 40..=59)
	TLVOrderRequest  TLVType = 40 // grounded: messages.rs OrderRequest=40
	TLVFill          TLVType = 42 // grounded: messages.rs ExecutionResult=42
	TLVOrderCancel   TLVType = 43 // grounded: messages.rs CancelRequest=43
	TLVPositionUpdate TLVType = 61 // grounded: messages.rs PositionUpdate=61

	// System domain: 100..=119
	TLVConsumerRegistration TLVType = 100
	TLVConsumerAck          TLVType = 101
)

// SizeConstraintKind distinguishes the three size-constraint shapes a TLV
// type may declare.
type SizeConstraintKind uint8

const (
	SizeFixed SizeConstraintKind = iota
	SizeBounded
	SizeVariable
)

// SizeConstraint describes how a TLV payload's length is validated.
type SizeConstraint struct {
	Kind     SizeConstraintKind
	Fixed    int // valid when Kind == SizeFixed
	MinBound int // valid when Kind == SizeBounded
	MaxBound int // valid when Kind == SizeBounded
}

func fixed(n int) SizeConstraint { return SizeConstraint{Kind: SizeFixed, Fixed: n} }

func bounded(min, max int) SizeConstraint {
	return SizeConstraint{Kind: SizeBounded, MinBound: min, MaxBound: max}
}

// Satisfies reports whether a payload of the given length satisfies the
// constraint.
func (c SizeConstraint) Satisfies(n int) bool {
	switch c.Kind {
	case SizeFixed:
		return n == c.Fixed
	case SizeBounded:
		return n >= c.MinBound && n <= c.MaxBound
	case SizeVariable:
		return true
	default:
		return false
	}
}

// TLVTypeInfo is the metadata the codec keeps for every registered TLV type.
type TLVTypeInfo struct {
	Type       TLVType
	Name       string
	Size       SizeConstraint
	Domain     RelayDomain
}

var typeRegistry = map[TLVType]TLVTypeInfo{
	TLVTrade:        {TLVTrade, "Trade", fixed(48), DomainMarketData},
	TLVOrderBook:    {TLVOrderBook, "OrderBookUpdate", SizeConstraint{Kind: SizeVariable}, DomainMarketData},
	TLVVolume:       {TLVVolume, "Volume", fixed(48), DomainMarketData},
	TLVPoolSwap:     {TLVPoolSwap, "PoolSwap", fixed(PoolSwapSize), DomainMarketData},
	TLVPoolMint:     {TLVPoolMint, "PoolMint", fixed(PoolMintBurnSize), DomainMarketData},
	TLVPoolBurn:     {TLVPoolBurn, "PoolBurn", fixed(PoolMintBurnSize), DomainMarketData},
	TLVPoolTick:     {TLVPoolTick, "PoolTick", fixed(PoolTickSize), DomainMarketData},
	TLVPoolSync:     {TLVPoolSync, "PoolSync", fixed(PoolSyncSize), DomainMarketData},
	TLVQuote:        {TLVQuote, "Quote", fixed(64), DomainMarketData},

	TLVMomentumSignal:    {TLVMomentumSignal, "MomentumSignal", fixed(48), DomainSignal},
	TLVArbitrageSignal:   {TLVArbitrageSignal, "ArbitrageSignal", fixed(64), DomainSignal},
	TLVLiquidationSignal: {TLVLiquidationSignal, "LiquidationSignal", fixed(48), DomainSignal},
	TLVRiskAlert:         {TLVRiskAlert, "RiskAlert", fixed(72), DomainSignal},

	TLVOrderRequest:   {TLVOrderRequest, "OrderRequest", fixed(56), DomainExecution},
	TLVFill:           {TLVFill, "Fill", fixed(64), DomainExecution},
	TLVOrderCancel:    {TLVOrderCancel, "OrderCancel", fixed(32), DomainExecution},
	TLVPositionUpdate: {TLVPositionUpdate, "PositionUpdate", fixed(64), DomainExecution},

	TLVConsumerRegistration: {TLVConsumerRegistration, "ConsumerRegistration", SizeConstraint{Kind: SizeVariable}, DomainSystem},
	TLVConsumerAck:          {TLVConsumerAck, "ConsumerAck", fixed(40), DomainSystem},
}

// TypeInfo looks up the metadata for a TLV type.
func TypeInfo(t TLVType) (TLVTypeInfo, bool) {
	info, ok := typeRegistry[t]
	return info, ok
}

// TypesInDomain returns every registered TLV type belonging to domain d.
func TypesInDomain(d RelayDomain) []TLVType {
	var out []TLVType
	for t, info := range typeRegistry {
		if info.Domain == d {
			out = append(out, t)
		}
	}
	return out
}

// DomainRange returns the inclusive [low, high] type-number range reserved
// for a domain, per SPEC_FULL.md §3.
func DomainRange(d RelayDomain) (low, high TLVType) {
	switch d {
	case DomainMarketData:
		return 1, 19
	case DomainSignal:
		return 20, 39
	case DomainExecution:
		return 40, 79
	case DomainSystem:
		return 100, 119
	default:
		return 0, 0
	}
}

// domainOfType returns which domain's numeric range a type number falls in,
// independent of whether that number is actually registered. Used to
// validate DomainMismatch even for as-yet-unregistered types.
func domainOfType(t TLVType) (RelayDomain, bool) {
	for _, d := range []RelayDomain{DomainMarketData, DomainSignal, DomainExecution, DomainSystem} {
		low, high := DomainRange(d)
		if TLVType(t) >= low && TLVType(t) <= high {
			return d, true
		}
	}
	return 0, false
}
