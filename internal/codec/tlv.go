package codec

// TLVView is a zero-copy view of one TLV record inside a parsed payload
// buffer: Payload is a sub-slice of the original buffer, never copied.
type TLVView struct {
	Type    TLVType
	Payload []byte
}

// Payload is implemented by every canonical TLV payload struct: it knows how
// to serialize itself into its wire-exact byte layout.
type Payload interface {
	Encode() []byte
}

// BuildMessage constructs a complete framed message: header, then a single
// TLV carrying payload. It validates that tlvType belongs to domain and that
// payload's length satisfies the type's size constraint before writing
// anything.
func BuildMessage(domain RelayDomain, source uint8, tlvType TLVType, sequence, timestampNs uint64, payload Payload) ([]byte, error) {
	encoded := payload.Encode()

	info, known := TypeInfo(tlvType)
	if known {
		if info.Domain != domain {
			return nil, ErrDomainMismatch
		}
		if !info.Size.Satisfies(len(encoded)) {
			return nil, ErrInvalidPayload
		}
	} else if d, ok := domainOfType(tlvType); !ok || d != domain {
		return nil, ErrDomainMismatch
	}

	tlvHeader := tlvHeaderBytes(tlvType, len(encoded))

	total := HeaderSize + len(tlvHeader) + len(encoded)
	buf := make([]byte, total)

	h := Header{
		Magic:       Magic,
		RelayDomain: domain,
		Version:     ProtocolVersion,
		Source:      source,
		Sequence:    sequence,
		TimestampNs: timestampNs,
		PayloadSize: uint16(len(tlvHeader) + len(encoded)),
	}
	h.EncodeInto(buf[:HeaderSize])
	copy(buf[HeaderSize:], tlvHeader)
	copy(buf[HeaderSize+len(tlvHeader):], encoded)

	cksum := checksum(buf)
	buf[26], buf[27], buf[28], buf[29] = byte(cksum), byte(cksum>>8), byte(cksum>>16), byte(cksum>>24)

	return buf, nil
}

// tlvHeaderBytes writes the Standard or Extended TLV header for a payload of
// length n.
func tlvHeaderBytes(t TLVType, n int) []byte {
	if n <= 255 {
		return []byte{byte(t), byte(n)}
	}
	return []byte{
		byte(ExtendedTLVSentinel),
		byte(t),
		byte(n), byte(n >> 8),
	}
}

// ParseTLVExtensions returns a lazy sequence of TLV views over payload. The
// sequence is realized eagerly into a slice here (Go has no native
// generators), but every view still borrows its Payload slice from the
// input buffer -- no TLV payload bytes are copied.
func ParseTLVExtensions(payload []byte) ([]TLVView, error) {
	var views []TLVView
	offset := 0
	for offset < len(payload) {
		t := payload[offset]
		if t == ExtendedTLVSentinel {
			if offset+4 > len(payload) {
				return views, &OffsetError{Offset: offset, Err: ErrTruncatedTLV}
			}
			extType := payload[offset+1]
			length := int(payload[offset+2]) | int(payload[offset+3])<<8
			start := offset + 4
			if start+length > len(payload) {
				return views, &OffsetError{Offset: offset, Err: ErrTruncatedTLV}
			}
			views = append(views, TLVView{Type: TLVType(extType), Payload: payload[start : start+length]})
			offset = start + length
			continue
		}

		if offset+2 > len(payload) {
			return views, &OffsetError{Offset: offset, Err: ErrTruncatedTLV}
		}
		length := int(payload[offset+1])
		start := offset + 2
		if start+length > len(payload) {
			return views, &OffsetError{Offset: offset, Err: ErrTruncatedTLV}
		}
		views = append(views, TLVView{Type: TLVType(t), Payload: payload[start : start+length]})
		offset = start + length
	}
	return views, nil
}

// DynamicPayload supports TLVs whose payload is a fixed prefix followed by a
// repeated record with a leading count (e.g. OrderBookUpdate's price
// levels). The fixed prefix is still a zero-copy view; Elements is populated
// once by decodeElement, since Go cannot express a truly lazy iterator over
// a repeated record without allocating closures per call.
type DynamicPayload[T any] struct {
	Fixed    []byte
	Elements []T
}

// ParseDynamicPayload splits buf into a fixed-size prefix and count-prefixed
// repeated elements of size elemSize, decoded by decodeElement.
func ParseDynamicPayload[T any](buf []byte, fixedSize int, countOffset int, elemSize int, decodeElement func([]byte) T) (DynamicPayload[T], error) {
	var out DynamicPayload[T]
	if len(buf) < fixedSize {
		return out, ErrTruncatedTLV
	}
	out.Fixed = buf[:fixedSize]
	count := int(buf[countOffset]) | int(buf[countOffset+1])<<8
	rest := buf[fixedSize:]
	if len(rest) < count*elemSize {
		return out, ErrTruncatedTLV
	}
	out.Elements = make([]T, 0, count)
	for i := 0; i < count; i++ {
		start := i * elemSize
		out.Elements = append(out.Elements, decodeElement(rest[start:start+elemSize]))
	}
	return out, nil
}
