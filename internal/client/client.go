// Package client implements a small consumer that dials a relay's Unix
// socket, performs the consumer-registration handshake when it wants
// topic-filtered delivery, and hands every subsequent framed message to a
// caller-supplied callback. It is the thing an introspection tool or a
// downstream service embeds to read a relay's stream without
// reimplementing the wire framing and registration protocol itself.
package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/torq-systems/torq-core/internal/clock"
	"github.com/torq-systems/torq-core/internal/codec"
	"github.com/torq-systems/torq-core/internal/transport"
)

// MessageHandler receives one decoded message's header and raw TLV payload.
type MessageHandler func(h codec.Header, payload []byte)

// Client is a single connection to one relay's Unix socket.
type Client struct {
	conn    net.Conn
	id      string
	handler MessageHandler
	mirror  transport.NetworkTransport // optional: every received message is also republished here
}

// Dial connects to socketPath. If topics is non-empty, it immediately
// performs the consumer-registration handshake and waits for the relay's
// ack before returning, so a caller never misses registering before its
// first Run call.
func Dial(socketPath, consumerID string, topics []string, handler MessageHandler) (*Client, error) {
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("client: dial %s: %w", socketPath, err)
	}

	c := &Client{conn: conn, id: consumerID, handler: handler}
	if len(topics) > 0 {
		if err := c.register(consumerID, topics); err != nil {
			conn.Close()
			return nil, err
		}
	}
	return c, nil
}

// WithMirror makes c republish every message it receives to mirror as well
// as delivering it to its handler, letting an introspection client expose a
// relay's stream to NATS-based consumers without those consumers dialing
// the Unix socket directly.
func (c *Client) WithMirror(mirror transport.NetworkTransport) *Client {
	c.mirror = mirror
	return c
}

func (c *Client) register(consumerID string, topics []string) error {
	var id [16]byte
	copy(id[:], consumerID)
	reg := codec.ConsumerRegistrationTLV{ConsumerID: id, Topics: topics}

	msg, err := codec.BuildMessage(codec.DomainSystem, 0, codec.TLVConsumerRegistration, 0, clock.FastTimestampNanos(), &reg)
	if err != nil {
		return fmt.Errorf("client: build registration: %w", err)
	}
	if _, err := c.conn.Write(msg); err != nil {
		return fmt.Errorf("client: send registration: %w", err)
	}

	c.conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	defer c.conn.SetReadDeadline(time.Time{})

	_, payload, err := c.readOne()
	if err != nil {
		return fmt.Errorf("client: read registration ack: %w", err)
	}
	views, err := codec.ParseTLVExtensions(payload)
	if err != nil || len(views) == 0 {
		return fmt.Errorf("client: malformed registration ack")
	}
	ack, err := codec.DecodeConsumerAck(views[0].Payload)
	if err != nil {
		return fmt.Errorf("client: decode registration ack: %w", err)
	}
	if !ack.Accepted {
		return fmt.Errorf("client: registration rejected: %s", trimNulls(ack.Reason[:]))
	}
	return nil
}

// Send frames and writes one outbound message.
func (c *Client) Send(domain codec.RelayDomain, source uint8, tlvType codec.TLVType, sequence uint64, payload codec.Payload) error {
	msg, err := codec.BuildMessage(domain, source, tlvType, sequence, clock.FastTimestampNanos(), payload)
	if err != nil {
		return fmt.Errorf("client: build message: %w", err)
	}
	if _, err := c.conn.Write(msg); err != nil {
		return fmt.Errorf("client: write message: %w", err)
	}
	return nil
}

// Run reads messages until ctx is cancelled or the connection closes,
// delivering each to the configured handler (and mirror, if set).
func (c *Client) Run(ctx context.Context) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			c.conn.Close()
		case <-done:
		}
	}()

	for {
		h, payload, err := c.readOne()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		if c.handler != nil {
			c.handler(h, payload)
		}
		if c.mirror != nil {
			full := make([]byte, 0, codec.HeaderSize+len(payload))
			hdrBuf := h.Encode()
			full = append(full, hdrBuf...)
			full = append(full, payload...)
			_ = c.mirror.Send(full) // best-effort: a mirror outage shouldn't stall the primary stream
		}
	}
}

func (c *Client) readOne() (codec.Header, []byte, error) {
	header := make([]byte, codec.HeaderSize)
	if err := readFull(c.conn, header); err != nil {
		return codec.Header{}, nil, err
	}
	// Only the header has been read so far, so ParseHeader's payload-size
	// overrun check always fires; the payload is read below.
	h, err := codec.ParseHeader(header)
	if err != nil && !errors.Is(err, codec.ErrPayloadOverrun) {
		return h, nil, err
	}
	payload := make([]byte, int(h.PayloadSize))
	if len(payload) > 0 {
		if err := readFull(c.conn, payload); err != nil {
			return h, nil, err
		}
	}
	return h, payload, nil
}

func readFull(conn net.Conn, buf []byte) error {
	read := 0
	for read < len(buf) {
		n, err := conn.Read(buf[read:])
		read += n
		if err != nil {
			return err
		}
	}
	return nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

func trimNulls(b []byte) string {
	end := len(b)
	for end > 0 && b[end-1] == 0 {
		end--
	}
	return string(b[:end])
}
