package transport

import (
	"context"
	"encoding/binary"
	"net"
	"sync"
	"time"
)

// UnixSink delivers payloads over a Unix domain socket: the path used for
// same-node, cross-process delivery between a relay and its consumers.
// Writes are serialized behind a mutex since net.Conn is not safe for
// concurrent writers, mirroring the teacher's Mutex-wrapped connection.
type UnixSink struct {
	mu      sync.Mutex
	conn    net.Conn
	metrics *Metrics
}

// NewUnixSink wraps an already-dialed or already-accepted connection.
func NewUnixSink(conn net.Conn, metrics *Metrics) *UnixSink {
	if metrics == nil {
		metrics = NewMetrics()
	}
	return &UnixSink{conn: conn, metrics: metrics}
}

// DialUnixSink connects to a relay's Unix socket at path.
func DialUnixSink(path string, metrics *Metrics) (*UnixSink, error) {
	conn, err := net.Dial("unix", path)
	if err != nil {
		return nil, err
	}
	return NewUnixSink(conn, metrics), nil
}

// Send writes a 4-byte little-endian length prefix followed by
// payload, so the reader on the other end of the socket can frame messages
// without relying on Read returning exactly one write's worth of bytes.
func (u *UnixSink) Send(ctx context.Context, priority Priority, payload []byte) error {
	start := time.Now()
	u.metrics.recordPriority(priority)

	u.mu.Lock()
	defer u.mu.Unlock()

	if u.conn == nil {
		return ErrNotConnected
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = u.conn.SetWriteDeadline(deadline)
	} else {
		_ = u.conn.SetWriteDeadline(time.Time{})
	}

	var prefix [4]byte
	binary.LittleEndian.PutUint32(prefix[:], uint32(len(payload)))
	if _, err := u.conn.Write(prefix[:]); err != nil {
		return err
	}
	if _, err := u.conn.Write(payload); err != nil {
		return err
	}

	u.metrics.recordUnix(time.Since(start))
	return nil
}

// Close closes the underlying connection.
func (u *UnixSink) Close() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.conn == nil {
		return nil
	}
	err := u.conn.Close()
	u.conn = nil
	return err
}

// Health reports Healthy while the sink holds a connection (i.e. is
// currently in the Connected state), Unhealthy once it's been closed or was
// never dialed.
func (u *UnixSink) Health() Health {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.conn == nil {
		return HealthUnhealthy
	}
	return HealthHealthy
}

// ReadFramed reads one length-prefixed message from conn, the counterpart
// to the framing Send writes.
func ReadFramed(conn net.Conn) ([]byte, error) {
	var prefix [4]byte
	if _, err := fullRead(conn, prefix[:]); err != nil {
		return nil, err
	}
	n := binary.LittleEndian.Uint32(prefix[:])
	buf := make([]byte, n)
	if _, err := fullRead(conn, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func fullRead(conn net.Conn, buf []byte) (int, error) {
	read := 0
	for read < len(buf) {
		n, err := conn.Read(buf[read:])
		read += n
		if err != nil {
			return read, err
		}
	}
	return read, nil
}
