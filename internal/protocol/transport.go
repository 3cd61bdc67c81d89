// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package protocol

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/google/go-dap"
)

// Transport provides framed message I/O over a stream connection.
// Reads and writes may happen on different goroutines, but concurrent reads
// (or concurrent writes) must be serialized by the caller.
type Transport interface {
	// ReadMessage reads the next framed message body.
	// This method blocks until a complete message is available.
	ReadMessage() ([]byte, error)

	// WriteMessage writes one framed message body.
	WriteMessage(body []byte) error

	// Close closes the transport, releasing any associated resources.
	// After Close is called, any blocked ReadMessage or WriteMessage calls
	// should return with an error.
	Close() error
}

// streamTransport implements Transport over any io.ReadWriteCloser, using
// Content-Length base-message framing.
type streamTransport struct {
	rwc    io.ReadWriteCloser
	reader *bufio.Reader
	writer *bufio.Writer

	// writeMu protects concurrent writes to the connection
	writeMu sync.Mutex

	// closed indicates whether the transport has been closed
	closed bool
	mu     sync.Mutex
}

// NewStreamTransport creates a new Transport backed by a stream connection.
func NewStreamTransport(rwc io.ReadWriteCloser) Transport {
	return &streamTransport{
		rwc:    rwc,
		reader: bufio.NewReader(rwc),
		writer: bufio.NewWriter(rwc),
	}
}

// DialTCP establishes a TCP connection to the specified address and returns a Transport.
func DialTCP(ctx context.Context, address string) (Transport, error) {
	var d net.Dialer
	conn, dialErr := d.DialContext(ctx, "tcp", address)
	if dialErr != nil {
		return nil, fmt.Errorf("failed to dial TCP %s: %w", address, dialErr)
	}

	return NewStreamTransport(conn), nil
}

func (t *streamTransport) ReadMessage() ([]byte, error) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil, ErrClientClosed
	}
	t.mu.Unlock()

	body, readErr := dap.ReadBaseMessage(t.reader)
	if readErr != nil {
		return nil, fmt.Errorf("failed to read message: %w", readErr)
	}

	return body, nil
}

func (t *streamTransport) WriteMessage(body []byte) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return ErrClientClosed
	}
	t.mu.Unlock()

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	writeErr := dap.WriteBaseMessage(t.writer, body)
	if writeErr != nil {
		return fmt.Errorf("failed to write message: %w", writeErr)
	}

	flushErr := t.writer.Flush()
	if flushErr != nil {
		return fmt.Errorf("failed to flush message: %w", flushErr)
	}

	return nil
}

func (t *streamTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}

	t.closed = true
	return t.rwc.Close()
}
