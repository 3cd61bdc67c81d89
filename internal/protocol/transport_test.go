/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package protocol

import (
	"bytes"
	"io"
	"net"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamTransport_TCP(t *testing.T) {
	t.Parallel()

	listener, listenErr := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, listenErr)
	defer listener.Close()

	// Accept connection in goroutine
	var serverConn net.Conn
	var acceptErr error
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		serverConn, acceptErr = listener.Accept()
	}()

	clientConn, dialErr := net.Dial("tcp", listener.Addr().String())
	require.NoError(t, dialErr)

	wg.Wait()
	require.NoError(t, acceptErr)
	require.NotNil(t, serverConn)

	defer clientConn.Close()
	defer serverConn.Close()

	clientTransport := NewStreamTransport(clientConn)
	serverTransport := NewStreamTransport(serverConn)

	t.Run("write and read message", func(t *testing.T) {
		body, encodeErr := EncodeRequest(&Launch{Command: `C:\Windows\notepad.exe`})
		require.NoError(t, encodeErr)

		writeErr := clientTransport.WriteMessage(body)
		require.NoError(t, writeErr)

		received, readErr := serverTransport.ReadMessage()
		require.NoError(t, readErr)

		req, decodeErr := DecodeRequest(received)
		require.NoError(t, decodeErr)
		launch, ok := req.(*Launch)
		require.True(t, ok)
		assert.Equal(t, `C:\Windows\notepad.exe`, launch.Command)
	})

	t.Run("close prevents further operations", func(t *testing.T) {
		closeErr := clientTransport.Close()
		assert.NoError(t, closeErr)

		writeErr := clientTransport.WriteMessage([]byte(`{"type":"Ack"}`))
		assert.ErrorIs(t, writeErr, ErrClientClosed)

		_, readErr := clientTransport.ReadMessage()
		assert.ErrorIs(t, readErr, ErrClientClosed)

		// Double close should not panic
		_ = clientTransport.Close()
	})
}

// mockReadWriteCloser implements io.ReadWriteCloser for testing
type mockReadWriteCloser struct {
	reader   *bytes.Buffer
	writer   *bytes.Buffer
	closed   bool
	closeErr error
	mu       sync.Mutex
}

func newMockReadWriteCloser(input string) *mockReadWriteCloser {
	return &mockReadWriteCloser{
		reader: bytes.NewBufferString(input),
		writer: bytes.NewBuffer(nil),
	}
}

func (m *mockReadWriteCloser) Read(p []byte) (n int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, io.EOF
	}
	return m.reader.Read(p)
}

func (m *mockReadWriteCloser) Write(p []byte) (n int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, io.ErrClosedPipe
	}
	return m.writer.Write(p)
}

func (m *mockReadWriteCloser) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return m.closeErr
}

func TestStreamTransport_Framing(t *testing.T) {
	t.Parallel()

	t.Run("writes content length header", func(t *testing.T) {
		rwc := newMockReadWriteCloser("")
		transport := NewStreamTransport(rwc)

		writeErr := transport.WriteMessage([]byte(`{"type":"Ack"}`))
		require.NoError(t, writeErr)
		assert.Equal(t, "Content-Length: 14\r\n\r\n{\"type\":\"Ack\"}", rwc.writer.String())
	})

	t.Run("reads consecutive frames", func(t *testing.T) {
		rwc := newMockReadWriteCloser("Content-Length: 14\r\n\r\n{\"type\":\"Ack\"}Content-Length: 19\r\n\r\n{\"type\":\"WriteAck\"}")
		transport := NewStreamTransport(rwc)

		first, firstErr := transport.ReadMessage()
		require.NoError(t, firstErr)
		assert.JSONEq(t, `{"type":"Ack"}`, string(first))

		second, secondErr := transport.ReadMessage()
		require.NoError(t, secondErr)
		assert.JSONEq(t, `{"type":"WriteAck"}`, string(second))

		_, eofErr := transport.ReadMessage()
		assert.ErrorIs(t, eofErr, io.EOF)
	})

	t.Run("rejects missing header", func(t *testing.T) {
		rwc := newMockReadWriteCloser("{\"type\":\"Ack\"}\r\n\r\n")
		transport := NewStreamTransport(rwc)

		_, readErr := transport.ReadMessage()
		assert.Error(t, readErr)
	})
}
