/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package debugsession

import (
	"context"

	"github.com/go-logr/logr"

	"github.com/expend20/joybug-tauri/internal/protocol"
)

// Conn is a connection to a debug server, as used by the session loop.
// *protocol.Client satisfies this interface.
type Conn interface {
	// Launch starts the command under the debugger and runs the debug loop, invoking
	// the handler once per response until it returns false or the loop ends.
	Launch(ctx context.Context, command string, handler protocol.ResponseHandler) error

	// SendAndReceive performs a single out-of-band request.
	SendAndReceive(ctx context.Context, req protocol.Request) (protocol.Response, error)

	Close() error
}

// Dialer establishes connections to a debug server.
type Dialer interface {
	Dial(ctx context.Context, address string) (Conn, error)
}

// DialerFunc adapts a function to the Dialer interface.
type DialerFunc func(ctx context.Context, address string) (Conn, error)

func (f DialerFunc) Dial(ctx context.Context, address string) (Conn, error) {
	return f(ctx, address)
}

// ProtocolDialer returns a Dialer that opens protocol.Client connections.
func ProtocolDialer(log logr.Logger) Dialer {
	return DialerFunc(func(ctx context.Context, address string) (Conn, error) {
		client, dialErr := protocol.Dial(ctx, address, log)
		if dialErr != nil {
			return nil, dialErr
		}
		return client, nil
	})
}

// Sink receives session snapshots. Publish is called without any session lock held
// and may query the session synchronously.
type Sink interface {
	Publish(snapshot Snapshot) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(snapshot Snapshot) error

func (f SinkFunc) Publish(snapshot Snapshot) error {
	return f(snapshot)
}

// Notifier receives operator-facing messages keyed by session id.
// Implementations must not block.
type Notifier interface {
	Info(sessionID string, message string)
	Warn(sessionID string, message string)
	Toast(sessionID string, message string)
}

type nopNotifier struct{}

func (nopNotifier) Info(string, string)  {}
func (nopNotifier) Warn(string, string)  {}
func (nopNotifier) Toast(string, string) {}

var (
	_ Conn     = (*protocol.Client)(nil)
	_ Notifier = nopNotifier{}
)
