/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package protocol

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/go-logr/logr"
)

// ResponseHandler is invoked once per response received by the launch loop.
// The return value tells the loop whether to keep going: true resumes the debuggee
// (for event responses) and keeps reading, false ends the loop.
//
// The handler runs on the goroutine that called Launch and may block; the debug
// server does not produce further responses until the handler returns.
type ResponseHandler func(resp Response) bool

// Client is a connection to a joybug debug server.
// Request/response exchanges are serialized: a Client is used by one caller at a time.
type Client struct {
	transport Transport
	log       logr.Logger

	// mu serializes exchanges so that a response is always read by the caller that sent the request.
	mu sync.Mutex
}

// Dial connects to the debug server at the given address.
func Dial(ctx context.Context, address string, log logr.Logger) (*Client, error) {
	transport, dialErr := DialTCP(ctx, address)
	if dialErr != nil {
		return nil, dialErr
	}

	return NewClient(transport, log), nil
}

// NewClient creates a client over an established transport.
func NewClient(transport Transport, log logr.Logger) *Client {
	if log.GetSink() == nil {
		log = logr.Discard()
	}

	return &Client{
		transport: transport,
		log:       log,
	}
}

// SendAndReceive sends a single request and waits for its response.
// Cancelling the context closes the client.
func (c *Client) SendAndReceive(ctx context.Context, req Request) (Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	stop := context.AfterFunc(ctx, func() { _ = c.transport.Close() })
	defer stop()

	if sendErr := c.send(req); sendErr != nil {
		return nil, contextOr(ctx, sendErr)
	}

	for {
		resp, receiveErr := c.receive()
		if receiveErr == nil {
			return resp, nil
		}
		if isDecodeError(receiveErr) {
			c.log.Error(receiveErr, "Ignoring malformed response", "request", req.RequestType())
			continue
		}
		return nil, contextOr(ctx, receiveErr)
	}
}

// Launch asks the debug server to start the given command under the debugger and runs
// the debug loop until the handler returns false, the debuggee exits, or the context is cancelled.
//
// Each event response is acknowledged with a Continue request when the handler returns true.
// Responses that fail to decode are logged and skipped; a broken stream ends the loop with
// an error wrapping ErrLaunchFailed.
func (c *Client) Launch(ctx context.Context, command string, handler ResponseHandler) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	stop := context.AfterFunc(ctx, func() { _ = c.transport.Close() })
	defer stop()

	if sendErr := c.send(&Launch{Command: command}); sendErr != nil {
		return contextOr(ctx, fmt.Errorf("%w: %w", ErrLaunchFailed, sendErr))
	}

	processExited := false
	for {
		resp, receiveErr := c.receive()
		if receiveErr != nil {
			if isDecodeError(receiveErr) {
				c.log.Error(receiveErr, "Ignoring malformed response from debug server")
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if processExited && errors.Is(receiveErr, io.EOF) {
				c.log.V(1).Info("Debug server closed the stream after process exit")
				return nil
			}
			return fmt.Errorf("%w: %w", ErrLaunchFailed, receiveErr)
		}

		if !handler(resp) {
			return nil
		}

		er, isEvent := resp.(*EventResponse)
		if !isEvent {
			continue
		}

		if _, exited := er.Event.(*ProcessExited); exited {
			processExited = true
		}

		cont := &Continue{PID: er.Event.PID(), TID: er.Event.TID()}
		if sendErr := c.send(cont); sendErr != nil {
			if processExited {
				return nil
			}
			return contextOr(ctx, fmt.Errorf("%w: %w", ErrLaunchFailed, sendErr))
		}
	}
}

// Close closes the underlying transport. It is safe to call Close more than once.
func (c *Client) Close() error {
	return c.transport.Close()
}

func (c *Client) send(req Request) error {
	body, encodeErr := EncodeRequest(req)
	if encodeErr != nil {
		return encodeErr
	}

	c.log.V(2).Info("Sending request", "type", req.RequestType())
	return c.transport.WriteMessage(body)
}

func (c *Client) receive() (Response, error) {
	body, readErr := c.transport.ReadMessage()
	if readErr != nil {
		return nil, readErr
	}

	resp, decodeErr := DecodeResponse(body)
	if decodeErr != nil {
		return nil, &decodeError{err: decodeErr}
	}

	c.log.V(2).Info("Received response", "type", resp.ResponseType())
	return resp, nil
}

// decodeError marks a failure to interpret an intact message, as opposed to a transport failure.
type decodeError struct {
	err error
}

func (e *decodeError) Error() string { return e.err.Error() }
func (e *decodeError) Unwrap() error { return e.err }

func isDecodeError(err error) bool {
	var de *decodeError
	return errors.As(err, &de)
}

// contextOr returns the context error if the context is done, otherwise err.
func contextOr(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}
