/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package debugsession

import (
	"context"
	"errors"

	"github.com/go-logr/logr"
)

var (
	// ErrConnectionFailed is returned when either protocol connection could not be established.
	ErrConnectionFailed = errors.New("connection to debug server failed")

	// ErrDebugLoop is returned when the protocol-driven debug loop fails.
	ErrDebugLoop = errors.New("debug loop failed")

	// ErrProtocol is returned when the debug server ends the session with an Error response.
	ErrProtocol = errors.New("debug server reported an error")

	// ErrSessionNotFound is returned when a session id is not registered with the manager.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionActive is returned when removing a session that has not reached a terminal state.
	ErrSessionActive = errors.New("session is still active")

	// ErrSessionAlreadyStarted is returned when starting a session loop a second time.
	ErrSessionAlreadyStarted = errors.New("session already started")

	// ErrNotPaused is returned when an operation requires the session to be paused at an event.
	ErrNotPaused = errors.New("session is not paused")

	// ErrDecisionPending is returned when the current stop event has already been answered.
	ErrDecisionPending = errors.New("a decision is already pending")

	// ErrDecisionsClosed is returned when posting a decision after the decision channel was closed.
	ErrDecisionsClosed = errors.New("decision channel is closed")

	// ErrNoAuxiliaryConnection is returned when an out-of-band query is made without an auxiliary connection.
	ErrNoAuxiliaryConnection = errors.New("no auxiliary connection")
)

// IsConnectionError returns true if the error indicates the session could not connect.
func IsConnectionError(err error) bool {
	return errors.Is(err, ErrConnectionFailed)
}

// IsFatalSessionError returns true if the error ended a running session:
// a protocol error reported by the debug server or a failure of the debug loop itself.
func IsFatalSessionError(err error) bool {
	return errors.Is(err, ErrProtocol) || errors.Is(err, ErrDebugLoop)
}

// filterContextError filters out redundant context errors during shutdown.
// If the error is a context.Canceled or context.DeadlineExceeded and the
// context is already done, the error is logged at debug level and nil is returned.
// Otherwise, the original error is returned unchanged.
func filterContextError(err error, ctx context.Context, log logr.Logger) error {
	if err == nil {
		return nil
	}

	if ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		log.V(1).Info("Filtering redundant context error", "error", err)
		return nil
	}

	return err
}
