/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package debugsession

import (
	"encoding/json"
	"fmt"
)

// StatusKind enumerates the states of the session state machine.
type StatusKind int

const (
	// StatusInitializing is the initial state; no connection has been established yet.
	StatusInitializing StatusKind = iota

	// StatusConnected indicates both protocol connections are established.
	StatusConnected

	// StatusRunning indicates the debuggee has been resumed.
	StatusRunning

	// StatusPaused indicates the debuggee is stopped at an event, waiting for an operator decision.
	StatusPaused

	// StatusFinished is terminal: the session ended normally or was stopped.
	StatusFinished

	// StatusError is terminal: the session ended because of a failure.
	StatusError
)

// String returns a string representation of the status kind.
func (k StatusKind) String() string {
	switch k {
	case StatusInitializing:
		return "Initializing"
	case StatusConnected:
		return "Connected"
	case StatusRunning:
		return "Running"
	case StatusPaused:
		return "Paused"
	case StatusFinished:
		return "Finished"
	case StatusError:
		return "Error"
	default:
		return "Unknown"
	}
}

// Status is the current state of a session. Message is only meaningful for StatusError.
type Status struct {
	Kind    StatusKind
	Message string
}

func Initializing() Status { return Status{Kind: StatusInitializing} }
func Connected() Status    { return Status{Kind: StatusConnected} }
func Running() Status      { return Status{Kind: StatusRunning} }
func Paused() Status       { return Status{Kind: StatusPaused} }
func Finished() Status     { return Status{Kind: StatusFinished} }

func Failed(message string) Status {
	return Status{Kind: StatusError, Message: message}
}

// IsTerminal reports whether the status is absorbing (Finished or Error).
func (s Status) IsTerminal() bool {
	return s.Kind == StatusFinished || s.Kind == StatusError
}

func (s Status) String() string {
	if s.Kind == StatusError {
		return fmt.Sprintf("Error(%s)", s.Message)
	}
	return s.Kind.String()
}

// MarshalJSON encodes simple states as a bare string ("Paused") and the error state
// as {"Error":"message"}, which is the shape UI clients switch on.
func (s Status) MarshalJSON() ([]byte, error) {
	if s.Kind == StatusError {
		return json.Marshal(map[string]string{"Error": s.Message})
	}
	return json.Marshal(s.Kind.String())
}

func (s *Status) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		for k := StatusInitializing; k <= StatusFinished; k++ {
			if k.String() == name {
				*s = Status{Kind: k}
				return nil
			}
		}
		return fmt.Errorf("unknown session status %q", name)
	}

	var withMessage map[string]string
	if err := json.Unmarshal(data, &withMessage); err != nil {
		return fmt.Errorf("invalid session status: %w", err)
	}
	message, found := withMessage["Error"]
	if !found {
		return fmt.Errorf("invalid session status: %s", string(data))
	}
	*s = Failed(message)
	return nil
}
