/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package debugsession

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/expend20/joybug-tauri/internal/protocol"
	"github.com/expend20/joybug-tauri/pkg/syncmap"
)

type ManagerConfig struct {
	// Used for every session started by the manager. Required.
	Dialer Dialer

	// Receives snapshots of all sessions.
	Sink Sink

	// Receives operator-facing messages of all sessions.
	Notifier Notifier

	Logger logr.Logger
}

// Manager is the registry of debug sessions, keyed by session id.
type Manager struct {
	config   ManagerConfig
	sessions *syncmap.Map[string, *Session]
	log      logr.Logger
}

func NewManager(config ManagerConfig) (*Manager, error) {
	if config.Dialer == nil {
		return nil, fmt.Errorf("session manager requires a dialer")
	}

	log := config.Logger
	if log.GetSink() == nil {
		log = logr.Discard()
	}

	return &Manager{
		config:   config,
		sessions: &syncmap.Map[string, *Session]{},
		log:      log,
	}, nil
}

// Create registers a new session in the Initializing state. The session does not run until Start is called.
func (m *Manager) Create(serverAddress, launchCommand string) (*Session, error) {
	if strings.TrimSpace(serverAddress) == "" {
		return nil, fmt.Errorf("server address must not be empty")
	}
	if strings.TrimSpace(launchCommand) == "" {
		return nil, fmt.Errorf("launch command must not be empty")
	}

	session := NewSession(uuid.New().String(), serverAddress, launchCommand)
	m.sessions.Store(session.ID(), session)
	m.log.V(1).Info("Session created", "sessionID", session.ID(), "address", serverAddress)
	return session, nil
}

// Start runs the session loop in a new goroutine.
// The returned channel receives the result of the loop and is then closed.
func (m *Manager) Start(ctx context.Context, id string) <-chan error {
	result := make(chan error, 1)

	session, found := m.sessions.Load(id)
	if !found {
		result <- fmt.Errorf("%w: %s", ErrSessionNotFound, id)
		close(result)
		return result
	}

	controller, controllerErr := NewController(ControllerConfig{
		Session:  session,
		Dialer:   m.config.Dialer,
		Sink:     m.config.Sink,
		Notifier: m.config.Notifier,
		Logger:   m.log,
	})
	if controllerErr != nil {
		result <- controllerErr
		close(result)
		return result
	}

	go func() {
		defer close(result)
		result <- controller.Run(ctx)
	}()
	return result
}

func (m *Manager) Get(id string) (*Session, error) {
	session, found := m.sessions.Load(id)
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return session, nil
}

// List returns snapshots of all registered sessions, oldest first.
func (m *Manager) List() []Snapshot {
	var snapshots []Snapshot
	m.sessions.Range(func(_ string, session *Session) bool {
		snapshots = append(snapshots, session.Snapshot())
		return true
	})
	slices.SortFunc(snapshots, func(a, b Snapshot) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return snapshots
}

// Remove unregisters a session. Only sessions that reached a terminal state,
// or were never started, can be removed.
func (m *Manager) Remove(id string) error {
	session, found := m.sessions.Load(id)
	if !found {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}

	status := session.Status()
	switch {
	case status.IsTerminal():
	case status.Kind == StatusInitializing && session.markStarted():
		// Never started. Marking it started keeps a concurrent Start from running it.
	default:
		return fmt.Errorf("%w: %s is %s", ErrSessionActive, id, status.String())
	}

	session.CloseDecisions()
	m.sessions.Delete(id)
	return nil
}

// Step posts the operator decision for the event the session is paused at.
// Only the first decision for a given stop event is accepted.
func (m *Manager) Step(id string, resume bool) error {
	session, getErr := m.Get(id)
	if getErr != nil {
		return getErr
	}
	return session.decideCurrent(resume)
}

// Stop disconnects the operator from every session. Sessions waiting for a decision finish.
func (m *Manager) Stop() {
	m.sessions.Range(func(_ string, session *Session) bool {
		session.CloseDecisions()
		return true
	})
}

// CallStack retrieves the call stack of the thread the session is paused at,
// using the auxiliary connection.
// Cancelling ctx makes CallStack return early, but the query itself runs to completion,
// so that the auxiliary connection stays usable for the session.
func (m *Manager) CallStack(ctx context.Context, id string) ([]protocol.CallStackFrame, error) {
	session, getErr := m.Get(id)
	if getErr != nil {
		return nil, getErr
	}

	ev := session.CurrentEvent()
	if session.Status().Kind != StatusPaused || ev == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotPaused, id)
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("could not get call stack for session %s: %w", id, ctxErr)
	}

	type callStackResult struct {
		frames []protocol.CallStackFrame
		err    error
	}
	done := make(chan callStackResult, 1)
	queryCtx := context.WithoutCancel(ctx)

	go func() {
		var res callStackResult
		res.err = session.withAuxiliary(func(conn Conn) error {
			resp, sendErr := conn.SendAndReceive(queryCtx, &protocol.GetCallStack{PID: ev.PID(), TID: ev.TID()})
			if sendErr != nil {
				return sendErr
			}
			switch r := resp.(type) {
			case *protocol.CallStack:
				res.frames = r.Frames
				return nil
			case *protocol.ErrorResponse:
				return fmt.Errorf("%w: %s", ErrProtocol, r.Message)
			default:
				return fmt.Errorf("%w: %s", protocol.ErrUnexpectedResponse, resp.ResponseType())
			}
		})
		done <- res
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return nil, fmt.Errorf("could not get call stack for session %s: %w", id, res.err)
		}
		return res.frames, nil
	case <-ctx.Done():
		m.log.V(1).Info("Call stack query abandoned by the caller", "sessionID", id)
		return nil, fmt.Errorf("could not get call stack for session %s: %w", id, ctx.Err())
	}
}
