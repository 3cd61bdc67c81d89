/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package debugsession

import (
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/expend20/joybug-tauri/internal/protocol"
)

// Model is the debuggee runtime state maintained from debug events.
type Model struct {
	// Modules holds at most one entry per base address (except after bulk ModuleList population).
	Modules []protocol.ModuleInfo

	// Threads holds at most one entry per thread id (except after bulk ThreadList population).
	Threads []protocol.ThreadInfo
}

func (m *Model) clone() Model {
	return Model{
		Modules: slices.Clone(m.Modules),
		Threads: slices.Clone(m.Threads),
	}
}

// Session is the root aggregate of one debug session.
//
// All state is guarded by the session lock. Mutation is reserved to the controller
// that runs the session; other goroutines read through accessors, which return copies.
type Session struct {
	id            string
	serverAddress string
	launchCommand string
	createdAt     time.Time

	lock           *sync.RWMutex
	status         Status
	model          Model
	currentEvent   protocol.DebugEvent
	currentContext *protocol.ThreadContext
	history        []protocol.DebugEvent

	// Set when a stop event is recorded, cleared when the operator answers it.
	awaitingDecision bool

	// Connection handles exist only while the session loop runs.
	primary   Conn
	auxiliary Conn

	// auxLock makes use of the auxiliary connection sequential.
	auxLock *sync.Mutex

	// The operator posts decisions here; the session loop consumes one per stop event.
	decisions       chan bool
	decisionsLock   *sync.Mutex
	decisionsClosed bool

	started *atomic.Bool
}

// NewSession creates a session in the Initializing state.
func NewSession(id, serverAddress, launchCommand string) *Session {
	return &Session{
		id:            id,
		serverAddress: serverAddress,
		launchCommand: launchCommand,
		createdAt:     time.Now(),
		lock:          &sync.RWMutex{},
		status:        Initializing(),
		auxLock:       &sync.Mutex{},
		decisions:     make(chan bool, 1),
		decisionsLock: &sync.Mutex{},
		started:       &atomic.Bool{},
	}
}

func (s *Session) ID() string            { return s.id }
func (s *Session) ServerAddress() string { return s.serverAddress }
func (s *Session) LaunchCommand() string { return s.launchCommand }
func (s *Session) CreatedAt() time.Time  { return s.createdAt }

func (s *Session) Status() Status {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.status
}

// Model returns a copy of the module and thread collections.
func (s *Session) Model() Model {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.model.clone()
}

// CurrentEvent returns the stop event the session is paused at, or nil.
func (s *Session) CurrentEvent() protocol.DebugEvent {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.currentEvent
}

// CurrentContext returns a copy of the register context for the current event's thread, or nil.
func (s *Session) CurrentContext() *protocol.ThreadContext {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.currentContext.Clone()
}

// History returns all events seen by the session, in arrival order.
func (s *Session) History() []protocol.DebugEvent {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return slices.Clone(s.history)
}

// Decide posts an operator decision: true resumes the debuggee, false stops the session.
// It never blocks; only one decision may be outstanding at a time.
func (s *Session) Decide(resume bool) error {
	s.decisionsLock.Lock()
	defer s.decisionsLock.Unlock()

	if s.decisionsClosed {
		return ErrDecisionsClosed
	}

	select {
	case s.decisions <- resume:
		return nil
	default:
		return ErrDecisionPending
	}
}

// decideCurrent posts the operator decision for the stop event the session is paused at.
// The status check and the post happen under the session lock, so at most one decision
// is accepted per stop event, even if the session loop already consumed it and has not
// yet left the Paused state.
func (s *Session) decideCurrent(resume bool) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.status.Kind != StatusPaused {
		return fmt.Errorf("%w: %s is %s", ErrNotPaused, s.id, s.status.String())
	}
	if !s.awaitingDecision {
		return fmt.Errorf("%w: %s", ErrDecisionPending, s.id)
	}

	if decideErr := s.Decide(resume); decideErr != nil {
		return decideErr
	}
	s.awaitingDecision = false
	return nil
}

// CloseDecisions disconnects the operator side of the decision channel.
// The session loop treats the disconnection as a stop decision. Safe to call more than once.
func (s *Session) CloseDecisions() {
	s.decisionsLock.Lock()
	defer s.decisionsLock.Unlock()

	if !s.decisionsClosed {
		s.decisionsClosed = true
		close(s.decisions)
	}
}

// setStatus transitions the session to a new status and reports whether the status changed.
// Terminal states are absorbing.
func (s *Session) setStatus(status Status) bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.setStatusLocked(status)
}

func (s *Session) setStatusLocked(status Status) bool {
	if s.status.IsTerminal() || s.status == status {
		return false
	}
	s.status = status
	return true
}

// recordEvent applies a new stop event to the session: the event is appended to the history
// and becomes the current event, the register context is cleared, the model is updated
// and the session is paused.
func (s *Session) recordEvent(ev protocol.DebugEvent, apply func(*Model)) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.history = append(s.history, ev)
	s.currentEvent = ev
	s.currentContext = nil
	apply(&s.model)
	s.setStatusLocked(Paused())
	s.awaitingDecision = s.status.Kind == StatusPaused
}

// setContext stores the register context fetched for the given event.
// The context is dropped if the session has moved on to a different event meanwhile.
func (s *Session) setContext(ev protocol.DebugEvent, tc protocol.ThreadContext) bool {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.currentEvent != ev {
		return false
	}
	s.currentContext = &tc
	return true
}

// clearCurrentEvent clears the current event and its register context, and reports whether anything changed.
func (s *Session) clearCurrentEvent() bool {
	s.lock.Lock()
	defer s.lock.Unlock()

	changed := s.currentEvent != nil || s.currentContext != nil
	s.currentEvent = nil
	s.currentContext = nil
	return changed
}

// appendModules adds modules from a bulk listing. No duplicate check is made:
// the listing is trusted to describe the debuggee as a whole.
func (s *Session) appendModules(modules []protocol.ModuleInfo) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.model.Modules = append(s.model.Modules, modules...)
}

// appendThreads adds threads from a bulk listing, without a duplicate check.
func (s *Session) appendThreads(threads []protocol.ThreadInfo) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.model.Threads = append(s.model.Threads, threads...)
}

func (s *Session) attachConnections(primary, auxiliary Conn) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.primary = primary
	s.auxiliary = auxiliary
}

// detachConnections clears the connection handles and returns them so the caller can close them.
func (s *Session) detachConnections() (Conn, Conn) {
	s.lock.Lock()
	primary, auxiliary := s.primary, s.auxiliary
	s.primary, s.auxiliary = nil, nil
	s.lock.Unlock()

	// Wait for any in-flight out-of-band query to finish before handing out the connection.
	s.auxLock.Lock()
	defer s.auxLock.Unlock()
	return primary, auxiliary
}

// withAuxiliary runs the query function with exclusive use of the auxiliary connection.
func (s *Session) withAuxiliary(query func(conn Conn) error) error {
	s.auxLock.Lock()
	defer s.auxLock.Unlock()

	s.lock.RLock()
	conn := s.auxiliary
	s.lock.RUnlock()

	if conn == nil {
		return ErrNoAuxiliaryConnection
	}
	return query(conn)
}

// markStarted reports whether this is the first attempt to run the session.
func (s *Session) markStarted() bool {
	return s.started.CompareAndSwap(false, true)
}
