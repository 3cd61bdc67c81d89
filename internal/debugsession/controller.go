/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package debugsession

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/expend20/joybug-tauri/internal/protocol"
	"github.com/expend20/joybug-tauri/pkg/resiliency"
)

type ControllerConfig struct {
	// The session to run. Required.
	Session *Session

	// Opens the primary and auxiliary connections. Required.
	Dialer Dialer

	// Receives a snapshot after every state change. If nil, snapshots are discarded.
	Sink Sink

	// Receives operator-facing messages. If nil, messages are discarded.
	Notifier Notifier

	Logger logr.Logger
}

// Controller runs the debug loop of a single session.
type Controller struct {
	session  *Session
	dialer   Dialer
	sink     Sink
	notifier Notifier
	log      logr.Logger

	// Set by the response handler when the loop must end with an error.
	protocolErr error
	handlerErr  error

	// Status carried by the most recently published snapshot.
	publishedStatus Status
}

func NewController(config ControllerConfig) (*Controller, error) {
	if config.Session == nil {
		return nil, fmt.Errorf("controller requires a session")
	}
	if config.Dialer == nil {
		return nil, fmt.Errorf("controller requires a dialer")
	}

	c := &Controller{
		session:  config.Session,
		dialer:   config.Dialer,
		sink:     config.Sink,
		notifier: config.Notifier,
		log:      config.Logger,
	}
	if c.sink == nil {
		c.sink = SinkFunc(func(Snapshot) error { return nil })
	}
	if c.notifier == nil {
		c.notifier = nopNotifier{}
	}
	if c.log.GetSink() == nil {
		c.log = logr.Discard()
	}
	c.log = c.log.WithValues("sessionID", c.session.ID())

	return c, nil
}

// Run connects to the debug server, launches the session's command and drives the debug loop
// until the debuggee exits, the operator stops the session, or a failure occurs.
//
// Every state change is published to the sink before Run returns, so the session is always
// left in a consistent terminal state. Cancelling the context is treated as a stop decision.
// The returned error wraps ErrConnectionFailed, ErrProtocol or ErrDebugLoop.
func (c *Controller) Run(ctx context.Context) error {
	if !c.session.markStarted() {
		return ErrSessionAlreadyStarted
	}

	address := c.session.ServerAddress()
	c.log.Info("Connecting to debug server", "address", address)

	primary, dialErr := c.dialer.Dial(ctx, address)
	if dialErr != nil {
		return c.failConnection("primary", dialErr)
	}
	auxiliary, dialErr := c.dialer.Dial(ctx, address)
	if dialErr != nil {
		_ = primary.Close()
		return c.failConnection("auxiliary", dialErr)
	}

	c.session.attachConnections(primary, auxiliary)
	defer c.closeConnections()

	c.session.setStatus(Connected())
	c.notifier.Info(c.session.ID(), fmt.Sprintf("Connected to debug server at %s", address))
	c.publish()

	c.log.Info("Launching debuggee", "command", c.session.LaunchCommand())
	loopErr := primary.Launch(ctx, c.session.LaunchCommand(), func(resp protocol.Response) (resume bool) {
		defer func() {
			if r := recover(); r != nil {
				c.handlerErr = resiliency.MakePanicError(r, c.log)
				resume = false
			}
		}()
		return c.handleResponse(ctx, resp)
	})

	return c.finish(ctx, loopErr)
}

func (c *Controller) failConnection(which string, dialErr error) error {
	err := fmt.Errorf("%w: %s connection: %w", ErrConnectionFailed, which, dialErr)
	c.log.Error(dialErr, "Could not connect to debug server", "connection", which)
	c.session.setStatus(Failed(err.Error()))
	c.notifier.Warn(c.session.ID(), err.Error())
	c.publish()
	return err
}

// finish forces the session into a terminal state once the debug loop has returned.
func (c *Controller) finish(ctx context.Context, loopErr error) error {
	var result error

	switch {
	case c.protocolErr != nil:
		// The status is already Error(message).
		result = c.protocolErr

	case c.handlerErr != nil:
		result = fmt.Errorf("%w: %w", ErrDebugLoop, c.handlerErr)
		c.session.setStatus(Failed(c.handlerErr.Error()))

	case filterContextError(loopErr, ctx, c.log) != nil:
		result = fmt.Errorf("%w: %w", ErrDebugLoop, loopErr)
		c.session.setStatus(Failed(loopErr.Error()))

	default:
		c.session.setStatus(Finished())
	}

	statusChanged := c.session.Status() != c.publishedStatus
	eventCleared := c.session.clearCurrentEvent()
	if statusChanged || eventCleared {
		c.publish()
	}

	if result != nil {
		c.log.Error(result, "Debug session ended with an error")
		c.notifier.Warn(c.session.ID(), result.Error())
	} else {
		c.log.Info("Debug session finished")
		c.notifier.Info(c.session.ID(), "Debug session finished")
	}
	return result
}

func (c *Controller) closeConnections() {
	primary, auxiliary := c.session.detachConnections()
	var closeErr error
	if primary != nil {
		closeErr = errors.Join(closeErr, primary.Close())
	}
	if auxiliary != nil {
		closeErr = errors.Join(closeErr, auxiliary.Close())
	}
	if closeErr != nil {
		c.log.V(1).Info("Error closing debug server connections", "error", closeErr)
	}
}

// handleResponse processes one response of the debug loop and returns whether the loop should continue.
func (c *Controller) handleResponse(ctx context.Context, resp protocol.Response) bool {
	switch r := resp.(type) {

	case *protocol.EventResponse:
		return c.handleEvent(ctx, r.Event)

	case *protocol.ErrorResponse:
		c.protocolErr = fmt.Errorf("%w: %s", ErrProtocol, r.Message)
		c.session.setStatus(Failed(r.Message))
		c.publish()
		return false

	case *protocol.ModuleList:
		c.session.appendModules(r.Modules)
		c.log.V(1).Info("Module list received", "count", len(r.Modules))
		c.publish()
		return true

	case *protocol.ThreadList:
		c.session.appendThreads(r.Threads)
		c.log.V(1).Info("Thread list received", "count", len(r.Threads))
		c.publish()
		return true

	case *protocol.Ack, *protocol.ProcessList, *protocol.MemoryData, *protocol.WriteAck,
		*protocol.ThreadContextResponse, *protocol.SetContextAck, *protocol.Symbol, *protocol.SymbolList,
		*protocol.AddressSymbol, *protocol.Instructions, *protocol.CallStack, *protocol.ResolvedSymbolList:
		c.log.V(1).Info("Informational response received", "response", resp.ResponseType())
		return true

	default:
		c.log.Info("Ignoring unexpected response", "response", fmt.Sprintf("%T", resp))
		return true
	}
}

// handleEvent models a stop event, publishes it and waits for the operator's decision.
func (c *Controller) handleEvent(ctx context.Context, ev protocol.DebugEvent) bool {
	c.log.Info("Debug event received", "event", ev.String())
	c.notifier.Info(c.session.ID(), ev.String())
	c.notifier.Toast(c.session.ID(), toastMessage(ev))

	c.session.recordEvent(ev, func(m *Model) { ApplyEvent(m, ev, c.log) })
	c.fetchContext(ctx, ev)
	c.publish()

	resume := c.awaitDecision(ctx)
	if resume {
		c.session.setStatus(Running())
	} else {
		c.session.setStatus(Finished())
	}
	c.session.clearCurrentEvent()
	c.publish()
	return resume
}

// awaitDecision blocks until the operator posts a decision. A closed decision channel
// or a cancelled context count as a stop decision.
func (c *Controller) awaitDecision(ctx context.Context) bool {
	select {
	case resume, isOpen := <-c.session.decisions:
		if !isOpen {
			c.log.Info("Operator disconnected, stopping session")
			return false
		}
		if !resume {
			c.log.Info("Operator stopped the session")
		}
		return resume

	case <-ctx.Done():
		c.log.Info("Session cancelled while waiting for operator decision")
		return false
	}
}

func toastMessage(ev protocol.DebugEvent) string {
	if dll, isDll := ev.(*protocol.DllLoaded); isDll {
		return fmt.Sprintf("DLL Loaded: %s", ModuleName(dll))
	}
	return fmt.Sprintf("Received: %s", ev.Kind())
}
