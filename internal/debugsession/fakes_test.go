/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package debugsession

import (
	"context"
	"fmt"
	"sync"

	"github.com/expend20/joybug-tauri/internal/protocol"
)

// fakeConn is a scripted connection. Launch feeds the script to the handler
// and then returns launchErr; SendAndReceive is answered by the responder.
type fakeConn struct {
	script    []protocol.Response
	launchErr error
	responder func(req protocol.Request) (protocol.Response, error)

	lock     sync.Mutex
	requests []protocol.Request
	handled  int
	closed   bool
}

func (f *fakeConn) Launch(ctx context.Context, command string, handler protocol.ResponseHandler) error {
	for _, resp := range f.script {
		f.lock.Lock()
		f.handled++
		f.lock.Unlock()

		if !handler(resp) {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return f.launchErr
}

func (f *fakeConn) SendAndReceive(_ context.Context, req protocol.Request) (protocol.Response, error) {
	f.lock.Lock()
	f.requests = append(f.requests, req)
	f.lock.Unlock()

	if f.responder == nil {
		return nil, fmt.Errorf("no responder for %s", req.RequestType())
	}
	return f.responder(req)
}

func (f *fakeConn) Close() error {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) Requests() []protocol.Request {
	f.lock.Lock()
	defer f.lock.Unlock()
	return append([]protocol.Request(nil), f.requests...)
}

func (f *fakeConn) Handled() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.handled
}

func (f *fakeConn) Closed() bool {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.closed
}

// fakeDialer hands out the primary connection first and the auxiliary connection second.
type fakeDialer struct {
	primary      *fakeConn
	auxiliary    *fakeConn
	primaryErr   error
	auxiliaryErr error

	lock  sync.Mutex
	dials int
}

func (d *fakeDialer) Dial(_ context.Context, _ string) (Conn, error) {
	d.lock.Lock()
	defer d.lock.Unlock()

	d.dials++
	if d.dials == 1 {
		if d.primaryErr != nil {
			return nil, d.primaryErr
		}
		return d.primary, nil
	}
	if d.auxiliaryErr != nil {
		return nil, d.auxiliaryErr
	}
	return d.auxiliary, nil
}

// recordingSink stores every published snapshot. If decide is set, it is called with each
// Paused snapshot, in the publishing goroutine, to produce the operator's decision.
type recordingSink struct {
	session *Session
	decide  func(snapshot Snapshot) (resume bool, post bool)

	lock      sync.Mutex
	snapshots []Snapshot
}

func (s *recordingSink) Publish(snapshot Snapshot) error {
	s.lock.Lock()
	s.snapshots = append(s.snapshots, snapshot)
	s.lock.Unlock()

	if s.decide != nil && snapshot.Status.Kind == StatusPaused && snapshot.CurrentEvent != nil {
		if resume, post := s.decide(snapshot); post {
			if decideErr := s.session.Decide(resume); decideErr != nil {
				return decideErr
			}
		}
	}
	return nil
}

func (s *recordingSink) Snapshots() []Snapshot {
	s.lock.Lock()
	defer s.lock.Unlock()
	return append([]Snapshot(nil), s.snapshots...)
}

func (s *recordingSink) Last() Snapshot {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.snapshots[len(s.snapshots)-1]
}

func alwaysContinue(Snapshot) (bool, bool) { return true, true }

type notification struct {
	kind    string
	message string
}

type recordingNotifier struct {
	lock          sync.Mutex
	notifications []notification
}

func (n *recordingNotifier) add(kind, message string) {
	n.lock.Lock()
	defer n.lock.Unlock()
	n.notifications = append(n.notifications, notification{kind: kind, message: message})
}

func (n *recordingNotifier) Info(_ string, message string)  { n.add("info", message) }
func (n *recordingNotifier) Warn(_ string, message string)  { n.add("warn", message) }
func (n *recordingNotifier) Toast(_ string, message string) { n.add("toast", message) }

func (n *recordingNotifier) OfKind(kind string) []string {
	n.lock.Lock()
	defer n.lock.Unlock()
	var messages []string
	for _, entry := range n.notifications {
		if entry.kind == kind {
			messages = append(messages, entry.message)
		}
	}
	return messages
}
