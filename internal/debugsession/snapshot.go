/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package debugsession

import (
	"slices"
	"time"

	"github.com/expend20/joybug-tauri/internal/protocol"
)

// EventInfo is the serializable summary of a debug event.
type EventInfo struct {
	Type    protocol.EventKind `json:"type"`
	PID     uint32             `json:"pid"`
	TID     uint32             `json:"tid"`
	Details string             `json:"details"`
}

func NewEventInfo(ev protocol.DebugEvent) EventInfo {
	return EventInfo{
		Type:    ev.Kind(),
		PID:     ev.PID(),
		TID:     ev.TID(),
		Details: ev.String(),
	}
}

// Snapshot is an immutable copy of a session taken at one point in time.
type Snapshot struct {
	ID             string                  `json:"id"`
	Status         Status                  `json:"status"`
	ServerAddress  string                  `json:"server_address"`
	LaunchCommand  string                  `json:"launch_command"`
	Modules        []protocol.ModuleInfo   `json:"modules"`
	Threads        []protocol.ThreadInfo   `json:"threads"`
	CurrentEvent   *EventInfo              `json:"current_event,omitempty"`
	CurrentContext *protocol.ThreadContext `json:"current_context,omitempty"`
	Events         []EventInfo             `json:"events"`
	CreatedAt      time.Time               `json:"created_at"`
}

// Snapshot copies the session state. The session lock is held only while copying.
func (s *Session) Snapshot() Snapshot {
	s.lock.RLock()
	defer s.lock.RUnlock()

	snapshot := Snapshot{
		ID:             s.id,
		Status:         s.status,
		ServerAddress:  s.serverAddress,
		LaunchCommand:  s.launchCommand,
		Modules:        append(make([]protocol.ModuleInfo, 0, len(s.model.Modules)), s.model.Modules...),
		Threads:        append(make([]protocol.ThreadInfo, 0, len(s.model.Threads)), s.model.Threads...),
		CurrentContext: s.currentContext.Clone(),
		Events:         make([]EventInfo, 0, len(s.history)),
		CreatedAt:      s.createdAt,
	}
	if s.currentEvent != nil {
		current := NewEventInfo(s.currentEvent)
		snapshot.CurrentEvent = &current
	}
	for _, ev := range s.history {
		snapshot.Events = append(snapshot.Events, NewEventInfo(ev))
	}

	return snapshot
}

// Clone returns a deep copy of the snapshot, for sinks that hand the same snapshot to several consumers.
func (s Snapshot) Clone() Snapshot {
	clone := s
	clone.Modules = slices.Clone(s.Modules)
	clone.Threads = slices.Clone(s.Threads)
	clone.Events = slices.Clone(s.Events)
	clone.CurrentContext = s.CurrentContext.Clone()
	if s.CurrentEvent != nil {
		current := *s.CurrentEvent
		clone.CurrentEvent = &current
	}
	return clone
}

// publish hands a snapshot of the session to the sink. Must be called without the session lock held.
func (c *Controller) publish() {
	snapshot := c.session.Snapshot()
	c.publishedStatus = snapshot.Status
	if publishErr := c.sink.Publish(snapshot); publishErr != nil {
		c.log.Error(publishErr, "Could not publish session snapshot", "status", snapshot.Status.String())
	}
}
