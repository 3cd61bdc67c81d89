/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package protocol

import (
	"fmt"
)

// EventKind identifies the variant of a DebugEvent.
type EventKind string

const (
	EventKindProcessCreated    EventKind = "ProcessCreated"
	EventKindProcessExited     EventKind = "ProcessExited"
	EventKindThreadCreated     EventKind = "ThreadCreated"
	EventKindThreadExited      EventKind = "ThreadExited"
	EventKindDllLoaded         EventKind = "DllLoaded"
	EventKindDllUnloaded       EventKind = "DllUnloaded"
	EventKindBreakpoint        EventKind = "Breakpoint"
	EventKindException         EventKind = "Exception"
	EventKindOutputDebugString EventKind = "OutputDebugString"
	EventKindRipEvent          EventKind = "RipEvent"
	EventKindUnknown           EventKind = "Unknown"
)

// DebugEvent is a notification from the debug server that the debuggee has stopped.
// The set of implementations is closed; use a type switch to handle specific variants.
type DebugEvent interface {
	fmt.Stringer

	// PID returns the process the event belongs to, or 0 if not applicable.
	PID() uint32

	// TID returns the thread the event belongs to, or 0 if not applicable.
	TID() uint32

	// Kind returns the event variant tag.
	Kind() EventKind

	isDebugEvent()
}

// EventOrigin holds the process and thread identifiers shared by all events.
type EventOrigin struct {
	ProcessID uint32 `json:"pid"`
	ThreadID  uint32 `json:"tid"`
}

func (o EventOrigin) PID() uint32 { return o.ProcessID }
func (o EventOrigin) TID() uint32 { return o.ThreadID }
func (EventOrigin) isDebugEvent() {}

type ProcessCreated struct {
	EventOrigin
	ImageFileName *string `json:"image_file_name,omitempty"`
	BaseOfImage   uint64  `json:"base_of_image"`
	SizeOfImage   uint64  `json:"size_of_image"`
}

func (*ProcessCreated) Kind() EventKind { return EventKindProcessCreated }

func (e *ProcessCreated) String() string {
	return fmt.Sprintf("ProcessCreated pid=%d tid=%d image=%s base=0x%X size=0x%X",
		e.ProcessID, e.ThreadID, stringOr(e.ImageFileName, "<unknown>"), e.BaseOfImage, e.SizeOfImage)
}

type ProcessExited struct {
	EventOrigin
	ExitCode uint32 `json:"exit_code"`
}

func (*ProcessExited) Kind() EventKind { return EventKindProcessExited }

func (e *ProcessExited) String() string {
	return fmt.Sprintf("ProcessExited pid=%d exit_code=%d", e.ProcessID, e.ExitCode)
}

type ThreadCreated struct {
	EventOrigin
	StartAddress uint64 `json:"start_address"`
}

func (*ThreadCreated) Kind() EventKind { return EventKindThreadCreated }

func (e *ThreadCreated) String() string {
	return fmt.Sprintf("ThreadCreated pid=%d tid=%d start=0x%X", e.ProcessID, e.ThreadID, e.StartAddress)
}

type ThreadExited struct {
	EventOrigin
	ExitCode uint32 `json:"exit_code"`
}

func (*ThreadExited) Kind() EventKind { return EventKindThreadExited }

func (e *ThreadExited) String() string {
	return fmt.Sprintf("ThreadExited pid=%d tid=%d exit_code=%d", e.ProcessID, e.ThreadID, e.ExitCode)
}

type DllLoaded struct {
	EventOrigin
	DllName   *string `json:"dll_name,omitempty"`
	BaseOfDll uint64  `json:"base_of_dll"`
	SizeOfDll uint64  `json:"size_of_dll"`
}

func (*DllLoaded) Kind() EventKind { return EventKindDllLoaded }

func (e *DllLoaded) String() string {
	return fmt.Sprintf("DllLoaded pid=%d tid=%d name=%s base=0x%X size=0x%X",
		e.ProcessID, e.ThreadID, stringOr(e.DllName, "<unknown>"), e.BaseOfDll, e.SizeOfDll)
}

type DllUnloaded struct {
	EventOrigin
	BaseOfDll uint64 `json:"base_of_dll"`
}

func (*DllUnloaded) Kind() EventKind { return EventKindDllUnloaded }

func (e *DllUnloaded) String() string {
	return fmt.Sprintf("DllUnloaded pid=%d tid=%d base=0x%X", e.ProcessID, e.ThreadID, e.BaseOfDll)
}

type Breakpoint struct {
	EventOrigin
	Address uint64 `json:"address"`
}

func (*Breakpoint) Kind() EventKind { return EventKindBreakpoint }

func (e *Breakpoint) String() string {
	return fmt.Sprintf("Breakpoint pid=%d tid=%d address=0x%X", e.ProcessID, e.ThreadID, e.Address)
}

type Exception struct {
	EventOrigin
	Code        uint32 `json:"code"`
	Address     uint64 `json:"address"`
	FirstChance bool   `json:"first_chance"`
}

func (*Exception) Kind() EventKind { return EventKindException }

func (e *Exception) String() string {
	return fmt.Sprintf("Exception pid=%d tid=%d code=0x%08X address=0x%X first_chance=%t",
		e.ProcessID, e.ThreadID, e.Code, e.Address, e.FirstChance)
}

type OutputDebugString struct {
	EventOrigin
	Message string `json:"message"`
}

func (*OutputDebugString) Kind() EventKind { return EventKindOutputDebugString }

func (e *OutputDebugString) String() string {
	return fmt.Sprintf("OutputDebugString pid=%d tid=%d message=%q", e.ProcessID, e.ThreadID, e.Message)
}

type RipEvent struct {
	EventOrigin
	Error uint32 `json:"error"`
	Type  uint32 `json:"rip_type"`
}

func (*RipEvent) Kind() EventKind { return EventKindRipEvent }

func (e *RipEvent) String() string {
	return fmt.Sprintf("RipEvent pid=%d tid=%d error=%d type=%d", e.ProcessID, e.ThreadID, e.Error, e.Type)
}

// UnknownEvent stands in for event tags this client does not recognize.
type UnknownEvent struct {
	EventOrigin
	Tag string `json:"-"`
}

func (*UnknownEvent) Kind() EventKind { return EventKindUnknown }

func (e *UnknownEvent) String() string {
	return fmt.Sprintf("Unknown(%s) pid=%d tid=%d", e.Tag, e.ProcessID, e.ThreadID)
}

var (
	_ DebugEvent = (*ProcessCreated)(nil)
	_ DebugEvent = (*ProcessExited)(nil)
	_ DebugEvent = (*ThreadCreated)(nil)
	_ DebugEvent = (*ThreadExited)(nil)
	_ DebugEvent = (*DllLoaded)(nil)
	_ DebugEvent = (*DllUnloaded)(nil)
	_ DebugEvent = (*Breakpoint)(nil)
	_ DebugEvent = (*Exception)(nil)
	_ DebugEvent = (*OutputDebugString)(nil)
	_ DebugEvent = (*RipEvent)(nil)
	_ DebugEvent = (*UnknownEvent)(nil)
)

func stringOr(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}
