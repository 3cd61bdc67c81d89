/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package protocol

// Request is a message sent from the client to the debug server.
// The set of implementations is closed.
type Request interface {
	// RequestType returns the wire tag of the request.
	RequestType() string
	isRequest()
}

// Response is a message sent from the debug server to the client.
// The set of implementations is closed; use a type switch to dispatch.
type Response interface {
	// ResponseType returns the wire tag of the response.
	ResponseType() string
	isResponse()
}

type requestTag struct{}

func (requestTag) isRequest() {}

type responseTag struct{}

func (responseTag) isResponse() {}

// Requests

type ListProcesses struct{ requestTag }

func (*ListProcesses) RequestType() string { return "ListProcesses" }

type Launch struct {
	requestTag
	Command string `json:"command"`
}

func (*Launch) RequestType() string { return "Launch" }

type Continue struct {
	requestTag
	PID uint32 `json:"pid"`
	TID uint32 `json:"tid"`
}

func (*Continue) RequestType() string { return "Continue" }

type Detach struct {
	requestTag
	PID uint32 `json:"pid"`
}

func (*Detach) RequestType() string { return "Detach" }

type ListModules struct {
	requestTag
	PID uint32 `json:"pid"`
}

func (*ListModules) RequestType() string { return "ListModules" }

type ListThreads struct {
	requestTag
	PID uint32 `json:"pid"`
}

func (*ListThreads) RequestType() string { return "ListThreads" }

type GetThreadContext struct {
	requestTag
	PID uint32 `json:"pid"`
	TID uint32 `json:"tid"`
}

func (*GetThreadContext) RequestType() string { return "GetThreadContext" }

type GetCallStack struct {
	requestTag
	PID uint32 `json:"pid"`
	TID uint32 `json:"tid"`
}

func (*GetCallStack) RequestType() string { return "GetCallStack" }

// Responses

type Ack struct{ responseTag }

func (*Ack) ResponseType() string { return "Ack" }

type ErrorResponse struct {
	responseTag
	Message string `json:"message"`
}

func (*ErrorResponse) ResponseType() string { return "Error" }

// EventResponse carries a debug event. The debug server waits for a Continue request
// before it produces the next response.
type EventResponse struct {
	responseTag
	Event DebugEvent `json:"-"`
}

func (*EventResponse) ResponseType() string { return "Event" }

type ProcessList struct {
	responseTag
	Processes []ProcessInfo `json:"processes"`
}

func (*ProcessList) ResponseType() string { return "ProcessList" }

type ModuleList struct {
	responseTag
	Modules []ModuleInfo `json:"modules"`
}

func (*ModuleList) ResponseType() string { return "ModuleList" }

type ThreadList struct {
	responseTag
	Threads []ThreadInfo `json:"threads"`
}

func (*ThreadList) ResponseType() string { return "ThreadList" }

type MemoryData struct {
	responseTag
	Data []byte `json:"data"`
}

func (*MemoryData) ResponseType() string { return "MemoryData" }

type WriteAck struct{ responseTag }

func (*WriteAck) ResponseType() string { return "WriteAck" }

type ThreadContextResponse struct {
	responseTag
	Context RawContext `json:"context"`
}

func (*ThreadContextResponse) ResponseType() string { return "ThreadContext" }

type SetContextAck struct{ responseTag }

func (*SetContextAck) ResponseType() string { return "SetContextAck" }

type Symbol struct {
	responseTag
	Symbol *SymbolInfo `json:"symbol,omitempty"`
}

func (*Symbol) ResponseType() string { return "Symbol" }

type SymbolList struct {
	responseTag
	Symbols []SymbolInfo `json:"symbols"`
}

func (*SymbolList) ResponseType() string { return "SymbolList" }

type AddressSymbol struct {
	responseTag
	ModuleName string      `json:"module_name,omitempty"`
	Symbol     *SymbolInfo `json:"symbol,omitempty"`
	Offset     uint64      `json:"offset"`
}

func (*AddressSymbol) ResponseType() string { return "AddressSymbol" }

type Instructions struct {
	responseTag
	Instructions []Instruction `json:"instructions"`
}

func (*Instructions) ResponseType() string { return "Instructions" }

type CallStack struct {
	responseTag
	Frames []CallStackFrame `json:"frames"`
}

func (*CallStack) ResponseType() string { return "CallStack" }

type ResolvedSymbolList struct {
	responseTag
	Symbols []ResolvedSymbol `json:"symbols"`
}

func (*ResolvedSymbolList) ResponseType() string { return "ResolvedSymbolList" }
