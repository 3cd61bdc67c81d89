/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const (
	typeKey  = "type"
	eventKey = "event"
)

var requestFactories = map[string]func() Request{
	"ListProcesses":    func() Request { return &ListProcesses{} },
	"Launch":           func() Request { return &Launch{} },
	"Continue":         func() Request { return &Continue{} },
	"Detach":           func() Request { return &Detach{} },
	"ListModules":      func() Request { return &ListModules{} },
	"ListThreads":      func() Request { return &ListThreads{} },
	"GetThreadContext": func() Request { return &GetThreadContext{} },
	"GetCallStack":     func() Request { return &GetCallStack{} },
}

var responseFactories = map[string]func() Response{
	"Ack":                func() Response { return &Ack{} },
	"Error":              func() Response { return &ErrorResponse{} },
	"Event":              func() Response { return &EventResponse{} },
	"ProcessList":        func() Response { return &ProcessList{} },
	"ModuleList":         func() Response { return &ModuleList{} },
	"ThreadList":         func() Response { return &ThreadList{} },
	"MemoryData":         func() Response { return &MemoryData{} },
	"WriteAck":           func() Response { return &WriteAck{} },
	"ThreadContext":      func() Response { return &ThreadContextResponse{} },
	"SetContextAck":      func() Response { return &SetContextAck{} },
	"Symbol":             func() Response { return &Symbol{} },
	"SymbolList":         func() Response { return &SymbolList{} },
	"AddressSymbol":      func() Response { return &AddressSymbol{} },
	"Instructions":       func() Response { return &Instructions{} },
	"CallStack":          func() Response { return &CallStack{} },
	"ResolvedSymbolList": func() Response { return &ResolvedSymbolList{} },
}

var eventFactories = map[EventKind]func() DebugEvent{
	EventKindProcessCreated:    func() DebugEvent { return &ProcessCreated{} },
	EventKindProcessExited:     func() DebugEvent { return &ProcessExited{} },
	EventKindThreadCreated:     func() DebugEvent { return &ThreadCreated{} },
	EventKindThreadExited:      func() DebugEvent { return &ThreadExited{} },
	EventKindDllLoaded:         func() DebugEvent { return &DllLoaded{} },
	EventKindDllUnloaded:       func() DebugEvent { return &DllUnloaded{} },
	EventKindBreakpoint:        func() DebugEvent { return &Breakpoint{} },
	EventKindException:         func() DebugEvent { return &Exception{} },
	EventKindOutputDebugString: func() DebugEvent { return &OutputDebugString{} },
	EventKindRipEvent:          func() DebugEvent { return &RipEvent{} },
}

// EncodeRequest serializes a request into its tagged JSON form.
func EncodeRequest(req Request) ([]byte, error) {
	if req == nil {
		return nil, fmt.Errorf("nil request")
	}
	return encodeTagged(req, req.RequestType())
}

// DecodeRequest parses a tagged JSON request.
func DecodeRequest(data []byte) (Request, error) {
	tag, tagErr := readTag(data)
	if tagErr != nil {
		return nil, tagErr
	}

	factory, found := requestFactories[tag]
	if !found {
		return nil, fmt.Errorf("%w: request %q", ErrUnknownMessageType, tag)
	}

	req := factory()
	if unmarshalErr := json.Unmarshal(data, req); unmarshalErr != nil {
		return nil, fmt.Errorf("failed to decode %s request: %w", tag, unmarshalErr)
	}
	return req, nil
}

// EncodeResponse serializes a response into its tagged JSON form.
func EncodeResponse(resp Response) ([]byte, error) {
	if resp == nil {
		return nil, fmt.Errorf("nil response")
	}

	if er, isEvent := resp.(*EventResponse); isEvent {
		eventData, eventErr := EncodeEvent(er.Event)
		if eventErr != nil {
			return nil, eventErr
		}
		envelope, setErr := sjson.SetBytes([]byte(`{}`), typeKey, er.ResponseType())
		if setErr != nil {
			return nil, setErr
		}
		return sjson.SetRawBytes(envelope, eventKey, eventData)
	}

	return encodeTagged(resp, resp.ResponseType())
}

// DecodeResponse parses a tagged JSON response.
func DecodeResponse(data []byte) (Response, error) {
	tag, tagErr := readTag(data)
	if tagErr != nil {
		return nil, tagErr
	}

	factory, found := responseFactories[tag]
	if !found {
		return nil, fmt.Errorf("%w: response %q", ErrUnknownMessageType, tag)
	}

	resp := factory()
	if er, isEvent := resp.(*EventResponse); isEvent {
		eventData := gjson.GetBytes(data, eventKey)
		if !eventData.Exists() {
			return nil, fmt.Errorf("event response has no event payload")
		}
		event, eventErr := DecodeEvent([]byte(eventData.Raw))
		if eventErr != nil {
			return nil, eventErr
		}
		er.Event = event
		return er, nil
	}

	if unmarshalErr := json.Unmarshal(data, resp); unmarshalErr != nil {
		return nil, fmt.Errorf("failed to decode %s response: %w", tag, unmarshalErr)
	}
	return resp, nil
}

// EncodeEvent serializes a debug event into its tagged JSON form.
func EncodeEvent(event DebugEvent) ([]byte, error) {
	if event == nil {
		return nil, fmt.Errorf("nil event")
	}

	tag := string(event.Kind())
	if unknown, isUnknown := event.(*UnknownEvent); isUnknown && unknown.Tag != "" {
		tag = unknown.Tag
	}
	return encodeTagged(event, tag)
}

// DecodeEvent parses a tagged JSON debug event.
// Event tags this client does not know decode to *UnknownEvent rather than failing,
// so that a newer server does not break an older client.
func DecodeEvent(data []byte) (DebugEvent, error) {
	tag, tagErr := readTag(data)
	if tagErr != nil {
		return nil, tagErr
	}

	var event DebugEvent
	if factory, found := eventFactories[EventKind(tag)]; found {
		event = factory()
	} else {
		event = &UnknownEvent{Tag: tag}
	}

	if unmarshalErr := json.Unmarshal(data, event); unmarshalErr != nil {
		return nil, fmt.Errorf("failed to decode %s event: %w", tag, unmarshalErr)
	}
	return event, nil
}

func encodeTagged(v any, tag string) ([]byte, error) {
	body, marshalErr := json.Marshal(v)
	if marshalErr != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", tag, marshalErr)
	}
	return sjson.SetBytes(body, typeKey, tag)
}

func readTag(data []byte) (string, error) {
	if !gjson.ValidBytes(data) {
		return "", fmt.Errorf("malformed message: invalid JSON")
	}
	tag := gjson.GetBytes(data, typeKey)
	if tag.Type != gjson.String || tag.Str == "" {
		return "", fmt.Errorf("malformed message: missing %q tag", typeKey)
	}
	return tag.Str, nil
}
