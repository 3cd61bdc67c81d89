/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package logger

import (
	"fmt"

	"github.com/go-logr/logr"
)

const (
	// If a logger with a tee sink carries a value with this key, the value is attached
	// to every teed record as the session the record belongs to.
	SessionIDKey = "sessionID"
)

type TeeLevel string

const (
	TeeLevelInfo  TeeLevel = "info"
	TeeLevelError TeeLevel = "error"
)

// TeeRecord is the copy of a log entry handed to a TeeTarget.
type TeeRecord struct {
	Level     TeeLevel
	Message   string
	SessionID string
	Error     error
}

// TeeTarget receives copies of log records. Record must not block and must not log.
type TeeTarget interface {
	Record(record TeeRecord)
}

// teeSink forwards every entry to the inner sink and copies non-verbose entries to the tee target.
type teeSink struct {
	target    TeeTarget
	sessionID string
	innerSink logr.LogSink
}

func newTeeSink(target TeeTarget, innerSink logr.LogSink) *teeSink {
	return &teeSink{
		target:    target,
		innerSink: innerSink,
	}
}

func (ts *teeSink) Init(info logr.RuntimeInfo) {
	// One more frame for the tee sink itself
	info.CallDepth++
	ts.innerSink.Init(info)
}

// Non-verbose entries are always teed, even when the inner sink filters them out.
func (ts *teeSink) Enabled(level int) bool {
	return level == 0 || ts.innerSink.Enabled(level)
}

func (ts *teeSink) Info(level int, msg string, keysAndValues ...any) {
	if ts.innerSink.Enabled(level) {
		ts.innerSink.Info(level, msg, keysAndValues...)
	}
	if level == 0 {
		ts.target.Record(TeeRecord{Level: TeeLevelInfo, Message: msg, SessionID: ts.sessionIDFrom(keysAndValues)})
	}
}

func (ts *teeSink) Error(err error, msg string, keysAndValues ...any) {
	ts.innerSink.Error(err, msg, keysAndValues...)
	ts.target.Record(TeeRecord{Level: TeeLevelError, Message: msg, SessionID: ts.sessionIDFrom(keysAndValues), Error: err})
}

func (ts *teeSink) WithValues(keysAndValues ...any) logr.LogSink {
	return &teeSink{
		target:    ts.target,
		sessionID: ts.sessionIDFrom(keysAndValues),
		innerSink: ts.innerSink.WithValues(keysAndValues...),
	}
}

func (ts *teeSink) WithName(name string) logr.LogSink {
	return &teeSink{
		target:    ts.target,
		sessionID: ts.sessionID,
		innerSink: ts.innerSink.WithName(name),
	}
}

// sessionIDFrom returns the session id carried by the key/value pairs, or the one the sink already has.
func (ts *teeSink) sessionIDFrom(keysAndValues []any) string {
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		if key, isString := keysAndValues[i].(string); isString && key == SessionIDKey {
			return fmt.Sprint(keysAndValues[i+1])
		}
	}
	return ts.sessionID
}

var _ logr.LogSink = (*teeSink)(nil)
