/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package testutil

import (
	"github.com/go-logr/logr"
	"github.com/stretchr/testify/mock"
)

// MockLoggerSink is a logr.LogSink whose calls are recorded and answered by testify expectations.
// Key/value pairs are passed to the mock as a single []any argument.
type MockLoggerSink struct {
	mock.Mock
}

func (ms *MockLoggerSink) Init(info logr.RuntimeInfo) { ms.Called(info) }

func (ms *MockLoggerSink) Enabled(level int) bool {
	return ms.Called(level).Bool(0)
}

func (ms *MockLoggerSink) Info(level int, msg string, keysAndValues ...any) {
	ms.Called(level, msg, keysAndValues)
}

func (ms *MockLoggerSink) Error(err error, msg string, keysAndValues ...any) {
	ms.Called(err, msg, keysAndValues)
}

func (ms *MockLoggerSink) WithName(name string) logr.LogSink {
	return ms.Called(name).Get(0).(logr.LogSink)
}

func (ms *MockLoggerSink) WithValues(keysAndValues ...any) logr.LogSink {
	return ms.Called(keysAndValues).Get(0).(logr.LogSink)
}

// Messages returns the messages passed to the given method ("Info" or "Error"), in call order.
func (ms *MockLoggerSink) Messages(method string) []string {
	var messages []string
	for _, call := range ms.Calls {
		if call.Method == method && len(call.Arguments) > 1 {
			messages = append(messages, call.Arguments.String(1))
		}
	}
	return messages
}

var _ logr.LogSink = (*MockLoggerSink)(nil)
