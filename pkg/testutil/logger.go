/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package testutil

import (
	"flag"
	"os"
	"testing"

	"github.com/go-logr/logr"
	"go.uber.org/zap/zapcore"

	"github.com/expend20/joybug-tauri/pkg/logger"
)

// Sets the level of test loggers, using the same syntax as the -v flag of joybug.
const TestLogLevelEnvVar = "JOYBUG_TEST_LOG_LEVEL"

// NewLogForTesting returns a logger for code under test. Only errors are written,
// unless the tests run with -v or the level is set through JOYBUG_TEST_LOG_LEVEL.
func NewLogForTesting(name string) logr.Logger {
	log := logger.New(name)
	log.SetLevel(testLogLevel())
	return log.Logger.WithValues("test", name)
}

func testLogLevel() zapcore.Level {
	if value, found := os.LookupEnv(TestLogLevelEnvVar); found {
		if level, parseErr := logger.StringToLevel(value, zapcore.ErrorLevel); parseErr == nil {
			return level
		}
	}

	// testing.Verbose panics before the test flags are parsed.
	if !flag.Parsed() {
		flag.Parse()
	}
	if testing.Verbose() {
		return zapcore.DebugLevel
	}
	return zapcore.ErrorLevel
}
