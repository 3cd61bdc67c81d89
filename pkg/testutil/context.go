/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package testutil

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"
)

// Overrides the timeout of every test context, e.g. JOYBUG_TEST_TIMEOUT=10m when debugging a test.
const TestTimeoutEnvVar = "JOYBUG_TEST_TIMEOUT"

// GetTestContext returns a context that expires after testTimeout, or at the test binary deadline
// if that comes sooner. A zero testTimeout means no timeout of its own.
func GetTestContext(t *testing.T, testTimeout time.Duration) (context.Context, context.CancelFunc) {
	if override, found := os.LookupEnv(TestTimeoutEnvVar); found {
		timeout, parseErr := time.ParseDuration(override)
		if parseErr != nil || timeout <= 0 {
			panic(fmt.Sprintf("%s value '%s' is not a positive duration", TestTimeoutEnvVar, override))
		}
		return context.WithTimeout(context.Background(), timeout)
	}

	var deadline time.Time
	if testTimeout > 0 {
		deadline = time.Now().Add(testTimeout)
	}
	if testDeadline, haveDeadline := t.Deadline(); haveDeadline && (deadline.IsZero() || testDeadline.Before(deadline)) {
		deadline = testDeadline
	}

	if deadline.IsZero() {
		return context.WithCancel(context.Background())
	}
	return context.WithDeadline(context.Background(), deadline)
}
