/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package resiliency

import (
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-logr/logr"
)

// MakePanicError turns a recovered panic value into a permanent error, so retry loops give up
// on the operation that panicked. The panic is logged together with the stack of the recovering goroutine.
// Returns nil if nothing was recovered.
func MakePanicError(recovered any, log logr.Logger) error {
	var panicErr error
	switch v := recovered.(type) {
	case nil:
		return nil
	case error:
		panicErr = v
	case string:
		panicErr = errors.New(v)
	default:
		panicErr = fmt.Errorf("%v", v)
	}

	if permanent := (*backoff.PermanentError)(nil); !errors.As(panicErr, &permanent) {
		panicErr = Permanent(panicErr)
	}

	log.Error(panicErr, "Recovered from panic", "stack", string(debug.Stack()))
	return panicErr
}
