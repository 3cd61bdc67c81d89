/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package debugsession

import (
	"context"
	"fmt"

	"github.com/expend20/joybug-tauri/internal/protocol"
)

// fetchContext retrieves the register context of the thread that reported the event,
// using the auxiliary connection. Failures are logged and leave the context unset.
func (c *Controller) fetchContext(ctx context.Context, ev protocol.DebugEvent) {
	pid, tid := ev.PID(), ev.TID()
	if pid == 0 || tid == 0 {
		return
	}

	var resp protocol.Response
	queryErr := c.session.withAuxiliary(func(conn Conn) error {
		var sendErr error
		resp, sendErr = conn.SendAndReceive(ctx, &protocol.GetThreadContext{PID: pid, TID: tid})
		return sendErr
	})
	if queryErr != nil {
		c.log.Error(queryErr, "Could not fetch thread context", "pid", pid, "tid", tid)
		c.notifier.Warn(c.session.ID(), fmt.Sprintf("Could not fetch context of thread %d: %v", tid, queryErr))
		return
	}

	tcResp, isContext := resp.(*protocol.ThreadContextResponse)
	if !isContext {
		c.log.Info("Unexpected response to thread context request", "pid", pid, "tid", tid, "response", resp.ResponseType())
		c.notifier.Warn(c.session.ID(), fmt.Sprintf("Unexpected response to thread context request: %s", resp.ResponseType()))
		return
	}

	if !c.session.setContext(ev, protocol.ConvertRawContext(tcResp.Context)) {
		c.log.V(1).Info("Discarding thread context for an event that is no longer current", "tid", tid)
		return
	}
	c.log.V(1).Info("Thread context fetched", "tid", tid)
}
