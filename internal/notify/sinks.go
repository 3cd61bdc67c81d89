/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package notify

import (
	"context"
	"errors"

	"github.com/go-logr/logr"
	"github.com/smallnest/chanx"

	"github.com/expend20/joybug-tauri/internal/debugsession"
)

const channelSinkInitialCapacity = 16

var ErrSinkClosed = errors.New("snapshot sink is closed")

// ChannelSink queues snapshots on an unbounded channel, so publishing never blocks.
// The queue is released when the lifetime context is cancelled.
type ChannelSink struct {
	lifetimeCtx context.Context
	ch          *chanx.UnboundedChan[debugsession.Snapshot]
}

func NewChannelSink(lifetimeCtx context.Context) *ChannelSink {
	return &ChannelSink{
		lifetimeCtx: lifetimeCtx,
		ch:          chanx.NewUnboundedChan[debugsession.Snapshot](lifetimeCtx, channelSinkInitialCapacity),
	}
}

func (cs *ChannelSink) Publish(snapshot debugsession.Snapshot) error {
	if cs.lifetimeCtx.Err() != nil {
		return ErrSinkClosed
	}

	select {
	case cs.ch.In <- snapshot:
		return nil
	case <-cs.lifetimeCtx.Done():
		return ErrSinkClosed
	}
}

// Out returns the channel the snapshots can be received from, in publishing order.
func (cs *ChannelSink) Out() <-chan debugsession.Snapshot {
	return cs.ch.Out
}

// Len returns the number of snapshots waiting to be received.
func (cs *ChannelSink) Len() int {
	return cs.ch.Len()
}

// LogSink writes a one-line summary of every snapshot to the log.
type LogSink struct {
	log logr.Logger
}

func NewLogSink(log logr.Logger) *LogSink {
	return &LogSink{log: log}
}

func (ls *LogSink) Publish(snapshot debugsession.Snapshot) error {
	keysAndValues := []any{
		"sessionID", snapshot.ID,
		"status", snapshot.Status.String(),
		"modules", len(snapshot.Modules),
		"threads", len(snapshot.Threads),
		"events", len(snapshot.Events),
	}
	if snapshot.CurrentEvent != nil {
		keysAndValues = append(keysAndValues, "event", snapshot.CurrentEvent.Details)
	}
	ls.log.V(1).Info("Session snapshot", keysAndValues...)
	return nil
}

// MultiSink publishes to every sink, even if some of them fail.
type MultiSink []debugsession.Sink

func (ms MultiSink) Publish(snapshot debugsession.Snapshot) error {
	var errs error
	for _, sink := range ms {
		errs = errors.Join(errs, sink.Publish(snapshot))
	}
	return errs
}

var (
	_ debugsession.Sink = (*ChannelSink)(nil)
	_ debugsession.Sink = (*LogSink)(nil)
	_ debugsession.Sink = MultiSink(nil)
)
