/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package notify

import (
	"slices"
	"strings"
	"sync"

	"github.com/expend20/joybug-tauri/internal/debugsession"
	"github.com/expend20/joybug-tauri/internal/pubsub"
)

const defaultSubscriberBuffer = 64

// Broadcaster fans snapshots out to any number of subscribers and remembers the latest
// snapshot of every session, so that late subscribers can catch up.
// A subscriber that does not keep up loses snapshots instead of slowing down the publisher.
type Broadcaster struct {
	subscriptions *pubsub.SubscriptionSet[debugsession.Snapshot]

	lock   *sync.RWMutex
	latest map[string]debugsession.Snapshot
}

func NewBroadcaster(subscriberBuffer int) *Broadcaster {
	if subscriberBuffer <= 0 {
		subscriberBuffer = defaultSubscriberBuffer
	}

	return &Broadcaster{
		subscriptions: pubsub.NewSubscriptionSet[debugsession.Snapshot](subscriberBuffer),
		lock:          &sync.RWMutex{},
		latest:        make(map[string]debugsession.Snapshot),
	}
}

func (b *Broadcaster) Publish(snapshot debugsession.Snapshot) error {
	b.lock.Lock()
	b.latest[snapshot.ID] = snapshot
	b.lock.Unlock()

	b.subscriptions.Notify(snapshot.Clone())
	return nil
}

// Subscribe registers a new subscriber. Cancel the subscription when done.
func (b *Broadcaster) Subscribe() *pubsub.Subscription[debugsession.Snapshot] {
	return b.subscriptions.Subscribe()
}

// Latest returns the most recent snapshot of every session, ordered by creation time.
func (b *Broadcaster) Latest() []debugsession.Snapshot {
	b.lock.RLock()
	snapshots := make([]debugsession.Snapshot, 0, len(b.latest))
	for _, s := range b.latest {
		snapshots = append(snapshots, s.Clone())
	}
	b.lock.RUnlock()

	slices.SortFunc(snapshots, func(a, b debugsession.Snapshot) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return snapshots
}

// Forget drops the remembered snapshot of a session that has been removed.
func (b *Broadcaster) Forget(sessionID string) {
	b.lock.Lock()
	defer b.lock.Unlock()
	delete(b.latest, sessionID)
}

func (b *Broadcaster) Subscribers() int {
	return b.subscriptions.Len()
}

// Close cancels all subscriptions.
func (b *Broadcaster) Close() {
	b.subscriptions.CancelAll()
}

var _ debugsession.Sink = (*Broadcaster)(nil)
