/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package pubsub

import (
	"maps"
	"slices"
	"sync"
)

// The subscription set manages a set of subscriptions that share the same source of notifications.
type SubscriptionSet[NotificationT any] struct {
	// Buffer size of the channel of each new subscription.
	capacity int

	subscriptions map[HandleT]*Subscription[NotificationT]

	// Set by CancelAll; no new subscriptions are accepted afterwards.
	closed bool

	mutex *sync.Mutex
}

func NewSubscriptionSet[NotificationT any](capacity int) *SubscriptionSet[NotificationT] {
	if capacity < 1 {
		capacity = 1
	}

	return &SubscriptionSet[NotificationT]{
		capacity:      capacity,
		subscriptions: make(map[HandleT]*Subscription[NotificationT]),
		mutex:         &sync.Mutex{},
	}
}

// Subscribe adds a new subscription. If the set has been shut down with CancelAll,
// the returned subscription is already cancelled.
func (ss *SubscriptionSet[NotificationT]) Subscribe() *Subscription[NotificationT] {
	sub := newSubscription(ss, ss.capacity)

	ss.mutex.Lock()
	closed := ss.closed
	if !closed {
		ss.subscriptions[sub.Handle] = sub
	}
	ss.mutex.Unlock()

	if closed {
		sub.Cancel()
	}
	return sub
}

// Notify delivers the notification to all current subscriptions and returns the number of
// subscriptions that received it.
func (ss *SubscriptionSet[NotificationT]) Notify(n NotificationT) int {
	ss.mutex.Lock()
	currentSubs := slices.Collect(maps.Values(ss.subscriptions))
	ss.mutex.Unlock()

	delivered := 0
	for _, sub := range currentSubs {
		if sub.Notify(n) {
			delivered++
		}
	}
	return delivered
}

func (ss *SubscriptionSet[NotificationT]) Len() int {
	ss.mutex.Lock()
	defer ss.mutex.Unlock()
	return len(ss.subscriptions)
}

func (ss *SubscriptionSet[NotificationT]) CancelAll() {
	ss.mutex.Lock()
	ss.closed = true
	currentSubs := slices.Collect(maps.Values(ss.subscriptions))
	clear(ss.subscriptions)
	ss.mutex.Unlock()

	for _, sub := range currentSubs {
		sub.Cancel()
	}
}

func (ss *SubscriptionSet[NotificationT]) onSubscriptionCancelled(handle HandleT) {
	ss.mutex.Lock()
	defer ss.mutex.Unlock()
	delete(ss.subscriptions, handle) // This is a no-op if the handle does not exist.
}
