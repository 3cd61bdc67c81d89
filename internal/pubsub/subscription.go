/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package pubsub

import (
	"sync"
	"sync/atomic"
)

type HandleT uint32

const (
	InvalidHandle HandleT = 0
)

var (
	nextHandle = InvalidHandle
)

// Subscription is a single consumer of the notifications of a SubscriptionSet.
type Subscription[NotificationT any] struct {
	Handle  HandleT
	sink    chan NotificationT
	owner   *SubscriptionSet[NotificationT]
	lock    *sync.Mutex
	dropped uint64
}

func newSubscription[NotificationT any](owner *SubscriptionSet[NotificationT], capacity int) *Subscription[NotificationT] {
	return &Subscription[NotificationT]{
		Handle: HandleT(atomic.AddUint32((*uint32)(&nextHandle), 1)),
		sink:   make(chan NotificationT, capacity),
		owner:  owner,
		lock:   &sync.Mutex{},
	}
}

// C returns the channel notifications are delivered on. The channel is closed when the subscription is cancelled.
func (s *Subscription[NotificationT]) C() <-chan NotificationT {
	return s.sink
}

func (s *Subscription[NotificationT]) Cancel() {
	s.lock.Lock()

	handle := s.Handle
	if handle != InvalidHandle {
		// Make sure onSubscriptionCancelled is called after the subscription lock is released.
		defer s.owner.onSubscriptionCancelled(handle)
	}
	defer s.lock.Unlock()

	if handle != InvalidHandle {
		s.Handle = InvalidHandle
		close(s.sink)
	}
}

// Notify delivers the notification without blocking.
// If the subscriber has fallen behind and its buffer is full, the notification is dropped.
func (s *Subscription[NotificationT]) Notify(n NotificationT) bool {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.Handle == InvalidHandle {
		return false
	}

	select {
	case s.sink <- n:
		return true
	default:
		s.dropped++
		return false
	}
}

// Dropped returns the number of notifications that could not be delivered because the subscriber was too slow.
func (s *Subscription[NotificationT]) Dropped() uint64 {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.dropped
}

func (s *Subscription[NotificationT]) Cancelled() bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.Handle == InvalidHandle
}
