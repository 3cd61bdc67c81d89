/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package container

const (
	minSize      = 8 // Must be a power of 2
	growthFactor = 2

	UnlimitedCapacity = 0
)

// RingBuffer keeps the most recently pushed items, oldest first.
// An unbounded buffer grows as needed; a bounded buffer discards its oldest item when full.
// It is not goroutine-safe.
type RingBuffer[T any] struct {
	buf      []T
	len      int // how many items in the buffer
	head     int // index of the oldest item
	capacity int // max number of items in the buffer (0 for unlimited)
	evicted  uint64
}

func NewRingBuffer[T any]() *RingBuffer[T] {
	return &RingBuffer[T]{
		buf:      make([]T, minSize),
		capacity: UnlimitedCapacity,
	}
}

func NewBoundedRingBuffer[T any](capacity int) *RingBuffer[T] {
	if capacity <= 0 {
		return NewRingBuffer[T]()
	}

	bufSize := minSize
	for bufSize < capacity {
		bufSize *= growthFactor
	}
	return &RingBuffer[T]{
		buf:      make([]T, bufSize),
		capacity: capacity,
	}
}

// Push appends an item. Returns false if the buffer is bounded and full,
// in which case the oldest item was discarded to make room.
func (rb *RingBuffer[T]) Push(v T) bool {
	if rb.capacity != UnlimitedCapacity && rb.len == rb.capacity {
		var zero T
		rb.buf[rb.head] = zero
		rb.buf[rb.index(rb.len)] = v
		rb.head = rb.index(1)
		rb.evicted++
		return false
	}

	if rb.len == len(rb.buf) {
		rb.grow()
	}

	rb.buf[rb.index(rb.len)] = v
	rb.len++
	return true
}

// PeekAt returns the item at the given position, counting from the oldest item.
func (rb *RingBuffer[T]) PeekAt(index int) (T, bool) {
	var zero T
	if index < 0 || index >= rb.len {
		return zero, false
	}
	return rb.buf[rb.index(index)], true
}

// PeekTail returns the most recently pushed item.
func (rb *RingBuffer[T]) PeekTail() (T, bool) {
	return rb.PeekAt(rb.len - 1)
}

// Items returns a copy of the buffer contents, oldest first.
func (rb *RingBuffer[T]) Items() []T {
	items := make([]T, 0, rb.len)
	for i := 0; i < rb.len; i++ {
		items = append(items, rb.buf[rb.index(i)])
	}
	return items
}

// Clear removes all items. Capacity is retained.
func (rb *RingBuffer[T]) Clear() {
	clear(rb.buf)
	rb.head = 0
	rb.len = 0
}

func (rb *RingBuffer[T]) Len() int {
	return rb.len
}

func (rb *RingBuffer[T]) Empty() bool {
	return rb.len == 0
}

func (rb *RingBuffer[T]) Capacity() int {
	return rb.capacity
}

// Evicted returns the number of items discarded because the buffer was full.
func (rb *RingBuffer[T]) Evicted() uint64 {
	return rb.evicted
}

func (rb *RingBuffer[T]) index(offset int) int {
	return (rb.head + offset) % len(rb.buf)
}

func (rb *RingBuffer[T]) grow() {
	newBuf := make([]T, len(rb.buf)*growthFactor)
	n := copy(newBuf, rb.buf[rb.head:])
	copy(newBuf[n:], rb.buf[:rb.head])
	rb.head = 0
	rb.buf = newBuf
}
