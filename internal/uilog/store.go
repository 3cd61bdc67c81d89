/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

// Package uilog keeps the operator-facing log: a bounded, in-memory list of messages
// and toasts, keyed by debug session.
package uilog

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/expend20/joybug-tauri/internal/debugsession"
	"github.com/expend20/joybug-tauri/pkg/container"
	"github.com/expend20/joybug-tauri/pkg/logger"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarning
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

func ParseLevel(s string) (Level, error) {
	for l := LevelDebug; l <= LevelError; l++ {
		if strings.EqualFold(l.String(), s) {
			return l, nil
		}
	}
	if strings.EqualFold(s, "warn") {
		return LevelWarning, nil
	}
	return LevelDebug, fmt.Errorf("unknown log level \"%s\"", s)
}

type Entry struct {
	Timestamp time.Time
	Level     Level
	Message   string
	SessionID string

	// Toast entries are meant to be shown prominently (and briefly) to the operator.
	Toast bool
}

// Filter selects entries. The zero value selects everything.
type Filter struct {
	MinLevel  Level
	Search    string
	SessionID string
}

func (f Filter) matches(e Entry) bool {
	if e.Level < f.MinLevel {
		return false
	}
	if f.SessionID != "" && e.SessionID != f.SessionID {
		return false
	}
	if f.Search != "" && !strings.Contains(strings.ToLower(e.Message), strings.ToLower(f.Search)) {
		return false
	}
	return true
}

// Store is a goroutine-safe, bounded log of operator-facing entries.
// When full, the oldest entries are discarded.
type Store struct {
	lock    *sync.Mutex
	entries *container.RingBuffer[Entry]

	// Called for every appended entry, outside of the store lock.
	listener func(Entry)

	now func() time.Time
}

// NewStore creates a store that keeps at most capacity entries (0 means unbounded).
// The listener, if not nil, is called for every appended entry and must not block.
func NewStore(capacity int, listener func(Entry)) *Store {
	return &Store{
		lock:     &sync.Mutex{},
		entries:  container.NewBoundedRingBuffer[Entry](capacity),
		listener: listener,
		now:      time.Now,
	}
}

func (s *Store) Append(level Level, sessionID, message string, toast bool) {
	entry := Entry{
		Timestamp: s.now(),
		Level:     level,
		Message:   message,
		SessionID: sessionID,
		Toast:     toast,
	}

	s.lock.Lock()
	s.entries.Push(entry)
	s.lock.Unlock()

	if s.listener != nil {
		s.listener(entry)
	}
}

// Entries returns the entries selected by the filter, oldest first.
func (s *Store) Entries(filter Filter) []Entry {
	s.lock.Lock()
	all := s.entries.Items()
	s.lock.Unlock()

	selected := all[:0]
	for _, e := range all {
		if filter.matches(e) {
			selected = append(selected, e)
		}
	}
	return selected
}

func (s *Store) Len() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.entries.Len()
}

// Dropped returns how many entries were discarded because the store was full.
func (s *Store) Dropped() uint64 {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.entries.Evicted()
}

func (s *Store) Clear() {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.entries.Clear()
}

func (s *Store) Info(sessionID string, message string) {
	s.Append(LevelInfo, sessionID, message, false)
}

func (s *Store) Warn(sessionID string, message string) {
	s.Append(LevelWarning, sessionID, message, false)
}

func (s *Store) Toast(sessionID string, message string) {
	s.Append(LevelInfo, sessionID, message, true)
}

// Record receives log records teed from the application logger.
func (s *Store) Record(record logger.TeeRecord) {
	switch record.Level {
	case logger.TeeLevelError:
		message := record.Message
		if record.Error != nil {
			message = fmt.Sprintf("%s: %v", record.Message, record.Error)
		}
		s.Append(LevelError, record.SessionID, message, false)
	default:
		// Application log records are kept at debug level so operator messages stand out.
		s.Append(LevelDebug, record.SessionID, record.Message, false)
	}
}

var (
	_ debugsession.Notifier = (*Store)(nil)
	_ logger.TeeTarget      = (*Store)(nil)
)
