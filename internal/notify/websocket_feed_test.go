/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package notify

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expend20/joybug-tauri/internal/debugsession"
)

type recordingStepper struct {
	lock  sync.Mutex
	steps []StepMessage
}

func (rs *recordingStepper) Step(sessionID string, resume bool) error {
	rs.lock.Lock()
	defer rs.lock.Unlock()
	if sessionID == "missing" {
		return errors.New("session not found: missing")
	}
	rs.steps = append(rs.steps, StepMessage{SessionID: sessionID, Continue: resume})
	return nil
}

func (rs *recordingStepper) Steps() []StepMessage {
	rs.lock.Lock()
	defer rs.lock.Unlock()
	return append([]StepMessage(nil), rs.steps...)
}

func startFeed(t *testing.T, b *Broadcaster, stepper Stepper) *websocket.Conn {
	t.Helper()

	feed, feedErr := NewWebSocketFeed(WebSocketFeedConfig{Broadcaster: b, Stepper: stepper, Logger: logr.Discard()})
	require.NoError(t, feedErr)

	srv := httptest.NewServer(feed)
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, dialErr := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, dialErr)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readFeedMessage(t *testing.T, conn *websocket.Conn) FeedMessage {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	msgType, data, readErr := conn.ReadMessage()
	require.NoError(t, readErr)
	require.Equal(t, websocket.TextMessage, msgType)

	var msg FeedMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestWebSocketFeedSendsSnapshots(t *testing.T) {
	t.Parallel()

	b := NewBroadcaster(8)
	defer b.Close()
	require.NoError(t, b.Publish(snapshotOf("early", debugsession.Paused())))

	conn := startFeed(t, b, nil)

	msg := readFeedMessage(t, conn)
	assert.Equal(t, FeedMessageSnapshot, msg.Type)
	require.NotNil(t, msg.Snapshot)
	assert.Equal(t, "early", msg.Snapshot.ID)

	require.Eventually(t, func() bool { return b.Subscribers() == 1 }, 5*time.Second, 10*time.Millisecond)
	require.NoError(t, b.Publish(snapshotOf("late", debugsession.Failed("access denied"))))

	msg = readFeedMessage(t, conn)
	require.NotNil(t, msg.Snapshot)
	assert.Equal(t, "late", msg.Snapshot.ID)
	assert.Equal(t, debugsession.Failed("access denied"), msg.Snapshot.Status)
}

func TestWebSocketFeedAcceptsSteps(t *testing.T) {
	t.Parallel()

	b := NewBroadcaster(8)
	defer b.Close()
	stepper := &recordingStepper{}
	conn := startFeed(t, b, stepper)

	require.NoError(t, conn.WriteJSON(StepMessage{Type: FeedMessageStep, SessionID: "s1", Continue: true}))
	require.NoError(t, conn.WriteJSON(StepMessage{Type: FeedMessageStep, SessionID: "s1", Continue: false}))

	require.Eventually(t, func() bool { return len(stepper.Steps()) == 2 }, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, []StepMessage{{SessionID: "s1", Continue: true}, {SessionID: "s1", Continue: false}}, stepper.Steps())

	require.NoError(t, conn.WriteJSON(StepMessage{Type: FeedMessageStep, SessionID: "missing"}))
	msg := readFeedMessage(t, conn)
	assert.Equal(t, FeedMessageError, msg.Type)
	assert.Contains(t, msg.Message, "session not found")

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"launch"}`)))
	msg = readFeedMessage(t, conn)
	assert.Equal(t, FeedMessageError, msg.Type)
	assert.Contains(t, msg.Message, "launch")
}

func TestWebSocketFeedClosesWithBroadcaster(t *testing.T) {
	t.Parallel()

	b := NewBroadcaster(8)
	conn := startFeed(t, b, nil)

	require.Eventually(t, func() bool { return b.Subscribers() == 1 }, 5*time.Second, 10*time.Millisecond)
	b.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, readErr := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(readErr, websocket.CloseGoingAway), "unexpected error: %v", readErr)
}
