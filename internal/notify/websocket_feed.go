/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package notify

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/gorilla/websocket"
	"github.com/tidwall/gjson"

	"github.com/expend20/joybug-tauri/internal/debugsession"
)

const (
	feedWriteTimeout  = 5 * time.Second
	feedClientBuffer  = 64
	feedMaxReadLength = 4096

	FeedMessageSnapshot = "snapshot"
	FeedMessageStep     = "step"
	FeedMessageError    = "error"
)

// Stepper accepts operator decisions for paused sessions.
type Stepper interface {
	Step(sessionID string, resume bool) error
}

// FeedMessage is the envelope of every message sent to feed clients.
type FeedMessage struct {
	Type     string                 `json:"type"`
	Snapshot *debugsession.Snapshot `json:"snapshot,omitempty"`
	Message  string                 `json:"message,omitempty"`
}

// StepMessage is sent by feed clients to continue or stop a paused session.
type StepMessage struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
	Continue  bool   `json:"continue"`
}

type WebSocketFeedConfig struct {
	// Source of snapshots. Required.
	Broadcaster *Broadcaster

	// If set, clients may post step messages. Otherwise inbound messages are ignored.
	Stepper Stepper

	// Decides whether a connection from the given origin is accepted. Defaults to same-host only.
	CheckOrigin func(r *http.Request) bool

	Logger logr.Logger
}

// WebSocketFeed serves session snapshots to UI clients as JSON text messages.
// Every client first receives the latest snapshot of each session, then every new snapshot.
type WebSocketFeed struct {
	config   WebSocketFeedConfig
	upgrader websocket.Upgrader
	log      logr.Logger
}

func NewWebSocketFeed(config WebSocketFeedConfig) (*WebSocketFeed, error) {
	if config.Broadcaster == nil {
		return nil, fmt.Errorf("websocket feed requires a broadcaster")
	}

	log := config.Logger
	if log.GetSink() == nil {
		log = logr.Discard()
	}

	return &WebSocketFeed{
		config: config,
		upgrader: websocket.Upgrader{
			CheckOrigin: config.CheckOrigin,
		},
		log: log,
	}, nil
}

func (f *WebSocketFeed) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, upgradeErr := f.upgrader.Upgrade(w, r, nil)
	if upgradeErr != nil {
		// The upgrader already replied with an HTTP error.
		f.log.V(1).Info("WebSocket upgrade failed", "remoteAddr", r.RemoteAddr, "error", upgradeErr.Error())
		return
	}

	log := f.log.WithValues("remoteAddr", r.RemoteAddr)
	log.V(1).Info("Feed client connected")

	c := &feedClient{
		conn: conn,
		send: make(chan []byte, feedClientBuffer),
		log:  log,
	}

	// Subscribe before sending the catch-up snapshots, so that nothing published in between is lost.
	sub := f.config.Broadcaster.Subscribe()
	for _, snapshot := range f.config.Broadcaster.Latest() {
		c.enqueue(snapshotMessage(snapshot))
	}

	go c.writePump()

	go func() {
		for snapshot := range sub.C() {
			if !c.enqueue(snapshotMessage(snapshot)) {
				log.V(1).Info("Feed client is too slow, snapshot dropped", "sessionID", snapshot.ID)
			}
		}
		c.close()
	}()

	go func() {
		defer func() {
			sub.Cancel()
			log.V(1).Info("Feed client disconnected")
		}()
		f.readPump(c)
	}()
}

// readPump processes inbound messages until the client goes away.
func (f *WebSocketFeed) readPump(c *feedClient) {
	c.conn.SetReadLimit(feedMaxReadLength)
	for {
		_, msg, readErr := c.conn.ReadMessage()
		if readErr != nil {
			return
		}

		if f.config.Stepper == nil {
			continue
		}
		if msgType := gjson.GetBytes(msg, "type").String(); msgType != FeedMessageStep {
			c.enqueue(errorMessage(fmt.Sprintf("unsupported message type '%s'", msgType)))
			continue
		}

		var step StepMessage
		if unmarshalErr := json.Unmarshal(msg, &step); unmarshalErr != nil {
			c.enqueue(errorMessage(fmt.Sprintf("invalid step message: %v", unmarshalErr)))
			continue
		}
		if stepErr := f.config.Stepper.Step(step.SessionID, step.Continue); stepErr != nil {
			c.enqueue(errorMessage(stepErr.Error()))
		}
	}
}

type feedClient struct {
	conn *websocket.Conn
	send chan []byte
	log  logr.Logger

	lock   sync.Mutex
	closed bool
}

// enqueue queues a message for the write pump without blocking.
func (c *feedClient) enqueue(msg []byte) bool {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.closed || msg == nil {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *feedClient) close() {
	c.lock.Lock()
	defer c.lock.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *feedClient) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(feedWriteTimeout))
		if writeErr := c.conn.WriteMessage(websocket.TextMessage, msg); writeErr != nil {
			c.log.V(1).Info("Could not write to feed client", "error", writeErr.Error())
			return
		}
	}
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, "feed closed"),
		time.Now().Add(feedWriteTimeout))
}

func snapshotMessage(snapshot debugsession.Snapshot) []byte {
	msg, _ := json.Marshal(FeedMessage{Type: FeedMessageSnapshot, Snapshot: &snapshot})
	return msg
}

func errorMessage(message string) []byte {
	msg, _ := json.Marshal(FeedMessage{Type: FeedMessageError, Message: message})
	return msg
}

var _ http.Handler = (*WebSocketFeed)(nil)
