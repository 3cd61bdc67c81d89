/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package protocol

import (
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/go-logr/logr"
)

// TestServerConfig describes the behavior of a TestServer.
type TestServerConfig struct {
	// LaunchScript is the sequence of responses produced for a Launch request.
	// The server writes responses up to and including the next Event response, then waits
	// for a Continue request before writing more. When the script is exhausted the
	// connection is closed.
	LaunchScript []Response

	// RequestHandler answers every request other than Launch and Continue.
	// If nil, such requests receive an Error response.
	RequestHandler func(req Request) Response

	Logger logr.Logger
}

// TestServer is a scripted debug server for testing purposes.
// Every accepted connection runs the launch script independently.
type TestServer struct {
	config   TestServerConfig
	listener net.Listener
	log      logr.Logger

	mu          sync.Mutex
	requests    []Request
	connections []Transport

	wg sync.WaitGroup
}

// NewTestServer starts a TestServer listening on a random loopback port.
func NewTestServer(config TestServerConfig) (*TestServer, error) {
	listener, listenErr := net.Listen("tcp", "127.0.0.1:0")
	if listenErr != nil {
		return nil, fmt.Errorf("failed to create test server listener: %w", listenErr)
	}

	log := config.Logger
	if log.GetSink() == nil {
		log = logr.Discard()
	}

	s := &TestServer{
		config:   config,
		listener: listener,
		log:      log,
	}

	s.wg.Add(1)
	go s.acceptLoop()

	return s, nil
}

// Address returns the host:port the server listens on.
func (s *TestServer) Address() string {
	return s.listener.Addr().String()
}

// Requests returns a copy of all requests received so far, across all connections.
func (s *TestServer) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// RequestsOfType returns the received requests with the given wire tag.
func (s *TestServer) RequestsOfType(requestType string) []Request {
	var matching []Request
	for _, req := range s.Requests() {
		if req.RequestType() == requestType {
			matching = append(matching, req)
		}
	}
	return matching
}

// Close stops accepting connections, closes open ones and waits for connection goroutines.
func (s *TestServer) Close() error {
	closeErr := s.listener.Close()

	s.mu.Lock()
	for _, conn := range s.connections {
		_ = conn.Close()
	}
	s.mu.Unlock()

	s.wg.Wait()

	if errors.Is(closeErr, net.ErrClosed) {
		return nil
	}
	return closeErr
}

func (s *TestServer) acceptLoop() {
	defer s.wg.Done()

	for {
		conn, acceptErr := s.listener.Accept()
		if acceptErr != nil {
			return
		}

		transport := NewStreamTransport(conn)
		s.mu.Lock()
		s.connections = append(s.connections, transport)
		s.mu.Unlock()

		s.wg.Add(1)
		go s.serve(transport)
	}
}

func (s *TestServer) serve(transport Transport) {
	defer s.wg.Done()
	defer func() { _ = transport.Close() }()

	cursor := 0
	launched := false

	// Writes scripted responses up to and including the next event.
	// Returns false when the script is exhausted.
	advance := func() bool {
		for cursor < len(s.config.LaunchScript) {
			resp := s.config.LaunchScript[cursor]
			cursor++
			if writeErr := s.write(transport, resp); writeErr != nil {
				return false
			}
			if _, isEvent := resp.(*EventResponse); isEvent {
				return true
			}
		}
		return false
	}

	for {
		body, readErr := transport.ReadMessage()
		if readErr != nil {
			return
		}

		req, decodeErr := DecodeRequest(body)
		if decodeErr != nil {
			_ = s.write(transport, &ErrorResponse{Message: decodeErr.Error()})
			continue
		}

		s.mu.Lock()
		s.requests = append(s.requests, req)
		s.mu.Unlock()

		switch req.(type) {
		case *Launch:
			launched = true
			if !advance() {
				return
			}

		case *Continue:
			if !launched {
				_ = s.write(transport, &ErrorResponse{Message: "no process launched"})
				continue
			}
			if !advance() {
				return
			}

		default:
			var resp Response
			if s.config.RequestHandler != nil {
				resp = s.config.RequestHandler(req)
			}
			if resp == nil {
				resp = &ErrorResponse{Message: fmt.Sprintf("unsupported request %s", req.RequestType())}
			}
			if writeErr := s.write(transport, resp); writeErr != nil {
				return
			}
		}
	}
}

func (s *TestServer) write(transport Transport, resp Response) error {
	body, encodeErr := EncodeResponse(resp)
	if encodeErr != nil {
		s.log.Error(encodeErr, "Failed to encode scripted response")
		return encodeErr
	}
	return transport.WriteMessage(body)
}
