/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package commands

import (
	"bytes"
	"context"
	"errors"
	"net"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expend20/joybug-tauri/internal/config"
	"github.com/expend20/joybug-tauri/internal/debugsession"
	"github.com/expend20/joybug-tauri/internal/protocol"
	"github.com/expend20/joybug-tauri/pkg/logger"
	"github.com/expend20/joybug-tauri/pkg/testutil"
)

const testTimeout = 20 * time.Second

func strPtr(s string) *string { return &s }

func origin(pid, tid uint32) protocol.EventOrigin {
	return protocol.EventOrigin{ProcessID: pid, ThreadID: tid}
}

func event(e protocol.DebugEvent) protocol.Response {
	return &protocol.EventResponse{Event: e}
}

func startDebugServer(t *testing.T, script []protocol.Response) *protocol.TestServer {
	server, err := protocol.NewTestServer(protocol.TestServerConfig{
		LaunchScript: script,
		RequestHandler: func(req protocol.Request) protocol.Response {
			if _, isContextReq := req.(*protocol.GetThreadContext); isContextReq {
				return &protocol.ThreadContextResponse{Context: protocol.RawContext{
					X64: &protocol.X64Registers{Rip: 0x401000, Rsp: 0x14FF00},
				}}
			}
			return nil
		},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = server.Close() })
	return server
}

func executeRoot(ctx context.Context, t *testing.T, input string, args ...string) (string, error) {
	root, err := NewRootCommand(logger.New("joybug-test"))
	require.NoError(t, err)

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(input))
	root.SetArgs(args)

	execErr := root.ExecuteContext(ctx)
	return out.String(), execErr
}

func TestRunCommandWithAutoContinue(t *testing.T) {
	ctx, cancel := testutil.GetTestContext(t, testTimeout)
	defer cancel()

	server := startDebugServer(t, []protocol.Response{
		&protocol.Ack{},
		event(&protocol.ProcessCreated{EventOrigin: origin(1, 1), ImageFileName: strPtr("app.exe"), BaseOfImage: 0x400000, SizeOfImage: 0x1000}),
		event(&protocol.DllLoaded{EventOrigin: origin(1, 1), DllName: strPtr("ntdll.dll"), BaseOfDll: 0x7FF800000000, SizeOfDll: 0x100}),
		event(&protocol.ProcessExited{EventOrigin: origin(1, 1)}),
	})

	out, err := executeRoot(ctx, t, "", "run", "--server-address", server.Address(), "--auto-continue", "app.exe")
	require.NoError(t, err)

	assert.Contains(t, out, "DLL Loaded: ntdll.dll")
	assert.Contains(t, out, "Finished")
	assert.NotContains(t, out, "[c]ontinue / [q]uit")
	assert.Len(t, server.RequestsOfType("Continue"), 3)
}

func TestRunCommandStopsOnOperatorRequest(t *testing.T) {
	ctx, cancel := testutil.GetTestContext(t, testTimeout)
	defer cancel()

	server := startDebugServer(t, []protocol.Response{
		&protocol.Ack{},
		event(&protocol.ProcessCreated{EventOrigin: origin(1, 1), ImageFileName: strPtr("app.exe"), BaseOfImage: 0x400000, SizeOfImage: 0x1000}),
		event(&protocol.ProcessExited{EventOrigin: origin(1, 1)}),
	})

	out, err := executeRoot(ctx, t, "q\n", "run", "--server-address", server.Address(), "--launch-command", "app.exe")
	require.NoError(t, err)

	assert.Contains(t, out, "[c]ontinue / [q]uit")
	assert.Contains(t, out, "Finished")
	assert.Empty(t, server.RequestsOfType("Continue"))
}

func TestRunCommandReportsProtocolError(t *testing.T) {
	ctx, cancel := testutil.GetTestContext(t, testTimeout)
	defer cancel()

	server := startDebugServer(t, []protocol.Response{
		&protocol.ErrorResponse{Message: "cannot launch"},
	})

	out, err := executeRoot(ctx, t, "", "run", "--server-address", server.Address(), "--auto-continue", "app.exe")
	require.Error(t, err)
	assert.True(t, errors.Is(err, debugsession.ErrProtocol), "unexpected error: %v", err)
	assert.Contains(t, out, "Error(cannot launch)")
}

func TestRunCommandReportsConnectionFailure(t *testing.T) {
	ctx, cancel := testutil.GetTestContext(t, testTimeout)
	defer cancel()

	// Reserve a port and release it, so that nothing is listening there.
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	address := listener.Addr().String()
	require.NoError(t, listener.Close())

	_, err = executeRoot(ctx, t, "", "run", "--server-address", address, "--auto-continue", "app.exe")
	require.Error(t, err)
	assert.True(t, debugsession.IsConnectionError(err), "unexpected error: %v", err)
}

func TestRunCommandRequiresLaunchCommand(t *testing.T) {
	ctx, cancel := testutil.GetTestContext(t, testTimeout)
	defer cancel()

	_, err := executeRoot(ctx, t, "", "run", "--server-address", "127.0.0.1:9")
	require.Error(t, err)

	var ve config.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, config.LaunchCommandKey, ve.Field)
}

func TestNewDialerRetries(t *testing.T) {
	t.Parallel()
	ctx, cancel := testutil.GetTestContext(t, testTimeout)
	defer cancel()

	// Find a free port, then start listening on it only after the first attempts have failed.
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	address := listener.Addr().String()
	require.NoError(t, listener.Close())

	cfg := config.Default()
	cfg.DialTimeout = time.Second
	cfg.ConnectRetryTimeout = 10 * time.Second

	var accepted atomic.Bool
	go func() {
		time.Sleep(300 * time.Millisecond)
		l, listenErr := net.Listen("tcp", address)
		if listenErr != nil {
			return
		}
		defer l.Close()
		conn, acceptErr := l.Accept()
		if acceptErr == nil {
			accepted.Store(true)
			<-ctx.Done()
			_ = conn.Close()
		}
	}()

	conn, err := newDialer(cfg, logr.Discard()).Dial(ctx, address)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, accepted.Load, 5*time.Second, 20*time.Millisecond)
}
