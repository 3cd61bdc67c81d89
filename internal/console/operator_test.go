/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package console

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expend20/joybug-tauri/internal/debugsession"
	"github.com/expend20/joybug-tauri/internal/protocol"
	"github.com/expend20/joybug-tauri/internal/uilog"
	"github.com/expend20/joybug-tauri/pkg/testutil"
)

const testTimeout = 10 * time.Second

type stepCall struct {
	sessionID string
	resume    bool
}

type recordingStepper struct {
	calls chan stepCall
	err   error
}

func newRecordingStepper() *recordingStepper {
	return &recordingStepper{calls: make(chan stepCall, 16)}
}

func (rs *recordingStepper) Step(sessionID string, resume bool) error {
	rs.calls <- stepCall{sessionID: sessionID, resume: resume}
	return rs.err
}

func (rs *recordingStepper) next(t *testing.T, ctx context.Context) stepCall {
	select {
	case call := <-rs.calls:
		return call
	case <-ctx.Done():
		require.Fail(t, "timed out waiting for a decision")
		return stepCall{}
	}
}

func snapshotWith(id string, status debugsession.Status) debugsession.Snapshot {
	return debugsession.Snapshot{
		ID:            id,
		Status:        status,
		ServerAddress: "127.0.0.1:9000",
		LaunchCommand: "notepad.exe",
		Modules:       []protocol.ModuleInfo{},
		Threads:       []protocol.ThreadInfo{},
		Events:        []debugsession.EventInfo{},
		CreatedAt:     time.Now(),
	}
}

type operatorFixture struct {
	stepper   *recordingStepper
	output    *bytes.Buffer
	snapshots chan debugsession.Snapshot
	done      chan error
	operator  *Operator
}

func startOperator(t *testing.T, ctx context.Context, input io.Reader, autoContinue bool) *operatorFixture {
	f := &operatorFixture{
		stepper:   newRecordingStepper(),
		output:    &bytes.Buffer{},
		snapshots: make(chan debugsession.Snapshot),
		done:      make(chan error, 1),
	}

	var err error
	f.operator, err = NewOperator(OperatorConfig{
		Stepper:      f.stepper,
		Renderer:     NewRenderer(f.output, uilog.LevelInfo),
		Input:        input,
		AutoContinue: autoContinue,
		Logger:       logr.Discard(),
	})
	require.NoError(t, err)

	go func() {
		f.done <- f.operator.Run(ctx, f.snapshots)
	}()
	return f
}

func (f *operatorFixture) wait(t *testing.T, ctx context.Context) error {
	select {
	case err := <-f.done:
		return err
	case <-ctx.Done():
		require.Fail(t, "timed out waiting for the operator to finish")
		return nil
	}
}

func TestParseDecision(t *testing.T) {
	t.Parallel()

	tests := []struct {
		answer string
		resume bool
		valid  bool
	}{
		{"", true, true},
		{"c", true, true},
		{" Continue ", true, true},
		{"q", false, true},
		{"QUIT", false, true},
		{"stop", false, true},
		{"maybe", false, false},
	}

	for _, tc := range tests {
		resume, valid := ParseDecision(tc.answer)
		assert.Equal(t, tc.resume, resume, "answer %q", tc.answer)
		assert.Equal(t, tc.valid, valid, "answer %q", tc.answer)
	}
}

func TestNewOperatorValidation(t *testing.T) {
	t.Parallel()

	renderer := NewRenderer(io.Discard, uilog.LevelInfo)

	_, err := NewOperator(OperatorConfig{Renderer: renderer, Input: strings.NewReader("")})
	require.Error(t, err)

	_, err = NewOperator(OperatorConfig{Stepper: newRecordingStepper(), Input: strings.NewReader("")})
	require.Error(t, err)

	_, err = NewOperator(OperatorConfig{Stepper: newRecordingStepper(), Renderer: renderer})
	require.Error(t, err, "input is required without auto-continue")

	_, err = NewOperator(OperatorConfig{Stepper: newRecordingStepper(), Renderer: renderer, AutoContinue: true})
	require.NoError(t, err)
}

func TestOperatorAnswersPausesFromInput(t *testing.T) {
	t.Parallel()
	ctx, cancel := testutil.GetTestContext(t, testTimeout)
	defer cancel()

	f := startOperator(t, ctx, strings.NewReader("c\nq\n"), false)

	f.snapshots <- snapshotWith("s1", debugsession.Connected())
	f.snapshots <- snapshotWith("s1", debugsession.Paused())
	assert.Equal(t, stepCall{"s1", true}, f.stepper.next(t, ctx))

	f.snapshots <- snapshotWith("s1", debugsession.Running())
	f.snapshots <- snapshotWith("s1", debugsession.Paused())
	assert.Equal(t, stepCall{"s1", false}, f.stepper.next(t, ctx))

	f.snapshots <- snapshotWith("s1", debugsession.Finished())
	require.NoError(t, f.wait(t, ctx))

	assert.Contains(t, f.output.String(), "[c]ontinue / [q]uit")
	assert.Contains(t, f.output.String(), "Finished")
}

func TestOperatorRepromptsOnUnrecognizedAnswer(t *testing.T) {
	t.Parallel()
	ctx, cancel := testutil.GetTestContext(t, testTimeout)
	defer cancel()

	f := startOperator(t, ctx, strings.NewReader("what\ncontinue\n"), false)

	f.snapshots <- snapshotWith("s1", debugsession.Paused())
	assert.Equal(t, stepCall{"s1", true}, f.stepper.next(t, ctx))

	f.snapshots <- snapshotWith("s1", debugsession.Finished())
	require.NoError(t, f.wait(t, ctx))

	assert.Contains(t, f.output.String(), `Unrecognized answer "what"`)
	assert.Equal(t, 2, strings.Count(f.output.String(), "[c]ontinue / [q]uit"))
}

func TestOperatorStopsWhenInputIsExhausted(t *testing.T) {
	t.Parallel()
	ctx, cancel := testutil.GetTestContext(t, testTimeout)
	defer cancel()

	f := startOperator(t, ctx, strings.NewReader(""), false)

	f.snapshots <- snapshotWith("s1", debugsession.Paused())
	assert.Equal(t, stepCall{"s1", false}, f.stepper.next(t, ctx))

	f.snapshots <- snapshotWith("s1", debugsession.Finished())
	require.NoError(t, f.wait(t, ctx))
}

func TestOperatorAutoContinue(t *testing.T) {
	t.Parallel()
	ctx, cancel := testutil.GetTestContext(t, testTimeout)
	defer cancel()

	f := startOperator(t, ctx, nil, true)

	f.snapshots <- snapshotWith("s1", debugsession.Paused())
	assert.Equal(t, stepCall{"s1", true}, f.stepper.next(t, ctx))
	f.snapshots <- snapshotWith("s1", debugsession.Paused())
	assert.Equal(t, stepCall{"s1", true}, f.stepper.next(t, ctx))

	f.snapshots <- snapshotWith("s1", debugsession.Failed("boom"))
	require.NoError(t, f.wait(t, ctx))

	assert.NotContains(t, f.output.String(), "[c]ontinue / [q]uit")
	assert.Contains(t, f.output.String(), "Error(boom)")
}

func TestOperatorAbandonsSupersededPause(t *testing.T) {
	t.Parallel()
	ctx, cancel := testutil.GetTestContext(t, testTimeout)
	defer cancel()

	// The pipe is never written to, so the operator never gets an answer.
	pr, pw := io.Pipe()
	defer pw.Close()

	f := startOperator(t, ctx, pr, false)

	f.snapshots <- snapshotWith("s1", debugsession.Paused())
	f.snapshots <- snapshotWith("s1", debugsession.Finished())
	require.NoError(t, f.wait(t, ctx))

	assert.Empty(t, f.stepper.calls)
}

func TestOperatorToleratesStaleDecisions(t *testing.T) {
	t.Parallel()
	ctx, cancel := testutil.GetTestContext(t, testTimeout)
	defer cancel()

	f := startOperator(t, ctx, nil, true)
	f.stepper.err = debugsession.ErrNotPaused

	f.snapshots <- snapshotWith("s1", debugsession.Paused())
	f.stepper.next(t, ctx)

	close(f.snapshots)
	require.NoError(t, f.wait(t, ctx))
}

func TestOperatorReturnsOnContextCancellation(t *testing.T) {
	t.Parallel()
	ctx, cancel := testutil.GetTestContext(t, testTimeout)
	defer cancel()

	runCtx, runCancel := context.WithCancel(ctx)
	f := startOperator(t, runCtx, nil, true)

	runCancel()
	require.ErrorIs(t, f.wait(t, ctx), context.Canceled)
}
