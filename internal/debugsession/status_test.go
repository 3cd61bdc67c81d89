/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package debugsession

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expend20/joybug-tauri/internal/protocol"
)

func TestStatusJSON(t *testing.T) {
	t.Parallel()

	paused, err := json.Marshal(Paused())
	require.NoError(t, err)
	assert.JSONEq(t, `"Paused"`, string(paused))

	failed, err := json.Marshal(Failed("access denied"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"Error":"access denied"}`, string(failed))

	var s Status
	require.NoError(t, json.Unmarshal(failed, &s))
	assert.Equal(t, Failed("access denied"), s)

	assert.Error(t, json.Unmarshal([]byte(`"Sleeping"`), &s))
	assert.Error(t, json.Unmarshal([]byte(`{"Warning":"x"}`), &s))
}

func TestTerminalStatesAreAbsorbing(t *testing.T) {
	t.Parallel()

	s := NewSession("s", "127.0.0.1:9000", "a.exe")
	assert.True(t, s.setStatus(Connected()))
	assert.True(t, s.setStatus(Paused()))
	assert.True(t, s.setStatus(Running()))
	assert.True(t, s.setStatus(Failed("broken")))

	assert.False(t, s.setStatus(Finished()))
	assert.False(t, s.setStatus(Running()))
	assert.Equal(t, "Error(broken)", s.Status().String())
}

func TestSnapshotIsDetachedFromSession(t *testing.T) {
	t.Parallel()

	s := NewSession("s", "127.0.0.1:9000", "a.exe")
	ev := &protocol.DllLoaded{EventOrigin: origin(1, 1), BaseOfDll: 0x5000}
	s.recordEvent(ev, func(m *Model) { m.Modules = append(m.Modules, protocol.ModuleInfo{Name: "x.dll", Base: 0x5000}) })
	require.True(t, s.setContext(ev, protocol.ThreadContext{Arch: "x64"}))
	assert.False(t, s.setContext(&protocol.DllLoaded{}, protocol.ThreadContext{Arch: "arm64"}))

	snapshot := s.Snapshot()
	snapshot.Modules[0].Name = "changed"
	snapshot.CurrentContext.Arch = "changed"

	assert.Equal(t, "x.dll", s.Model().Modules[0].Name)
	assert.Equal(t, "x64", s.CurrentContext().Arch)
	assert.Equal(t, StatusPaused, s.Status().Kind)

	data, err := json.Marshal(s.Snapshot())
	require.NoError(t, err)
	assert.Contains(t, string(data), `"status":"Paused"`)
	assert.Contains(t, string(data), `"type":"DllLoaded"`)
}
