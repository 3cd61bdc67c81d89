/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package debugsession

import (
	"fmt"
	"slices"

	"github.com/go-logr/logr"

	"github.com/expend20/joybug-tauri/internal/protocol"
)

const defaultMainImageName = "main.exe"

// ApplyEvent folds a debug event into the model and reports whether the model changed.
// Inserts are guarded by base address (modules) and thread id (threads), which makes
// replaying the same event harmless.
func ApplyEvent(m *Model, ev protocol.DebugEvent, log logr.Logger) bool {
	switch e := ev.(type) {

	case *protocol.ProcessCreated:
		name := defaultMainImageName
		if e.ImageFileName != nil {
			name = *e.ImageFileName
		}
		moduleAdded := m.addModule(protocol.ModuleInfo{Name: name, Base: e.BaseOfImage, Size: e.SizeOfImage})
		threadAdded := m.addThread(protocol.ThreadInfo{TID: e.ThreadID, StartAddress: e.BaseOfImage})
		if moduleAdded || threadAdded {
			log.V(1).Info("Process created", "image", name, "base", hex(e.BaseOfImage), "tid", e.ThreadID)
		}
		return moduleAdded || threadAdded

	case *protocol.DllLoaded:
		name := ModuleName(e)
		added := m.addModule(protocol.ModuleInfo{Name: name, Base: e.BaseOfDll, Size: e.SizeOfDll})
		if added {
			log.V(1).Info("Module loaded", "name", name, "base", hex(e.BaseOfDll))
		}
		return added

	case *protocol.ThreadCreated:
		added := m.addThread(protocol.ThreadInfo{TID: e.ThreadID, StartAddress: e.StartAddress})
		if added {
			log.V(1).Info("Thread created", "tid", e.ThreadID, "start", hex(e.StartAddress))
		}
		return added

	case *protocol.ThreadExited:
		before := len(m.Threads)
		m.Threads = slices.DeleteFunc(m.Threads, func(t protocol.ThreadInfo) bool { return t.TID == e.ThreadID })
		if len(m.Threads) != before {
			log.V(1).Info("Thread exited", "tid", e.ThreadID)
			return true
		}
		return false

	case *protocol.DllUnloaded:
		before := len(m.Modules)
		m.Modules = slices.DeleteFunc(m.Modules, func(mi protocol.ModuleInfo) bool { return mi.Base == e.BaseOfDll })
		if len(m.Modules) != before {
			log.V(1).Info("Module unloaded", "base", hex(e.BaseOfDll))
			return true
		}
		return false

	case *protocol.ProcessExited:
		changed := len(m.Modules) > 0 || len(m.Threads) > 0
		m.Modules = nil
		m.Threads = nil
		if changed {
			log.V(1).Info("Process exited, module and thread lists cleared", "exitCode", e.ExitCode)
		}
		return changed

	default:
		return false
	}
}

// ModuleName returns the name of a loaded DLL, or a placeholder derived from its base address
// when the debug server could not resolve it.
func ModuleName(e *protocol.DllLoaded) string {
	if e.DllName != nil {
		return *e.DllName
	}
	return fmt.Sprintf("Unknown_0x%X", e.BaseOfDll)
}

func (m *Model) addModule(module protocol.ModuleInfo) bool {
	if slices.ContainsFunc(m.Modules, func(existing protocol.ModuleInfo) bool { return existing.Base == module.Base }) {
		return false
	}
	m.Modules = append(m.Modules, module)
	return true
}

func (m *Model) addThread(thread protocol.ThreadInfo) bool {
	if slices.ContainsFunc(m.Threads, func(existing protocol.ThreadInfo) bool { return existing.TID == thread.TID }) {
		return false
	}
	m.Threads = append(m.Threads, thread)
	return true
}

func hex(v uint64) string {
	return fmt.Sprintf("0x%X", v)
}
