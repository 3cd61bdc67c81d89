/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package protocol

// ModuleInfo describes an image mapped into the debuggee.
type ModuleInfo struct {
	Name string `json:"name"`
	Base uint64 `json:"base"`
	Size uint64 `json:"size"`
}

// ThreadInfo describes a live debuggee thread.
type ThreadInfo struct {
	TID          uint32 `json:"tid"`
	StartAddress uint64 `json:"start_address"`
}

type ProcessInfo struct {
	PID  uint32 `json:"pid"`
	Name string `json:"name"`
}

type SymbolInfo struct {
	Name       string `json:"name"`
	ModuleName string `json:"module_name"`
	RVA        uint32 `json:"rva"`
	Size       uint32 `json:"size"`
}

type ResolvedSymbol struct {
	Name       string `json:"name"`
	ModuleName string `json:"module_name"`
	RVA        uint32 `json:"rva"`
	VA         uint64 `json:"va"`
}

type Instruction struct {
	Address  uint64 `json:"address"`
	Bytes    []byte `json:"bytes"`
	Mnemonic string `json:"mnemonic"`
	OpStr    string `json:"op_str"`
	Symbol   string `json:"symbol,omitempty"`
}

// CallStackFrame is a single frame of a thread's call stack.
type CallStackFrame struct {
	FrameNumber        uint32  `json:"frame_number"`
	InstructionPointer uint64  `json:"instruction_pointer"`
	StackPointer       uint64  `json:"stack_pointer"`
	FramePointer       uint64  `json:"frame_pointer"`
	SymbolInfo         *string `json:"symbol_info,omitempty"`
}
