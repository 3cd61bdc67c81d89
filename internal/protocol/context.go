/*---------------------------------------------------------------------------------------------
 *  Copyright (c) Microsoft Corporation. All rights reserved.
 *  Licensed under the MIT License. See LICENSE in the project root for license information.
 *--------------------------------------------------------------------------------------------*/

package protocol

import (
	"fmt"
)

// X64Registers is the general purpose register file of an x64 thread.
type X64Registers struct {
	Rax    uint64 `json:"rax"`
	Rbx    uint64 `json:"rbx"`
	Rcx    uint64 `json:"rcx"`
	Rdx    uint64 `json:"rdx"`
	Rsi    uint64 `json:"rsi"`
	Rdi    uint64 `json:"rdi"`
	Rbp    uint64 `json:"rbp"`
	Rsp    uint64 `json:"rsp"`
	R8     uint64 `json:"r8"`
	R9     uint64 `json:"r9"`
	R10    uint64 `json:"r10"`
	R11    uint64 `json:"r11"`
	R12    uint64 `json:"r12"`
	R13    uint64 `json:"r13"`
	R14    uint64 `json:"r14"`
	R15    uint64 `json:"r15"`
	Rip    uint64 `json:"rip"`
	EFlags uint32 `json:"eflags"`
}

// Arm64Registers is the general purpose register file of an ARM64 thread.
type Arm64Registers struct {
	X    [29]uint64 `json:"x"`
	Fp   uint64     `json:"fp"`
	Lr   uint64     `json:"lr"`
	Sp   uint64     `json:"sp"`
	Pc   uint64     `json:"pc"`
	Cpsr uint32     `json:"cpsr"`
}

// RawContext is the register context exactly as the debug server reports it.
// Exactly one of the architecture fields is set.
type RawContext struct {
	X64   *X64Registers   `json:"x64,omitempty"`
	Arm64 *Arm64Registers `json:"arm64,omitempty"`
}

type Register struct {
	Name  string `json:"name"`
	Value uint64 `json:"value"`
}

// ThreadContext is the architecture-neutral register view published to observers.
type ThreadContext struct {
	Arch               string     `json:"arch"`
	InstructionPointer uint64     `json:"instruction_pointer"`
	StackPointer       uint64     `json:"stack_pointer"`
	Registers          []Register `json:"registers"`
}

// Clone returns a deep copy of the context.
func (tc *ThreadContext) Clone() *ThreadContext {
	if tc == nil {
		return nil
	}
	clone := *tc
	clone.Registers = append([]Register(nil), tc.Registers...)
	return &clone
}

// ConvertRawContext flattens a raw register context into an ordered register list.
func ConvertRawContext(raw RawContext) ThreadContext {
	switch {
	case raw.X64 != nil:
		r := raw.X64
		return ThreadContext{
			Arch:               "x64",
			InstructionPointer: r.Rip,
			StackPointer:       r.Rsp,
			Registers: []Register{
				{"rax", r.Rax}, {"rbx", r.Rbx}, {"rcx", r.Rcx}, {"rdx", r.Rdx},
				{"rsi", r.Rsi}, {"rdi", r.Rdi}, {"rbp", r.Rbp}, {"rsp", r.Rsp},
				{"r8", r.R8}, {"r9", r.R9}, {"r10", r.R10}, {"r11", r.R11},
				{"r12", r.R12}, {"r13", r.R13}, {"r14", r.R14}, {"r15", r.R15},
				{"rip", r.Rip}, {"eflags", uint64(r.EFlags)},
			},
		}

	case raw.Arm64 != nil:
		r := raw.Arm64
		regs := make([]Register, 0, len(r.X)+5)
		for i, v := range r.X {
			regs = append(regs, Register{Name: fmt.Sprintf("x%d", i), Value: v})
		}
		regs = append(regs,
			Register{"fp", r.Fp},
			Register{"lr", r.Lr},
			Register{"sp", r.Sp},
			Register{"pc", r.Pc},
			Register{"cpsr", uint64(r.Cpsr)},
		)
		return ThreadContext{
			Arch:               "arm64",
			InstructionPointer: r.Pc,
			StackPointer:       r.Sp,
			Registers:          regs,
		}

	default:
		return ThreadContext{Arch: "unknown"}
	}
}
