//go:build rp2040 || rp2350

package pio

import (
	"device/rp"
	"errors"
	"machine"
	"runtime/volatile"
	"unsafe"
)

// RP2040 PIO peripheral handles.
var (
	PIO0 = &PIO{
		hw: rp.PIO0,
	}
	PIO1 = &PIO{
		hw: rp.PIO1,
	}
)

// PIO errors.
var (
	ErrOutOfProgramSpace   = errors.New("pio: out of program space")
	ErrNoSpaceAtOffset     = errors.New("pio: program space unavailable at offset")
	errStateMachineClaimed = errors.New("pio: state machine already claimed")
)

const (
	badStateMachineIndex = "invalid state machine index"
	badPIO               = "invalid PIO"
	badProgramBounds     = "invalid program bounds"
)

// PIO represents one of the PIO peripherals in the RP2040 or RP2350.
type PIO struct {
	// hw points to the PIO hardware registers.
	hw *rp.PIO0_Type
	// Instruction memory bookkeeping.
	mem Allocator
	// Bitmask of used state machines. Each PIO has 4 state machines.
	claimedSMMask uint8
	nc            noCopy
}

// BlockIndex returns 0, 1, or 2 depending on whether the underlying device is PIO0, PIO1, or PIO2.
func (pio *PIO) BlockIndex() uint8 {
	return pio.blockIndex()
}

// StateMachine returns a state machine by index.
func (pio *PIO) StateMachine(index uint8) StateMachine {
	if index > 3 {
		panic(badStateMachineIndex)
	}
	return StateMachine{
		pio:   pio,
		index: index,
	}
}

// ClaimStateMachine returns an unused state machine
// or an error if all state machines on this PIO are claimed.
func (pio *PIO) ClaimStateMachine() (sm StateMachine, err error) {
	for i := uint8(0); i < 4; i++ {
		sm = pio.StateMachine(i)
		if sm.TryClaim() {
			return sm, nil
		}
	}
	return StateMachine{}, errStateMachineClaimed
}

// AddProgram loads a PIO program into PIO memory and returns the offset where it was loaded.
// This function will try to find the next available slot of memory for the program
// and will return an error if there is not enough memory to add the program.
func (pio *PIO) AddProgram(prog Program) (offset uint8, _ error) {
	if err := prog.Validate(); err != nil {
		return 0, err
	}
	maybeOffset := pio.mem.Find(prog)
	if maybeOffset < 0 {
		return 0, ErrOutOfProgramSpace
	}
	offset = uint8(maybeOffset)
	return offset, pio.AddProgramAtOffset(prog, offset)
}

// AddProgramAtOffset loads a PIO program into PIO memory at a specific offset
// and returns a non-nil error if there is not enough space.
func (pio *PIO) AddProgramAtOffset(prog Program, offset uint8) error {
	if !pio.mem.CanAddAt(prog, offset) {
		return ErrNoSpaceAtOffset
	}
	for i, instr := range prog.Relocated(offset) {
		pio.writeInstructionMemory(offset+uint8(i), instr)
	}
	// Mark the instruction space as in-use
	pio.mem.Claim(prog, offset)
	return nil
}

func (pio *PIO) writeInstructionMemory(offset uint8, value uint16) {
	// Instead of using MEM0, MEM1, etc, calculate the offset of the
	// disired register starting at MEM0
	start := unsafe.Pointer(&pio.hw.INSTR_MEM0)

	// Instruction Memory registers are 32-bit, with only lower 16 used
	reg := (*volatile.Register32)(unsafe.Pointer(uintptr(start) + uintptr(offset)*4))
	reg.Set(uint32(value))
}

// ClearProgramSection clears a contiguous section of the PIO's program memory.
// To clear all program memory use ClearProgramSection(0, 32).
func (pio *PIO) ClearProgramSection(offset, len uint8) {
	if offset+len > InstructionMemorySize {
		panic(badProgramBounds)
	}
	for i := offset; i < offset+len; i++ {
		// We encode trap instructions to prevent undefined behaviour if
		// a state machine is currently using the program memory.
		pio.writeInstructionMemory(i, EncodeJmp(offset, JmpAlways))
	}
	pio.mem.Release(offset, len)
}

type statemachineHW struct {
	CLKDIV    volatile.Register32 // 0xC8 for SM0
	EXECCTRL  volatile.Register32 // 0xCC for SM0
	SHIFTCTRL volatile.Register32 // 0xD0 for SM0
	ADDR      volatile.Register32 // 0xD4 for SM0
	INSTR     volatile.Register32 // 0xD8 for SM0
	PINCTRL   volatile.Register32 // 0xDC for SM0
}

func (pio *PIO) smHW(index uint8) *statemachineHW {
	if index > 3 {
		panic(badStateMachineIndex)
	}
	// 24 bytes (6 registers) per state machine
	const size = unsafe.Sizeof(statemachineHW{})

	ptrBase := unsafe.Pointer(&pio.hw.SM0_CLKDIV) // 0xC8
	ptr := uintptr(ptrBase) + uintptr(index)*size

	return (*statemachineHW)(unsafe.Pointer(uintptr(ptr)))
}

// PinMode returns the PinMode for a PIO state machine, one of
// PIO0, PIO1, or PIO2.
func (pio *PIO) PinMode() machine.PinMode {
	return machine.PinPIO0 + machine.PinMode(pio.BlockIndex())
}

// GPIOStates returns the current PIO-commanded state for output GPIOs.
// Useful to confirm the line idles low between frames.
func (pio *PIO) GPIOStates() uint32 {
	return pio.hw.DBG_PADOUT.Get()
}

// noCopy may be embedded into structs which must not be copied
// after the first use.
//
// See https://golang.org/issues/8005#issuecomment-190753527
// for details.
type noCopy struct{}

// Lock is a no-op used by -copylocks checker from `go vet`.
func (*noCopy) Lock()   {}
func (*noCopy) UnLock() {}
