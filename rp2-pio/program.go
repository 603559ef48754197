package pio

import "errors"

// Program errors.
var (
	ErrEmptyProgram   = errors.New("pio: empty program")
	ErrProgramTooLong = errors.New("pio: program exceeds instruction memory")
	ErrBadWrap        = errors.New("pio: invalid wrap bounds")
)

// InstructionMemorySize is the number of instruction slots in each PIO block.
const InstructionMemorySize = 32

// Program is an assembled PIO program together with the configuration
// its instructions assume. Addresses are relative to the program start.
type Program struct {
	Instructions []uint16
	// Origin is the fixed load offset or -1 if the code is position independent.
	Origin int8
	// WrapTarget and Wrap delimit the implicit loop: after executing the
	// instruction at Wrap the program counter moves to WrapTarget.
	WrapTarget uint8
	Wrap       uint8
	// SidesetBits is the number of side-set bits every instruction carries.
	SidesetBits uint8
}

// Validate checks the program fits in instruction memory and its wrap bounds.
func (p Program) Validate() error {
	n := len(p.Instructions)
	switch {
	case n == 0:
		return ErrEmptyProgram
	case n > InstructionMemorySize:
		return ErrProgramTooLong
	case int(p.Wrap) >= n || p.WrapTarget > p.Wrap:
		return ErrBadWrap
	case p.Origin >= 0 && int(p.Origin)+n > InstructionMemorySize:
		return ErrProgramTooLong
	}
	return nil
}

// Relocated returns a copy of the instructions with jump targets
// offset so the program can be loaded at offset.
func (p Program) Relocated(offset uint8) []uint16 {
	out := make([]uint16, len(p.Instructions))
	for i, instr := range p.Instructions {
		// Patch jump instructions with relative offset
		if IsJmp(instr) {
			instr += uint16(offset)
		}
		out[i] = instr
	}
	return out
}

// mask returns the instruction-memory occupancy bitmask of the program at offset.
func (p Program) mask(offset uint8) uint32 {
	return uint32((uint64(1)<<len(p.Instructions))-1) << offset
}

// Allocator tracks used instruction memory of one PIO block and
// finds load offsets for programs the same way the pico-sdk does.
type Allocator struct {
	// Bitmask of used instruction space. Each PIO has 32 slots for instructions.
	usedSpaceMask uint32
}

// CanAddAt returns true if there is enough space for program at given offset.
func (a *Allocator) CanAddAt(p Program, offset uint8) bool {
	// Non-relocatable programs must be added at offset
	if p.Origin >= 0 && p.Origin != int8(offset) {
		return false
	}
	if int(offset)+len(p.Instructions) > InstructionMemorySize {
		return false
	}
	return a.usedSpaceMask&p.mask(offset) == 0
}

// Find returns the offset where p fits or -1. Relocatable programs are
// placed as high as possible.
func (a *Allocator) Find(p Program) int8 {
	if p.Origin >= 0 {
		if !a.CanAddAt(p, uint8(p.Origin)) {
			return -1
		}
		return p.Origin
	}
	// work down from the top always
	for i := InstructionMemorySize - len(p.Instructions); i >= 0; i-- {
		if a.CanAddAt(p, uint8(i)) {
			return int8(i)
		}
	}
	return -1
}

// Claim marks the program's slots at offset as used.
func (a *Allocator) Claim(p Program, offset uint8) {
	a.usedSpaceMask |= p.mask(offset)
}

// Release frees len slots starting at offset.
func (a *Allocator) Release(offset, len uint8) {
	a.usedSpaceMask &^= uint32((uint64(1)<<len)-1) << offset
}

// Used returns the bitmask of occupied instruction slots.
func (a *Allocator) Used() uint32 { return a.usedSpaceMask }
