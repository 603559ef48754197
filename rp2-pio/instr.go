package pio

// InstrKind is a enum for the PIO instruction type. It only represents the kind of
// instruction. It cannot store the arguments.
type InstrKind uint8

const (
	InstrJMP InstrKind = iota
	InstrWAIT
	InstrIN
	InstrOUT
	InstrPUSHPULL
	InstrMOV
	InstrIRQ
	InstrSET
)

// This file contains the primitives for creating instructions dynamically
const (
	_INSTR_BITS_JMP  = 0x0000
	_INSTR_BITS_WAIT = 0x2000
	_INSTR_BITS_IN   = 0x4000
	_INSTR_BITS_OUT  = 0x6000
	_INSTR_BITS_PUSH = 0x8000
	_INSTR_BITS_PULL = 0x8080
	_INSTR_BITS_MOV  = 0xa000
	_INSTR_BITS_IRQ  = 0xc000
	_INSTR_BITS_SET  = 0xe000

	// Bit mask for instruction code
	_INSTR_BITS_Msk = 0xe000
)

// Kind returns the major opcode of an encoded instruction.
// PUSH and PULL share an opcode and are told apart by bit 7.
func Kind(instr uint16) InstrKind { return InstrKind(instr >> 13) }

// IsJmp reports whether instr is a JMP. Jump targets are patched on load.
func IsJmp(instr uint16) bool { return instr&_INSTR_BITS_Msk == _INSTR_BITS_JMP }

type JmpCond uint8

const (
	// No condition, always jumps.
	JmpAlways JmpCond = iota
	// Jump if X is zero.
	JmpXZero
	// Jump if X is not zero, prior to decrement of X.
	JmpXNZeroDec
	// Jump if Y is zero.
	JmpYZero
	// Jump if Y is not zero, prior to decrement of Y.
	JmpYNZeroDec
	// Jump if X is not equal to Y.
	JmpXNotEqualY
	// Jump if EXECCTRL_JMP_PIN (state machine configured) is high.
	JmpPinInput
	// Compares the bits shifted out since last pull with the shift count theshold
	// (configured by SHIFTCTRL_PULL_THRESH) and jumps if there are remaining bits to shift.
	JmpOSRNotEmpty
)

// OutDest is the destination of an OUT instruction.
type OutDest uint8

const (
	OutDestPins    OutDest = 0
	OutDestX       OutDest = 1
	OutDestY       OutDest = 2
	OutDestNull    OutDest = 3
	OutDestPindirs OutDest = 4
	OutDestPC      OutDest = 5
	OutDestISR     OutDest = 6
	OutDestExec    OutDest = 7
)

// SetDest is the destination of a SET instruction.
type SetDest uint8

const (
	SetDestPins    SetDest = 0
	SetDestX       SetDest = 1
	SetDestY       SetDest = 2
	SetDestPindirs SetDest = 4
)

// InSrc is the source of an IN instruction.
type InSrc uint8

const (
	InSrcPins InSrc = 0
	InSrcX    InSrc = 1
	InSrcY    InSrc = 2
	InSrcNull InSrc = 3
	InSrcISR  InSrc = 6
	InSrcOSR  InSrc = 7
)

// MovDest is the destination of a MOV instruction.
type MovDest uint8

const (
	MovDestPins MovDest = 0
	MovDestX    MovDest = 1
	MovDestY    MovDest = 2
	MovDestExec MovDest = 4
	MovDestPC   MovDest = 5
	MovDestISR  MovDest = 6
	MovDestOSR  MovDest = 7
)

// MovSrc is the source of a MOV instruction.
type MovSrc uint8

const (
	MovSrcPins   MovSrc = 0
	MovSrcX      MovSrc = 1
	MovSrcY      MovSrc = 2
	MovSrcNull   MovSrc = 3
	MovSrcStatus MovSrc = 5
	MovSrcISR    MovSrc = 6
	MovSrcOSR    MovSrc = 7
)

// AssemblerV0 provides a fluent API for programming PIO
// within the Go language for PIO version 0 (RP2040).
//
// SidesetBits is the number of bits taken from the delay field for side-set.
// Only mandatory side-set is supported: every instruction carries a value.
type AssemblerV0 struct {
	SidesetBits uint8
}

type instructionV0 struct {
	instr uint16
	asm   AssemblerV0
}

// Encode returns the 16-bit instruction word.
func (instr instructionV0) Encode() uint16 { return instr.instr }

// Side sets the side-set value of the instruction. The value is placed in
// the most significant bits of the delay/side-set field.
func (instr instructionV0) Side(value uint8) instructionV0 {
	n := instr.asm.SidesetBits
	if n == 0 {
		panic("pio:side-set not configured")
	}
	instr.instr |= uint16(value) << (13 - n)
	return instr
}

// Delay sets the number of cycles the state machine idles after the instruction.
// The available range shrinks by one bit for every side-set bit.
func (instr instructionV0) Delay(cycles uint8) instructionV0 {
	if cycles > instr.asm.MaxDelay() {
		panic("pio:delay too large")
	}
	instr.instr |= uint16(cycles) << 8
	return instr
}

// MaxDelay returns the largest delay encodable next to the configured side-set bits.
func (asm AssemblerV0) MaxDelay() uint8 {
	return 0x1f >> asm.SidesetBits
}

func (asm AssemblerV0) instr(instr uint16) instructionV0 {
	return instructionV0{instr: instr, asm: asm}
}

func (asm AssemblerV0) instrArgs(instr uint16, arg1 uint8, arg2 uint8) instructionV0 {
	return asm.instr(instr | (uint16(arg1&0b111) << 5) | uint16(arg2&0x1f))
}

// Jmp jumps to addr when cond holds. addr is relative to the program start
// and is patched with the load offset.
func (asm AssemblerV0) Jmp(addr uint8, cond JmpCond) instructionV0 {
	return asm.instrArgs(_INSTR_BITS_JMP, uint8(cond), addr)
}

// WaitGPIO stalls until the absolute GPIO matches polarity.
func (asm AssemblerV0) WaitGPIO(polarity bool, pin uint8) instructionV0 {
	flag := boolAsU8(polarity) << 2
	return asm.instrArgs(_INSTR_BITS_WAIT, 0|flag, pin)
}

// WaitPin stalls until the input-mapped pin matches polarity.
func (asm AssemblerV0) WaitPin(polarity bool, pin uint8) instructionV0 {
	flag := boolAsU8(polarity) << 2
	return asm.instrArgs(_INSTR_BITS_WAIT, 1|flag, pin)
}

// In shifts bitCount bits from src into the ISR. A bitCount of 32 is encoded as 0.
func (asm AssemblerV0) In(src InSrc, bitCount uint8) instructionV0 {
	return asm.instrArgs(_INSTR_BITS_IN, uint8(src), bitCount)
}

// Out shifts bitCount bits out of the OSR into dest. A bitCount of 32 is encoded as 0.
func (asm AssemblerV0) Out(dest OutDest, bitCount uint8) instructionV0 {
	return asm.instrArgs(_INSTR_BITS_OUT, uint8(dest), bitCount)
}

// Push pushes the ISR into the RX FIFO.
func (asm AssemblerV0) Push(ifFull bool, block bool) instructionV0 {
	arg := boolAsU8(ifFull)<<1 | boolAsU8(block)
	return asm.instrArgs(_INSTR_BITS_PUSH, arg, 0)
}

// Pull loads the OSR from the TX FIFO. A blocking pull stalls on an empty FIFO,
// a non-blocking pull copies X into the OSR instead.
func (asm AssemblerV0) Pull(ifEmpty bool, block bool) instructionV0 {
	arg := boolAsU8(ifEmpty)<<1 | boolAsU8(block)
	return asm.instrArgs(_INSTR_BITS_PULL, arg, 0)
}

// Mov copies src into dest.
func (asm AssemblerV0) Mov(dest MovDest, src MovSrc) instructionV0 {
	return asm.instrArgs(_INSTR_BITS_MOV, uint8(dest), uint8(src)&7)
}

// MovInvert copies the bitwise complement of src into dest.
func (asm AssemblerV0) MovInvert(dest MovDest, src MovSrc) instructionV0 {
	return asm.instrArgs(_INSTR_BITS_MOV, uint8(dest), (1<<3)|(uint8(src)&7))
}

// MovReverse copies the bit-reversed src into dest.
func (asm AssemblerV0) MovReverse(dest MovDest, src MovSrc) instructionV0 {
	return asm.instrArgs(_INSTR_BITS_MOV, uint8(dest), (2<<3)|(uint8(src)&7))
}

// Set writes an immediate 5-bit value to dest.
func (asm AssemblerV0) Set(dest SetDest, value uint8) instructionV0 {
	return asm.instrArgs(_INSTR_BITS_SET, uint8(dest), value)
}

// IRQSet raises IRQ flag irq.
func (asm AssemblerV0) IRQSet(relative bool, irq uint8) instructionV0 {
	return asm.instrArgs(_INSTR_BITS_IRQ, 0, boolAsU8(relative)<<4|irq&0x7)
}

// Nop assembles `mov y, y`, the canonical no-op.
func (asm AssemblerV0) Nop() instructionV0 {
	return asm.Mov(MovDestY, MovSrcY)
}

// EncodeJmp encodes an unconditional or conditional jump without side-set or delay.
// Used to force the program counter of a halted state machine.
func EncodeJmp(addr uint8, condition JmpCond) uint16 {
	return AssemblerV0{}.Jmp(addr, condition).Encode()
}

// EncodeSetPins encodes `set pins, value` (or pindirs) without side-set or delay.
func EncodeSetPins(pindirs bool, value uint8) uint16 {
	dest := SetDestPins
	if pindirs {
		dest = SetDestPindirs
	}
	return AssemblerV0{}.Set(dest, value).Encode()
}

func boolAsU8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
