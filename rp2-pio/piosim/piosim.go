// Package piosim executes PIO programs one state machine cycle at a time on
// the host. It implements the part of the instruction set used by the LED,
// pulse and pattern programs and reproduces the stall, side-set and delay
// timing of the hardware so recorded waveforms are cycle exact.
package piosim

import (
	"errors"
	"fmt"
	"math/bits"

	pio "github.com/tinygo-org/neopio/rp2-pio"
)

var (
	errUnsupported  = errors.New("piosim: unsupported instruction")
	errBadThreshold = errors.New("piosim: pull threshold out of range")
)

// Source is the TX FIFO as seen by the state machine.
type Source interface {
	// TryPop removes the oldest word. ok is false when the FIFO is empty.
	TryPop() (word uint32, ok bool)
}

// Config mirrors the state machine configuration the program runs under.
// Pin numbers are relative to the pin bank of the machine.
type Config struct {
	Program pio.Program

	OutShiftRight bool
	AutoPull      bool
	// PullThreshold is the number of bits shifted before an automatic or
	// conditional pull. Zero means 32.
	PullThreshold uint8

	OutBase, OutCount uint8
	SetBase, SetCount uint8
	SidesetBase       uint8
	JmpPin            uint8

	// TracePin is the pin whose level is recorded into the trace.
	TracePin uint8
}

// Machine is a single emulated state machine. It is not safe for concurrent use.
type Machine struct {
	cfg    Config
	src    Source
	thresh uint8

	pc       uint8
	cur      uint8
	x, y     uint32
	osr      uint32
	osrCount uint8
	delay    uint8
	stalled  bool
	pins     uint32
	pindirs  uint32
	ticks    uint64

	trace Trace
}

// New validates cfg and returns a machine positioned at the first instruction.
func New(cfg Config, src Source) (*Machine, error) {
	if err := cfg.Program.Validate(); err != nil {
		return nil, err
	}
	if cfg.PullThreshold > 32 {
		return nil, errBadThreshold
	}
	for i, instr := range cfg.Program.Instructions {
		if err := supported(instr); err != nil {
			return nil, fmt.Errorf("instr %d (%#04x): %w", i, instr, err)
		}
	}
	m := &Machine{cfg: cfg, src: src, thresh: cfg.PullThreshold}
	if m.thresh == 0 {
		m.thresh = 32
	}
	m.Restart()
	return m, nil
}

func supported(instr uint16) error {
	switch pio.Kind(instr) {
	case pio.InstrJMP, pio.InstrSET:
		return nil
	case pio.InstrOUT:
		switch pio.OutDest((instr >> 5) & 7) {
		case pio.OutDestPins, pio.OutDestX, pio.OutDestY, pio.OutDestNull, pio.OutDestPindirs, pio.OutDestPC:
			return nil
		}
	case pio.InstrPUSHPULL:
		if instr&0x80 != 0 {
			return nil // pull
		}
	case pio.InstrMOV:
		dst := pio.MovDest((instr >> 5) & 7)
		src := pio.MovSrc(instr & 7)
		op := (instr >> 3) & 3
		if op == 3 || src == pio.MovSrcStatus || src == 4 {
			break
		}
		switch dst {
		case pio.MovDestPins, pio.MovDestX, pio.MovDestY, pio.MovDestPC, pio.MovDestOSR:
			if src != pio.MovSrcISR {
				return nil
			}
		}
	}
	return errUnsupported
}

// SetSource replaces the FIFO the machine pulls from.
func (m *Machine) SetSource(src Source) { m.src = src }

// Restart clears registers, shift counters, pending delays and drives all
// pins low, then jumps to the first instruction. The trace is kept.
func (m *Machine) Restart() {
	m.pc, m.cur = 0, 0
	m.x, m.y, m.osr = 0, 0, 0
	m.osrCount = 32 // empty
	m.delay = 0
	m.stalled = false
	m.pins = 0
}

// Step advances the machine by one cycle.
func (m *Machine) Step() {
	m.ticks++
	if m.delay > 0 {
		m.delay--
		m.record()
		return
	}
	prog := &m.cfg.Program
	m.cur = m.pc
	instr := prog.Instructions[m.pc]

	// Side-set takes effect on the first cycle of an instruction even
	// when the instruction stalls.
	n := prog.SidesetBits
	if n > 0 {
		value := uint32(instr>>(13-n)) & (1<<n - 1)
		m.writePins(m.cfg.SidesetBase, n, value)
	}

	jumped, stalled := m.exec(instr)
	m.stalled = stalled
	if !stalled {
		m.delay = uint8(instr>>8) & (0x1f >> n)
		if !jumped {
			m.advance()
		}
	}
	m.record()
}

// Run advances the machine by ticks cycles.
func (m *Machine) Run(ticks uint64) {
	for i := uint64(0); i < ticks; i++ {
		m.Step()
	}
}

func (m *Machine) advance() {
	if m.pc == m.cfg.Program.Wrap {
		m.pc = m.cfg.Program.WrapTarget
	} else {
		m.pc++
	}
}

func (m *Machine) exec(instr uint16) (jumped, stalled bool) {
	arg1 := uint8(instr>>5) & 7
	arg2 := uint8(instr) & 0x1f
	switch pio.Kind(instr) {
	case pio.InstrJMP:
		if m.jmpCond(pio.JmpCond(arg1)) {
			m.pc = arg2
			return true, false
		}
	case pio.InstrOUT:
		return m.out(pio.OutDest(arg1), arg2)
	case pio.InstrPUSHPULL:
		return false, m.pull(arg1&2 != 0, arg1&1 != 0)
	case pio.InstrMOV:
		return m.mov(pio.MovDest(arg1), pio.MovSrc(arg2&7), arg2>>3), false
	case pio.InstrSET:
		value := uint32(arg2)
		switch pio.SetDest(arg1) {
		case pio.SetDestPins:
			m.writePins(m.cfg.SetBase, m.cfg.SetCount, value)
		case pio.SetDestX:
			m.x = value
		case pio.SetDestY:
			m.y = value
		case pio.SetDestPindirs:
			m.pindirs = writeBits(m.pindirs, m.cfg.SetBase, m.cfg.SetCount, value)
		}
	}
	return false, false
}

func (m *Machine) jmpCond(cond pio.JmpCond) bool {
	switch cond {
	case pio.JmpAlways:
		return true
	case pio.JmpXZero:
		return m.x == 0
	case pio.JmpXNZeroDec:
		nz := m.x != 0
		m.x--
		return nz
	case pio.JmpYZero:
		return m.y == 0
	case pio.JmpYNZeroDec:
		nz := m.y != 0
		m.y--
		return nz
	case pio.JmpXNotEqualY:
		return m.x != m.y
	case pio.JmpPinInput:
		return m.Pin(m.cfg.JmpPin)
	case pio.JmpOSRNotEmpty:
		return m.osrCount < m.thresh
	}
	return false
}

func (m *Machine) out(dest pio.OutDest, count uint8) (jumped, stalled bool) {
	if count == 0 {
		count = 32
	}
	if m.cfg.AutoPull && m.osrCount >= m.thresh && !m.refill() {
		return false, true
	}
	data := m.shiftOut(count)
	switch dest {
	case pio.OutDestPins:
		m.writePins(m.cfg.OutBase, m.cfg.OutCount, data)
	case pio.OutDestX:
		m.x = data
	case pio.OutDestY:
		m.y = data
	case pio.OutDestPindirs:
		m.pindirs = writeBits(m.pindirs, m.cfg.OutBase, m.cfg.OutCount, data)
	case pio.OutDestPC:
		m.pc = uint8(data) & 0x1f
		jumped = true
	}
	// The OSR is refilled as soon as the threshold is reached.
	if m.cfg.AutoPull && m.osrCount >= m.thresh {
		m.refill()
	}
	return jumped, false
}

func (m *Machine) shiftOut(count uint8) uint32 {
	var data uint32
	if count == 32 {
		data = m.osr
		m.osr = 0
	} else if m.cfg.OutShiftRight {
		data = m.osr & (1<<count - 1)
		m.osr >>= count
	} else {
		data = m.osr >> (32 - count)
		m.osr <<= count
	}
	m.osrCount += count
	if m.osrCount > 32 {
		m.osrCount = 32
	}
	return data
}

func (m *Machine) refill() bool {
	if m.src == nil {
		return false
	}
	word, ok := m.src.TryPop()
	if !ok {
		return false
	}
	m.osr = word
	m.osrCount = 0
	return true
}

func (m *Machine) pull(ifEmpty, block bool) (stalled bool) {
	if ifEmpty && m.osrCount < m.thresh {
		return false
	}
	if m.cfg.AutoPull && m.osrCount < m.thresh {
		// A pull of a full OSR is a no-op when autopull is enabled.
		return false
	}
	if m.refill() {
		return false
	}
	if block {
		return true
	}
	m.osr = m.x
	m.osrCount = 0
	return false
}

func (m *Machine) mov(dest pio.MovDest, src pio.MovSrc, op uint8) (jumped bool) {
	var v uint32
	switch src {
	case pio.MovSrcPins:
		v = m.pins
	case pio.MovSrcX:
		v = m.x
	case pio.MovSrcY:
		v = m.y
	case pio.MovSrcOSR:
		v = m.osr
	}
	switch op {
	case 1:
		v = ^v
	case 2:
		v = bits.Reverse32(v)
	}
	switch dest {
	case pio.MovDestPins:
		m.writePins(m.cfg.OutBase, m.cfg.OutCount, v)
	case pio.MovDestX:
		m.x = v
	case pio.MovDestY:
		m.y = v
	case pio.MovDestOSR:
		m.osr = v
		m.osrCount = 0
	case pio.MovDestPC:
		m.pc = uint8(v) & 0x1f
		return true
	}
	return false
}

func (m *Machine) writePins(base, count uint8, value uint32) {
	m.pins = writeBits(m.pins, base, count, value)
}

func writeBits(reg uint32, base, count uint8, value uint32) uint32 {
	for i := uint8(0); i < count; i++ {
		pin := (base + i) % 32
		if value&(1<<i) != 0 {
			reg |= 1 << pin
		} else {
			reg &^= 1 << pin
		}
	}
	return reg
}

func (m *Machine) record() {
	m.trace.add(m.Pin(m.cfg.TracePin), 1)
}

// PC returns the address of the next instruction relative to the program start.
func (m *Machine) PC() uint8 { return m.pc }

// Current returns the address of the instruction executing, stalling or
// delaying in the last cycle.
func (m *Machine) Current() uint8 { return m.cur }

// X returns the scratch register X.
func (m *Machine) X() uint32 { return m.x }

// Y returns the scratch register Y.
func (m *Machine) Y() uint32 { return m.y }

// OSRCount returns the number of bits shifted out since the last pull. 32 means empty.
func (m *Machine) OSRCount() uint8 { return m.osrCount }

// Stalled reports whether the last executed cycle stalled.
func (m *Machine) Stalled() bool { return m.stalled }

// Delaying reports whether the machine is idling in an instruction delay.
func (m *Machine) Delaying() bool { return m.delay > 0 }

// Ticks returns the number of cycles executed since creation.
func (m *Machine) Ticks() uint64 { return m.ticks }

// Pins returns the output levels of the pin bank.
func (m *Machine) Pins() uint32 { return m.pins }

// Pindirs returns the pin directions set by the program.
func (m *Machine) Pindirs() uint32 { return m.pindirs }

// Pin returns the level of a single pin.
func (m *Machine) Pin(n uint8) bool { return m.pins&(1<<(n%32)) != 0 }

// Trace returns a copy of the recorded trace.
func (m *Machine) Trace() Trace {
	return Trace{Spans: append([]Span(nil), m.trace.Spans...)}
}

// TakeTrace returns the recorded trace and starts a new one.
func (m *Machine) TakeTrace() Trace {
	t := m.trace
	m.trace = Trace{}
	return t
}
