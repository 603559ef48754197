package pio

import (
	"testing"
)

func TestAssemblerV0_ws2812(t *testing.T) {
	assm := AssemblerV0{
		SidesetBits: 1,
	}
	const (
		// T1=2, T2=5, T3=3 as in the pico-sdk example.
		t1, t2, t3 = 2, 5, 3

		bitloopOff = 0
		doZeroOff  = 3
	)

	var program = []uint16{
		//     .wrap_target
		bitloopOff:// Shift one bit into X, line low.
		assm.Out(OutDestX, 1).Side(0).Delay(t3 - 1).Encode(), //  0: out    x, 1            side 0 [2]
		assm.Jmp(doZeroOff, JmpXZero).Side(1).Delay(t1 - 1).Encode(), //  1: jmp    !x, 3           side 1 [1]
		assm.Jmp(bitloopOff, JmpAlways).Side(1).Delay(t2 - 1).Encode(), //  2: jmp    0               side 1 [4]
		doZeroOff:// Zero bit ends early.
		assm.Nop().Side(0).Delay(t2 - 1).Encode(), //  3: nop                    side 0 [4]
		//     .wrap
	}
	var expectedProgram = []uint16{
		0x6221, //  0: out    x, 1            side 0 [2]
		0x1123, //  1: jmp    !x, 3           side 1 [1]
		0x1400, //  2: jmp    0               side 1 [4]
		0xa442, //  3: nop                    side 0 [4]
	}

	for i := range program {
		if program[i] != expectedProgram[i] {
			t.Errorf("instr %d mismatch got!=expected: %#x != %#x", i, program[i], expectedProgram[i])
		}
	}
}

func TestAssemblerV0_encodings(t *testing.T) {
	side := AssemblerV0{SidesetBits: 1}
	plain := AssemblerV0{}
	for _, test := range []struct {
		name string
		got  uint16
		want uint16
	}{
		{"out pins, 1 side 0", side.Out(OutDestPins, 1).Side(0).Encode(), 0x6001},
		{"jmp x--, 0 side 1", side.Jmp(0, JmpXNZeroDec).Side(1).Encode(), 0x1040},
		{"jmp !y, 7 side 0", side.Jmp(7, JmpYZero).Side(0).Encode(), 0x0067},
		{"set pindirs, 0 side 0", side.Set(SetDestPindirs, 0).Side(0).Encode(), 0xe080},
		{"in pins, 1 side 1", side.In(InSrcPins, 1).Side(1).Encode(), 0x5001},
		{"wait 1 pin, 0", side.WaitPin(true, 0).Encode(), 0x20a0},
		{"irq nowait 0", side.IRQSet(false, 0).Encode(), 0xc000},
		{"pull block", plain.Pull(false, true).Encode(), 0x80a0},
		{"out x, 32", plain.Out(OutDestX, 32).Encode(), 0x6020},
		{"mov x, osr", plain.Mov(MovDestX, MovSrcOSR).Encode(), 0xa027},
		{"set pins, 1 [1]", plain.Set(SetDestPins, 1).Delay(1).Encode(), 0xe101},
		{"out pins, 1 [31]", plain.Out(OutDestPins, 1).Delay(31).Encode(), 0x7f01},
		{"nop", plain.Nop().Encode(), 0xa042},
	} {
		if test.got != test.want {
			t.Errorf("%s: got %#04x, want %#04x", test.name, test.got, test.want)
		}
	}
}

func TestEncodeHelpers(t *testing.T) {
	if got := EncodeJmp(5, JmpAlways); got != 0x0005 {
		t.Errorf("EncodeJmp: got %#04x", got)
	}
	if got := EncodeSetPins(true, 1); got != 0xe081 {
		t.Errorf("EncodeSetPins(pindirs): got %#04x", got)
	}
	if got := EncodeSetPins(false, 0); got != 0xe000 {
		t.Errorf("EncodeSetPins(pins): got %#04x", got)
	}
}

func TestKind(t *testing.T) {
	asm := AssemblerV0{SidesetBits: 1}
	if k := Kind(asm.Out(OutDestX, 1).Side(0).Encode()); k != InstrOUT {
		t.Errorf("want OUT, got %d", k)
	}
	if k := Kind(asm.Nop().Side(1).Encode()); k != InstrMOV {
		t.Errorf("want MOV, got %d", k)
	}
	if !IsJmp(asm.Jmp(3, JmpXZero).Side(1).Encode()) {
		t.Error("jmp not detected")
	}
	if IsJmp(asm.Pull(false, true).Side(0).Encode()) {
		t.Error("pull detected as jmp")
	}
}

func TestMaxDelay(t *testing.T) {
	if d := (AssemblerV0{}).MaxDelay(); d != 31 {
		t.Errorf("no side-set: got %d", d)
	}
	if d := (AssemblerV0{SidesetBits: 1}).MaxDelay(); d != 15 {
		t.Errorf("1 side-set bit: got %d", d)
	}
	defer func() {
		if recover() == nil {
			t.Error("expected panic for delay overflowing side-set field")
		}
	}()
	AssemblerV0{SidesetBits: 1}.Nop().Delay(16)
}
