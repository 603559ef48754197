package pio

import (
	"errors"
	"testing"
)

func testProgram(n int) Program {
	asm := AssemblerV0{}
	prog := Program{Origin: -1, Wrap: uint8(n - 1)}
	for i := 0; i < n; i++ {
		prog.Instructions = append(prog.Instructions, asm.Nop().Encode())
	}
	return prog
}

func TestProgramValidate(t *testing.T) {
	if err := testProgram(4).Validate(); err != nil {
		t.Fatal(err)
	}
	if err := (Program{Origin: -1}).Validate(); !errors.Is(err, ErrEmptyProgram) {
		t.Errorf("empty: got %v", err)
	}
	if err := testProgram(33).Validate(); !errors.Is(err, ErrProgramTooLong) {
		t.Errorf("too long: got %v", err)
	}
	bad := testProgram(4)
	bad.Wrap = 4
	if err := bad.Validate(); !errors.Is(err, ErrBadWrap) {
		t.Errorf("wrap: got %v", err)
	}
	bad = testProgram(4)
	bad.WrapTarget, bad.Wrap = 3, 2
	if err := bad.Validate(); !errors.Is(err, ErrBadWrap) {
		t.Errorf("wrap target: got %v", err)
	}
	fixed := testProgram(4)
	fixed.Origin = 30
	if err := fixed.Validate(); !errors.Is(err, ErrProgramTooLong) {
		t.Errorf("origin: got %v", err)
	}
}

func TestProgramRelocated(t *testing.T) {
	asm := AssemblerV0{SidesetBits: 1}
	prog := Program{
		Instructions: []uint16{
			asm.Out(OutDestX, 1).Side(0).Encode(),
			asm.Jmp(3, JmpXZero).Side(1).Encode(),
			asm.Jmp(0, JmpAlways).Side(1).Encode(),
			asm.Nop().Side(0).Encode(),
		},
		Origin: -1,
		Wrap:   3,
	}
	got := prog.Relocated(28)
	want := []uint16{prog.Instructions[0], 0x1020 | 31, 0x1000 | 28, prog.Instructions[3]}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("instr %d: got %#04x, want %#04x", i, got[i], want[i])
		}
	}
	// Source is unchanged.
	if prog.Instructions[1] != 0x1023 {
		t.Errorf("source modified: %#04x", prog.Instructions[1])
	}
}

func TestAllocator(t *testing.T) {
	var a Allocator
	four := testProgram(4)
	off := a.Find(four)
	if off != 28 {
		t.Fatalf("first program placed at %d, want 28", off)
	}
	a.Claim(four, uint8(off))
	if off = a.Find(four); off != 24 {
		t.Fatalf("second program placed at %d, want 24", off)
	}
	a.Claim(four, uint8(off))
	if a.Used() != 0xff000000 {
		t.Fatalf("used mask %#08x", a.Used())
	}
	if a.CanAddAt(four, 26) {
		t.Error("overlap accepted")
	}

	fixed := testProgram(2)
	fixed.Origin = 0
	if a.Find(fixed) != 0 {
		t.Error("fixed origin not honoured")
	}
	if a.CanAddAt(fixed, 2) {
		t.Error("fixed program accepted at other offset")
	}

	a.Release(28, 4)
	if a.Used() != 0x0f000000 {
		t.Fatalf("after release %#08x", a.Used())
	}

	full := testProgram(32)
	if a.Find(full) != -1 {
		t.Error("full program should not fit")
	}
	a.Release(0, 32)
	if a.Find(full) != 0 {
		t.Error("full program should fit empty memory")
	}
}
