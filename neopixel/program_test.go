package neopixel

import "testing"

func TestProgramWords(t *testing.T) {
	for _, test := range []struct {
		cycles Cycles
		want   []uint16
	}{
		// pico-sdk ws2812 program, T1=2 T2=5 T3=3.
		{Cycles{T1: 2, T2: 5, T3: 3}, []uint16{0x6221, 0x1123, 0x1400, 0xa442}},
		{DefaultCycles, []uint16{0x6321, 0x1223, 0x1200, 0xa242}},
	} {
		prog := Program(test.cycles)
		if err := prog.Validate(); err != nil {
			t.Fatal(err)
		}
		if prog.SidesetBits != 1 || prog.WrapTarget != 0 || prog.Wrap != 3 || prog.Origin != -1 {
			t.Errorf("%+v: bad program header %+v", test.cycles, prog)
		}
		for i, w := range test.want {
			if prog.Instructions[i] != w {
				t.Errorf("%+v: instr %d mismatch got!=expected: %#x != %#x", test.cycles, i, prog.Instructions[i], w)
			}
		}
	}
}
