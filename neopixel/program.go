package neopixel

import pio "github.com/tinygo-org/neopio/rp2-pio"

// Program addresses.
const (
	addrBitLoop = 0 // out x, 1       side 0 [T3-1]
	addrBranch  = 1 // jmp !x, doZero side 1 [T1-1]
	addrDoOne   = 2 // jmp bitloop    side 1 [T2-1]
	addrDoZero  = 3 // nop            side 0 [T2-1]
)

// Program assembles the LED program for the given phase split. One side-set
// bit drives the data pin, X holds the bit being sent:
//
//	.side_set 1
//	.wrap_target
//	bitloop:
//	    out x, 1       side 0 [T3 - 1] ; stalls here when the FIFO is empty
//	    jmp !x do_zero side 1 [T1 - 1]
//	do_one:
//	    jmp bitloop    side 1 [T2 - 1]
//	do_zero:
//	    nop            side 0 [T2 - 1]
//	.wrap
//
// Cycles must have been validated: each phase is 1..16.
func Program(c Cycles) pio.Program {
	asm := pio.AssemblerV0{SidesetBits: 1}
	return pio.Program{
		Instructions: []uint16{
			addrBitLoop: asm.Out(pio.OutDestX, 1).Side(0).Delay(c.T3 - 1).Encode(),
			addrBranch:  asm.Jmp(addrDoZero, pio.JmpXZero).Side(1).Delay(c.T1 - 1).Encode(),
			addrDoOne:   asm.Jmp(addrBitLoop, pio.JmpAlways).Side(1).Delay(c.T2 - 1).Encode(),
			addrDoZero:  asm.Nop().Side(0).Delay(c.T2 - 1).Encode(),
		},
		Origin:      -1,
		WrapTarget:  addrBitLoop,
		Wrap:        addrDoZero,
		SidesetBits: 1,
	}
}
