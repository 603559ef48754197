//go:build rp2350

package piolib

import pio "github.com/tinygo-org/neopio/rp2-pio"

// DMA register layout differs on the RP2350 and is not driven yet; writes
// fall back to FIFO pushes.
// TODO: port dma.go to the RP2350 DMA block (16 channels, DREQ PIO2 at 0x10).
type dmaChannel struct {
	dl deadliner
}

func claimDMAChannel() (dmaChannel, bool) { return dmaChannel{}, false }

func (ch *dmaChannel) IsValid() bool { return false }

func (ch *dmaChannel) Unclaim() {}

func dmaPIO_TxDREQ(sm pio.StateMachine) uint32 { return 0 }

func (ch *dmaChannel) Push32(dst *uint32, src []uint32, dreq uint32) error {
	return errDMAUnavail
}
