//go:build rp2040

package piolib

import (
	"device/rp"
	"runtime/volatile"
	"unsafe"

	pio "github.com/tinygo-org/neopio/rp2-pio"
)

type dmaChannel struct {
	hw      *dmaChannelHW
	channel uint8
	dl      deadliner
}

// Single DMA channel. See rp.DMA_Type.
type dmaChannelHW struct {
	READ_ADDR   volatile.Register32
	WRITE_ADDR  volatile.Register32
	TRANS_COUNT volatile.Register32
	CTRL_TRIG   volatile.Register32
	_           [12]volatile.Register32 // aliases
}

// DMA channels usable on the RP2040.
var dmaChannels = (*[12]dmaChannelHW)(unsafe.Pointer(rp.DMA))

// Channels 0 and 1 are statically assigned to SPI0 and SPI1 by the machine package.
const dmaReservedMask = 0b11

var dmaClaimedMask uint16 = dmaReservedMask

// claimDMAChannel returns the highest free DMA channel.
func claimDMAChannel() (dmaChannel, bool) {
	for ch := uint8(len(dmaChannels)) - 1; ch < uint8(len(dmaChannels)); ch-- {
		if dmaClaimedMask&(1<<ch) == 0 {
			dmaClaimedMask |= 1 << ch
			return dmaChannel{hw: &dmaChannels[ch], channel: ch}, true
		}
	}
	return dmaChannel{}, false
}

// IsValid returns true if the channel was claimed.
func (ch *dmaChannel) IsValid() bool { return ch.hw != nil }

// Unclaim aborts any transfer and releases the channel.
func (ch *dmaChannel) Unclaim() {
	if !ch.IsValid() {
		return
	}
	ch.abort()
	dmaClaimedMask &^= 1 << ch.channel
	ch.hw = nil
}

const (
	_DREQ_PIO0_TX0 = 0x0
	_DREQ_PIO1_TX0 = 0x8
)

// dmaPIO_TxDREQ returns the data request line paced by the TX FIFO of sm.
func dmaPIO_TxDREQ(sm pio.StateMachine) uint32 {
	base := uint32(_DREQ_PIO0_TX0)
	if sm.PIO().BlockIndex() == 1 {
		base = _DREQ_PIO1_TX0
	}
	return base + uint32(sm.StateMachineIndex())
}

type dmaTxSize uint32

const (
	dmaTxSize8 dmaTxSize = iota
	dmaTxSize16
	dmaTxSize32
)

type dmaChannelConfig struct {
	CTRL uint32
}

// Push32 writes each element of src into the memory location at dst, paced
// by dreq, and waits for the transfer to finish.
func (ch *dmaChannel) Push32(dst *uint32, src []uint32, dreq uint32) error {
	if len(src) == 0 {
		return nil
	}
	hw := ch.hw
	srcPtr := uint32(uintptr(unsafe.Pointer(&src[0])))
	dstPtr := uint32(uintptr(unsafe.Pointer(dst)))
	hw.READ_ADDR.Set(srcPtr)
	hw.WRITE_ADDR.Set(dstPtr)
	hw.TRANS_COUNT.Set(uint32(len(src)))
	// memfence
	var cc dmaChannelConfig
	cc.CTRL = hw.CTRL_TRIG.Get()
	cc.setTREQ_SEL(dreq)
	cc.setTransferDataSize(dmaTxSize32)
	cc.setChainTo(uint32(ch.channel))
	cc.setReadIncrement(true)
	cc.setWriteIncrement(false)
	cc.setEnable(true)

	hw.CTRL_TRIG.Set(cc.CTRL)

	dl := ch.dl.newDeadline()
	for ch.busy() {
		if dl.expired() {
			ch.abort()
			return errTimeout
		}
		gosched()
	}
	return nil
}

// abort aborts the current transfer sequence on the channel and blocks until
// all in-flight transfers have been flushed through the address and data FIFOs.
// After this, it is safe to restart the channel.
func (ch *dmaChannel) abort() {
	// Each bit corresponds to a channel. Writing a 1 aborts whatever transfer
	// sequence is in progress on that channel. The bit will remain high until
	// any in-flight transfers have been flushed through the address and data FIFOs.
	chMask := uint32(1 << ch.channel)
	rp.DMA.CHAN_ABORT.Set(chMask)
	for rp.DMA.CHAN_ABORT.Get()&chMask != 0 {
		gosched()
	}
}

func (ch *dmaChannel) busy() bool {
	return ch.hw.CTRL_TRIG.Get()&rp.DMA_CH0_CTRL_TRIG_BUSY != 0
}

// Select a Transfer Request signal. The channel uses the transfer request signal
// to pace its data transfer rate. 0x0 to 0x3a -> select DREQ n as TREQ
func (cc *dmaChannelConfig) setTREQ_SEL(dreq uint32) {
	cc.CTRL = (cc.CTRL & ^uint32(rp.DMA_CH0_CTRL_TRIG_TREQ_SEL_Msk)) | (uint32(dreq) << rp.DMA_CH0_CTRL_TRIG_TREQ_SEL_Pos)
}

func (cc *dmaChannelConfig) setChainTo(chainTo uint32) {
	cc.CTRL = (cc.CTRL & ^uint32(rp.DMA_CH0_CTRL_TRIG_CHAIN_TO_Msk)) | (chainTo << rp.DMA_CH0_CTRL_TRIG_CHAIN_TO_Pos)
}

func (cc *dmaChannelConfig) setTransferDataSize(size dmaTxSize) {
	cc.CTRL = (cc.CTRL & ^uint32(rp.DMA_CH0_CTRL_TRIG_DATA_SIZE_Msk)) | (uint32(size) << rp.DMA_CH0_CTRL_TRIG_DATA_SIZE_Pos)
}

func (cc *dmaChannelConfig) setReadIncrement(incr bool) {
	setBitPos(&cc.CTRL, rp.DMA_CH0_CTRL_TRIG_INCR_READ_Pos, incr)
}

func (cc *dmaChannelConfig) setWriteIncrement(incr bool) {
	setBitPos(&cc.CTRL, rp.DMA_CH0_CTRL_TRIG_INCR_WRITE_Pos, incr)
}

func (cc *dmaChannelConfig) setEnable(enable bool) {
	setBitPos(&cc.CTRL, rp.DMA_CH0_CTRL_TRIG_EN_Pos, enable)
}

func setBitPos(cc *uint32, pos uint32, bit bool) {
	if bit {
		*cc = *cc | (1 << pos)
	} else {
		*cc = *cc & ^(1 << pos) // unset bit.
	}
}
