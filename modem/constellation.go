// Package modem implements the OFDM physical layer: Gray-coded square
// QAM mapping and a single-symbol OFDM modulate/demodulate pipeline
// (subcarrier assignment, inverse/forward DFT, cyclic prefix).
package modem

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidOrder reports a QAM order that is not a perfect
	// square of a power of two (4, 16, 64, ...).
	ErrInvalidOrder = errors.New("invalid QAM order")

	// ErrBlockLength reports a bit group or symbol block whose
	// length does not match the configured size.
	ErrBlockLength = errors.New("block length mismatch")
)

// Constellation maps fixed-width bit groups onto a square QAM
// constellation normalized to unit average energy. The I and Q level
// indices are binary-reflected Gray coded, so nearest constellation
// neighbors differ by exactly one bit.
type Constellation struct {
	order int
	side  int     // levels per axis, sqrt(order)
	bits  int     // bits per symbol, log2(order)
	scale float64 // normalization to unit average energy
}

// NewConstellation builds a constellation of the given order. The order
// must be a perfect square of a power of two; anything else is a
// configuration error.
func NewConstellation(order int) (*Constellation, error) {
	if order < 4 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidOrder, order)
	}
	side := int(math.Round(math.Sqrt(float64(order))))
	if side*side != order || side&(side-1) != 0 {
		return nil, fmt.Errorf("%w: %d is not a square power of two", ErrInvalidOrder, order)
	}

	// Average energy of the unnormalized +-1, +-3, ... grid is
	// 2(side^2-1)/3, so 4-QAM lands on (+-1/sqrt2, +-1/sqrt2).
	avg := 2 * float64(side*side-1) / 3
	return &Constellation{
		order: order,
		side:  side,
		bits:  bitsFor(order),
		scale: 1 / math.Sqrt(avg),
	}, nil
}

// Order returns the constellation order.
func (c *Constellation) Order() int { return c.order }

// BitsPerSymbol returns the payload width of one constellation symbol.
func (c *Constellation) BitsPerSymbol() int { return c.bits }

// Map places one bit group (one bit per byte, MSB first, the high half
// selecting the I level and the low half the Q level) onto its
// constellation point.
func (c *Constellation) Map(bits []byte) (complex128, error) {
	if len(bits) != c.bits {
		return 0, fmt.Errorf("%w: got %d bits, want %d", ErrBlockLength, len(bits), c.bits)
	}
	half := c.bits / 2
	i := c.levelFromGray(bitsToUint(bits[:half]))
	q := c.levelFromGray(bitsToUint(bits[half:]))
	return complex(i, q), nil
}

// Demap performs the nearest-point decision consistent with Map:
// Demap(Map(b)) == b exactly for every valid bit group.
func (c *Constellation) Demap(symbol complex128) []byte {
	half := c.bits / 2
	bits := make([]byte, c.bits)
	uintToBits(c.grayFromLevel(real(symbol)), bits[:half])
	uintToBits(c.grayFromLevel(imag(symbol)), bits[half:])
	return bits
}

// MapBlock maps a run of bit groups to a symbol block.
func (c *Constellation) MapBlock(bits []byte) ([]complex128, error) {
	if len(bits)%c.bits != 0 {
		return nil, fmt.Errorf("%w: %d bits is not a multiple of %d", ErrBlockLength, len(bits), c.bits)
	}
	symbols := make([]complex128, len(bits)/c.bits)
	for i := range symbols {
		s, err := c.Map(bits[i*c.bits : (i+1)*c.bits])
		if err != nil {
			return nil, err
		}
		symbols[i] = s
	}
	return symbols, nil
}

// DemapBlock demaps a symbol block back to bits.
func (c *Constellation) DemapBlock(symbols []complex128) []byte {
	bits := make([]byte, 0, len(symbols)*c.bits)
	for _, s := range symbols {
		bits = append(bits, c.Demap(s)...)
	}
	return bits
}

// levelFromGray converts a Gray-coded axis index to its normalized
// amplitude level.
func (c *Constellation) levelFromGray(gray uint) float64 {
	pos := grayToBinary(gray)
	return float64(2*int(pos)-c.side+1) * c.scale
}

// grayFromLevel quantizes a received amplitude to the nearest axis
// position and returns its Gray code. Positions are clamped so
// arbitrarily noisy samples still decide to an edge level.
func (c *Constellation) grayFromLevel(level float64) uint {
	pos := int(math.Round((level/c.scale + float64(c.side) - 1) / 2))
	if pos < 0 {
		pos = 0
	}
	if pos > c.side-1 {
		pos = c.side - 1
	}
	return binaryToGray(uint(pos))
}

func binaryToGray(b uint) uint { return b ^ (b >> 1) }

func grayToBinary(g uint) uint {
	b := g
	for s := g >> 1; s > 0; s >>= 1 {
		b ^= s
	}
	return b
}

func bitsFor(order int) int {
	n := 0
	for v := order; v > 1; v >>= 1 {
		n++
	}
	return n
}

func bitsToUint(bits []byte) uint {
	var v uint
	for _, b := range bits {
		v = v<<1 | uint(b&1)
	}
	return v
}

func uintToBits(v uint, dst []byte) {
	for i := len(dst) - 1; i >= 0; i-- {
		dst[i] = byte(v & 1)
		v >>= 1
	}
}
