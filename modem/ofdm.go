package modem

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig reports an OFDM configuration error detected at
// construction time.
var ErrInvalidConfig = errors.New("invalid OFDM configuration")

// Config fixes one OFDM transform configuration: FFT size, cyclic
// prefix length, and the ordered list of active data-subcarrier
// indices. DC (index 0) and any index outside the active list carry no
// payload and stay exactly zero in the frequency-domain frame.
type Config struct {
	FFTSize      int
	CyclicPrefix int

	// DataCarriers lists the active subcarrier indices in the order
	// data symbols are placed and read back.
	DataCarriers []int
}

func (c Config) validate() error {
	if c.FFTSize <= 0 {
		return fmt.Errorf("%w: FFT size %d", ErrInvalidConfig, c.FFTSize)
	}
	if c.CyclicPrefix < 0 || c.CyclicPrefix >= c.FFTSize {
		return fmt.Errorf("%w: cyclic prefix %d outside [0,%d)", ErrInvalidConfig, c.CyclicPrefix, c.FFTSize)
	}
	if len(c.DataCarriers) == 0 {
		return fmt.Errorf("%w: no data subcarriers", ErrInvalidConfig)
	}
	if len(c.DataCarriers) >= c.FFTSize {
		return fmt.Errorf("%w: %d data subcarriers for FFT size %d", ErrInvalidConfig, len(c.DataCarriers), c.FFTSize)
	}
	seen := make(map[int]bool, len(c.DataCarriers))
	for _, idx := range c.DataCarriers {
		switch {
		case idx == 0:
			return fmt.Errorf("%w: DC subcarrier cannot carry data", ErrInvalidConfig)
		case idx < 0 || idx >= c.FFTSize:
			return fmt.Errorf("%w: subcarrier index %d outside [0,%d)", ErrInvalidConfig, idx, c.FFTSize)
		case seen[idx]:
			return fmt.Errorf("%w: duplicate subcarrier index %d", ErrInvalidConfig, idx)
		}
		seen[idx] = true
	}
	return nil
}

// Modem performs single-symbol OFDM modulation and demodulation for a
// fixed Config. Methods are safe for concurrent use.
type Modem struct {
	cfg Config
	tf  *transform
}

// New validates cfg and builds a Modem with a cached FFT plan.
func New(cfg Config) (*Modem, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	carriers := make([]int, len(cfg.DataCarriers))
	copy(carriers, cfg.DataCarriers)
	cfg.DataCarriers = carriers
	return &Modem{cfg: cfg, tf: newTransform(cfg.FFTSize)}, nil
}

// NumDataCarriers returns the data block length D.
func (m *Modem) NumDataCarriers() int { return len(m.cfg.DataCarriers) }

// SymbolLen returns the time-domain frame length F+C.
func (m *Modem) SymbolLen() int { return m.cfg.FFTSize + m.cfg.CyclicPrefix }

// Modulate turns a block of D data symbols into one cyclic-prefixed
// time-domain OFDM frame of length F+C.
func (m *Modem) Modulate(data []complex128) ([]complex128, error) {
	if len(data) != len(m.cfg.DataCarriers) {
		return nil, fmt.Errorf("%w: got %d data symbols, want %d", ErrBlockLength, len(data), len(m.cfg.DataCarriers))
	}

	td := m.tf.Inverse(m.buildSpectrum(data))

	out := make([]complex128, 0, m.SymbolLen())
	out = append(out, td[m.cfg.FFTSize-m.cfg.CyclicPrefix:]...)
	out = append(out, td...)
	return out, nil
}

// Demodulate strips the cyclic prefix from an F+C frame, transforms it
// back to the frequency domain, and reads the active bins in the same
// order Modulate placed them.
func (m *Modem) Demodulate(frame []complex128) ([]complex128, error) {
	if len(frame) != m.SymbolLen() {
		return nil, fmt.Errorf("%w: got %d samples, want %d", ErrBlockLength, len(frame), m.SymbolLen())
	}

	spectrum := m.tf.Forward(frame[m.cfg.CyclicPrefix:])

	data := make([]complex128, len(m.cfg.DataCarriers))
	for k, idx := range m.cfg.DataCarriers {
		data[k] = spectrum[idx]
	}
	return data, nil
}

// buildSpectrum places data on the active bins of an otherwise zero
// frequency-domain frame.
func (m *Modem) buildSpectrum(data []complex128) []complex128 {
	spectrum := make([]complex128, m.cfg.FFTSize)
	for k, idx := range m.cfg.DataCarriers {
		spectrum[idx] = data[k]
	}
	return spectrum
}
