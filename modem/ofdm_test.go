package modem

import (
	"errors"
	"math"
	"math/cmplx"
	"math/rand"
	"testing"
)

// carrierRange returns [lo, hi) as an index list.
func carrierRange(lo, hi int) []int {
	idx := make([]int, 0, hi-lo)
	for i := lo; i < hi; i++ {
		idx = append(idx, i)
	}
	return idx
}

// wlanLikeConfig is a 64-point layout with 48 data carriers split
// around a guard band, QPSK-friendly.
func wlanLikeConfig() Config {
	return Config{
		FFTSize:      64,
		CyclicPrefix: 16,
		DataCarriers: append(carrierRange(1, 25), carrierRange(40, 64)...),
	}
}

func TestConfigValidation(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
	}{
		{"zero FFT size", Config{FFTSize: 0, DataCarriers: []int{1}}},
		{"prefix too long", Config{FFTSize: 64, CyclicPrefix: 64, DataCarriers: []int{1}}},
		{"negative prefix", Config{FFTSize: 64, CyclicPrefix: -1, DataCarriers: []int{1}}},
		{"no carriers", Config{FFTSize: 64}},
		{"DC carrier", Config{FFTSize: 64, DataCarriers: []int{0, 1}}},
		{"out of range", Config{FFTSize: 64, DataCarriers: []int{1, 64}}},
		{"duplicate", Config{FFTSize: 64, DataCarriers: []int{1, 2, 1}}},
		{"too many carriers", Config{FFTSize: 4, DataCarriers: []int{1, 2, 3, 1}}},
	}
	for _, c := range cases {
		if _, err := New(c.cfg); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("%s: err = %v, want ErrInvalidConfig", c.name, err)
		}
	}
}

func TestRoundTripIdentity(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	configs := []Config{
		wlanLikeConfig(),
		{FFTSize: 128, CyclicPrefix: 0, DataCarriers: carrierRange(1, 100)},
		{FFTSize: 256, CyclicPrefix: 32, DataCarriers: append(carrierRange(2, 120), carrierRange(130, 250)...)},
	}

	for _, cfg := range configs {
		m, err := New(cfg)
		if err != nil {
			t.Fatalf("New(%+v): %v", cfg, err)
		}

		data := make([]complex128, m.NumDataCarriers())
		for i := range data {
			phase := 2 * math.Pi * rng.Float64()
			data[i] = cmplx.Rect(1, phase)
		}

		frame, err := m.Modulate(data)
		if err != nil {
			t.Fatalf("Modulate: %v", err)
		}
		if len(frame) != m.SymbolLen() {
			t.Fatalf("frame length %d, want %d", len(frame), m.SymbolLen())
		}

		got, err := m.Demodulate(frame)
		if err != nil {
			t.Fatalf("Demodulate: %v", err)
		}
		for i := range data {
			if e := cmplx.Abs(got[i] - data[i]); e > 1e-10 {
				t.Fatalf("FFT size %d carrier %d: round-trip error %g", cfg.FFTSize, i, e)
			}
		}
	}
}

// The cyclic prefix must be a copy of the frame tail.
func TestCyclicPrefixStructure(t *testing.T) {
	m, err := New(wlanLikeConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	data := make([]complex128, m.NumDataCarriers())
	for i := range data {
		data[i] = complex(1, 0)
	}
	frame, err := m.Modulate(data)
	if err != nil {
		t.Fatalf("Modulate: %v", err)
	}

	cp := m.cfg.CyclicPrefix
	body := frame[cp:]
	for i := 0; i < cp; i++ {
		if frame[i] != body[len(body)-cp+i] {
			t.Fatalf("prefix sample %d does not match frame tail", i)
		}
	}
}

func TestInactiveBinsExactlyZero(t *testing.T) {
	cfg := wlanLikeConfig()
	m, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	data := make([]complex128, m.NumDataCarriers())
	for i := range data {
		data[i] = complex(0.3, -0.7)
	}

	active := make(map[int]bool)
	for _, idx := range cfg.DataCarriers {
		active[idx] = true
	}

	spectrum := m.buildSpectrum(data)
	for idx, v := range spectrum {
		if active[idx] {
			if v != data[0] {
				t.Errorf("active bin %d = %v, want %v", idx, v, data[0])
			}
		} else if v != 0 {
			t.Errorf("inactive bin %d = %v, want exactly 0", idx, v)
		}
	}
	if spectrum[0] != 0 {
		t.Error("DC bin carries energy")
	}
}

func TestBlockLengthErrors(t *testing.T) {
	m, err := New(wlanLikeConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := m.Modulate(make([]complex128, 3)); !errors.Is(err, ErrBlockLength) {
		t.Errorf("Modulate short block err = %v, want ErrBlockLength", err)
	}
	if _, err := m.Demodulate(make([]complex128, 10)); !errors.Is(err, ErrBlockLength) {
		t.Errorf("Demodulate short frame err = %v, want ErrBlockLength", err)
	}
}

// QPSK across 48 data subcarriers, cycling the four bit patterns, an
// ideal (identity) channel, and back: zero bit errors, IQ error under
// 1e-10.
func TestOFDMEndToEndQPSK(t *testing.T) {
	m, err := New(wlanLikeConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if m.NumDataCarriers() != 48 {
		t.Fatalf("NumDataCarriers = %d, want 48", m.NumDataCarriers())
	}

	qpsk, err := NewConstellation(4)
	if err != nil {
		t.Fatalf("NewConstellation: %v", err)
	}

	txBits := make([]byte, 0, 48*2)
	for k := 0; k < 48; k++ {
		p := k % 4
		txBits = append(txBits, byte(p>>1), byte(p&1))
	}
	txSymbols, err := qpsk.MapBlock(txBits)
	if err != nil {
		t.Fatalf("MapBlock: %v", err)
	}

	frame, err := m.Modulate(txSymbols)
	if err != nil {
		t.Fatalf("Modulate: %v", err)
	}
	rxSymbols, err := m.Demodulate(frame)
	if err != nil {
		t.Fatalf("Demodulate: %v", err)
	}

	for i := range txSymbols {
		if e := cmplx.Abs(rxSymbols[i] - txSymbols[i]); e > 1e-10 {
			t.Fatalf("carrier %d IQ error %g exceeds 1e-10", i, e)
		}
	}

	rxBits := qpsk.DemapBlock(rxSymbols)
	if errs := hamming(txBits, rxBits); errs != 0 {
		t.Fatalf("%d bit errors across 48 subcarriers, want 0", errs)
	}
}
