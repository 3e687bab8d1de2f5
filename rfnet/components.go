package rfnet

import (
	"fmt"
	"math"

	"github.com/signalsfoundry/rfsim/units"
)

// Source is a constant-power generator with a single port "out". It
// drives an amplitude of magnitude sqrt(power) under the normalized
// impedance convention (1 W drive has magnitude 1) and never reads its
// incoming value.
type Source struct {
	id     string
	powerW float64
	freqHz float64
	polDeg float64
	out    *Port
}

// NewSource builds a source. Power and frequency must be positive.
func NewSource(id string, powerW, freqHz, polDeg float64) (*Source, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: empty source ID", ErrBadParameter)
	}
	if powerW <= 0 || math.IsInf(powerW, 0) {
		return nil, fmt.Errorf("%w: source %q power %g W", ErrBadParameter, id, powerW)
	}
	if freqHz <= 0 || math.IsInf(freqHz, 0) {
		return nil, fmt.Errorf("%w: source %q frequency %g Hz", ErrBadParameter, id, freqHz)
	}
	s := &Source{id: id, powerW: powerW, freqHz: freqHz, polDeg: polDeg}
	s.out = newPort(s, "out")
	return s, nil
}

func (s *Source) ID() string     { return s.id }
func (s *Source) Ports() []*Port { return []*Port{s.out} }

// Out returns the source's single port.
func (s *Source) Out() *Port { return s.out }

// Frequency returns the carrier frequency in Hz.
func (s *Source) Frequency() float64 { return s.freqHz }

func (s *Source) PolarizationDegrees() float64 { return s.polDeg }

func (s *Source) Respond() {
	s.out.SetDriven(complex(math.Sqrt(s.powerW), 0))
}

// Antenna scales amplitudes by sqrt(gain) between its electrical port
// "feed" and its radiated port "air". The scale factor is identical in
// both directions (reciprocity).
type Antenna struct {
	id      string
	gainDbi float64
	polDeg  float64
	scale   float64
	feed    *Port
	air     *Port
}

// NewAntenna builds an antenna from its gain in dBi and polarization
// angle in degrees. Gains whose linear amplitude factor is not finite
// are rejected.
func NewAntenna(id string, gainDbi, polDeg float64) (*Antenna, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: empty antenna ID", ErrBadParameter)
	}
	scale := math.Sqrt(units.DbiToLinear(gainDbi))
	if math.IsInf(scale, 0) || math.IsNaN(scale) {
		return nil, fmt.Errorf("%w: antenna %q gain %g dBi yields non-finite scale", ErrBadParameter, id, gainDbi)
	}
	a := &Antenna{id: id, gainDbi: gainDbi, polDeg: polDeg, scale: scale}
	a.feed = newPort(a, "feed")
	a.air = newPort(a, "air")
	return a, nil
}

func (a *Antenna) ID() string     { return a.id }
func (a *Antenna) Ports() []*Port { return []*Port{a.feed, a.air} }

// Feed returns the electrical-side port.
func (a *Antenna) Feed() *Port { return a.feed }

// Air returns the radiated-side port.
func (a *Antenna) Air() *Port { return a.air }

// AmplitudeScale returns sqrt(linear gain), the factor applied in both
// directions.
func (a *Antenna) AmplitudeScale() float64 { return a.scale }

func (a *Antenna) PolarizationDegrees() float64 { return a.polDeg }

func (a *Antenna) Respond() {
	k := complex(a.scale, 0)
	a.air.SetDriven(k * a.feed.Incoming())
	a.feed.SetDriven(k * a.air.Incoming())
}

// Channel models free-space propagation over a fixed distance between
// ports "a" and "b", scaling amplitudes by lambda/(4 pi d) symmetrically
// in both directions. Squared, this is the Friis path-loss factor.
type Channel struct {
	id        string
	distanceM float64
	freqHz    float64 // 0 = inherit from the topology's source
	scale     float64
	a         *Port
	b         *Port
}

// NewChannel builds a channel. Distance must be positive. A zero
// frequency defers to the topology's source frequency, fixed and
// validated before the first resolution pass; a negative or infinite
// frequency is rejected immediately.
func NewChannel(id string, distanceM, freqHz float64) (*Channel, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: empty channel ID", ErrBadParameter)
	}
	if distanceM <= 0 || math.IsInf(distanceM, 0) {
		return nil, fmt.Errorf("%w: channel %q distance %g m", ErrBadParameter, id, distanceM)
	}
	if freqHz < 0 || math.IsInf(freqHz, 0) {
		return nil, fmt.Errorf("%w: channel %q frequency %g Hz", ErrBadParameter, id, freqHz)
	}
	ch := &Channel{id: id, distanceM: distanceM, freqHz: freqHz}
	if freqHz > 0 {
		if err := ch.setScale(freqHz); err != nil {
			return nil, err
		}
	}
	ch.a = newPort(ch, "a")
	ch.b = newPort(ch, "b")
	return ch, nil
}

func (ch *Channel) ID() string     { return ch.id }
func (ch *Channel) Ports() []*Port { return []*Port{ch.a, ch.b} }

// A returns the channel's first port.
func (ch *Channel) A() *Port { return ch.a }

// B returns the channel's second port.
func (ch *Channel) B() *Port { return ch.b }

// AmplitudeScale returns the one-way path-loss amplitude factor. It is
// zero until a deferred frequency has been fixed by Resolve.
func (ch *Channel) AmplitudeScale() float64 { return ch.scale }

func (ch *Channel) Respond() {
	k := complex(ch.scale, 0)
	ch.b.SetDriven(k * ch.a.Incoming())
	ch.a.SetDriven(k * ch.b.Incoming())
}

func (ch *Channel) setScale(freqHz float64) error {
	scale := units.PathLossAmplitude(ch.distanceM, freqHz)
	if scale <= 0 || math.IsInf(scale, 0) || math.IsNaN(scale) {
		return fmt.Errorf("%w: channel %q path loss at %g Hz over %g m is non-finite", ErrBadParameter, ch.id, freqHz, ch.distanceM)
	}
	ch.scale = scale
	return nil
}
