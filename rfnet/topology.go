package rfnet

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/signalsfoundry/rfsim/internal/logging"
)

var (
	ErrComponentExists = errors.New("component already exists")
	ErrUnknownPort     = errors.New("unknown port")
	ErrPortConnected   = errors.New("port already connected")
	ErrBadParameter    = errors.New("invalid component parameter")
	ErrNoConvergence   = errors.New("resolution did not converge")
)

// Resolution loop configuration. Acyclic topologies settle in a single
// propagation pass plus one confirmation pass; the bound only matters
// for genuinely cyclic graphs.
const (
	DefaultMaxPasses = 64
	DefaultTolerance = 1e-12
)

// Topology owns a set of component instances and the nets connecting
// their ports. Components are immutable once added; only port values
// change, and only during Resolve. Safe for concurrent use, though a
// single topology resolves one pass at a time.
type Topology struct {
	mu         sync.Mutex
	components map[string]Component
	order      []Component // insertion order drives the propagation sweep
	nets       []*net

	// MaxPasses bounds the fixed-point iteration; Tolerance is the
	// residual below which port values count as stable. Zero values
	// fall back to the package defaults.
	MaxPasses int
	Tolerance float64

	// Logger receives per-pass debug output. Nil disables logging.
	Logger logging.Logger
}

// NewTopology returns an empty topology with default resolution limits.
func NewTopology() *Topology {
	return &Topology{
		components: make(map[string]Component),
		MaxPasses:  DefaultMaxPasses,
		Tolerance:  DefaultTolerance,
	}
}

// Add registers a component instance. IDs must be unique.
func (t *Topology) Add(c Component) error {
	if c == nil || c.ID() == "" {
		return fmt.Errorf("%w: nil or unnamed component", ErrBadParameter)
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.components[c.ID()]; exists {
		return fmt.Errorf("%w: %q", ErrComponentExists, c.ID())
	}
	t.components[c.ID()] = c
	t.order = append(t.order, c)
	return nil
}

// Component returns a registered component by ID, or nil.
func (t *Topology) Component(id string) Component {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.components[id]
}

// Components returns all components in insertion order.
func (t *Topology) Components() []Component {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Component, len(t.order))
	copy(out, t.order)
	return out
}

// Size returns the number of components and nets.
func (t *Topology) Size() (components, nets int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.order), len(t.nets)
}

// Port resolves a "component.port" reference.
func (t *Topology) Port(ref string) (*Port, error) {
	compID, portName, ok := strings.Cut(ref, ".")
	if !ok {
		return nil, fmt.Errorf("%w: %q is not component.port", ErrUnknownPort, ref)
	}
	t.mu.Lock()
	c := t.components[compID]
	t.mu.Unlock()
	if c == nil {
		return nil, fmt.Errorf("%w: no component %q", ErrUnknownPort, compID)
	}
	for _, p := range c.Ports() {
		if p.Name() == portName {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: component %q has no port %q", ErrUnknownPort, compID, portName)
}

// Connect joins two ports into a net. Both components must already be
// registered and neither port may be on a net. When both endpoint
// components are Polarized the net carries the cos(delta) mismatch
// amplitude factor.
func (t *Topology) Connect(a, b *Port) error {
	if a == nil || b == nil {
		return fmt.Errorf("%w: nil port", ErrBadParameter)
	}
	if a == b {
		return fmt.Errorf("%w: cannot connect %s to itself", ErrBadParameter, a)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	for _, p := range []*Port{a, b} {
		if got := t.components[p.Component().ID()]; got != p.Component() {
			return fmt.Errorf("%w: %s is not part of this topology", ErrUnknownPort, p)
		}
		if p.Connected() {
			return fmt.Errorf("%w: %s", ErrPortConnected, p)
		}
	}

	n := &net{a: a, b: b, coupling: mismatchFactor(a.Component(), b.Component())}
	a.net = n
	b.net = n
	t.nets = append(t.nets, n)
	return nil
}

// mismatchFactor is the symmetric polarization-mismatch amplitude
// factor between two endpoint components: cos(delta) when both carry a
// polarization angle, 1 otherwise.
func mismatchFactor(a, b Component) float64 {
	pa, okA := a.(Polarized)
	pb, okB := b.(Polarized)
	if !okA || !okB {
		return 1
	}
	delta := (pa.PolarizationDegrees() - pb.PolarizationDegrees()) * math.Pi / 180
	return math.Cos(delta)
}

// Result reports how a resolution run converged.
type Result struct {
	// Passes is the number of propagation sweeps executed,
	// including the final one whose residual fell under tolerance.
	Passes int

	// Residual is the last pass's largest incoming-value change.
	Residual float64
}

// Resolve runs fixed-point propagation until every port's incoming
// value is stable within Tolerance or MaxPasses is exceeded. Each pass
// sweeps components in insertion order, invoking the response function
// and then updating the nets on that component's ports, so an acyclic
// chain added in signal order settles in its first pass.
func (t *Topology) Resolve(ctx context.Context) (Result, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	maxPasses := t.MaxPasses
	if maxPasses <= 0 {
		maxPasses = DefaultMaxPasses
	}
	tolerance := t.Tolerance
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}

	if err := t.prepare(); err != nil {
		return Result{}, err
	}

	var residual float64
	for pass := 1; pass <= maxPasses; pass++ {
		residual = 0
		for _, c := range t.order {
			c.Respond()
			for _, p := range c.Ports() {
				if p.net != nil {
					residual = math.Max(residual, p.net.update())
				}
			}
		}
		if t.Logger != nil {
			t.Logger.Debug(ctx, "resolution pass",
				logging.Int("pass", pass),
				logging.Float("residual", residual))
		}
		if residual <= tolerance {
			return Result{Passes: pass, Residual: residual}, nil
		}
	}
	return Result{Passes: maxPasses, Residual: residual},
		fmt.Errorf("%w after %d passes (residual %g)", ErrNoConvergence, maxPasses, residual)
}

// prepare fixes deferred parameters before the first pass: channels
// without an explicit frequency inherit the topology's source
// frequency, and every derived scale factor is validated.
func (t *Topology) prepare() error {
	var sourceFreq float64
	freqs := make(map[float64]bool)
	for _, c := range t.order {
		if s, ok := c.(*Source); ok {
			sourceFreq = s.freqHz
			freqs[s.freqHz] = true
		}
	}
	distinct := len(freqs)

	for _, c := range t.order {
		ch, ok := c.(*Channel)
		if !ok {
			continue
		}
		freq := ch.freqHz
		if freq == 0 {
			switch distinct {
			case 0:
				return fmt.Errorf("%w: channel %q has no frequency and the topology has no source", ErrBadParameter, ch.ID())
			case 1:
				freq = sourceFreq
			default:
				return fmt.Errorf("%w: channel %q cannot inherit a frequency from %d distinct source frequencies", ErrBadParameter, ch.ID(), distinct)
			}
		}
		if err := ch.setScale(freq); err != nil {
			return err
		}
	}
	return nil
}
