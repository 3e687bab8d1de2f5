// Package rfnet models a graph of bidirectional RF components wired
// together by point-to-point nets, and resolves a self-consistent
// assignment of complex signal amplitudes to every port.
package rfnet

import (
	"math"
	"math/cmplx"
)

// Component is a physical model with named ports. Respond is its pure
// response function: it recomputes the driven value of every port from
// the component's current incoming values (and fixed parameters), and
// must touch nothing else.
type Component interface {
	ID() string
	Ports() []*Port
	Respond()
}

// Polarized is implemented by components that radiate or drive with a
// polarization angle. When both endpoints of a net are polarized, the
// net applies a symmetric cos(delta) amplitude factor.
type Polarized interface {
	PolarizationDegrees() float64
}

// Port is one bidirectional connection point on a component. The
// driven slot is written by the owning component's response function;
// the incoming slot is written only by the resolution engine.
type Port struct {
	owner Component
	name  string
	net   *net

	driven   complex128
	incoming complex128
}

func newPort(owner Component, name string) *Port {
	return &Port{owner: owner, name: name}
}

// Name returns the port's name within its component.
func (p *Port) Name() string { return p.name }

// Component returns the owning component.
func (p *Port) Component() Component { return p.owner }

// Connected reports whether the port has been joined to a net.
func (p *Port) Connected() bool { return p.net != nil }

// Driven returns the amplitude this port outputs.
func (p *Port) Driven() complex128 { return p.driven }

// Incoming returns the amplitude this port receives. Terminal ports
// that are never connected resolve to zero.
func (p *Port) Incoming() complex128 { return p.incoming }

// SetDriven records the port's output amplitude. It is meant to be
// called from the owning component's Respond only.
func (p *Port) SetDriven(v complex128) { p.driven = v }

// String renders the port as "component.port".
func (p *Port) String() string { return p.owner.ID() + "." + p.name }

// net joins exactly two ports. Each port's incoming value is the other
// port's driven value scaled by the net's symmetric coupling factor
// (polarization mismatch; 1 when the endpoints' polarizations match or
// are unspecified).
type net struct {
	a, b     *Port
	coupling float64
}

// update applies the swap rule and returns the largest change of an
// incoming value, the residual the fixed-point loop converges on.
func (n *net) update() float64 {
	k := complex(n.coupling, 0)
	newA := k * n.b.driven
	newB := k * n.a.driven

	residual := math.Max(cmplx.Abs(newA-n.a.incoming), cmplx.Abs(newB-n.b.incoming))
	n.a.incoming = newA
	n.b.incoming = newB
	return residual
}
