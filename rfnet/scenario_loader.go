package rfnet

import (
	"encoding/json"
	"fmt"
	"io"
)

// Scenario is a small summary of what was loaded from JSON, mainly
// useful for logging from main().
type Scenario struct {
	ComponentIDs []string
	NetCount     int
}

// internal JSON shapes; unexported so the format can evolve freely.
type scenarioJSON struct {
	Sources  []sourceJSON  `json:"sources"`
	Antennas []antennaJSON `json:"antennas"`
	Channels []channelJSON `json:"channels"`
	Nets     []netJSON     `json:"nets"`
}

type sourceJSON struct {
	ID     string  `json:"id"`
	PowerW float64 `json:"power_w"`
	FreqHz float64 `json:"freq_hz"`
	PolDeg float64 `json:"pol_deg"`
}

type antennaJSON struct {
	ID      string  `json:"id"`
	GainDbi float64 `json:"gain_dbi"`
	PolDeg  float64 `json:"pol_deg"`
}

type channelJSON struct {
	ID        string  `json:"id"`
	DistanceM float64 `json:"distance_m"`
	FreqHz    float64 `json:"freq_hz"` // optional; 0 inherits the source frequency
}

type netJSON struct {
	A string `json:"a"` // "component.port"
	B string `json:"b"`
}

// LoadScenario reads a JSON topology description from r, instantiates
// every component into topo, connects the listed nets, and returns a
// summary. Parameter and wiring errors carry the offending component
// or port reference.
func LoadScenario(topo *Topology, r io.Reader) (*Scenario, error) {
	if topo == nil {
		return nil, fmt.Errorf("%w: nil topology", ErrBadParameter)
	}

	var raw scenarioJSON
	dec := json.NewDecoder(r)
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}

	summary := &Scenario{}

	for _, s := range raw.Sources {
		src, err := NewSource(s.ID, s.PowerW, s.FreqHz, s.PolDeg)
		if err != nil {
			return nil, fmt.Errorf("scenario source %q: %w", s.ID, err)
		}
		if err := topo.Add(src); err != nil {
			return nil, err
		}
		summary.ComponentIDs = append(summary.ComponentIDs, s.ID)
	}

	for _, a := range raw.Antennas {
		ant, err := NewAntenna(a.ID, a.GainDbi, a.PolDeg)
		if err != nil {
			return nil, fmt.Errorf("scenario antenna %q: %w", a.ID, err)
		}
		if err := topo.Add(ant); err != nil {
			return nil, err
		}
		summary.ComponentIDs = append(summary.ComponentIDs, a.ID)
	}

	for _, c := range raw.Channels {
		ch, err := NewChannel(c.ID, c.DistanceM, c.FreqHz)
		if err != nil {
			return nil, fmt.Errorf("scenario channel %q: %w", c.ID, err)
		}
		if err := topo.Add(ch); err != nil {
			return nil, err
		}
		summary.ComponentIDs = append(summary.ComponentIDs, c.ID)
	}

	for _, n := range raw.Nets {
		a, err := topo.Port(n.A)
		if err != nil {
			return nil, fmt.Errorf("scenario net %q-%q: %w", n.A, n.B, err)
		}
		b, err := topo.Port(n.B)
		if err != nil {
			return nil, fmt.Errorf("scenario net %q-%q: %w", n.A, n.B, err)
		}
		if err := topo.Connect(a, b); err != nil {
			return nil, fmt.Errorf("scenario net %q-%q: %w", n.A, n.B, err)
		}
		summary.NetCount++
	}

	return summary, nil
}
