// Package config loads YAML scenarios and builds them into kernel components.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/routing-sim/routing-sim/sim"
	"github.com/routing-sim/routing-sim/sim/traffic"
)

// Scenario is the full YAML scenario document.
type Scenario struct {
	Seed             int64            `yaml:"seed"`
	Algorithms       []string         `yaml:"algorithms"`
	MaxActivePackets int              `yaml:"max_active_packets"`
	Topology         TopologySpec     `yaml:"topology"`
	Groups           map[string][]int `yaml:"groups"`
	Termination      TerminationSpec  `yaml:"termination"`
	Traffic          TrafficSpec      `yaml:"traffic"`
	Dynamics         DynamicsSpec     `yaml:"dynamics"`
}

// TopologySpec selects a topology builder.
type TopologySpec struct {
	Kind   string     `yaml:"kind"` // line, ring, grid, holey-grid-6x6, links
	Nodes  int        `yaml:"nodes"`
	Width  int        `yaml:"width"`
	Height int        `yaml:"height"`
	Links  []sim.Link `yaml:"links"`
}

// TerminationSpec selects a termination policy. Composite specs list children.
type TerminationSpec struct {
	Kind     string            `yaml:"kind"` // fixed-ticks, total-packets-delivered, composite
	Ticks    int64             `yaml:"ticks"`
	Count    int               `yaml:"count"`
	Mode     string            `yaml:"mode"` // and, or
	Children []TerminationSpec `yaml:"children"`
}

// TrafficSpec configures the traffic injector.
type TrafficSpec struct {
	Schedule     ScheduleSpec `yaml:"schedule"`
	PairSelector SelectorSpec `yaml:"pair_selector"`
	Constraints  []string     `yaml:"constraints"`
}

// ScheduleSpec selects an injection schedule. Only the fields of the chosen
// kind are read.
type ScheduleSpec struct {
	Kind          string            `yaml:"kind"`
	Level         float64           `yaml:"level"`
	Probability   float64           `yaml:"probability"`
	EveryNTicks   int64             `yaml:"every_n_ticks"`
	BatchSize     int               `yaml:"batch_size"`
	Start         float64           `yaml:"start"`
	End           float64           `yaml:"end"`
	DurationTicks int64             `yaml:"duration_ticks"`
	Min           float64           `yaml:"min"`
	Max           float64           `yaml:"max"`
	PeriodTicks   int64             `yaml:"period_ticks"`
	Segments      []traffic.Segment `yaml:"segments"`
}

// SelectorSpec selects a pair selector. Group names refer to Scenario.Groups.
type SelectorSpec struct {
	Kind        string   `yaml:"kind"` // random, random-in-groups, oscillating-between-groups
	Groups      []string `yaml:"groups"`
	From        string   `yaml:"from"`
	To          string   `yaml:"to"`
	PeriodTicks int64    `yaml:"period_ticks"`
}

// DynamicsSpec selects network dynamics.
type DynamicsSpec struct {
	Kind             string     `yaml:"kind"` // none, scheduled-link-failures
	DisconnectAtTick int64      `yaml:"disconnect_at_tick"`
	ReconnectAtTick  int64      `yaml:"reconnect_at_tick"`
	Links            []sim.Link `yaml:"links"`
}

// Default returns the scenario used when no file is given: every algorithm
// on the 6x6 grid with holes, a load of one packet per tick, for 1000 ticks.
func Default() Scenario {
	return Scenario{
		Seed:             42,
		Algorithms:       sim.ValidAlgorithmNames(),
		MaxActivePackets: 1000,
		Topology:         TopologySpec{Kind: "holey-grid-6x6"},
		Termination:      TerminationSpec{Kind: "fixed-ticks", Ticks: 1000},
		Traffic: TrafficSpec{
			Schedule:     ScheduleSpec{Kind: "load-level", Level: 1.0},
			PairSelector: SelectorSpec{Kind: "random"},
			Constraints:  []string{"disallow-self"},
		},
		Dynamics: DynamicsSpec{Kind: "none"},
	}
}

// Load reads a scenario file. Unknown fields are errors; missing sections
// keep their Default() values.
func Load(path string) (Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, fmt.Errorf("reading scenario: %w", err)
	}
	return Parse(data)
}

// Parse decodes a scenario document over Default(). An empty document yields Default().
func Parse(data []byte) (Scenario, error) {
	sc := Default()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&sc); err != nil && !errors.Is(err, io.EOF) {
		return Scenario{}, fmt.Errorf("parsing scenario: %w", err)
	}
	return sc, nil
}

// Marshal renders the scenario as YAML.
func (sc Scenario) Marshal() ([]byte, error) {
	return yaml.Marshal(sc)
}
