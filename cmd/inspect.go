package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/routing-sim/routing-sim/sim"
	"github.com/routing-sim/routing-sim/sim/topology"
)

// validateCmd builds the scenario without running it
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Parse and validate a scenario, then print it with defaults filled in",
	Run: func(cmd *cobra.Command, args []string) {
		sc := loadScenario(cmd)
		if err := sc.Validate(); err != nil {
			logrus.Fatalf("Invalid scenario: %v", err)
		}
		out, err := sc.Marshal()
		if err != nil {
			logrus.Fatalf("Failed to render scenario: %v", err)
		}
		fmt.Fprint(os.Stdout, string(out))
	},
}

// topologyReport is the YAML shape printed by the topology command.
type topologyReport struct {
	Kind       string               `yaml:"kind"`
	Nodes      int                  `yaml:"nodes"`
	Links      int                  `yaml:"links"`
	Connected  bool                 `yaml:"connected"`
	Components [][]sim.NodeID       `yaml:"components,omitempty"`
	Diameter   int                  `yaml:"diameter,omitempty"`
	Adjacency  map[int][]sim.NodeID `yaml:"adjacency"`
}

// topologyCmd prints the adjacency and connectivity of the scenario topology
var topologyCmd = &cobra.Command{
	Use:   "topology",
	Short: "Print the scenario topology's adjacency, components and diameter",
	Run: func(cmd *cobra.Command, args []string) {
		sc := loadScenario(cmd)
		net, err := sc.Topology.Build()
		if err != nil {
			logrus.Fatalf("Invalid topology: %v", err)
		}
		report := topologyReport{
			Kind:      sc.Topology.Kind,
			Nodes:     net.Len(),
			Links:     len(net.Links()),
			Connected: topology.Connected(net),
			Adjacency: make(map[int][]sim.NodeID, net.Len()),
		}
		for _, node := range net.Nodes() {
			report.Adjacency[int(node.ID)] = node.Neighbors()
		}
		if report.Connected {
			report.Diameter, _ = topology.Diameter(net)
		} else {
			report.Components = topology.Components(net)
		}
		out, err := yaml.Marshal(report)
		if err != nil {
			logrus.Fatalf("Failed to render topology: %v", err)
		}
		fmt.Fprint(os.Stdout, string(out))
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(topologyCmd)
}
