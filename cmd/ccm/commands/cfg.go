package commands

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ccm-go/ccm/pkg/cfg"
)

// cfgCmd represents the cfg command
var cfgCmd = &cobra.Command{
	Use:   "cfg <object-file>",
	Short: "Show the control-flow graph of a code object",
	Long: `Builds the control-flow graph of a code object and prints its nodes,
edges, classification counts and strongly connected components.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		co, bc, err := decodeFile(conf, args[0])
		if err != nil {
			return err
		}
		g := cfg.Build(bc)

		if conf.JSONOutput {
			return printGraphJSON(co.Name, g)
		}
		printGraph(co.Name, g)
		return nil
	},
}

// graphReport is the JSON shape of a control-flow graph.
type graphReport struct {
	Name       string     `json:"name"`
	Nodes      []string   `json:"nodes"`
	Edges      [][2]string `json:"edges"`
	Counts     cfg.Counts `json:"counts"`
	Components [][]string `json:"components"`
	Degenerate bool       `json:"degenerate"`
}

func newGraphReport(name string, g *cfg.Graph) graphReport {
	r := graphReport{
		Name:       name,
		Counts:     g.Counts(),
		Degenerate: g.Degenerate(),
	}
	for _, n := range g.Nodes() {
		r.Nodes = append(r.Nodes, n.String())
	}
	for _, e := range g.Edges() {
		r.Edges = append(r.Edges, [2]string{e.From.String(), e.To.String()})
	}
	for _, comp := range g.SCC() {
		members := make([]string, len(comp))
		for i, n := range comp {
			members[i] = n.String()
		}
		r.Components = append(r.Components, members)
	}
	return r
}

func printGraphJSON(name string, g *cfg.Graph) error {
	data, err := json.MarshalIndent(newGraphReport(name, g), "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func printGraph(name string, g *cfg.Graph) {
	fmt.Printf("=== CFG for %s ===\n", name)
	fmt.Printf("Nodes: %d, Edges: %d, Components: %d\n",
		g.NumNodes(), g.NumEdges(), g.SCCCount())

	c := g.Counts()
	fmt.Printf("Entry points: %d, Decision points: %d, Branch points: %d, Exit points: %d\n",
		c.EntryPoints, c.DecisionPoints, c.BranchPoints, c.ExitPoints)

	fmt.Println("\nEdges:")
	for _, e := range g.Edges() {
		fmt.Printf("  %s -> %s\n", e.From, e.To)
	}

	fmt.Println("\nComponents:")
	for i, comp := range g.SCC() {
		members := make([]string, len(comp))
		for j, n := range comp {
			members[j] = n.String()
		}
		fmt.Printf("  %d: {%s}\n", i, strings.Join(members, ", "))
	}
}
