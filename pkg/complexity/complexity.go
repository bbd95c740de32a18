// Package complexity derives cyclomatic-complexity measures from a
// control-flow graph's structural properties.
//
// For a graph G with n nodes, e edges, p strongly connected components,
// d decision points and x exit points:
//
//	McCabe                                  e - n + 2      (requires p == 1)
//	Generalized McCabe                      e - n + 2p
//	Henderson-Sellers                       e - n + p + 1
//	Henderson-Sellers-Tegarden              e - n + p
//	Generalized Henderson-Sellers-Tegarden  e - n + X + 2  (X = exit points summed per component)
//	Harrison                                d - x + 2
//
// References: B. Henderson-Sellers & D. Tegarden, "A Critical Re-examination
// of Cyclomatic Complexity Measures", Software Quality and Productivity,
// Springer, 1995. W. A. Harrison, "Applying McCabe's complexity measure to
// multiple-exit programs", Software: Practice and Experience 14:10, 1984.
package complexity

import (
	"fmt"

	"github.com/ccm-go/ccm/pkg/cfg"
)

// ConnectivityError reports a plain McCabe request against a graph with
// more than one strongly connected component. Callers wanting a value for
// such graphs should use McCabeGeneralized; the package never falls back
// silently.
type ConnectivityError struct {
	Components int
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("complexity: graph is not strongly connected (%d components)", e.Components)
}

// McCabe returns e - n + 2. The graph must form a single strongly
// connected component.
func McCabe(g *cfg.Graph) (int, error) {
	if p := g.SCCCount(); p > 1 {
		return 0, &ConnectivityError{Components: p}
	}
	return g.NumEdges() - g.NumNodes() + 2, nil
}

// McCabeGeneralized returns e - n + 2p. It tolerates any number of
// components by folding p into the formula.
func McCabeGeneralized(g *cfg.Graph) int {
	return g.NumEdges() - g.NumNodes() + 2*g.SCCCount()
}

// HendersonSellers returns e - n + p + 1.
func HendersonSellers(g *cfg.Graph) int {
	return g.NumEdges() - g.NumNodes() + g.SCCCount() + 1
}

// HendersonSellersTegarden returns e - n + p.
func HendersonSellersTegarden(g *cfg.Graph) int {
	return g.NumEdges() - g.NumNodes() + g.SCCCount()
}

// HendersonSellersTegardenGeneralized returns e - n + X + 2, where X sums
// the exit-point count of the induced subgraph of each strongly connected
// component.
func HendersonSellersTegardenGeneralized(g *cfg.Graph) int {
	x := 0
	for _, comp := range g.SCC() {
		sub, _ := g.Subgraph(comp, nil)
		x += sub.Counts().ExitPoints
	}
	return g.NumEdges() - g.NumNodes() + x + 2
}

// Harrison returns d - x + 2, independent of connectivity.
func Harrison(g *cfg.Graph) int {
	c := g.Counts()
	return c.DecisionPoints - c.ExitPoints + 2
}
