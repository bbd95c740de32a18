package complexity

import "github.com/ccm-go/ccm/pkg/cfg"

// Report bundles all six measures plus the structural properties they were
// derived from. It is a read-only value object for the reporting boundary.
//
// McCabe is nil when the connectivity precondition fails; the generalized
// variant is never substituted in its place.
type Report struct {
	McCabe                              *int `json:"mccabe,omitempty" msgpack:"mccabe"`
	McCabeGeneralized                   int  `json:"mccabe_generalized" msgpack:"mccabe_generalized"`
	HendersonSellers                    int  `json:"henderson_sellers" msgpack:"henderson_sellers"`
	HendersonSellersTegarden            int  `json:"henderson_sellers_tegarden" msgpack:"henderson_sellers_tegarden"`
	HendersonSellersTegardenGeneralized int  `json:"henderson_sellers_tegarden_generalized" msgpack:"henderson_sellers_tegarden_generalized"`
	Harrison                            int  `json:"harrison" msgpack:"harrison"`

	Nodes      int        `json:"nodes" msgpack:"nodes"`
	Edges      int        `json:"edges" msgpack:"edges"`
	Components int        `json:"components" msgpack:"components"`
	Counts     cfg.Counts `json:"counts" msgpack:"counts"`
}

// NewReport computes every measure for the graph.
func NewReport(g *cfg.Graph) *Report {
	r := &Report{
		McCabeGeneralized:                   McCabeGeneralized(g),
		HendersonSellers:                    HendersonSellers(g),
		HendersonSellersTegarden:            HendersonSellersTegarden(g),
		HendersonSellersTegardenGeneralized: HendersonSellersTegardenGeneralized(g),
		Harrison:                            Harrison(g),
		Nodes:                               g.NumNodes(),
		Edges:                               g.NumEdges(),
		Components:                          g.SCCCount(),
		Counts:                              g.Counts(),
	}
	if mc, err := McCabe(g); err == nil {
		r.McCabe = &mc
	}
	return r
}
