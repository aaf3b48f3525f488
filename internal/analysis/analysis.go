// Package analysis runs read-only connectivity queries over the populated
// graph and shapes the results for downstream consumers.
package analysis

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/grantlab/awardgraph/internal/graphstore"
	"github.com/grantlab/awardgraph/internal/platform/logger"
)

// CategoryFocus marks the person a neighborhood query was centered on.
const CategoryFocus = "focus"

type VizNode struct {
	ID       string  `json:"id"`
	Label    string  `json:"label"`
	Category string  `json:"category"`
	Size     float64 `json:"size"`
}

type VizEdge struct {
	From string `json:"from"`
	To   string `json:"to"`
	Type string `json:"type"`
}

type Subgraph struct {
	Nodes []VizNode `json:"nodes"`
	Edges []VizEdge `json:"edges"`
}

// Neighborhood returns the induced subgraph within maxHops of the named
// person, shaped for visualization. An unknown person yields an empty
// subgraph.
func Neighborhood(ctx context.Context, store graphstore.Store, personName string, maxHops int, log *logger.Logger) (*Subgraph, error) {
	data, err := store.Neighborhood(ctx, graphstore.LabelPerson, graphstore.KeyPersonName, personName, maxHops)
	if err != nil {
		return nil, fmt.Errorf("analysis: neighborhood of %q: %w", personName, err)
	}

	sub := &Subgraph{}
	for _, n := range data.Nodes {
		viz := VizNode{
			ID:       n.ID,
			Label:    displayName(n),
			Category: n.Label,
			Size:     nodeSize(n),
		}
		if n.Label == graphstore.LabelPerson && propString(n.Props, "name") == personName {
			viz.Category = CategoryFocus
		}
		sub.Nodes = append(sub.Nodes, viz)
	}
	for _, r := range data.Rels {
		sub.Edges = append(sub.Edges, VizEdge{From: r.FromID, To: r.ToID, Type: r.Type})
	}
	if log != nil {
		log.Info("neighborhood extracted",
			"person", personName,
			"max_hops", maxHops,
			"nodes", len(sub.Nodes),
			"edges", len(sub.Edges),
		)
	}
	return sub, nil
}

func displayName(n graphstore.GraphNode) string {
	switch n.Label {
	case graphstore.LabelPerson:
		return propString(n.Props, "name")
	case graphstore.LabelOrganization:
		return propString(n.Props, "name")
	case graphstore.LabelAward:
		return propString(n.Props, "title")
	case graphstore.LabelSubAward:
		return propString(n.Props, "award_number")
	default:
		return n.ID
	}
}

// nodeSize derives the viz size from the type-specific count field. Awards
// and sub-awards carry no count and get a unit size.
func nodeSize(n graphstore.GraphNode) float64 {
	if v, ok := n.Props["count"]; ok {
		switch c := v.(type) {
		case int64:
			return float64(c)
		case int:
			return float64(c)
		case float64:
			return c
		}
	}
	return 1
}

func propString(props map[string]any, key string) string {
	if props == nil {
		return ""
	}
	s, _ := props[key].(string)
	return s
}

// OrgProximity is one organization's aggregate over its discovered neighbors.
type OrgProximity struct {
	Key          string  `json:"key"`
	Name         string  `json:"name"`
	MeanDistance float64 `json:"mean_distance"`
	Neighbors    int     `json:"neighbors"`
}

// OrganizationProximity computes, for every pair of organizations, the
// shortest path length within maxHops that avoids Manages edges, then
// aggregates per organization. Organizations with fewer than minNeighbors
// discovered neighbors are dropped as outliers with poor data. Results are
// sorted by ascending mean distance.
func OrganizationProximity(ctx context.Context, store graphstore.Store, maxHops, minNeighbors int, log *logger.Logger) ([]OrgProximity, error) {
	pairs, err := store.PathLengths(ctx, graphstore.LabelOrganization, graphstore.KeyOrganizationKey, graphstore.RelManages, maxHops)
	if err != nil {
		return nil, fmt.Errorf("analysis: organization proximity: %w", err)
	}

	type agg struct {
		sum   int
		count int
	}
	totals := make(map[string]*agg)
	credit := func(key string, length int) {
		a, ok := totals[key]
		if !ok {
			a = &agg{}
			totals[key] = a
		}
		a.sum += length
		a.count++
	}
	for _, p := range pairs {
		credit(p.FromKey, p.Length)
		credit(p.ToKey, p.Length)
	}

	out := make([]OrgProximity, 0, len(totals))
	dropped := 0
	for key, a := range totals {
		if a.count < minNeighbors {
			dropped++
			continue
		}
		out = append(out, OrgProximity{
			Key:          key,
			Name:         orgNameFromKey(key),
			MeanDistance: float64(a.sum) / float64(a.count),
			Neighbors:    a.count,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MeanDistance != out[j].MeanDistance {
			return out[i].MeanDistance < out[j].MeanDistance
		}
		return out[i].Key < out[j].Key
	})
	if log != nil {
		log.Info("organization proximity computed",
			"pairs", len(pairs),
			"ranked", len(out),
			"dropped_low_neighbor", dropped,
		)
	}
	return out, nil
}

func orgNameFromKey(key string) string {
	if i := strings.Index(key, "|"); i >= 0 {
		return key[:i]
	}
	return key
}
