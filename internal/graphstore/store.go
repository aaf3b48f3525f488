// Package graphstore defines the idempotent property-graph interface the
// loader and analysis layers work against, with a Neo4j implementation and an
// in-memory fake for tests.
package graphstore

import (
	"context"
	"regexp"
)

// Node labels and key fields.
const (
	LabelPerson       = "Person"
	LabelOrganization = "Organization"
	LabelAward        = "Award"
	LabelSubAward     = "SubAward"

	KeyPersonName      = "name"
	KeyOrganizationKey = "key"
	KeyAwardTitle      = "title"
	KeySubAwardNumber  = "award_number"
)

// Relationship types.
const (
	RelBasedAt    = "Based_At"
	RelAwardedTo  = "Awarded_to"
	RelSubawardOf = "Subaward_of"
	RelAppliedFor = "Applied_for"
	RelManages    = "Manages"
)

// NodeRef identifies a node by its stable key rather than a store-internal
// id, so references survive across sessions and store implementations.
type NodeRef struct {
	Label    string
	KeyField string
	KeyValue string
}

type RelRef struct {
	Type string
	From NodeRef
	To   NodeRef
}

// GraphNode and GraphRel carry query results back to the analysis layer.
type GraphNode struct {
	ID    string
	Label string
	Props map[string]any
}

type GraphRel struct {
	Type   string
	FromID string
	ToID   string
}

type SubgraphData struct {
	Nodes []GraphNode
	Rels  []GraphRel
}

// PairDistance is one unordered node pair and its shortest-path length.
type PairDistance struct {
	FromKey string
	ToKey   string
	Length  int
}

// Store is the full surface the pipeline needs. The upsert operations are
// idempotent: at most one node per (label, key) and at most one relationship
// of a type per unordered node pair, no matter how often they are called.
// The boolean result reports whether anything was created.
type Store interface {
	InitSchema(ctx context.Context) error
	Reset(ctx context.Context) error
	UpsertNode(ctx context.Context, label, keyField, keyValue string, attrs map[string]any) (NodeRef, bool, error)
	UpsertRelationship(ctx context.Context, from, to NodeRef, relType string) (RelRef, bool, error)

	// Neighborhood returns the induced subgraph within maxHops of the node
	// identified by (label, keyField, keyValue). An unknown node yields an
	// empty subgraph, not an error.
	Neighborhood(ctx context.Context, label, keyField, keyValue string, maxHops int) (*SubgraphData, error)
	// PathLengths returns, for every unordered pair of distinct nodes with
	// the given label, the shortest path length within maxHops that uses no
	// relationship of type excludeRel. Unreachable pairs are absent.
	PathLengths(ctx context.Context, label, keyField, excludeRel string, maxHops int) ([]PairDistance, error)
}

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// validIdent guards label, key-field and relationship-type names before they
// are interpolated into Cypher. Values always travel as parameters.
func validIdent(s string) bool {
	return identPattern.MatchString(s)
}
