package graphstore

import (
	"context"
	"sort"
	"strings"
)

// MemStore is an in-memory Store used by tests and dry runs. It mirrors the
// Neo4j semantics: keyed node identity, undirected relationship dedup, BFS
// traversal. Not safe for concurrent use; the pipeline has a single writer.
type MemStore struct {
	nodes map[string]*memNode
	rels  map[string]*memRel

	NodesCreated int
	RelsCreated  int
}

type memNode struct {
	id       string
	label    string
	keyField string
	keyValue string
	props    map[string]any
}

type memRel struct {
	relType string
	fromID  string
	toID    string
}

func NewMemStore() *MemStore {
	return &MemStore{
		nodes: make(map[string]*memNode),
		rels:  make(map[string]*memRel),
	}
}

func nodeID(label, keyValue string) string {
	return label + "|" + keyValue
}

// relKey is unordered so an edge in either direction satisfies dedup.
func relKey(relType, idA, idB string) string {
	if idA > idB {
		idA, idB = idB, idA
	}
	return relType + "|" + idA + "|" + idB
}

func (m *MemStore) InitSchema(ctx context.Context) error { return nil }

func (m *MemStore) Reset(ctx context.Context) error {
	m.nodes = make(map[string]*memNode)
	m.rels = make(map[string]*memRel)
	return nil
}

func (m *MemStore) UpsertNode(ctx context.Context, label, keyField, keyValue string, attrs map[string]any) (NodeRef, bool, error) {
	ref := NodeRef{Label: label, KeyField: keyField, KeyValue: keyValue}
	id := nodeID(label, keyValue)
	if _, ok := m.nodes[id]; ok {
		return ref, false, nil
	}
	props := make(map[string]any, len(attrs)+1)
	for k, v := range attrs {
		props[k] = v
	}
	props[keyField] = keyValue
	m.nodes[id] = &memNode{id: id, label: label, keyField: keyField, keyValue: keyValue, props: props}
	m.NodesCreated++
	return ref, true, nil
}

func (m *MemStore) UpsertRelationship(ctx context.Context, from, to NodeRef, relType string) (RelRef, bool, error) {
	ref := RelRef{Type: relType, From: from, To: to}
	fromID := nodeID(from.Label, from.KeyValue)
	toID := nodeID(to.Label, to.KeyValue)
	key := relKey(relType, fromID, toID)
	if _, ok := m.rels[key]; ok {
		return ref, false, nil
	}
	m.rels[key] = &memRel{relType: relType, fromID: fromID, toID: toID}
	m.RelsCreated++
	return ref, true, nil
}

// NodeCount and RelCount expose store size for idempotence assertions.
func (m *MemStore) NodeCount() int { return len(m.nodes) }
func (m *MemStore) RelCount() int  { return len(m.rels) }

// RelsOfType returns the stored relationships of one type, sorted for stable
// assertions.
func (m *MemStore) RelsOfType(relType string) []GraphRel {
	var out []GraphRel
	for _, r := range m.rels {
		if r.relType == relType {
			out = append(out, GraphRel{Type: r.relType, FromID: r.fromID, ToID: r.toID})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FromID != out[j].FromID {
			return out[i].FromID < out[j].FromID
		}
		return out[i].ToID < out[j].ToID
	})
	return out
}

func (m *MemStore) adjacency(excludeRel string) map[string][]string {
	adj := make(map[string][]string)
	for _, r := range m.rels {
		if r.relType == excludeRel {
			continue
		}
		adj[r.fromID] = append(adj[r.fromID], r.toID)
		adj[r.toID] = append(adj[r.toID], r.fromID)
	}
	return adj
}

func (m *MemStore) bfs(start string, maxHops int, adj map[string][]string) map[string]int {
	dist := map[string]int{start: 0}
	frontier := []string{start}
	for hop := 1; hop <= maxHops && len(frontier) > 0; hop++ {
		var next []string
		for _, id := range frontier {
			for _, nb := range adj[id] {
				if _, seen := dist[nb]; seen {
					continue
				}
				dist[nb] = hop
				next = append(next, nb)
			}
		}
		frontier = next
	}
	return dist
}

func (m *MemStore) Neighborhood(ctx context.Context, label, keyField, keyValue string, maxHops int) (*SubgraphData, error) {
	start := nodeID(label, keyValue)
	if _, ok := m.nodes[start]; !ok {
		return &SubgraphData{}, nil
	}
	if maxHops < 1 {
		maxHops = 1
	}
	dist := m.bfs(start, maxHops, m.adjacency(""))

	ids := make([]string, 0, len(dist))
	for id := range dist {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	sub := &SubgraphData{}
	for _, id := range ids {
		n := m.nodes[id]
		sub.Nodes = append(sub.Nodes, GraphNode{ID: n.id, Label: n.label, Props: n.props})
	}
	relKeys := make([]string, 0, len(m.rels))
	for k := range m.rels {
		relKeys = append(relKeys, k)
	}
	sort.Strings(relKeys)
	for _, k := range relKeys {
		r := m.rels[k]
		if _, ok := dist[r.fromID]; !ok {
			continue
		}
		if _, ok := dist[r.toID]; !ok {
			continue
		}
		sub.Rels = append(sub.Rels, GraphRel{Type: r.relType, FromID: r.fromID, ToID: r.toID})
	}
	return sub, nil
}

func (m *MemStore) PathLengths(ctx context.Context, label, keyField, excludeRel string, maxHops int) ([]PairDistance, error) {
	if maxHops < 1 {
		maxHops = 1
	}
	var labeled []*memNode
	for _, n := range m.nodes {
		if n.label == label {
			labeled = append(labeled, n)
		}
	}
	sort.Slice(labeled, func(i, j int) bool { return labeled[i].id < labeled[j].id })

	adj := m.adjacency(excludeRel)
	var pairs []PairDistance
	for i, a := range labeled {
		dist := m.bfs(a.id, maxHops, adj)
		for _, b := range labeled[i+1:] {
			if d, ok := dist[b.id]; ok && d > 0 {
				pairs = append(pairs, PairDistance{FromKey: a.keyValue, ToKey: b.keyValue, Length: d})
			}
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].FromKey != pairs[j].FromKey {
			return pairs[i].FromKey < pairs[j].FromKey
		}
		return pairs[i].ToKey < pairs[j].ToKey
	})
	return pairs, nil
}

// HasNode reports whether a node with the given label and key exists.
func (m *MemStore) HasNode(label, keyValue string) bool {
	_, ok := m.nodes[nodeID(label, keyValue)]
	return ok
}

// NodeProps returns a stored node's properties, or nil.
func (m *MemStore) NodeProps(label, keyValue string) map[string]any {
	n, ok := m.nodes[nodeID(label, keyValue)]
	if !ok {
		return nil
	}
	return n.props
}

// SplitNodeID undoes the label|key encoding used for in-memory node ids.
func SplitNodeID(id string) (label, keyValue string) {
	parts := strings.SplitN(id, "|", 2)
	if len(parts) != 2 {
		return id, ""
	}
	return parts[0], parts[1]
}
