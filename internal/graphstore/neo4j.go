package graphstore

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/grantlab/awardgraph/internal/pkg/errors"
	"github.com/grantlab/awardgraph/internal/platform/logger"
	"github.com/grantlab/awardgraph/internal/platform/neo4jdb"
)

// Neo4jStore implements Store against a remote Neo4j instance. One session
// per call; the pipeline is single-threaded so there is no pooling pressure.
type Neo4jStore struct {
	client *neo4jdb.Client
	log    *logger.Logger
}

func NewNeo4jStore(client *neo4jdb.Client, log *logger.Logger) *Neo4jStore {
	return &Neo4jStore{client: client, log: log.With("store", "neo4j")}
}

func (s *Neo4jStore) writeSession(ctx context.Context) neo4j.SessionWithContext {
	return s.client.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: s.client.Database,
	})
}

func (s *Neo4jStore) readSession(ctx context.Context) neo4j.SessionWithContext {
	return s.client.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: s.client.Database,
	})
}

// InitSchema creates uniqueness constraints for every node key. Best-effort:
// restricted users may not be allowed to touch schema, and the find-then-create
// upserts stay correct without the constraints under a single writer.
func (s *Neo4jStore) InitSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE CONSTRAINT person_name_unique IF NOT EXISTS FOR (p:Person) REQUIRE p.name IS UNIQUE`,
		`CREATE CONSTRAINT organization_key_unique IF NOT EXISTS FOR (o:Organization) REQUIRE o.key IS UNIQUE`,
		`CREATE CONSTRAINT award_title_unique IF NOT EXISTS FOR (a:Award) REQUIRE a.title IS UNIQUE`,
		`CREATE CONSTRAINT subaward_number_unique IF NOT EXISTS FOR (sa:SubAward) REQUIRE sa.award_number IS UNIQUE`,
	}
	session := s.writeSession(ctx)
	defer session.Close(ctx)
	for _, stmt := range stmts {
		res, err := session.Run(ctx, stmt, nil)
		if err != nil {
			s.log.Warn("schema init failed (continuing)", "error", err)
			continue
		}
		_, _ = res.Consume(ctx)
	}
	return nil
}

// Reset deletes every node and relationship. This is the documented recovery
// path after a partially failed load.
func (s *Neo4jStore) Reset(ctx context.Context) error {
	session := s.writeSession(ctx)
	defer session.Close(ctx)
	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `MATCH (n) DETACH DELETE n`, nil)
		if err != nil {
			return nil, err
		}
		return res.Consume(ctx)
	})
	if err != nil {
		return fmt.Errorf("graphstore: reset: %w", err)
	}
	return nil
}

func (s *Neo4jStore) UpsertNode(ctx context.Context, label, keyField, keyValue string, attrs map[string]any) (NodeRef, bool, error) {
	ref := NodeRef{Label: label, KeyField: keyField, KeyValue: keyValue}
	if !validIdent(label) || !validIdent(keyField) {
		return ref, false, fmt.Errorf("graphstore: invalid label or key field %q/%q", label, keyField)
	}

	props := make(map[string]any, len(attrs)+1)
	for k, v := range attrs {
		props[k] = v
	}
	props[keyField] = keyValue

	session := s.writeSession(ctx)
	defer session.Close(ctx)

	created, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx,
			fmt.Sprintf(`MATCH (n:%s {%s: $key}) RETURN n`, label, keyField),
			map[string]any{"key": keyValue})
		if err != nil {
			return false, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return false, err
		}
		if len(records) > 1 {
			s.log.Warn("ambiguous node match, using first",
				"label", label, "key_field", keyField, "key", keyValue, "matches", len(records))
		}
		if len(records) > 0 {
			return false, nil
		}

		res, err = tx.Run(ctx,
			fmt.Sprintf(`CREATE (n:%s) SET n = $props RETURN n`, label),
			map[string]any{"props": props})
		if err != nil {
			return false, err
		}
		if _, err := res.Consume(ctx); err != nil {
			return false, err
		}
		return true, nil
	})
	if err != nil {
		return ref, false, fmt.Errorf("graphstore: upsert node %s(%s=%s): %w", label, keyField, keyValue, err)
	}
	return ref, created.(bool), nil
}

func (s *Neo4jStore) UpsertRelationship(ctx context.Context, from, to NodeRef, relType string) (RelRef, bool, error) {
	ref := RelRef{Type: relType, From: from, To: to}
	if !validIdent(relType) {
		return ref, false, fmt.Errorf("graphstore: invalid relationship type %q", relType)
	}
	for _, n := range []NodeRef{from, to} {
		if !validIdent(n.Label) || !validIdent(n.KeyField) {
			return ref, false, fmt.Errorf("graphstore: invalid node ref %+v", n)
		}
	}

	session := s.writeSession(ctx)
	defer session.Close(ctx)

	created, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		// Match undirected so a previously created edge in either direction
		// satisfies the at-most-one guarantee; creation is always directed.
		res, err := tx.Run(ctx, fmt.Sprintf(
			`MATCH (a:%s {%s: $from_key})-[r:%s]-(b:%s {%s: $to_key}) RETURN r`,
			from.Label, from.KeyField, relType, to.Label, to.KeyField),
			map[string]any{"from_key": from.KeyValue, "to_key": to.KeyValue})
		if err != nil {
			return false, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return false, err
		}
		if len(records) > 1 {
			s.log.Warn("ambiguous relationship match, using first",
				"type", relType, "from", from.KeyValue, "to", to.KeyValue, "matches", len(records))
		}
		if len(records) > 0 {
			return false, nil
		}

		res, err = tx.Run(ctx, fmt.Sprintf(
			`MATCH (a:%s {%s: $from_key}) MATCH (b:%s {%s: $to_key}) CREATE (a)-[r:%s]->(b) RETURN r`,
			from.Label, from.KeyField, to.Label, to.KeyField, relType),
			map[string]any{"from_key": from.KeyValue, "to_key": to.KeyValue})
		if err != nil {
			return false, err
		}
		if _, err := res.Single(ctx); err != nil {
			return false, fmt.Errorf("endpoint %w: %v", errors.ErrNotFound, err)
		}
		return true, nil
	})
	if err != nil {
		return ref, false, fmt.Errorf("graphstore: upsert rel %s %s->%s: %w", relType, from.KeyValue, to.KeyValue, err)
	}
	return ref, created.(bool), nil
}

func (s *Neo4jStore) Neighborhood(ctx context.Context, label, keyField, keyValue string, maxHops int) (*SubgraphData, error) {
	if !validIdent(label) || !validIdent(keyField) {
		return nil, fmt.Errorf("graphstore: invalid label or key field %q/%q", label, keyField)
	}
	if maxHops < 1 {
		maxHops = 1
	}

	session := s.readSession(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx,
			fmt.Sprintf(`MATCH (source:%s {%s: $key}) RETURN source`, label, keyField),
			map[string]any{"key": keyValue})
		if err != nil {
			return nil, err
		}
		sourceRecords, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		if len(sourceRecords) == 0 {
			return &SubgraphData{}, nil
		}

		sub := &SubgraphData{}
		seenNodes := make(map[string]bool)
		seenRels := make(map[string]bool)
		if v, ok := sourceRecords[0].Get("source"); ok {
			if nd, ok := v.(neo4j.Node); ok {
				appendNode(sub, seenNodes, nd)
			}
		}

		// Bound interpolated directly; Cypher does not parameterize
		// variable-length ranges.
		res, err = tx.Run(ctx, fmt.Sprintf(`
MATCH (source:%s {%s: $key})
MATCH p = (source)-[*1..%d]-(n)
UNWIND nodes(p) AS nd
UNWIND relationships(p) AS rl
RETURN collect(DISTINCT nd) AS nodes, collect(DISTINCT rl) AS rels
`, label, keyField, maxHops),
			map[string]any{"key": keyValue})
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		for _, rec := range records {
			if v, ok := rec.Get("nodes"); ok {
				if items, ok := v.([]any); ok {
					for _, item := range items {
						if nd, ok := item.(neo4j.Node); ok {
							appendNode(sub, seenNodes, nd)
						}
					}
				}
			}
			if v, ok := rec.Get("rels"); ok {
				if items, ok := v.([]any); ok {
					for _, item := range items {
						rl, ok := item.(neo4j.Relationship)
						if !ok || seenRels[rl.ElementId] {
							continue
						}
						seenRels[rl.ElementId] = true
						sub.Rels = append(sub.Rels, GraphRel{
							Type:   rl.Type,
							FromID: rl.StartElementId,
							ToID:   rl.EndElementId,
						})
					}
				}
			}
		}
		return sub, nil
	})
	if err != nil {
		return nil, fmt.Errorf("graphstore: neighborhood %s(%s=%s): %w", label, keyField, keyValue, err)
	}
	return result.(*SubgraphData), nil
}

func appendNode(sub *SubgraphData, seen map[string]bool, nd neo4j.Node) {
	if seen[nd.ElementId] {
		return
	}
	seen[nd.ElementId] = true
	label := ""
	if len(nd.Labels) > 0 {
		label = nd.Labels[0]
	}
	sub.Nodes = append(sub.Nodes, GraphNode{ID: nd.ElementId, Label: label, Props: nd.Props})
}

func (s *Neo4jStore) PathLengths(ctx context.Context, label, keyField, excludeRel string, maxHops int) ([]PairDistance, error) {
	if !validIdent(label) || !validIdent(keyField) || !validIdent(excludeRel) {
		return nil, fmt.Errorf("graphstore: invalid identifier in path query")
	}
	if maxHops < 1 {
		maxHops = 1
	}

	session := s.readSession(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, fmt.Sprintf(`
MATCH (a:%s), (b:%s)
WHERE elementId(a) < elementId(b)
MATCH p = shortestPath((a)-[*..%d]-(b))
WHERE NONE(r IN relationships(p) WHERE type(r) = $exclude)
RETURN a.%s AS from_key, b.%s AS to_key, length(p) AS len
`, label, label, maxHops, keyField, keyField),
			map[string]any{"exclude": excludeRel})
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		pairs := make([]PairDistance, 0, len(records))
		for _, rec := range records {
			fk, _ := rec.Get("from_key")
			tk, _ := rec.Get("to_key")
			ln, _ := rec.Get("len")
			fks, ok1 := fk.(string)
			tks, ok2 := tk.(string)
			lni, ok3 := ln.(int64)
			if !ok1 || !ok2 || !ok3 {
				continue
			}
			pairs = append(pairs, PairDistance{FromKey: fks, ToKey: tks, Length: int(lni)})
		}
		return pairs, nil
	})
	if err != nil {
		return nil, fmt.Errorf("graphstore: path lengths %s: %w", label, err)
	}
	return result.([]PairDistance), nil
}
