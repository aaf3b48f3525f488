package graphload

import (
	"context"
	"testing"

	"github.com/grantlab/awardgraph/internal/entities"
	"github.com/grantlab/awardgraph/internal/graphstore"
	"github.com/grantlab/awardgraph/internal/ingestion"
	"github.com/grantlab/awardgraph/internal/platform/logger"
)

const baseURL = "https://www.nsf.gov/awardsearch/showAward"

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func sampleRecords() []ingestion.AwardRecord {
	return []ingestion.AwardRecord{
		{
			AwardNumber:           "100",
			Title:                 "Study of X",
			AwardedAmountToDate:   "$100,000",
			Organization:          "State U",
			OrganizationState:     "OH",
			OrganizationCity:      "Columbus",
			PrincipalInvestigator: "Alice",
			ProgramManager:        "Carol",
			CoPINames:             "Jane Doe, John Smith",
		},
		{
			AwardNumber:           "101",
			Title:                 "Study of X",
			AwardedAmountToDate:   "$50,000",
			Organization:          "Tech Inst",
			OrganizationState:     "MI",
			OrganizationCity:      "Lansing",
			PrincipalInvestigator: "Bob",
			ProgramManager:        "Carol",
		},
	}
}

func loadSample(t *testing.T, store *graphstore.MemStore) Summary {
	t.Helper()
	records := sampleRecords()
	ents := entities.Extract(records, baseURL)
	sum, err := New(store, testLogger(t)).Load(context.Background(), ents, records)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return sum
}

func TestLoadCreatesExpectedGraph(t *testing.T) {
	store := graphstore.NewMemStore()
	sum := loadSample(t, store)

	// 5 people + 2 orgs + 1 award + 2 sub-awards.
	if store.NodeCount() != 10 {
		t.Fatalf("expected 10 nodes, got %d", store.NodeCount())
	}
	if sum.NodesCreated != 10 {
		t.Fatalf("summary nodes created = %d", sum.NodesCreated)
	}

	for _, key := range []string{"Alice", "Bob", "Carol", "Jane Doe", "John Smith"} {
		if !store.HasNode(graphstore.LabelPerson, key) {
			t.Fatalf("missing person %q", key)
		}
	}
	if !store.HasNode(graphstore.LabelAward, "Study of X") {
		t.Fatal("missing award node")
	}
	if !store.HasNode(graphstore.LabelSubAward, "100") || !store.HasNode(graphstore.LabelSubAward, "101") {
		t.Fatal("missing sub-award nodes")
	}

	props := store.NodeProps(graphstore.LabelSubAward, "100")
	if props["url"] != baseURL+"?AWD_ID=100" {
		t.Fatalf("sub-award url = %v", props["url"])
	}
	if props["amount"] != 100000.0 {
		t.Fatalf("sub-award amount = %v", props["amount"])
	}
}

func TestLoadEdgeCounts(t *testing.T) {
	store := graphstore.NewMemStore()
	loadSample(t, store)

	// Record 100: Alice + 2 co-PIs -> 3 Based_At + 3 Applied_for.
	// Record 101: Bob -> 1 Based_At + 1 Applied_for.
	if got := len(store.RelsOfType(graphstore.RelBasedAt)); got != 4 {
		t.Fatalf("Based_At = %d, want 4", got)
	}
	if got := len(store.RelsOfType(graphstore.RelAppliedFor)); got != 4 {
		t.Fatalf("Applied_for = %d, want 4", got)
	}
	if got := len(store.RelsOfType(graphstore.RelAwardedTo)); got != 2 {
		t.Fatalf("Awarded_to = %d, want 2", got)
	}
	// Carol manages one award referenced by both records: a single edge.
	if got := len(store.RelsOfType(graphstore.RelManages)); got != 1 {
		t.Fatalf("Manages = %d, want 1", got)
	}
}

func TestEverySubAwardHasOneParent(t *testing.T) {
	store := graphstore.NewMemStore()
	loadSample(t, store)

	parents := make(map[string]int)
	for _, rel := range store.RelsOfType(graphstore.RelSubawardOf) {
		from, _ := graphstore.SplitNodeID(rel.FromID)
		if from != graphstore.LabelSubAward {
			t.Fatalf("Subaward_of must start at a SubAward, got %s", rel.FromID)
		}
		to, title := graphstore.SplitNodeID(rel.ToID)
		if to != graphstore.LabelAward || title != "Study of X" {
			t.Fatalf("Subaward_of must target the canonical award, got %s", rel.ToID)
		}
		parents[rel.FromID]++
	}
	if len(parents) != 2 {
		t.Fatalf("expected both sub-awards wired, got %d", len(parents))
	}
	for id, n := range parents {
		if n != 1 {
			t.Fatalf("sub-award %s has %d parents", id, n)
		}
	}
}

func TestLoadIsIdempotent(t *testing.T) {
	store := graphstore.NewMemStore()
	loadSample(t, store)
	nodesBefore, relsBefore := store.NodeCount(), store.RelCount()

	sum := loadSample(t, store)
	if sum.NodesCreated != 0 || sum.RelsCreated != 0 {
		t.Fatalf("second run created nodes=%d rels=%d, want zero", sum.NodesCreated, sum.RelsCreated)
	}
	if store.NodeCount() != nodesBefore || store.RelCount() != relsBefore {
		t.Fatalf("store grew on rerun: nodes %d->%d rels %d->%d",
			nodesBefore, store.NodeCount(), relsBefore, store.RelCount())
	}
}

func TestLoadSkipsBlankPeopleAndOrgs(t *testing.T) {
	store := graphstore.NewMemStore()
	records := []ingestion.AwardRecord{
		{AwardNumber: "200", Title: "Solo", PrincipalInvestigator: "Dana"},
	}
	ents := entities.Extract(records, baseURL)
	if _, err := New(store, testLogger(t)).Load(context.Background(), ents, records); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := len(store.RelsOfType(graphstore.RelBasedAt)); got != 0 {
		t.Fatalf("no organization, so no Based_At edges, got %d", got)
	}
	if got := len(store.RelsOfType(graphstore.RelAwardedTo)); got != 0 {
		t.Fatalf("no organization, so no Awarded_to edges, got %d", got)
	}
	if got := len(store.RelsOfType(graphstore.RelSubawardOf)); got != 1 {
		t.Fatalf("Subaward_of = %d, want 1", got)
	}
}
