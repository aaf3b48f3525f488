package titles

import (
	"testing"

	"github.com/grantlab/awardgraph/internal/ingestion"
)

func TestNormalizeClustersNearDuplicates(t *testing.T) {
	raw := []string{"Study of X", "A Study of X", "Completely Unrelated Title"}
	canon := Normalize(raw, DefaultDistanceThreshold, nil)

	if canon["Study of X"] != canon["A Study of X"] {
		t.Fatalf("expected near-duplicates to share a canonical title, got %q vs %q",
			canon["Study of X"], canon["A Study of X"])
	}
	if canon["Completely Unrelated Title"] != "Completely Unrelated Title" {
		t.Fatalf("unrelated title should map to itself, got %q", canon["Completely Unrelated Title"])
	}
	if canon["Completely Unrelated Title"] == canon["Study of X"] {
		t.Fatal("unrelated title merged into the wrong cluster")
	}
}

func TestNormalizePicksMostFrequent(t *testing.T) {
	raw := []string{"A Study of X", "Study of X", "Study of X"}
	canon := Normalize(raw, DefaultDistanceThreshold, nil)
	if got := canon["A Study of X"]; got != "Study of X" {
		t.Fatalf("expected mode of cluster as canonical, got %q", got)
	}
}

func TestNormalizeTieBreaksByFirstOccurrence(t *testing.T) {
	raw := []string{"A Study of X", "Study of X"}
	canon := Normalize(raw, DefaultDistanceThreshold, nil)
	if got := canon["Study of X"]; got != "A Study of X" {
		t.Fatalf("tie should go to the first-seen title, got %q", got)
	}
}

func TestNormalizeSingletonMapsToItself(t *testing.T) {
	canon := Normalize([]string{"Only Title"}, DefaultDistanceThreshold, nil)
	if got := canon["Only Title"]; got != "Only Title" {
		t.Fatalf("singleton should map to itself, got %q", got)
	}
}

func TestNormalizeIsCaseInsensitive(t *testing.T) {
	canon := Normalize([]string{"STUDY OF X", "study of x"}, 0, nil)
	if canon["STUDY OF X"] != canon["study of x"] {
		t.Fatal("case variants should cluster at distance 0")
	}
}

func TestNormalizeTransitiveMerge(t *testing.T) {
	// a<->b and b<->c are within threshold; a<->c is not. Single-linkage
	// still puts all three in one cluster.
	a := "grant program alpha"
	b := "grant program alpha 123"
	c := "grant program alpha 123wxyz"
	canon := Normalize([]string{a, b, c}, 4, nil)
	if canon[a] != canon[b] || canon[b] != canon[c] {
		t.Fatalf("expected one transitive cluster, got %q %q %q", canon[a], canon[b], canon[c])
	}
}

func TestNormalizeOrderIndependentCanonical(t *testing.T) {
	forward := []string{"Study of X", "Study of X", "A Study of X"}
	backward := []string{"A Study of X", "Study of X", "Study of X"}
	cf := Normalize(forward, DefaultDistanceThreshold, nil)
	cb := Normalize(backward, DefaultDistanceThreshold, nil)
	if cf["A Study of X"] != "Study of X" || cb["A Study of X"] != "Study of X" {
		t.Fatalf("mode-based canonical should not depend on input order, got %q and %q",
			cf["A Study of X"], cb["A Study of X"])
	}
}

func TestApplyRewritesRecordTitles(t *testing.T) {
	records := []ingestion.AwardRecord{
		{AwardNumber: "1", Title: "A Study of X"},
		{AwardNumber: "2", Title: "Study of X"},
	}
	canon := map[string]string{"A Study of X": "Study of X", "Study of X": "Study of X"}
	Apply(records, canon)
	for _, r := range records {
		if r.Title != "Study of X" {
			t.Fatalf("record %s title not canonicalized: %q", r.AwardNumber, r.Title)
		}
	}
}
