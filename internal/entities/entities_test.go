package entities

import (
	"testing"

	"github.com/grantlab/awardgraph/internal/ingestion"
)

const baseURL = "https://www.nsf.gov/awardsearch/showAward"

func TestSplitCoPIs(t *testing.T) {
	got := SplitCoPIs("Jane Doe, John Smith")
	if len(got) != 2 || got[0] != "Jane Doe" || got[1] != "John Smith" {
		t.Fatalf("unexpected split: %v", got)
	}
	if got := SplitCoPIs(""); got != nil {
		t.Fatalf("empty field should yield nothing, got %v", got)
	}
	if got := SplitCoPIs("  ,  "); got != nil {
		t.Fatalf("whitespace-only names should be filtered, got %v", got)
	}
}

func TestExtractPeopleCounts(t *testing.T) {
	records := []ingestion.AwardRecord{
		{
			AwardNumber:           "100",
			Title:                 "T1",
			PrincipalInvestigator: "Alice",
			ProgramManager:        "Carol",
			CoPINames:             "Jane Doe, John Smith",
		},
		{
			AwardNumber:           "101",
			Title:                 "T2",
			PrincipalInvestigator: "Alice",
			ProgramManager:        "Carol",
		},
	}
	e := Extract(records, baseURL)

	counts := make(map[string]int)
	for _, p := range e.People {
		counts[p.Name] = p.Count
	}
	if len(counts) != 4 {
		t.Fatalf("expected 4 distinct people, got %d: %v", len(counts), counts)
	}
	if counts["Alice"] != 2 || counts["Carol"] != 2 {
		t.Fatalf("PI/PM counts wrong: %v", counts)
	}
	if counts["Jane Doe"] != 1 || counts["John Smith"] != 1 {
		t.Fatalf("co-PI counts wrong: %v", counts)
	}
}

func TestExtractOrganizationsGroupByCompositeKey(t *testing.T) {
	records := []ingestion.AwardRecord{
		{AwardNumber: "1", Title: "T", Organization: "State U", OrganizationState: "OH", OrganizationCity: "Columbus", PrincipalInvestigator: "A"},
		{AwardNumber: "2", Title: "T", Organization: "State U", OrganizationState: "OH", OrganizationCity: "Columbus", PrincipalInvestigator: "B"},
		{AwardNumber: "3", Title: "T", Organization: "State U", OrganizationState: "MI", OrganizationCity: "Lansing", PrincipalInvestigator: "C"},
	}
	e := Extract(records, baseURL)
	if len(e.Organizations) != 2 {
		t.Fatalf("expected 2 organizations, got %d", len(e.Organizations))
	}
	if e.Organizations[0].Count != 2 {
		t.Fatalf("expected first org credited with 2 records, got %d", e.Organizations[0].Count)
	}
	if e.Organizations[0].Key() != "State U|OH|Columbus" {
		t.Fatalf("unexpected composite key %q", e.Organizations[0].Key())
	}
}

func TestExtractAwardsDedupByTitle(t *testing.T) {
	records := []ingestion.AwardRecord{
		{AwardNumber: "1", Title: "Shared Title", Abstract: "first abstract", PrincipalInvestigator: "A"},
		{AwardNumber: "2", Title: "Shared Title", Abstract: "second abstract", PrincipalInvestigator: "B"},
		{AwardNumber: "3", Title: "Other Title", PrincipalInvestigator: "C"},
	}
	e := Extract(records, baseURL)
	if len(e.Awards) != 2 {
		t.Fatalf("expected 2 awards, got %d", len(e.Awards))
	}
	if e.Awards[0].Abstract != "first abstract" {
		t.Fatalf("award attributes should come from the first record, got %q", e.Awards[0].Abstract)
	}
	if len(e.SubAwards) != 3 {
		t.Fatalf("expected one sub-award per record, got %d", len(e.SubAwards))
	}
	if e.SubAwards[0].AwardTitle != "Shared Title" {
		t.Fatalf("sub-award should reference its record title, got %q", e.SubAwards[0].AwardTitle)
	}
}

func TestSubAwardURLAndAmount(t *testing.T) {
	records := []ingestion.AwardRecord{
		{AwardNumber: "1351234", Title: "T", AwardedAmountToDate: "$1,234,567.00", PrincipalInvestigator: "A"},
	}
	e := Extract(records, baseURL)
	sub := e.SubAwards[0]
	want := "https://www.nsf.gov/awardsearch/showAward?AWD_ID=1351234"
	if sub.URL != want {
		t.Fatalf("URL = %q, want %q", sub.URL, want)
	}
	if sub.Amount != 1234567.00 {
		t.Fatalf("Amount = %v, want 1234567", sub.Amount)
	}
}

func TestExtractFiltersEmptyNames(t *testing.T) {
	records := []ingestion.AwardRecord{
		{AwardNumber: "1", Title: "T", PrincipalInvestigator: "  ", ProgramManager: "", CoPINames: ", "},
	}
	e := Extract(records, baseURL)
	if len(e.People) != 0 {
		t.Fatalf("expected no people from blank fields, got %v", e.People)
	}
}
