// Package entities derives deduplicated Person, Organization, Award and
// SubAward collections from the normalized source table.
package entities

import (
	"fmt"
	"strings"

	"github.com/grantlab/awardgraph/internal/ingestion"
)

type Person struct {
	Name  string
	Count int
}

type Organization struct {
	Name  string
	State string
	City  string
	Count int
}

// Key is the composite identity used for graph lookups.
func (o Organization) Key() string {
	return o.Name + "|" + o.State + "|" + o.City
}

func OrgKey(name, state, city string) string {
	return name + "|" + state + "|" + city
}

type Award struct {
	Title     string
	Abstract  string
	StartDate string
	EndDate   string
}

type SubAward struct {
	AwardNumber string
	Amount      float64
	URL         string
	AwardTitle  string
}

type Entities struct {
	People        []Person
	Organizations []Organization
	Awards        []Award
	SubAwards     []SubAward
}

// SplitCoPIs splits the raw co-PI field on its comma-space delimiter and
// drops empty or whitespace-only names.
func SplitCoPIs(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ", ") {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}
		out = append(out, name)
	}
	return out
}

// AwardURL builds the deterministic award-search URL for an award number.
func AwardURL(baseURL, awardNumber string) string {
	return fmt.Sprintf("%s?AWD_ID=%s", baseURL, awardNumber)
}

// Extract walks the (already title-normalized) record table once and builds
// all four entity sets in first-appearance order. Counts are incremented per
// record reference.
func Extract(records []ingestion.AwardRecord, awardSearchBaseURL string) Entities {
	var e Entities

	personIdx := make(map[string]int)
	addPerson := func(name string) {
		name = strings.TrimSpace(name)
		if name == "" {
			return
		}
		if i, ok := personIdx[name]; ok {
			e.People[i].Count++
			return
		}
		personIdx[name] = len(e.People)
		e.People = append(e.People, Person{Name: name, Count: 1})
	}

	orgIdx := make(map[string]int)
	awardIdx := make(map[string]int)

	for _, rec := range records {
		addPerson(rec.PrincipalInvestigator)
		addPerson(rec.ProgramManager)
		for _, copi := range SplitCoPIs(rec.CoPINames) {
			addPerson(copi)
		}

		if strings.TrimSpace(rec.Organization) != "" {
			key := OrgKey(rec.Organization, rec.OrganizationState, rec.OrganizationCity)
			if i, ok := orgIdx[key]; ok {
				e.Organizations[i].Count++
			} else {
				orgIdx[key] = len(e.Organizations)
				e.Organizations = append(e.Organizations, Organization{
					Name:  rec.Organization,
					State: rec.OrganizationState,
					City:  rec.OrganizationCity,
					Count: 1,
				})
			}
		}

		if strings.TrimSpace(rec.Title) != "" {
			if _, ok := awardIdx[rec.Title]; !ok {
				awardIdx[rec.Title] = len(e.Awards)
				e.Awards = append(e.Awards, Award{
					Title:     rec.Title,
					Abstract:  rec.Abstract,
					StartDate: rec.StartDate,
					EndDate:   rec.EndDate,
				})
			}
		}

		e.SubAwards = append(e.SubAwards, SubAward{
			AwardNumber: rec.AwardNumber,
			Amount:      rec.AmountValue(),
			URL:         AwardURL(awardSearchBaseURL, rec.AwardNumber),
			AwardTitle:  rec.Title,
		})
	}
	return e
}
