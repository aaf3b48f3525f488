// Package graphload upserts the extracted entity sets into the graph store:
// first every node, then every relationship, one source record at a time.
package graphload

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/grantlab/awardgraph/internal/entities"
	"github.com/grantlab/awardgraph/internal/graphstore"
	"github.com/grantlab/awardgraph/internal/ingestion"
	"github.com/grantlab/awardgraph/internal/platform/logger"
)

type Loader struct {
	store graphstore.Store
	log   *logger.Logger
	runID uuid.UUID
}

// Summary reports what one load pass actually changed. A rerun over the same
// source against a populated store reports all zeros.
type Summary struct {
	RunID        uuid.UUID
	NodesCreated int
	RelsCreated  int
}

func New(store graphstore.Store, log *logger.Logger) *Loader {
	runID := uuid.New()
	return &Loader{
		store: store,
		log:   log.With("component", "graphload", "run_id", runID.String()),
		runID: runID,
	}
}

// Load runs both phases. The first store error aborts the run; no partial
// cleanup is attempted (recovery is a reset plus rerun).
func (l *Loader) Load(ctx context.Context, ents entities.Entities, records []ingestion.AwardRecord) (Summary, error) {
	sum := Summary{RunID: l.runID}

	if err := l.loadNodes(ctx, ents, &sum); err != nil {
		return sum, err
	}
	if err := l.loadEdges(ctx, records, &sum); err != nil {
		return sum, err
	}
	l.log.Info("load complete",
		"nodes_created", sum.NodesCreated,
		"rels_created", sum.RelsCreated,
	)
	return sum, nil
}

func (l *Loader) loadNodes(ctx context.Context, ents entities.Entities, sum *Summary) error {
	run := l.runID.String()

	for _, p := range ents.People {
		_, created, err := l.store.UpsertNode(ctx, graphstore.LabelPerson, graphstore.KeyPersonName, p.Name, map[string]any{
			"name":          p.Name,
			"count":         int64(p.Count),
			"loaded_by_run": run,
		})
		if err != nil {
			return fmt.Errorf("graphload: person %q: %w", p.Name, err)
		}
		if created {
			sum.NodesCreated++
		}
	}

	for _, o := range ents.Organizations {
		_, created, err := l.store.UpsertNode(ctx, graphstore.LabelOrganization, graphstore.KeyOrganizationKey, o.Key(), map[string]any{
			"name":          o.Name,
			"state":         o.State,
			"city":          o.City,
			"count":         int64(o.Count),
			"loaded_by_run": run,
		})
		if err != nil {
			return fmt.Errorf("graphload: organization %q: %w", o.Key(), err)
		}
		if created {
			sum.NodesCreated++
		}
	}

	for _, a := range ents.Awards {
		_, created, err := l.store.UpsertNode(ctx, graphstore.LabelAward, graphstore.KeyAwardTitle, a.Title, map[string]any{
			"abstract":      a.Abstract,
			"start_date":    a.StartDate,
			"end_date":      a.EndDate,
			"loaded_by_run": run,
		})
		if err != nil {
			return fmt.Errorf("graphload: award %q: %w", a.Title, err)
		}
		if created {
			sum.NodesCreated++
		}
	}

	for _, sa := range ents.SubAwards {
		_, created, err := l.store.UpsertNode(ctx, graphstore.LabelSubAward, graphstore.KeySubAwardNumber, sa.AwardNumber, map[string]any{
			"amount":        sa.Amount,
			"url":           sa.URL,
			"title":         sa.AwardTitle,
			"loaded_by_run": run,
		})
		if err != nil {
			return fmt.Errorf("graphload: sub-award %q: %w", sa.AwardNumber, err)
		}
		if created {
			sum.NodesCreated++
		}
	}

	l.log.Info("node phase done",
		"people", len(ents.People),
		"organizations", len(ents.Organizations),
		"awards", len(ents.Awards),
		"sub_awards", len(ents.SubAwards),
	)
	return nil
}

func personRef(name string) graphstore.NodeRef {
	return graphstore.NodeRef{Label: graphstore.LabelPerson, KeyField: graphstore.KeyPersonName, KeyValue: name}
}

func (l *Loader) loadEdges(ctx context.Context, records []ingestion.AwardRecord, sum *Summary) error {
	for _, rec := range records {
		orgRef := graphstore.NodeRef{
			Label:    graphstore.LabelOrganization,
			KeyField: graphstore.KeyOrganizationKey,
			KeyValue: entities.OrgKey(rec.Organization, rec.OrganizationState, rec.OrganizationCity),
		}
		awardRef := graphstore.NodeRef{
			Label:    graphstore.LabelAward,
			KeyField: graphstore.KeyAwardTitle,
			KeyValue: rec.Title,
		}
		subRef := graphstore.NodeRef{
			Label:    graphstore.LabelSubAward,
			KeyField: graphstore.KeySubAwardNumber,
			KeyValue: rec.AwardNumber,
		}

		// PI and every co-PI are based at the organization and applied for
		// the sub-award.
		applicants := make([]string, 0, 4)
		if pi := strings.TrimSpace(rec.PrincipalInvestigator); pi != "" {
			applicants = append(applicants, pi)
		}
		applicants = append(applicants, entities.SplitCoPIs(rec.CoPINames)...)

		for _, name := range applicants {
			if rec.Organization != "" {
				if err := l.upsertRel(ctx, personRef(name), orgRef, graphstore.RelBasedAt, sum); err != nil {
					return err
				}
			}
			if err := l.upsertRel(ctx, personRef(name), subRef, graphstore.RelAppliedFor, sum); err != nil {
				return err
			}
		}

		if rec.Organization != "" {
			if err := l.upsertRel(ctx, subRef, orgRef, graphstore.RelAwardedTo, sum); err != nil {
				return err
			}
		}
		if rec.Title != "" {
			if err := l.upsertRel(ctx, subRef, awardRef, graphstore.RelSubawardOf, sum); err != nil {
				return err
			}
		}
		if pm := strings.TrimSpace(rec.ProgramManager); pm != "" && rec.Title != "" {
			if err := l.upsertRel(ctx, personRef(pm), awardRef, graphstore.RelManages, sum); err != nil {
				return err
			}
		}
	}
	l.log.Info("edge phase done", "records", len(records))
	return nil
}

func (l *Loader) upsertRel(ctx context.Context, from, to graphstore.NodeRef, relType string, sum *Summary) error {
	_, created, err := l.store.UpsertRelationship(ctx, from, to, relType)
	if err != nil {
		return fmt.Errorf("graphload: %s %s->%s: %w", relType, from.KeyValue, to.KeyValue, err)
	}
	if created {
		sum.RelsCreated++
	}
	return nil
}
