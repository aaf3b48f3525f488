// Package titles collapses near-duplicate award titles so that awards and
// sub-awards resolve to the same canonical parent.
package titles

import (
	"strings"

	"github.com/agext/levenshtein"

	"github.com/grantlab/awardgraph/internal/ingestion"
	"github.com/grantlab/awardgraph/internal/platform/logger"
)

// DefaultDistanceThreshold is the largest edit distance at which two titles
// are still considered the same award.
const DefaultDistanceThreshold = 4

// unionFind over title indices; single-linkage, so merges are transitive and
// independent of input order.
type unionFind struct {
	parent []int
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{parent: make([]int, n)}
	for i := range uf.parent {
		uf.parent[i] = i
	}
	return uf
}

func (uf *unionFind) find(x int) int {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]]
		x = uf.parent[x]
	}
	return x
}

func (uf *unionFind) union(a, b int) {
	ra, rb := uf.find(a), uf.find(b)
	if ra == rb {
		return
	}
	// Attach the larger root index under the smaller so roots stay stable
	// across permuted input.
	if ra < rb {
		uf.parent[rb] = ra
	} else {
		uf.parent[ra] = rb
	}
}

// Normalize maps every input title to its cluster's canonical form. Titles
// within threshold edits of each other (case-insensitive) share a cluster;
// the canonical title is the most frequent member, ties broken by earliest
// first occurrence. Multi-title clusters are logged for manual review.
func Normalize(raw []string, threshold int, log *logger.Logger) map[string]string {
	if threshold < 0 {
		threshold = DefaultDistanceThreshold
	}

	// Distinct titles in first-seen order, with occurrence counts.
	var distinct []string
	counts := make(map[string]int, len(raw))
	firstSeen := make(map[string]int, len(raw))
	for _, t := range raw {
		if _, ok := counts[t]; !ok {
			firstSeen[t] = len(distinct)
			distinct = append(distinct, t)
		}
		counts[t]++
	}

	lowered := make([]string, len(distinct))
	for i, t := range distinct {
		lowered[i] = strings.ToLower(t)
	}

	uf := newUnionFind(len(distinct))
	for i := 0; i < len(distinct); i++ {
		for j := i + 1; j < len(distinct); j++ {
			if levenshtein.Distance(lowered[i], lowered[j], nil) <= threshold {
				uf.union(i, j)
			}
		}
	}

	clusters := make(map[int][]int)
	for i := range distinct {
		root := uf.find(i)
		clusters[root] = append(clusters[root], i)
	}

	canon := make(map[string]string, len(distinct))
	for _, members := range clusters {
		best := members[0]
		for _, m := range members[1:] {
			if counts[distinct[m]] > counts[distinct[best]] ||
				(counts[distinct[m]] == counts[distinct[best]] && firstSeen[distinct[m]] < firstSeen[distinct[best]]) {
				best = m
			}
		}
		for _, m := range members {
			canon[distinct[m]] = distinct[best]
		}
		if len(members) > 1 && log != nil {
			merged := make([]string, 0, len(members))
			for _, m := range members {
				merged = append(merged, distinct[m])
			}
			log.Warn("merged near-duplicate titles",
				"canonical", distinct[best],
				"titles", merged,
			)
		}
	}
	return canon
}

// Apply rewrites each record's title to its canonical form in place. Must run
// before entity extraction so Award nodes and Subaward_of lookups agree.
func Apply(records []ingestion.AwardRecord, canon map[string]string) {
	for i := range records {
		if c, ok := canon[records[i].Title]; ok {
			records[i].Title = c
		}
	}
}
