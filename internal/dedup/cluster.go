package dedup

import (
	"context"
	"sort"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-dedup/internal/model"
)

// ProgressFunc receives the number of completed outer-loop iterations.
type ProgressFunc func(done, total int)

// BuildClusters groups leads into duplicate clusters: connected components
// of the graph whose edges are pairwise matches. Only clusters with two or
// more members are returned.
func BuildClusters(ctx context.Context, leads []model.Lead, opts MatchOptions) ([]model.DuplicateGroup, error) {
	return NewMatcher(opts).Clusters(ctx, leads, nil)
}

// Clusters runs the matcher over every pair of leads (O(n²)) and returns
// the resulting clusters. ctx is checked after each outer-loop iteration;
// on cancellation the partial result is discarded.
func (m *Matcher) Clusters(ctx context.Context, leads []model.Lead, progress ProgressFunc) ([]model.DuplicateGroup, error) {
	n := len(leads)
	feats := make([]features, n)
	for i, l := range leads {
		feats[i] = m.features(l)
	}

	uf := newUnionFind(n)
	var edges []indexedEdge

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if sameLead(feats[i].id, feats[j].id) {
				continue
			}
			mt, conf, ok := m.classify(feats[i], feats[j])
			if !ok {
				continue
			}
			uf.union(i, j)
			edges = append(edges, indexedEdge{i: i, j: j, edge: model.Edge{
				A:          leads[i].ID,
				B:          leads[j].ID,
				MatchType:  mt,
				Confidence: conf,
			}})
		}
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "dedup: build clusters cancelled")
		}
		if progress != nil {
			progress(i+1, n)
		}
	}

	// Components keyed by root, ordered by earliest member index.
	compIdx := make(map[int]int)
	var comps [][]int
	for i := 0; i < n; i++ {
		r := uf.find(i)
		ci, ok := compIdx[r]
		if !ok {
			ci = len(comps)
			compIdx[r] = ci
			comps = append(comps, nil)
		}
		comps[ci] = append(comps[ci], i)
	}

	compEdges := make([][]model.Edge, len(comps))
	for _, e := range edges {
		ci := compIdx[uf.find(e.i)]
		compEdges[ci] = append(compEdges[ci], e.edge)
	}

	groups := make([]model.DuplicateGroup, 0)
	for ci, members := range comps {
		if len(members) < 2 {
			continue
		}
		g := model.DuplicateGroup{
			Members: make([]model.Lead, len(members)),
			Edges:   compEdges[ci],
		}
		for k, idx := range members {
			g.Members[k] = leads[idx]
		}
		SortMembers(g.Members)
		groups = append(groups, g)
	}
	return groups, nil
}

// SortMembers orders cluster members for presentation: completeness score
// descending, then newest CreatedAt, then ID ascending.
func SortMembers(members []model.Lead) {
	sort.SliceStable(members, func(i, j int) bool {
		a, b := members[i], members[j]
		if a.CompletenessScore != b.CompletenessScore {
			return a.CompletenessScore > b.CompletenessScore
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}

type indexedEdge struct {
	i, j int
	edge model.Edge
}

type unionFind struct {
	parent []int
	rank   []int
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{parent: make([]int, n), rank: make([]int, n)}
	for i := range uf.parent {
		uf.parent[i] = i
	}
	return uf
}

func (u *unionFind) find(x int) int {
	for u.parent[x] != x {
		u.parent[x] = u.parent[u.parent[x]]
		x = u.parent[x]
	}
	return x
}

func (u *unionFind) union(a, b int) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	switch {
	case u.rank[ra] < u.rank[rb]:
		u.parent[ra] = rb
	case u.rank[ra] > u.rank[rb]:
		u.parent[rb] = ra
	default:
		u.parent[rb] = ra
		u.rank[ra]++
	}
}
