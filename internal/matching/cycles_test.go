package matching

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func search(t *testing.T, ps []Participant, maxLength int) SearchResult {
	t.Helper()
	return FindCycles(context.Background(), BuildGraph(ps), SearchOptions{MaxLength: maxLength})
}

func TestFindCyclesDirectSwap(t *testing.T) {
	a, b := loc("臺北市", "大安區"), loc("臺北市", "信義區")
	res := search(t, []Participant{
		participant(10, a, b),
		participant(20, b, a),
	}, 6)

	require.Len(t, res.Cycles, 1)
	assert.Equal(t, []int64{10, 20}, res.Cycles[0].Members)
	assert.Equal(t, []int{0, 0}, res.Cycles[0].Ranks)
	assert.False(t, res.Truncated)
}

func TestFindCyclesTriangleReportedOnce(t *testing.T) {
	a, b, c := loc("臺北市", "大安區"), loc("新北市", "板橋區"), loc("桃園市", "中壢區")
	res := search(t, []Participant{
		participant(3, c, a),
		participant(1, a, b),
		participant(2, b, c),
	}, 6)

	require.Len(t, res.Cycles, 1)
	assert.Equal(t, []int64{1, 2, 3}, res.Cycles[0].Members)
}

func TestFindCyclesRespectsMaxLength(t *testing.T) {
	a, b, c, d := loc("A", "1"), loc("B", "1"), loc("C", "1"), loc("D", "1")
	ps := []Participant{
		participant(1, a, b),
		participant(2, b, c),
		participant(3, c, d),
		participant(4, d, a),
	}

	assert.Empty(t, search(t, ps, 3).Cycles)
	assert.Len(t, search(t, ps, 4).Cycles, 1)
}

func TestFindCyclesBothDirectionsAreDistinct(t *testing.T) {
	a, b, c := loc("A", "1"), loc("B", "1"), loc("C", "1")
	res := search(t, []Participant{
		participant(1, a, b, c),
		participant(2, b, a, c),
		participant(3, c, a, b),
	}, 3)

	// three direct swaps plus 1>2>3 and 1>3>2
	require.Len(t, res.Cycles, 5)
	keys := map[string]bool{}
	for _, c := range res.Cycles {
		keys[canonicalKey(c.Members)] = true
	}
	assert.True(t, keys["1>2>3"])
	assert.True(t, keys["1>3>2"])
	assert.True(t, keys["1>2"])
}

func TestFindCyclesStopsAtMaxCycles(t *testing.T) {
	res := FindCycles(context.Background(), BuildGraph(complete(6)), SearchOptions{MaxLength: 4, MaxCycles: 3})

	assert.Len(t, res.Cycles, 3)
	assert.True(t, res.Truncated)
	assert.Equal(t, ReasonMaxCycles, res.Reason)
}

func TestFindCyclesHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := FindCycles(ctx, BuildGraph(complete(10)), SearchOptions{MaxLength: 8})
	assert.True(t, res.Truncated)
	assert.Equal(t, ReasonCanceled, res.Reason)
	for _, c := range res.Cycles {
		assert.GreaterOrEqual(t, c.Len(), MinCycleLength)
	}
}

func TestFindCyclesMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	places := []Location{loc("A", "1"), loc("A", "2"), loc("B", "1"), loc("B", "2"), loc("C", "1")}

	for round := 0; round < 20; round++ {
		var ps []Participant
		for id := int64(1); id <= 7; id++ {
			p := participant(id, places[rng.Intn(len(places))])
			for k := rng.Intn(3); k >= 0; k-- {
				p.Targets = append(p.Targets, places[rng.Intn(len(places))])
			}
			ps = append(ps, p)
		}
		g := BuildGraph(ps)
		res := FindCycles(context.Background(), g, SearchOptions{MaxLength: 4})

		got := map[string]bool{}
		for _, c := range res.Cycles {
			key := canonicalKey(c.Members)
			require.False(t, got[key], "duplicate cycle %s", key)
			got[key] = true
			assertFeasible(t, g, c)
		}
		assert.Equal(t, bruteForce(g, 4), got, "round %d", round)
	}
}

func assertFeasible(t *testing.T, g *Graph, c Cycle) {
	t.Helper()
	require.GreaterOrEqual(t, c.Len(), MinCycleLength)
	for i, from := range c.Members {
		to := c.Members[(i+1)%c.Len()]
		require.NotEqual(t, from, to)
		rank, ok := g.EdgeRank(from, to)
		require.True(t, ok, "missing edge %d->%d", from, to)
		require.Equal(t, rank, c.Ranks[i])
	}
}

// bruteForce walks every ordered tuple whose first element is its minimum.
func bruteForce(g *Graph, maxLength int) map[string]bool {
	out := map[string]bool{}
	var ids []int64
	for _, n := range g.nodes {
		ids = append(ids, n.ID)
	}
	var extend func(path []int64)
	extend = func(path []int64) {
		if len(path) >= 2 {
			if _, ok := g.EdgeRank(path[len(path)-1], path[0]); ok {
				out[canonicalKey(path)] = true
			}
		}
		if len(path) == maxLength {
			return
		}
		for _, next := range ids {
			if next <= path[0] || contains(path, next) {
				continue
			}
			if _, ok := g.EdgeRank(path[len(path)-1], next); !ok {
				continue
			}
			extend(append(append([]int64(nil), path...), next))
		}
	}
	for _, id := range ids {
		extend([]int64{id})
	}
	return out
}

func contains(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// complete returns n participants at distinct places, each wanting every other place.
func complete(n int) []Participant {
	places := make([]Location, n)
	for i := range places {
		places[i] = loc("County", fmt.Sprintf("D%d", i))
	}
	ps := make([]Participant, n)
	for i := range ps {
		ps[i] = participant(int64(i+1), places[i])
		for j := range places {
			if j != i {
				ps[i].Targets = append(ps[i].Targets, places[j])
			}
		}
	}
	return ps
}

func TestCanonicalizeRotatesRanks(t *testing.T) {
	members, ranks := Canonicalize([]int64{5, 9, 2}, []int{0, 1, 2})
	assert.Equal(t, []int64{2, 5, 9}, members)
	assert.Equal(t, []int{2, 0, 1}, ranks)
}
