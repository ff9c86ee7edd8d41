package matching

import "sort"

// Participant is one registry entry as seen by the matcher.
type Participant struct {
	ID      int64
	Current Location
	Targets []Location
}

// Edge points from a node to a teacher whose current post it wants.
// Rank is the lowest index of that post in the source's target list.
type Edge struct {
	To   int
	Rank int
}

// Graph is the preference graph of one matching year. Nodes are sorted by
// ascending participant ID and adjacency lists by target node, so every
// traversal over it is deterministic.
type Graph struct {
	nodes []Participant
	adj   [][]Edge
	index map[int64]int
	edges int
}

// BuildGraph admits every participant with a complete current location and
// at least one complete target, then links A→B whenever B's current
// location is among A's targets. Participants sharing a location are
// distinct nodes and each receives its own edge. Self-loops are never
// created. Duplicate IDs keep the first occurrence.
func BuildGraph(participants []Participant) *Graph {
	admitted := make([]Participant, 0, len(participants))
	seen := make(map[int64]struct{}, len(participants))
	for _, p := range participants {
		if _, dup := seen[p.ID]; dup {
			continue
		}
		seen[p.ID] = struct{}{}
		if !p.Current.Valid() || !hasValidTarget(p.Targets) {
			continue
		}
		admitted = append(admitted, p)
	}
	sort.Slice(admitted, func(i, j int) bool { return admitted[i].ID < admitted[j].ID })

	g := &Graph{
		nodes: admitted,
		adj:   make([][]Edge, len(admitted)),
		index: make(map[int64]int, len(admitted)),
	}
	byLocation := make(map[string][]int)
	for i, p := range admitted {
		g.index[p.ID] = i
		byLocation[p.Current.key()] = append(byLocation[p.Current.key()], i)
	}

	for i, p := range admitted {
		best := make(map[string]int, len(p.Targets))
		for rank, target := range p.Targets {
			if !target.Valid() {
				continue
			}
			if _, ok := best[target.key()]; !ok {
				best[target.key()] = rank
			}
		}
		var out []Edge
		for key, rank := range best {
			for _, j := range byLocation[key] {
				if j == i {
					continue
				}
				out = append(out, Edge{To: j, Rank: rank})
			}
		}
		sort.Slice(out, func(a, b int) bool { return out[a].To < out[b].To })
		g.adj[i] = out
		g.edges += len(out)
	}
	return g
}

func hasValidTarget(targets []Location) bool {
	for _, t := range targets {
		if t.Valid() {
			return true
		}
	}
	return false
}

// Len returns the number of admitted participants.
func (g *Graph) Len() int { return len(g.nodes) }

// EdgeCount returns the number of directed edges.
func (g *Graph) EdgeCount() int { return g.edges }

// Contains reports whether the participant was admitted.
func (g *Graph) Contains(id int64) bool {
	_, ok := g.index[id]
	return ok
}

// EdgeRank returns the rank of the edge from→to and whether it exists.
func (g *Graph) EdgeRank(from, to int64) (int, bool) {
	i, ok := g.index[from]
	if !ok {
		return 0, false
	}
	j, ok := g.index[to]
	if !ok {
		return 0, false
	}
	out := g.adj[i]
	k := sort.Search(len(out), func(k int) bool { return out[k].To >= j })
	if k < len(out) && out[k].To == j {
		return out[k].Rank, true
	}
	return 0, false
}

func (g *Graph) id(node int) int64 { return g.nodes[node].ID }
