package matching

import (
	"context"
	"errors"
	"strconv"
	"strings"
)

const (
	// MinCycleLength is a direct swap.
	MinCycleLength = 2
	// MaxCycleLengthCeiling caps any configured length.
	MaxCycleLengthCeiling = 12

	checkEvery = 1024
)

// Truncation reasons reported when a search stops early.
const (
	ReasonDeadline  = "deadline_exceeded"
	ReasonCanceled  = "canceled"
	ReasonMaxCycles = "max_cycles"
)

// Cycle is a transfer chain in canonical rotation: Members[0] holds the
// lowest ID and Members[i] wants the post of Members[(i+1) % len].
// Ranks[i] is the preference rank of that hop.
type Cycle struct {
	ID      string
	Members []int64
	Ranks   []int
	Score   int
}

// Len returns the number of teachers in the cycle.
func (c Cycle) Len() int { return len(c.Members) }

// SearchOptions bounds the enumeration.
type SearchOptions struct {
	MaxLength int
	MaxCycles int
}

// SearchResult holds the cycles found and whether the search was cut short.
type SearchResult struct {
	Cycles     []Cycle
	Truncated  bool
	Reason     string
	Expansions int
}

type searcher struct {
	ctx       context.Context
	g         *Graph
	maxLength int
	maxCycles int

	start      int
	path       []int
	ranks      []int
	onPath     []bool
	seen       map[string]struct{}
	result     SearchResult
	stopped    bool
	expansions int
}

// FindCycles enumerates every simple directed cycle of length
// MinCycleLength..opts.MaxLength. The search roots at each node in ascending
// order and only walks through nodes after the root, so a cycle is reached
// from its lowest member only; canonical keys guard against duplicates on
// top of that. When ctx ends or MaxCycles is reached the cycles found so far
// are returned with Truncated set.
func FindCycles(ctx context.Context, g *Graph, opts SearchOptions) SearchResult {
	maxLength := opts.MaxLength
	if maxLength < MinCycleLength {
		maxLength = MinCycleLength
	}
	if maxLength > MaxCycleLengthCeiling {
		maxLength = MaxCycleLengthCeiling
	}

	s := &searcher{
		ctx:       ctx,
		g:         g,
		maxLength: maxLength,
		maxCycles: opts.MaxCycles,
		onPath:    make([]bool, g.Len()),
		seen:      make(map[string]struct{}),
	}
	for start := 0; start < g.Len() && !s.stopped; start++ {
		s.start = start
		s.path = append(s.path[:0], start)
		s.ranks = s.ranks[:0]
		s.onPath[start] = true
		s.walk(start)
		s.onPath[start] = false
	}
	s.result.Expansions = s.expansions
	return s.result
}

func (s *searcher) walk(node int) {
	for _, e := range s.g.adj[node] {
		if s.stopped {
			return
		}
		s.expansions++
		if s.expansions%checkEvery == 0 && s.interrupted() {
			return
		}
		switch {
		case e.To == s.start:
			if len(s.path) >= MinCycleLength {
				s.record(append(s.ranks, e.Rank))
			}
		case e.To > s.start && !s.onPath[e.To] && len(s.path) < s.maxLength:
			s.path = append(s.path, e.To)
			s.ranks = append(s.ranks, e.Rank)
			s.onPath[e.To] = true
			s.walk(e.To)
			s.onPath[e.To] = false
			s.path = s.path[:len(s.path)-1]
			s.ranks = s.ranks[:len(s.ranks)-1]
		}
	}
}

func (s *searcher) interrupted() bool {
	err := s.ctx.Err()
	if err == nil {
		return false
	}
	s.stop(ReasonCanceled)
	if errors.Is(err, context.DeadlineExceeded) {
		s.result.Reason = ReasonDeadline
	}
	return true
}

func (s *searcher) stop(reason string) {
	s.stopped = true
	s.result.Truncated = true
	s.result.Reason = reason
}

func (s *searcher) record(ranks []int) {
	members := make([]int64, len(s.path))
	for i, node := range s.path {
		members[i] = s.g.id(node)
	}
	members, rotated := Canonicalize(members, append([]int(nil), ranks...))

	key := canonicalKey(members)
	if _, dup := s.seen[key]; dup {
		return
	}
	s.seen[key] = struct{}{}
	s.result.Cycles = append(s.result.Cycles, Cycle{Members: members, Ranks: rotated})

	if s.maxCycles > 0 && len(s.result.Cycles) >= s.maxCycles {
		s.stop(ReasonMaxCycles)
	}
}

// Canonicalize rotates a cycle so its lowest member comes first, keeping the
// hop ranks aligned with their source member.
func Canonicalize(members []int64, ranks []int) ([]int64, []int) {
	if len(members) == 0 {
		return members, ranks
	}
	lowest := 0
	for i, id := range members {
		if id < members[lowest] {
			lowest = i
		}
	}
	if lowest == 0 {
		return members, ranks
	}
	outMembers := append(append([]int64(nil), members[lowest:]...), members[:lowest]...)
	var outRanks []int
	if len(ranks) == len(members) {
		outRanks = append(append([]int(nil), ranks[lowest:]...), ranks[:lowest]...)
	}
	return outMembers, outRanks
}

func canonicalKey(members []int64) string {
	var b strings.Builder
	for i, id := range members {
		if i > 0 {
			b.WriteByte('>')
		}
		b.WriteString(strconv.FormatInt(id, 10))
	}
	return b.String()
}
