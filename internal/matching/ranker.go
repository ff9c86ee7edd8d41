package matching

import (
	"encoding/binary"
	"encoding/hex"
	"sort"

	"github.com/zeebo/blake3"
)

// matchDomain separates match IDs from any other digest over the same ids.
var matchDomain = []byte("circlematch.match.v1\x00")

// MatchID derives a stable identifier from the canonical member order.
// The same cycle always yields the same ID; the reverse direction is a
// different cycle and yields a different ID.
func MatchID(members []int64) string {
	buf := make([]byte, 0, len(matchDomain)+8*len(members))
	buf = append(buf, matchDomain...)
	for _, id := range members {
		buf = binary.BigEndian.AppendUint64(buf, uint64(id))
	}
	sum := blake3.Sum256(buf)
	return "m_" + hex.EncodeToString(sum[:12])
}

// Rank assigns IDs and scores, then orders cycles by length, total
// preference rank and ID. Every feasible cycle is kept: a teacher may appear
// in several of them.
func Rank(cycles []Cycle) []Cycle {
	for i := range cycles {
		cycles[i].ID = MatchID(cycles[i].Members)
		score := 0
		for _, r := range cycles[i].Ranks {
			score += r
		}
		cycles[i].Score = score
	}
	sort.SliceStable(cycles, func(a, b int) bool {
		ca, cb := cycles[a], cycles[b]
		if ca.Len() != cb.Len() {
			return ca.Len() < cb.Len()
		}
		if ca.Score != cb.Score {
			return ca.Score < cb.Score
		}
		return ca.ID < cb.ID
	})
	return cycles
}

// Involving keeps the cycles that contain id.
func Involving(cycles []Cycle, id int64) []Cycle {
	out := make([]Cycle, 0)
	for _, c := range cycles {
		for _, m := range c.Members {
			if m == id {
				out = append(out, c)
				break
			}
		}
	}
	return out
}
