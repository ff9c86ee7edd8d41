package models

import (
	"fmt"
	"time"
)

// MatchTypeLabel is the UI label of an N-teacher cycle.
func MatchTypeLabel(n int) string {
	return fmt.Sprintf("%d角調", n)
}

// MatchResult is one transfer cycle: Teachers[i] moves into the current
// post of Teachers[(i+1) % len(Teachers)].
type MatchResult struct {
	ID          string          `json:"id"`
	MatchType   string          `json:"match_type"`
	CycleLength int             `json:"cycle_length"`
	RankScore   int             `json:"rank_score"`
	Teachers    []PublicTeacher `json:"teachers"`
}

// Involves reports whether teacherID is a member of the cycle.
func (m MatchResult) Involves(teacherID int64) bool {
	for _, t := range m.Teachers {
		if t.ID == teacherID {
			return true
		}
	}
	return false
}

// MatchStats describes one computation.
type MatchStats struct {
	Teachers     int   `json:"teachers"`
	Participants int   `json:"participants"`
	Edges        int   `json:"edges"`
	Cycles       int   `json:"cycles"`
	DurationMs   int64 `json:"duration_ms"`
}

// MatchSet is the full result of one computation over a registry snapshot.
type MatchSet struct {
	Year            int           `json:"year"`
	Version         int64         `json:"version"`
	Results         []MatchResult `json:"results"`
	Truncated       bool          `json:"truncated"`
	TruncatedReason string        `json:"truncated_reason,omitempty"`
	ComputedAt      time.Time     `json:"computed_at"`
	Stats           MatchStats    `json:"stats"`
}

// MatchQuery filters a read of the current match set.
type MatchQuery struct {
	Year      int
	TeacherID int64
}
