package matching

import (
	"context"
	"time"
)

// Options configures a Matcher.
type Options struct {
	MaxLength int
	MaxCycles int
	Timeout   time.Duration
}

// Outcome is the ranked result of one run.
type Outcome struct {
	Cycles       []Cycle
	Truncated    bool
	Reason       string
	Participants int
	Edges        int
	Duration     time.Duration
}

// Matcher runs graph construction, cycle search and ranking.
type Matcher struct {
	opts Options
}

// New builds a Matcher; MaxLength defaults to 6.
func New(opts Options) *Matcher {
	if opts.MaxLength == 0 {
		opts.MaxLength = 6
	}
	return &Matcher{opts: opts}
}

// Options returns the effective configuration.
func (m *Matcher) Options() Options { return m.opts }

// Match computes every transfer cycle among participants. It never fails:
// an exhausted time or size budget yields the cycles found so far.
func (m *Matcher) Match(ctx context.Context, participants []Participant) Outcome {
	start := time.Now()
	if m.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.opts.Timeout)
		defer cancel()
	}

	g := BuildGraph(participants)
	res := FindCycles(ctx, g, SearchOptions{MaxLength: m.opts.MaxLength, MaxCycles: m.opts.MaxCycles})

	return Outcome{
		Cycles:       Rank(res.Cycles),
		Truncated:    res.Truncated,
		Reason:       res.Reason,
		Participants: g.Len(),
		Edges:        g.EdgeCount(),
		Duration:     time.Since(start),
	}
}
