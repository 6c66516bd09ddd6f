// Package collective provides an in-process all-gather among a fixed group of
// ranks. It is the synchronisation point of a partitioned simulation step:
// every rank contributes the slice it owns and receives the concatenation of
// all contributions, ordered by rank.
//
// The barrier has no timeout. A rank that never contributes stalls the whole
// group; only cancelling the context of the waiting callers unblocks them.
package collective

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrRankOutOfRange is returned when a rank is not in [0, size).
	ErrRankOutOfRange = errors.New("rank out of range")
	// ErrAlreadyContributed is returned when a rank contributes twice to the
	// same round.
	ErrAlreadyContributed = errors.New("rank already contributed to this round")
	// ErrBufferSize is returned when the destination cannot hold exactly the
	// gathered data.
	ErrBufferSize = errors.New("destination length does not match gathered length")
)

// round is one generation of the barrier. Waiters keep a pointer to their
// round, so the group can open the next one as soon as the last rank arrives.
type round struct {
	gen    uint64
	parts  [][]float64
	seen   []bool
	count  int
	result []float64
	done   chan struct{}
}

func newRound(gen uint64, size int) *round {
	return &round{
		gen:   gen,
		parts: make([][]float64, size),
		seen:  make([]bool, size),
		done:  make(chan struct{}),
	}
}

// Group is a fixed set of ranks that all-gather together. It is reusable:
// each completed all-gather starts a new round.
type Group struct {
	size    int
	mu      sync.Mutex
	current *round
}

// NewGroup returns a group of size ranks.
func NewGroup(size int) (*Group, error) {
	if size < 1 {
		return nil, fmt.Errorf("%w: group size %d", ErrRankOutOfRange, size)
	}
	return &Group{size: size, current: newRound(0, size)}, nil
}

// Size returns the number of ranks.
func (g *Group) Size() int { return g.size }

// Generation returns the number of completed rounds.
func (g *Group) Generation() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.current.gen
}

// Comm returns the handle rank uses to take part in the group.
func (g *Group) Comm(rank int) (*Comm, error) {
	if rank < 0 || rank >= g.size {
		return nil, fmt.Errorf("%w: %d not in [0,%d)", ErrRankOutOfRange, rank, g.size)
	}
	return &Comm{group: g, rank: rank}, nil
}

// AllGather contributes local on behalf of rank and blocks until every rank
// has contributed to the current round. The concatenation of all
// contributions, ordered by rank, is then copied into dst, whose length must
// equal the sum of contribution lengths. Contributions may differ in length.
//
// local is copied on entry and may be reused as soon as AllGather returns.
// The contribution is recorded before waiting; if ctx is cancelled the
// caller returns ctx.Err() and the round stays open.
func (g *Group) AllGather(ctx context.Context, rank int, local, dst []float64) error {
	if rank < 0 || rank >= g.size {
		return fmt.Errorf("%w: %d not in [0,%d)", ErrRankOutOfRange, rank, g.size)
	}

	g.mu.Lock()
	r := g.current
	if r.seen[rank] {
		g.mu.Unlock()
		return fmt.Errorf("%w: rank %d, round %d", ErrAlreadyContributed, rank, r.gen)
	}
	r.parts[rank] = append([]float64(nil), local...)
	r.seen[rank] = true
	r.count++
	if r.count == g.size {
		r.result = concat(r.parts)
		close(r.done)
		g.current = newRound(r.gen+1, g.size)
	}
	g.mu.Unlock()

	select {
	case <-r.done:
	case <-ctx.Done():
		return ctx.Err()
	}

	if len(dst) != len(r.result) {
		return fmt.Errorf("%w: have %d, gathered %d", ErrBufferSize, len(dst), len(r.result))
	}
	copy(dst, r.result)
	return nil
}

// Barrier blocks until every rank reached it.
func (g *Group) Barrier(ctx context.Context, rank int) error {
	return g.AllGather(ctx, rank, nil, nil)
}

func concat(parts [][]float64) []float64 {
	total := 0
	for _, p := range parts {
		total += len(p)
	}
	out := make([]float64, 0, total)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// Comm is one rank's view of a Group.
type Comm struct {
	group *Group
	rank  int
}

// Rank returns the rank of this handle.
func (c *Comm) Rank() int { return c.rank }

// Size returns the group size.
func (c *Comm) Size() int { return c.group.size }

// AllGather is Group.AllGather for this rank.
func (c *Comm) AllGather(ctx context.Context, local, dst []float64) error {
	return c.group.AllGather(ctx, c.rank, local, dst)
}

// Barrier is Group.Barrier for this rank.
func (c *Comm) Barrier(ctx context.Context) error {
	return c.group.Barrier(ctx, c.rank)
}
