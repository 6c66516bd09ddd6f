package vicsek

import (
	"errors"
	"fmt"
)

// ErrInvalidPartition is returned for a worker count below one or a negative
// agent count.
var ErrInvalidPartition = errors.New("invalid partition")

// Range is the half-open agent index range [Start, End) owned by one worker.
type Range struct {
	Start, End int
}

// Len returns the number of agents in the range.
func (r Range) Len() int { return r.End - r.Start }

// Contains reports whether agent i belongs to the range.
func (r Range) Contains(i int) bool { return i >= r.Start && i < r.End }

func (r Range) String() string { return fmt.Sprintf("[%d,%d)", r.Start, r.End) }

// Partition splits [0, n) into workers contiguous ranges of width
// n/workers; the last range absorbs the remainder n%workers. The split is by
// index, not by space, so it does not balance work when agents cluster.
func Partition(n, workers int) ([]Range, error) {
	if workers < 1 {
		return nil, fmt.Errorf("%w: %d workers", ErrInvalidPartition, workers)
	}
	if n < 0 {
		return nil, fmt.Errorf("%w: %d agents", ErrInvalidPartition, n)
	}
	width := n / workers
	ranges := make([]Range, workers)
	for w := range ranges {
		ranges[w] = Range{Start: w * width, End: (w + 1) * width}
	}
	ranges[workers-1].End = n
	return ranges, nil
}
