package vicsek

import (
	"runtime"
	"sync"

	"github.com/lao-tseu-is-alive/go-vicsek/pkg/geometry"
)

// parallelThreshold is the minimum agent count for which the inner loop is
// split across workers. Below it the fork-join costs more than the loop.
const parallelThreshold = 64

// partial is one worker's contribution to a single agent's sums.
type partial struct {
	cos, sin float64
}

// workChunk is the slice [lo, hi) of the inner loop for agent b.
type workChunk struct {
	s      *State
	nb     Neighborhood
	b      int
	lo, hi int
	slot   int
}

// Parallel is the shared-memory kernel. For each agent b the inner loop over
// all agents is split into contiguous chunks that a pool of persistent worker
// goroutines sums into private partials; the caller joins on the chunks and
// reduces the partials before taking atan2. Workers never write anything but
// their own partial slot.
//
// The partials are reduced in slot order, but the chunking differs from the
// sequential summation order, so results match Sequential within rounding
// only. A Parallel must not be used by more than one goroutine at a time.
type Parallel struct {
	numWorkers int
	partials   []partial

	workChan chan workChunk
	doneChan chan struct{}
	stopChan chan struct{}
	wg       sync.WaitGroup
	running  bool
}

var _ Averager = (*Parallel)(nil)

// NewParallel creates a parallel kernel with the given worker count
// (<= 0 means GOMAXPROCS). Workers start on first use.
func NewParallel(workers int) *Parallel {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Parallel{
		numWorkers: workers,
		partials:   make([]partial, workers),
	}
}

// Name implements Averager.
func (p *Parallel) Name() string { return BackendParallel }

// Workers returns the size of the worker pool.
func (p *Parallel) Workers() int { return p.numWorkers }

// MeanHeadings implements Averager.
func (p *Parallel) MeanHeadings(s *State, nb Neighborhood, start, end int) {
	n := s.Len()
	if n < parallelThreshold || p.numWorkers == 1 {
		Sequential{}.MeanHeadings(s, nb, start, end)
		return
	}
	p.startWorkers()

	chunkSize := (n + p.numWorkers - 1) / p.numWorkers
	for b := start; b < end; b++ {
		dispatched := 0
		for w := 0; w < p.numWorkers; w++ {
			lo := w * chunkSize
			hi := min(lo+chunkSize, n)
			if lo >= hi {
				break
			}
			p.workChan <- workChunk{s: s, nb: nb, b: b, lo: lo, hi: hi, slot: w}
			dispatched++
		}
		for i := 0; i < dispatched; i++ {
			<-p.doneChan
		}

		var sx, sy float64
		for _, part := range p.partials[:dispatched] {
			sx += part.cos
			sy += part.sin
		}
		s.Mean[b] = geometry.CircularMean(sy, sx)
	}
}

// startWorkers launches the persistent worker goroutines.
func (p *Parallel) startWorkers() {
	if p.running {
		return
	}

	p.workChan = make(chan workChunk, p.numWorkers)
	p.doneChan = make(chan struct{}, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

func (p *Parallel) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.stopChan:
			return
		case c, ok := <-p.workChan:
			if !ok {
				return
			}
			sx, sy := partialSums(c.s, c.nb, c.b, c.lo, c.hi)
			p.partials[c.slot] = partial{cos: sx, sin: sy}
			p.doneChan <- struct{}{}
		}
	}
}

// Close stops the worker pool. The kernel can be used again afterwards, the
// pool is restarted on demand.
func (p *Parallel) Close() error {
	if !p.running {
		return nil
	}

	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
	return nil
}
