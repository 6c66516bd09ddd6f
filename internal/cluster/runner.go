// Package cluster runs a partitioned Vicsek simulation on an actor system.
// Each worker is a RankActor owning one range of agents; ranks exchange
// their updated agents through a collective all-gather after every step.
package cluster

import (
	"context"
	"errors"
	"fmt"

	"github.com/lao-tseu-is-alive/go-vicsek/pkg/collective"
	"github.com/lao-tseu-is-alive/go-vicsek/pkg/vicsek"
	"github.com/tochemey/goakt/v3/actor"
	"github.com/tochemey/goakt/v3/log"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ErrStopped is returned by Step after Stop.
var ErrStopped = errors.New("runner stopped")

// Config tunes a Runner.
type Config struct {
	// Workers is the number of ranks. Values below one mean one rank.
	Workers int
	// Backend is the kernel each rank uses on its own range.
	Backend string
	// Logger receives actor system logs. Nil means log.DiscardLogger.
	Logger log.Logger
}

// Runner drives the ranks one step at a time.
type Runner struct {
	system  actor.ActorSystem
	pids    []*actor.PID
	ranks   []*RankActor
	ranges  []vicsek.Range
	reports chan report
	group   *collective.Group
	logger  log.Logger

	ctx    context.Context
	cancel context.CancelFunc
	step   uint64
	failed error
}

// NewRunner starts an actor system and spawns one rank per worker. Every rank
// gets its own copy of initial and a noise source seeded with p.Seed.
func NewRunner(ctx context.Context, p vicsek.Params, initial *vicsek.State, cfg Config) (*Runner, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	workers := max(cfg.Workers, 1)
	logger := cfg.Logger
	if logger == nil {
		logger = log.DiscardLogger
	}

	ranges, err := vicsek.Partition(p.Agents, workers)
	if err != nil {
		return nil, err
	}
	group, err := collective.NewGroup(workers)
	if err != nil {
		return nil, err
	}

	system, err := actor.NewActorSystem("VicsekCluster",
		actor.WithLogger(logger),
		actor.WithActorInitMaxRetries(3))
	if err != nil {
		return nil, fmt.Errorf("failed to create actor system: %w", err)
	}
	if err := system.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start actor system: %w", err)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	r := &Runner{
		system:  system,
		ranges:  ranges,
		reports: make(chan report, workers),
		group:   group,
		logger:  logger,
		ctx:     runCtx,
		cancel:  cancel,
	}

	for rank, owned := range ranges {
		if err := r.spawnRank(ctx, p, initial, cfg.Backend, rank, owned); err != nil {
			_ = r.Stop(ctx)
			return nil, err
		}
	}
	logger.Infof("cluster up: %d ranks over %d agents", workers, p.Agents)
	return r, nil
}

func (r *Runner) spawnRank(ctx context.Context, p vicsek.Params, initial *vicsek.State, backend string, rank int, owned vicsek.Range) error {
	averager, err := vicsek.NewAverager(backend, 1, nil)
	if err != nil {
		return err
	}
	sim, err := vicsek.NewSimulation(p, initial.Clone(), vicsek.WithAverager(averager))
	if err != nil {
		return err
	}
	comm, err := r.group.Comm(rank)
	if err != nil {
		return err
	}

	ra := NewRankActor(r.ctx, sim, owned, comm, r.reports)
	pid, err := r.system.Spawn(ctx, fmt.Sprintf("rank-%03d", rank), ra, actor.WithLongLived())
	if err != nil {
		_ = sim.Close()
		return fmt.Errorf("failed to spawn rank %d: %w", rank, err)
	}
	r.ranks = append(r.ranks, ra)
	r.pids = append(r.pids, pid)
	return nil
}

// Workers returns the number of ranks.
func (r *Runner) Workers() int { return len(r.ranks) }

// Ranges returns the agent range owned by each rank.
func (r *Runner) Ranges() []vicsek.Range { return r.ranges }

// StepCount returns the number of completed steps.
func (r *Runner) StepCount() int { return int(r.step) }

// Step advances the whole population by one time step and returns once every
// rank reported. If ctx is cancelled while ranks are still gathering, the
// runner is left mid-step and only Stop is valid afterwards.
func (r *Runner) Step(ctx context.Context) error {
	if r.failed != nil {
		return r.failed
	}
	if r.ctx.Err() != nil {
		return ErrStopped
	}

	next := r.step + 1
	msg := wrapperspb.UInt64(next)
	for _, pid := range r.pids {
		if err := actor.Tell(ctx, pid, msg); err != nil {
			r.failed = fmt.Errorf("failed to send step %d to %s: %w", next, pid.Name(), err)
			return r.failed
		}
	}

	var errs []error
	for pending := len(r.pids); pending > 0; pending-- {
		select {
		case rep := <-r.reports:
			if rep.err != nil {
				errs = append(errs, fmt.Errorf("rank %d: %w", rep.rank, rep.err))
			} else if rep.step != next {
				errs = append(errs, fmt.Errorf("rank %d reported step %d, want %d", rep.rank, rep.step, next))
			}
		case <-ctx.Done():
			r.failed = ctx.Err()
			return r.failed
		}
	}
	if len(errs) > 0 {
		r.failed = errors.Join(errs...)
		return r.failed
	}
	r.step = next
	return nil
}

// Run performs steps steps, calling observe, when not nil, after each one.
func (r *Runner) Run(ctx context.Context, steps int, observe func(step int, s *vicsek.State) error) error {
	for i := 0; i < steps; i++ {
		if err := r.Step(ctx); err != nil {
			return err
		}
		if observe != nil {
			if err := observe(r.StepCount(), r.State()); err != nil {
				return err
			}
		}
	}
	return nil
}

// State returns rank 0's private state, which after a completed step equals
// the global state. It is only valid between steps and must not be modified.
func (r *Runner) State() *vicsek.State {
	return r.ranks[0].sim.State()
}

// Snapshot returns a copy of the global state after the last completed step.
func (r *Runner) Snapshot() *vicsek.State {
	return r.State().Clone()
}

// Stop unblocks any pending all-gather and shuts the actor system down.
func (r *Runner) Stop(ctx context.Context) error {
	r.cancel()
	if err := r.system.Stop(ctx); err != nil {
		return fmt.Errorf("failed to stop actor system: %w", err)
	}
	r.logger.Infof("cluster stopped after %d steps", r.step)
	return nil
}
