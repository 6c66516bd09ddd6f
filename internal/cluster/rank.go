package cluster

import (
	"context"
	"fmt"

	"github.com/lao-tseu-is-alive/go-vicsek/pkg/collective"
	"github.com/lao-tseu-is-alive/go-vicsek/pkg/vicsek"
	"github.com/tochemey/goakt/v3/actor"
	"github.com/tochemey/goakt/v3/goaktpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// recordLen is the number of values exchanged per agent: mean, θ, vx, vy.
const recordLen = 4

// report is what a rank sends back to the runner after a step.
type report struct {
	rank int
	step uint64
	err  error
}

// RankActor owns one contiguous range of agents. It keeps a private copy of
// the whole state, advances it every step, and is the only writer of the
// headings in its range. After each step the ranks all-gather their ranges so
// every copy holds the same global state again.
type RankActor struct {
	rank  int
	owned vicsek.Range
	sim   *vicsek.Simulation
	comm  *collective.Comm

	// ctx bounds the collective; the runner cancels it on Stop.
	ctx     context.Context
	reports chan<- report

	local  []float64
	global []float64
}

var _ actor.Actor = (*RankActor)(nil)

// NewRankActor creates the actor state. sim must not be shared with another rank.
func NewRankActor(ctx context.Context, sim *vicsek.Simulation, owned vicsek.Range, comm *collective.Comm, reports chan<- report) *RankActor {
	return &RankActor{
		rank:    comm.Rank(),
		owned:   owned,
		sim:     sim,
		comm:    comm,
		ctx:     ctx,
		reports: reports,
		local:   make([]float64, recordLen*owned.Len()),
		global:  make([]float64, recordLen*sim.State().Len()),
	}
}

func (r *RankActor) PreStart(ctx *actor.Context) error {
	ctx.ActorSystem().Logger().Debugf("%s owns agents %s", ctx.ActorName(), r.owned)
	return nil
}

func (r *RankActor) Receive(ctx *actor.ReceiveContext) {
	switch msg := ctx.Message().(type) {
	case *goaktpb.PostStart:
		ctx.Logger().Debugf("%s started", ctx.Self().Name())

	case *wrapperspb.UInt64Value:
		err := r.step()
		if err != nil {
			ctx.Logger().Errorf("%s step %d: %v", ctx.Self().Name(), msg.GetValue(), err)
		}
		select {
		case r.reports <- report{rank: r.rank, step: msg.GetValue(), err: err}:
		case <-r.ctx.Done():
		}

	default:
		ctx.Unhandled()
	}
}

func (r *RankActor) PostStop(ctx *actor.Context) error {
	ctx.ActorSystem().Logger().Debugf("%s stopped after %d steps", ctx.ActorName(), r.sim.StepCount())
	return r.sim.Close()
}

// step advances the owned range and merges every rank's range back into the
// private state.
func (r *RankActor) step() error {
	r.sim.Advance(r.owned)

	s := r.sim.State()
	for k, i := 0, r.owned.Start; i < r.owned.End; k, i = k+recordLen, i+1 {
		r.local[k] = s.Mean[i]
		r.local[k+1] = s.Theta[i]
		r.local[k+2] = s.Vx[i]
		r.local[k+3] = s.Vy[i]
	}

	if err := r.comm.AllGather(r.ctx, r.local, r.global); err != nil {
		return fmt.Errorf("all-gather: %w", err)
	}

	for i := 0; i < s.Len(); i++ {
		k := recordLen * i
		s.Mean[i] = r.global[k]
		s.Theta[i] = r.global[k+1]
		s.Vx[i] = r.global[k+2]
		s.Vy[i] = r.global[k+3]
	}
	return nil
}
