// Package simulation wires configuration, backends and telemetry into a
// complete batch run.
package simulation

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/lao-tseu-is-alive/go-vicsek/internal/cluster"
	"github.com/lao-tseu-is-alive/go-vicsek/internal/telemetry"
	"github.com/lao-tseu-is-alive/go-vicsek/pkg/vicsek"
	"github.com/tochemey/goakt/v3/log"
)

// Result describes a finished run.
type Result struct {
	Backend string
	Workers int
	Steps   int
	Elapsed time.Duration // time spent stepping, output excluded
	Summary telemetry.Summary
	Final   *vicsek.State
}

// stepper is the common face of a local Simulation and a cluster Runner.
type stepper interface {
	Step(ctx context.Context) error
	State() *vicsek.State
	Close(ctx context.Context) error
}

type localStepper struct {
	sim *vicsek.Simulation
}

func (l localStepper) Step(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.sim.Step()
	return nil
}

func (l localStepper) State() *vicsek.State { return l.sim.State() }

func (l localStepper) Close(context.Context) error { return l.sim.Close() }

type clusterStepper struct {
	*cluster.Runner
}

func (c clusterStepper) Close(ctx context.Context) error { return c.Stop(ctx) }

// Run executes cfg.Steps steps of the configured backend. Diagnostics go to
// stdout when enabled, followed by the timing report line.
func Run(ctx context.Context, cfg *Config, logger log.Logger, stdout io.Writer) (*Result, error) {
	if logger == nil {
		logger = log.DiscardLogger
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p := cfg.Params()

	initial, err := vicsek.NewRandomState(p)
	if err != nil {
		return nil, fmt.Errorf("failed to initialise %d agents: %w", p.Agents, err)
	}

	st, workers, err := newStepper(ctx, cfg, p, initial, logger)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := st.Close(context.WithoutCancel(ctx)); err != nil {
			logger.Errorf("closing %s backend: %v", cfg.Backend, err)
		}
	}()

	recorder, err := telemetry.NewRecorder(cfg.TelemetryFile)
	if err != nil {
		return nil, err
	}
	defer recorder.Close()
	diag := telemetry.NewDiagnostics(stdout, cfg.Diagnostics)

	logger.Infof("running %d agents for %d steps on %s backend (%d workers)",
		p.Agents, p.Steps, cfg.Backend, workers)

	orders := make([]float64, 0, p.Steps)
	var elapsed time.Duration
	for step := 0; step < p.Steps; step++ {
		start := time.Now()
		if err := st.Step(ctx); err != nil {
			return nil, fmt.Errorf("step %d: %w", step, err)
		}
		took := time.Since(start)
		elapsed += took

		s := st.State()
		if err := diag.WriteStep(step, s); err != nil {
			return nil, err
		}
		order := telemetry.OrderParameter(s, p.Speed)
		orders = append(orders, order)
		rec := telemetry.StepRecord{
			Step:        step + 1,
			Order:       order,
			MeanHeading: telemetry.MeanHeading(s),
			ElapsedNs:   took.Nanoseconds(),
		}
		if err := recorder.Write(rec); err != nil {
			return nil, err
		}
		logger.Debugf("step %d order=%.4f", rec.Step, order)
	}
	if err := diag.Flush(); err != nil {
		return nil, fmt.Errorf("flushing diagnostics: %w", err)
	}

	res := &Result{
		Backend: cfg.Backend,
		Workers: workers,
		Steps:   p.Steps,
		Elapsed: elapsed,
		Summary: telemetry.Summarize(orders),
		Final:   st.State().Clone(),
	}
	logger.Infof("Simulation complete: %s", res.Summary)
	if err := telemetry.WriteTiming(stdout, elapsed, cfg.TimeUnit); err != nil {
		return nil, err
	}
	return res, nil
}

func newStepper(ctx context.Context, cfg *Config, p vicsek.Params, initial *vicsek.State, logger log.Logger) (stepper, int, error) {
	if cfg.Backend == BackendDistributed {
		workers := cfg.Workers
		if workers <= 0 {
			workers = runtime.GOMAXPROCS(0)
		}
		runner, err := cluster.NewRunner(ctx, p, initial, cluster.Config{
			Workers: workers,
			Logger:  logger,
		})
		if err != nil {
			return nil, 0, fmt.Errorf("failed to start cluster: %w", err)
		}
		return clusterStepper{runner}, runner.Workers(), nil
	}

	averager, err := vicsek.NewAverager(cfg.Backend, cfg.Workers, nil)
	if err != nil {
		return nil, 0, err
	}
	sim, err := vicsek.NewSimulation(p, initial, vicsek.WithAverager(averager))
	if err != nil {
		return nil, 0, err
	}
	workers := 1
	if par, ok := averager.(*vicsek.Parallel); ok {
		workers = par.Workers()
	}
	return localStepper{sim}, workers, nil
}
