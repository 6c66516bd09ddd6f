package telemetry

import (
	"bufio"
	"fmt"
	"io"

	"github.com/lao-tseu-is-alive/go-vicsek/pkg/vicsek"
)

// Diagnostics writes one line per agent per step:
//
//	step agent x y vx vy
//
// whitespace separated with fixed-point numbers, the layout the trajectory
// visualizer parses. A nil *Diagnostics writes nothing.
type Diagnostics struct {
	w *bufio.Writer
}

// NewDiagnostics returns a stream writing to w, or nil when enabled is false.
func NewDiagnostics(w io.Writer, enabled bool) *Diagnostics {
	if !enabled || w == nil {
		return nil
	}
	return &Diagnostics{w: bufio.NewWriter(w)}
}

// WriteStep writes every agent of s tagged with step.
func (d *Diagnostics) WriteStep(step int, s *vicsek.State) error {
	if d == nil {
		return nil
	}
	for i := 0; i < s.Len(); i++ {
		if _, err := fmt.Fprintf(d.w, "%d %d %f %f %f %f\n", step, i, s.X[i], s.Y[i], s.Vx[i], s.Vy[i]); err != nil {
			return fmt.Errorf("writing diagnostics: %w", err)
		}
	}
	return nil
}

// Flush writes any buffered lines.
func (d *Diagnostics) Flush() error {
	if d == nil {
		return nil
	}
	return d.w.Flush()
}
