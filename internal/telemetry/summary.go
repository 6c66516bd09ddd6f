package telemetry

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// Summary condenses the order parameter series of a run.
type Summary struct {
	Steps     int
	OrderMean float64
	OrderStd  float64
	Final     float64
}

// Summarize computes the mean, the sample standard deviation and the last
// value of orders. Fewer than two samples give a zero deviation.
func Summarize(orders []float64) Summary {
	s := Summary{Steps: len(orders)}
	switch len(orders) {
	case 0:
		return s
	case 1:
		s.OrderMean = orders[0]
	default:
		s.OrderMean, s.OrderStd = stat.MeanStdDev(orders, nil)
	}
	s.Final = orders[len(orders)-1]
	return s
}

func (s Summary) String() string {
	return fmt.Sprintf("steps=%d order mean=%.4f std=%.4f final=%.4f",
		s.Steps, s.OrderMean, s.OrderStd, s.Final)
}
