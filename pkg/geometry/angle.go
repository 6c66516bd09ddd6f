package geometry

import "math"

// NormalizeAngle maps theta into (-Pi, Pi].
func NormalizeAngle(theta float64) float64 {
	if theta > -math.Pi && theta <= math.Pi {
		return theta
	}
	a := math.Mod(theta+math.Pi, 2*math.Pi)
	if a <= 0 {
		a += 2 * math.Pi
	}
	return a - math.Pi
}

// CircularMean returns the mean direction of a set of angles given the sums of
// their sines and cosines. An empty set (both sums zero) yields atan2(0, 0) = 0.
func CircularMean(sumSin, sumCos float64) float64 {
	return math.Atan2(sumSin, sumCos)
}

// CircularMeanOf is the slice form of CircularMean.
func CircularMeanOf(angles []float64) float64 {
	var s, c float64
	for _, a := range angles {
		s += math.Sin(a)
		c += math.Cos(a)
	}
	return CircularMean(s, c)
}
