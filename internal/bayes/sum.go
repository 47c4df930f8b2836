package bayes

import "math"

// compensatedSum is a Neumaier running sum. It keeps marginalization and
// normalization independent of summation order well below NormalizationTolerance.
type compensatedSum struct {
	sum float64
	c   float64
}

func (s *compensatedSum) add(x float64) {
	t := s.sum + x
	if math.Abs(s.sum) >= math.Abs(x) {
		s.c += (s.sum - t) + x
	} else {
		s.c += (x - t) + s.sum
	}
	s.sum = t
}

func (s *compensatedSum) value() float64 {
	return s.sum + s.c
}
