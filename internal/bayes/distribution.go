package bayes

import "fmt"

// Distribution is a normalized joint distribution over query variables.
//
// Variables are in model declaration order. Values enumerates value
// combinations row-major over Variables, the last variable varying fastest.
type Distribution struct {
	Variables []Variable `json:"variables"`
	Values    []float64  `json:"values"`
}

// Entry is one value combination of a Distribution, codes aligned with Variables.
type Entry struct {
	Assignment  []int   `json:"assignment"`
	Probability float64 `json:"probability"`
}

// Entries lists every value combination in enumeration order.
func (d *Distribution) Entries() []Entry {
	entries := make([]Entry, len(d.Values))
	current := make([]int, len(d.Variables))
	for i, p := range d.Values {
		entries[i] = Entry{Assignment: append([]int(nil), current...), Probability: p}
		for k := len(current) - 1; k >= 0; k-- {
			current[k]++
			if current[k] < d.Variables[k].Cardinality {
				break
			}
			current[k] = 0
		}
	}
	return entries
}

// Prob returns the probability of a complete assignment of the distribution's variables.
func (d *Distribution) Prob(assignment map[string]int) (float64, error) {
	if len(assignment) != len(d.Variables) {
		return 0, fmt.Errorf("%w: assignment covers %d of %d variables", ErrInvalidDomain, len(assignment), len(d.Variables))
	}
	idx := 0
	for _, v := range d.Variables {
		value, ok := assignment[v.Name]
		if !ok {
			return 0, fmt.Errorf("%w: %q missing from assignment", ErrUnknownVariable, v.Name)
		}
		if value < 0 || value >= v.Cardinality {
			return 0, fmt.Errorf("%w: %q has no value %d", ErrInvalidDomain, v.Name, value)
		}
		idx = idx*v.Cardinality + value
	}
	return d.Values[idx], nil
}

// Marginal sums the distribution down to a single variable.
func (d *Distribution) Marginal(name string) ([]float64, error) {
	pos := -1
	for i, v := range d.Variables {
		if v.Name == name {
			pos = i
			break
		}
	}
	if pos < 0 {
		return nil, fmt.Errorf("%w: %q", ErrUnknownVariable, name)
	}

	sums := make([]compensatedSum, d.Variables[pos].Cardinality)
	for _, e := range d.Entries() {
		sums[e.Assignment[pos]].add(e.Probability)
	}
	out := make([]float64, len(sums))
	for i := range sums {
		out[i] = sums[i].value()
	}
	return out, nil
}

// ArgMax returns the most probable combination; ties go to the first in enumeration order.
func (d *Distribution) ArgMax() Entry {
	entries := d.Entries()
	best := entries[0]
	for _, e := range entries[1:] {
		if e.Probability > best.Probability {
			best = e
		}
	}
	return best
}
