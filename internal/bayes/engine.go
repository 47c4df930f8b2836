package bayes

import (
	"fmt"
	"sort"
)

// Ordering selects how the engine picks the next variable to eliminate.
type Ordering int

const (
	// MinDegree eliminates the variable sharing factors with the fewest other
	// variables, ties going to the earliest declared variable.
	MinDegree Ordering = iota
	// MinDegreeReverseTie is MinDegree with ties going to the latest declared variable.
	MinDegreeReverseTie
	// DeclarationOrder eliminates in plain declaration order.
	DeclarationOrder
)

func (o Ordering) String() string {
	switch o {
	case MinDegree:
		return "min-degree"
	case MinDegreeReverseTie:
		return "min-degree-reverse-tie"
	case DeclarationOrder:
		return "declaration"
	default:
		return fmt.Sprintf("ordering(%d)", int(o))
	}
}

// Option configures an Engine.
type Option func(*Engine)

// WithOrdering selects the elimination ordering. The default is MinDegree.
func WithOrdering(o Ordering) Option {
	return func(e *Engine) {
		e.ordering = o
	}
}

// Engine answers posterior queries against a frozen Model. It holds no
// per-query state, so one Engine may serve concurrent callers.
type Engine struct {
	model    *Model
	ordering Ordering
}

// NewEngine returns an engine over m, which must already be validated.
func NewEngine(m *Model, opts ...Option) (*Engine, error) {
	if m == nil || !m.Frozen() {
		return nil, ErrModelNotValidated
	}
	e := &Engine{model: m, ordering: MinDegree}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

func (e *Engine) Model() *Model {
	return e.model
}

// Query returns P(variables | evidence). Evidence maps variable names to value codes.
func (e *Engine) Query(variables []string, evidence map[string]int) (*Distribution, error) {
	d, _, err := e.run(variables, evidence)
	return d, err
}

// EliminationOrder reports the variables Query would sum out, in order.
func (e *Engine) EliminationOrder(variables []string, evidence map[string]int) ([]string, error) {
	_, order, err := e.run(variables, evidence)
	if err != nil {
		return nil, err
	}
	return e.model.names(order), nil
}

func (e *Engine) run(variables []string, evidence map[string]int) (*Distribution, []int, error) {
	m := e.model
	n := len(m.vars)

	if len(variables) == 0 {
		return nil, nil, ErrEmptyQuery
	}

	queried := make([]bool, n)
	for _, name := range variables {
		i, ok := m.index[name]
		if !ok {
			return nil, nil, fmt.Errorf("%w: %q", ErrUnknownQueryVariable, name)
		}
		queried[i] = true
	}

	// Evidence is checked one kind at a time over sorted names so the same
	// bad evidence always yields the same error.
	names := make([]string, 0, len(evidence))
	for name := range evidence {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if _, ok := m.index[name]; !ok {
			return nil, nil, fmt.Errorf("%w: evidence on %q", ErrUnknownVariable, name)
		}
	}
	for _, name := range names {
		i, value := m.index[name], evidence[name]
		if value < 0 || value >= m.vars[i].Cardinality {
			return nil, nil, fmt.Errorf("%w: %q has no value %d (cardinality %d)", ErrInvalidDomain, name, value, m.vars[i].Cardinality)
		}
	}
	observed := make([]bool, n)
	assign := make([]int, n)
	for _, name := range names {
		i := m.index[name]
		if queried[i] {
			return nil, nil, fmt.Errorf("%w: %q", ErrConflictingEvidence, name)
		}
		observed[i] = true
		assign[i] = evidence[name]
	}

	factors := make([]*factor, n)
	for i := range m.vars {
		factors[i] = cptFactor(m, i, observed, assign)
	}

	var pending []int
	for i := 0; i < n; i++ {
		if !queried[i] && !observed[i] {
			pending = append(pending, i)
		}
	}

	order := make([]int, 0, len(pending))
	for len(pending) > 0 {
		pick := e.next(pending, factors)
		v := pending[pick]
		pending = append(pending[:pick], pending[pick+1:]...)
		order = append(order, v)

		var touched, rest []*factor
		for _, f := range factors {
			if f.mentions(v) {
				touched = append(touched, f)
			} else {
				rest = append(rest, f)
			}
		}
		factors = append(rest, sumOut(m, multiply(m, touched, assign), v, assign))
	}

	joint := multiply(m, factors, assign)

	var total compensatedSum
	for _, p := range joint.values {
		total.add(p)
	}
	mass := total.value()
	if !(mass > DegenerateThreshold) {
		return nil, nil, fmt.Errorf("%w: total mass %g", ErrDegenerateEvidence, mass)
	}

	d := &Distribution{
		Variables: make([]Variable, len(joint.vars)),
		Values:    make([]float64, len(joint.values)),
	}
	for i, v := range joint.vars {
		d.Variables[i] = m.vars[v]
	}
	for i, p := range joint.values {
		d.Values[i] = p / mass
	}
	return d, order, nil
}

// next returns the position in pending of the variable to eliminate.
// pending is kept in ascending declaration order.
func (e *Engine) next(pending []int, factors []*factor) int {
	if e.ordering == DeclarationOrder {
		return 0
	}

	best, bestDegree := -1, 0
	for pos, v := range pending {
		degree := neighbourCount(v, factors)
		switch {
		case best < 0, degree < bestDegree:
			best, bestDegree = pos, degree
		case degree == bestDegree && e.ordering == MinDegreeReverseTie:
			best = pos
		}
	}
	return best
}

// neighbourCount is the number of other variables sharing a factor with v.
func neighbourCount(v int, factors []*factor) int {
	seen := make(map[int]bool)
	for _, f := range factors {
		if !f.mentions(v) {
			continue
		}
		for _, x := range f.vars {
			if x != v {
				seen[x] = true
			}
		}
	}
	return len(seen)
}
