// Package bayes implements discrete Bayesian networks and exact inference by
// variable elimination.
//
// A Model is built by declaring variables and attaching one conditional
// probability table (CPT) per variable, then frozen by Validate. Frozen models
// are read-only and may be shared between goroutines without locking.
package bayes

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

const (
	// NormalizationTolerance bounds how far a CPT column may drift from 1.
	NormalizationTolerance = 1e-6
	// DegenerateThreshold is the smallest evidence mass a query accepts.
	DegenerateThreshold = 1e-12
)

// Variable is a named discrete random variable with values 0..Cardinality-1.
type Variable struct {
	Name        string `json:"name"`
	Cardinality int    `json:"cardinality"`
}

// CPT is a conditional probability table as attached to a model.
//
// Table is indexed [value of Variable][parent combination]. Parent combinations
// enumerate parent values row-major over Parents: the last parent varies fastest.
type CPT struct {
	Variable string      `json:"variable"`
	Parents  []string    `json:"parents,omitempty"`
	Table    [][]float64 `json:"table"`
}

type cpt struct {
	parents []int
	table   [][]float64
}

// Model is a discrete Bayesian network. It is mutable until Validate freezes it.
type Model struct {
	vars   []Variable
	index  map[string]int
	cpts   []*cpt
	order  []int
	frozen bool
}

// NewModel returns an empty, unfrozen model.
func NewModel() *Model {
	return &Model{index: make(map[string]int)}
}

// DeclareVariable adds a variable. Declaration order is significant: it breaks
// ties in topological ordering and in elimination ordering.
func (m *Model) DeclareVariable(name string, cardinality int) error {
	if m.frozen {
		return ErrModelFrozen
	}
	if name == "" {
		return fmt.Errorf("%w: empty variable name", ErrInvalidDomain)
	}
	if cardinality < 1 {
		return fmt.Errorf("%w: %q has cardinality %d", ErrInvalidDomain, name, cardinality)
	}
	if _, exists := m.index[name]; exists {
		return fmt.Errorf("%w: %q already declared", ErrInvalidDomain, name)
	}

	m.index[name] = len(m.vars)
	m.vars = append(m.vars, Variable{Name: name, Cardinality: cardinality})
	m.cpts = append(m.cpts, nil)
	return nil
}

// AttachCPT attaches the table defining P(variable | parents). The table is copied.
func (m *Model) AttachCPT(variable string, parents []string, table [][]float64) error {
	if m.frozen {
		return ErrModelFrozen
	}

	child, ok := m.index[variable]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownVariable, variable)
	}
	if m.cpts[child] != nil {
		return fmt.Errorf("%w: %w: %q", ErrShapeMismatch, ErrDuplicateCPT, variable)
	}

	parentIdx := make([]int, len(parents))
	seen := make(map[int]bool, len(parents))
	columns := 1
	for i, p := range parents {
		idx, ok := m.index[p]
		if !ok {
			return fmt.Errorf("%w: parent %q of %q", ErrUnknownVariable, p, variable)
		}
		if idx == child {
			return fmt.Errorf("%w: %q is its own parent", ErrCyclicDependency, variable)
		}
		if seen[idx] {
			return fmt.Errorf("%w: parent %q of %q listed twice", ErrShapeMismatch, p, variable)
		}
		seen[idx] = true
		parentIdx[i] = idx
		columns *= m.vars[idx].Cardinality
	}

	card := m.vars[child].Cardinality
	if len(table) != card {
		return fmt.Errorf("%w: %q has %d rows, want %d", ErrShapeMismatch, variable, len(table), card)
	}
	for r, row := range table {
		if len(row) != columns {
			return fmt.Errorf("%w: %q row %d has %d columns, want %d", ErrShapeMismatch, variable, r, len(row), columns)
		}
	}

	for c := 0; c < columns; c++ {
		var s compensatedSum
		for r := 0; r < card; r++ {
			p := table[r][c]
			if p < 0 || math.IsNaN(p) || math.IsInf(p, 0) {
				return fmt.Errorf("%w: %q has entry %v at [%d][%d]", ErrNotNormalized, variable, p, r, c)
			}
			s.add(p)
		}
		if math.Abs(s.value()-1) > NormalizationTolerance {
			return fmt.Errorf("%w: %q column %d sums to %v", ErrNotNormalized, variable, c, s.value())
		}
	}

	m.cpts[child] = &cpt{parents: parentIdx, table: copyTable(table)}
	return nil
}

// Validate checks that every variable has a CPT and that the dependency graph
// is acyclic, then freezes the model. It returns a topological order (parents
// before children, ties broken by declaration order). Validating a frozen
// model returns the order computed the first time.
func (m *Model) Validate() ([]string, error) {
	if m.frozen {
		return m.TopologicalOrder(), nil
	}

	var missing []string
	for i, c := range m.cpts {
		if c == nil {
			missing = append(missing, m.vars[i].Name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingCPT, strings.Join(missing, ", "))
	}

	order, err := m.topologicalSort()
	if err != nil {
		return nil, err
	}

	m.order = order
	m.frozen = true
	return m.TopologicalOrder(), nil
}

// topologicalSort is Kahn's algorithm, always taking the earliest declared ready variable.
func (m *Model) topologicalSort() ([]int, error) {
	n := len(m.vars)
	indegree := make([]int, n)
	children := make([][]int, n)
	for child, c := range m.cpts {
		for _, p := range c.parents {
			indegree[child]++
			children[p] = append(children[p], child)
		}
	}

	var ready []int
	for i := 0; i < n; i++ {
		if indegree[i] == 0 {
			ready = append(ready, i)
		}
	}

	order := make([]int, 0, n)
	for len(ready) > 0 {
		sort.Ints(ready)
		v := ready[0]
		ready = ready[1:]
		order = append(order, v)
		for _, c := range children[v] {
			indegree[c]--
			if indegree[c] == 0 {
				ready = append(ready, c)
			}
		}
	}

	if len(order) < n {
		var cyclic []string
		for i := 0; i < n; i++ {
			if indegree[i] > 0 {
				cyclic = append(cyclic, m.vars[i].Name)
			}
		}
		return nil, fmt.Errorf("%w: cannot order %s", ErrCyclicDependency, strings.Join(cyclic, ", "))
	}
	return order, nil
}

func (m *Model) Frozen() bool {
	return m.frozen
}

// Variables returns the variables in declaration order.
func (m *Model) Variables() []Variable {
	out := make([]Variable, len(m.vars))
	copy(out, m.vars)
	return out
}

func (m *Model) Variable(name string) (Variable, bool) {
	i, ok := m.index[name]
	if !ok {
		return Variable{}, false
	}
	return m.vars[i], true
}

// Parents returns the ordered parent list of name.
func (m *Model) Parents(name string) ([]string, error) {
	i, ok := m.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownVariable, name)
	}
	c := m.cpts[i]
	if c == nil {
		return nil, fmt.Errorf("%w: %q", ErrMissingCPT, name)
	}
	return m.names(c.parents), nil
}

// CPT returns a copy of the table attached to name.
func (m *Model) CPT(name string) (CPT, error) {
	i, ok := m.index[name]
	if !ok {
		return CPT{}, fmt.Errorf("%w: %q", ErrUnknownVariable, name)
	}
	c := m.cpts[i]
	if c == nil {
		return CPT{}, fmt.Errorf("%w: %q", ErrMissingCPT, name)
	}
	return CPT{
		Variable: name,
		Parents:  m.names(c.parents),
		Table:    copyTable(c.table),
	}, nil
}

// TopologicalOrder returns nil until the model has been validated.
func (m *Model) TopologicalOrder() []string {
	if !m.frozen {
		return nil
	}
	return m.names(m.order)
}

// JointProbability evaluates the chain rule for a complete assignment.
func (m *Model) JointProbability(assignment map[string]int) (float64, error) {
	if !m.frozen {
		return 0, ErrModelNotValidated
	}
	if len(assignment) != len(m.vars) {
		return 0, fmt.Errorf("%w: assignment covers %d of %d variables", ErrInvalidDomain, len(assignment), len(m.vars))
	}

	values := make([]int, len(m.vars))
	for name, value := range assignment {
		i, ok := m.index[name]
		if !ok {
			return 0, fmt.Errorf("%w: %q", ErrUnknownVariable, name)
		}
		if value < 0 || value >= m.vars[i].Cardinality {
			return 0, fmt.Errorf("%w: %q has no value %d", ErrInvalidDomain, name, value)
		}
		values[i] = value
	}

	p := 1.0
	for i, c := range m.cpts {
		p *= c.table[values[i]][m.column(c, values)]
	}
	return p, nil
}

// column maps the parent values found in assign to a CPT column index.
func (m *Model) column(c *cpt, assign []int) int {
	col := 0
	for _, p := range c.parents {
		col = col*m.vars[p].Cardinality + assign[p]
	}
	return col
}

func (m *Model) names(idx []int) []string {
	out := make([]string, len(idx))
	for i, v := range idx {
		out[i] = m.vars[v].Name
	}
	return out
}

func copyTable(table [][]float64) [][]float64 {
	out := make([][]float64, len(table))
	for i, row := range table {
		out[i] = append([]float64(nil), row...)
	}
	return out
}
