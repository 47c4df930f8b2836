// Package network pairs validated Bayesian models with human-readable state
// labels, and loads them from YAML definitions.
package network

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/Gianlz/MedBayes/internal/bayes"
)

var (
	ErrUnknownLabel  = errors.New("unknown state label")
	ErrInvalidStates = errors.New("invalid state labels")
)

// Network is a named, frozen model with state labels for every variable.
// Labels are a caller-side translation table; the model only sees value codes.
type Network struct {
	Name        string
	Description string

	model   *bayes.Model
	engine  *bayes.Engine
	states  map[string][]string
	aliases map[string]map[string]int
}

// New wraps a validated model. Variables without labels get their decimal codes
// as labels. aliases maps variable -> alternative label -> canonical label.
func New(name, description string, model *bayes.Model, states map[string][]string, aliases map[string]map[string]string) (*Network, error) {
	if name == "" {
		return nil, errors.New("network name is required")
	}

	engine, err := bayes.NewEngine(model)
	if err != nil {
		return nil, fmt.Errorf("network %q: %w", name, err)
	}

	n := &Network{
		Name:        name,
		Description: description,
		model:       model,
		engine:      engine,
		states:      make(map[string][]string),
		aliases:     make(map[string]map[string]int),
	}

	for variable := range states {
		if _, ok := model.Variable(variable); !ok {
			return nil, fmt.Errorf("%w: states for %q", bayes.ErrUnknownVariable, variable)
		}
	}

	for _, v := range model.Variables() {
		labels := states[v.Name]
		if len(labels) == 0 {
			labels = make([]string, v.Cardinality)
			for i := range labels {
				labels[i] = strconv.Itoa(i)
			}
		}
		if len(labels) != v.Cardinality {
			return nil, fmt.Errorf("%w: %q has %d labels for %d values", ErrInvalidStates, v.Name, len(labels), v.Cardinality)
		}

		seen := make(map[string]bool, len(labels))
		for _, l := range labels {
			key := strings.ToLower(l)
			if l == "" || seen[key] {
				return nil, fmt.Errorf("%w: %q has an empty or repeated label %q", ErrInvalidStates, v.Name, l)
			}
			seen[key] = true
		}
		n.states[v.Name] = append([]string(nil), labels...)
	}

	for variable, table := range aliases {
		if _, ok := n.states[variable]; !ok {
			return nil, fmt.Errorf("%w: aliases for %q", bayes.ErrUnknownVariable, variable)
		}
		n.aliases[variable] = make(map[string]int, len(table))
		for alias, label := range table {
			code, err := n.lookup(variable, label)
			if err != nil {
				return nil, fmt.Errorf("alias %q of %q: %w", alias, variable, err)
			}
			n.aliases[variable][strings.ToLower(alias)] = code
		}
	}

	return n, nil
}

func (n *Network) Model() *bayes.Model {
	return n.model
}

func (n *Network) Engine() *bayes.Engine {
	return n.engine
}

// States returns the labels of variable, indexed by value code.
func (n *Network) States(variable string) ([]string, error) {
	labels, ok := n.states[variable]
	if !ok {
		return nil, fmt.Errorf("%w: %q", bayes.ErrUnknownVariable, variable)
	}
	return append([]string(nil), labels...), nil
}

// Aliases returns the alternative labels of variable keyed by alias.
func (n *Network) Aliases(variable string) map[string]string {
	out := make(map[string]string, len(n.aliases[variable]))
	for alias, code := range n.aliases[variable] {
		out[alias] = n.states[variable][code]
	}
	return out
}

// Encode maps a label to its value code. Matching ignores case; aliases and
// decimal codes are accepted too.
func (n *Network) Encode(variable, label string) (int, error) {
	if _, ok := n.states[variable]; !ok {
		return 0, fmt.Errorf("%w: %q", bayes.ErrUnknownVariable, variable)
	}
	label = strings.TrimSpace(label)
	if code, err := n.lookup(variable, label); err == nil {
		return code, nil
	}
	if code, ok := n.aliases[variable][strings.ToLower(label)]; ok {
		return code, nil
	}
	if code, err := strconv.Atoi(label); err == nil && code >= 0 && code < len(n.states[variable]) {
		return code, nil
	}
	return 0, fmt.Errorf("%w: %q for %q (want one of %s)", ErrUnknownLabel, label, variable, strings.Join(n.states[variable], ", "))
}

func (n *Network) Decode(variable string, code int) (string, error) {
	labels, ok := n.states[variable]
	if !ok {
		return "", fmt.Errorf("%w: %q", bayes.ErrUnknownVariable, variable)
	}
	if code < 0 || code >= len(labels) {
		return "", fmt.Errorf("%w: %q has no value %d", bayes.ErrInvalidDomain, variable, code)
	}
	return labels[code], nil
}

// EncodeEvidence maps a label-valued evidence set to value codes.
func (n *Network) EncodeEvidence(evidence map[string]string) (map[string]int, error) {
	names := make([]string, 0, len(evidence))
	for variable := range evidence {
		names = append(names, variable)
	}
	sort.Strings(names)

	// Unknown variables are reported before bad labels.
	for _, variable := range names {
		if _, ok := n.states[variable]; !ok {
			return nil, fmt.Errorf("%w: %q", bayes.ErrUnknownVariable, variable)
		}
	}
	out := make(map[string]int, len(evidence))
	for _, variable := range names {
		code, err := n.Encode(variable, evidence[variable])
		if err != nil {
			return nil, err
		}
		out[variable] = code
	}
	return out, nil
}

func (n *Network) lookup(variable, label string) (int, error) {
	for i, l := range n.states[variable] {
		if strings.EqualFold(l, label) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %q for %q", ErrUnknownLabel, label, variable)
}
