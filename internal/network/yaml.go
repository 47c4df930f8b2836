package network

import (
	"fmt"
	"io"

	"github.com/Gianlz/MedBayes/internal/bayes"

	"gopkg.in/yaml.v3"
)

// yamlNetwork is the on-disk shape of a network definition.
type yamlNetwork struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description,omitempty"`
	Variables   []yamlVariable `yaml:"variables"`
	CPTs        []yamlCPT      `yaml:"cpts"`
}

type yamlVariable struct {
	Name        string            `yaml:"name"`
	States      []string          `yaml:"states,omitempty"`
	Cardinality int               `yaml:"cardinality,omitempty"`
	Aliases     map[string]string `yaml:"aliases,omitempty"`
}

type yamlCPT struct {
	Variable string      `yaml:"variable"`
	Parents  []string    `yaml:"parents,omitempty"`
	Table    [][]float64 `yaml:"table"`
}

// Parse reads a YAML network definition, builds its model and validates it.
func Parse(r io.Reader) (*Network, error) {
	var yn yamlNetwork
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&yn); err != nil {
		return nil, fmt.Errorf("failed to parse network YAML: %w", err)
	}
	if yn.Name == "" {
		return nil, fmt.Errorf("failed to parse network YAML: name is required")
	}

	m := bayes.NewModel()
	states := make(map[string][]string)
	aliases := make(map[string]map[string]string)

	for _, yv := range yn.Variables {
		card := yv.Cardinality
		if len(yv.States) > 0 {
			if card != 0 && card != len(yv.States) {
				return nil, fmt.Errorf("network %q: %w: %q declares cardinality %d with %d states",
					yn.Name, bayes.ErrInvalidDomain, yv.Name, card, len(yv.States))
			}
			card = len(yv.States)
			states[yv.Name] = yv.States
		}
		if err := m.DeclareVariable(yv.Name, card); err != nil {
			return nil, fmt.Errorf("network %q: %w", yn.Name, err)
		}
		if len(yv.Aliases) > 0 {
			aliases[yv.Name] = yv.Aliases
		}
	}

	for _, yc := range yn.CPTs {
		if err := m.AttachCPT(yc.Variable, yc.Parents, yc.Table); err != nil {
			return nil, fmt.Errorf("network %q: %w", yn.Name, err)
		}
	}

	if _, err := m.Validate(); err != nil {
		return nil, fmt.Errorf("network %q: %w", yn.Name, err)
	}

	return New(yn.Name, yn.Description, m, states, aliases)
}

// Export writes n in the format Parse reads.
func Export(n *Network, w io.Writer) error {
	yn := yamlNetwork{
		Name:        n.Name,
		Description: n.Description,
	}

	for _, v := range n.model.Variables() {
		labels, err := n.States(v.Name)
		if err != nil {
			return err
		}
		yv := yamlVariable{Name: v.Name, States: labels}
		if aliases := n.Aliases(v.Name); len(aliases) > 0 {
			yv.Aliases = aliases
		}
		yn.Variables = append(yn.Variables, yv)

		cpt, err := n.model.CPT(v.Name)
		if err != nil {
			return err
		}
		yn.CPTs = append(yn.CPTs, yamlCPT{
			Variable: cpt.Variable,
			Parents:  cpt.Parents,
			Table:    cpt.Table,
		})
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(&yn); err != nil {
		return fmt.Errorf("failed to encode network YAML: %w", err)
	}
	return encoder.Close()
}
