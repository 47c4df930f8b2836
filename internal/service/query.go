package service

import (
	"context"
	"errors"

	"github.com/Gianlz/MedBayes/internal/domain"
	"github.com/Gianlz/MedBayes/internal/network"
	"go.uber.org/zap"
)

var (
	ErrNetworkNotFound = errors.New("network not found")
)

type QueryService struct {
	registry *network.Registry
	logger   *zap.Logger
}

func NewQueryService(registry *network.Registry, logger *zap.Logger) *QueryService {
	return &QueryService{registry: registry, logger: logger}
}

func (s *QueryService) Network(name string) (*network.Network, error) {
	n, ok := s.registry.Get(name)
	if !ok {
		return nil, ErrNetworkNotFound
	}
	return n, nil
}

func (s *QueryService) Networks() []*network.Network {
	return s.registry.List()
}

// Query runs a posterior query against a registered network. Evidence is given
// as state labels and entries are returned as labels.
func (s *QueryService) Query(ctx context.Context, networkName string, variables []string, evidence map[string]string) (*domain.QueryResult, error) {
	n, err := s.Network(networkName)
	if err != nil {
		return nil, err
	}
	return runQuery(n, variables, evidence, s.logger)
}

func runQuery(n *network.Network, variables []string, evidence map[string]string, logger *zap.Logger) (*domain.QueryResult, error) {
	codes, err := n.EncodeEvidence(evidence)
	if err != nil {
		return nil, err
	}

	d, err := n.Engine().Query(variables, codes)
	if err != nil {
		logger.Debug("query rejected",
			zap.String("network", n.Name),
			zap.Strings("variables", variables),
			zap.Any("evidence", evidence),
			zap.Error(err))
		return nil, err
	}

	result := &domain.QueryResult{
		Network:    n.Name,
		Variables:  make([]string, len(d.Variables)),
		Evidence:   evidence,
		Entries:    make([]domain.QueryEntry, 0, len(d.Values)),
		MostLikely: make(map[string]string, len(d.Variables)),
	}
	for i, v := range d.Variables {
		result.Variables[i] = v.Name
	}

	decode := func(assignment []int) (map[string]string, error) {
		states := make(map[string]string, len(assignment))
		for i, code := range assignment {
			label, err := n.Decode(result.Variables[i], code)
			if err != nil {
				return nil, err
			}
			states[result.Variables[i]] = label
		}
		return states, nil
	}

	for _, e := range d.Entries() {
		states, err := decode(e.Assignment)
		if err != nil {
			return nil, err
		}
		result.Entries = append(result.Entries, domain.QueryEntry{States: states, Probability: e.Probability})
	}

	best, err := decode(d.ArgMax().Assignment)
	if err != nil {
		return nil, err
	}
	result.MostLikely = best

	logger.Debug("query answered",
		zap.String("network", n.Name),
		zap.Strings("variables", result.Variables),
		zap.Int("entries", len(result.Entries)))
	return result, nil
}
