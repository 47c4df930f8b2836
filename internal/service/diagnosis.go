package service

import (
	"context"
	"errors"
	"strings"

	"github.com/Gianlz/MedBayes/internal/domain"
	"github.com/Gianlz/MedBayes/internal/network"
	"github.com/Gianlz/MedBayes/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrSymptomMissing        = errors.New("fever, cough, sneezing and season are required")
	ErrConsultationNotFound  = errors.New("consultation not found")
	ErrHistoryDisabled       = errors.New("consultation history is not configured")
	ErrConsultationIDMissing = errors.New("consultation id is required")
)

// DiagnosisService answers the symptom form against the diagnosis network.
type DiagnosisService struct {
	net       *network.Network
	store     domain.ConsultationStore
	logger    *zap.Logger
	threshold float64
}

func NewDiagnosisService(net *network.Network, logger *zap.Logger) *DiagnosisService {
	return &DiagnosisService{
		net:       net,
		logger:    logger,
		threshold: domain.DefaultHighRiskThreshold,
	}
}

// SetConsultationStore enables history. Without it diagnoses are not recorded.
func (s *DiagnosisService) SetConsultationStore(cs domain.ConsultationStore) {
	s.store = cs
}

func (s *DiagnosisService) SetHighRiskThreshold(threshold float64) {
	s.threshold = threshold
}

func (s *DiagnosisService) Diagnose(ctx context.Context, symptoms domain.Symptoms) (*domain.Diagnosis, error) {
	evidence := map[string]string{
		network.Fever:    strings.TrimSpace(symptoms.Fever),
		network.Cough:    strings.TrimSpace(symptoms.Cough),
		network.Sneezing: strings.TrimSpace(symptoms.Sneezing),
		network.Season:   strings.TrimSpace(symptoms.Season),
	}
	for _, label := range evidence {
		if label == "" {
			return nil, ErrSymptomMissing
		}
	}

	result, err := runQuery(s.net, []string{network.Disease}, evidence, s.logger)
	if err != nil {
		return nil, err
	}

	diagnosis := &domain.Diagnosis{
		Probabilities: make([]domain.DiseaseProbability, 0, len(result.Entries)),
		MostLikely:    result.MostLikely[network.Disease],
		Evidence:      canonicalEvidence(s.net, evidence),
	}
	posterior := make([]domain.StateProbability, 0, len(result.Entries))
	for _, e := range result.Entries {
		disease := e.States[network.Disease]
		diagnosis.Probabilities = append(diagnosis.Probabilities, domain.DiseaseProbability{
			Disease:     disease,
			Probability: e.Probability,
			Risk:        domain.ComputeRisk(disease, e.Probability, s.threshold, network.DiseaseNone),
		})
		posterior = append(posterior, domain.StateProbability{State: disease, Probability: e.Probability})
	}

	if s.store != nil {
		c := &domain.Consultation{
			Network:    s.net.Name,
			Target:     network.Disease,
			Evidence:   diagnosis.Evidence,
			Posterior:  posterior,
			MostLikely: diagnosis.MostLikely,
		}
		if err := s.store.Create(ctx, c); err != nil {
			// The diagnosis is still valid without its history entry.
			s.logger.Warn("failed to record consultation", zap.Error(err))
		} else {
			id := c.ID
			diagnosis.ConsultationID = &id
		}
	}

	s.logger.Info("diagnosis computed",
		zap.String("most_likely", diagnosis.MostLikely),
		zap.Any("evidence", diagnosis.Evidence))
	return diagnosis, nil
}

func (s *DiagnosisService) GetConsultation(ctx context.Context, id uuid.UUID) (*domain.Consultation, error) {
	if s.store == nil {
		return nil, ErrHistoryDisabled
	}
	if id == uuid.Nil {
		return nil, ErrConsultationIDMissing
	}
	c, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrConsultationNotFound
		}
		return nil, err
	}
	return c, nil
}

// SimilarConsultations returns up to limit past consultations with the closest posteriors.
func (s *DiagnosisService) SimilarConsultations(ctx context.Context, id uuid.UUID, limit int) ([]domain.ConsultationWithDistance, error) {
	c, err := s.GetConsultation(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.store.Similar(ctx, c, limit)
}

// canonicalEvidence replaces aliases (e.g. "sim") with the network's own labels.
func canonicalEvidence(n *network.Network, evidence map[string]string) map[string]string {
	out := make(map[string]string, len(evidence))
	for variable, label := range evidence {
		out[variable] = label
		if code, err := n.Encode(variable, label); err == nil {
			if canonical, err := n.Decode(variable, code); err == nil {
				out[variable] = canonical
			}
		}
	}
	return out
}
