package service

import (
	"context"
	"errors"
	"testing"

	"github.com/Gianlz/MedBayes/internal/bayes"
	"github.com/Gianlz/MedBayes/internal/domain"
	"github.com/Gianlz/MedBayes/internal/network"
	"github.com/Gianlz/MedBayes/internal/store"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockConsultationStore mocks the ConsultationStore interface.
type MockConsultationStore struct {
	mock.Mock
}

func (m *MockConsultationStore) Create(ctx context.Context, c *domain.Consultation) error {
	args := m.Called(ctx, c)
	if args.Error(0) == nil {
		c.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *MockConsultationStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Consultation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Consultation), args.Error(1)
}

func (m *MockConsultationStore) Similar(ctx context.Context, c *domain.Consultation, limit int) ([]domain.ConsultationWithDistance, error) {
	args := m.Called(ctx, c, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ConsultationWithDistance), args.Error(1)
}

func newDiagnosisService(t *testing.T) *DiagnosisService {
	t.Helper()
	n, err := network.Diagnosis()
	require.NoError(t, err)
	return NewDiagnosisService(n, zap.NewNop())
}

func TestDiagnosisService_Diagnose(t *testing.T) {
	svc := newDiagnosisService(t)

	d, err := svc.Diagnose(context.Background(), domain.Symptoms{
		Fever: "Sim", Cough: "Sim", Sneezing: "Sim", Season: "Primavera",
	})
	require.NoError(t, err)
	require.Len(t, d.Probabilities, 3)

	assert.Equal(t, network.DiseaseNone, d.Probabilities[0].Disease)
	assert.Equal(t, network.DiseaseFlu, d.Probabilities[1].Disease)
	assert.Equal(t, network.DiseaseAllergy, d.Probabilities[2].Disease)

	sum := 0.0
	for _, p := range d.Probabilities {
		sum += p.Probability
	}
	assert.InDelta(t, 1.0, sum, 1e-6)

	assert.InDelta(t, 0.026540, d.Probabilities[0].Probability, 1e-6)
	assert.InDelta(t, 0.955450, d.Probabilities[1].Probability, 1e-6)
	assert.InDelta(t, 0.018009, d.Probabilities[2].Probability, 1e-6)

	assert.Equal(t, domain.RiskLow, d.Probabilities[0].Risk)
	assert.Equal(t, domain.RiskHigh, d.Probabilities[1].Risk)
	assert.Equal(t, domain.RiskLow, d.Probabilities[2].Risk)

	assert.Equal(t, network.DiseaseFlu, d.MostLikely)
	assert.Equal(t, map[string]string{
		network.Fever: "Yes", network.Cough: "Yes", network.Sneezing: "Yes", network.Season: "Spring",
	}, d.Evidence)
	assert.Nil(t, d.ConsultationID)
}

func TestDiagnosisService_HealthyIsNeverHighRisk(t *testing.T) {
	svc := newDiagnosisService(t)

	d, err := svc.Diagnose(context.Background(), domain.Symptoms{
		Fever: "no", Cough: "no", Sneezing: "no", Season: "summer",
	})
	require.NoError(t, err)
	assert.Equal(t, network.DiseaseNone, d.MostLikely)
	assert.Greater(t, d.Probabilities[0].Probability, 0.5)
	for _, p := range d.Probabilities {
		assert.Equal(t, domain.RiskLow, p.Risk)
	}
}

func TestDiagnosisService_Threshold(t *testing.T) {
	svc := newDiagnosisService(t)
	svc.SetHighRiskThreshold(0.99)

	d, err := svc.Diagnose(context.Background(), domain.Symptoms{
		Fever: "yes", Cough: "yes", Sneezing: "yes", Season: "spring",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RiskLow, d.Probabilities[1].Risk)
}

func TestDiagnosisService_Diagnose_Errors(t *testing.T) {
	svc := newDiagnosisService(t)

	_, err := svc.Diagnose(context.Background(), domain.Symptoms{Fever: "yes", Cough: "yes", Sneezing: "yes"})
	assert.ErrorIs(t, err, ErrSymptomMissing)

	_, err = svc.Diagnose(context.Background(), domain.Symptoms{
		Fever: "maybe", Cough: "yes", Sneezing: "yes", Season: "spring",
	})
	assert.ErrorIs(t, err, network.ErrUnknownLabel)
}

func TestDiagnosisService_RecordsConsultation(t *testing.T) {
	svc := newDiagnosisService(t)
	ms := new(MockConsultationStore)
	svc.SetConsultationStore(ms)

	ms.On("Create", mock.Anything, mock.MatchedBy(func(c *domain.Consultation) bool {
		return c.Network == network.DiagnosisName &&
			c.Target == network.Disease &&
			c.MostLikely == network.DiseaseFlu &&
			len(c.Posterior) == 3
	})).Return(nil)

	d, err := svc.Diagnose(context.Background(), domain.Symptoms{
		Fever: "yes", Cough: "yes", Sneezing: "yes", Season: "spring",
	})
	require.NoError(t, err)
	require.NotNil(t, d.ConsultationID)
	ms.AssertExpectations(t)
}

func TestDiagnosisService_StoreFailureKeepsDiagnosis(t *testing.T) {
	svc := newDiagnosisService(t)
	ms := new(MockConsultationStore)
	svc.SetConsultationStore(ms)
	ms.On("Create", mock.Anything, mock.Anything).Return(errors.New("connection refused"))

	d, err := svc.Diagnose(context.Background(), domain.Symptoms{
		Fever: "yes", Cough: "no", Sneezing: "yes", Season: "winter",
	})
	require.NoError(t, err)
	assert.Nil(t, d.ConsultationID)
	assert.NotEmpty(t, d.MostLikely)
}

func TestDiagnosisService_GetConsultation(t *testing.T) {
	svc := newDiagnosisService(t)

	_, err := svc.GetConsultation(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrHistoryDisabled)

	ms := new(MockConsultationStore)
	svc.SetConsultationStore(ms)

	known := &domain.Consultation{ID: uuid.New(), Network: network.DiagnosisName, Target: network.Disease}
	missing := uuid.New()
	ms.On("GetByID", mock.Anything, known.ID).Return(known, nil)
	ms.On("GetByID", mock.Anything, missing).Return(nil, store.ErrNotFound)

	got, err := svc.GetConsultation(context.Background(), known.ID)
	require.NoError(t, err)
	assert.Equal(t, known, got)

	_, err = svc.GetConsultation(context.Background(), missing)
	assert.ErrorIs(t, err, ErrConsultationNotFound)

	_, err = svc.GetConsultation(context.Background(), uuid.Nil)
	assert.ErrorIs(t, err, ErrConsultationIDMissing)
}

func TestDiagnosisService_SimilarConsultations(t *testing.T) {
	svc := newDiagnosisService(t)
	ms := new(MockConsultationStore)
	svc.SetConsultationStore(ms)

	c := &domain.Consultation{ID: uuid.New(), Network: network.DiagnosisName, Target: network.Disease}
	neighbours := []domain.ConsultationWithDistance{
		{Consultation: domain.Consultation{ID: uuid.New()}, Distance: 0.01},
	}
	ms.On("GetByID", mock.Anything, c.ID).Return(c, nil)
	ms.On("Similar", mock.Anything, c, 3).Return(neighbours, nil)

	got, err := svc.SimilarConsultations(context.Background(), c.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, neighbours, got)
	ms.AssertExpectations(t)
}

func TestDiagnosisService_DegenerateEvidencePassesThrough(t *testing.T) {
	m := bayes.NewModel()
	for _, v := range []string{network.Disease, network.Season, network.Fever, network.Cough, network.Sneezing} {
		card := 2
		if v == network.Disease {
			card = 3
		}
		if v == network.Season {
			card = 4
		}
		require.NoError(t, m.DeclareVariable(v, card))
	}
	require.NoError(t, m.AttachCPT(network.Disease, nil, [][]float64{{1}, {0}, {0}}))
	require.NoError(t, m.AttachCPT(network.Season, nil, [][]float64{{0.25}, {0.25}, {0.25}, {0.25}}))
	never := [][]float64{{1, 1, 1}, {0, 0, 0}}
	require.NoError(t, m.AttachCPT(network.Fever, []string{network.Disease}, never))
	require.NoError(t, m.AttachCPT(network.Cough, []string{network.Disease}, never))
	require.NoError(t, m.AttachCPT(network.Sneezing, []string{network.Disease}, never))
	_, err := m.Validate()
	require.NoError(t, err)

	n, err := network.New(network.DiagnosisName, "", m, map[string][]string{
		network.Disease:  {"None", "Flu", "Allergy"},
		network.Fever:    {"No", "Yes"},
		network.Cough:    {"No", "Yes"},
		network.Sneezing: {"No", "Yes"},
		network.Season:   {"Winter", "Spring", "Summer", "Autumn"},
	}, nil)
	require.NoError(t, err)

	svc := NewDiagnosisService(n, zap.NewNop())
	_, err = svc.Diagnose(context.Background(), domain.Symptoms{
		Fever: "Yes", Cough: "No", Sneezing: "No", Season: "Winter",
	})
	assert.ErrorIs(t, err, bayes.ErrDegenerateEvidence)
}
