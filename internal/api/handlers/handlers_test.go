package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Gianlz/MedBayes/internal/domain"
	"github.com/Gianlz/MedBayes/internal/network"
	"github.com/Gianlz/MedBayes/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockConsultationStore struct {
	mock.Mock
}

func (m *mockConsultationStore) Create(ctx context.Context, c *domain.Consultation) error {
	args := m.Called(ctx, c)
	c.ID = uuid.New()
	return args.Error(0)
}

func (m *mockConsultationStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Consultation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Consultation), args.Error(1)
}

func (m *mockConsultationStore) Similar(ctx context.Context, c *domain.Consultation, limit int) ([]domain.ConsultationWithDistance, error) {
	args := m.Called(ctx, c, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ConsultationWithDistance), args.Error(1)
}

func newTestRouter(t *testing.T, cs domain.ConsultationStore) http.Handler {
	t.Helper()
	logger := zap.NewNop()

	diagnosis, err := network.Diagnosis()
	require.NoError(t, err)
	registry := network.NewRegistry()
	require.NoError(t, registry.Register(diagnosis))

	diagnosisSvc := service.NewDiagnosisService(diagnosis, logger)
	if cs != nil {
		diagnosisSvc.SetConsultationStore(cs)
	}
	nh := NewNetworkHandler(service.NewQueryService(registry, logger))
	dh := NewDiagnosisHandler(diagnosisSvc)

	r := chi.NewRouter()
	r.Get("/networks", nh.List)
	r.Get("/networks/{name}", nh.Get)
	r.Post("/networks/{name}/query", nh.Query)
	r.Post("/diagnose", dh.Diagnose)
	r.Get("/consultations/{id}", dh.GetConsultation)
	r.Get("/consultations/{id}/similar", dh.Similar)
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return rec, out
}

func TestNetworkHandler_ListAndGet(t *testing.T) {
	h := newTestRouter(t, nil)

	rec, body := do(t, h, http.MethodGet, "/networks", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	nets := body["networks"].([]any)
	require.Len(t, nets, 1)
	assert.Equal(t, "diagnosis", nets[0].(map[string]any)["name"])

	rec, body = do(t, h, http.MethodGet, "/networks/diagnosis", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{"Disease", "Season", "Fever", "Cough", "Sneezing"}, body["topological_order"])

	vars := body["variables"].([]any)
	require.Len(t, vars, 5)
	sneezing := vars[4].(map[string]any)
	assert.Equal(t, "Sneezing", sneezing["name"])
	assert.Equal(t, []any{"Disease", "Season"}, sneezing["parents"])
	assert.Equal(t, []any{}, vars[0].(map[string]any)["parents"])

	rec, body = do(t, h, http.MethodGet, "/networks/weather", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "network not found", body["error"])
}

func TestNetworkHandler_Query(t *testing.T) {
	h := newTestRouter(t, nil)

	rec, body := do(t, h, http.MethodPost, "/networks/diagnosis/query",
		`{"variables":["Disease"],"evidence":{"Fever":"Yes","Cough":"Yes","Sneezing":"Yes","Season":"Spring"}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	entries := body["entries"].([]any)
	require.Len(t, entries, 3)
	assert.InDelta(t, 0.955450, entries[1].(map[string]any)["probability"].(float64), 1e-6)
	assert.Equal(t, map[string]any{"Disease": "Flu"}, body["most_likely"])
}

func TestNetworkHandler_QueryErrors(t *testing.T) {
	h := newTestRouter(t, nil)

	tests := []struct {
		name   string
		path   string
		body   string
		status int
	}{
		{"malformed body", "/networks/diagnosis/query", `{`, http.StatusBadRequest},
		{"no variables", "/networks/diagnosis/query", `{"variables":[]}`, http.StatusBadRequest},
		{"unknown network", "/networks/weather/query", `{"variables":["Rain"]}`, http.StatusNotFound},
		{"unknown variable", "/networks/diagnosis/query", `{"variables":["Headache"]}`, http.StatusBadRequest},
		{"unknown label", "/networks/diagnosis/query", `{"variables":["Disease"],"evidence":{"Fever":"High"}}`, http.StatusBadRequest},
		{"queried and observed", "/networks/diagnosis/query", `{"variables":["Fever"],"evidence":{"Fever":"Yes"}}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := do(t, h, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestDiagnosisHandler_Diagnose(t *testing.T) {
	h := newTestRouter(t, nil)

	rec, body := do(t, h, http.MethodPost, "/diagnose",
		`{"fever":"sim","cough":"sim","sneezing":"sim","season":"primavera"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Flu", body["most_likely"])
	assert.NotContains(t, body, "consultation_id")

	probs := body["probabilities"].([]any)
	require.Len(t, probs, 3)
	flu := probs[1].(map[string]any)
	assert.Equal(t, "Flu", flu["disease"])
	assert.Equal(t, "high", flu["risk"])

	rec, body = do(t, h, http.MethodPost, "/diagnose", `{"fever":"yes"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, service.ErrSymptomMissing.Error(), body["error"])
}

func TestDiagnosisHandler_Consultations(t *testing.T) {
	rec, _ := do(t, newTestRouter(t, nil), http.MethodGet, "/consultations/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotImplemented, rec.Code)

	ms := new(mockConsultationStore)
	h := newTestRouter(t, ms)

	ms.On("Create", mock.Anything, mock.Anything).Return(nil)
	rec, body := do(t, h, http.MethodPost, "/diagnose",
		`{"fever":"yes","cough":"no","sneezing":"yes","season":"winter"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, body["consultation_id"])

	known := &domain.Consultation{ID: uuid.New(), Network: "diagnosis", Target: "Disease", MostLikely: "Flu"}
	missing := uuid.New()
	ms.On("GetByID", mock.Anything, known.ID).Return(known, nil)
	ms.On("GetByID", mock.Anything, missing).Return(nil, service.ErrConsultationNotFound)
	ms.On("Similar", mock.Anything, known, 2).Return([]domain.ConsultationWithDistance{}, nil)

	rec, body = do(t, h, http.MethodGet, "/consultations/"+known.ID.String(), "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Flu", body["most_likely"])

	rec, _ = do(t, h, http.MethodGet, "/consultations/"+missing.String(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = do(t, h, http.MethodGet, "/consultations/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body = do(t, h, http.MethodGet, "/consultations/"+known.ID.String()+"/similar?k=2", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{}, body["consultations"])

	rec, _ = do(t, h, http.MethodGet, "/consultations/"+known.ID.String()+"/similar?k=0", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	ms.AssertExpectations(t)
}

func TestNetworkHandler_DegenerateEvidence(t *testing.T) {
	n, err := network.Parse(strings.NewReader(`
name: switch
variables:
  - {name: Switch, states: [Off, On]}
  - {name: Light, states: [Dark, Lit]}
cpts:
  - {variable: Switch, table: [[1.0], [0.0]]}
  - {variable: Light, parents: [Switch], table: [[1.0, 0.0], [0.0, 1.0]]}
`))
	require.NoError(t, err)
	registry := network.NewRegistry()
	require.NoError(t, registry.Register(n))

	nh := NewNetworkHandler(service.NewQueryService(registry, zap.NewNop()))
	r := chi.NewRouter()
	r.Post("/networks/{name}/query", nh.Query)

	rec, body := do(t, r, http.MethodPost, "/networks/switch/query",
		`{"variables":["Switch"],"evidence":{"Light":"Lit"}}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, body["error"], "zero probability")
}
