package domain

import "github.com/google/uuid"

type RiskLevel string

const (
	RiskHigh RiskLevel = "high"
	RiskLow  RiskLevel = "low"
)

// DefaultHighRiskThreshold is the posterior above which a disease is flagged high risk.
const DefaultHighRiskThreshold = 0.5

// Symptoms are the observations collected by the symptom form, as labels.
type Symptoms struct {
	Fever    string `json:"fever"`
	Cough    string `json:"cough"`
	Sneezing string `json:"sneezing"`
	Season   string `json:"season"`
}

type DiseaseProbability struct {
	Disease     string    `json:"disease"`
	Probability float64   `json:"probability"`
	Risk        RiskLevel `json:"risk"`
}

type Diagnosis struct {
	Probabilities  []DiseaseProbability `json:"probabilities"`
	MostLikely     string               `json:"most_likely"`
	Evidence       map[string]string    `json:"evidence"`
	ConsultationID *uuid.UUID           `json:"consultation_id,omitempty"`
}

// ComputeRisk flags a disease as high risk when its posterior exceeds
// threshold. The healthy state is never high risk.
func ComputeRisk(disease string, probability, threshold float64, healthy string) RiskLevel {
	if disease != healthy && probability > threshold {
		return RiskHigh
	}
	return RiskLow
}
