package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// StateProbability is the posterior probability of one state of a variable.
type StateProbability struct {
	State       string  `json:"state"`
	Probability float64 `json:"probability"`
}

// Consultation is a recorded posterior query against a network.
type Consultation struct {
	ID         uuid.UUID          `json:"id"`
	Network    string             `json:"network"`
	Target     string             `json:"target"`
	Evidence   map[string]string  `json:"evidence"`
	Posterior  []StateProbability `json:"posterior"`
	MostLikely string             `json:"most_likely"`
	CreatedAt  time.Time          `json:"created_at"`
}

// Vector returns the posterior probabilities in state order.
func (c *Consultation) Vector() []float32 {
	v := make([]float32, len(c.Posterior))
	for i, p := range c.Posterior {
		v[i] = float32(p.Probability)
	}
	return v
}

type ConsultationWithDistance struct {
	Consultation
	Distance float64 `json:"distance"`
}

type ConsultationStore interface {
	Create(ctx context.Context, c *Consultation) error
	GetByID(ctx context.Context, id uuid.UUID) (*Consultation, error)
	Similar(ctx context.Context, c *Consultation, limit int) ([]ConsultationWithDistance, error)
}

// ConsultationPruner drops history past a retention window.
type ConsultationPruner interface {
	DeleteOlderThan(ctx context.Context, retentionDays int) (int64, error)
}
