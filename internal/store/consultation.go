package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/Gianlz/MedBayes/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"
)

type ConsultationStore struct {
	db *pgxpool.Pool
}

func NewConsultationStore(db *pgxpool.Pool) *ConsultationStore {
	return &ConsultationStore{db: db}
}

func (s *ConsultationStore) Create(ctx context.Context, c *domain.Consultation) error {
	return s.db.QueryRow(ctx,
		`INSERT INTO consultations (network, target, evidence, posterior, posterior_vec, most_likely)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at`,
		c.Network, c.Target, c.Evidence, c.Posterior, pgvector.NewVector(c.Vector()), c.MostLikely,
	).Scan(&c.ID, &c.CreatedAt)
}

func (s *ConsultationStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Consultation, error) {
	c := &domain.Consultation{}
	err := s.db.QueryRow(ctx,
		`SELECT id, network, target, evidence, posterior, most_likely, created_at
		 FROM consultations WHERE id = $1`,
		id,
	).Scan(&c.ID, &c.Network, &c.Target, &c.Evidence, &c.Posterior, &c.MostLikely, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

// Similar returns consultations of the same network and target whose
// posteriors are closest to c's by L2 distance, excluding c itself.
func (s *ConsultationStore) Similar(ctx context.Context, c *domain.Consultation, limit int) ([]domain.ConsultationWithDistance, error) {
	if limit <= 0 {
		limit = 5
	}

	rows, err := s.db.Query(ctx,
		`SELECT id, network, target, evidence, posterior, most_likely, created_at,
		        posterior_vec <-> $4 AS distance
		 FROM consultations
		 WHERE network = $1 AND target = $2 AND id <> $3
		   AND vector_dims(posterior_vec) = vector_dims($4)
		 ORDER BY posterior_vec <-> $4
		 LIMIT $5`,
		c.Network, c.Target, c.ID, pgvector.NewVector(c.Vector()), limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.ConsultationWithDistance
	for rows.Next() {
		var r domain.ConsultationWithDistance
		if err := rows.Scan(&r.ID, &r.Network, &r.Target, &r.Evidence, &r.Posterior, &r.MostLikely, &r.CreatedAt, &r.Distance); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// DeleteOlderThan removes consultations recorded more than retentionDays ago.
func (s *ConsultationStore) DeleteOlderThan(ctx context.Context, retentionDays int) (int64, error) {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM consultations WHERE created_at < NOW() - ($1 || ' days')::interval`,
		fmt.Sprintf("%d", retentionDays),
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
