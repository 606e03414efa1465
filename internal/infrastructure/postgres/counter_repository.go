package postgres

import (
	"context"
	"fmt"

	"github.com/craftbooks/billing-api/internal/domain/entity"
	"github.com/craftbooks/billing-api/internal/domain/repository"
)

var _ repository.CounterRepository = (*CounterRepo)(nil)

// CounterRepo CounterRepository implementation. The increment is a single
// upsert statement, so it is atomic across the whole (concern, type, year)
// scope: concurrent allocations serialize on the row lock and the sequence is
// gap-free. Run inside the creating transaction so a failed document insert
// rolls the allocation back instead of leaving a gap.
type CounterRepo struct {
	q Querier
}

// NewCounterRepository builds the adapter. Pass a pool or tx (Querier).
func NewCounterRepository(q Querier) *CounterRepo {
	return &CounterRepo{q: q}
}

// NextSeq atomically increments and returns the counter for the scope.
func (r *CounterRepo) NextSeq(concernID string, docType entity.DocumentType, year int) (int64, error) {
	query := `
		INSERT INTO number_counters (concern_id, document_type, year, seq, updated_at)
		VALUES ($1, $2, $3, 1, now())
		ON CONFLICT (concern_id, document_type, year)
		DO UPDATE SET seq = number_counters.seq + 1, updated_at = now()
		RETURNING seq`
	var seq int64
	err := r.q.QueryRow(context.Background(), query, concernID, string(docType), year).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}
	return seq, nil
}
