package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/craftbooks/billing-api/internal/domain/entity"
	"github.com/craftbooks/billing-api/internal/domain/repository"
)

var _ repository.ClientRepository = (*ClientRepo)(nil)

// ClientRepo read-only ClientRepository implementation. The clients collection
// is written by the CRM; this engine only reads it for snapshotting.
type ClientRepo struct {
	q Querier
}

// NewClientRepository builds the adapter. Pass a pool or tx (Querier).
func NewClientRepository(q Querier) *ClientRepo {
	return &ClientRepo{q: q}
}

// GetByID loads a client; (nil, nil) when it does not exist.
func (r *ClientRepo) GetByID(id string) (*entity.Client, error) {
	query := `
		SELECT id, concern_id, name, billing_address,
		       COALESCE(vat_id, ''), COALESCE(default_tax_key, ''), COALESCE(currency, 'EUR'),
		       created_at, updated_at
		FROM clients WHERE id = $1`
	var c entity.Client
	var address []byte
	err := r.q.QueryRow(context.Background(), query, id).Scan(
		&c.ID, &c.ConcernID, &c.Name, &address,
		&c.VATID, &c.DefaultTaxKey, &c.Currency,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get client: %w", err)
	}
	if len(address) > 0 {
		if err := json.Unmarshal(address, &c.BillingAddress); err != nil {
			return nil, fmt.Errorf("unmarshal billing address: %w", err)
		}
	}
	return &c, nil
}
