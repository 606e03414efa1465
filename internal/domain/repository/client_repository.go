package repository

import "github.com/craftbooks/billing-api/internal/domain/entity"

// ClientRepository read access to clients. Client CRUD belongs to the CRM; the
// lifecycle engine only loads clients to snapshot them into documents.
type ClientRepository interface {
	GetByID(id string) (*entity.Client, error)
}
