package repository

import "github.com/craftbooks/billing-api/internal/domain/entity"

// DocumentRepository persistence for offers, orders and invoices. The store
// guarantees single-document atomic updates with an optimistic version check;
// cross-document atomicity comes from running inside a transaction (TxRunner).
type DocumentRepository interface {
	Create(doc *entity.Document) error
	// GetByID returns (nil, nil) when the document does not exist.
	GetByID(id string) (*entity.Document, error)
	// Update writes the document if its stored version still matches
	// doc.Version, then increments the version. A stale version yields
	// domain.ErrConcurrentModification.
	Update(doc *entity.Document) error
	ListByConcernAndType(concernID string, docType entity.DocumentType) ([]*entity.Document, error)
	// GetBySource returns the document converted from the given source
	// document id, or (nil, nil). Backs the single-use conversion check.
	GetBySource(docType entity.DocumentType, sourceID string) (*entity.Document, error)
	// ListConcernIDs lists all concern ids that own documents (sweep targets).
	ListConcernIDs() ([]string, error)
}
