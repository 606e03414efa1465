package repository

import "github.com/craftbooks/billing-api/internal/domain/entity"

// CounterRepository the numbering authority's counter store. NextSeq must be an
// atomic increment-and-read on the (concern, documentType, year) counter so two
// concurrent creations never receive the same sequence, with no gaps.
type CounterRepository interface {
	NextSeq(concernID string, docType entity.DocumentType, year int) (int64, error)
}
