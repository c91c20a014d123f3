package storage

import "lognormPool/internal/model"

// Storage defines a sink for quote records.
type Storage interface {
	PutQuoteBatch(records []model.QuoteRecord) error
}
