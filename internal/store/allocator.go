package store

import (
	"context"
	"fmt"

	"github.com/brgykiosk/fulfillment/internal/models"
	"github.com/brgykiosk/fulfillment/internal/services"
)

// Allocator issues reference numbers of the form CODE-YEAR-SEQ4 from an
// atomic counter store.
type Allocator struct {
	Counters CounterStore
}

// NextReference allocates the next reference for a document type and year.
// docType may be a display name or an already assigned short code; anything
// unrecognized falls back to the generic code.
func (a *Allocator) NextReference(ctx context.Context, docType string, year int) (string, error) {
	code := models.DocCode(docType)
	seq, err := a.Counters.Increment(ctx, code, year)
	if err != nil {
		return "", fmt.Errorf("%w: %s/%d: %v", services.ErrAllocation, code, year, err)
	}
	return models.FormatReference(code, year, seq), nil
}
