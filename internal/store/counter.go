package store

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/brgykiosk/fulfillment/internal/models"
)

// CounterStore is the atomic increment primitive behind reference
// allocation. Implementations must guarantee that two concurrent calls for
// the same (code, year) never observe the same value.
type CounterStore interface {
	Increment(ctx context.Context, code string, year int) (int64, error)
}

// Counters keeps one strictly increasing counter document per (code, year)
// in Firestore. Counter documents are created on first use and never
// deleted.
type Counters struct {
	client     *firestore.Client
	collection string
}

// NewCounters returns a counter store over the given collection.
func NewCounters(client *firestore.Client, collection string) *Counters {
	return &Counters{client: client, collection: collection}
}

// Increment atomically bumps the counter for (code, year) and returns the
// new value. The read-or-create and the write happen inside one Firestore
// transaction, never as a read-then-write pair.
func (c *Counters) Increment(ctx context.Context, code string, year int) (int64, error) {
	docRef := c.client.Collection(c.collection).Doc(fmt.Sprintf("%s-%d", code, year))

	var next int64
	err := c.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(docRef)
		if status.Code(err) == codes.NotFound {
			next = 1
			return tx.Set(docRef, models.Counter{Code: code, Year: year, Seq: 1})
		}
		if err != nil {
			return fmt.Errorf("failed to read counter: %w", err)
		}
		var counter models.Counter
		if err := snap.DataTo(&counter); err != nil {
			return fmt.Errorf("failed to decode counter: %w", err)
		}
		next = counter.Seq + 1
		return tx.Update(docRef, []firestore.Update{{Path: "seq", Value: next}})
	})
	if err != nil {
		return 0, fmt.Errorf("counter transaction for %s-%d failed: %w", code, year, err)
	}
	return next, nil
}
