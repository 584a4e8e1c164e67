// Package store implements the Firestore-backed request store and the
// sequence counter behind reference allocation.
package store

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/brgykiosk/fulfillment/internal/models"
	"github.com/brgykiosk/fulfillment/internal/services"
)

// Requests persists request records in a Firestore collection.
type Requests struct {
	client     *firestore.Client
	collection string
}

// NewRequests returns a request store over the given collection.
func NewRequests(client *firestore.Client, collection string) *Requests {
	return &Requests{client: client, collection: collection}
}

func (s *Requests) col() *firestore.CollectionRef {
	return s.client.Collection(s.collection)
}

// Create stores a new request and returns its document id. Status and
// payment status default to Pending/Unpaid when unset; Deleted is written
// explicitly so equality queries on it match every record.
func (s *Requests) Create(ctx context.Context, req *models.Request) (string, error) {
	if req.Status == "" {
		req.Status = models.StatusPending
	}
	if req.PaymentStatus == "" {
		req.PaymentStatus = models.PaymentUnpaid
	}
	now := time.Now()
	req.CreatedAt = now
	req.UpdatedAt = now
	req.Deleted = false

	docRef := s.col().NewDoc()
	if _, err := docRef.Create(ctx, req); err != nil {
		return "", fmt.Errorf("failed to create request record: %w", err)
	}
	req.ID = docRef.ID
	return docRef.ID, nil
}

// Get fetches a request by document id.
func (s *Requests) Get(ctx context.Context, id string) (*models.Request, error) {
	snap, err := s.col().Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, fmt.Errorf("request %s: %w", id, services.ErrRecordNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get request %s: %w", id, err)
	}
	return decode(snap)
}

// GetByReference fetches the request holding a reference number. References
// are unique across deleted and non-deleted records, so deleted ones are
// found too.
func (s *Requests) GetByReference(ctx context.Context, reference string) (*models.Request, error) {
	return s.findOne(ctx, "referenceNumber", reference)
}

// GetByFileID fetches the request linked to a remote artifact id.
func (s *Requests) GetByFileID(ctx context.Context, fileID string) (*models.Request, error) {
	return s.findOne(ctx, "fileId", fileID)
}

func (s *Requests) findOne(ctx context.Context, field, value string) (*models.Request, error) {
	snaps, err := s.col().Where(field, "==", value).Limit(1).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to query requests by %s: %w", field, err)
	}
	if len(snaps) == 0 {
		return nil, fmt.Errorf("request with %s=%s: %w", field, value, services.ErrRecordNotFound)
	}
	return decode(snaps[0])
}

// ListActive returns all records not in the trash.
func (s *Requests) ListActive(ctx context.Context) ([]*models.Request, error) {
	return s.listDeleted(ctx, false)
}

// ListTrashed returns all soft-deleted records.
func (s *Requests) ListTrashed(ctx context.Context) ([]*models.Request, error) {
	return s.listDeleted(ctx, true)
}

func (s *Requests) listDeleted(ctx context.Context, deleted bool) ([]*models.Request, error) {
	snaps, err := s.col().Where("deleted", "==", deleted).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	out := make([]*models.Request, 0, len(snaps))
	for _, snap := range snaps {
		rec, err := decode(snap)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// MarkPaid flips a record to Processing/Paid with the payment details. This
// is the single mutation a confirmed payment performs on the record before
// fulfillment.
func (s *Requests) MarkPaid(ctx context.Context, id, method string, paidAt time.Time) error {
	return s.update(ctx, id, []firestore.Update{
		{Path: "status", Value: models.StatusProcessing},
		{Path: "paymentStatus", Value: models.PaymentPaid},
		{Path: "paymentMethod", Value: method},
		{Path: "paidAt", Value: paidAt},
	})
}

// SetStatus writes a new lifecycle status.
func (s *Requests) SetStatus(ctx context.Context, id, status string) error {
	return s.update(ctx, id, []firestore.Update{
		{Path: "status", Value: status},
	})
}

// SetArtifact writes the artifact linkage (and optionally the photo linkage)
// as one update, so a re-upload overwrites the whole unit atomically.
func (s *Requests) SetArtifact(ctx context.Context, id string, art models.ArtifactLink, photo *models.PhotoLink) error {
	updates := []firestore.Update{
		{Path: "fileId", Value: art.FileID},
		{Path: "pdfFileName", Value: art.FileName},
		{Path: "pdfUploadedAt", Value: art.UploadedAt},
		{Path: "pdfSize", Value: art.Size},
		{Path: "pdfUrl", Value: art.ViewLink},
		{Path: "pdfDownloadUrl", Value: art.DownloadLink},
	}
	if photo != nil {
		updates = append(updates,
			firestore.Update{Path: "photoFileId", Value: photo.FileID},
			firestore.Update{Path: "photoFileName", Value: photo.FileName},
			firestore.Update{Path: "photoUrl", Value: photo.ViewLink},
			firestore.Update{Path: "photoDownloadUrl", Value: photo.DownloadLink},
		)
	}
	return s.update(ctx, id, updates)
}

// SetDeleted soft-deletes a record. Status and payment status are untouched.
func (s *Requests) SetDeleted(ctx context.Context, id string, mark models.DeletionMark) error {
	return s.update(ctx, id, []firestore.Update{
		{Path: "deleted", Value: true},
		{Path: "deletedAt", Value: mark.At},
		{Path: "deletedReason", Value: mark.Reason},
		{Path: "deletedBy", Value: mark.By},
	})
}

// ClearDeleted restores a record from the trash.
func (s *Requests) ClearDeleted(ctx context.Context, id string) error {
	return s.update(ctx, id, []firestore.Update{
		{Path: "deleted", Value: false},
		{Path: "deletedAt", Value: firestore.Delete},
		{Path: "deletedReason", Value: firestore.Delete},
		{Path: "deletedBy", Value: firestore.Delete},
	})
}

func (s *Requests) update(ctx context.Context, id string, updates []firestore.Update) error {
	updates = append(updates, firestore.Update{Path: "updatedAt", Value: time.Now()})
	_, err := s.col().Doc(id).Update(ctx, updates)
	if status.Code(err) == codes.NotFound {
		return fmt.Errorf("request %s: %w", id, services.ErrRecordNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to update request %s: %w", id, err)
	}
	return nil
}

func decode(snap *firestore.DocumentSnapshot) (*models.Request, error) {
	var rec models.Request
	if err := snap.DataTo(&rec); err != nil {
		return nil, fmt.Errorf("failed to decode request %s: %w", snap.Ref.ID, err)
	}
	rec.ID = snap.Ref.ID
	return &rec, nil
}
