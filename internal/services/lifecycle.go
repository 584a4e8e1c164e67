package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/brgykiosk/fulfillment/internal/models"
)

// Default bookkeeping values for deletions triggered from the dashboard.
const (
	defaultDeleteReason = "Deleted via admin dashboard"
	defaultBatchReason  = "Bulk deleted via admin dashboard"
	defaultDeleteActor  = "admin"
)

// LifecycleService governs the soft-delete/trash/restore lifecycle. Soft
// delete and restore only ever touch the deleted* fields and leave status,
// payment status and the remote artifact alone; permanent deletion removes
// the remote artifact and is valid only from the trashed state.
type LifecycleService struct {
	Store  RequestStore
	Remote ArtifactStore
	Log    *slog.Logger
}

// Trash soft-deletes the record linked to a remote file id. Trashing an
// already trashed record succeeds without change.
func (s *LifecycleService) Trash(ctx context.Context, fileID, reason, actor string) error {
	rec, err := s.Store.GetByFileID(ctx, fileID)
	if err != nil {
		return err
	}
	if rec.Deleted {
		return nil
	}
	if reason == "" {
		reason = defaultDeleteReason
	}
	if actor == "" {
		actor = defaultDeleteActor
	}
	if err := s.Store.SetDeleted(ctx, rec.ID, models.DeletionMark{At: time.Now(), Reason: reason, By: actor}); err != nil {
		return err
	}
	s.log().Info("Request soft-deleted.", "fileId", fileID, "reference", rec.ReferenceNumber)
	return nil
}

// TrashBatch soft-deletes every resolvable entry and returns the number of
// records affected. Unknown file ids are skipped, not errors; the batch is
// partial-success, never all-or-nothing.
func (s *LifecycleService) TrashBatch(ctx context.Context, fileIDs []string, reason, actor string) (int, error) {
	if reason == "" {
		reason = defaultBatchReason
	}
	affected := 0
	for _, id := range fileIDs {
		err := s.Trash(ctx, id, reason, actor)
		if errors.Is(err, ErrRecordNotFound) {
			s.log().Warn("No record for file id in batch delete, skipping.", "fileId", id)
			continue
		}
		if err != nil {
			return affected, err
		}
		affected++
	}
	return affected, nil
}

// Restore clears the soft-delete mark, returning the record to its
// pre-delete visibility with status unchanged. Restoring a record that is
// not in the trash succeeds without change.
func (s *LifecycleService) Restore(ctx context.Context, fileID string) error {
	rec, err := s.Store.GetByFileID(ctx, fileID)
	if err != nil {
		return err
	}
	if !rec.Deleted {
		return nil
	}
	if err := s.Store.ClearDeleted(ctx, rec.ID); err != nil {
		return err
	}
	s.log().Info("Request restored from trash.", "fileId", fileID, "reference", rec.ReferenceNumber)
	return nil
}

// RestoreBatch restores every resolvable entry, skipping unknown ids.
func (s *LifecycleService) RestoreBatch(ctx context.Context, fileIDs []string) (int, error) {
	affected := 0
	for _, id := range fileIDs {
		err := s.Restore(ctx, id)
		if errors.Is(err, ErrRecordNotFound) {
			s.log().Warn("No record for file id in batch restore, skipping.", "fileId", id)
			continue
		}
		if err != nil {
			return affected, err
		}
		affected++
	}
	return affected, nil
}

// PermanentDelete removes the remote artifact of a trashed record. The local
// record is kept as an audit trail; with the remote file gone it no longer
// appears in listings. Requests against a record that was never soft-deleted
// are rejected so data is never silently destroyed.
func (s *LifecycleService) PermanentDelete(ctx context.Context, fileID string) error {
	rec, err := s.Store.GetByFileID(ctx, fileID)
	if err != nil {
		return err
	}
	if !rec.Deleted {
		return fmt.Errorf("permanent delete of %s: %w", fileID, ErrNotTrashed)
	}
	if err := s.Remote.Delete(ctx, fileID); err != nil {
		return err
	}
	s.log().Info("Artifact permanently deleted.", "fileId", fileID, "reference", rec.ReferenceNumber)
	return nil
}

func (s *LifecycleService) log() *slog.Logger {
	if s.Log != nil {
		return s.Log
	}
	return slog.Default()
}
