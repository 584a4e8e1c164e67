package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/brgykiosk/fulfillment/internal/models"
)

// ReconcileService merges remote artifact listings with local records and
// resolves ambiguous identifiers. The two stores share no transaction, so
// the merge works through a priority-ordered key chain: stored file id
// first, then the artifact name parsed as "<referenceNumber>.pdf", then the
// artifact is surfaced as orphaned rather than dropped.
type ReconcileService struct {
	Store  RequestStore
	Remote ArtifactStore
	Log    *slog.Logger
}

// ListArtifacts returns the reconciled listing. Remote files and local
// records are fetched concurrently; orphaned artifacts appear with default
// linked properties so operators can relink them manually.
func (s *ReconcileService) ListArtifacts(ctx context.Context) ([]models.ArtifactListing, error) {
	var (
		files   []*models.RemoteFile
		records []*models.Request
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		files, err = s.Remote.List(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		records, err = s.Store.ListActive(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to assemble artifact listing: %w", err)
	}

	byFileID := make(map[string]*models.Request, len(records))
	byReference := make(map[string]*models.Request, len(records))
	for _, rec := range records {
		if rec.FileID != "" {
			byFileID[rec.FileID] = rec
		}
		if rec.ReferenceNumber != "" {
			byReference[rec.ReferenceNumber] = rec
		}
	}

	out := make([]models.ArtifactListing, 0, len(files))
	for _, f := range files {
		rec := byFileID[f.ID]
		if rec == nil {
			if ref, ok := models.ParseArtifactName(f.Name); ok {
				rec = byReference[ref]
			}
		}

		props := models.LinkedProperties{Status: models.StatusPending}
		if rec != nil {
			props = models.LinkedProperties{
				Type:            rec.DocCode,
				Status:          rec.Status,
				ReferenceNumber: rec.ReferenceNumber,
			}
		} else {
			s.log().Info("Artifact has no linked record.", "fileId", f.ID, "name", f.Name)
		}
		out = append(out, models.ArtifactListing{RemoteFile: *f, LinkedProperties: props})
	}
	return out, nil
}

// Resolve maps a caller-supplied identifier, which may be a remote file id
// or a reference number, to its record. The remote store is consulted only
// after both direct matches fail; exhaustion is a typed miss, never a guess.
func (s *ReconcileService) Resolve(ctx context.Context, identifier string) (*models.Request, error) {
	rec, err := s.Store.GetByFileID(ctx, identifier)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, ErrRecordNotFound) {
		return nil, err
	}

	rec, err = s.Store.GetByReference(ctx, identifier)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, ErrRecordNotFound) {
		return nil, err
	}

	name, err := s.Remote.FileName(ctx, identifier)
	if err == nil {
		if ref, ok := models.ParseArtifactName(name); ok {
			rec, err = s.Store.GetByReference(ctx, ref)
			if err == nil {
				s.log().Info("Identifier resolved via remote file name.", "identifier", identifier, "reference", ref)
				return rec, nil
			}
			if !errors.Is(err, ErrRecordNotFound) {
				return nil, err
			}
		}
	}

	return nil, fmt.Errorf("no record for identifier %q: %w", identifier, ErrRecordNotFound)
}

// UpdateStatus validates the status literal, resolves the identifier and
// applies the new status. Updating to the current value succeeds trivially.
func (s *ReconcileService) UpdateStatus(ctx context.Context, identifier, newStatus string) (*models.Request, error) {
	if !models.ValidStatus(newStatus) {
		return nil, fmt.Errorf("%w: %q (allowed: %s)", ErrInvalidStatus, newStatus, strings.Join(models.Statuses(), " | "))
	}

	rec, err := s.Resolve(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if rec.Status == newStatus {
		return rec, nil
	}
	if err := s.Store.SetStatus(ctx, rec.ID, newStatus); err != nil {
		return nil, err
	}
	rec.Status = newStatus
	return rec, nil
}

func (s *ReconcileService) log() *slog.Logger {
	if s.Log != nil {
		return s.Log
	}
	return slog.Default()
}
