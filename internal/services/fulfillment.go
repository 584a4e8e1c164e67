package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/brgykiosk/fulfillment/internal/models"
	"github.com/brgykiosk/fulfillment/internal/render"
)

// Orchestrator runs the fulfillment pipeline once per confirmed payment:
// allocation (when needed), rendering, compositing, upload, record update.
// Runs for different requests proceed concurrently without coordination;
// the allocator's counter transaction is the only shared mutual exclusion.
type Orchestrator struct {
	Store      RequestStore
	Allocator  ReferenceAllocator
	Renderer   Renderer
	Compositor Compositor
	Remote     ArtifactStore
	Archive    Archiver // optional mirror of uploaded artifacts
	Log        *slog.Logger
}

// CreateRequest stores a new Pending/Unpaid request, allocating its
// reference number. This is the pre-payment submission path.
func (o *Orchestrator) CreateRequest(ctx context.Context, payload models.CreateRequestPayload) (*models.Request, error) {
	code := models.DocCode(payload.Document)
	reference, err := o.Allocator.NextReference(ctx, code, time.Now().Year())
	if err != nil {
		return nil, err
	}

	rec := &models.Request{
		ReferenceNumber: reference,
		FullName:        payload.FullName,
		Email:           payload.Email,
		ContactNumber:   payload.ContactNumber,
		Address:         payload.Address,
		Barangay:        payload.Barangay,
		DocumentType:    payload.Document,
		DocCode:         code,
		Fields:          payload.Fields,
		Amount:          payload.Amount,
		Currency:        payload.Currency,
	}
	if _, err := o.Store.Create(ctx, rec); err != nil {
		return nil, err
	}
	o.log().Info("Request created.", "reference", reference, "docCode", code)
	return rec, nil
}

// Fulfill runs the pipeline for one payment-confirmed event and returns the
// updated record. Allocation, render and upload failures abort the run and
// are surfaced; committed prior steps are not rolled back, so a record can
// legitimately sit at Processing/Paid without an artifact until a retry.
func (o *Orchestrator) Fulfill(ctx context.Context, ev models.PaymentConfirmedEvent) (*models.Request, error) {
	logCtx := o.log().With("runId", uuid.NewString(), "reference", ev.ReferenceNumber, "docCode", ev.DocumentTypeCode)
	logCtx.Info("Fulfillment started.")

	rec, err := o.ensureRequest(ctx, ev)
	if err != nil {
		return nil, err
	}
	logCtx = logCtx.With("requestId", rec.ID, "reference", rec.ReferenceNumber)

	paidAt := ev.PaidAt
	if paidAt.IsZero() {
		paidAt = time.Now()
	}
	if err := o.Store.MarkPaid(ctx, rec.ID, ev.PaymentMethodLabel, paidAt); err != nil {
		return nil, fmt.Errorf("failed to mark request paid: %w", err)
	}
	rec.Status = models.StatusProcessing
	rec.PaymentStatus = models.PaymentPaid
	rec.PaymentMethod = ev.PaymentMethodLabel
	rec.PaidAt = paidAt

	pdfPath, cleanup, err := o.Renderer.Render(ctx, rec.DocCode, ev.FieldMapping)
	if err != nil {
		return nil, err
	}
	keepScratch := false
	defer func() {
		if !keepScratch {
			cleanup()
		}
	}()

	placements := render.PlacementsFor(rec.DocCode)
	if len(placements) > 0 {
		inline := map[string][]byte{}
		if len(ev.Photo) > 0 {
			inline["photoId"] = ev.Photo
		}
		pdfPath, err = o.Compositor.Composite(pdfPath, placements, inline)
		if err != nil {
			return nil, fmt.Errorf("compositing failed: %w", err)
		}
	}

	art, photo, err := o.uploadArtifacts(ctx, rec, pdfPath, ev.Photo)
	if err != nil {
		// The rendered file outlives the run so a retry can skip rendering.
		keepScratch = true
		logCtx.Error("Upload failed; preserving rendered file.", "path", pdfPath, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrUpload, err)
	}

	if err := o.Store.SetArtifact(ctx, rec.ID, *art, photo); err != nil {
		// The artifact exists unlinked until the name-based reconciliation
		// fallback relinks it on a later listing.
		return nil, fmt.Errorf("failed to record artifact linkage: %w", err)
	}
	applyLinkage(rec, art, photo)

	o.mirror(ctx, logCtx, rec.ReferenceNumber, pdfPath)

	logCtx.Info("Fulfillment complete.", "fileId", art.FileID, "fileName", art.FileName)
	return rec, nil
}

// ensureRequest finds the record for the event, creating one when the event
// carries no reference or references a record that does not exist yet.
func (o *Orchestrator) ensureRequest(ctx context.Context, ev models.PaymentConfirmedEvent) (*models.Request, error) {
	if ev.ReferenceNumber != "" {
		rec, err := o.Store.GetByReference(ctx, ev.ReferenceNumber)
		if err == nil {
			return rec, nil
		}
		if !errors.Is(err, ErrRecordNotFound) {
			return nil, err
		}
	}

	reference := ev.ReferenceNumber
	code := models.DocCode(ev.DocumentTypeCode)
	if reference == "" {
		var err error
		reference, err = o.Allocator.NextReference(ctx, code, time.Now().Year())
		if err != nil {
			return nil, err
		}
	}

	rec := &models.Request{
		ReferenceNumber: reference,
		DocCode:         code,
		Fields:          ev.FieldMapping,
	}
	if _, err := o.Store.Create(ctx, rec); err != nil {
		return nil, err
	}
	o.log().Info("Request created during fulfillment.", "reference", reference)
	return rec, nil
}

// uploadArtifacts pushes the PDF and the optional photo concurrently.
func (o *Orchestrator) uploadArtifacts(ctx context.Context, rec *models.Request, pdfPath string, photo []byte) (*models.ArtifactLink, *models.PhotoLink, error) {
	var (
		pdfMeta   *models.RemoteFile
		photoMeta *models.RemoteFile
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		pdfMeta, err = o.Remote.Upload(gctx, pdfPath, rec.ReferenceNumber)
		return err
	})
	if len(photo) > 0 {
		g.Go(func() error {
			var err error
			photoMeta, err = o.Remote.UploadPhoto(gctx, photo, rec.ReferenceNumber, "image/jpeg")
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	art := &models.ArtifactLink{
		FileID:       pdfMeta.ID,
		FileName:     pdfMeta.Name,
		UploadedAt:   pdfMeta.CreatedTime,
		Size:         pdfMeta.Size,
		ViewLink:     pdfMeta.ViewLink,
		DownloadLink: pdfMeta.DownloadLink,
	}
	var photoLink *models.PhotoLink
	if photoMeta != nil {
		photoLink = &models.PhotoLink{
			FileID:       photoMeta.ID,
			FileName:     photoMeta.Name,
			ViewLink:     photoMeta.ViewLink,
			DownloadLink: photoMeta.DownloadLink,
		}
	}
	return art, photoLink, nil
}

// mirror archives the uploaded artifact bytes. The mirror is best-effort;
// failures are logged, never fatal to an already uploaded artifact.
func (o *Orchestrator) mirror(ctx context.Context, logCtx *slog.Logger, reference, pdfPath string) {
	if o.Archive == nil {
		return
	}
	data, err := os.ReadFile(pdfPath)
	if err != nil {
		logCtx.Warn("Could not read artifact for archive mirror.", "error", err)
		return
	}
	if err := o.Archive.Store(ctx, reference+".pdf", data); err != nil {
		logCtx.Warn("Archive mirror failed.", "error", err)
	}
}

func applyLinkage(rec *models.Request, art *models.ArtifactLink, photo *models.PhotoLink) {
	rec.FileID = art.FileID
	rec.FileName = art.FileName
	rec.UploadedAt = art.UploadedAt
	rec.FileSize = art.Size
	rec.ViewLink = art.ViewLink
	rec.DownloadLink = art.DownloadLink
	if photo != nil {
		rec.PhotoFileID = photo.FileID
		rec.PhotoFileName = photo.FileName
		rec.PhotoViewLink = photo.ViewLink
		rec.PhotoDownloadLink = photo.DownloadLink
	}
}

func (o *Orchestrator) log() *slog.Logger {
	if o.Log != nil {
		return o.Log
	}
	return slog.Default()
}
