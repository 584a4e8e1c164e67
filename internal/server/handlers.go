// Package server exposes the fulfillment pipeline over HTTP for the kiosk
// and the admin dashboard.
package server

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/brgykiosk/fulfillment/internal/models"
	"github.com/brgykiosk/fulfillment/internal/receipt"
	"github.com/brgykiosk/fulfillment/internal/services"
)

// Handlers binds the services to HTTP endpoints.
type Handlers struct {
	Orchestrator *services.Orchestrator
	Reconcile    *services.ReconcileService
	Lifecycle    *services.LifecycleService
	Remote       services.ArtifactStore
	Printer      *receipt.Printer
	Log          *slog.Logger
}

// PaymentWebhook consumes an already-validated payment-confirmed event and
// runs the fulfillment pipeline synchronously, like the webhook relay
// expects. Errors are surfaced to the relay for alerting; the record keeps
// its Processing/Paid state so "paid but undelivered" stays visible.
func (h *Handlers) PaymentWebhook(c *gin.Context) {
	var ev models.PaymentConfirmedEvent
	if err := c.ShouldBindJSON(&ev); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event payload: " + err.Error()})
		return
	}

	rec, err := h.Orchestrator.Fulfill(c.Request.Context(), ev)
	if err != nil {
		h.Log.Error("Fulfillment failed.", "reference", ev.ReferenceNumber, "error", err)
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// CreateRequest stores a Pending/Unpaid request before payment.
func (h *Handlers) CreateRequest(c *gin.Context) {
	var payload models.CreateRequestPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload: " + err.Error()})
		return
	}
	rec, err := h.Orchestrator.CreateRequest(c.Request.Context(), payload)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": rec.ID, "referenceNumber": rec.ReferenceNumber})
}

// ListArtifacts returns the reconciled artifact listing.
func (h *Handlers) ListArtifacts(c *gin.Context) {
	listing, err := h.Reconcile.ListArtifacts(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, listing)
}

// DownloadArtifact streams an artifact's bytes.
func (h *Handlers) DownloadArtifact(c *gin.Context) {
	body, err := h.Remote.Download(c.Request.Context(), c.Param("fileId"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	defer body.Close()
	c.Header("Content-Type", "application/pdf")
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, body); err != nil {
		h.Log.Warn("Artifact download aborted.", "fileId", c.Param("fileId"), "error", err)
	}
}

// UpdateStatus resolves an ambiguous identifier and applies a new status.
func (h *Handlers) UpdateStatus(c *gin.Context) {
	var payload models.UpdateStatusPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status payload: " + err.Error()})
		return
	}
	rec, err := h.Reconcile.UpdateStatus(c.Request.Context(), c.Param("id"), payload.Status)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// Trash soft-deletes a single record by file id.
func (h *Handlers) Trash(c *gin.Context) {
	if err := h.Lifecycle.Trash(c.Request.Context(), c.Param("fileId"), c.Query("reason"), c.Query("actor")); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// TrashBatch soft-deletes a batch and reports the affected count; entries
// without a record are skipped rather than failing the batch.
func (h *Handlers) TrashBatch(c *gin.Context) {
	var payload models.BatchIdentifiers
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid batch payload: " + err.Error()})
		return
	}
	n, err := h.Lifecycle.TrashBatch(c.Request.Context(), payload.FileIDs, payload.Reason, payload.Actor)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": n})
}

// Restore returns a single record from the trash.
func (h *Handlers) Restore(c *gin.Context) {
	if err := h.Lifecycle.Restore(c.Request.Context(), c.Param("fileId")); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// RestoreBatch restores a batch and reports the affected count.
func (h *Handlers) RestoreBatch(c *gin.Context) {
	var payload models.BatchIdentifiers
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid batch payload: " + err.Error()})
		return
	}
	n, err := h.Lifecycle.RestoreBatch(c.Request.Context(), payload.FileIDs)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"restored": n})
}

// PermanentDelete removes the remote artifact of a trashed record.
func (h *Handlers) PermanentDelete(c *gin.Context) {
	if err := h.Lifecycle.PermanentDelete(c.Request.Context(), c.Param("fileId")); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// PrintReceipt formats and spools a kiosk receipt.
func (h *Handlers) PrintReceipt(c *gin.Context) {
	var r receipt.Receipt
	if err := c.ShouldBindJSON(&r); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid receipt payload: " + err.Error()})
		return
	}
	if err := h.Printer.Print(c.Request.Context(), r); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.String(http.StatusOK, "Receipt sent to printer")
}

func (h *Handlers) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidStatus):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrNotTrashed):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
