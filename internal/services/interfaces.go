package services

import (
	"context"
	"io"
	"time"

	"github.com/brgykiosk/fulfillment/internal/models"
	"github.com/brgykiosk/fulfillment/internal/render"
)

// RequestStore is the record-store surface the services depend on. The
// Firestore implementation lives in internal/store; tests inject in-memory
// fakes.
type RequestStore interface {
	Create(ctx context.Context, req *models.Request) (string, error)
	Get(ctx context.Context, id string) (*models.Request, error)
	GetByReference(ctx context.Context, reference string) (*models.Request, error)
	GetByFileID(ctx context.Context, fileID string) (*models.Request, error)
	ListActive(ctx context.Context) ([]*models.Request, error)
	ListTrashed(ctx context.Context) ([]*models.Request, error)
	MarkPaid(ctx context.Context, id, method string, paidAt time.Time) error
	SetStatus(ctx context.Context, id, status string) error
	SetArtifact(ctx context.Context, id string, art models.ArtifactLink, photo *models.PhotoLink) error
	SetDeleted(ctx context.Context, id string, mark models.DeletionMark) error
	ClearDeleted(ctx context.Context, id string) error
}

// ReferenceAllocator issues unique reference numbers per (code, year).
type ReferenceAllocator interface {
	NextReference(ctx context.Context, docCode string, year int) (string, error)
}

// Renderer converts a (document code, field mapping) pair into a PDF on
// disk. cleanup releases the scratch directory and must be called unless the
// file is deliberately preserved for a retry.
type Renderer interface {
	Render(ctx context.Context, docCode string, fields map[string]string) (pdfPath string, cleanup func(), err error)
}

// Compositor overlays image placements onto a rendered PDF, returning a new
// file. Undecodable placements are skipped, never fatal.
type Compositor interface {
	Composite(pdfPath string, placements []render.Placement, inline map[string][]byte) (string, error)
}

// ArtifactStore is the remote object-store gateway.
type ArtifactStore interface {
	Upload(ctx context.Context, localPath, suggestedName string) (*models.RemoteFile, error)
	UploadPhoto(ctx context.Context, data []byte, reference, mimeType string) (*models.RemoteFile, error)
	List(ctx context.Context) ([]*models.RemoteFile, error)
	Download(ctx context.Context, fileID string) (io.ReadCloser, error)
	FileName(ctx context.Context, fileID string) (string, error)
	Delete(ctx context.Context, fileID string) error
}

// Archiver mirrors uploaded artifact bytes to a secondary durable store.
type Archiver interface {
	Store(ctx context.Context, name string, data []byte) error
}
