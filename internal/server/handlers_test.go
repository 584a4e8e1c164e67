package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/brgykiosk/fulfillment/internal/models"
	"github.com/brgykiosk/fulfillment/internal/services"
)

// memStore is a minimal in-memory RequestStore for routing tests.
type memStore struct {
	mu   sync.Mutex
	recs map[string]*models.Request
}

func newMemStore() *memStore {
	return &memStore{recs: map[string]*models.Request{}}
}

func (s *memStore) add(rec *models.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec.ID == "" {
		rec.ID = fmt.Sprintf("rec-%d", len(s.recs)+1)
	}
	if rec.Status == "" {
		rec.Status = models.StatusPending
	}
	s.recs[rec.ID] = rec
}

func (s *memStore) Create(ctx context.Context, req *models.Request) (string, error) {
	s.add(req)
	return req.ID, nil
}

func (s *memStore) Get(ctx context.Context, id string) (*models.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.recs[id]; ok {
		return rec, nil
	}
	return nil, fmt.Errorf("request %s: %w", id, services.ErrRecordNotFound)
}

func (s *memStore) GetByReference(ctx context.Context, reference string) (*models.Request, error) {
	return s.find(func(r *models.Request) bool { return r.ReferenceNumber == reference })
}

func (s *memStore) GetByFileID(ctx context.Context, fileID string) (*models.Request, error) {
	return s.find(func(r *models.Request) bool { return fileID != "" && r.FileID == fileID })
}

func (s *memStore) find(match func(*models.Request) bool) (*models.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.recs {
		if match(rec) {
			return rec, nil
		}
	}
	return nil, fmt.Errorf("no match: %w", services.ErrRecordNotFound)
}

func (s *memStore) ListActive(ctx context.Context) ([]*models.Request, error) {
	return s.list(false)
}

func (s *memStore) ListTrashed(ctx context.Context) ([]*models.Request, error) {
	return s.list(true)
}

func (s *memStore) list(deleted bool) ([]*models.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Request
	for _, rec := range s.recs {
		if rec.Deleted == deleted {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *memStore) MarkPaid(ctx context.Context, id, method string, paidAt time.Time) error {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	rec.Status = models.StatusProcessing
	rec.PaymentStatus = models.PaymentPaid
	rec.PaymentMethod = method
	rec.PaidAt = paidAt
	return nil
}

func (s *memStore) SetStatus(ctx context.Context, id, status string) error {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	rec.Status = status
	return nil
}

func (s *memStore) SetArtifact(ctx context.Context, id string, art models.ArtifactLink, photo *models.PhotoLink) error {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	rec.FileID = art.FileID
	rec.FileName = art.FileName
	return nil
}

func (s *memStore) SetDeleted(ctx context.Context, id string, mark models.DeletionMark) error {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	rec.Deleted = true
	rec.DeletedAt = mark.At
	rec.DeletedReason = mark.Reason
	rec.DeletedBy = mark.By
	return nil
}

func (s *memStore) ClearDeleted(ctx context.Context, id string) error {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	rec.Deleted = false
	return nil
}

// memRemote is a minimal in-memory ArtifactStore.
type memRemote struct {
	mu    sync.Mutex
	files map[string]*models.RemoteFile
}

func newMemRemote() *memRemote {
	return &memRemote{files: map[string]*models.RemoteFile{}}
}

func (r *memRemote) addFile(id, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.files[id] = &models.RemoteFile{ID: id, Name: name, CreatedTime: time.Now(), Size: 512}
}

func (r *memRemote) Upload(ctx context.Context, localPath, suggestedName string) (*models.RemoteFile, error) {
	return nil, fmt.Errorf("not supported in routing tests")
}

func (r *memRemote) UploadPhoto(ctx context.Context, data []byte, reference, mimeType string) (*models.RemoteFile, error) {
	return nil, fmt.Errorf("not supported in routing tests")
}

func (r *memRemote) List(ctx context.Context) ([]*models.RemoteFile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.RemoteFile
	for _, f := range r.files {
		out = append(out, f)
	}
	return out, nil
}

func (r *memRemote) Download(ctx context.Context, fileID string) (io.ReadCloser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.files[fileID]; !ok {
		return nil, fmt.Errorf("file %s not found", fileID)
	}
	return io.NopCloser(strings.NewReader("%PDF-1.4 fake")), nil
}

func (r *memRemote) FileName(ctx context.Context, fileID string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.files[fileID]
	if !ok {
		return "", fmt.Errorf("file %s not found", fileID)
	}
	return f.Name, nil
}

func (r *memRemote) Delete(ctx context.Context, fileID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.files, fileID)
	return nil
}

func newTestRouter(t *testing.T) (*gin.Engine, *memStore, *memRemote) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := newMemStore()
	remote := newMemRemote()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	h := &Handlers{
		Orchestrator: &services.Orchestrator{Store: store, Remote: remote, Log: log},
		Reconcile:    &services.ReconcileService{Store: store, Remote: remote, Log: log},
		Lifecycle:    &services.LifecycleService{Store: store, Remote: remote, Log: log},
		Remote:       remote,
		Log:          log,
	}
	return NewRouter(h, []string{"*"}), store, remote
}

func do(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func seed(store *memStore, remote *memRemote, id, fileID, reference string) {
	remote.addFile(fileID, reference+".pdf")
	store.add(&models.Request{
		ID:              id,
		ReferenceNumber: reference,
		Status:          models.StatusProcessing,
		FileID:          fileID,
		FileName:        reference + ".pdf",
	})
}

func TestHealthz(t *testing.T) {
	r, _, _ := newTestRouter(t)
	w := do(t, r, http.MethodGet, "/healthz", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestListArtifacts_Shape(t *testing.T) {
	r, store, remote := newTestRouter(t)
	seed(store, remote, "rec-1", "file-1", "BRGY-CLR-2025-0001")

	w := do(t, r, http.MethodGet, "/api/pdf/list", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body)
	}
	var listing []models.ArtifactListing
	if err := json.Unmarshal(w.Body.Bytes(), &listing); err != nil {
		t.Fatalf("decoding listing: %v", err)
	}
	if len(listing) != 1 {
		t.Fatalf("listing length = %d", len(listing))
	}
	if listing[0].LinkedProperties.ReferenceNumber != "BRGY-CLR-2025-0001" {
		t.Fatalf("linkedProperties = %+v", listing[0].LinkedProperties)
	}
	if listing[0].LinkedProperties.Status != models.StatusProcessing {
		t.Fatalf("status = %q", listing[0].LinkedProperties.Status)
	}
}

func TestUpdateStatus_InvalidLiteral(t *testing.T) {
	r, store, remote := newTestRouter(t)
	seed(store, remote, "rec-1", "file-1", "BRGY-CLR-2025-0001")

	w := do(t, r, http.MethodPatch, "/api/pdf/status/file-1", `{"status":"Shipped"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d: %s", w.Code, w.Body)
	}
	for _, want := range models.Statuses() {
		if !strings.Contains(w.Body.String(), want) {
			t.Fatalf("error must name %q: %s", want, w.Body)
		}
	}
}

func TestUpdateStatus_ByFileID(t *testing.T) {
	r, store, remote := newTestRouter(t)
	seed(store, remote, "rec-1", "file-1", "BRGY-CLR-2025-0001")

	w := do(t, r, http.MethodPatch, "/api/pdf/status/file-1", `{"status":"For Pick-up"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body)
	}
	rec, err := store.Get(context.Background(), "rec-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec.Status != models.StatusForPickup {
		t.Fatalf("stored status = %q", rec.Status)
	}
}

func TestTrash_UnknownFileID(t *testing.T) {
	r, _, _ := newTestRouter(t)
	w := do(t, r, http.MethodDelete, "/api/pdf/no-such-file", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d: %s", w.Code, w.Body)
	}
}

func TestTrashBatch_ReportsAffectedCount(t *testing.T) {
	r, store, remote := newTestRouter(t)
	seed(store, remote, "rec-1", "file-1", "BRGY-CLR-2025-0001")
	seed(store, remote, "rec-2", "file-2", "BRGY-CLR-2025-0002")

	w := do(t, r, http.MethodDelete, "/api/pdf", `{"fileIds":["file-1","file-2","missing"]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body)
	}
	var resp map[string]int
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp["deleted"] != 2 {
		t.Fatalf("deleted = %d, want 2", resp["deleted"])
	}
}

func TestRestoreRoundTrip(t *testing.T) {
	r, store, remote := newTestRouter(t)
	seed(store, remote, "rec-1", "file-1", "BRGY-CLR-2025-0001")

	if w := do(t, r, http.MethodDelete, "/api/pdf/file-1", ""); w.Code != http.StatusOK {
		t.Fatalf("trash status = %d: %s", w.Code, w.Body)
	}
	if w := do(t, r, http.MethodPost, "/api/pdf/restore/file-1", ""); w.Code != http.StatusOK {
		t.Fatalf("restore status = %d: %s", w.Code, w.Body)
	}
	rec, _ := store.Get(context.Background(), "rec-1")
	if rec.Deleted {
		t.Fatalf("record still trashed after restore")
	}
}

func TestPermanentDelete_RequiresTrash(t *testing.T) {
	r, store, remote := newTestRouter(t)
	seed(store, remote, "rec-1", "file-1", "BRGY-CLR-2025-0001")

	w := do(t, r, http.MethodDelete, "/api/pdf/permanent/file-1", "")
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409: %s", w.Code, w.Body)
	}
}

func TestDownloadArtifact(t *testing.T) {
	r, store, remote := newTestRouter(t)
	seed(store, remote, "rec-1", "file-1", "BRGY-CLR-2025-0001")

	w := do(t, r, http.MethodGet, "/api/pdf/download/file-1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("content type = %q", ct)
	}
	if !strings.HasPrefix(w.Body.String(), "%PDF") {
		t.Fatalf("body = %q", w.Body)
	}
}

func TestPaymentWebhook_RejectsMalformedBody(t *testing.T) {
	r, _, _ := newTestRouter(t)
	w := do(t, r, http.MethodPost, "/api/payment/webhook", `{"referenceNumber":`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d: %s", w.Code, w.Body)
	}
}
