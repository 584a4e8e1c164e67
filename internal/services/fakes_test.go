package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/brgykiosk/fulfillment/internal/models"
	"github.com/brgykiosk/fulfillment/internal/render"
)

// fakeStore is an in-memory RequestStore.
type fakeStore struct {
	mu     sync.Mutex
	nextID int
	recs   map[string]*models.Request

	failSetArtifact bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{recs: map[string]*models.Request{}}
}

func (s *fakeStore) add(rec *models.Request) *models.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	rec.ID = fmt.Sprintf("rec-%d", s.nextID)
	if rec.Status == "" {
		rec.Status = models.StatusPending
	}
	if rec.PaymentStatus == "" {
		rec.PaymentStatus = models.PaymentUnpaid
	}
	cp := *rec
	s.recs[rec.ID] = &cp
	return rec
}

func (s *fakeStore) Create(ctx context.Context, req *models.Request) (string, error) {
	s.add(req)
	return req.ID, nil
}

func (s *fakeStore) Get(ctx context.Context, id string) (*models.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.recs[id]
	if !ok {
		return nil, fmt.Errorf("request %s: %w", id, ErrRecordNotFound)
	}
	cp := *rec
	return &cp, nil
}

func (s *fakeStore) GetByReference(ctx context.Context, reference string) (*models.Request, error) {
	return s.find(func(r *models.Request) bool { return r.ReferenceNumber == reference })
}

func (s *fakeStore) GetByFileID(ctx context.Context, fileID string) (*models.Request, error) {
	return s.find(func(r *models.Request) bool { return r.FileID == fileID && fileID != "" })
}

func (s *fakeStore) find(match func(*models.Request) bool) (*models.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.recs {
		if match(rec) {
			cp := *rec
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("no match: %w", ErrRecordNotFound)
}

func (s *fakeStore) ListActive(ctx context.Context) ([]*models.Request, error) {
	return s.list(false)
}

func (s *fakeStore) ListTrashed(ctx context.Context) ([]*models.Request, error) {
	return s.list(true)
}

func (s *fakeStore) list(deleted bool) ([]*models.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Request
	for _, rec := range s.recs {
		if rec.Deleted == deleted {
			cp := *rec
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *fakeStore) mutate(id string, fn func(*models.Request)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.recs[id]
	if !ok {
		return fmt.Errorf("request %s: %w", id, ErrRecordNotFound)
	}
	fn(rec)
	return nil
}

func (s *fakeStore) MarkPaid(ctx context.Context, id, method string, paidAt time.Time) error {
	return s.mutate(id, func(r *models.Request) {
		r.Status = models.StatusProcessing
		r.PaymentStatus = models.PaymentPaid
		r.PaymentMethod = method
		r.PaidAt = paidAt
	})
}

func (s *fakeStore) SetStatus(ctx context.Context, id, status string) error {
	return s.mutate(id, func(r *models.Request) { r.Status = status })
}

func (s *fakeStore) SetArtifact(ctx context.Context, id string, art models.ArtifactLink, photo *models.PhotoLink) error {
	if s.failSetArtifact {
		return fmt.Errorf("record store unavailable")
	}
	return s.mutate(id, func(r *models.Request) {
		r.FileID = art.FileID
		r.FileName = art.FileName
		r.UploadedAt = art.UploadedAt
		r.FileSize = art.Size
		r.ViewLink = art.ViewLink
		r.DownloadLink = art.DownloadLink
		if photo != nil {
			r.PhotoFileID = photo.FileID
			r.PhotoFileName = photo.FileName
			r.PhotoViewLink = photo.ViewLink
			r.PhotoDownloadLink = photo.DownloadLink
		}
	})
}

func (s *fakeStore) SetDeleted(ctx context.Context, id string, mark models.DeletionMark) error {
	return s.mutate(id, func(r *models.Request) {
		r.Deleted = true
		r.DeletedAt = mark.At
		r.DeletedReason = mark.Reason
		r.DeletedBy = mark.By
	})
}

func (s *fakeStore) ClearDeleted(ctx context.Context, id string) error {
	return s.mutate(id, func(r *models.Request) {
		r.Deleted = false
		r.DeletedAt = time.Time{}
		r.DeletedReason = ""
		r.DeletedBy = ""
	})
}

// fakeRemote is an in-memory ArtifactStore.
type fakeRemote struct {
	mu     sync.Mutex
	nextID int
	files  map[string]*models.RemoteFile

	failUpload bool
	deleted    []string
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{files: map[string]*models.RemoteFile{}}
}

func (r *fakeRemote) addFile(name string) *models.RemoteFile {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	f := &models.RemoteFile{
		ID:           fmt.Sprintf("file-%d", r.nextID),
		Name:         name,
		CreatedTime:  time.Now(),
		Size:         1024,
		ViewLink:     "https://drive.example/view/" + name,
		DownloadLink: "https://drive.example/dl/" + name,
	}
	r.files[f.ID] = f
	return f
}

func (r *fakeRemote) Upload(ctx context.Context, localPath, suggestedName string) (*models.RemoteFile, error) {
	if r.failUpload {
		return nil, fmt.Errorf("remote store rejected the artifact")
	}
	return r.addFile(ArtifactFileName(suggestedName, time.Now())), nil
}

func (r *fakeRemote) UploadPhoto(ctx context.Context, data []byte, reference, mimeType string) (*models.RemoteFile, error) {
	if r.failUpload {
		return nil, fmt.Errorf("remote store rejected the photo")
	}
	return r.addFile(reference + "-photo.jpg"), nil
}

func (r *fakeRemote) List(ctx context.Context) ([]*models.RemoteFile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.RemoteFile
	for _, f := range r.files {
		if strings.HasSuffix(f.Name, ".pdf") {
			cp := *f
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeRemote) Download(ctx context.Context, fileID string) (io.ReadCloser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.files[fileID]; !ok {
		return nil, fmt.Errorf("file %s not found", fileID)
	}
	return io.NopCloser(strings.NewReader("%PDF-1.4 fake")), nil
}

func (r *fakeRemote) FileName(ctx context.Context, fileID string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.files[fileID]
	if !ok {
		return "", fmt.Errorf("file %s not found", fileID)
	}
	return f.Name, nil
}

func (r *fakeRemote) Delete(ctx context.Context, fileID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.files[fileID]; !ok {
		return fmt.Errorf("file %s not found", fileID)
	}
	delete(r.files, fileID)
	r.deleted = append(r.deleted, fileID)
	return nil
}

// fakeAllocator hands out sequential references for one code/year.
type fakeAllocator struct {
	mu   sync.Mutex
	seqs map[string]int64
}

func newFakeAllocator() *fakeAllocator {
	return &fakeAllocator{seqs: map[string]int64{}}
}

func (a *fakeAllocator) NextReference(ctx context.Context, docCode string, year int) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	code := models.DocCode(docCode)
	key := fmt.Sprintf("%s-%d", code, year)
	a.seqs[key]++
	return models.FormatReference(code, year, a.seqs[key]), nil
}

// fakeRenderer writes a placeholder PDF into its scratch dir.
type fakeRenderer struct {
	dir        string
	fail       error
	cleanedUp  bool
	renderedTo string
}

func (f *fakeRenderer) Render(ctx context.Context, docCode string, fields map[string]string) (string, func(), error) {
	if f.fail != nil {
		return "", nil, f.fail
	}
	path := f.dir + "/base.pdf"
	if err := writeFile(path, "%PDF-1.4 rendered"); err != nil {
		return "", nil, err
	}
	f.renderedTo = path
	return path, func() { f.cleanedUp = true }, nil
}

// fakeCompositor records calls and hands back a derived path.
type fakeCompositor struct {
	called bool
	inline map[string][]byte
}

func (f *fakeCompositor) Composite(pdfPath string, placements []render.Placement, inline map[string][]byte) (string, error) {
	f.called = true
	f.inline = inline
	out := strings.TrimSuffix(pdfPath, ".pdf") + "-final.pdf"
	if err := writeFile(out, "%PDF-1.4 composited"); err != nil {
		return "", err
	}
	return out, nil
}

// fakeArchiver records mirrored objects.
type fakeArchiver struct {
	mu    sync.Mutex
	names []string
}

func (f *fakeArchiver) Store(ctx context.Context, name string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.names = append(f.names, name)
	return nil
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o600)
}
