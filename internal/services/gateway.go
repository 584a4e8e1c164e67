package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"

	"github.com/brgykiosk/fulfillment/internal/models"
)

// DriveGateway stores artifacts in a Google Drive folder. Uploads are made
// anyone-with-link readable on purpose: the generated document must be
// retrievable by its recipient without another authentication round-trip,
// and that visibility is part of the upload contract.
type DriveGateway struct {
	Service  *drive.Service
	FolderID string
	Log      *slog.Logger
}

const remoteFileFields = "id, name, webViewLink, webContentLink, createdTime, size"

// ArtifactFileName applies the gateway naming rule: a name that already
// looks like an assigned reference number (it contains the reference
// separator) is used verbatim; anything else gets a timestamp suffix to
// avoid collisions among un-referenced uploads.
func ArtifactFileName(suggested string, now time.Time) string {
	if strings.Contains(suggested, "-") {
		return suggested + ".pdf"
	}
	if suggested == "" {
		suggested = "Document"
	}
	ts := now.UTC().Format("2006-01-02T15-04-05")
	return fmt.Sprintf("%s_%s.pdf", suggested, ts)
}

// Upload stores a local PDF under the naming rule and makes it link-readable.
func (g *DriveGateway) Upload(ctx context.Context, localPath, suggestedName string) (*models.RemoteFile, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return nil, fmt.Errorf("could not open %s: %w", localPath, err)
	}
	defer f.Close()

	name := ArtifactFileName(suggestedName, time.Now())
	meta := &drive.File{Name: name, Parents: []string{g.FolderID}}
	created, err := g.Service.Files.Create(meta).
		Media(f, googleapi.ContentType("application/pdf")).
		Fields(remoteFileFields).
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("drive upload of %s failed: %w", name, err)
	}

	if err := g.shareWithLink(ctx, created.Id); err != nil {
		return nil, err
	}
	g.log().Info("Artifact uploaded.", "fileId", created.Id, "name", created.Name)
	return toRemoteFile(created), nil
}

// UploadPhoto stores a captured photo next to the document artifacts.
func (g *DriveGateway) UploadPhoto(ctx context.Context, data []byte, reference, mimeType string) (*models.RemoteFile, error) {
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	meta := &drive.File{Name: reference + "-photo.jpg", Parents: []string{g.FolderID}}
	created, err := g.Service.Files.Create(meta).
		Media(strings.NewReader(string(data)), googleapi.ContentType(mimeType)).
		Fields(remoteFileFields).
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("drive upload of photo for %s failed: %w", reference, err)
	}
	if err := g.shareWithLink(ctx, created.Id); err != nil {
		return nil, err
	}
	g.log().Info("Photo uploaded.", "fileId", created.Id, "name", created.Name)
	return toRemoteFile(created), nil
}

func (g *DriveGateway) shareWithLink(ctx context.Context, fileID string) error {
	_, err := g.Service.Permissions.Create(fileID, &drive.Permission{
		Role: "reader",
		Type: "anyone",
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to make file %s link-readable: %w", fileID, err)
	}
	return nil
}

// List returns every PDF artifact in the folder, newest first.
func (g *DriveGateway) List(ctx context.Context) ([]*models.RemoteFile, error) {
	q := fmt.Sprintf("'%s' in parents and mimeType='application/pdf' and trashed=false", g.FolderID)
	var out []*models.RemoteFile
	pageToken := ""
	for {
		call := g.Service.Files.List().
			Q(q).
			Fields("nextPageToken, files(" + remoteFileFields + ")").
			OrderBy("createdTime desc").
			PageSize(200).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		page, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("drive listing failed: %w", err)
		}
		for _, f := range page.Files {
			out = append(out, toRemoteFile(f))
		}
		if page.NextPageToken == "" {
			return out, nil
		}
		pageToken = page.NextPageToken
	}
}

// Download streams an artifact's content.
func (g *DriveGateway) Download(ctx context.Context, fileID string) (io.ReadCloser, error) {
	resp, err := g.Service.Files.Get(fileID).Context(ctx).Download()
	if err != nil {
		return nil, fmt.Errorf("drive download of %s failed: %w", fileID, err)
	}
	return resp.Body, nil
}

// FileName fetches just the display name of a remote file.
func (g *DriveGateway) FileName(ctx context.Context, fileID string) (string, error) {
	f, err := g.Service.Files.Get(fileID).Fields("name").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("drive lookup of %s failed: %w", fileID, err)
	}
	return f.Name, nil
}

// Delete removes the remote artifact permanently. Soft delete never reaches
// Drive; it only flips the local record's flag.
func (g *DriveGateway) Delete(ctx context.Context, fileID string) error {
	if err := g.Service.Files.Delete(fileID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("drive delete of %s failed: %w", fileID, err)
	}
	return nil
}

func toRemoteFile(f *drive.File) *models.RemoteFile {
	created, _ := time.Parse(time.RFC3339, f.CreatedTime)
	return &models.RemoteFile{
		ID:           f.Id,
		Name:         f.Name,
		CreatedTime:  created,
		Size:         f.Size,
		ViewLink:     f.WebViewLink,
		DownloadLink: f.WebContentLink,
	}
}

func (g *DriveGateway) log() *slog.Logger {
	if g.Log != nil {
		return g.Log
	}
	return slog.Default()
}
