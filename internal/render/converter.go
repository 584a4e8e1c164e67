package render

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Converter is the template-filling service. ConvertPDF is the primary path:
// the converter fills the template and converts it in one call. RenderNative
// produces the filled native-format document for the fallback path.
type Converter interface {
	ConvertPDF(ctx context.Context, templateAsset string, fields map[string]string) ([]byte, error)
	RenderNative(ctx context.Context, templateAsset string, fields map[string]string) ([]byte, error)
}

// HTTPConverter talks to the converter service over HTTP. The converter
// keeps a long-lived office process pool, which makes it fast but liable to
// wedge; callers fall back to a fresh local process when it fails.
type HTTPConverter struct {
	BaseURL string
	Client  *http.Client
}

type renderRequest struct {
	Template  string            `json:"template"`
	Data      map[string]string `json:"data"`
	ConvertTo string            `json:"convertTo"`
}

// ConvertPDF submits the template and field mapping and returns PDF bytes.
func (c *HTTPConverter) ConvertPDF(ctx context.Context, templateAsset string, fields map[string]string) ([]byte, error) {
	return c.render(ctx, templateAsset, fields, "pdf")
}

// RenderNative returns the filled document in its native DOCX format.
func (c *HTTPConverter) RenderNative(ctx context.Context, templateAsset string, fields map[string]string) ([]byte, error) {
	return c.render(ctx, templateAsset, fields, "docx")
}

func (c *HTTPConverter) render(ctx context.Context, templateAsset string, fields map[string]string, format string) ([]byte, error) {
	body, err := json.Marshal(renderRequest{Template: templateAsset, Data: fields, ConvertTo: format})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal render request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/render", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build render request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("converter request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("converter returned %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read converter response: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("converter returned an empty document")
	}
	return data, nil
}
