package render

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// RenderError reports that both conversion paths failed. Both causes are
// surfaced so operators can tell a wedged converter pool from a broken
// fallback binary.
type RenderError struct {
	Primary  error
	Fallback error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("conversion failed: %v. Fallback failed: %v", e.Primary, e.Fallback)
}

// Engine renders documents via the integrated converter, falling back to a
// locally spawned office process when the converter fails.
type Engine struct {
	Converter       Converter
	SofficeBin      string
	ScratchRoot     string // empty uses the OS temp dir
	PrimaryTimeout  time.Duration
	FallbackTimeout time.Duration
	Log             *slog.Logger
}

// Render produces a PDF for the document code inside a private scratch
// directory. The returned cleanup removes the directory; callers skip it
// only to preserve the file for an upload retry.
func (e *Engine) Render(ctx context.Context, docCode string, fields map[string]string) (string, func(), error) {
	tmpl, err := TemplateFor(docCode)
	if err != nil {
		return "", nil, err
	}

	dir, err := os.MkdirTemp(e.ScratchRoot, "render-*")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create scratch dir: %w", err)
	}
	cleanup := func() { os.RemoveAll(dir) }

	logCtx := e.log().With("docCode", docCode, "template", tmpl.Asset)

	pdfPath, primaryErr := e.primary(ctx, tmpl, fields, dir)
	if primaryErr == nil {
		return pdfPath, cleanup, nil
	}
	logCtx.Warn("Primary conversion failed, attempting fallback.", "error", primaryErr)

	pdfPath, fallbackErr := e.fallback(ctx, tmpl, fields, dir)
	if fallbackErr != nil {
		logCtx.Error("Fallback conversion failed.", "error", fallbackErr)
		cleanup()
		return "", nil, &RenderError{Primary: primaryErr, Fallback: fallbackErr}
	}
	logCtx.Info("Rendered via fallback path.")
	return pdfPath, cleanup, nil
}

func (e *Engine) primary(ctx context.Context, tmpl Template, fields map[string]string, dir string) (string, error) {
	pctx, cancel := context.WithTimeout(ctx, e.PrimaryTimeout)
	defer cancel()

	data, err := e.Converter.ConvertPDF(pctx, tmpl.Asset, fields)
	if err != nil {
		return "", err
	}
	out := filepath.Join(dir, "base.pdf")
	if err := os.WriteFile(out, data, 0o600); err != nil {
		return "", fmt.Errorf("failed to write rendered PDF: %w", err)
	}
	return out, nil
}

// fallback renders the native DOCX, then converts it with a fresh soffice
// process under a hard wall-clock timeout. The intermediate DOCX is removed
// on every exit path.
func (e *Engine) fallback(ctx context.Context, tmpl Template, fields map[string]string, dir string) (string, error) {
	fctx, cancel := context.WithTimeout(ctx, e.FallbackTimeout)
	defer cancel()

	docx, err := e.Converter.RenderNative(fctx, tmpl.Asset, fields)
	if err != nil {
		return "", fmt.Errorf("native render failed: %w", err)
	}
	docxPath := filepath.Join(dir, "fallback.docx")
	if err := os.WriteFile(docxPath, docx, 0o600); err != nil {
		return "", fmt.Errorf("failed to write intermediate docx: %w", err)
	}
	defer os.Remove(docxPath)

	bin := e.SofficeBin
	if bin == "" {
		bin = "soffice"
	}
	cmd := exec.CommandContext(fctx, bin,
		"--headless",
		"--invisible",
		"--nologo",
		"--norestore",
		"--convert-to", "pdf",
		"--outdir", dir,
		docxPath,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		if fctx.Err() == context.DeadlineExceeded {
			return "", fmt.Errorf("soffice timed out after %s", e.FallbackTimeout)
		}
		return "", fmt.Errorf("soffice failed: %w: %s", err, strings.TrimSpace(string(out)))
	}

	pdfPath := filepath.Join(dir, strings.TrimSuffix(filepath.Base(docxPath), filepath.Ext(docxPath))+".pdf")
	if _, err := os.Stat(pdfPath); err != nil {
		return "", fmt.Errorf("soffice did not produce a PDF at %s", pdfPath)
	}
	return pdfPath, nil
}

func (e *Engine) log() *slog.Logger {
	if e.Log != nil {
		return e.Log
	}
	return slog.Default()
}
