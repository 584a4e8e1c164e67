// Package config loads application configuration from environment variables
// with defaults and validation. A .env file is honored in development.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration values for the service.
type Config struct {
	// Server
	Port    string
	GinMode string // debug|release|test

	// GCP
	ProjectID          string
	RequestsCollection string
	CountersCollection string

	// Drive
	DriveFolderID        string
	DriveCredentialsFile string // empty uses application default credentials

	// Rendering
	ConverterURL    string        // integrated template-to-PDF converter
	SofficeBin      string        // fallback native converter binary
	ScratchDir      string        // empty uses the OS temp dir
	TemplateDir     string        // static image assets for compositing
	PrimaryTimeout  time.Duration
	FallbackTimeout time.Duration

	// Optional GCS mirror of uploaded artifacts; empty disables it.
	ArchiveBucket string

	// Receipt printing; empty disables the print endpoint.
	PrinterName string

	// Web
	CORSOrigins []string
}

// Load reads configuration from the environment. A missing .env file is not
// an error.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Port:                 getEnv("PORT", "8080"),
		GinMode:              getEnv("GIN_MODE", "release"),
		ProjectID:            getEnv("PROJECT_ID", ""),
		RequestsCollection:   getEnv("FIRESTORE_REQUESTS_COLLECTION", "requests"),
		CountersCollection:   getEnv("FIRESTORE_COUNTERS_COLLECTION", "counters"),
		DriveFolderID:        getEnv("DRIVE_FOLDER_ID", ""),
		DriveCredentialsFile: getEnv("DRIVE_CREDENTIALS_FILE", ""),
		ConverterURL:         getEnv("CONVERTER_URL", ""),
		SofficeBin:           getEnv("SOFFICE_BIN", "soffice"),
		ScratchDir:           getEnv("SCRATCH_DIR", ""),
		TemplateDir:          getEnv("TEMPLATE_DIR", "templates"),
		PrimaryTimeout:       getDuration("RENDER_PRIMARY_TIMEOUT", 60*time.Second),
		FallbackTimeout:      getDuration("RENDER_FALLBACK_TIMEOUT", 120*time.Second),
		ArchiveBucket:        getEnv("ARCHIVE_BUCKET", ""),
		PrinterName:          getEnv("PRINTER_NAME", ""),
		CORSOrigins:          splitList(getEnv("CORS_ORIGINS", "*")),
	}

	if cfg.ProjectID == "" {
		return cfg, fmt.Errorf("PROJECT_ID environment variable must be set")
	}
	if cfg.DriveFolderID == "" {
		return cfg, fmt.Errorf("DRIVE_FOLDER_ID environment variable must be set")
	}
	if cfg.ConverterURL == "" {
		return cfg, fmt.Errorf("CONVERTER_URL environment variable must be set")
	}
	if cfg.PrimaryTimeout <= 0 || cfg.FallbackTimeout <= 0 {
		return cfg, fmt.Errorf("render timeouts must be positive")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return d
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
