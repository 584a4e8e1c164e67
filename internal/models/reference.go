package models

import (
	"fmt"
	"regexp"
	"strings"
)

// GenericDocCode is assigned when a document name has no known short code.
const GenericDocCode = "DOC"

var docCodes = map[string]string{
	"barangay clearance":                "BRGY-CLR",
	"barangay indigency certificate":    "BRGY-IND",
	"first time job seeker certificate": "FTJSC",
	"barangay work permit":              "BRGY-WP",
	"barangay residency certificate":    "BRGY-RES",
	"certificate of good moral character": "GMC",
	"barangay business permit":            "BRGY-BP",
	"barangay building clearance":         "BRGY-BLD",
}

var knownCodes = func() map[string]bool {
	m := make(map[string]bool, len(docCodes))
	for _, c := range docCodes {
		m[c] = true
	}
	return m
}()

// DocCode maps a document display name to its short code. Inputs that already
// are a known code pass through unchanged; anything unrecognized maps to the
// generic code rather than failing.
func DocCode(documentName string) string {
	if documentName == "" {
		return GenericDocCode
	}
	if code, ok := docCodes[strings.ToLower(documentName)]; ok {
		return code
	}
	if knownCodes[documentName] {
		return documentName
	}
	return GenericDocCode
}

// FormatReference renders a reference number as CODE-YEAR-SEQ with the
// sequence zero-padded to 4 digits. Sequences beyond 9999 widen the string.
func FormatReference(code string, year int, seq int64) string {
	return fmt.Sprintf("%s-%d-%04d", code, year, seq)
}

var artifactNameRe = regexp.MustCompile(`(?i)^([\w-]+)\.pdf$`)

// ParseArtifactName extracts a reference number from an artifact display name
// of the form "<referenceNumber>.pdf". The whole stem is matched against
// stored references as an exact string, so document codes containing the
// reference separator cannot produce an ambiguous parse.
func ParseArtifactName(name string) (string, bool) {
	m := artifactNameRe.FindStringSubmatch(name)
	if m == nil {
		return "", false
	}
	return m[1], true
}
