// Package render turns a (document code, field mapping) pair into a PDF,
// using an integrated converter with a process-spawning fallback, and
// composites images onto the result.
package render

import "fmt"

// Placement positions one image onto a page. Coordinates are page points
// with the origin at the bottom-left, matching the template layouts.
type Placement struct {
	// Key names the image source: a static asset file in the template
	// directory, unless the caller supplies inline bytes under the same key.
	Key    string
	Page   int // zero-based
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Template is the per-document-type variant: the native template asset, the
// field keys its mapping is expected to carry, and its image placements.
// Anything beyond Fields travels in the request's extension map untouched.
type Template struct {
	Code       string
	Asset      string // DOCX template file submitted to the converter
	Fields     []string
	Placements []Placement
}

var templates = map[string]Template{
	"BRGY-CLR": {
		Code:   "BRGY-CLR",
		Asset:  "BRGY-CLR.docx",
		Fields: []string{"full_name", "citizenship", "civil_status", "age", "purpose", "date", "day", "month", "year"},
		Placements: []Placement{
			{Key: "photoId", Page: 0, X: 435, Y: 527, Width: 56, Height: 56},
		},
	},
	"BRGY-IND": {
		Code:   "BRGY-IND",
		Asset:  "BRGY-IND.docx",
		Fields: []string{"full_name", "civil_status", "purpose", "date", "day", "month", "year"},
	},
	"BRGY-RES": {
		Code:   "BRGY-RES",
		Asset:  "BRGY-RES.docx",
		Fields: []string{"full_name", "address", "years_of_residency", "purpose", "date", "day", "month", "year"},
		Placements: []Placement{
			{Key: "photoId", Page: 0, X: 435, Y: 527, Width: 56, Height: 56},
		},
	},
	"BRGY-WP": {
		Code:   "BRGY-WP",
		Asset:  "BRGY-WP.docx",
		Fields: []string{"full_name", "address", "business_name", "nature_of_work", "date", "day", "month", "year"},
	},
	"BRGY-BP": {
		Code:   "BRGY-BP",
		Asset:  "BRGY-BP.docx",
		Fields: []string{"full_name", "business_name", "business_address", "nature_of_business", "date", "day", "month", "year"},
	},
	"BRGY-BLD": {
		Code:   "BRGY-BLD",
		Asset:  "BRGY-BLD.docx",
		Fields: []string{"full_name", "address", "project_description", "location", "date", "day", "month", "year"},
	},
	"FTJSC": {
		Code:   "FTJSC",
		Asset:  "FTJSC.docx",
		Fields: []string{"full_name", "age", "address", "date", "day", "month", "year"},
	},
	"GMC": {
		Code:   "GMC",
		Asset:  "GMC.docx",
		Fields: []string{"full_name", "civil_status", "purpose", "date", "day", "month", "year"},
	},
}

// TemplateFor looks up the variant for a document code.
func TemplateFor(code string) (Template, error) {
	tmpl, ok := templates[code]
	if !ok {
		return Template{}, fmt.Errorf("invalid template: %s", code)
	}
	return tmpl, nil
}

// PlacementsFor returns the image placements for a document code, or nil for
// codes without any (including unknown codes).
func PlacementsFor(code string) []Placement {
	return templates[code].Placements
}
