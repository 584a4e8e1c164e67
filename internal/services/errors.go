package services

import "errors"

// Sentinel errors callers branch on. Handlers map these to HTTP statuses.
var (
	// ErrRecordNotFound is returned when an identifier cannot be resolved to
	// a request record. It is a typed miss, never a guess at another record.
	ErrRecordNotFound = errors.New("record not found")

	// ErrInvalidStatus is returned for a status literal outside the
	// enumerated set.
	ErrInvalidStatus = errors.New("invalid status")

	// ErrNotTrashed is returned when permanent deletion is requested on a
	// record that has not been soft-deleted first.
	ErrNotTrashed = errors.New("record is not in trash")

	// ErrAllocation is wrapped around counter failures. A missing reference
	// number breaks downstream linkage, so allocation errors are always
	// surfaced.
	ErrAllocation = errors.New("reference allocation failed")

	// ErrUpload is wrapped around remote store rejections. The rendered
	// local file is preserved so a retry need not re-render.
	ErrUpload = errors.New("artifact upload failed")
)
