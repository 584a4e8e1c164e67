package models

import "time"

// Request statuses as they appear on the wire. Values are case-sensitive.
const (
	StatusPending    = "Pending"
	StatusProcessing = "Processing"
	StatusForPickup  = "For Pick-up"
	StatusCompleted  = "Completed"
	StatusCancelled  = "Cancelled"
)

// Payment statuses.
const (
	PaymentUnpaid     = "Unpaid"
	PaymentProcessing = "Processing"
	PaymentPaid       = "Paid"
	PaymentFailed     = "Failed"
)

var statusOrder = []string{StatusPending, StatusProcessing, StatusForPickup, StatusCompleted, StatusCancelled}

// Statuses returns the full set of valid request statuses, in lifecycle order.
func Statuses() []string {
	out := make([]string, len(statusOrder))
	copy(out, statusOrder)
	return out
}

// ValidStatus reports whether s is one of the enumerated request statuses.
func ValidStatus(s string) bool {
	for _, v := range statusOrder {
		if s == v {
			return true
		}
	}
	return false
}

// Request is the durable record for one document request in Firestore.
// Artifact and photo linkage fields are written as a single update so a
// re-upload can never leave a partial mix of old and new values.
type Request struct {
	ID string `firestore:"-" json:"id"`

	ReferenceNumber string `firestore:"referenceNumber" json:"referenceNumber"`

	FullName      string `firestore:"fullName,omitempty" json:"fullName,omitempty"`
	Email         string `firestore:"email,omitempty" json:"email,omitempty"`
	ContactNumber string `firestore:"contactNumber,omitempty" json:"contactNumber,omitempty"`
	Address       string `firestore:"address,omitempty" json:"address,omitempty"`
	Barangay      string `firestore:"barangay,omitempty" json:"barangay,omitempty"`

	// DocumentType is the human-facing document name; DocCode is its short
	// code used in reference numbers. Fields carries the template-specific
	// values whose schema is declared per code in the render registry.
	DocumentType string            `firestore:"documentType,omitempty" json:"documentType,omitempty"`
	DocCode      string            `firestore:"docCode,omitempty" json:"docCode,omitempty"`
	Fields       map[string]string `firestore:"fields,omitempty" json:"fields,omitempty"`

	Amount           float64   `firestore:"amount,omitempty" json:"amount,omitempty"`
	Currency         string    `firestore:"currency,omitempty" json:"currency,omitempty"`
	PaymentSessionID string    `firestore:"paymentSessionId,omitempty" json:"paymentSessionId,omitempty"`
	PaymentMethod    string    `firestore:"paymentMethod,omitempty" json:"paymentMethod,omitempty"`
	PaidAt           time.Time `firestore:"paidAt,omitempty" json:"paidAt,omitempty"`

	Status        string `firestore:"status" json:"status"`
	PaymentStatus string `firestore:"paymentStatus" json:"paymentStatus"`

	FileID       string    `firestore:"fileId,omitempty" json:"fileId,omitempty"`
	FileName     string    `firestore:"pdfFileName,omitempty" json:"pdfFileName,omitempty"`
	UploadedAt   time.Time `firestore:"pdfUploadedAt,omitempty" json:"pdfUploadedAt,omitempty"`
	FileSize     int64     `firestore:"pdfSize,omitempty" json:"pdfSize,omitempty"`
	ViewLink     string    `firestore:"pdfUrl,omitempty" json:"pdfUrl,omitempty"`
	DownloadLink string    `firestore:"pdfDownloadUrl,omitempty" json:"pdfDownloadUrl,omitempty"`

	PhotoFileID       string `firestore:"photoFileId,omitempty" json:"photoFileId,omitempty"`
	PhotoFileName     string `firestore:"photoFileName,omitempty" json:"photoFileName,omitempty"`
	PhotoViewLink     string `firestore:"photoUrl,omitempty" json:"photoUrl,omitempty"`
	PhotoDownloadLink string `firestore:"photoDownloadUrl,omitempty" json:"photoDownloadUrl,omitempty"`

	// Soft delete is orthogonal to Status: a Completed record can sit in the
	// trash. Deleted is written explicitly on create so equality queries on
	// it match every record.
	Deleted       bool      `firestore:"deleted" json:"deleted"`
	DeletedAt     time.Time `firestore:"deletedAt,omitempty" json:"deletedAt,omitempty"`
	DeletedReason string    `firestore:"deletedReason,omitempty" json:"deletedReason,omitempty"`
	DeletedBy     string    `firestore:"deletedBy,omitempty" json:"deletedBy,omitempty"`

	CreatedAt time.Time `firestore:"createdAt,omitempty" json:"createdAt,omitempty"`
	UpdatedAt time.Time `firestore:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}

// ArtifactLink is the unit of artifact linkage written to a request after a
// successful upload.
type ArtifactLink struct {
	FileID       string
	FileName     string
	UploadedAt   time.Time
	Size         int64
	ViewLink     string
	DownloadLink string
}

// PhotoLink is the linkage for an independently uploaded photo.
type PhotoLink struct {
	FileID       string
	FileName     string
	ViewLink     string
	DownloadLink string
}

// DeletionMark carries the soft-delete bookkeeping fields.
type DeletionMark struct {
	At     time.Time
	Reason string
	By     string
}

// Counter is one sequence counter per (document code, year).
type Counter struct {
	Code string `firestore:"code"`
	Year int    `firestore:"year"`
	Seq  int64  `firestore:"seq"`
}
