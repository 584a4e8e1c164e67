package models

import "time"

// These structs define the JSON payloads exchanged with the admin dashboard
// and the payment processor's webhook relay.

// PaymentConfirmedEvent is the already-validated "payment confirmed" event
// consumed by the fulfillment orchestrator. Photo carries an optional
// captured image (base64 on the wire) to embed into the document and upload
// alongside it.
type PaymentConfirmedEvent struct {
	ReferenceNumber    string            `json:"referenceNumber"`
	DocumentTypeCode   string            `json:"documentTypeCode"`
	FieldMapping       map[string]string `json:"fieldMapping"`
	Photo              []byte            `json:"photo,omitempty"`
	PaymentMethodLabel string            `json:"paymentMethodLabel"`
	PaidAt             time.Time         `json:"paidAt"`
}

// RemoteFile is the metadata of one artifact in the remote store.
type RemoteFile struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	CreatedTime  time.Time `json:"createdTime"`
	Size         int64     `json:"size"`
	ViewLink     string    `json:"viewLink"`
	DownloadLink string    `json:"downloadLink"`
}

// LinkedProperties is the reconciled projection of the local record attached
// to each listed artifact. Status defaults to Pending and the other fields to
// empty strings when no record is linked.
type LinkedProperties struct {
	Type            string `json:"type"`
	Status          string `json:"status"`
	ReferenceNumber string `json:"referenceNumber"`
}

// ArtifactListing is one item of the reconciled listing response.
type ArtifactListing struct {
	RemoteFile
	LinkedProperties LinkedProperties `json:"linkedProperties"`
}

// CreateRequestPayload is the body of a pre-payment request submission.
type CreateRequestPayload struct {
	FullName      string            `json:"fullName"`
	Email         string            `json:"email"`
	ContactNumber string            `json:"contactNumber"`
	Address       string            `json:"address"`
	Barangay      string            `json:"barangay"`
	Document      string            `json:"document"`
	Amount        float64           `json:"amount"`
	Currency      string            `json:"currency"`
	Fields        map[string]string `json:"fields,omitempty"`
}

// BatchIdentifiers is the body of batch trash/restore calls.
type BatchIdentifiers struct {
	FileIDs []string `json:"fileIds"`
	Reason  string   `json:"reason,omitempty"`
	Actor   string   `json:"actor,omitempty"`
}

// UpdateStatusPayload is the body of a status-update call.
type UpdateStatusPayload struct {
	Status string `json:"status"`
}
