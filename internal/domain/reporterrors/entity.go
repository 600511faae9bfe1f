package reporterrors

import "time"

// ReportError represents a persisted analysis failure entry. Reports
// themselves are never stored for transport failures, so this log is the
// only trace an operator has of a lost oracle call.
type ReportError struct {
	ID        int64     `json:"id"`
	OwnerID   string    `json:"owner_id"`
	ImageURL  string    `json:"image_url,omitempty"`
	Phase     string    `json:"phase,omitempty"` // analyze | compare | chat | translate
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
