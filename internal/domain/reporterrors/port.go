package reporterrors

import "context"

// Repository defines persistence for analysis failures
type Repository interface {
	Save(ctx context.Context, e *ReportError) error
	Latest(ctx context.Context, owner string, limit int) ([]*ReportError, error)
}
