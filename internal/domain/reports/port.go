package reports

import (
	"context"
	"time"
)

// Repository port (interface untuk persistence)
type Repository interface {
	Save(ctx context.Context, r *Report) error
	Get(ctx context.Context, owner string, id ReportID) (*Report, error)
	// GetAny loads a report without an ownership check. Only the share-token
	// redemption path may use it: the verified token is the capability.
	GetAny(ctx context.Context, id ReportID) (*Report, error)
	Latest(ctx context.Context, owner string, limit int) ([]*Report, error)
	Paginate(ctx context.Context, owner string, page, pageSize int) (PaginatedResult, error)
	Summary(ctx context.Context, owner string, since time.Time) (SeveritySummary, error)
}

// ImageStore port (interface untuk penyimpanan gambar scan)
type ImageStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
}
