package mysql

import (
	"context"
	"database/sql"
	"strings"
	"time"

	domain "github.com/bryanwahyu/medscanx/internal/domain/reporterrors"
)

type ReportErrorRepository struct {
	db *sql.DB
}

func NewReportErrorRepository(db *sql.DB) *ReportErrorRepository {
	return &ReportErrorRepository{db: db}
}

func (r *ReportErrorRepository) Save(ctx context.Context, e *domain.ReportError) error {
	const q = `
INSERT INTO scan_report_errors
  (owner_id, image_url, phase, message, created_at)
VALUES (?,?,?,?,?);
`
	msg := e.Message
	if strings.TrimSpace(msg) == "" {
		msg = "-"
	}
	created := e.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := r.db.ExecContext(ctx, q, e.OwnerID, e.ImageURL, e.Phase, msg, created)
	return err
}

func (r *ReportErrorRepository) Latest(ctx context.Context, owner string, limit int) ([]*domain.ReportError, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `
SELECT id, owner_id, image_url, phase, message, created_at
FROM scan_report_errors
WHERE owner_id = ?
ORDER BY created_at DESC, id DESC
LIMIT ?;`
	rows, err := r.db.QueryContext(ctx, q, owner, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.ReportError
	for rows.Next() {
		var e domain.ReportError
		if err := rows.Scan(&e.ID, &e.OwnerID, &e.ImageURL, &e.Phase, &e.Message, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}
