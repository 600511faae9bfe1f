package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	domain "github.com/bryanwahyu/medscanx/internal/domain/reports"
)

type ReportRepository struct {
	db *sql.DB
}

func NewReportRepository(db *sql.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Save inserts a Report. Analysis fields are write-once; ON DUPLICATE KEY
// only the mutable scan_name is refreshed.
func (r *ReportRepository) Save(ctx context.Context, rep *domain.Report) error {
	const q = `
INSERT INTO scan_reports
(id, owner_id, scan_url, scan_name, analysis, severity,
 abnormalities, precautions, recommendations, created_at)
VALUES (?,?,?,?,?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
 scan_name=VALUES(scan_name);
`
	created := rep.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := r.db.ExecContext(ctx, q,
		rep.ID, rep.OwnerID, rep.ImageURL, rep.Name, rep.Narrative, rep.Severity,
		jsonOrEmptyList(rep.Abnormalities),
		jsonOrEmptyList(rep.Precautions),
		jsonOrEmptyList(rep.Recommendations),
		created,
	)
	return err
}

const reportColumns = `id, owner_id, scan_url, scan_name, analysis, severity,
       abnormalities, precautions, recommendations, created_at`

// Get by ID + owner. A foreign owner's report is indistinguishable from a
// missing one.
func (r *ReportRepository) Get(ctx context.Context, owner string, id domain.ReportID) (*domain.Report, error) {
	const q = `
SELECT ` + reportColumns + `
FROM scan_reports
WHERE owner_id=? AND id=? LIMIT 1;
`
	return scanReport(r.db.QueryRowContext(ctx, q, owner, id))
}

// GetAny by ID only; share-token redemption path.
func (r *ReportRepository) GetAny(ctx context.Context, id domain.ReportID) (*domain.Report, error) {
	const q = `
SELECT ` + reportColumns + `
FROM scan_reports
WHERE id=? LIMIT 1;
`
	return scanReport(r.db.QueryRowContext(ctx, q, id))
}

// Latest reports per owner, newest first
func (r *ReportRepository) Latest(ctx context.Context, owner string, limit int) ([]*domain.Report, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `
SELECT ` + reportColumns + `
FROM scan_reports
WHERE owner_id=? ORDER BY created_at DESC LIMIT ?;
`
	rows, err := r.db.QueryContext(ctx, q, owner, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectReports(rows)
}

// Paginate with offset + limit (classic pagination)
func (r *ReportRepository) Paginate(ctx context.Context, owner string, page, pageSize int) (domain.PaginatedResult, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	const q = `
SELECT ` + reportColumns + `
FROM scan_reports
WHERE owner_id=? ORDER BY created_at DESC
LIMIT ? OFFSET ?;
`
	rows, err := r.db.QueryContext(ctx, q, owner, pageSize, offset)
	if err != nil {
		return domain.PaginatedResult{}, fmt.Errorf("querying reports: %w", err)
	}
	defer rows.Close()

	reports, err := collectReports(rows)
	if err != nil {
		return domain.PaginatedResult{}, err
	}

	var total int64
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM scan_reports WHERE owner_id=?;`, owner,
	).Scan(&total); err != nil {
		return domain.PaginatedResult{}, fmt.Errorf("counting reports: %w", err)
	}

	return domain.PaginatedResult{
		Data:       reports,
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: int(math.Ceil(float64(total) / float64(pageSize))),
	}, nil
}

// Summary counts reports per severity since the cutoff
func (r *ReportRepository) Summary(ctx context.Context, owner string, since time.Time) (domain.SeveritySummary, error) {
	const q = `
SELECT COUNT(*) AS total,
       COALESCE(SUM(severity='low'),0),
       COALESCE(SUM(severity='medium'),0),
       COALESCE(SUM(severity='high'),0),
       COALESCE(SUM(severity='critical'),0)
FROM scan_reports
WHERE owner_id=? AND created_at >= ?;
`
	var s domain.SeveritySummary
	if err := r.db.QueryRowContext(ctx, q, owner, since).Scan(
		&s.Total, &s.Low, &s.Medium, &s.High, &s.Critical,
	); err != nil {
		return domain.SeveritySummary{}, err
	}
	return s, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReport(row rowScanner) (*domain.Report, error) {
	var rep domain.Report
	var abn, pre, rec string
	if err := row.Scan(
		&rep.ID, &rep.OwnerID, &rep.ImageURL, &rep.Name, &rep.Narrative, &rep.Severity,
		&abn, &pre, &rec, &rep.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if err := decodeReportLists(&rep, abn, pre, rec); err != nil {
		return nil, err
	}
	return &rep, nil
}

func collectReports(rows *sql.Rows) ([]*domain.Report, error) {
	var out []*domain.Report
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rep)
	}
	return out, rows.Err()
}

func decodeReportLists(rep *domain.Report, abn, pre, rec string) error {
	if err := json.Unmarshal([]byte(abn), &rep.Abnormalities); err != nil {
		return fmt.Errorf("decoding abnormalities: %w", err)
	}
	if err := json.Unmarshal([]byte(pre), &rep.Precautions); err != nil {
		return fmt.Errorf("decoding precautions: %w", err)
	}
	if err := json.Unmarshal([]byte(rec), &rep.Recommendations); err != nil {
		return fmt.Errorf("decoding recommendations: %w", err)
	}
	if rep.Abnormalities == nil {
		rep.Abnormalities = []domain.Abnormality{}
	}
	if rep.Precautions == nil {
		rep.Precautions = []string{}
	}
	if rep.Recommendations == nil {
		rep.Recommendations = []string{}
	}
	return nil
}
