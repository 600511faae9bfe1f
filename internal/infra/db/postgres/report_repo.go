package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	_ "github.com/lib/pq"

	domain "github.com/bryanwahyu/medscanx/internal/domain/reports"
)

// Connect opens a postgres pool and verifies it with a ping.
func Connect(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

type ReportRepository struct{ db *sql.DB }

func NewReportRepository(db *sql.DB) *ReportRepository { return &ReportRepository{db: db} }

// Save inserts a Report; only the mutable scan_name is updated on conflict.
func (r *ReportRepository) Save(ctx context.Context, rep *domain.Report) error {
	const q = `
INSERT INTO scan_reports
(id, owner_id, scan_url, scan_name, analysis, severity,
 abnormalities, precautions, recommendations, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
ON CONFLICT (id) DO UPDATE SET
 scan_name = EXCLUDED.scan_name;`

	created := rep.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	abn, _ := json.Marshal(rep.Abnormalities)
	pre, _ := json.Marshal(rep.Precautions)
	rec, _ := json.Marshal(rep.Recommendations)

	_, err := r.db.ExecContext(ctx, q,
		rep.ID, rep.OwnerID, rep.ImageURL, rep.Name, rep.Narrative, rep.Severity,
		nullableJSON(abn), nullableJSON(pre), nullableJSON(rec), created,
	)
	return err
}

const reportColumns = `id, owner_id, scan_url, scan_name, analysis, severity,
       abnormalities, precautions, recommendations, created_at`

// Get by ID + owner
func (r *ReportRepository) Get(ctx context.Context, owner string, id domain.ReportID) (*domain.Report, error) {
	const q = `
SELECT ` + reportColumns + `
FROM scan_reports
WHERE owner_id=$1 AND id=$2
LIMIT 1;`
	return scanReport(r.db.QueryRowContext(ctx, q, owner, id))
}

// GetAny by ID only; share-token redemption path
func (r *ReportRepository) GetAny(ctx context.Context, id domain.ReportID) (*domain.Report, error) {
	const q = `
SELECT ` + reportColumns + `
FROM scan_reports
WHERE id=$1
LIMIT 1;`
	return scanReport(r.db.QueryRowContext(ctx, q, id))
}

// Latest reports per owner
func (r *ReportRepository) Latest(ctx context.Context, owner string, limit int) ([]*domain.Report, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `
SELECT ` + reportColumns + `
FROM scan_reports
WHERE owner_id=$1 ORDER BY created_at DESC LIMIT $2;`
	rows, err := r.db.QueryContext(ctx, q, owner, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectReports(rows)
}

// Paginate with offset + limit
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
WHERE owner_id=$1 ORDER BY created_at DESC
LIMIT $2 OFFSET $3;`
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
		`SELECT COUNT(*) FROM scan_reports WHERE owner_id=$1;`, owner,
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
SELECT COUNT(*),
       COUNT(*) FILTER (WHERE severity='low'),
       COUNT(*) FILTER (WHERE severity='medium'),
       COUNT(*) FILTER (WHERE severity='high'),
       COUNT(*) FILTER (WHERE severity='critical')
FROM scan_reports
WHERE owner_id=$1 AND created_at >= $2;`
	var s domain.SeveritySummary
	if err := r.db.QueryRowContext(ctx, q, owner, since).Scan(
		&s.Total, &s.Low, &s.Medium, &s.High, &s.Critical,
	); err != nil {
		return domain.SeveritySummary{}, err
	}
	return s, nil
}

func nullableJSON(b []byte) string {
	if len(b) == 0 || string(b) == "null" {
		return "[]"
	}
	return string(b)
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
	if err := json.Unmarshal([]byte(abn), &rep.Abnormalities); err != nil {
		return nil, fmt.Errorf("decoding abnormalities: %w", err)
	}
	if err := json.Unmarshal([]byte(pre), &rep.Precautions); err != nil {
		return nil, fmt.Errorf("decoding precautions: %w", err)
	}
	if err := json.Unmarshal([]byte(rec), &rep.Recommendations); err != nil {
		return nil, fmt.Errorf("decoding recommendations: %w", err)
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
