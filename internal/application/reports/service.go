package reports

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bryanwahyu/medscanx/internal/application"
	domai "github.com/bryanwahyu/medscanx/internal/domain/ai"
	"github.com/bryanwahyu/medscanx/internal/domain/reporterrors"
	domain "github.com/bryanwahyu/medscanx/internal/domain/reports"
	"github.com/bryanwahyu/medscanx/internal/infra/ai/prompt"
)

// Service implements use-cases untuk Report.
// Stateless apart from injected collaborators; safe for concurrent use.
type Service struct {
	Repo   domain.Repository
	Oracle domai.Client
	Images domain.ImageStore
	Errors reporterrors.Repository
	Clock  application.Clock
}

//
// ==== USE CASES ====
//

// AnalyzeCommand for report creation
type AnalyzeCommand struct {
	ImageURL string
	Name     string
}

// Analyze runs the oracle on an uploaded scan image, normalizes the raw
// response into a report and persists it. A transport failure from the
// oracle surfaces as an error; a malformed response body never does, it
// degrades into a readable fallback report instead.
func (s *Service) Analyze(ctx context.Context, owner string, cmd AnalyzeCommand) (*domain.Report, error) {
	if owner == "" {
		return nil, fmt.Errorf("%w: owner is required", domain.ErrValidation)
	}
	if strings.TrimSpace(cmd.ImageURL) == "" {
		return nil, fmt.Errorf("%w: scan_url is required", domain.ErrValidation)
	}
	name := cmd.Name
	if strings.TrimSpace(name) == "" {
		name = "CT Scan"
	}

	raw, err := s.Oracle.AnalyzeImage(ctx, cmd.ImageURL)
	if err != nil {
		s.logFailure(owner, cmd.ImageURL, "analyze", err)
		return nil, err
	}

	body := domain.NormalizeAnalysis(raw)

	report := &domain.Report{
		ID:              domain.ReportID(uuid.New().String()),
		OwnerID:         owner,
		ImageURL:        cmd.ImageURL,
		Name:            name,
		Narrative:       body.Narrative,
		Severity:        body.Severity,
		Abnormalities:   body.Abnormalities,
		Precautions:     body.Precautions,
		Recommendations: body.Recommendations,
		CreatedAt:       s.Clock.Now(),
	}
	if err := s.Repo.Save(ctx, report); err != nil {
		return nil, err
	}
	return report, nil
}

// Upload stores raw scan image bytes and returns the public URL.
func (s *Service) Upload(ctx context.Context, owner, filename, contentType string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty file", domain.ErrValidation)
	}
	key := fmt.Sprintf("%s/%d-%s", owner, s.Clock.Now().UnixMilli(), filename)
	return s.Images.Upload(ctx, key, data, contentType)
}

// Get ambil 1 report by id, scoped to its owner
func (s *Service) Get(ctx context.Context, owner string, id domain.ReportID) (*domain.Report, error) {
	return s.Repo.Get(ctx, owner, id)
}

// GetShared loads a report for a redeemed share token, without an ownership
// check. The verified token is the capability.
func (s *Service) GetShared(ctx context.Context, id domain.ReportID) (*domain.Report, error) {
	return s.Repo.GetAny(ctx, id)
}

// Latest ambil N report terakhir
func (s *Service) Latest(ctx context.Context, owner string, limit int) ([]*domain.Report, error) {
	return s.Repo.Latest(ctx, owner, limit)
}

// Paginate classic page/page_size listing
func (s *Service) Paginate(ctx context.Context, owner string, page, pageSize int) (domain.PaginatedResult, error) {
	return s.Repo.Paginate(ctx, owner, page, pageSize)
}

// Summary severity recap over the last N days
func (s *Service) Summary(ctx context.Context, owner string, sinceDays int) (domain.SeveritySummary, error) {
	if sinceDays <= 0 {
		sinceDays = 30
	}
	cut := s.Clock.Now().AddDate(0, 0, -sinceDays)
	return s.Repo.Summary(ctx, owner, cut)
}

// Compare produces a longitudinal comparison of two reports owned by the
// caller. The pair is ordered by CreatedAt ascending regardless of argument
// order: the earlier report is the baseline, the later the current scan.
// There is no degraded fallback here; an oracle or parse failure is an error.
func (s *Service) Compare(ctx context.Context, owner string, idA, idB domain.ReportID) (*domain.ComparisonResult, error) {
	if idA == "" || idB == "" || idA == idB {
		return nil, fmt.Errorf("%w: two distinct scan ids are required", domain.ErrValidation)
	}

	a, err := s.Repo.Get(ctx, owner, idA)
	if err != nil {
		return nil, err
	}
	b, err := s.Repo.Get(ctx, owner, idB)
	if err != nil {
		return nil, err
	}

	baseline, current := domain.Chronological(a, b)

	raw, err := s.Oracle.Generate(ctx, prompt.Compare(baseline, current))
	if err != nil {
		s.logFailure(owner, "", "compare", err)
		return nil, err
	}
	return domain.NormalizeComparison(raw)
}

// Chat answers a follow-up question about one stored report.
func (s *Service) Chat(ctx context.Context, owner string, id domain.ReportID, history []domai.Turn, message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", fmt.Errorf("%w: message is required", domain.ErrValidation)
	}
	report, err := s.Repo.Get(ctx, owner, id)
	if err != nil {
		return "", err
	}

	answer, err := s.Oracle.Chat(ctx, prompt.ChatSystem(report), history, message)
	if err != nil {
		s.logFailure(owner, report.ImageURL, "chat", err)
		return "", err
	}
	return answer, nil
}

// Translate renders a report payload into the target language via the
// oracle and returns the translated JSON structure verbatim.
func (s *Service) Translate(ctx context.Context, owner string, payload json.RawMessage, targetLanguage, reportContext string) (json.RawMessage, error) {
	if strings.TrimSpace(targetLanguage) == "" {
		return nil, fmt.Errorf("%w: target_language is required", domain.ErrValidation)
	}

	raw, err := s.Oracle.Generate(ctx, prompt.Translate(payload, targetLanguage, reportContext))
	if err != nil {
		s.logFailure(owner, "", "translate", err)
		return nil, err
	}
	cleaned := domain.StripCodeFences(raw)
	if !json.Valid([]byte(cleaned)) {
		return nil, domain.ErrUnparseable
	}
	return json.RawMessage(cleaned), nil
}

// logFailure records a lost oracle call, best effort. The write runs on a
// fresh context so a canceled request still leaves a trace.
func (s *Service) logFailure(owner, imageURL, phase string, cause error) {
	if s.Errors == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = s.Errors.Save(ctx, &reporterrors.ReportError{
		OwnerID:   owner,
		ImageURL:  imageURL,
		Phase:     phase,
		Message:   cause.Error(),
		CreatedAt: s.Clock.Now(),
	})
}
