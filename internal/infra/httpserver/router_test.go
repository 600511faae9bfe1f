package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bryanwahyu/medscanx/internal/application"
	appreports "github.com/bryanwahyu/medscanx/internal/application/reports"
	appshare "github.com/bryanwahyu/medscanx/internal/application/share"
	domai "github.com/bryanwahyu/medscanx/internal/domain/ai"
	domain "github.com/bryanwahyu/medscanx/internal/domain/reports"
	"github.com/bryanwahyu/medscanx/internal/middleware"
)

type stubRepo struct {
	reports map[domain.ReportID]*domain.Report
}

func (s *stubRepo) Save(ctx context.Context, r *domain.Report) error {
	s.reports[r.ID] = r
	return nil
}

func (s *stubRepo) Get(ctx context.Context, owner string, id domain.ReportID) (*domain.Report, error) {
	r, ok := s.reports[id]
	if !ok || r.OwnerID != owner {
		return nil, domain.ErrNotFound
	}
	return r, nil
}

func (s *stubRepo) GetAny(ctx context.Context, id domain.ReportID) (*domain.Report, error) {
	r, ok := s.reports[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return r, nil
}

func (s *stubRepo) Latest(ctx context.Context, owner string, limit int) ([]*domain.Report, error) {
	return []*domain.Report{}, nil
}

func (s *stubRepo) Paginate(ctx context.Context, owner string, page, pageSize int) (domain.PaginatedResult, error) {
	return domain.PaginatedResult{}, nil
}

func (s *stubRepo) Summary(ctx context.Context, owner string, since time.Time) (domain.SeveritySummary, error) {
	return domain.SeveritySummary{}, nil
}

type stubOracle struct {
	resp string
	err  error
}

func (s *stubOracle) AnalyzeImage(ctx context.Context, imageURL string) (string, error) {
	return s.resp, s.err
}

func (s *stubOracle) Generate(ctx context.Context, prompt string) (string, error) {
	return s.resp, s.err
}

func (s *stubOracle) Chat(ctx context.Context, system string, history []domai.Turn, message string) (string, error) {
	return s.resp, s.err
}

// asPrincipal stands in for the session middleware in tests.
func asPrincipal(user string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), middleware.PrincipalKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

const knownID = "0d1f9a3c-1111-4222-8333-abcdefabcdef"

func newTestRouter(t *testing.T, oracle *stubOracle) (http.Handler, *stubRepo) {
	t.Helper()
	repo := &stubRepo{reports: map[domain.ReportID]*domain.Report{
		knownID: {
			ID: knownID, OwnerID: "user-1", Name: "CT Scan",
			Narrative: "Normal chest CT", Severity: domain.SeverityLow,
			CreatedAt: time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
		},
	}}
	clock := application.SystemClock{}
	reportsSvc := &appreports.Service{Repo: repo, Oracle: oracle, Clock: clock}
	shareSvc := appshare.NewService(repo, []byte("test-secret"), 0, clock)
	return asPrincipal("user-1", NewRouter(reportsSvc, shareSvc, "http://localhost:8080", nil)), repo
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func errorKind(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Kind string `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("error body is not JSON: %s", rec.Body.String())
	}
	return body.Kind
}

func TestGetScan(t *testing.T) {
	h, _ := newTestRouter(t, &stubOracle{})

	rec := do(t, h, http.MethodGet, "/v1/scans/"+knownID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = do(t, h, http.MethodGet, "/v1/scans/ffffffff-0000-4000-8000-000000000000", "")
	if rec.Code != http.StatusNotFound || errorKind(t, rec) != "not_found" {
		t.Errorf("unknown id: status %d kind %q", rec.Code, errorKind(t, rec))
	}

	rec = do(t, h, http.MethodGet, "/v1/scans/not-a-uuid", "")
	if rec.Code != http.StatusBadRequest || errorKind(t, rec) != "validation_error" {
		t.Errorf("malformed id: status %d kind %q", rec.Code, errorKind(t, rec))
	}
}

func TestErrorKindMapping(t *testing.T) {
	quota := &stubOracle{err: domai.ErrQuotaExceeded}
	h, _ := newTestRouter(t, quota)
	rec := do(t, h, http.MethodPost, "/v1/scans", `{"scan_url":"http://store/s.png"}`)
	if rec.Code != http.StatusTooManyRequests || errorKind(t, rec) != "quota_exceeded" {
		t.Errorf("quota: status %d kind %q", rec.Code, errorKind(t, rec))
	}

	upstream := &stubOracle{err: domai.ErrUpstream}
	h, _ = newTestRouter(t, upstream)
	rec = do(t, h, http.MethodPost, "/v1/scans", `{"scan_url":"http://store/s.png"}`)
	if rec.Code != http.StatusBadGateway || errorKind(t, rec) != "upstream_failure" {
		t.Errorf("upstream: status %d kind %q", rec.Code, errorKind(t, rec))
	}
}

func TestShareIssueAndRedeem(t *testing.T) {
	h, _ := newTestRouter(t, &stubOracle{})

	rec := do(t, h, http.MethodPost, "/v1/share", `{"scan_id":"`+knownID+`"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("issue: status %d, body %s", rec.Code, rec.Body.String())
	}
	var issued struct {
		Token    string `json:"token"`
		ShareURL string `json:"share_url"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &issued); err != nil || issued.Token == "" {
		t.Fatalf("issue body: %s (%v)", rec.Body.String(), err)
	}
	if !strings.Contains(issued.ShareURL, issued.Token) {
		t.Errorf("share_url %q does not embed the token", issued.ShareURL)
	}

	rec = do(t, h, http.MethodGet, "/v1/share/"+issued.Token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("redeem: status %d, body %s", rec.Code, rec.Body.String())
	}
	var redeemed struct {
		Scan *domain.Report `json:"scan"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &redeemed); err != nil || redeemed.Scan == nil {
		t.Fatalf("redeem body: %s (%v)", rec.Body.String(), err)
	}
	if redeemed.Scan.ID != knownID {
		t.Errorf("redeemed scan id = %s", redeemed.Scan.ID)
	}

	rec = do(t, h, http.MethodGet, "/v1/share/garbage-token", "")
	if rec.Code != http.StatusUnauthorized || errorKind(t, rec) != "token_invalid" {
		t.Errorf("garbage token: status %d kind %q", rec.Code, errorKind(t, rec))
	}
}

func TestAnalyzeReturnsReportJSON(t *testing.T) {
	oracle := &stubOracle{resp: `{"analysis":"Mild findings","severity":"medium","abnormalities":[{"text":"nodule","coordinates":{"x":40,"y":60}}],"precautions":["p"],"recommendations":["r"]}`}
	h, repo := newTestRouter(t, oracle)

	rec := do(t, h, http.MethodPost, "/v1/scans", `{"scan_url":"http://store/s.png","scan_name":"Follow-up"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var rep domain.Report
	if err := json.Unmarshal(rec.Body.Bytes(), &rep); err != nil {
		t.Fatalf("response not a report: %v", err)
	}
	if rep.Severity != domain.SeverityMedium || rep.Name != "Follow-up" {
		t.Errorf("report = %+v", rep)
	}
	if len(rep.Abnormalities) != 1 || rep.Abnormalities[0].Description != "nodule" {
		t.Errorf("abnormalities = %+v", rep.Abnormalities)
	}
	if _, ok := repo.reports[rep.ID]; !ok {
		t.Error("report was not persisted")
	}
}
