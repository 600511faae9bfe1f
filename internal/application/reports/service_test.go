package reports

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	domai "github.com/bryanwahyu/medscanx/internal/domain/ai"
	domain "github.com/bryanwahyu/medscanx/internal/domain/reports"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

type memRepo struct {
	reports map[domain.ReportID]*domain.Report
	saved   []*domain.Report
}

func newMemRepo() *memRepo {
	return &memRepo{reports: make(map[domain.ReportID]*domain.Report)}
}

func (m *memRepo) Save(ctx context.Context, r *domain.Report) error {
	m.reports[r.ID] = r
	m.saved = append(m.saved, r)
	return nil
}

func (m *memRepo) Get(ctx context.Context, owner string, id domain.ReportID) (*domain.Report, error) {
	r, ok := m.reports[id]
	if !ok || r.OwnerID != owner {
		return nil, domain.ErrNotFound
	}
	return r, nil
}

func (m *memRepo) GetAny(ctx context.Context, id domain.ReportID) (*domain.Report, error) {
	r, ok := m.reports[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return r, nil
}

func (m *memRepo) Latest(ctx context.Context, owner string, limit int) ([]*domain.Report, error) {
	var out []*domain.Report
	for _, r := range m.reports {
		if r.OwnerID == owner {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memRepo) Paginate(ctx context.Context, owner string, page, pageSize int) (domain.PaginatedResult, error) {
	return domain.PaginatedResult{}, nil
}

func (m *memRepo) Summary(ctx context.Context, owner string, since time.Time) (domain.SeveritySummary, error) {
	return domain.SeveritySummary{}, nil
}

type fakeOracle struct {
	analyzeResp  string
	generateResp string
	err          error
	lastPrompt   string
}

func (f *fakeOracle) AnalyzeImage(ctx context.Context, imageURL string) (string, error) {
	return f.analyzeResp, f.err
}

func (f *fakeOracle) Generate(ctx context.Context, prompt string) (string, error) {
	f.lastPrompt = prompt
	return f.generateResp, f.err
}

func (f *fakeOracle) Chat(ctx context.Context, system string, history []domai.Turn, message string) (string, error) {
	return "chat answer", f.err
}

func newTestService(repo *memRepo, oracle *fakeOracle) *Service {
	return &Service{
		Repo:   repo,
		Oracle: oracle,
		Clock:  &fakeClock{now: time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)},
	}
}

func TestAnalyzePersistsNormalizedReport(t *testing.T) {
	repo := newMemRepo()
	oracle := &fakeOracle{analyzeResp: "```json\n{\"analysis\":\"Normal chest CT\",\"severity\":\"low\",\"abnormalities\":[],\"precautions\":[],\"recommendations\":[]}\n```"}
	svc := newTestService(repo, oracle)

	rep, err := svc.Analyze(context.Background(), "user-1", AnalyzeCommand{ImageURL: "http://store/scan.png"})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if rep.Narrative != "Normal chest CT" || rep.Severity != domain.SeverityLow {
		t.Errorf("report = %+v", rep)
	}
	if rep.OwnerID != "user-1" || rep.ID == "" {
		t.Errorf("owner/id not assigned: %+v", rep)
	}
	if rep.Name != "CT Scan" {
		t.Errorf("default name = %q, want CT Scan", rep.Name)
	}
	if len(repo.saved) != 1 {
		t.Errorf("saved %d reports, want 1", len(repo.saved))
	}
}

func TestAnalyzeDegradesOnMalformedResponse(t *testing.T) {
	repo := newMemRepo()
	oracle := &fakeOracle{analyzeResp: "I cannot analyze this image."}
	svc := newTestService(repo, oracle)

	rep, err := svc.Analyze(context.Background(), "user-1", AnalyzeCommand{ImageURL: "http://store/scan.png"})
	if err != nil {
		t.Fatalf("a malformed oracle response must not fail report creation: %v", err)
	}
	if rep.Severity != domain.SeverityMedium || rep.Narrative != "I cannot analyze this image." {
		t.Errorf("degraded report = %+v", rep)
	}
}

func TestAnalyzeSurfacesTransportFailure(t *testing.T) {
	repo := newMemRepo()
	oracle := &fakeOracle{err: domai.ErrUpstream}
	svc := newTestService(repo, oracle)

	_, err := svc.Analyze(context.Background(), "user-1", AnalyzeCommand{ImageURL: "http://store/scan.png"})
	if !errors.Is(err, domai.ErrUpstream) {
		t.Fatalf("err = %v, want ErrUpstream to surface", err)
	}
	if len(repo.saved) != 0 {
		t.Errorf("nothing must be persisted on a transport failure")
	}
}

func TestAnalyzeRejectsMissingURL(t *testing.T) {
	svc := newTestService(newMemRepo(), &fakeOracle{})
	if _, err := svc.Analyze(context.Background(), "user-1", AnalyzeCommand{}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
}

const comparisonJSON = `{"summary":"Improved.","changes":[{"type":"improvement","description":"d"}],"key_differences":[],"recommendation":"r"}`

func seedComparablePair(repo *memRepo) (older, newer *domain.Report) {
	older = &domain.Report{
		ID: "id-old", OwnerID: "user-1", Narrative: "baseline narrative",
		CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	newer = &domain.Report{
		ID: "id-new", OwnerID: "user-1", Narrative: "current narrative",
		CreatedAt: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	repo.reports[older.ID] = older
	repo.reports[newer.ID] = newer
	return older, newer
}

func TestCompareOrdersChronologicallyRegardlessOfArgumentOrder(t *testing.T) {
	repo := newMemRepo()
	older, newer := seedComparablePair(repo)
	oracle := &fakeOracle{generateResp: comparisonJSON}
	svc := newTestService(repo, oracle)

	for _, pair := range [][2]domain.ReportID{{older.ID, newer.ID}, {newer.ID, older.ID}} {
		result, err := svc.Compare(context.Background(), "user-1", pair[0], pair[1])
		if err != nil {
			t.Fatalf("compare(%v): %v", pair, err)
		}
		if result.Summary != "Improved." {
			t.Errorf("summary = %q", result.Summary)
		}
		base := strings.Index(oracle.lastPrompt, "baseline narrative")
		curr := strings.Index(oracle.lastPrompt, "current narrative")
		if base == -1 || curr == -1 || base > curr {
			t.Errorf("compare(%v): prompt must present the older scan first (baseline at %d, current at %d)", pair, base, curr)
		}
	}
}

func TestCompareForeignReportIsNotFound(t *testing.T) {
	repo := newMemRepo()
	older, newer := seedComparablePair(repo)
	newer.OwnerID = "someone-else"
	svc := newTestService(repo, &fakeOracle{generateResp: comparisonJSON})

	_, err := svc.Compare(context.Background(), "user-1", older.ID, newer.ID)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound (indistinguishable from missing)", err)
	}
}

func TestCompareSurfacesUnparseableDiff(t *testing.T) {
	repo := newMemRepo()
	older, newer := seedComparablePair(repo)
	svc := newTestService(repo, &fakeOracle{generateResp: "the scans look similar"})

	_, err := svc.Compare(context.Background(), "user-1", older.ID, newer.ID)
	if !errors.Is(err, domain.ErrUnparseable) {
		t.Errorf("err = %v, want ErrUnparseable; a broken diff must not be masked", err)
	}
}

func TestCompareRejectsSameID(t *testing.T) {
	repo := newMemRepo()
	older, _ := seedComparablePair(repo)
	svc := newTestService(repo, &fakeOracle{})

	if _, err := svc.Compare(context.Background(), "user-1", older.ID, older.ID); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
}

func TestTranslateReturnsCleanJSON(t *testing.T) {
	svc := newTestService(newMemRepo(), &fakeOracle{generateResp: "```json\n{\"analysis\":\"TAC normal\"}\n```"})

	out, err := svc.Translate(context.Background(), "user-1", []byte(`{"analysis":"Normal CT"}`), "Spanish", "")
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	if string(out) != `{"analysis":"TAC normal"}` {
		t.Errorf("out = %s", out)
	}
}

func TestChatUsesOwnReportOnly(t *testing.T) {
	repo := newMemRepo()
	older, _ := seedComparablePair(repo)
	svc := newTestService(repo, &fakeOracle{})

	answer, err := svc.Chat(context.Background(), "user-1", older.ID, nil, "What does this mean?")
	if err != nil || answer != "chat answer" {
		t.Fatalf("chat: %q, %v", answer, err)
	}
	if _, err := svc.Chat(context.Background(), "intruder", older.ID, nil, "hi"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("foreign chat err = %v, want ErrNotFound", err)
	}
}
