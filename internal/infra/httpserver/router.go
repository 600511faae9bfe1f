package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	appreports "github.com/bryanwahyu/medscanx/internal/application/reports"
	appshare "github.com/bryanwahyu/medscanx/internal/application/share"
	domai "github.com/bryanwahyu/medscanx/internal/domain/ai"
	domain "github.com/bryanwahyu/medscanx/internal/domain/reports"
	"github.com/bryanwahyu/medscanx/internal/infra/pdf"
	"github.com/bryanwahyu/medscanx/internal/middleware"
)

const maxUploadBytes = 25 << 20 // 25 MiB

type Router struct {
	reportsSvc *appreports.Service
	shareSvc   *appshare.Service
	baseURL    string
}

func NewRouter(reportsSvc *appreports.Service, shareSvc *appshare.Service, baseURL string, health http.HandlerFunc) http.Handler {
	r := &Router{reportsSvc: reportsSvc, shareSvc: shareSvc, baseURL: baseURL}
	mux := chi.NewRouter()

	if health != nil {
		mux.Get("/health", health)
	} else {
		mux.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("ok"))
		})
	}
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Route("/v1", func(rt chi.Router) {
		rt.Post("/scans/upload", r.wrap(r.handleUpload))
		rt.Post("/scans", r.wrap(r.handleAnalyze))
		rt.Get("/scans", r.wrap(r.handleList))
		rt.Get("/scans/{id}", r.wrap(r.handleGet))
		rt.Get("/scans/{id}/pdf", r.wrap(r.handleExportPDF))
		rt.Get("/summary", r.wrap(r.handleSummary))
		rt.Post("/compare", r.wrap(r.handleCompare))
		rt.Post("/chat", r.wrap(r.handleChat))
		rt.Post("/translate", r.wrap(r.handleTranslate))
		rt.Post("/share", r.wrap(r.handleIssueShare))
		rt.Get("/share/{token}", r.wrap(r.handleRedeemShare))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// apiError is the stable machine-readable error body. Raw oracle text and
// internals never become the primary message.
type apiError struct {
	Kind    string `json:"error"`
	Message string `json:"message"`
}

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}
		switch {
		case errors.Is(err, domain.ErrValidation):
			writeError(w, http.StatusBadRequest, "validation_error", err.Error())
		case errors.Is(err, appshare.ErrTokenInvalid):
			writeError(w, http.StatusUnauthorized, "token_invalid", "share link expired or invalid")
		case errors.Is(err, domain.ErrNotFound):
			writeError(w, http.StatusNotFound, "not_found", "report not found")
		case errors.Is(err, domai.ErrQuotaExceeded):
			writeError(w, http.StatusTooManyRequests, "quota_exceeded", "ai quota exceeded")
		case errors.Is(err, domain.ErrUnparseable), errors.Is(err, domai.ErrUpstream):
			writeError(w, http.StatusBadGateway, "upstream_failure", "upstream analysis service failed")
		default:
			writeError(w, http.StatusInternalServerError, "internal", "internal server error")
		}
	}
}

func writeError(w http.ResponseWriter, status int, kind, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(apiError{Kind: kind, Message: msg})
}

func writeJSON(w http.ResponseWriter, v any) error {
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(v)
}

func principal(req *http.Request) string {
	return middleware.GetPrincipalFromContext(req.Context())
}

// POST /v1/scans/upload — multipart image upload, returns the public URL
func (r *Router) handleUpload(w http.ResponseWriter, req *http.Request) error {
	owner := principal(req)
	if err := req.ParseMultipartForm(maxUploadBytes); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	file, header, err := req.FormFile("file")
	if err != nil {
		return fmt.Errorf("%w: no file provided", domain.ErrValidation)
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if err := middleware.ValidateUpload(header.Filename, contentType); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		return err
	}
	if len(data) > maxUploadBytes {
		return fmt.Errorf("%w: file too large", domain.ErrValidation)
	}

	url, err := r.reportsSvc.Upload(req.Context(), owner, header.Filename, contentType, data)
	if err != nil {
		return err
	}
	return writeJSON(w, map[string]any{
		"message":   "File uploaded successfully",
		"url":       url,
		"file_name": header.Filename,
	})
}

// POST /v1/scans
// Body: {"scan_url": "...", "scan_name": "..."}
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	owner := principal(req)
	var body struct {
		ScanURL  string `json:"scan_url"`
		ScanName string `json:"scan_name"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if err := middleware.ValidateScanName(body.ScanName); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	middleware.IncrementAnalyses()
	report, err := r.reportsSvc.Analyze(req.Context(), owner, appreports.AnalyzeCommand{
		ImageURL: body.ScanURL,
		Name:     body.ScanName,
	})
	if err != nil {
		middleware.IncrementAnalysesFailed()
		return err
	}
	return writeJSON(w, report)
}

// GET /v1/scans?limit=20 or ?page=1&page_size=20
func (r *Router) handleList(w http.ResponseWriter, req *http.Request) error {
	owner := principal(req)

	if req.URL.Query().Get("page") != "" {
		page, _ := strconv.Atoi(req.URL.Query().Get("page"))
		size, _ := strconv.Atoi(req.URL.Query().Get("page_size"))
		result, err := r.reportsSvc.Paginate(req.Context(), owner, page, size)
		if err != nil {
			return err
		}
		return writeJSON(w, result)
	}

	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
	list, err := r.reportsSvc.Latest(req.Context(), owner, limit)
	if err != nil {
		return err
	}
	return writeJSON(w, map[string]any{"scans": list})
}

// GET /v1/scans/{id}
func (r *Router) handleGet(w http.ResponseWriter, req *http.Request) error {
	owner := principal(req)
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateReportID(id); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	report, err := r.reportsSvc.Get(req.Context(), owner, domain.ReportID(id))
	if err != nil {
		return err
	}
	return writeJSON(w, map[string]any{"scan": report})
}

// GET /v1/scans/{id}/pdf
func (r *Router) handleExportPDF(w http.ResponseWriter, req *http.Request) error {
	owner := principal(req)
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateReportID(id); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	report, err := r.reportsSvc.Get(req.Context(), owner, domain.ReportID(id))
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", string(report.ID)+".pdf"))
	return pdf.Export(w, report)
}

// GET /v1/summary?days=30
func (r *Router) handleSummary(w http.ResponseWriter, req *http.Request) error {
	owner := principal(req)
	days, _ := strconv.Atoi(req.URL.Query().Get("days"))

	summary, err := r.reportsSvc.Summary(req.Context(), owner, days)
	if err != nil {
		return err
	}
	return writeJSON(w, summary)
}

// POST /v1/compare
// Body: {"scan_id_a": "...", "scan_id_b": "..."}; argument order does not
// matter, the service orders the pair chronologically.
func (r *Router) handleCompare(w http.ResponseWriter, req *http.Request) error {
	owner := principal(req)
	var body struct {
		ScanIDA string `json:"scan_id_a"`
		ScanIDB string `json:"scan_id_b"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	middleware.IncrementComparisons()
	result, err := r.reportsSvc.Compare(req.Context(), owner, domain.ReportID(body.ScanIDA), domain.ReportID(body.ScanIDB))
	if err != nil {
		return err
	}
	return writeJSON(w, result)
}

// POST /v1/chat
// Body: {"scan_id": "...", "message": "...", "history": [{"role","content"}]}
func (r *Router) handleChat(w http.ResponseWriter, req *http.Request) error {
	owner := principal(req)
	var body struct {
		ScanID  string       `json:"scan_id"`
		Message string       `json:"message"`
		History []domai.Turn `json:"history"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	answer, err := r.reportsSvc.Chat(req.Context(), owner, domain.ReportID(body.ScanID), body.History, body.Message)
	if err != nil {
		return err
	}
	return writeJSON(w, map[string]string{"response": answer})
}

// POST /v1/translate
// Body: {"text": <json>, "target_language": "...", "context": "..."}
func (r *Router) handleTranslate(w http.ResponseWriter, req *http.Request) error {
	owner := principal(req)
	var body struct {
		Text           json.RawMessage `json:"text"`
		TargetLanguage string          `json:"target_language"`
		Context        string          `json:"context"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if err := middleware.ValidateLanguage(body.TargetLanguage); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	translated, err := r.reportsSvc.Translate(req.Context(), owner, body.Text, body.TargetLanguage, body.Context)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	_, err = w.Write(translated)
	return err
}

// POST /v1/share
// Body: {"scan_id": "..."}; ownership is re-checked at issuance time.
func (r *Router) handleIssueShare(w http.ResponseWriter, req *http.Request) error {
	owner := principal(req)
	var body struct {
		ScanID string `json:"scan_id"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if err := middleware.ValidateReportID(body.ScanID); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	token, expiresAt, err := r.shareSvc.Issue(req.Context(), owner, domain.ReportID(body.ScanID))
	if err != nil {
		return err
	}
	middleware.IncrementSharesIssued()
	return writeJSON(w, map[string]any{
		"token":      token,
		"share_url":  fmt.Sprintf("%s/share/%s", r.baseURL, token),
		"expires_at": expiresAt,
	})
}

// GET /v1/share/{token} — unauthenticated; the verified token is the capability
func (r *Router) handleRedeemShare(w http.ResponseWriter, req *http.Request) error {
	token := chi.URLParam(req, "token")

	id, err := r.shareSvc.Redeem(token)
	if err != nil {
		return err
	}
	report, err := r.reportsSvc.GetShared(req.Context(), id)
	if err != nil {
		return err
	}
	middleware.IncrementSharesRedeemed()
	return writeJSON(w, map[string]any{"scan": report})
}
