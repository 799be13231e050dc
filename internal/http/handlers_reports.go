package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"komoralink/internal/core"
	klog "komoralink/internal/log"
	"komoralink/internal/services"
	"komoralink/internal/storage"
	"komoralink/internal/wallet"
)

const maxReportBody = 4 << 10

type queuedResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type reportsResponse struct {
	Reports []services.ReportView `json:"reports"`
}

// handleCreateReport queues a report when a worker queue is configured and
// generates it inline otherwise, or when publishing fails.
func (s *Server) handleCreateReport(w http.ResponseWriter, r *http.Request) {
	if s.reports == nil {
		writeError(w, http.StatusServiceUnavailable, "reports are not configured")
		return
	}
	session, ok := sessionOrAbort(w, r)
	if !ok {
		return
	}

	var body ReportBody
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxReportBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	p, err := body.Period(s.now())
	if err != nil {
		writeParseError(w, err)
		return
	}
	req := services.ReportRequest{Unit: p.Unit, Range: p.Range}

	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()
	logger := klog.FromContext(ctx)

	if s.reports.QueueEnabled() {
		id, err := s.reports.Enqueue(ctx, session, req)
		if err == nil {
			w.Header().Set("Location", "/api/reports/"+id)
			writeJSON(w, http.StatusAccepted, queuedResponse{ID: id, Status: "queued"})
			return
		}
		logger.WarnContext(ctx, "Report queue unavailable, generating inline", "error", err)
	}

	report, err := s.reports.Generate(ctx, session, req)
	if err != nil {
		writeGenerateError(w, err)
		return
	}
	w.Header().Set("Location", "/api/reports/"+report.ID)
	writeJSON(w, http.StatusCreated, services.NewReportView(report))
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	if s.reports == nil {
		writeError(w, http.StatusServiceUnavailable, "reports are not configured")
		return
	}
	session, ok := sessionOrAbort(w, r)
	if !ok {
		return
	}
	limit := storage.DefaultListLimit
	if v := strings.TrimSpace(r.URL.Query().Get("limit")); v != "" {
		n, err := parseBoundedInt(v, "limit", 1, maxPageLimit)
		if err != nil {
			writeParseError(w, err)
			return
		}
		limit = n
	}

	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()
	if !s.authorizeArchive(ctx, w, session) {
		return
	}

	reports, err := s.reports.List(ctx, session, limit)
	if err != nil {
		klog.FromContext(ctx).ErrorContext(ctx, "Failed to list reports", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list reports")
		return
	}
	resp := reportsResponse{Reports: make([]services.ReportView, len(reports))}
	for i, rep := range reports {
		resp.Reports[i] = services.NewReportView(rep)
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleGetReport returns a report of the caller. Reports of other owners
// are reported as missing.
func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	if s.reports == nil {
		writeError(w, http.StatusServiceUnavailable, "reports are not configured")
		return
	}
	session, ok := sessionOrAbort(w, r)
	if !ok {
		return
	}
	id := sanitizeInput(r.PathValue("id"))

	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()
	if !s.authorizeArchive(ctx, w, session) {
		return
	}

	report, err := s.reports.Get(ctx, session, id)
	if errors.Is(err, storage.ErrReportNotFound) {
		writeError(w, http.StatusNotFound, "report not found")
		return
	}
	if err != nil {
		klog.FromContext(ctx).ErrorContext(ctx, "Failed to load report", "error", err, "report_id", id)
		writeError(w, http.StatusInternalServerError, "failed to load report")
		return
	}
	writeJSON(w, http.StatusOK, services.NewReportView(report))
}

// authorizeArchive confirms a business-scoped caller can read the business
// wallet before its archive is served. Personal archives are keyed by the
// token itself and need no round trip.
func (s *Server) authorizeArchive(ctx context.Context, w http.ResponseWriter, session wallet.Session) bool {
	if !session.BusinessScoped() {
		return true
	}
	_, err := s.wallet.Fetch(ctx, session, wallet.Filter{Page: 1, Limit: 1})
	if err == nil {
		return true
	}
	var apiErr *wallet.APIError
	switch {
	case errors.As(err, &apiErr) && (apiErr.StatusCode == http.StatusUnauthorized ||
		apiErr.StatusCode == http.StatusForbidden || apiErr.StatusCode == http.StatusNotFound):
		writeError(w, http.StatusForbidden, "business wallet not accessible")
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "wallet API timeout")
	default:
		klog.FromContext(ctx).WarnContext(ctx, "Business access check failed", "error", err)
		writeError(w, http.StatusBadGateway, "wallet API error")
	}
	return false
}

func writeGenerateError(w http.ResponseWriter, err error) {
	var apiErr *wallet.APIError
	switch {
	case errors.Is(err, wallet.ErrMissingToken):
		writeError(w, http.StatusUnauthorized, "missing bearer token")
	case errors.Is(err, core.ErrInvalidUnit), errors.Is(err, core.ErrInvalidRange):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &apiErr):
		writeError(w, http.StatusBadGateway, "wallet API error")
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "wallet API timeout")
	default:
		writeError(w, http.StatusInternalServerError, "failed to generate report")
	}
}
