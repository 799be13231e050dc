package http

import (
	"context"
	"net/http"

	"komoralink/internal/core"
	"komoralink/internal/services"
	"komoralink/internal/wallet"
)

type transactionsResponse struct {
	Data       []services.TransactionView `json:"data"`
	Page       int                        `json:"page"`
	TotalPages int                        `json:"totalPages"`
	Total      int                        `json:"total"`
}

// handleTransactions serves one page of the wallet history. A wallet failure
// is logged by the client and answered with an empty page.
func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionOrAbort(w, r)
	if !ok {
		return
	}
	p, err := ParsePageParams(r.URL.Query(), s.now().Location())
	if err != nil {
		writeParseError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	page := s.wallet.FetchOrEmpty(ctx, session, wallet.Filter{
		Page:      p.Page,
		Limit:     p.Limit,
		StartDate: p.StartDate,
		EndDate:   p.EndDate,
		Type:      p.Type,
		Status:    p.Status,
		Search:    p.Search,
	})

	resp := transactionsResponse{
		Data:       make([]services.TransactionView, len(page.Data)),
		Page:       page.Page,
		TotalPages: page.TotalPages,
		Total:      page.Total,
	}
	for i, tx := range page.Data {
		resp.Data[i] = services.NewTransactionView(tx)
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleStats serves the period buckets and every chart of the stats screen.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionOrAbort(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	p, err := ParsePeriodParams(q, s.now())
	if err != nil {
		writeParseError(w, err)
		return
	}
	series, err := ParseSeries(q)
	if err != nil {
		writeParseError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	st, err := s.screenFor(ctx, session, p, q.Get("refresh") == "1")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	view := services.NewStatsView(st.Unit, st.Range, st.Buckets, st.Summary, series)
	view.Loaded = st.Loaded
	view.UpdatedAt = st.UpdatedAt
	writeJSON(w, http.StatusOK, view)
}

// handleCategories serves the category pie of one direction. It shares the
// screen cache with handleStats.
func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionOrAbort(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	p, err := ParsePeriodParams(q, s.now())
	if err != nil {
		writeParseError(w, err)
		return
	}
	dir, err := ParseDirection(q)
	if err != nil {
		writeParseError(w, err)
		return
	}
	top, err := ParseTop(q)
	if err != nil {
		writeParseError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	st, err := s.screenFor(ctx, session, p, q.Get("refresh") == "1")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	opts := core.AggregateOptions{Statuses: p.Statuses}
	writeJSON(w, http.StatusOK, services.NewCategoriesView(st.Transactions, dir, st.Range, opts, top))
}
