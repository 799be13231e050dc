// Package wallet is the HTTP client of the wallet transaction listing API.
package wallet

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"komoralink/internal/core"
)

const (
	defaultTimeout     = 15 * time.Second
	defaultPageLimit   = 100
	defaultConcurrency = 4
	maxErrorBody       = 4 << 10
	maxPageBody        = 16 << 20
)

type (
	// Config configures the wallet client.
	Config struct {
		BaseURL     string
		Timeout     time.Duration
		PageLimit   int // page size used by FetchAll
		Concurrency int // concurrent page requests in FetchAll

		// HTTPClient overrides the default client (tests).
		HTTPClient *http.Client
	}

	// Client fetches wallet transactions. It does not cache or retry.
	Client struct {
		http        *http.Client
		baseURL     string
		pageLimit   int
		concurrency int
	}

	// Filter narrows a listing request. Zero fields are omitted.
	Filter struct {
		Page      int
		Limit     int
		StartDate time.Time
		EndDate   time.Time
		Type      string
		Status    string
		Search    string
	}

	// Page is one page of the listing.
	Page struct {
		Data       []core.Transaction `json:"data"`
		Page       int                `json:"page"`
		TotalPages int                `json:"totalPages"`
		Total      int                `json:"total"`
	}

	// APIError is returned for non-2xx responses.
	APIError struct {
		StatusCode int
		Body       string
	}
)

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("wallet api: status %d", e.StatusCode)
	}
	return fmt.Sprintf("wallet api: status %d: %s", e.StatusCode, e.Body)
}

// NewClient creates a client for the API rooted at cfg.BaseURL.
func NewClient(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("wallet: base url is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("wallet: invalid base url: %w", err)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	limit := cfg.PageLimit
	if limit <= 0 {
		limit = defaultPageLimit
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}

	return &Client{http: httpClient, baseURL: base, pageLimit: limit, concurrency: concurrency}, nil
}

// Fetch requests one page of transactions.
func (c *Client) Fetch(ctx context.Context, s Session, f Filter) (Page, error) {
	if err := s.Validate(); err != nil {
		return Page{}, err
	}
	page := f.Page
	if page < 1 {
		page = 1
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(s)+"?"+f.query(page).Encode(), nil)
	if err != nil {
		return Page{}, fmt.Errorf("build transactions request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.Token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Page{}, fmt.Errorf("fetch transactions: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return Page{}, &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBody))
	if err != nil {
		return Page{}, fmt.Errorf("read transactions page: %w", err)
	}
	return decodePage(body, page)
}

// FetchOrEmpty is Fetch for screens: failures are logged and an empty page
// is returned instead.
func (c *Client) FetchOrEmpty(ctx context.Context, s Session, f Filter) Page {
	p, err := c.Fetch(ctx, s, f)
	if err != nil {
		slog.WarnContext(ctx, "Failed to fetch wallet transactions",
			"error", err, "business_id", s.BusinessID, "page", f.Page)
		page := f.Page
		if page < 1 {
			page = 1
		}
		return Page{Data: []core.Transaction{}, Page: page}
	}
	return p
}

// FetchAll fetches every page matching f and returns the records in page
// order. Pages after the first are fetched concurrently.
func (c *Client) FetchAll(ctx context.Context, s Session, f Filter) ([]core.Transaction, error) {
	f.Page = 1
	if f.Limit <= 0 {
		f.Limit = c.pageLimit
	}

	first, err := c.Fetch(ctx, s, f)
	if err != nil {
		return nil, err
	}
	if first.TotalPages <= 1 {
		return first.Data, nil
	}

	pages := make([][]core.Transaction, first.TotalPages)
	pages[0] = first.Data

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for n := 2; n <= first.TotalPages; n++ {
		pf := f
		pf.Page = n
		g.Go(func() error {
			p, err := c.Fetch(gctx, s, pf)
			if err != nil {
				return fmt.Errorf("page %d: %w", pf.Page, err)
			}
			pages[pf.Page-1] = p.Data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	n := 0
	for _, p := range pages {
		n += len(p)
	}
	out := make([]core.Transaction, 0, n)
	for _, p := range pages {
		out = append(out, p...)
	}
	slog.DebugContext(ctx, "Fetched all wallet transactions",
		"business_id", s.BusinessID, "pages", first.TotalPages, "count", len(out))
	return out, nil
}

func (c *Client) endpoint(s Session) string {
	if s.BusinessScoped() {
		return c.baseURL + "/businesses/" + url.PathEscape(s.BusinessID) + "/wallet/transactions"
	}
	return c.baseURL + "/wallet/transactions"
}

func (f Filter) query(page int) url.Values {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	if !f.StartDate.IsZero() {
		q.Set("startDate", f.StartDate.Format(core.DateLayout))
	}
	if !f.EndDate.IsZero() {
		q.Set("endDate", f.EndDate.Format(core.DateLayout))
	}
	for key, v := range map[string]string{"type": f.Type, "status": f.Status, "search": f.Search} {
		if v = strings.TrimSpace(v); v != "" {
			q.Set(key, v)
		}
	}
	return q
}

// FilterForRange returns a filter covering r.
func FilterForRange(r core.Range) Filter {
	return Filter{StartDate: r.Start, EndDate: r.End}
}
