package wallet

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"komoralink/internal/core"
)

// pageResponse is the listing payload. Pagination is either top level or
// nested under "pagination".
type pageResponse struct {
	Data       []wireTransaction `json:"data"`
	Page       int               `json:"page"`
	TotalPages int               `json:"totalPages"`
	Total      int               `json:"total"`
	Pagination *struct {
		Page       int `json:"page"`
		TotalPages int `json:"totalPages"`
		Total      int `json:"total"`
	} `json:"pagination"`
}

type wireTransaction struct {
	ID                    string         `json:"id"`
	Amount                wireAmount     `json:"amount"`
	Provider              string         `json:"provider"`
	Type                  string         `json:"type"`
	Status                string         `json:"status"`
	CreatedAt             wireTime       `json:"createdAt"`
	ProviderTransactionID string         `json:"providerTransactionId"`
	OrderID               string         `json:"orderId"`
	Metadata              map[string]any `json:"metadata"`
}

// wireAmount accepts a JSON number or a numeric string.
type wireAmount struct{ decimal.Decimal }

func (a *wireAmount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		a.Decimal = decimal.Zero
		return nil
	}
	s := string(b)
	if b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if strings.TrimSpace(s) == "" {
			a.Decimal = decimal.Zero
			return nil
		}
	}
	d, err := core.ParseAmount(s)
	if err != nil {
		return fmt.Errorf("parse amount %s: %w", b, err)
	}
	a.Decimal = d
	return nil
}

// wireTime accepts RFC 3339 timestamps (fractional seconds optional) and
// plain yyyy-MM-dd dates.
type wireTime struct{ time.Time }

var timeLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", core.DateLayout}

func (t *wireTime) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("parse createdAt %s: %w", b, err)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("parse createdAt %q: unsupported format", s)
}

func (w wireTransaction) toCore() core.Transaction {
	return core.Transaction{
		ID:                    w.ID,
		Amount:                w.Amount.Decimal,
		Provider:              w.Provider,
		Type:                  w.Type,
		Status:                core.Status(strings.ToUpper(strings.TrimSpace(w.Status))),
		CreatedAt:             w.CreatedAt.Time,
		ProviderTransactionID: w.ProviderTransactionID,
		OrderID:               w.OrderID,
		Metadata:              w.Metadata,
	}
}

// MaxTotalPages bounds the page count a listing may announce. FetchAll
// allocates and schedules one slot per page.
const MaxTotalPages = 10000

// ErrInvalidPagination is returned when a listing announces an impossible
// page count.
var ErrInvalidPagination = errors.New("wallet: invalid pagination")

func decodePage(body []byte, requested int) (Page, error) {
	var resp pageResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return Page{}, fmt.Errorf("decode transactions page: %w", err)
	}
	if resp.Pagination != nil {
		resp.Page = resp.Pagination.Page
		resp.TotalPages = resp.Pagination.TotalPages
		resp.Total = resp.Pagination.Total
	}
	if resp.TotalPages < 0 || resp.TotalPages > MaxTotalPages {
		return Page{}, fmt.Errorf("%w: totalPages %d", ErrInvalidPagination, resp.TotalPages)
	}

	p := Page{
		Data:       make([]core.Transaction, 0, len(resp.Data)),
		Page:       resp.Page,
		TotalPages: resp.TotalPages,
		Total:      resp.Total,
	}
	for _, w := range resp.Data {
		p.Data = append(p.Data, w.toCore())
	}
	if p.Page <= 0 {
		p.Page = requested
	}
	if p.TotalPages == 0 && len(p.Data) > 0 {
		p.TotalPages = p.Page
	}
	if p.Total <= 0 {
		p.Total = len(p.Data)
	}
	return p, nil
}
