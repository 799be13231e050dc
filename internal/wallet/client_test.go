package wallet

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"komoralink/internal/core"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewClient(Config{BaseURL: srv.URL + "/", PageLimit: 2, Concurrency: 2})
	require.NoError(t, err)
	return c
}

func TestFetchBuildsRequest(t *testing.T) {
	var got *http.Request
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r
		fmt.Fprint(w, `{"data":[{"id":"t1","amount":"50000","provider":"DEPOSIT","status":"completed","createdAt":"2024-03-05T10:00:00.000Z"},
			{"id":"t2","amount":-20000,"provider":"WITHDRAWAL","status":"COMPLETED","createdAt":"2024-03-10"}],
			"page":1,"totalPages":1,"total":2}`)
	})

	start := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	page, err := c.Fetch(context.Background(), Session{Token: "tok", BusinessID: "biz-1"}, Filter{
		Page: 1, Limit: 20, StartDate: start, EndDate: start.AddDate(0, 0, 30), Status: "COMPLETED", Search: " ",
	})
	require.NoError(t, err)

	assert.Equal(t, "/businesses/biz-1/wallet/transactions", got.URL.Path)
	assert.Equal(t, "Bearer tok", got.Header.Get("Authorization"))
	q := got.URL.Query()
	assert.Equal(t, "1", q.Get("page"))
	assert.Equal(t, "20", q.Get("limit"))
	assert.Equal(t, "2024-03-01", q.Get("startDate"))
	assert.Equal(t, "2024-03-31", q.Get("endDate"))
	assert.Equal(t, "COMPLETED", q.Get("status"))
	assert.False(t, q.Has("search"))
	assert.False(t, q.Has("type"))

	require.Len(t, page.Data, 2)
	assert.Equal(t, core.StatusCompleted, page.Data[0].Status)
	assert.Equal(t, "50000", page.Data[0].Amount.String())
	assert.Equal(t, "-20000", page.Data[1].Amount.String())
	assert.Equal(t, 10, page.Data[1].CreatedAt.Day())
	assert.Equal(t, 2, page.Total)
}

func TestFetchPersonalWallet(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/wallet/transactions", r.URL.Path)
		fmt.Fprint(w, `{"page":3}`)
	})

	page, err := c.Fetch(context.Background(), Session{Token: "tok"}, Filter{Page: 3})
	require.NoError(t, err)
	assert.NotNil(t, page.Data)
	assert.Empty(t, page.Data)
	assert.Equal(t, 3, page.Page)
}

func TestFetchErrors(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid token", http.StatusUnauthorized)
	})

	_, err := c.Fetch(context.Background(), Session{}, Filter{})
	assert.ErrorIs(t, err, ErrMissingToken)

	_, err = c.Fetch(context.Background(), Session{Token: "bad"}, Filter{})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "invalid token", apiErr.Body)
}

func TestFetchRejectsMalformedPayload(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[{"id":"x","amount":"abc"}]}`)
	})
	_, err := c.Fetch(context.Background(), Session{Token: "tok"}, Filter{})
	assert.Error(t, err)
}

func TestFetchSanitizesPagination(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantErr   bool
		wantPage  int
		wantTotal int
	}{
		{
			name:      "negative total falls back to the page size",
			body:      `{"data":[{"id":"t1","amount":1,"createdAt":"2024-03-01"}],"page":1,"totalPages":1,"total":-5}`,
			wantPage:  1,
			wantTotal: 1,
		},
		{
			name:      "negative page falls back to the requested page",
			body:      `{"data":[],"pagination":{"page":-3,"totalPages":0,"total":0}}`,
			wantPage:  2,
			wantTotal: 0,
		},
		{name: "negative totalPages", body: `{"data":[],"page":1,"totalPages":-1}`, wantErr: true},
		{name: "oversized totalPages", body: `{"data":[],"page":1,"totalPages":2000000000,"total":3}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, tt.body)
			})
			page, err := c.Fetch(context.Background(), Session{Token: "tok"}, Filter{Page: 2})
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPagination)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantPage, page.Page)
			assert.Equal(t, tt.wantTotal, page.Total)
		})
	}
}

func TestFetchAllRejectsHostilePagination(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "huge page count", body: `{"data":[{"id":"t1","amount":1,"createdAt":"2024-03-01"}],"page":1,"totalPages":1000000000,"total":1}`},
		{name: "negative page count", body: `{"data":[],"page":1,"totalPages":-7,"total":-1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				fmt.Fprint(w, tt.body)
			})
			var (
				txs []core.Transaction
				err error
			)
			require.NotPanics(t, func() {
				txs, err = c.FetchAll(context.Background(), Session{Token: "tok"}, Filter{})
			})
			assert.ErrorIs(t, err, ErrInvalidPagination)
			assert.Nil(t, txs)
			assert.Equal(t, int32(1), calls.Load())
		})
	}
}

func TestFetchAllNegativeTotalDoesNotPanic(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")
		fmt.Fprintf(w, `{"data":[{"id":"t%s","amount":1,"createdAt":"2024-03-01"}],"page":%s,"totalPages":2,"total":-100}`, page, page)
	})

	var (
		txs []core.Transaction
		err error
	)
	require.NotPanics(t, func() {
		txs, err = c.FetchAll(context.Background(), Session{Token: "tok"}, Filter{})
	})
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, "t1", txs[0].ID)
	assert.Equal(t, "t2", txs[1].ID)
}

func TestFetchOrEmpty(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	page := c.FetchOrEmpty(context.Background(), Session{Token: "tok"}, Filter{Page: 2})
	assert.NotNil(t, page.Data)
	assert.Empty(t, page.Data)
	assert.Equal(t, 2, page.Page)
}

func TestFetchAllKeepsPageOrder(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		n, _ := strconv.Atoi(r.URL.Query().Get("page"))
		assert.Equal(t, "2", r.URL.Query().Get("limit"))
		if n == 2 {
			time.Sleep(20 * time.Millisecond)
		}
		fmt.Fprintf(w, `{"data":[{"id":"p%d-a","amount":1},{"id":"p%d-b","amount":2}],
			"pagination":{"page":%d,"totalPages":3,"total":6}}`, n, n, n)
	})

	txs, err := c.FetchAll(context.Background(), Session{Token: "tok"}, Filter{})
	require.NoError(t, err)
	require.Len(t, txs, 6)
	ids := make([]string, 0, len(txs))
	for _, tx := range txs {
		ids = append(ids, tx.ID)
	}
	assert.Equal(t, []string{"p1-a", "p1-b", "p2-a", "p2-b", "p3-a", "p3-b"}, ids)
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetchAllFailsOnAnyPage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "3" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, `{"data":[{"id":"a","amount":1}],"page":1,"totalPages":3,"total":3}`)
	})

	_, err := c.FetchAll(context.Background(), Session{Token: "tok"}, Filter{})
	var apiErr *APIError
	assert.True(t, errors.As(err, &apiErr))
}

func TestSessionFromRequest(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer abc.def")
	r.Header.Set("X-Business-ID", " biz-9 ")
	s := SessionFromRequest(r)
	assert.Equal(t, "abc.def", s.Token)
	assert.Equal(t, "biz-9", s.BusinessID)
	assert.True(t, s.BusinessScoped())
	assert.NoError(t, s.Validate())

	r.Header.Set("Authorization", "Basic xyz")
	assert.ErrorIs(t, SessionFromRequest(r).Validate(), ErrMissingToken)

	assert.NotEqual(t, Session{Token: "a"}.Key(), Session{Token: "b"}.Key())
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	_, err := NewClient(Config{})
	assert.Error(t, err)
}
