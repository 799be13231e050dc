package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"komoralink/internal/amqp"
	"komoralink/internal/core"
	"komoralink/internal/services"
	"komoralink/internal/wallet"
)

type call struct {
	session wallet.Session
	req     services.ReportRequest
}

type fakeGenerator struct {
	mu    sync.Mutex
	calls []call
	errs  map[string]error // by business id
}

func (f *fakeGenerator) Generate(_ context.Context, s wallet.Session, req services.ReportRequest) (core.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{s, req})
	if err := f.errs[s.BusinessID]; err != nil {
		return core.Report{}, err
	}
	if s.Token == "" {
		return core.Report{}, wallet.ErrMissingToken
	}
	id := req.ID
	if id == "" {
		id = "generated"
	}
	return core.Report{ID: id, BusinessID: s.BusinessID}, nil
}

func (f *fakeGenerator) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func TestHandleReportRequest(t *testing.T) {
	msg := func(token string) *amqp.ReportRequestMessage {
		return &amqp.ReportRequestMessage{
			ReportID: "r-1", BusinessID: "biz-1", Token: token,
			Unit: core.UnitMonth, StartDate: "2024-01-01", EndDate: "2024-03-31",
		}
	}

	t.Run("message token wins", func(t *testing.T) {
		gen := &fakeGenerator{}
		w := NewReportWorker(gen, Config{ServiceToken: "service"})
		require.NoError(t, w.HandleReportRequest(context.Background(), msg("caller")))

		require.Len(t, gen.calls, 1)
		c := gen.calls[0]
		assert.Equal(t, "caller", c.session.Token)
		assert.Equal(t, "biz-1", c.session.BusinessID)
		assert.Equal(t, "r-1", c.req.ID)
		assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), c.req.Range.Start)
	})

	t.Run("falls back to service token", func(t *testing.T) {
		gen := &fakeGenerator{}
		w := NewReportWorker(gen, Config{ServiceToken: "service"})
		require.NoError(t, w.HandleReportRequest(context.Background(), msg("")))
		assert.Equal(t, "service", gen.calls[0].session.Token)
	})

	t.Run("missing token is acknowledged", func(t *testing.T) {
		w := NewReportWorker(&fakeGenerator{}, Config{})
		assert.NoError(t, w.HandleReportRequest(context.Background(), msg("")))
	})

	t.Run("unauthorized is acknowledged", func(t *testing.T) {
		gen := &fakeGenerator{errs: map[string]error{"biz-1": &wallet.APIError{StatusCode: 401}}}
		w := NewReportWorker(gen, Config{ServiceToken: "service"})
		assert.NoError(t, w.HandleReportRequest(context.Background(), msg("")))
	})

	t.Run("transient failure is returned for requeue", func(t *testing.T) {
		gen := &fakeGenerator{errs: map[string]error{"biz-1": &wallet.APIError{StatusCode: 503}}}
		w := NewReportWorker(gen, Config{ServiceToken: "service"})
		err := w.HandleReportRequest(context.Background(), msg(""))
		assert.ErrorContains(t, err, "generate report r-1")
	})

	t.Run("invalid range is acknowledged", func(t *testing.T) {
		gen := &fakeGenerator{}
		w := NewReportWorker(gen, Config{ServiceToken: "service"})
		bad := msg("")
		bad.EndDate = "2023-01-01"
		assert.NoError(t, w.HandleReportRequest(context.Background(), bad))
		assert.Empty(t, gen.calls)
	})
}

func TestRunScheduled(t *testing.T) {
	gen := &fakeGenerator{errs: map[string]error{"biz-2": errors.New("wallet down")}}
	w := NewReportWorker(gen, Config{ServiceToken: "service", BusinessIDs: []string{"biz-1", "biz-2", "biz-3"}, TrailingMonths: 3})
	w.now = func() time.Time { return time.Date(2024, 3, 15, 14, 0, 0, 0, time.UTC) }

	err := w.RunScheduled(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "business biz-2")

	require.Len(t, gen.calls, 3, "a failing business does not stop the run")
	for _, c := range gen.calls {
		assert.Equal(t, "service", c.session.Token)
		assert.Equal(t, core.UnitMonth, c.req.Unit)
		assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), c.req.Range.Start)
		assert.Equal(t, "2024-03-15", c.req.Range.End.Format(core.DateLayout))
	}
}

func TestNewReportWorkerDefaults(t *testing.T) {
	w := NewReportWorker(&fakeGenerator{}, Config{})
	assert.Equal(t, 12, w.cfg.TrailingMonths)
}

func TestStart(t *testing.T) {
	t.Run("empty schedule is a no-op", func(t *testing.T) {
		w := NewReportWorker(&fakeGenerator{}, Config{})
		assert.NoError(t, w.Start(context.Background()))
		assert.Nil(t, w.cron)
	})

	t.Run("invalid schedule", func(t *testing.T) {
		w := NewReportWorker(&fakeGenerator{}, Config{Schedule: "every tuesday"})
		assert.Error(t, w.Start(context.Background()))
	})

	t.Run("runs on schedule until cancelled", func(t *testing.T) {
		gen := &fakeGenerator{}
		w := NewReportWorker(gen, Config{ServiceToken: "service", Schedule: "* * * * * *", BusinessIDs: []string{"biz-1"}})
		ctx, cancel := context.WithCancel(context.Background())
		require.NoError(t, w.Start(ctx))

		assert.Eventually(t, func() bool { return gen.count() > 0 }, 3*time.Second, 50*time.Millisecond)
		cancel()
		assert.Eventually(t, func() bool {
			w.mu.Lock()
			defer w.mu.Unlock()
			return w.cron == nil
		}, time.Second, 10*time.Millisecond)
	})
}
