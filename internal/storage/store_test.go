package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"komoralink/internal/core"
)

func testReport(id, business string, created time.Time) core.Report {
	loc := time.FixedZone("WAT", 3600)
	start := time.Date(2024, time.February, 1, 0, 0, 0, 0, loc)
	owner := "user:alice"
	if business != "" {
		owner = "business:" + business
	}
	return core.Report{
		ID:         id,
		Owner:      owner,
		BusinessID: business,
		Unit:       core.UnitMonth,
		Start:      start,
		End:        time.Date(2024, time.March, 31, 23, 59, 59, 999999999, loc),
		Buckets: []core.PeriodBucket{
			{Key: "2024-02", Label: "févr.", Start: start, End: start.AddDate(0, 1, 0),
				Income: decimal.RequireFromString("1250.50"), Expense: decimal.NewFromInt(300), Count: 3},
			{Key: "2024-03", Label: "mars", Start: start.AddDate(0, 1, 0), End: start.AddDate(0, 2, 0),
				Income: decimal.Zero, Expense: decimal.NewFromInt(20000), Count: 1},
		},
		TotalIncome:      decimal.RequireFromString("1250.50"),
		TotalExpense:     decimal.NewFromInt(20300),
		TransactionCount: 4,
		CreatedAt:        created,
	}
}

func stores(t *testing.T) map[string]ReportStore {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "reports.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return map[string]ReportStore{
		"memory": NewMemoryStore(),
		"sqlite": repo,
	}
}

func TestReportStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2024, time.April, 1, 6, 0, 0, 0, time.UTC)

	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			want := testReport("r-1", "biz-1", created)
			require.NoError(t, store.Save(ctx, want))

			got, err := store.Get(ctx, "r-1")
			require.NoError(t, err)
			assert.Equal(t, want.ID, got.ID)
			assert.Equal(t, "business:biz-1", got.Owner)
			assert.Equal(t, want.BusinessID, got.BusinessID)
			assert.Equal(t, core.UnitMonth, got.Unit)
			assert.True(t, want.Start.Equal(got.Start))
			assert.True(t, want.End.Equal(got.End))
			assert.True(t, want.CreatedAt.Equal(got.CreatedAt))
			assert.True(t, got.TotalIncome.Equal(want.TotalIncome), "income=%s", got.TotalIncome)
			assert.Equal(t, 4, got.TransactionCount)

			require.Len(t, got.Buckets, 2)
			assert.Equal(t, "2024-02", got.Buckets[0].Key)
			assert.Equal(t, "févr.", got.Buckets[0].Label)
			assert.True(t, got.Buckets[0].Income.Equal(decimal.RequireFromString("1250.5")))
			assert.Equal(t, 3, got.Buckets[0].Count)
			assert.Equal(t, "2024-03", got.Buckets[1].Key)
			assert.True(t, got.Buckets[1].End.Equal(want.Buckets[1].End))
		})
	}
}

func TestReportStoreSaveReplaces(t *testing.T) {
	ctx := context.Background()
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			r := testReport("r-1", "", time.Now())
			require.NoError(t, store.Save(ctx, r))

			r.Buckets = r.Buckets[:1]
			r.TransactionCount = 3
			require.NoError(t, store.Save(ctx, r))

			got, err := store.Get(ctx, "r-1")
			require.NoError(t, err)
			assert.Len(t, got.Buckets, 1)
			assert.Equal(t, 3, got.TransactionCount)
		})
	}
}

func TestReportStoreNotFound(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.Get(context.Background(), "missing")
			assert.ErrorIs(t, err, ErrReportNotFound)
		})
	}
}

func TestReportStoreList(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)

	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Save(ctx, testReport("old", "biz-1", base)))
			require.NoError(t, store.Save(ctx, testReport("new", "biz-1", base.Add(time.Hour))))
			require.NoError(t, store.Save(ctx, testReport("mid", "biz-1", base.Add(1500*time.Millisecond))))
			require.NoError(t, store.Save(ctx, testReport("other", "biz-2", base)))
			require.NoError(t, store.Save(ctx, testReport("personal", "", base)))
			bob := testReport("bob-personal", "", base)
			bob.Owner = "user:bob"
			require.NoError(t, store.Save(ctx, bob))

			got, err := store.List(ctx, ListFilter{Owner: "business:biz-1"})
			require.NoError(t, err)
			ids := make([]string, 0, len(got))
			for _, r := range got {
				ids = append(ids, r.ID)
				assert.Empty(t, r.Buckets)
			}
			assert.Equal(t, []string{"new", "mid", "old"}, ids)

			got, err = store.List(ctx, ListFilter{Owner: "business:biz-1", Limit: 1})
			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.Equal(t, "new", got[0].ID)

			got, err = store.List(ctx, ListFilter{Owner: "user:alice"})
			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.Equal(t, "personal", got[0].ID)

			got, err = store.List(ctx, ListFilter{})
			require.NoError(t, err)
			assert.Empty(t, got, "an empty owner matches no report")

			got, err = store.List(ctx, ListFilter{Owner: "business:nobody"})
			require.NoError(t, err)
			assert.NotNil(t, got)
			assert.Empty(t, got)
		})
	}
}

func TestRunMigrationsIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports.db")
	require.NoError(t, RunMigrations(path))
	require.NoError(t, RunMigrations(path))
}
