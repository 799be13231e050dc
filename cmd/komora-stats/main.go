// Command komora-stats prints the statistics of a wallet period as JSON.
//
//	komora-stats -business biz-1 -unit WEEK -months 3
//	komora-stats -unit MONTH -start 2024-01-01 -end 2024-06-30 -save
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"time"

	"komoralink/internal/cli"
	"komoralink/internal/core"
	apphttp "komoralink/internal/http"
	"komoralink/internal/services"
	"komoralink/internal/wallet"
)

type output struct {
	Stats      services.StatsView       `json:"stats"`
	Categories *services.CategoriesView `json:"categories,omitempty"`
	Report     *services.ReportView     `json:"report,omitempty"`
}

func main() {
	var (
		unit       = flag.String("unit", "MONTH", "bucket unit: DAY, WEEK, MONTH or YEAR")
		start      = flag.String("start", "", "first day, yyyy-MM-dd")
		end        = flag.String("end", "", "last day, yyyy-MM-dd")
		months     = flag.Int("months", 0, "trailing months ending today")
		periods    = flag.Int("periods", 0, "trailing periods of -unit ending today")
		statuses   = flag.String("statuses", "settled", "settled or all")
		series     = flag.String("series", "net", "bar and line series: income, expense or net")
		categories = flag.String("categories", "", "also break down income or expense by category")
		top        = flag.Int("top", 5, "categories shown before grouping into Autres")
		business   = flag.String("business", "", "business id, empty for the personal wallet")
		token      = flag.String("token", "", "bearer token (default WALLET_API_TOKEN)")
		save       = flag.Bool("save", false, "archive the period as a report")
	)
	flag.Parse()

	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	cli.SetupLogger(cfg, "stats")

	if *token == "" {
		*token = cfg.WalletAPIToken
	}
	session := wallet.Session{Token: *token, BusinessID: *business}
	if err := session.Validate(); err != nil {
		fatal("missing token: pass -token or set WALLET_API_TOKEN")
	}

	q := url.Values{}
	q.Set("unit", *unit)
	q.Set("startDate", *start)
	q.Set("endDate", *end)
	q.Set("statuses", *statuses)
	q.Set("series", *series)
	if *months > 0 {
		q.Set("months", strconv.Itoa(*months))
	}
	if *periods > 0 {
		q.Set("periods", strconv.Itoa(*periods))
	}
	p, err := apphttp.ParsePeriodParams(q, time.Now())
	if err != nil {
		fatal(err.Error())
	}
	s, err := apphttp.ParseSeries(q)
	if err != nil {
		fatal(err.Error())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	walletClient := cli.NewWalletClient(cfg)
	txs, err := walletClient.FetchAll(ctx, session, wallet.FilterForRange(p.Range))
	if err != nil {
		fatal(fmt.Sprintf("fetch transactions: %v", err))
	}

	opts := core.AggregateOptions{Statuses: p.Statuses}
	buckets, err := core.Aggregate(txs, p.Unit, p.Range, opts)
	if err != nil {
		fatal(err.Error())
	}
	out := output{Stats: services.NewStatsView(p.Unit, p.Range, buckets, core.Totals(buckets), s)}
	out.Stats.Loaded = true
	out.Stats.UpdatedAt = time.Now()

	if *categories != "" {
		dir, err := core.ParseDirection(*categories)
		if err != nil {
			fatal(err.Error())
		}
		if *top < 1 {
			*top = 1
		}
		v := services.NewCategoriesView(txs, dir, p.Range, opts, *top)
		out.Categories = &v
	}

	if *save {
		res := cli.InitBackend(ctx, cfg)
		defer func() {
			if err := res.Cleanup(); err != nil {
				slog.Error("Backend cleanup error", "error", err)
			}
		}()
		report, err := cli.NewReportService(walletClient, res).Generate(ctx, session,
			services.ReportRequest{Unit: p.Unit, Range: p.Range})
		if err != nil {
			fatal(fmt.Sprintf("generate report: %v", err))
		}
		v := services.NewReportView(report)
		out.Report = &v
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fatal(err.Error())
	}
}

func fatal(msg string) {
	fmt.Fprintln(os.Stderr, "komora-stats:", msg)
	os.Exit(1)
}
