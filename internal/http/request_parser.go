// Package http provides the dashboard JSON API.
//
// This file implements utilities for parsing and validating query and body
// parameters shared by the wallet and report handlers.
package http

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"komoralink/internal/charts"
	"komoralink/internal/core"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
	maxPeriods       = 366
	defaultTopN      = 5
)

// defaultPeriods is the trailing window used when a request names no dates.
var defaultPeriods = map[core.Unit]int{
	core.UnitDay:   7,
	core.UnitWeek:  4,
	core.UnitMonth: 6,
	core.UnitYear:  2,
}

var errBadRequest = errors.New("bad request")

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

// PeriodParams is the period selection of a stats or report request.
type PeriodParams struct {
	Unit     core.Unit
	Range    core.Range
	Statuses core.StatusFilter
}

// Key identifies the selection inside a screen cache key.
func (p PeriodParams) Key() string {
	return fmt.Sprintf("%s|%s|%s|%d", p.Unit,
		p.Range.Start.Format(core.DateLayout), p.Range.End.Format(core.DateLayout), p.Statuses)
}

// ParsePeriodParams reads unit, startDate/endDate, months, periods and
// statuses. Explicit dates win over months, months over periods. Without
// any of them the default trailing window of the unit applies.
func ParsePeriodParams(q url.Values, now time.Time) (PeriodParams, error) {
	p := PeriodParams{Unit: core.UnitMonth}

	if v := strings.TrimSpace(q.Get("unit")); v != "" {
		u, err := core.ParseUnit(v)
		if err != nil {
			return PeriodParams{}, badRequest("unit must be one of DAY, WEEK, MONTH, YEAR")
		}
		p.Unit = u
	}

	statuses, err := parseStatuses(q.Get("statuses"))
	if err != nil {
		return PeriodParams{}, err
	}
	p.Statuses = statuses

	r, err := parseRange(q, p.Unit, now)
	if err != nil {
		return PeriodParams{}, err
	}
	if _, err := core.Buckets(p.Unit, r); err != nil {
		return PeriodParams{}, badRequest("%v", err)
	}
	p.Range = r
	return p, nil
}

func parseRange(q url.Values, unit core.Unit, now time.Time) (core.Range, error) {
	start, end := strings.TrimSpace(q.Get("startDate")), strings.TrimSpace(q.Get("endDate"))
	switch {
	case start != "" && end != "":
		r, err := core.ParseDateRange(start, end, now.Location())
		if err != nil {
			return core.Range{}, badRequest("%v", err)
		}
		return r, nil
	case start != "" || end != "":
		return core.Range{}, badRequest("startDate and endDate must be given together")
	}

	if v := strings.TrimSpace(q.Get("months")); v != "" {
		n, err := parseBoundedInt(v, "months", 1, maxPeriods)
		if err != nil {
			return core.Range{}, err
		}
		return core.TrailingMonths(now, n)
	}

	n := defaultPeriods[unit]
	if v := strings.TrimSpace(q.Get("periods")); v != "" {
		var err error
		if n, err = parseBoundedInt(v, "periods", 1, maxPeriods); err != nil {
			return core.Range{}, err
		}
	}
	return core.Trailing(unit, now, n)
}

func parseStatuses(v string) (core.StatusFilter, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "settled", "completed":
		return core.SettledOnly, nil
	case "all":
		return core.AllStatuses, nil
	}
	return 0, badRequest("statuses must be settled or all")
}

// ParseSeries reads the series plotted by the bar and line charts.
func ParseSeries(q url.Values) (charts.Series, error) {
	s, err := charts.ParseSeries(q.Get("series"))
	if err != nil {
		return "", badRequest("series must be income, expense or net")
	}
	return s, nil
}

// ParseDirection reads the category direction, expense by default.
func ParseDirection(q url.Values) (core.Direction, error) {
	v := strings.TrimSpace(q.Get("direction"))
	if v == "" {
		return core.Expense, nil
	}
	d, err := core.ParseDirection(v)
	if err != nil {
		return "", badRequest("direction must be income or expense")
	}
	return d, nil
}

// ParseTop reads how many categories get their own pie segment.
func ParseTop(q url.Values) (int, error) {
	v := strings.TrimSpace(q.Get("top"))
	if v == "" {
		return defaultTopN, nil
	}
	return parseBoundedInt(v, "top", 1, 50)
}

// PageParams is the listing selection of the history endpoint.
type PageParams struct {
	Page      int
	Limit     int
	StartDate time.Time
	EndDate   time.Time
	Type      string
	Status    string
	Search    string
}

// ParsePageParams reads page, limit, optional dates and the pass-through
// filters of the history endpoint.
func ParsePageParams(q url.Values, loc *time.Location) (PageParams, error) {
	p := PageParams{Page: 1, Limit: defaultPageLimit}
	var err error
	if v := strings.TrimSpace(q.Get("page")); v != "" {
		if p.Page, err = parseBoundedInt(v, "page", 1, 1<<20); err != nil {
			return PageParams{}, err
		}
	}
	if v := strings.TrimSpace(q.Get("limit")); v != "" {
		if p.Limit, err = parseBoundedInt(v, "limit", 1, maxPageLimit); err != nil {
			return PageParams{}, err
		}
	}

	start, end := strings.TrimSpace(q.Get("startDate")), strings.TrimSpace(q.Get("endDate"))
	if start != "" || end != "" {
		if start == "" || end == "" {
			return PageParams{}, badRequest("startDate and endDate must be given together")
		}
		r, err := core.ParseDateRange(start, end, loc)
		if err != nil {
			return PageParams{}, badRequest("%v", err)
		}
		p.StartDate, p.EndDate = r.Start, r.End
	}

	p.Type = sanitizeInput(q.Get("type"))
	p.Status = strings.ToUpper(sanitizeInput(q.Get("status")))
	p.Search = sanitizeInput(q.Get("search"))
	return p, nil
}

// ReportBody is the JSON body of POST /api/reports.
type ReportBody struct {
	Unit      string `json:"unit"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Months    int    `json:"months"`
}

// Period resolves the body the same way query parameters are resolved.
// Report periods are whole UTC days so inline and queued generation cover
// the same instants.
func (b ReportBody) Period(now time.Time) (PeriodParams, error) {
	q := url.Values{}
	q.Set("unit", b.Unit)
	q.Set("startDate", b.StartDate)
	q.Set("endDate", b.EndDate)
	if b.Months != 0 {
		q.Set("months", strconv.Itoa(b.Months))
	}
	return ParsePeriodParams(q, now.UTC())
}

func parseBoundedInt(v, name string, lo, hi int) (int, error) {
	n, err := strconv.Atoi(v)
	if err != nil || n < lo || n > hi {
		return 0, badRequest("%s must be an integer between %d and %d", name, lo, hi)
	}
	return n, nil
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 {
			return -1
		}
		return r
	}, s)
}
