package http

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"komoralink/internal/cache"
	"komoralink/internal/core"
	klog "komoralink/internal/log"
	"komoralink/internal/middleware/ratelimit"
	"komoralink/internal/middleware/security"
	"komoralink/internal/middleware/trace"
	"komoralink/internal/screen"
	"komoralink/internal/services"
	"komoralink/internal/wallet"
)

const (
	defaultCacheSize = 500
	defaultCacheTTL  = 10 * time.Minute
	screenMaxAge     = 30 * time.Second
	handlerTimeout   = 7 * time.Second
	cacheCleanup     = 5 * time.Minute
)

// WalletSource is the part of the wallet client the dashboard uses.
type WalletSource interface {
	Fetch(ctx context.Context, s wallet.Session, f wallet.Filter) (wallet.Page, error)
	FetchOrEmpty(ctx context.Context, s wallet.Session, f wallet.Filter) wallet.Page
	FetchAll(ctx context.Context, s wallet.Session, f wallet.Filter) ([]core.Transaction, error)
}

// Options configures NewServer. Wallet is required. Reports may be nil, in
// which case the report endpoints answer 503.
type Options struct {
	Wallet    WalletSource
	Reports   *services.ReportService
	CacheSize int
	CacheTTL  time.Duration
	Logger    *klog.Logger
	Now       func() time.Time
	RateLimit ratelimit.Config
}

// Server is the dashboard JSON API.
type Server struct {
	http.Server

	wallet  WalletSource
	reports *services.ReportService
	screens *cache.LRUCache[*screen.Screen]
	caches  *cache.Manager

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware
	logger   *klog.Logger

	now          func() time.Time
	started      time.Time
	shutdownOnce sync.Once
}

// NewServer wires the routes and the middleware chain.
func NewServer(addr string, opts Options) *Server {
	if opts.CacheSize <= 0 {
		opts.CacheSize = defaultCacheSize
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = defaultCacheTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = klog.New(klog.DefaultConfig()).WithComponent("http")
	}
	if opts.RateLimit.RequestsPerWindow <= 0 {
		opts.RateLimit = ratelimit.DefaultConfig()
	}

	s := &Server{
		wallet:   opts.Wallet,
		reports:  opts.Reports,
		screens:  cache.NewLRUCache[*screen.Screen](opts.CacheSize, opts.CacheTTL),
		caches:   cache.NewManager(),
		limiter:  ratelimit.NewLimiter(opts.RateLimit),
		detector: security.NewDetector(),
		logger:   opts.Logger,
		now:      opts.Now,
		started:  opts.Now(),
	}
	s.tracer = trace.NewMiddleware(s.detector.ExtractClientIP, s.logger)
	s.caches.Register(s.screens)
	s.caches.StartCleanup(cacheCleanup)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)
	mux.HandleFunc("GET /api/transactions", s.handleTransactions)
	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("GET /api/stats/categories", s.handleCategories)
	mux.HandleFunc("POST /api/reports", s.handleCreateReport)
	mux.HandleFunc("GET /api/reports", s.handleListReports)
	mux.HandleFunc("GET /api/reports/{id}", s.handleGetReport)

	limited := s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
	}, http.MethodPost)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())

	var handler http.Handler = mux
	handler = limited(handler)
	handler = headers.Middleware(handler)
	handler = s.detector.Middleware(handler)
	handler = s.tracer.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Shutdown stops background cleanup and gracefully shuts the listener down.
func (s *Server) Shutdown(ctx context.Context) error {
	s.shutdownOnce.Do(func() {
		s.caches.Stop()
		s.limiter.Stop()
	})
	return s.Server.Shutdown(ctx)
}

// screenFor returns the cached screen of a session and period, creating it
// on first use. Screens are refreshed when they have never loaded, when
// their data is older than screenMaxAge, or when force is set.
func (s *Server) screenFor(ctx context.Context, session wallet.Session, p PeriodParams, force bool) (screen.State, error) {
	key := session.Key() + "|" + p.Key()
	sc, err := s.screens.GetOrCreate(key, func() (*screen.Screen, error) {
		created, err := screen.New(s.wallet, session, p.Unit, p.Range, core.AggregateOptions{Statuses: p.Statuses})
		if err != nil {
			return nil, err
		}
		created.SetClock(s.now)
		return created, nil
	})
	if err != nil {
		return screen.State{}, err
	}

	st := sc.Snapshot()
	if force || !st.Loaded || s.now().Sub(st.UpdatedAt) > screenMaxAge {
		st, _ = sc.Refresh(ctx)
	}
	return st, nil
}

// sessionOrAbort reads the caller session and writes 401 when it carries no
// token.
func sessionOrAbort(w http.ResponseWriter, r *http.Request) (wallet.Session, bool) {
	session := wallet.SessionFromRequest(r)
	if err := session.Validate(); err != nil {
		writeError(w, http.StatusUnauthorized, "missing bearer token")
		return wallet.Session{}, false
	}
	return session, true
}

func writeParseError(w http.ResponseWriter, err error) {
	if errors.Is(err, errBadRequest) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, "internal error")
}
