package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"fincalc/internal/core"
	"fincalc/internal/log"
	"fincalc/internal/middleware/ratelimit"
	"fincalc/internal/middleware/security"
	"fincalc/internal/middleware/trace"
	"fincalc/internal/services"
)

// Calculator is the engine boundary the handlers call.
type Calculator interface {
	Sales(ctx context.Context, req services.SalesRequest) (core.SalesSummary, error)
	Profit(ctx context.Context, req services.ProfitRequest) (core.ProfitSummary, error)
	Health() services.HealthStatus
}

// Options configures the transport. Zero values fall back to defaults.
type Options struct {
	Addr               string
	MaxBodyBytes       int64
	RateLimitPerMinute int
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
}

const defaultMaxBodyBytes = 10 << 20

type Server struct {
	http.Server
	calc     Calculator
	logger   *log.Logger
	limiter  *ratelimit.Limiter
	tracer   *trace.Middleware
	detector *security.Detector
	maxBody  int64
	started  time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(calc Calculator, logger *log.Logger, opts Options) *Server {
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	s := &Server{
		calc:     calc,
		logger:   logger,
		detector: security.NewDetector(),
		maxBody:  opts.MaxBodyBytes,
		started:  time.Now(),
	}
	if s.maxBody <= 0 {
		s.maxBody = defaultMaxBodyBytes
	}
	if opts.RateLimitPerMinute > 0 {
		s.limiter = ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute})
	}
	s.tracer = trace.NewMiddleware(logger, s.detector.ExtractClientIP)

	mux := http.NewServeMux()
	mux.Handle("POST /calculate/sales", s.limited(http.HandlerFunc(s.handleSales)))
	mux.Handle("POST /calculate/profit", s.limited(http.HandlerFunc(s.handleProfit)))
	mux.HandleFunc("/calculate/sales", methodNotAllowed(http.MethodPost))
	mux.HandleFunc("/calculate/profit", methodNotAllowed(http.MethodPost))

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /healthz", s.handleLiveness)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("/health", methodNotAllowed(http.MethodGet))
	mux.HandleFunc("/healthz", methodNotAllowed(http.MethodGet))
	mux.HandleFunc("/readyz", methodNotAllowed(http.MethodGet))

	mux.HandleFunc("/", handleNotFound)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	var handler http.Handler = mux
	handler = s.detector.Middleware(handler)
	handler = s.tracer.Middleware(handler)
	handler = headers.Middleware(handler)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadTimeout:       opts.ReadTimeout,
		ReadHeaderTimeout: opts.ReadTimeout,
		WriteTimeout:      opts.WriteTimeout,
	}
	return s
}

// limited applies the per-client rate limit when one is configured.
func (s *Server) limited(next http.Handler) http.Handler {
	if s.limiter == nil {
		return next
	}
	return s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).WarnContext(r.Context(),
			"Rate limit exceeded",
			log.FieldClientIP, s.detector.ExtractClientIP(r),
			log.FieldPath, r.URL.Path)
		TooManyRequestsError().Write(w)
	})(next)
}

// Metrics reports request counters of the running server.
func (s *Server) Metrics() trace.Metrics {
	return s.tracer.GetMetrics()
}

// Shutdown gracefully shuts down the server and its background routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.limiter != nil {
			s.limiter.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
