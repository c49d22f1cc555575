package http

import (
	"errors"
	"net/http"
	"time"

	"fincalc/internal/log"
	"fincalc/internal/services"
)

func (s *Server) handleSales(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(w, r, s.maxBody)
	body, err := p.Bytes()
	if err != nil {
		s.requestFailed(w, r, log.OpSales, p, err)
		return
	}
	req, err := services.DecodeSalesRequest(body)
	if err != nil {
		s.requestFailed(w, r, log.OpSales, p, err)
		return
	}
	summary, err := s.calc.Sales(r.Context(), req)
	if err != nil {
		InternalServerError(err.Error()).Write(w)
		return
	}
	NewJSONResponse().JSON(summary).Write(w)
}

func (s *Server) handleProfit(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(w, r, s.maxBody)
	body, err := p.Bytes()
	if err != nil {
		s.requestFailed(w, r, log.OpProfit, p, err)
		return
	}
	req, err := services.DecodeProfitRequest(body)
	if err != nil {
		s.requestFailed(w, r, log.OpProfit, p, err)
		return
	}
	summary, err := s.calc.Profit(r.Context(), req)
	if err != nil {
		InternalServerError(err.Error()).Write(w)
		return
	}
	NewJSONResponse().JSON(summary).Write(w)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().JSON(s.calc.Health()).Write(w)
}

func (s *Server) handleLiveness(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().JSON(map[string]any{
		"status":         "ok",
		"uptime_seconds": int64(time.Since(s.started).Seconds()),
	}).Write(w)
}

// handleReady always reports ready: the engine has no dependencies to wait on.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().JSON(map[string]string{"status": "ready"}).Write(w)
}

func handleNotFound(w http.ResponseWriter, r *http.Request) {
	NotFoundError("not found").Write(w)
}

func methodNotAllowed(allowed string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if resp := RequireMethod(r, allowed); resp != nil {
			resp.Write(w)
			return
		}
		handleNotFound(w, r)
	}
}

// requestFailed logs and answers a request that never reached the engine.
func (s *Server) requestFailed(w http.ResponseWriter, r *http.Request, op string, p *RequestBodyParser, err error) {
	errorType := log.ErrorTypeValidation
	if errors.Is(err, ErrBodyTooLarge) {
		errorType = log.ErrorTypeInternal
	}
	fields := log.NewFields().WithErrorType(errorType).WithContentType(p.ContentType(), p.IsJSON())
	log.NewStructuredLogger(log.FromContext(r.Context())).LogError(r.Context(), "Request rejected", err,
		log.ComponentHTTP, op, fields)
	InternalServerError(err.Error()).Write(w)
}
