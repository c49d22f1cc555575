package services

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"fincalc/internal/core"
	"fincalc/internal/log"
)

// ServiceName is reported by the health check.
const ServiceName = "fincalc"

// ErrComputation wraps every fault returned by the Calculator.
var ErrComputation = errors.New("computation failed")

// SalesRequest is the wire body of a sales calculation.
type SalesRequest struct {
	SalesData   []core.TransactionRecord `json:"sales_data"`
	DateContext *core.DateContext        `json:"date_context,omitempty"`
}

// ProfitRequest is the wire body of a profit calculation.
type ProfitRequest struct {
	RevenueData []core.TransactionRecord `json:"revenue_data"`
	ExpenseData []core.TransactionRecord `json:"expense_data"`
	DateContext *core.DateContext        `json:"date_context,omitempty"`
}

// HealthStatus is the health check body.
type HealthStatus struct {
	Status        string `json:"status"`
	Service       string `json:"service"`
	EngineVersion string `json:"engine_version"`
}

// Calculator is the request boundary around the engine. It is built once at
// process start and holds no mutable state, so transports share one value
// across concurrent requests.
type Calculator struct {
	logger  *log.Logger
	events  *log.StructuredLogger
	service string
	version string
}

func NewCalculator(logger *log.Logger) *Calculator {
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentEngine)
	return &Calculator{
		logger:  logger,
		events:  log.NewStructuredLogger(logger),
		service: ServiceName,
		version: core.Version,
	}
}

// Sales computes a sales summary.
func (c *Calculator) Sales(ctx context.Context, req SalesRequest) (summary core.SalesSummary, err error) {
	start := time.Now()
	defer c.guard(ctx, log.OpSales, &err)

	summary, err = core.ComputeSales(req.SalesData, req.DateContext)
	if err != nil {
		return core.SalesSummary{}, c.fail(ctx, log.OpSales, err)
	}

	c.events.LogCalculation(ctx, log.OpSales, len(req.SalesData), req.DateContext.Active(),
		summary.Diagnostics.CoercedAmounts, summary.Diagnostics.Undated, time.Since(start).Milliseconds())
	return summary, nil
}

// Profit computes a profit summary.
func (c *Calculator) Profit(ctx context.Context, req ProfitRequest) (summary core.ProfitSummary, err error) {
	start := time.Now()
	defer c.guard(ctx, log.OpProfit, &err)

	summary, err = core.ComputeProfit(req.RevenueData, req.ExpenseData, req.DateContext)
	if err != nil {
		return core.ProfitSummary{}, c.fail(ctx, log.OpProfit, err)
	}

	c.events.LogCalculation(ctx, log.OpProfit, len(req.RevenueData)+len(req.ExpenseData), req.DateContext.Active(),
		summary.Diagnostics.CoercedAmounts, summary.Diagnostics.Undated, time.Since(start).Milliseconds())
	return summary, nil
}

// Health reports the service identity. It never fails.
func (c *Calculator) Health() HealthStatus {
	return HealthStatus{
		Status:        "healthy",
		Service:       c.service,
		EngineVersion: c.version,
	}
}

func (c *Calculator) fail(ctx context.Context, op string, err error) error {
	err = fmt.Errorf("%w: %w", ErrComputation, err)
	c.events.LogError(ctx, "Calculation failed", err, log.ComponentEngine, op,
		log.NewFields().WithErrorType(log.ErrorTypeInternal))
	return err
}

// guard turns a panic inside the engine into ErrComputation.
func (c *Calculator) guard(ctx context.Context, op string, err *error) {
	r := recover()
	if r == nil {
		return
	}
	*err = fmt.Errorf("%w: %v", ErrComputation, r)
	fields := log.NewFields().WithErrorType(log.ErrorTypeInternal)
	fields["stack"] = string(debug.Stack())
	c.events.LogError(ctx, "Calculation panicked", *err, log.ComponentEngine, op, fields)
}
