package amqp

import (
	"context"
	"encoding/json"
	"fmt"

	"fincalc/internal/core"
	"fincalc/internal/log"
	"fincalc/internal/services"
)

// Engine is the calculation boundary the dispatcher calls.
type Engine interface {
	Sales(ctx context.Context, req services.SalesRequest) (core.SalesSummary, error)
	Profit(ctx context.Context, req services.ProfitRequest) (core.ProfitSummary, error)
	Health() services.HealthStatus
}

// Dispatcher turns request messages into replies.
type Dispatcher struct {
	engine Engine
	logger *log.Logger
}

func NewDispatcher(engine Engine, logger *log.Logger) *Dispatcher {
	if logger == nil {
		logger = log.Discard()
	}
	return &Dispatcher{engine: engine, logger: logger.WithComponent(log.ComponentWorker)}
}

// Handle answers one request body. It never fails: every fault becomes an
// error reply.
func (d *Dispatcher) Handle(ctx context.Context, body []byte) (ReplyType, []byte) {
	msg, err := CalculationRequestFromJSON(body)
	if err != nil {
		return d.errorReply(ctx, "", fmt.Errorf("decode request message: %w", err))
	}

	var result any
	switch msg.Operation {
	case OperationSales:
		req, err := services.DecodeSalesRequest(msg.Payload)
		if err != nil {
			return d.errorReply(ctx, msg.Operation, err)
		}
		if result, err = d.engine.Sales(ctx, req); err != nil {
			return d.errorReply(ctx, msg.Operation, err)
		}
	case OperationProfit:
		req, err := services.DecodeProfitRequest(msg.Payload)
		if err != nil {
			return d.errorReply(ctx, msg.Operation, err)
		}
		if result, err = d.engine.Profit(ctx, req); err != nil {
			return d.errorReply(ctx, msg.Operation, err)
		}
	case OperationHealth:
		result = d.engine.Health()
	default:
		return d.errorReply(ctx, msg.Operation, fmt.Errorf("unknown operation %q", msg.Operation))
	}

	out, err := json.Marshal(result)
	if err != nil {
		return d.errorReply(ctx, msg.Operation, fmt.Errorf("encode reply: %w", err))
	}
	return ReplyResult, out
}

func (d *Dispatcher) errorReply(ctx context.Context, op Operation, err error) (ReplyType, []byte) {
	d.logger.WarnContext(ctx, "Calculation request failed",
		log.FieldOperation, string(op),
		log.FieldError, err.Error())
	out, _ := json.Marshal(ErrorReply{Error: err.Error()})
	return ReplyError, out
}
