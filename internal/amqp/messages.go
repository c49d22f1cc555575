package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Operation names a calculation carried over AMQP.
type Operation string

const (
	OperationSales  Operation = "sales"
	OperationProfit Operation = "profit"
	OperationHealth Operation = "health"
)

// ReplyType is sent in the reply's type property.
type ReplyType string

const (
	ReplyResult ReplyType = "result"
	ReplyError  ReplyType = "error"
)

// CalculationRequest is the body of a request message. Payload has the same
// shape as the matching HTTP request body.
type CalculationRequest struct {
	Operation Operation       `json:"operation"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp time.Time       `json:"timestamp,omitzero"`
}

// NewCalculationRequest wraps payload, which must be either raw JSON or a
// value encodable as JSON.
func NewCalculationRequest(op Operation, payload any) (*CalculationRequest, error) {
	var raw json.RawMessage
	switch p := payload.(type) {
	case nil:
	case json.RawMessage:
		raw = p
	case []byte:
		raw = json.RawMessage(p)
	default:
		b, err := json.Marshal(p)
		if err != nil {
			return nil, fmt.Errorf("marshal payload: %w", err)
		}
		raw = b
	}
	return &CalculationRequest{
		Operation: op,
		Payload:   raw,
		Timestamp: time.Now().UTC(),
	}, nil
}

// ToJSON converts the message to JSON bytes
func (m *CalculationRequest) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// CalculationRequestFromJSON creates a message from JSON bytes
func CalculationRequestFromJSON(data []byte) (*CalculationRequest, error) {
	var msg CalculationRequest
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// ErrorReply is the body of an error reply.
type ErrorReply struct {
	Error string `json:"error"`
}
