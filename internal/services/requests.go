package services

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// DecodeSalesRequest reads a sales request body. The body must be a JSON
// object; a missing or null sales_data is an empty list.
func DecodeSalesRequest(data []byte) (SalesRequest, error) {
	var req SalesRequest
	if err := decodeObject(data, &req); err != nil {
		return SalesRequest{}, err
	}
	return req, nil
}

// DecodeProfitRequest reads a profit request body.
func DecodeProfitRequest(data []byte) (ProfitRequest, error) {
	var req ProfitRequest
	if err := decodeObject(data, &req); err != nil {
		return ProfitRequest{}, err
	}
	return req, nil
}

func decodeObject(data []byte, v any) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return fmt.Errorf("%w: empty request body", ErrComputation)
	}
	if trimmed[0] != '{' {
		return fmt.Errorf("%w: request body must be a JSON object", ErrComputation)
	}
	if err := json.Unmarshal(trimmed, v); err != nil {
		return fmt.Errorf("%w: decode request: %w", ErrComputation, err)
	}
	return nil
}
