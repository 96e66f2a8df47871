package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// StatusFiring is the only alert group status that triggers blocklisting.
const StatusFiring = "firing"

// ValidationError reports an envelope that cannot be processed at all.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// AlertPayload is a Grafana webhook body. Status and Alerts keep their raw
// decoded JSON shape (string, []any, map[string]any, json.Number...) because
// entries are validated one by one further down the pipeline.
type AlertPayload struct {
	Status any
	Alerts any
	Raw    map[string]any
}

// IsFiring reports whether the payload status is exactly "firing".
func (p *AlertPayload) IsFiring() bool {
	s, ok := p.Status.(string)
	return ok && s == StatusFiring
}

// AlertCount returns len(alerts), or 0 when alerts is not an array.
func (p *AlertPayload) AlertCount() int {
	if alerts, ok := p.Alerts.([]any); ok {
		return len(alerts)
	}
	return 0
}

// RawStatus re-encodes the status exactly as received, null included.
func (p *AlertPayload) RawStatus() json.RawMessage {
	raw, err := json.Marshal(p.Status)
	if err != nil {
		return json.RawMessage("null")
	}
	return raw
}

// ParseAlertPayload checks that body is a single JSON object carrying both
// "status" and "alerts". Nothing deeper is validated here.
func ParseAlertPayload(body []byte) (*AlertPayload, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var decoded any
	if err := dec.Decode(&decoded); err != nil {
		return nil, &ValidationError{Message: fmt.Sprintf("Invalid JSON payload: %v", err)}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, &ValidationError{Message: "Invalid JSON payload: unexpected data after top-level value"}
	}

	obj, ok := decoded.(map[string]any)
	if !ok {
		return nil, &ValidationError{Message: "Payload must be a JSON object"}
	}

	status, ok := obj["status"]
	if !ok {
		return nil, &ValidationError{Message: "Payload missing 'status'"}
	}
	alerts, ok := obj["alerts"]
	if !ok {
		return nil, &ValidationError{Message: "Payload missing 'alerts'"}
	}

	return &AlertPayload{
		Status: status,
		Alerts: alerts,
		Raw:    obj,
	}, nil
}
