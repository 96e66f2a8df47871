package models

import "encoding/json"

const (
	ResultRejected = "rejected"
	ResultSuccess  = "success"
	ResultFailed   = "failed"

	MessageIgnoredStatus = "ignored_status"
)

// Summary is the response body of the ip-blacklist webhook.
type Summary struct {
	Message string `json:"message,omitempty"`
	// Status echoes the inbound status of an ignored payload, JSON null
	// included. It is left unset for firing payloads.
	Status         json.RawMessage `json:"status,omitempty"`
	ReceivedAlerts int             `json:"received_alerts"`
	ValidIPs       int             `json:"valid_ips"`
	Attempted      int             `json:"attempted"`
	Succeeded      int             `json:"succeeded"`
	Failed         int             `json:"failed"`
	Rejected       int             `json:"rejected"`
	Results        []Result        `json:"results"`
}

// Result is either a rejected alert entry (Index set) or the outcome of
// one blocklist call.
type Result struct {
	Index            *int   `json:"index,omitempty"`
	IP               string `json:"ip,omitempty"`
	Status           string `json:"status"`
	DownstreamStatus int    `json:"downstream_status,omitempty"`
	DownstreamBody   string `json:"downstream_body,omitempty"`
	Error            string `json:"error,omitempty"`

	// set for rejections that echo the attempted ip, even when empty
	echoIP bool
}

// NewRejection builds the result for a malformed alert entry.
func NewRejection(index int, reason string) Result {
	return Result{
		Index:  &index,
		Status: ResultRejected,
		Error:  reason,
	}
}

// NewIPRejection builds a rejection that reports the ip value it refused.
func NewIPRejection(index int, ip, reason string) Result {
	r := NewRejection(index, reason)
	r.IP = ip
	r.echoIP = true
	return r
}

// MarshalJSON always writes "ip" for dispatch outcomes and echoing
// rejections, and "downstream_body" whenever a downstream status was
// received on a failed call, even when either value is empty.
func (r Result) MarshalJSON() ([]byte, error) {
	out := struct {
		Index            *int    `json:"index,omitempty"`
		IP               *string `json:"ip,omitempty"`
		Status           string  `json:"status"`
		DownstreamStatus int     `json:"downstream_status,omitempty"`
		DownstreamBody   *string `json:"downstream_body,omitempty"`
		Error            string  `json:"error,omitempty"`
	}{
		Index:            r.Index,
		Status:           r.Status,
		DownstreamStatus: r.DownstreamStatus,
		Error:            r.Error,
	}

	if r.Index == nil || r.echoIP || r.IP != "" {
		ip := r.IP
		out.IP = &ip
	}
	if r.Status == ResultFailed && r.DownstreamStatus != 0 {
		body := r.DownstreamBody
		out.DownstreamBody = &body
	}

	return json.Marshal(out)
}

// TotalOutage reports whether every attempted dispatch failed.
func (s *Summary) TotalOutage() bool {
	return s.Attempted > 0 && s.Succeeded == 0 && s.Failed > 0
}
