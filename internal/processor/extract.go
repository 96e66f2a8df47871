package processor

import (
	"errors"
	"net/netip"
	"strings"

	"github.com/emirozbir/grafana-hook/internal/models"
)

// UnknownAlertName is used when an alert carries no usable alertname label.
const UnknownAlertName = "unknown_alert"

// ErrAlertsNotArray rejects the whole payload, unlike per-entry rejections.
var ErrAlertsNotArray = errors.New("'alerts' must be an array")

const (
	errAlertNotObject  = "alert must be an object"
	errLabelsNotObject = "labels must be an object"
	errIPRequired      = "labels.ip is required"
	errInvalidIP       = "invalid IP address"
)

// IPSet keeps unique IPs in first-seen order together with the alertname
// of their first occurrence.
type IPSet struct {
	ips   []string
	names map[string]string
}

func NewIPSet() *IPSet {
	return &IPSet{names: make(map[string]string)}
}

// Add inserts ip unless it is already present. It reports whether ip was new.
func (s *IPSet) Add(ip, alertName string) bool {
	if _, ok := s.names[ip]; ok {
		return false
	}
	s.ips = append(s.ips, ip)
	s.names[ip] = alertName
	return true
}

func (s *IPSet) Len() int {
	return len(s.ips)
}

// IPs returns the addresses in insertion order.
func (s *IPSet) IPs() []string {
	return s.ips
}

func (s *IPSet) AlertName(ip string) string {
	return s.names[ip]
}

// ExtractIPs validates each alert entry independently and collects the
// unique IPs. Rejections keep the index of the entry in the alerts array.
func ExtractIPs(payload *models.AlertPayload) (*IPSet, []models.Result, error) {
	alerts, ok := payload.Alerts.([]any)
	if !ok {
		return nil, nil, ErrAlertsNotArray
	}

	set := NewIPSet()
	rejected := []models.Result{}

	for idx, entry := range alerts {
		alert, ok := entry.(map[string]any)
		if !ok {
			rejected = append(rejected, models.NewRejection(idx, errAlertNotObject))
			continue
		}

		labels := map[string]any{}
		if raw, present := alert["labels"]; present && raw != nil {
			labels, ok = raw.(map[string]any)
			if !ok {
				rejected = append(rejected, models.NewRejection(idx, errLabelsNotObject))
				continue
			}
		}

		ipValue, ok := labels["ip"].(string)
		if !ok || ipValue == "" {
			rejected = append(rejected, models.NewRejection(idx, errIPRequired))
			continue
		}

		candidate := strings.TrimSpace(ipValue)
		addr, err := netip.ParseAddr(candidate)
		if err != nil {
			rejected = append(rejected, models.NewIPRejection(idx, candidate, errInvalidIP))
			continue
		}

		set.Add(addr.String(), alertName(labels))
	}

	return set, rejected, nil
}

func alertName(labels map[string]any) string {
	if name, ok := labels["alertname"].(string); ok && name != "" {
		return name
	}
	return UnknownAlertName
}
