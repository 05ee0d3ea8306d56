package health

import (
	"bytes"
	"encoding/json"
	"time"
)

// Kind tells whether a snapshot was built from a health response or synthesized on failure
type Kind string

const (
	// KindReachable means the health endpoint answered with a JSON body
	KindReachable Kind = "reachable"
	// KindUnreachable means the request or the body decoding failed
	KindUnreachable Kind = "unreachable"
)

// UnreachableMessage is the error reported in the raw payload of an unreachable snapshot
const UnreachableMessage = "Service Unreachable"

// Snapshot is the latest observed health of one monitored service.
// A newer snapshot replaces an older one wholesale.
type Snapshot struct {
	Target       string            `json:"target"`
	Kind         Kind              `json:"kind"`
	HTTPStatus   int               `json:"http_status"`
	Up           bool              `json:"is_up"`
	Dependencies map[string]string `json:"dependencies"`
	Raw          json.RawMessage   `json:"raw"`
	Reason       string            `json:"reason,omitempty"`
	CheckedAt    time.Time         `json:"checked_at"`
	Latency      time.Duration     `json:"-"`
	Cycle        uint64            `json:"cycle"`
}

// IsReachable reports whether the snapshot came from an actual health response
func (s Snapshot) IsReachable() bool {
	return s.Kind == KindReachable
}

// NewUnreachable builds the snapshot reported when a service cannot be reached
func NewUnreachable(target string, reason error) Snapshot {
	s := Snapshot{
		Target:       target,
		Kind:         KindUnreachable,
		HTTPStatus:   0,
		Up:           false,
		Dependencies: map[string]string{},
		Raw:          json.RawMessage(`{"error":"` + UnreachableMessage + `"}`),
		CheckedAt:    time.Now(),
	}
	if reason != nil {
		s.Reason = reason.Error()
	}
	return s
}

// newReachable builds a snapshot from a decoded health response
func newReachable(target string, statusCode int, body []byte) Snapshot {
	raw := make(json.RawMessage, len(body))
	copy(raw, body)

	return Snapshot{
		Target:       target,
		Kind:         KindReachable,
		HTTPStatus:   statusCode,
		Up:           statusCode >= 200 && statusCode < 300,
		Dependencies: Dependencies(raw),
		Raw:          raw,
		CheckedAt:    time.Now(),
	}
}

// Dependencies extracts the "services" object of a health payload.
// Values are passed through verbatim; non-string values keep their JSON text.
// A payload without a "services" object yields an empty map.
func Dependencies(raw json.RawMessage) map[string]string {
	deps := map[string]string{}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(raw, &payload); err != nil {
		return deps
	}

	services, ok := payload["services"]
	if !ok {
		return deps
	}

	var entries map[string]json.RawMessage
	if err := json.Unmarshal(services, &entries); err != nil {
		return deps
	}

	for name, value := range entries {
		var s string
		if err := json.Unmarshal(value, &s); err == nil {
			deps[name] = s
			continue
		}
		deps[name] = string(bytes.TrimSpace(value))
	}

	return deps
}
