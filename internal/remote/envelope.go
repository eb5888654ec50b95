package remote

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
)

// Sheet names addressed by write and reset actions.
const (
	SheetActivities    = "Activities"
	SheetHotspots      = "Hotspots"
	SheetSettings      = "Settings"
	SheetFireIncidents = "FireIncidents"
)

// Actions exposed by the script endpoint.
const (
	actionGetActivities      = "getActivities"
	actionSaveActivity       = "saveActivity"
	actionDeleteActivity     = "deleteActivity"
	actionGetHotspots        = "getHotspots"
	actionSaveHotspot        = "saveHotspot"
	actionDeleteHotspot      = "deleteHotspot"
	actionGetSettings        = "getSettings"
	actionSaveSettings       = "saveSettings"
	actionGetFireIncidents   = "getFireIncidents"
	actionSaveFireIncident   = "saveFireIncident"
	actionSaveIncidentsBatch = "saveFireIncidentsBatch"
	actionDeleteFireIncident = "deleteFireIncident"
	actionReset              = "reset"
)

// envelope is the response shape every action returns.
type envelope struct {
	Status  string          `json:"status"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
}

// request is the POST body shape for write actions.
type request struct {
	Action   string `json:"action"`
	Sheet    string `json:"sheet,omitempty"`
	Data     any    `json:"data,omitempty"`
	IsUpdate bool   `json:"isUpdate,omitempty"`
	ID       string `json:"id,omitempty"`
}

// decodeEnvelope validates a response body against the envelope shape.
// Any body that does not decode is a protocol failure; the first bytes
// are included so a misrouted HTML page is recognizable in logs.
func decodeEnvelope(body []byte) (envelope, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return envelope{}, fmt.Errorf("%w: not a JSON envelope (body starts %q)", ErrProtocol, snippet(body))
	}
	switch env.Status {
	case "success":
		return env, nil
	case "error":
		msg := env.Message
		if msg == "" {
			msg = "no message provided"
		}
		return envelope{}, fmt.Errorf("%w: %s", ErrApplication, msg)
	default:
		return envelope{}, fmt.Errorf("%w: unknown envelope status %q", ErrProtocol, env.Status)
	}
}

// decodeList decodes a list payload tolerantly. A null or non-array
// payload yields an empty list; rows that fail to decode are dropped
// with a warning. The result is never nil.
func decodeList[T any](raw json.RawMessage, logger *log.Logger, kind string) []T {
	out := []T{}
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return out
	}

	var rows []json.RawMessage
	if err := json.Unmarshal(raw, &rows); err != nil {
		logger.Printf("WARNING: %s payload is not an array, treating as empty: %v", kind, err)
		return out
	}

	for i, row := range rows {
		var item T
		if err := json.Unmarshal(row, &item); err != nil {
			logger.Printf("WARNING: dropping undecodable %s row %d: %v", kind, i, err)
			continue
		}
		out = append(out, item)
	}
	return out
}

// snippet truncates a body for inclusion in an error message.
func snippet(body []byte) string {
	const max = 80
	b := bytes.TrimSpace(body)
	if len(b) > max {
		b = b[:max]
	}
	return string(b)
}
