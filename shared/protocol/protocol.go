package protocol

import "encoding/json"

// Envelope
type MsgEnvelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type ErrorMsg struct {
	Message string `json:"message"`
	// Reason is set when an action was refused by an eligibility check.
	Reason string `json:"reason,omitempty"`
}
