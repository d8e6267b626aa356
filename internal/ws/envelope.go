// Package ws implements the realtime fanout layer: a room-based hub that
// relays JSON envelopes to websocket subscribers. Combat events for an
// encounter go to its combat room; table chat and dice rolls go to campaign
// rooms.
package ws

import (
	"encoding/json"
	"fmt"
)

// Envelope is the wire frame for every socket message, inbound and outbound.
// Type names the event; Payload carries the event-specific body.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewEnvelope marshals payload into a ready-to-send Envelope.
//
// Precondition: payload must be JSON-marshalable.
func NewEnvelope(eventType string, payload any) (Envelope, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshaling %s payload: %w", eventType, err)
	}
	return Envelope{Type: eventType, Payload: body}, nil
}

// Encode returns the envelope as a JSON frame.
func (e Envelope) Encode() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshaling envelope: %w", err)
	}
	return data, nil
}

// CombatRoom returns the room name for an encounter's event stream.
func CombatRoom(combatID string) string {
	return "combat_" + combatID
}

// CampaignRoom returns the room name for a campaign's table chat.
func CampaignRoom(campaignID int64) string {
	return fmt.Sprintf("campaign_%d", campaignID)
}
