// Package gameserver implements the realtime game services behind the socket
// and REST surfaces: the combat session broadcaster, table chat, and dice
// rolls. Each accepted mutation produces exactly one event (or an agreed
// burst, such as a turn change plus a round change) to the relevant room;
// rejected mutations produce none.
package gameserver

import (
	"github.com/chronique-jdr/chronique/internal/game/combat"
	"github.com/chronique-jdr/chronique/internal/game/condition"
)

// Socket event types, client to server.
const (
	EventCombatJoin   = "combat:join"
	EventCombatLeave  = "combat:leave"
	EventCampaignJoin = "campaign:join"
)

// Socket event types, server to clients.
const (
	EventCombatStarted      = "combat:started"
	EventInitiativeRolled   = "combat:initiative_rolled"
	EventInitiativeComplete = "combat:initiative_complete"
	EventTurnChanged        = "combat:turn_changed"
	EventRoundChanged       = "combat:round_changed"
	EventHPUpdated          = "combat:hp_updated"
	EventConditionAdded     = "combat:condition_added"
	EventConditionRemoved   = "combat:condition_removed"
	EventParticipantKO      = "combat:participant_ko"
	EventParticipantDied    = "combat:participant_died"
	EventParticipantRevived = "combat:participant_revived"
	EventActionDeclared     = "combat:action"
	EventCombatEnded        = "combat:ended"
	EventCombatState        = "combat:state"
	EventChatMessage        = "chat:message"
	EventDiceRolled         = "dice:rolled"
)

// The payload field names below are the browser client's contract and keep
// its spellings; do not rename them.

// ParticipantView is the wire representation of one participant.
type ParticipantView struct {
	ID          string                `json:"id"`
	Kind        string                `json:"kind"`
	Name        string                `json:"nom"`
	CharacterID int64                 `json:"characterId,omitempty"`
	HPCurrent   int                   `json:"pvActuels"`
	HPMax       int                   `json:"pvMax"`
	TempHP      int                   `json:"pvTemporaires"`
	Initiative  *int                  `json:"initiative"`
	Conditions  []condition.Condition `json:"conditions"`
}

// CombatView is the full snapshot a client renders from, returned by
// getCombat and sent on room join. Reconnecting clients re-fetch this
// instead of replaying missed events.
type CombatView struct {
	ID           string            `json:"combatId"`
	CampaignID   int64             `json:"campaignId"`
	Status       string            `json:"statut"`
	Round        int               `json:"roundActuel"`
	TurnIndex    int               `json:"tourActuelIndex"`
	Order        []string          `json:"ordreInitiative"`
	Participants []ParticipantView `json:"participants"`
}

// NewParticipantView converts a participant snapshot to its wire form.
func NewParticipantView(p *combat.Participant) ParticipantView {
	v := ParticipantView{
		ID:          p.ID,
		Kind:        p.Kind.String(),
		Name:        p.DisplayName,
		CharacterID: p.CharacterID,
		HPCurrent:   p.HPCurrent,
		HPMax:       p.HPMax,
		TempHP:      p.TempHP,
		Conditions:  p.Conditions.All(),
	}
	if p.Rolled {
		value := p.Initiative
		v.Initiative = &value
	}
	return v
}

// NewCombatView converts a combat snapshot to its wire form.
//
// Precondition: c must be a private snapshot (Engine.Snapshot), not live
// engine state.
func NewCombatView(c *combat.Combat) CombatView {
	v := CombatView{
		ID:         c.ID,
		CampaignID: c.CampaignID,
		Status:     c.Status.String(),
		Round:      c.Round,
		TurnIndex:  c.TurnIndex,
		Order:      c.Order,
	}
	if v.Order == nil {
		v.Order = []string{}
	}
	v.Participants = make([]ParticipantView, 0, len(c.Participants))
	for _, p := range c.Participants {
		v.Participants = append(v.Participants, NewParticipantView(p))
	}
	return v
}

// CombatStartedPayload announces a freshly created encounter. It goes to the
// campaign room: the combat's own room has no members yet, and clients use
// the combat ID here to join it.
type CombatStartedPayload struct {
	CombatID     string            `json:"combatId"`
	CampaignID   int64             `json:"campaignId"`
	Participants []ParticipantView `json:"participants"`
	Order        []string          `json:"ordreInitiative"`
}

// InitiativeRolledPayload announces one accepted initiative roll.
type InitiativeRolledPayload struct {
	ParticipantID string `json:"participantId"`
	Name          string `json:"nom"`
	Initiative    int    `json:"initiative"`
}

// InitiativeCompletePayload carries the resolved turn order.
type InitiativeCompletePayload struct {
	Order []string `json:"ordreInitiative"`
}

// TurnChangedPayload announces the new active participant.
type TurnChangedPayload struct {
	CurrentParticipant string `json:"currentParticipant"`
	TurnIndex          int    `json:"tourActuelIndex"`
	Round              int    `json:"roundActuel"`
}

// RoundChangedPayload announces a round boundary.
type RoundChangedPayload struct {
	Round int `json:"roundActuel"`
}

// HPUpdatedPayload announces a participant's new hit point pools.
type HPUpdatedPayload struct {
	ParticipantID string `json:"participantId"`
	HPCurrent     int    `json:"pvActuels"`
	HPMax         int    `json:"pvMax"`
	TempHP        int    `json:"pvTemporaires"`
}

// ConditionAddedPayload announces a condition attached to a participant.
type ConditionAddedPayload struct {
	ParticipantID string              `json:"participantId"`
	Condition     condition.Condition `json:"condition"`
}

// ConditionRemovedPayload announces a condition detached from a participant.
type ConditionRemovedPayload struct {
	ParticipantID string `json:"participantId"`
	ConditionID   string `json:"conditionId"`
}

// ParticipantPayload carries the participant an event is about.
type ParticipantPayload struct {
	ParticipantID string `json:"participantId"`
}

// ActionDeclaredPayload relays the active participant's declared action.
type ActionDeclaredPayload struct {
	ParticipantID string `json:"participantId"`
	Action        string `json:"action"`
}

// CombatEndedPayload carries the end-of-combat statistics.
type CombatEndedPayload struct {
	CombatID string         `json:"combatId"`
	Summary  combat.Summary `json:"statistiques"`
}

// ChatMessagePayload relays one persisted table-chat line.
type ChatMessagePayload struct {
	MessageID  int64  `json:"messageId"`
	CampaignID int64  `json:"campaignId"`
	Author     string `json:"auteur"`
	Body       string `json:"contenu"`
	SentAt     string `json:"envoyeLe"`
}

// DiceRolledPayload relays one dice roll result to the table.
type DiceRolledPayload struct {
	Roller     string `json:"lanceur"`
	Expression string `json:"expression"`
	Rolls      []int  `json:"des"`
	Modifier   int    `json:"modificateur"`
	Total      int    `json:"total"`
}
