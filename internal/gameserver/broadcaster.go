package gameserver

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chronique-jdr/chronique/internal/auth"
	"github.com/chronique-jdr/chronique/internal/game/campaign"
	"github.com/chronique-jdr/chronique/internal/game/combat"
	"github.com/chronique-jdr/chronique/internal/game/condition"
	"github.com/chronique-jdr/chronique/internal/ws"
)

// Publisher fans events out to a room. Satisfied by *ws.Hub.
type Publisher interface {
	Broadcast(room, eventType string, payload any) error
}

// CombatStore persists combat snapshots. Satisfied by
// *postgres.CombatRepository.
type CombatStore interface {
	Save(ctx context.Context, c *combat.Combat) error
}

// CampaignStore resolves campaigns for authorization checks. Satisfied by
// *postgres.CampaignRepository.
type CampaignStore interface {
	GetByID(ctx context.Context, id int64) (*campaign.Campaign, error)
}

// Broadcaster is the single entry point for combat mutations. It serialises
// mutations per combat through the engine, persists the accepted state before
// any fanout, and emits the corresponding events to the combat's room.
// Rejected mutations are returned to the caller only and never broadcast.
type Broadcaster struct {
	engine    *combat.Engine
	store     CombatStore
	campaigns CampaignStore
	publisher Publisher
	logger    *zap.Logger

	// rosterLimit caps the participant count of a single encounter.
	rosterLimit int

	// newID generates combat and participant IDs; overridable in tests.
	newID func() string
}

// defaultRosterLimit is the fallback roster cap when none is configured.
const defaultRosterLimit = 32

// NewBroadcaster creates a Broadcaster with the given dependencies.
//
// Precondition: all dependencies must be non-nil.
func NewBroadcaster(engine *combat.Engine, store CombatStore, campaigns CampaignStore, publisher Publisher, logger *zap.Logger) *Broadcaster {
	return &Broadcaster{
		engine:      engine,
		store:       store,
		campaigns:   campaigns,
		publisher:   publisher,
		logger:      logger,
		rosterLimit: defaultRosterLimit,
		newID:       uuid.NewString,
	}
}

// SetRosterLimit overrides the maximum participant count per encounter.
//
// Precondition: limit must be >= 2.
func (b *Broadcaster) SetRosterLimit(limit int) {
	b.rosterLimit = limit
}

// event is one queued fanout produced by an accepted mutation.
type event struct {
	eventType string
	payload   any
}

// ParticipantInput describes one roster entry in a start-combat request.
type ParticipantInput struct {
	Kind           string `json:"kind"`
	Name           string `json:"nom"`
	CharacterID    int64  `json:"characterId"`
	OwnerAccountID int64  `json:"ownerAccountId"`
	HPMax          int    `json:"pvMax"`
	HPCurrent      int    `json:"pvActuels"`
	TempHP         int    `json:"pvTemporaires"`
}

// StartCombat creates an encounter with its roster and registers it with the
// engine.
//
// Precondition: the caller must be the campaign's GM (or an admin).
// Postcondition: The combat is persisted in AwaitingInitiative and
// combat:started is emitted to the campaign room. The combat's own room is
// empty at this point; members join it with the combat ID this event
// carries.
func (b *Broadcaster) StartCombat(ctx context.Context, ident auth.Identity, campaignID int64, inputs []ParticipantInput) (CombatView, error) {
	camp, err := b.campaigns.GetByID(ctx, campaignID)
	if err != nil {
		return CombatView{}, fmt.Errorf("%w: campaign %d", combat.ErrNotFound, campaignID)
	}
	if !camp.IsGM(ident.AccountID) && ident.Role != auth.RoleAdmin {
		return CombatView{}, fmt.Errorf("%w: only the campaign GM may start a combat", combat.ErrForbidden)
	}
	if len(inputs) == 0 {
		return CombatView{}, fmt.Errorf("%w: a combat needs at least one participant", combat.ErrValidation)
	}
	if len(inputs) > b.rosterLimit {
		return CombatView{}, fmt.Errorf("%w: roster exceeds the limit of %d participants", combat.ErrValidation, b.rosterLimit)
	}

	cbt := combat.New(b.newID(), campaignID, ident.AccountID)
	for _, in := range inputs {
		kind, err := combat.ParseKind(in.Kind)
		if err != nil {
			return CombatView{}, err
		}
		_, err = cbt.AddParticipant(b.newID(), combat.ParticipantSpec{
			Kind:           kind,
			DisplayName:    in.Name,
			CharacterID:    in.CharacterID,
			OwnerAccountID: in.OwnerAccountID,
			HPMax:          in.HPMax,
			HPCurrent:      in.HPCurrent,
			TempHP:         in.TempHP,
		})
		if err != nil {
			return CombatView{}, err
		}
	}

	if err := b.store.Save(ctx, cbt); err != nil {
		return CombatView{}, fmt.Errorf("persisting combat: %w", err)
	}
	if err := b.engine.Register(cbt); err != nil {
		return CombatView{}, err
	}

	view := NewCombatView(cbt)
	b.publish(ws.CampaignRoom(campaignID), event{EventCombatStarted, CombatStartedPayload{
		CombatID:     cbt.ID,
		CampaignID:   campaignID,
		Participants: view.Participants,
		Order:        view.Order,
	}})
	b.logger.Info("combat started",
		zap.String("combat_id", cbt.ID),
		zap.Int64("campaign_id", campaignID),
		zap.Int("participants", len(view.Participants)),
	)
	return view, nil
}

// GetCombat returns the current snapshot for client (re)synchronisation.
func (b *Broadcaster) GetCombat(combatID string) (CombatView, error) {
	snap, err := b.engine.Snapshot(combatID)
	if err != nil {
		return CombatView{}, err
	}
	return NewCombatView(snap), nil
}

// RollInitiative records a participant's one allowed initiative roll.
//
// Precondition: the caller must be the combat's GM or the participant's
// owning player; value must be in [1, 30].
// Postcondition: Emits combat:initiative_rolled, plus
// combat:initiative_complete when this roll resolved the order.
func (b *Broadcaster) RollInitiative(ctx context.Context, ident auth.Identity, combatID, participantID string, value int) error {
	return b.mutate(ctx, combatID, func(cbt *combat.Combat) ([]event, error) {
		p, ok := cbt.Participant(participantID)
		if !ok {
			return nil, fmt.Errorf("%w: participant %q", combat.ErrNotFound, participantID)
		}
		if !canActFor(cbt, p, ident) {
			return nil, fmt.Errorf("%w: cannot roll for participant %q", combat.ErrForbidden, participantID)
		}

		complete, err := cbt.RollInitiative(participantID, value)
		if err != nil {
			return nil, err
		}

		events := []event{{EventInitiativeRolled, InitiativeRolledPayload{
			ParticipantID: participantID,
			Name:          p.DisplayName,
			Initiative:    value,
		}}}
		if complete {
			events = append(events, event{EventInitiativeComplete, InitiativeCompletePayload{
				Order: append([]string(nil), cbt.Order...),
			}})
		}
		return events, nil
	})
}

// ForceInitiative is the GM's privileged correction path: it overwrites a
// participant's initiative whether or not it was already rolled.
//
// Postcondition: Emits combat:initiative_rolled with the corrected value,
// plus combat:initiative_complete whenever the order was (re)resolved.
func (b *Broadcaster) ForceInitiative(ctx context.Context, ident auth.Identity, combatID, participantID string, value int) error {
	return b.mutate(ctx, combatID, func(cbt *combat.Combat) ([]event, error) {
		if !isGM(cbt, ident) {
			return nil, fmt.Errorf("%w: only the GM may force initiative", combat.ErrForbidden)
		}
		p, ok := cbt.Participant(participantID)
		if !ok {
			return nil, fmt.Errorf("%w: participant %q", combat.ErrNotFound, participantID)
		}

		resolved, err := cbt.ForceInitiative(participantID, value)
		if err != nil {
			return nil, err
		}

		events := []event{{EventInitiativeRolled, InitiativeRolledPayload{
			ParticipantID: participantID,
			Name:          p.DisplayName,
			Initiative:    value,
		}}}
		if resolved {
			events = append(events, event{EventInitiativeComplete, InitiativeCompletePayload{
				Order: append([]string(nil), cbt.Order...),
			}})
		}
		return events, nil
	})
}

// AdvanceTurn moves the cursor to the next participant in the resolved order.
//
// Precondition: the caller must be the combat's GM.
// Postcondition: Emits combat:turn_changed, plus combat:round_changed when
// the order wrapped.
func (b *Broadcaster) AdvanceTurn(ctx context.Context, ident auth.Identity, combatID string) error {
	return b.mutate(ctx, combatID, func(cbt *combat.Combat) ([]event, error) {
		if !isGM(cbt, ident) {
			return nil, fmt.Errorf("%w: only the GM may advance the turn", combat.ErrForbidden)
		}
		wrapped, err := cbt.AdvanceTurn()
		if err != nil {
			return nil, err
		}
		return turnEvents(cbt, wrapped), nil
	})
}

// AdvanceRound advances turns until the order wraps, starting the next round.
//
// Precondition: the caller must be the combat's GM.
// Postcondition: Emits combat:turn_changed and combat:round_changed.
func (b *Broadcaster) AdvanceRound(ctx context.Context, ident auth.Identity, combatID string) error {
	return b.mutate(ctx, combatID, func(cbt *combat.Combat) ([]event, error) {
		if !isGM(cbt, ident) {
			return nil, fmt.Errorf("%w: only the GM may advance the round", combat.ErrForbidden)
		}
		for {
			wrapped, err := cbt.AdvanceTurn()
			if err != nil {
				return nil, err
			}
			if wrapped {
				return turnEvents(cbt, true), nil
			}
		}
	})
}

// DeclareAction relays the active participant's declared action to the room.
// Actions are gated to the participant whose turn it is.
//
// Precondition: the caller must be the combat's GM or the active
// participant's owning player.
func (b *Broadcaster) DeclareAction(ctx context.Context, ident auth.Identity, combatID, participantID, action string) error {
	return b.mutate(ctx, combatID, func(cbt *combat.Combat) ([]event, error) {
		if action == "" {
			return nil, fmt.Errorf("%w: action must not be empty", combat.ErrValidation)
		}
		current, ok := cbt.CurrentParticipant()
		if !ok {
			return nil, fmt.Errorf("%w: no active turn", combat.ErrInvalidCombatState)
		}
		if current.ID != participantID {
			return nil, fmt.Errorf("%w: it is not participant %q's turn", combat.ErrInvalidCombatState, participantID)
		}
		if !canActFor(cbt, current, ident) {
			return nil, fmt.Errorf("%w: cannot act for participant %q", combat.ErrForbidden, participantID)
		}
		return []event{{EventActionDeclared, ActionDeclaredPayload{
			ParticipantID: participantID,
			Action:        action,
		}}}, nil
	})
}

// UpdateHP applies one hit point mutation to a participant.
//
// Precondition: the caller must be the combat's GM or the participant's
// owning player.
// Postcondition: Emits combat:hp_updated, plus the threshold event
// (participant_ko, participant_died, or participant_revived) when the zero
// boundary was crossed.
func (b *Broadcaster) UpdateHP(ctx context.Context, ident auth.Identity, combatID, participantID string, upd combat.HPUpdate) error {
	return b.mutate(ctx, combatID, func(cbt *combat.Combat) ([]event, error) {
		p, ok := cbt.Participant(participantID)
		if !ok {
			return nil, fmt.Errorf("%w: participant %q", combat.ErrNotFound, participantID)
		}
		if !canActFor(cbt, p, ident) {
			return nil, fmt.Errorf("%w: cannot adjust hp for participant %q", combat.ErrForbidden, participantID)
		}

		res, err := cbt.ApplyHP(participantID, upd)
		if err != nil {
			return nil, err
		}

		events := []event{{EventHPUpdated, HPUpdatedPayload{
			ParticipantID: res.ParticipantID,
			HPCurrent:     res.HPCurrent,
			HPMax:         res.HPMax,
			TempHP:        res.TempHP,
		}}}
		switch res.Transition {
		case combat.TransitionKO:
			events = append(events, event{EventParticipantKO, ParticipantPayload{participantID}})
		case combat.TransitionDied:
			events = append(events, event{EventParticipantDied, ParticipantPayload{participantID}})
		case combat.TransitionRevived:
			events = append(events, event{EventParticipantRevived, ParticipantPayload{participantID}})
		}
		return events, nil
	})
}

// AddCondition attaches a condition to a participant.
//
// Precondition: the caller must be the combat's GM.
// Postcondition: Emits combat:condition_added.
func (b *Broadcaster) AddCondition(ctx context.Context, ident auth.Identity, combatID, participantID string, cond condition.Condition) error {
	return b.mutate(ctx, combatID, func(cbt *combat.Combat) ([]event, error) {
		if !isGM(cbt, ident) {
			return nil, fmt.Errorf("%w: only the GM may add conditions", combat.ErrForbidden)
		}
		if cond.ID == "" {
			cond.ID = b.newID()
		}
		if err := cbt.AddCondition(participantID, cond); err != nil {
			return nil, err
		}
		return []event{{EventConditionAdded, ConditionAddedPayload{
			ParticipantID: participantID,
			Condition:     cond,
		}}}, nil
	})
}

// RemoveCondition detaches a condition from a participant. Removing an absent
// condition still succeeds for an existing participant.
//
// Precondition: the caller must be the combat's GM.
// Postcondition: Emits combat:condition_removed.
func (b *Broadcaster) RemoveCondition(ctx context.Context, ident auth.Identity, combatID, participantID, conditionID string) error {
	return b.mutate(ctx, combatID, func(cbt *combat.Combat) ([]event, error) {
		if !isGM(cbt, ident) {
			return nil, fmt.Errorf("%w: only the GM may remove conditions", combat.ErrForbidden)
		}
		if err := cbt.RemoveCondition(participantID, conditionID); err != nil {
			return nil, err
		}
		return []event{{EventConditionRemoved, ConditionRemovedPayload{
			ParticipantID: participantID,
			ConditionID:   conditionID,
		}}}, nil
	})
}

// EndCombat transitions the encounter to its terminal state.
//
// Precondition: the caller must be the combat's GM.
// Postcondition: Emits combat:ended exactly once; a second call fails with
// InvalidCombatState and emits nothing.
func (b *Broadcaster) EndCombat(ctx context.Context, ident auth.Identity, combatID string) error {
	err := b.mutate(ctx, combatID, func(cbt *combat.Combat) ([]event, error) {
		if !isGM(cbt, ident) {
			return nil, fmt.Errorf("%w: only the GM may end the combat", combat.ErrForbidden)
		}
		summary, err := cbt.End()
		if err != nil {
			return nil, err
		}
		return []event{{EventCombatEnded, CombatEndedPayload{
			CombatID: combatID,
			Summary:  summary,
		}}}, nil
	})
	if err != nil {
		return err
	}
	b.engine.Remove(combatID)
	return nil
}

// mutate is the serialized write path: fn runs under the combat's lock, the
// new state is persisted, and fn's events are fanned out before the lock is
// released. Publishing under the lock keeps the room's event stream in the
// exact order the mutations were applied, so clients can fold events into
// local state without re-fetching. A persistence failure aborts the mutation
// without any broadcast.
func (b *Broadcaster) mutate(ctx context.Context, combatID string, fn func(*combat.Combat) ([]event, error)) error {
	return b.engine.Mutate(combatID, func(cbt *combat.Combat) error {
		backup := cbt.Clone()
		events, err := fn(cbt)
		if err != nil {
			return err
		}
		if err := b.store.Save(ctx, cbt); err != nil {
			// Roll the in-memory state back so it never runs ahead of
			// what the table can re-fetch from storage.
			*cbt = *backup
			return fmt.Errorf("persisting combat: %w", err)
		}
		b.publish(ws.CombatRoom(combatID), events...)
		return nil
	})
}

func (b *Broadcaster) publish(room string, events ...event) {
	for _, ev := range events {
		if err := b.publisher.Broadcast(room, ev.eventType, ev.payload); err != nil {
			b.logger.Error("broadcast failed",
				zap.String("room", room),
				zap.String("event", ev.eventType),
				zap.Error(err),
			)
		}
	}
}

func turnEvents(cbt *combat.Combat, wrapped bool) []event {
	current := ""
	if p, ok := cbt.CurrentParticipant(); ok {
		current = p.ID
	}
	events := []event{{EventTurnChanged, TurnChangedPayload{
		CurrentParticipant: current,
		TurnIndex:          cbt.TurnIndex,
		Round:              cbt.Round,
	}}}
	if wrapped {
		events = append(events, event{EventRoundChanged, RoundChangedPayload{Round: cbt.Round}})
	}
	return events
}

// isGM reports whether the identity runs this encounter.
func isGM(cbt *combat.Combat, ident auth.Identity) bool {
	return cbt.GMAccountID == ident.AccountID || ident.Role == auth.RoleAdmin
}

// canActFor reports whether the identity may mutate this participant: the GM
// may act for anyone, a player only for a participant bound to their account.
func canActFor(cbt *combat.Combat, p *combat.Participant, ident auth.Identity) bool {
	if isGM(cbt, ident) {
		return true
	}
	return p.OwnerAccountID != 0 && p.OwnerAccountID == ident.AccountID
}
