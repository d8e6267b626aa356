package gameserver

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/chronique-jdr/chronique/internal/auth"
	"github.com/chronique-jdr/chronique/internal/game/combat"
	"github.com/chronique-jdr/chronique/internal/game/dice"
	"github.com/chronique-jdr/chronique/internal/ws"
)

// DiceService evaluates roll expressions and shares results with the table.
type DiceService struct {
	roller    *dice.Roller
	members   MembershipStore
	publisher Publisher
	logger    *zap.Logger
}

// NewDiceService creates a DiceService with the given dependencies.
//
// Precondition: all dependencies must be non-nil.
func NewDiceService(roller *dice.Roller, members MembershipStore, publisher Publisher, logger *zap.Logger) *DiceService {
	return &DiceService{
		roller:    roller,
		members:   members,
		publisher: publisher,
		logger:    logger,
	}
}

// Roll evaluates an expression like "2d6+3" and broadcasts the result to the
// campaign room. Only the numeric result is shared; rendering is the
// client's business.
//
// Precondition: the caller must be a member of the campaign.
func (s *DiceService) Roll(ctx context.Context, ident auth.Identity, campaignID int64, expr string) (DiceRolledPayload, error) {
	member, err := s.members.IsMember(ctx, campaignID, ident.AccountID)
	if err != nil {
		return DiceRolledPayload{}, fmt.Errorf("checking membership: %w", err)
	}
	if !member && ident.Role != auth.RoleAdmin {
		return DiceRolledPayload{}, fmt.Errorf("%w: not a member of campaign %d", combat.ErrForbidden, campaignID)
	}

	result, err := s.roller.RollExpr(expr)
	if err != nil {
		return DiceRolledPayload{}, fmt.Errorf("%w: %v", combat.ErrValidation, err)
	}

	payload := DiceRolledPayload{
		Roller:     ident.Username,
		Expression: result.Expression,
		Rolls:      result.Dice,
		Modifier:   result.Modifier,
		Total:      result.Total(),
	}
	if err := s.publisher.Broadcast(ws.CampaignRoom(campaignID), EventDiceRolled, payload); err != nil {
		s.logger.Error("dice broadcast failed",
			zap.Int64("campaign_id", campaignID),
			zap.Error(err),
		)
	}
	return payload, nil
}
