package gameserver

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/chronique-jdr/chronique/internal/auth"
	"github.com/chronique-jdr/chronique/internal/game/combat"
	"github.com/chronique-jdr/chronique/internal/storage/postgres"
	"github.com/chronique-jdr/chronique/internal/ws"
)

// maxMessageLength caps a single chat line.
const maxMessageLength = 2000

// defaultHistoryLimit is the number of lines returned when a client opens
// the chat panel.
const defaultHistoryLimit = 50

// MessageStore persists chat lines. Satisfied by *postgres.MessageRepository.
type MessageStore interface {
	Append(ctx context.Context, m postgres.Message) (postgres.Message, error)
	ListRecent(ctx context.Context, campaignID int64, room string, limit int) ([]postgres.Message, error)
}

// MembershipStore answers campaign membership questions. Satisfied by
// *postgres.CampaignRepository.
type MembershipStore interface {
	IsMember(ctx context.Context, campaignID, accountID int64) (bool, error)
}

// ChatService persists table chat and relays it to the campaign room.
type ChatService struct {
	messages  MessageStore
	members   MembershipStore
	publisher Publisher
	logger    *zap.Logger
}

// NewChatService creates a ChatService with the given dependencies.
//
// Precondition: all dependencies must be non-nil.
func NewChatService(messages MessageStore, members MembershipStore, publisher Publisher, logger *zap.Logger) *ChatService {
	return &ChatService{
		messages:  messages,
		members:   members,
		publisher: publisher,
		logger:    logger,
	}
}

// Send persists one chat line and relays it to the campaign room. The line
// is broadcast only after the insert succeeds.
//
// Precondition: the caller must be a member of the campaign.
func (s *ChatService) Send(ctx context.Context, ident auth.Identity, campaignID int64, body string) (ChatMessagePayload, error) {
	if body == "" || len(body) > maxMessageLength {
		return ChatMessagePayload{}, fmt.Errorf("%w: message must be 1 to %d characters", combat.ErrValidation, maxMessageLength)
	}
	member, err := s.members.IsMember(ctx, campaignID, ident.AccountID)
	if err != nil {
		return ChatMessagePayload{}, fmt.Errorf("checking membership: %w", err)
	}
	if !member && ident.Role != auth.RoleAdmin {
		return ChatMessagePayload{}, fmt.Errorf("%w: not a member of campaign %d", combat.ErrForbidden, campaignID)
	}

	room := ws.CampaignRoom(campaignID)
	msg, err := s.messages.Append(ctx, postgres.Message{
		CampaignID:      campaignID,
		AuthorAccountID: ident.AccountID,
		Room:            room,
		Body:            body,
	})
	if err != nil {
		return ChatMessagePayload{}, fmt.Errorf("persisting message: %w", err)
	}

	payload := ChatMessagePayload{
		MessageID:  msg.ID,
		CampaignID: campaignID,
		Author:     ident.Username,
		Body:       msg.Body,
		SentAt:     msg.CreatedAt.Format(time.RFC3339),
	}
	if err := s.publisher.Broadcast(room, EventChatMessage, payload); err != nil {
		s.logger.Error("chat broadcast failed",
			zap.Int64("campaign_id", campaignID),
			zap.Error(err),
		)
	}
	return payload, nil
}

// History returns the latest chat lines for the campaign room, oldest first.
//
// Precondition: the caller must be a member of the campaign.
func (s *ChatService) History(ctx context.Context, ident auth.Identity, campaignID int64) ([]postgres.Message, error) {
	member, err := s.members.IsMember(ctx, campaignID, ident.AccountID)
	if err != nil {
		return nil, fmt.Errorf("checking membership: %w", err)
	}
	if !member && ident.Role != auth.RoleAdmin {
		return nil, fmt.Errorf("%w: not a member of campaign %d", combat.ErrForbidden, campaignID)
	}
	return s.messages.ListRecent(ctx, campaignID, ws.CampaignRoom(campaignID), defaultHistoryLimit)
}
