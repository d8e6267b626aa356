package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Message is one persisted chat line in a campaign room.
type Message struct {
	ID              int64
	CampaignID      int64
	AuthorAccountID int64
	Room            string
	Body            string
	CreatedAt       time.Time
}

// MessageRepository provides chat-history persistence operations.
type MessageRepository struct {
	db *pgxpool.Pool
}

// NewMessageRepository creates a MessageRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewMessageRepository(db *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{db: db}
}

// Append stores one chat line and returns it with ID and CreatedAt set.
//
// Precondition: m.Body must be non-empty; m.Room identifies the fanout room.
func (r *MessageRepository) Append(ctx context.Context, m Message) (Message, error) {
	err := r.db.QueryRow(ctx, `
		INSERT INTO messages (campaign_id, author_account_id, room, body)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		m.CampaignID, m.AuthorAccountID, m.Room, m.Body,
	).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return Message{}, fmt.Errorf("inserting message: %w", err)
	}
	return m, nil
}

// ListRecent returns the latest limit messages for a room, oldest first.
//
// Precondition: limit must be >= 1.
func (r *MessageRepository) ListRecent(ctx context.Context, campaignID int64, room string, limit int) ([]Message, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, campaign_id, author_account_id, room, body, created_at
		FROM (
			SELECT id, campaign_id, author_account_id, room, body, created_at
			FROM messages
			WHERE campaign_id = $1 AND room = $2
			ORDER BY id DESC
			LIMIT $3
		) latest
		ORDER BY id ASC`,
		campaignID, room, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	defer rows.Close()

	out := make([]Message, 0)
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.CampaignID, &m.AuthorAccountID, &m.Room, &m.Body, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning message row: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
