package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chronique-jdr/chronique/internal/game/campaign"
)

// ErrCampaignNotFound is returned when a campaign lookup yields no results.
var ErrCampaignNotFound = errors.New("campaign not found")

// ErrAlreadyMember is returned when adding an account already in the campaign.
var ErrAlreadyMember = errors.New("account is already a campaign member")

// CampaignRepository provides campaign and membership persistence operations.
type CampaignRepository struct {
	db *pgxpool.Pool
}

// NewCampaignRepository creates a CampaignRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewCampaignRepository(db *pgxpool.Pool) *CampaignRepository {
	return &CampaignRepository{db: db}
}

// Create inserts a campaign and enrols its GM as the first member in one
// transaction.
//
// Precondition: c must pass Validate.
// Postcondition: Returns the created campaign with ID and timestamps set.
func (r *CampaignRepository) Create(ctx context.Context, c *campaign.Campaign) (*campaign.Campaign, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	var out campaign.Campaign
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO campaigns (name, description, gm_account_id)
			VALUES ($1, $2, $3)
			RETURNING id, name, description, gm_account_id, created_at, updated_at`,
			c.Name, c.Description, c.GMAccountID,
		).Scan(&out.ID, &out.Name, &out.Description, &out.GMAccountID, &out.CreatedAt, &out.UpdatedAt)
		if err != nil {
			return fmt.Errorf("inserting campaign: %w", err)
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO campaign_members (campaign_id, account_id)
			VALUES ($1, $2)`,
			out.ID, out.GMAccountID,
		)
		if err != nil {
			return fmt.Errorf("enrolling gm: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetByID retrieves a campaign by its primary key.
//
// Postcondition: Returns the campaign or ErrCampaignNotFound.
func (r *CampaignRepository) GetByID(ctx context.Context, id int64) (*campaign.Campaign, error) {
	var c campaign.Campaign
	err := r.db.QueryRow(ctx, `
		SELECT id, name, description, gm_account_id, created_at, updated_at
		FROM campaigns WHERE id = $1`,
		id,
	).Scan(&c.ID, &c.Name, &c.Description, &c.GMAccountID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCampaignNotFound
		}
		return nil, fmt.Errorf("querying campaign: %w", err)
	}
	return &c, nil
}

// ListByMember returns all campaigns the account belongs to, ordered by
// creation time.
//
// Postcondition: Returns a slice (may be empty) or a non-nil error.
func (r *CampaignRepository) ListByMember(ctx context.Context, accountID int64) ([]*campaign.Campaign, error) {
	rows, err := r.db.Query(ctx, `
		SELECT c.id, c.name, c.description, c.gm_account_id, c.created_at, c.updated_at
		FROM campaigns c
		JOIN campaign_members m ON m.campaign_id = c.id
		WHERE m.account_id = $1
		ORDER BY c.created_at ASC`,
		accountID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing campaigns: %w", err)
	}
	defer rows.Close()

	out := make([]*campaign.Campaign, 0)
	for rows.Next() {
		var c campaign.Campaign
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.GMAccountID, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning campaign row: %w", err)
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

// AddMember enrols an account in a campaign.
//
// Postcondition: Returns ErrAlreadyMember on duplicate enrolment and
// ErrCampaignNotFound when the campaign does not exist.
func (r *CampaignRepository) AddMember(ctx context.Context, campaignID, accountID int64) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO campaign_members (campaign_id, account_id)
		VALUES ($1, $2)`,
		campaignID, accountID,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrAlreadyMember
		}
		if isForeignKeyError(err) {
			return ErrCampaignNotFound
		}
		return fmt.Errorf("adding member: %w", err)
	}
	return nil
}

// RemoveMember withdraws an account from a campaign. Removing an account
// that is not a member is a no-op.
func (r *CampaignRepository) RemoveMember(ctx context.Context, campaignID, accountID int64) error {
	_, err := r.db.Exec(ctx, `
		DELETE FROM campaign_members
		WHERE campaign_id = $1 AND account_id = $2`,
		campaignID, accountID,
	)
	if err != nil {
		return fmt.Errorf("removing member: %w", err)
	}
	return nil
}

// IsMember reports whether the account belongs to the campaign.
func (r *CampaignRepository) IsMember(ctx context.Context, campaignID, accountID int64) (bool, error) {
	var member bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM campaign_members
			WHERE campaign_id = $1 AND account_id = $2
		)`,
		campaignID, accountID,
	).Scan(&member)
	if err != nil {
		return false, fmt.Errorf("checking membership: %w", err)
	}
	return member, nil
}

// ListMembers returns the memberships of a campaign, ordered by join time.
func (r *CampaignRepository) ListMembers(ctx context.Context, campaignID int64) ([]campaign.Member, error) {
	rows, err := r.db.Query(ctx, `
		SELECT campaign_id, account_id, joined_at
		FROM campaign_members
		WHERE campaign_id = $1
		ORDER BY joined_at ASC`,
		campaignID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing members: %w", err)
	}
	defer rows.Close()

	out := make([]campaign.Member, 0)
	for rows.Next() {
		var m campaign.Member
		if err := rows.Scan(&m.CampaignID, &m.AccountID, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("scanning member row: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
