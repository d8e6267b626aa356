package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chronique-jdr/chronique/internal/game/character"
)

// ErrCharacterNotFound is returned when a character lookup yields no results.
var ErrCharacterNotFound = errors.New("character not found")

// ErrCharacterNameTaken is returned when creating a character whose name is
// already used within the campaign.
var ErrCharacterNameTaken = errors.New("character name already taken")

// CharacterRepository provides character-sheet persistence operations.
type CharacterRepository struct {
	db *pgxpool.Pool
}

// NewCharacterRepository creates a CharacterRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewCharacterRepository(db *pgxpool.Pool) *CharacterRepository {
	return &CharacterRepository{db: db}
}

const characterColumns = `
	id, campaign_id, owner_account_id, name, race, class, level,
	strength, dexterity, constitution, intelligence, wisdom, charisma,
	max_hp, current_hp, temp_hp, created_at, updated_at`

func scanCharacter(row pgx.Row) (*character.Character, error) {
	var c character.Character
	err := row.Scan(
		&c.ID, &c.CampaignID, &c.OwnerAccountID, &c.Name, &c.Race, &c.Class, &c.Level,
		&c.Abilities.Strength, &c.Abilities.Dexterity, &c.Abilities.Constitution,
		&c.Abilities.Intelligence, &c.Abilities.Wisdom, &c.Abilities.Charisma,
		&c.MaxHP, &c.CurrentHP, &c.TempHP, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Create inserts a new character and returns it with ID and timestamps set.
//
// Precondition: c must pass Validate.
// Postcondition: Returns the created character, or ErrCharacterNameTaken when
// the campaign already has a character with that name.
func (r *CharacterRepository) Create(ctx context.Context, c *character.Character) (*character.Character, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	out, err := scanCharacter(r.db.QueryRow(ctx, `
		INSERT INTO characters
			(campaign_id, owner_account_id, name, race, class, level,
			 strength, dexterity, constitution, intelligence, wisdom, charisma,
			 max_hp, current_hp, temp_hp)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		RETURNING`+characterColumns,
		c.CampaignID, c.OwnerAccountID, c.Name, c.Race, c.Class, c.Level,
		c.Abilities.Strength, c.Abilities.Dexterity, c.Abilities.Constitution,
		c.Abilities.Intelligence, c.Abilities.Wisdom, c.Abilities.Charisma,
		c.MaxHP, c.CurrentHP, c.TempHP,
	))
	if err != nil {
		if isDuplicateKeyError(err) {
			return nil, ErrCharacterNameTaken
		}
		return nil, fmt.Errorf("inserting character: %w", err)
	}
	return out, nil
}

// GetByID retrieves a character by its primary key.
//
// Postcondition: Returns the character or ErrCharacterNotFound.
func (r *CharacterRepository) GetByID(ctx context.Context, id int64) (*character.Character, error) {
	c, err := scanCharacter(r.db.QueryRow(ctx,
		`SELECT`+characterColumns+` FROM characters WHERE id = $1`, id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCharacterNotFound
		}
		return nil, fmt.Errorf("querying character: %w", err)
	}
	return c, nil
}

// ListByCampaign returns all characters in a campaign, ordered by creation time.
//
// Postcondition: Returns a slice (may be empty) or a non-nil error.
func (r *CharacterRepository) ListByCampaign(ctx context.Context, campaignID int64) ([]*character.Character, error) {
	return r.list(ctx, `campaign_id`, campaignID)
}

// ListByOwner returns all characters owned by an account, across campaigns.
func (r *CharacterRepository) ListByOwner(ctx context.Context, accountID int64) ([]*character.Character, error) {
	return r.list(ctx, `owner_account_id`, accountID)
}

func (r *CharacterRepository) list(ctx context.Context, column string, id int64) ([]*character.Character, error) {
	rows, err := r.db.Query(ctx,
		`SELECT`+characterColumns+` FROM characters WHERE `+column+` = $1 ORDER BY created_at ASC`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("listing characters: %w", err)
	}
	defer rows.Close()

	chars := make([]*character.Character, 0)
	for rows.Next() {
		c, err := scanCharacter(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning character row: %w", err)
		}
		chars = append(chars, c)
	}
	return chars, rows.Err()
}

// Update persists edits to an existing character sheet.
//
// Precondition: c.ID must be > 0 and c must pass Validate.
// Postcondition: Returns ErrCharacterNotFound if no row was updated.
func (r *CharacterRepository) Update(ctx context.Context, c *character.Character) error {
	if err := c.Validate(); err != nil {
		return err
	}

	tag, err := r.db.Exec(ctx, `
		UPDATE characters SET
			name = $2, race = $3, class = $4, level = $5,
			strength = $6, dexterity = $7, constitution = $8,
			intelligence = $9, wisdom = $10, charisma = $11,
			max_hp = $12, current_hp = $13, temp_hp = $14,
			updated_at = NOW()
		WHERE id = $1`,
		c.ID, c.Name, c.Race, c.Class, c.Level,
		c.Abilities.Strength, c.Abilities.Dexterity, c.Abilities.Constitution,
		c.Abilities.Intelligence, c.Abilities.Wisdom, c.Abilities.Charisma,
		c.MaxHP, c.CurrentHP, c.TempHP,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrCharacterNameTaken
		}
		return fmt.Errorf("updating character: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCharacterNotFound
	}
	return nil
}

// SaveVitals persists the hit point pools after a combat writes them back to
// the sheet.
//
// Postcondition: Returns ErrCharacterNotFound if no row was updated.
func (r *CharacterRepository) SaveVitals(ctx context.Context, id int64, currentHP, tempHP int) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE characters SET current_hp = $2, temp_hp = $3, updated_at = NOW()
		WHERE id = $1`,
		id, currentHP, tempHP,
	)
	if err != nil {
		return fmt.Errorf("saving character vitals: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCharacterNotFound
	}
	return nil
}

// Delete removes a character and its inventory rows.
//
// Postcondition: Returns ErrCharacterNotFound if no row was deleted.
func (r *CharacterRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM characters WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting character: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCharacterNotFound
	}
	return nil
}
