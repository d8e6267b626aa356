package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chronique-jdr/chronique/internal/game/combat"
	"github.com/chronique-jdr/chronique/internal/game/condition"
)

// ErrCombatNotFound is returned when a combat lookup yields no results.
var ErrCombatNotFound = errors.New("combat not found")

// CombatRepository persists encounter snapshots. The whole combat (row,
// participants, conditions) is written in one transaction so a crash never
// leaves a half-saved encounter.
type CombatRepository struct {
	db *pgxpool.Pool
}

// NewCombatRepository creates a CombatRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewCombatRepository(db *pgxpool.Pool) *CombatRepository {
	return &CombatRepository{db: db}
}

// Save upserts the full combat snapshot.
//
// Precondition: c must be a consistent snapshot (take it via Engine.Snapshot
// or inside Engine.Mutate).
// Postcondition: A subsequent Load returns an equivalent combat.
func (r *CombatRepository) Save(ctx context.Context, c *combat.Combat) error {
	return withTx(ctx, r.db, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO combats (id, campaign_id, gm_account_id, status, round, turn_index, turn_order)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (id) DO UPDATE SET
				status = EXCLUDED.status,
				round = EXCLUDED.round,
				turn_index = EXCLUDED.turn_index,
				turn_order = EXCLUDED.turn_order,
				updated_at = NOW()`,
			c.ID, c.CampaignID, c.GMAccountID, c.Status.String(), c.Round, c.TurnIndex, c.Order,
		)
		if err != nil {
			return fmt.Errorf("upserting combat: %w", err)
		}

		// Participants are replaced wholesale; the roster is small and the
		// snapshot is the source of truth.
		if _, err := tx.Exec(ctx,
			`DELETE FROM combat_participants WHERE combat_id = $1`, c.ID,
		); err != nil {
			return fmt.Errorf("clearing participants: %w", err)
		}

		for pos, p := range c.Participants {
			var initiative *int
			if p.Rolled {
				v := p.Initiative
				initiative = &v
			}
			_, err := tx.Exec(ctx, `
				INSERT INTO combat_participants
					(combat_id, participant_id, position, kind, display_name,
					 character_id, owner_account_id, hp_current, hp_max, temp_hp, initiative)
				VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
				c.ID, p.ID, pos, p.Kind.String(), p.DisplayName,
				nullableID(p.CharacterID), nullableID(p.OwnerAccountID),
				p.HPCurrent, p.HPMax, p.TempHP, initiative,
			)
			if err != nil {
				return fmt.Errorf("inserting participant %q: %w", p.ID, err)
			}

			for condPos, cond := range p.Conditions.All() {
				_, err := tx.Exec(ctx, `
					INSERT INTO participant_conditions
						(combat_id, participant_id, position, condition_id, name, metadata)
					VALUES ($1, $2, $3, $4, $5, $6)`,
					c.ID, p.ID, condPos, cond.ID, cond.Name, cond.Metadata,
				)
				if err != nil {
					return fmt.Errorf("inserting condition %q: %w", cond.ID, err)
				}
			}
		}
		return nil
	})
}

// Load reconstructs a combat snapshot from the database.
//
// Postcondition: Returns ErrCombatNotFound when no combat has the given ID.
func (r *CombatRepository) Load(ctx context.Context, id string) (*combat.Combat, error) {
	var (
		c      combat.Combat
		status string
	)
	err := r.db.QueryRow(ctx, `
		SELECT id, campaign_id, gm_account_id, status, round, turn_index, turn_order
		FROM combats WHERE id = $1`,
		id,
	).Scan(&c.ID, &c.CampaignID, &c.GMAccountID, &status, &c.Round, &c.TurnIndex, &c.Order)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCombatNotFound
		}
		return nil, fmt.Errorf("querying combat: %w", err)
	}
	if c.Status, err = combat.ParseStatus(status); err != nil {
		return nil, err
	}

	if err := r.loadParticipants(ctx, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CombatRepository) loadParticipants(ctx context.Context, c *combat.Combat) error {
	rows, err := r.db.Query(ctx, `
		SELECT participant_id, kind, display_name, character_id, owner_account_id,
		       hp_current, hp_max, temp_hp, initiative
		FROM combat_participants
		WHERE combat_id = $1
		ORDER BY position ASC`,
		c.ID,
	)
	if err != nil {
		return fmt.Errorf("listing participants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			p           combat.Participant
			kind        string
			characterID *int64
			ownerID     *int64
			initiative  *int
		)
		if err := rows.Scan(&p.ID, &kind, &p.DisplayName, &characterID, &ownerID,
			&p.HPCurrent, &p.HPMax, &p.TempHP, &initiative); err != nil {
			return fmt.Errorf("scanning participant row: %w", err)
		}
		if p.Kind, err = combat.ParseKind(kind); err != nil {
			return err
		}
		if characterID != nil {
			p.CharacterID = *characterID
		}
		if ownerID != nil {
			p.OwnerAccountID = *ownerID
		}
		if initiative != nil {
			p.Initiative = *initiative
			p.Rolled = true
		}
		p.Conditions = condition.NewSet()
		c.Participants = append(c.Participants, &p)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	return r.loadConditions(ctx, c)
}

func (r *CombatRepository) loadConditions(ctx context.Context, c *combat.Combat) error {
	rows, err := r.db.Query(ctx, `
		SELECT participant_id, condition_id, name, metadata
		FROM participant_conditions
		WHERE combat_id = $1
		ORDER BY participant_id, position ASC`,
		c.ID,
	)
	if err != nil {
		return fmt.Errorf("listing conditions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			participantID string
			cond          condition.Condition
		)
		if err := rows.Scan(&participantID, &cond.ID, &cond.Name, &cond.Metadata); err != nil {
			return fmt.Errorf("scanning condition row: %w", err)
		}
		p, ok := c.Participant(participantID)
		if !ok {
			return fmt.Errorf("condition row references unknown participant %q", participantID)
		}
		p.Conditions.Add(cond)
	}
	return rows.Err()
}

// ListActiveByCampaign returns the IDs of non-ended combats in a campaign,
// oldest first. Used to re-register live encounters after a restart.
func (r *CombatRepository) ListActiveByCampaign(ctx context.Context, campaignID int64) ([]string, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id FROM combats
		WHERE campaign_id = $1 AND status <> 'ended'
		ORDER BY created_at ASC`,
		campaignID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing combats: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning combat row: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListActiveIDs returns the IDs of all non-ended combats, oldest first.
// The server calls it on startup to resume live encounters.
func (r *CombatRepository) ListActiveIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id FROM combats
		WHERE status <> 'ended'
		ORDER BY created_at ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing combats: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning combat row: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Delete removes a combat and its participant rows.
//
// Postcondition: Returns ErrCombatNotFound if no row was deleted.
func (r *CombatRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM combats WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting combat: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCombatNotFound
	}
	return nil
}

// nullableID maps a zero-valued foreign key to NULL.
func nullableID(id int64) *int64 {
	if id == 0 {
		return nil
	}
	return &id
}
