package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chronique-jdr/chronique/internal/game/inventory"
)

// ErrItemNotFound is returned when an item lookup yields no results.
var ErrItemNotFound = errors.New("item not found")

// ErrItemExists is returned when creating an item with a duplicate name.
var ErrItemExists = errors.New("item already exists")

// ItemRepository provides item-catalog and character-inventory persistence.
type ItemRepository struct {
	db *pgxpool.Pool
}

// NewItemRepository creates an ItemRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewItemRepository(db *pgxpool.Pool) *ItemRepository {
	return &ItemRepository{db: db}
}

// Create inserts a catalog item.
//
// Precondition: item must pass Validate.
// Postcondition: Returns the created item with ID set, or ErrItemExists on a
// duplicate name.
func (r *ItemRepository) Create(ctx context.Context, item inventory.Item) (inventory.Item, error) {
	if err := item.Validate(); err != nil {
		return inventory.Item{}, err
	}

	var out inventory.Item
	err := r.db.QueryRow(ctx, `
		INSERT INTO items (name, description, slot, weight, value, stackable)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, name, description, slot, weight, value, stackable`,
		item.Name, item.Description, item.Slot, item.Weight, item.Value, item.Stackable,
	).Scan(&out.ID, &out.Name, &out.Description, &out.Slot, &out.Weight, &out.Value, &out.Stackable)
	if err != nil {
		if isDuplicateKeyError(err) {
			return inventory.Item{}, ErrItemExists
		}
		return inventory.Item{}, fmt.Errorf("inserting item: %w", err)
	}
	return out, nil
}

// GetByID retrieves a catalog item by its primary key.
//
// Postcondition: Returns the item or ErrItemNotFound.
func (r *ItemRepository) GetByID(ctx context.Context, id int64) (inventory.Item, error) {
	var item inventory.Item
	err := r.db.QueryRow(ctx, `
		SELECT id, name, description, slot, weight, value, stackable
		FROM items WHERE id = $1`,
		id,
	).Scan(&item.ID, &item.Name, &item.Description, &item.Slot, &item.Weight, &item.Value, &item.Stackable)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return inventory.Item{}, ErrItemNotFound
		}
		return inventory.Item{}, fmt.Errorf("querying item: %w", err)
	}
	return item, nil
}

// List returns the whole item catalog ordered by name.
func (r *ItemRepository) List(ctx context.Context) ([]inventory.Item, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, description, slot, weight, value, stackable
		FROM items ORDER BY name ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	out := make([]inventory.Item, 0)
	for rows.Next() {
		var item inventory.Item
		if err := rows.Scan(&item.ID, &item.Name, &item.Description, &item.Slot,
			&item.Weight, &item.Value, &item.Stackable); err != nil {
			return nil, fmt.Errorf("scanning item row: %w", err)
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// SheetFor loads a character's inventory into a Sheet.
//
// Postcondition: Returns an empty sheet when the character holds nothing.
func (r *ItemRepository) SheetFor(ctx context.Context, characterID int64) (*inventory.Sheet, error) {
	rows, err := r.db.Query(ctx, `
		SELECT i.id, i.name, i.description, i.slot, i.weight, i.value, i.stackable,
		       ci.quantity, ci.equipped
		FROM character_items ci
		JOIN items i ON i.id = ci.item_id
		WHERE ci.character_id = $1
		ORDER BY ci.id ASC`,
		characterID,
	)
	if err != nil {
		return nil, fmt.Errorf("loading inventory: %w", err)
	}
	defer rows.Close()

	sheet := inventory.NewSheet()
	for rows.Next() {
		var (
			item     inventory.Item
			quantity int
			equipped bool
		)
		if err := rows.Scan(&item.ID, &item.Name, &item.Description, &item.Slot,
			&item.Weight, &item.Value, &item.Stackable, &quantity, &equipped); err != nil {
			return nil, fmt.Errorf("scanning inventory row: %w", err)
		}
		if err := sheet.Add(item, quantity); err != nil {
			return nil, fmt.Errorf("rebuilding inventory: %w", err)
		}
		if equipped {
			if err := sheet.Equip(item.ID); err != nil {
				return nil, fmt.Errorf("rebuilding inventory: %w", err)
			}
		}
	}
	return sheet, rows.Err()
}

// SaveSheet replaces a character's stored inventory with the sheet contents
// in one transaction.
//
// Postcondition: A subsequent SheetFor returns an equivalent sheet.
func (r *ItemRepository) SaveSheet(ctx context.Context, characterID int64, sheet *inventory.Sheet) error {
	return withTx(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`DELETE FROM character_items WHERE character_id = $1`, characterID,
		); err != nil {
			return fmt.Errorf("clearing inventory: %w", err)
		}
		for _, e := range sheet.Entries() {
			if _, err := tx.Exec(ctx, `
				INSERT INTO character_items (character_id, item_id, quantity, equipped)
				VALUES ($1, $2, $3, $4)`,
				characterID, e.Item.ID, e.Quantity, e.Equipped,
			); err != nil {
				if isForeignKeyError(err) {
					return ErrItemNotFound
				}
				return fmt.Errorf("inserting inventory row: %w", err)
			}
		}
		return nil
	})
}
