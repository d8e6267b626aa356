package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chronique-jdr/chronique/internal/game/wiki"
)

// ErrArticleNotFound is returned when an article lookup yields no results.
var ErrArticleNotFound = errors.New("article not found")

// ErrSlugTaken is returned when an article slug collides within a campaign.
var ErrSlugTaken = errors.New("article slug already taken")

// ArticleRepository provides encyclopedia persistence operations.
type ArticleRepository struct {
	db *pgxpool.Pool
}

// NewArticleRepository creates an ArticleRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewArticleRepository(db *pgxpool.Pool) *ArticleRepository {
	return &ArticleRepository{db: db}
}

const articleColumns = `
	id, campaign_id, author_account_id, slug, title, body, category,
	created_at, updated_at`

func scanArticle(row pgx.Row) (*wiki.Article, error) {
	var a wiki.Article
	err := row.Scan(
		&a.ID, &a.CampaignID, &a.AuthorAccountID, &a.Slug, &a.Title, &a.Body,
		&a.Category, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Create inserts an article. The slug is derived from the title when empty.
//
// Precondition: a must pass Validate after slug derivation.
// Postcondition: Returns the created article, or ErrSlugTaken when the slug
// collides within the campaign.
func (r *ArticleRepository) Create(ctx context.Context, a *wiki.Article) (*wiki.Article, error) {
	if a.Slug == "" {
		a.Slug = wiki.Slugify(a.Title)
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}

	out, err := scanArticle(r.db.QueryRow(ctx, `
		INSERT INTO articles (campaign_id, author_account_id, slug, title, body, category)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING`+articleColumns,
		a.CampaignID, a.AuthorAccountID, a.Slug, a.Title, a.Body, a.Category,
	))
	if err != nil {
		if isDuplicateKeyError(err) {
			return nil, ErrSlugTaken
		}
		return nil, fmt.Errorf("inserting article: %w", err)
	}
	return out, nil
}

// GetBySlug retrieves an article by campaign and slug.
//
// Postcondition: Returns the article or ErrArticleNotFound.
func (r *ArticleRepository) GetBySlug(ctx context.Context, campaignID int64, slug string) (*wiki.Article, error) {
	a, err := scanArticle(r.db.QueryRow(ctx,
		`SELECT`+articleColumns+` FROM articles WHERE campaign_id = $1 AND slug = $2`,
		campaignID, slug,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrArticleNotFound
		}
		return nil, fmt.Errorf("querying article: %w", err)
	}
	return a, nil
}

// ListByCampaign returns a campaign's articles ordered by title. A non-empty
// category narrows the listing.
func (r *ArticleRepository) ListByCampaign(ctx context.Context, campaignID int64, category string) ([]*wiki.Article, error) {
	query := `SELECT` + articleColumns + ` FROM articles WHERE campaign_id = $1`
	args := []any{campaignID}
	if category != "" {
		query += ` AND category = $2`
		args = append(args, category)
	}
	query += ` ORDER BY title ASC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing articles: %w", err)
	}
	defer rows.Close()

	out := make([]*wiki.Article, 0)
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning article row: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Update persists edits to an article's title, body, and category.
//
// Precondition: a.ID must be > 0 and a must pass Validate.
// Postcondition: Returns ErrArticleNotFound if no row was updated.
func (r *ArticleRepository) Update(ctx context.Context, a *wiki.Article) error {
	if err := a.Validate(); err != nil {
		return err
	}

	tag, err := r.db.Exec(ctx, `
		UPDATE articles SET title = $2, body = $3, category = $4, updated_at = NOW()
		WHERE id = $1`,
		a.ID, a.Title, a.Body, a.Category,
	)
	if err != nil {
		return fmt.Errorf("updating article: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrArticleNotFound
	}
	return nil
}

// Delete removes an article.
//
// Postcondition: Returns ErrArticleNotFound if no row was deleted.
func (r *ArticleRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM articles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting article: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrArticleNotFound
	}
	return nil
}
