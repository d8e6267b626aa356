// Package wiki defines the campaign encyclopedia domain model.
package wiki

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
)

// Category constants for encyclopedia articles.
const (
	CategoryLore      = "lore"
	CategoryLocation  = "location"
	CategoryNPC       = "npc"
	CategoryFaction   = "faction"
	CategoryItem      = "item"
	CategoryHouseRule = "house_rule"
)

// validCategories is the set of recognised article categories.
var validCategories = map[string]bool{
	CategoryLore: true, CategoryLocation: true, CategoryNPC: true,
	CategoryFaction: true, CategoryItem: true, CategoryHouseRule: true,
}

// ValidCategory reports whether category is recognised.
func ValidCategory(category string) bool { return validCategories[category] }

// Article is one encyclopedia page owned by a campaign.
//
// ID is set by the persistence layer; a zero value indicates an unsaved article.
type Article struct {
	ID              int64
	CampaignID      int64
	AuthorAccountID int64

	// Slug is the URL identifier, unique per campaign.
	Slug     string
	Title    string
	Body     string
	Category string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks the article invariants.
func (a Article) Validate() error {
	var errs []error
	if a.CampaignID <= 0 {
		errs = append(errs, errors.New("campaign id must be > 0"))
	}
	if a.Title == "" {
		errs = append(errs, errors.New("title must not be empty"))
	}
	if len(a.Title) > 200 {
		errs = append(errs, fmt.Errorf("title must be at most 200 characters, got %d", len(a.Title)))
	}
	if a.Slug == "" {
		errs = append(errs, errors.New("slug must not be empty"))
	}
	if !ValidCategory(a.Category) {
		errs = append(errs, fmt.Errorf("unknown category %q", a.Category))
	}
	if len(errs) > 0 {
		return fmt.Errorf("article invalid: %v", errs)
	}
	return nil
}

// Slugify derives a URL slug from a title: lowercase, accents folded to
// ASCII where trivially possible, runs of non-alphanumerics collapsed to
// single hyphens.
//
// Postcondition: Returns a string matching [a-z0-9-]*, without leading or
// trailing hyphens.
func Slugify(title string) string {
	var b strings.Builder
	lastHyphen := true // suppress leading hyphen
	for _, r := range strings.ToLower(title) {
		r = foldAccent(r)
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		case unicode.IsSpace(r) || r == '-' || r == '_' || r == '\'' || r == '/':
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// foldAccent maps the accented letters common in campaign notes onto ASCII.
func foldAccent(r rune) rune {
	switch r {
	case 'à', 'â', 'ä':
		return 'a'
	case 'é', 'è', 'ê', 'ë':
		return 'e'
	case 'î', 'ï':
		return 'i'
	case 'ô', 'ö':
		return 'o'
	case 'ù', 'û', 'ü':
		return 'u'
	case 'ç':
		return 'c'
	}
	return r
}
