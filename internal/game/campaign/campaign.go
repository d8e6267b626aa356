// Package campaign defines the campaign domain model and membership rules.
package campaign

import (
	"errors"
	"fmt"
	"time"
)

// Campaign groups characters, wiki articles, chat, and combats under one GM.
//
// ID is set by the persistence layer; a zero value indicates an unsaved campaign.
type Campaign struct {
	ID          int64
	Name        string
	Description string
	// GMAccountID is the account running the campaign, sole authority for
	// turn advancement and forced corrections.
	GMAccountID int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate checks the campaign invariants.
//
// Postcondition: Returns nil iff Name is non-empty and a GM is assigned.
func (c Campaign) Validate() error {
	var errs []error
	if c.Name == "" {
		errs = append(errs, errors.New("name must not be empty"))
	}
	if len(c.Name) > 120 {
		errs = append(errs, fmt.Errorf("name must be at most 120 characters, got %d", len(c.Name)))
	}
	if c.GMAccountID <= 0 {
		errs = append(errs, errors.New("gm account id must be > 0"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("campaign invalid: %v", errs)
	}
	return nil
}

// IsGM reports whether accountID runs this campaign.
func (c Campaign) IsGM(accountID int64) bool {
	return accountID > 0 && accountID == c.GMAccountID
}

// Member is one player enrolled in a campaign.
type Member struct {
	CampaignID int64
	AccountID  int64
	JoinedAt   time.Time
}
