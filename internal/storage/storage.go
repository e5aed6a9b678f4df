package storage

import (
	"context"

	"github.com/xaenox/dayflow/internal/apperr"
	"github.com/xaenox/dayflow/internal/models"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 100
)

type Storage interface {
	CreateItem(ctx context.Context, item *models.Item) error
	GetItem(ctx context.Context, id string) (*models.Item, error)
	ListItems(ctx context.Context, filter models.ListFilter) ([]*models.Item, int, error)
	UpdateItem(ctx context.Context, id string, patch models.ItemPatch) (*models.Item, error)
	DeleteItem(ctx context.Context, id string) error
	ItemStats(ctx context.Context, today string) (*models.Stats, error)
	// FindByThreadURL returns the gmail-sourced item for a thread URL, or
	// a NotFound error when no such item exists.
	FindByThreadURL(ctx context.Context, url string) (*models.Item, error)

	SaveEmail(ctx context.Context, email *models.Email) error
	GetEmail(ctx context.Context, messageID string) (*models.Email, error)
	ListEmails(ctx context.Context, limit int) ([]*models.Email, error)

	GetStreak(ctx context.Context, activity string) (*models.Streak, error)
	SaveStreak(ctx context.Context, streak *models.Streak) error

	Close() error
}

// normalizeFilter applies list defaults and bounds. Limits over the maximum
// are rejected rather than clamped so callers learn about bad requests.
func normalizeFilter(f *models.ListFilter) error {
	if f.Limit == 0 {
		f.Limit = DefaultListLimit
	}
	if f.Limit < 1 || f.Limit > MaxListLimit {
		return apperr.InvalidInput("limit", "limit must be between 1 and 100")
	}
	if f.Offset < 0 {
		return apperr.InvalidInput("offset", "offset must not be negative")
	}
	for _, t := range f.Types {
		if !models.ValidItemType(t) {
			return apperr.InvalidInput("type", "unknown item type: "+string(t))
		}
	}
	if f.Status != "" && !models.ValidStatus(f.Status) {
		return apperr.InvalidInput("status", "unknown status: "+string(f.Status))
	}
	if f.Source != "" && !models.ValidSource(f.Source) {
		return apperr.InvalidInput("source", "unknown source: "+string(f.Source))
	}
	return nil
}

func validateItem(item *models.Item) error {
	if err := item.Validate(); err != nil {
		return apperr.InvalidInput("", err.Error())
	}
	return nil
}

// applyPatch writes the sparse patch onto a copy of item and returns it.
// Immutable fields (id, source, created_at) are not part of the patch type.
func applyPatch(item models.Item, patch models.ItemPatch) models.Item {
	if patch.Type != nil {
		item.Type = *patch.Type
	}
	if patch.Title != nil {
		item.Title = *patch.Title
	}
	if patch.Description != nil {
		item.Description = *patch.Description
	}
	if patch.Date != nil {
		item.Date = *patch.Date
	}
	if patch.StartTime != nil {
		item.StartTime = *patch.StartTime
	}
	if patch.EndTime != nil {
		item.EndTime = *patch.EndTime
	}
	if patch.Status != nil {
		item.Status = *patch.Status
	}
	if patch.Priority != nil {
		item.Priority = *patch.Priority
	}
	if patch.Location != nil {
		item.Location = *patch.Location
	}
	if patch.Participants != nil {
		item.Participants = patch.Participants
	}
	if patch.GmailThreadURL != nil {
		item.GmailThreadURL = *patch.GmailThreadURL
	}
	if patch.CalendarEventURL != nil {
		item.CalendarEventURL = *patch.CalendarEventURL
	}
	if patch.GoalID != nil {
		item.GoalID = *patch.GoalID
	}
	if patch.Quadrant != nil {
		item.Quadrant = *patch.Quadrant
	}
	return item
}
