package email

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xaenox/dayflow/internal/apperr"
	"github.com/xaenox/dayflow/internal/models"
	"github.com/xaenox/dayflow/internal/storage"
)

const threadURLPrefix = "https://mail.google.com/mail/u/0/#search/rfc822msgid:"

// newsletterDomains mark bulk-mail platforms: anything from them defaults
// to the webinar type and the newsletter sender category.
var newsletterDomains = map[string]bool{
	"beehiiv.com":         true,
	"substack.com":        true,
	"mailchimp.com":       true,
	"sendgrid.net":        true,
	"constantcontact.com": true,
	"hubspot.com":         true,
	"sparkpost.com":       true,
	"mailin.fr":           true,
}

// SenderCategory is the (category, subcategory) pair for a sender domain.
type SenderCategory struct {
	Category    string
	Subcategory string
}

var senderCategories = map[string]SenderCategory{
	"seekingalpha.com": {"trading", "market_summary"},
	"bloomberg.com":    {"trading", "news"},
	"github.com":       {"development", "notifications"},
	"gitlab.com":       {"development", "notifications"},
	"linkedin.com":     {"networking", "social"},
	"meetup.com":       {"networking", "events"},
	"coursera.org":     {"learning", "courses"},
	"udemy.com":        {"learning", "courses"},
	"eventbrite.com":   {"events", "tickets"},
	"calendly.com":     {"scheduling", "booking"},
	"zoom.us":          {"scheduling", "meetings"},
}

// goalKeywords relates words that may appear in a goal title to words that
// mark a matching email. Used when the goal title itself is not a substring.
var goalKeywords = map[string][]string{
	"fitness":  {"gym", "workout", "exercise", "training", "run"},
	"learn":    {"course", "class", "study", "tutorial", "mooc", "lesson"},
	"read":     {"book", "reading", "chapter"},
	"invest":   {"trading", "market", "stock", "portfolio"},
	"write":    {"writing", "blog", "newsletter", "draft"},
	"language": {"spanish", "french", "german", "vocabulary"},
}

// SanitizeMessageID derives the stable dedup key fragment from an RFC-822
// Message-ID: angle brackets stripped, @ replaced, capped at 50 chars.
func SanitizeMessageID(messageID string) string {
	id := strings.Trim(strings.TrimSpace(messageID), "<>")
	id = strings.ReplaceAll(id, "@", "_at_")
	if len(id) > 50 {
		id = id[:50]
	}
	return id
}

// ThreadURL builds the Gmail search link that doubles as the uniqueness key
// for email-derived items.
func ThreadURL(messageID string) string {
	id := strings.Trim(strings.TrimSpace(messageID), "<>")
	return threadURLPrefix + url.QueryEscape(id)
}

// Classifier turns candidate events into deduplicated gmail-sourced items.
type Classifier struct {
	store  storage.Storage
	logger *zap.Logger
	now    func() time.Time
}

func NewClassifier(store storage.Storage, logger *zap.Logger, now func() time.Time) *Classifier {
	if now == nil {
		now = time.Now
	}
	return &Classifier{store: store, logger: logger, now: now}
}

// ClassifyType maps a candidate onto an item type via a first-match-wins
// decision list over the sender domain, the model's raw guess and the title.
func ClassifyType(candidate *models.CandidateEvent, senderDomain string) models.ItemType {
	if newsletterDomains[senderDomain] {
		return models.TypeWebinar
	}

	rawType := strings.ToLower(candidate.EventType)
	switch {
	case strings.Contains(rawType, "meeting"), strings.Contains(rawType, "call"):
		return models.TypeMeeting
	case strings.Contains(rawType, "webinar"):
		return models.TypeWebinar
	case strings.Contains(rawType, "deadline"):
		return models.TypeDeadline
	case strings.Contains(rawType, "appointment"):
		return models.TypeAppointment
	}

	title := strings.ToLower(candidate.Title)
	for _, word := range []string{"register", "join us", "live event", "workshop"} {
		if strings.Contains(title, word) {
			return models.TypeWebinar
		}
	}
	for _, word := range []string{"deadline", "due", "expires", "last day"} {
		if strings.Contains(title, word) {
			return models.TypeDeadline
		}
	}
	for _, word := range []string{"doctor", "dentist", "appointment", "booking"} {
		if strings.Contains(title, word) {
			return models.TypeAppointment
		}
	}

	return models.TypeWebinar
}

// CategorizeSender looks the domain up in the static table; bulk-mail
// platforms are newsletters, everything else is (other, unknown).
func CategorizeSender(senderDomain string) SenderCategory {
	if category, ok := senderCategories[senderDomain]; ok {
		return category
	}
	if newsletterDomains[senderDomain] {
		return SenderCategory{"content_creation", "newsletter"}
	}
	return SenderCategory{"other", "unknown"}
}

// LinkGoal finds the first goal whose title matches the candidate text,
// either as a direct substring or through the keyword map.
func LinkGoal(goals []*models.Item, text string) (string, bool) {
	text = strings.ToLower(text)
	for _, goal := range goals {
		title := strings.ToLower(goal.Title)
		if title != "" && strings.Contains(text, title) {
			return goal.ID, true
		}
		for key, related := range goalKeywords {
			if !strings.Contains(title, key) {
				continue
			}
			for _, word := range related {
				if strings.Contains(text, word) {
					return goal.ID, true
				}
			}
		}
	}
	return "", false
}

// splitDateTime breaks an ISO timestamp into the item's date and start time.
// Unparseable input falls back to today with no time.
func splitDateTime(dateTime string, now time.Time) (string, string) {
	layouts := []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02T15:04",
		"2006-01-02 15:04",
		"2006-01-02",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, dateTime); err == nil {
			if layout == "2006-01-02" {
				return t.Format("2006-01-02"), ""
			}
			return t.Format("2006-01-02"), t.Format("15:04")
		}
	}
	return now.Format("2006-01-02"), ""
}

// listGoals pages through every stored goal; linking must consider all of
// them, not just the first page.
func (c *Classifier) listGoals(ctx context.Context) ([]*models.Item, error) {
	var goals []*models.Item
	for offset := 0; ; offset += storage.MaxListLimit {
		page, total, err := c.store.ListItems(ctx, models.ListFilter{
			Types:  []models.ItemType{models.TypeGoal},
			Limit:  storage.MaxListLimit,
			Offset: offset,
		})
		if err != nil {
			return nil, err
		}
		goals = append(goals, page...)
		if len(goals) >= total || len(page) == 0 {
			return goals, nil
		}
	}
}

// Classify builds and stores the item for one candidate event. A Conflict
// from the store or an existing item for the thread URL means the event was
// already ingested; both surface as apperr Conflict so callers skip.
func (c *Classifier) Classify(ctx context.Context, candidate *models.CandidateEvent, email *models.Email) (*models.Item, error) {
	threadURL := ThreadURL(candidate.EmailID)

	if _, err := c.store.FindByThreadURL(ctx, threadURL); err == nil {
		return nil, apperr.Conflict("event already ingested: " + threadURL)
	} else if !apperr.Is(err, apperr.KindNotFound) {
		return nil, err
	}

	domain := senderDomain(email.From)
	itemType := ClassifyType(candidate, domain)
	senderCategory := CategorizeSender(domain)

	goals, err := c.listGoals(ctx)
	if err != nil {
		return nil, err
	}

	description := fmt.Sprintf("From %s (%s/%s)", email.From, senderCategory.Category, senderCategory.Subcategory)
	if candidate.URL != "" {
		description += "\n" + candidate.URL
	}

	item := &models.Item{
		ID:             "email_" + SanitizeMessageID(candidate.EmailID),
		Type:           itemType,
		Title:          candidate.Title,
		Description:    description,
		Status:         models.StatusUpcoming,
		Source:         models.SourceGmail,
		Location:       candidate.Location,
		Participants:   candidate.Attendees,
		GmailThreadURL: threadURL,
	}
	item.Date, item.StartTime = splitDateTime(candidate.DateTime, c.now())

	if goalID, ok := LinkGoal(goals, candidate.Title+" "+description); ok {
		item.GoalID = goalID
		item.Priority = models.PriorityHigh
	}

	if err := c.store.CreateItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}
