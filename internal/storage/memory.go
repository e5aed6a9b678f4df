package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/xaenox/dayflow/internal/apperr"
	"github.com/xaenox/dayflow/internal/models"
)

// MemoryStorage keeps everything in process memory. It backs tests and the
// use_in_memory config mode; semantics mirror PostgresStorage.
type MemoryStorage struct {
	mu      sync.RWMutex
	items   map[string]*models.Item
	emails  map[string]*models.Email
	streaks map[string]*models.Streak
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		items:   make(map[string]*models.Item),
		emails:  make(map[string]*models.Email),
		streaks: make(map[string]*models.Streak),
	}
}

func (s *MemoryStorage) CreateItem(ctx context.Context, item *models.Item) error {
	if err := validateItem(item); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[item.ID]; exists {
		return apperr.Conflict("item already exists: " + item.ID)
	}
	if item.Source == models.SourceGmail && item.GmailThreadURL != "" {
		for _, existing := range s.items {
			if existing.Source == models.SourceGmail && existing.GmailThreadURL == item.GmailThreadURL {
				return apperr.Conflict("item already exists for thread url: " + item.GmailThreadURL)
			}
		}
	}

	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now

	copied := *item
	s.items[item.ID] = &copied
	return nil
}

func (s *MemoryStorage) GetItem(ctx context.Context, id string) (*models.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if item, exists := s.items[id]; exists {
		copied := *item
		return &copied, nil
	}
	return nil, apperr.NotFound("item", id)
}

func (s *MemoryStorage) FindByThreadURL(ctx context.Context, url string) (*models.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, item := range s.items {
		if item.GmailThreadURL == url {
			copied := *item
			return &copied, nil
		}
	}
	return nil, apperr.NotFound("item", url)
}

func matchesFilter(item *models.Item, f models.ListFilter) bool {
	if len(f.Types) > 0 {
		found := false
		for _, t := range f.Types {
			if item.Type == t {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Status != "" && item.Status != f.Status {
		return false
	}
	if f.Source != "" && item.Source != f.Source {
		return false
	}
	if f.DateFrom != "" && item.Date < f.DateFrom {
		return false
	}
	if f.DateTo != "" && item.Date > f.DateTo {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		haystacks := []string{
			item.Title, item.Description, item.Location,
			models.FormatParticipants(item.Participants),
		}
		found := false
		for _, h := range haystacks {
			if strings.Contains(strings.ToLower(h), needle) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (s *MemoryStorage) ListItems(ctx context.Context, filter models.ListFilter) ([]*models.Item, int, error) {
	if err := normalizeFilter(&filter); err != nil {
		return nil, 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*models.Item
	for _, item := range s.items {
		if matchesFilter(item, filter) {
			copied := *item
			matched = append(matched, &copied)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		// Empty start times sort last, matching NULLS LAST in Postgres.
		if (a.StartTime == "") != (b.StartTime == "") {
			return a.StartTime != ""
		}
		if a.StartTime != b.StartTime {
			return a.StartTime < b.StartTime
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})

	total := len(matched)
	if filter.Offset >= total {
		return []*models.Item{}, total, nil
	}
	end := filter.Offset + filter.Limit
	if end > total {
		end = total
	}
	return matched[filter.Offset:end], total, nil
}

func (s *MemoryStorage) UpdateItem(ctx context.Context, id string, patch models.ItemPatch) (*models.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.items[id]
	if !exists {
		return nil, apperr.NotFound("item", id)
	}

	updated := applyPatch(*current, patch)
	updated.UpdatedAt = time.Now().UTC()
	if err := validateItem(&updated); err != nil {
		return nil, err
	}

	s.items[id] = &updated
	copied := updated
	return &copied, nil
}

func (s *MemoryStorage) DeleteItem(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[id]; !exists {
		return apperr.NotFound("item", id)
	}
	delete(s.items, id)
	return nil
}

func (s *MemoryStorage) ItemStats(ctx context.Context, today string) (*models.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &models.Stats{
		CountByType:   make(map[models.ItemType]int),
		CountByStatus: make(map[models.Status]int),
		Today: models.TodayStats{
			ByType:   make(map[models.ItemType]int),
			ByStatus: make(map[models.Status]int),
		},
	}

	for _, item := range s.items {
		// counts see the same derived status the read endpoints report
		status := item.Status
		if item.IsOverdue(today) {
			status = models.StatusOverdue
		}
		stats.CountByType[item.Type]++
		stats.CountByStatus[status]++
		if item.Date == today {
			stats.Today.Total++
			stats.Today.ByType[item.Type]++
			stats.Today.ByStatus[status]++
		}
	}
	return stats, nil
}

func (s *MemoryStorage) SaveEmail(ctx context.Context, email *models.Email) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.emails[email.MessageID]; exists {
		return nil
	}
	if email.FetchedAt.IsZero() {
		email.FetchedAt = time.Now().UTC()
	}
	copied := *email
	s.emails[email.MessageID] = &copied
	return nil
}

func (s *MemoryStorage) GetEmail(ctx context.Context, messageID string) (*models.Email, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if email, exists := s.emails[messageID]; exists {
		copied := *email
		return &copied, nil
	}
	return nil, apperr.NotFound("email", messageID)
}

func (s *MemoryStorage) ListEmails(ctx context.Context, limit int) ([]*models.Email, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var emails []*models.Email
	for _, email := range s.emails {
		copied := *email
		emails = append(emails, &copied)
	}
	sort.Slice(emails, func(i, j int) bool {
		return emails[i].Date.After(emails[j].Date)
	})
	if len(emails) > limit {
		emails = emails[:limit]
	}
	return emails, nil
}

func (s *MemoryStorage) GetStreak(ctx context.Context, activity string) (*models.Streak, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if streak, exists := s.streaks[activity]; exists {
		copied := *streak
		return &copied, nil
	}
	return nil, apperr.NotFound("streak", activity)
}

func (s *MemoryStorage) SaveStreak(ctx context.Context, streak *models.Streak) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	streak.UpdatedAt = time.Now().UTC()
	copied := *streak
	s.streaks[streak.Activity] = &copied
	return nil
}

func (s *MemoryStorage) Close() error {
	// Nothing to close for in-memory storage
	return nil
}
