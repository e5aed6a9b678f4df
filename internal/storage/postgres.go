package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/xaenox/dayflow/internal/apperr"
	"github.com/xaenox/dayflow/internal/models"
)

//go:embed migrations.sql
var migrations embed.FS

type DatabaseConfig struct {
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	UseInMemory bool
}

type PostgresStorage struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewPostgresStorage(config DatabaseConfig, logger *zap.Logger) (*PostgresStorage, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		config.Host, config.Port, config.User, config.Password, config.DBName, config.SSLMode)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error connecting to the database: %w", err)
	}

	return &PostgresStorage{db: db, logger: logger}, nil
}

// Migrate executes the embedded schema once. Called explicitly at startup,
// never as a side effect of construction.
func (s *PostgresStorage) Migrate() error {
	migrationSQL, err := migrations.ReadFile("migrations.sql")
	if err != nil {
		return fmt.Errorf("error reading migrations file: %w", err)
	}

	if _, err := s.db.Exec(string(migrationSQL)); err != nil {
		return fmt.Errorf("error executing migrations: %w", err)
	}

	return nil
}

const itemColumns = `id, type, title, description, date, start_time, end_time, status, source,
	priority, location, participants, gmail_thread_url, calendar_event_url, goal_id, quadrant,
	created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*models.Item, error) {
	item := &models.Item{}
	var participants string
	var threadURL sql.NullString
	err := row.Scan(
		&item.ID,
		&item.Type,
		&item.Title,
		&item.Description,
		&item.Date,
		&item.StartTime,
		&item.EndTime,
		&item.Status,
		&item.Source,
		&item.Priority,
		&item.Location,
		&participants,
		&threadURL,
		&item.CalendarEventURL,
		&item.GoalID,
		&item.Quadrant,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	item.Participants = models.ParseParticipants(participants)
	item.GmailThreadURL = threadURL.String
	return item, nil
}

func (s *PostgresStorage) CreateItem(ctx context.Context, item *models.Item) error {
	if err := validateItem(item); err != nil {
		return err
	}

	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now

	threadURL := sql.NullString{String: item.GmailThreadURL, Valid: item.GmailThreadURL != ""}

	query := `
		INSERT INTO items (` + itemColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`

	_, err := s.db.ExecContext(ctx, query,
		item.ID, item.Type, item.Title, item.Description, item.Date,
		item.StartTime, item.EndTime, item.Status, item.Source, item.Priority,
		item.Location, models.FormatParticipants(item.Participants), threadURL,
		item.CalendarEventURL, item.GoalID, item.Quadrant, item.CreatedAt, item.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return apperr.Conflict("item already exists: " + item.ID)
		}
		return apperr.Storage(fmt.Errorf("error creating item: %w", err))
	}

	return nil
}

func (s *PostgresStorage) GetItem(ctx context.Context, id string) (*models.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE id = $1`

	item, err := scanItem(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("item", id)
	}
	if err != nil {
		return nil, apperr.Storage(fmt.Errorf("error querying item: %w", err))
	}
	return item, nil
}

func (s *PostgresStorage) FindByThreadURL(ctx context.Context, url string) (*models.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE gmail_thread_url = $1`

	item, err := scanItem(s.db.QueryRowContext(ctx, query, url))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("item", url)
	}
	if err != nil {
		return nil, apperr.Storage(fmt.Errorf("error querying item by thread url: %w", err))
	}
	return item, nil
}

func buildItemFilter(f models.ListFilter) (string, []any) {
	var conds []string
	var args []any

	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if len(f.Types) > 0 {
		types := make([]string, len(f.Types))
		for i, t := range f.Types {
			types[i] = string(t)
		}
		add("type = ANY($%d)", pq.Array(types))
	}
	if f.Status != "" {
		add("status = $%d", string(f.Status))
	}
	if f.Source != "" {
		add("source = $%d", string(f.Source))
	}
	if f.DateFrom != "" {
		add("date >= $%d", f.DateFrom)
	}
	if f.DateTo != "" {
		add("date <= $%d", f.DateTo)
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf(
			"(title ILIKE $%d OR description ILIKE $%d OR location ILIKE $%d OR participants ILIKE $%d)",
			n, n, n, n))
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (s *PostgresStorage) ListItems(ctx context.Context, filter models.ListFilter) ([]*models.Item, int, error) {
	if err := normalizeFilter(&filter); err != nil {
		return nil, 0, err
	}

	where, args := buildItemFilter(filter)

	var total int
	countQuery := `SELECT COUNT(*) FROM items` + where
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, apperr.Storage(fmt.Errorf("error counting items: %w", err))
	}

	query := fmt.Sprintf(`SELECT `+itemColumns+` FROM items%s
		ORDER BY date ASC, NULLIF(start_time, '') ASC NULLS LAST, created_at ASC
		LIMIT $%d OFFSET $%d`, where, len(args)+1, len(args)+2)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, apperr.Storage(fmt.Errorf("error querying items: %w", err))
	}
	defer rows.Close()

	items := []*models.Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, 0, apperr.Storage(fmt.Errorf("error scanning item: %w", err))
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperr.Storage(fmt.Errorf("error iterating items: %w", err))
	}

	return items, total, nil
}

func (s *PostgresStorage) UpdateItem(ctx context.Context, id string, patch models.ItemPatch) (*models.Item, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, apperr.Storage(fmt.Errorf("error starting transaction: %w", err))
	}
	defer tx.Rollback()

	query := `SELECT ` + itemColumns + ` FROM items WHERE id = $1 FOR UPDATE`
	current, err := scanItem(tx.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("item", id)
	}
	if err != nil {
		return nil, apperr.Storage(fmt.Errorf("error reading item for update: %w", err))
	}

	updated := applyPatch(*current, patch)
	updated.UpdatedAt = time.Now().UTC()
	if err := validateItem(&updated); err != nil {
		return nil, err
	}

	threadURL := sql.NullString{String: updated.GmailThreadURL, Valid: updated.GmailThreadURL != ""}
	_, err = tx.ExecContext(ctx, `
		UPDATE items SET type = $1, title = $2, description = $3, date = $4, start_time = $5,
			end_time = $6, status = $7, priority = $8, location = $9, participants = $10,
			gmail_thread_url = $11, calendar_event_url = $12, goal_id = $13, quadrant = $14,
			updated_at = $15
		WHERE id = $16`,
		updated.Type, updated.Title, updated.Description, updated.Date, updated.StartTime,
		updated.EndTime, updated.Status, updated.Priority, updated.Location,
		models.FormatParticipants(updated.Participants), threadURL, updated.CalendarEventURL,
		updated.GoalID, updated.Quadrant, updated.UpdatedAt, id)
	if err != nil {
		return nil, apperr.Storage(fmt.Errorf("error updating item: %w", err))
	}

	if err := tx.Commit(); err != nil {
		return nil, apperr.Storage(fmt.Errorf("error committing update: %w", err))
	}

	return &updated, nil
}

func (s *PostgresStorage) DeleteItem(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		return apperr.Storage(fmt.Errorf("error deleting item: %w", err))
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperr.Storage(fmt.Errorf("error getting rows affected: %w", err))
	}
	if affected == 0 {
		return apperr.NotFound("item", id)
	}
	return nil
}

func (s *PostgresStorage) ItemStats(ctx context.Context, today string) (*models.Stats, error) {
	stats := &models.Stats{
		CountByType:   make(map[models.ItemType]int),
		CountByStatus: make(map[models.Status]int),
		Today: models.TodayStats{
			ByType:   make(map[models.ItemType]int),
			ByStatus: make(map[models.Status]int),
		},
	}

	// stale upcoming items count under the derived overdue status, matching
	// what the read endpoints report
	rows, err := s.db.QueryContext(ctx,
		`SELECT type,
			CASE WHEN status = 'upcoming' AND date <> '' AND date < $1 THEN 'overdue' ELSE status END,
			COUNT(*),
			COUNT(*) FILTER (WHERE date = $1)
		FROM items GROUP BY 1, 2`, today)
	if err != nil {
		return nil, apperr.Storage(fmt.Errorf("error querying stats: %w", err))
	}
	defer rows.Close()

	for rows.Next() {
		var itemType models.ItemType
		var status models.Status
		var count, todayCount int
		if err := rows.Scan(&itemType, &status, &count, &todayCount); err != nil {
			return nil, apperr.Storage(fmt.Errorf("error scanning stats: %w", err))
		}
		stats.CountByType[itemType] += count
		stats.CountByStatus[status] += count
		if todayCount > 0 {
			stats.Today.Total += todayCount
			stats.Today.ByType[itemType] += todayCount
			stats.Today.ByStatus[status] += todayCount
		}
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage(fmt.Errorf("error iterating stats: %w", err))
	}

	return stats, nil
}

func (s *PostgresStorage) SaveEmail(ctx context.Context, email *models.Email) error {
	// Duplicate message ids are silently ignored so refetching is idempotent.
	query := `
		INSERT INTO emails (message_id, subject, from_addr, to_addr, date, body_text, body_html,
			attachments, priority, priority_score, fetched_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (message_id) DO NOTHING`

	if email.FetchedAt.IsZero() {
		email.FetchedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, query,
		email.MessageID, email.Subject, email.From, email.To, email.Date,
		email.BodyText, email.BodyHTML, email.Attachments, email.Priority,
		email.PriorityScore, email.FetchedAt)
	if err != nil {
		return apperr.Storage(fmt.Errorf("error saving email: %w", err))
	}
	return nil
}

func (s *PostgresStorage) GetEmail(ctx context.Context, messageID string) (*models.Email, error) {
	query := `
		SELECT message_id, subject, from_addr, to_addr, date, body_text, body_html,
			attachments, priority, priority_score, fetched_at
		FROM emails WHERE message_id = $1`

	email := &models.Email{}
	err := s.db.QueryRowContext(ctx, query, messageID).Scan(
		&email.MessageID, &email.Subject, &email.From, &email.To, &email.Date,
		&email.BodyText, &email.BodyHTML, &email.Attachments, &email.Priority,
		&email.PriorityScore, &email.FetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("email", messageID)
	}
	if err != nil {
		return nil, apperr.Storage(fmt.Errorf("error querying email: %w", err))
	}
	return email, nil
}

func (s *PostgresStorage) ListEmails(ctx context.Context, limit int) ([]*models.Email, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	query := `
		SELECT message_id, subject, from_addr, to_addr, date, body_text, body_html,
			attachments, priority, priority_score, fetched_at
		FROM emails ORDER BY date DESC NULLS LAST LIMIT $1`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, apperr.Storage(fmt.Errorf("error querying emails: %w", err))
	}
	defer rows.Close()

	var emails []*models.Email
	for rows.Next() {
		email := &models.Email{}
		err := rows.Scan(
			&email.MessageID, &email.Subject, &email.From, &email.To, &email.Date,
			&email.BodyText, &email.BodyHTML, &email.Attachments, &email.Priority,
			&email.PriorityScore, &email.FetchedAt)
		if err != nil {
			return nil, apperr.Storage(fmt.Errorf("error scanning email: %w", err))
		}
		emails = append(emails, email)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage(fmt.Errorf("error iterating emails: %w", err))
	}
	return emails, nil
}

func (s *PostgresStorage) GetStreak(ctx context.Context, activity string) (*models.Streak, error) {
	query := `
		SELECT activity, current_streak, longest_streak, last_completed, total_completions, updated_at
		FROM streaks WHERE activity = $1`

	streak := &models.Streak{}
	err := s.db.QueryRowContext(ctx, query, activity).Scan(
		&streak.Activity, &streak.CurrentStreak, &streak.LongestStreak,
		&streak.LastCompleted, &streak.TotalCompletions, &streak.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("streak", activity)
	}
	if err != nil {
		return nil, apperr.Storage(fmt.Errorf("error querying streak: %w", err))
	}
	return streak, nil
}

func (s *PostgresStorage) SaveStreak(ctx context.Context, streak *models.Streak) error {
	streak.UpdatedAt = time.Now().UTC()

	query := `
		INSERT INTO streaks (activity, current_streak, longest_streak, last_completed, total_completions, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (activity) DO UPDATE SET
			current_streak = EXCLUDED.current_streak,
			longest_streak = EXCLUDED.longest_streak,
			last_completed = EXCLUDED.last_completed,
			total_completions = EXCLUDED.total_completions,
			updated_at = EXCLUDED.updated_at`

	_, err := s.db.ExecContext(ctx, query,
		streak.Activity, streak.CurrentStreak, streak.LongestStreak,
		streak.LastCompleted, streak.TotalCompletions, streak.UpdatedAt)
	if err != nil {
		return apperr.Storage(fmt.Errorf("error saving streak: %w", err))
	}
	return nil
}

func (s *PostgresStorage) Close() error {
	return s.db.Close()
}
