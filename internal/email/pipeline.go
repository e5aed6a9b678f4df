package email

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xaenox/dayflow/internal/apperr"
	"github.com/xaenox/dayflow/internal/models"
	"github.com/xaenox/dayflow/internal/storage"
)

// RunReport summarises one pipeline pass.
type RunReport struct {
	Fetched    int `json:"fetched"`
	Parsed     int `json:"parsed"`
	Events     int `json:"events"`
	Created    int `json:"created"`
	Duplicates int `json:"duplicates"`
	Failures   int `json:"failures"`
}

// Pipeline wires source → parser → score → detector → classifier. One bad
// email never stops the batch, and reruns are idempotent: the thread-URL
// uniqueness turns duplicates into skips.
type Pipeline struct {
	source     Source
	store      storage.Storage
	detector   *Detector
	classifier *Classifier
	logger     *zap.Logger
	now        func() time.Time
	fetchCount int
}

// NewPipeline wires the stages together. fetchCount is the batch size used
// when a run does not ask for one; non-positive values fall back to
// DefaultFetchCount.
func NewPipeline(source Source, store storage.Storage, detector *Detector, classifier *Classifier, logger *zap.Logger, now func() time.Time, fetchCount int) *Pipeline {
	if now == nil {
		now = time.Now
	}
	if fetchCount <= 0 {
		fetchCount = DefaultFetchCount
	}
	return &Pipeline{
		source:     source,
		store:      store,
		detector:   detector,
		classifier: classifier,
		logger:     logger,
		now:        now,
		fetchCount: fetchCount,
	}
}

// Run fetches the latest max messages and pushes them through the pipeline.
// A non-positive max uses the pipeline's configured batch size.
func (p *Pipeline) Run(ctx context.Context, max int) (*RunReport, error) {
	if max <= 0 {
		max = p.fetchCount
	}
	raws, err := p.source.Fetch(ctx, max)
	if err != nil {
		return nil, apperr.ExternalService("email source", err)
	}

	report := &RunReport{Fetched: len(raws)}
	var emails []*models.Email

	for _, raw := range raws {
		email, err := Parse(raw)
		if err != nil {
			report.Failures++
			p.logger.Warn("Failed to parse email", zap.Error(err))
			continue
		}
		email.PriorityScore, email.Priority = Score(email, p.now())
		if err := p.store.SaveEmail(ctx, email); err != nil {
			report.Failures++
			p.logger.Error("Failed to cache email",
				zap.Error(err),
				zap.String("message_id", email.MessageID))
			continue
		}
		report.Parsed++
		emails = append(emails, email)
	}

	report.Events, report.Created, report.Duplicates, report.Failures =
		p.ingest(ctx, emails, report.Failures)
	return report, nil
}

// ingest detects and classifies events for already-parsed emails.
func (p *Pipeline) ingest(ctx context.Context, emails []*models.Email, failures int) (events, created, duplicates, totalFailures int) {
	byID := make(map[string]*models.Email, len(emails))
	for _, email := range emails {
		byID[email.MessageID] = email
	}

	candidates := p.detector.DetectBatch(ctx, emails)
	for _, candidate := range candidates {
		email, ok := byID[candidate.EmailID]
		if !ok {
			continue
		}
		events++
		_, err := p.classifier.Classify(ctx, candidate, email)
		switch {
		case err == nil:
			created++
		case apperr.Is(err, apperr.KindConflict):
			duplicates++
		default:
			failures++
			p.logger.Error("Failed to classify event",
				zap.Error(err),
				zap.String("message_id", candidate.EmailID))
		}
	}
	return events, created, duplicates, failures
}
