package email

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xaenox/dayflow/internal/apperr"
	"github.com/xaenox/dayflow/internal/llm"
	"github.com/xaenox/dayflow/internal/models"
	"github.com/xaenox/dayflow/internal/storage"
)

type stubLLM struct {
	response string
	err      error
}

func (s *stubLLM) Complete(ctx context.Context, systemPrompt, userText string) (string, error) {
	return s.response, s.err
}

type stubSource struct {
	raws   [][]byte
	err    error
	gotMax int
}

func (s *stubSource) Fetch(ctx context.Context, max int) ([][]byte, error) {
	s.gotMax = max
	return s.raws, s.err
}

func TestDetectNilClient(t *testing.T) {
	d := NewDetector(nil, zap.NewNop())
	_, err := d.Detect(context.Background(), &models.Email{MessageID: "<x@y>"})
	assert.ErrorIs(t, err, llm.ErrUnavailable)
}

func TestDetectNoEvent(t *testing.T) {
	d := NewDetector(&stubLLM{response: `{"has_event": false}`}, zap.NewNop())
	candidate, err := d.Detect(context.Background(), &models.Email{MessageID: "<x@y>"})
	require.NoError(t, err)
	assert.Nil(t, candidate)
}

func TestDetectFencedJSON(t *testing.T) {
	d := NewDetector(&stubLLM{response: "```json\n" +
		`{"has_event": true, "title": "Team sync", "date_time": "2025-11-20T14:00:00Z", "event_type": "meeting"}` +
		"\n```"}, zap.NewNop())

	candidate, err := d.Detect(context.Background(), &models.Email{MessageID: "<x@y>"})
	require.NoError(t, err)
	require.NotNil(t, candidate)
	assert.Equal(t, "<x@y>", candidate.EmailID)
	assert.Equal(t, "Team sync", candidate.Title)
	assert.Equal(t, "meeting", candidate.EventType)
}

func TestDetectBatchIsolatesFailures(t *testing.T) {
	d := NewDetector(&stubLLM{err: errors.New("provider down")}, zap.NewNop())
	candidates := d.DetectBatch(context.Background(), []*models.Email{
		{MessageID: "<a@y>"},
		{MessageID: "<b@y>"},
	})
	assert.Empty(t, candidates)
}

const eventMessage = "Message-ID: <sync1@mail.example.com>\r\n" +
	"From: Bob <bob@corp.example.com>\r\n" +
	"Subject: Team sync thursday\r\n" +
	"Date: Fri, 14 Nov 2025 09:00:00 +0000\r\n" +
	"\r\n" +
	"Join the sync at 2pm.\r\n"

func newTestPipeline(source Source, client llm.Client, store storage.Storage) *Pipeline {
	logger := zap.NewNop()
	detector := NewDetector(client, logger)
	classifier := NewClassifier(store, logger, classifierNow)
	return NewPipeline(source, store, detector, classifier, logger, classifierNow, 0)
}

func TestPipelineRun(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStorage()
	client := &stubLLM{response: `{"has_event": true, "title": "Team sync", "date_time": "2025-11-20T14:00:00Z", "event_type": "meeting"}`}
	source := &stubSource{raws: [][]byte{
		[]byte(eventMessage),
		[]byte("not an email at all"),
	}}
	p := newTestPipeline(source, client, store)

	report, err := p.Run(ctx, 10)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Fetched)
	assert.Equal(t, 1, report.Parsed)
	assert.Equal(t, 1, report.Failures)
	assert.Equal(t, 1, report.Events)
	assert.Equal(t, 1, report.Created)
	assert.Equal(t, 0, report.Duplicates)

	item, err := store.GetItem(ctx, "email_sync1_at_mail.example.com")
	require.NoError(t, err)
	assert.Equal(t, models.TypeMeeting, item.Type)
	assert.Equal(t, models.SourceGmail, item.Source)

	// the raw email was cached with its triage score
	email, err := store.GetEmail(ctx, "<sync1@mail.example.com>")
	require.NoError(t, err)
	assert.NotZero(t, email.Priority)
}

func TestPipelineRerunIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStorage()
	client := &stubLLM{response: `{"has_event": true, "title": "Team sync", "date_time": "2025-11-20T14:00:00Z", "event_type": "meeting"}`}
	source := &stubSource{raws: [][]byte{[]byte(eventMessage)}}
	p := newTestPipeline(source, client, store)

	_, err := p.Run(ctx, 10)
	require.NoError(t, err)

	report, err := p.Run(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Created)
	assert.Equal(t, 1, report.Duplicates)

	_, total, err := store.ListItems(ctx, models.ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

// A run without an explicit batch size uses the configured one, not the
// package default.
func TestPipelineRunUsesConfiguredFetchCount(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStorage()
	logger := zap.NewNop()
	source := &stubSource{}
	p := NewPipeline(source, store, NewDetector(nil, logger),
		NewClassifier(store, logger, classifierNow), logger, classifierNow, 25)

	_, err := p.Run(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 25, source.gotMax)

	// an explicit max still wins
	_, err = p.Run(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 7, source.gotMax)
}

func TestPipelineSourceFailure(t *testing.T) {
	store := storage.NewMemoryStorage()
	p := newTestPipeline(&stubSource{err: errors.New("auth expired")}, nil, store)

	_, err := p.Run(context.Background(), 10)
	assert.True(t, apperr.Is(err, apperr.KindExternalService))
}
