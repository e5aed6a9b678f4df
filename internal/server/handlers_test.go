package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xaenox/dayflow/internal/models"
	"github.com/xaenox/dayflow/internal/storage"
	"github.com/xaenox/dayflow/internal/workflow"
)

func testNow() time.Time {
	return time.Date(2025, 11, 14, 10, 0, 0, 0, time.UTC)
}

func newTestServer() (*gin.Engine, storage.Storage) {
	gin.SetMode(gin.TestMode)
	store := storage.NewMemoryStorage()
	sessions := workflow.NewManager(nil, testNow, zap.NewNop())
	srv := New(store, sessions, nil, zap.NewNop(), testNow)
	return srv.Router(), store
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	router, _ := newTestServer()
	w := doJSON(t, router, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestCreateAndGetItem(t *testing.T) {
	router, _ := newTestServer()

	w := doJSON(t, router, http.MethodPost, "/items", gin.H{
		"type":       "appointment",
		"title":      "Dentist",
		"date":       "2025-11-15",
		"start_time": "15:00",
		"end_time":   "16:00",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode[models.Item](t, w)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, models.StatusUpcoming, created.Status)
	assert.Equal(t, models.SourceManual, created.Source)

	w = doJSON(t, router, http.MethodGet, "/items/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[models.Item](t, w)
	assert.Equal(t, "Dentist", got.Title)
	assert.Equal(t, "15:00", got.StartTime)
}

func TestCreateItemDefaultsDateToToday(t *testing.T) {
	router, _ := newTestServer()
	w := doJSON(t, router, http.MethodPost, "/items", gin.H{"type": "task", "title": "Pack"})
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode[models.Item](t, w)
	assert.Equal(t, "2025-11-14", created.Date)
}

func TestCreateItemValidation(t *testing.T) {
	router, _ := newTestServer()

	w := doJSON(t, router, http.MethodPost, "/items", gin.H{"type": "task", "title": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodPost, "/items", gin.H{"type": "party", "title": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_INPUT")
}

func TestGetItemNotFound(t *testing.T) {
	router, _ := newTestServer()
	w := doJSON(t, router, http.MethodGet, "/items/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "NOT_FOUND")
}

type listResponse struct {
	Items []*models.Item `json:"items"`
	Total int            `json:"total"`
}

func TestListItemsFilteringAndPaging(t *testing.T) {
	router, _ := newTestServer()

	for _, item := range []gin.H{
		{"type": "task", "title": "Write report", "date": "2025-11-14"},
		{"type": "task", "title": "Pay rent", "date": "2025-11-15"},
		{"type": "meeting", "title": "Standup", "date": "2025-11-14", "start_time": "09:30"},
	} {
		w := doJSON(t, router, http.MethodPost, "/items", item)
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := doJSON(t, router, http.MethodGet, "/items?type=task", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[listResponse](t, w)
	assert.Equal(t, 2, list.Total)

	w = doJSON(t, router, http.MethodGet, "/items?search=report", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list = decode[listResponse](t, w)
	require.Equal(t, 1, list.Total)
	assert.Equal(t, "Write report", list.Items[0].Title)

	w = doJSON(t, router, http.MethodGet, "/items?limit=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list = decode[listResponse](t, w)
	assert.Equal(t, 3, list.Total)
	assert.Len(t, list.Items, 2)
}

func TestListItemsLimitRejected(t *testing.T) {
	router, _ := newTestServer()

	w := doJSON(t, router, http.MethodGet, "/items?limit=101", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodGet, "/items?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListDerivesOverdue(t *testing.T) {
	router, _ := newTestServer()

	w := doJSON(t, router, http.MethodPost, "/items", gin.H{
		"type": "task", "title": "Stale", "date": "2025-11-10",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode[models.Item](t, w)

	w = doJSON(t, router, http.MethodGet, "/items", nil)
	list := decode[listResponse](t, w)
	require.Equal(t, 1, list.Total)
	assert.Equal(t, models.StatusOverdue, list.Items[0].Status)

	// the stored status is untouched; overdue is derived per read
	w = doJSON(t, router, http.MethodGet, "/items/"+created.ID, nil)
	got := decode[models.Item](t, w)
	assert.Equal(t, models.StatusOverdue, got.Status)
}

func TestUpdateAndDeleteItem(t *testing.T) {
	router, _ := newTestServer()

	w := doJSON(t, router, http.MethodPost, "/items", gin.H{"type": "task", "title": "Draft", "date": "2025-11-14"})
	created := decode[models.Item](t, w)

	w = doJSON(t, router, http.MethodPatch, "/items/"+created.ID, gin.H{"status": "done", "title": "Draft v2"})
	require.Equal(t, http.StatusOK, w.Code)
	updated := decode[models.Item](t, w)
	assert.Equal(t, models.StatusDone, updated.Status)
	assert.Equal(t, "Draft v2", updated.Title)

	w = doJSON(t, router, http.MethodPatch, "/items/"+created.ID, gin.H{"status": "paused"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodDelete, "/items/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, router, http.MethodDelete, "/items/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStatsSummary(t *testing.T) {
	router, _ := newTestServer()

	for _, item := range []gin.H{
		{"type": "task", "title": "a", "date": "2025-11-14"},
		{"type": "task", "title": "b", "date": "2025-11-15"},
		{"type": "goal", "title": "c", "date": "2025-11-14"},
	} {
		w := doJSON(t, router, http.MethodPost, "/items", item)
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := doJSON(t, router, http.MethodGet, "/stats/summary", nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode[models.Stats](t, w)
	assert.Equal(t, 2, stats.CountByType[models.TypeTask])
	assert.Equal(t, 1, stats.CountByType[models.TypeGoal])
	assert.Equal(t, 2, stats.Today.Total)
}

// The summary must report a stale upcoming item under overdue, matching how
// the list and get endpoints derive its status.
func TestStatsSummaryCountsOverdue(t *testing.T) {
	router, _ := newTestServer()

	for _, item := range []gin.H{
		{"type": "task", "title": "stale", "date": "2025-11-10"},
		{"type": "task", "title": "fresh", "date": "2025-11-15"},
	} {
		w := doJSON(t, router, http.MethodPost, "/items", item)
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := doJSON(t, router, http.MethodGet, "/stats/summary", nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode[models.Stats](t, w)
	assert.Equal(t, 1, stats.CountByStatus[models.StatusOverdue])
	assert.Equal(t, 1, stats.CountByStatus[models.StatusUpcoming])
}

func TestConversationEndpoints(t *testing.T) {
	router, store := newTestServer()

	w := doJSON(t, router, http.MethodPost, "/conversations", gin.H{
		"kind":    "appointment",
		"message": "dentist tomorrow at 3pm",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	result := decode[workflow.Result](t, w)
	require.NotEmpty(t, result.SessionID)
	assert.Contains(t, result.Reply.Message, "How long")

	path := "/conversations/" + result.SessionID + "/messages"
	for _, answer := range []string{"30 minutes", "skip"} {
		w = doJSON(t, router, http.MethodPost, path, gin.H{"message": answer})
		require.Equal(t, http.StatusOK, w.Code)
	}

	w = doJSON(t, router, http.MethodPost, path, gin.H{"message": "yes"})
	require.Equal(t, http.StatusOK, w.Code)
	result = decode[workflow.Result](t, w)
	require.True(t, result.Reply.Done)
	require.NotNil(t, result.Item)

	// the completed dialog's item was persisted
	stored, err := store.GetItem(context.Background(), result.Item.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TypeAppointment, stored.Type)
	assert.Equal(t, "2025-11-15", stored.Date)
	assert.Equal(t, "15:00", stored.StartTime)
	assert.Equal(t, "15:30", stored.EndTime)

	// the finished session is gone
	w = doJSON(t, router, http.MethodPost, path, gin.H{"message": "yes"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestConversationUnknownKind(t *testing.T) {
	router, _ := newTestServer()
	w := doJSON(t, router, http.MethodPost, "/conversations", gin.H{"kind": "reminder"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEmailScanWithoutPipeline(t *testing.T) {
	router, _ := newTestServer()
	w := doJSON(t, router, http.MethodPost, "/emails/scan", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, strings.ToLower(w.Body.String()), "email source not configured")
}
