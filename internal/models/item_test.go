package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validItem() Item {
	return Item{
		ID:     "t1",
		Type:   TypeTask,
		Title:  "Buy milk",
		Date:   "2025-01-15",
		Status: StatusUpcoming,
		Source: SourceManual,
	}
}

func TestItemValidate(t *testing.T) {
	item := validItem()
	require.NoError(t, item.Validate())

	tests := []struct {
		name   string
		mutate func(*Item)
	}{
		{"empty title", func(i *Item) { i.Title = "  " }},
		{"unknown type", func(i *Item) { i.Type = "reminder" }},
		{"unknown status", func(i *Item) { i.Status = "active" }},
		{"unknown status pending", func(i *Item) { i.Status = "pending" }},
		{"unknown source", func(i *Item) { i.Source = "outlook" }},
		{"unknown priority", func(i *Item) { i.Priority = "urgent" }},
		{"malformed date", func(i *Item) { i.Date = "15/01/2025" }},
		{"malformed time", func(i *Item) { i.StartTime = "9am" }},
		{"end before start", func(i *Item) { i.StartTime = "14:00"; i.EndTime = "13:00" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := validItem()
			tt.mutate(&item)
			assert.Error(t, item.Validate())
		})
	}
}

func TestItemValidateOptionalFields(t *testing.T) {
	item := validItem()
	item.StartTime = "09:00"
	item.EndTime = "09:00" // equal times are allowed
	item.Priority = PriorityHigh
	assert.NoError(t, item.Validate())
}

func TestParticipantsRoundTrip(t *testing.T) {
	tests := [][]string{
		{"alice@example.com"},
		{"alice@example.com", "bob@example.com"},
		{"Alice Smith", "bob@example.com", "carol"},
		nil,
	}
	for _, xs := range tests {
		assert.Equal(t, xs, ParseParticipants(FormatParticipants(xs)))
	}
}

func TestParseParticipantsDropsEmptyAndTrims(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, ParseParticipants(" a , , b ,"))
	assert.Nil(t, ParseParticipants("  "))
	assert.Nil(t, ParseParticipants(",,"))
}

func TestIsOverdue(t *testing.T) {
	item := validItem()
	assert.True(t, item.IsOverdue("2025-01-16"))
	assert.False(t, item.IsOverdue("2025-01-15"))

	item.Status = StatusDone
	assert.False(t, item.IsOverdue("2025-01-16"))
}
