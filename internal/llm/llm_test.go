package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	response string
	err      error
}

func (f *fakeClient) Complete(ctx context.Context, systemPrompt, userText string) (string, error) {
	return f.response, f.err
}

func TestCompleteJSONNilClient(t *testing.T) {
	var out map[string]any
	err := CompleteJSON(context.Background(), nil, "sys", "user", &out)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestCompleteJSONStripsFences(t *testing.T) {
	tests := []string{
		`{"title": "Dentist"}`,
		"```json\n{\"title\": \"Dentist\"}\n```",
		"```\n{\"title\": \"Dentist\"}\n```",
		"  {\"title\": \"Dentist\"}  ",
	}
	for _, response := range tests {
		var out struct {
			Title string `json:"title"`
		}
		err := CompleteJSON(context.Background(), &fakeClient{response: response}, "sys", "user", &out)
		require.NoError(t, err, response)
		assert.Equal(t, "Dentist", out.Title, response)
	}
}

func TestCompleteJSONInvalidJSON(t *testing.T) {
	var out map[string]any
	err := CompleteJSON(context.Background(), &fakeClient{response: "sure, here you go"}, "sys", "user", &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not valid JSON")
}

func TestCompleteJSONPropagatesClientError(t *testing.T) {
	var out map[string]any
	providerErr := errors.New("rate limited")
	err := CompleteJSON(context.Background(), &fakeClient{err: providerErr}, "sys", "user", &out)
	assert.ErrorIs(t, err, providerErr)
}
