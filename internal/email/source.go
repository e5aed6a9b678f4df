// Package email implements the inbox→item pipeline: fetch raw messages,
// parse and score them, detect candidate events with the LLM and turn them
// into deduplicated gmail-sourced items.
package email

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// DefaultFetchCount is how many inbox messages a pipeline run looks at.
const DefaultFetchCount = 100

// Source fetches the latest raw RFC-822 messages from an inbox. The layer is
// provider-agnostic; GmailSource is the shipped implementation.
type Source interface {
	Fetch(ctx context.Context, max int) ([][]byte, error)
}

type GmailSource struct {
	svc *gmail.Service
}

// NewGmailSource builds a Gmail client from OAuth application credentials
// and a previously issued user token. The token exchange itself happens
// outside this process.
func NewGmailSource(ctx context.Context, credentialsJSON, tokenJSON []byte) (*GmailSource, error) {
	config, err := google.ConfigFromJSON(credentialsJSON, gmail.GmailReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("error parsing gmail credentials: %w", err)
	}

	token := &oauth2.Token{}
	if err := json.Unmarshal(tokenJSON, token); err != nil {
		return nil, fmt.Errorf("error parsing gmail token: %w", err)
	}

	svc, err := gmail.NewService(ctx, option.WithHTTPClient(config.Client(ctx, token)))
	if err != nil {
		return nil, fmt.Errorf("error creating gmail service: %w", err)
	}

	return &GmailSource{svc: svc}, nil
}

func (s *GmailSource) Fetch(ctx context.Context, max int) ([][]byte, error) {
	if max <= 0 {
		max = DefaultFetchCount
	}

	list, err := s.svc.Users.Messages.List("me").
		LabelIds("INBOX").
		MaxResults(int64(max)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("error listing messages: %w", err)
	}

	var raws [][]byte
	for _, ref := range list.Messages {
		msg, err := s.svc.Users.Messages.Get("me", ref.Id).Format("raw").Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("error fetching message %s: %w", ref.Id, err)
		}
		raw, err := base64.URLEncoding.DecodeString(msg.Raw)
		if err != nil {
			return nil, fmt.Errorf("error decoding message %s: %w", ref.Id, err)
		}
		raws = append(raws, raw)
	}

	return raws, nil
}
