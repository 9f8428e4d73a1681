package fetcher

import (
	"context"

	"lead-tracker-go/internal/model"
	"lead-tracker-go/internal/msgraph"
)

// MailFetcher is the mailbox polling interface. FetchRecent returns up to
// limit of the most recent messages, newest first; the caller filters out
// identifiers it has already ingested.
type MailFetcher interface {
	FetchRecent(ctx context.Context, limit int) ([]model.EmailMessage, error)
	Close() error
}

// GraphFetcher implements MailFetcher using the Microsoft Graph API.
type GraphFetcher struct {
	client *msgraph.Client
}

// NewGraphFetcher creates a Graph-backed mail fetcher.
func NewGraphFetcher(client *msgraph.Client) *GraphFetcher {
	return &GraphFetcher{client: client}
}

// FetchRecent fetches the most recent messages via Graph.
func (f *GraphFetcher) FetchRecent(ctx context.Context, limit int) ([]model.EmailMessage, error) {
	return f.client.ListRecentMessages(ctx, limit)
}

// Close closes the Graph fetcher (no-op, the HTTP client has no session).
func (f *GraphFetcher) Close() error {
	return nil
}
