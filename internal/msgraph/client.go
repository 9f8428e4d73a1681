package msgraph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/oauth2/microsoft"

	"lead-tracker-go/config"
	"lead-tracker-go/internal/model"
)

// Client is a Microsoft Graph REST client covering the three calls the lead
// tracker needs: listing recent mailbox messages, creating calendar events,
// and provisioning OneDrive folders. Token acquisition and refresh is handled
// by the oauth2 client-credentials transport.
type Client struct {
	baseURL    string
	userEmail  string
	httpClient *http.Client
	log        *logrus.Logger
}

// NewClient creates a Graph client authenticating with client credentials
// against the Microsoft identity platform.
func NewClient(cfg *config.GraphConfig, log *logrus.Logger) *Client {
	cc := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     microsoft.AzureADEndpoint(cfg.TenantID).TokenURL,
		Scopes:       []string{"https://graph.microsoft.com/.default"},
	}

	httpClient := cc.Client(context.Background())
	httpClient.Timeout = 30 * time.Second

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		userEmail:  cfg.UserEmail,
		httpClient: httpClient,
		log:        log,
	}
}

// NewClientWithHTTP creates a Graph client with an injected HTTP client and
// base URL. Used by tests and by callers that manage credentials themselves.
func NewClientWithHTTP(baseURL, userEmail string, httpClient *http.Client, log *logrus.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		userEmail:  userEmail,
		httpClient: httpClient,
		log:        log,
	}
}

type graphMessageList struct {
	Value []graphMessage `json:"value"`
}

type graphMessage struct {
	ID               string `json:"id"`
	Subject          string `json:"subject"`
	ReceivedDateTime string `json:"receivedDateTime"`
	From             struct {
		EmailAddress struct {
			Name    string `json:"name"`
			Address string `json:"address"`
		} `json:"emailAddress"`
	} `json:"from"`
	Body struct {
		Content string `json:"content"`
	} `json:"body"`
}

// ListRecentMessages fetches the most recent limit messages, newest first.
func (c *Client) ListRecentMessages(ctx context.Context, limit int) ([]model.EmailMessage, error) {
	query := url.Values{}
	query.Set("$top", fmt.Sprintf("%d", limit))
	query.Set("$orderby", "receivedDateTime desc")

	endpoint := fmt.Sprintf("%s/users/%s/messages?%s", c.baseURL, url.PathEscape(c.userEmail), query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build message list request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("message list returned %d: %s", resp.StatusCode, string(body))
	}

	var list graphMessageList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("failed to decode message list: %w", err)
	}

	messages := make([]model.EmailMessage, 0, len(list.Value))
	for _, m := range list.Value {
		messages = append(messages, model.EmailMessage{
			ID:          m.ID,
			SenderName:  m.From.EmailAddress.Name,
			SenderEmail: m.From.EmailAddress.Address,
			Subject:     m.Subject,
			Received:    m.ReceivedDateTime,
			Body:        m.Body.Content,
		})
	}

	return messages, nil
}

// EventPayload is the Graph calendar event creation body.
type EventPayload struct {
	Subject   string     `json:"subject"`
	Start     EventTime  `json:"start"`
	End       EventTime  `json:"end"`
	Attendees []Attendee `json:"attendees"`
}

// EventTime is a Graph dateTimeTimeZone value.
type EventTime struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

// Attendee is a Graph event attendee.
type Attendee struct {
	EmailAddress EmailAddress `json:"emailAddress"`
	Type         string       `json:"type"`
}

// EmailAddress is a Graph emailAddress value.
type EmailAddress struct {
	Address string `json:"address"`
	Name    string `json:"name"`
}

// CreateEvent creates a calendar event and returns its id. Anything other
// than a 201 response is an error; the caller decides whether to retry.
func (c *Client) CreateEvent(ctx context.Context, payload EventPayload) (string, error) {
	endpoint := fmt.Sprintf("%s/users/%s/events", c.baseURL, url.PathEscape(c.userEmail))

	var created struct {
		ID string `json:"id"`
	}
	if err := c.postJSON(ctx, endpoint, payload, http.StatusCreated, &created); err != nil {
		return "", fmt.Errorf("failed to create event: %w", err)
	}

	return created.ID, nil
}

// CreateFolder creates a drive folder and returns its web URL. The conflict
// behavior is rename, so a leftover folder from an interrupted run never
// fails the call.
func (c *Client) CreateFolder(ctx context.Context, name string) (string, error) {
	endpoint := fmt.Sprintf("%s/users/%s/drive/root/children", c.baseURL, url.PathEscape(c.userEmail))

	payload := map[string]interface{}{
		"name":                              name,
		"folder":                            map[string]interface{}{},
		"@microsoft.graph.conflictBehavior": "rename",
	}

	var created struct {
		WebURL string `json:"webUrl"`
	}
	if err := c.postJSON(ctx, endpoint, payload, http.StatusCreated, &created); err != nil {
		return "", fmt.Errorf("failed to create folder %s: %w", name, err)
	}

	return created.WebURL, nil
}

func (c *Client) postJSON(ctx context.Context, endpoint string, payload interface{}, wantStatus int, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}
