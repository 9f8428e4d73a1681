package fetcher

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-message"
	"github.com/sirupsen/logrus"

	"lead-tracker-go/config"
	"lead-tracker-go/internal/model"
)

// IMAPFetcher implements MailFetcher over a plain IMAP mailbox. It exists for
// mailboxes without Graph API access; message identity comes from the
// envelope Message-Id, which is stable across fetches the same way a Graph
// message id is.
type IMAPFetcher struct {
	client *client.Client
	log    *logrus.Logger
}

// NewIMAPFetcher connects and logs in to the configured IMAP server.
func NewIMAPFetcher(cfg *config.MailConfig, log *logrus.Logger) (*IMAPFetcher, error) {
	c, err := client.DialTLS(fmt.Sprintf("%s:%d", cfg.IMAPHost, cfg.IMAPPort), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to IMAP server: %w", err)
	}

	if err := c.Login(cfg.IMAPUser, cfg.IMAPPassword); err != nil {
		c.Logout()
		return nil, fmt.Errorf("failed to login to IMAP server: %w", err)
	}

	return &IMAPFetcher{client: c, log: log}, nil
}

// FetchRecent fetches the newest limit messages from INBOX, newest first.
func (f *IMAPFetcher) FetchRecent(ctx context.Context, limit int) ([]model.EmailMessage, error) {
	mbox, err := f.client.Select("INBOX", true)
	if err != nil {
		return nil, fmt.Errorf("failed to select INBOX: %w", err)
	}

	if mbox.Messages == 0 {
		return []model.EmailMessage{}, nil
	}

	from := uint32(1)
	if mbox.Messages > uint32(limit) {
		from = mbox.Messages - uint32(limit) + 1
	}

	seqset := new(imap.SeqSet)
	seqset.AddRange(from, mbox.Messages)

	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{imap.FetchEnvelope, section.FetchItem()}

	messages := make(chan *imap.Message, limit)
	done := make(chan error, 1)

	go func() {
		done <- f.client.Fetch(seqset, items, messages)
	}()

	var emails []model.EmailMessage

	for msg := range messages {
		email, err := f.parseMessage(msg, section)
		if err != nil {
			f.log.Warnf("Failed to parse IMAP message: %v", err)
			continue
		}
		emails = append(emails, email)
	}

	if err := <-done; err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}

	// Sequence numbers arrive oldest first; callers expect newest first.
	for i, j := 0, len(emails)-1; i < j; i, j = i+1, j-1 {
		emails[i], emails[j] = emails[j], emails[i]
	}

	return emails, nil
}

func (f *IMAPFetcher) parseMessage(msg *imap.Message, section *imap.BodySectionName) (model.EmailMessage, error) {
	email := model.EmailMessage{}

	if msg.Envelope == nil {
		return email, fmt.Errorf("message has no envelope")
	}

	email.ID = msg.Envelope.MessageId
	email.Subject = msg.Envelope.Subject
	// UTC RFC3339 keeps received timestamps string-comparable across backends.
	email.Received = msg.Envelope.Date.UTC().Format(time.RFC3339)

	if len(msg.Envelope.From) > 0 {
		email.SenderName = msg.Envelope.From[0].PersonalName
		email.SenderEmail = msg.Envelope.From[0].Address()
	}

	if email.ID == "" {
		return email, fmt.Errorf("message has no Message-Id")
	}

	body, err := f.parseBody(msg, section)
	if err != nil {
		return email, err
	}
	email.Body = body

	return email, nil
}

func (f *IMAPFetcher) parseBody(msg *imap.Message, section *imap.BodySectionName) (string, error) {
	r := msg.GetBody(section)
	if r == nil {
		return "", nil
	}

	entity, err := message.Read(r)
	if err != nil {
		return "", fmt.Errorf("failed to read message: %w", err)
	}

	if mr := entity.MultipartReader(); mr != nil {
		var plain, html string
		for {
			p, err := mr.NextPart()
			if err == io.EOF {
				break
			}
			if err != nil {
				return "", fmt.Errorf("failed to read part: %w", err)
			}

			content, err := io.ReadAll(p.Body)
			if err != nil {
				return "", fmt.Errorf("failed to read part body: %w", err)
			}

			contentType := p.Header.Get("Content-Type")
			if strings.Contains(contentType, "text/plain") {
				plain = string(content)
			} else if strings.Contains(contentType, "text/html") {
				html = string(content)
			}
		}
		if plain != "" {
			return plain, nil
		}
		return html, nil
	}

	content, err := io.ReadAll(entity.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read message body: %w", err)
	}
	return string(content), nil
}

// Close logs out of the IMAP session.
func (f *IMAPFetcher) Close() error {
	return f.client.Logout()
}
