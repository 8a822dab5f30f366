package resend

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/resend/resend-go/v3"

	"github.com/dmitrymomot/followup/pkg/mailer"
)

// Sender implements mailer.Sender using the Resend API.
type Sender struct {
	client *resend.Client
	config Config
}

// New creates a Resend sender. An unparsable BaseURL is ignored and the
// public endpoint is used.
func New(cfg Config) *Sender {
	client := resend.NewClient(cfg.APIKey)
	if cfg.BaseURL != "" {
		if u, err := url.Parse(strings.TrimSuffix(cfg.BaseURL, "/") + "/"); err == nil {
			client.BaseURL = u
		}
	}
	return &Sender{client: client, config: cfg}
}

// Send implements mailer.Sender.
func (s *Sender) Send(ctx context.Context, email *mailer.Email) error {
	if err := email.Validate(); err != nil {
		return err
	}

	req := &resend.SendEmailRequest{
		From:    s.from(email),
		To:      email.To,
		Subject: email.Subject,
		Html:    email.HTML,
		Text:    email.Text,
		ReplyTo: email.ReplyTo,
		Headers: email.Headers,
	}
	if len(email.Tags) > 0 {
		req.Tags = convertTags(email.Tags)
	}

	if _, err := s.client.Emails.SendWithContext(ctx, req); err != nil {
		return fmt.Errorf("resend: failed to send email: %w", err)
	}

	return nil
}

func (s *Sender) from(email *mailer.Email) string {
	if email.From != "" {
		return email.From
	}
	return mailer.Recipient(s.config.SenderName, s.config.SenderEmail)
}

// convertTags returns tags sorted by name so requests are deterministic.
func convertTags(tags mailer.Tags) []resend.Tag {
	result := make([]resend.Tag, 0, len(tags))
	for name, value := range tags {
		if value == "" {
			value = "true"
		}
		result = append(result, resend.Tag{Name: name, Value: value})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}
