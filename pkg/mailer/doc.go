// Package mailer defines the outbound email contract used by the dispatcher
// and a few helpers around it.
//
// A Sender delivers one fully prepared Email. Providers live in
// sub-packages (see mailer/resend); LogSender is a development stand-in that
// only logs what would have been sent:
//
//	var sender mailer.Sender = resend.New(resend.Config{APIKey: key, SenderEmail: "team@example.com"})
//	if key == "" {
//		sender = mailer.NewLogSender(log)
//	}
//
//	err := sender.Send(ctx, &mailer.Email{
//		To:      []string{"client@example.com"},
//		Subject: "Following up",
//		HTML:    "<p>Hi Acme</p>",
//		Text:    "Hi Acme",
//	})
//
// Send returns nil when the provider accepted the message for delivery; any
// error means the message was not accepted.
//
// # Markdown sources
//
// Template sources may be written as markdown with YAML frontmatter:
//
//	---
//	name: Follow-up
//	subject: "Following up, {{client_name}}"
//	---
//	Hi **{{client_name}}**,
//
// ParseFrontmatter decodes the frontmatter into a struct and returns the
// body; MarkdownToHTML converts the body with goldmark (GFM enabled, raw
// HTML passed through).
package mailer
