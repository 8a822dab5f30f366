package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/followup/internal/domain"
	"github.com/dmitrymomot/followup/internal/metrics"
	"github.com/dmitrymomot/followup/internal/render"
	"github.com/dmitrymomot/followup/internal/store"
	"github.com/dmitrymomot/followup/pkg/cache"
	"github.com/dmitrymomot/followup/pkg/i18n"
	"github.com/dmitrymomot/followup/pkg/id"
	"github.com/dmitrymomot/followup/pkg/logger"
	"github.com/dmitrymomot/followup/pkg/mailer"
	"github.com/dmitrymomot/followup/pkg/sanitizer"
)

// Outcome is what ProcessDue did with a record.
type Outcome string

const (
	OutcomeSent      Outcome = "sent"
	OutcomeRecovered Outcome = "recovered"
	OutcomeFailed    Outcome = "failed"
	OutcomeSkipped   Outcome = "skipped"
)

// BatchResult counts outcomes of ProcessBatch.
type BatchResult struct {
	Sent      int
	Recovered int
	Failed    int
	Skipped   int
}

// Engine processes due scheduled emails.
type Engine struct {
	store     store.Store
	sender    mailer.Sender
	marks     cache.Cache[SendMark]
	ownsMarks bool
	markTTL   time.Duration
	from      string
	now       func() time.Time
	logger    *slog.Logger
}

// New creates an engine. Without WithSendMarks it keeps marks in memory
// and Close releases them.
func New(st store.Store, sender mailer.Sender, opts ...Option) *Engine {
	e := &Engine{
		store:   st,
		sender:  sender,
		markTTL: defaultMarkTTL,
		now:     time.Now,
		logger:  logger.NewNope(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.marks == nil {
		e.marks = cache.NewMemory[SendMark](cache.WithDefaultTTL(e.markTTL), cache.WithCleanupInterval(10*time.Minute))
		e.ownsMarks = true
	}
	return e
}

// Close releases the in-memory send-mark cache if the engine created it.
func (e *Engine) Close() error {
	if e.ownsMarks {
		return e.marks.Close()
	}
	return nil
}

// ProcessBatch processes records sequentially in the given order. It stops
// early only when ctx is done; unprocessed records stay pending.
func (e *Engine) ProcessBatch(ctx context.Context, records []domain.ScheduledEmail) BatchResult {
	var res BatchResult
	for _, rec := range records {
		if ctx.Err() != nil {
			e.logger.WarnContext(ctx, "batch interrupted", slog.Int("remaining", len(records)-res.total()))
			break
		}
		switch e.ProcessDue(ctx, rec) {
		case OutcomeSent:
			res.Sent++
		case OutcomeRecovered:
			res.Recovered++
		case OutcomeFailed:
			res.Failed++
		default:
			res.Skipped++
		}
	}
	return res
}

func (r BatchResult) total() int {
	return r.Sent + r.Recovered + r.Failed + r.Skipped
}

// ProcessDue drives one record through the state machine. Records that are
// not pending, as passed or as currently stored, are left untouched.
func (e *Engine) ProcessDue(ctx context.Context, rec domain.ScheduledEmail) (out Outcome) {
	log := e.logger.With(
		slog.String("scheduled_email_id", rec.ID),
		slog.String("client_id", rec.ClientID),
		slog.String("template_id", rec.TemplateID),
	)

	handedOff := false
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("%w: %v", ErrPanic, r)
			log.ErrorContext(ctx, "panic while processing scheduled email",
				slog.Bool("sent", handedOff), slog.String("error", err.Error()))
			if handedOff {
				out = OutcomeSent
				return
			}
			out = e.fail(ctx, log, rec, "Internal error while processing email", metrics.OutcomeFailedInternal)
		}
	}()

	if rec.Status != domain.StatusPending {
		return e.skip(ctx, log, rec.Status)
	}

	current, ok := e.reload(ctx, log, rec)
	if !ok {
		return e.skip(ctx, log, current.Status)
	}
	rec = current

	if mark, found := e.findMark(ctx, log, rec.ID); found {
		log.WarnContext(ctx, "completing email already accepted by transport")
		e.complete(ctx, log, rec, mark)
		metrics.IncDispatch(metrics.OutcomeRecovered)
		return OutcomeRecovered
	}

	client, tpl, err := e.resolve(ctx, rec)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return e.fail(ctx, log, rec, MsgNotFound, metrics.OutcomeFailedNotFound)
		}
		log.ErrorContext(ctx, "failed to load client or template", slog.String("error", err.Error()))
		return e.fail(ctx, log, rec, "Failed to load client or template: "+err.Error(), metrics.OutcomeFailedInternal)
	}

	lang := effectiveLanguage(rec, client)
	content, err := render.Render(tpl, lang, render.BuildVariables(client, i18n.FormatFor(lang)))
	if err != nil {
		return e.fail(ctx, log, rec, fmt.Sprintf(MsgContentUnavailable, lang), metrics.OutcomeFailedContent)
	}

	// The record may have been cancelled since the tick fetched it.
	if latest, ok := e.reload(ctx, log, rec); !ok {
		log.InfoContext(ctx, "scheduled email changed before send", slog.String("status", string(latest.Status)))
		return e.skip(ctx, log, latest.Status)
	}

	email := &mailer.Email{
		From:    e.from,
		To:      []string{client.Email},
		Subject: content.Subject,
		HTML:    content.Body,
		Text:    sanitizer.StripTags(content.Body),
		Tags:    mailer.Tags{"scheduled_email_id": rec.ID, "template_id": tpl.ID},
	}

	start := time.Now()
	err = e.sender.Send(ctx, email)
	metrics.ObserveSend(time.Since(start), err)
	if err != nil {
		log.WarnContext(ctx, "transport rejected email", slog.String("error", fmt.Errorf("%w: %w", ErrTransport, err).Error()))
		return e.fail(ctx, log, rec, transportMessage(err), metrics.OutcomeFailedTransport)
	}
	handedOff = true

	mark := SendMark{SentAt: e.now(), Subject: content.Subject, Body: content.Body, Language: content.Language}
	if err := e.marks.Set(ctx, markKey(rec.ID), mark, e.markTTL); err != nil {
		log.WarnContext(ctx, "failed to write send mark", slog.String("error", err.Error()))
	}

	e.complete(ctx, log, rec, mark)
	metrics.IncDispatch(metrics.OutcomeSent)
	log.InfoContext(ctx, "email sent", slog.String("language", content.Language))
	return OutcomeSent
}

// reload re-reads rec and reports whether it is still pending. When the
// read fails for a reason other than deletion the passed record is used.
func (e *Engine) reload(ctx context.Context, log *slog.Logger, rec domain.ScheduledEmail) (domain.ScheduledEmail, bool) {
	current, err := e.store.GetScheduledEmail(ctx, rec.ID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return domain.ScheduledEmail{ID: rec.ID}, false
	case err != nil:
		log.WarnContext(ctx, "failed to re-read scheduled email status", slog.String("error", err.Error()))
		return rec, true
	}
	return current, current.Status == domain.StatusPending
}

func (e *Engine) findMark(ctx context.Context, log *slog.Logger, id string) (SendMark, bool) {
	mark, err := e.marks.Get(ctx, markKey(id))
	if err != nil {
		if !errors.Is(err, cache.ErrNotFound) {
			log.WarnContext(ctx, "failed to read send mark", slog.String("error", err.Error()))
		}
		return SendMark{}, false
	}
	return mark, true
}

func (e *Engine) resolve(ctx context.Context, rec domain.ScheduledEmail) (domain.Client, domain.EmailTemplate, error) {
	client, err := e.store.GetClient(ctx, rec.ClientID)
	if err != nil {
		return domain.Client{}, domain.EmailTemplate{}, err
	}
	tpl, err := e.store.GetTemplate(ctx, rec.TemplateID)
	if err != nil {
		return domain.Client{}, domain.EmailTemplate{}, err
	}
	return client, tpl, nil
}

// complete records a send. Failures after the transport accepted the
// message are logged as anomalies; the send mark lets a later tick finish
// a record whose status could not be written.
func (e *Engine) complete(ctx context.Context, log *slog.Logger, rec domain.ScheduledEmail, mark SendMark) {
	rec.MarkSent(mark.Subject, mark.Body, mark.SentAt)

	scheduledID, templateID := rec.ID, rec.TemplateID
	entry := domain.EmailLog{
		ID:               id.NewULIDAt(mark.SentAt),
		ClientID:         rec.ClientID,
		TemplateID:       &templateID,
		ScheduledEmailID: &scheduledID,
		Subject:          mark.Subject,
		Status:           domain.LogStatusSent,
		Language:         mark.Language,
		SentAt:           mark.SentAt,
	}

	if c, ok := e.store.(store.SendCompleter); ok {
		if err := c.CompleteSend(ctx, rec, entry); err != nil {
			e.anomaly(ctx, log, "failed to record send", err)
		}
		return
	}

	if err := e.store.UpdateScheduledEmail(ctx, rec); err != nil {
		e.anomaly(ctx, log, "failed to mark email as sent", err)
		return
	}
	if err := e.store.AppendLog(ctx, entry); err != nil {
		e.anomaly(ctx, log, "email sent without log entry", err)
	}
	if err := e.store.IncrementTemplateUsage(ctx, rec.TemplateID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		e.anomaly(ctx, log, "email sent without usage increment", err)
	}
}

func (e *Engine) anomaly(ctx context.Context, log *slog.Logger, msg string, err error) {
	metrics.IncDispatch(metrics.OutcomeBookkeepingError)
	log.ErrorContext(ctx, msg, slog.String("error", err.Error()))
}

func (e *Engine) fail(ctx context.Context, log *slog.Logger, rec domain.ScheduledEmail, reason, outcome string) Outcome {
	rec.MarkFailed(reason)
	if err := e.store.UpdateScheduledEmail(ctx, rec); err != nil {
		log.ErrorContext(ctx, "failed to mark email as failed",
			slog.String("reason", reason), slog.String("error", err.Error()))
	}
	metrics.IncDispatch(outcome)
	log.WarnContext(ctx, "scheduled email failed", slog.String("reason", reason))
	return OutcomeFailed
}

func (e *Engine) skip(ctx context.Context, log *slog.Logger, status domain.Status) Outcome {
	metrics.IncDispatch(metrics.OutcomeSkipped)
	log.DebugContext(ctx, "skipping scheduled email", slog.String("status", string(status)))
	return OutcomeSkipped
}

func effectiveLanguage(rec domain.ScheduledEmail, c domain.Client) string {
	switch {
	case rec.Language != "":
		return rec.Language
	case c.Language != "":
		return c.Language
	}
	return i18n.DefaultLang
}

func transportMessage(err error) string {
	if msg := err.Error(); msg != "" {
		return msg
	}
	return MsgSendFailed
}
