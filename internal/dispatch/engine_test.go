package dispatch_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/followup/internal/dispatch"
	"github.com/dmitrymomot/followup/internal/domain"
	"github.com/dmitrymomot/followup/internal/store"
	"github.com/dmitrymomot/followup/internal/store/memory"
	"github.com/dmitrymomot/followup/pkg/cache"
	"github.com/dmitrymomot/followup/pkg/mailer"
)

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type mockSender struct {
	mock.Mock
}

func (m *mockSender) Send(ctx context.Context, email *mailer.Email) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

// hookStore hides SendCompleter and lets tests intercept calls.
type hookStore struct {
	store.Store
	onGetClient func(ctx context.Context, id string)
	updateErr   func(e domain.ScheduledEmail) error
}

func (h *hookStore) GetClient(ctx context.Context, id string) (domain.Client, error) {
	if h.onGetClient != nil {
		h.onGetClient(ctx, id)
	}
	return h.Store.GetClient(ctx, id)
}

func (h *hookStore) UpdateScheduledEmail(ctx context.Context, e domain.ScheduledEmail) error {
	if h.updateErr != nil {
		if err := h.updateErr(e); err != nil {
			return err
		}
	}
	return h.Store.UpdateScheduledEmail(ctx, e)
}

type fixture struct {
	store  *memory.Store
	sender *mockSender
	marks  *cache.Memory[dispatch.SendMark]
	client domain.Client
	tpl    domain.EmailTemplate
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	ctx := context.Background()
	f := &fixture{
		store:  memory.New(),
		sender: &mockSender{},
		marks:  cache.NewMemory[dispatch.SendMark](cache.WithCleanupInterval(0)),
	}
	t.Cleanup(func() { _ = f.marks.Close() })

	company := "Acme Inc"
	f.client = domain.Client{
		ID:           "client-1",
		Name:         "Jane",
		Email:        "jane@acme.io",
		Company:      &company,
		Language:     "es",
		CustomFields: map[string]string{"plan": "pro"},
		CreatedAt:    t0,
	}
	require.NoError(t, f.store.CreateClient(ctx, f.client))

	f.tpl = domain.EmailTemplate{
		ID:              "tpl-1",
		Name:            "Check-in",
		PrimaryLanguage: "en",
		Subject:         map[string]string{"en": "Hi {{client_name}}", "es": "Hola {{client_name}}"},
		Content: map[string]string{
			"en": "<p>Hi {{client_name}} from <b>{{company}}</b>, plan {{plan}}. {{ghost}}</p>",
			"es": "<p>Hola {{client_name}}</p>",
		},
		CreatedAt: t0,
	}
	f.tpl.SyncLanguages()
	require.NoError(t, f.store.CreateTemplate(ctx, f.tpl))

	return f
}

func (f *fixture) engine(st store.Store, opts ...dispatch.Option) *dispatch.Engine {
	if st == nil {
		st = f.store
	}
	opts = append([]dispatch.Option{
		dispatch.WithClock(func() time.Time { return t0 }),
		dispatch.WithSendMarks(f.marks),
		dispatch.WithFrom("team@example.com"),
	}, opts...)
	return dispatch.New(st, f.sender, opts...)
}

func (f *fixture) pending(t *testing.T, id, clientID, templateID, lang string) domain.ScheduledEmail {
	t.Helper()

	e := domain.ScheduledEmail{
		ID:          id,
		ClientID:    clientID,
		TemplateID:  templateID,
		ScheduledAt: t0.Add(-time.Minute),
		Status:      domain.StatusPending,
		Language:    lang,
		CreatedAt:   t0.Add(-time.Hour),
	}
	require.NoError(t, f.store.CreateScheduledEmail(context.Background(), e))
	return e
}

func (f *fixture) get(t *testing.T, id string) domain.ScheduledEmail {
	t.Helper()

	e, err := f.store.GetScheduledEmail(context.Background(), id)
	require.NoError(t, err)
	return e
}

func (f *fixture) logs(t *testing.T) []domain.EmailLog {
	t.Helper()

	logs, err := f.store.ListLogs(context.Background(), store.LogFilter{})
	require.NoError(t, err)
	return logs
}

func (f *fixture) usage(t *testing.T) int64 {
	t.Helper()

	tpl, err := f.store.GetTemplate(context.Background(), f.tpl.ID)
	require.NoError(t, err)
	return tpl.UsageCount
}

func TestEngine_ProcessDue_Sent(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	rec := f.pending(t, "se-1", f.client.ID, f.tpl.ID, "en")

	var sent *mailer.Email
	f.sender.On("Send", mock.Anything, mock.AnythingOfType("*mailer.Email")).
		Run(func(args mock.Arguments) { sent = args.Get(1).(*mailer.Email) }).
		Return(nil).Once()

	out := f.engine(nil).ProcessDue(context.Background(), rec)
	require.Equal(t, dispatch.OutcomeSent, out)
	f.sender.AssertExpectations(t)

	require.Equal(t, []string{"jane@acme.io"}, sent.To)
	require.Equal(t, "team@example.com", sent.From)
	require.Equal(t, "Hi Jane", sent.Subject)
	require.Equal(t, "<p>Hi Jane from <b>Acme Inc</b>, plan pro. {{ghost}}</p>", sent.HTML)
	require.Equal(t, "Hi Jane from Acme Inc, plan pro. {{ghost}}", sent.Text)
	require.Equal(t, "se-1", sent.Tags["scheduled_email_id"])

	got := f.get(t, "se-1")
	require.Equal(t, domain.StatusSent, got.Status)
	require.Equal(t, "Hi Jane", *got.Subject)
	require.Equal(t, sent.HTML, *got.Content)
	require.Equal(t, t0, *got.SentAt)
	require.Nil(t, got.ErrorMessage)

	logs := f.logs(t)
	require.Len(t, logs, 1)
	require.Equal(t, domain.LogStatusSent, logs[0].Status)
	require.Equal(t, "Hi Jane", logs[0].Subject)
	require.Equal(t, "se-1", *logs[0].ScheduledEmailID)
	require.Equal(t, f.tpl.ID, *logs[0].TemplateID)
	require.Equal(t, "en", logs[0].Language)
	require.EqualValues(t, 1, f.usage(t))

	ok, err := f.marks.Has(context.Background(), "sent:se-1")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestEngine_ProcessDue_WithoutSendCompleter(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	rec := f.pending(t, "se-1", f.client.ID, f.tpl.ID, "en")
	f.sender.On("Send", mock.Anything, mock.Anything).Return(nil).Once()

	out := f.engine(&hookStore{Store: f.store}).ProcessDue(context.Background(), rec)
	require.Equal(t, dispatch.OutcomeSent, out)
	require.Equal(t, domain.StatusSent, f.get(t, "se-1").Status)
	require.Len(t, f.logs(t), 1)
	require.EqualValues(t, 1, f.usage(t))
}

func TestEngine_ProcessDue_LanguageResolution(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		lang    string
		subject string
	}{
		{name: "record language", lang: "en", subject: "Hi Jane"},
		{name: "client language when record has none", lang: "", subject: "Hola Jane"},
		{name: "unsupported falls back to primary", lang: "fr", subject: "Hi Jane"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t)
			rec := f.pending(t, "se-1", f.client.ID, f.tpl.ID, tt.lang)
			f.sender.On("Send", mock.Anything, mock.MatchedBy(func(e *mailer.Email) bool {
				return e.Subject == tt.subject
			})).Return(nil).Once()

			require.Equal(t, dispatch.OutcomeSent, f.engine(nil).ProcessDue(context.Background(), rec))
			f.sender.AssertExpectations(t)
		})
	}
}

func TestEngine_ProcessDue_NotFound(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		clientID   string
		templateID string
	}{
		{name: "missing client", clientID: "ghost", templateID: "tpl-1"},
		{name: "missing template", clientID: "client-1", templateID: "ghost"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t)
			rec := f.pending(t, "se-1", tt.clientID, tt.templateID, "en")

			out := f.engine(nil).ProcessDue(context.Background(), rec)
			require.Equal(t, dispatch.OutcomeFailed, out)

			got := f.get(t, "se-1")
			require.Equal(t, domain.StatusFailed, got.Status)
			require.Equal(t, dispatch.MsgNotFound, *got.ErrorMessage)
			require.Nil(t, got.SentAt)
			require.Empty(t, f.logs(t))
			require.Zero(t, f.usage(t))
			f.sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
		})
	}
}

func TestEngine_ProcessDue_ContentUnavailable(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	broken := f.tpl
	broken.ID = "tpl-broken"
	broken.Content = map[string]string{"en": "", "es": ""}
	require.NoError(t, f.store.CreateTemplate(context.Background(), broken))

	rec := f.pending(t, "se-1", f.client.ID, broken.ID, "fr")

	require.Equal(t, dispatch.OutcomeFailed, f.engine(nil).ProcessDue(context.Background(), rec))

	got := f.get(t, "se-1")
	require.Equal(t, domain.StatusFailed, got.Status)
	require.Equal(t, "Template content not available for language: fr", *got.ErrorMessage)
	require.Empty(t, f.logs(t))
	f.sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestEngine_ProcessDue_TransportFailure(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "provider message", err: errors.New("mailbox unavailable"), want: "mailbox unavailable"},
		{name: "empty message", err: errors.New(""), want: dispatch.MsgSendFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t)
			rec := f.pending(t, "se-1", f.client.ID, f.tpl.ID, "en")
			f.sender.On("Send", mock.Anything, mock.Anything).Return(tt.err).Once()

			require.Equal(t, dispatch.OutcomeFailed, f.engine(nil).ProcessDue(context.Background(), rec))

			got := f.get(t, "se-1")
			require.Equal(t, domain.StatusFailed, got.Status)
			require.Equal(t, tt.want, *got.ErrorMessage)
			require.Nil(t, got.Subject)
			require.Empty(t, f.logs(t))
			require.Zero(t, f.usage(t))

			ok, err := f.marks.Has(context.Background(), "sent:se-1")
			require.NoError(t, err)
			require.False(t, ok)
		})
	}
}

func TestEngine_ProcessDue_TerminalIsNoop(t *testing.T) {
	t.Parallel()

	for _, status := range []domain.Status{domain.StatusSent, domain.StatusFailed, domain.StatusCancelled} {
		t.Run(string(status), func(t *testing.T) {
			t.Parallel()

			f := newFixture(t)
			rec := f.pending(t, "se-1", f.client.ID, f.tpl.ID, "en")
			rec.Status = status
			require.NoError(t, f.store.UpdateScheduledEmail(context.Background(), rec))

			engine := f.engine(nil)
			require.Equal(t, dispatch.OutcomeSkipped, engine.ProcessDue(context.Background(), rec))
			require.Equal(t, dispatch.OutcomeSkipped, engine.ProcessDue(context.Background(), rec))

			require.Equal(t, rec, f.get(t, "se-1"))
			require.Empty(t, f.logs(t))
			require.Zero(t, f.usage(t))
			f.sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
		})
	}
}

func TestEngine_ProcessDue_SentTwiceSendsOnce(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	rec := f.pending(t, "se-1", f.client.ID, f.tpl.ID, "en")
	f.sender.On("Send", mock.Anything, mock.Anything).Return(nil).Once()

	engine := f.engine(nil)
	require.Equal(t, dispatch.OutcomeSent, engine.ProcessDue(context.Background(), rec))
	// Stale copy still says pending; the stored status wins.
	require.Equal(t, dispatch.OutcomeSkipped, engine.ProcessDue(context.Background(), rec))

	f.sender.AssertNumberOfCalls(t, "Send", 1)
	require.Len(t, f.logs(t), 1)
	require.EqualValues(t, 1, f.usage(t))
}

func TestEngine_ProcessDue_CancelledBeforeSend(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	rec := f.pending(t, "se-1", f.client.ID, f.tpl.ID, "en")

	st := &hookStore{
		Store: f.store,
		onGetClient: func(ctx context.Context, _ string) {
			cancelled := rec
			cancelled.Status = domain.StatusCancelled
			require.NoError(t, f.store.UpdateScheduledEmail(ctx, cancelled))
		},
	}

	require.Equal(t, dispatch.OutcomeSkipped, f.engine(st).ProcessDue(context.Background(), rec))
	require.Equal(t, domain.StatusCancelled, f.get(t, "se-1").Status)
	require.Empty(t, f.logs(t))
	f.sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestEngine_ProcessDue_DeletedRecord(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	rec := f.pending(t, "se-1", f.client.ID, f.tpl.ID, "en")
	require.NoError(t, f.store.DeleteScheduledEmail(context.Background(), rec.ID))

	require.Equal(t, dispatch.OutcomeSkipped, f.engine(nil).ProcessDue(context.Background(), rec))
	f.sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestEngine_ProcessDue_RecoversFromSendMark(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	rec := f.pending(t, "se-1", f.client.ID, f.tpl.ID, "en")

	sentAt := t0.Add(-30 * time.Second)
	require.NoError(t, f.marks.Set(ctx, "sent:se-1", dispatch.SendMark{
		SentAt: sentAt, Subject: "Hi Jane", Body: "<p>Hi</p>", Language: "en",
	}, time.Hour))

	require.Equal(t, dispatch.OutcomeRecovered, f.engine(nil).ProcessDue(ctx, rec))
	f.sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)

	got := f.get(t, "se-1")
	require.Equal(t, domain.StatusSent, got.Status)
	require.Equal(t, sentAt, *got.SentAt)
	require.Equal(t, "<p>Hi</p>", *got.Content)
	require.Len(t, f.logs(t), 1)
	require.EqualValues(t, 1, f.usage(t))
}

func TestEngine_ProcessDue_StatusWriteFailureIsRecoveredNextTick(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	rec := f.pending(t, "se-1", f.client.ID, f.tpl.ID, "en")
	f.sender.On("Send", mock.Anything, mock.Anything).Return(nil).Once()

	flaky := &hookStore{
		Store: f.store,
		updateErr: func(e domain.ScheduledEmail) error {
			if e.Status == domain.StatusSent {
				return errors.New("connection reset")
			}
			return nil
		},
	}

	require.Equal(t, dispatch.OutcomeSent, f.engine(flaky).ProcessDue(ctx, rec))
	require.Equal(t, domain.StatusPending, f.get(t, "se-1").Status)
	require.Empty(t, f.logs(t))

	require.Equal(t, dispatch.OutcomeRecovered, f.engine(nil).ProcessDue(ctx, rec))
	f.sender.AssertNumberOfCalls(t, "Send", 1)
	require.Equal(t, domain.StatusSent, f.get(t, "se-1").Status)
	require.Len(t, f.logs(t), 1)
	require.EqualValues(t, 1, f.usage(t))
}

func TestEngine_ProcessDue_TransportPanic(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	rec := f.pending(t, "se-1", f.client.ID, f.tpl.ID, "en")
	f.sender.On("Send", mock.Anything, mock.Anything).Run(func(mock.Arguments) { panic("boom") }).Once()

	var out dispatch.Outcome
	require.NotPanics(t, func() { out = f.engine(nil).ProcessDue(context.Background(), rec) })
	require.Equal(t, dispatch.OutcomeFailed, out)

	got := f.get(t, "se-1")
	require.Equal(t, domain.StatusFailed, got.Status)
	require.NotEmpty(t, *got.ErrorMessage)
}

func TestEngine_ProcessBatch_Isolation(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	bad := f.pending(t, "se-1", "ghost", f.tpl.ID, "en")
	good := f.pending(t, "se-2", f.client.ID, f.tpl.ID, "en")
	f.sender.On("Send", mock.Anything, mock.Anything).Return(nil).Once()

	res := f.engine(nil).ProcessBatch(context.Background(), []domain.ScheduledEmail{bad, good})
	require.Equal(t, dispatch.BatchResult{Sent: 1, Failed: 1}, res)

	require.Equal(t, domain.StatusFailed, f.get(t, "se-1").Status)
	require.Equal(t, domain.StatusSent, f.get(t, "se-2").Status)
	require.Len(t, f.logs(t), 1)
	require.EqualValues(t, 1, f.usage(t))
}

func TestEngine_ProcessBatch_Order(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	first := f.pending(t, "se-1", f.client.ID, f.tpl.ID, "en")
	second := f.pending(t, "se-2", f.client.ID, f.tpl.ID, "es")

	var order []string
	f.sender.On("Send", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			order = append(order, args.Get(1).(*mailer.Email).Tags["scheduled_email_id"])
		}).
		Return(nil).Twice()

	res := f.engine(nil).ProcessBatch(context.Background(), []domain.ScheduledEmail{first, second})
	require.Equal(t, 2, res.Sent)
	require.Equal(t, []string{"se-1", "se-2"}, order)

	logs := f.logs(t)
	require.Len(t, logs, 2)
	require.Equal(t, "se-1", *logs[0].ScheduledEmailID)
	require.EqualValues(t, 2, f.usage(t))
}

func TestEngine_ProcessBatch_StopsOnCancelledContext(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	rec := f.pending(t, "se-1", f.client.ID, f.tpl.ID, "en")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := f.engine(nil).ProcessBatch(ctx, []domain.ScheduledEmail{rec})
	require.Equal(t, dispatch.BatchResult{}, res)
	require.Equal(t, domain.StatusPending, f.get(t, "se-1").Status)
}

func TestEngine_DefaultMarksAreOwned(t *testing.T) {
	t.Parallel()

	engine := dispatch.New(memory.New(), &mockSender{})
	require.NoError(t, engine.Close())
	require.NoError(t, engine.Close())
}
