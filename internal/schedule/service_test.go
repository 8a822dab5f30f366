package schedule_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/followup/internal/domain"
	"github.com/dmitrymomot/followup/internal/schedule"
	"github.com/dmitrymomot/followup/internal/store"
	"github.com/dmitrymomot/followup/internal/store/memory"
)

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newService() (*schedule.Service, *memory.Store) {
	st := memory.New()
	return schedule.NewService(st, schedule.WithClock(func() time.Time { return t0 })), st
}

func TestService_ScheduleEmail(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, st := newService()

	e, err := svc.ScheduleEmail(ctx, schedule.ScheduleParams{
		ClientID:   "missing-client",
		TemplateID: "missing-template",
		Delay:      schedule.DelayImmediate,
	})
	require.NoError(t, err)
	require.NotEmpty(t, e.ID)
	require.Equal(t, domain.StatusPending, e.Status)
	require.Equal(t, "en", e.Language)
	require.Equal(t, t0.Add(time.Minute), e.ScheduledAt)
	require.Equal(t, t0, e.CreatedAt)
	require.Nil(t, e.Subject)
	require.Nil(t, e.SentAt)

	stored, err := st.GetScheduledEmail(ctx, e.ID)
	require.NoError(t, err)
	require.Equal(t, e, stored)
}

func TestService_ScheduleEmailLanguage(t *testing.T) {
	t.Parallel()

	svc, _ := newService()
	e, err := svc.ScheduleEmail(context.Background(), schedule.ScheduleParams{
		ClientID: "c", TemplateID: "t", Delay: schedule.DelayOneWeek, Language: "ES",
	})
	require.NoError(t, err)
	require.Equal(t, "es", e.Language)
	require.Equal(t, t0.AddDate(0, 0, 7), e.ScheduledAt)
}

func TestService_ScheduleEmailValidation(t *testing.T) {
	t.Parallel()

	svc, _ := newService()
	ctx := context.Background()

	_, err := svc.ScheduleEmail(ctx, schedule.ScheduleParams{ClientID: "c", TemplateID: "t", Delay: "2days"})
	require.ErrorIs(t, err, schedule.ErrInvalidDelay)

	_, err = svc.ScheduleEmail(ctx, schedule.ScheduleParams{TemplateID: "t", Delay: schedule.DelayOneDay})
	require.ErrorIs(t, err, schedule.ErrInvalidParams)
}

func TestService_Cancel(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, st := newService()

	e, err := svc.ScheduleEmail(ctx, schedule.ScheduleParams{ClientID: "c", TemplateID: "t", Delay: schedule.DelayOneDay})
	require.NoError(t, err)

	cancelled, err := svc.Cancel(ctx, e.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusCancelled, cancelled.Status)

	_, err = svc.Cancel(ctx, e.ID)
	require.ErrorIs(t, err, schedule.ErrNotPending)

	_, err = svc.Cancel(ctx, "missing")
	require.ErrorIs(t, err, domain.ErrNotFound)

	due, err := st.ListPendingDue(ctx, t0.AddDate(1, 0, 0))
	require.NoError(t, err)
	require.Empty(t, due)
}

// sendingStore lets a dispatch land right before the conditional cancel.
type sendingStore struct {
	*memory.Store
}

func (s sendingStore) SwapStatus(ctx context.Context, id string, from, to domain.Status) (domain.ScheduledEmail, error) {
	e, err := s.GetScheduledEmail(ctx, id)
	if err != nil {
		return e, err
	}
	subject, sentAt := "Hi", t0
	e.Status, e.Subject, e.SentAt = domain.StatusSent, &subject, &sentAt
	if err := s.CompleteSend(ctx, e, domain.EmailLog{ID: "log-1", ClientID: e.ClientID, TemplateID: &e.TemplateID, Subject: subject, SentAt: sentAt}); err != nil {
		return e, err
	}
	return s.Store.SwapStatus(ctx, id, from, to)
}

func TestService_CancelDoesNotOverwriteSend(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := sendingStore{Store: memory.New()}
	svc := schedule.NewService(st, schedule.WithClock(func() time.Time { return t0 }))

	e, err := svc.ScheduleEmail(ctx, schedule.ScheduleParams{ClientID: "c", TemplateID: "t", Delay: schedule.DelayImmediate})
	require.NoError(t, err)

	got, err := svc.Cancel(ctx, e.ID)
	require.ErrorIs(t, err, schedule.ErrNotPending)
	require.Equal(t, domain.StatusSent, got.Status)

	stored, err := st.GetScheduledEmail(ctx, e.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusSent, stored.Status)
	require.NotNil(t, stored.Subject)
	require.NotNil(t, stored.SentAt)
}

func TestService_CancelWithoutStatusSwapper(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mem := memory.New()
	// Only the plain interface is visible, so Cancel reads then writes.
	var st store.ScheduledEmails = struct{ store.ScheduledEmails }{mem}
	svc := schedule.NewService(st, schedule.WithClock(func() time.Time { return t0 }))

	e, err := svc.ScheduleEmail(ctx, schedule.ScheduleParams{ClientID: "c", TemplateID: "t", Delay: schedule.DelayOneWeek})
	require.NoError(t, err)

	cancelled, err := svc.Cancel(ctx, e.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusCancelled, cancelled.Status)

	_, err = svc.Cancel(ctx, e.ID)
	require.ErrorIs(t, err, schedule.ErrNotPending)
}

func TestService_List(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _ := newService()

	for _, c := range []string{"c1", "c1", "c2"} {
		_, err := svc.ScheduleEmail(ctx, schedule.ScheduleParams{ClientID: c, TemplateID: "t", Delay: schedule.DelayOneDay})
		require.NoError(t, err)
	}

	list, err := svc.List(ctx, store.ScheduledEmailFilter{ClientID: "c1"})
	require.NoError(t, err)
	require.Len(t, list, 2)

	got, err := svc.Get(ctx, list[0].ID)
	require.NoError(t, err)
	require.Equal(t, list[0].ID, got.ID)
}
