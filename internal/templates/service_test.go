package templates_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/followup/internal/domain"
	"github.com/dmitrymomot/followup/internal/render"
	"github.com/dmitrymomot/followup/internal/store/memory"
	"github.com/dmitrymomot/followup/internal/templates"
	"github.com/dmitrymomot/followup/pkg/i18n"
)

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newService() (*templates.Service, *memory.Store) {
	st := memory.New()
	return templates.NewService(st, templates.WithClock(func() time.Time { return t0 })), st
}

func checkIn() domain.EmailTemplate {
	return domain.EmailTemplate{
		Name:            "Check-in",
		PrimaryLanguage: "EN",
		Subject:         map[string]string{"en": " Hi {{client_name}} ", "ES": "Hola {{client_name}}"},
		Content: map[string]string{
			"en": `<p onclick="x()">Hi {{client_name}} from {{company}}</p><script>alert(1)</script>`,
			"ES": "<p>Hola {{client_name}}</p>",
		},
		UsageCount: 42,
	}
}

func TestService_Create(t *testing.T) {
	t.Parallel()

	svc, st := newService()
	got, err := svc.Create(context.Background(), checkIn())
	require.NoError(t, err)

	require.NotEmpty(t, got.ID)
	require.Equal(t, "en", got.PrimaryLanguage)
	require.Equal(t, []string{"en", "es"}, got.SupportedLanguages)
	require.Equal(t, []string{"client_name", "company"}, got.Variables)
	require.Equal(t, "Hi {{client_name}}", got.Subject["en"])
	require.Equal(t, "<p>Hi {{client_name}} from {{company}}</p>", got.Content["en"])
	require.Zero(t, got.UsageCount)
	require.Equal(t, t0, got.CreatedAt)

	stored, err := st.GetTemplate(context.Background(), got.ID)
	require.NoError(t, err)
	require.Equal(t, got, stored)
}

func TestService_CreateKeepsPlaceholdersInURLs(t *testing.T) {
	t.Parallel()

	svc, _ := newService()
	got, err := svc.Create(context.Background(), domain.EmailTemplate{
		Name:            "Booking",
		PrimaryLanguage: "en",
		Subject:         map[string]string{"en": "Book a call"},
		Content: map[string]string{
			"en": `<p>Hi {{client_name}}, <a href="{{booking_link}}">book</a> or <a href="https://cal.test/book?c={{client_id}}">here</a></p><img src="{{logo_url}}" alt="logo">`,
		},
	})
	require.NoError(t, err)

	require.Contains(t, got.Content["en"], `href="{{booking_link}}"`)
	require.Contains(t, got.Content["en"], `href="https://cal.test/book?c={{client_id}}"`)
	require.Contains(t, got.Content["en"], `src="{{logo_url}}"`)
	require.NotContains(t, got.Content["en"], "%7B")
	require.Equal(t, []string{"booking_link", "client_id", "client_name", "logo_url"}, got.Variables)

	out, err := render.Render(got, "en", i18n.M{
		"client_name":  "Acme",
		"booking_link": "https://cal.test/acme",
		"client_id":    "42",
		"logo_url":     "https://cdn.test/logo.png",
	})
	require.NoError(t, err)
	require.Contains(t, out.Body, `href="https://cal.test/acme"`)
	require.Contains(t, out.Body, `href="https://cal.test/book?c=42"`)
	require.Contains(t, out.Body, `src="https://cdn.test/logo.png"`)
	require.NotContains(t, out.Body, "{{")
}

func TestService_CreateValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*domain.EmailTemplate)
		wantErr error
	}{
		{"missing name", func(tpl *domain.EmailTemplate) { tpl.Name = " " }, domain.ErrInvalidTemplate},
		{"primary not translated", func(tpl *domain.EmailTemplate) { tpl.PrimaryLanguage = "de" }, domain.ErrInvalidTemplate},
		{"primary has empty subject", func(tpl *domain.EmailTemplate) { tpl.Subject["en"] = "" }, domain.ErrPrimaryLanguageRequired},
		{"primary content stripped to nothing", func(tpl *domain.EmailTemplate) { tpl.Content["en"] = "<script>x</script>" }, domain.ErrPrimaryLanguageRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc, _ := newService()
			tpl := checkIn()
			tt.mutate(&tpl)
			_, err := svc.Create(context.Background(), tpl)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestService_UpdateKeepsUsage(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, st := newService()

	tpl, err := svc.Create(ctx, checkIn())
	require.NoError(t, err)
	require.NoError(t, st.IncrementTemplateUsage(ctx, tpl.ID))

	tpl.Name = "Weekly check-in"
	tpl.UsageCount = 0
	tpl.CreatedAt = time.Time{}
	updated, err := svc.Update(ctx, tpl)
	require.NoError(t, err)
	require.Equal(t, "Weekly check-in", updated.Name)
	require.EqualValues(t, 1, updated.UsageCount)
	require.Equal(t, t0, updated.CreatedAt)

	_, err = svc.Update(ctx, domain.EmailTemplate{ID: "missing"})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestService_Languages(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _ := newService()

	tpl, err := svc.Create(ctx, checkIn())
	require.NoError(t, err)

	tpl, err = svc.SetLanguage(ctx, tpl.ID, "pt_br", "Olá {{client_name}}", "<p>Olá {{plan}}</p>")
	require.NoError(t, err)
	require.Equal(t, []string{"en", "es", "pt-BR"}, tpl.SupportedLanguages)
	require.Contains(t, tpl.Variables, "plan")

	_, err = svc.SetLanguage(ctx, tpl.ID, " ", "x", "y")
	require.ErrorIs(t, err, domain.ErrInvalidTemplate)

	tpl, err = svc.RemoveLanguage(ctx, tpl.ID, "pt-BR")
	require.NoError(t, err)
	require.Equal(t, []string{"en", "es"}, tpl.SupportedLanguages)
	require.NotContains(t, tpl.Variables, "plan")

	_, err = svc.RemoveLanguage(ctx, tpl.ID, "en")
	require.ErrorIs(t, err, domain.ErrPrimaryLanguageRequired)

	got, err := svc.Get(ctx, tpl.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"en", "es"}, got.SupportedLanguages)
}

func TestService_Delete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _ := newService()

	tpl, err := svc.Create(ctx, checkIn())
	require.NoError(t, err)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, svc.Delete(ctx, tpl.ID))
	require.ErrorIs(t, svc.Delete(ctx, tpl.ID), domain.ErrNotFound)
}
