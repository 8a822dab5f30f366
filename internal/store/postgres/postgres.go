// Package postgres implements store.Store on PostgreSQL through pgxpool.
// Maps are stored as JSONB and language lists as text arrays.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/followup/internal/domain"
	"github.com/dmitrymomot/followup/internal/store"
	"github.com/dmitrymomot/followup/pkg/db"
)

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store is a PostgreSQL-backed store.Store.
type Store struct {
	pool *pgxpool.Pool
}

// New wraps an open pool. Run db.Migrate with migrations.FS first.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Ping(ctx context.Context) error {
	return db.Healthcheck(s.pool)(ctx)
}

const emailColumns = `id, client_id, template_id, scheduled_at, status, language,
	subject, content, sent_at, error_message, created_at`

func scanEmail(row pgx.Row) (domain.ScheduledEmail, error) {
	var e domain.ScheduledEmail
	err := row.Scan(&e.ID, &e.ClientID, &e.TemplateID, &e.ScheduledAt, &e.Status, &e.Language,
		&e.Subject, &e.Content, &e.SentAt, &e.ErrorMessage, &e.CreatedAt)
	return e, notFound(err)
}

func (s *Store) ListPendingDue(ctx context.Context, now time.Time) ([]domain.ScheduledEmail, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+emailColumns+` FROM scheduled_emails
		WHERE status = 'pending' AND scheduled_at <= $1
		ORDER BY scheduled_at, created_at, id`, now)
	if err != nil {
		return nil, fmt.Errorf("list pending due: %w", err)
	}
	return collect(rows, scanEmail)
}

func (s *Store) CreateScheduledEmail(ctx context.Context, e domain.ScheduledEmail) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO scheduled_emails (`+emailColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		e.ID, e.ClientID, e.TemplateID, e.ScheduledAt, e.Status, e.Language,
		e.Subject, e.Content, e.SentAt, e.ErrorMessage, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("create scheduled email: %w", err)
	}
	return nil
}

func (s *Store) GetScheduledEmail(ctx context.Context, id string) (domain.ScheduledEmail, error) {
	return scanEmail(s.pool.QueryRow(ctx, `SELECT `+emailColumns+` FROM scheduled_emails WHERE id = $1`, id))
}

func (s *Store) UpdateScheduledEmail(ctx context.Context, e domain.ScheduledEmail) error {
	return updateEmail(ctx, s.pool, e)
}

func updateEmail(ctx context.Context, q querier, e domain.ScheduledEmail) error {
	tag, err := q.Exec(ctx, `UPDATE scheduled_emails SET
		client_id = $2, template_id = $3, scheduled_at = $4, status = $5, language = $6,
		subject = $7, content = $8, sent_at = $9, error_message = $10
		WHERE id = $1`,
		e.ID, e.ClientID, e.TemplateID, e.ScheduledAt, e.Status, e.Language,
		e.Subject, e.Content, e.SentAt, e.ErrorMessage)
	return affected(tag, err, "update scheduled email")
}

// SwapStatus is a conditional update; the row is only touched while its
// status is still from.
func (s *Store) SwapStatus(ctx context.Context, id string, from, to domain.Status) (domain.ScheduledEmail, error) {
	e, err := scanEmail(s.pool.QueryRow(ctx, `UPDATE scheduled_emails SET status = $3
		WHERE id = $1 AND status = $2
		RETURNING `+emailColumns, id, string(from), string(to)))
	if !errors.Is(err, domain.ErrNotFound) {
		if err != nil {
			return domain.ScheduledEmail{}, fmt.Errorf("swap status: %w", err)
		}
		return e, nil
	}

	current, err := s.GetScheduledEmail(ctx, id)
	if err != nil {
		return domain.ScheduledEmail{}, err
	}
	return current, store.ErrStatusChanged
}

func (s *Store) DeleteScheduledEmail(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM scheduled_emails WHERE id = $1`, id)
	return affected(tag, err, "delete scheduled email")
}

func (s *Store) ListScheduledEmails(ctx context.Context, f store.ScheduledEmailFilter) ([]domain.ScheduledEmail, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+emailColumns+` FROM scheduled_emails
		WHERE ($1 = '' OR status = $1) AND ($2 = '' OR client_id = $2)
		ORDER BY scheduled_at, created_at, id
		LIMIT NULLIF($3, 0)`, string(f.Status), f.ClientID, f.Limit)
	if err != nil {
		return nil, fmt.Errorf("list scheduled emails: %w", err)
	}
	return collect(rows, scanEmail)
}

const clientColumns = `id, name, email, company, phone, language, custom_fields, last_interaction, created_at`

func scanClient(row pgx.Row) (domain.Client, error) {
	var c domain.Client
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Company, &c.Phone, &c.Language,
		&c.CustomFields, &c.LastInteraction, &c.CreatedAt)
	return c, notFound(err)
}

func (s *Store) CreateClient(ctx context.Context, c domain.Client) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO clients (`+clientColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		c.ID, c.Name, c.Email, c.Company, c.Phone, c.Language, jsonMap(c.CustomFields), c.LastInteraction, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}
	return nil
}

func (s *Store) GetClient(ctx context.Context, id string) (domain.Client, error) {
	return scanClient(s.pool.QueryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = $1`, id))
}

func (s *Store) UpdateClient(ctx context.Context, c domain.Client) error {
	tag, err := s.pool.Exec(ctx, `UPDATE clients SET
		name = $2, email = $3, company = $4, phone = $5, language = $6,
		custom_fields = $7, last_interaction = $8
		WHERE id = $1`,
		c.ID, c.Name, c.Email, c.Company, c.Phone, c.Language, jsonMap(c.CustomFields), c.LastInteraction)
	return affected(tag, err, "update client")
}

func (s *Store) DeleteClient(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM clients WHERE id = $1`, id)
	return affected(tag, err, "delete client")
}

func (s *Store) ListClients(ctx context.Context) ([]domain.Client, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+clientColumns+` FROM clients ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	return collect(rows, scanClient)
}

const templateColumns = `id, name, subject, content, variables, primary_language,
	supported_languages, usage_count, created_at`

func scanTemplate(row pgx.Row) (domain.EmailTemplate, error) {
	var t domain.EmailTemplate
	err := row.Scan(&t.ID, &t.Name, &t.Subject, &t.Content, &t.Variables, &t.PrimaryLanguage,
		&t.SupportedLanguages, &t.UsageCount, &t.CreatedAt)
	return t, notFound(err)
}

func (s *Store) CreateTemplate(ctx context.Context, t domain.EmailTemplate) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO email_templates (`+templateColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		t.ID, t.Name, jsonMap(t.Subject), jsonMap(t.Content), textArray(t.Variables), t.PrimaryLanguage,
		textArray(t.SupportedLanguages), t.UsageCount, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("create template: %w", err)
	}
	return nil
}

func (s *Store) GetTemplate(ctx context.Context, id string) (domain.EmailTemplate, error) {
	return scanTemplate(s.pool.QueryRow(ctx, `SELECT `+templateColumns+` FROM email_templates WHERE id = $1`, id))
}

// UpdateTemplate leaves usage_count alone; it only moves through
// IncrementTemplateUsage.
func (s *Store) UpdateTemplate(ctx context.Context, t domain.EmailTemplate) error {
	tag, err := s.pool.Exec(ctx, `UPDATE email_templates SET
		name = $2, subject = $3, content = $4, variables = $5, primary_language = $6,
		supported_languages = $7
		WHERE id = $1`,
		t.ID, t.Name, jsonMap(t.Subject), jsonMap(t.Content), textArray(t.Variables), t.PrimaryLanguage,
		textArray(t.SupportedLanguages))
	return affected(tag, err, "update template")
}

func (s *Store) DeleteTemplate(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM email_templates WHERE id = $1`, id)
	return affected(tag, err, "delete template")
}

func (s *Store) ListTemplates(ctx context.Context) ([]domain.EmailTemplate, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+templateColumns+` FROM email_templates ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	return collect(rows, scanTemplate)
}

func (s *Store) IncrementTemplateUsage(ctx context.Context, id string) error {
	return incrementUsage(ctx, s.pool, id)
}

func incrementUsage(ctx context.Context, q querier, id string) error {
	tag, err := q.Exec(ctx, `UPDATE email_templates SET usage_count = usage_count + 1 WHERE id = $1`, id)
	return affected(tag, err, "increment template usage")
}

const logColumns = `id, client_id, template_id, scheduled_email_id, subject, status, language,
	sent_at, delivered_at, opened_at, error_message`

func scanLog(row pgx.Row) (domain.EmailLog, error) {
	var l domain.EmailLog
	err := row.Scan(&l.ID, &l.ClientID, &l.TemplateID, &l.ScheduledEmailID, &l.Subject, &l.Status, &l.Language,
		&l.SentAt, &l.DeliveredAt, &l.OpenedAt, &l.ErrorMessage)
	return l, err
}

func (s *Store) AppendLog(ctx context.Context, entry domain.EmailLog) error {
	return appendLog(ctx, s.pool, entry)
}

func appendLog(ctx context.Context, q querier, l domain.EmailLog) error {
	_, err := q.Exec(ctx, `INSERT INTO email_logs (`+logColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		l.ID, l.ClientID, l.TemplateID, l.ScheduledEmailID, l.Subject, l.Status, l.Language,
		l.SentAt, l.DeliveredAt, l.OpenedAt, l.ErrorMessage)
	if err != nil {
		return fmt.Errorf("append log: %w", err)
	}
	return nil
}

// ListLogs returns matching entries in append order.
func (s *Store) ListLogs(ctx context.Context, f store.LogFilter) ([]domain.EmailLog, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+logColumns+` FROM email_logs
		WHERE ($1 = '' OR client_id = $1) AND ($2 = '' OR scheduled_email_id = $2)
		ORDER BY seq
		LIMIT NULLIF($3, 0)`, f.ClientID, f.ScheduledEmailID, f.Limit)
	if err != nil {
		return nil, fmt.Errorf("list logs: %w", err)
	}
	return collect(rows, scanLog)
}

// CompleteSend records a successful send in one transaction. A template
// deleted after the send does not roll back the status and log.
func (s *Store) CompleteSend(ctx context.Context, e domain.ScheduledEmail, entry domain.EmailLog) error {
	return db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		if err := updateEmail(ctx, tx, e); err != nil {
			return err
		}
		if err := appendLog(ctx, tx, entry); err != nil {
			return err
		}
		if err := incrementUsage(ctx, tx, e.TemplateID); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return nil
	})
}

func collect[T any](rows pgx.Rows, scan func(pgx.Row) (T, error)) ([]T, error) {
	defer rows.Close()

	var out []T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	return err
}

func affected(tag pgconn.CommandTag, err error, op string) error {
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// jsonMap keeps NOT NULL jsonb columns at '{}' instead of 'null'.
func jsonMap(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}

func textArray(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

var (
	_ store.Store         = (*Store)(nil)
	_ store.SendCompleter = (*Store)(nil)
)
