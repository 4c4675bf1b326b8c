package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

type ActionAuditRecord struct {
	ID           string    `json:"id"`
	Transport    string    `json:"transport"`
	Verb         string    `json:"verb"`
	Action       string    `json:"action,omitempty"`
	Category     string    `json:"category,omitempty"`
	AccountID    string    `json:"accountId,omitempty"`
	RoomID       string    `json:"roomId,omitempty"`
	Outcome      string    `json:"outcome"`
	ErrorKind    string    `json:"errorKind,omitempty"`
	ErrorMessage string    `json:"errorMessage,omitempty"`
	Added        []string  `json:"added,omitempty"`
	DurationMS   int64     `json:"durationMs"`
	CreatedAt    time.Time `json:"createdAt"`
}

type CreateActionAuditInput struct {
	Transport    string
	Verb         string
	Action       string
	Category     string
	AccountID    string
	RoomID       string
	Outcome      string
	ErrorKind    string
	ErrorMessage string
	Added        []string
	Duration     time.Duration
}

type ListActionAuditInput struct {
	Verb      string
	Outcome   string
	AccountID string
	Limit     int
}

func (s *Store) CreateActionAudit(ctx context.Context, input CreateActionAuditInput) (ActionAuditRecord, error) {
	record := ActionAuditRecord{
		ID:           "audit_" + uuid.NewString(),
		Transport:    strings.ToLower(strings.TrimSpace(input.Transport)),
		Verb:         strings.TrimSpace(input.Verb),
		Action:       strings.TrimSpace(input.Action),
		Category:     strings.TrimSpace(input.Category),
		AccountID:    strings.TrimSpace(input.AccountID),
		RoomID:       strings.TrimSpace(input.RoomID),
		Outcome:      strings.ToLower(strings.TrimSpace(input.Outcome)),
		ErrorKind:    strings.TrimSpace(input.ErrorKind),
		ErrorMessage: strings.TrimSpace(input.ErrorMessage),
		Added:        input.Added,
		DurationMS:   input.Duration.Milliseconds(),
		CreatedAt:    time.Now().UTC(),
	}
	if record.Transport == "" || record.Verb == "" || record.Outcome == "" {
		return ActionAuditRecord{}, fmt.Errorf("missing required action audit fields")
	}

	if _, err := s.db.ExecContext(
		ctx,
		`INSERT INTO action_audit (
			id, transport, verb, action, category, account_id, room_id, outcome, error_kind, error_message, added, duration_ms, created_at_unix
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.Transport,
		record.Verb,
		nullIfEmpty(record.Action),
		nullIfEmpty(record.Category),
		nullIfEmpty(record.AccountID),
		nullIfEmpty(record.RoomID),
		record.Outcome,
		nullIfEmpty(record.ErrorKind),
		nullIfEmpty(record.ErrorMessage),
		nullIfEmpty(strings.Join(record.Added, "\n")),
		record.DurationMS,
		record.CreatedAt.Unix(),
	); err != nil {
		return ActionAuditRecord{}, fmt.Errorf("insert action audit: %w", err)
	}
	return record, nil
}

func (s *Store) ListActionAudit(ctx context.Context, input ListActionAuditInput) ([]ActionAuditRecord, error) {
	limit := input.Limit
	if limit < 1 {
		limit = 100
	}
	if limit > 1000 {
		limit = 1000
	}
	whereParts := []string{"1=1"}
	args := make([]any, 0, 4)

	if verb := strings.TrimSpace(input.Verb); verb != "" {
		whereParts = append(whereParts, "verb = ?")
		args = append(args, verb)
	}
	if outcome := strings.ToLower(strings.TrimSpace(input.Outcome)); outcome != "" {
		whereParts = append(whereParts, "outcome = ?")
		args = append(args, outcome)
	}
	if accountID := strings.TrimSpace(input.AccountID); accountID != "" {
		whereParts = append(whereParts, "account_id = ?")
		args = append(args, accountID)
	}
	args = append(args, limit)

	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, transport, verb, COALESCE(action, ''), COALESCE(category, ''), COALESCE(account_id, ''), COALESCE(room_id, ''), outcome, COALESCE(error_kind, ''), COALESCE(error_message, ''), COALESCE(added, ''), duration_ms, created_at_unix
		 FROM action_audit
		 WHERE `+strings.Join(whereParts, " AND ")+`
		 ORDER BY created_at_unix DESC, rowid DESC
		 LIMIT ?`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("query action audit: %w", err)
	}
	defer rows.Close()

	records := make([]ActionAuditRecord, 0, limit)
	for rows.Next() {
		var record ActionAuditRecord
		var added string
		var createdAtUnix int64
		if err := rows.Scan(
			&record.ID,
			&record.Transport,
			&record.Verb,
			&record.Action,
			&record.Category,
			&record.AccountID,
			&record.RoomID,
			&record.Outcome,
			&record.ErrorKind,
			&record.ErrorMessage,
			&added,
			&record.DurationMS,
			&createdAtUnix,
		); err != nil {
			return nil, err
		}
		if added != "" {
			record.Added = strings.Split(added, "\n")
		}
		if createdAtUnix > 0 {
			record.CreatedAt = time.Unix(createdAtUnix, 0).UTC()
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// PruneActionAudit deletes records created before cutoff.
func (s *Store) PruneActionAudit(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM action_audit WHERE created_at_unix < ?`, cutoff.UTC().Unix())
	if err != nil {
		return 0, fmt.Errorf("prune action audit: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune action audit: %w", err)
	}
	return deleted, nil
}
