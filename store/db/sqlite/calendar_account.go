package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/coachcal/coachcal/store"
)

// The calendar_account table holds a single row per instance; upsert
// replaces it wholesale.

func (d *DB) UpsertCalendarAccount(ctx context.Context, upsert *store.CalendarAccount) (*store.CalendarAccount, error) {
	now := time.Now().Unix()
	if upsert.CreatedTs == 0 {
		upsert.CreatedTs = now
	}
	upsert.UpdatedTs = now
	if upsert.CalendarID == "" {
		upsert.CalendarID = "primary"
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM calendar_account`); err != nil {
		return nil, fmt.Errorf("failed to clear calendar_account: %w", err)
	}
	stmt := `INSERT INTO calendar_account (calendar_id, token, sync_window_days, created_ts, updated_ts)
		VALUES (` + placeholders(5) + `)
		RETURNING id`
	if err := tx.QueryRowContext(ctx, stmt, upsert.CalendarID, upsert.Token, upsert.SyncWindowDays, upsert.CreatedTs, upsert.UpdatedTs).Scan(&upsert.ID); err != nil {
		return nil, fmt.Errorf("failed to upsert calendar_account: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit tx: %w", err)
	}
	return upsert, nil
}

func (d *DB) GetCalendarAccount(ctx context.Context, find *store.FindCalendarAccount) (*store.CalendarAccount, error) {
	where, args := []string{"1 = 1"}, []any{}
	if find != nil && find.ID != nil {
		where, args = append(where, "id = ?"), append(args, *find.ID)
	}

	query := `
		SELECT id, calendar_id, token, sync_window_days, created_ts, updated_ts
		FROM calendar_account
		WHERE ` + strings.Join(where, " AND ") + `
		LIMIT 1`
	account := &store.CalendarAccount{}
	err := d.db.QueryRowContext(ctx, query, args...).Scan(&account.ID, &account.CalendarID, &account.Token, &account.SyncWindowDays, &account.CreatedTs, &account.UpdatedTs)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get calendar_account: %w", err)
	}
	return account, nil
}

func (d *DB) DeleteCalendarAccount(ctx context.Context, delete *store.DeleteCalendarAccount) error {
	if _, err := d.db.ExecContext(ctx, `DELETE FROM calendar_account WHERE id = ?`, delete.ID); err != nil {
		return fmt.Errorf("failed to delete calendar_account: %w", err)
	}
	return nil
}
