package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/coachcal/coachcal/store"
)

func (d *DB) CreateClientProgram(ctx context.Context, create *store.ClientProgram) (*store.ClientProgram, error) {
	if create.CreatedTs == 0 {
		create.CreatedTs = time.Now().Unix()
	}
	if create.UpdatedTs == 0 {
		create.UpdatedTs = create.CreatedTs
	}
	if create.Status == "" {
		create.Status = store.ProgramStatusActive
	}
	periods, err := json.Marshal(create.Periods)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal program periods: %w", err)
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	// A client has at most one active program. Activating a new one
	// completes the old one in the same transaction so no window exists
	// where both are active.
	if create.Status == store.ProgramStatusActive {
		if _, err := tx.ExecContext(ctx,
			`UPDATE client_program SET status = ?, updated_ts = ? WHERE client_id = ? AND status = ?`,
			store.ProgramStatusCompleted, create.UpdatedTs, create.ClientID, store.ProgramStatusActive,
		); err != nil {
			return nil, fmt.Errorf("failed to complete previous active programs: %w", err)
		}
	}

	fields := []string{"uid", "client_id", "status", "periods", "start_ts", "end_ts", "created_ts", "updated_ts"}
	args := []any{create.UID, create.ClientID, create.Status, string(periods), create.StartTs, create.EndTs, create.CreatedTs, create.UpdatedTs}
	stmt := `INSERT INTO client_program (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		RETURNING id`
	if err := tx.QueryRowContext(ctx, stmt, args...).Scan(&create.ID); err != nil {
		return nil, fmt.Errorf("failed to create client_program: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit tx: %w", err)
	}
	return create, nil
}

func (d *DB) ListClientPrograms(ctx context.Context, find *store.FindClientProgram) ([]*store.ClientProgram, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = ?"), append(args, *find.ID)
	}
	if find.UID != nil {
		where, args = append(where, "uid = ?"), append(args, *find.UID)
	}
	if find.ClientID != nil {
		where, args = append(where, "client_id = ?"), append(args, *find.ClientID)
	}
	if find.Status != nil {
		where, args = append(where, "status = ?"), append(args, string(*find.Status))
	}

	query := `
		SELECT id, uid, client_id, status, periods, start_ts, end_ts, created_ts, updated_ts
		FROM client_program
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY start_ts DESC`
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list client_programs: %w", err)
	}
	defer rows.Close()

	list := make([]*store.ClientProgram, 0)
	for rows.Next() {
		program := &store.ClientProgram{}
		var periods string
		if err := rows.Scan(&program.ID, &program.UID, &program.ClientID, &program.Status, &periods, &program.StartTs, &program.EndTs, &program.CreatedTs, &program.UpdatedTs); err != nil {
			return nil, fmt.Errorf("failed to scan client_program: %w", err)
		}
		if err := json.Unmarshal([]byte(periods), &program.Periods); err != nil {
			return nil, fmt.Errorf("failed to unmarshal program periods: %w", err)
		}
		list = append(list, program)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate client_programs: %w", err)
	}
	return list, nil
}

func (d *DB) UpdateClientProgram(ctx context.Context, update *store.UpdateClientProgram) (*store.ClientProgram, error) {
	set, args := []string{}, []any{}

	if update.Status != nil {
		set, args = append(set, "status = ?"), append(args, string(*update.Status))
	}
	if update.Periods != nil {
		periods, err := json.Marshal(update.Periods)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal program periods: %w", err)
		}
		set, args = append(set, "periods = ?"), append(args, string(periods))
	}
	if update.StartTs != nil {
		set, args = append(set, "start_ts = ?"), append(args, *update.StartTs)
	}
	if update.EndTs != nil {
		set, args = append(set, "end_ts = ?"), append(args, *update.EndTs)
	}
	ts := time.Now().Unix()
	if update.UpdatedTs != nil {
		ts = *update.UpdatedTs
	}
	set, args = append(set, "updated_ts = ?"), append(args, ts)

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	// Re-activating a program demotes the client's other active one,
	// same rule as CreateClientProgram.
	if update.Status != nil && *update.Status == store.ProgramStatusActive {
		var clientID string
		if err := tx.QueryRowContext(ctx, `SELECT client_id FROM client_program WHERE id = ?`, update.ID).Scan(&clientID); err != nil {
			return nil, fmt.Errorf("failed to find client_program: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE client_program SET status = ?, updated_ts = ? WHERE client_id = ? AND status = ? AND id != ?`,
			store.ProgramStatusCompleted, ts, clientID, store.ProgramStatusActive, update.ID,
		); err != nil {
			return nil, fmt.Errorf("failed to complete previous active programs: %w", err)
		}
	}

	args = append(args, update.ID)
	stmt := `UPDATE client_program SET ` + strings.Join(set, ", ") + ` WHERE id = ?
		RETURNING id, uid, client_id, status, periods, start_ts, end_ts, created_ts, updated_ts`
	program := &store.ClientProgram{}
	var periods string
	if err := tx.QueryRowContext(ctx, stmt, args...).Scan(&program.ID, &program.UID, &program.ClientID, &program.Status, &periods, &program.StartTs, &program.EndTs, &program.CreatedTs, &program.UpdatedTs); err != nil {
		return nil, fmt.Errorf("failed to update client_program: %w", err)
	}
	if err := json.Unmarshal([]byte(periods), &program.Periods); err != nil {
		return nil, fmt.Errorf("failed to unmarshal program periods: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit tx: %w", err)
	}
	return program, nil
}

func (d *DB) DeleteClientProgram(ctx context.Context, delete *store.DeleteClientProgram) error {
	result, err := d.db.ExecContext(ctx, `DELETE FROM client_program WHERE id = ?`, delete.ID)
	if err != nil {
		return fmt.Errorf("failed to delete client_program: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("client_program not found")
	}
	return nil
}
