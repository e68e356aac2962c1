package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/coachcal/coachcal/store"
)

func (d *DB) CreateClient(ctx context.Context, create *store.Client) (*store.Client, error) {
	if create.CreatedTs == 0 {
		create.CreatedTs = time.Now().Unix()
	}
	if create.UpdatedTs == 0 {
		create.UpdatedTs = create.CreatedTs
	}
	if create.RowStatus == "" {
		create.RowStatus = store.Normal
	}

	fields := []string{"uid", "name", "email", "phone", "notes", "row_status", "created_ts", "updated_ts"}
	args := []any{create.UID, create.Name, create.Email, create.Phone, create.Notes, create.RowStatus, create.CreatedTs, create.UpdatedTs}
	stmt := `INSERT INTO client (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		RETURNING id`
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(&create.ID); err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return create, nil
}

func (d *DB) ListClients(ctx context.Context, find *store.FindClient) ([]*store.Client, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = ?"), append(args, *find.ID)
	}
	if find.UID != nil {
		where, args = append(where, "uid = ?"), append(args, *find.UID)
	}
	if find.RowStatus != nil {
		where, args = append(where, "row_status = ?"), append(args, find.RowStatus.String())
	}

	query := `
		SELECT id, uid, name, email, phone, notes, row_status, created_ts, updated_ts
		FROM client
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY name ASC`
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	defer rows.Close()

	list := make([]*store.Client, 0)
	for rows.Next() {
		client := &store.Client{}
		if err := rows.Scan(&client.ID, &client.UID, &client.Name, &client.Email, &client.Phone, &client.Notes, &client.RowStatus, &client.CreatedTs, &client.UpdatedTs); err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		list = append(list, client)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate clients: %w", err)
	}
	return list, nil
}

func (d *DB) UpdateClient(ctx context.Context, update *store.UpdateClient) (*store.Client, error) {
	set, args := []string{}, []any{}

	if update.Name != nil {
		set, args = append(set, "name = ?"), append(args, *update.Name)
	}
	if update.Email != nil {
		set, args = append(set, "email = ?"), append(args, *update.Email)
	}
	if update.Phone != nil {
		set, args = append(set, "phone = ?"), append(args, *update.Phone)
	}
	if update.Notes != nil {
		set, args = append(set, "notes = ?"), append(args, *update.Notes)
	}
	if update.RowStatus != nil {
		set, args = append(set, "row_status = ?"), append(args, update.RowStatus.String())
	}
	ts := time.Now().Unix()
	if update.UpdatedTs != nil {
		ts = *update.UpdatedTs
	}
	set, args = append(set, "updated_ts = ?"), append(args, ts)

	args = append(args, update.ID)
	stmt := `UPDATE client SET ` + strings.Join(set, ", ") + ` WHERE id = ?
		RETURNING id, uid, name, email, phone, notes, row_status, created_ts, updated_ts`
	client := &store.Client{}
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(&client.ID, &client.UID, &client.Name, &client.Email, &client.Phone, &client.Notes, &client.RowStatus, &client.CreatedTs, &client.UpdatedTs); err != nil {
		return nil, fmt.Errorf("failed to update client: %w", err)
	}
	return client, nil
}

func (d *DB) DeleteClient(ctx context.Context, delete *store.DeleteClient) error {
	result, err := d.db.ExecContext(ctx, `DELETE FROM client WHERE id = ?`, delete.ID)
	if err != nil {
		return fmt.Errorf("failed to delete client: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("client not found")
	}
	return nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
