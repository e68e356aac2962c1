package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/coachcal/coachcal/store"
)

func (d *DB) CreateWeekTemplate(ctx context.Context, create *store.WeekTemplate) (*store.WeekTemplate, error) {
	if create.CreatedTs == 0 {
		create.CreatedTs = time.Now().Unix()
	}
	if create.UpdatedTs == 0 {
		create.UpdatedTs = create.CreatedTs
	}
	days, err := json.Marshal(create.Days)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal template days: %w", err)
	}

	stmt := `INSERT INTO week_template (uid, name, color, days, created_ts, updated_ts)
		VALUES (` + placeholders(6) + `)
		RETURNING id`
	if err := d.db.QueryRowContext(ctx, stmt, create.UID, create.Name, create.Color, string(days), create.CreatedTs, create.UpdatedTs).Scan(&create.ID); err != nil {
		return nil, fmt.Errorf("failed to create week_template: %w", err)
	}
	return create, nil
}

func (d *DB) ListWeekTemplates(ctx context.Context, find *store.FindWeekTemplate) ([]*store.WeekTemplate, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *find.ID)
	}
	if find.UID != nil {
		where, args = append(where, "uid = "+placeholder(len(args)+1)), append(args, *find.UID)
	}

	query := `
		SELECT id, uid, name, color, days, created_ts, updated_ts
		FROM week_template
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY name ASC`
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list week_templates: %w", err)
	}
	defer rows.Close()

	list := make([]*store.WeekTemplate, 0)
	for rows.Next() {
		template := &store.WeekTemplate{}
		var days string
		if err := rows.Scan(&template.ID, &template.UID, &template.Name, &template.Color, &days, &template.CreatedTs, &template.UpdatedTs); err != nil {
			return nil, fmt.Errorf("failed to scan week_template: %w", err)
		}
		if err := json.Unmarshal([]byte(days), &template.Days); err != nil {
			return nil, fmt.Errorf("failed to unmarshal template days: %w", err)
		}
		list = append(list, template)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate week_templates: %w", err)
	}
	return list, nil
}

func (d *DB) UpdateWeekTemplate(ctx context.Context, update *store.UpdateWeekTemplate) (*store.WeekTemplate, error) {
	set, args := []string{}, []any{}

	if update.Name != nil {
		set, args = append(set, "name = "+placeholder(len(args)+1)), append(args, *update.Name)
	}
	if update.Color != nil {
		set, args = append(set, "color = "+placeholder(len(args)+1)), append(args, *update.Color)
	}
	if update.Days != nil {
		days, err := json.Marshal(update.Days)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal template days: %w", err)
		}
		set, args = append(set, "days = "+placeholder(len(args)+1)), append(args, string(days))
	}
	ts := time.Now().Unix()
	if update.UpdatedTs != nil {
		ts = *update.UpdatedTs
	}
	set, args = append(set, "updated_ts = "+placeholder(len(args)+1)), append(args, ts)

	args = append(args, update.ID)
	stmt := `UPDATE week_template SET ` + strings.Join(set, ", ") + ` WHERE id = ` + placeholder(len(args)) + `
		RETURNING id, uid, name, color, days, created_ts, updated_ts`
	template := &store.WeekTemplate{}
	var days string
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(&template.ID, &template.UID, &template.Name, &template.Color, &days, &template.CreatedTs, &template.UpdatedTs); err != nil {
		return nil, fmt.Errorf("failed to update week_template: %w", err)
	}
	if err := json.Unmarshal([]byte(days), &template.Days); err != nil {
		return nil, fmt.Errorf("failed to unmarshal template days: %w", err)
	}
	return template, nil
}

func (d *DB) DeleteWeekTemplate(ctx context.Context, delete *store.DeleteWeekTemplate) error {
	result, err := d.db.ExecContext(ctx, `DELETE FROM week_template WHERE id = `+placeholder(1), delete.ID)
	if err != nil {
		return fmt.Errorf("failed to delete week_template: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("week_template not found")
	}
	return nil
}
