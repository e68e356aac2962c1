package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/coachcal/coachcal/store"
)

func (d *DB) CreateCategory(ctx context.Context, create *store.Category) (*store.Category, error) {
	if create.CreatedTs == 0 {
		create.CreatedTs = time.Now().Unix()
	}
	if create.UpdatedTs == 0 {
		create.UpdatedTs = create.CreatedTs
	}

	stmt := `INSERT INTO category (name, color, sort_order, created_ts, updated_ts)
		VALUES (` + placeholders(5) + `)
		RETURNING id`
	if err := d.db.QueryRowContext(ctx, stmt, create.Name, create.Color, create.SortOrder, create.CreatedTs, create.UpdatedTs).Scan(&create.ID); err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return create, nil
}

func (d *DB) ListCategories(ctx context.Context, find *store.FindCategory) ([]*store.Category, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *find.ID)
	}
	if find.Name != nil {
		where, args = append(where, "name = "+placeholder(len(args)+1)), append(args, *find.Name)
	}

	query := `
		SELECT id, name, color, sort_order, created_ts, updated_ts
		FROM category
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY sort_order ASC, name ASC`
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	list := make([]*store.Category, 0)
	for rows.Next() {
		category := &store.Category{}
		if err := rows.Scan(&category.ID, &category.Name, &category.Color, &category.SortOrder, &category.CreatedTs, &category.UpdatedTs); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		list = append(list, category)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate categories: %w", err)
	}
	return list, nil
}

func (d *DB) UpdateCategory(ctx context.Context, update *store.UpdateCategory) (*store.Category, error) {
	set, args := []string{}, []any{}

	if update.Name != nil {
		set, args = append(set, "name = "+placeholder(len(args)+1)), append(args, *update.Name)
	}
	if update.Color != nil {
		set, args = append(set, "color = "+placeholder(len(args)+1)), append(args, *update.Color)
	}
	if update.SortOrder != nil {
		set, args = append(set, "sort_order = "+placeholder(len(args)+1)), append(args, *update.SortOrder)
	}
	ts := time.Now().Unix()
	if update.UpdatedTs != nil {
		ts = *update.UpdatedTs
	}
	set, args = append(set, "updated_ts = "+placeholder(len(args)+1)), append(args, ts)

	args = append(args, update.ID)
	stmt := `UPDATE category SET ` + strings.Join(set, ", ") + ` WHERE id = ` + placeholder(len(args)) + `
		RETURNING id, name, color, sort_order, created_ts, updated_ts`
	category := &store.Category{}
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(&category.ID, &category.Name, &category.Color, &category.SortOrder, &category.CreatedTs, &category.UpdatedTs); err != nil {
		return nil, fmt.Errorf("failed to update category: %w", err)
	}
	return category, nil
}

func (d *DB) DeleteCategory(ctx context.Context, delete *store.DeleteCategory) error {
	result, err := d.db.ExecContext(ctx, `DELETE FROM category WHERE id = `+placeholder(1), delete.ID)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("category not found")
	}
	return nil
}
