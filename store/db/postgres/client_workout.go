package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/coachcal/coachcal/store"
)

func (d *DB) CreateClientWorkout(ctx context.Context, create *store.ClientWorkout) (*store.ClientWorkout, error) {
	if create.CreatedTs == 0 {
		create.CreatedTs = time.Now().Unix()
	}
	if create.UpdatedTs == 0 {
		create.UpdatedTs = create.CreatedTs
	}
	if create.PeriodID == "" {
		create.PeriodID = store.QuickWorkoutsPeriodID
	}

	fields := []string{"uid", "client_id", "period_id", "event_id", "category", "time", "title", "created_by", "ts", "day_of_week", "created_ts", "updated_ts"}
	args := []any{create.UID, create.ClientID, create.PeriodID, create.EventID, create.Category, create.Time, create.Title, create.CreatedBy, create.Ts, create.DayOfWeek, create.CreatedTs, create.UpdatedTs}
	stmt := `INSERT INTO client_workout (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		RETURNING id`
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(&create.ID); err != nil {
		return nil, fmt.Errorf("failed to create client_workout: %w", err)
	}
	return create, nil
}

func (d *DB) ListClientWorkouts(ctx context.Context, find *store.FindClientWorkout) ([]*store.ClientWorkout, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *find.ID)
	}
	if find.UID != nil {
		where, args = append(where, "uid = "+placeholder(len(args)+1)), append(args, *find.UID)
	}
	if find.ClientID != nil {
		where, args = append(where, "client_id = "+placeholder(len(args)+1)), append(args, *find.ClientID)
	}
	if find.PeriodID != nil {
		where, args = append(where, "period_id = "+placeholder(len(args)+1)), append(args, *find.PeriodID)
	}
	if find.EventID != nil {
		where, args = append(where, "event_id = "+placeholder(len(args)+1)), append(args, *find.EventID)
	}
	if find.TsAfter != nil {
		where, args = append(where, "ts >= "+placeholder(len(args)+1)), append(args, *find.TsAfter)
	}
	if find.TsBefore != nil {
		where, args = append(where, "ts < "+placeholder(len(args)+1)), append(args, *find.TsBefore)
	}

	query := `
		SELECT id, uid, client_id, period_id, event_id, category, time, title, created_by, ts, day_of_week, created_ts, updated_ts
		FROM client_workout
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY ts ASC, time ASC`
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list client_workouts: %w", err)
	}
	defer rows.Close()

	list := make([]*store.ClientWorkout, 0)
	for rows.Next() {
		workout := &store.ClientWorkout{}
		if err := rows.Scan(&workout.ID, &workout.UID, &workout.ClientID, &workout.PeriodID, &workout.EventID, &workout.Category, &workout.Time, &workout.Title, &workout.CreatedBy, &workout.Ts, &workout.DayOfWeek, &workout.CreatedTs, &workout.UpdatedTs); err != nil {
			return nil, fmt.Errorf("failed to scan client_workout: %w", err)
		}
		list = append(list, workout)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate client_workouts: %w", err)
	}
	return list, nil
}

func (d *DB) UpdateClientWorkout(ctx context.Context, update *store.UpdateClientWorkout) (*store.ClientWorkout, error) {
	set, args := []string{}, []any{}

	if update.Category != nil {
		set, args = append(set, "category = "+placeholder(len(args)+1)), append(args, *update.Category)
	}
	if update.Time != nil {
		set, args = append(set, "time = "+placeholder(len(args)+1)), append(args, *update.Time)
	}
	if update.Title != nil {
		set, args = append(set, "title = "+placeholder(len(args)+1)), append(args, *update.Title)
	}
	if update.Ts != nil {
		set, args = append(set, "ts = "+placeholder(len(args)+1)), append(args, *update.Ts)
	}
	ts := time.Now().Unix()
	if update.UpdatedTs != nil {
		ts = *update.UpdatedTs
	}
	set, args = append(set, "updated_ts = "+placeholder(len(args)+1)), append(args, ts)

	args = append(args, update.ID)
	stmt := `UPDATE client_workout SET ` + strings.Join(set, ", ") + ` WHERE id = ` + placeholder(len(args)) + `
		RETURNING id, uid, client_id, period_id, event_id, category, time, title, created_by, ts, day_of_week, created_ts, updated_ts`
	workout := &store.ClientWorkout{}
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(&workout.ID, &workout.UID, &workout.ClientID, &workout.PeriodID, &workout.EventID, &workout.Category, &workout.Time, &workout.Title, &workout.CreatedBy, &workout.Ts, &workout.DayOfWeek, &workout.CreatedTs, &workout.UpdatedTs); err != nil {
		return nil, fmt.Errorf("failed to update client_workout: %w", err)
	}
	return workout, nil
}

func (d *DB) DeleteClientWorkout(ctx context.Context, delete *store.DeleteClientWorkout) error {
	where, args := []string{}, []any{}
	if delete.ID != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *delete.ID)
	}
	if delete.UID != nil {
		where, args = append(where, "uid = "+placeholder(len(args)+1)), append(args, *delete.UID)
	}
	if len(where) == 0 {
		return fmt.Errorf("no identifier to delete by")
	}

	result, err := d.db.ExecContext(ctx, `DELETE FROM client_workout WHERE `+strings.Join(where, " AND "), args...)
	if err != nil {
		return fmt.Errorf("failed to delete client_workout: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("client_workout not found")
	}
	return nil
}
