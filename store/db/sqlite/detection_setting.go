package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/coachcal/coachcal/store"
)

func marshalKeywords(list []string) (string, error) {
	if list == nil {
		list = []string{}
	}
	buf, err := json.Marshal(list)
	if err != nil {
		return "", fmt.Errorf("failed to marshal keywords: %w", err)
	}
	return string(buf), nil
}

func (d *DB) GetDetectionSetting(ctx context.Context) (*store.DetectionSetting, error) {
	query := `
		SELECT id, coaching_keywords, class_keywords, exclusion_keywords, coach_email_patterns, updated_ts
		FROM detection_setting
		ORDER BY id ASC
		LIMIT 1`
	setting := &store.DetectionSetting{}
	var coaching, class, exclusion, coach string
	err := d.db.QueryRowContext(ctx, query).Scan(&setting.ID, &coaching, &class, &exclusion, &coach, &setting.UpdatedTs)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get detection_setting: %w", err)
	}
	if err := json.Unmarshal([]byte(coaching), &setting.CoachingKeywords); err != nil {
		return nil, fmt.Errorf("failed to unmarshal coaching keywords: %w", err)
	}
	if err := json.Unmarshal([]byte(class), &setting.ClassKeywords); err != nil {
		return nil, fmt.Errorf("failed to unmarshal class keywords: %w", err)
	}
	if err := json.Unmarshal([]byte(exclusion), &setting.ExclusionKeywords); err != nil {
		return nil, fmt.Errorf("failed to unmarshal exclusion keywords: %w", err)
	}
	if err := json.Unmarshal([]byte(coach), &setting.CoachEmailPatterns); err != nil {
		return nil, fmt.Errorf("failed to unmarshal coach email patterns: %w", err)
	}
	return setting, nil
}

func (d *DB) UpsertDetectionSetting(ctx context.Context, upsert *store.UpdateDetectionSetting) (*store.DetectionSetting, error) {
	coaching, err := marshalKeywords(upsert.CoachingKeywords)
	if err != nil {
		return nil, err
	}
	class, err := marshalKeywords(upsert.ClassKeywords)
	if err != nil {
		return nil, err
	}
	exclusion, err := marshalKeywords(upsert.ExclusionKeywords)
	if err != nil {
		return nil, err
	}
	coach, err := marshalKeywords(upsert.CoachEmailPatterns)
	if err != nil {
		return nil, err
	}
	ts := time.Now().Unix()
	if upsert.UpdatedTs != nil {
		ts = *upsert.UpdatedTs
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM detection_setting`); err != nil {
		return nil, fmt.Errorf("failed to clear detection_setting: %w", err)
	}
	stmt := `INSERT INTO detection_setting (coaching_keywords, class_keywords, exclusion_keywords, coach_email_patterns, updated_ts)
		VALUES (` + placeholders(5) + `)
		RETURNING id`
	var id int32
	if err := tx.QueryRowContext(ctx, stmt, coaching, class, exclusion, coach, ts).Scan(&id); err != nil {
		return nil, fmt.Errorf("failed to upsert detection_setting: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit tx: %w", err)
	}
	return &store.DetectionSetting{
		ID:                 id,
		CoachingKeywords:   upsert.CoachingKeywords,
		ClassKeywords:      upsert.ClassKeywords,
		ExclusionKeywords:  upsert.ExclusionKeywords,
		CoachEmailPatterns: upsert.CoachEmailPatterns,
		UpdatedTs:          ts,
	}, nil
}
