package store

import (
	"context"
	"sync"
	"time"

	"github.com/coachcal/coachcal/internal/profile"
)

// Store provides database access to all raw objects.
type Store struct {
	profile *profile.Profile
	driver  Driver

	// Detection settings change rarely and are read on every matching
	// pass, so the last read is kept for a short TTL.
	settingMu        sync.RWMutex
	cachedSetting    *DetectionSetting
	cachedSettingExp time.Time
}

const settingCacheTTL = 5 * time.Minute

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	return &Store{
		driver:  driver,
		profile: profile,
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

func (s *Store) Migrate(ctx context.Context) error {
	return s.driver.Migrate(ctx)
}

func (s *Store) Close() error {
	return s.driver.Close()
}

func (s *Store) CreateClient(ctx context.Context, create *Client) (*Client, error) {
	return s.driver.CreateClient(ctx, create)
}

func (s *Store) ListClients(ctx context.Context, find *FindClient) ([]*Client, error) {
	return s.driver.ListClients(ctx, find)
}

// GetClient returns the single client matching find, or nil.
func (s *Store) GetClient(ctx context.Context, find *FindClient) (*Client, error) {
	list, err := s.driver.ListClients(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (s *Store) UpdateClient(ctx context.Context, update *UpdateClient) (*Client, error) {
	return s.driver.UpdateClient(ctx, update)
}

func (s *Store) DeleteClient(ctx context.Context, delete *DeleteClient) error {
	return s.driver.DeleteClient(ctx, delete)
}

func (s *Store) CreateCategory(ctx context.Context, create *Category) (*Category, error) {
	return s.driver.CreateCategory(ctx, create)
}

func (s *Store) ListCategories(ctx context.Context, find *FindCategory) ([]*Category, error) {
	return s.driver.ListCategories(ctx, find)
}

func (s *Store) UpdateCategory(ctx context.Context, update *UpdateCategory) (*Category, error) {
	return s.driver.UpdateCategory(ctx, update)
}

func (s *Store) DeleteCategory(ctx context.Context, delete *DeleteCategory) error {
	return s.driver.DeleteCategory(ctx, delete)
}

func (s *Store) CreateWeekTemplate(ctx context.Context, create *WeekTemplate) (*WeekTemplate, error) {
	return s.driver.CreateWeekTemplate(ctx, create)
}

func (s *Store) ListWeekTemplates(ctx context.Context, find *FindWeekTemplate) ([]*WeekTemplate, error) {
	return s.driver.ListWeekTemplates(ctx, find)
}

func (s *Store) GetWeekTemplate(ctx context.Context, find *FindWeekTemplate) (*WeekTemplate, error) {
	list, err := s.driver.ListWeekTemplates(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (s *Store) UpdateWeekTemplate(ctx context.Context, update *UpdateWeekTemplate) (*WeekTemplate, error) {
	return s.driver.UpdateWeekTemplate(ctx, update)
}

func (s *Store) DeleteWeekTemplate(ctx context.Context, delete *DeleteWeekTemplate) error {
	return s.driver.DeleteWeekTemplate(ctx, delete)
}

func (s *Store) CreateClientProgram(ctx context.Context, create *ClientProgram) (*ClientProgram, error) {
	return s.driver.CreateClientProgram(ctx, create)
}

func (s *Store) ListClientPrograms(ctx context.Context, find *FindClientProgram) ([]*ClientProgram, error) {
	return s.driver.ListClientPrograms(ctx, find)
}

func (s *Store) UpdateClientProgram(ctx context.Context, update *UpdateClientProgram) (*ClientProgram, error) {
	return s.driver.UpdateClientProgram(ctx, update)
}

func (s *Store) DeleteClientProgram(ctx context.Context, delete *DeleteClientProgram) error {
	return s.driver.DeleteClientProgram(ctx, delete)
}

func (s *Store) CreateClientWorkout(ctx context.Context, create *ClientWorkout) (*ClientWorkout, error) {
	return s.driver.CreateClientWorkout(ctx, create)
}

func (s *Store) ListClientWorkouts(ctx context.Context, find *FindClientWorkout) ([]*ClientWorkout, error) {
	return s.driver.ListClientWorkouts(ctx, find)
}

func (s *Store) UpdateClientWorkout(ctx context.Context, update *UpdateClientWorkout) (*ClientWorkout, error) {
	return s.driver.UpdateClientWorkout(ctx, update)
}

func (s *Store) DeleteClientWorkout(ctx context.Context, delete *DeleteClientWorkout) error {
	return s.driver.DeleteClientWorkout(ctx, delete)
}

func (s *Store) UpsertCalendarAccount(ctx context.Context, upsert *CalendarAccount) (*CalendarAccount, error) {
	return s.driver.UpsertCalendarAccount(ctx, upsert)
}

func (s *Store) GetCalendarAccount(ctx context.Context, find *FindCalendarAccount) (*CalendarAccount, error) {
	return s.driver.GetCalendarAccount(ctx, find)
}

func (s *Store) DeleteCalendarAccount(ctx context.Context, delete *DeleteCalendarAccount) error {
	return s.driver.DeleteCalendarAccount(ctx, delete)
}

// GetDetectionSetting returns the instance detection settings, served
// from a short-lived cache.
func (s *Store) GetDetectionSetting(ctx context.Context) (*DetectionSetting, error) {
	s.settingMu.RLock()
	if s.cachedSetting != nil && time.Now().Before(s.cachedSettingExp) {
		cached := s.cachedSetting
		s.settingMu.RUnlock()
		return cached, nil
	}
	s.settingMu.RUnlock()

	setting, err := s.driver.GetDetectionSetting(ctx)
	if err != nil {
		return nil, err
	}

	s.settingMu.Lock()
	s.cachedSetting = setting
	s.cachedSettingExp = time.Now().Add(settingCacheTTL)
	s.settingMu.Unlock()
	return setting, nil
}

func (s *Store) UpsertDetectionSetting(ctx context.Context, upsert *UpdateDetectionSetting) (*DetectionSetting, error) {
	setting, err := s.driver.UpsertDetectionSetting(ctx, upsert)
	if err != nil {
		return nil, err
	}
	s.settingMu.Lock()
	s.cachedSetting = setting
	s.cachedSettingExp = time.Now().Add(settingCacheTTL)
	s.settingMu.Unlock()
	return setting, nil
}
