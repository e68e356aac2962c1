package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for database drivers.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	Migrate(ctx context.Context) error

	// Client model related methods.
	CreateClient(ctx context.Context, create *Client) (*Client, error)
	ListClients(ctx context.Context, find *FindClient) ([]*Client, error)
	UpdateClient(ctx context.Context, update *UpdateClient) (*Client, error)
	DeleteClient(ctx context.Context, delete *DeleteClient) error

	// Category model related methods.
	CreateCategory(ctx context.Context, create *Category) (*Category, error)
	ListCategories(ctx context.Context, find *FindCategory) ([]*Category, error)
	UpdateCategory(ctx context.Context, update *UpdateCategory) (*Category, error)
	DeleteCategory(ctx context.Context, delete *DeleteCategory) error

	// WeekTemplate model related methods.
	CreateWeekTemplate(ctx context.Context, create *WeekTemplate) (*WeekTemplate, error)
	ListWeekTemplates(ctx context.Context, find *FindWeekTemplate) ([]*WeekTemplate, error)
	UpdateWeekTemplate(ctx context.Context, update *UpdateWeekTemplate) (*WeekTemplate, error)
	DeleteWeekTemplate(ctx context.Context, delete *DeleteWeekTemplate) error

	// ClientProgram model related methods. Creating or re-activating a
	// program completes any other active program of the same client
	// within one transaction.
	CreateClientProgram(ctx context.Context, create *ClientProgram) (*ClientProgram, error)
	ListClientPrograms(ctx context.Context, find *FindClientProgram) ([]*ClientProgram, error)
	UpdateClientProgram(ctx context.Context, update *UpdateClientProgram) (*ClientProgram, error)
	DeleteClientProgram(ctx context.Context, delete *DeleteClientProgram) error

	// ClientWorkout model related methods.
	CreateClientWorkout(ctx context.Context, create *ClientWorkout) (*ClientWorkout, error)
	ListClientWorkouts(ctx context.Context, find *FindClientWorkout) ([]*ClientWorkout, error)
	UpdateClientWorkout(ctx context.Context, update *UpdateClientWorkout) (*ClientWorkout, error)
	DeleteClientWorkout(ctx context.Context, delete *DeleteClientWorkout) error

	// CalendarAccount model related methods.
	UpsertCalendarAccount(ctx context.Context, upsert *CalendarAccount) (*CalendarAccount, error)
	GetCalendarAccount(ctx context.Context, find *FindCalendarAccount) (*CalendarAccount, error)
	DeleteCalendarAccount(ctx context.Context, delete *DeleteCalendarAccount) error

	// DetectionSetting model related methods.
	GetDetectionSetting(ctx context.Context) (*DetectionSetting, error)
	UpsertDetectionSetting(ctx context.Context, upsert *UpdateDetectionSetting) (*DetectionSetting, error)
}
