package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Profile is configuration to start main server.
type Profile struct {
	// Google Calendar connection
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	CalendarID         string // defaults to "primary"

	// InstanceURL is the public base URL, used for the workout deep
	// links embedded into calendar event descriptions.
	InstanceURL string

	// Timezone is the IANA zone scheduled sessions are created in.
	Timezone string

	// SyncInterval is the background refresh cron spec; empty disables
	// the refresher.
	SyncInterval string

	// WebhookURL receives assignment completion notifications.
	WebhookURL string

	Mode    string
	Addr    string
	Data    string
	Driver  string
	DSN     string
	Version string
	Port    int
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// getEnvOrDefault returns environment variable value or default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// FromEnv loads configuration from environment variables.
func (p *Profile) FromEnv() {
	p.GoogleClientID = getEnvOrDefault("COACHCAL_GOOGLE_CLIENT_ID", "")
	p.GoogleClientSecret = getEnvOrDefault("COACHCAL_GOOGLE_CLIENT_SECRET", "")
	p.GoogleRedirectURL = getEnvOrDefault("COACHCAL_GOOGLE_REDIRECT_URL", "")
	p.CalendarID = getEnvOrDefault("COACHCAL_CALENDAR_ID", "primary")
	p.Timezone = getEnvOrDefault("COACHCAL_TIMEZONE", "America/Los_Angeles")
	p.SyncInterval = getEnvOrDefault("COACHCAL_SYNC_INTERVAL", "@every 15m")
	p.WebhookURL = getEnvOrDefault("COACHCAL_WEBHOOK_URL", "")
	if p.InstanceURL == "" {
		p.InstanceURL = getEnvOrDefault("COACHCAL_INSTANCE_URL", "")
	}
}

// Location resolves the configured timezone.
func (p *Profile) Location() *time.Location {
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

// Validate normalizes the profile and rejects unusable combinations.
func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.Mode == "prod" && p.Data == "" {
		if runtime.GOOS == "windows" {
			p.Data = filepath.Join(os.Getenv("ProgramData"), "coachcal")
			if _, err := os.Stat(p.Data); os.IsNotExist(err) {
				if err := os.MkdirAll(p.Data, 0770); err != nil {
					return errors.Wrapf(err, "failed to create data directory %s", p.Data)
				}
			}
		} else {
			p.Data = "/var/opt/coachcal"
		}
	}
	if p.Data == "" {
		p.Data = "."
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		return err
	}
	p.Data = dataDir

	switch p.Driver {
	case "sqlite":
		if p.DSN == "" {
			dbFile := fmt.Sprintf("coachcal_%s.db", p.Mode)
			p.DSN = filepath.Join(dataDir, dbFile)
		}
	case "postgres":
		if p.DSN == "" {
			return errors.New("dsn is required for postgres driver")
		}
	default:
		return errors.Errorf("unsupported database driver: %s", p.Driver)
	}

	if _, err := time.LoadLocation(p.Timezone); err != nil {
		return errors.Wrapf(err, "invalid timezone %q", p.Timezone)
	}

	return nil
}
