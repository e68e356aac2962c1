package sync

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
)

// refreshTimeout bounds one background sync pass.
const refreshTimeout = 2 * time.Minute

// Refresher re-runs the sync pass on the configured cron spec. It is
// quiet about individual failures; Refresh already records them in the
// metrics and fires the failure webhook.
type Refresher struct {
	service *Service
	cron    *cron.Cron
	spec    string
}

func NewRefresher(service *Service, spec string) *Refresher {
	return &Refresher{
		service: service,
		cron:    cron.New(cron.WithLocation(service.profile.Location())),
		spec:    spec,
	}
}

// Start schedules the refresh job and starts the cron loop. An empty
// spec disables the refresher without error.
func (r *Refresher) Start() error {
	if r.spec == "" {
		slog.Info("background sync disabled")
		return nil
	}
	if _, err := r.cron.AddFunc(r.spec, r.run); err != nil {
		return errors.Wrapf(err, "invalid sync interval %q", r.spec)
	}
	r.cron.Start()
	slog.Info("background sync started", "interval", r.spec)
	return nil
}

// Stop halts scheduling and returns once any in-flight run finished.
func (r *Refresher) Stop() {
	<-r.cron.Stop().Done()
}

func (r *Refresher) run() {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()
	if _, err := r.service.Refresh(ctx); err != nil {
		slog.Warn("background sync failed", "err", err)
	}
}
