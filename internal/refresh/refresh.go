// Package refresh keeps an in-memory snapshot of normalized events from the
// configured ICS sources, re-fetched on a cron schedule.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"monthgrid/internal/config"
	"monthgrid/internal/ics"
	appLog "monthgrid/internal/log"
	"monthgrid/internal/model"
)

// ErrInProgress is returned by Refresh while another refresh is running.
var ErrInProgress = errors.New("refresh already in progress")

// Fetcher is the subset of *ics.Fetcher the refresher needs.
type Fetcher interface {
	FetchAll(ctx context.Context, sources []ics.Source) ([]ics.FetchResult, []error)
}

// Snapshot is the result of the latest completed refresh.
type Snapshot struct {
	Events    []model.Event `json:"events"`
	UpdatedAt time.Time     `json:"updated_at"`
	Errors    []string      `json:"errors,omitempty"`
	Recurring int           `json:"recurring"`
}

// Refresher runs the fetch → parse → normalize pipeline and swaps the
// snapshot wholesale.
type Refresher struct {
	cfg     *config.Config
	fetcher Fetcher
	now     func() time.Time

	running atomic.Bool

	mu   sync.RWMutex
	snap Snapshot
}

// New creates a Refresher. The snapshot is empty until the first Refresh.
func New(cfg *config.Config, fetcher Fetcher) *Refresher {
	return &Refresher{
		cfg:     cfg,
		fetcher: fetcher,
		now:     time.Now,
	}
}

// Snapshot returns a copy of the latest snapshot.
func (r *Refresher) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := r.snap
	out.Events = append([]model.Event(nil), r.snap.Events...)
	out.Errors = append([]string(nil), r.snap.Errors...)
	return out
}

// Refresh fetches all sources and stores whatever could be parsed. Failing
// sources are logged and returned joined; the events of the remaining
// sources are stored regardless.
func (r *Refresher) Refresh(ctx context.Context) error {
	if !r.running.CompareAndSwap(false, true) {
		return ErrInProgress
	}
	defer r.running.Store(false)

	started := time.Now()
	loc := r.cfg.Location()
	now := r.now().In(loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	rangeStart := today.AddDate(0, 0, -r.cfg.BackfillDays)
	rangeEnd := today.AddDate(0, 0, r.cfg.HorizonDays)

	sources := make([]ics.Source, 0, len(r.cfg.ICS))
	for _, c := range r.cfg.ICS {
		if c.URL == "" {
			continue
		}
		sources = append(sources, ics.Source{ID: c.SourceID(), URL: c.URL})
	}

	var errs []error
	parsed := make([]ics.ParsedEvent, 0)

	if len(sources) > 0 {
		results, fetchErrs := r.fetcher.FetchAll(ctx, sources)
		errs = append(errs, fetchErrs...)

		for _, res := range results {
			events, err := ics.ParseICS(res.Source, res.Body)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			parsed = append(parsed, events...)
		}
	}

	norm, err := ics.Normalize(parsed, ics.NormalizeConfig{
		DisplayLocation: loc,
		RangeStart:      rangeStart,
		RangeEnd:        rangeEnd,
	})
	if err != nil {
		return fmt.Errorf("refresh: %w", err)
	}

	snap := Snapshot{
		Events:    norm.Events,
		UpdatedAt: now,
		Recurring: len(norm.Recurring),
	}
	for _, e := range errs {
		snap.Errors = append(snap.Errors, e.Error())
	}

	r.mu.Lock()
	r.snap = snap
	r.mu.Unlock()

	appLog.Info("refresh completed",
		"sources", len(sources),
		"events", len(snap.Events),
		"errors", len(errs),
		"range_start", rangeStart.Format(time.DateOnly),
		"range_end", rangeEnd.Format(time.DateOnly),
		"took", time.Since(started),
	)

	return errors.Join(errs...)
}

// Start schedules Refresh on cfg.RefreshCron in the configured timezone.
// The schedule stops when ctx is done.
func (r *Refresher) Start(ctx context.Context) error {
	logger := cronLogger{}
	c := cron.New(
		cron.WithLocation(r.cfg.Location()),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		cron.WithLogger(logger),
	)

	_, err := c.AddFunc(r.cfg.RefreshCron, func() {
		if err := r.Refresh(ctx); err != nil {
			appLog.Error("scheduled refresh finished with errors", err)
		}
	})
	if err != nil {
		return fmt.Errorf("refresh: schedule %q: %w", r.cfg.RefreshCron, err)
	}

	c.Start()
	appLog.Info("refresh scheduled", "cron", r.cfg.RefreshCron, "timezone", r.cfg.Timezone)

	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
		appLog.Info("refresh schedule stopped")
	}()
	return nil
}

// cronLogger routes cron's internal logging through appLog.
type cronLogger struct{}

func (cronLogger) Info(msg string, kv ...interface{}) {
	appLog.Debug("cron: "+msg, kv...)
}

func (cronLogger) Error(err error, msg string, kv ...interface{}) {
	appLog.Error("cron: "+msg, err, kv...)
}
