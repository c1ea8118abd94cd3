package app

import (
	"context"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/five82/arbox/internal/arbox"
	"github.com/five82/arbox/internal/state"
)

const defaultPollInterval = 60 * time.Second

type scheduleFetcher interface {
	Schedule(ctx context.Context, query arbox.ScheduleQuery) (json.RawMessage, error)
}

// Poller keeps the store filled with the schedule of the selected day.
type Poller struct {
	fetcher       scheduleFetcher
	store         *state.Store
	log           *zap.Logger
	locationBoxID int
	boxID         int
	interval      time.Duration

	mu  sync.Mutex
	day time.Time
}

// NewPoller returns a poller for today. A nil logger discards output and a
// non-positive interval uses the default.
func NewPoller(fetcher scheduleFetcher, store *state.Store, locationBoxID, boxID int, log *zap.Logger, interval time.Duration) *Poller {
	if log == nil {
		log = zap.NewNop()
	}
	if interval <= 0 {
		interval = defaultPollInterval
	}
	return &Poller{
		fetcher:       fetcher,
		store:         store,
		log:           log,
		locationBoxID: locationBoxID,
		boxID:         boxID,
		interval:      interval,
		day:           Today(time.Now()),
	}
}

// Day returns the day being polled.
func (p *Poller) Day() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.day
}

// SetDay switches the polled day. It does not fetch.
func (p *Poller) SetDay(day time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.day = Today(day)
}

// Interval returns the polling cadence.
func (p *Poller) Interval() time.Duration {
	return p.interval
}

// Start launches a background goroutine that refreshes at a fixed cadence
// until ctx is done. Failures are recorded in the store; the next attempt is
// simply the next tick.
func (p *Poller) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			_ = p.Refresh(ctx)
		}
	}()
}

// Refresh fetches the selected day once and records the outcome. The outcome
// for a day that is no longer selected is dropped, failures included.
func (p *Poller) Refresh(ctx context.Context) error {
	day := p.Day()
	dayLabel := day.Format("2006-01-02")

	slots, err := p.fetch(ctx, day)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	if !p.Day().Equal(day) {
		p.log.Debug("schedule poll discarded", zap.String("day", dayLabel), zap.Error(err))
		return nil
	}
	if err != nil {
		p.store.Update(day, nil, err)
		p.log.Warn("schedule poll failed", zap.String("day", dayLabel), zap.Error(err))
		return err
	}
	p.store.Update(day, slots, nil)
	p.log.Debug("schedule refreshed", zap.String("day", dayLabel), zap.Int("slots", len(slots)))
	return nil
}

func (p *Poller) fetch(ctx context.Context, day time.Time) ([]arbox.Slot, error) {
	raw, err := p.fetcher.Schedule(ctx, DayQuery(day, p.locationBoxID, p.boxID))
	if err != nil {
		return nil, err
	}
	return arbox.DecodeSlots(raw)
}
