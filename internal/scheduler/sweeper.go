package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aio-labs/aio-bot/internal/messaging"
	"github.com/aio-labs/aio-bot/internal/observability"
	"github.com/aio-labs/aio-bot/internal/store"
)

// Sweeper fires due reminders. Each tick it snapshots the store's due
// reminders, attempts delivery, and removes each one regardless of delivery
// success: at-most-once, best-effort. Delivery failures are logged and
// swallowed, never retried. No single failure stops the sweep.
type Sweeper struct {
	store     store.ReminderStore
	deliverer messaging.Deliverer
	metrics   *observability.Metrics
	now       func() time.Time
}

// NewSweeper creates a sweeper over the reminder store and the messaging
// channel. now defaults to time.Now.
func NewSweeper(st store.ReminderStore, deliverer messaging.Deliverer, metrics *observability.Metrics, now func() time.Time) *Sweeper {
	if now == nil {
		now = time.Now
	}
	return &Sweeper{store: st, deliverer: deliverer, metrics: metrics, now: now}
}

// Start schedules the sweep on the given scheduler at the poll interval.
func (s *Sweeper) Start(ctx context.Context, sched *Scheduler, interval time.Duration) error {
	return sched.Every(interval, func() { s.Sweep(ctx) })
}

// Sweep performs one tick. It iterates over a stable snapshot while the
// authoritative store is mutated and persisted under its own lock, so a
// user deleting reminders concurrently cannot corrupt the collection or
// cause a double delivery.
func (s *Sweeper) Sweep(ctx context.Context) {
	due := s.store.Due(s.now())
	if len(due) == 0 {
		return
	}
	slog.Debug("Sweeper.Sweep: firing due reminders", "count", len(due))

	for _, d := range due {
		delivered := true
		body := fmt.Sprintf("Напоминание: '%s' наступило!", d.Reminder.Name)
		if err := s.deliverer.SendMessage(ctx, d.UserID, body); err != nil {
			// User blocked the bot or the channel is down; the reminder is
			// still removed below.
			slog.Warn("Sweeper.Sweep: delivery failed", "userID", d.UserID, "reminder", d.Reminder.Name, "error", err)
			delivered = false
		}

		if err := s.store.Remove(d.UserID, d.Reminder.ID); err != nil {
			slog.Error("Sweeper.Sweep: removal persist failed", "userID", d.UserID, "id", d.Reminder.ID, "error", err)
		}
		s.metrics.ObserveReminderFired(delivered)
	}
}
