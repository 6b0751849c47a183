package broker

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/askrelay/askrelay/internal/metrics"
	"github.com/askrelay/askrelay/internal/models"
)

// waiter is a suspended long-poll request. Exactly one of delivery, timeout,
// or caller cancellation resolves it: removal from the registry map under the
// broker lock is the atomic claim, and only the remover touches the channel.
type waiter struct {
	id     uuid.UUID
	cursor int64
	ch     chan []models.Question // buffered; nil payload means timeout
	timer  *time.Timer
}

// PollResult is the outcome of a long-poll request.
type PollResult struct {
	Items      []models.Question
	NextCursor int64
	// Timeout reports that the deadline elapsed with nothing to deliver.
	// A normal protocol outcome, not an error.
	Timeout bool
}

// LongPoll answers immediately when questions past the cursor exist.
// Otherwise it registers a waiter and blocks until delivery, the broker's
// deadline, or ctx cancellation.
func (b *Broker) LongPoll(ctx context.Context, cursor int64) PollResult {
	b.mu.Lock()
	if items := b.listSinceLocked(cursor); len(items) > 0 {
		b.mu.Unlock()
		metrics.LongPollDeliveries.Inc()
		return PollResult{Items: items, NextCursor: items[len(items)-1].ID}
	}

	w := &waiter{
		id:     uuid.New(),
		cursor: cursor,
		ch:     make(chan []models.Question, 1),
	}
	w.timer = time.AfterFunc(b.pollTimeout, func() { b.expireWaiter(w.id) })
	b.waiters[w.id] = w
	b.mu.Unlock()

	metrics.WaitersActive.Inc()
	defer metrics.WaitersActive.Dec()
	b.logger.Debug().
		Str("waiter_id", w.id.String()).
		Int64("cursor", cursor).
		Msg("waiter registered")

	select {
	case items := <-w.ch:
		if items == nil {
			metrics.LongPollTimeouts.Inc()
			return PollResult{NextCursor: cursor, Timeout: true}
		}
		metrics.LongPollDeliveries.Inc()
		return PollResult{Items: items, NextCursor: items[len(items)-1].ID}
	case <-ctx.Done():
		b.cancelWaiter(w.id)
		return PollResult{NextCursor: cursor, Timeout: true}
	}
}

// deliverPendingLocked resolves every waiter whose cursor now has newer
// questions. Caller holds b.mu.
func (b *Broker) deliverPendingLocked() {
	for id, w := range b.waiters {
		items := b.listSinceLocked(w.cursor)
		if len(items) == 0 {
			continue
		}
		delete(b.waiters, id)
		w.timer.Stop()
		w.ch <- items
	}
}

// expireWaiter fires on the deadline timer. If delivery already claimed the
// waiter the map lookup misses and this is a no-op.
func (b *Broker) expireWaiter(id uuid.UUID) {
	b.mu.Lock()
	w, ok := b.waiters[id]
	if ok {
		delete(b.waiters, id)
	}
	b.mu.Unlock()
	if !ok {
		return
	}
	w.ch <- nil
	b.logger.Debug().Str("waiter_id", id.String()).Msg("waiter timed out")
}

// cancelWaiter removes a waiter whose caller went away. If delivery or the
// timer won the race, any buffered payload is simply dropped; the consumer
// re-polls with its old cursor and receives the items again.
func (b *Broker) cancelWaiter(id uuid.UUID) {
	b.mu.Lock()
	w, ok := b.waiters[id]
	if ok {
		delete(b.waiters, id)
		w.timer.Stop()
	}
	b.mu.Unlock()
}
