package consumer

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/askrelay/askrelay/internal/metrics"
)

// defaultSeenLimit is the dedup-set size that triggers eviction of ids the
// cursor has already moved past.
const defaultSeenLimit = 4096

// BackoffSettings tunes the poll loop's idle and error backoff branches.
// Both grow to the same ceiling; idle grows gently, errors double.
type BackoffSettings struct {
	IdleFloor  time.Duration
	ErrorFloor time.Duration
	Cap        time.Duration
}

func (s BackoffSettings) withDefaults() BackoffSettings {
	if s.IdleFloor <= 0 {
		s.IdleFloor = 1200 * time.Millisecond
	}
	if s.ErrorFloor <= 0 {
		s.ErrorFloor = time.Second
	}
	if s.Cap <= 0 {
		s.Cap = 15 * time.Second
	}
	return s
}

func newBackoff(floor, ceiling time.Duration, multiplier float64) *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = floor
	b.MaxInterval = ceiling
	b.Multiplier = multiplier
	b.RandomizationFactor = 0 // deterministic growth
	b.MaxElapsedTime = 0      // never give up
	b.Reset()
	return b
}

// Poller is the single always-running long-poll loop. It tracks the cursor,
// deduplicates redelivered question ids, and enqueues new items for the
// serial worker. It never blocks on processing.
type Poller struct {
	client *Client
	queue  *Queue
	logger zerolog.Logger

	idleBackoff *backoff.ExponentialBackOff
	errBackoff  *backoff.ExponentialBackOff

	cursor    int64
	seen      map[int64]struct{}
	seenLimit int
}

// NewPoller creates a poller feeding the given queue.
func NewPoller(client *Client, queue *Queue, logger zerolog.Logger, settings BackoffSettings) *Poller {
	settings = settings.withDefaults()
	return &Poller{
		client:      client,
		queue:       queue,
		logger:      logger,
		idleBackoff: newBackoff(settings.IdleFloor, settings.Cap, 1.2),
		errBackoff:  newBackoff(settings.ErrorFloor, settings.Cap, 2),
		seen:        make(map[int64]struct{}),
		seenLimit:   defaultSeenLimit,
	}
}

// Run polls until ctx is canceled.
func (p *Poller) Run(ctx context.Context) {
	for ctx.Err() == nil {
		result, err := p.client.Poll(ctx, p.cursor)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return
			}
			metrics.ConsumerPolls.WithLabelValues("error").Inc()
			delay := p.errBackoff.NextBackOff()
			p.logger.Warn().Err(err).Dur("backoff", delay).Msg("poll failed")
			p.sleep(ctx, delay)

		case result.Empty:
			metrics.ConsumerPolls.WithLabelValues("empty").Inc()
			p.sleep(ctx, p.idleBackoff.NextBackOff())

		default:
			metrics.ConsumerPolls.WithLabelValues("items").Inc()
			p.ingest(result)
			p.idleBackoff.Reset()
			p.errBackoff.Reset()
		}
	}
}

// ingest enqueues unseen items and advances the cursor. Redelivery after a
// lost response legitimately repeats items; the seen set filters them.
func (p *Poller) ingest(result *PollResult) {
	for _, item := range result.Items {
		if _, dup := p.seen[item.ID]; dup {
			p.logger.Debug().Int64("question_id", item.ID).Msg("skipping redelivered question")
			continue
		}
		p.seen[item.ID] = struct{}{}
		p.queue.Enqueue(item)
	}
	if result.NextCursor > p.cursor {
		p.cursor = result.NextCursor
	}
	if len(p.seen) > p.seenLimit {
		p.pruneSeen()
	}
}

// pruneSeen evicts ids at or below the cursor. The broker only returns ids
// strictly greater than the polled cursor and the cursor never regresses, so
// evicted ids can never be redelivered; dedup behavior is unchanged.
func (p *Poller) pruneSeen() {
	for id := range p.seen {
		if id <= p.cursor {
			delete(p.seen, id)
		}
	}
}

func (p *Poller) sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
