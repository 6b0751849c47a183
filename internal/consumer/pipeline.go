package consumer

import (
	"context"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/askrelay/askrelay/internal/metrics"
	"github.com/askrelay/askrelay/internal/models"
)

// Processor turns a question into raw answer text. Implementations wrap the
// external automation layer, which is not safely reentrant: the pipeline
// invokes Process strictly serially, one question fully finished before the
// next starts.
type Processor interface {
	Process(ctx context.Context, q models.Question) (string, error)
}

// FastAnswerer is an optional Processor capability: a supplementary source
// that can sometimes produce the answer more cheaply (for instance a sniffed
// network response). ok=false falls back to Process.
type FastAnswerer interface {
	FastAnswer(ctx context.Context, q models.Question) (answer string, ok bool)
}

// Pipeline wires poll loop → dedup → serial queue → normalize/hash/ack into
// one configurable unit.
type Pipeline struct {
	client *Client
	proc   Processor
	queue  *Queue
	poller *Poller
	acks   *AckCache
	logger zerolog.Logger
}

// NewPipeline assembles a pipeline around the given client and processor.
func NewPipeline(client *Client, proc Processor, logger zerolog.Logger, settings BackoffSettings) *Pipeline {
	queue := NewQueue()
	return &Pipeline{
		client: client,
		proc:   proc,
		queue:  queue,
		poller: NewPoller(client, queue, logger, settings),
		acks:   NewAckCache(),
		logger: logger,
	}
}

// Run starts the poll loop and the serial worker and blocks until ctx ends.
func (p *Pipeline) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		p.poller.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		p.work(ctx)
	}()

	wg.Wait()
	return ctx.Err()
}

// work drains the queue one question at a time.
func (p *Pipeline) work(ctx context.Context) {
	for {
		q, err := p.queue.Dequeue(ctx)
		if err != nil {
			return
		}
		p.handle(ctx, q)
	}
}

// handle fully processes one question. A processing failure abandons the
// question without acknowledgment; the loop continues with the next item.
func (p *Pipeline) handle(ctx context.Context, q models.Question) {
	answer, err := p.process(ctx, q)
	if err != nil {
		p.logger.Warn().Err(err).Int64("question_id", q.ID).Msg("processing failed, abandoning question")
		return
	}

	cleaned := NormalizeAnswer(answer)
	if cleaned == "" {
		p.logger.Debug().Int64("question_id", q.ID).Msg("empty answer, nothing to acknowledge")
		return
	}

	id := strconv.FormatInt(q.ID, 10)
	hash := HashAnswer(cleaned)
	if p.acks.Duplicate(id, hash) {
		metrics.AcksSuppressed.Inc()
		p.logger.Debug().Str("question_id", id).Msg("duplicate answer suppressed")
		return
	}

	if err := p.client.PostAnswer(ctx, id, cleaned); err != nil {
		// No retry: the cache stays unset so a later capture of the same
		// answer will attempt the send again.
		p.logger.Warn().Err(err).Str("question_id", id).Msg("acknowledgment failed")
		return
	}
	p.acks.Record(id, hash)
	metrics.AcksSent.Inc()
	p.logger.Info().Str("question_id", id).Int("answer_len", len(cleaned)).Msg("answer acknowledged")
}

func (p *Pipeline) process(ctx context.Context, q models.Question) (string, error) {
	if fast, ok := p.proc.(FastAnswerer); ok {
		if answer, hit := fast.FastAnswer(ctx, q); hit {
			return answer, nil
		}
	}
	return p.proc.Process(ctx, q)
}
