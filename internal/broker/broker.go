// Package broker owns the in-memory question/answer logs, the attachment
// store, and the long-poll waiter registry. All state lives for the process
// lifetime; nothing is persisted.
package broker

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/askrelay/askrelay/internal/metrics"
	"github.com/askrelay/askrelay/internal/models"
)

// DefaultLongPollTimeout is the server-side deadline after which a suspended
// long-poll request is answered with "no data".
const DefaultLongPollTimeout = 25 * time.Second

// Broker is the single owner of all mutable protocol state. Construct one at
// process start and pass it to the request handlers.
type Broker struct {
	logger      zerolog.Logger
	attachments *AttachmentStore
	pollTimeout time.Duration

	mu             sync.Mutex
	nextQuestionID int64
	questions      []models.Question
	answers        []models.Answer
	waiters        map[uuid.UUID]*waiter
}

// Option configures a Broker.
type Option func(*Broker)

// WithLongPollTimeout overrides the long-poll deadline.
func WithLongPollTimeout(d time.Duration) Option {
	return func(b *Broker) {
		if d > 0 {
			b.pollTimeout = d
		}
	}
}

// New creates an empty broker.
func New(logger zerolog.Logger, opts ...Option) *Broker {
	b := &Broker{
		logger:         logger,
		attachments:    NewAttachmentStore(logger),
		pollTimeout:    DefaultLongPollTimeout,
		nextQuestionID: 1,
		waiters:        make(map[uuid.UUID]*waiter),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Attachments returns the broker-owned attachment store.
func (b *Broker) Attachments() *AttachmentStore {
	return b.attachments
}

// AppendQuestion assigns the next question id, appends to the log, and
// notifies pending waiters. The append and the fan-out happen under one lock
// so a concurrently registering waiter can never miss the question.
func (b *Broker) AppendQuestion(text string, attachments []models.AttachmentRef) models.Question {
	if attachments == nil {
		attachments = []models.AttachmentRef{}
	}

	b.mu.Lock()
	q := models.Question{
		ID:          b.nextQuestionID,
		Text:        text,
		Attachments: attachments,
		Timestamp:   time.Now().UnixMilli(),
	}
	b.nextQuestionID++
	b.questions = append(b.questions, q)
	b.deliverPendingLocked()
	b.mu.Unlock()

	metrics.QuestionsSubmitted.Inc()
	b.logger.Info().
		Int64("question_id", q.ID).
		Int("attachments", len(attachments)).
		Msg("question appended")
	return q
}

// AppendAnswer appends an acknowledgment to the answer log. The log is a
// sink: the question id is not validated against the question log.
func (b *Broker) AppendAnswer(questionID models.FlexID, text string) models.Answer {
	a := models.Answer{
		QuestionID: questionID,
		Answer:     text,
		Timestamp:  time.Now().UnixMilli(),
	}

	b.mu.Lock()
	b.answers = append(b.answers, a)
	b.mu.Unlock()

	metrics.AnswersRecorded.Inc()
	b.logger.Info().
		Str("question_id", questionID.String()).
		Int("answer_len", len(text)).
		Msg("answer recorded")
	return a
}

// ListSince returns every question with id > cursor, ascending. It is a pure
// read: identical cursors against an unchanged log yield identical results.
func (b *Broker) ListSince(cursor int64) []models.Question {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.listSinceLocked(cursor)
}

func (b *Broker) listSinceLocked(cursor int64) []models.Question {
	// Ids are dense and ascending, so the slice is already ordered; find the
	// first id past the cursor and copy the tail.
	idx := len(b.questions)
	for i, q := range b.questions {
		if q.ID > cursor {
			idx = i
			break
		}
	}
	tail := b.questions[idx:]
	if len(tail) == 0 {
		return nil
	}
	out := make([]models.Question, len(tail))
	copy(out, tail)
	return out
}

// Questions returns the full question log for admin listings.
func (b *Broker) Questions() []models.Question {
	return b.ListSince(0)
}

// Answers returns the full answer log for admin listings.
func (b *Broker) Answers() []models.Answer {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]models.Answer, len(b.answers))
	copy(out, b.answers)
	return out
}

// Counts reports log sizes and active waiters for the health endpoint.
func (b *Broker) Counts() (questions, answers, waiters int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.questions), len(b.answers), len(b.waiters)
}
