package consumer

import (
	"context"
	"sync"

	"github.com/askrelay/askrelay/internal/models"
)

// Queue is an unbounded FIFO connecting the poll loop to the single worker.
// The poll loop never blocks on enqueue; the worker blocks on dequeue.
type Queue struct {
	mu    sync.Mutex
	items []models.Question
	wake  chan struct{}
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{wake: make(chan struct{}, 1)}
}

// Enqueue appends an item and wakes the worker.
func (q *Queue) Enqueue(item models.Question) {
	q.mu.Lock()
	q.items = append(q.items, item)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Dequeue removes the oldest item, blocking until one exists or ctx ends.
func (q *Queue) Dequeue(ctx context.Context) (models.Question, error) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			item := q.items[0]
			q.items = q.items[1:]
			q.mu.Unlock()
			return item, nil
		}
		q.mu.Unlock()

		select {
		case <-q.wake:
		case <-ctx.Done():
			return models.Question{}, ctx.Err()
		}
	}
}

// Len reports the number of queued items.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
