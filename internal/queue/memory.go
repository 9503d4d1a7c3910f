package queue

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrQueueClosed is returned when using a closed MemoryQueue
var ErrQueueClosed = errors.New("queue is closed")

// DeadLetter is a job rejected without requeue
type DeadLetter struct {
	Job        *Job
	RejectedAt time.Time
}

// MemoryQueue is an in-process JobQueue for single-instance deployments and tests.
// Delayed jobs are held until their NotBefore time.
type MemoryQueue struct {
	jobs   chan *Job
	mu     sync.Mutex
	dead   []DeadLetter
	timers []*time.Timer
	closed bool
	done   chan struct{}
	now    func() time.Time
}

// NewMemoryQueue creates a queue buffering up to capacity ready jobs
func NewMemoryQueue(capacity int) *MemoryQueue {
	if capacity < 1 {
		capacity = 1
	}
	return &MemoryQueue{
		jobs: make(chan *Job, capacity),
		done: make(chan struct{}),
		now:  time.Now,
	}
}

// Enqueue adds a job to the queue, blocking while the buffer is full
func (q *MemoryQueue) Enqueue(ctx context.Context, job *Job) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrQueueClosed
	}
	if job.NotBefore != nil {
		if delay := job.NotBefore.Sub(q.now()); delay > 0 {
			q.timers = append(q.timers, time.AfterFunc(delay, func() {
				_ = q.push(context.Background(), job)
			}))
			q.mu.Unlock()
			return nil
		}
	}
	q.mu.Unlock()
	return q.push(ctx, job)
}

func (q *MemoryQueue) push(ctx context.Context, job *Job) error {
	select {
	case <-q.done:
		return ErrQueueClosed
	case <-ctx.Done():
		return ctx.Err()
	case q.jobs <- job:
		return nil
	}
}

// Consume delivers jobs until ctx is cancelled or the queue is closed
func (q *MemoryQueue) Consume(ctx context.Context, prefetchCount int) (<-chan *Message, <-chan error, error) {
	q.mu.Lock()
	closed := q.closed
	q.mu.Unlock()
	if closed {
		return nil, nil, ErrQueueClosed
	}
	if prefetchCount < 1 {
		prefetchCount = 1
	}

	msgChan := make(chan *Message, prefetchCount)
	errChan := make(chan error, 1)

	go func() {
		defer close(msgChan)
		defer close(errChan)

		for {
			select {
			case <-ctx.Done():
				return
			case <-q.done:
				return
			case job := <-q.jobs:
				if job.IsExpired() {
					q.deadLetter(job)
					continue
				}
				msg := q.message(job)
				select {
				case <-ctx.Done():
					_ = msg.Nack(true)
					return
				case msgChan <- msg:
				}
			}
		}
	}()

	return msgChan, errChan, nil
}

func (q *MemoryQueue) message(job *Job) *Message {
	var once sync.Once
	settle := func(fn func()) {
		once.Do(fn)
	}
	return NewMessage(job,
		func() error {
			settle(func() {})
			return nil
		},
		func(requeue bool) error {
			var err error
			settle(func() {
				if requeue {
					err = q.push(context.Background(), job)
					return
				}
				q.deadLetter(job)
			})
			return err
		},
	)
}

func (q *MemoryQueue) deadLetter(job *Job) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.dead = append(q.dead, DeadLetter{Job: job, RejectedAt: q.now()})
}

// DeadLetters returns a copy of the dead-lettered jobs
func (q *MemoryQueue) DeadLetters() []DeadLetter {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]DeadLetter, len(q.dead))
	copy(out, q.dead)
	return out
}

// PurgeOlderThan drops dead letters rejected before now - retention
func (q *MemoryQueue) PurgeOlderThan(ctx context.Context, retention time.Duration) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	q.mu.Lock()
	defer q.mu.Unlock()

	cutoff := q.now().Add(-retention)
	kept := q.dead[:0]
	purged := 0
	for _, dl := range q.dead {
		if dl.RejectedAt.Before(cutoff) {
			purged++
			continue
		}
		kept = append(kept, dl)
	}
	q.dead = kept
	return purged, nil
}

// HealthCheck reports whether the queue accepts work
func (q *MemoryQueue) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrQueueClosed
	}
	return nil
}

// Close stops delivery and cancels pending delayed jobs
func (q *MemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	q.closed = true
	for _, t := range q.timers {
		t.Stop()
	}
	q.timers = nil
	close(q.done)
	return nil
}
