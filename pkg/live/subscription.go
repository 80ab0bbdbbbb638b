package live

import (
	"context"
)

// Query produces the current result of a live view.
type Query[T any] func(ctx context.Context) (T, error)

// Snapshot is one delivery from a Subscription. Err is set when the query
// failed; Value is then the zero value.
type Snapshot[T any] struct {
	Value T
	Err   error
}

// Subscription delivers a fresh Snapshot when it starts and again after each
// change signal on its topic. Deliveries are eventually consistent: every
// committed change is followed by at least one snapshot that reflects it.
type Subscription[T any] struct {
	id     string
	topic  string
	out    chan Snapshot[T]
	cancel context.CancelFunc
	done   chan struct{}
}

// Watch subscribes q to topic on n. The subscription runs until Cancel is
// called, ctx is cancelled, or n is closed; then C is closed.
func Watch[T any](ctx context.Context, n *Notifier, topic string, q Query[T]) (*Subscription[T], error) {
	// Register before the first query so no change is missed in between.
	changes, subID, err := n.subscribe(topic)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	s := &Subscription[T]{
		id:     subID,
		topic:  topic,
		out:    make(chan Snapshot[T]),
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go s.run(ctx, n, changes, q)
	return s, nil
}

func (s *Subscription[T]) run(ctx context.Context, n *Notifier, changes <-chan struct{}, q Query[T]) {
	defer close(s.done)
	defer close(s.out)
	defer n.unsubscribe(s.topic, s.id)

	for {
		v, err := q(ctx)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			n.logger.Warn("live query failed", "topic", s.topic, "sub_id", s.id, "error", err)
		}

		select {
		case s.out <- Snapshot[T]{Value: v, Err: err}:
		case <-ctx.Done():
			return
		case <-n.Done():
			return
		}

		select {
		case _, ok := <-changes:
			if !ok {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// ID identifies the subscription in logs.
func (s *Subscription[T]) ID() string {
	return s.id
}

// C returns the delivery channel. It is closed when the subscription ends.
func (s *Subscription[T]) C() <-chan Snapshot[T] {
	return s.out
}

// Next blocks for the next snapshot. It returns ErrClosed once the
// subscription has ended and ctx.Err() if ctx is done first.
func (s *Subscription[T]) Next(ctx context.Context) (T, error) {
	var zero T
	select {
	case snap, ok := <-s.out:
		if !ok {
			return zero, ErrClosed
		}
		return snap.Value, snap.Err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Cancel stops the subscription and waits for its goroutine to exit.
// Safe to call more than once.
func (s *Subscription[T]) Cancel() {
	s.cancel()
	<-s.done
}

// First returns the current result of a live view and cancels it. It is the
// one-shot read used by callers that do not need updates.
func First[T any](ctx context.Context, s *Subscription[T]) (T, error) {
	defer s.Cancel()
	return s.Next(ctx)
}
