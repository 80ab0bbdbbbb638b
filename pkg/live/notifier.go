// Package live provides subscribable query results. A Notifier fans change
// signals out per topic (one topic per table); a Subscription re-runs its
// query after every signal and delivers the fresh result set until cancelled.
package live

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// ErrClosed is returned when subscribing to a closed Notifier and by
// Subscription.Next after the subscription ends.
var ErrClosed = errors.New("live: closed")

// Notifier is an in-memory fan-out of change signals keyed by topic.
// Signals carry no payload: a subscriber only learns that its topic changed.
// Each subscriber holds at most one pending signal, so bursts of writes
// collapse into a single re-run.
type Notifier struct {
	mu          sync.RWMutex
	subscribers map[string]map[string]chan struct{} // topic -> subID -> ch
	done        chan struct{}
	closed      bool
	logger      *slog.Logger
}

// NewNotifier creates a notifier. Pass nil logger for default.
func NewNotifier(logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		subscribers: make(map[string]map[string]chan struct{}),
		done:        make(chan struct{}),
		logger:      logger.With("component", "notifier"),
	}
}

// subscribe registers a listener on topic. The returned channel is closed
// by unsubscribe or Close.
func (n *Notifier) subscribe(topic string) (<-chan struct{}, string, error) {
	subID := uuid.New().String()
	ch := make(chan struct{}, 1)

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return nil, "", ErrClosed
	}
	if _, ok := n.subscribers[topic]; !ok {
		n.subscribers[topic] = make(map[string]chan struct{})
	}
	n.subscribers[topic][subID] = ch

	n.logger.Debug("subscriber added", "topic", topic, "sub_id", subID)
	return ch, subID, nil
}

// unsubscribe removes a listener and closes its channel.
func (n *Notifier) unsubscribe(topic, subID string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	subs, ok := n.subscribers[topic]
	if !ok {
		return
	}
	ch, exists := subs[subID]
	if !exists {
		return
	}
	delete(subs, subID)
	close(ch)
	if len(subs) == 0 {
		delete(n.subscribers, topic)
	}

	n.logger.Debug("subscriber removed", "topic", topic, "sub_id", subID)
}

// Publish signals every subscriber of topic. It never blocks: a subscriber
// that already has a pending signal keeps just that one.
func (n *Notifier) Publish(topic string) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	for _, ch := range n.subscribers[topic] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Subscribers returns the number of live listeners on topic.
func (n *Notifier) Subscribers(topic string) int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.subscribers[topic])
}

// Done is closed when the notifier shuts down.
func (n *Notifier) Done() <-chan struct{} {
	return n.done
}

// Close ends every subscription. Idempotent.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return
	}
	n.closed = true
	close(n.done)

	for topic, subs := range n.subscribers {
		for subID, ch := range subs {
			close(ch)
			delete(subs, subID)
		}
		delete(n.subscribers, topic)
	}

	n.logger.Debug("notifier closed")
}
