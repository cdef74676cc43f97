package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyang/threadkeeper/internal/domain/event"
	porteventbus "github.com/alanyang/threadkeeper/internal/port/eventbus"
)

// maxPayload stays under the 8000-byte NOTIFY payload limit.
const maxPayload = 7900

const relistenDelay = time.Second

// EventBus fans audit events out across bot replicas through Postgres
// LISTEN/NOTIFY. Every subscription holds its own pooled connection.
type EventBus struct {
	pool *pgxpool.Pool

	mu   sync.Mutex
	subs map[*subscription]struct{}
}

func New(pool *pgxpool.Pool) *EventBus {
	return &EventBus{
		pool: pool,
		subs: make(map[*subscription]struct{}),
	}
}

// Publish sends e via NOTIFY on the channel for its type. Oversized messages
// are cut so the notification is never rejected.
func (eb *EventBus) Publish(ctx context.Context, e event.Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}
	if over := len(payload) - maxPayload; over > 0 && over < len(e.Message) {
		e.Message = e.Message[:len(e.Message)-over]
		if payload, err = json.Marshal(e); err != nil {
			return fmt.Errorf("marshaling event: %w", err)
		}
	}

	channel := channelName(event.ChannelFor(e.Type))
	if _, err := eb.pool.Exec(ctx, "SELECT pg_notify($1, $2)", channel, string(payload)); err != nil {
		return fmt.Errorf("publishing event on channel %s: %w", channel, err)
	}
	return nil
}

// Subscribe LISTENs on ch in the background and calls handler for every
// event. A dropped connection is re-established until Unsubscribe.
func (eb *EventBus) Subscribe(ctx context.Context, ch event.Channel, handler porteventbus.Handler) (porteventbus.Subscription, error) {
	conn, err := eb.listen(ctx, ch)
	if err != nil {
		return nil, err
	}

	subCtx, cancel := context.WithCancel(ctx)
	sub := &subscription{bus: eb, cancel: cancel, done: make(chan struct{})}

	eb.mu.Lock()
	eb.subs[sub] = struct{}{}
	eb.mu.Unlock()

	go func() {
		defer close(sub.done)
		for {
			eb.consume(subCtx, conn, handler)
			conn.Exec(context.Background(), "UNLISTEN "+channelName(ch)) //nolint:errcheck
			conn.Release()
			if subCtx.Err() != nil {
				return
			}

			slog.WarnContext(subCtx, "event bus connection lost, relistening", "channel", ch)
			for {
				select {
				case <-subCtx.Done():
					return
				case <-time.After(relistenDelay):
				}
				if conn, err = eb.listen(subCtx, ch); err == nil {
					break
				}
			}
		}
	}()

	return sub, nil
}

func (eb *EventBus) listen(ctx context.Context, ch event.Channel) (*pgxpool.Conn, error) {
	conn, err := eb.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquiring connection for LISTEN: %w", err)
	}
	channel := channelName(ch)
	if _, err := conn.Exec(ctx, "LISTEN "+channel); err != nil {
		conn.Release()
		return nil, fmt.Errorf("executing LISTEN on channel %s: %w", channel, err)
	}
	return conn, nil
}

// consume returns when ctx ends or the connection fails.
func (eb *EventBus) consume(ctx context.Context, conn *pgxpool.Conn, handler porteventbus.Handler) {
	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return
		}
		var e event.Event
		if err := json.Unmarshal([]byte(n.Payload), &e); err != nil {
			slog.WarnContext(ctx, "dropping malformed event", "channel", n.Channel, "error", err)
			continue
		}
		handler(ctx, e)
	}
}

// Close ends every live subscription.
func (eb *EventBus) Close() {
	eb.mu.Lock()
	subs := make([]*subscription, 0, len(eb.subs))
	for s := range eb.subs {
		subs = append(subs, s)
	}
	eb.mu.Unlock()

	for _, s := range subs {
		s.Unsubscribe()
	}
}

// channelName converts a domain Channel to a safe Postgres channel identifier.
func channelName(ch event.Channel) string {
	return "threadkeeper_" + string(ch)
}

type subscription struct {
	bus    *EventBus
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func (s *subscription) Unsubscribe() {
	s.once.Do(func() {
		s.cancel()
		<-s.done
		s.bus.mu.Lock()
		delete(s.bus.subs, s)
		s.bus.mu.Unlock()
	})
}
