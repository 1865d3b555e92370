// Package robot runs a chat robot: it owns one chat adapter and one storage
// adapter, pulls incoming messages and emitted events, and dispatches them
// to the callbacks of its route table.
package robot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/openchatops/oco/internal/bus"
	"github.com/openchatops/oco/internal/callback"
	"github.com/openchatops/oco/internal/chat"
	"github.com/openchatops/oco/internal/errs"
	"github.com/openchatops/oco/internal/event"
	"github.com/openchatops/oco/internal/room"
	"github.com/openchatops/oco/internal/storage"
)

const (
	DefaultName            = "oco"
	DefaultCallbackTimeout = 30 * time.Second
)

// Brain is the robot runtime. Create it with New, register routes through
// the Table passed in, then call Run.
type Brain struct {
	name     string
	adapter  chat.Adapter
	storage  storage.Adapter
	resolver *callback.Resolver
	routes   atomic.Pointer[callback.Table]
	events   *bus.EventBus
	logger   *slog.Logger

	callbackTimeout time.Duration
	concurrency     int

	robot *Robot
}

// Option customises a Brain.
type Option func(*Brain)

func WithName(name string) Option {
	return func(b *Brain) { b.name = name }
}

func WithLogger(l *slog.Logger) Option {
	return func(b *Brain) { b.logger = l }
}

// WithCallbackTimeout bounds each callback invocation, including draining
// its replies. Zero disables the bound.
func WithCallbackTimeout(d time.Duration) Option {
	return func(b *Brain) { b.callbackTimeout = d }
}

// WithConcurrency sets how many incoming messages are dispatched in
// parallel. Routes of a single message always run one after another.
func WithConcurrency(n int) Option {
	return func(b *Brain) { b.concurrency = n }
}

func WithEventBus(eb *bus.EventBus) Option {
	return func(b *Brain) { b.events = eb }
}

// New creates a Brain. The brain keeps adapter and store for its whole
// lifetime. A nil routes table starts empty.
func New(adapter chat.Adapter, store storage.Adapter, resolver *callback.Resolver, routes *callback.Table, opts ...Option) (*Brain, error) {
	if adapter == nil {
		return nil, fmt.Errorf("robot: nil chat adapter")
	}
	if store == nil {
		return nil, fmt.Errorf("robot: nil storage adapter")
	}
	if resolver == nil {
		resolver = callback.NewResolver(nil)
	}
	if routes == nil {
		routes = callback.NewTable()
	}

	b := &Brain{
		name:            DefaultName,
		adapter:         adapter,
		storage:         store,
		resolver:        resolver,
		callbackTimeout: DefaultCallbackTimeout,
		concurrency:     1,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}
	b.logger = b.logger.With("component", "robot", "robot", b.name)
	if b.events == nil {
		b.events = bus.NewEventBus(bus.DefaultBufferSize)
	}
	if b.concurrency < 1 {
		b.concurrency = 1
	}
	b.routes.Store(routes)
	b.robot = &Robot{brain: b}
	return b, nil
}

func (b *Brain) Name() string                 { return b.name }
func (b *Brain) Adapter() chat.Adapter        { return b.adapter }
func (b *Brain) Storage() storage.Adapter     { return b.storage }
func (b *Brain) Resolver() *callback.Resolver { return b.resolver }
func (b *Brain) Logger() *slog.Logger         { return b.logger }

// Robot returns the handle given to callbacks.
func (b *Brain) Robot() *Robot { return b.robot }

// Routes returns the route table currently in use.
func (b *Brain) Routes() *callback.Table { return b.routes.Load() }

// ReplaceRoutes swaps in t once every address in it resolves. Dispatches
// already in progress finish against the previous table.
func (b *Brain) ReplaceRoutes(t *callback.Table) error {
	if t == nil {
		return fmt.Errorf("robot: nil route table")
	}
	if err := b.resolver.Check(t); err != nil {
		return fmt.Errorf("replace routes: %w", err)
	}
	b.routes.Store(t)
	chatN, eventN := t.Len()
	b.logger.Info("routes replaced", "chat", chatN, "events", eventN)
	return nil
}

// SendMessage, SetTopic, Join and Part pass straight through to the chat
// adapter and return its result unchanged.

func (b *Brain) SendMessage(ctx context.Context, msg chat.OutgoingMessage) error {
	return b.adapter.SendMessage(ctx, msg)
}

func (b *Brain) SetTopic(ctx context.Context, r room.Room, topic string) error {
	return b.adapter.SetTopic(ctx, r, topic)
}

func (b *Brain) Join(ctx context.Context, r room.Room) error {
	return b.adapter.Join(ctx, r)
}

func (b *Brain) Part(ctx context.Context, r room.Room) error {
	return b.adapter.Part(ctx, r)
}

// Emit queues ev for the dispatch loop.
func (b *Brain) Emit(ctx context.Context, ev event.Event) error {
	if ev.Name == "" {
		return errs.Generic("emit: empty event name")
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	return b.events.Publish(ctx, ev)
}

// Run emits the startup event, then dispatches incoming messages and
// emitted events until ctx is cancelled or the adapter's stream ends.
//
// A clean end of the stream or a cancelled ctx returns nil. Any other
// stream error is fatal and returned. In-flight dispatches are awaited
// before Run returns.
func (b *Brain) Run(ctx context.Context) error {
	incoming, err := b.adapter.Run(ctx)
	if err != nil {
		return fmt.Errorf("start %s adapter: %w", b.adapter.Name(), err)
	}
	defer b.events.Close()

	chatN, eventN := b.Routes().Len()
	b.logger.Info("robot started", "adapter", b.adapter.Name(), "chatRoutes", chatN, "eventRoutes", eventN)

	stopEvents := make(chan struct{})
	eventsDone := make(chan struct{})
	go func() {
		defer close(eventsDone)
		b.dispatchEvents(ctx, stopEvents)
	}()

	_ = b.HandleEvent(ctx, event.New(event.Startup, nil))

	pumpCtx, stopPump := context.WithCancel(ctx)
	msgs := make(chan chat.IncomingMessage)
	pumpErr := make(chan error, 1)
	pumpDone := make(chan struct{})
	go func() {
		defer close(pumpDone)
		for {
			msg, err := incoming.Next(pumpCtx)
			if err != nil {
				pumpErr <- err
				return
			}
			select {
			case msgs <- msg:
			case <-pumpCtx.Done():
				return
			}
		}
	}()

	var g errgroup.Group
	g.SetLimit(b.concurrency)

	runErr := b.loop(ctx, &g, msgs, pumpErr)

	stopPump()
	_ = incoming.Close()
	<-pumpDone
	// Emits from callbacks still running fail with bus.ErrClosed from here on.
	b.events.Close()
	close(stopEvents)
	<-eventsDone
	_ = g.Wait()

	if runErr != nil {
		b.logger.Error("robot stopped", "err", runErr)
		return runErr
	}
	b.logger.Info("robot stopped")
	return nil
}

func (b *Brain) loop(ctx context.Context, g *errgroup.Group, msgs <-chan chat.IncomingMessage, pumpErr <-chan error) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-pumpErr:
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("%s adapter: %w", b.adapter.Name(), err)
		case msg := <-msgs:
			g.Go(func() error {
				_ = b.HandleMessage(ctx, msg)
				return nil
			})
		}
	}
}

// dispatchEvents drains the event bus into a local queue and hands queued
// events, in emit order, to an errgroup of their own. Draining never waits
// for a dispatch slot, so a callback may emit any number of events. It
// returns once stop is closed and event dispatches in flight have finished.
func (b *Brain) dispatchEvents(ctx context.Context, stop <-chan struct{}) {
	var g errgroup.Group
	g.SetLimit(b.concurrency)

	ready := make(chan event.Event)
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		for {
			select {
			case <-stop:
				return
			case ev := <-ready:
				g.Go(func() error {
					_ = b.HandleEvent(ctx, ev)
					return nil
				})
			}
		}
	}()

	var queue []event.Event
	for {
		var out chan<- event.Event
		var next event.Event
		if len(queue) > 0 {
			out, next = ready, queue[0]
		}
		select {
		case <-stop:
			if n := len(queue); n > 0 {
				b.logger.Warn("dropping queued events", "count", n)
			}
			<-workerDone
			_ = g.Wait()
			return
		case ev := <-b.events.Events():
			queue = append(queue, ev)
		case out <- next:
			queue[0] = event.Event{}
			queue = queue[1:]
		}
	}
}
