package robot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/openchatops/oco/internal/callback"
	"github.com/openchatops/oco/internal/chat"
	"github.com/openchatops/oco/internal/errs"
	"github.com/openchatops/oco/internal/event"
)

// HandleMessage dispatches msg to every chat route whose pattern matches its
// body, in registration order, and waits for all of them. A failing route is
// logged and does not keep later routes from running; the returned error
// joins every failure.
func (b *Brain) HandleMessage(ctx context.Context, msg chat.IncomingMessage) error {
	routes := b.Routes().MatchChat(msg.Body())
	if len(routes) == 0 {
		b.logger.Debug("no route matched", "body", msg.Preview())
		return nil
	}

	var failures []error
	for _, r := range routes {
		err := b.invoke(ctx, r.Address(), func(ctx context.Context) (callback.Replies, error) {
			cb, err := b.resolver.Chat(r.Address())
			if err != nil {
				return nil, err
			}
			return cb.HandleMessage(ctx, b.robot, msg)
		})
		if err != nil {
			b.logger.Warn("chat callback failed",
				"address", r.Address().String(), "pattern", r.Pattern(), "err", err)
			failures = append(failures, fmt.Errorf("%s: %w", r.Address(), err))
		}
	}
	return errors.Join(failures...)
}

// HandleEvent dispatches ev to the routes registered for exactly its name,
// in registration order. Failures are handled as in HandleMessage.
func (b *Brain) HandleEvent(ctx context.Context, ev event.Event) error {
	routes := b.Routes().EventRoutes(ev.Name)
	if len(routes) == 0 {
		b.logger.Debug("no route for event", "event", ev.Name)
		return nil
	}

	var failures []error
	for _, r := range routes {
		err := b.invoke(ctx, r.Address(), func(ctx context.Context) (callback.Replies, error) {
			cb, err := b.resolver.Event(r.Address())
			if err != nil {
				return nil, err
			}
			return cb.HandleEvent(ctx, b.robot, ev)
		})
		if err != nil {
			b.logger.Warn("event callback failed",
				"address", r.Address().String(), "event", ev.Name, "err", err)
			failures = append(failures, fmt.Errorf("%s: %w", r.Address(), err))
		}
	}
	return errors.Join(failures...)
}

// invoke runs one callback under the callback timeout and forwards each
// reply to the adapter as soon as it is produced.
func (b *Brain) invoke(ctx context.Context, addr callback.Address, call func(context.Context) (callback.Replies, error)) (err error) {
	if b.callbackTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.callbackTimeout)
		defer cancel()
	}
	defer func() {
		if p := recover(); p != nil {
			err = errs.Genericf("callback panicked: %v", p)
		}
	}()

	start := time.Now()
	replies, err := call(ctx)
	if err != nil {
		return err
	}
	if replies == nil {
		return nil
	}
	defer replies.Close()

	sent := 0
	var sendErr error
	for {
		msg, err := replies.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return errors.Join(err, sendErr)
		}
		if err := b.adapter.SendMessage(ctx, msg); err != nil {
			b.logger.Warn("send failed", "address", addr.String(), "body", msg.Preview(), "err", err)
			sendErr = errors.Join(sendErr, err)
			continue
		}
		sent++
	}
	b.logger.Debug("callback done", "address", addr.String(), "sent", sent, "elapsed", time.Since(start))
	return sendErr
}
