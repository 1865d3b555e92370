package dependency

import (
	"log/slog"
	"net/http"

	"github.com/openchatops/oco/internal/builtin"
	"github.com/openchatops/oco/internal/callback"
	"github.com/openchatops/oco/internal/channels"
	"github.com/openchatops/oco/internal/chat"
	"github.com/openchatops/oco/internal/config"
	"github.com/openchatops/oco/internal/logger"
	"github.com/openchatops/oco/internal/robot"
	"github.com/openchatops/oco/internal/room"
	"github.com/openchatops/oco/internal/schedule"
	"github.com/openchatops/oco/internal/storage"
)

// CallbackHTTPClient is the client used for remote callbacks and link
// previews. A named type lets dig tell it apart from other clients.
type CallbackHTTPClient struct{ *http.Client }

func newLogger(cfg *config.Config) (*slog.Logger, error) {
	l, err := logger.New(cfg.Logging)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(l)
	return l, nil
}

func newStorage(cfg *config.Config) (storage.Adapter, error) {
	return storage.Open(cfg.Storage.Driver, cfg.StoragePath())
}

func newChatAdapter(cfg *config.Config, l *slog.Logger) (chat.Adapter, error) {
	return channels.New(cfg.Chat, l)
}

func newCallbackHTTPClient(cfg *config.Config) CallbackHTTPClient {
	return CallbackHTTPClient{&http.Client{Timeout: cfg.Callbacks.HTTPTimeout.Std()}}
}

func newRegistry(cfg *config.Config, client CallbackHTTPClient) *callback.Registry {
	reg := callback.NewRegistry()
	opts := builtin.Options{
		HTTPClient:   client.Client,
		GreetMessage: cfg.Robot.GreetMessage,
	}
	if cfg.Robot.GreetRoom != "" {
		opts.GreetRoom = room.New(cfg.Robot.GreetRoom)
	}
	builtin.Register(reg, opts)
	return reg
}

func newResolver(reg *callback.Registry, client CallbackHTTPClient) *callback.Resolver {
	return callback.NewResolver(reg, callback.WithHTTPClient(client.Client))
}

func newRouteTable(cfg *config.Config, resolver *callback.Resolver) (*callback.Table, error) {
	t, err := config.BuildTable(cfg.Routes)
	if err != nil {
		return nil, err
	}
	if err := resolver.Check(t); err != nil {
		return nil, err
	}
	return t, nil
}

func newBrain(
	cfg *config.Config,
	l *slog.Logger,
	adapter chat.Adapter,
	store storage.Adapter,
	resolver *callback.Resolver,
	routes *callback.Table,
) (*robot.Brain, error) {
	return robot.New(adapter, store, resolver, routes,
		robot.WithName(cfg.Robot.Name),
		robot.WithLogger(l),
		robot.WithCallbackTimeout(cfg.Dispatch.CallbackTimeout.Std()),
		robot.WithConcurrency(cfg.Dispatch.Concurrency),
	)
}

func newScheduler(cfg *config.Config, l *slog.Logger, brain *robot.Brain) (*schedule.Service, error) {
	return schedule.NewService(cfg.SchedulePath(), brain.Emit, schedule.WithLogger(l))
}
