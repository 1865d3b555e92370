// Package dependency wires the robot's services using go.uber.org/dig.
package dependency

import (
	"log/slog"

	"go.uber.org/dig"

	"github.com/openchatops/oco/internal/callback"
	"github.com/openchatops/oco/internal/chat"
	"github.com/openchatops/oco/internal/config"
	"github.com/openchatops/oco/internal/robot"
	"github.com/openchatops/oco/internal/schedule"
	"github.com/openchatops/oco/internal/storage"
)

// Container holds the resolved service singletons.
// Callers use the typed getter methods; they never need to import dig directly.
type Container struct {
	cfg       *config.Config
	logger    *slog.Logger
	store     storage.Adapter
	adapter   chat.Adapter
	resolver  *callback.Resolver
	brain     *robot.Brain
	scheduler *schedule.Service
}

func (c *Container) Config() *config.Config       { return c.cfg }
func (c *Container) Logger() *slog.Logger         { return c.logger }
func (c *Container) Storage() storage.Adapter     { return c.store }
func (c *Container) Adapter() chat.Adapter        { return c.adapter }
func (c *Container) Resolver() *callback.Resolver { return c.resolver }
func (c *Container) Brain() *robot.Brain          { return c.brain }
func (c *Container) Scheduler() *schedule.Service { return c.scheduler }

// Close releases the storage backend.
func (c *Container) Close() error { return storage.Close(c.store) }

// Option overrides a service instead of building it from config.
type Option func(*overrides)

type overrides struct {
	adapter chat.Adapter
	logger  *slog.Logger
}

// WithAdapter uses a instead of the adapter named in the config.
func WithAdapter(a chat.Adapter) Option {
	return func(o *overrides) { o.adapter = a }
}

// WithLogger uses l instead of building a logger from the config.
func WithLogger(l *slog.Logger) Option {
	return func(o *overrides) { o.logger = l }
}

// New builds and wires all services from cfg.
func New(cfg *config.Config, opts ...Option) (*Container, error) {
	var o overrides
	for _, opt := range opts {
		opt(&o)
	}

	d := dig.New()
	provide := func(constructor interface{}) error { return d.Provide(constructor) }

	if err := provide(func() *config.Config { return cfg }); err != nil {
		return nil, err
	}
	if o.logger != nil {
		if err := provide(func() *slog.Logger { return o.logger }); err != nil {
			return nil, err
		}
	} else if err := provide(newLogger); err != nil {
		return nil, err
	}
	if o.adapter != nil {
		if err := provide(func() chat.Adapter { return o.adapter }); err != nil {
			return nil, err
		}
	} else if err := provide(newChatAdapter); err != nil {
		return nil, err
	}
	for _, constructor := range []interface{}{
		newStorage,
		newCallbackHTTPClient,
		newRegistry,
		newResolver,
		newRouteTable,
		newBrain,
		newScheduler,
	} {
		if err := provide(constructor); err != nil {
			return nil, err
		}
	}

	var result *Container
	err := d.Invoke(func(
		logger *slog.Logger,
		store storage.Adapter,
		adapter chat.Adapter,
		resolver *callback.Resolver,
		brain *robot.Brain,
		scheduler *schedule.Service,
	) {
		result = &Container{
			cfg:       cfg,
			logger:    logger,
			store:     store,
			adapter:   adapter,
			resolver:  resolver,
			brain:     brain,
			scheduler: scheduler,
		}
	})
	if err != nil {
		return nil, dig.RootCause(err)
	}
	return result, nil
}
