// Package config defines the configuration schema for oco.
//
// Keys are camelCase in both JSON and YAML files.
package config

import (
	"time"

	"github.com/openchatops/oco/internal/config/channel"
)

// RobotConfig names the robot and its greeting.
type RobotConfig struct {
	Name         string `json:"name" yaml:"name"`
	GreetRoom    string `json:"greetRoom,omitempty" yaml:"greetRoom,omitempty"`
	GreetMessage string `json:"greetMessage,omitempty" yaml:"greetMessage,omitempty"`
}

// StorageConfig selects the storage driver.
type StorageConfig struct {
	Driver string `json:"driver" yaml:"driver"` // memory | file | sqlite | sqlite3
	Path   string `json:"path,omitempty" yaml:"path,omitempty"`
}

// DispatchConfig tunes the dispatcher.
type DispatchConfig struct {
	CallbackTimeout Duration `json:"callbackTimeout" yaml:"callbackTimeout"`
	Concurrency     int      `json:"concurrency" yaml:"concurrency"`
}

// ChatRouteConfig declares one chat route.
type ChatRouteConfig struct {
	Pattern string `json:"pattern" yaml:"pattern"`
	Address string `json:"address" yaml:"address"`
}

// EventRouteConfig declares one event route.
type EventRouteConfig struct {
	Event   string `json:"event" yaml:"event"`
	Address string `json:"address" yaml:"address"`
}

// RoutesConfig lists routes in registration order.
type RoutesConfig struct {
	Chat   []ChatRouteConfig  `json:"chat" yaml:"chat"`
	Events []EventRouteConfig `json:"events" yaml:"events"`
}

// ScheduleConfig configures the event scheduler.
type ScheduleConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Path    string `json:"path,omitempty" yaml:"path,omitempty"` // jobs file; defaults under DataDir
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	Level  string `json:"level" yaml:"level"`   // debug | info | warn | error
	Format string `json:"format" yaml:"format"` // text | json
}

// CallbacksConfig configures how remote callbacks are reached.
type CallbacksConfig struct {
	HTTPTimeout Duration `json:"httpTimeout" yaml:"httpTimeout"`
}

// Config is the root configuration object.
type Config struct {
	Robot     RobotConfig        `json:"robot" yaml:"robot"`
	Chat      channel.ChatConfig `json:"chat" yaml:"chat"`
	Storage   StorageConfig      `json:"storage" yaml:"storage"`
	Dispatch  DispatchConfig     `json:"dispatch" yaml:"dispatch"`
	Callbacks CallbacksConfig    `json:"callbacks" yaml:"callbacks"`
	Routes    RoutesConfig       `json:"routes" yaml:"routes"`
	Schedule  ScheduleConfig     `json:"schedule" yaml:"schedule"`
	Logging   LoggingConfig      `json:"logging" yaml:"logging"`
}

// DefaultConfig returns a Config populated with defaults: the shell adapter,
// memory storage and routes for the builtin callbacks.
func DefaultConfig() Config {
	return Config{
		Robot:   RobotConfig{Name: "oco"},
		Chat:    channel.DefaultChatConfig(),
		Storage: StorageConfig{Driver: "memory"},
		Dispatch: DispatchConfig{
			CallbackTimeout: Duration(30 * time.Second),
			Concurrency:     1,
		},
		Callbacks: CallbacksConfig{HTTPTimeout: Duration(15 * time.Second)},
		Routes:    DefaultRoutes(),
		Schedule:  ScheduleConfig{Enabled: true},
		Logging:   LoggingConfig{Level: "info", Format: "text"},
	}
}

// DefaultRoutes routes to the builtin callbacks.
func DefaultRoutes() RoutesConfig {
	return RoutesConfig{
		Chat: []ChatRouteConfig{
			{Pattern: `^ping$`, Address: "local://ping"},
			{Pattern: `^echo\s`, Address: "local://echo"},
			{Pattern: `^remember\s`, Address: "local://remember"},
			{Pattern: `^recall\s`, Address: "local://recall"},
			{Pattern: `^topic\s`, Address: "local://topic"},
			{Pattern: `^join\s`, Address: "local://join"},
			{Pattern: `^part\b`, Address: "local://part"},
			{Pattern: `https?://`, Address: "local://link"},
		},
		Events: []EventRouteConfig{
			{Event: "startup", Address: "local://greet"},
			{Event: "announce", Address: "local://announce"},
		},
	}
}
