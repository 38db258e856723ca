package backend

import (
	"errors"
	"fmt"

	"debtpayoff/internal/config"
)

// FromAppConfig picks the data source settings out of the application config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}

	cfg := Config{
		Type:         BackendType(appConfig.DataBackend),
		SQLiteDBPath: appConfig.SQLiteDBPath,
		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every problem with the backend settings at once
func (c Config) Validate() error {
	var errs []error
	if !c.Type.IsValid() {
		errs = append(errs, fmt.Errorf("invalid backend type %q: must be %q or %q", c.Type, DemoBackend, SQLiteBackend))
	}
	if c.Type == SQLiteBackend && c.SQLiteDBPath == "" {
		errs = append(errs, errors.New("SQLite database path is required for sqlite backend"))
	}
	if c.AMQPURL != "" && (c.AMQPExchange == "" || c.AMQPQueue == "") {
		errs = append(errs, errors.New("AMQP exchange and queue are required when AMQP is enabled"))
	}
	return errors.Join(errs...)
}

// EventsEnabled reports whether debt changes are published over AMQP. The
// demo source lives in a single process, so it never publishes.
func (c Config) EventsEnabled() bool {
	return c.Type == SQLiteBackend && c.AMQPURL != ""
}
