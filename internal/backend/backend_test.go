package backend

import (
	"context"
	"path/filepath"
	"testing"

	"debtpayoff/internal/config"
	"debtpayoff/internal/debts"
)

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Error("expected error for nil config")
	}
	if _, err := FromAppConfig(&config.Config{DataBackend: "sheets"}); err == nil {
		t.Error("expected error for unknown backend")
	}

	cfg, err := FromAppConfig(&config.Config{
		DataBackend:  "sqlite",
		SQLiteDBPath: "/tmp/x.db",
		AMQPURL:      "amqp://localhost/",
		AMQPExchange: "ex",
		AMQPQueue:    "q",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Type != SQLiteBackend || cfg.SQLiteDBPath != "/tmp/x.db" || cfg.AMQPQueue != "q" {
		t.Errorf("unexpected backend config: %+v", cfg)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"demo", Config{Type: DemoBackend}, false},
		{"sqlite", Config{Type: SQLiteBackend, SQLiteDBPath: "x.db"}, false},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"unknown", Config{Type: "memory"}, true},
		{"amqp without queue", Config{Type: SQLiteBackend, SQLiteDBPath: "x.db", AMQPURL: "amqp://localhost/", AMQPExchange: "ex"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.config.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateDemoBackend(t *testing.T) {
	ctx := context.Background()
	res, err := NewFactory(nil).CreateBackend(ctx, Config{Type: DemoBackend})
	if err != nil {
		t.Fatalf("CreateBackend: %v", err)
	}
	if res.Events != nil {
		t.Error("demo backend should not publish events")
	}
	if _, ok := res.Store.(debts.Resetter); !ok {
		t.Error("demo store should support reset")
	}
	if err := res.Ready(ctx); err != nil {
		t.Errorf("demo backend should be ready: %v", err)
	}
}

func TestCreateSQLiteBackend(t *testing.T) {
	ctx := context.Background()
	res, err := NewFactory(nil).CreateBackend(ctx, Config{
		Type:         SQLiteBackend,
		SQLiteDBPath: filepath.Join(t.TempDir(), "debts.db"),
	})
	if err != nil {
		t.Fatalf("CreateBackend: %v", err)
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			t.Errorf("cleanup: %v", err)
		}
	}()

	if _, ok := res.Store.(debts.Resetter); ok {
		t.Error("sqlite store must not support reset")
	}
	if err := res.Ready(ctx); err != nil {
		t.Errorf("sqlite backend should be ready: %v", err)
	}
	list, err := res.Store.ListDebts(ctx)
	if err != nil || len(list) != 0 {
		t.Errorf("expected empty database, got %d debts, err=%v", len(list), err)
	}
}

func TestEventsEnabled(t *testing.T) {
	amqpURL := "amqp://localhost/"
	if (Config{Type: DemoBackend, AMQPURL: amqpURL}).EventsEnabled() {
		t.Error("demo backend must not publish events")
	}
	if (Config{Type: SQLiteBackend}).EventsEnabled() {
		t.Error("events need an AMQP url")
	}
	if !(Config{Type: SQLiteBackend, AMQPURL: amqpURL}).EventsEnabled() {
		t.Error("sqlite with AMQP should publish events")
	}
}
