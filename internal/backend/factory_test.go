package backend

import (
	"context"
	"path/filepath"
	"testing"

	"hotelpro/internal/config"
	"hotelpro/internal/core"
)

func TestBackendType_IsValid(t *testing.T) {
	tests := []struct {
		in   BackendType
		want bool
	}{
		{MemoryBackend, true},
		{SQLiteBackend, true},
		{AMQPBackend, true},
		{"sheets", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(string(tt.in), func(t *testing.T) {
			if got := tt.in.IsValid(); got != tt.want {
				t.Errorf("IsValid(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"memory", Config{Type: MemoryBackend}, false},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"amqp without url", Config{Type: AMQPBackend, AMQPExchange: "x", AMQPQueue: "q"}, true},
		{"amqp without queue", Config{Type: AMQPBackend, AMQPURL: "amqp://localhost/"}, true},
		{"unknown", Config{Type: "nope"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.config.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Error("expected error for nil config")
	}
	cfg, err := FromAppConfig(&config.Config{RemoteBackend: "sqlite", SQLiteDBPath: "x.db"})
	if err != nil {
		t.Fatalf("FromAppConfig: %v", err)
	}
	if cfg.Type != SQLiteBackend || cfg.SQLiteDBPath != "x.db" {
		t.Errorf("unexpected config %+v", cfg)
	}
	if _, err := FromAppConfig(&config.Config{RemoteBackend: "postgres"}); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestCreateBackend(t *testing.T) {
	ctx := context.Background()
	f := NewFactory(nil)

	for _, cfg := range []Config{
		{Type: MemoryBackend},
		{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(t.TempDir(), "remote.db")},
	} {
		t.Run(cfg.Type.String(), func(t *testing.T) {
			res, err := f.CreateBackend(ctx, cfg)
			if err != nil {
				t.Fatalf("CreateBackend: %v", err)
			}
			defer res.Close()

			if err := res.Store.Upsert(ctx, core.TableStaff, "s1", []byte(`{"id":"s1"}`)); err != nil {
				t.Fatalf("upsert: %v", err)
			}
			got, err := res.Reader.Get(ctx, core.TableStaff, "s1")
			if err != nil || string(got) != `{"id":"s1"}` {
				t.Fatalf("read back %s %v", got, err)
			}
		})
	}
}

func TestGetBackendTypeStrings(t *testing.T) {
	got := GetBackendTypeStrings()
	if len(got) != 3 || got[0] != "memory" {
		t.Errorf("unexpected backend types %v", got)
	}
}
