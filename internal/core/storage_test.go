package core_test

import (
	"path/filepath"
	"testing"

	"communitycore/internal/core"
	"communitycore/internal/infra/persistence/memory"
	"communitycore/internal/infra/persistence/sqlite"
	"communitycore/pkg/domain"
)

func TestOpenPersistentStoreMemory(t *testing.T) {
	t.Setenv("COMMUNITYCORE_STORAGE_DRIVER", "memory")

	store, err := core.OpenPersistentStore(domain.NewRulesEngine())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, ok := store.(*memory.Store); !ok {
		t.Fatalf("expected memory store, got %T", store)
	}
}

func TestOpenPersistentStoreSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "core.db")
	t.Setenv("COMMUNITYCORE_STORAGE_DRIVER", "sqlite")
	t.Setenv("COMMUNITYCORE_SQLITE_PATH", path)

	store, err := core.OpenPersistentStore(domain.NewRulesEngine())
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	s, ok := store.(*sqlite.Store)
	if !ok {
		t.Fatalf("expected sqlite store, got %T", store)
	}
	t.Cleanup(func() { _ = s.Close() })
	if s.Path() != path {
		t.Fatalf("unexpected sqlite path %s", s.Path())
	}
}

func TestOpenPersistentStoreUnknownDriver(t *testing.T) {
	t.Setenv("COMMUNITYCORE_STORAGE_DRIVER", "cassandra")

	if _, err := core.OpenPersistentStore(nil); err == nil {
		t.Fatal("expected unknown driver error")
	}
}
