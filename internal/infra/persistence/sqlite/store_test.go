package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"communitycore/pkg/domain"
)

func TestSQLiteStorePersistAndReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.db")
	store, err := NewStore(path, domain.NewRulesEngine())
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	ctx := context.Background()

	var donationID string
	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		if _, err := tx.CreateUser(domain.User{Name: "Persist", Email: "persist@example.org"}); err != nil {
			return err
		}
		d, err := tx.CreateDonation(domain.Donation{DonorID: "u-1", Type: "goods", Title: "Chairs"})
		if err != nil {
			return err
		}
		donationID = d.ID
		return nil
	}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reloaded, err := NewStore(path, domain.NewRulesEngine())
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	t.Cleanup(func() { _ = reloaded.Close() })

	donation, ok := reloaded.GetDonation(donationID)
	if !ok {
		t.Fatal("expected donation after reload")
	}
	if donation.Title != "Chairs" {
		t.Fatalf("unexpected donation after reload: %+v", donation)
	}
	if _, ok := reloaded.GetUserByEmail("persist@example.org"); !ok {
		t.Fatal("expected user after reload")
	}
	// The derived feed item survives the snapshot round trip too.
	if got := len(reloaded.ListActivityFeed(0)); got != 1 {
		t.Fatalf("expected 1 feed item after reload, got %d", got)
	}
}

func TestSQLiteStoreUpsertsAllBuckets(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "state.db"), domain.NewRulesEngine())
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	if _, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.CreateUser(domain.User{Name: "Buckets", Email: "buckets@example.org"})
		return err
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	var count int
	if err := store.DB().QueryRow(`SELECT COUNT(*) FROM state`).Scan(&count); err != nil {
		t.Fatalf("count state rows: %v", err)
	}
	if count != len(bucketOrder) {
		t.Fatalf("expected %d bucket rows, got %d", len(bucketOrder), count)
	}
}

func TestSQLiteStoreFailsOnCorruptSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	if _, err := db.Exec(`CREATE TABLE state (bucket TEXT PRIMARY KEY, payload BLOB NOT NULL)`); err != nil {
		t.Fatalf("create table: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO state(bucket,payload) VALUES('users','not-json')`); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if _, err := NewStore(path, domain.NewRulesEngine()); err == nil {
		t.Fatal("expected corrupt snapshot to fail the open")
	}
}

func TestSQLiteStoreFailedTransactionDoesNotPersist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	store, err := NewStore(path, domain.NewRulesEngine())
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}

	if _, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		if _, err := tx.CreateUser(domain.User{Name: "Ghost", Email: "ghost@example.org"}); err != nil {
			return err
		}
		return context.Canceled
	}); err == nil {
		t.Fatal("expected transaction error")
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reloaded, err := NewStore(path, domain.NewRulesEngine())
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	t.Cleanup(func() { _ = reloaded.Close() })
	if _, ok := reloaded.GetUserByEmail("ghost@example.org"); ok {
		t.Fatal("failed transaction must not reach disk")
	}
}
