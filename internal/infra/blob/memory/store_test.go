package memory_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"communitycore/internal/infra/blob/core"
	"communitycore/internal/infra/blob/memory"
)

func TestMemoryBlobStoreLifecycle(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	if store.Driver() != core.DriverMemory {
		t.Fatalf("unexpected driver %s", store.Driver())
	}

	info, err := store.Put(ctx, "donations/d-1/a.jpg", bytes.NewReader([]byte("payload")), core.PutOptions{
		ContentType: "image/jpeg",
		Metadata:    map[string]string{"source": "upload"},
	})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Size != 7 || info.ContentType != "image/jpeg" {
		t.Fatalf("unexpected info %+v", info)
	}
	if info.ETag == "" {
		t.Fatal("expected content etag")
	}

	if _, err := store.Put(ctx, "  ", bytes.NewReader(nil), core.PutOptions{}); err == nil {
		t.Fatal("expected blank key rejection")
	}

	// Create-only semantics.
	if _, err := store.Put(ctx, "donations/d-1/a.jpg", bytes.NewReader(nil), core.PutOptions{}); err == nil {
		t.Fatal("expected duplicate key error")
	}

	got, body, err := store.Get(ctx, "donations/d-1/a.jpg")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer func() { _ = body.Close() }()
	data, err := io.ReadAll(body)
	if err != nil || string(data) != "payload" {
		t.Fatalf("unexpected body %q (%v)", data, err)
	}
	if got.Metadata["source"] != "upload" {
		t.Fatalf("unexpected metadata %v", got.Metadata)
	}

	head, err := store.Head(ctx, "donations/d-1/a.jpg")
	if err != nil || head.Size != 7 {
		t.Fatalf("head: %+v (%v)", head, err)
	}

	if _, err := store.PresignURL(ctx, "donations/d-1/a.jpg", core.SignedURLOptions{}); !errors.Is(err, core.ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}

	existed, err := store.Delete(ctx, "donations/d-1/a.jpg")
	if err != nil || !existed {
		t.Fatalf("delete: existed=%v err=%v", existed, err)
	}
	existed, err = store.Delete(ctx, "donations/d-1/a.jpg")
	if err != nil || existed {
		t.Fatalf("second delete should report missing, existed=%v err=%v", existed, err)
	}
	if _, err := store.Head(ctx, "donations/d-1/a.jpg"); err == nil {
		t.Fatal("expected head miss after delete")
	}
}

func TestMemoryBlobStoreListByPrefix(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	for _, key := range []string{"requests/r-1/b.png", "donations/d-1/a.png", "donations/d-2/c.png"} {
		if _, err := store.Put(ctx, key, bytes.NewReader([]byte("x")), core.PutOptions{}); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}

	infos, err := store.List(ctx, "donations/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 2 || infos[0].Key != "donations/d-1/a.png" || infos[1].Key != "donations/d-2/c.png" {
		t.Fatalf("unexpected listing %+v", infos)
	}

	all, err := store.List(ctx, "")
	if err != nil || len(all) != 3 {
		t.Fatalf("expected full listing, got %d (%v)", len(all), err)
	}
}
