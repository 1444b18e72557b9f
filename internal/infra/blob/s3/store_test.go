package s3

import (
	"bytes"
	"context"
	"io"
	"testing"

	"communitycore/internal/infra/blob/core"
)

func TestS3StoreLifecycleAgainstMock(t *testing.T) {
	store := NewMockForTests()
	ctx := context.Background()

	if store.Driver() != core.DriverS3 {
		t.Fatalf("unexpected driver %s", store.Driver())
	}

	info, err := store.Put(ctx, "donations/d-1/a.jpg", bytes.NewReader([]byte("object-bytes")), core.PutOptions{ContentType: "image/jpeg"})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Key != "donations/d-1/a.jpg" || info.Size != 12 {
		t.Fatalf("unexpected info %+v", info)
	}

	if _, err := store.Put(ctx, "donations/d-1/a.jpg", bytes.NewReader(nil), core.PutOptions{}); err == nil {
		t.Fatal("expected duplicate key error")
	}

	head, err := store.Head(ctx, "donations/d-1/a.jpg")
	if err != nil {
		t.Fatalf("head: %v", err)
	}
	if head.ContentType != "image/jpeg" || head.ETag == "" {
		t.Fatalf("unexpected head %+v", head)
	}

	got, body, err := store.Get(ctx, "donations/d-1/a.jpg")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	data, err := io.ReadAll(body)
	_ = body.Close()
	if err != nil || string(data) != "object-bytes" {
		t.Fatalf("unexpected body %q (%v)", data, err)
	}
	if got.Size != 12 {
		t.Fatalf("unexpected size %d", got.Size)
	}

	if _, err := store.Head(ctx, "missing/key"); err == nil {
		t.Fatal("expected head miss")
	}

	existed, err := store.Delete(ctx, "donations/d-1/a.jpg")
	if err != nil || !existed {
		t.Fatalf("delete: existed=%v err=%v", existed, err)
	}
	if _, err := store.Head(ctx, "donations/d-1/a.jpg"); err == nil {
		t.Fatal("expected head miss after delete")
	}
}

func TestS3StoreList(t *testing.T) {
	store := NewMockForTests()
	ctx := context.Background()

	for _, key := range []string{"requests/r-1/a.png", "donations/d-1/b.png", "donations/d-2/c.png"} {
		if _, err := store.Put(ctx, key, bytes.NewReader([]byte("x")), core.PutOptions{}); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}

	infos, err := store.List(ctx, "donations/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 2 || infos[0].Key != "donations/d-1/b.png" || infos[1].Key != "donations/d-2/c.png" {
		t.Fatalf("unexpected listing %+v", infos)
	}
}

func TestS3StorePresignGetOnly(t *testing.T) {
	store := NewMockForTests()
	ctx := context.Background()

	url, err := store.PresignURL(ctx, "donations/d-1/a.jpg", core.SignedURLOptions{})
	if err != nil {
		t.Fatalf("presign: %v", err)
	}
	if url == "" {
		t.Fatal("expected signed url")
	}
	if _, err := store.PresignURL(ctx, "donations/d-1/a.jpg", core.SignedURLOptions{Method: "PUT"}); err != core.ErrUnsupported {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

func TestNewRequiresBucket(t *testing.T) {
	if _, err := New(context.Background(), Config{}); err == nil {
		t.Fatal("expected bucket required error")
	}
}

func TestOpenFromEnvRequiresBucket(t *testing.T) {
	t.Setenv("COMMUNITYCORE_BLOB_S3_BUCKET", "")
	if _, err := OpenFromEnv(context.Background()); err == nil {
		t.Fatal("expected missing bucket error")
	}
}
