package policycache

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestStoreStorageRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	storage := NewStoreStorage[[]any, []any](store)

	stamp := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	key := []any{"user", 7}
	if err := storage.SetItem(ctx, key, []any{"a", true, nil}, Metadata{LastUpdatedAt: stamp}); err != nil {
		t.Fatalf("set item: %v", err)
	}
	item, ok, err := storage.GetItem(ctx, key)
	if err != nil || !ok {
		t.Fatalf("get item: ok=%v err=%v", ok, err)
	}
	if len(item.Value) != 3 || item.Value[0] != "a" || item.Value[1] != true || item.Value[2] != nil {
		t.Fatalf("unexpected value: %#v", item.Value)
	}
	if !item.Metadata.LastUpdatedAt.Equal(stamp) {
		t.Fatalf("unexpected metadata: %v", item.Metadata.LastUpdatedAt)
	}

	body, ok, _ := store.Get(ctx, `["user",7]`)
	if !ok || !strings.Contains(string(body), `"m":"pc1"`) {
		t.Fatalf("expected record under canonical key, got ok=%v body=%s", ok, body)
	}
	if storage.Store() != store {
		t.Fatalf("expected underlying store")
	}
}

func TestStoreStorageMiss(t *testing.T) {
	storage := NewStoreStorage[string, int](newMemoryStore())
	if _, ok, err := storage.GetItem(context.Background(), "missing"); err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}
}

func TestStoreStorageRejectsForeignRecords(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	storage := NewStoreStorage[string, string](store)

	_ = store.Set(ctx, `"garbage"`, []byte("not json"))
	if _, _, err := storage.GetItem(ctx, "garbage"); !errors.Is(err, ErrCorruptRecord) {
		t.Fatalf("expected ErrCorruptRecord for invalid json, got %v", err)
	}
	_ = store.Set(ctx, `"foreign"`, []byte(`{"value":"x"}`))
	if _, _, err := storage.GetItem(ctx, "foreign"); !errors.Is(err, ErrCorruptRecord) {
		t.Fatalf("expected ErrCorruptRecord for missing marker, got %v", err)
	}
}

func TestStoreStorageRawMessage(t *testing.T) {
	ctx := context.Background()
	storage := NewStoreStorage[string, json.RawMessage](newMemoryStore())
	if err := storage.SetItem(ctx, "k", json.RawMessage(`{"nested":[1,2]}`), Metadata{}); err != nil {
		t.Fatalf("set item: %v", err)
	}
	item, ok, err := storage.GetItem(ctx, "k")
	if err != nil || !ok || string(item.Value) != `{"nested":[1,2]}` {
		t.Fatalf("unexpected raw message: ok=%v err=%v value=%s", ok, err, item.Value)
	}
}

func TestStoreStorageEncodeError(t *testing.T) {
	storage := NewStoreStorage[string, map[string]any](newMemoryStore())
	err := storage.SetItem(context.Background(), "k", map[string]any{"ch": make(chan int)}, Metadata{})
	if err == nil || !strings.Contains(err.Error(), "encode stored record") {
		t.Fatalf("expected encode error, got %v", err)
	}
}

func TestStoreStorageKeyFunc(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	storage := NewStoreStorage[int, string](store, WithStorageKeyFunc[int, string](func(id int) (string, error) {
		if id < 0 {
			return "", errors.New("negative id")
		}
		return "user:" + strings.Repeat("x", id), nil
	}))

	if err := storage.SetItem(ctx, 2, "v", Metadata{}); err != nil {
		t.Fatalf("set item: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "user:xx"); !ok {
		t.Fatalf("expected custom store key")
	}
	if _, _, err := storage.GetItem(ctx, -1); err == nil {
		t.Fatalf("expected key func error on get")
	}
	if err := storage.SetItem(ctx, -1, "v", Metadata{}); err == nil {
		t.Fatalf("expected key func error on set")
	}
}

func TestStoreStorageThroughShapedEncryptedStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(ctx,
		WithCompression(CompressionSnappy),
		WithEncryptionKey([]byte("0123456789abcdef")),
	)
	storage := NewStoreStorage[string, string](store)
	if err := storage.SetItem(ctx, "k", strings.Repeat("payload", 50), Metadata{LastUpdatedAt: time.Unix(1, 0)}); err != nil {
		t.Fatalf("set item: %v", err)
	}
	item, ok, err := storage.GetItem(ctx, "k")
	if err != nil || !ok || item.Value != strings.Repeat("payload", 50) {
		t.Fatalf("unexpected round trip: ok=%v err=%v", ok, err)
	}
}
