package policycache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goforj/policycache/cachetest"
	"github.com/nats-io/nats.go"
)

func TestNATSStoreContractWithStub(t *testing.T) {
	cachetest.RunStoreContract(t, newNATSStore(newStubNATSKeyValue("bucket"), "pfx"), cachetest.Options{})
}

func TestNATSStoreNilKeyValueErrors(t *testing.T) {
	ctx := context.Background()
	store := newNATSStore(nil, "")
	if _, _, err := store.Get(ctx, "k"); !errors.Is(err, errNATSUnavailable) {
		t.Fatalf("expected get error when kv is nil, got %v", err)
	}
	if err := store.Set(ctx, "k", []byte("v")); err == nil {
		t.Fatalf("expected set error when kv is nil")
	}
	if err := store.Delete(ctx, "k"); err == nil {
		t.Fatalf("expected delete error when kv is nil")
	}
	if err := store.DeleteMany(ctx, "a"); err == nil {
		t.Fatalf("expected delete many error when kv is nil")
	}
	if err := store.Flush(ctx); err == nil {
		t.Fatalf("expected flush error when kv is nil")
	}
}

func TestNATSStoreEncodesKeys(t *testing.T) {
	ctx := context.Background()
	kv := newStubNATSKeyValue("bucket")
	store := newNATSStore(kv, "pfx")

	key := `["user",42]`
	if err := store.Set(ctx, key, []byte("v")); err != nil {
		t.Fatalf("set: %v", err)
	}
	want := "p." + encodeNATSKeyPart("pfx") + ".k." + encodeNATSKeyPart(key)
	if _, ok := kv.entries[want]; !ok {
		t.Fatalf("expected bucket key %q, got %v", want, kv.entries)
	}
	if encodeNATSKeyPart("") != "_" {
		t.Fatalf("expected placeholder for empty part")
	}
}

func TestNATSStoreTreatsDeletedAsMiss(t *testing.T) {
	ctx := context.Background()
	kv := newStubNATSKeyValue("bucket")
	store := newNATSStore(kv, "pfx")
	_ = store.Set(ctx, "k", []byte("v"))
	_ = store.Delete(ctx, "k")
	if _, ok, err := store.Get(ctx, "k"); err != nil || ok {
		t.Fatalf("expected deleted key to miss, got ok=%v err=%v", ok, err)
	}
	// Deleting an absent key is not an error.
	if err := store.Delete(ctx, "never"); err != nil {
		t.Fatalf("delete missing: %v", err)
	}
}

func TestNATSStoreFlushRespectsPrefix(t *testing.T) {
	ctx := context.Background()
	kv := newStubNATSKeyValue("bucket")
	mine := newNATSStore(kv, "mine")
	theirs := newNATSStore(kv, "theirs")
	_ = mine.Set(ctx, "a", []byte("1"))
	_ = theirs.Set(ctx, "a", []byte("2"))

	if err := mine.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if _, ok, _ := mine.Get(ctx, "a"); ok {
		t.Fatalf("expected own key flushed")
	}
	if body, ok, _ := theirs.Get(ctx, "a"); !ok || string(body) != "2" {
		t.Fatalf("expected other prefix untouched, got ok=%v body=%q", ok, body)
	}
}

func TestNATSStoreFlushEmptyBucket(t *testing.T) {
	kv := newStubNATSKeyValue("bucket")
	kv.listErr = nats.ErrNoKeysFound
	if err := newNATSStore(kv, "pfx").Flush(context.Background()); err != nil {
		t.Fatalf("expected empty bucket flush to succeed: %v", err)
	}
}

func TestNATSStoreErrorPropagation(t *testing.T) {
	ctx := context.Background()

	kv := newStubNATSKeyValue("bucket")
	kv.getErr = errors.New("get")
	if _, _, err := newNATSStore(kv, "pfx").Get(ctx, "k"); err == nil {
		t.Fatalf("expected get error")
	}

	kv = newStubNATSKeyValue("bucket")
	kv.putErr = errors.New("put")
	if err := newNATSStore(kv, "pfx").Set(ctx, "k", []byte("v")); err == nil {
		t.Fatalf("expected put error")
	}

	kv = newStubNATSKeyValue("bucket")
	kv.deleteErr = errors.New("delete")
	if err := newNATSStore(kv, "pfx").DeleteMany(ctx, "a", "b"); err == nil {
		t.Fatalf("expected delete error")
	}

	kv = newStubNATSKeyValue("bucket")
	kv.listErr = errors.New("list")
	if err := newNATSStore(kv, "pfx").Flush(ctx); err == nil {
		t.Fatalf("expected list error")
	}

	kv = newStubNATSKeyValue("bucket")
	store := newNATSStore(kv, "pfx")
	_ = store.Set(ctx, "a", []byte("1"))
	kv.purgeErr = errors.New("purge")
	if err := store.Flush(ctx); err == nil {
		t.Fatalf("expected purge error")
	}
}

type stubNATSKeyValue struct {
	bucket string
	rev    uint64

	entries map[string]*stubNATSKeyValueEntry

	getErr    error
	putErr    error
	deleteErr error
	purgeErr  error
	listErr   error
}

func newStubNATSKeyValue(bucket string) *stubNATSKeyValue {
	return &stubNATSKeyValue{
		bucket:  bucket,
		entries: make(map[string]*stubNATSKeyValueEntry),
	}
}

func (s *stubNATSKeyValue) Get(key string) (nats.KeyValueEntry, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	entry, ok := s.entries[key]
	if !ok {
		return nil, nats.ErrKeyNotFound
	}
	if entry.op == nats.KeyValueDelete || entry.op == nats.KeyValuePurge {
		return nil, nats.ErrKeyDeleted
	}
	return entry.clone(), nil
}

func (s *stubNATSKeyValue) Put(key string, value []byte) (uint64, error) {
	if s.putErr != nil {
		return 0, s.putErr
	}
	s.rev++
	s.entries[key] = &stubNATSKeyValueEntry{
		bucket:   s.bucket,
		key:      key,
		value:    cloneBytes(value),
		revision: s.rev,
		created:  time.Now(),
		op:       nats.KeyValuePut,
	}
	return s.rev, nil
}

func (s *stubNATSKeyValue) Delete(key string, _ ...nats.DeleteOpt) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.rev++
	s.entries[key] = &stubNATSKeyValueEntry{
		bucket:   s.bucket,
		key:      key,
		revision: s.rev,
		created:  time.Now(),
		op:       nats.KeyValueDelete,
	}
	return nil
}

func (s *stubNATSKeyValue) Purge(key string, _ ...nats.DeleteOpt) error {
	if s.purgeErr != nil {
		return s.purgeErr
	}
	delete(s.entries, key)
	return nil
}

func (s *stubNATSKeyValue) ListKeys(_ ...nats.WatchOpt) (nats.KeyLister, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	keys := make([]string, 0, len(s.entries))
	for key, entry := range s.entries {
		if entry.op != nats.KeyValuePut {
			continue
		}
		keys = append(keys, key)
	}
	return newStubNATSKeyLister(keys), nil
}

type stubNATSKeyValueEntry struct {
	bucket   string
	key      string
	value    []byte
	revision uint64
	created  time.Time
	delta    uint64
	op       nats.KeyValueOp
}

func (e *stubNATSKeyValueEntry) clone() *stubNATSKeyValueEntry {
	cp := *e
	cp.value = cloneBytes(e.value)
	return &cp
}

func (e *stubNATSKeyValueEntry) Bucket() string             { return e.bucket }
func (e *stubNATSKeyValueEntry) Key() string                { return e.key }
func (e *stubNATSKeyValueEntry) Value() []byte              { return cloneBytes(e.value) }
func (e *stubNATSKeyValueEntry) Revision() uint64           { return e.revision }
func (e *stubNATSKeyValueEntry) Created() time.Time         { return e.created }
func (e *stubNATSKeyValueEntry) Delta() uint64              { return e.delta }
func (e *stubNATSKeyValueEntry) Operation() nats.KeyValueOp { return e.op }

type stubNATSKeyLister struct {
	keysCh chan string
	errCh  chan error
}

func newStubNATSKeyLister(keys []string) *stubNATSKeyLister {
	keysCh := make(chan string, len(keys))
	errCh := make(chan error)
	for _, key := range keys {
		keysCh <- key
	}
	close(keysCh)
	close(errCh)
	return &stubNATSKeyLister{keysCh: keysCh, errCh: errCh}
}

func (l *stubNATSKeyLister) Keys() <-chan string { return l.keysCh }
func (l *stubNATSKeyLister) Error() <-chan error { return l.errCh }
func (l *stubNATSKeyLister) Stop() error         { return nil }
