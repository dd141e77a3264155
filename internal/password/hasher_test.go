package password

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
)

func newTestHasher(t *testing.T, workers int) *Hasher {
	t.Helper()
	h := NewHasher(workers)
	t.Cleanup(h.Close)
	return h
}

func TestHashAndVerify_Roundtrip(t *testing.T) {
	h := newTestHasher(t, 2)
	ctx := context.Background()

	hash, err := h.Hash(ctx, "correct horse battery staple")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if hash == "" || hash == "correct horse battery staple" {
		t.Fatalf("Hash() returned unusable hash %q", hash)
	}

	ok, err := h.Verify(ctx, "correct horse battery staple", hash)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if !ok {
		t.Error("Verify() = false for the original password")
	}
}

func TestVerify_WrongPassword(t *testing.T) {
	h := newTestHasher(t, 1)
	ctx := context.Background()

	hash, err := h.Hash(ctx, "password123")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	ok, err := h.Verify(ctx, "password124", hash)
	if err != nil {
		t.Fatalf("Verify() error = %v, want nil for a plain mismatch", err)
	}
	if ok {
		t.Error("Verify() = true for the wrong password")
	}
}

func TestVerify_MalformedHash(t *testing.T) {
	h := newTestHasher(t, 1)
	ctx := context.Background()

	tests := []struct {
		name string
		hash string
	}{
		{"empty", ""},
		{"not a hash", "definitely-not-bcrypt"},
		{"truncated", "$2a$10$abc"},
		{"wrong prefix", "$9z$10$" + strings.Repeat("a", 53)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.Verify(ctx, "whatever", tt.hash)
			if !errors.Is(err, ErrHashFormat) {
				t.Errorf("Verify() error = %v, want ErrHashFormat", err)
			}
		})
	}
}

func TestHash_DistinctSalts(t *testing.T) {
	h := newTestHasher(t, 2)
	ctx := context.Background()

	first, err := h.Hash(ctx, "same password")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	second, err := h.Hash(ctx, "same password")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if first == second {
		t.Error("two hashes of the same password are identical; salt is not random")
	}
}

func TestHasher_ConcurrentCallers(t *testing.T) {
	h := newTestHasher(t, 2)
	ctx := context.Background()

	hash, err := h.Hash(ctx, "shared secret")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := h.Verify(ctx, "shared secret", hash)
			if err != nil {
				errs <- err
				return
			}
			if !ok {
				errs <- errors.New("verify returned false")
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("concurrent Verify: %v", err)
	}
}

func TestHash_ContextCanceledWhileQueued(t *testing.T) {
	h := NewHasher(1)

	// Occupy the only worker so the next job cannot be handed off.
	release := make(chan struct{})
	h.jobs <- func() { <-release }

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.Hash(ctx, "queued forever")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Hash() error = %v, want context.Canceled", err)
	}

	close(release)
	h.Close()
}

func TestClose_Idempotent(t *testing.T) {
	h := NewHasher(1)
	h.Close()
	h.Close()
}
