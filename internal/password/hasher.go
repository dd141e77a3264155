// Package password hashes and verifies user passwords with bcrypt. The
// work runs on a small fixed pool of goroutines so a burst of logins or
// registrations cannot monopolize every scheduler thread with hashing.
package password

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// ErrHashFormat reports a stored hash that bcrypt cannot parse. Verify
// returns it only for corrupted records, never for a wrong password.
var ErrHashFormat = errors.New("malformed password hash")

// cost is the bcrypt work factor applied to all new hashes. It is fixed
// in code; deployments size throughput with HASH_WORKERS instead.
const cost = bcrypt.DefaultCost

// Hasher owns the worker pool. One process-wide instance is created at
// startup and injected into every service that touches passwords.
type Hasher struct {
	jobs      chan func()
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewHasher starts a pool with the given number of workers.
func NewHasher(workers int) *Hasher {
	if workers < 1 {
		workers = 1
	}
	h := &Hasher{jobs: make(chan func())}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go h.worker()
	}
	return h
}

func (h *Hasher) worker() {
	defer h.wg.Done()
	for job := range h.jobs {
		job()
	}
}

// Hash derives a salted hash of plaintext on the pool. It blocks until a
// worker picks the job up or ctx is done.
func (h *Hasher) Hash(ctx context.Context, plaintext string) (string, error) {
	type result struct {
		hash string
		err  error
	}
	// Buffered so a caller that gave up on ctx never blocks the worker.
	done := make(chan result, 1)
	job := func() {
		b, err := bcrypt.GenerateFromPassword([]byte(plaintext), cost)
		done <- result{hash: string(b), err: err}
	}

	select {
	case h.jobs <- job:
	case <-ctx.Done():
		return "", ctx.Err()
	}

	select {
	case r := <-done:
		return r.hash, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Verify compares plaintext against a stored hash on the pool. A wrong
// password yields (false, nil); ErrHashFormat means the stored hash itself
// is unusable.
func (h *Hasher) Verify(ctx context.Context, plaintext, hash string) (bool, error) {
	done := make(chan error, 1)
	job := func() {
		done <- bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	}

	select {
	case h.jobs <- job:
	case <-ctx.Done():
		return false, ctx.Err()
	}

	select {
	case err := <-done:
		switch {
		case err == nil:
			return true, nil
		case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
			return false, nil
		default:
			return false, fmt.Errorf("%w: %v", ErrHashFormat, err)
		}
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// Close stops the workers after in-flight jobs finish. Hash and Verify
// must not be called afterwards.
func (h *Hasher) Close() {
	h.closeOnce.Do(func() { close(h.jobs) })
	h.wg.Wait()
}
