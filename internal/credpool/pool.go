// Package credpool rotates through a pool of rate-limited API credentials.
// A credential that hits its upstream quota is marked exhausted and skipped;
// exhaustion is sticky for the process lifetime.
package credpool

import (
	"errors"
	"sync"
	"time"
)

var (
	// ErrExhausted is returned when every credential in the pool has been
	// marked exhausted, or the pool was constructed empty.
	ErrExhausted = errors.New("credential pool exhausted")

	// ErrQuotaExceeded is the signal callers wrap when the upstream reports
	// a quota or rate limit failure for the credential in use. Do reacts to
	// it by rotating once.
	ErrQuotaExceeded = errors.New("credential quota exceeded")
)

type credential struct {
	key        string
	exhausted  bool
	lastUsedAt time.Time
}

// Pool owns an ordered set of credentials and a rotation cursor. It is safe
// for concurrent use; Acquire and MarkExhausted read-then-write shared state
// and hold the mutex for the full operation.
type Pool struct {
	mu     sync.Mutex
	creds  []*credential
	cursor int
}

func New(keys []string) *Pool {
	creds := make([]*credential, 0, len(keys))
	for _, k := range keys {
		if k == "" {
			continue
		}
		creds = append(creds, &credential{key: k})
	}
	return &Pool{creds: creds}
}

// Acquire returns the first available credential starting from the rotation
// cursor, scanning the full pool length with wrap-around. The cursor advances
// past the returned credential so consecutive calls spread load.
func (p *Pool) Acquire() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := len(p.creds)
	for i := 0; i < n; i++ {
		idx := (p.cursor + i) % n
		c := p.creds[idx]
		if c.exhausted {
			continue
		}
		c.lastUsedAt = time.Now()
		p.cursor = (idx + 1) % n
		return c.key, nil
	}
	return "", ErrExhausted
}

// MarkExhausted transitions the credential with the given key to exhausted.
// Marking an already-exhausted or unknown key is a no-op.
func (p *Pool) MarkExhausted(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, c := range p.creds {
		if c.key == key {
			c.exhausted = true
			return
		}
	}
}

// Size returns the number of credentials the pool was built with.
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.creds)
}

// Available returns the number of credentials not yet exhausted.
func (p *Pool) Available() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := 0
	for _, c := range p.creds {
		if !c.exhausted {
			n++
		}
	}
	return n
}

// Do runs fn with an acquired credential. If fn fails with ErrQuotaExceeded
// (wrapped or bare), the credential is marked exhausted and the same logical
// call is retried exactly once with the next available credential. A second
// quota failure after rotation surfaces as ErrExhausted rather than looping.
func (p *Pool) Do(fn func(key string) error) error {
	key, err := p.Acquire()
	if err != nil {
		return err
	}

	err = fn(key)
	if err == nil || !errors.Is(err, ErrQuotaExceeded) {
		return err
	}
	p.MarkExhausted(key)

	key, aerr := p.Acquire()
	if aerr != nil {
		return ErrExhausted
	}

	err = fn(key)
	if err != nil && errors.Is(err, ErrQuotaExceeded) {
		p.MarkExhausted(key)
		return ErrExhausted
	}
	return err
}
