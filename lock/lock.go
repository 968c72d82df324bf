/*
   Copyright 2025 The DIRPX Authors.

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

// Package lock provides the reader/writer region guard used by wrapper
// catalogs.
//
// A Lock is built once in one of two modes. In thread-safe mode it admits
// many readers or a single writer, in FIFO order, so a waiting writer is
// never starved by a stream of readers. In the other mode every
// acquisition returns a shared no-op Releaser and costs nothing; callers
// that choose it promise to use the guarded state from one goroutine.
//
// Acquisitions are not re-entrant. A goroutine that acquires a lock it
// already holds blocks forever, or until its timeout elapses, in which
// case it gets ErrTimeout.
package lock

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"dirpx.dev/dparts/apis"
)

// Infinite makes the timeout variants wait until the lock is acquired.
const Infinite = time.Duration(-1)

// maxReaders is the semaphore weight. A reader takes 1, a writer takes all.
const maxReaders int64 = 1 << 30

var (
	// ErrTimeout is returned when the lock could not be acquired in time.
	ErrTimeout = fmt.Errorf("dparts(lock): acquisition timed out: %w", apis.ErrTimeout)
	// ErrClosed is returned when acquiring a closed thread-safe lock.
	ErrClosed = fmt.Errorf("dparts(lock): lock closed: %w", apis.ErrDisposed)
)

// Releaser ends a held acquisition. Release is idempotent.
type Releaser interface {
	Release()
}

type noopReleaser struct{}

func (noopReleaser) Release() {}

// noop is handed out by locks that are not thread-safe.
var noop Releaser = noopReleaser{}

// releaser returns n units to sem exactly once.
type releaser struct {
	sem  *semaphore.Weighted
	n    int64
	done atomic.Bool
}

func (r *releaser) Release() {
	if r.done.CompareAndSwap(false, true) {
		r.sem.Release(r.n)
	}
}

// Lock is a toggleable reader/writer region guard.
type Lock struct {
	threadSafe bool
	sem        *semaphore.Weighted
	closed     atomic.Bool
}

// New returns a Lock. When threadSafe is false all acquisitions are no-ops.
func New(threadSafe bool) *Lock {
	l := &Lock{threadSafe: threadSafe}
	if threadSafe {
		l.sem = semaphore.NewWeighted(maxReaders)
	}
	return l
}

// ThreadSafe reports the mode chosen at construction.
func (l *Lock) ThreadSafe() bool {
	return l.threadSafe
}

// ReadLock acquires shared access, waiting until ctx is done.
func (l *Lock) ReadLock(ctx context.Context) (Releaser, error) {
	return l.acquire(ctx, 1)
}

// WriteLock acquires exclusive access, waiting until ctx is done.
func (l *Lock) WriteLock(ctx context.Context) (Releaser, error) {
	return l.acquire(ctx, maxReaders)
}

// ReadLockTimeout acquires shared access within d.
// A negative d waits forever and zero tries exactly once.
func (l *Lock) ReadLockTimeout(d time.Duration) (Releaser, error) {
	return l.acquireTimeout(d, 1)
}

// WriteLockTimeout acquires exclusive access within d.
// A negative d waits forever and zero tries exactly once.
func (l *Lock) WriteLockTimeout(d time.Duration) (Releaser, error) {
	return l.acquireTimeout(d, maxReaders)
}

// WithRead runs fn while holding shared access.
// The lock is released even if fn panics.
func (l *Lock) WithRead(ctx context.Context, fn func() error) error {
	r, err := l.ReadLock(ctx)
	if err != nil {
		return err
	}
	defer r.Release()
	return fn()
}

// WithWrite runs fn while holding exclusive access.
// The lock is released even if fn panics.
func (l *Lock) WithWrite(ctx context.Context, fn func() error) error {
	r, err := l.WriteLock(ctx)
	if err != nil {
		return err
	}
	defer r.Release()
	return fn()
}

// Close releases the lock. It is idempotent and always returns nil.
// Thread-safe acquisitions that start, or are admitted, after Close fail
// with ErrClosed. Acquisitions already held stay valid until released.
func (l *Lock) Close() error {
	l.closed.CompareAndSwap(false, true)
	return nil
}

// Closed reports whether Close has been called.
func (l *Lock) Closed() bool {
	return l.closed.Load()
}

func (l *Lock) acquireTimeout(d time.Duration, n int64) (Releaser, error) {
	if !l.threadSafe {
		return noop, nil
	}
	switch {
	case d < 0:
		return l.acquire(context.Background(), n)
	case d == 0:
		return l.try(n)
	default:
		ctx, cancel := context.WithTimeout(context.Background(), d)
		defer cancel()
		return l.acquire(ctx, n)
	}
}

func (l *Lock) acquire(ctx context.Context, n int64) (Releaser, error) {
	if !l.threadSafe {
		return noop, nil
	}
	if l.closed.Load() {
		return nil, ErrClosed
	}
	if err := l.sem.Acquire(ctx, n); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrTimeout
		}
		return nil, err
	}
	return l.admit(n)
}

func (l *Lock) try(n int64) (Releaser, error) {
	if l.closed.Load() {
		return nil, ErrClosed
	}
	if !l.sem.TryAcquire(n) {
		return nil, ErrTimeout
	}
	return l.admit(n)
}

// admit hands out a releaser for n acquired units, unless the lock was
// closed while the caller waited.
func (l *Lock) admit(n int64) (Releaser, error) {
	if l.closed.Load() {
		l.sem.Release(n)
		return nil, ErrClosed
	}
	return &releaser{sem: l.sem, n: n}, nil
}
