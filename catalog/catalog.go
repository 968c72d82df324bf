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

// Package catalog implements the wrapper catalog: a decorator over any
// apis.Catalog that hands the host a cached wrapper for every inner part
// definition, so that disposable NonShared parts are instantiated behind a
// disposal-forwarding wrapper while every other part passes through.
//
// For a given Catalog and inner definition, LookupOrCreate always returns
// the same wrapper. Definitions are keyed by pointer identity.
package catalog

import (
	"errors"
	"fmt"
	"iter"
	"reflect"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"dirpx.dev/dparts/apis"
	"dirpx.dev/dparts/lock"
	"dirpx.dev/dparts/metrics"
	"dirpx.dev/dparts/notify"
	uref "dirpx.dev/dparts/utils/reflect"
	"dirpx.dev/dparts/wrapper"
)

var (
	// ErrNilCatalog is returned by New when the inner catalog is absent.
	ErrNilCatalog = fmt.Errorf("dparts(catalog): nil inner catalog: %w", apis.ErrInvalidArgument)
	// ErrNilDefinition is returned for a nil part definition.
	ErrNilDefinition = fmt.Errorf("dparts(catalog): nil part definition: %w", apis.ErrInvalidArgument)
	// ErrUnaddressableDefinition is returned for a definition that is not a
	// non-nil pointer and therefore has no identity to cache on.
	ErrUnaddressableDefinition = fmt.Errorf("dparts(catalog): part definition is not a pointer: %w", apis.ErrInvalidArgument)
	// ErrNilWrapper is returned when the wrapper factory produced nothing.
	ErrNilWrapper = fmt.Errorf("dparts(catalog): wrapper factory returned nil: %w", apis.ErrInvalidArgument)
	// ErrDisposed is returned by every operation after Close.
	ErrDisposed = fmt.Errorf("dparts(catalog): catalog disposed: %w", apis.ErrDisposed)
)

// Catalog is the wrapper catalog. It implements apis.Catalog and
// apis.Notifier and can replace its inner catalog anywhere.
type Catalog struct {
	inner apis.Catalog
	cfg   apis.Config
	opts  options
	log   *zap.Logger

	// lock guards cache and the disposed transition.
	lock     *lock.Lock
	cache    map[apis.PartDefinition]apis.PartDefinition
	disposed atomic.Bool

	events      notify.Dispatcher
	unsubscribe []func()
}

var (
	_ apis.Catalog  = (*Catalog)(nil)
	_ apis.Notifier = (*Catalog)(nil)
)

// New wraps inner. If inner implements apis.Notifier, its Changing and
// Changed notifications are re-raised to the subscribers of the returned
// catalog; otherwise nothing is forwarded.
func New(inner apis.Catalog, cfg apis.Config, opts ...Option) (*Catalog, error) {
	if isNil(inner) {
		return nil, ErrNilCatalog
	}

	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	c := &Catalog{
		inner: inner,
		cfg:   cfg,
		opts:  o,
		lock:  lock.New(cfg.ThreadSafe),
		cache: make(map[apis.PartDefinition]apis.PartDefinition),
	}
	c.log = o.logger.With(zap.String("catalog", c.String()))

	if n, ok := inner.(apis.Notifier); ok {
		for _, kind := range []apis.EventKind{apis.Changing, apis.Changed} {
			cancel, err := n.Subscribe(kind, func(ev apis.ChangeEvent) {
				c.events.Publish(kind, ev)
			})
			if err != nil {
				c.dropSubscriptions()
				return nil, fmt.Errorf("dparts(catalog): subscribe to inner %s: %w", kind, err)
			}
			c.unsubscribe = append(c.unsubscribe, cancel)
		}
	}

	c.log.Debug("wrapper catalog created",
		zap.Bool("threadSafe", cfg.ThreadSafe),
		zap.Bool("forwardsEvents", len(c.unsubscribe) > 0),
	)
	return c, nil
}

// Inner returns the decorated catalog.
func (c *Catalog) Inner() apis.Catalog {
	return c.inner
}

// Config returns the construction configuration.
func (c *Catalog) Config() apis.Config {
	return c.cfg
}

// ThreadSafe reports whether the cache is guarded by real locking.
func (c *Catalog) ThreadSafe() bool {
	return c.lock.ThreadSafe()
}

// Disposed reports whether Close has been called.
func (c *Catalog) Disposed() bool {
	return c.disposed.Load()
}

// Parts yields the inner catalog's current definitions, each replaced by
// its cached wrapper. An error on one item does not end the iteration,
// except for disposal, after which no further item could succeed.
func (c *Catalog) Parts() iter.Seq2[apis.PartDefinition, error] {
	return func(yield func(apis.PartDefinition, error) bool) {
		if c.disposed.Load() {
			yield(nil, ErrDisposed)
			return
		}
		for def, err := range c.inner.Parts() {
			if err == nil {
				def, err = c.LookupOrCreate(def)
			}
			if err != nil {
				c.log.Warn("part definition enumeration failed", zap.Error(err))
				if !yield(nil, err) || errors.Is(err, ErrDisposed) {
					return
				}
				continue
			}
			if !yield(def, nil) {
				return
			}
		}
	}
}

// Exports delegates matching to the inner catalog and replaces the
// definition of every match by its cached wrapper. Export definitions are
// passed through untouched.
func (c *Catalog) Exports(imp *apis.ImportDefinition) iter.Seq2[apis.Match, error] {
	return func(yield func(apis.Match, error) bool) {
		if c.disposed.Load() {
			yield(apis.Match{}, ErrDisposed)
			return
		}
		for m, err := range c.inner.Exports(imp) {
			var def apis.PartDefinition
			if err == nil {
				def, err = c.LookupOrCreate(m.Definition)
			}
			if err != nil {
				c.log.Warn("export enumeration failed", zap.Error(err))
				if !yield(apis.Match{}, err) || errors.Is(err, ErrDisposed) {
					return
				}
				continue
			}
			if !yield(apis.Match{Definition: def, Export: m.Export}, nil) {
				return
			}
		}
	}
}

// LookupOrCreate returns the wrapper cached for def, creating it on the
// first request.
//
// In thread-safe mode the cache is probed under the read lock; on a miss
// the write lock is taken and the cache probed again before the wrapper
// is built, so concurrent callers build it once. Lock timeouts surface as
// lock.ErrTimeout.
func (c *Catalog) LookupOrCreate(def apis.PartDefinition) (apis.PartDefinition, error) {
	if def == nil {
		return nil, ErrNilDefinition
	}
	if !uref.IsReference(def) {
		return nil, ErrUnaddressableDefinition
	}
	if c.disposed.Load() {
		return nil, ErrDisposed
	}

	if c.lock.ThreadSafe() {
		r, err := c.acquire(c.lock.ReadLockTimeout)
		if err != nil {
			return nil, err
		}
		w, ok := c.cache[def]
		disposed := c.disposed.Load()
		r.Release()

		if disposed {
			return nil, ErrDisposed
		}
		if ok {
			metrics.RecordLookup(metrics.LookupHit)
			return w, nil
		}
	}

	wl, err := c.acquire(c.lock.WriteLockTimeout)
	if err != nil {
		return nil, err
	}
	defer wl.Release()

	// Re-check: another goroutine may have won the race, or closed us.
	if c.disposed.Load() {
		return nil, ErrDisposed
	}
	if w, ok := c.cache[def]; ok {
		metrics.RecordLookup(metrics.LookupHit)
		return w, nil
	}
	metrics.RecordLookup(metrics.LookupMiss)

	w := c.CreateWrapper(def)
	if isNil(w) {
		return nil, ErrNilWrapper
	}
	c.cache[def] = w
	return w, nil
}

// CreateWrapper builds a wrapper for def without consulting the cache.
// A definition that already is a *wrapper.PartDefinition is returned as
// is, so wrapping never nests.
func (c *Catalog) CreateWrapper(def apis.PartDefinition) apis.PartDefinition {
	if w, ok := def.(*wrapper.PartDefinition); ok {
		return w
	}
	atRisk := c.opts.classify(def)
	w := c.opts.factory(def, atRisk)
	metrics.RecordWrapperCreated(atRisk)
	c.log.Debug("wrapper part definition created",
		zap.String("definition", display(def)),
		zap.Bool("atRisk", atRisk),
	)
	return w
}

// Len returns the number of cached wrappers. It fails with ErrDisposed
// once disposed and with lock.ErrTimeout when the read lock is not granted
// within the configured timeout.
func (c *Catalog) Len() (int, error) {
	if c.disposed.Load() {
		return 0, ErrDisposed
	}
	r, err := c.acquire(c.lock.ReadLockTimeout)
	if err != nil {
		return 0, err
	}
	defer r.Release()
	return len(c.cache), nil
}

// Subscribe registers h for notifications re-raised from the inner catalog.
func (c *Catalog) Subscribe(kind apis.EventKind, h apis.ChangeHandler) (func(), error) {
	if c.disposed.Load() {
		return nil, ErrDisposed
	}
	cancel, err := c.events.Subscribe(kind, h)
	if errors.Is(err, notify.ErrClosed) {
		return nil, ErrDisposed
	}
	return cancel, err
}

// Close disposes the catalog: the cache is cleared, inner notifications are
// unsubscribed, subscribers are dropped and the lock is released. Close is
// idempotent, safe for concurrent callers, and always returns nil. The
// inner catalog is not closed.
func (c *Catalog) Close() error {
	if c.disposed.Load() {
		return nil
	}

	wl, err := c.lock.WriteLockTimeout(lock.Infinite)
	if err != nil {
		// Only a concurrent Close can have closed the lock.
		return nil
	}

	won := c.disposed.CompareAndSwap(false, true)
	cached := 0
	if won {
		cached = len(c.cache)
		clear(c.cache)
		c.dropSubscriptions()
		_ = c.events.Close()
	}
	wl.Release()

	if won {
		_ = c.lock.Close()
		metrics.RecordCatalogDisposed()
		c.log.Info("wrapper catalog disposed", zap.Int("cachedDefinitions", cached))
	}
	return nil
}

// String returns the configured name, or a display name derived from the
// inner catalog.
func (c *Catalog) String() string {
	if c.cfg.Name != "" {
		return c.cfg.Name
	}
	return "catalog.Catalog (" + display(c.inner) + ")"
}

func (c *Catalog) dropSubscriptions() {
	for _, cancel := range c.unsubscribe {
		cancel()
	}
	c.unsubscribe = nil
}

// acquire runs a timed acquisition with the configured timeout and maps a
// closed lock to ErrDisposed.
func (c *Catalog) acquire(fn func(time.Duration) (lock.Releaser, error)) (lock.Releaser, error) {
	r, err := fn(c.cfg.LockTimeout)
	if errors.Is(err, lock.ErrClosed) {
		return nil, ErrDisposed
	}
	return r, err
}

func display(v any) string {
	if s, ok := v.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", v)
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
