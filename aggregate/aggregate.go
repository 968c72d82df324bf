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

// Package aggregate provides a mutable catalog composed of child catalogs.
//
// Adding or removing a child raises Changing before the change is applied
// and Changed after it, with the child's definitions as Added or Removed.
// Notifications raised by children implementing apis.Notifier are
// forwarded unchanged.
package aggregate

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"sync"

	"dirpx.dev/dparts/apis"
	"dirpx.dev/dparts/notify"
	uref "dirpx.dev/dparts/utils/reflect"
)

var (
	// ErrNilCatalog is returned when a nil child is added.
	ErrNilCatalog = fmt.Errorf("dparts(aggregate): nil catalog: %w", apis.ErrInvalidArgument)
	// ErrUnaddressableCatalog is returned when a child is not a non-nil
	// pointer. Children are identified by reference.
	ErrUnaddressableCatalog = fmt.Errorf("dparts(aggregate): catalog must be a non-nil pointer: %w", apis.ErrInvalidArgument)
	// ErrDuplicate is returned when a child is added twice.
	ErrDuplicate = fmt.Errorf("dparts(aggregate): catalog already added: %w", apis.ErrInvalidArgument)
	// ErrDisposed is returned by every operation after Close.
	ErrDisposed = fmt.Errorf("dparts(aggregate): catalog disposed: %w", apis.ErrDisposed)

	errNotChild = errors.New("dparts(aggregate): not a child")
)

type child struct {
	catalog apis.Catalog
	cancel  []func()
}

// Catalog is a notifying union of child catalogs. Children are identified
// by reference and must be pointers.
//
// Add and Remove are serialized: every Changing notification is followed
// by its Changed notification before the next mutation starts. Handlers
// must not call Add or Remove on the same aggregate.
type Catalog struct {
	edit     sync.Mutex
	mu       sync.RWMutex
	children []*child
	closed   bool

	events notify.Dispatcher
}

var (
	_ apis.Catalog  = (*Catalog)(nil)
	_ apis.Notifier = (*Catalog)(nil)
	_ io.Closer     = (*Catalog)(nil)
)

// New returns an aggregate of children. No notifications are raised for
// the initial children.
func New(children ...apis.Catalog) (*Catalog, error) {
	a := &Catalog{}
	for _, c := range children {
		if err := a.attach(c); err != nil {
			a.detachAll()
			return nil, err
		}
	}
	return a, nil
}

// Add appends c and raises Changing and Changed with c's definitions.
func (a *Catalog) Add(c apis.Catalog) error {
	if err := validate(c); err != nil {
		return err
	}

	a.edit.Lock()
	defer a.edit.Unlock()

	if err := a.check(c, false); err != nil {
		return err
	}

	ev := apis.ChangeEvent{Added: collect(c)}
	a.events.Publish(apis.Changing, ev)

	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return ErrDisposed
	}
	err := a.attachLocked(c)
	a.mu.Unlock()
	if err != nil {
		return err
	}

	a.events.Publish(apis.Changed, ev)
	return nil
}

// Remove detaches c and raises Changing and Changed with c's definitions.
// It reports whether c was a child.
func (a *Catalog) Remove(c apis.Catalog) (bool, error) {
	if err := validate(c); err != nil {
		return false, err
	}

	a.edit.Lock()
	defer a.edit.Unlock()

	if err := a.check(c, true); err != nil {
		if errors.Is(err, errNotChild) {
			return false, nil
		}
		return false, err
	}

	ev := apis.ChangeEvent{Removed: collect(c)}
	a.events.Publish(apis.Changing, ev)

	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return false, ErrDisposed
	}
	i := a.indexLocked(c)
	ch := a.children[i]
	a.children = append(a.children[:i:i], a.children[i+1:]...)
	a.mu.Unlock()

	for _, cancel := range ch.cancel {
		cancel()
	}
	a.events.Publish(apis.Changed, ev)
	return true, nil
}

// Catalogs returns a snapshot of the children.
func (a *Catalog) Catalogs() []apis.Catalog {
	out, _ := a.snapshot()
	return out
}

// Parts yields the definitions of every child, in child order.
func (a *Catalog) Parts() iter.Seq2[apis.PartDefinition, error] {
	return func(yield func(apis.PartDefinition, error) bool) {
		children, err := a.snapshot()
		if err != nil {
			yield(nil, err)
			return
		}
		for _, c := range children {
			for def, err := range c.Parts() {
				if !yield(def, err) {
					return
				}
			}
		}
	}
}

// Exports yields the matches of every child, in child order.
func (a *Catalog) Exports(imp *apis.ImportDefinition) iter.Seq2[apis.Match, error] {
	return func(yield func(apis.Match, error) bool) {
		children, err := a.snapshot()
		if err != nil {
			yield(apis.Match{}, err)
			return
		}
		for _, c := range children {
			for m, err := range c.Exports(imp) {
				if !yield(m, err) {
					return
				}
			}
		}
	}
}

// Subscribe registers h for kind.
func (a *Catalog) Subscribe(kind apis.EventKind, h apis.ChangeHandler) (func(), error) {
	cancel, err := a.events.Subscribe(kind, h)
	if errors.Is(err, notify.ErrClosed) {
		return nil, ErrDisposed
	}
	return cancel, err
}

// Close drops all subscriptions and closes children implementing
// io.Closer. The first child error is returned. Close is idempotent.
func (a *Catalog) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	children := a.children
	a.children = nil
	a.mu.Unlock()

	_ = a.events.Close()

	var errs []error
	for _, ch := range children {
		for _, cancel := range ch.cancel {
			cancel()
		}
		if cl, ok := ch.catalog.(io.Closer); ok {
			if err := cl.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// String returns "aggregate.Catalog".
func (a *Catalog) String() string {
	return "aggregate.Catalog"
}

func (a *Catalog) attach(c apis.Catalog) error {
	if err := validate(c); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.attachLocked(c)
}

func (a *Catalog) attachLocked(c apis.Catalog) error {
	if a.indexLocked(c) >= 0 {
		return ErrDuplicate
	}
	ch := &child{catalog: c}
	if n, ok := c.(apis.Notifier); ok {
		for _, kind := range []apis.EventKind{apis.Changing, apis.Changed} {
			cancel, err := n.Subscribe(kind, func(ev apis.ChangeEvent) {
				a.events.Publish(kind, ev)
			})
			if err != nil {
				for _, cc := range ch.cancel {
					cc()
				}
				return fmt.Errorf("dparts(aggregate): subscribe to child %s: %w", kind, err)
			}
			ch.cancel = append(ch.cancel, cancel)
		}
	}
	a.children = append(a.children, ch)
	return nil
}

func (a *Catalog) detachAll() {
	for _, ch := range a.children {
		for _, cancel := range ch.cancel {
			cancel()
		}
	}
	a.children = nil
}

// check validates c against the current state: present reports whether c
// is expected to be a child already.
func (a *Catalog) check(c apis.Catalog, present bool) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return ErrDisposed
	}
	found := a.indexLocked(c) >= 0
	switch {
	case found && !present:
		return ErrDuplicate
	case !found && present:
		return errNotChild
	}
	return nil
}

func validate(c apis.Catalog) error {
	if c == nil {
		return ErrNilCatalog
	}
	if !uref.IsReference(c) {
		return ErrUnaddressableCatalog
	}
	return nil
}

func (a *Catalog) indexLocked(c apis.Catalog) int {
	for i, ch := range a.children {
		if ch.catalog == c {
			return i
		}
	}
	return -1
}

func (a *Catalog) snapshot() ([]apis.Catalog, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return nil, ErrDisposed
	}
	out := make([]apis.Catalog, len(a.children))
	for i, ch := range a.children {
		out[i] = ch.catalog
	}
	return out, nil
}

func collect(c apis.Catalog) []apis.PartDefinition {
	var out []apis.PartDefinition
	for def, err := range c.Parts() {
		if err == nil && def != nil {
			out = append(out, def)
		}
	}
	return out
}
