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

// Package notify implements the per-catalog change-notification fan-out.
package notify

import (
	"fmt"
	"sync"

	"dirpx.dev/dparts/apis"
)

// ErrClosed is returned when subscribing to a closed Dispatcher.
var ErrClosed = fmt.Errorf("dparts(notify): dispatcher closed: %w", apis.ErrDisposed)

// Dispatcher maps each event kind to an ordered list of handlers.
// The zero value is ready to use; the map is created on first Subscribe.
type Dispatcher struct {
	mu     sync.Mutex
	subs   map[apis.EventKind][]*subscription
	closed bool
}

type subscription struct {
	h apis.ChangeHandler
}

// Ensure Dispatcher implements apis.Notifier.
var _ apis.Notifier = (*Dispatcher)(nil)

// Subscribe appends h to the handlers of kind.
func (d *Dispatcher) Subscribe(kind apis.EventKind, h apis.ChangeHandler) (func(), error) {
	if h == nil {
		return nil, fmt.Errorf("dparts(notify): nil handler: %w", apis.ErrInvalidArgument)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, ErrClosed
	}
	if d.subs == nil {
		d.subs = make(map[apis.EventKind][]*subscription)
	}
	s := &subscription{h: h}
	d.subs[kind] = append(d.subs[kind], s)

	var once sync.Once
	return func() {
		once.Do(func() { d.remove(kind, s) })
	}, nil
}

// Publish calls every handler of kind in subscription order.
// Handlers run on the caller's goroutine without the dispatcher lock held,
// so they may subscribe or unsubscribe.
func (d *Dispatcher) Publish(kind apis.EventKind, ev apis.ChangeEvent) {
	d.mu.Lock()
	subs := d.subs[kind]
	snapshot := make([]*subscription, len(subs))
	copy(snapshot, subs)
	d.mu.Unlock()

	for _, s := range snapshot {
		s.h(ev)
	}
}

// Len returns the number of handlers subscribed to kind.
func (d *Dispatcher) Len(kind apis.EventKind) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.subs[kind])
}

// Close drops every handler. Later Subscribe calls fail and later Publish
// calls do nothing. Close is idempotent.
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	d.subs = nil
	return nil
}

func (d *Dispatcher) remove(kind apis.EventKind, s *subscription) {
	d.mu.Lock()
	defer d.mu.Unlock()

	subs := d.subs[kind]
	for i, cur := range subs {
		if cur == s {
			// Copy instead of appending in place: Publish may hold the old slice.
			next := make([]*subscription, 0, len(subs)-1)
			next = append(next, subs[:i]...)
			next = append(next, subs[i+1:]...)
			d.subs[kind] = next
			return
		}
	}
}
