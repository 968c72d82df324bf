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

// Package registry maps Go component types to explicit contract names.
//
// A typecatalog consults a Registry before deriving a contract name from
// the component type, so well-known components keep a stable contract
// even when their Go type is renamed or moved.
package registry

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"

	"dirpx.dev/dparts/apis"
	uref "dirpx.dev/dparts/utils/reflect"
)

var (
	// ErrNilType is returned when a nil reflect.Type is provided.
	ErrNilType = fmt.Errorf("dparts(registry): nil reflect.Type provided: %w", apis.ErrInvalidArgument)
	// ErrEmptyContract is returned when an empty contract name is provided.
	ErrEmptyContract = fmt.Errorf("dparts(registry): empty contract name provided: %w", apis.ErrInvalidArgument)
	// ErrConflictingRegistration indicates an attempt to re-register
	// a type under a different contract.
	ErrConflictingRegistration = fmt.Errorf("dparts(registry): conflicting type registration: %w", apis.ErrInvalidArgument)
)

// Entry is one registered mapping.
type Entry struct {
	Type     reflect.Type
	Contract string
}

// Registry is safe for concurrent use. The zero value is not usable; use New.
type Registry struct {
	// mu serializes writers and keeps count consistent with m.
	mu sync.Mutex
	// m holds a *sync.Map of reflect.Type to contract name. Reset swaps it.
	m     atomic.Pointer[sync.Map]
	count int
}

// New returns an empty Registry.
func New() *Registry {
	r := &Registry{}
	r.m.Store(&sync.Map{})
	return r
}

// Register associates the nearest named type of t with contract.
// It is idempotent for the same (type, contract) pair.
func (r *Registry) Register(t reflect.Type, contract string) error {
	if t == nil {
		return ErrNilType
	}
	if contract == "" {
		return ErrEmptyContract
	}

	b, err := uref.Normalize(t)
	if err != nil {
		return fmt.Errorf("dparts(registry): %w: %w", apis.ErrInvalidArgument, err)
	}

	// Fast path without the writer lock.
	if err := check(r.m.Load(), b, contract); err != errMissing {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	m := r.m.Load()
	if err := check(m, b, contract); err != errMissing {
		return err
	}
	m.Store(b, contract)
	r.count++
	return nil
}

// Lookup returns the contract registered for the nearest named type of t.
func (r *Registry) Lookup(t reflect.Type) (contract string, ok bool) {
	if t == nil {
		return "", false
	}
	nt, err := uref.Normalize(t)
	if err != nil {
		return "", false
	}
	if v, ok := r.m.Load().Load(nt); ok {
		return v.(string), true
	}
	return "", false
}

// ContractFor returns the registered contract of t, or its "pkg.Type" name.
func (r *Registry) ContractFor(t reflect.Type) string {
	if c, ok := r.Lookup(t); ok {
		return c
	}
	return uref.TypeName(t)
}

// Entries returns a snapshot in unspecified order.
func (r *Registry) Entries() []Entry {
	entries := make([]Entry, 0, r.Count())
	r.m.Load().Range(func(key, value any) bool {
		entries = append(entries, Entry{
			Type:     key.(reflect.Type),
			Contract: value.(string),
		})
		return true
	})
	return entries
}

// Count returns the number of registered entries.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// Reset clears all registered entries.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m.Store(&sync.Map{})
	r.count = 0
}

// errMissing is the check result for an unregistered type.
var errMissing = errors.New("dparts(registry): not registered")

func check(m *sync.Map, t reflect.Type, contract string) error {
	old, ok := m.Load(t)
	switch {
	case !ok:
		return errMissing
	case old.(string) == contract:
		return nil
	default:
		return ErrConflictingRegistration
	}
}
