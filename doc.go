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

// Package dparts makes component catalogs safe for disposable parts that
// are created anew on every request.
//
// A host composes parts from a catalog of part definitions. It disposes
// the parts it shares, but a part created with the NonShared policy is
// handed out and forgotten: if the part holds a resource (a connection,
// a file, a subscription) nothing closes it, and the host keeps it
// reachable for as long as the container lives.
//
// dparts puts a wrapper catalog between the host and its catalog. The
// wrapper catalog exposes the same definitions, but every definition is
// replaced by a cached wrapper. A wrapper whose inner definition is at
// risk (disposable and NonShared) instantiates parts behind a
// disposal-forwarding wrapper part; every other definition passes its
// instances through untouched.
//
// # Packages
//
//   - apis: the catalog, part definition and part contracts, the creation
//     policy enum, configuration and the error taxonomy.
//
//   - catalog: the wrapper catalog itself. Lookups are cached by
//     definition identity, so the host sees the same wrapper for the same
//     inner definition for the life of the catalog.
//
//   - wrapper: the wrapper part definition and the wrapper part.
//
//   - lock: the reader/writer region guard used by the catalog, with
//     bounded waits and a no-op mode for single-goroutine use.
//
//   - notify: the per-catalog event dispatcher that re-raises the inner
//     catalog's change notifications.
//
//   - typecatalog, aggregate, manifest: inner catalogs built from Go
//     types, from other catalogs and from YAML documents.
//
//   - metrics: prometheus collectors for wrapper creation, cache lookups
//     and disposal.
//
// # Usage
//
//	inner := typecatalog.New(
//		typecatalog.Register(newConn, typecatalog.WithPolicy(apis.NonShared)),
//	)
//	c, err := dparts.Wrap(inner, true)
//	if err != nil {
//		return err
//	}
//	defer c.Close()
//
//	for def, err := range c.Parts() {
//		if err != nil {
//			continue
//		}
//		p, _ := def.CreatePart()
//		defer dparts.DisposePart(p)
//	}
//
// # Concurrency model
//
// In thread-safe mode cache reads share a read lock and construction takes
// the write lock after a second probe, so a wrapper is built once even
// under contention. The lock is not re-entrant: a classifier or wrapper
// factory that calls back into its catalog deadlocks, or times out when a
// lock timeout is configured.
//
// Disposing the catalog clears the cache and stops event forwarding. It
// does not dispose parts already handed out; those are owned by whoever
// holds them. Every later call fails with apis.ErrDisposed.
package dparts
