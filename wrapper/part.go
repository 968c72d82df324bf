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

package wrapper

import (
	"fmt"
	"io"
	"sync/atomic"

	"github.com/google/uuid"

	"dirpx.dev/dparts/apis"
	"dirpx.dev/dparts/metrics"
)

// ErrPartDisposed is returned by a Part used after Close.
var ErrPartDisposed = fmt.Errorf("dparts(wrapper): part disposed: %w", apis.ErrDisposed)

// Part forwards every call to an inner part until it is closed.
//
// Close disposes the inner part at most once and then drops the reference
// to it, so a disposed Part never keeps the instance reachable.
type Part struct {
	id    string
	inner atomic.Pointer[holder]
}

type holder struct {
	part apis.Part
}

var (
	_ apis.Part = (*Part)(nil)
	_ io.Closer = (*Part)(nil)
)

// NewPart wraps inner. It panics if inner is nil.
func NewPart(inner apis.Part) *Part {
	if inner == nil {
		panic(ErrNilPart)
	}
	p := &Part{id: uuid.NewString()}
	p.inner.Store(&holder{part: inner})
	return p
}

// ID returns a random identifier, stable for the life of the Part, used
// to correlate log entries.
func (p *Part) ID() string {
	return p.id
}

// Inner returns the wrapped part, or nil once disposed.
func (p *Part) Inner() apis.Part {
	if h := p.inner.Load(); h != nil {
		return h.part
	}
	return nil
}

// Disposed reports whether Close has been called.
func (p *Part) Disposed() bool {
	return p.inner.Load() == nil
}

// Close disposes the inner part if it implements io.Closer and releases
// it. Only the first call has effect; later calls return nil. Close is
// safe for concurrent use.
func (p *Part) Close() error {
	h := p.inner.Swap(nil)
	if h == nil {
		return nil
	}
	metrics.RecordPartDisposed()
	if c, ok := h.part.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// ExportDefinitions delegates to the inner part; nil once disposed.
func (p *Part) ExportDefinitions() []*apis.ExportDefinition {
	if in := p.Inner(); in != nil {
		return in.ExportDefinitions()
	}
	return nil
}

// ImportDefinitions delegates to the inner part; nil once disposed.
func (p *Part) ImportDefinitions() []*apis.ImportDefinition {
	if in := p.Inner(); in != nil {
		return in.ImportDefinitions()
	}
	return nil
}

// Metadata delegates to the inner part; nil once disposed.
func (p *Part) Metadata() apis.Metadata {
	if in := p.Inner(); in != nil {
		return in.Metadata()
	}
	return nil
}

// ExportedValue delegates to the inner part.
func (p *Part) ExportedValue(exp *apis.ExportDefinition) (any, error) {
	in := p.Inner()
	if in == nil {
		return nil, ErrPartDisposed
	}
	return in.ExportedValue(exp)
}

// SetImport delegates to the inner part.
func (p *Part) SetImport(imp *apis.ImportDefinition, values []any) error {
	in := p.Inner()
	if in == nil {
		return ErrPartDisposed
	}
	return in.SetImport(imp, values)
}

// Activate delegates to the inner part.
func (p *Part) Activate() error {
	in := p.Inner()
	if in == nil {
		return ErrPartDisposed
	}
	return in.Activate()
}
