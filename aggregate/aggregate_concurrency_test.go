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

package aggregate_test

import (
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dirpx.dev/dparts/aggregate"
	"dirpx.dev/dparts/apis"
	"dirpx.dev/dparts/typecatalog"
)

func TestConcurrentAddSameChild_EventsStayPaired(t *testing.T) {
	a, err := aggregate.New()
	require.NoError(t, err)

	var changing, changed atomic.Int64
	_, err = a.Subscribe(apis.Changing, func(apis.ChangeEvent) { changing.Add(1) })
	require.NoError(t, err)
	_, err = a.Subscribe(apis.Changed, func(apis.ChangeEvent) { changed.Add(1) })
	require.NoError(t, err)

	child := typecatalog.New(typecatalog.Register(func() (*service, error) { return &service{}, nil }))

	var wg sync.WaitGroup
	var added, duplicates atomic.Int64
	workers := runtime.GOMAXPROCS(0) * 4
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			switch err := a.Add(child); {
			case err == nil:
				added.Add(1)
			case errors.Is(err, aggregate.ErrDuplicate):
				duplicates.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), added.Load())
	assert.Equal(t, int64(workers-1), duplicates.Load())
	assert.Equal(t, int64(1), changing.Load())
	assert.Equal(t, int64(1), changed.Load())
	assert.Len(t, a.Catalogs(), 1)
}

func TestConcurrentAddRemove_EventsStayPaired(t *testing.T) {
	a, err := aggregate.New()
	require.NoError(t, err)

	// pending is 1 between a Changing and its Changed.
	var pending, unpaired atomic.Int64
	_, err = a.Subscribe(apis.Changing, func(apis.ChangeEvent) {
		if pending.Add(1) != 1 {
			unpaired.Add(1)
		}
	})
	require.NoError(t, err)
	_, err = a.Subscribe(apis.Changed, func(apis.ChangeEvent) {
		if pending.Add(-1) != 0 {
			unpaired.Add(1)
		}
	})
	require.NoError(t, err)

	children := make([]*typecatalog.Catalog, 4)
	for i := range children {
		children[i] = typecatalog.New()
	}

	var wg sync.WaitGroup
	workers := runtime.GOMAXPROCS(0) * 4
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(id int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				c := children[(i+id)%len(children)]
				if err := a.Add(c); err != nil && !errors.Is(err, aggregate.ErrDuplicate) {
					t.Errorf("add: %v", err)
					return
				}
				if _, err := a.Remove(c); err != nil {
					t.Errorf("remove: %v", err)
					return
				}
			}
		}(w)
	}
	wg.Wait()

	assert.Zero(t, unpaired.Load())
	assert.Zero(t, pending.Load())
}
