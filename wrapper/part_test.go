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

package wrapper_test

import (
	"runtime"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"dirpx.dev/dparts/apis"
	"dirpx.dev/dparts/wrapper"
)

func TestNewPart_PanicsOnNil(t *testing.T) {
	assert.PanicsWithValue(t, wrapper.ErrNilPart, func() { wrapper.NewPart(nil) })
}

func TestPart_Delegates(t *testing.T) {
	exp := &apis.ExportDefinition{ContractName: "svc"}
	imp := &apis.ImportDefinition{ContractName: "dep", Cardinality: apis.ZeroOrMore}
	inner := &fakePart{
		exports: []*apis.ExportDefinition{exp},
		imports: []*apis.ImportDefinition{imp},
		md:      apis.Metadata{"k": 1},
		value:   "hello",
	}
	p := wrapper.NewPart(inner)

	assert.NotEmpty(t, p.ID())
	assert.Equal(t, []*apis.ExportDefinition{exp}, p.ExportDefinitions())
	assert.Equal(t, []*apis.ImportDefinition{imp}, p.ImportDefinitions())
	assert.Equal(t, apis.Metadata{"k": 1}, p.Metadata())

	v, err := p.ExportedValue(exp)
	require.NoError(t, err)
	assert.Equal(t, "hello", v)

	require.NoError(t, p.SetImport(imp, []any{1, 2}))
	require.NoError(t, p.Activate())
	if diff := cmp.Diff([][]any{{1, 2}}, inner.set); diff != "" {
		t.Errorf("imports mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, int32(1), inner.activated.Load())
}

func TestPart_CloseDisposesOnce(t *testing.T) {
	inner := &closingPart{err: errBoom}
	p := wrapper.NewPart(inner)

	require.ErrorIs(t, p.Close(), errBoom)
	require.NoError(t, p.Close())
	assert.Equal(t, int32(1), inner.closes.Load())
	assert.True(t, p.Disposed())
	assert.Nil(t, p.Inner())
}

func TestPart_CloseNonCloser(t *testing.T) {
	p := wrapper.NewPart(&fakePart{})
	require.NoError(t, p.Close())
	assert.True(t, p.Disposed())
}

func TestPart_AfterClose(t *testing.T) {
	p := wrapper.NewPart(&fakePart{md: apis.Metadata{"k": 1}})
	require.NoError(t, p.Close())

	assert.Nil(t, p.ExportDefinitions())
	assert.Nil(t, p.ImportDefinitions())
	assert.Nil(t, p.Metadata())

	_, err := p.ExportedValue(nil)
	require.ErrorIs(t, err, wrapper.ErrPartDisposed)
	require.ErrorIs(t, err, apis.ErrDisposed)
	require.ErrorIs(t, p.SetImport(nil, nil), wrapper.ErrPartDisposed)
	require.ErrorIs(t, p.Activate(), wrapper.ErrPartDisposed)
}

func TestPart_IDsAreDistinct(t *testing.T) {
	a := wrapper.NewPart(&fakePart{})
	b := wrapper.NewPart(&fakePart{})
	assert.NotEqual(t, a.ID(), b.ID())
}

func TestPart_ConcurrentClose(t *testing.T) {
	inner := &closingPart{}
	p := wrapper.NewPart(inner)

	var errs atomic.Int32
	var g errgroup.Group
	for i := 0; i < runtime.GOMAXPROCS(0)*4; i++ {
		g.Go(func() error {
			if p.Close() != nil {
				errs.Add(1)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, int32(1), inner.closes.Load())
	assert.Zero(t, errs.Load())
}
