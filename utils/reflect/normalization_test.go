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

package reflect_test

import (
	"io"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	uref "dirpx.dev/dparts/utils/reflect"
)

// Local test types.
type A struct{}
type G[T any] struct{}
type closer struct{}

func (*closer) Close() error { return nil }

type valueCloser struct{}

func (valueCloser) Close() error { return nil }

func TestNormalize_BasicContainers(t *testing.T) {
	cases := []struct {
		name string
		typ  reflect.Type
		want reflect.Type
	}{
		{"plain", reflect.TypeOf(A{}), reflect.TypeOf(A{})},
		{"ptr", reflect.TypeOf(&A{}), reflect.TypeOf(A{})},
		{"slice", reflect.TypeOf([]A{}), reflect.TypeOf(A{})},
		{"array", reflect.TypeOf([2]A{}), reflect.TypeOf(A{})},
		{"chan", reflect.TypeOf((chan A)(nil)), reflect.TypeOf(A{})},
		{"map prefers elem", reflect.TypeOf(map[string]A{}), reflect.TypeOf(A{})},
		{"map falls back to key", reflect.TypeOf(map[A][]struct{}{}), reflect.TypeOf(A{})},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := uref.Normalize(tc.typ)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNormalize_Errors(t *testing.T) {
	_, err := uref.Normalize(nil)
	require.ErrorIs(t, err, uref.ErrReflectNilType)

	_, err = uref.Normalize(reflect.TypeOf(struct{}{}))
	require.ErrorIs(t, err, uref.ErrReflectTypeNotNamed)

	_, err = uref.Normalize(reflect.TypeOf(func() {}))
	require.ErrorIs(t, err, uref.ErrReflectTypeNotNamed)
}

func TestNormalize_DepthLimit(t *testing.T) {
	deep := reflect.TypeOf(A{})
	for i := 0; i < uref.MaxUnwrap+1; i++ {
		deep = reflect.PointerTo(deep)
	}
	_, err := uref.Normalize(deep)
	require.ErrorIs(t, err, uref.ErrReflectTypeNotNamed)
}

func TestTypeName(t *testing.T) {
	assert.Equal(t, "reflect_test.A", uref.TypeName(reflect.TypeOf(&A{})))
	assert.Equal(t, "reflect_test.G", uref.TypeName(reflect.TypeOf(G[int]{})))
	assert.Equal(t, "int", uref.TypeName(reflect.TypeOf(0)))
	assert.Equal(t, "", uref.TypeName(reflect.TypeOf(struct{}{})))
	assert.Equal(t, "", uref.TypeName(nil))
}

func TestImplements(t *testing.T) {
	iface := reflect.TypeOf((*io.Closer)(nil)).Elem()

	assert.True(t, uref.Implements(reflect.TypeOf(&closer{}), iface))
	assert.True(t, uref.Implements(reflect.TypeOf(closer{}), iface), "pointer receiver on value type")
	assert.True(t, uref.Implements(reflect.TypeOf(valueCloser{}), iface))
	assert.False(t, uref.Implements(reflect.TypeOf(A{}), iface))
	assert.False(t, uref.Implements(reflect.TypeOf(A{}), reflect.TypeOf(A{})), "non-interface target")
	assert.False(t, uref.Implements(nil, iface))
}

func TestIsReference(t *testing.T) {
	var nilPtr *A

	assert.True(t, uref.IsReference(&A{}))
	assert.False(t, uref.IsReference(A{}))
	assert.False(t, uref.IsReference(nilPtr))
	assert.False(t, uref.IsReference(nil))
	assert.False(t, uref.IsReference(map[string]int{}))
}
