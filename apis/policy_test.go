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

package apis_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dirpx.dev/dparts/apis"
)

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    apis.CreationPolicy
		wantErr bool
	}{
		{in: "Any", want: apis.Any},
		{in: "shared", want: apis.Shared},
		{in: "  NonShared ", want: apis.NonShared},
		{in: "non-shared", want: apis.NonShared},
		{in: "NON_SHARED", want: apis.NonShared},
		{in: "", want: apis.Any, wantErr: true},
		{in: "singleton", want: apis.Any, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := apis.ParsePolicy(tt.in)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMustParsePolicy_PanicsOnInvalid(t *testing.T) {
	assert.Equal(t, apis.Shared, apis.MustParsePolicy("SHARED"))
	assert.Panics(t, func() { apis.MustParsePolicy("bogus") })
}

func TestCreationPolicy_String(t *testing.T) {
	assert.Equal(t, "Any", apis.Any.String())
	assert.Equal(t, "Shared", apis.Shared.String())
	assert.Equal(t, "NonShared", apis.NonShared.String())
	assert.Equal(t, "Unknown(42)", apis.CreationPolicy(42).String())
}

func TestCreationPolicy_TextRoundTrip(t *testing.T) {
	b, err := apis.NonShared.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "NonShared", string(b))

	var p apis.CreationPolicy
	require.NoError(t, p.UnmarshalText(b))
	assert.Equal(t, apis.NonShared, p)

	_, err = apis.CreationPolicy(9).MarshalText()
	assert.Error(t, err)
}

func TestCreationPolicy_UnmarshalText_LeavesValueOnError(t *testing.T) {
	p := apis.Shared
	require.Error(t, p.UnmarshalText([]byte("weekly")))
	assert.Equal(t, apis.Shared, p)
}

func TestPolicyOf(t *testing.T) {
	assert.Equal(t, apis.Any, apis.PolicyOf(nil))
	assert.Equal(t, apis.Any, apis.PolicyOf(apis.Metadata{}))
	assert.Equal(t, apis.NonShared, apis.PolicyOf(apis.Metadata{apis.CreationPolicyKey: apis.NonShared}))

	// Foreign value types read as absent.
	assert.Equal(t, apis.Any, apis.PolicyOf(apis.Metadata{apis.CreationPolicyKey: "NonShared"}))
	assert.Equal(t, apis.Any, apis.PolicyOf(apis.Metadata{apis.CreationPolicyKey: 2}))
}
