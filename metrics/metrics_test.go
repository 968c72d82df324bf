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

package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dirpx.dev/dparts/metrics"
)

func TestRecorders_MoveCounters(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	for _, c := range metrics.Collectors() {
		require.NoError(t, reg.Register(c))
	}

	metrics.RecordWrapperCreated(true)
	metrics.RecordWrapperCreated(false)
	metrics.RecordLookup(metrics.LookupHit)
	metrics.RecordLookup(metrics.LookupMiss)
	metrics.RecordPartWrapped()
	metrics.RecordPartDisposed()
	metrics.RecordCatalogDisposed()

	n, err := testutil.GatherAndCount(reg,
		"dparts_wrapper_definitions_created_total",
		"dparts_definition_lookups_total",
	)
	require.NoError(t, err)
	// One series per label value.
	assert.Equal(t, 4, n)

	n, err = testutil.GatherAndCount(reg,
		"dparts_parts_wrapped_total",
		"dparts_parts_disposed_total",
		"dparts_catalogs_disposed_total",
	)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestRegister_Once(t *testing.T) {
	reg := prometheus.NewRegistry()
	assert.NotPanics(t, func() {
		metrics.Register(reg)
		metrics.Register(reg)
	})
}
