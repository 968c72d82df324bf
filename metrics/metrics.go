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

// Package metrics exposes prometheus collectors for wrapper catalogs.
//
// Collectors are package-level and always recorded; Register publishes
// them to a prometheus.Registerer once per process.
package metrics

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const subsystem = "dparts"

// Lookup results.
const (
	LookupHit  = "hit"
	LookupMiss = "miss"
)

var (
	wrappersCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Subsystem: subsystem,
			Name:      "wrapper_definitions_created_total",
			Help:      "Count of wrapper part definitions constructed, by risk classification.",
		},
		[]string{"at_risk"},
	)
	lookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Subsystem: subsystem,
			Name:      "definition_lookups_total",
			Help:      "Count of wrapper definition cache lookups, by result.",
		},
		[]string{"result"},
	)
	partsWrapped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Subsystem: subsystem,
			Name:      "parts_wrapped_total",
			Help:      "Count of at-risk part instances wrapped for deterministic disposal.",
		},
	)
	partsDisposed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Subsystem: subsystem,
			Name:      "parts_disposed_total",
			Help:      "Count of wrapped part instances disposed.",
		},
	)
	catalogsDisposed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Subsystem: subsystem,
			Name:      "catalogs_disposed_total",
			Help:      "Count of wrapper catalogs disposed.",
		},
	)
)

var registerMetrics sync.Once

// Register all metrics with reg. Only the first call has effect.
func Register(reg prometheus.Registerer) {
	registerMetrics.Do(func() {
		reg.MustRegister(Collectors()...)
	})
}

// Collectors returns every collector of the package, for callers that
// manage their own registries.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		wrappersCreated,
		lookups,
		partsWrapped,
		partsDisposed,
		catalogsDisposed,
	}
}

// RecordWrapperCreated records the construction of a wrapper definition.
func RecordWrapperCreated(atRisk bool) {
	wrappersCreated.WithLabelValues(strconv.FormatBool(atRisk)).Inc()
}

// RecordLookup records a cache lookup with result LookupHit or LookupMiss.
func RecordLookup(result string) {
	lookups.WithLabelValues(result).Inc()
}

// RecordPartWrapped records an at-risk instance handed out in a wrapper.
func RecordPartWrapped() {
	partsWrapped.Inc()
}

// RecordPartDisposed records the disposal of a wrapped instance.
func RecordPartDisposed() {
	partsDisposed.Inc()
}

// RecordCatalogDisposed records the disposal of a wrapper catalog.
func RecordCatalogDisposed() {
	catalogsDisposed.Inc()
}
