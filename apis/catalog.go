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

package apis

import "iter"

// Match pairs a part definition with one of its exports that satisfies an
// import.
type Match struct {
	Definition PartDefinition
	Export     *ExportDefinition
}

// Catalog maps declarative part definitions to instantiable components.
//
// Sequences are lazy and may be ranged over any number of times; each
// iteration reflects the catalog at that moment. A non-nil error is
// scoped to its own item: iteration continues with the next one.
type Catalog interface {
	// Parts enumerates every part definition.
	Parts() iter.Seq2[PartDefinition, error]
	// Exports enumerates the (definition, export) pairs that satisfy imp.
	Exports(imp *ImportDefinition) iter.Seq2[Match, error]
}

// EventKind selects a change notification.
type EventKind int

const (
	// Changing is raised before a catalog changes.
	Changing EventKind = iota
	// Changed is raised after a catalog changed.
	Changed
)

// String returns "Changing" or "Changed".
func (k EventKind) String() string {
	switch k {
	case Changing:
		return "Changing"
	case Changed:
		return "Changed"
	default:
		return "Unknown"
	}
}

// ChangeEvent is the payload of a change notification.
type ChangeEvent struct {
	Added   []PartDefinition
	Removed []PartDefinition
}

// ChangeHandler receives change notifications.
type ChangeHandler func(ev ChangeEvent)

// Notifier is the optional change-notification capability of a Catalog.
type Notifier interface {
	// Subscribe registers h for kind. The returned func removes the
	// subscription and is safe to call more than once.
	Subscribe(kind EventKind, h ChangeHandler) (unsubscribe func(), err error)
}
