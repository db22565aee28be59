/*
Copyright 2026.

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

package process

import (
	"os"
	"sort"
	"strings"
)

// Environ is an immutable snapshot of a base environment.
// Overlays are merged into a fresh slice at invocation time; the base is
// never modified.
type Environ struct {
	base    []string
	inherit bool
}

// FromOS snapshots the current process environment. Merging an empty
// overlay into it yields nil, so the child inherits the parent environment
// exactly.
func FromOS() Environ {
	return Environ{base: os.Environ(), inherit: true}
}

// NewEnviron returns an Environ over an explicit base. The slice is copied.
func NewEnviron(base []string) Environ {
	cp := make([]string, len(base))
	copy(cp, base)
	return Environ{base: cp}
}

func (e Environ) copyBase() []string {
	cp := make([]string, len(e.base))
	copy(cp, e.base)
	return cp
}

// Merge returns the environment for a child process: the base with every
// overlay key replaced or added. Overlay keys are appended in sorted order.
func (e Environ) Merge(overlay map[string]string) []string {
	if len(overlay) == 0 {
		if e.inherit {
			return nil
		}
		return e.copyBase()
	}

	merged := make([]string, 0, len(e.base)+len(overlay))
	for _, kv := range e.base {
		if _, shadowed := overlay[envKey(kv)]; shadowed {
			continue
		}
		merged = append(merged, kv)
	}

	keys := make([]string, 0, len(overlay))
	for k := range overlay {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		merged = append(merged, k+"="+overlay[k])
	}
	return merged
}

func envKey(kv string) string {
	if i := strings.IndexByte(kv, '='); i >= 0 {
		return kv[:i]
	}
	return kv
}
