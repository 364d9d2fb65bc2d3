// SPDX-License-Identifier: EPL-2.0

package output

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Registry of devices by name (e.g., "oto", "null").
type Registry struct {
	devices map[string]Device

	mtx *sync.Mutex
}

func NewRegistry() *Registry {
	return &Registry{
		devices: make(map[string]Device),
		mtx:     &sync.Mutex{},
	}
}

func (r *Registry) Register(name string, d Device) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	r.devices[strings.ToLower(name)] = d
}

// Get returns the device registered as name, or an error wrapping
// ErrUnknownDevice that lists the known names.
func (r *Registry) Get(name string) (Device, error) {
	r.mtx.Lock()
	d, ok := r.devices[strings.ToLower(name)]
	r.mtx.Unlock()

	if !ok {
		return nil, fmt.Errorf("%q (have %s): %w", name, strings.Join(r.Names(), ", "), ErrUnknownDevice)
	}

	return d, nil
}

// Names lists the registered device names in sorted order.
func (r *Registry) Names() []string {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	names := make([]string, 0, len(r.devices))
	for k := range r.devices {
		names = append(names, k)
	}
	sort.Strings(names)

	return names
}
