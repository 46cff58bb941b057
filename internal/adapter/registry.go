package adapter

import (
	"fmt"
	"sync"
)

// Vendor adapters register themselves from their package init, the same
// way database/sql drivers do. Importing a vendor package is what makes
// its kind dispatchable.
var (
	registryMu sync.RWMutex
	registry   = make(map[Kind]Adapter)
)

// Register installs an adapter for its kind. Registering the same kind
// twice is a programming error.
func Register(a Adapter) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, dup := registry[a.Kind()]; dup {
		panic(fmt.Sprintf("adapter: Register called twice for kind %s", a.Kind()))
	}
	registry[a.Kind()] = a
}

// For returns the adapter registered for a kind.
func For(kind Kind) (Adapter, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	a, ok := registry[kind]
	if !ok {
		return nil, fmt.Errorf("no adapter registered for kind %s", kind)
	}
	return a, nil
}
