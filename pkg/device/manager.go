package device

import (
	"fmt"
	"sort"
	"sync"
)

// Opener opens the device with the given ordinal.
type Opener func(ordinal int) (Context, error)

type manager struct {
	mu      sync.RWMutex
	openers map[string]Opener
}

var defaultManager = &manager{
	openers: make(map[string]Opener),
}

// Register makes a backend available to Open under name. Registering the same
// name twice replaces the previous opener.
func Register(name string, open Opener) {
	defaultManager.mu.Lock()
	defer defaultManager.mu.Unlock()
	defaultManager.openers[name] = open
}

// Open opens device ordinal of the named backend.
func Open(name string, ordinal int) (Context, error) {
	defaultManager.mu.RLock()
	open, ok := defaultManager.openers[name]
	defaultManager.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q (registered: %v)", ErrUnknownBackend, name, Backends())
	}
	return open(ordinal)
}

// Backends lists the registered backend names in lexical order.
func Backends() []string {
	defaultManager.mu.RLock()
	defer defaultManager.mu.RUnlock()

	names := make([]string, 0, len(defaultManager.openers))
	for name := range defaultManager.openers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
