package backend

import (
	"errors"
	"fmt"
	"sync"
)

// ErrNoBackend is returned when no registered backend matches.
var ErrNoBackend = errors.New("backend: no backend")

var registry = struct {
	sync.RWMutex
	names    []string
	backends map[string]Backend
}{backends: make(map[string]Backend)}

// Register makes b available under name. Registering a name twice is an
// error.
func Register(name string, b Backend) error {
	if name == "" || b == nil {
		return errors.New("backend: register needs a name and a backend")
	}
	registry.Lock()
	defer registry.Unlock()
	if _, ok := registry.backends[name]; ok {
		return fmt.Errorf("backend: %q already registered", name)
	}
	registry.names = append(registry.names, name)
	registry.backends[name] = b
	return nil
}

// Lookup returns the backend registered under name.
func Lookup(name string) (Backend, error) {
	registry.RLock()
	defer registry.RUnlock()
	b, ok := registry.backends[name]
	if !ok {
		return nil, fmt.Errorf("%w named %q", ErrNoBackend, name)
	}
	return b, nil
}

// Guess returns the first backend, in registration order, that can open
// target.
func Guess(target any) (string, Backend, error) {
	registry.RLock()
	defer registry.RUnlock()
	for _, name := range registry.names {
		if b := registry.backends[name]; b.CanOpen(target) {
			return name, b, nil
		}
	}
	return "", nil, fmt.Errorf("%w can open %v", ErrNoBackend, target)
}

// Names returns the registered backend names in registration order.
func Names() []string {
	registry.RLock()
	defer registry.RUnlock()
	return append([]string(nil), registry.names...)
}
