// Package host is the registry of BLE host engine bindings. The core only
// depends on svk.Engine; a concrete host stack registers a named factory
// here and the entrypoint picks one by name.
package host

import (
	"io"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/ratlabs/svk"
)

// Factory builds an engine over an open controller transport. Factories that
// embed their own transport may ignore ctrl.
type Factory func(ctrl io.ReadWriteCloser, log svk.Logger) (svk.Engine, error)

var (
	mu        sync.Mutex
	factories = make(map[string]Factory)
)

// Register installs a named engine binding. Registering a name twice panics;
// bindings are wired at init time and a collision is a programming error.
func Register(name string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	if f == nil {
		panic("host: nil factory for " + name)
	}
	if _, dup := factories[name]; dup {
		panic("host: duplicate engine " + name)
	}
	factories[name] = f
}

// New builds the named engine. An unknown name lists what is available, so
// a typo on the command line diagnoses itself.
func New(name string, ctrl io.ReadWriteCloser, log svk.Logger) (svk.Engine, error) {
	mu.Lock()
	f, ok := factories[name]
	mu.Unlock()
	if !ok {
		return nil, errors.Errorf("no %q host engine (have %v)", name, Engines())
	}
	return f(ctrl, log)
}

// Engines lists the registered binding names, sorted.
func Engines() []string {
	mu.Lock()
	defer mu.Unlock()
	names := make([]string, 0, len(factories))
	for n := range factories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
