package config

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/MrWong99/voxbook/pkg/provider/stt"
)

// ErrProviderNotRegistered is returned by [Registry.CreateTranscriber] when
// no factory has been registered under the requested name.
var ErrProviderNotRegistered = errors.New("config: provider not registered")

// TranscriberFactory builds a transcriber from its config entry.
type TranscriberFactory func(ProviderEntry) (stt.Transcriber, error)

// Registry maps transcriber names to their constructors. It is safe for
// concurrent use.
type Registry struct {
	mu          sync.RWMutex
	transcriber map[string]TranscriberFactory
}

// NewRegistry returns an empty, ready-to-use [Registry].
func NewRegistry() *Registry {
	return &Registry{transcriber: make(map[string]TranscriberFactory)}
}

// RegisterTranscriber registers factory under name. Subsequent calls with
// the same name overwrite the previous registration.
func (r *Registry) RegisterTranscriber(name string, factory TranscriberFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transcriber[name] = factory
}

// CreateTranscriber instantiates the transcriber registered under
// entry.Name.
func (r *Registry) CreateTranscriber(entry ProviderEntry) (stt.Transcriber, error) {
	r.mu.RLock()
	factory, ok := r.transcriber[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: stt/%q", ErrProviderNotRegistered, entry.Name)
	}
	return factory(entry)
}

// Transcribers returns the registered names in sorted order.
func (r *Registry) Transcribers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.transcriber))
	for name := range r.transcriber {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
