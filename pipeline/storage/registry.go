package storage

import (
	"sort"
	"strings"
	"sync"

	"github.com/gear6io/oraport/pipeline/config"
	"github.com/gear6io/oraport/pkg/errors"
	"github.com/rs/zerolog"
)

// Factory opens a sink from the sink configuration
type Factory func(cfg config.SinkConfig, logger zerolog.Logger) (Sink, error)

// Registry maps sink type names to factories
type Registry struct {
	factories map[string]Factory
	mu        sync.RWMutex
	logger    zerolog.Logger
}

func NewRegistry(logger zerolog.Logger) *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		logger:    logger,
	}
}

// Register adds or replaces the factory for name
func (r *Registry) Register(name string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[strings.ToLower(name)] = factory
}

// Names returns the registered sink types, sorted
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Open creates the sink selected by cfg.Type
func (r *Registry) Open(cfg config.SinkConfig) (Sink, error) {
	r.mu.RLock()
	factory, ok := r.factories[strings.ToLower(cfg.Type)]
	r.mu.RUnlock()

	if !ok {
		return nil, errors.New(ErrSinkNotRegistered, "sink type not registered", nil).
			AddContext("type", cfg.Type).
			AddContext("available", strings.Join(r.Names(), ","))
	}

	sink, err := factory(cfg, r.logger.With().Str("sink", cfg.Type).Logger())
	if err != nil {
		return nil, errors.New(ErrSinkOpenFailed, "failed to open sink", err).AddContext("type", cfg.Type)
	}

	r.logger.Debug().Str("type", cfg.Type).Msg("Sink opened")
	return sink, nil
}
