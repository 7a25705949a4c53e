package memori

import (
	"fmt"
	"sort"
	"sync"

	"github.com/botfusions/memorid/internal/namespace"
	"go.uber.org/zap"
)

// Registry caches service facades by derived key, guaranteeing at most one
// facade per key for the process lifetime. Entries are never evicted; the
// mapping grows with the number of distinct keys resolved, which is a known
// and accepted limitation.
type Registry struct {
	databaseURL     string
	defaultModel    string
	engine          EngineClient
	llm             LLMClient
	logger          *zap.Logger
	consciousIngest bool
	autoIngest      bool

	mu       sync.RWMutex
	services map[string]*Service
}

// RegistryOptions configures a Registry. All facades constructed by the
// registry share the same database URL and injected clients.
type RegistryOptions struct {
	DatabaseURL     string
	DefaultModel    string
	Engine          EngineClient
	LLM             LLMClient
	Logger          *zap.Logger
	ConsciousIngest bool
	AutoIngest      bool
}

// NewRegistry creates a new facade registry.
func NewRegistry(opts RegistryOptions) (*Registry, error) {
	if opts.DatabaseURL == "" {
		return nil, fmt.Errorf("database URL required")
	}
	if opts.Engine == nil {
		return nil, fmt.Errorf("engine client required")
	}
	if opts.LLM == nil {
		return nil, fmt.Errorf("llm client required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Registry{
		databaseURL:     opts.DatabaseURL,
		defaultModel:    opts.DefaultModel,
		engine:          opts.Engine,
		llm:             opts.LLM,
		logger:          logger,
		consciousIngest: opts.ConsciousIngest,
		autoIngest:      opts.AutoIngest,
		services:        make(map[string]*Service),
	}, nil
}

// Resolve returns the facade for the (base, userID) key, constructing it on
// first use. Concurrent callers racing on a new key observe the same
// instance: construction happens under the write lock after a re-check.
func (r *Registry) Resolve(base, userID string) (*Service, error) {
	key := namespace.Key(base, userID)

	r.mu.RLock()
	svc, ok := r.services[key]
	r.mu.RUnlock()
	if ok {
		return svc, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if svc, ok := r.services[key]; ok {
		return svc, nil
	}

	svc, err := NewService(ServiceOptions{
		DatabaseURL:     r.databaseURL,
		Namespace:       key,
		DefaultModel:    r.defaultModel,
		Engine:          r.engine,
		LLM:             r.llm,
		Logger:          r.logger,
		ConsciousIngest: r.consciousIngest,
		AutoIngest:      r.autoIngest,
	})
	if err != nil {
		return nil, fmt.Errorf("constructing service for key %q: %w", key, err)
	}

	r.services[key] = svc
	r.logger.Info("service registered", zap.String("key", key))
	return svc, nil
}

// Keys returns all cached service keys, sorted.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.services))
	for key := range r.services {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of cached facades.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.services)
}
