package engine

import (
	"sort"
	"sync"

	"github.com/flysightviewer/flysightviewer/pkg/telemetry"
)

// Registry maps each declared output key to the producer that resolves
// it. It is populated once during the plugin registration phase and then
// sealed; no mutation is permitted once an evaluator begins serving
// requests.
type Registry struct {
	// mu protects the registry state.
	mu sync.RWMutex

	// producers maps output keys to their producer.
	producers map[Key]Producer

	// sealed is flipped once, after which Register fails.
	sealed bool

	logger *telemetry.Logger
}

// NewRegistry creates an empty producer registry.
func NewRegistry(logger *telemetry.Logger) *Registry {
	if logger == nil {
		logger = telemetry.NopLogger()
	}
	return &Registry{
		producers: make(map[Key]Producer),
		logger:    logger.NewComponentLogger("registry"),
	}
}

// Register adds a producer under its output key. At most one producer may
// claim a key: the first registration wins and later ones are dropped
// with a configuration error, preserving plugin override order.
func (r *Registry) Register(p Producer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := p.OutputKey()

	if r.sealed {
		err := NewConfigError("registry is sealed", nil).WithKey(key)
		err.Code = ErrCodeRegistrySealed
		return err
	}

	if _, exists := r.producers[key]; exists {
		err := NewConfigError("duplicate producer registration", nil).WithKey(key)
		err.Code = ErrCodeDuplicateProducer
		r.logger.WithField("key", key.String()).Warn("Duplicate producer registration dropped; first wins")
		return err
	}

	r.producers[key] = p
	return nil
}

// Lookup returns the producer for key, if one is registered.
func (r *Registry) Lookup(key Key) (Producer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.producers[key]
	return p, ok
}

// Seal closes the registration phase. Sealing is a one-way gate: once
// sealed the registry is read-only for the remainder of the process.
func (r *Registry) Seal() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.sealed {
		r.sealed = true
		r.logger.WithField("producers", len(r.producers)).Debug("Registry sealed")
	}
}

// Sealed reports whether the registration phase has ended.
func (r *Registry) Sealed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sealed
}

// Len returns the number of registered producers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.producers)
}

// Keys returns all registered output keys, sorted for stable listings.
func (r *Registry) Keys() []Key {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]Key, 0, len(r.producers))
	for k := range r.producers {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Kind != keys[j].Kind {
			return keys[i].Kind < keys[j].Kind
		}
		if keys[i].Sensor != keys[j].Sensor {
			return keys[i].Sensor < keys[j].Sensor
		}
		return keys[i].Name < keys[j].Name
	})
	return keys
}
