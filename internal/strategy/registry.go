package strategy

import (
	"sort"
	"sync"

	"github.com/invopop/jsonschema"
	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-quant/internal/logger"
	"github.com/rxtech-lab/argo-quant/internal/version"
	"github.com/rxtech-lab/argo-quant/pkg/errors"
)

// Factory constructs a strategy instance from an untyped parameter map.
type Factory func(params Parameters) (Strategy, error)

// Info is the human-readable metadata published for one registered
// strategy.
type Info struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Type        string             `json:"type"`
	Timeframes  []string           `json:"timeframes"`
	Version     string             `json:"version"`
	Schema      *jsonschema.Schema `json:"schema"`
}

type entry struct {
	info    Info
	factory Factory
}

// Registry maps canonical strategy names to factories and parameter
// schemas. It is populated once at startup and read-only afterwards, but
// re-registration is tolerated (overwrite with a warning) so tests can
// register fixtures freely.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry
	logger  *logger.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(l *logger.Logger) *Registry {
	return &Registry{
		entries: make(map[string]entry),
		logger:  l,
	}
}

// NewDefaultRegistry creates a registry populated with every built-in
// strategy variant.
func NewDefaultRegistry(l *logger.Logger) *Registry {
	r := NewRegistry(l)

	r.Register(Info{
		Name:        StrategyNameMACrossover,
		Description: "Simple moving average crossover strategy",
		Type:        "trend_following",
		Timeframes:  []string{"1h", "4h", "1d"},
		Schema:      reflectSchema(MACrossoverParams{}),
	}, func(params Parameters) (Strategy, error) { return NewMACrossover(params) })

	r.Register(Info{
		Name:        StrategyNameRSIReversal,
		Description: "RSI-based mean reversion strategy",
		Type:        "mean_reversion",
		Timeframes:  []string{"15m", "1h", "4h"},
		Schema:      reflectSchema(RSIReversalParams{}),
	}, func(params Parameters) (Strategy, error) { return NewRSIReversal(params) })

	r.Register(Info{
		Name:        StrategyNameBollingerBands,
		Description: "Bollinger Bands mean reversion strategy with RSI confirmation",
		Type:        "mean_reversion",
		Timeframes:  []string{"15m", "1h", "4h"},
		Schema:      reflectSchema(BollingerBandsParams{}),
	}, func(params Parameters) (Strategy, error) { return NewBollingerBands(params) })

	r.Register(Info{
		Name:        StrategyNameMultiIndicator,
		Description: "Multi-indicator confirmation strategy combining RSI, MACD and Bollinger Bands",
		Type:        "multi_confirmation",
		Timeframes:  []string{"1h", "4h", "1d"},
		Schema:      reflectSchema(MultiIndicatorParams{}),
	}, func(params Parameters) (Strategy, error) { return NewMultiIndicator(params) })

	return r
}

func reflectSchema(params any) *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		DoNotReference: true,
	}

	return reflector.Reflect(params)
}

// Register adds a strategy under meta.Name. A caller-declared version is
// preserved so Create can gate on engine compatibility; entries that leave
// Version empty are pinned to the current engine version. Registering an
// existing name overwrites the previous entry with a logged warning rather
// than erroring, so re-registration during tests is non-fatal.
func (r *Registry) Register(meta Info, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[meta.Name]; exists {
		r.logger.Warn("overwriting existing strategy registration",
			zap.String("strategy", meta.Name),
		)
	}

	if meta.Version == "" {
		meta.Version = version.GetVersion()
	}

	r.entries[meta.Name] = entry{
		info:    meta,
		factory: factory,
	}
}

// Unregister removes a strategy by name. Unknown names are a no-op.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.entries, name)
}

// List returns the registered strategy names in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Info returns the metadata and parameter schema for a strategy.
func (r *Registry) Info(name string) (Info, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[name]
	if !ok {
		return Info{}, errors.Newf(errors.ErrCodeStrategyNotFound, "strategy %q not found", name)
	}

	return e.info, nil
}

// Validate attempts construction with the supplied parameters and returns
// the constructor's own validation result without raising: (true, nil) on
// success, (false, err) when the parameters are rejected. Unknown names
// are reported the same way.
func (r *Registry) Validate(name string, params Parameters) (bool, error) {
	s, err := r.Create(name, params)
	if err != nil {
		return false, err
	}

	if err := s.ValidateParameters(); err != nil {
		return false, err
	}

	return true, nil
}

// Create constructs a strategy instance. Unknown names fail with a
// not-found error before instantiation is attempted; the registered
// version must be compatible with the engine version.
func (r *Registry) Create(name string, params Parameters) (Strategy, error) {
	r.mu.RLock()
	e, ok := r.entries[name]
	r.mu.RUnlock()

	if !ok {
		return nil, errors.Newf(errors.ErrCodeStrategyNotFound, "strategy %q not found", name)
	}

	if err := version.CheckCompatibility(version.GetVersion(), e.info.Version); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeVersionMismatch, err,
			"strategy %q is not compatible with engine %s", name, version.GetVersion())
	}

	s, err := e.factory(params)
	if err != nil {
		return nil, err
	}

	return s, nil
}
