package registry

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/log"
	"gopkg.in/yaml.v3"

	cts "github.com/ethereum-optimism/infra/xr-cts"
	"github.com/ethereum-optimism/infra/xr-cts/types"
)

// Registry holds the gates of a validator config, resolved against a
// catalog of registered tests.
type Registry struct {
	config  Config
	gates   map[string]types.GateConfig
	order   []string
	catalog map[string]cts.Test
	mu      sync.RWMutex
}

// Config contains registry configuration
type Config struct {
	Log                 log.Logger
	ValidatorConfigFile string
	// Catalog maps test IDs to the tests a config may refer to.
	Catalog map[string]cts.Test
}

// NewRegistry creates a new registry instance
func NewRegistry(cfg Config) (*Registry, error) {
	if cfg.Log == nil {
		cfg.Log = log.New()
	}
	if cfg.ValidatorConfigFile == "" {
		return nil, errors.New("validator config file is required")
	}
	cfg.Log.Debug("Creating registry", "validatorConfigFile", cfg.ValidatorConfigFile)

	data, err := os.ReadFile(cfg.ValidatorConfigFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read validator config at path %s: %w", cfg.ValidatorConfigFile, err)
	}
	return Parse(cfg, data)
}

// Parse builds a registry from validator config YAML.
func Parse(cfg Config, data []byte) (*Registry, error) {
	if cfg.Log == nil {
		cfg.Log = log.New()
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var validatorConfig types.ValidatorConfig
	if err := dec.Decode(&validatorConfig); err != nil {
		return nil, fmt.Errorf("failed to parse validator config: %w", err)
	}
	if len(validatorConfig.Gates) == 0 {
		return nil, errors.New("validator config has no gates")
	}

	r := &Registry{
		config:  cfg,
		gates:   make(map[string]types.GateConfig, len(validatorConfig.Gates)),
		catalog: cfg.Catalog,
	}
	for _, gate := range validatorConfig.Gates {
		if gate.ID == "" {
			return nil, errors.New("gate without id")
		}
		if _, dup := r.gates[gate.ID]; dup {
			return nil, fmt.Errorf("duplicate gate %q", gate.ID)
		}
		r.gates[gate.ID] = gate
		r.order = append(r.order, gate.ID)
	}

	// Resolve against the unresolved set so every gate sees its parents as written.
	resolved := make(map[string]types.GateConfig, len(r.gates))
	for id, gate := range r.gates {
		if err := gate.ResolveInherited(r.gates); err != nil {
			return nil, fmt.Errorf("invalid gate inheritance: %w", err)
		}
		resolved[id] = gate
	}
	r.gates = resolved

	if err := r.Validate(); err != nil {
		return nil, err
	}
	cfg.Log.Info("Loaded validator config", "gates", r.order)
	return r, nil
}

// Validate checks that every configured test is registered.
func (r *Registry) Validate() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var errs error
	for _, id := range r.order {
		gate := r.gates[id]
		for _, tc := range gate.Tests {
			errs = errors.Join(errs, r.checkTest(id, "", tc))
		}
		for _, name := range gate.SuiteNames() {
			for _, tc := range gate.Suites[name].Tests {
				errs = errors.Join(errs, r.checkTest(id, name, tc))
			}
		}
	}
	return errs
}

func (r *Registry) checkTest(gate, suite string, tc types.TestConfig) error {
	if _, ok := r.catalog[tc.ID]; ok {
		return nil
	}
	if suite != "" {
		return fmt.Errorf("gate %q suite %q: unknown test %q", gate, suite, tc.ID)
	}
	return fmt.Errorf("gate %q: unknown test %q", gate, tc.ID)
}

// GetConfig returns the registry configuration
func (r *Registry) GetConfig() Config {
	return r.config
}

// GateIDs returns the gate IDs in config order.
func (r *Registry) GateIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// GetGate retrieves a resolved gate config by ID
func (r *Registry) GetGate(id string) *types.GateConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()

	gate, ok := r.gates[id]
	if !ok {
		return nil
	}
	return &gate
}

// BuildGate turns a resolved gate config into a runnable gate. Suites come
// first in name order, followed by the gate's direct tests.
func (r *Registry) BuildGate(id string) (cts.Gate, error) {
	gateCfg := r.GetGate(id)
	if gateCfg == nil {
		return cts.Gate{}, fmt.Errorf("gate %q not found", id)
	}

	gate := cts.Gate{
		ID:          gateCfg.ID,
		Description: gateCfg.Description,
		Params:      make(map[string]interface{}),
	}
	for _, name := range gateCfg.SuiteNames() {
		suiteCfg := gateCfg.Suites[name]
		suite := cts.Suite{
			ID:          name,
			Description: suiteCfg.Description,
			TestsParams: make(map[string]interface{}),
		}
		for _, tc := range suiteCfg.Tests {
			test, ok := r.catalog[tc.ID]
			if !ok {
				return cts.Gate{}, r.checkTest(id, name, tc)
			}
			suite.Tests = append(suite.Tests, test)
			if tc.Params != nil {
				suite.TestsParams[tc.ID] = *tc.Params
			}
		}
		gate.Validators = append(gate.Validators, suite)
	}
	for _, tc := range gateCfg.Tests {
		test, ok := r.catalog[tc.ID]
		if !ok {
			return cts.Gate{}, r.checkTest(id, "", tc)
		}
		gate.Validators = append(gate.Validators, test)
		if tc.Params != nil {
			gate.Params[tc.ID] = *tc.Params
		}
	}
	return gate, nil
}

// BuildGates builds the target gate, or every gate in config order when
// target is empty.
func (r *Registry) BuildGates(target string) ([]cts.Gate, error) {
	ids := []string{target}
	if target == "" {
		ids = r.GateIDs()
	}
	gates := make([]cts.Gate, 0, len(ids))
	for _, id := range ids {
		gate, err := r.BuildGate(id)
		if err != nil {
			return nil, err
		}
		gates = append(gates, gate)
	}
	return gates, nil
}

// TestIDs returns the registered test IDs in sorted order.
func (r *Registry) TestIDs() []string {
	ids := make([]string, 0, len(r.catalog))
	for id := range r.catalog {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
