package sliqsim

import (
	"context"
	"fmt"

	"github.com/theapemachine/errnie"
)

// BackendFilter selects backends by their configuration.
type BackendFilter func(BackendConfiguration) bool

/*
Provider owns the SliQSim backends and the pool their jobs run on.
*/
type Provider struct {
	pool     *Q
	backends map[string]*Backend
	order    []string
}

type ProviderOption func(*providerOptions)

type providerOptions struct {
	executor Executor
	seeds    SeedSource
}

// WithExecutor bypasses executable lookup and runs every simulation through executor.
func WithExecutor(executor Executor) ProviderOption {
	return func(o *providerOptions) {
		o.executor = executor
	}
}

// WithSeeds sets where seeds come from when a qobj does not configure one.
func WithSeeds(src SeedSource) ProviderOption {
	return func(o *providerOptions) {
		o.seeds = src
	}
}

// NewProvider locates SliQSim, starts the job pool and registers both backends.
func NewProvider(ctx context.Context, config *Config, opts ...ProviderOption) (*Provider, error) {
	if config == nil {
		config = NewConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if config.LogLevel != "" {
		if err := SetLogLevel(config.LogLevel); err != nil {
			return nil, fmt.Errorf("invalid log level: %w", err)
		}
	}

	options := providerOptions{seeds: RandomSeedSource{}}
	for _, opt := range opts {
		opt(&options)
	}

	executable := config.Executable
	if options.executor == nil {
		if executable == "" {
			found, err := FindExecutable(config.SearchPaths)
			if err != nil {
				return nil, err
			}
			executable = found
		}
		options.executor = NewProcessExecutor(executable)
	} else if executable == "" {
		executable = "custom-executor"
	}

	errnie.Info("NewProvider - executable %v, workers %v", executable, config.Workers)

	simulator := NewSimulator(options.executor, WithSeedSource(options.seeds))
	pool := NewQ(ctx, config)

	p := &Provider{
		pool:     pool,
		backends: make(map[string]*Backend),
	}

	for _, backend := range []struct {
		name string
		mode Mode
	}{
		{SamplingBackend, ModeSampling},
		{AllAmplitudeBackend, ModeStatevector},
	} {
		p.backends[backend.name] = &Backend{
			configuration: DefaultConfiguration(backend.name),
			mode:          backend.mode,
			executable:    executable,
			simulator:     simulator,
			pool:          pool,
			config:        config,
		}
		p.order = append(p.order, backend.name)
	}

	return p, nil
}

// GetBackend returns the named backend; an empty name means sampling.
func (p *Provider) GetBackend(name string) (*Backend, error) {
	if name == "" {
		name = SamplingBackend
	}
	backend, ok := p.backends[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, name)
	}
	return backend, nil
}

func (p *Provider) Backends() []*Backend {
	backends := make([]*Backend, 0, len(p.order))
	for _, name := range p.order {
		backends = append(backends, p.backends[name])
	}
	return backends
}

// AvailableBackends returns the backends matching every filter.
func (p *Provider) AvailableBackends(filters ...BackendFilter) []*Backend {
	var out []*Backend
next:
	for _, backend := range p.Backends() {
		for _, filter := range filters {
			if !filter(backend.Configuration()) {
				continue next
			}
		}
		out = append(out, backend)
	}
	return out
}

// Metrics returns a snapshot of the job pool's metrics, keyed by metric name.
func (p *Provider) Metrics() map[string]interface{} {
	return p.pool.Metrics().ExportMetrics()
}

func (p *Provider) Close() {
	p.pool.Close()
}

func (p *Provider) String() string {
	return "SliQSimProvider"
}
