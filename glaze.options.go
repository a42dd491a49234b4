package glaze

import (
	"go.uber.org/zap"
)

// Option is a functional option for configuring a Registry.
type Option func(*registryConfig)

// registryConfig holds the internal configuration for a Registry.
type registryConfig struct {
	logger    *zap.Logger
	loader    Loader
	namespace *Namespace
}

// defaultRegistryConfig returns the default registry configuration.
func defaultRegistryConfig() *registryConfig {
	return &registryConfig{
		logger:    nil,
		loader:    nil,
		namespace: nil,
	}
}

// WithLogger sets the logger for the registry and the templates it creates.
// Default: nil (no logging)
func WithLogger(logger *zap.Logger) Option {
	return func(c *registryConfig) {
		c.logger = logger
	}
}

// WithLoader sets the loader used to resolve lazy registrations.
// Default: the process-wide provider table fed by Provide
func WithLoader(loader Loader) Option {
	return func(c *registryConfig) {
		c.loader = loader
	}
}

// WithNamespace sets the namespace lazy identifiers are looked up in.
// Default: a fresh namespace owned by the registry
func WithNamespace(ns *Namespace) Option {
	return func(c *registryConfig) {
		c.namespace = ns
	}
}
