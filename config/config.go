// Package config provides routing policy configuration: per-service
// balancing strategy and circuit breaker settings, loaded from YAML and
// optionally watched for changes.
package config

import (
	"fmt"
	"time"

	"github.com/avyr/routeguard/balancer"
	"github.com/avyr/routeguard/circuitbreaker"
)

// Config is the root of the routing policy file.
type Config struct {
	// Defaults applies to services without an explicit policy.
	Defaults Policy `yaml:"defaults" json:"defaults"`

	// Services holds per-service policy overrides.
	Services []ServicePolicy `yaml:"services,omitempty" json:"services,omitempty"`
}

// Policy holds the routing policy for one logical service.
type Policy struct {
	// Strategy is the balancing algorithm name. Empty means RoundRobin.
	Strategy string `yaml:"strategy,omitempty" json:"strategy,omitempty"`

	// CircuitBreaker configures the breaker for the service. Nil means
	// the manager defaults apply.
	CircuitBreaker *BreakerConfig `yaml:"circuitBreaker,omitempty" json:"circuitBreaker,omitempty"`
}

// ServicePolicy binds a policy to a logical service name.
type ServicePolicy struct {
	Name   string `yaml:"name" json:"name"`
	Policy `yaml:",inline"`
}

// BreakerConfig holds circuit breaker settings in file form.
type BreakerConfig struct {
	Threshold    int      `yaml:"threshold,omitempty" json:"threshold,omitempty"`
	Timeout      Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	ResetTimeout Duration `yaml:"resetTimeout,omitempty" json:"resetTimeout,omitempty"`
}

// Options converts the file form into breaker options, filling unset fields
// from the defaults.
func (b *BreakerConfig) Options() *circuitbreaker.Options {
	opts := circuitbreaker.DefaultOptions()
	if b == nil {
		return opts
	}
	if b.Threshold > 0 {
		opts.Threshold = b.Threshold
	}
	if b.Timeout > 0 {
		opts.Timeout = time.Duration(b.Timeout)
	}
	if b.ResetTimeout > 0 {
		opts.ResetTimeout = time.Duration(b.ResetTimeout)
	}
	return opts
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Defaults: Policy{
			Strategy: string(balancer.DefaultAlgorithm),
		},
	}
}

// Validate checks strategy names, breaker settings, and service name
// uniqueness.
func (c *Config) Validate() error {
	if _, err := balancer.ParseAlgorithm(c.Defaults.Strategy); err != nil {
		return fmt.Errorf("defaults: %w", err)
	}
	if err := validateBreaker(c.Defaults.CircuitBreaker); err != nil {
		return fmt.Errorf("defaults: %w", err)
	}

	seen := make(map[string]struct{}, len(c.Services))
	for i, svc := range c.Services {
		if svc.Name == "" {
			return fmt.Errorf("services[%d]: name is required", i)
		}
		if _, dup := seen[svc.Name]; dup {
			return fmt.Errorf("services[%d]: duplicate service %q", i, svc.Name)
		}
		seen[svc.Name] = struct{}{}

		if _, err := balancer.ParseAlgorithm(svc.Strategy); err != nil {
			return fmt.Errorf("service %q: %w", svc.Name, err)
		}
		if err := validateBreaker(svc.CircuitBreaker); err != nil {
			return fmt.Errorf("service %q: %w", svc.Name, err)
		}
	}
	return nil
}

func validateBreaker(b *BreakerConfig) error {
	if b == nil {
		return nil
	}
	if b.Threshold < 0 {
		return fmt.Errorf("circuit breaker threshold must not be negative")
	}
	if b.Timeout < 0 || b.ResetTimeout < 0 {
		return fmt.Errorf("circuit breaker timeouts must not be negative")
	}
	return nil
}

// PolicyFor resolves the effective policy for a logical service name:
// the per-service entry when present, else the defaults.
func (c *Config) PolicyFor(name string) Policy {
	for _, svc := range c.Services {
		if svc.Name == name {
			merged := svc.Policy
			if merged.Strategy == "" {
				merged.Strategy = c.Defaults.Strategy
			}
			if merged.CircuitBreaker == nil {
				merged.CircuitBreaker = c.Defaults.CircuitBreaker
			}
			return merged
		}
	}
	return c.Defaults
}

// Algorithm returns the parsed balancing algorithm of the policy.
// Validation has already rejected unknown names; unvalidated values fall
// back to the default algorithm.
func (p Policy) Algorithm() balancer.Algorithm {
	algorithm, err := balancer.ParseAlgorithm(p.Strategy)
	if err != nil {
		return balancer.DefaultAlgorithm
	}
	return algorithm
}
