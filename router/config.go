/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package router

import (
	"time"

	"github.com/pkg/errors"
)

const (
	defaultBreakerMaxFailures = 5
	defaultBreakerMaxRequests = 1
	defaultBreakerTimeout     = time.Minute
)

// Config represents a router configuration.
type Config struct {
	Breaker BreakerConfig `yaml:"breaker"`
}

// BreakerConfig represents remote delivery circuit breaker configuration.
type BreakerConfig struct {
	// MaxFailures is the number of consecutive failures opening the circuit.
	MaxFailures uint32

	// MaxRequests is the number of requests allowed while half-open.
	MaxRequests uint32

	// Interval is the cyclic period at which closed state counts are cleared.
	Interval time.Duration

	// Timeout is the period of the open state before switching to half-open.
	Timeout time.Duration
}

type breakerConfigProxy struct {
	MaxFailures uint32 `yaml:"max_failures"`
	MaxRequests uint32 `yaml:"max_requests"`
	Interval    int    `yaml:"interval"`
	Timeout     int    `yaml:"timeout"`
}

func defaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxFailures: defaultBreakerMaxFailures,
		MaxRequests: defaultBreakerMaxRequests,
		Timeout:     defaultBreakerTimeout,
	}
}

// UnmarshalYAML satisfies Unmarshaler interface.
func (c *BreakerConfig) UnmarshalYAML(unmarshal func(interface{}) error) error {
	p := breakerConfigProxy{}
	if err := unmarshal(&p); err != nil {
		return err
	}
	if p.Interval < 0 || p.Timeout < 0 {
		return errors.New("router: breaker interval and timeout must not be negative")
	}
	*c = defaultBreakerConfig()
	if p.MaxFailures > 0 {
		c.MaxFailures = p.MaxFailures
	}
	if p.MaxRequests > 0 {
		c.MaxRequests = p.MaxRequests
	}
	if p.Interval > 0 {
		c.Interval = time.Duration(p.Interval) * time.Second
	}
	if p.Timeout > 0 {
		c.Timeout = time.Duration(p.Timeout) * time.Second
	}
	return nil
}

// DefaultConfig returns the router configuration used when none is provided.
func DefaultConfig() Config {
	return Config{Breaker: defaultBreakerConfig()}
}

// UnmarshalYAML satisfies Unmarshaler interface.
func (c *Config) UnmarshalYAML(unmarshal func(interface{}) error) error {
	type configProxy Config
	p := configProxy(DefaultConfig())
	if err := unmarshal(&p); err != nil {
		return err
	}
	*c = Config(p)
	return nil
}
