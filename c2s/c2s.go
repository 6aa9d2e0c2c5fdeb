/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package c2s

import (
	"context"
	"sync"

	"github.com/ortuman/vysper/auth"
	"github.com/ortuman/vysper/log"
	"github.com/ortuman/vysper/module"
	"github.com/ortuman/vysper/router"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

var sessionsGauge = prometheus.NewGauge(prometheus.GaugeOpts{
	Namespace: "vysper",
	Subsystem: "c2s",
	Name:      "sessions",
	Help:      "Number of open client sessions.",
})

func init() {
	prometheus.MustRegister(sessionsGauge)
}

// C2S represents the client-to-server subsystem, holding one listener
// per configuration.
type C2S struct {
	mu      sync.RWMutex
	servers map[string]*server
	started bool
}

// New returns a C2S subsystem serving every configuration in configs.
func New(configs []Config, hosts hostProvider, accounts auth.AccountVerifier, relay *router.Relay, mods *module.Modules) (*C2S, error) {
	if len(configs) == 0 {
		return nil, errors.New("c2s: at least one listener must be configured")
	}
	c := &C2S{servers: make(map[string]*server)}
	for i := range configs {
		cfg := &configs[i]
		if _, ok := c.servers[cfg.ID]; ok {
			return nil, errors.Errorf("c2s: duplicated listener identifier: %s", cfg.ID)
		}
		c.servers[cfg.ID] = &server{
			cfg:        cfg,
			hosts:      hosts,
			mechanisms: newMechanisms(cfg.SASL, accounts),
			relay:      relay,
			mods:       mods,
			streams:    make(map[string]*inStream),
		}
	}
	return c, nil
}

// Start spawns a connection listener for every configured server.
func (c *C2S) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return nil
	}
	for id, srv := range c.servers {
		if err := srv.start(); err != nil {
			return errors.Wrapf(err, "c2s: failed to start %s listener", id)
		}
	}
	c.started = true
	return nil
}

// Shutdown closes every listener and its active streams.
func (c *C2S) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.started {
		return nil
	}
	for id, srv := range c.servers {
		if err := srv.shutdown(ctx); err != nil {
			log.Warnf("c2s: failed to shutdown %s listener: %v", id, err)
		}
	}
	c.started = false
	return nil
}

// StreamCount returns the number of open client streams.
func (c *C2S) StreamCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var n int
	for _, srv := range c.servers {
		n += srv.streamCount()
	}
	return n
}

func newMechanisms(names []string, accounts auth.AccountVerifier) *auth.Registry {
	var mechs []auth.Mechanism
	for _, name := range names {
		switch name {
		case "plain":
			mechs = append(mechs, auth.NewPlain(accounts))
		case "anonymous":
			mechs = append(mechs, auth.NewAnonymous())
		case "external":
			mechs = append(mechs, auth.NewExternal())
		}
	}
	return auth.NewRegistry(mechs...)
}
