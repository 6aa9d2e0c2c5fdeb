/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package host

import (
	"crypto/tls"
	"sort"
	"sync"
)

const defaultDomain = "localhost"

// Hosts type represents all local domains set.
type Hosts struct {
	mu          sync.RWMutex
	defaultHost string
	hosts       map[string]tls.Certificate
}

// New returns the set of local domains described by configs.
// With no configuration a self signed 'localhost' domain is registered.
func New(configs []Config) (*Hosts, error) {
	hs := &Hosts{
		hosts: make(map[string]tls.Certificate),
	}
	if len(configs) == 0 {
		configs = []Config{{Name: defaultDomain}}
	}
	for i, c := range configs {
		cer, err := LoadCertificate(c.TLS.PrivKeyFile, c.TLS.CertFile, c.Name)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			hs.RegisterDefaultHost(c.Name, cer)
		} else {
			hs.RegisterHost(c.Name, cer)
		}
	}
	return hs, nil
}

// RegisterDefaultHost registers default host value along with its certificate.
func (hs *Hosts) RegisterDefaultHost(h string, cer tls.Certificate) {
	hs.mu.Lock()
	defer hs.mu.Unlock()
	hs.defaultHost = h
	hs.hosts[h] = cer
}

// RegisterHost registers a host value along with its certificate.
func (hs *Hosts) RegisterHost(h string, cer tls.Certificate) {
	hs.mu.Lock()
	defer hs.mu.Unlock()
	hs.hosts[h] = cer
}

// DefaultHostName returns default host name value.
func (hs *Hosts) DefaultHostName() string {
	hs.mu.RLock()
	defer hs.mu.RUnlock()
	return hs.defaultHost
}

// IsLocalHost tells whether or not h value corresponds to a local host.
func (hs *Hosts) IsLocalHost(h string) bool {
	hs.mu.RLock()
	defer hs.mu.RUnlock()
	_, ok := hs.hosts[h]
	return ok
}

// HostNames returns the list of all registered local hosts.
func (hs *Hosts) HostNames() []string {
	hs.mu.RLock()
	defer hs.mu.RUnlock()
	var ret []string
	for n := range hs.hosts {
		ret = append(ret, n)
	}
	sort.Strings(ret)
	return ret
}

// Certificates returns all registered domain certificates.
func (hs *Hosts) Certificates() []tls.Certificate {
	hs.mu.RLock()
	defer hs.mu.RUnlock()
	var certs []tls.Certificate
	for _, cer := range hs.hosts {
		if len(cer.Certificate) > 0 {
			certs = append(certs, cer)
		}
	}
	return certs
}

// TLSConfig returns a server TLS configuration holding every domain certificate.
func (hs *Hosts) TLSConfig() *tls.Config {
	return &tls.Config{
		Certificates: hs.Certificates(),
		MinVersion:   tls.VersionTLS12,
	}
}
