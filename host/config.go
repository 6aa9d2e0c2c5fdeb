/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package host

import "github.com/pkg/errors"

// TLSConfig represents a host TLS configuration.
type TLSConfig struct {
	CertFile    string `yaml:"cert_path"`
	PrivKeyFile string `yaml:"privkey_path"`
}

// Config represents a host configuration.
type Config struct {
	Name string
	TLS  TLSConfig
}

type configProxy struct {
	Name string    `yaml:"name"`
	TLS  TLSConfig `yaml:"tls"`
}

// UnmarshalYAML satisfies Unmarshaler interface.
func (c *Config) UnmarshalYAML(unmarshal func(interface{}) error) error {
	p := configProxy{}
	if err := unmarshal(&p); err != nil {
		return err
	}
	if len(p.Name) == 0 {
		return errors.New("host: name is required")
	}
	if (len(p.TLS.CertFile) == 0) != (len(p.TLS.PrivKeyFile) == 0) {
		return errors.Errorf("host: both cert_path and privkey_path must be set for %s", p.Name)
	}
	c.Name = p.Name
	c.TLS = p.TLS
	return nil
}
