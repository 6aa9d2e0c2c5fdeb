/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package module

import (
	"github.com/ortuman/vysper/module/roster"
	"github.com/ortuman/vysper/module/xep0092"
	"github.com/ortuman/vysper/module/xep0199"
	"github.com/pkg/errors"
)

var defaultEnabled = []string{roster.ModuleName, xep0199.ModuleName}

// Config represents C2S modules configuration.
type Config struct {
	Enabled map[string]struct{}
	Version xep0092.Config
	Ping    xep0199.Config
}

type configProxy struct {
	Enabled []string       `yaml:"enabled"`
	Version xep0092.Config `yaml:"mod_version"`
	Ping    xep0199.Config `yaml:"mod_ping"`
}

// DefaultConfig returns the configuration used when none is provided.
func DefaultConfig() Config {
	return Config{Enabled: enabledSet(defaultEnabled)}
}

// IsEnabled reports whether the named module is enabled.
func (cfg *Config) IsEnabled(name string) bool {
	_, ok := cfg.Enabled[name]
	return ok
}

// UnmarshalYAML satisfies Unmarshaler interface.
func (cfg *Config) UnmarshalYAML(unmarshal func(interface{}) error) error {
	p := configProxy{}
	if err := unmarshal(&p); err != nil {
		return err
	}
	if len(p.Enabled) == 0 {
		p.Enabled = defaultEnabled
	}
	// validate modules
	for _, mod := range p.Enabled {
		switch mod {
		case roster.ModuleName, xep0092.ModuleName, xep0199.ModuleName:
			break
		default:
			return errors.Errorf("module.Config: unrecognized module: %s", mod)
		}
	}
	cfg.Enabled = enabledSet(p.Enabled)
	cfg.Version = p.Version
	cfg.Ping = p.Ping
	return nil
}

func enabledSet(names []string) map[string]struct{} {
	enabled := make(map[string]struct{}, len(names))
	for _, name := range names {
		enabled[name] = struct{}{}
	}
	return enabled
}
