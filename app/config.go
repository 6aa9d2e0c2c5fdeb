/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package app

import (
	"bytes"
	"os"

	"github.com/ortuman/vysper/c2s"
	"github.com/ortuman/vysper/host"
	"github.com/ortuman/vysper/log"
	"github.com/ortuman/vysper/module"
	"github.com/ortuman/vysper/router"
	"github.com/ortuman/vysper/storage"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// debugConfig represents debug server configuration.
type debugConfig struct {
	Port int `yaml:"port"`
}

// Config represents a global configuration.
type Config struct {
	PIDFile string
	Debug   debugConfig
	Logger  log.Config
	Storage storage.Config
	Hosts   []host.Config
	C2S     []c2s.Config
	Router  router.Config
	Modules module.Config
}

type configProxy struct {
	PIDFile string         `yaml:"pid_path"`
	Debug   debugConfig    `yaml:"debug"`
	Logger  *log.Config    `yaml:"logger"`
	Storage storage.Config `yaml:"storage"`
	Hosts   []host.Config  `yaml:"hosts"`
	C2S     []c2s.Config   `yaml:"c2s"`
	Router  *router.Config `yaml:"router"`
	Modules *module.Config `yaml:"modules"`
}

// UnmarshalYAML satisfies Unmarshaler interface.
func (cfg *Config) UnmarshalYAML(unmarshal func(interface{}) error) error {
	p := configProxy{}
	if err := unmarshal(&p); err != nil {
		return err
	}
	if len(p.C2S) == 0 {
		return errors.New("app.Config: at least one c2s listener must be configured")
	}
	cfg.PIDFile = p.PIDFile
	cfg.Debug = p.Debug
	if p.Logger != nil {
		cfg.Logger = *p.Logger
	} else {
		cfg.Logger = log.Config{Level: log.InfoLevel}
	}
	cfg.Storage = p.Storage
	cfg.Hosts = p.Hosts
	cfg.C2S = p.C2S
	if p.Router != nil {
		cfg.Router = *p.Router
	} else {
		cfg.Router = router.DefaultConfig()
	}
	if p.Modules != nil {
		cfg.Modules = *p.Modules
	} else {
		cfg.Modules = module.DefaultConfig()
	}
	return nil
}

// FromFile loads default global configuration from
// a specified file.
func (cfg *Config) FromFile(configFile string) error {
	b, err := os.ReadFile(configFile)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(b, cfg)
}

// FromBuffer loads default global configuration from
// a specified byte buffer.
func (cfg *Config) FromBuffer(buf *bytes.Buffer) error {
	return yaml.Unmarshal(buf.Bytes(), cfg)
}
