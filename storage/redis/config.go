/*
 * Copyright (c) 2019 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package redisstorage

const (
	defaultAddr   = "localhost:6379"
	defaultPrefix = "vysper:"
)

// Config represents Redis storage configuration.
type Config struct {
	Addr     string `yaml:"addr"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

type configProxy Config

// UnmarshalYAML satisfies Unmarshaler interface.
func (c *Config) UnmarshalYAML(unmarshal func(interface{}) error) error {
	p := configProxy{}
	if err := unmarshal(&p); err != nil {
		return err
	}
	*c = Config(p)
	if len(c.Addr) == 0 {
		c.Addr = defaultAddr
	}
	if len(c.Prefix) == 0 {
		c.Prefix = defaultPrefix
	}
	return nil
}
