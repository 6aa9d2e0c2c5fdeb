/*
 * Copyright (c) 2019 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package pgsql

const (
	defaultPoolSize = 16
	defaultSSLMode  = "disable"
)

// Config represents PgSQL storage configuration.
type Config struct {
	Host     string
	User     string
	Password string
	Database string
	SSLMode  string
	PoolSize int
}

type configProxy struct {
	Host     string `yaml:"host"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
	PoolSize int    `yaml:"pool_size"`
}

// UnmarshalYAML satisfies Unmarshaler interface.
func (c *Config) UnmarshalYAML(unmarshal func(interface{}) error) error {
	p := configProxy{}
	if err := unmarshal(&p); err != nil {
		return err
	}
	c.Host = p.Host
	c.User = p.User
	c.Password = p.Password
	c.Database = p.Database
	c.SSLMode = p.SSLMode
	if len(c.SSLMode) == 0 {
		c.SSLMode = defaultSSLMode
	}
	c.PoolSize = p.PoolSize
	if c.PoolSize == 0 {
		c.PoolSize = defaultPoolSize
	}
	return nil
}
