/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package storage

import (
	"github.com/ortuman/vysper/storage/badgerdb"
	"github.com/ortuman/vysper/storage/mysql"
	"github.com/ortuman/vysper/storage/pgsql"
	redisstorage "github.com/ortuman/vysper/storage/redis"
	"github.com/pkg/errors"
)

// Type represents a storage backend type.
type Type int

const (
	// Memory represents an in-memory storage type.
	Memory Type = iota

	// PgSQL represents a PostgreSQL storage type.
	PgSQL

	// MySQL represents a MySQL storage type.
	MySQL

	// Redis represents a Redis storage type.
	Redis

	// BadgerDB represents a BadgerDB storage type.
	BadgerDB
)

// Config represents an storage manager configuration.
type Config struct {
	Type     Type
	PgSQL    *pgsql.Config
	MySQL    *mysql.Config
	Redis    *redisstorage.Config
	BadgerDB *badgerdb.Config
}

type storageProxyType struct {
	Type     string               `yaml:"type"`
	PgSQL    *pgsql.Config        `yaml:"pgsql"`
	MySQL    *mysql.Config        `yaml:"mysql"`
	Redis    *redisstorage.Config `yaml:"redis"`
	BadgerDB *badgerdb.Config     `yaml:"badgerdb"`
}

// UnmarshalYAML satisfies Unmarshaler interface.
func (c *Config) UnmarshalYAML(unmarshal func(interface{}) error) error {
	p := storageProxyType{}
	if err := unmarshal(&p); err != nil {
		return err
	}
	switch p.Type {
	case "pgsql":
		if p.PgSQL == nil {
			return errors.New("storage.Config: couldn't read PgSQL configuration")
		}
		c.Type = PgSQL
		c.PgSQL = p.PgSQL

	case "mysql":
		if p.MySQL == nil {
			return errors.New("storage.Config: couldn't read MySQL configuration")
		}
		c.Type = MySQL
		c.MySQL = p.MySQL

	case "redis":
		if p.Redis == nil {
			return errors.New("storage.Config: couldn't read Redis configuration")
		}
		c.Type = Redis
		c.Redis = p.Redis

	case "badgerdb":
		if p.BadgerDB == nil {
			return errors.New("storage.Config: couldn't read BadgerDB configuration")
		}
		c.Type = BadgerDB
		c.BadgerDB = p.BadgerDB

	case "", "memory":
		c.Type = Memory

	default:
		return errors.Errorf("storage.Config: unrecognized storage type: %s", p.Type)
	}
	return nil
}
