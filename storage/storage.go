/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package storage

import (
	"github.com/ortuman/vysper/storage/badgerdb"
	memorystorage "github.com/ortuman/vysper/storage/memory"
	"github.com/ortuman/vysper/storage/mysql"
	"github.com/ortuman/vysper/storage/pgsql"
	redisstorage "github.com/ortuman/vysper/storage/redis"
	"github.com/ortuman/vysper/storage/repository"
	"github.com/pkg/errors"
)

// New initializes the configured storage backend and returns its repository container.
// A nil configuration selects the in-memory backend.
func New(cfg *Config) (repository.Container, error) {
	if cfg == nil {
		return memorystorage.New(), nil
	}
	switch cfg.Type {
	case Memory:
		return memorystorage.New(), nil
	case PgSQL:
		return pgsql.New(cfg.PgSQL)
	case MySQL:
		return mysql.New(cfg.MySQL)
	case Redis:
		return redisstorage.New(cfg.Redis)
	case BadgerDB:
		return badgerdb.New(cfg.BadgerDB)
	}
	return nil, errors.Errorf("storage: unrecognized storage type: %d", cfg.Type)
}
