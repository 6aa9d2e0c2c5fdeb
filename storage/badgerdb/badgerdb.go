/*
 * Copyright (c) 2019 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package badgerdb

import (
	"bytes"
	"context"
	"encoding/gob"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/ortuman/vysper/log"
	"github.com/ortuman/vysper/storage/repository"
	"github.com/pkg/errors"
)

type badgerDBContainer struct {
	user   *badgerDBUser
	roster *badgerDBRoster

	db       *badger.DB
	gcTicker *time.Ticker
}

// New opens (or creates) a BadgerDB database and returns associated container.
func New(cfg *Config) (repository.Container, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.DataDir), os.ModePerm); err != nil {
		return nil, errors.Wrap(err, "badgerdb: create data directory")
	}
	opts := badger.DefaultOptions(cfg.DataDir).WithLogger(badgerLogger{})
	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrap(err, "badgerdb: open database")
	}
	s := &badgerDBStorage{db: db}
	c := &badgerDBContainer{
		user:     &badgerDBUser{badgerDBStorage: s},
		roster:   &badgerDBRoster{badgerDBStorage: s},
		db:       db,
		gcTicker: time.NewTicker(cfg.GCInterval),
	}
	go c.gcLoop(cfg.GCDiscardRatio)
	return c, nil
}

func (c *badgerDBContainer) User() repository.User     { return c.user }
func (c *badgerDBContainer) Roster() repository.Roster { return c.roster }

func (c *badgerDBContainer) Close(_ context.Context) error {
	c.gcTicker.Stop()
	return c.db.Close()
}

// gcLoop reclaims value log space until ticker is stopped.
func (c *badgerDBContainer) gcLoop(discardRatio float64) {
	for range c.gcTicker.C {
		var err error
		for err == nil {
			err = c.db.RunValueLogGC(discardRatio)
		}
	}
}

type badgerDBStorage struct {
	db *badger.DB
}

// getVal looks for key and returns corresponding value, or nil if not found.
func (b *badgerDBStorage) getVal(key []byte, txn *badger.Txn) ([]byte, error) {
	item, err := txn.Get(key)
	switch err {
	case nil:
		break
	case badger.ErrKeyNotFound:
		return nil, nil
	default:
		return nil, err
	}
	return item.ValueCopy(nil)
}

// fetch retrieves and decodes a database entity, reporting whether it was found.
func (b *badgerDBStorage) fetch(entity interface{}, key []byte, txn *badger.Txn) (bool, error) {
	val, err := b.getVal(key, txn)
	if err != nil || val == nil {
		return false, err
	}
	return true, gob.NewDecoder(bytes.NewReader(val)).Decode(entity)
}

// upsert encodes and stores a database entity.
func (b *badgerDBStorage) upsert(entity interface{}, key []byte, txn *badger.Txn) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(entity); err != nil {
		return err
	}
	return txn.Set(key, buf.Bytes())
}

// forEachKeyAndValue visits every entry whose key starts with prefix.
func (b *badgerDBStorage) forEachKeyAndValue(prefix []byte, txn *badger.Txn, f func(k, v []byte) error) error {
	it := txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()

	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		item := it.Item()
		val, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		if err := f(item.KeyCopy(nil), val); err != nil {
			return err
		}
	}
	return nil
}

type badgerLogger struct{}

func (badgerLogger) Errorf(format string, args ...interface{}) {
	log.Errorf("badgerdb: "+strings.TrimSpace(format), args...)
}

func (badgerLogger) Warningf(format string, args ...interface{}) {
	log.Warnf("badgerdb: "+strings.TrimSpace(format), args...)
}

func (badgerLogger) Infof(format string, args ...interface{}) {
	log.Debugf("badgerdb: "+strings.TrimSpace(format), args...)
}

func (badgerLogger) Debugf(format string, args ...interface{}) {
	log.Debugf("badgerdb: "+strings.TrimSpace(format), args...)
}
