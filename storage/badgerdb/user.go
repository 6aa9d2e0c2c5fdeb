/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package badgerdb

import (
	"context"

	"github.com/dgraph-io/badger/v4"
	"github.com/ortuman/vysper/model"
)

type badgerDBUser struct {
	*badgerDBStorage
}

func (b *badgerDBUser) UpsertUser(_ context.Context, user *model.User) error {
	return b.db.Update(func(tx *badger.Txn) error {
		return b.upsert(user, userKey(user.Username), tx)
	})
}

func (b *badgerDBUser) DeleteUser(_ context.Context, username string) error {
	return b.db.Update(func(tx *badger.Txn) error {
		var keys [][]byte
		err := b.forEachKeyAndValue(rosterItemsPrefix(username), tx, func(k, _ []byte) error {
			keys = append(keys, k)
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range keys {
			if err := tx.Delete(k); err != nil {
				return err
			}
		}
		return tx.Delete(userKey(username))
	})
}

func (b *badgerDBUser) FetchUser(_ context.Context, username string) (*model.User, error) {
	var usr model.User
	var found bool
	err := b.db.View(func(tx *badger.Txn) error {
		var err error
		found, err = b.fetch(&usr, userKey(username), tx)
		return err
	})
	if err != nil || !found {
		return nil, err
	}
	return &usr, nil
}

func (b *badgerDBUser) UserExists(_ context.Context, username string) (bool, error) {
	var exists bool
	err := b.db.View(func(tx *badger.Txn) error {
		val, err := b.getVal(userKey(username), tx)
		exists = val != nil
		return err
	})
	return exists, err
}

func userKey(username string) []byte {
	return []byte("users:" + username)
}
