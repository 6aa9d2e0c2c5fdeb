/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package badgerdb

import (
	"bytes"
	"context"
	"encoding/gob"

	"github.com/dgraph-io/badger/v4"
	"github.com/ortuman/vysper/model/rostermodel"
)

type badgerDBRoster struct {
	*badgerDBStorage
}

func (b *badgerDBRoster) UpsertRosterItem(_ context.Context, ri *rostermodel.Item) error {
	return b.db.Update(func(tx *badger.Txn) error {
		return b.upsert(ri, rosterItemKey(ri.Username, ri.JID), tx)
	})
}

func (b *badgerDBRoster) DeleteRosterItem(_ context.Context, username, jid string) error {
	return b.db.Update(func(tx *badger.Txn) error {
		key := rosterItemKey(username, jid)
		val, err := b.getVal(key, tx)
		if err != nil {
			return err
		}
		if val == nil {
			return rostermodel.ErrItemNotFound
		}
		return tx.Delete(key)
	})
}

// FetchRosterItems returns user roster items in key order.
func (b *badgerDBRoster) FetchRosterItems(_ context.Context, username string) ([]rostermodel.Item, error) {
	var ris []rostermodel.Item
	err := b.db.View(func(tx *badger.Txn) error {
		return b.forEachKeyAndValue(rosterItemsPrefix(username), tx, func(_, val []byte) error {
			var ri rostermodel.Item
			if err := gob.NewDecoder(bytes.NewReader(val)).Decode(&ri); err != nil {
				return err
			}
			ris = append(ris, ri)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return ris, nil
}

func (b *badgerDBRoster) FetchRosterItem(_ context.Context, username, jid string) (*rostermodel.Item, error) {
	var ri rostermodel.Item
	var found bool
	err := b.db.View(func(tx *badger.Txn) error {
		var err error
		found, err = b.fetch(&ri, rosterItemKey(username, jid), tx)
		return err
	})
	if err != nil || !found {
		return nil, err
	}
	return &ri, nil
}

func rosterItemsPrefix(username string) []byte {
	return []byte("rosterItems:" + username + ":")
}

func rosterItemKey(username, jid string) []byte {
	return append(rosterItemsPrefix(username), jid...)
}
