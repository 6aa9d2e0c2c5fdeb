/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package roster

import (
	"context"
	"sync"

	"github.com/ortuman/vysper/model/rostermodel"
)

type ownerLock struct {
	sync.Mutex
	refs int
}

// itemLocks serializes roster item changes per owner bare JID.
type itemLocks struct {
	mu    sync.Mutex
	locks map[string]*ownerLock
}

func newItemLocks() *itemLocks {
	return &itemLocks{locks: make(map[string]*ownerLock)}
}

func (l *itemLocks) lock(owner string) (unlock func()) {
	l.mu.Lock()
	ol := l.locks[owner]
	if ol == nil {
		ol = &ownerLock{}
		l.locks[owner] = ol
	}
	ol.refs++
	l.mu.Unlock()

	ol.Lock()
	return func() {
		ol.Unlock()

		l.mu.Lock()
		ol.refs--
		if ol.refs == 0 {
			delete(l.locks, owner)
		}
		l.mu.Unlock()
	}
}

// modifyItem fetches the owner item for contact, applies fn and stores the result
// when fn reports a change. A missing item is handed to fn as a fresh 'none' item
// only if create is set, otherwise fn is not called.
// The owner roster stays locked from fetch to upsert.
func (r *Roster) modifyItem(ctx context.Context, owner, contact string, create bool, fn func(item *rostermodel.Item) bool) (*rostermodel.Item, bool, error) {
	unlock := r.locks.lock(owner)
	defer unlock()

	item, err := r.rep.FetchRosterItem(ctx, owner, contact)
	if err != nil {
		return nil, false, err
	}
	if item == nil {
		if !create {
			return nil, false, nil
		}
		item = &rostermodel.Item{
			Username:     owner,
			JID:          contact,
			Subscription: rostermodel.SubscriptionNone,
		}
	}
	if !fn(item) {
		return item, false, nil
	}
	if err := r.rep.UpsertRosterItem(ctx, item); err != nil {
		return nil, false, err
	}
	return item, true, nil
}
