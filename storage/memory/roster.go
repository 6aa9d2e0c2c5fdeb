/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package memorystorage

import (
	"context"
	"sync"

	"github.com/ortuman/vysper/model/rostermodel"
)

// Roster represents an in-memory roster repository.
// Items keep their insertion order per user.
type Roster struct {
	mu    sync.RWMutex
	items map[string][]rostermodel.Item
}

// NewRoster returns an empty in-memory roster repository.
func NewRoster() *Roster {
	return &Roster{items: make(map[string][]rostermodel.Item)}
}

// UpsertRosterItem inserts a new roster item entity into storage, or updates it in case it's been previously inserted.
func (m *Roster) UpsertRosterItem(_ context.Context, ri *rostermodel.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ris := m.items[ri.Username]
	for i := range ris {
		if ris[i].JID == ri.JID {
			ris[i] = copyItem(ri)
			return nil
		}
	}
	m.items[ri.Username] = append(ris, copyItem(ri))
	return nil
}

// DeleteRosterItem deletes a roster item entity from storage.
func (m *Roster) DeleteRosterItem(_ context.Context, username, jid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ris := m.items[username]
	for i := range ris {
		if ris[i].JID == jid {
			m.items[username] = append(ris[:i:i], ris[i+1:]...)
			return nil
		}
	}
	return rostermodel.ErrItemNotFound
}

// FetchRosterItems retrieves from storage all roster item entities associated to a given user.
func (m *Roster) FetchRosterItems(_ context.Context, username string) ([]rostermodel.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ris := m.items[username]
	ret := make([]rostermodel.Item, 0, len(ris))
	for i := range ris {
		ret = append(ret, copyItem(&ris[i]))
	}
	return ret, nil
}

// FetchRosterItem retrieves from storage a roster item entity.
func (m *Roster) FetchRosterItem(_ context.Context, username, jid string) (*rostermodel.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, ri := range m.items[username] {
		if ri.JID == jid {
			it := copyItem(&ri)
			return &it, nil
		}
	}
	return nil, nil
}

func copyItem(ri *rostermodel.Item) rostermodel.Item {
	it := *ri
	if ri.Groups != nil {
		it.Groups = append([]string(nil), ri.Groups...)
	}
	return it
}
