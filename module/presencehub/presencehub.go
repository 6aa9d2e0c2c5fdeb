/*
 * Copyright (c) 2019 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package presencehub

import (
	"sync"

	"github.com/ortuman/vysper/xmpp"
	"github.com/ortuman/vysper/xmpp/jid"
)

// Cache keeps the latest available presence received from every bound resource.
//
// Entries of a bare JID are ordered by insertion, most recent first.
// Re-inserting a resource presence moves it to the front.
type Cache struct {
	mu        sync.RWMutex
	presences map[string]*xmpp.Presence // by full JID
	order     map[string][]string       // bare JID -> full JIDs, most recent first
}

// New returns an empty presence cache.
func New() *Cache {
	return &Cache{
		presences: make(map[string]*xmpp.Presence),
		order:     make(map[string][]string),
	}
}

// Put stores presence as the latest one of its sender resource.
// It reports whether the resource already had a cached presence.
func (c *Cache) Put(presence *xmpp.Presence) (alreadyRegistered bool) {
	from := presence.FromJID()
	if from == nil || !from.IsFull() {
		return false
	}
	key := from.String()
	bare := from.ToBareJID().String()

	c.mu.Lock()
	defer c.mu.Unlock()

	_, alreadyRegistered = c.presences[key]
	c.presences[key] = presence
	c.order[bare] = append([]string{key}, without(c.order[bare], key)...)
	return alreadyRegistered
}

// Get returns the cached presence of full, or nil.
func (c *Cache) Get(full *jid.JID) *xmpp.Presence {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.presences[full.String()]
}

// Remove deletes the cached presence of full. It reports whether an entry was removed.
func (c *Cache) Remove(full *jid.JID) bool {
	key := full.String()
	bare := full.ToBareJID().String()

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.presences[key]; !ok {
		return false
	}
	delete(c.presences, key)
	if keys := without(c.order[bare], key); len(keys) > 0 {
		c.order[bare] = keys
	} else {
		delete(c.order, bare)
	}
	return true
}

// ForBareJID returns every cached presence of bare, most recent first.
func (c *Cache) ForBareJID(bare *jid.JID) []*xmpp.Presence {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := c.order[bare.ToBareJID().String()]
	ret := make([]*xmpp.Presence, 0, len(keys))
	for _, key := range keys {
		ret = append(ret, c.presences[key])
	}
	return ret
}

// LatestForBareJID returns the most recently inserted presence of bare, or nil.
func (c *Cache) LatestForBareJID(bare *jid.JID) *xmpp.Presence {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := c.order[bare.ToBareJID().String()]
	if len(keys) == 0 {
		return nil
	}
	return c.presences[keys[0]]
}

// Len returns the number of cached presences.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.presences)
}

func without(keys []string, key string) []string {
	ret := make([]string, 0, len(keys))
	for _, k := range keys {
		if k != key {
			ret = append(ret, k)
		}
	}
	return ret
}
