/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package router

import (
	"sync"

	"github.com/google/uuid"
	"github.com/ortuman/vysper/log"
	"github.com/ortuman/vysper/stream"
	"github.com/ortuman/vysper/xmpp/jid"
	"github.com/pkg/errors"
)

// ErrNotAuthenticated is returned when binding a resource for a non authenticated session.
var ErrNotAuthenticated = errors.New("router: session not authenticated")

// ErrResourceNotFound is returned when operating on an unbound resource.
var ErrResourceNotFound = errors.New("router: resource not found")

type boundResource struct {
	stm      stream.C2S
	jid      *jid.JID
	state    ResourceState
	priority int
}

// ResourceRegistry keeps track of every resource bound by local sessions.
//
// Resources are identified by their full JID. A bare JID may have
// zero or many bound resources, kept in binding order.
type ResourceRegistry struct {
	mu        sync.RWMutex
	resources map[string]*boundResource // by full JID
	entities  map[string][]string       // bare JID -> full JIDs
	sessions  map[string][]string       // stream id -> full JIDs
}

// NewResourceRegistry returns an empty resource registry.
func NewResourceRegistry() *ResourceRegistry {
	return &ResourceRegistry{
		resources: make(map[string]*boundResource),
		entities:  make(map[string][]string),
		sessions:  make(map[string][]string),
	}
}

// Bind binds a server generated resource to stm, returning the bound full JID.
func (r *ResourceRegistry) Bind(stm stream.C2S) (*jid.JID, error) {
	return r.BindWithResource(stm, "")
}

// BindWithResource binds requested resource to stm, returning the bound full JID.
// A server generated suffix is appended when requested is already bound
// for the same bare JID. An empty requested value selects a generated resource.
func (r *ResourceRegistry) BindWithResource(stm stream.C2S, requested string) (*jid.JID, error) {
	bare := stm.Context().JID().ToBareJID()
	if len(bare.Node()) == 0 {
		return nil, ErrNotAuthenticated
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	resource := requested
	if len(resource) == 0 {
		resource = uuid.New().String()
	}
	full, err := jid.New(bare.Node(), bare.Domain(), resource, false)
	if err != nil {
		return nil, err
	}
	if _, ok := r.resources[full.String()]; ok {
		// conflict: keep the requested resource as prefix
		full, err = jid.New(bare.Node(), bare.Domain(), resource+"-"+uuid.New().String(), false)
		if err != nil {
			return nil, err
		}
	}
	key := full.String()
	r.resources[key] = &boundResource{stm: stm, jid: full, state: Connected}
	r.entities[bare.String()] = append(r.entities[bare.String()], key)
	r.sessions[stm.ID()] = append(r.sessions[stm.ID()], key)

	log.Infof("bound resource... (%s)", key)
	return full, nil
}

// Unbind unbinds a single resource. It reports whether the owning session
// has no bound resource left.
func (r *ResourceRegistry) Unbind(full *jid.JID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := full.String()
	res := r.resources[key]
	if res == nil {
		return false
	}
	r.unbindKey(key, res)

	sid := res.stm.ID()
	r.sessions[sid] = removeString(r.sessions[sid], key)
	if len(r.sessions[sid]) > 0 {
		return false
	}
	delete(r.sessions, sid)
	return true
}

// UnbindSession unbinds every resource bound by stm, returning their full JIDs.
func (r *ResourceRegistry) UnbindSession(stm stream.C2S) []*jid.JID {
	r.mu.Lock()
	defer r.mu.Unlock()

	var ret []*jid.JID
	for _, key := range r.sessions[stm.ID()] {
		res := r.resources[key]
		if res == nil {
			continue
		}
		r.unbindKey(key, res)
		ret = append(ret, res.jid)
	}
	delete(r.sessions, stm.ID())
	return ret
}

func (r *ResourceRegistry) unbindKey(key string, res *boundResource) {
	delete(r.resources, key)

	bare := res.jid.ToBareJID().String()
	r.entities[bare] = removeString(r.entities[bare], key)
	if len(r.entities[bare]) == 0 {
		delete(r.entities, bare)
	}
	log.Infof("unbound resource... (%s)", key)
}

// UniqueResourceForSession returns the only resource bound by stm,
// or nil if stm bound none or more than one.
func (r *ResourceRegistry) UniqueResourceForSession(stm stream.C2S) *jid.JID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := r.sessions[stm.ID()]
	if len(keys) != 1 {
		return nil
	}
	if res := r.resources[keys[0]]; res != nil {
		return res.jid
	}
	return nil
}

// SetState sets full resource state. It reports whether the state effectively changed.
func (r *ResourceRegistry) SetState(full *jid.JID, st ResourceState) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	res := r.resources[full.String()]
	if res == nil {
		return false, ErrResourceNotFound
	}
	changed := res.state != st
	res.state = st
	return changed, nil
}

// State returns full resource state.
func (r *ResourceRegistry) State(full *jid.JID) (ResourceState, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	res := r.resources[full.String()]
	if res == nil {
		return Connected, false
	}
	return res.state, true
}

// SetPriority sets full resource priority.
func (r *ResourceRegistry) SetPriority(full *jid.JID, priority int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if res := r.resources[full.String()]; res != nil {
		res.priority = priority
	}
}

// Priority returns full resource priority, 0 if not bound.
func (r *ResourceRegistry) Priority(full *jid.JID) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if res := r.resources[full.String()]; res != nil {
		return res.priority
	}
	return 0
}

// AvailableResources returns every available resource of bare.
func (r *ResourceRegistry) AvailableResources(bare *jid.JID) []*jid.JID {
	return r.filterResources(bare, func(res *boundResource) bool { return res.state.IsAvailable() })
}

// InterestedResources returns every interested resource of bare.
func (r *ResourceRegistry) InterestedResources(bare *jid.JID) []*jid.JID {
	return r.filterResources(bare, func(res *boundResource) bool { return res.state.IsInterested() })
}

// BoundResources returns the resources bound for j. When considerBare is false and
// j is a full JID, the result is limited to that resource.
func (r *ResourceRegistry) BoundResources(j *jid.JID, considerBare bool) []*jid.JID {
	if !considerBare && j.IsFull() {
		r.mu.RLock()
		defer r.mu.RUnlock()
		if res := r.resources[j.String()]; res != nil {
			return []*jid.JID{res.jid}
		}
		return nil
	}
	return r.filterResources(j, func(*boundResource) bool { return true })
}

// Stream returns the stream bound to the full resource, or nil.
func (r *ResourceRegistry) Stream(full *jid.JID) stream.C2S {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if res := r.resources[full.String()]; res != nil {
		return res.stm
	}
	return nil
}

// Sessions returns the streams handling j. A full JID yields only its
// resource stream, a bare JID yields every bound stream.
func (r *ResourceRegistry) Sessions(j *jid.JID) []stream.C2S {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var ret []stream.C2S
	for _, res := range r.lookup(j) {
		ret = append(ret, res.stm)
	}
	return ret
}

// SessionsWithPriority returns every bound stream of j bare JID having
// a priority equal or higher than threshold.
func (r *ResourceRegistry) SessionsWithPriority(j *jid.JID, threshold int) []stream.C2S {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var ret []stream.C2S
	for _, key := range r.entities[j.ToBareJID().String()] {
		if res := r.resources[key]; res != nil && res.priority >= threshold {
			ret = append(ret, res.stm)
		}
	}
	return ret
}

// HighestPrioritySessions returns the highest priority streams of j having a priority
// equal or higher than threshold. Ties are all returned. A bound full JID
// yields its stream regardless of threshold.
func (r *ResourceRegistry) HighestPrioritySessions(j *jid.JID, threshold int) []stream.C2S {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if j.IsFull() {
		if res := r.resources[j.String()]; res != nil {
			return []stream.C2S{res.stm}
		}
		return nil
	}
	var ret []stream.C2S
	current := threshold
	for _, key := range r.entities[j.String()] {
		res := r.resources[key]
		if res == nil {
			continue
		}
		switch {
		case res.priority > current:
			ret = []stream.C2S{res.stm}
			current = res.priority
		case res.priority == current:
			ret = append(ret, res.stm)
		}
	}
	return ret
}

// SessionCount returns the number of bare JIDs with at least one bound resource.
func (r *ResourceRegistry) SessionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entities)
}

// ResourceCount returns the total number of bound resources.
func (r *ResourceRegistry) ResourceCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.resources)
}

func (r *ResourceRegistry) filterResources(j *jid.JID, accept func(*boundResource) bool) []*jid.JID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var ret []*jid.JID
	for _, key := range r.entities[j.ToBareJID().String()] {
		if res := r.resources[key]; res != nil && accept(res) {
			ret = append(ret, res.jid)
		}
	}
	return ret
}

func (r *ResourceRegistry) lookup(j *jid.JID) []*boundResource {
	if j.IsFull() {
		if res := r.resources[j.String()]; res != nil {
			return []*boundResource{res}
		}
		return nil
	}
	var ret []*boundResource
	for _, key := range r.entities[j.String()] {
		if res := r.resources[key]; res != nil {
			ret = append(ret, res)
		}
	}
	return ret
}

func removeString(ss []string, s string) []string {
	for i, v := range ss {
		if v == s {
			return append(ss[:i:i], ss[i+1:]...)
		}
	}
	return ss
}
