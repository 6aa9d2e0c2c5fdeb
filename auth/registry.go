/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package auth

import (
	"github.com/ortuman/vysper/xmpp"
)

// Registry holds the SASL mechanisms supported by the server in preference order.
type Registry struct {
	mechanisms []Mechanism
}

// NewRegistry returns a registry containing mechs.
func NewRegistry(mechs ...Mechanism) *Registry {
	return &Registry{mechanisms: mechs}
}

// Lookup returns the mechanism registered as name.
// ErrMechanismUnavailable is returned when it is unknown or not available.
func (r *Registry) Lookup(name string) (Mechanism, error) {
	for _, m := range r.mechanisms {
		if m.Name() == name {
			if !m.Available() {
				return nil, ErrMechanismUnavailable
			}
			return m, nil
		}
	}
	return nil, ErrMechanismUnavailable
}

// Advertised returns the names of every available mechanism.
func (r *Registry) Advertised() []string {
	var ret []string
	for _, m := range r.mechanisms {
		if m.Available() {
			ret = append(ret, m.Name())
		}
	}
	return ret
}

// MechanismsElement returns the <mechanisms/> stream feature element,
// or nil when no mechanism is available.
func (r *Registry) MechanismsElement() xmpp.XElement {
	names := r.Advertised()
	if len(names) == 0 {
		return nil
	}
	b := xmpp.NewElementBuilderNamespace("mechanisms", xmpp.NamespaceSASL)
	for _, name := range names {
		b.AppendElement(xmpp.NewElementBuilder("mechanism").WithText(name).Build())
	}
	return b.Build()
}
