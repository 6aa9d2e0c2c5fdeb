/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package xmpp

import (
	"strconv"
	"strings"

	"github.com/ortuman/vysper/xmpp/jid"
	"github.com/pkg/errors"
)

const (
	// AvailableType represents an 'available' Presence type.
	AvailableType = ""

	// UnavailableType represents a 'unavailable' Presence type.
	UnavailableType = "unavailable"

	// SubscribeType represents a 'subscribe' Presence type.
	SubscribeType = "subscribe"

	// UnsubscribeType represents a 'unsubscribe' Presence type.
	UnsubscribeType = "unsubscribe"

	// SubscribedType represents a 'subscribed' Presence type.
	SubscribedType = "subscribed"

	// UnsubscribedType represents a 'unsubscribed' Presence type.
	UnsubscribedType = "unsubscribed"

	// ProbeType represents a 'probe' Presence type.
	ProbeType = "probe"
)

// ShowState represents Presence show state.
type ShowState int

const (
	// AvailableShowState represents 'available' Presence show state.
	AvailableShowState ShowState = iota

	// AwayShowState represents 'away' Presence show state.
	AwayShowState

	// ChatShowState represents 'chat' Presence show state.
	ChatShowState

	// DoNotDisturbShowState represents 'dnd' Presence show state.
	DoNotDisturbShowState

	// ExtendedAwayShowState represents 'xa' Presence show state.
	ExtendedAwayShowState
)

var showStates = map[string]ShowState{
	"away": AwayShowState,
	"chat": ChatShowState,
	"dnd":  DoNotDisturbShowState,
	"xa":   ExtendedAwayShowState,
}

// String returns the <show/> element value of the state.
// The available state is represented by an absent element.
func (s ShowState) String() string {
	for text, st := range showStates {
		if st == s {
			return text
		}
	}
	return ""
}

// Presence type represents a <presence> element.
type Presence struct {
	stanzaElement
	showState ShowState
	priority  int8
}

// NewPresenceFromElement creates a Presence object from XElement.
func NewPresenceFromElement(e XElement, from *jid.JID, to *jid.JID) (*Presence, error) {
	if e.Name() != PresenceName {
		return nil, errors.Errorf("xmpp: wrong Presence element name: %s", e.Name())
	}
	if !isPresenceType(e.Type()) {
		return nil, errors.Errorf(`xmpp: invalid Presence "type" attribute: %s`, e.Type())
	}
	p := &Presence{}
	p.init(e, from, to)

	if err := p.parseShow(); err != nil {
		return nil, err
	}
	if err := p.validateStatus(); err != nil {
		return nil, err
	}
	if err := p.parsePriority(); err != nil {
		return nil, err
	}
	return p, nil
}

// NewPresence creates and returns a new Presence element.
func NewPresence(from *jid.JID, to *jid.JID, presenceType string, children ...XElement) *Presence {
	b := NewElementBuilder(PresenceName).WithType(presenceType)
	b.AppendElements(children)

	p := &Presence{}
	p.init(b.Build(), from, to)
	_ = p.parseShow()
	_ = p.parsePriority()
	return p
}

// IsAvailable returns true if this is an 'available' type Presence.
func (p *Presence) IsAvailable() bool {
	return p.Type() == AvailableType
}

// IsUnavailable returns true if this is an 'unavailable' type Presence.
func (p *Presence) IsUnavailable() bool {
	return p.Type() == UnavailableType
}

// IsSubscribe returns true if this is a 'subscribe' type Presence.
func (p *Presence) IsSubscribe() bool {
	return p.Type() == SubscribeType
}

// IsUnsubscribe returns true if this is an 'unsubscribe' type Presence.
func (p *Presence) IsUnsubscribe() bool {
	return p.Type() == UnsubscribeType
}

// IsSubscribed returns true if this is a 'subscribed' type Presence.
func (p *Presence) IsSubscribed() bool {
	return p.Type() == SubscribedType
}

// IsUnsubscribed returns true if this is an 'unsubscribed' type Presence.
func (p *Presence) IsUnsubscribed() bool {
	return p.Type() == UnsubscribedType
}

// IsProbe returns true if this is a 'probe' type Presence.
func (p *Presence) IsProbe() bool {
	return p.Type() == ProbeType
}

// IsSubscription returns true if the presence takes part in subscription management.
func (p *Presence) IsSubscription() bool {
	return isSubscriptionType(p.Type())
}

// Status returns presence stanza default status.
func (p *Presence) Status() string {
	if st := p.Elements().Child("status"); st != nil {
		return st.Text()
	}
	return ""
}

// ShowState returns presence stanza show state.
func (p *Presence) ShowState() ShowState {
	return p.showState
}

// Priority returns presence stanza priority value.
func (p *Presence) Priority() int8 {
	return p.priority
}

func isPresenceType(presenceType string) bool {
	switch presenceType {
	case ErrorType, AvailableType, UnavailableType, ProbeType:
		return true
	}
	return isSubscriptionType(presenceType)
}

func isSubscriptionType(presenceType string) bool {
	switch presenceType {
	case SubscribeType, SubscribedType, UnsubscribeType, UnsubscribedType:
		return true
	}
	return false
}

func (p *Presence) validateStatus() error {
	for _, st := range p.elements.Children("status") {
		attrs := st.Attributes()
		switch {
		case attrs.Count() == 0:
		case attrs.Count() == 1 && attrs.Has("xml:lang"):
		default:
			return errors.New("xmpp: the <status/> element MUST NOT possess any attributes, with the exception of the 'xml:lang' attribute")
		}
	}
	return nil
}

func (p *Presence) parseShow() error {
	p.showState = AvailableShowState

	shs := p.elements.Children("show")
	if len(shs) == 0 {
		return nil
	}
	if len(shs) > 1 {
		return errors.New("xmpp: Presence stanza MUST NOT contain more than one <show/> element")
	}
	if shs[0].Attributes().Count() > 0 {
		return errors.New("xmpp: the <show/> element MUST NOT possess any attributes")
	}
	st, ok := showStates[shs[0].Text()]
	if !ok {
		return errors.Errorf("xmpp: invalid Presence show state: %s", shs[0].Text())
	}
	p.showState = st
	return nil
}

func (p *Presence) parsePriority() error {
	ps := p.elements.Children("priority")
	if len(ps) == 0 {
		return nil
	}
	if len(ps) > 1 {
		return errors.New("xmpp: a Presence stanza MUST NOT contain more than one <priority/> element")
	}
	pr, err := strconv.ParseInt(strings.TrimSpace(ps[0].Text()), 10, 8)
	if err != nil {
		return errors.Wrap(err, "xmpp: priority value MUST be an integer between -128 and +127")
	}
	p.priority = int8(pr)
	return nil
}
