/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package rostermodel

import (
	"unicode/utf8"

	"github.com/ortuman/vysper/xmpp"
	"github.com/ortuman/vysper/xmpp/jid"
	"github.com/pkg/errors"
)

const maxNameLength = 1023

// Subscription represents a roster item subscription state.
type Subscription string

// roster item subscription values
const (
	SubscriptionNone   Subscription = "none"
	SubscriptionFrom   Subscription = "from"
	SubscriptionTo     Subscription = "to"
	SubscriptionBoth   Subscription = "both"
	SubscriptionRemove Subscription = "remove"
)

// Ask represents a pending subscription request attached to an item.
type Ask string

const (
	// AskNone means no request is pending.
	AskNone Ask = ""

	// AskSubscribe means the owner asked the contact for a subscription.
	AskSubscribe Ask = "subscribe"

	// AskSubscribed means the contact asked the owner and awaits approval.
	// It is kept server side and never rendered.
	AskSubscribed Ask = "subscribed"

	// AskBoth means both AskSubscribe and AskSubscribed are pending.
	AskBoth Ask = "both"
)

var (
	// ErrItemNotFound is returned when a roster item does not exist.
	ErrItemNotFound = errors.New("rostermodel: item not found")

	// ErrBadRequest is returned when a roster item payload is malformed.
	ErrBadRequest = errors.New("rostermodel: bad request")

	// ErrNotAcceptable is returned when a roster item payload violates roster rules.
	ErrNotAcceptable = errors.New("rostermodel: not acceptable")
)

// Item represents a roster item storage entity.
type Item struct {
	Username     string
	JID          string
	Name         string
	Subscription Subscription
	Ask          Ask
	Groups       []string
}

// NewItem parses an XML element returning a derived roster item instance.
// Returned errors have ErrBadRequest or ErrNotAcceptable as cause.
func NewItem(elem xmpp.XElement) (*Item, error) {
	if elem.Name() != "item" {
		return nil, errors.Wrapf(ErrBadRequest, "invalid item element name: %s", elem.Name())
	}
	ri := &Item{}
	jidStr := elem.Attributes().Get("jid")
	if len(jidStr) == 0 {
		return nil, errors.Wrap(ErrBadRequest, "item 'jid' attribute is required")
	}
	j, err := jid.NewWithString(jidStr, false)
	if err != nil {
		return nil, errors.Wrap(ErrBadRequest, err.Error())
	}
	ri.JID = j.ToBareJID().String()

	ri.Name = elem.Attributes().Get("name")
	if utf8.RuneCountInString(ri.Name) > maxNameLength {
		return nil, errors.Wrap(ErrNotAcceptable, "item name too long")
	}
	switch sub := Subscription(elem.Attributes().Get("subscription")); sub {
	case "":
		ri.Subscription = SubscriptionNone
	case SubscriptionBoth, SubscriptionFrom, SubscriptionTo, SubscriptionNone, SubscriptionRemove:
		ri.Subscription = sub
	default:
		return nil, errors.Wrapf(ErrBadRequest, "unrecognized 'subscription' enum type: %s", sub)
	}
	switch ask := elem.Attributes().Get("ask"); ask {
	case "":
		break
	case string(AskSubscribe):
		ri.Ask = AskSubscribe
	default:
		return nil, errors.Wrapf(ErrBadRequest, "unrecognized 'ask' enum type: %s", ask)
	}
	seen := make(map[string]struct{})
	for _, group := range elem.Elements().Children("group") {
		if group.Attributes().Count() > 0 {
			return nil, errors.Wrap(ErrBadRequest, "group element must not contain any attribute")
		}
		name := group.Text()
		if len(name) == 0 {
			return nil, errors.Wrap(ErrNotAcceptable, "empty group name")
		}
		if _, ok := seen[name]; ok {
			return nil, errors.Wrapf(ErrBadRequest, "duplicated group: %s", name)
		}
		seen[name] = struct{}{}
		ri.Groups = append(ri.Groups, name)
	}
	return ri, nil
}

// HasTo reports whether the owner receives the contact presence.
func (ri *Item) HasTo() bool {
	return ri.Subscription == SubscriptionTo || ri.Subscription == SubscriptionBoth
}

// HasFrom reports whether the contact receives the owner presence.
func (ri *Item) HasFrom() bool {
	return ri.Subscription == SubscriptionFrom || ri.Subscription == SubscriptionBoth
}

// PendingOut reports whether the owner awaits the contact approval.
func (ri *Item) PendingOut() bool {
	return ri.Ask == AskSubscribe || ri.Ask == AskBoth
}

// PendingIn reports whether the contact awaits the owner approval.
func (ri *Item) PendingIn() bool {
	return ri.Ask == AskSubscribed || ri.Ask == AskBoth
}

// Element returns a roster item XML element representation.
func (ri *Item) Element() xmpp.XElement {
	b := xmpp.NewElementBuilder("item").
		WithAttribute("jid", ri.JID).
		WithAttribute("name", ri.Name).
		WithAttribute("subscription", string(ri.Subscription))
	if ri.PendingOut() {
		b.WithAttribute("ask", string(AskSubscribe))
	}
	for _, group := range ri.Groups {
		b.AppendElement(xmpp.NewElementBuilder("group").WithText(group).Build())
	}
	return b.Build()
}

// ContactJID parses and returns roster item contact JID.
func (ri *Item) ContactJID() *jid.JID {
	j, _ := jid.NewWithString(ri.JID, true)
	return j
}

// OwnerJID parses and returns roster item owner bare JID.
func (ri *Item) OwnerJID() *jid.JID {
	j, _ := jid.NewWithString(ri.Username, true)
	return j
}
