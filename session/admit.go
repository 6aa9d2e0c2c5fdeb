/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package session

import (
	"github.com/ortuman/vysper/xmpp"
	"github.com/ortuman/vysper/xmpp/streamerror"
)

// Admit checks whether elem may be processed in the current state of ctx.
//
// A non nil result is always a *streamerror.Error and must be
// considered fatal, except for ErrTerminated which is returned
// for ended sessions.
func Admit(elem xmpp.XElement, ctx *Context) error {
	if ctx.IsTerminated() {
		return ErrTerminated
	}
	st := ctx.State()

	switch elem.Namespace() {
	case xmpp.NamespaceTLS:
		if elem.Name() != "starttls" {
			return streamerror.ErrUnsupportedStanzaType
		}
		if st != Initiated {
			return streamerror.ErrNotAuthorized
		}
		return nil

	case xmpp.NamespaceSASL:
		switch elem.Name() {
		case "auth", "response", "abort":
		default:
			return streamerror.ErrUnsupportedStanzaType
		}
		if !saslAllowed(st, ctx.TLSRequired()) {
			return streamerror.ErrNotAuthorized
		}
		return nil
	}

	switch elem.Name() {
	case xmpp.IQName:
		if st != Authenticated {
			return streamerror.ErrNotAuthorized
		}
		if isBindIQ(elem) {
			return nil
		}
		if !ctx.IsBound() {
			return streamerror.ErrNotAuthorized
		}
		return nil

	case xmpp.PresenceName, xmpp.MessageName:
		if st != Authenticated || !ctx.IsBound() {
			return streamerror.ErrNotAuthorized
		}
		return nil
	}
	return streamerror.ErrUnsupportedStanzaType
}

func saslAllowed(st State, tlsRequired bool) bool {
	switch st {
	case Encrypted:
		return true
	case Initiated:
		return !tlsRequired
	}
	return false
}

func isBindIQ(elem xmpp.XElement) bool {
	return elem.Elements().ChildNamespace("bind", xmpp.NamespaceBind) != nil
}
