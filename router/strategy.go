/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package router

import (
	"context"

	"github.com/ortuman/vysper/log"
	"github.com/ortuman/vysper/xmpp"
	"github.com/pkg/errors"
)

// FailureStrategy decides what happens with a failed stanza delivery.
type FailureStrategy interface {
	// Process handles dErr. A non nil result is returned to the relay caller.
	Process(ctx context.Context, r *Relay, dErr *DeliveryError) error
}

var (
	// IgnoreFailureStrategy swallows every delivery failure.
	IgnoreFailureStrategy FailureStrategy = ignoreStrategy{}

	// ReturnErrorToSenderStrategy answers the sender with an error stanza.
	ReturnErrorToSenderStrategy FailureStrategy = returnErrorStrategy{}

	// PropagateFailureStrategy returns the delivery error to the caller.
	PropagateFailureStrategy FailureStrategy = propagateStrategy{}
)

type ignoreStrategy struct{}

func (ignoreStrategy) Process(_ context.Context, _ *Relay, dErr *DeliveryError) error {
	log.Debugf("router: ignored delivery failure: %v", dErr)
	return nil
}

type propagateStrategy struct{}

func (propagateStrategy) Process(_ context.Context, _ *Relay, dErr *DeliveryError) error {
	return dErr
}

type returnErrorStrategy struct{}

func (returnErrorStrategy) Process(ctx context.Context, r *Relay, dErr *DeliveryError) error {
	stanza := dErr.Stanza()
	if stanza.IsError() || stanza.FromJID() == nil {
		return nil // never answer errors
	}
	reply := errorReply(dErr.Cause(), stanza)
	if reply == nil {
		return nil
	}
	return r.Relay(ctx, stanza.FromJID(), reply, IgnoreFailureStrategy)
}

// errorReply returns the stanza answering a delivery failure, or nil if none must be sent.
func errorReply(cause error, stanza xmpp.Stanza) xmpp.Stanza {
	presence, isPresence := stanza.(*xmpp.Presence)

	switch errors.Cause(cause) {
	case ErrLocalRecipientOffline:
		if isPresence {
			return xmpp.NewErrorStanzaFromStanza(stanza, xmpp.ErrRecipientUnavailable, nil)
		}
		return xmpp.NewErrorStanzaFromStanza(stanza, xmpp.ErrServiceUnavailable, nil)

	case ErrNoSuchLocalUser:
		if !isPresence {
			return xmpp.NewErrorStanzaFromStanza(stanza, xmpp.ErrServiceUnavailable, nil)
		}
		switch presence.Type() {
		case xmpp.AvailableType, xmpp.SubscribedType, xmpp.UnsubscribeType,
			xmpp.UnsubscribedType, xmpp.UnavailableType, xmpp.ErrorType:
			return nil
		case xmpp.SubscribeType:
			return xmpp.NewPresence(presence.ToJID().ToBareJID(), presence.FromJID().ToBareJID(), xmpp.UnsubscribedType)
		}
		return xmpp.NewErrorStanzaFromStanza(stanza, xmpp.ErrServiceUnavailable, nil)

	case ErrRemoteServerNotFound:
		return xmpp.NewErrorStanzaFromStanza(stanza, xmpp.ErrRemoteServerNotFound, nil)

	case ErrCircuitOpen:
		return xmpp.NewErrorStanzaFromStanza(stanza, xmpp.ErrRemoteServerTimeout, nil)
	}
	return xmpp.NewErrorStanzaFromStanza(stanza, xmpp.ErrServiceUnavailable, nil)
}
