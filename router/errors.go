/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package router

import (
	"fmt"

	"github.com/ortuman/vysper/xmpp"
	"github.com/ortuman/vysper/xmpp/jid"
	"github.com/pkg/errors"
)

var (
	// ErrNoSuchLocalUser is the delivery failure cause when the local destination account does not exist.
	ErrNoSuchLocalUser = errors.New("router: no such local user")

	// ErrLocalRecipientOffline is the delivery failure cause when the local destination has no bound resource.
	ErrLocalRecipientOffline = errors.New("router: local recipient offline")

	// ErrRemoteServerNotFound is the delivery failure cause when the destination domain cannot be reached.
	ErrRemoteServerNotFound = errors.New("router: remote server not found")

	// ErrServiceUnavailable is the delivery failure cause when the destination cannot handle the stanza.
	ErrServiceUnavailable = errors.New("router: service unavailable")

	// ErrCircuitOpen is the delivery failure cause when remote delivery is suspended after repeated failures.
	ErrCircuitOpen = errors.New("router: remote circuit open")
)

// DeliveryError represents a stanza delivery failure.
// errors.Cause returns one of the failure cause sentinels.
type DeliveryError struct {
	cause  error
	to     *jid.JID
	stanza xmpp.Stanza
}

func newDeliveryError(cause error, to *jid.JID, stanza xmpp.Stanza) *DeliveryError {
	return &DeliveryError{cause: cause, to: to, stanza: stanza}
}

// Cause returns the failure cause.
func (e *DeliveryError) Cause() error { return e.cause }

// Unwrap returns the failure cause.
func (e *DeliveryError) Unwrap() error { return e.cause }

// To returns the destination the stanza failed to be delivered to.
func (e *DeliveryError) To() *jid.JID { return e.to }

// Stanza returns the undelivered stanza.
func (e *DeliveryError) Stanza() xmpp.Stanza { return e.stanza }

// Error satisfies error interface.
func (e *DeliveryError) Error() string {
	return fmt.Sprintf("%s (to: %s, stanza: %s)", e.cause, e.to, e.stanza.Name())
}
