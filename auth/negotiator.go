/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package auth

import (
	"context"

	"github.com/ortuman/vysper/log"
	"github.com/ortuman/vysper/xmpp"
	"github.com/ortuman/vysper/xmpp/jid"
	"github.com/pkg/errors"
)

// DefaultMaxAttempts is the number of authentication attempts granted to a session.
const DefaultMaxAttempts = 3

// Result represents the outcome of a processed SASL element.
type Result struct {
	// JID is the authenticated bare JID, set on success.
	JID *jid.JID

	// Failure is the reported SASL failure, set when the exchange failed.
	Failure *SASLError
}

// Succeeded reports whether the exchange authenticated the peer.
func (r *Result) Succeeded() bool { return r.JID != nil }

// Element returns the <success/> or <failure/> element to be sent to the peer.
func (r *Result) Element() xmpp.XElement {
	if r.Failure != nil {
		return FailureElement(r.Failure)
	}
	return SuccessElement()
}

// Negotiator drives the SASL exchange of a single session.
// It is not safe for concurrent use.
type Negotiator struct {
	registry  *Registry
	domain    string
	remaining int
}

// NewNegotiator returns a negotiator for sessions within domain granting maxAttempts tries.
// A non positive maxAttempts selects DefaultMaxAttempts.
func NewNegotiator(registry *Registry, domain string, maxAttempts int) *Negotiator {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Negotiator{
		registry:  registry,
		domain:    domain,
		remaining: maxAttempts,
	}
}

// RemainingAttempts returns the number of authentication attempts left.
func (n *Negotiator) RemainingAttempts() int { return n.remaining }

// Process handles an <auth/>, <response/> or <abort/> element.
//
// Every failed or aborted exchange consumes an attempt. Once none is left
// ErrAuthenticationFailed is returned, regardless of the element contents.
// ErrMechanismUnavailable is returned together with an invalid-mechanism
// result when the requested mechanism cannot be used.
func (n *Negotiator) Process(ctx context.Context, elem xmpp.XElement) (*Result, error) {
	if n.remaining <= 0 {
		return nil, ErrAuthenticationFailed
	}
	switch elem.Name() {
	case "auth":
		return n.processAuth(ctx, elem)

	case "abort":
		n.remaining--
		reportAttempt("", attemptAborted)
		return &Result{Failure: ErrSASLAborted}, nil

	case "response":
		// single step mechanisms never issue challenges
		n.remaining--
		reportAttempt("", attemptFailure)
		return &Result{Failure: ErrSASLMalformedRequest}, nil
	}
	return nil, errors.Errorf("auth: unexpected SASL element: %s", elem.Name())
}

func (n *Negotiator) processAuth(ctx context.Context, elem xmpp.XElement) (*Result, error) {
	name := elem.Attributes().Get("mechanism")
	m, err := n.registry.Lookup(name)
	if err != nil {
		reportAttempt(name, attemptInvalidMechanism)
		return &Result{Failure: ErrSASLInvalidMechanism}, err
	}
	payload := elem.Text()
	if payload == "=" {
		payload = "" // empty initial response
	}
	j, err := m.Authenticate(ctx, payload, n.domain)
	if err == nil {
		reportAttempt(name, attemptSuccess)
		return &Result{JID: j}, nil
	}
	n.remaining--
	reportAttempt(name, attemptFailure)

	saslErr, ok := err.(*SASLError)
	if !ok {
		log.Errorf("auth: %s mechanism failed: %v", name, err)
		saslErr = ErrSASLTemporaryAuthFailure
	}
	return &Result{Failure: saslErr}, nil
}
