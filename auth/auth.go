/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package auth

import (
	"context"

	"github.com/ortuman/vysper/xmpp"
	"github.com/ortuman/vysper/xmpp/jid"
	"github.com/pkg/errors"
)

var (
	// ErrAuthenticationFailed is returned once a session has used up every authentication attempt.
	ErrAuthenticationFailed = errors.New("auth: authentication failed")

	// ErrMechanismUnavailable is returned when a SASL mechanism is unknown or not available.
	ErrMechanismUnavailable = errors.New("auth: mechanism unavailable")
)

// Mechanism defines a single step SASL mechanism.
type Mechanism interface {
	// Name returns the mechanism name as advertised in stream features.
	Name() string

	// Available tells whether the mechanism can be advertised and used.
	Available() bool

	// Authenticate processes the client initial response, returning
	// the authenticated bare JID within domain.
	// Failures not caused by the peer are reported as plain errors.
	Authenticate(ctx context.Context, payload string, domain string) (*jid.JID, error)
}

// SASLError represents specific SASL error type.
type SASLError struct {
	condition string
}

func newSASLError(condition string) *SASLError {
	return &SASLError{condition: condition}
}

// Condition returns SASL failure condition name.
func (se *SASLError) Condition() string { return se.condition }

// Element returns sasl error XML representation.
func (se *SASLError) Element() xmpp.XElement {
	return xmpp.NewElementName(se.condition)
}

// Error satisfies error interface.
func (se *SASLError) Error() string {
	return se.condition
}

var (
	// ErrSASLAborted represents an 'aborted' authentication error.
	ErrSASLAborted = newSASLError("aborted")

	// ErrSASLIncorrectEncoding represents a 'incorrect-encoding' authentication error.
	ErrSASLIncorrectEncoding = newSASLError("incorrect-encoding")

	// ErrSASLInvalidMechanism represents an 'invalid-mechanism' authentication error.
	ErrSASLInvalidMechanism = newSASLError("invalid-mechanism")

	// ErrSASLMalformedRequest represents a 'malformed-request' authentication error.
	ErrSASLMalformedRequest = newSASLError("malformed-request")

	// ErrSASLMechanismTooWeak represents a 'mechanism-too-weak' authentication error.
	ErrSASLMechanismTooWeak = newSASLError("mechanism-too-weak")

	// ErrSASLNotAuthorized represents a 'not-authorized' authentication error.
	ErrSASLNotAuthorized = newSASLError("not-authorized")

	// ErrSASLTemporaryAuthFailure represents a 'temporary-auth-failure' authentication error.
	ErrSASLTemporaryAuthFailure = newSASLError("temporary-auth-failure")
)

// FailureElement returns the <failure/> element reporting err.
func FailureElement(err *SASLError) xmpp.XElement {
	return xmpp.NewElementBuilderNamespace("failure", xmpp.NamespaceSASL).
		AppendElement(err.Element()).
		Build()
}

// SuccessElement returns the <success/> element.
func SuccessElement() xmpp.XElement {
	return xmpp.NewElementNamespace("success", xmpp.NamespaceSASL)
}
