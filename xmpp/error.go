/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package xmpp

import (
	"strconv"
)

// Stanza error types.
const (
	AuthErrorType   = "auth"
	CancelErrorType = "cancel"
	ModifyErrorType = "modify"
	WaitErrorType   = "wait"
)

// StanzaError represents a stanza "error" element.
type StanzaError struct {
	code      int
	errorType string
	condition string
	text      string
}

func newStanzaError(code int, errorType string, condition string) *StanzaError {
	return &StanzaError{
		code:      code,
		errorType: errorType,
		condition: condition,
	}
}

// Error satisfies error interface.
func (se *StanzaError) Error() string {
	if len(se.text) > 0 {
		return se.condition + ": " + se.text
	}
	return se.condition
}

// Code returns the legacy numeric error code.
func (se *StanzaError) Code() int { return se.code }

// Type returns the error type (auth, cancel, modify or wait).
func (se *StanzaError) Type() string { return se.errorType }

// Condition returns the defined condition name.
func (se *StanzaError) Condition() string { return se.condition }

// Text returns the descriptive text, if any.
func (se *StanzaError) Text() string { return se.text }

// WithText returns a copy of the error carrying a descriptive text.
func (se *StanzaError) WithText(text string) *StanzaError {
	cp := *se
	cp.text = text
	return &cp
}

// WithType returns a copy of the error with a different error type.
func (se *StanzaError) WithType(errorType string) *StanzaError {
	cp := *se
	cp.errorType = errorType
	return &cp
}

// Element returns StanzaError equivalent XML element.
func (se *StanzaError) Element() *Element {
	b := NewElementBuilder("error").
		WithAttribute("code", strconv.Itoa(se.code)).
		WithType(se.errorType).
		AppendElement(NewElementNamespace(se.condition, NamespaceStanzas))
	if len(se.text) > 0 {
		b.AppendElement(NewElementBuilderNamespace("text", NamespaceStanzas).WithText(se.text).Build())
	}
	return b.Build()
}

var (
	// ErrBadRequest is returned when the sender has sent XML that is malformed or cannot be processed.
	ErrBadRequest = newStanzaError(400, ModifyErrorType, "bad-request")

	// ErrConflict is returned when a resource or session with the same name or address already exists.
	ErrConflict = newStanzaError(409, CancelErrorType, "conflict")

	// ErrFeatureNotImplemented is returned when the requested feature is not implemented by the server.
	ErrFeatureNotImplemented = newStanzaError(501, CancelErrorType, "feature-not-implemented")

	// ErrForbidden is returned when the requesting entity lacks the required permissions.
	ErrForbidden = newStanzaError(403, AuthErrorType, "forbidden")

	// ErrGone is returned when the recipient can no longer be contacted at this address.
	ErrGone = newStanzaError(302, ModifyErrorType, "gone")

	// ErrInternalServerError is returned on misconfiguration or an otherwise undefined internal error.
	ErrInternalServerError = newStanzaError(500, WaitErrorType, "internal-server-error")

	// ErrItemNotFound is returned when the addressed JID or item cannot be found.
	ErrItemNotFound = newStanzaError(404, CancelErrorType, "item-not-found")

	// ErrJidMalformed is returned when an address does not adhere to the JID syntax.
	ErrJidMalformed = newStanzaError(400, ModifyErrorType, "jid-malformed")

	// ErrNotAcceptable is returned when a request does not meet the defined criteria.
	ErrNotAcceptable = newStanzaError(406, ModifyErrorType, "not-acceptable")

	// ErrNotAllowed is returned when no entity is allowed to perform the action.
	ErrNotAllowed = newStanzaError(405, CancelErrorType, "not-allowed")

	// ErrNotAuthorized is returned when the sender must provide proper credentials first.
	ErrNotAuthorized = newStanzaError(401, AuthErrorType, "not-authorized")

	// ErrPaymentRequired is returned when payment is required to access the service.
	ErrPaymentRequired = newStanzaError(402, AuthErrorType, "payment-required")

	// ErrRecipientUnavailable is returned when the intended recipient is temporarily unavailable.
	ErrRecipientUnavailable = newStanzaError(404, WaitErrorType, "recipient-unavailable")

	// ErrRedirect is returned when requests are being redirected to another entity.
	ErrRedirect = newStanzaError(302, ModifyErrorType, "redirect")

	// ErrRegistrationRequired is returned when registration is required to access the service.
	ErrRegistrationRequired = newStanzaError(407, AuthErrorType, "registration-required")

	// ErrRemoteServerNotFound is returned when the recipient's server does not exist.
	ErrRemoteServerNotFound = newStanzaError(404, CancelErrorType, "remote-server-not-found")

	// ErrRemoteServerTimeout is returned when the recipient's server could not be reached in time.
	ErrRemoteServerTimeout = newStanzaError(504, WaitErrorType, "remote-server-timeout")

	// ErrResourceConstraint is returned when the server lacks the system resources to serve the request.
	ErrResourceConstraint = newStanzaError(500, WaitErrorType, "resource-constraint")

	// ErrServiceUnavailable is returned when the server or recipient does not provide the requested service.
	ErrServiceUnavailable = newStanzaError(503, CancelErrorType, "service-unavailable")

	// ErrSubscriptionRequired is returned when a subscription is required to access the service.
	ErrSubscriptionRequired = newStanzaError(407, AuthErrorType, "subscription-required")

	// ErrUndefinedCondition is returned when no other condition applies.
	ErrUndefinedCondition = newStanzaError(500, WaitErrorType, "undefined-condition")

	// ErrUnexpectedCondition is returned when the request was understood but not expected at this time.
	ErrUnexpectedCondition = newStanzaError(400, WaitErrorType, "unexpected-condition")

	// ErrUnknownSender is returned when the sender address cannot be determined.
	ErrUnknownSender = newStanzaError(400, ModifyErrorType, "unknown-sender")
)

// NewErrorStanzaFromStanza returns an error reply to stanza.
// The reply keeps every child of the offending stanza, swaps its
// addresses and appends stanzaErr followed by errorElements.
func NewErrorStanzaFromStanza(stanza Stanza, stanzaErr *StanzaError, errorElements []XElement) Stanza {
	errEl := NewElementBuilderFromElement(stanzaErr.Element()).
		AppendElements(errorElements).
		Build()

	e := NewElementBuilderFromElement(stanza).
		WithType(ErrorType).
		AppendElement(errEl).
		Build()
	return rebuild(stanza, e, stanza.ToJID(), stanza.FromJID())
}

// NewErrorStanza is a shorthand of NewErrorStanzaFromStanza with no extra error elements.
func NewErrorStanza(stanza Stanza, stanzaErr *StanzaError) Stanza {
	return NewErrorStanzaFromStanza(stanza, stanzaErr, nil)
}
