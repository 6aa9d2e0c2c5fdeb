/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package streamerror

import (
	"github.com/ortuman/vysper/xmpp"
)

// Error represents a "stream:error" element.
// Every stream error is unrecoverable and closes the underlying session.
type Error struct {
	condition string
	text      string
}

var (
	// ErrInvalidXML represents 'invalid-xml' stream error.
	ErrInvalidXML = newStreamError("invalid-xml")

	// ErrInvalidNamespace represents 'invalid-namespace' stream error.
	ErrInvalidNamespace = newStreamError("invalid-namespace")

	// ErrHostUnknown represents 'host-unknown' stream error.
	ErrHostUnknown = newStreamError("host-unknown")

	// ErrInvalidFrom represents 'invalid-from' stream error.
	ErrInvalidFrom = newStreamError("invalid-from")

	// ErrConnectionTimeout represents 'connection-timeout' stream error.
	ErrConnectionTimeout = newStreamError("connection-timeout")

	// ErrUnsupportedStanzaType represents 'unsupported-stanza-type' stream error.
	ErrUnsupportedStanzaType = newStreamError("unsupported-stanza-type")

	// ErrUnsupportedVersion represents 'unsupported-version' stream error.
	ErrUnsupportedVersion = newStreamError("unsupported-version")

	// ErrNotAuthorized represents 'not-authorized' stream error.
	ErrNotAuthorized = newStreamError("not-authorized")

	// ErrPolicyViolation represents 'policy-violation' stream error.
	ErrPolicyViolation = newStreamError("policy-violation")

	// ErrResourceConstraint represents 'resource-constraint' stream error.
	ErrResourceConstraint = newStreamError("resource-constraint")

	// ErrConflict represents 'conflict' stream error.
	ErrConflict = newStreamError("conflict")

	// ErrInternalServerError represents 'internal-server-error' stream error.
	ErrInternalServerError = newStreamError("internal-server-error")

	// ErrSystemShutdown represents 'system-shutdown' stream error.
	ErrSystemShutdown = newStreamError("system-shutdown")
)

func newStreamError(condition string) *Error {
	return &Error{condition: condition}
}

// Condition returns the defined condition name.
func (se *Error) Condition() string { return se.condition }

// Text returns the descriptive text, if any.
func (se *Error) Text() string { return se.text }

// WithText returns a copy of se carrying a descriptive text.
func (se *Error) WithText(text string) *Error {
	return &Error{condition: se.condition, text: text}
}

// Element returns stream error XML node.
func (se *Error) Element() xmpp.XElement {
	b := xmpp.NewElementBuilder("stream:error").
		AppendElement(xmpp.NewElementNamespace(se.condition, xmpp.NamespaceStreams))
	if len(se.text) > 0 {
		b.AppendElement(xmpp.NewElementBuilderNamespace("text", xmpp.NamespaceStreams).WithText(se.text).Build())
	}
	return b.Build()
}

// Error satisfies error interface.
func (se *Error) Error() string {
	if len(se.text) > 0 {
		return se.condition + ": " + se.text
	}
	return se.condition
}

// Is reports whether target names the same stream condition.
func (se *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.condition == se.condition
}
