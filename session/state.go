/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package session

// State represents the stage a client session went through.
type State int

const (
	// Initiated is the state of a freshly opened stream.
	Initiated State = iota

	// Encrypted is reached once TLS negotiation succeeded.
	Encrypted

	// Authenticated is reached once SASL negotiation succeeded.
	Authenticated
)

// String returns State string representation.
func (s State) String() string {
	switch s {
	case Initiated:
		return "initiated"
	case Encrypted:
		return "encrypted"
	case Authenticated:
		return "authenticated"
	}
	return ""
}

// TerminationCause represents the reason a session ended.
type TerminationCause int

const (
	// NotTerminated is the cause of a session still alive.
	NotTerminated TerminationCause = iota

	// ClientDisconnected is set when the peer closed the stream.
	ClientDisconnected

	// StreamError is set when the session ended after a stream error.
	StreamError

	// ServerShutdown is set when the server stopped the session.
	ServerShutdown

	// ConnectionAbort is set when the underlying connection failed.
	ConnectionAbort
)

// String returns TerminationCause string representation.
func (c TerminationCause) String() string {
	switch c {
	case ClientDisconnected:
		return "client_disconnected"
	case StreamError:
		return "stream_error"
	case ServerShutdown:
		return "server_shutdown"
	case ConnectionAbort:
		return "connection_abort"
	}
	return ""
}
