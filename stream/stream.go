/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package stream

import (
	"github.com/ortuman/vysper/session"
	"github.com/ortuman/vysper/xmpp"
	"github.com/pkg/errors"
)

// ErrClosed is returned when writing into a closed stream.
var ErrClosed = errors.New("stream: closed")

// Writer represents an outbound element sink.
// Implementations must be safe to call from any goroutine.
type Writer interface {
	// WriteElement enqueues elem to be sent to the peer.
	WriteElement(elem xmpp.XElement) error

	// Close closes the stream, emitting the stream closing tag.
	Close() error
}

// C2S represents a client-to-server stream.
type C2S interface {
	Writer

	// ID returns stream identifier.
	ID() string

	// Context returns the session context of the stream.
	Context() *session.Context

	// Disconnect ends the stream, sending err first if it is a stream error.
	Disconnect(err error)
}
