/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package transport

import (
	"crypto/tls"
	"crypto/x509"
	"io"
	"net"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocketConn represents a websocket connection interface.
type WebSocketConn interface {
	NextReader() (messageType int, r io.Reader, err error)
	NextWriter(int) (io.WriteCloser, error)
	Close() error
	UnderlyingConn() net.Conn
	SetReadDeadline(t time.Time) error
}

type webSocketTransport struct {
	conn      WebSocketConn
	keepAlive time.Duration
	r         io.Reader
}

// NewWebSocketTransport creates a websocket class stream transport.
// Every written chunk is sent as a single text frame.
func NewWebSocketTransport(conn WebSocketConn, keepAlive time.Duration) Transport {
	return &webSocketTransport{
		conn:      conn,
		keepAlive: keepAlive,
	}
}

func (w *webSocketTransport) Read(p []byte) (n int, err error) {
	if w.keepAlive > 0 {
		_ = w.conn.SetReadDeadline(time.Now().Add(w.keepAlive))
	}
	for {
		if w.r == nil {
			_, r, err := w.conn.NextReader()
			if err != nil {
				return 0, err
			}
			w.r = r
		}
		n, err = w.r.Read(p)
		if err == io.EOF {
			w.r = nil // frame consumed
			if n > 0 {
				return n, nil
			}
			continue
		}
		return n, err
	}
}

func (w *webSocketTransport) Write(p []byte) (n int, err error) {
	nw, err := w.conn.NextWriter(websocket.TextMessage)
	if err != nil {
		return 0, err
	}
	defer func() { _ = nw.Close() }()

	return nw.Write(p)
}

func (w *webSocketTransport) Close() error {
	return w.conn.Close()
}

func (w *webSocketTransport) Type() Type {
	return WebSocket
}

func (w *webSocketTransport) WriteString(str string) (int, error) {
	nw, err := w.conn.NextWriter(websocket.TextMessage)
	if err != nil {
		return 0, err
	}
	defer func() { _ = nw.Close() }()

	n, err := io.Copy(nw, strings.NewReader(str))
	return int(n), err
}

func (w *webSocketTransport) Flush() error {
	return nil
}

func (w *webSocketTransport) SetWriteDeadline(d time.Time) error {
	return w.conn.UnderlyingConn().SetWriteDeadline(d)
}

// StartTLS is a no-op: websocket connections are secured by the HTTP server.
func (w *webSocketTransport) StartTLS(_ *tls.Config) {}

func (w *webSocketTransport) IsSecured() bool {
	_, ok := w.conn.UnderlyingConn().(tlsStateQueryable)
	return ok
}

func (w *webSocketTransport) PeerCertificates() []*x509.Certificate {
	if tlsConn, ok := w.conn.UnderlyingConn().(tlsStateQueryable); ok {
		return tlsConn.ConnectionState().PeerCertificates
	}
	return nil
}
