/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package transport

import (
	"bytes"
	"crypto/tls"
	"io"
	"net"
	"testing"
	"time"

	"github.com/ortuman/vysper/xmpp"
	"github.com/ortuman/vysper/xmpp/jid"
	"github.com/stretchr/testify/require"
)

type fakeWebSocketWriter struct {
	buf *bytes.Buffer
}

func (w *fakeWebSocketWriter) Write(p []byte) (n int, err error) { return w.buf.Write(p) }
func (w *fakeWebSocketWriter) Close() error                      { return nil }

type fakeWebSocketConn struct {
	frames [][]byte
	w      *fakeWebSocketWriter
	closed bool
}

func newFakeWebSocketConn() *fakeWebSocketConn {
	return &fakeWebSocketConn{
		w: &fakeWebSocketWriter{buf: new(bytes.Buffer)},
	}
}

func (c *fakeWebSocketConn) NextReader() (messageType int, r io.Reader, err error) {
	if len(c.frames) == 0 {
		return 0, nil, io.EOF
	}
	f := c.frames[0]
	c.frames = c.frames[1:]
	return 1, bytes.NewReader(f), nil
}
func (c *fakeWebSocketConn) NextWriter(int) (writer io.WriteCloser, err error) { return c.w, nil }
func (c *fakeWebSocketConn) Close() error                                      { c.closed = true; return nil }
func (c *fakeWebSocketConn) SetReadDeadline(t time.Time) error                 { return nil }
func (c *fakeWebSocketConn) UnderlyingConn() net.Conn                          { return &tls.Conn{} }

func TestWebSocketTransport(t *testing.T) {
	buff := make([]byte, 4096)
	conn := newFakeWebSocketConn()

	iq := xmpp.NewIQType("iq-1", xmpp.ResultType, nil, jid.MustParse("montague.lit"), nil)
	conn.frames = append(conn.frames, []byte(iq.String()), []byte("<a/>"))

	wst := NewWebSocketTransport(conn, time.Second)
	require.Equal(t, WebSocket, wst.Type())

	n, err := wst.Read(buff)
	require.Nil(t, err)
	require.Equal(t, iq.String(), string(buff[:n]))

	n, err = wst.Read(buff)
	require.Nil(t, err)
	require.Equal(t, "<a/>", string(buff[:n]))

	_, err = wst.Read(buff)
	require.Equal(t, io.EOF, err)

	body := xmpp.NewElementBuilder("body").WithText("Hi buddy!").Build()
	msg := xmpp.NewMessageType("msg-1", xmpp.ChatType, nil, nil, body)

	_, err = io.WriteString(wst, msg.String())
	require.Nil(t, err)
	require.Equal(t, msg.String(), conn.w.buf.String())
	conn.w.buf.Reset()

	msg.ToXML(wst, true)
	require.Equal(t, msg.String(), conn.w.buf.String())

	require.True(t, wst.IsSecured())
	require.Nil(t, wst.Close())
	require.True(t, conn.closed)
}
