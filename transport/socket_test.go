/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package transport

import (
	"crypto/tls"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSocket_BufferedWrites(t *testing.T) {
	srvConn, cliConn := net.Pipe()
	defer func() { _ = cliConn.Close() }()

	st := NewSocketTransport(srvConn, 0)
	require.Equal(t, Socket, st.Type())

	const header = `<stream:stream xmlns="jabber:client">`
	_, err := st.WriteString(header)
	require.Nil(t, err)
	_, err = st.Write([]byte(`<presence/>`))
	require.Nil(t, err)

	readCh := make(chan string, 1)
	go func() {
		b := make([]byte, 256)
		n, _ := io.ReadAtLeast(cliConn, b, len(header)+len(`<presence/>`))
		readCh <- string(b[:n])
	}()
	require.Nil(t, st.Flush())

	select {
	case s := <-readCh:
		require.Equal(t, header+`<presence/>`, s)
	case <-time.After(time.Second):
		require.FailNow(t, "flushed data not received")
	}
	require.Nil(t, st.Close())
}

func TestSocket_Read(t *testing.T) {
	srvConn, cliConn := net.Pipe()
	defer func() { _ = cliConn.Close() }()

	st := NewSocketTransport(srvConn, time.Second)
	go func() { _, _ = cliConn.Write([]byte(`<iq type="get" id="p1"/>`)) }()

	b := make([]byte, 256)
	n, err := st.Read(b)
	require.Nil(t, err)
	require.Equal(t, `<iq type="get" id="p1"/>`, string(b[:n]))
}

func TestSocket_KeepAliveExpires(t *testing.T) {
	srvConn, cliConn := net.Pipe()
	defer func() { _ = cliConn.Close() }()

	st := NewSocketTransport(srvConn, 50*time.Millisecond)

	_, err := st.Read(make([]byte, 16))
	require.NotNil(t, err)
	netErr, ok := err.(net.Error)
	require.True(t, ok)
	require.True(t, netErr.Timeout())
}

func TestSocket_StartTLS(t *testing.T) {
	srvConn, cliConn := net.Pipe()
	defer func() { _ = cliConn.Close() }()

	st := NewSocketTransport(srvConn, 0)
	require.False(t, st.IsSecured())
	require.Nil(t, st.PeerCertificates())

	st.StartTLS(&tls.Config{})
	require.True(t, st.IsSecured())

	// upgrading twice keeps the same TLS connection
	tlsConn := st.(*socketTransport).conn
	st.StartTLS(&tls.Config{})
	require.Equal(t, tlsConn, st.(*socketTransport).conn)
}
