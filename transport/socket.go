/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package transport

import (
	"bufio"
	"crypto/tls"
	"crypto/x509"
	"io"
	"net"
	"time"
)

const socketBuffSize = 4096

type socketTransport struct {
	conn      net.Conn
	br        *bufio.Reader
	bw        *bufio.Writer
	keepAlive time.Duration
}

// NewSocketTransport creates a socket class stream transport.
// A non zero keepAlive sets a read deadline before every read.
func NewSocketTransport(conn net.Conn, keepAlive time.Duration) Transport {
	return &socketTransport{
		conn:      conn,
		br:        bufio.NewReaderSize(conn, socketBuffSize),
		bw:        bufio.NewWriterSize(conn, socketBuffSize),
		keepAlive: keepAlive,
	}
}

func (s *socketTransport) Type() Type {
	return Socket
}

func (s *socketTransport) Read(p []byte) (n int, err error) {
	if s.keepAlive > 0 {
		_ = s.conn.SetReadDeadline(time.Now().Add(s.keepAlive))
	}
	return s.br.Read(p)
}

func (s *socketTransport) Write(p []byte) (n int, err error) {
	return s.bw.Write(p)
}

func (s *socketTransport) WriteString(str string) (int, error) {
	return io.WriteString(s.bw, str)
}

func (s *socketTransport) Flush() error {
	return s.bw.Flush()
}

func (s *socketTransport) SetWriteDeadline(d time.Time) error {
	return s.conn.SetWriteDeadline(d)
}

func (s *socketTransport) Close() error {
	return s.conn.Close()
}

func (s *socketTransport) StartTLS(cfg *tls.Config) {
	if _, ok := s.conn.(*tls.Conn); !ok {
		s.conn = tls.Server(s.conn, cfg)
		s.bw.Reset(s.conn)
		s.br.Reset(s.conn)
	}
}

func (s *socketTransport) IsSecured() bool {
	_, ok := s.conn.(*tls.Conn)
	return ok
}

func (s *socketTransport) PeerCertificates() []*x509.Certificate {
	if tlsConn, ok := s.conn.(tlsStateQueryable); ok {
		return tlsConn.ConnectionState().PeerCertificates
	}
	return nil
}
