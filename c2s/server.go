/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package c2s

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"github.com/ortuman/vysper/auth"
	"github.com/ortuman/vysper/log"
	"github.com/ortuman/vysper/module"
	"github.com/ortuman/vysper/router"
	"github.com/ortuman/vysper/transport"
)

var listenerProvider = net.Listen

type server struct {
	cfg        *Config
	hosts      hostProvider
	mechanisms *auth.Registry
	relay      *router.Relay
	mods       *module.Modules
	ln         net.Listener
	wsSrv      *http.Server
	wsUpgrader *websocket.Upgrader
	stmCounter uint64
	listening  uint32

	mu      sync.RWMutex
	streams map[string]*inStream
}

func (s *server) start() error {
	address := s.cfg.Transport.BindAddress + ":" + strconv.Itoa(s.cfg.Transport.Port)

	ln, err := listenerProvider("tcp", address)
	if err != nil {
		return err
	}
	s.ln = ln
	atomic.StoreUint32(&s.listening, 1)

	log.Infof("%s: listening at %s [transport: %v]", s.cfg.ID, address, s.cfg.Transport.Type)

	switch s.cfg.Transport.Type {
	case transport.WebSocket:
		go s.serveWebSocket(ln)
	default:
		go s.serveSocket(ln)
	}
	return nil
}

func (s *server) serveSocket(ln net.Listener) {
	for atomic.LoadUint32(&s.listening) == 1 {
		conn, err := ln.Accept()
		if err != nil {
			if atomic.LoadUint32(&s.listening) == 1 {
				log.Warnf("%s: failed to accept connection: %v", s.cfg.ID, err)
			}
			continue
		}
		go s.startStream(transport.NewSocketTransport(conn, s.cfg.Transport.KeepAlive))
	}
}

func (s *server) serveWebSocket(ln net.Listener) {
	mux := http.NewServeMux()
	mux.HandleFunc(s.cfg.Transport.URLPath, s.websocketUpgrade)

	s.wsUpgrader = &websocket.Upgrader{
		Subprotocols: []string{"xmpp"},
		CheckOrigin:  func(r *http.Request) bool { return r.Header.Get("Sec-WebSocket-Protocol") == "xmpp" },
	}
	tlsCfg := s.hosts.TLSConfig()
	s.wsSrv = &http.Server{Handler: mux, TLSConfig: tlsCfg}

	var err error
	if len(tlsCfg.Certificates) > 0 {
		err = s.wsSrv.ServeTLS(ln, "", "")
	} else {
		err = s.wsSrv.Serve(ln)
	}
	if err != nil && err != http.ErrServerClosed {
		log.Errorf("%s: websocket server failed: %v", s.cfg.ID, err)
	}
}

func (s *server) websocketUpgrade(w http.ResponseWriter, r *http.Request) {
	conn, err := s.wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error(err)
		return
	}
	s.startStream(transport.NewWebSocketTransport(conn, s.cfg.Transport.KeepAlive))
}

func (s *server) shutdown(ctx context.Context) error {
	if !atomic.CompareAndSwapUint32(&s.listening, 1, 0) {
		return nil
	}
	var err error
	switch s.cfg.Transport.Type {
	case transport.WebSocket:
		if s.wsSrv != nil {
			err = s.wsSrv.Shutdown(ctx)
		}
	default:
		err = s.ln.Close()
	}
	// close every active stream
	for _, stm := range s.activeStreams() {
		stm.shutdown()
	}
	return err
}

func (s *server) startStream(tr transport.Transport) {
	cfg := &streamConfig{
		transport:       tr,
		hosts:           s.hosts,
		connectTimeout:  s.cfg.ConnectTimeout,
		maxStanzaSize:   s.cfg.MaxStanzaSize,
		mechanisms:      s.mechanisms,
		maxAuthAttempts: s.cfg.MaxAuthAttempts,
		tlsRequired:     s.cfg.StartTLSRequired,
		onDisconnect:    s.unregisterStream,
	}
	stm := newStream(s.nextID(), cfg, s.relay, s.mods)
	s.registerStream(stm)
	stm.start()
}

func (s *server) registerStream(stm *inStream) {
	s.mu.Lock()
	s.streams[stm.ID()] = stm
	s.mu.Unlock()
	sessionsGauge.Inc()
}

func (s *server) unregisterStream(stm *inStream) {
	s.mu.Lock()
	_, ok := s.streams[stm.ID()]
	delete(s.streams, stm.ID())
	s.mu.Unlock()
	if ok {
		sessionsGauge.Dec()
	}
}

func (s *server) activeStreams() []*inStream {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ret := make([]*inStream, 0, len(s.streams))
	for _, stm := range s.streams {
		ret = append(ret, stm)
	}
	return ret
}

func (s *server) streamCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.streams)
}

func (s *server) nextID() string {
	return fmt.Sprintf("c2s:%s:%d", s.cfg.ID, atomic.AddUint64(&s.stmCounter, 1))
}

// hostProvider represents the set of local domains served by the listeners.
type hostProvider interface {
	IsLocalHost(h string) bool
	DefaultHostName() string
	TLSConfig() *tls.Config
}
