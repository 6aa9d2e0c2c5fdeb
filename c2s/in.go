/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package c2s

import (
	"context"
	"time"

	"github.com/ortuman/vysper/auth"
	"github.com/ortuman/vysper/log"
	"github.com/ortuman/vysper/module"
	"github.com/ortuman/vysper/module/roster"
	"github.com/ortuman/vysper/router"
	"github.com/ortuman/vysper/runqueue"
	"github.com/ortuman/vysper/session"
	"github.com/ortuman/vysper/stream"
	"github.com/ortuman/vysper/transport"
	"github.com/ortuman/vysper/xmpp"
	"github.com/ortuman/vysper/xmpp/jid"
	"github.com/ortuman/vysper/xmpp/streamerror"
	"github.com/pkg/errors"
)

type streamConfig struct {
	transport       transport.Transport
	hosts           hostProvider
	connectTimeout  time.Duration
	maxStanzaSize   int
	mechanisms      *auth.Registry
	maxAuthAttempts int
	tlsRequired     bool
	onDisconnect    func(s *inStream)
}

type inStream struct {
	id         string
	cfg        *streamConfig
	relay      *router.Relay
	registry   *router.ResourceRegistry
	mods       *module.Modules
	ctx        *session.Context
	sess       *session.Session
	negotiator *auth.Negotiator
	connectTm  *time.Timer
	runQueue   *runqueue.RunQueue

	baseCtx    context.Context
	cancelFn   context.CancelFunc
	sessionIQd bool // only accessed from the run queue
}

func newStream(id string, config *streamConfig, relay *router.Relay, mods *module.Modules) *inStream {
	domain := config.hosts.DefaultHostName()
	tr := config.transport

	s := &inStream{
		id:         id,
		cfg:        config,
		relay:      relay,
		registry:   relay.Registry(),
		mods:       mods,
		ctx:        session.NewContext(domain, config.tlsRequired && tr.Type() == transport.Socket),
		negotiator: auth.NewNegotiator(config.mechanisms, domain, config.maxAuthAttempts),
		runQueue:   runqueue.New(id),
	}
	s.baseCtx, s.cancelFn = context.WithCancel(context.Background())

	// websocket connections are secured at the HTTP layer
	if tr.IsSecured() {
		_ = s.ctx.SetState(session.Encrypted)
	}
	s.sess = session.New(id, &session.Config{
		Context:       s.ctx,
		Transport:     tr,
		MaxStanzaSize: config.maxStanzaSize,
		Hosts:         config.hosts,
	})
	return s
}

func (s *inStream) start() {
	if s.cfg.connectTimeout > 0 {
		s.runQueue.Run(func() {
			s.connectTm = time.AfterFunc(s.cfg.connectTimeout, s.connectTimeout)
		})
	}
	go s.doRead() // start reading...
}

// ID returns stream identifier.
func (s *inStream) ID() string {
	return s.id
}

// Context returns the stream session context.
func (s *inStream) Context() *session.Context {
	return s.ctx
}

// WriteElement writes an XMPP element to the stream.
// It can be called from any goroutine.
func (s *inStream) WriteElement(elem xmpp.XElement) error {
	if s.ctx.IsTerminated() {
		return stream.ErrClosed
	}
	return s.sess.Send(elem)
}

// Close ends the stream emitting the stream closing tag.
func (s *inStream) Close() error {
	if s.ctx.IsTerminated() {
		return stream.ErrClosed
	}
	s.runAndWait(func() { s.terminate(session.ServerShutdown, true, true) })
	return nil
}

// Disconnect ends the stream. A stream error is sent first when err is one.
func (s *inStream) Disconnect(err error) {
	if s.ctx.IsTerminated() {
		return
	}
	s.runAndWait(func() { s.disconnect(err) })
}

func (s *inStream) shutdown() {
	if s.ctx.IsTerminated() {
		return
	}
	s.runAndWait(func() { s.disconnectWithStreamError(streamerror.ErrSystemShutdown) })
}

func (s *inStream) runAndWait(fn func()) {
	waitCh := make(chan struct{})
	s.runQueue.Run(func() {
		fn()
		close(waitCh)
	})
	select {
	case <-waitCh:
	case <-s.baseCtx.Done():
	}
}

func (s *inStream) connectTimeout() {
	s.runQueue.Run(func() { s.disconnect(streamerror.ErrConnectionTimeout) })
}

func (s *inStream) handleStreamHeader() {
	if s.connectTm != nil {
		s.connectTm.Stop()
		s.connectTm = nil
	}
	if err := s.sess.Open(); err != nil {
		log.Error(err)
		s.terminate(session.ConnectionAbort, false, false)
		return
	}
	features := xmpp.NewElementBuilder("stream:features").
		WithAttribute("xmlns:stream", xmpp.NamespaceStream).
		WithAttribute("version", "1.0")

	switch s.ctx.State() {
	case session.Initiated:
		if starttls := s.startTLSFeature(); starttls != nil {
			features.AppendElement(starttls)
		}
		if !s.ctx.TLSRequired() {
			if mechs := s.cfg.mechanisms.MechanismsElement(); mechs != nil {
				features.AppendElement(mechs)
			}
		}

	case session.Encrypted:
		if mechs := s.cfg.mechanisms.MechanismsElement(); mechs != nil {
			features.AppendElement(mechs)
		}

	case session.Authenticated:
		features.AppendElement(requiredFeature("bind", xmpp.NamespaceBind))
		features.AppendElement(requiredFeature("session", xmpp.NamespaceSession))
	}
	s.writeElement(features.Build())
}

func (s *inStream) startTLSFeature() xmpp.XElement {
	if s.cfg.transport.Type() != transport.Socket || s.cfg.transport.IsSecured() {
		return nil
	}
	if !s.ctx.TLSRequired() && len(s.cfg.hosts.TLSConfig().Certificates) == 0 {
		return nil
	}
	b := xmpp.NewElementBuilderNamespace("starttls", xmpp.NamespaceTLS)
	if s.ctx.TLSRequired() {
		b.AppendElement(xmpp.NewElementName("required"))
	}
	return b.Build()
}

func requiredFeature(name, namespace string) xmpp.XElement {
	return xmpp.NewElementBuilderNamespace(name, namespace).
		AppendElement(xmpp.NewElementName("required")).
		Build()
}

func (s *inStream) handleElement(elem xmpp.XElement) {
	if err := session.Admit(elem, s.ctx); err != nil {
		if err == session.ErrTerminated {
			return
		}
		s.disconnect(err)
		return
	}
	switch elem.Namespace() {
	case xmpp.NamespaceTLS:
		s.proceedStartTLS()
		return

	case xmpp.NamespaceSASL:
		s.authenticate(elem)
		return
	}
	switch stanza := elem.(type) {
	case *xmpp.IQ:
		if bind := stanza.Elements().ChildNamespace("bind", xmpp.NamespaceBind); bind != nil {
			s.bindResource(stanza, bind)
			return
		}
		if stanza.Elements().ChildNamespace("session", xmpp.NamespaceSession) != nil && stanza.IsSet() {
			s.startSession(stanza)
			return
		}
		s.processIQ(stanza)

	case *xmpp.Presence:
		s.processPresence(stanza)

	case *xmpp.Message:
		s.processMessage(stanza)

	default:
		s.disconnectWithStreamError(streamerror.ErrUnsupportedStanzaType)
	}
}

func (s *inStream) proceedStartTLS() {
	tr := s.cfg.transport
	if tr.Type() != transport.Socket || tr.IsSecured() {
		s.writeElement(xmpp.NewElementNamespace("failure", xmpp.NamespaceTLS))
		s.disconnectWithStreamError(streamerror.ErrNotAuthorized)
		return
	}
	s.writeElement(xmpp.NewElementNamespace("proceed", xmpp.NamespaceTLS))

	tr.StartTLS(s.cfg.hosts.TLSConfig())
	if err := s.ctx.SetState(session.Encrypted); err != nil {
		log.Error(err)
		return
	}
	log.Infof("secured stream... id: %s", s.id)
	s.sess.Restart()
}

func (s *inStream) authenticate(elem xmpp.XElement) {
	res, err := s.negotiator.Process(s.baseCtx, elem)
	switch errors.Cause(err) {
	case nil:
		break

	case auth.ErrMechanismUnavailable:
		s.writeElement(res.Element())
		s.disconnectWithStreamError(streamerror.ErrPolicyViolation)
		return

	case auth.ErrAuthenticationFailed:
		log.Infof("authentication attempts exhausted... id: %s", s.id)
		s.disconnectWithStreamError(streamerror.ErrPolicyViolation)
		return

	default:
		log.Error(err)
		s.disconnectWithStreamError(streamerror.ErrInternalServerError)
		return
	}
	if !res.Succeeded() {
		s.writeElement(res.Element())
		return
	}
	if err := s.ctx.Authenticate(res.JID); err != nil {
		log.Error(err)
		s.disconnectWithStreamError(streamerror.ErrInternalServerError)
		return
	}
	s.writeElement(res.Element())

	log.Infof("authenticated stream... id: %s, jid: %s", s.id, res.JID)
	s.sess.Restart()
}

func (s *inStream) bindResource(iq *xmpp.IQ, bind xmpp.XElement) {
	if !iq.IsSet() {
		s.writeElement(xmpp.NewErrorStanza(iq, xmpp.ErrBadRequest))
		return
	}
	if s.ctx.IsBound() {
		s.writeElement(xmpp.NewErrorStanza(iq, xmpp.ErrNotAllowed))
		return
	}
	var requested string
	if resourceElem := bind.Elements().Child("resource"); resourceElem != nil {
		requested = resourceElem.Text()
	}
	userJID, err := s.registry.BindWithResource(s, requested)
	if err != nil {
		log.Warnf("failed to bind resource '%s': %v", requested, err)
		s.writeElement(xmpp.NewErrorStanza(iq, xmpp.ErrBadRequest))
		return
	}
	if err := s.ctx.BindResource(userJID); err != nil {
		s.registry.Unbind(userJID)
		log.Error(err)
		s.writeElement(xmpp.NewErrorStanza(iq, xmpp.ErrInternalServerError))
		return
	}
	//...notify successful binding
	boundElem := xmpp.NewElementBuilderNamespace("bind", xmpp.NamespaceBind).
		AppendElement(xmpp.NewElementBuilder("jid").WithText(userJID.String()).Build()).
		Build()
	s.writeElement(iq.ResultIQWithPayload(boundElem))

	log.Infof("bound resource... id: %s, jid: %s", s.id, userJID)
	s.mods.SessionBound(s.baseCtx, s)
}

func (s *inStream) startSession(iq *xmpp.IQ) {
	if s.sessionIQd {
		s.writeElement(xmpp.NewErrorStanza(iq, xmpp.ErrNotAllowed))
		return
	}
	s.sessionIQd = true
	s.writeElement(iq.ResultIQ())
}

func (s *inStream) processIQ(iq *xmpp.IQ) {
	toJID := iq.ToJID()
	userJID := s.ctx.JID()

	addressedToServer := toJID.IsServer() && s.relay.IsLocalHost(toJID.Domain())
	if addressedToServer || toJID.Equal(userJID.ToBareJID()) {
		if s.mods.ProcessIQ(s.baseCtx, iq, s) {
			return
		}
		if iq.IsGet() || iq.IsSet() {
			s.writeElement(xmpp.NewErrorStanza(iq, xmpp.ErrServiceUnavailable))
		}
		return
	}
	strategy := router.ReturnErrorToSenderStrategy
	if !iq.IsGet() && !iq.IsSet() {
		strategy = router.IgnoreFailureStrategy
	}
	if err := s.relay.Relay(s.baseCtx, toJID, iq, strategy); err != nil {
		log.Error(err)
	}
}

func (s *inStream) processPresence(presence *xmpp.Presence) {
	err := s.mods.ProcessPresence(s.baseCtx, presence, s)
	switch errors.Cause(err) {
	case nil:
		break
	case roster.ErrDirectedPresenceUnsupported:
		s.writeElement(xmpp.NewErrorStanza(presence, xmpp.ErrFeatureNotImplemented))
	default:
		log.Error(err)
	}
}

func (s *inStream) processMessage(message *xmpp.Message) {
	if err := s.relay.Relay(s.baseCtx, message.ToJID(), message, router.ReturnErrorToSenderStrategy); err != nil {
		log.Error(err)
	}
}

// Runs on it's own goroutine
func (s *inStream) doRead() {
	isHeader := !s.sess.IsStarted()

	elem, sErr := s.sess.Receive()
	if sErr == nil {
		s.runQueue.Run(func() { s.readElement(elem, isHeader) })
	} else {
		s.runQueue.Run(func() {
			if s.ctx.IsTerminated() {
				return
			}
			s.handleSessionError(sErr)
		})
	}
}

func (s *inStream) readElement(elem xmpp.XElement, isHeader bool) {
	if s.ctx.IsTerminated() {
		return
	}
	if elem != nil {
		if isHeader {
			s.handleStreamHeader()
		} else {
			s.handleElement(elem)
		}
	}
	if !s.ctx.IsTerminated() {
		go s.doRead() // keep reading...
	}
}

func (s *inStream) handleSessionError(sErr *session.Error) {
	switch err := sErr.UnderlyingErr.(type) {
	case nil:
		s.terminate(session.ClientDisconnected, false, true)
	case *streamerror.Error:
		s.disconnectWithStreamError(err)
	case *xmpp.StanzaError:
		s.writeStanzaErrorResponse(sErr.Element, err)
		go s.doRead()
	default:
		log.Error(err)
		s.terminate(session.ConnectionAbort, false, true)
	}
}

func (s *inStream) writeStanzaErrorResponse(elem xmpp.XElement, stanzaErr *xmpp.StanzaError) {
	if elem == nil {
		return
	}
	resp := xmpp.NewElementBuilderFromElement(elem).
		WithType(xmpp.ErrorType).
		WithFrom(elem.To()).
		WithTo(s.ctx.JID().String()).
		AppendElement(stanzaErr.Element()).
		Build()
	s.writeElement(resp)
}

func (s *inStream) writeElement(elem xmpp.XElement) {
	if err := s.WriteElement(elem); err != nil && err != stream.ErrClosed {
		log.Warnf("failed to write element... id: %s: %v", s.id, err)
	}
}

func (s *inStream) disconnect(err error) {
	if s.ctx.IsTerminated() {
		return
	}
	switch e := err.(type) {
	case nil:
		s.terminate(session.ServerShutdown, true, true)
	case *streamerror.Error:
		s.disconnectWithStreamError(e)
	default:
		log.Error(err)
		s.terminate(session.ConnectionAbort, true, true)
	}
}

func (s *inStream) disconnectWithStreamError(err *streamerror.Error) {
	if s.ctx.IsTerminated() {
		return
	}
	_ = s.sess.Open() // no-op when the stream was already opened
	s.writeElement(err.Element())

	if err == streamerror.ErrSystemShutdown {
		s.terminate(session.ServerShutdown, true, false)
		return
	}
	s.terminate(session.StreamError, true, true)
}

// terminate ends the session. When sendUnavailable is set and the bound
// resource is available, an unavailable presence is processed on its behalf.
func (s *inStream) terminate(cause session.TerminationCause, closeSession, sendUnavailable bool) {
	if s.connectTm != nil {
		s.connectTm.Stop()
		s.connectTm = nil
	}
	userJID := s.ctx.JID()
	bound := s.ctx.IsBound()
	if !s.ctx.End(cause) {
		return
	}
	if bound {
		if sendUnavailable {
			s.sendUnavailablePresence(userJID)
		}
		s.mods.SessionTerminated(s.baseCtx, s)
		s.registry.UnbindSession(s)
	}
	if closeSession {
		_ = s.sess.Close()
	}
	_ = s.cfg.transport.Close()

	log.Infof("terminated stream... id: %s, cause: %s", s.id, cause)
	if s.cfg.onDisconnect != nil {
		s.cfg.onDisconnect(s)
	}
	s.cancelFn()
	s.runQueue.Stop(nil) // stop processing elements
}

func (s *inStream) sendUnavailablePresence(userJID *jid.JID) {
	st, ok := s.registry.State(userJID)
	if !ok || !st.IsAvailable() {
		return
	}
	unavailable := xmpp.NewPresence(userJID, userJID.ToBareJID(), xmpp.UnavailableType)
	if err := s.mods.ProcessPresence(s.baseCtx, unavailable, s); err != nil {
		log.Error(err)
	}
}
