/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package xmpp

// Protocol namespaces.
const (
	NamespaceClient    = "jabber:client"
	NamespaceServer    = "jabber:server"
	NamespaceStream    = "http://etherx.jabber.org/streams"
	NamespaceStreams   = "urn:ietf:params:xml:ns:xmpp-streams"
	NamespaceStanzas   = "urn:ietf:params:xml:ns:xmpp-stanzas"
	NamespaceTLS       = "urn:ietf:params:xml:ns:xmpp-tls"
	NamespaceSASL      = "urn:ietf:params:xml:ns:xmpp-sasl"
	NamespaceBind      = "urn:ietf:params:xml:ns:xmpp-bind"
	NamespaceSession   = "urn:ietf:params:xml:ns:xmpp-session"
	NamespaceRoster    = "jabber:iq:roster"
	NamespacePing      = "urn:xmpp:ping"
	NamespaceFraming   = "urn:ietf:params:xml:ns:xmpp-framing"
	NamespaceComponent = "jabber:component:accept"
)
