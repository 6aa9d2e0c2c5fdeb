/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package session

import (
	"sync"
	"testing"

	"github.com/ortuman/vysper/xmpp"
	"github.com/ortuman/vysper/xmpp/jid"
	"github.com/ortuman/vysper/xmpp/streamerror"
	"github.com/stretchr/testify/require"
)

func TestContext_StateTransitions(t *testing.T) {
	ctx := NewContext("montague.lit", true)
	require.Equal(t, Initiated, ctx.State())
	require.Equal(t, "montague.lit", ctx.JID().String())
	require.True(t, ctx.TLSRequired())

	require.Nil(t, ctx.SetState(Encrypted))
	require.Nil(t, ctx.Authenticate(jid.MustParse("romeo@montague.lit/orchard")))
	require.Equal(t, Authenticated, ctx.State())
	require.Equal(t, "romeo@montague.lit", ctx.JID().String())

	require.Equal(t, ErrBackwardTransition, ctx.SetState(Encrypted))
	require.False(t, ctx.IsBound())

	require.Nil(t, ctx.BindResource(jid.MustParse("romeo@montague.lit/orchard")))
	require.True(t, ctx.IsBound())
	require.Equal(t, "romeo@montague.lit/orchard", ctx.JID().String())
}

func TestContext_BindRequiresAuthentication(t *testing.T) {
	ctx := NewContext("montague.lit", false)
	require.NotNil(t, ctx.BindResource(jid.MustParse("romeo@montague.lit/orchard")))
	require.False(t, ctx.IsBound())
}

func TestContext_End(t *testing.T) {
	ctx := NewContext("montague.lit", false)
	require.False(t, ctx.IsTerminated())
	require.False(t, ctx.End(NotTerminated))

	var wg sync.WaitGroup
	var ended int32
	var mu sync.Mutex
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ctx.End(ClientDisconnected) {
				mu.Lock()
				ended++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	require.Equal(t, int32(1), ended)

	require.False(t, ctx.End(StreamError))
	require.Equal(t, ClientDisconnected, ctx.TerminationCause())
	require.Equal(t, ErrTerminated, ctx.SetState(Encrypted))

	admitErr := Admit(xmpp.NewElementNamespace("starttls", xmpp.NamespaceTLS), ctx)
	require.Equal(t, ErrTerminated, admitErr)
}

func TestContext_SequenceAndAttributes(t *testing.T) {
	ctx := NewContext("montague.lit", false)
	s1 := ctx.NextSequence()
	s2 := ctx.NextSequence()
	require.NotEqual(t, s1, s2)

	id := ctx.StreamID()
	require.NotEmpty(t, id)
	require.NotEqual(t, id, ctx.RestartStream())

	ctx.SetAttribute("lang", "en")
	require.Equal(t, "en", ctx.Attribute("lang"))
	ctx.SetAttribute("lang", "")
	require.Empty(t, ctx.Attribute("lang"))
}

func TestAdmit(t *testing.T) {
	starttls := xmpp.NewElementNamespace("starttls", xmpp.NamespaceTLS)
	auth := xmpp.NewElementBuilderNamespace("auth", xmpp.NamespaceSASL).WithAttribute("mechanism", "PLAIN").Build()
	bindIQ := xmpp.NewIQType("b1", xmpp.SetType, nil, nil, xmpp.NewElementNamespace("bind", xmpp.NamespaceBind))
	rosterIQ := xmpp.NewIQType("r1", xmpp.GetType, nil, nil, xmpp.NewElementNamespace("query", xmpp.NamespaceRoster))
	presence := xmpp.NewElementName("presence")
	unknown := xmpp.NewElementNamespace("compress", "http://jabber.org/protocol/compress")

	// initiated with TLS required
	ctx := NewContext("montague.lit", true)
	require.Nil(t, Admit(starttls, ctx))
	require.Equal(t, streamerror.ErrNotAuthorized, Admit(auth, ctx))
	require.Equal(t, streamerror.ErrNotAuthorized, Admit(bindIQ, ctx))
	require.Equal(t, streamerror.ErrNotAuthorized, Admit(presence, ctx))
	require.Equal(t, streamerror.ErrUnsupportedStanzaType, Admit(unknown, ctx))
	require.Equal(t, streamerror.ErrUnsupportedStanzaType, Admit(xmpp.NewElementNamespace("proceed", xmpp.NamespaceTLS), ctx))

	// initiated without TLS
	require.Nil(t, Admit(auth, NewContext("montague.lit", false)))

	// encrypted
	require.Nil(t, ctx.SetState(Encrypted))
	require.Equal(t, streamerror.ErrNotAuthorized, Admit(starttls, ctx))
	require.Nil(t, Admit(auth, ctx))
	require.Nil(t, Admit(xmpp.NewElementNamespace("abort", xmpp.NamespaceSASL), ctx))
	require.Equal(t, streamerror.ErrNotAuthorized, Admit(rosterIQ, ctx))

	// authenticated
	require.Nil(t, ctx.Authenticate(jid.MustParse("romeo@montague.lit")))
	require.Equal(t, streamerror.ErrNotAuthorized, Admit(auth, ctx))
	require.Nil(t, Admit(bindIQ, ctx))
	require.Equal(t, streamerror.ErrNotAuthorized, Admit(rosterIQ, ctx))
	require.Equal(t, streamerror.ErrNotAuthorized, Admit(presence, ctx))

	// bound
	require.Nil(t, ctx.BindResource(jid.MustParse("romeo@montague.lit/orchard")))
	require.Nil(t, Admit(rosterIQ, ctx))
	require.Nil(t, Admit(presence, ctx))
	require.Nil(t, Admit(xmpp.NewElementName("message"), ctx))
	require.Equal(t, streamerror.ErrUnsupportedStanzaType, Admit(unknown, ctx))
}
