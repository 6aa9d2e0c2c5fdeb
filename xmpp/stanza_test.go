/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package xmpp_test

import (
	"testing"

	"github.com/ortuman/vysper/xmpp"
	"github.com/ortuman/vysper/xmpp/jid"
	"github.com/stretchr/testify/require"
)

var (
	romeo  = jid.MustParse("romeo@montague.lit/orchard")
	juliet = jid.MustParse("juliet@capulet.lit/balcony")
)

func TestIQ_Validation(t *testing.T) {
	_, err := xmpp.NewIQFromElement(xmpp.NewElementName("message"), romeo, juliet)
	require.NotNil(t, err)

	_, err = xmpp.NewIQFromElement(xmpp.NewElementBuilder("iq").WithType("get").Build(), romeo, juliet)
	require.NotNil(t, err) // no id

	_, err = xmpp.NewIQFromElement(xmpp.NewElementBuilder("iq").WithID("1").WithType("get").Build(), romeo, juliet)
	require.NotNil(t, err) // no payload

	_, err = xmpp.NewIQFromElement(xmpp.NewElementBuilder("iq").WithID("1").WithType("foo").Build(), romeo, juliet)
	require.NotNil(t, err)

	iq, err := xmpp.NewIQFromElement(xmpp.NewElementBuilder("iq").
		WithID("1").
		WithType("get").
		WithNamespace(xmpp.NamespaceClient).
		AppendElement(xmpp.NewElementNamespace("ping", xmpp.NamespacePing)).
		Build(), romeo, juliet)
	require.Nil(t, err)
	require.True(t, iq.IsGet())
	require.Equal(t, "", iq.Namespace())
	require.Equal(t, romeo.String(), iq.From())
	require.Equal(t, juliet.String(), iq.To())
	require.Equal(t, "ping", iq.Payload().Name())

	res := iq.ResultIQ()
	require.True(t, res.IsResult())
	require.Equal(t, "1", res.ID())
	require.True(t, res.ToJID().Equal(romeo))
	require.True(t, res.FromJID().Equal(juliet))
	require.Nil(t, res.Payload())
}

func TestPresence_Parsing(t *testing.T) {
	elem := xmpp.NewElementBuilder("presence").
		AppendElement(xmpp.NewElementBuilder("show").WithText("dnd").Build()).
		AppendElement(xmpp.NewElementBuilder("priority").WithText("-5").Build()).
		AppendElement(xmpp.NewElementBuilder("status").WithText("busy").Build()).
		Build()
	p, err := xmpp.NewPresenceFromElement(elem, romeo, nil)
	require.Nil(t, err)
	require.True(t, p.IsAvailable())
	require.Equal(t, xmpp.DoNotDisturbShowState, p.ShowState())
	require.Equal(t, int8(-5), p.Priority())
	require.Equal(t, "busy", p.Status())
	require.Nil(t, p.ToJID())
	require.Equal(t, "", p.To())

	bad := xmpp.NewElementBuilder("presence").
		AppendElement(xmpp.NewElementBuilder("priority").WithText("200").Build()).
		Build()
	_, err = xmpp.NewPresenceFromElement(bad, romeo, nil)
	require.NotNil(t, err)

	_, err = xmpp.NewPresenceFromElement(xmpp.NewElementBuilder("presence").WithType("bogus").Build(), romeo, nil)
	require.NotNil(t, err)
}

func TestPresence_ShowStates(t *testing.T) {
	for _, show := range []string{"away", "chat", "dnd", "xa"} {
		elem := xmpp.NewElementBuilder("presence").
			AppendElement(xmpp.NewElementBuilder("show").WithText(show).Build()).
			Build()
		p, err := xmpp.NewPresenceFromElement(elem, romeo, nil)
		require.Nil(t, err)
		require.Equal(t, show, p.ShowState().String())
	}
	require.Equal(t, "", xmpp.AvailableShowState.String())

	twice := xmpp.NewElementBuilder("presence").
		AppendElement(xmpp.NewElementBuilder("show").WithText("away").Build()).
		AppendElement(xmpp.NewElementBuilder("show").WithText("xa").Build()).
		Build()
	_, err := xmpp.NewPresenceFromElement(twice, romeo, nil)
	require.NotNil(t, err)

	unknown := xmpp.NewElementBuilder("presence").
		AppendElement(xmpp.NewElementBuilder("show").WithText("sleeping").Build()).
		Build()
	_, err = xmpp.NewPresenceFromElement(unknown, romeo, nil)
	require.NotNil(t, err)
}

func TestNewStanzaFromElement(t *testing.T) {
	elem := xmpp.NewElementBuilder("message").
		WithType("chat").
		WithFrom("romeo@montague.lit/orchard").
		WithTo("juliet@capulet.lit").
		AppendElement(xmpp.NewElementBuilder("body").WithText("hi").Build()).
		Build()
	s, err := xmpp.NewStanzaFromElement(elem)
	require.Nil(t, err)
	msg, ok := s.(*xmpp.Message)
	require.True(t, ok)
	require.True(t, msg.IsChat())
	require.Equal(t, "hi", msg.Body())
	require.Equal(t, "juliet@capulet.lit", msg.ToJID().String())

	_, err = xmpp.NewStanzaFromElement(xmpp.NewElementBuilder("message").WithTo("@bad").Build())
	require.Equal(t, xmpp.ErrJidMalformed, err)

	_, err = xmpp.NewStanzaFromElement(xmpp.NewElementName("auth"))
	require.NotNil(t, err)
}

func TestReaddress(t *testing.T) {
	p := xmpp.NewPresence(romeo, nil, xmpp.AvailableType,
		xmpp.NewElementBuilder("priority").WithText("3").Build())

	to := jid.MustParse("benvolio@montague.lit")
	cp := xmpp.Readdress(p, romeo.ToBareJID(), to)

	rp, ok := cp.(*xmpp.Presence)
	require.True(t, ok)
	require.Equal(t, int8(3), rp.Priority())
	require.Equal(t, "romeo@montague.lit", rp.From())
	require.Equal(t, "benvolio@montague.lit", rp.To())
	require.Equal(t, "", p.To())
}
